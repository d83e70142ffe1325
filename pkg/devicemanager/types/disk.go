/*
   Copyright @ 2021 bocloud <fushaosong@beyondcent.com>.

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

package types

import (
	"strings"

	"github.com/selfstorage/poolkeeper"
)

// BlockDevice is one entry of the live device inventory
type BlockDevice struct {
	// Serial is the vendor assigned serial number, the device identity
	Serial string `json:"serial"`
	// Name is the kernel name, e.g. sdb
	Name   string `json:"name"`
	Vendor string `json:"vendor"`
	Model  string `json:"model"`
	// Size as reported by the inventory source, e.g. 1T
	Size string `json:"size"`
	// Transport is the lsblk "tran" column: usb, sata, nvme ...
	Transport string `json:"transport"`
	Removable bool   `json:"removable"`
	ReadOnly  bool   `json:"readOnly"`
}

// Eligible reports whether the device may be onboarded: usb attached or
// removable media, and writable.
func (b BlockDevice) Eligible() bool {
	return (strings.EqualFold(b.Transport, poolkeeper.TransportUSB) || b.Removable) && !b.ReadOnly
}
