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

package partition

import (
	"fmt"
	"strings"

	"k8s.io/mount-utils"

	"github.com/selfstorage/poolkeeper/utils/log"
)

// releaseMounts unmounts every filesystem that lives on devicePath or one
// of its partitions. Desktop hosts auto-mount usb sticks, and wipefs
// refuses busy devices.
func releaseMounts(mounter mount.Interface, devicePath string) error {
	if mounter == nil {
		return nil
	}
	mps, err := mounter.List()
	if err != nil {
		return fmt.Errorf("list mounts: %w", err)
	}
	for _, mp := range mps {
		if !onDevice(mp.Device, devicePath) {
			continue
		}
		log.Infof("unmounting %s from %s", mp.Device, mp.Path)
		if err := mounter.Unmount(mp.Path); err != nil {
			return fmt.Errorf("unmount %s: %w", mp.Path, err)
		}
	}
	return nil
}

// onDevice matches /dev/sdb, /dev/sdb1 and /dev/nvme0n1p1 style names
func onDevice(source, devicePath string) bool {
	if !strings.HasPrefix(source, devicePath) {
		return false
	}
	rest := strings.TrimPrefix(strings.TrimPrefix(source, devicePath), "p")
	for _, c := range rest {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
