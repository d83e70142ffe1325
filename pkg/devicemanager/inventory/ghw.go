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

package inventory

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jaypipes/ghw"

	"github.com/selfstorage/poolkeeper"
	"github.com/selfstorage/poolkeeper/pkg/devicemanager/types"
	"github.com/selfstorage/poolkeeper/utils/log"
)

// ghw reports missing attributes as "unknown"
const ghwUnknown = "unknown"

// GhwSource reads the inventory from sysfs through ghw, for hosts whose
// lsblk lacks json output.
type GhwSource struct {
	block    func() (*ghw.BlockInfo, error)
	readOnly func(name string) (bool, error)
}

func NewGhwSource() *GhwSource {
	return &GhwSource{
		block: func() (*ghw.BlockInfo, error) {
			return ghw.Block()
		},
		readOnly: sysfsReadOnly,
	}
}

func (s *GhwSource) List(ctx context.Context) ([]types.BlockDevice, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	info, err := s.block()
	if err != nil {
		return nil, fmt.Errorf("failed to get block devices: %w", err)
	}
	resp := make([]types.BlockDevice, 0, len(info.Disks))
	for _, d := range info.Disks {
		ro, err := s.readOnly(d.Name)
		if err != nil {
			// without the flag the device can't be judged, leave it for the next pass
			log.Warnf("skipping %s: %v", d.Name, err)
			continue
		}
		resp = append(resp, types.BlockDevice{
			Serial:    known(d.SerialNumber),
			Name:      d.Name,
			Vendor:    known(d.Vendor),
			Model:     known(d.Model),
			Size:      humanize.IBytes(d.SizeBytes),
			Transport: transport(d.BusPath),
			Removable: d.IsRemovable,
			ReadOnly:  ro,
		})
	}
	return resp, nil
}

// transport derives the lsblk style transport from the by-path link,
// e.g. pci-0000:00:14.0-usb-0:2:1.0-scsi-0:0:0:0
func transport(busPath string) string {
	if strings.Contains(busPath, "-"+poolkeeper.TransportUSB+"-") {
		return poolkeeper.TransportUSB
	}
	return ""
}

func known(v string) string {
	v = strings.TrimSpace(v)
	if v == ghwUnknown {
		return ""
	}
	return v
}

func sysfsReadOnly(name string) (bool, error) {
	contents, err := os.ReadFile(fmt.Sprintf("/sys/class/block/%s/ro", name))
	if err != nil {
		return false, fmt.Errorf("failed to read readonly state for %s: %w", name, err)
	}
	return strings.TrimSpace(string(contents)) == "1", nil
}
