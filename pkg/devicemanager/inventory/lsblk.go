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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/selfstorage/poolkeeper/pkg/devicemanager/types"
	"github.com/selfstorage/poolkeeper/utils/exec"
	"github.com/selfstorage/poolkeeper/utils/log"
)

/*
# lsblk --json --nodeps --output SERIAL,NAME,VENDOR,MODEL,SIZE,TRAN,RM,RO
{
   "blockdevices": [
      {"serial": "S3Z9NB0K123456", "name": "sda", "vendor": "ATA     ", "model": "Samsung SSD 860", "size": "465.8G", "tran": "sata", "rm": false, "ro": false},
      {"serial": "4C530001230417", "name": "sdb", "vendor": "SanDisk ", "model": "Cruzer Blade", "size": "14.3G", "tran": "usb", "rm": true, "ro": false},
      {"serial": null, "name": "loop0", "vendor": null, "model": null, "size": "55.4M", "tran": null, "rm": false, "ro": true}
   ]
}
older util-linux prints "rm": "1" and "ro": "0" instead of booleans.
*/
var lsblkArgs = []string{"--json", "--nodeps", "--output", "SERIAL,NAME,VENDOR,MODEL,SIZE,TRAN,RM,RO"}

// LsblkSource reads the inventory from lsblk
type LsblkSource struct {
	Executor exec.Executor
	Timeout  time.Duration
}

func NewLsblkSource(executor exec.Executor, timeout time.Duration) *LsblkSource {
	return &LsblkSource{Executor: executor, Timeout: timeout}
}

func (s *LsblkSource) List(ctx context.Context) ([]types.BlockDevice, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out, err := s.Executor.ExecuteCommandWithTimeout(s.Timeout, "lsblk", lsblkArgs...)
	if err != nil {
		return nil, fmt.Errorf("list block devices: %w", err)
	}
	devices, err := parseLsblk([]byte(out))
	if err != nil {
		return nil, err
	}
	log.Debugf("inventory: %d block devices", len(devices))
	return devices, nil
}

type lsblkOutput struct {
	BlockDevices []lsblkDevice `json:"blockdevices"`
}

type lsblkDevice struct {
	Serial flexString `json:"serial"`
	Name   flexString `json:"name"`
	Vendor flexString `json:"vendor"`
	Model  flexString `json:"model"`
	Size   flexString `json:"size"`
	Tran   flexString `json:"tran"`
	Rm     flexBool   `json:"rm"`
	Ro     flexBool   `json:"ro"`
}

func parseLsblk(raw []byte) ([]types.BlockDevice, error) {
	var parsed lsblkOutput
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parse lsblk output: %w", err)
	}
	resp := make([]types.BlockDevice, 0, len(parsed.BlockDevices))
	for _, d := range parsed.BlockDevices {
		resp = append(resp, types.BlockDevice{
			Serial:    strings.TrimSpace(string(d.Serial)),
			Name:      strings.TrimSpace(string(d.Name)),
			Vendor:    strings.TrimSpace(string(d.Vendor)),
			Model:     strings.TrimSpace(string(d.Model)),
			Size:      strings.TrimSpace(string(d.Size)),
			Transport: strings.TrimSpace(string(d.Tran)),
			Removable: bool(d.Rm),
			ReadOnly:  bool(d.Ro),
		})
	}
	return resp, nil
}

// flexString accepts a json string, number or null
type flexString string

func (s *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*s = ""
	case len(b) > 0 && b[0] == '"':
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = flexString(v)
	default:
		*s = flexString(b)
	}
	return nil
}

// flexBool accepts true/false, "1"/"0" and null
type flexBool bool

func (v *flexBool) UnmarshalJSON(b []byte) error {
	var s flexString
	if err := s.UnmarshalJSON(b); err != nil {
		return err
	}
	if s == "" {
		*v = false
		return nil
	}
	parsed, err := strconv.ParseBool(string(s))
	if err != nil {
		return fmt.Errorf("invalid boolean %s", b)
	}
	*v = flexBool(parsed)
	return nil
}
