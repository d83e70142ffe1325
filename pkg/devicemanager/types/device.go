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

import "fmt"

// Status is the health of a managed device
type Status string

const (
	StatusUnknown     Status = "unknown"
	StatusOnline      Status = "online"
	StatusOffline     Status = "offline"
	StatusDegraded    Status = "degraded"
	StatusUnavailable Status = "unavailable"
	StatusFaulted     Status = "faulted"
)

// AllStatuses lists every Status in declaration order
var AllStatuses = []Status{StatusUnknown, StatusOnline, StatusOffline, StatusDegraded, StatusUnavailable, StatusFaulted}

// ParseStatus maps a persisted status string back to a Status.
func ParseStatus(s string) (Status, error) {
	for _, st := range AllStatuses {
		if string(st) == s {
			return st, nil
		}
	}
	return StatusUnknown, fmt.Errorf("unknown device status %q", s)
}

func (s Status) String() string {
	return string(s)
}

// BackupInfo is the outcome of the last backup onto the device.
type BackupInfo struct {
	DeviceSerial string `json:"deviceSerial"`
	LastDatetime string `json:"lastDatetime"`
	ErrorStr     string `json:"errorStr"`
}

// StorageDevice is everything known about one device, keyed by Serial.
type StorageDevice struct {
	Serial string `json:"serial"`
	// Name may change across reconnects
	Name   string `json:"name"`
	Vendor string `json:"vendor"`
	Model  string `json:"model"`
	Size   string `json:"size"`
	// Reliable is reserved for reliability scoring
	Reliable bool `json:"reliable"`
	// InPool never goes back to false once set
	InPool     bool       `json:"inPool"`
	Connected  bool       `json:"connected"`
	BackupInfo BackupInfo `json:"backupInfo"`
	Status     Status     `json:"status"`
}

// NewStorageDevice builds the record of a first seen device.
func NewStorageDevice(b BlockDevice) StorageDevice {
	return StorageDevice{
		Serial:   b.Serial,
		Name:     b.Name,
		Vendor:   b.Vendor,
		Model:    b.Model,
		Size:     b.Size,
		Reliable: true,
		Status:   StatusUnknown,
	}
}
