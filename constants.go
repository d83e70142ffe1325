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

package poolkeeper

const (
	// Version project
	Version = "beta"

	// DefaultPoolName is the zfs pool every onboarded device joins.
	DefaultPoolName = "self-storage"
	// DefaultRecordPath is the flat device table, relative to the working directory.
	DefaultRecordPath = ".storagedevices"
	// DefaultShareService is restarted after the pool grows so shares see the new capacity.
	DefaultShareService = "smbd.service"

	DefaultConfigPath = "/etc/poolkeeper/config.yaml"
	DefaultLogPath    = "/var/log/poolkeeper/poolkeeper.log"
	DefaultHttpAddr   = "127.0.0.1:8089"

	// InventoryLsblk and InventoryGhw select the device inventory source.
	InventoryLsblk = "lsblk"
	InventoryGhw   = "ghw"

	// PartitionerParted and PartitionerDisko select how a raw device is wiped and partitioned.
	PartitionerParted = "parted"
	PartitionerDisko  = "disko"

	// TransportUSB is the lsblk "tran" value of usb attached disks
	TransportUSB = "usb"

	// MetricsNamespace prefixes every exported metric
	MetricsNamespace = "poolkeeper"
)
