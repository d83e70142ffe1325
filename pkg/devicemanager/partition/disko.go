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
	"context"
	"errors"
	"time"

	"github.com/anuvu/disko"
	"github.com/anuvu/disko/linux"
	"github.com/anuvu/disko/partid"
	"k8s.io/mount-utils"

	"github.com/selfstorage/poolkeeper/utils/exec"
	"github.com/selfstorage/poolkeeper/utils/log"
)

// partition label written by the disko partitioner
const partitionName = "poolkeeper"

// diskSystem is the part of disko.System used here
type diskSystem interface {
	ScanDisk(devicePath string) (disko.Disk, error)
	CreatePartition(d disko.Disk, p disko.Partition) error
	Wipe(d disko.Disk) error
}

// DiskoPartitioner talks to the partition table directly instead of
// shelling out to wipefs and parted. It writes a gpt label.
type DiskoPartitioner struct {
	Executor exec.Executor
	Mounter  mount.Interface
	Timeout  time.Duration
	system   diskSystem
}

func NewDiskoPartitioner(executor exec.Executor, mounter mount.Interface, timeout time.Duration) *DiskoPartitioner {
	return &DiskoPartitioner{
		Executor: executor,
		Mounter:  mounter,
		Timeout:  timeout,
		system:   linux.System(),
	}
}

func (d *DiskoPartitioner) Erase(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := releaseMounts(d.Mounter, DevicePath(name)); err != nil {
		return err
	}
	disk, err := d.system.ScanDisk(DevicePath(name))
	if err != nil {
		log.Errorf("scanDisk path %s failed: %v", DevicePath(name), err)
		return err
	}
	if err := d.system.Wipe(disk); err != nil {
		return err
	}
	return d.udevSettle()
}

func (d *DiskoPartitioner) Partition(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	disk, err := d.system.ScanDisk(DevicePath(name))
	if err != nil {
		log.Errorf("scanDisk path %s failed: %v", DevicePath(name), err)
		return err
	}

	// the largest free range becomes the partition
	var free *disko.FreeSpace
	for _, fs := range disk.FreeSpaces() {
		fs := fs
		if free == nil || fs.Size() > free.Size() {
			free = &fs
		}
	}
	if free == nil {
		return errors.New("no free space on " + disk.Path)
	}

	part := disko.Partition{
		Start:  free.Start,
		Last:   free.Last,
		Type:   partid.LinuxFS,
		Name:   partitionName,
		Number: 1,
	}
	log.Info("create partition ", part)
	if err := d.system.CreatePartition(disk, part); err != nil {
		log.Errorf("create partition on disk %s failed: %v", disk.Path, err)
		return err
	}
	return d.udevSettle()
}

func (d *DiskoPartitioner) udevSettle() error {
	_, err := d.Executor.ExecuteCommandWithTimeout(d.Timeout, "udevadm", "settle")
	return err
}
