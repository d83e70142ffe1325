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

package deviceManager

import (
	"time"

	"k8s.io/mount-utils"

	"github.com/selfstorage/poolkeeper/pkg/devicemanager/inventory"
	"github.com/selfstorage/poolkeeper/pkg/devicemanager/partition"
	"github.com/selfstorage/poolkeeper/pkg/devicemanager/registry"
	"github.com/selfstorage/poolkeeper/pkg/devicemanager/zpool"
	"github.com/selfstorage/poolkeeper/pkg/sharing"
	"github.com/selfstorage/poolkeeper/utils/exec"
)

// Options selects the collaborators of a DeviceManager
type Options struct {
	PoolName        string
	RecordPath      string
	ShareService    string
	InventorySource string
	Partitioner     string
	CommandTimeout  time.Duration
}

type DeviceManager struct {
	// The implementation of executing a console command
	Executor exec.Executor
	// 当前设备清单
	Inventory inventory.Source
	// 已知设备，启动时从记录文件加载
	Registry *registry.Registry
	Store    *registry.RecordStore
	// 磁盘加入存储池
	Provisioner *Provisioner
	Sharing     *sharing.Restarter
}

// NewDeviceManager wires the collaborators and loads the device record.
// A malformed record is returned as an error so the caller can stop
// before touching any disk.
func NewDeviceManager(opt Options) (*DeviceManager, error) {
	executor := &exec.CommandExecutor{}
	return newDeviceManager(opt, executor, mount.New(""))
}

func newDeviceManager(opt Options, executor exec.Executor, mounter mount.Interface) (*DeviceManager, error) {
	source, err := inventory.New(opt.InventorySource, executor, opt.CommandTimeout)
	if err != nil {
		return nil, err
	}
	partitioner, err := partition.New(opt.Partitioner, executor, mounter, opt.CommandTimeout)
	if err != nil {
		return nil, err
	}

	store := registry.NewRecordStore(opt.RecordPath)
	reg, err := store.Load()
	if err != nil {
		return nil, err
	}

	return &DeviceManager{
		Executor:    executor,
		Inventory:   source,
		Registry:    reg,
		Store:       store,
		Provisioner: NewProvisioner(partitioner, zpool.NewPool(executor, opt.PoolName, opt.CommandTimeout)),
		Sharing:     sharing.NewRestarter(executor, opt.ShareService, opt.CommandTimeout),
	}, nil
}
