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
	"fmt"
	"time"

	"k8s.io/mount-utils"

	"github.com/selfstorage/poolkeeper"
	"github.com/selfstorage/poolkeeper/utils/exec"
	"github.com/selfstorage/poolkeeper/utils/log"
)

// Partitioner prepares a raw device for the pool. Both steps are safe to repeat.
type Partitioner interface {
	// Erase removes every filesystem, raid and partition-table signature
	Erase(ctx context.Context, name string) error
	// Partition writes a single primary partition spanning the device
	Partition(ctx context.Context, name string) error
}

// New returns the partitioner selected by kind
func New(kind string, executor exec.Executor, mounter mount.Interface, timeout time.Duration) (Partitioner, error) {
	switch kind {
	case "", poolkeeper.PartitionerParted:
		return NewPartedPartitioner(executor, mounter, timeout), nil
	case poolkeeper.PartitionerDisko:
		return NewDiskoPartitioner(executor, mounter, timeout), nil
	default:
		return nil, fmt.Errorf("unsupported partitioner %q", kind)
	}
}

// DevicePath maps a kernel name to its device node
func DevicePath(name string) string {
	return "/dev/" + name
}

// PartedPartitioner wipes with wipefs and partitions with parted
type PartedPartitioner struct {
	Executor exec.Executor
	Mounter  mount.Interface
	Timeout  time.Duration
}

func NewPartedPartitioner(executor exec.Executor, mounter mount.Interface, timeout time.Duration) *PartedPartitioner {
	return &PartedPartitioner{Executor: executor, Mounter: mounter, Timeout: timeout}
}

func (p *PartedPartitioner) Erase(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := releaseMounts(p.Mounter, DevicePath(name)); err != nil {
		return err
	}
	out, err := p.Executor.ExecuteCommandWithTimeout(p.Timeout, "wipefs", "--all", DevicePath(name))
	if err != nil {
		return err
	}
	log.Debug(out)
	return nil
}

func (p *PartedPartitioner) Partition(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	out, err := p.Executor.ExecuteCommandWithTimeout(p.Timeout, "parted", "-s", "-a", "optimal", DevicePath(name),
		"mklabel", "msdos", "mkpart", "primary", "0%", "100%")
	if err != nil {
		return err
	}
	log.Debug(out)
	return nil
}
