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
	"context"
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/selfstorage/poolkeeper/pkg/devicemanager/partition"
	"github.com/selfstorage/poolkeeper/utils/log"
)

// Step names one stage of onboarding a device
type Step string

const (
	StepErase     Step = "erase"
	StepPartition Step = "partition"
	StepPoolAdd   Step = "pool-add"
)

// ProvisionError reports which step failed for which device
type ProvisionError struct {
	Device string
	Step   Step
	Err    error
}

func (e *ProvisionError) Error() string {
	return fmt.Sprintf("provision %s: %s failed: %v", e.Device, e.Step, e.Err)
}

func (e *ProvisionError) Unwrap() error {
	return e.Err
}

// PoolAdder creates the pool or extends it with a device
type PoolAdder interface {
	AddDevice(ctx context.Context, device string, create bool) error
}

// Provisioner turns a raw device into a pool member: erase, partition,
// pool add. A failed step stops the sequence; completed steps are not
// rolled back. Only call it for devices that are not pool members yet,
// pool add is not idempotent.
type Provisioner struct {
	Partitioner partition.Partitioner
	Pool        PoolAdder
	// CheckDevice vets the device node before anything is written to it
	CheckDevice func(path string) error
}

func NewProvisioner(p partition.Partitioner, pool PoolAdder) *Provisioner {
	return &Provisioner{Partitioner: p, Pool: pool, CheckDevice: IsBlockDevice}
}

func (p *Provisioner) Provision(ctx context.Context, name string, createPool bool) error {
	steps := []struct {
		step Step
		run  func() error
	}{
		{StepErase, func() error {
			if p.CheckDevice != nil {
				if err := p.CheckDevice(partition.DevicePath(name)); err != nil {
					return err
				}
			}
			return p.Partitioner.Erase(ctx, name)
		}},
		{StepPartition, func() error { return p.Partitioner.Partition(ctx, name) }},
		{StepPoolAdd, func() error { return p.Pool.AddDevice(ctx, name, createPool) }},
	}

	for _, s := range steps {
		if err := s.run(); err != nil {
			return &ProvisionError{Device: name, Step: s.step, Err: err}
		}
		log.Debugf("device %s: %s done", name, s.step)
	}
	return nil
}

// IsBlockDevice fails unless path is a block special file
func IsBlockDevice(path string) error {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if st.Mode&unix.S_IFMT != unix.S_IFBLK {
		return fmt.Errorf("%s is not a block device", path)
	}
	return nil
}
