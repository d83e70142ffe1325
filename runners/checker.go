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

package runners

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/multierr"

	"github.com/selfstorage/poolkeeper"
	"github.com/selfstorage/poolkeeper/utils/exec"
	"github.com/selfstorage/poolkeeper/utils/log"
)

// RequiredUtilities are the system tools the default inventory source,
// partitioner, pool and sharing backends shell out to.
var RequiredUtilities = []string{"lsblk", "wipefs", "parted", "zpool", "systemctl"}

// UtilitiesFor narrows RequiredUtilities to the configured backends
func UtilitiesFor(inventorySource, partitioner string) []string {
	resp := []string{}
	if inventorySource != poolkeeper.InventoryGhw {
		resp = append(resp, "lsblk")
	}
	if partitioner == poolkeeper.PartitionerDisko {
		resp = append(resp, "udevadm")
	} else {
		resp = append(resp, "wipefs", "parted")
	}
	return append(resp, "zpool", "systemctl")
}

type readinessCheck struct {
	check    func() error
	interval time.Duration

	mu    sync.RWMutex
	ready bool
	err   error
}

// Checker is the interface to check daemon readiness.
type Checker interface {
	Start(ctx context.Context) error
	Ready() (bool, error)
}

// NewChecker creates a Checker running the check function periodically
// at given interval.
func NewChecker(check func() error, interval time.Duration) Checker {
	return &readinessCheck{check: check, interval: interval}
}

// UtilitiesCheck fails naming every utility that does not resolve on PATH
func UtilitiesCheck(executor exec.Executor, utilities ...string) func() error {
	return func() error {
		var errs error
		for _, u := range utilities {
			if _, err := executor.LookPath(u); err != nil {
				errs = multierr.Append(errs, fmt.Errorf("required utility %s: %w", u, err))
			}
		}
		return errs
	}
}

func (c *readinessCheck) setError(e error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// becomes ready at the first nil check and stays ready
	if e == nil {
		c.ready = true
	} else {
		log.Warnf("readiness check failed: %v", e)
	}
	c.err = e
}

// Start checks once, then on every interval until ctx is done.
func (c *readinessCheck) Start(ctx context.Context) error {
	c.setError(c.check())

	tick := time.NewTicker(c.interval)
	defer tick.Stop()

	for {
		select {
		case <-tick.C:
			c.setError(c.check())
		case <-ctx.Done():
			return nil
		}
	}
}

// Ready reports whether a check has ever passed, and the latest error.
func (c *readinessCheck) Ready() (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ready, c.err
}
