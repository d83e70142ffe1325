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

package registry

import (
	"sort"
	"sync"

	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/selfstorage/poolkeeper/pkg/devicemanager/types"
)

// Registry is the in-memory table of known devices keyed by serial.
// The reconciliation worker is its only writer; readers such as the
// status listener go through the same lock.
type Registry struct {
	mu      sync.RWMutex
	devices map[string]types.StorageDevice
}

func New() *Registry {
	return &Registry{devices: map[string]types.StorageDevice{}}
}

// Get returns a copy of the device record
func (r *Registry) Get(serial string) (types.StorageDevice, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.devices[serial]
	return d, ok
}

func (r *Registry) Has(serial string) bool {
	_, ok := r.Get(serial)
	return ok
}

// Upsert inserts or replaces the record of d.Serial. InPool is sticky.
func (r *Registry) Upsert(d types.StorageDevice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.devices[d.Serial]; ok && old.InPool {
		d.InPool = true
	}
	r.devices[d.Serial] = d
}

// All returns copies of every record ordered by serial
func (r *Registry) All() []types.StorageDevice {
	r.mu.RLock()
	defer r.mu.RUnlock()
	resp := make([]types.StorageDevice, 0, len(r.devices))
	for _, d := range r.devices {
		resp = append(resp, d)
	}
	sort.Slice(resp, func(i, j int) bool {
		return resp[i].Serial < resp[j].Serial
	})
	return resp
}

// PoolMembers returns the serials of devices provisioned into the pool
func (r *Registry) PoolMembers() sets.String {
	r.mu.RLock()
	defer r.mu.RUnlock()
	members := sets.NewString()
	for serial, d := range r.devices {
		if d.InPool {
			members.Insert(serial)
		}
	}
	return members
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.devices)
}

// MarkDisconnected flags a device missing from the inventory.
// It returns true when the record changed.
func (r *Registry) MarkDisconnected(serial string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.devices[serial]
	if !ok || (!d.Connected && d.Status == types.StatusOffline) {
		return false
	}
	d.Connected = false
	d.Status = types.StatusOffline
	r.devices[serial] = d
	return true
}

// MarkConnected flags a device seen again in the inventory under name.
// It returns true when the record changed.
func (r *Registry) MarkConnected(serial, name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.devices[serial]
	if !ok || (d.Connected && d.Name == name) {
		return false
	}
	d.Connected = true
	d.Status = types.StatusOnline
	if name != "" {
		d.Name = name
	}
	r.devices[serial] = d
	return true
}
