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
	"errors"
	"fmt"
	"time"

	"k8s.io/apimachinery/pkg/util/sets"
	"k8s.io/utils/clock"

	"github.com/selfstorage/poolkeeper/pkg/configuration"
	deviceManager "github.com/selfstorage/poolkeeper/pkg/devicemanager"
	"github.com/selfstorage/poolkeeper/pkg/devicemanager/inventory"
	"github.com/selfstorage/poolkeeper/pkg/devicemanager/registry"
	"github.com/selfstorage/poolkeeper/pkg/devicemanager/types"
	"github.com/selfstorage/poolkeeper/pkg/metrics"
	"github.com/selfstorage/poolkeeper/utils/log"
)

// DeviceProvisioner onboards one device into the pool
type DeviceProvisioner interface {
	Provision(ctx context.Context, name string, createPool bool) error
}

// RecordPersister writes the full registry to durable storage
type RecordPersister interface {
	Persist(reg *registry.Registry) error
}

// ServiceRestarter refreshes the file-sharing service
type ServiceRestarter interface {
	Restart(ctx context.Context) error
}

// DeviceCheck is the reconciliation worker. It is the only writer of
// the registry; passes run one at a time on the Start goroutine.
type DeviceCheck struct {
	inventory   inventory.Source
	registry    *registry.Registry
	provisioner DeviceProvisioner
	store       RecordPersister
	sharing     ServiceRestarter

	clock    clock.WithTicker
	interval func() time.Duration

	// 配置变更后重新读取巡检间隔
	configModifyChan chan struct{}
}

func NewDeviceCheck(dm *deviceManager.DeviceManager) *DeviceCheck {
	dc := newDeviceCheck(dm.Inventory, dm.Registry, dm.Provisioner, dm.Store, dm.Sharing, clock.RealClock{}, configuration.PollInterval)
	// 注册监听配置变更
	configuration.RegisterListenerChan(dc.configModifyChan)
	return dc
}

func newDeviceCheck(source inventory.Source, reg *registry.Registry, provisioner DeviceProvisioner,
	store RecordPersister, sharing ServiceRestarter, clk clock.WithTicker, interval func() time.Duration) *DeviceCheck {
	return &DeviceCheck{
		inventory:        source,
		registry:         reg,
		provisioner:      provisioner,
		store:            store,
		sharing:          sharing,
		clock:            clk,
		interval:         interval,
		configModifyChan: make(chan struct{}, 1),
	}
}

// Start runs a pass immediately and then one per poll interval until ctx
// is cancelled.
func (dc *DeviceCheck) Start(ctx context.Context) error {
	log.Info("Starting device scan...")
	// 服务启动先检查一次
	_ = dc.Reconcile(ctx)

	monitorInterval := dc.interval()
	ticker := dc.clock.NewTicker(monitorInterval)
	defer func() { ticker.Stop() }()

	for {
		select {
		case <-ticker.C():
			log.Debugf("clock %s device scan...", monitorInterval)
			_ = dc.Reconcile(ctx)
		case <-dc.configModifyChan:
			if i := dc.interval(); i != monitorInterval {
				log.Infof("poll interval changed from %s to %s", monitorInterval, i)
				monitorInterval = i
				ticker.Stop()
				ticker = dc.clock.NewTicker(monitorInterval)
			}
		case <-ctx.Done():
			log.Info("stop device scan...")
			return nil
		}
	}
}

// Reconcile performs one pass: membership check, onboarding of new
// eligible devices, persistence and service refresh.
func (dc *DeviceCheck) Reconcile(ctx context.Context) error {
	begin := dc.clock.Now()
	result, err := dc.reconcile(ctx)
	metrics.ObserveReconcile(result, dc.clock.Since(begin))
	return err
}

func (dc *DeviceCheck) reconcile(ctx context.Context) (string, error) {
	devices, err := dc.inventory.List(ctx)
	if err != nil {
		log.Errorf("list block devices failed: %v", err)
		return metrics.ResultFailure, fmt.Errorf("list block devices: %w", err)
	}

	present := map[string]types.BlockDevice{}
	for _, d := range devices {
		if d.Serial == "" {
			log.Debugf("skip device %s without serial", d.Name)
			continue
		}
		present[d.Serial] = d
	}

	changed := false
	if members := dc.registry.PoolMembers(); members.Len() > 0 {
		for _, serial := range members.List() {
			d, ok := present[serial]
			if ok && dc.registry.MarkConnected(serial, d.Name) {
				log.Infof("pool device %s is back as %s", serial, d.Name)
				changed = true
			}
		}

		missing := members.Difference(sets.StringKeySet(present))
		for _, serial := range missing.List() {
			log.Errorf("pool device %s is missing", serial)
			if dc.registry.MarkDisconnected(serial) {
				changed = true
			}
		}
		if missing.Len() > 0 {
			log.Warnf("%d pool device(s) missing, skip adding new devices", missing.Len())
			if changed {
				dc.persist()
			}
			return metrics.ResultSkipped, nil
		}
	}

	added := 0
	for _, d := range devices {
		if ctx.Err() != nil {
			break
		}
		if d.Serial == "" || dc.registry.Has(d.Serial) {
			continue
		}
		if !d.Eligible() {
			log.Debugf("mismatched device %s, transport %q, removable %t, readonly %t", d.Name, d.Transport, d.Removable, d.ReadOnly)
			continue
		}

		createPool := dc.registry.PoolMembers().Len() == 0
		log.Infof("eligible device %s serial %s, provisioning", d.Name, d.Serial)
		if err := dc.provisioner.Provision(ctx, d.Name, createPool); err != nil {
			step := "unknown"
			var pe *deviceManager.ProvisionError
			if errors.As(err, &pe) {
				step = string(pe.Step)
			}
			metrics.ProvisionFailed(step)
			log.Errorf("add device %s serial %s failed at %s: %v", d.Name, d.Serial, step, err)
			continue
		}

		sd := types.NewStorageDevice(d)
		sd.InPool = true
		sd.Connected = true
		sd.Status = types.StatusOnline
		dc.registry.Upsert(sd)
		metrics.ProvisionSucceeded()
		log.Infof("device %s serial %s added to pool", d.Name, d.Serial)
		added++

		dc.persist()
		changed = false
	}

	if changed {
		dc.persist()
	}

	if added > 0 {
		if err := dc.sharing.Restart(ctx); err != nil {
			log.Errorf("refresh file sharing service failed: %v", err)
		}
	}
	return metrics.ResultSuccess, nil
}

// persist failures leave the in-memory registry authoritative; the next
// change writes the full table again.
func (dc *DeviceCheck) persist() {
	if err := dc.store.Persist(dc.registry); err != nil {
		log.Warnf("persist device record failed: %v", err)
	}
}
