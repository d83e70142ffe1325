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

package run

import (
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"sigs.k8s.io/controller-runtime/pkg/manager/signals"

	"github.com/selfstorage/poolkeeper/pkg/configuration"
	deviceManager "github.com/selfstorage/poolkeeper/pkg/devicemanager"
	"github.com/selfstorage/poolkeeper/pkg/metrics"
	"github.com/selfstorage/poolkeeper/runners"
	"github.com/selfstorage/poolkeeper/utils/log"
)

const readinessInterval = time.Minute

func subMain(cmd *cobra.Command) error {
	if err := configuration.Init(config.configFile, cmd.Flags()); err != nil {
		return err
	}
	c := configuration.Get()
	log.Setup(c.LogPath, c.Debug)
	defer log.Sync()

	// 加载设备记录, 记录损坏时直接退出
	dm, err := deviceManager.NewDeviceManager(deviceManager.Options{
		PoolName:        c.PoolName,
		RecordPath:      c.RecordPath,
		ShareService:    c.ShareService,
		InventorySource: c.InventorySource,
		Partitioner:     c.Partitioner,
		CommandTimeout:  c.CommandTimeout,
	})
	if err != nil {
		log.Errorf("unable to start device manager: %v", err)
		return err
	}
	log.Infof("loaded %d device(s) from %s, pool %s has %d member(s)",
		dm.Registry.Len(), dm.Store.Path(), c.PoolName, dm.Registry.PoolMembers().Len())

	if err := metrics.RegisterDevices(dm.Registry); err != nil {
		return err
	}

	checker := runners.NewChecker(
		runners.UtilitiesCheck(dm.Executor, runners.UtilitiesFor(c.InventorySource, c.Partitioner)...),
		readinessInterval,
	)
	deviceCheck := runners.NewDeviceCheck(dm)

	g, ctx := errgroup.WithContext(signals.SetupSignalHandler())
	g.Go(func() error { return deviceCheck.Start(ctx) })
	g.Go(func() error { return checker.Start(ctx) })
	if c.HttpAddr != "" {
		srv := newHttpServer(dm.Registry, checker)
		g.Go(func() error { return srv.start(ctx, c.HttpAddr) })
	}

	log.Info("starting poolkeeper")
	if err := g.Wait(); err != nil {
		log.Errorf("problem running poolkeeper: %v", err)
		return err
	}
	log.Info("poolkeeper stopped")
	return nil
}
