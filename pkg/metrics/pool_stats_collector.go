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

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/selfstorage/poolkeeper/pkg/devicemanager/types"
)

const (
	poolSubSystem string = "pool"
)

var (
	poolMembersDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "pool_members"),
		"The number of devices provisioned into the pool.",
		nil,
		nil,
	)
	deviceConnectedDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "device_connected"),
		"Whether a known device was present at the last scan.",
		[]string{"serial", "name"},
		nil,
	)
	deviceStatusDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "device_status"),
		"The health status of a known device, 1 for the current status.",
		[]string{"serial", "status"},
		nil,
	)
)

type poolStatsCollector struct {
	members   typedFactorDesc
	connected typedFactorDesc
	status    typedFactorDesc
	devices   DeviceLister
}

func newPoolStatsCollector(devices DeviceLister) Collector {
	return &poolStatsCollector{
		members:   typedFactorDesc{desc: poolMembersDesc, valueType: prometheus.GaugeValue},
		connected: typedFactorDesc{desc: deviceConnectedDesc, valueType: prometheus.GaugeValue},
		status:    typedFactorDesc{desc: deviceStatusDesc, valueType: prometheus.GaugeValue},
		devices:   devices,
	}
}

func (p *poolStatsCollector) Name() string {
	return poolSubSystem + "_stats"
}

func (p *poolStatsCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range []typedFactorDesc{p.members, p.connected, p.status} {
		ch <- d.desc
	}
}

func (p *poolStatsCollector) Update(ch chan<- prometheus.Metric) error {
	devices := p.devices.All()
	if len(devices) == 0 {
		ch <- p.members.mustNewConstMetric(0)
		return ErrNoData
	}

	members := 0
	for _, d := range devices {
		if d.InPool {
			members++
		}
		ch <- p.connected.mustNewConstMetric(boolToFloat(d.Connected), d.Serial, d.Name)
		for _, s := range types.AllStatuses {
			ch <- p.status.mustNewConstMetric(boolToFloat(d.Status == s), d.Serial, s.String())
		}
	}
	ch <- p.members.mustNewConstMetric(float64(members))
	return nil
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
