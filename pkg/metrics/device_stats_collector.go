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
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/procfs/blockdevice"
)

const (
	deviceSubSystem string = "device_stats"
	secondsPerTick         = 1.0 / 1000.0
	// Read sectors and write sectors are the "standard UNIX 512-byte sectors, not any device- or filesystem-specific block size."
	// See also https://www.kernel.org/doc/Documentation/block/stat.txt
	unixSectorSize = 512.0
	procPath       = "/proc"
	sysPath        = "/sys"
)

var (
	deviceStatLabels = []string{"serial", "name"}

	readsCompletedDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, deviceSubSystem, "reads_completed_total"),
		"The total number of reads completed successfully.",
		deviceStatLabels,
		nil,
	)
	readBytesDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, deviceSubSystem, "read_bytes_total"),
		"The total number of bytes read successfully.",
		deviceStatLabels,
		nil,
	)
	writesCompletedDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, deviceSubSystem, "writes_completed_total"),
		"The total number of writes completed successfully.",
		deviceStatLabels,
		nil,
	)
	writeBytesDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, deviceSubSystem, "write_bytes_total"),
		"The total number of bytes write successfully.",
		deviceStatLabels,
		nil,
	)
	iONowDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, deviceSubSystem, "io_now"),
		"The number of I/Os currently in progress.",
		deviceStatLabels,
		nil,
	)
	iOTimeSecondsDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, deviceSubSystem, "io_time_seconds_total"),
		"Total seconds spent doing I/Os.",
		deviceStatLabels,
		nil,
	)
)

type diskstatsReader interface {
	ProcDiskstats() ([]blockdevice.Diskstats, error)
}

// deviceStatsCollector reports kernel I/O counters of connected pool members
type deviceStatsCollector struct {
	descs   []typedFactorDesc
	devices DeviceLister
	fs      diskstatsReader
}

func newDeviceStatsCollector(devices DeviceLister) (Collector, error) {
	fs, err := blockdevice.NewFS(procPath, sysPath)
	if err != nil {
		return nil, errors.New("failed to open procfs:" + err.Error())
	}
	return newDeviceStatsCollectorWithFS(devices, fs), nil
}

func newDeviceStatsCollectorWithFS(devices DeviceLister, fs diskstatsReader) Collector {
	return &deviceStatsCollector{
		descs: []typedFactorDesc{
			{desc: readsCompletedDesc, valueType: prometheus.CounterValue},
			{desc: readBytesDesc, valueType: prometheus.CounterValue},
			{desc: writesCompletedDesc, valueType: prometheus.CounterValue},
			{desc: writeBytesDesc, valueType: prometheus.CounterValue},
			{desc: iONowDesc, valueType: prometheus.GaugeValue},
			{desc: iOTimeSecondsDesc, valueType: prometheus.CounterValue},
		},
		devices: devices,
		fs:      fs,
	}
}

func (v *deviceStatsCollector) Name() string {
	return deviceSubSystem
}

func (v *deviceStatsCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range v.descs {
		ch <- d.desc
	}
}

func (v *deviceStatsCollector) Update(ch chan<- prometheus.Metric) error {
	diskStats, err := v.fs.ProcDiskstats()
	if err != nil {
		return errors.New("couldn't get diskstats:" + err.Error())
	}
	byName := make(map[string]blockdevice.Diskstats, len(diskStats))
	for _, s := range diskStats {
		byName[s.DeviceName] = s
	}

	found := false
	for _, d := range v.devices.All() {
		if !d.InPool || !d.Connected {
			continue
		}
		stats, ok := byName[d.Name]
		if !ok {
			continue
		}
		found = true
		for i, val := range []float64{
			// need keep order with desc
			float64(stats.ReadIOs),
			float64(stats.ReadSectors) * unixSectorSize,
			float64(stats.WriteIOs),
			float64(stats.WriteSectors) * unixSectorSize,
			float64(stats.IOsInProgress),
			float64(stats.IOsTotalTicks) * secondsPerTick,
		} {
			if i >= len(v.descs) {
				break
			}
			ch <- v.descs[i].mustNewConstMetric(val, d.Serial, d.Name)
		}
	}
	if !found {
		return ErrNoData
	}
	return nil
}
