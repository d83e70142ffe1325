package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/prometheus/procfs/blockdevice"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/selfstorage/poolkeeper/pkg/devicemanager/types"
)

type staticLister []types.StorageDevice

func (s staticLister) All() []types.StorageDevice {
	return s
}

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(reconcileTotal.WithLabelValues(ResultSuccess))
	ObserveReconcile(ResultSuccess, 20*time.Millisecond)
	assert.Equal(t, before+1, testutil.ToFloat64(reconcileTotal.WithLabelValues(ResultSuccess)))

	failures := testutil.ToFloat64(provisionFailures.WithLabelValues("partition"))
	total := testutil.ToFloat64(provisionTotal.WithLabelValues(ResultFailure))
	ProvisionFailed("partition")
	assert.Equal(t, failures+1, testutil.ToFloat64(provisionFailures.WithLabelValues("partition")))
	assert.Equal(t, total+1, testutil.ToFloat64(provisionTotal.WithLabelValues(ResultFailure)))

	ok := testutil.ToFloat64(provisionTotal.WithLabelValues(ResultSuccess))
	ProvisionSucceeded()
	assert.Equal(t, ok+1, testutil.ToFloat64(provisionTotal.WithLabelValues(ResultSuccess)))
}

func TestPoolkeeperCollector(t *testing.T) {
	devices := staticLister{
		{Serial: "A1", Name: "sdb", InPool: true, Connected: true, Status: types.StatusOnline},
		{Serial: "B2", Name: "sdc", InPool: true, Connected: false, Status: types.StatusOffline},
	}
	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, reg.Register(NewPoolkeeperCollector(devices)))

	expected := `
# HELP poolkeeper_device_connected Whether a known device was present at the last scan.
# TYPE poolkeeper_device_connected gauge
poolkeeper_device_connected{name="sdb",serial="A1"} 1
poolkeeper_device_connected{name="sdc",serial="B2"} 0
# HELP poolkeeper_pool_members The number of devices provisioned into the pool.
# TYPE poolkeeper_pool_members gauge
poolkeeper_pool_members 2
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"poolkeeper_device_connected", "poolkeeper_pool_members"))

	count, err := testutil.GatherAndCount(reg, "poolkeeper_device_status")
	require.NoError(t, err)
	assert.Equal(t, 2*len(types.AllStatuses), count)
}

func TestPoolkeeperCollectorNoData(t *testing.T) {
	c := &PoolkeeperCollector{collectors: map[string]Collector{
		"pool_stats": newPoolStatsCollector(staticLister{}),
	}}
	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, reg.Register(c))

	expected := `
# HELP poolkeeper_scrape_collector_success poolkeeper_exporter: Whether a collector succeeded.
# TYPE poolkeeper_scrape_collector_success gauge
poolkeeper_scrape_collector_success{collector="pool_stats"} 0
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"poolkeeper_scrape_collector_success"))
}

type fakeDiskstats []blockdevice.Diskstats

func (f fakeDiskstats) ProcDiskstats() ([]blockdevice.Diskstats, error) {
	return f, nil
}

func TestDeviceStatsCollector(t *testing.T) {
	devices := staticLister{
		{Serial: "A1", Name: "sdb", InPool: true, Connected: true, Status: types.StatusOnline},
		{Serial: "B2", Name: "sdc", InPool: true, Connected: false, Status: types.StatusOffline},
	}
	stats := fakeDiskstats{
		{Info: blockdevice.Info{DeviceName: "sda"}, IOStats: blockdevice.IOStats{ReadIOs: 99}},
		{Info: blockdevice.Info{DeviceName: "sdb"}, IOStats: blockdevice.IOStats{ReadIOs: 7, ReadSectors: 2, WriteIOs: 3}},
	}
	c := &PoolkeeperCollector{collectors: map[string]Collector{
		deviceSubSystem: newDeviceStatsCollectorWithFS(devices, stats),
	}}
	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, reg.Register(c))

	expected := `
# HELP poolkeeper_device_stats_read_bytes_total The total number of bytes read successfully.
# TYPE poolkeeper_device_stats_read_bytes_total counter
poolkeeper_device_stats_read_bytes_total{name="sdb",serial="A1"} 1024
# HELP poolkeeper_device_stats_reads_completed_total The total number of reads completed successfully.
# TYPE poolkeeper_device_stats_reads_completed_total counter
poolkeeper_device_stats_reads_completed_total{name="sdb",serial="A1"} 7
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"poolkeeper_device_stats_read_bytes_total", "poolkeeper_device_stats_reads_completed_total"))
}
