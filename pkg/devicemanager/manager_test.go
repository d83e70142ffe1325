package deviceManager

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/mount-utils"

	"github.com/selfstorage/poolkeeper/pkg/devicemanager/inventory"
	"github.com/selfstorage/poolkeeper/pkg/devicemanager/partition"
	"github.com/selfstorage/poolkeeper/utils/exec/exectest"
)

func TestNewDeviceManager(t *testing.T) {
	opt := Options{
		PoolName:       "self-storage",
		RecordPath:     filepath.Join(t.TempDir(), ".storagedevices"),
		ShareService:   "smbd.service",
		CommandTimeout: time.Second,
	}
	dm, err := newDeviceManager(opt, exectest.NewFakeExecutor(), mount.NewFakeMounter(nil))
	require.NoError(t, err)
	assert.Equal(t, 0, dm.Registry.Len())
	assert.IsType(t, &inventory.LsblkSource{}, dm.Inventory)
	assert.IsType(t, &partition.PartedPartitioner{}, dm.Provisioner.Partitioner)
	assert.Equal(t, "smbd.service", dm.Sharing.Service)
}

func TestNewDeviceManagerMalformedRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".storagedevices")
	require.NoError(t, os.WriteFile(path, []byte("X1,sdb\n"), 0644))

	_, err := newDeviceManager(Options{RecordPath: path}, exectest.NewFakeExecutor(), nil)
	assert.Error(t, err)
}

func TestNewDeviceManagerUnsupported(t *testing.T) {
	dir := t.TempDir()
	_, err := newDeviceManager(Options{RecordPath: filepath.Join(dir, "r"), InventorySource: "udev"}, exectest.NewFakeExecutor(), nil)
	assert.Error(t, err)
	_, err = newDeviceManager(Options{RecordPath: filepath.Join(dir, "r"), Partitioner: "sgdisk"}, exectest.NewFakeExecutor(), nil)
	assert.Error(t, err)
}
