package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/selfstorage/poolkeeper/pkg/devicemanager/types"
)

func member(serial, name string) types.StorageDevice {
	return types.StorageDevice{
		Serial:    serial,
		Name:      name,
		Reliable:  true,
		InPool:    true,
		Connected: true,
		Status:    types.StatusOnline,
	}
}

func TestUpsertAndGet(t *testing.T) {
	reg := New()
	_, ok := reg.Get("X1")
	assert.False(t, ok)

	reg.Upsert(member("X1", "sdb"))
	d, ok := reg.Get("X1")
	assert.True(t, ok)
	assert.Equal(t, "sdb", d.Name)
	assert.Equal(t, 1, reg.Len())

	// one record per serial
	reg.Upsert(member("X1", "sdc"))
	assert.Equal(t, 1, reg.Len())
	d, _ = reg.Get("X1")
	assert.Equal(t, "sdc", d.Name)
}

func TestUpsertKeepsInPool(t *testing.T) {
	reg := New()
	reg.Upsert(member("X1", "sdb"))

	d := member("X1", "sdb")
	d.InPool = false
	reg.Upsert(d)

	got, _ := reg.Get("X1")
	assert.True(t, got.InPool)
}

func TestGetReturnsCopy(t *testing.T) {
	reg := New()
	reg.Upsert(member("X1", "sdb"))

	d, _ := reg.Get("X1")
	d.Name = "changed"

	got, _ := reg.Get("X1")
	assert.Equal(t, "sdb", got.Name)
}

func TestAllSorted(t *testing.T) {
	reg := New()
	reg.Upsert(member("X3", "sdd"))
	reg.Upsert(member("X1", "sdb"))
	reg.Upsert(member("X2", "sdc"))

	var serials []string
	for _, d := range reg.All() {
		serials = append(serials, d.Serial)
	}
	assert.Equal(t, []string{"X1", "X2", "X3"}, serials)
}

func TestPoolMembers(t *testing.T) {
	reg := New()
	assert.Equal(t, 0, reg.PoolMembers().Len())

	reg.Upsert(member("X1", "sdb"))
	outside := member("X2", "sdc")
	outside.InPool = false
	reg.Upsert(outside)

	assert.Equal(t, []string{"X1"}, reg.PoolMembers().List())
}

func TestMarkDisconnected(t *testing.T) {
	reg := New()
	reg.Upsert(member("X1", "sdb"))

	assert.True(t, reg.MarkDisconnected("X1"))
	d, _ := reg.Get("X1")
	assert.False(t, d.Connected)
	assert.Equal(t, types.StatusOffline, d.Status)
	assert.True(t, d.InPool)

	// already disconnected
	assert.False(t, reg.MarkDisconnected("X1"))
	assert.False(t, reg.MarkDisconnected("unknown"))
}

func TestMarkConnected(t *testing.T) {
	reg := New()
	reg.Upsert(member("X1", "sdb"))
	assert.False(t, reg.MarkConnected("X1", "sdb"))

	reg.MarkDisconnected("X1")
	assert.True(t, reg.MarkConnected("X1", "sde"))
	d, _ := reg.Get("X1")
	assert.True(t, d.Connected)
	assert.Equal(t, types.StatusOnline, d.Status)
	assert.Equal(t, "sde", d.Name)

	assert.False(t, reg.MarkConnected("unknown", "sdz"))
}
