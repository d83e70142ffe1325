package inventory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/selfstorage/poolkeeper/pkg/devicemanager/types"
	"github.com/selfstorage/poolkeeper/utils/exec/exectest"
)

const lsblkBooleans = `{
   "blockdevices": [
      {"serial": "S3Z9NB0K123456", "name": "sda", "vendor": "ATA     ", "model": "Samsung SSD 860", "size": "465.8G", "tran": "sata", "rm": false, "ro": false},
      {"serial": "X1", "name": "sdb", "vendor": "ACME    ", "model": "D1", "size": "1T", "tran": "usb", "rm": true, "ro": false},
      {"serial": null, "name": "loop0", "vendor": null, "model": null, "size": "55.4M", "tran": null, "rm": false, "ro": true}
   ]
}`

const lsblkStrings = `{
   "blockdevices": [
      {"serial": "X2", "name": "sdc", "vendor": "ACME", "model": "D2", "size": 2000398934016, "tran": "", "rm": "1", "ro": "0"}
   ]
}`

func TestParseLsblk(t *testing.T) {
	devices, err := parseLsblk([]byte(lsblkBooleans))
	require.NoError(t, err)
	require.Len(t, devices, 3)

	assert.Equal(t, types.BlockDevice{
		Serial: "X1", Name: "sdb", Vendor: "ACME", Model: "D1", Size: "1T",
		Transport: "usb", Removable: true, ReadOnly: false,
	}, devices[1])
	assert.Equal(t, "", devices[2].Serial)
	assert.True(t, devices[2].ReadOnly)
	assert.False(t, devices[0].Eligible())
	assert.True(t, devices[1].Eligible())
	assert.False(t, devices[2].Eligible())
}

func TestParseLsblkOldFormat(t *testing.T) {
	devices, err := parseLsblk([]byte(lsblkStrings))
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, "2000398934016", devices[0].Size)
	assert.True(t, devices[0].Removable)
	assert.False(t, devices[0].ReadOnly)
	assert.True(t, devices[0].Eligible())
}

func TestParseLsblkInvalid(t *testing.T) {
	_, err := parseLsblk([]byte("lsblk: unknown column"))
	assert.Error(t, err)

	_, err = parseLsblk([]byte(`{"blockdevices": [{"name": "sdb", "rm": "maybe"}]}`))
	assert.Error(t, err)
}

func TestLsblkSourceList(t *testing.T) {
	executor := exectest.NewFakeExecutor().On("lsblk", lsblkBooleans, nil)
	source := NewLsblkSource(executor, time.Second)

	devices, err := source.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, devices, 3)
	assert.Equal(t, []string{"lsblk --json --nodeps --output SERIAL,NAME,VENDOR,MODEL,SIZE,TRAN,RM,RO"}, executor.Ran())
}

func TestLsblkSourceFailure(t *testing.T) {
	executor := exectest.NewFakeExecutor().On("lsblk", "", errors.New("exit status 1"))
	_, err := NewLsblkSource(executor, time.Second).List(context.Background())
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewLsblkSource(executor, time.Second).List(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNew(t *testing.T) {
	executor := exectest.NewFakeExecutor()
	s, err := New("", executor, time.Second)
	require.NoError(t, err)
	assert.IsType(t, &LsblkSource{}, s)

	s, err = New("ghw", executor, time.Second)
	require.NoError(t, err)
	assert.IsType(t, &GhwSource{}, s)

	_, err = New("udev", executor, time.Second)
	assert.Error(t, err)
}
