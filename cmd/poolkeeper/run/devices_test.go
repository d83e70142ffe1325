package run

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/selfstorage/poolkeeper/pkg/devicemanager/types"
)

func TestPrintDevices(t *testing.T) {
	var buf bytes.Buffer
	err := printDevices(&buf, []types.StorageDevice{
		{Serial: "X1", Name: "sdb", Vendor: "ACME", Model: "D1", Size: "1T", InPool: true, Connected: true, Status: types.StatusOnline,
			BackupInfo: types.BackupInfo{DeviceSerial: "X1", LastDatetime: "2021-06-01 10:00:00"}},
		{Serial: "X2", Name: "sdc", Status: types.StatusOffline},
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "SERIAL"))
	assert.Equal(t, []string{"X1", "sdb", "ACME", "D1", "1T", "true", "true", "online", "2021-06-01", "10:00:00"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"X2", "sdc", "false", "false", "offline", "-"}, strings.Fields(lines[2]))
}

func TestVersionCommand(t *testing.T) {
	var buf bytes.Buffer
	versionCmd.SetOut(&buf)
	versionCmd.Run(versionCmd, nil)
	assert.Equal(t, "beta\n", buf.String())
}
