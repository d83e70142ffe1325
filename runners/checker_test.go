package runners

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/selfstorage/poolkeeper"
	"github.com/selfstorage/poolkeeper/utils/exec/exectest"
)

func TestUtilitiesCheck(t *testing.T) {
	executor := exectest.NewFakeExecutor()
	assert.NoError(t, UtilitiesCheck(executor, RequiredUtilities...)())

	executor.Missing = []string{"zpool", "parted"}
	err := UtilitiesCheck(executor, RequiredUtilities...)()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required utility zpool")
	assert.Contains(t, err.Error(), "required utility parted")
	assert.NotContains(t, err.Error(), "lsblk")
}

func TestUtilitiesFor(t *testing.T) {
	assert.Equal(t, RequiredUtilities, UtilitiesFor(poolkeeper.InventoryLsblk, poolkeeper.PartitionerParted))
	assert.Equal(t, []string{"udevadm", "zpool", "systemctl"}, UtilitiesFor(poolkeeper.InventoryGhw, poolkeeper.PartitionerDisko))
}

func TestCheckerReady(t *testing.T) {
	fail := errors.New("zpool missing")
	results := make(chan error, 3)
	results <- fail
	results <- nil
	results <- fail
	check := func() error {
		select {
		case err := <-results:
			return err
		default:
			return fail
		}
	}

	c := NewChecker(check, 20*time.Millisecond)
	ready, err := c.Ready()
	assert.False(t, ready)
	assert.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Start(ctx) }()

	assert.Eventually(t, func() bool {
		ready, _ := c.Ready()
		return ready
	}, 2*time.Second, 10*time.Millisecond)

	// stays ready once a check has passed, the error is still reported
	assert.Eventually(t, func() bool {
		ready, err := c.Ready()
		return ready && errors.Is(err, fail)
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}
