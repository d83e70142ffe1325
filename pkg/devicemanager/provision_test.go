package deviceManager

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePartitioner struct {
	calls        []string
	eraseErr     error
	partitionErr error
}

func (f *fakePartitioner) Erase(_ context.Context, name string) error {
	f.calls = append(f.calls, "erase "+name)
	return f.eraseErr
}

func (f *fakePartitioner) Partition(_ context.Context, name string) error {
	f.calls = append(f.calls, "partition "+name)
	return f.partitionErr
}

type fakePool struct {
	calls []string
	err   error
}

func (f *fakePool) AddDevice(_ context.Context, device string, create bool) error {
	action := "add"
	if create {
		action = "create"
	}
	f.calls = append(f.calls, action+" "+device)
	return f.err
}

func TestProvision(t *testing.T) {
	part := &fakePartitioner{}
	pool := &fakePool{}
	p := &Provisioner{Partitioner: part, Pool: pool}

	require.NoError(t, p.Provision(context.Background(), "sdb", true))
	assert.Equal(t, []string{"erase sdb", "partition sdb"}, part.calls)
	assert.Equal(t, []string{"create sdb"}, pool.calls)

	require.NoError(t, p.Provision(context.Background(), "sdc", false))
	assert.Equal(t, []string{"create sdb", "add sdc"}, pool.calls)
}

func TestProvisionStopsAtFailedStep(t *testing.T) {
	cause := errors.New("boom")
	table := []struct {
		part      *fakePartitioner
		pool      *fakePool
		step      Step
		partCalls []string
		poolCalls int
	}{
		{&fakePartitioner{eraseErr: cause}, &fakePool{}, StepErase, []string{"erase sdb"}, 0},
		{&fakePartitioner{partitionErr: cause}, &fakePool{}, StepPartition, []string{"erase sdb", "partition sdb"}, 0},
		{&fakePartitioner{}, &fakePool{err: cause}, StepPoolAdd, []string{"erase sdb", "partition sdb"}, 1},
	}

	for _, e := range table {
		p := &Provisioner{Partitioner: e.part, Pool: e.pool}
		err := p.Provision(context.Background(), "sdb", false)

		var perr *ProvisionError
		require.True(t, errors.As(err, &perr))
		assert.Equal(t, e.step, perr.Step)
		assert.Equal(t, "sdb", perr.Device)
		assert.ErrorIs(t, err, cause)
		assert.Contains(t, err.Error(), "provision sdb: "+string(e.step)+" failed: boom")
		assert.Equal(t, e.partCalls, e.part.calls)
		assert.Len(t, e.pool.calls, e.poolCalls)
	}
}

func TestProvisionChecksDevice(t *testing.T) {
	part := &fakePartitioner{}
	p := &Provisioner{
		Partitioner: part,
		Pool:        &fakePool{},
		CheckDevice: func(path string) error {
			assert.Equal(t, "/dev/sdb", path)
			return errors.New("not a block device")
		},
	}
	err := p.Provision(context.Background(), "sdb", true)

	var perr *ProvisionError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, StepErase, perr.Step)
	assert.Empty(t, part.calls)
}

func TestIsBlockDevice(t *testing.T) {
	assert.Error(t, IsBlockDevice("/dev/null"))
	assert.Error(t, IsBlockDevice("/nonexistent/device"))
}
