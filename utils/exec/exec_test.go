package exec

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteCommandWithTimeout(t *testing.T) {
	e := &CommandExecutor{}

	out, err := e.ExecuteCommandWithTimeout(5*time.Second, "sh", "-c", "echo hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", out)

	out, err = e.ExecuteCommandWithTimeout(5*time.Second, "sh", "-c", "echo broken >&2; exit 3")
	require.Error(t, err)
	assert.Equal(t, "broken", out)

	var cmdErr *CommandError
	require.True(t, errors.As(err, &cmdErr))
	status, ok := ExitStatus(cmdErr.Err)
	assert.True(t, ok)
	assert.Equal(t, 3, status)
	assert.Contains(t, err.Error(), "exit status 3: broken")
}

func TestExecuteCommandWithTimeoutExpires(t *testing.T) {
	e := &CommandExecutor{}

	start := time.Now()
	_, err := e.ExecuteCommandWithTimeout(100*time.Millisecond, "sleep", "10")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeout waiting for the command sleep")
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestExecuteCommandWithOutput(t *testing.T) {
	e := &CommandExecutor{}

	out, err := e.ExecuteCommandWithOutput("sh", "-c", "printf ' a b \n'")
	require.NoError(t, err)
	assert.Equal(t, "a b", out)

	_, err = e.ExecuteCommandWithOutput("definitely-not-a-command-on-path")
	assert.Error(t, err)
}

func TestExitStatus(t *testing.T) {
	_, ok := ExitStatus(errors.New("plain"))
	assert.False(t, ok)
}
