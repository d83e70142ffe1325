package exec

import (
	"fmt"
	"os/exec"
	"strings"
	"syscall"
)

// CommandError carries what a failed command printed next to its exit status.
type CommandError struct {
	Command string
	Args    []string
	Output  string
	Err     error
}

func (e *CommandError) Error() string {
	cmdline := strings.TrimSpace(e.Command + " " + strings.Join(e.Args, " "))
	if status, ok := ExitStatus(e.Err); ok {
		if e.Output != "" {
			return fmt.Sprintf("%s: exit status %d: %s", cmdline, status, e.Output)
		}
		return fmt.Sprintf("%s: exit status %d", cmdline, status)
	}
	return fmt.Sprintf("%s: %v", cmdline, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

func ExitStatus(err error) (int, bool) {
	exitErr, ok := err.(*exec.ExitError)
	if ok {
		waitStatus, ok := exitErr.ProcessState.Sys().(syscall.WaitStatus)
		if ok {
			return waitStatus.ExitStatus(), true
		}
	}
	return 0, false
}
