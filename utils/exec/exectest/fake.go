// Package exectest provides a scripted Executor for tests.
package exectest

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Result is what a scripted command returns.
type Result struct {
	Output string
	Err    error
}

// FakeExecutor records every command line and answers from Results, keyed
// by the full command line or, failing that, by the command name alone.
// Unscripted commands succeed with empty output.
type FakeExecutor struct {
	mu       sync.Mutex
	Results  map[string]Result
	Missing  []string
	Commands []string
}

func NewFakeExecutor() *FakeExecutor {
	return &FakeExecutor{Results: map[string]Result{}}
}

// On scripts the answer for a command line such as "wipefs --all /dev/sdb".
func (f *FakeExecutor) On(cmdline string, output string, err error) *FakeExecutor {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Results[cmdline] = Result{Output: output, Err: err}
	return f
}

func (f *FakeExecutor) ExecuteCommandWithOutput(command string, arg ...string) (string, error) {
	return f.run(command, arg...)
}

func (f *FakeExecutor) ExecuteCommandWithTimeout(_ time.Duration, command string, arg ...string) (string, error) {
	return f.run(command, arg...)
}

func (f *FakeExecutor) LookPath(file string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.Missing {
		if m == file {
			return "", fmt.Errorf("exec: %q: %w", file, errors.New("executable file not found in $PATH"))
		}
	}
	return "/usr/sbin/" + file, nil
}

// Ran returns the recorded command lines.
func (f *FakeExecutor) Ran() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.Commands...)
}

// Count returns how many recorded command lines start with prefix.
func (f *FakeExecutor) Count(prefix string) int {
	n := 0
	for _, c := range f.Ran() {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

func (f *FakeExecutor) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Commands = nil
}

func (f *FakeExecutor) run(command string, arg ...string) (string, error) {
	cmdline := strings.TrimSpace(command + " " + strings.Join(arg, " "))
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Commands = append(f.Commands, cmdline)
	if r, ok := f.Results[cmdline]; ok {
		return r.Output, r.Err
	}
	if r, ok := f.Results[command]; ok {
		return r.Output, r.Err
	}
	return "", nil
}
