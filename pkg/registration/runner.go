package registration

import (
	"fmt"
	"os"
	"os/exec"
)

// Runner abstracts subprocess invocation so the batch logic can be tested
// without FLIRT installed.
type Runner interface {
	// Run executes the named command with the given arguments and blocks
	// until it exits, returning an error on non-zero exit or failure to
	// start.
	Run(name string, args ...string) error
}

// ExecRunner runs commands through os/exec with output passed through to
// the terminal, the way FLIRT is normally driven from shell scripts.
type ExecRunner struct{}

// Run implements Runner.
func (ExecRunner) Run(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return fmt.Errorf("%s exited with status %d", name, exitErr.ExitCode())
		}
		return fmt.Errorf("failed to run %s: %v", name, err)
	}
	return nil
}
