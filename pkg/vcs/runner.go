package vcs

import (
	"context"
	"os"
	"os/exec"
	"strings"
	"time"

	perrors "github.com/matzehuels/plugtower/pkg/errors"
)

// Runner starts an external process and waits for it. Implementations must
// stop the process when ctx is cancelled.
type Runner interface {
	// Run executes argv in dir and returns its combined output. A non-zero
	// exit is reported as a PROCESS_FAILURE error alongside the output.
	Run(ctx context.Context, dir string, argv ...string) (string, error)
}

// DefaultWaitDelay bounds how long a cancelled process may keep its output
// pipes open before it is killed.
const DefaultWaitDelay = 5 * time.Second

// ExecRunner runs processes with os/exec.
type ExecRunner struct {
	// WaitDelay overrides DefaultWaitDelay when positive.
	WaitDelay time.Duration
	// Env is appended to the current environment.
	Env []string
}

// Run implements Runner.
func (r ExecRunner) Run(ctx context.Context, dir string, argv ...string) (string, error) {
	if len(argv) == 0 {
		return "", perrors.New(perrors.ErrCodeInternal, "empty command")
	}
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	cmd.Env = append(cmd.Env, r.Env...)
	cmd.WaitDelay = DefaultWaitDelay
	if r.WaitDelay > 0 {
		cmd.WaitDelay = r.WaitDelay
	}

	out, err := cmd.CombinedOutput()
	output := strings.TrimSpace(string(out))
	if err != nil {
		if ctx.Err() != nil {
			return output, perrors.Wrap(perrors.ErrCodeAborted, ctx.Err(), "%s", argv[0])
		}
		return output, perrors.Wrap(perrors.ErrCodeProcessFailure, err, "%s", strings.Join(argv, " "))
	}
	return output, nil
}
