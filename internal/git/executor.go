// Package git provides git operations for KEEL.
// This file implements command execution against the git binary.
package git

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mrz1836/keel/internal/constants"
	keelerrors "github.com/mrz1836/keel/internal/errors"
	"github.com/mrz1836/keel/internal/logging"
)

// gitBinary is the name of the external version-control binary.
const gitBinary = "git"

// CommandResult is the outcome of one git invocation. It is immutable once
// produced: callers interpret Stdout and ExitCode per command, the executor
// performs no command-specific parsing.
type CommandResult struct {
	// Args is the argument list the command was invoked with (without "git").
	Args []string
	// ExitCode is the process exit code. Zero means success.
	ExitCode int
	// Stdout is the captured standard output, trimmed of surrounding whitespace.
	Stdout string
	// Stderr is the captured standard error, trimmed of surrounding whitespace.
	Stderr string
	// Duration is the wall-clock time the invocation took.
	Duration time.Duration
}

// Succeeded reports whether the command exited with code zero.
func (r *CommandResult) Succeeded() bool {
	return r.ExitCode == 0
}

// Detail returns the most useful human-readable failure detail: stderr when
// present, otherwise stdout.
func (r *CommandResult) Detail() string {
	if r.Stderr != "" {
		return r.Stderr
	}
	return r.Stdout
}

// RunOpts overrides per-invocation execution parameters.
type RunOpts struct {
	// WorkDir overrides the executor's working directory when non-empty.
	WorkDir string
	// Network selects the executor's network timeout. Push and fetch take
	// this path; they are bounded by remote latency, not local disk.
	Network bool
	// Timeout overrides the selected timeout when positive.
	Timeout time.Duration
}

// Executor runs git commands and returns structured results.
//
// A non-zero exit code is NOT an error: it is reported through the
// CommandResult so callers can interpret stderr per command. An error is
// returned only when the git binary cannot be located or started (wraps
// ErrGitNotFound), the invocation timed out (wraps ErrCommandTimeout), or
// the caller's context was canceled.
type Executor interface {
	// Run executes git with the executor's default working directory and timeout.
	Run(ctx context.Context, args ...string) (*CommandResult, error)

	// RunWith executes git with per-invocation overrides.
	RunWith(ctx context.Context, opts RunOpts, args ...string) (*CommandResult, error)
}

// CLIExecutor implements Executor by invoking the git binary.
type CLIExecutor struct {
	workDir        string
	timeout        time.Duration
	networkTimeout time.Duration
	log            zerolog.Logger
}

// Compile-time interface check.
var _ Executor = (*CLIExecutor)(nil)

// NewExecutor creates a CLIExecutor rooted at workDir with the default
// command and network timeouts. The logger receives a debug entry per
// invocation.
func NewExecutor(workDir string, log zerolog.Logger) *CLIExecutor {
	return &CLIExecutor{
		workDir:        workDir,
		timeout:        constants.DefaultGitTimeout,
		networkTimeout: constants.DefaultNetworkTimeout,
		log:            log.With().Str("component", "git").Logger(),
	}
}

// NewExecutorWithTimeouts creates a CLIExecutor with explicit command and
// network timeouts, as configured under git.command_timeout and
// git.network_timeout. Non-positive values keep the defaults.
func NewExecutorWithTimeouts(workDir string, log zerolog.Logger, command, network time.Duration) *CLIExecutor {
	e := NewExecutor(workDir, log)
	if command > 0 {
		e.timeout = command
	}
	if network > 0 {
		e.networkTimeout = network
	}
	return e
}

// Run executes git with the executor's defaults.
func (e *CLIExecutor) Run(ctx context.Context, args ...string) (*CommandResult, error) {
	return e.RunWith(ctx, RunOpts{}, args...)
}

// RunWith executes git with per-invocation overrides.
func (e *CLIExecutor) RunWith(ctx context.Context, opts RunOpts, args ...string) (*CommandResult, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("git arguments: %w", keelerrors.ErrEmptyValue)
	}

	workDir := e.workDir
	if opts.WorkDir != "" {
		workDir = opts.WorkDir
	}
	timeout := e.timeoutFor(opts)

	runCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, gitBinary, args...) //#nosec G204 -- args are constructed internally, not user input
	cmd.Dir = workDir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	res := &CommandResult{
		Args:     args,
		Stdout:   trimOutput(stdout.String()),
		Stderr:   trimOutput(stderr.String()),
		Duration: time.Since(start),
	}

	if err != nil {
		// The caller's context takes precedence over our per-command bound.
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if stderrors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("git %s after %s: %w", args[0], timeout, keelerrors.ErrCommandTimeout)
		}

		var exitErr *exec.ExitError
		if stderrors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			e.logResult(res)
			return res, nil
		}

		// Anything else means the binary could not be located or started.
		return nil, fmt.Errorf("starting %s: %v: %w", gitBinary, err, keelerrors.ErrGitNotFound)
	}

	e.logResult(res)
	return res, nil
}

// timeoutFor selects the effective timeout for one invocation.
func (e *CLIExecutor) timeoutFor(opts RunOpts) time.Duration {
	timeout := e.timeout
	if opts.Network {
		timeout = e.networkTimeout
	}
	if opts.Timeout > 0 {
		timeout = opts.Timeout
	}
	return timeout
}

// logResult emits a debug entry for one completed invocation. Arguments
// are redacted first: remote URLs can embed credentials and those must not
// reach the console or the log file.
func (e *CLIExecutor) logResult(res *CommandResult) {
	args := make([]string, len(res.Args))
	for i, arg := range res.Args {
		args[i] = logging.FilterSensitiveValue(arg)
	}

	e.log.Debug().
		Strs("args", args).
		Int("exit_code", res.ExitCode).
		Dur("duration", res.Duration).
		Msg("git command completed")
}

// trimOutput normalizes captured process output.
func trimOutput(s string) string {
	return strings.TrimSpace(s)
}
