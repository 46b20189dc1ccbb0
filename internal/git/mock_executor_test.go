package git

import (
	"context"
	"strings"
)

// mockExecutor scripts command results by argv prefix for runner tests.
// The first matching script wins; unscripted commands succeed with empty
// output so tests only describe what they care about.
type mockExecutor struct {
	scripts []mockScript
	calls   [][]string
	runOpts []RunOpts
}

type mockScript struct {
	prefix string
	result *CommandResult
	err    error
}

func (m *mockExecutor) on(prefix string, result *CommandResult, err error) {
	m.scripts = append(m.scripts, mockScript{prefix: prefix, result: result, err: err})
}

func (m *mockExecutor) onSuccess(prefix, stdout string) {
	m.on(prefix, &CommandResult{Stdout: stdout}, nil)
}

func (m *mockExecutor) onFailure(prefix, stderr string) {
	m.on(prefix, &CommandResult{ExitCode: 1, Stderr: stderr}, nil)
}

func (m *mockExecutor) Run(_ context.Context, args ...string) (*CommandResult, error) {
	m.calls = append(m.calls, args)
	joined := strings.Join(args, " ")
	for _, s := range m.scripts {
		if strings.HasPrefix(joined, s.prefix) {
			if s.err != nil {
				return nil, s.err
			}
			res := *s.result
			res.Args = args
			return &res, nil
		}
	}
	return &CommandResult{Args: args}, nil
}

func (m *mockExecutor) RunWith(ctx context.Context, opts RunOpts, args ...string) (*CommandResult, error) {
	m.runOpts = append(m.runOpts, opts)
	return m.Run(ctx, args...)
}

// called reports whether any invocation started with the given prefix.
func (m *mockExecutor) called(prefix string) bool {
	for _, call := range m.calls {
		if strings.HasPrefix(strings.Join(call, " "), prefix) {
			return true
		}
	}
	return false
}

var _ Executor = (*mockExecutor)(nil)
