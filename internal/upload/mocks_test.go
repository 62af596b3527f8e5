package upload

import (
	"context"
	"strings"
)

// execCall records one Execute invocation.
type execCall struct {
	name string
	args []string
}

func (c execCall) String() string {
	return c.name + " " + strings.Join(c.args, " ")
}

// cannedResult is the scripted output for one Execute invocation, keyed by
// command name.
type cannedResult struct {
	stdout string
	stderr string
	err    error
}

// mockSession records uploads and command invocations, and plays back
// scripted results per command name. Unscripted commands succeed with empty
// output.
type mockSession struct {
	uploads   []string // "local -> remote"
	uploadErr error

	calls   []execCall
	results map[string][]cannedResult // command name -> queued results
}

func newMockSession() *mockSession {
	return &mockSession{results: make(map[string][]cannedResult)}
}

// script queues a result for the next invocation of the named command.
func (m *mockSession) script(name string, r cannedResult) {
	m.results[name] = append(m.results[name], r)
}

func (m *mockSession) UploadFile(_ context.Context, localPath, remotePath string) error {
	if m.uploadErr != nil {
		return m.uploadErr
	}
	m.uploads = append(m.uploads, localPath+" -> "+remotePath)
	return nil
}

func (m *mockSession) Execute(_ context.Context, name string, args ...string) (string, string, error) {
	m.calls = append(m.calls, execCall{name: name, args: args})

	queued := m.results[name]
	if len(queued) == 0 {
		return "", "", nil
	}
	r := queued[0]
	m.results[name] = queued[1:]
	return r.stdout, r.stderr, r.err
}

// commandNames returns the executed command names in order.
func (m *mockSession) commandNames() []string {
	names := make([]string, len(m.calls))
	for i, c := range m.calls {
		names[i] = c.name
	}
	return names
}
