// Package testing provides an in-memory sshutil.Executor for tests.
package testing

import (
	"bufio"
	"bytes"
	"context"
	stderrors "errors"
	"regexp"
	"strings"
	"sync"

	"github.com/rileyhilliard/pfdash/internal/errors"
	"github.com/rileyhilliard/pfdash/pkg/sshutil"
)

// CommandResponse defines a canned response for a command.
type CommandResponse struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
	Error    error
}

// StreamFunc produces the output of a long-running command for ExecLines.
// It calls emit once per line and returns what ExecLines should return.
type StreamFunc func(ctx context.Context, emit func(line string)) error

type patternResponse struct {
	re   *regexp.Regexp
	resp CommandResponse
}

// MockClient simulates the router's SSH connection.
// Responses are looked up by exact command first, then by pattern in
// registration order; `cat` of a file added with SetFile is served from
// memory. Anything else exits 127.
type MockClient struct {
	mu       sync.Mutex
	host     string
	closed   bool
	files    map[string]string
	exact    map[string]CommandResponse
	patterns []patternResponse
	streams  map[string]StreamFunc
	history  []string
}

var _ sshutil.Executor = (*MockClient)(nil)

// NewMockClient creates a mock client with no canned responses.
func NewMockClient(host string) *MockClient {
	return &MockClient{
		host:    host,
		files:   make(map[string]string),
		exact:   make(map[string]CommandResponse),
		streams: make(map[string]StreamFunc),
	}
}

// SetCommandResponse registers a response for an exact command.
func (m *MockClient) SetCommandResponse(cmd string, resp CommandResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exact[cmd] = resp
}

// SetOutput registers stdout for an exact command that exits 0.
func (m *MockClient) SetOutput(cmd, stdout string) {
	m.SetCommandResponse(cmd, CommandResponse{Stdout: []byte(stdout)})
}

// SetPatternResponse registers a response for every command matching pattern.
// It panics if pattern doesn't compile.
func (m *MockClient) SetPatternResponse(pattern string, resp CommandResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.patterns = append(m.patterns, patternResponse{re: regexp.MustCompile(pattern), resp: resp})
}

// SetFile makes `cat '<path>'` return content.
func (m *MockClient) SetFile(path, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[path] = content
}

// SetStream registers the producer ExecLines uses for cmd.
func (m *MockClient) SetStream(cmd string, fn StreamFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.streams[cmd] = fn
}

// Exec returns the canned response for cmd.
func (m *MockClient) Exec(cmd string) (stdout, stderr []byte, exitCode int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, nil, -1, errors.New(errors.ErrSSH, "Failed to create SSH session", "")
	}
	m.history = append(m.history, cmd)

	resp := m.lookup(cmd)
	return resp.Stdout, resp.Stderr, resp.ExitCode, resp.Error
}

// ExecLines feeds fn from the registered stream, or from the canned Exec
// response split into lines.
func (m *MockClient) ExecLines(ctx context.Context, cmd string, fn func(line string)) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return errors.New(errors.ErrSSH, "Failed to create SSH session", "")
	}
	m.history = append(m.history, cmd)
	stream, ok := m.streams[cmd]
	resp := m.lookup(cmd)
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	if ok {
		return stream(ctx, fn)
	}

	if resp.Error != nil {
		return resp.Error
	}
	scanner := bufio.NewScanner(bytes.NewReader(resp.Stdout))
	for scanner.Scan() {
		fn(scanner.Text())
	}
	return nil
}

// lookup must be called with m.mu held.
func (m *MockClient) lookup(cmd string) CommandResponse {
	if resp, ok := m.exact[cmd]; ok {
		return resp
	}
	for _, p := range m.patterns {
		if p.re.MatchString(cmd) {
			return p.resp
		}
	}
	if path, ok := catPath(cmd); ok {
		if content, ok := m.files[path]; ok {
			return CommandResponse{Stdout: []byte(content)}
		}
		return CommandResponse{
			Stderr:   []byte("cat: " + path + ": No such file or directory\n"),
			ExitCode: 1,
		}
	}
	return CommandResponse{
		Stderr:   []byte(strings.Fields(cmd + " sh")[0] + ": not found\n"),
		ExitCode: 127,
	}
}

// catPath extracts the path from `cat path`, `cat 'path'` or `cat "path"`.
func catPath(cmd string) (string, bool) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(cmd), "cat ")
	if !ok {
		return "", false
	}
	rest = strings.TrimSpace(rest)
	if len(rest) >= 2 && (rest[0] == '\'' || rest[0] == '"') && rest[len(rest)-1] == rest[0] {
		rest = rest[1 : len(rest)-1]
	}
	if rest == "" || strings.ContainsAny(rest, " ;|&") {
		return "", false
	}
	return rest, true
}

// Close marks the connection as closed. Later calls fail with an SSH error.
func (m *MockClient) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed reports whether Close was called.
func (m *MockClient) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// GetHost returns the host name.
func (m *MockClient) GetHost() string {
	return m.host
}

// Commands returns every command run so far, in order.
func (m *MockClient) Commands() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.history))
	copy(out, m.history)
	return out
}

// CommandCount returns how many times cmd was run.
func (m *MockClient) CommandCount(cmd string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.history {
		if c == cmd {
			n++
		}
	}
	return n
}

// ResetHistory forgets the recorded commands.
func (m *MockClient) ResetHistory() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history = nil
}

// ChannelStream returns a StreamFunc that emits lines received on ch. The
// stream ends cleanly when ch is closed and with ctx.Err() on cancellation.
func ChannelStream(ch <-chan string) StreamFunc {
	return func(ctx context.Context, emit func(line string)) error {
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case line, ok := <-ch:
				if !ok {
					return nil
				}
				emit(line)
			}
		}
	}
}

// LinesStream returns a StreamFunc that emits lines and then ends cleanly.
func LinesStream(lines ...string) StreamFunc {
	return func(ctx context.Context, emit func(line string)) error {
		for _, line := range lines {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			emit(line)
		}
		return nil
	}
}

// FailingStream returns a StreamFunc that ends with a transport failure.
func FailingStream(cause string) StreamFunc {
	return func(context.Context, func(string)) error {
		return errors.WrapWithCode(stderrors.New(cause), errors.ErrSSH,
			"Lost the output stream", "")
	}
}
