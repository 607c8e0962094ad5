package sshutil

import "context"

// Executor runs commands on the router over one persistent connection.
// Both the real Client and the mock in sshutil/testing satisfy it.
//
// Commands on a single Executor are issued one at a time by one goroutine.
// The firewall log tailer holds its own Executor for its long-running stream.
type Executor interface {
	// Exec runs a command and returns stdout, stderr, and exit code.
	// Exit code is -1 if the command couldn't be executed at all.
	// A non-zero exit code with nil error means the command ran but failed.
	Exec(cmd string) (stdout, stderr []byte, exitCode int, err error)

	// ExecLines runs a command and calls fn for every line of stdout, in
	// order, as it arrives. It returns nil when the command exits, whatever
	// its exit status, ctx.Err() when ctx is cancelled, a DECODE error when a
	// line is too long to read, and an SSH error when the session can't be
	// opened or the transport breaks.
	ExecLines(ctx context.Context, cmd string, fn func(line string)) error

	// Close closes the connection.
	Close() error

	// GetHost returns the original host/alias used to connect.
	GetHost() string
}
