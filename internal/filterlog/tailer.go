package filterlog

import (
	"context"
	stderrors "errors"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rileyhilliard/pfdash/internal/errors"
	"github.com/rileyhilliard/pfdash/internal/logger"
	"github.com/rileyhilliard/pfdash/pkg/sshutil"
)

// Command follows the firewall log. clog prints the circular log and then
// blocks for new lines.
const Command = "/usr/local/sbin/clog -f /var/log/filter.log"

// RestartDelay is how long the tailer waits before restarting a stream that
// ended.
const RestartDelay = time.Second

// ErrStreamTerminated means the log command exited. The tailer restarts it.
var ErrStreamTerminated = stderrors.New("filter log stream terminated")

// State is where the tailer is in its connect/stream/backoff cycle.
type State int32

const (
	Connecting State = iota
	Streaming
	Backoff
)

func (s State) String() string {
	switch s {
	case Streaming:
		return "streaming"
	case Backoff:
		return "backoff"
	}
	return "connecting"
}

// DialFunc opens the tailer's own connection. Streaming must not share the
// poll connection.
type DialFunc func() (sshutil.Executor, error)

// Tailer streams the firewall log into a Log.
type Tailer struct {
	dial       DialFunc
	log        *Log
	interfaces InterfaceSet
	backoff    backoff.BackOff
	logger     logger.Logger

	state    atomic.Int32
	restarts atomic.Int64
}

// Option configures a Tailer.
type Option func(*Tailer)

// WithBackOff replaces the constant RestartDelay between streams.
func WithBackOff(b backoff.BackOff) Option {
	return func(t *Tailer) { t.backoff = b }
}

// WithLogger sets the logger. The default is logger.Default().
func WithLogger(l logger.Logger) Option {
	return func(t *Tailer) { t.logger = l }
}

// NewTailer creates a tailer that keeps events for interfaces in log.
func NewTailer(dial DialFunc, log *Log, interfaces InterfaceSet, opts ...Option) *Tailer {
	t := &Tailer{
		dial:       dial,
		log:        log,
		interfaces: interfaces,
		backoff:    backoff.NewConstantBackOff(RestartDelay),
		logger:     logger.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// State returns the current state.
func (t *Tailer) State() State {
	return State(t.state.Load())
}

// Restarts returns how many times the stream ended and was restarted.
func (t *Tailer) Restarts() int64 {
	return t.restarts.Load()
}

func (t *Tailer) setState(s State) {
	t.state.Store(int32(s))
	t.logger.Debug("filter log: %s", s)
}

// Run follows the log until a connection-level error, which it returns, or
// until ctx is cancelled, when it returns ctx.Err(). A stream that ends
// normally is restarted after the backoff.
func (t *Tailer) Run(ctx context.Context) error {
	t.setState(Connecting)
	conn, err := t.dial()
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrSSH,
			"Couldn't open the firewall log connection",
			"The log stream needs its own SSH connection to the router.")
	}
	defer conn.Close()

	for {
		err := t.stream(ctx, conn)
		switch {
		case ctx.Err() != nil:
			return ctx.Err()
		case !stderrors.Is(err, ErrStreamTerminated):
			return err
		}

		t.setState(Backoff)
		t.restarts.Add(1)
		delay := t.backoff.NextBackOff()
		if delay == backoff.Stop {
			return err
		}
		t.logger.Debug("filter log: stream ended, restarting in %s", delay)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		t.setState(Connecting)
	}
}

// stream runs one log command to completion. A clean exit is
// ErrStreamTerminated, and so is a line the reader could not decode: the
// connection is still usable, so the command is restarted.
func (t *Tailer) stream(ctx context.Context, conn sshutil.Executor) error {
	first := true
	err := conn.ExecLines(ctx, Command, func(line string) {
		if first {
			t.setState(Streaming)
			t.backoff.Reset()
			first = false
		}
		if ev, ok := ParseLine(line, t.interfaces); ok {
			t.log.Push(ev)
		}
	})
	if errors.IsCode(err, errors.ErrDecode) {
		t.logger.Debug("filter log: %v", err)
		return ErrStreamTerminated
	}
	if err != nil {
		return err
	}
	return ErrStreamTerminated
}
