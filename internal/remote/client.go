package remote

import (
	"context"
	"math"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/chargen/poshtools/internal/syntax/parser"
)

// Errors returned by the client.
var (
	ErrClientClosed = errors.New("remote parser client closed")
	ErrPeerFailed   = errors.New("remote parser peer failed permanently")
	ErrBackingOff   = errors.New("remote parser restarting, in backoff")
)

// ClientConfig tunes the peer lifecycle.
type ClientConfig struct {
	// Command launches the peer. Empty means this binary re-executed
	// with the parser-server subcommand.
	Command string

	// Args are passed to Command.
	Args []string

	// CallTimeout bounds one Parse round trip.
	CallTimeout time.Duration

	// MaxRestarts is the number of respawn attempts before the client
	// gives up for good.
	MaxRestarts int

	// InitialBackoff and MaxBackoff bound the respawn delay, doubling
	// per consecutive failure.
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultClientConfig returns the production defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Args:           []string{"parser-server"},
		CallTimeout:    2 * time.Second,
		MaxRestarts:    3,
		InitialBackoff: 250 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
	}
}

// Client owns an out-of-process parser peer. It spawns the peer
// lazily, restarts it with exponential backoff when it crashes, and
// answers the deep-parse queries the diagnostics resolver issues.
//
// A client never blocks an analysis pass on recovery: while the peer
// is down and inside its backoff window, calls fail immediately and
// the resolver degrades to the fast error set.
type Client struct {
	cfg ClientConfig

	mu        sync.Mutex
	transport *Transport
	proc      *exec.Cmd
	restarts  int
	nextTry   time.Time
	failed    bool
	closed    bool
}

// NewClient creates a client. The peer process is not started until
// the first call needs it.
func NewClient(cfg ClientConfig) *Client {
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = DefaultClientConfig().CallTimeout
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = DefaultClientConfig().InitialBackoff
	}
	if cfg.MaxBackoff < cfg.InitialBackoff {
		cfg.MaxBackoff = cfg.InitialBackoff
	}
	return &Client{cfg: cfg}
}

// Errors implements diag.DeepParser: it runs the richer parse on the
// peer and returns its structured error set. Any failure (peer down,
// timeout, protocol error) is returned to the caller, whose policy is
// to degrade, never to retry within the same pass.
func (c *Client) Errors(ctx context.Context, text string) ([]parser.Error, error) {
	t, err := c.acquire(ctx)
	if err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, c.cfg.CallTimeout)
	defer cancel()

	errs, err := t.Parse(callCtx, text)
	if err != nil {
		c.noteFailure(t)
		return nil, errors.Errorf("remote parse: %w", err)
	}
	return errs, nil
}

// acquire returns a live transport, spawning or respawning the peer if
// allowed.
func (c *Client) acquire(ctx context.Context) (*Transport, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrClientClosed
	}
	if c.transport != nil && !c.transport.IsClosed() {
		return c.transport, nil
	}
	if c.failed {
		return nil, ErrPeerFailed
	}
	if now := time.Now(); now.Before(c.nextTry) {
		return nil, ErrBackingOff
	}

	t, proc, err := c.spawn(ctx)
	if err != nil {
		c.scheduleRetryLocked()
		return nil, errors.Errorf("starting parser peer: %w", err)
	}

	c.transport = t
	c.proc = proc
	return t, nil
}

// spawn starts the peer process and completes the handshake.
func (c *Client) spawn(ctx context.Context) (*Transport, *exec.Cmd, error) {
	command := c.cfg.Command
	args := c.cfg.Args
	if command == "" {
		self, err := os.Executable()
		if err != nil {
			return nil, nil, errors.Errorf("locating own binary: %w", err)
		}
		command = self
	}

	cmd := exec.Command(command, args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, nil, errors.Errorf("piping stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, nil, errors.Errorf("piping stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, nil, errors.Errorf("spawning %s: %w", command, err)
	}

	// Reap the child once it exits, whatever the cause.
	go func() { _ = cmd.Wait() }()

	t := NewTransport(stdout, stdin, stdin)
	t.Start()

	hsCtx, cancel := context.WithTimeout(ctx, c.cfg.CallTimeout)
	defer cancel()

	if err := t.Handshake(hsCtx); err != nil {
		_ = t.Close()
		_ = cmd.Process.Kill()
		return nil, nil, err
	}

	zerolog.Ctx(ctx).Debug().
		Str("peer", t.ID()).
		Str("command", command).
		Int("pid", cmd.Process.Pid).
		Msg("parser peer started")

	return t, cmd, nil
}

// noteFailure records a dead transport and schedules the next respawn.
func (c *Client) noteFailure(t *Transport) {
	_ = t.Close()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.transport == t {
		c.transport = nil
		if c.proc != nil && c.proc.Process != nil {
			_ = c.proc.Process.Kill()
		}
		c.proc = nil
		c.scheduleRetryLocked()
	}
}

// scheduleRetryLocked advances the backoff clock. Callers hold mu.
func (c *Client) scheduleRetryLocked() {
	c.restarts++
	if c.restarts > c.cfg.MaxRestarts {
		c.failed = true
		return
	}
	c.nextTry = time.Now().Add(backoff(c.restarts, c.cfg.InitialBackoff, c.cfg.MaxBackoff))
}

// Restarts returns the respawn attempts so far.
func (c *Client) Restarts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.restarts
}

// Close stops the peer. In-flight calls fail with ErrTransportClosed.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	var err error
	if c.transport != nil {
		err = c.transport.Close()
		c.transport = nil
	}
	if c.proc != nil && c.proc.Process != nil {
		_ = c.proc.Process.Kill()
		c.proc = nil
	}
	return err
}

// backoff computes the delay before restart attempt n, doubling per
// attempt and capped at max.
func backoff(attempt int, initial, max time.Duration) time.Duration {
	if attempt <= 1 {
		return initial
	}
	d := float64(initial) * math.Pow(2, float64(attempt-1))
	if d > float64(max) {
		return max
	}
	return time.Duration(d)
}
