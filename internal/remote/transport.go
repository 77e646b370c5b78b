package remote

import (
	"bufio"
	"context"
	"io"
	"sync"
	"sync/atomic"

	"github.com/rs/xid"
	"github.com/vmihailenco/msgpack/v5"
	"gitlab.com/tozd/go/errors"

	"github.com/chargen/poshtools/internal/syntax/parser"
)

// ErrTransportClosed is returned by calls made on a closed transport.
var ErrTransportClosed = errors.New("transport closed")

// Transport is the client end of one peer connection. It correlates
// responses to in-flight requests by sequence number: a read loop pulls
// frames off the connection and hands each to the caller waiting in the
// pending map.
type Transport struct {
	reader *bufio.Reader
	writer frameWriter
	closer io.Closer

	id      xid.ID
	nextSeq atomic.Uint64

	mu      sync.Mutex
	pending map[uint64]chan *envelope

	closed atomic.Bool
	done   chan struct{}
}

// NewTransport wraps a peer connection, typically the piped stdio of a
// child process. Call Start before issuing requests.
func NewTransport(r io.Reader, w io.Writer, c io.Closer) *Transport {
	return &Transport{
		reader:  bufio.NewReaderSize(r, 64*1024),
		writer:  frameWriter{w: w},
		closer:  c,
		id:      xid.New(),
		pending: make(map[uint64]chan *envelope),
		done:    make(chan struct{}),
	}
}

// ID returns the connection identifier sent in the handshake.
func (t *Transport) ID() string {
	return t.id.String()
}

// Start launches the read loop.
func (t *Transport) Start() {
	go t.readLoop()
}

// Close shuts the transport down. Waiting callers fail with
// ErrTransportClosed. Close is idempotent.
func (t *Transport) Close() error {
	if t.closed.Swap(true) {
		return nil
	}

	close(t.done)

	// Abandon the pending map rather than closing its channels; a
	// racing readLoop delivery must not panic. Waiters unblock on done.
	t.mu.Lock()
	t.pending = make(map[uint64]chan *envelope)
	t.mu.Unlock()

	if t.closer != nil {
		return t.closer.Close()
	}
	return nil
}

// IsClosed reports whether the transport was closed or lost its peer.
func (t *Transport) IsClosed() bool {
	return t.closed.Load()
}

// Handshake exchanges version information with the peer.
func (t *Transport) Handshake(ctx context.Context) error {
	env, err := t.call(ctx, kindHandshake, Handshake{ID: t.id.String(), Version: ProtocolVersion})
	if err != nil {
		return errors.Errorf("handshake: %w", err)
	}
	if env.Kind != kindHandshakeAck {
		return errors.Errorf("handshake: unexpected reply kind %d", env.Kind)
	}

	var ack HandshakeAck
	if err := msgpack.Unmarshal(env.Body, &ack); err != nil {
		return errors.Errorf("handshake: decoding ack: %w", err)
	}
	if ack.Version != ProtocolVersion {
		return errors.Errorf("%w: ours %d, peer %d", ErrVersionMismatch, ProtocolVersion, ack.Version)
	}
	return nil
}

// Parse asks the peer for the deep parse of text and returns the
// structured error set.
func (t *Transport) Parse(ctx context.Context, text string) ([]parser.Error, error) {
	env, err := t.call(ctx, kindParseRequest, ParseRequest{Text: text})
	if err != nil {
		return nil, err
	}
	if env.Kind != kindParseResponse {
		return nil, errors.Errorf("unexpected reply kind %d", env.Kind)
	}

	var resp ParseResponse
	if err := msgpack.Unmarshal(env.Body, &resp); err != nil {
		return nil, errors.Errorf("decoding parse response: %w", err)
	}
	if resp.Err != "" {
		return nil, errors.Errorf("peer parse failed: %s", resp.Err)
	}
	return fromWire(resp.Errors), nil
}

// call sends one request frame and waits for the matching reply.
func (t *Transport) call(ctx context.Context, k kind, payload any) (*envelope, error) {
	if t.closed.Load() {
		return nil, ErrTransportClosed
	}

	seq := t.nextSeq.Add(1)
	ch := make(chan *envelope, 1)

	t.mu.Lock()
	t.pending[seq] = ch
	t.mu.Unlock()

	defer func() {
		t.mu.Lock()
		delete(t.pending, seq)
		t.mu.Unlock()
	}()

	if err := t.writer.sendPayload(k, seq, payload); err != nil {
		return nil, err
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-t.done:
		return nil, ErrTransportClosed
	case env := <-ch:
		return env, nil
	}
}

// readLoop pulls frames off the connection until EOF or Close and
// routes each to its waiting caller. Replies with no waiter (the
// caller timed out) are dropped.
func (t *Transport) readLoop() {
	for {
		select {
		case <-t.done:
			return
		default:
		}

		env, err := readFrame(t.reader)
		if err != nil {
			// Peer gone. Mark the transport dead so the next request
			// fails fast and triggers the client's restart path.
			t.markDead()
			return
		}

		t.mu.Lock()
		ch, ok := t.pending[env.Seq]
		if ok {
			delete(t.pending, env.Seq)
		}
		t.mu.Unlock()

		if ok {
			select {
			case ch <- env:
			default:
			}
		}
	}
}

// markDead closes the transport without touching the peer connection
// again; the read side already failed.
func (t *Transport) markDead() {
	if t.closed.Swap(true) {
		return
	}
	close(t.done)

	t.mu.Lock()
	t.pending = make(map[uint64]chan *envelope)
	t.mu.Unlock()
}

// Done returns a channel closed when the transport shuts down.
func (t *Transport) Done() <-chan struct{} {
	return t.done
}
