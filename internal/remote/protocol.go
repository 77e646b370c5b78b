package remote

import (
	"bufio"
	"encoding/binary"
	"io"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
	"gitlab.com/tozd/go/errors"

	"github.com/chargen/poshtools/internal/syntax/parser"
	"github.com/chargen/poshtools/internal/syntax/token"
)

// ProtocolVersion is bumped on any incompatible wire change. The
// handshake rejects mismatched peers.
const ProtocolVersion uint32 = 1

// maxFrameSize bounds a single frame. Scripts larger than this are not
// sent to the peer; the caller degrades to the fast error set.
const maxFrameSize = 16 << 20

// Errors returned by the wire layer.
var (
	ErrFrameTooLarge   = errors.New("frame exceeds size limit")
	ErrVersionMismatch = errors.New("peer protocol version mismatch")
)

// kind discriminates envelope payloads.
type kind uint8

const (
	kindHandshake kind = iota + 1
	kindHandshakeAck
	kindParseRequest
	kindParseResponse
)

// envelope is the outer frame body: a kind, a correlation sequence
// number, and the msgpack-encoded payload.
type envelope struct {
	Kind kind               `msgpack:"k"`
	Seq  uint64             `msgpack:"s"`
	Body msgpack.RawMessage `msgpack:"b"`
}

// Handshake opens a connection. The peer answers with HandshakeAck
// carrying its own version.
type Handshake struct {
	ID      string `msgpack:"id"`
	Version uint32 `msgpack:"v"`
}

// HandshakeAck acknowledges a handshake.
type HandshakeAck struct {
	ID      string `msgpack:"id"`
	Version uint32 `msgpack:"v"`
}

// ParseRequest asks the peer for the deep parse of one snapshot.
type ParseRequest struct {
	Text string `msgpack:"t"`
}

// WireError is one structured parse error on the wire.
type WireError struct {
	Start   uint32   `msgpack:"a"`
	End     uint32   `msgpack:"e"`
	Code    string   `msgpack:"c"`
	Message string   `msgpack:"m"`
	Notes   []string `msgpack:"n,omitempty"`
}

// ParseResponse answers a ParseRequest. Err is set when the peer could
// not run the parse at all; parse errors are data in Errors.
type ParseResponse struct {
	Errors []WireError `msgpack:"errs,omitempty"`
	Err    string      `msgpack:"fail,omitempty"`
}

// toWire converts parse errors for transmission.
func toWire(errs []parser.Error) []WireError {
	if len(errs) == 0 {
		return nil
	}
	out := make([]WireError, len(errs))
	for i, e := range errs {
		out[i] = WireError{
			Start:   e.Span.Start,
			End:     e.Span.End,
			Code:    e.Code,
			Message: e.Message,
			Notes:   e.Notes,
		}
	}
	return out
}

// fromWire converts received errors back into the parser's type.
func fromWire(errs []WireError) []parser.Error {
	if len(errs) == 0 {
		return nil
	}
	out := make([]parser.Error, len(errs))
	for i, e := range errs {
		out[i] = parser.Error{
			Span:    token.NewSpan(e.Start, e.End),
			Code:    e.Code,
			Message: e.Message,
			Notes:   e.Notes,
		}
	}
	return out
}

// frameWriter writes length-prefixed msgpack frames. Writes are
// serialized so concurrent responders never interleave frames.
type frameWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (fw *frameWriter) write(env *envelope) error {
	body, err := msgpack.Marshal(env)
	if err != nil {
		return errors.Errorf("encoding frame: %w", err)
	}
	if len(body) > maxFrameSize {
		return ErrFrameTooLarge
	}

	var header [4]byte
	binary.BigEndian.PutUint32(header[:], uint32(len(body)))

	fw.mu.Lock()
	defer fw.mu.Unlock()

	if _, err := fw.w.Write(header[:]); err != nil {
		return errors.Errorf("writing frame header: %w", err)
	}
	if _, err := fw.w.Write(body); err != nil {
		return errors.Errorf("writing frame body: %w", err)
	}
	return nil
}

// readFrame reads one length-prefixed envelope.
func readFrame(r *bufio.Reader) (*envelope, error) {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}
	size := binary.BigEndian.Uint32(header[:])
	if size > maxFrameSize {
		return nil, ErrFrameTooLarge
	}

	body := make([]byte, size)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, errors.Errorf("reading frame body: %w", err)
	}

	var env envelope
	if err := msgpack.Unmarshal(body, &env); err != nil {
		return nil, errors.Errorf("decoding frame: %w", err)
	}
	return &env, nil
}

// sendPayload encodes payload into an envelope and writes it.
func (fw *frameWriter) sendPayload(k kind, seq uint64, payload any) error {
	body, err := msgpack.Marshal(payload)
	if err != nil {
		return errors.Errorf("encoding payload: %w", err)
	}
	return fw.write(&envelope{Kind: k, Seq: seq, Body: body})
}
