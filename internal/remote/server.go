package remote

import (
	"bufio"
	"context"
	"io"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"

	"github.com/chargen/poshtools/internal/syntax/parser"
)

// ServeConfig tunes the peer's serve loop.
type ServeConfig struct {
	// Concurrency caps the parses running at once.
	Concurrency int
}

// DefaultServeConfig returns the production defaults.
func DefaultServeConfig() ServeConfig {
	return ServeConfig{Concurrency: 4}
}

// Serve runs the parser peer's request loop over one connection,
// usually the process's own stdio. Each ParseRequest runs the deep
// parse on a bounded worker group; responses are written in completion
// order. Serve returns nil on a clean EOF (the client closed our
// stdin) and the read error otherwise.
func Serve(ctx context.Context, r io.Reader, w io.Writer, cfg ServeConfig) error {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultServeConfig().Concurrency
	}

	log := zerolog.Ctx(ctx)
	reader := bufio.NewReaderSize(r, 64*1024)
	writer := &frameWriter{w: w}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Concurrency)

	var loopErr error
	for {
		if ctx.Err() != nil {
			loopErr = ctx.Err()
			break
		}

		env, err := readFrame(reader)
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.ErrClosedPipe) {
				loopErr = errors.Errorf("reading request: %w", err)
			}
			break
		}

		switch env.Kind {
		case kindHandshake:
			var hs Handshake
			if err := msgpack.Unmarshal(env.Body, &hs); err != nil {
				log.Warn().Err(err).Msg("bad handshake frame")
				continue
			}
			log.Debug().Str("client", hs.ID).Uint32("version", hs.Version).Msg("client connected")
			ack := HandshakeAck{ID: hs.ID, Version: ProtocolVersion}
			if err := writer.sendPayload(kindHandshakeAck, env.Seq, ack); err != nil {
				loopErr = err
			}

		case kindParseRequest:
			seq := env.Seq
			body := env.Body
			g.Go(func() error {
				handleParse(ctx, writer, seq, body)
				return nil
			})

		default:
			log.Warn().Uint8("kind", uint8(env.Kind)).Msg("unknown frame kind")
		}

		if loopErr != nil {
			break
		}
	}

	if err := g.Wait(); err != nil && loopErr == nil {
		loopErr = err
	}
	return loopErr
}

// handleParse runs one deep parse and writes the response. A panic in
// the parser becomes a failure response instead of killing the peer.
func handleParse(ctx context.Context, writer *frameWriter, seq uint64, body msgpack.RawMessage) {
	log := zerolog.Ctx(ctx)

	var req ParseRequest
	if err := msgpack.Unmarshal(body, &req); err != nil {
		resp := ParseResponse{Err: "bad request: " + err.Error()}
		if werr := writer.sendPayload(kindParseResponse, seq, resp); werr != nil {
			log.Warn().Err(werr).Msg("writing error response")
		}
		return
	}

	resp := deepParse(req.Text)
	if err := writer.sendPayload(kindParseResponse, seq, resp); err != nil {
		log.Warn().Err(err).Uint64("seq", seq).Msg("writing parse response")
	}
}

// deepParse wraps ParseDeep with panic recovery.
func deepParse(text string) (resp ParseResponse) {
	defer func() {
		if r := recover(); r != nil {
			resp = ParseResponse{Err: "parser panic"}
		}
	}()

	result := parser.ParseDeep(text)
	return ParseResponse{Errors: toWire(result.Errors)}
}
