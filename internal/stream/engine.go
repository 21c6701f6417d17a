// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/nothing0113/database5team/internal/util"
	"go.uber.org/zap"
)

// DefaultChunkSize is the read buffer size used when none is configured.
const DefaultChunkSize = 4096

// maxLoggedLine bounds how much of a skipped line ends up in the log.
const maxLoggedLine = 200

// Handler receives events in arrival order. Returning false stops the read
// loop without error.
type Handler func(Event) bool

// Stats holds counters collected while processing one stream.
type Stats struct {
	Chunks   int
	Bytes    int
	Lines    int
	Events   int
	Skipped  int // malformed lines
	Ignored  int // well-formed lines with an unhandled type
	Stopped  bool
	Duration time.Duration
}

// Engine drives the read loop over a response body. An Engine holds no
// per-stream state and may be shared.
type Engine struct {
	logger    *zap.Logger
	chunkSize int
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for skipped lines and stream summaries.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithChunkSize sets the size of each body read.
func WithChunkSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.chunkSize = n
		}
	}
}

// NewEngine creates an Engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		logger:    zap.NewNop(),
		chunkSize: DefaultChunkSize,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Process reads body until it is exhausted, the handler stops it, ctx is
// cancelled, or the transport fails.
//
// Each chunk goes through decode, split and parse; Progress and Result events
// are handed to handle in order. Malformed lines are logged and skipped.
// At end of stream a final line without a trailing newline is still parsed.
//
// Errors: ErrUnsupportedStream for a nil body, ErrCancelled when ctx is done,
// and a transport *StreamError when a read fails. Nothing is retried.
func (e *Engine) Process(ctx context.Context, body io.Reader, handle Handler) (stats Stats, err error) {
	if body == nil {
		return stats, ErrUnsupportedStream
	}

	start := time.Now()
	defer func() {
		stats.Duration = time.Since(start)
		e.logger.Debug("stream finished",
			zap.Int("chunks", stats.Chunks),
			zap.Int("bytes", stats.Bytes),
			zap.Int("lines", stats.Lines),
			zap.Int("events", stats.Events),
			zap.Int("skipped", stats.Skipped),
			zap.Bool("stopped", stats.Stopped),
			zap.Duration("duration", stats.Duration),
		)
	}()

	// A read blocked on the network only returns once the body is closed.
	if c, ok := body.(io.Closer); ok {
		stop := context.AfterFunc(ctx, func() { c.Close() })
		defer stop()
	}

	dec := NewDecoder()
	var split Splitter
	buf := make([]byte, e.chunkSize)

	for {
		if err := ctx.Err(); err != nil {
			return stats, cancelledError(err)
		}

		n, readErr := body.Read(buf)
		if n > 0 {
			if err := ctx.Err(); err != nil {
				return stats, cancelledError(err)
			}
			stats.Chunks++
			stats.Bytes += n
			for _, line := range split.Push(dec.Decode(buf[:n])) {
				if !e.dispatch(line, handle, &stats) {
					return stats, nil
				}
			}
		}

		if errors.Is(readErr, io.EOF) {
			lines := split.Push(dec.Flush())
			if tail, ok := split.Flush(); ok {
				lines = append(lines, tail)
			}
			for _, line := range lines {
				if !e.dispatch(line, handle, &stats) {
					return stats, nil
				}
			}
			return stats, nil
		}
		if readErr != nil {
			if err := ctx.Err(); err != nil {
				return stats, cancelledError(err)
			}
			e.logger.Error("stream read failed", zap.Error(readErr), zap.Int("bytes", stats.Bytes))
			return stats, transportError(readErr)
		}
	}
}

// dispatch parses one line and forwards it. It reports whether reading
// should continue.
func (e *Engine) dispatch(line string, handle Handler, stats *Stats) bool {
	stats.Lines++

	ev := ParseLine(line)
	if u, ok := ev.(Unknown); ok {
		if u.Err != nil {
			stats.Skipped++
			e.logger.Warn("skipping malformed stream line",
				zap.Error(u.Err),
				zap.String("line", util.TruncateRunes(line, maxLoggedLine)),
			)
		} else {
			stats.Ignored++
			e.logger.Debug("ignoring envelope", zap.String("type", u.Type))
		}
		return true
	}

	stats.Events++
	if handle == nil || handle(ev) {
		return true
	}
	stats.Stopped = true
	return false
}
