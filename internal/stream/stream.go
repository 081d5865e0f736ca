// Package stream reverses redaction over a stream of text chunks as
// they arrive, instead of waiting for the full response. The input is
// redacted once up front; every produced chunk is restored against the
// session's accumulated state before being handed onward.
package stream

import (
	"context"
	"sync"

	"piigate/internal/core"
	"piigate/internal/redact"
	"piigate/internal/session"
)

// Source produces successive chunks of labeled text from the external
// process. Next returns io.EOF (or any terminal error) when the stream
// ends.
type Source interface {
	Next(ctx context.Context) (string, error)
}

// StartFunc delivers the redacted input to the external process and
// returns the source of its streamed reply.
type StartFunc func(ctx context.Context, redacted string) (Source, error)

// Stream restores one streamed reply chunk by chunk. It is consumed by
// a single goroutine; Finalize may be called from anywhere and runs
// its work exactly once, whether the stream completed, failed, or was
// abandoned early.
type Stream struct {
	sess   *session.Session
	source Source
	mode   redact.Mode

	mu        sync.Mutex
	issues    []core.Issue
	finalized bool
	onFinal   func(core.State, []core.Issue)
}

// Options tunes a stream.
type Options struct {
	// Mode selects strict or fuzzy reversal per chunk.
	Mode redact.Mode
	// OnFinalize, if set, receives the accumulated state and issue
	// list exactly once when the stream finishes by any path.
	OnFinalize func(core.State, []core.Issue)
}

// Open redacts the input in the session's scope, starts the external
// stream with the redacted text, and returns the restoring wrapper.
// A start failure finalizes immediately: the caller never needs to
// distinguish "failed to open" from "opened then failed".
func Open(ctx context.Context, sess *session.Session, input string, start StartFunc, opts Options) (*Stream, error) {
	if opts.Mode == "" {
		opts.Mode = redact.ModeStrict
	}

	redacted, err := sess.Redact(ctx, input)
	if err != nil {
		return nil, err
	}

	s := &Stream{
		sess:    sess,
		mode:    opts.Mode,
		onFinal: opts.OnFinalize,
	}
	source, err := start(ctx, redacted)
	if err != nil {
		s.Finalize()
		return nil, err
	}
	s.source = source
	return s, nil
}

// Next pulls one chunk, restores it, and returns it. Any error from
// the source (including io.EOF) or from the context finalizes the
// stream before the error is returned. Issues raised by restoration
// accumulate and are reported by Finalize.
func (s *Stream) Next(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		s.Finalize()
		return "", err
	}

	chunk, err := s.source.Next(ctx)
	if err != nil {
		s.Finalize()
		return "", err
	}

	restored, issues := s.sess.Unredact(chunk, s.mode)
	if len(issues) > 0 {
		s.mu.Lock()
		s.issues = append(s.issues, issues...)
		s.mu.Unlock()
	}
	return restored, nil
}

// Finalize flushes the stream's outcome: the accumulated state and
// every issue seen across chunks. Safe to call repeatedly and from a
// deferred cleanup path; the OnFinalize callback fires only on the
// first call.
func (s *Stream) Finalize() (core.State, []core.Issue) {
	s.mu.Lock()
	issues := s.issues
	first := !s.finalized
	s.finalized = true
	callback := s.onFinal
	s.mu.Unlock()

	state := s.sess.State()
	if first && callback != nil {
		callback(state, issues)
	}
	return state, issues
}

// Issues returns a snapshot of the issues accumulated so far.
func (s *Stream) Issues() []core.Issue {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Issue, len(s.issues))
	copy(out, s.issues)
	return out
}
