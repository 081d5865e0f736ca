// Package session provides conversation-scoped redaction: labels
// stay stable and unique across many redact calls so that a long
// exchange with an external process can be reversed at any point.
package session

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"piigate/internal/core"
	"piigate/internal/redact"
)

// Session accumulates redaction state across calls. Each call's labels
// are renumbered so indices per kind grow monotonically and never
// collide with labels issued by earlier calls. A Session is safe for
// concurrent use; calls are serialized.
type Session struct {
	mu       sync.Mutex
	engine   *redact.Engine
	state    core.State
	counters map[core.Kind]int
}

// New creates an empty session around an engine.
func New(engine *redact.Engine) *Session {
	return &Session{
		engine:   engine,
		state:    core.NewState(),
		counters: make(map[core.Kind]int),
	}
}

// NewWithState resumes a session from a persisted state. Counters are
// seeded from the highest index present per kind, so labels issued
// from here on continue where the snapshot left off.
func NewWithState(engine *redact.Engine, state core.State) *Session {
	s := &Session{
		engine:   engine,
		state:    state,
		counters: make(map[core.Kind]int),
	}
	for _, tok := range state.Tokens() {
		if tok.Index > s.counters[tok.Kind] {
			s.counters[tok.Kind] = tok.Index
		}
	}
	return s
}

// Redact redacts one text in the session's scope. Labels in the
// returned text are globally unique within the session: a second call
// that finds another email yields [EMAIL_2] even though the call in
// isolation would have labeled it [EMAIL_1].
func (s *Session) Redact(ctx context.Context, text string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	redacted, callState, err := s.engine.Redact(ctx, text)
	if err != nil {
		return "", err
	}

	renumbered, accumulated := s.renumber(redacted, callState)
	s.state = s.state.Merge(accumulated)
	return renumbered, nil
}

// Unredact reverses labeled text against everything the session has
// accumulated so far.
func (s *Session) Unredact(text string, mode redact.Mode) (string, []core.Issue) {
	s.mu.Lock()
	state := s.state
	s.mu.Unlock()
	return s.engine.Unredact(text, state, mode)
}

// State returns the accumulated state. The state is immutable, so the
// returned value stays valid after further calls.
func (s *Session) State() core.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Reset drops all accumulated bindings and counters.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = core.NewState()
	s.counters = make(map[core.Kind]int)
}

// renumber shifts a call-local state's indices past the session's
// counters and rewrites the redacted text to match. Substitution runs
// in descending index order per kind: a shifted label always carries a
// higher index than any local label still awaiting substitution, so a
// freshly written label can never be rewritten a second time when the
// shifted range overlaps the local one.
func (s *Session) renumber(text string, callState core.State) (string, core.State) {
	type rename struct {
		oldLabel string
		newToken core.Token
	}

	renames := make([]rename, 0, callState.Len())
	callMax := make(map[core.Kind]int)
	for label, tok := range callState.Tokens() {
		if tok.Index > callMax[tok.Kind] {
			callMax[tok.Kind] = tok.Index
		}
		shifted := tok
		shifted.Index = tok.Index + s.counters[tok.Kind]
		renames = append(renames, rename{oldLabel: label, newToken: shifted})
	}
	for kind, max := range callMax {
		s.counters[kind] += max
	}

	sort.SliceStable(renames, func(i, j int) bool {
		if renames[i].newToken.Index != renames[j].newToken.Index {
			return renames[i].newToken.Index > renames[j].newToken.Index
		}
		return renames[i].oldLabel < renames[j].oldLabel
	})

	accumulated := core.NewState()
	renumbered := text
	for _, r := range renames {
		renumbered = strings.ReplaceAll(renumbered, r.oldLabel, r.newToken.Label())
		accumulated = accumulated.WithToken(r.newToken)
	}
	return renumbered, accumulated
}

// Describe summarizes the session for logs.
func (s *Session) Describe() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fmt.Sprintf("session: %d bindings across %d kinds", s.state.Len(), len(s.counters))
}
