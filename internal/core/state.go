package core

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// Token binds one detected entity to its stable label. The label is
// the wire contract: "[KIND_INDEX]" with KIND drawn from the closed
// kind enumeration and INDEX a positive integer unique within that
// kind for a given scope.
type Token struct {
	Original string
	Kind     Kind
	Index    int
	Entity   Entity
}

// Label renders the token's wire label.
func (t Token) Label() string {
	return fmt.Sprintf("[%s_%d]", t.Kind, t.Index)
}

// State is the immutable label -> Token binding set produced by a
// redaction pass, plus caller metadata and a creation timestamp.
// All update operations return a new State; a State can be shared
// between goroutines freely once built.
type State struct {
	tokens    map[string]Token
	metadata  map[string]any
	createdAt time.Time
}

// NewState returns an empty state stamped with the current time.
func NewState() State {
	return State{createdAt: time.Now().UTC()}
}

// WithToken returns a copy of s with the token bound under its label.
// An existing binding for the same label is replaced.
func (s State) WithToken(t Token) State {
	tokens := make(map[string]Token, len(s.tokens)+1)
	for k, v := range s.tokens {
		tokens[k] = v
	}
	tokens[t.Label()] = t
	return State{tokens: tokens, metadata: s.metadata, createdAt: s.createdAt}
}

// WithMetadata returns a copy of s with one metadata entry set.
func (s State) WithMetadata(key string, value any) State {
	metadata := make(map[string]any, len(s.metadata)+1)
	for k, v := range s.metadata {
		metadata[k] = v
	}
	metadata[key] = value
	return State{tokens: s.tokens, metadata: metadata, createdAt: s.createdAt}
}

// Merge combines two states. The merge is right-biased: when both
// states bind the same label, other's binding wins. Two unrelated
// redactions that reused a label therefore silently lose one binding;
// callers that need collision-free accumulation must renumber first
// (see the session package). CreatedAt becomes the earlier of the two.
func (s State) Merge(other State) State {
	tokens := make(map[string]Token, len(s.tokens)+len(other.tokens))
	for k, v := range s.tokens {
		tokens[k] = v
	}
	for k, v := range other.tokens {
		tokens[k] = v
	}
	metadata := make(map[string]any, len(s.metadata)+len(other.metadata))
	for k, v := range s.metadata {
		metadata[k] = v
	}
	for k, v := range other.metadata {
		metadata[k] = v
	}

	createdAt := s.createdAt
	if createdAt.IsZero() || (!other.createdAt.IsZero() && other.createdAt.Before(createdAt)) {
		createdAt = other.createdAt
	}
	return State{tokens: tokens, metadata: metadata, createdAt: createdAt}
}

// Lookup returns the token bound to a label.
func (s State) Lookup(label string) (Token, bool) {
	t, ok := s.tokens[label]
	return t, ok
}

// Len returns the number of label bindings.
func (s State) Len() int {
	return len(s.tokens)
}

// Labels returns all bound labels in lexicographic order.
func (s State) Labels() []string {
	labels := make([]string, 0, len(s.tokens))
	for label := range s.tokens {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// Tokens returns a copy of the binding map.
func (s State) Tokens() map[string]Token {
	tokens := make(map[string]Token, len(s.tokens))
	for k, v := range s.tokens {
		tokens[k] = v
	}
	return tokens
}

// Metadata returns a copy of the metadata map.
func (s State) Metadata() map[string]any {
	metadata := make(map[string]any, len(s.metadata))
	for k, v := range s.metadata {
		metadata[k] = v
	}
	return metadata
}

// CreatedAt returns the state's creation timestamp.
func (s State) CreatedAt() time.Time {
	return s.createdAt
}

// tokenJSON is the persisted shape of one binding.
type tokenJSON struct {
	Original   string `json:"original"`
	Kind       Kind   `json:"kind"`
	TokenIndex int    `json:"token_index"`
	Entity     Entity `json:"entity"`
}

// stateJSON is the persisted shape of a State. The format is a wire
// contract and must round-trip exactly.
type stateJSON struct {
	Tokens    map[string]tokenJSON `json:"tokens"`
	Metadata  map[string]any       `json:"metadata"`
	CreatedAt string               `json:"created_at"`
}

// MarshalJSON implements json.Marshaler.
func (s State) MarshalJSON() ([]byte, error) {
	out := stateJSON{
		Tokens:    make(map[string]tokenJSON, len(s.tokens)),
		Metadata:  s.metadata,
		CreatedAt: s.createdAt.Format(time.RFC3339Nano),
	}
	if out.Metadata == nil {
		out.Metadata = map[string]any{}
	}
	for label, t := range s.tokens {
		out.Tokens[label] = tokenJSON{
			Original:   t.Original,
			Kind:       t.Kind,
			TokenIndex: t.Index,
			Entity:     t.Entity,
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler. Entities and kinds are
// re-validated so a corrupted snapshot cannot smuggle malformed spans
// into the pipeline.
func (s *State) UnmarshalJSON(data []byte) error {
	var in stateJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("decode state: %w", err)
	}

	createdAt, err := time.Parse(time.RFC3339Nano, in.CreatedAt)
	if err != nil {
		return fmt.Errorf("decode state created_at: %w", err)
	}

	tokens := make(map[string]Token, len(in.Tokens))
	for label, tj := range in.Tokens {
		if !tj.Kind.Valid() {
			return fmt.Errorf("decode state token %s: unknown kind %q", label, tj.Kind)
		}
		entity, err := NewEntity(tj.Entity.Kind, tj.Entity.Value, tj.Entity.Start, tj.Entity.End, tj.Entity.Confidence)
		if err != nil {
			return fmt.Errorf("decode state token %s: %w", label, err)
		}
		tokens[label] = Token{
			Original: tj.Original,
			Kind:     tj.Kind,
			Index:    tj.TokenIndex,
			Entity:   entity,
		}
	}

	s.tokens = tokens
	s.metadata = in.Metadata
	s.createdAt = createdAt
	return nil
}
