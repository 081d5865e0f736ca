// Package record adapts structured JSON documents to the flat
// field-map contract the batch pipeline works on: every string leaf
// becomes a named field, and redacted values are written back to the
// same positions.
package record

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"piigate/internal/core"
)

// JSONRecord implements core.FieldSource over one JSON document.
// Paths are dot-separated; literal dots in object keys are escaped
// with a backslash so round trips stay unambiguous.
type JSONRecord struct {
	data []byte
}

var _ core.FieldSource = (*JSONRecord)(nil)

// NewJSON wraps a JSON document. The document is validated here so
// later calls cannot fail on malformed input.
func NewJSON(data []byte) (*JSONRecord, error) {
	if !gjson.ValidBytes(data) {
		return nil, core.NewInvalidRequestError("record is not valid JSON", nil)
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	return &JSONRecord{data: buf}, nil
}

// Fields enumerates every string leaf as path -> value.
func (r *JSONRecord) Fields() (map[string]string, error) {
	fields := make(map[string]string)
	collect(gjson.ParseBytes(r.data), "", fields)
	return fields, nil
}

// collect walks the parsed document depth-first.
func collect(value gjson.Result, path string, fields map[string]string) {
	switch {
	case value.IsObject():
		value.ForEach(func(key, child gjson.Result) bool {
			collect(child, joinPath(path, escapeKey(key.String())), fields)
			return true
		})
	case value.IsArray():
		i := 0
		value.ForEach(func(_, child gjson.Result) bool {
			collect(child, joinPath(path, strconv.Itoa(i)), fields)
			i++
			return true
		})
	case value.Type == gjson.String:
		fields[path] = value.String()
	}
}

// Apply writes values back to their leaf positions and re-encodes the
// document. Paths that no longer resolve fail the whole call; the
// record is left untouched on any error.
func (r *JSONRecord) Apply(fields map[string]string) error {
	var doc any
	if err := json.Unmarshal(r.data, &doc); err != nil {
		return fmt.Errorf("decode record: %w", err)
	}

	for path, value := range fields {
		updated, err := setLeaf(doc, splitPath(path), value)
		if err != nil {
			return fmt.Errorf("apply field %q: %w", path, err)
		}
		doc = updated
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	r.data = data
	return nil
}

// Bytes returns the current document.
func (r *JSONRecord) Bytes() []byte {
	out := make([]byte, len(r.data))
	copy(out, r.data)
	return out
}

// setLeaf descends the decoded document along segments and replaces
// the string leaf at the end.
func setLeaf(node any, segments []string, value string) (any, error) {
	if len(segments) == 0 {
		if _, ok := node.(string); !ok {
			return nil, fmt.Errorf("target is not a string leaf")
		}
		return value, nil
	}

	head, rest := segments[0], segments[1:]
	switch n := node.(type) {
	case map[string]any:
		child, ok := n[head]
		if !ok {
			return nil, fmt.Errorf("key %q not found", head)
		}
		updated, err := setLeaf(child, rest, value)
		if err != nil {
			return nil, err
		}
		n[head] = updated
		return n, nil
	case []any:
		idx, err := strconv.Atoi(head)
		if err != nil || idx < 0 || idx >= len(n) {
			return nil, fmt.Errorf("bad array index %q", head)
		}
		updated, err := setLeaf(n[idx], rest, value)
		if err != nil {
			return nil, err
		}
		n[idx] = updated
		return n, nil
	default:
		return nil, fmt.Errorf("cannot descend into %T", node)
	}
}

// joinPath appends one escaped segment to a dotted path.
func joinPath(path, segment string) string {
	if path == "" {
		return segment
	}
	return path + "." + segment
}

// escapeKey protects literal dots and backslashes in object keys.
func escapeKey(key string) string {
	key = strings.ReplaceAll(key, `\`, `\\`)
	return strings.ReplaceAll(key, ".", `\.`)
}

// splitPath splits a dotted path honoring backslash escapes.
func splitPath(path string) []string {
	var segments []string
	var b strings.Builder
	escaped := false
	for _, r := range path {
		switch {
		case escaped:
			b.WriteRune(r)
			escaped = false
		case r == '\\':
			escaped = true
		case r == '.':
			segments = append(segments, b.String())
			b.Reset()
		default:
			b.WriteRune(r)
		}
	}
	segments = append(segments, b.String())
	return segments
}
