package stream

import (
	"io"
	"sort"
	"strings"

	"piigate/internal/core"
)

// readChunk is the size of one pull from the underlying reader.
const readChunk = 4096

// Reader wraps an io.ReadCloser carrying labeled text and restores
// original values on the fly. Labels split across read boundaries are
// handled by holding back a trailing fragment with an unclosed bracket
// until the close arrives.
type Reader struct {
	src       io.ReadCloser
	originals map[string]string
	labels    []string

	maxLabel int
	pending  []byte // unprocessed tail that may hold a partial label
	output   []byte // restored bytes that did not fit the caller's slice
}

// NewReader builds a restoring reader over a state's bindings.
func NewReader(src io.ReadCloser, state core.State) *Reader {
	tokens := state.Tokens()
	r := &Reader{
		src:       src,
		originals: make(map[string]string, len(tokens)),
		labels:    make([]string, 0, len(tokens)),
	}
	for label, tok := range tokens {
		r.originals[label] = tok.Original
		r.labels = append(r.labels, label)
		if len(label) > r.maxLabel {
			r.maxLabel = len(label)
		}
	}
	sort.Slice(r.labels, func(i, j int) bool {
		if len(r.labels[i]) != len(r.labels[j]) {
			return len(r.labels[i]) > len(r.labels[j])
		}
		return r.labels[i] < r.labels[j]
	})
	return r
}

// Read implements io.Reader with label restoration.
func (r *Reader) Read(p []byte) (int, error) {
	if len(r.output) > 0 {
		n := copy(p, r.output)
		r.output = r.output[n:]
		return n, nil
	}

	buf := make([]byte, readChunk)
	nRead, readErr := r.src.Read(buf)

	if nRead == 0 && readErr != nil {
		if len(r.pending) > 0 && readErr == io.EOF {
			restored := r.restore(string(r.pending))
			r.pending = nil
			return r.emit(p, []byte(restored), io.EOF)
		}
		return 0, readErr
	}

	data := append(r.pending, buf[:nRead]...)
	r.pending = nil

	// Hold back a trailing fragment that opens a bracket without
	// closing it: the rest of the label may arrive in the next read.
	// The window never exceeds the longest label, but short reads can
	// deliver less than that, so it shrinks to the data on hand.
	if r.maxLabel > 0 {
		window := r.maxLabel
		if len(data) < window {
			window = len(data)
		}
		tail := string(data[len(data)-window:])
		if open := strings.LastIndexByte(tail, '['); open >= 0 && !strings.Contains(tail[open:], "]") {
			cut := len(data) - window + open
			r.pending = data[cut:]
			data = data[:cut]
		}
	}

	restored := r.restore(string(data))

	err := readErr
	if readErr == io.EOF && len(r.pending) > 0 {
		err = nil // the held-back tail still needs a flush
	}
	if len(restored) == 0 && err == nil && nRead > 0 {
		// Everything read this round is held back; pull more instead
		// of returning a zero-byte read.
		return r.Read(p)
	}
	return r.emit(p, []byte(restored), err)
}

// emit copies restored bytes into p, stashing any overflow, and defers
// the terminal error until everything has been delivered.
func (r *Reader) emit(p []byte, data []byte, err error) (int, error) {
	n := copy(p, data)
	if n < len(data) {
		r.output = append(r.output, data[n:]...)
	}
	if len(r.output) > 0 || len(r.pending) > 0 {
		return n, nil
	}
	return n, err
}

// restore replaces every known label, longest first.
func (r *Reader) restore(text string) string {
	result := text
	for _, label := range r.labels {
		if !strings.Contains(result, label) {
			continue
		}
		result = strings.ReplaceAll(result, label, r.originals[label])
	}
	return result
}

// Close closes the underlying reader.
func (r *Reader) Close() error {
	return r.src.Close()
}
