package record

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestFieldsEnumeratesStringLeaves(t *testing.T) {
	doc := []byte(`{
		"name": "Jane Doe",
		"age": 41,
		"contact": {"email": "jane@x.com", "verified": true},
		"notes": ["call later", {"text": "second note"}],
		"odd.key": "kept"
	}`)

	r, err := NewJSON(doc)
	if err != nil {
		t.Fatal(err)
	}
	fields, err := r.Fields()
	if err != nil {
		t.Fatal(err)
	}

	expected := map[string]string{
		"name":          "Jane Doe",
		"contact.email": "jane@x.com",
		"notes.0":       "call later",
		"notes.1.text":  "second note",
		`odd\.key`:      "kept",
	}
	if !reflect.DeepEqual(fields, expected) {
		t.Errorf("fields = %v\nexpected %v", fields, expected)
	}
}

func TestApplyWritesBack(t *testing.T) {
	doc := []byte(`{"name":"Jane Doe","contact":{"email":"jane@x.com"},"tags":["x","y"]}`)
	r, err := NewJSON(doc)
	if err != nil {
		t.Fatal(err)
	}

	err = r.Apply(map[string]string{
		"name":          "[PERSON_1]",
		"contact.email": "[EMAIL_1]",
		"tags.1":        "z",
	})
	if err != nil {
		t.Fatal(err)
	}

	var got map[string]any
	if err := json.Unmarshal(r.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got["name"] != "[PERSON_1]" {
		t.Errorf("name = %v", got["name"])
	}
	if got["contact"].(map[string]any)["email"] != "[EMAIL_1]" {
		t.Errorf("email = %v", got["contact"])
	}
	if got["tags"].([]any)[1] != "z" {
		t.Errorf("tags = %v", got["tags"])
	}
}

func TestApplyRoundTripThroughFields(t *testing.T) {
	doc := []byte(`{"a":{"b":["hello","world"]},"dotted.name":"v"}`)
	r, err := NewJSON(doc)
	if err != nil {
		t.Fatal(err)
	}

	fields, err := r.Fields()
	if err != nil {
		t.Fatal(err)
	}
	// Writing every field back to itself must not change the document's
	// decoded content.
	if err := r.Apply(fields); err != nil {
		t.Fatal(err)
	}

	var before, after any
	if err := json.Unmarshal(doc, &before); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(r.Bytes(), &after); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(before, after) {
		t.Errorf("document changed: %v -> %v", before, after)
	}
}

func TestApplyUnknownPathFails(t *testing.T) {
	r, err := NewJSON([]byte(`{"a":"b"}`))
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Apply(map[string]string{"missing": "v"}); err == nil {
		t.Error("expected error for unknown path")
	}
}

func TestApplyNonStringLeafFails(t *testing.T) {
	r, err := NewJSON([]byte(`{"n":5}`))
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Apply(map[string]string{"n": "v"}); err == nil {
		t.Error("expected error writing a string over a number")
	}
}

func TestNewJSONRejectsInvalid(t *testing.T) {
	if _, err := NewJSON([]byte(`{"broken":`)); err == nil {
		t.Error("expected error for invalid JSON")
	}
}
