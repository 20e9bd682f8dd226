// Package patch applies small, idempotent field-level mutations to decoded
// JSON documents.
//
// Documents are the untyped trees produced by Decode: nil, bool, json.Number,
// string, map[string]any and []any. Every mutation reports whether it changed
// anything so callers only rewrite files that actually differ.
package patch

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Rule is a pure mutation of a document. It returns the (possibly replaced)
// document and whether anything changed. Applying a Rule to its own output
// must report changed=false.
type Rule func(doc any) (any, bool)

// SetStringField sets the string at path, creating missing intermediate
// objects. Returns true only when the stored value actually changed.
func SetStringField(doc any, path []string, value string) bool {
	return setField(doc, path, value, func(current any) bool {
		s, ok := current.(string)
		return ok && s == value
	})
}

// SetBoolField sets the boolean at path, creating missing intermediate
// objects. Returns true only when the stored value actually changed.
func SetBoolField(doc any, path []string, value bool) bool {
	return setField(doc, path, value, func(current any) bool {
		b, ok := current.(bool)
		return ok && b == value
	})
}

// setField walks path from the root. A non-object root, or an existing
// intermediate value that is not an object, makes the mutation not applicable.
func setField(doc any, path []string, value any, equal func(any) bool) bool {
	if len(path) == 0 {
		return false
	}
	node, ok := doc.(map[string]any)
	if !ok {
		return false
	}

	for _, key := range path[:len(path)-1] {
		child, exists := node[key]
		if !exists {
			created := map[string]any{}
			node[key] = created
			node = created
			continue
		}
		next, ok := child.(map[string]any)
		if !ok {
			return false
		}
		node = next
	}

	leaf := path[len(path)-1]
	if current, exists := node[leaf]; exists && equal(current) {
		return false
	}
	node[leaf] = value
	return true
}

// ReplaceAllStringValues replaces every string leaf exactly equal to match
// with replacement. Substring matches are left alone. The returned document
// must be used in place of doc, since a bare string root is replaced by value.
func ReplaceAllStringValues(doc any, match, replacement string) (any, bool) {
	switch v := doc.(type) {
	case string:
		if v == match {
			return replacement, true
		}
		return v, false
	case map[string]any:
		changed := false
		for key, child := range v {
			next, c := ReplaceAllStringValues(child, match, replacement)
			if c {
				v[key] = next
				changed = true
			}
		}
		return v, changed
	case []any:
		changed := false
		for i, child := range v {
			next, c := ReplaceAllStringValues(child, match, replacement)
			if c {
				v[i] = next
				changed = true
			}
		}
		return v, changed
	default:
		return doc, false
	}
}

// Decode parses raw JSON into a document. Numbers are kept as json.Number so
// values the patcher never touches are written back unchanged.
func Decode(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	// Anything after the first value, including a stray closing delimiter,
	// is malformed input.
	if tok, err := dec.Token(); !errors.Is(err, io.EOF) {
		if err != nil {
			return nil, fmt.Errorf("unexpected data after top-level value: %w", err)
		}
		return nil, fmt.Errorf("unexpected data after top-level value: %v", tok)
	}
	return doc, nil
}

// Encode serializes a document with two-space indentation. HTML characters
// are not escaped, matching what the browser itself writes.
func Encode(doc any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
