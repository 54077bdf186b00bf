package rcconf

import (
	"bytes"
	"io"
	"sort"
	"strings"

	"rcconf-manager/core/utils"
)

// Document is a parsed rc.conf file.
// The zero value is an empty document ready to use.
type Document struct {
	lines []Line
}

// Lines returns a copy of the document's lines.
func (d *Document) Lines() []Line {
	out := make([]Line, len(d.lines))
	copy(out, d.lines)
	return out
}

// Assignments returns every assignment line in file order, duplicates included.
func (d *Document) Assignments() []Line {
	var out []Line
	for _, l := range d.lines {
		if l.Kind == Assignment {
			out = append(out, l)
		}
	}
	return out
}

// Map returns the key/value mapping. The last assignment of a key wins.
func (d *Document) Map() map[string]string {
	m := make(map[string]string)
	for _, l := range d.lines {
		if l.Kind == Assignment {
			m[l.Key] = l.Value
		}
	}
	return m
}

// Keys returns the assigned keys in order of first appearance.
func (d *Document) Keys() []string {
	seen := make(map[string]struct{})
	var keys []string
	for _, l := range d.lines {
		if l.Kind != Assignment {
			continue
		}
		if _, ok := seen[l.Key]; ok {
			continue
		}
		seen[l.Key] = struct{}{}
		keys = append(keys, l.Key)
	}
	return keys
}

// Get returns the effective value of key.
func (d *Document) Get(key string) (string, bool) {
	if i := d.last(key); i >= 0 {
		return d.lines[i].Value, true
	}
	return "", false
}

// Tokens splits the value of key on whitespace, e.g. a list of kernel modules.
func (d *Document) Tokens(key string) []string {
	v, _ := d.Get(key)
	return strings.Fields(v)
}

// Bool reports whether key is set to a true value (YES, TRUE, ON or 1).
func (d *Document) Bool(key string) bool {
	v, _ := d.Get(key)
	return utils.ToBool(v)
}

// Set assigns value to key. The last existing assignment is rewritten in
// place and keeps its inline comment; otherwise a new line is appended.
func (d *Document) Set(key, value string) error {
	if !ValidKey(key) {
		return ErrInvalidKey
	}
	if !ValidValue(value) {
		return ErrInvalidValue
	}
	if i := d.last(key); i >= 0 {
		d.lines[i].Value = value
		d.lines[i].Quote = '"'
		return nil
	}
	d.lines = append(d.lines, Line{
		Kind:  Assignment,
		Key:   key,
		Value: value,
		Quote: '"',
	})
	return nil
}

// Delete removes every assignment of key and reports whether one existed.
func (d *Document) Delete(key string) bool {
	kept := d.lines[:0]
	found := false
	for _, l := range d.lines {
		if l.Kind == Assignment && l.Key == key {
			found = true
			continue
		}
		kept = append(kept, l)
	}
	d.lines = kept
	return found
}

// Clone returns an independent copy of the document.
func (d *Document) Clone() *Document {
	return &Document{lines: d.Lines()}
}

// Overlay returns a copy of d with every entry of values applied through Set.
// Keys missing from d are appended in sorted order. Entries with invalid keys
// or values are skipped.
func (d *Document) Overlay(values map[string]string) *Document {
	out := d.Clone()

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		_ = out.Set(k, values[k])
	}
	return out
}

// WriteTo writes the document in canonical form.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for _, l := range d.lines {
		n, err := io.WriteString(w, l.String()+"\n")
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// Bytes returns the serialized document.
func (d *Document) Bytes() []byte {
	var buf bytes.Buffer
	_, _ = d.WriteTo(&buf)
	return buf.Bytes()
}

func (d *Document) String() string {
	return string(d.Bytes())
}

func (d *Document) last(key string) int {
	for i := len(d.lines) - 1; i >= 0; i-- {
		if d.lines[i].Kind == Assignment && d.lines[i].Key == key {
			return i
		}
	}
	return -1
}

// Marshal serializes a bare mapping, one canonical assignment per key in
// sorted key order. Invalid entries are skipped.
func Marshal(m map[string]string) []byte {
	doc := &Document{}
	return doc.Overlay(m).Bytes()
}
