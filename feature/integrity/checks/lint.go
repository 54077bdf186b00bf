package checks

import (
	"fmt"
	"regexp"

	"rcconf-manager/core/rcconf"
)

// Check names reported in violations.
const (
	CheckNameSyntax    = "syntax"
	CheckNameKeys      = "documented_keys"
	CheckNameQuotes    = "quotes"
	CheckNameRoundTrip = "round_trip"
)

// Violation is one failed property of an rc.conf document.
type Violation struct {
	Check string `json:"check"`
	Line  int    `json:"line,omitempty"`
	Key   string `json:"key,omitempty"`
	Msg   string `json:"message"`
}

func (v Violation) String() string {
	if v.Line > 0 {
		return fmt.Sprintf("%s: line %d: %s", v.Check, v.Line, v.Msg)
	}
	return fmt.Sprintf("%s: %s", v.Check, v.Msg)
}

// LintReport is the result of Lint.
type LintReport struct {
	Valid      bool        `json:"valid"`
	Keys       int         `json:"keys"`
	Violations []Violation `json:"violations"`
}

// Lint runs every property check on doc. Keys lists the variables that must
// be assigned exactly once; nil skips that check.
func Lint(doc *rcconf.Document, keys []string) LintReport {
	violations := []Violation{}
	violations = append(violations, CheckSyntax(doc)...)
	if keys != nil {
		violations = append(violations, CheckDocumentedKeys(doc, keys)...)
	}
	violations = append(violations, CheckQuotes(doc)...)
	violations = append(violations, CheckRoundTrip(doc)...)

	return LintReport{
		Valid:      len(violations) == 0,
		Keys:       len(doc.Keys()),
		Violations: violations,
	}
}

var assignmentRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*="(?:[^"\\]|\\.)*"(?:\s+#.*)?$`)

// CheckSyntax requires every assignment line to be key="value", optionally
// followed by whitespace and a # comment.
func CheckSyntax(doc *rcconf.Document) []Violation {
	var out []Violation
	for _, l := range doc.Lines() {
		if l.Kind != rcconf.Assignment {
			continue
		}
		text := l.Raw
		if l.Number == 0 {
			text = l.String()
		}
		if !assignmentRe.MatchString(text) {
			out = append(out, Violation{
				Check: CheckNameSyntax,
				Line:  l.Number,
				Key:   l.Key,
				Msg:   fmt.Sprintf("%q is not of the form key=\"value\"", text),
			})
		}
	}
	return out
}

// CheckDocumentedKeys requires each of keys to be assigned exactly once.
func CheckDocumentedKeys(doc *rcconf.Document, keys []string) []Violation {
	counts := make(map[string]int)
	for _, l := range doc.Assignments() {
		counts[l.Key]++
	}

	var out []Violation
	for _, key := range keys {
		switch n := counts[key]; {
		case n == 0:
			out = append(out, Violation{Check: CheckNameKeys, Key: key, Msg: key + " is not assigned"})
		case n > 1:
			out = append(out, Violation{Check: CheckNameKeys, Key: key, Msg: fmt.Sprintf("%s is assigned %d times", key, n)})
		}
	}
	return out
}

// CheckQuotes rejects values carrying a double quote that is not escaped.
// Inside double quotes the parser already requires escaping, so only single
// quoted and bare values can fail.
func CheckQuotes(doc *rcconf.Document) []Violation {
	var out []Violation
	for _, l := range doc.Assignments() {
		if l.Quote == '"' {
			continue
		}
		for i := 0; i < len(l.Value); i++ {
			if l.Value[i] == '"' {
				out = append(out, Violation{
					Check: CheckNameQuotes,
					Line:  l.Number,
					Key:   l.Key,
					Msg:   fmt.Sprintf("value of %s contains an unescaped double quote", l.Key),
				})
				break
			}
		}
	}
	return out
}

// CheckRoundTrip serializes doc, parses it back and requires the same
// mapping and a stable serialization.
func CheckRoundTrip(doc *rcconf.Document) []Violation {
	first := doc.String()
	again, err := rcconf.ParseString(first)
	if err != nil {
		return []Violation{{Check: CheckNameRoundTrip, Msg: "serialized form does not parse: " + err.Error()}}
	}

	var out []Violation
	want := doc.Map()
	got := again.Map()
	for key, v := range want {
		if gv, ok := got[key]; !ok || gv != v {
			out = append(out, Violation{
				Check: CheckNameRoundTrip,
				Key:   key,
				Msg:   fmt.Sprintf("%s changed from %q to %q", key, v, gv),
			})
		}
	}
	for key := range got {
		if _, ok := want[key]; !ok {
			out = append(out, Violation{Check: CheckNameRoundTrip, Key: key, Msg: key + " appeared after round trip"})
		}
	}
	if again.String() != first {
		out = append(out, Violation{Check: CheckNameRoundTrip, Msg: "serialization is not stable"})
	}
	return out
}
