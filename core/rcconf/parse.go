package rcconf

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

const maxLineSize = 1024 * 1024

// Parse reads an rc.conf document.
func Parse(r io.Reader) (*Document, error) {
	doc := &Document{}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	n := 0
	for scanner.Scan() {
		n++
		line, err := parseLine(n, strings.TrimSuffix(scanner.Text(), "\r"))
		if err != nil {
			return nil, err
		}
		doc.lines = append(doc.lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rc.conf: %w", err)
	}

	return doc, nil
}

// ParseString parses an rc.conf document held in a string.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// ParseFile parses the rc.conf document at path.
func ParseFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	doc, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

func parseLine(n int, raw string) (Line, error) {
	text := strings.TrimLeft(raw, " \t")

	switch {
	case text == "" || strings.TrimSpace(text) == "":
		return Line{Kind: Blank, Number: n, Raw: raw}, nil
	case text[0] == '#':
		return Line{Kind: Comment, Number: n, Raw: raw}, nil
	}

	eq := strings.IndexByte(text, '=')
	if eq < 0 {
		return Line{}, &SyntaxError{Line: n, Msg: "expected key=value"}
	}
	key := text[:eq]
	if !ValidKey(key) {
		return Line{}, &SyntaxError{Line: n, Msg: fmt.Sprintf("invalid key %q", key)}
	}

	value, quote, rest, err := parseValue(text[eq+1:])
	if err != "" {
		return Line{}, &SyntaxError{Line: n, Msg: err}
	}

	line := Line{
		Kind:   Assignment,
		Number: n,
		Raw:    raw,
		Key:    key,
		Value:  value,
		Quote:  quote,
	}

	trimmed := strings.TrimLeft(rest, " \t")
	switch {
	case trimmed == "":
	case trimmed[0] == '#' && len(trimmed) < len(rest):
		line.Comment = strings.TrimSpace(trimmed[1:])
		line.trailer = strings.TrimRight(rest, " \t")
	default:
		return Line{}, &SyntaxError{Line: n, Msg: fmt.Sprintf("unexpected text after value of %s: %q", key, trimmed)}
	}

	return line, nil
}

// parseValue reads one shell word. It returns the unquoted value, the quote
// character used and the remaining text. A non-empty string in the last result
// describes a syntax error.
func parseValue(s string) (string, byte, string, string) {
	if s == "" {
		return "", 0, "", ""
	}

	switch s[0] {
	case '"':
		var b strings.Builder
		for i := 1; i < len(s); i++ {
			c := s[i]
			switch c {
			case '\\':
				if i+1 < len(s) {
					switch next := s[i+1]; next {
					case '"', '\\', '$', '`':
						b.WriteByte(next)
						i++
						continue
					}
				}
				b.WriteByte(c)
			case '"':
				return b.String(), '"', s[i+1:], ""
			default:
				b.WriteByte(c)
			}
		}
		return "", 0, "", "unterminated double quote"
	case '\'':
		end := strings.IndexByte(s[1:], '\'')
		if end < 0 {
			return "", 0, "", "unterminated single quote"
		}
		return s[1 : end+1], '\'', s[end+2:], ""
	default:
		end := strings.IndexAny(s, " \t")
		if end < 0 {
			end = len(s)
		}
		word := s[:end]
		if strings.ContainsAny(word, "\"'") {
			return "", 0, "", "unbalanced quote in unquoted value"
		}
		return word, 0, s[end:], ""
	}
}
