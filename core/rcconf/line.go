package rcconf

import "strings"

// Kind is the type of a physical line.
type Kind int

const (
	// Blank is an empty or whitespace-only line.
	Blank Kind = iota
	// Comment is a line whose first non-space character is '#'.
	Comment
	// Assignment is a key=value line.
	Assignment
)

func (k Kind) String() string {
	switch k {
	case Blank:
		return "blank"
	case Comment:
		return "comment"
	case Assignment:
		return "assignment"
	default:
		return "unknown"
	}
}

// Line is one physical line of an rc.conf file.
type Line struct {
	// Kind tells which of the fields below are meaningful.
	Kind Kind
	// Number is the 1-based line number in the parsed input, 0 for lines added later.
	Number int
	// Raw is the original text of the line without the trailing newline.
	Raw string

	Key   string
	Value string
	// Quote is the quoting used in the source: '"', '\'' or 0 for a bare word.
	Quote byte
	// Comment is the inline comment text without the leading '#'.
	Comment string

	// trailer is the original text after the value, e.g. "\t# comment".
	trailer string
}

// ValidKey reports whether key is a shell variable name.
func ValidKey(key string) bool {
	if key == "" {
		return false
	}
	for i := 0; i < len(key); i++ {
		c := key[i]
		switch {
		case c == '_', c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

// ValidValue reports whether v fits on a single rc.conf line.
func ValidValue(v string) bool {
	return !strings.ContainsAny(v, "\r\n")
}

// Quote returns v as a canonical double-quoted rc.conf value.
func Quote(v string) string {
	var b strings.Builder
	b.Grow(len(v) + 2)
	b.WriteByte('"')
	for i := 0; i < len(v); i++ {
		switch c := v[i]; c {
		case '"', '\\', '$', '`':
			b.WriteByte('\\')
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// format renders an assignment in canonical form.
func (l Line) format() string {
	s := l.Key + "=" + Quote(l.Value)
	switch {
	case l.trailer != "":
		s += l.trailer
	case l.Comment != "":
		s += " # " + l.Comment
	}
	return s
}

// String returns the line as it would be written.
func (l Line) String() string {
	if l.Kind == Assignment {
		return l.format()
	}
	return l.Raw
}
