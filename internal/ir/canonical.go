package ir

import (
	"bytes"
	"fmt"
	"slices"
	"strconv"
	"unicode/utf16"

	"golang.org/x/text/unicode/norm"
)

// Term is a sealed interface over the values that may appear in a
// canonical encoding. There is no float and no null term.
type Term interface {
	term() // sealed
}

// TermString is a string term. It is NFC normalised when encoded.
type TermString string

// TermInt is an integer term.
type TermInt int64

// TermBool is a boolean term.
type TermBool bool

// TermArray is an ordered list of terms.
type TermArray []Term

// TermObject maps keys to terms. Keys are encoded in RFC 8785 order.
type TermObject map[string]Term

func (TermString) term() {}
func (TermInt) term()    {}
func (TermBool) term()   {}
func (TermArray) term()  {}
func (TermObject) term() {}

// SortedKeys returns keys ordered by UTF-16 code units as RFC 8785 requires.
func (obj TermObject) SortedKeys() []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b string) int {
		return slices.Compare(utf16.Encode([]rune(a)), utf16.Encode([]rune(b)))
	})
	return keys
}

// MarshalCanonical produces RFC 8785 canonical JSON for a term.
// This is the only encoding used for structural keys and content hashes.
func MarshalCanonical(t Term) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeCanonical(&buf, t); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeCanonical(buf *bytes.Buffer, t Term) error {
	switch v := t.(type) {
	case nil:
		return fmt.Errorf("null is forbidden in canonical JSON")
	case TermString:
		writeCanonicalString(buf, string(v))
	case TermInt:
		buf.WriteString(strconv.FormatInt(int64(v), 10))
	case TermBool:
		buf.WriteString(strconv.FormatBool(bool(v)))
	case TermArray:
		buf.WriteByte('[')
		for i, elem := range v {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonical(buf, elem); err != nil {
				return fmt.Errorf("array[%d]: %w", i, err)
			}
		}
		buf.WriteByte(']')
	case TermObject:
		buf.WriteByte('{')
		for i, k := range v.SortedKeys() {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeCanonicalString(buf, k)
			buf.WriteByte(':')
			if err := writeCanonical(buf, v[k]); err != nil {
				return fmt.Errorf("value for key %q: %w", k, err)
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("unsupported term %T", t)
	}
	return nil
}

// writeCanonicalString escapes only quote, backslash and control characters.
// HTML characters and U+2028/U+2029 are written literally.
func writeCanonicalString(buf *bytes.Buffer, s string) {
	buf.WriteByte('"')
	for _, r := range norm.NFC.String(s) {
		switch {
		case r == '"':
			buf.WriteString(`\"`)
		case r == '\\':
			buf.WriteString(`\\`)
		case r == '\b':
			buf.WriteString(`\b`)
		case r == '\f':
			buf.WriteString(`\f`)
		case r == '\n':
			buf.WriteString(`\n`)
		case r == '\r':
			buf.WriteString(`\r`)
		case r == '\t':
			buf.WriteString(`\t`)
		case r < 0x20:
			fmt.Fprintf(buf, `\u%04x`, r)
		default:
			buf.WriteRune(r)
		}
	}
	buf.WriteByte('"')
}
