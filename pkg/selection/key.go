package selection

import "strings"

// KeyKind distinguishes bare identifier keys from quoted string keys. The
// distinction is preserved through printing so that quoted keys containing
// characters invalid in identifiers round-trip exactly.
type KeyKind int

const (
	KeyField KeyKind = iota
	KeyQuoted
)

// Key is a field-access key, either an identifier or a quoted string.
type Key struct {
	Kind  KeyKind
	Value string
	Range *Range
}

func FieldKey(value string) *Key {
	return &Key{Kind: KeyField, Value: value}
}

func QuotedKey(value string) *Key {
	return &Key{Kind: KeyQuoted, Value: value}
}

func (k *Key) IsQuoted() bool {
	return k.Kind == KeyQuoted
}

// String returns the source form of the key: the identifier itself, or the
// double-quoted escaped string for quoted keys.
func (k *Key) String() string {
	if k.Kind == KeyQuoted {
		return quoteString(k.Value)
	}
	return k.Value
}

// Dotted returns the key prefixed with a dot, as it appears mid-path and in
// property-not-found error messages.
func (k *Key) Dotted() string {
	return "." + k.String()
}

func quoteString(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
