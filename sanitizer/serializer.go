package sanitizer

import (
	"strconv"
	"unicode"
)

// Serializer writes argument text with the quoting rules of one output format.
type Serializer struct {
	format    string
	sanitizer *Sanitizer
}

// NewSerializer creates a serializer for "raw", "txt" or "json" output.
func NewSerializer(format string, san *Sanitizer) *Serializer {
	if san == nil {
		san = New()
	}
	return &Serializer{format: format, sanitizer: san}
}

// AppendText writes s as it appears inside a message: sanitized for txt,
// escaped without surrounding quotes for json, untouched for raw.
func (se *Serializer) AppendText(dst, s []byte) []byte {
	switch se.format {
	case "json":
		return appendJSONEscaped(dst, s)
	case "raw":
		return append(dst, s...)
	default:
		return se.sanitizer.Append(dst, s)
	}
}

// AppendString writes s as a standalone value: a JSON string for json, the
// sanitized text quoted when needed for txt, untouched for raw.
func (se *Serializer) AppendString(dst, s []byte) []byte {
	switch se.format {
	case "json":
		dst = append(dst, '"')
		dst = appendJSONEscaped(dst, s)
		return append(dst, '"')
	case "raw":
		return append(dst, s...)
	default:
		start := len(dst)
		dst = se.sanitizer.Append(dst, s)
		if !se.NeedsQuotes(dst[start:]) {
			return dst
		}
		quoted := make([]byte, 0, len(dst)-start+2)
		quoted = append(quoted, '"')
		for _, c := range dst[start:] {
			if c == '"' || c == '\\' {
				quoted = append(quoted, '\\')
			}
			quoted = append(quoted, c)
		}
		quoted = append(quoted, '"')
		return append(dst[:start], quoted...)
	}
}

// NeedsQuotes reports whether a txt value must be quoted to stay one token.
func (se *Serializer) NeedsQuotes(s []byte) bool {
	switch se.format {
	case "json":
		return true
	case "txt":
		if len(s) == 0 {
			return true
		}
		for _, r := range string(s) {
			if unicode.IsSpace(r) {
				return true
			}
			switch r {
			case '"', '\'', '\\', '$', '`', '!', '&', '|', ';',
				'(', ')', '<', '>', '*', '?', '[', ']', '{', '}',
				'~', '#', '%', '=':
				return true
			}
			if !unicode.IsPrint(r) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// AppendNil writes the format's null value.
func (se *Serializer) AppendNil(dst []byte) []byte {
	if se.format == "raw" {
		return append(dst, "nil"...)
	}
	return append(dst, "null"...)
}

// AppendBool writes b.
func (se *Serializer) AppendBool(dst []byte, b bool) []byte {
	return strconv.AppendBool(dst, b)
}

func appendJSONEscaped(dst, s []byte) []byte {
	const hexDigits = "0123456789abcdef"
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\\' || c == '"':
			dst = append(dst, '\\', c)
		case c == '\n':
			dst = append(dst, '\\', 'n')
		case c == '\r':
			dst = append(dst, '\\', 'r')
		case c == '\t':
			dst = append(dst, '\\', 't')
		case c == '\b':
			dst = append(dst, '\\', 'b')
		case c == '\f':
			dst = append(dst, '\\', 'f')
		case c < ' ' || c == 0x7f:
			dst = append(dst, '\\', 'u', '0', '0', hexDigits[c>>4], hexDigits[c&0x0f])
		default:
			dst = append(dst, c)
		}
	}
	return dst
}
