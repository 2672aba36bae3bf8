// Package sanitizer cleans argument text before it reaches a log line, using
// bitwise filter flags paired with transforms. Rules are checked in the order
// they were added; the first matching rule decides what happens to a rune.
package sanitizer

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"unicode"
	"unicode/utf8"
)

// Filter flags for character matching
const (
	FilterNonPrintable uint64 = 1 << iota // runes strconv.IsPrint rejects
	FilterControl                         // unicode.IsControl
	FilterWhitespace                      // unicode.IsSpace
	FilterShellSpecial                    // '`', '$', ';', '|', '&', '>', '<', '(', ')', '#'
)

// Transform flags for character transformation
const (
	TransformStrip      uint64 = 1 << iota // drop the rune
	TransformHexEncode                     // "<XXYY>" of the rune's UTF-8 bytes
	TransformJSONEscape                    // backslash escapes, \u00XX otherwise
)

// PolicyPreset names a pre-configured rule set.
type PolicyPreset string

const (
	PolicyRaw   PolicyPreset = "raw"
	PolicyJSON  PolicyPreset = "json"
	PolicyTxt   PolicyPreset = "txt"
	PolicyShell PolicyPreset = "shell"
)

type rule struct {
	filter    uint64
	transform uint64
}

var policyRules = map[PolicyPreset][]rule{
	PolicyRaw:   {},
	PolicyTxt:   {{filter: FilterNonPrintable, transform: TransformHexEncode}},
	PolicyJSON:  {{filter: FilterControl, transform: TransformJSONEscape}},
	PolicyShell: {{filter: FilterShellSpecial | FilterWhitespace, transform: TransformStrip}},
}

// filterCheckers is ordered so matching is deterministic.
var filterCheckers = []struct {
	flag  uint64
	check func(rune) bool
}{
	{FilterNonPrintable, func(r rune) bool { return !strconv.IsPrint(r) }},
	{FilterControl, unicode.IsControl},
	{FilterWhitespace, unicode.IsSpace},
	{FilterShellSpecial, func(r rune) bool {
		switch r {
		case '`', '$', ';', '|', '&', '>', '<', '(', ')', '#':
			return true
		}
		return false
	}},
}

// ParsePolicy accepts the preset names.
func ParsePolicy(name string) (PolicyPreset, error) {
	p := PolicyPreset(name)
	if _, ok := policyRules[p]; !ok {
		return "", fmt.Errorf("sanitizer: unknown policy '%s' (use raw, txt, json, shell)", name)
	}
	return p, nil
}

// Sanitizer applies its rules to argument text. It holds no per-call state
// and may be shared.
type Sanitizer struct {
	rules []rule
}

// New returns a passthrough sanitizer.
func New() *Sanitizer {
	return &Sanitizer{}
}

// Rule appends a custom rule.
func (s *Sanitizer) Rule(filter uint64, transform uint64) *Sanitizer {
	s.rules = append(s.rules, rule{filter: filter, transform: transform})
	return s
}

// Policy appends the rules of a preset.
func (s *Sanitizer) Policy(preset PolicyPreset) *Sanitizer {
	if rules, ok := policyRules[preset]; ok {
		s.rules = append(s.rules, rules...)
	}
	return s
}

// Passthrough reports whether the sanitizer leaves every input unchanged.
func (s *Sanitizer) Passthrough() bool {
	return len(s.rules) == 0
}

// Sanitize returns data with all rules applied.
func (s *Sanitizer) Sanitize(data string) string {
	if s.Passthrough() {
		return data
	}
	return string(s.Append(nil, []byte(data)))
}

// Append appends the sanitized form of data to dst. Invalid UTF-8 bytes are
// treated as non-printable runes.
func (s *Sanitizer) Append(dst, data []byte) []byte {
	if s.Passthrough() {
		return append(dst, data...)
	}
	for i := 0; i < len(data); {
		r, size := utf8.DecodeRune(data[i:])
		raw := data[i : i+size]
		i += size
		if r == utf8.RuneError && size == 1 {
			r = invalidRune
		}

		matched := false
		for _, rl := range s.rules {
			if matchesFilter(r, rl.filter) {
				dst = applyTransform(dst, r, raw, rl.transform)
				matched = true
				break
			}
		}
		if !matched {
			dst = append(dst, raw...)
		}
	}
	return dst
}

// invalidRune stands for a byte that does not start valid UTF-8. It counts as
// a non-printable control character.
const invalidRune rune = -1

func matchesFilter(r rune, filterMask uint64) bool {
	if r == invalidRune {
		return filterMask&(FilterNonPrintable|FilterControl) != 0
	}
	for _, fc := range filterCheckers {
		if filterMask&fc.flag != 0 && fc.check(r) {
			return true
		}
	}
	return false
}

// applyTransform writes the transformed rune; raw holds its source bytes,
// which differ from the encoding of r for invalid UTF-8.
func applyTransform(dst []byte, r rune, raw []byte, transformMask uint64) []byte {
	switch {
	case transformMask&TransformStrip != 0:
		return dst

	case transformMask&TransformHexEncode != 0:
		dst = append(dst, '<')
		dst = hex.AppendEncode(dst, raw)
		return append(dst, '>')

	case transformMask&TransformJSONEscape != 0:
		switch r {
		case '\n':
			return append(dst, '\\', 'n')
		case '\r':
			return append(dst, '\\', 'r')
		case '\t':
			return append(dst, '\\', 't')
		case '\b':
			return append(dst, '\\', 'b')
		case '\f':
			return append(dst, '\\', 'f')
		case '"':
			return append(dst, '\\', '"')
		case '\\':
			return append(dst, '\\', '\\')
		}
		if r == invalidRune {
			return fmt.Appendf(dst, "\\u%04x", raw[0])
		}
		if r < 0x20 || r == 0x7f {
			return fmt.Appendf(dst, "\\u%04x", r)
		}
		return append(dst, raw...)
	}
	return append(dst, raw...)
}
