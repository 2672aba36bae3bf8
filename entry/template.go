package entry

import (
	"errors"
	"fmt"
	"sync"
)

// ErrTemplate reports a malformed template string.
var ErrTemplate = errors.New("entry: malformed template")

// maxTemplates bounds the catalog so an id always fits the 4 byte wire field.
const maxTemplates uint64 = 1<<32 - 1

// Template is a format string with "{}" placeholders. Literal braces are
// written "{{" and "}}". Templates are validated once, when created, and live
// for the rest of the program.
type Template struct {
	id     uint32
	format string
	// parts holds the literal text between placeholders, already unescaped;
	// len(parts) == placeholders+1.
	parts []string
}

// ID returns the identifier carried on the wire.
func (t *Template) ID() uint32 {
	return t.id
}

// String returns the original format string.
func (t *Template) String() string {
	return t.format
}

// Placeholders returns the number of "{}" slots.
func (t *Template) Placeholders() int {
	return len(t.parts) - 1
}

// Part returns the literal text before placeholder i, or the trailing text for
// i == Placeholders().
func (t *Template) Part(i int) string {
	return t.parts[i]
}

var catalog struct {
	mu        sync.RWMutex
	templates []*Template
	byFormat  map[string]*Template
}

// NewTemplate validates format and registers it. Registering the same format
// twice returns the template created first.
func NewTemplate(format string) (*Template, error) {
	parts, err := parseTemplate(format)
	if err != nil {
		return nil, err
	}
	if n := len(parts) - 1; n > MaxArgs {
		return nil, fmt.Errorf("%w: %d placeholders exceed the limit of %d", ErrTemplate, n, MaxArgs)
	}

	catalog.mu.Lock()
	defer catalog.mu.Unlock()

	if t, ok := catalog.byFormat[format]; ok {
		return t, nil
	}
	if uint64(len(catalog.templates)) >= maxTemplates {
		return nil, fmt.Errorf("%w: catalog full", ErrTemplate)
	}
	if catalog.byFormat == nil {
		catalog.byFormat = make(map[string]*Template)
	}

	t := &Template{id: uint32(len(catalog.templates)), format: format, parts: parts}
	catalog.templates = append(catalog.templates, t)
	catalog.byFormat[format] = t
	return t, nil
}

// MustTemplate is NewTemplate for package-level variables; it panics on a
// malformed format.
func MustTemplate(format string) *Template {
	t, err := NewTemplate(format)
	if err != nil {
		panic(err)
	}
	return t
}

// Lookup resolves a wire template id.
func Lookup(id uint32) (*Template, bool) {
	catalog.mu.RLock()
	defer catalog.mu.RUnlock()
	if int(id) >= len(catalog.templates) {
		return nil, false
	}
	return catalog.templates[id], true
}

func parseTemplate(format string) ([]string, error) {
	var parts []string
	cur := make([]byte, 0, len(format))
	for i := 0; i < len(format); i++ {
		c := format[i]
		switch c {
		case '{':
			if i+1 < len(format) && format[i+1] == '{' {
				cur = append(cur, '{')
				i++
				continue
			}
			if i+1 < len(format) && format[i+1] == '}' {
				parts = append(parts, string(cur))
				cur = cur[:0]
				i++
				continue
			}
			return nil, fmt.Errorf("%w: unmatched '{' at offset %d in %q", ErrTemplate, i, format)
		case '}':
			if i+1 < len(format) && format[i+1] == '}' {
				cur = append(cur, '}')
				i++
				continue
			}
			return nil, fmt.Errorf("%w: unmatched '}' at offset %d in %q", ErrTemplate, i, format)
		default:
			cur = append(cur, c)
		}
	}
	return append(parts, string(cur)), nil
}
