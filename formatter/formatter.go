// Package formatter renders decoded log entries into output lines.
//
// A Formatter owns one reusable buffer and is meant for a single goroutine,
// the log worker; the returned slice is valid until the next call.
package formatter

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/davecgh/go-spew/spew"

	"github.com/moneytech/mini-async-log/entry"
	"github.com/moneytech/mini-async-log/sanitizer"
)

// eventDumper renders event values of types without a dedicated case
var eventDumper = spew.ConfigState{
	Indent:                  " ",
	MaxDepth:                10,
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

// Markers written into a line when a record and its template disagree.
const (
	MarkMissing   = "%!(MISSING)"
	MarkExtra     = "%!(EXTRA "
	MarkBadRecord = "%!(BADRECORD)"
)

// Formatter manages the buffered rendering of log lines
type Formatter struct {
	sanitizer       *sanitizer.Sanitizer
	format          string
	timestampFormat string
	showTimestamp   bool
	showLevel       bool
	buf             []byte
	scratch         []byte
}

// New creates a txt formatter with the provided sanitizer
func New(s ...*sanitizer.Sanitizer) *Formatter {
	var san *sanitizer.Sanitizer
	if len(s) > 0 && s[0] != nil {
		san = s[0]
	} else {
		san = sanitizer.New()
	}
	return &Formatter{
		sanitizer:       san,
		format:          "txt",
		timestampFormat: time.RFC3339Nano,
		showTimestamp:   true,
		showLevel:       true,
		buf:             make([]byte, 0, 1024),
	}
}

// Type sets the output format ("txt", "json", or "raw")
func (f *Formatter) Type(format string) *Formatter {
	f.format = format
	return f
}

// TimestampFormat sets the timestamp layout
func (f *Formatter) TimestampFormat(format string) *Formatter {
	if format != "" {
		f.timestampFormat = format
	}
	return f
}

// ShowLevel sets whether to include the severity in output
func (f *Formatter) ShowLevel(show bool) *Formatter {
	f.showLevel = show
	return f
}

// ShowTimestamp sets whether to include the timestamp in output
func (f *Formatter) ShowTimestamp(show bool) *Formatter {
	f.showTimestamp = show
	return f
}

// Format renders one entry: tmpl with vals substituted for its placeholders.
// Values beyond the placeholders are appended in an EXTRA marker and
// placeholders without a value render as MISSING.
func (f *Formatter) Format(sev entry.Severity, ts time.Time, tmpl *entry.Template, vals []entry.Value) []byte {
	f.buf = f.buf[:0]
	se := sanitizer.NewSerializer(f.format, f.sanitizer)

	switch f.format {
	case "json":
		f.openJSON(ts, sev.String())
		f.buf = append(f.buf, `"message":"`...)
		f.appendMessage(se, tmpl, vals)
		f.buf = append(f.buf, '"')
		if len(vals) > 0 {
			f.buf = append(f.buf, `,"args":[`...)
			for i, v := range vals {
				if i > 0 {
					f.buf = append(f.buf, ',')
				}
				f.appendJSONValue(se, v)
			}
			f.buf = append(f.buf, ']')
		}
		f.buf = append(f.buf, '}', '\n')
	case "raw":
		f.appendMessage(se, tmpl, vals)
		f.buf = append(f.buf, '\n')
	default:
		f.openTxt(ts, sev.String())
		f.appendMessage(se, tmpl, vals)
		f.buf = append(f.buf, '\n')
	}
	return f.buf
}

// FormatBroken renders a line for a record that could not be rendered from
// its template; reason is appended after the BADRECORD marker.
func (f *Formatter) FormatBroken(sev entry.Severity, ts time.Time, reason string) []byte {
	f.buf = f.buf[:0]
	se := sanitizer.NewSerializer(f.format, f.sanitizer)

	switch f.format {
	case "json":
		f.openJSON(ts, sev.String())
		f.buf = append(f.buf, `"message":"`...)
		f.buf = se.AppendText(f.buf, []byte(MarkBadRecord+" "+reason))
		f.buf = append(f.buf, '"', '}', '\n')
	case "raw":
		f.buf = append(f.buf, MarkBadRecord...)
		f.buf = append(f.buf, ' ')
		f.buf = append(f.buf, reason...)
		f.buf = append(f.buf, '\n')
	default:
		f.openTxt(ts, sev.String())
		f.buf = append(f.buf, MarkBadRecord...)
		f.buf = append(f.buf, ' ')
		f.buf = se.AppendText(f.buf, []byte(reason))
		f.buf = append(f.buf, '\n')
	}
	return f.buf
}

// FormatEvent renders an internal record, such as a heartbeat, made of
// key/value pairs under a free-form label.
func (f *Formatter) FormatEvent(ts time.Time, label string, pairs ...any) []byte {
	f.buf = f.buf[:0]
	se := sanitizer.NewSerializer(f.format, f.sanitizer)

	if f.format == "json" {
		f.openJSON(ts, label)
		f.buf = append(f.buf, `"fields":{`...)
		for i := 0; i+1 < len(pairs); i += 2 {
			if i > 0 {
				f.buf = append(f.buf, ',')
			}
			f.buf = se.AppendString(f.buf, []byte(fmt.Sprint(pairs[i])))
			f.buf = append(f.buf, ':')
			f.convertValue(se, pairs[i+1])
		}
		f.buf = append(f.buf, '}', '}', '\n')
		return f.buf
	}

	if f.format == "txt" {
		f.openTxt(ts, label)
	} else {
		f.buf = append(f.buf, label...)
		f.buf = append(f.buf, ' ')
	}
	for i := 0; i+1 < len(pairs); i += 2 {
		if i > 0 {
			f.buf = append(f.buf, ' ')
		}
		f.buf = append(f.buf, fmt.Sprint(pairs[i])...)
		f.buf = append(f.buf, '=')
		f.convertValue(se, pairs[i+1])
	}
	f.buf = append(f.buf, '\n')
	return f.buf
}

func (f *Formatter) openTxt(ts time.Time, level string) {
	if f.showTimestamp {
		f.buf = ts.AppendFormat(f.buf, f.timestampFormat)
		f.buf = append(f.buf, ' ')
	}
	if f.showLevel {
		f.buf = append(f.buf, level...)
		f.buf = append(f.buf, ' ')
	}
}

func (f *Formatter) openJSON(ts time.Time, level string) {
	f.buf = append(f.buf, '{')
	if f.showTimestamp {
		f.buf = append(f.buf, `"time":"`...)
		f.buf = ts.AppendFormat(f.buf, f.timestampFormat)
		f.buf = append(f.buf, '"', ',')
	}
	if f.showLevel {
		f.buf = append(f.buf, `"level":"`...)
		f.buf = append(f.buf, level...)
		f.buf = append(f.buf, '"', ',')
	}
}

func (f *Formatter) appendMessage(se *sanitizer.Serializer, tmpl *entry.Template, vals []entry.Value) {
	n := tmpl.Placeholders()
	for i := 0; i < n; i++ {
		f.buf = se.AppendText(f.buf, []byte(tmpl.Part(i)))
		if i < len(vals) {
			f.appendValueText(se, vals[i])
		} else {
			f.buf = se.AppendText(f.buf, []byte(MarkMissing))
		}
	}
	f.buf = se.AppendText(f.buf, []byte(tmpl.Part(n)))

	if len(vals) > n {
		f.scratch = append(f.scratch[:0], ' ')
		f.scratch = append(f.scratch, MarkExtra...)
		for i, v := range vals[n:] {
			if i > 0 {
				f.scratch = append(f.scratch, ", "...)
			}
			f.scratch = append(f.scratch, v.Kind().String()...)
			f.scratch = append(f.scratch, '=')
			f.scratch = v.AppendText(f.scratch)
		}
		f.scratch = append(f.scratch, ')')
		f.buf = se.AppendText(f.buf, f.scratch)
	}
}

func (f *Formatter) appendValueText(se *sanitizer.Serializer, v entry.Value) {
	switch v.Kind() {
	case entry.KindString, entry.KindLit:
		f.buf = se.AppendText(f.buf, v.Bytes())
	default:
		f.buf = v.AppendText(f.buf)
	}
}

func (f *Formatter) appendJSONValue(se *sanitizer.Serializer, v entry.Value) {
	switch k := v.Kind(); k {
	case entry.KindString, entry.KindLit:
		f.buf = se.AppendString(f.buf, v.Bytes())
	case entry.KindBytes, entry.KindPtr:
		f.buf = append(f.buf, '"')
		f.buf = v.AppendText(f.buf)
		f.buf = append(f.buf, '"')
	case entry.KindBool:
		f.buf = se.AppendBool(f.buf, v.Bool())
	case entry.KindFloat32, entry.KindFloat64:
		if fv := v.Float(); math.IsNaN(fv) || math.IsInf(fv, 0) {
			f.buf = append(f.buf, '"')
			f.buf = v.AppendText(f.buf)
			f.buf = append(f.buf, '"')
			return
		}
		f.buf = v.AppendText(f.buf)
	default:
		f.buf = v.AppendText(f.buf)
	}
}

// convertValue renders event values, which are Go values rather than
// decoded arguments.
func (f *Formatter) convertValue(se *sanitizer.Serializer, v any) {
	switch val := v.(type) {
	case string:
		f.buf = se.AppendString(f.buf, []byte(val))
	case []byte:
		f.buf = se.AppendString(f.buf, val)
	case int:
		f.buf = strconv.AppendInt(f.buf, int64(val), 10)
	case int8:
		f.buf = strconv.AppendInt(f.buf, int64(val), 10)
	case int16:
		f.buf = strconv.AppendInt(f.buf, int64(val), 10)
	case int32:
		f.buf = strconv.AppendInt(f.buf, int64(val), 10)
	case int64:
		f.buf = strconv.AppendInt(f.buf, val, 10)
	case uint:
		f.buf = strconv.AppendUint(f.buf, uint64(val), 10)
	case uint8:
		f.buf = strconv.AppendUint(f.buf, uint64(val), 10)
	case uint16:
		f.buf = strconv.AppendUint(f.buf, uint64(val), 10)
	case uint32:
		f.buf = strconv.AppendUint(f.buf, uint64(val), 10)
	case uint64:
		f.buf = strconv.AppendUint(f.buf, val, 10)
	case float32:
		if math.IsNaN(float64(val)) || math.IsInf(float64(val), 0) {
			f.buf = se.AppendString(f.buf, []byte(strconv.FormatFloat(float64(val), 'f', -1, 32)))
			return
		}
		f.buf = strconv.AppendFloat(f.buf, float64(val), 'f', -1, 32)
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			f.buf = se.AppendString(f.buf, []byte(strconv.FormatFloat(val, 'f', -1, 64)))
			return
		}
		f.buf = strconv.AppendFloat(f.buf, val, 'f', -1, 64)
	case bool:
		f.buf = se.AppendBool(f.buf, val)
	case nil:
		f.buf = se.AppendNil(f.buf)
	case time.Time:
		f.buf = se.AppendString(f.buf, []byte(val.Format(f.timestampFormat)))
	case error:
		f.buf = se.AppendString(f.buf, []byte(val.Error()))
	case fmt.Stringer:
		f.buf = se.AppendString(f.buf, []byte(val.String()))
	default:
		// Structs, maps, pointers and the like get a compact spew dump
		f.buf = se.AppendString(f.buf, bytes.TrimSpace([]byte(eventDumper.Sdump(val))))
	}
}
