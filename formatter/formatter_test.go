package formatter

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moneytech/mini-async-log/entry"
	"github.com/moneytech/mini-async-log/sanitizer"
)

// decoded encodes args and decodes them again, yielding the values the worker sees
func decoded(t *testing.T, args ...entry.Arg) []entry.Value {
	t.Helper()
	h := entry.Header{Severity: entry.Error}
	buf := make([]byte, entry.Size(h, args, false))
	entry.Encode(buf, h, args, false)
	_, r, err := entry.Decode(buf)
	require.NoError(t, err)
	var vals []entry.Value
	for {
		v, ok := r.Next()
		if !ok {
			break
		}
		vals = append(vals, v)
	}
	require.NoError(t, r.Err())
	return vals
}

func TestFormatter(t *testing.T) {
	ts := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	tmpl := entry.MustTemplate("value {} and {}")

	t.Run("fluent API", func(t *testing.T) {
		f := New(sanitizer.New().Policy(sanitizer.PolicyRaw)).
			Type("json").
			TimestampFormat(time.RFC3339).
			ShowLevel(true).
			ShowTimestamp(true)

		data := f.Format(entry.Warning, ts, tmpl, decoded(t, entry.Int(1), entry.Int(2)))
		assert.Contains(t, string(data), `"level":"WARNING"`)
		assert.Contains(t, string(data), `"time":"2024-01-01T12:00:00Z"`)
	})

	t.Run("txt format", func(t *testing.T) {
		f := New().TimestampFormat(time.RFC3339)
		data := f.Format(entry.Error, ts, tmpl, decoded(t, entry.Int(3), entry.Int(255)))
		assert.Equal(t, "2024-01-01T12:00:00Z ERROR value 3 and 255\n", string(data))
	})

	t.Run("txt without metadata", func(t *testing.T) {
		f := New().ShowTimestamp(false).ShowLevel(false)
		data := f.Format(entry.Error, ts, tmpl, decoded(t, entry.Str("a b"), entry.Bool(true)))
		assert.Equal(t, "value a b and true\n", string(data))
	})

	t.Run("json format", func(t *testing.T) {
		f := New().Type("json")
		vals := decoded(t, entry.Str("quote\"d"), entry.Float64(math.Inf(1)), entry.Bytes([]byte{0xab}), entry.Uint8(7))
		data := f.Format(entry.Notice, ts, entry.MustTemplate("{} {} {} {}"), vals)

		var result map[string]any
		require.NoError(t, json.Unmarshal(data[:len(data)-1], &result))
		assert.Equal(t, "NOTICE", result["level"])
		assert.Equal(t, `quote"d +Inf ab 7`, result["message"])
		args := result["args"].([]any)
		require.Len(t, args, 4)
		assert.Equal(t, `quote"d`, args[0])
		assert.Equal(t, "+Inf", args[1])
		assert.Equal(t, "ab", args[2])
		assert.Equal(t, float64(7), args[3])
	})

	t.Run("raw format", func(t *testing.T) {
		f := New(sanitizer.New().Policy(sanitizer.PolicyTxt)).Type("raw")
		data := f.Format(entry.Debug, ts, entry.MustTemplate("raw {}"), decoded(t, entry.Str("a\x00b")))
		assert.Equal(t, "raw a\x00b\n", string(data), "raw bypasses sanitization")
	})

	t.Run("txt sanitizes arguments", func(t *testing.T) {
		f := New(sanitizer.New().Policy(sanitizer.PolicyTxt)).ShowTimestamp(false).ShowLevel(false)
		data := f.Format(entry.Debug, ts, entry.MustTemplate("got {}"), decoded(t, entry.Str("evil\x1b[31m")))
		assert.Equal(t, "got evil<1b>[31m\n", string(data))
	})
}

func TestFormatterMismatchMarkers(t *testing.T) {
	ts := time.Unix(0, 0)
	f := New().ShowTimestamp(false).ShowLevel(false)

	missing := f.Format(entry.Error, ts, entry.MustTemplate("a={} b={}"), decoded(t, entry.Int(1)))
	assert.Equal(t, "a=1 b="+MarkMissing+"\n", string(missing))

	extra := f.Format(entry.Error, ts, entry.MustTemplate("only {}"), decoded(t, entry.Int(1), entry.Int(2), entry.Str("x")))
	assert.Equal(t, "only 1 "+MarkExtra+"int64=2, string=x)\n", string(extra))

	broken := f.Format(entry.Error, ts, entry.MustTemplate("escaped {{}} {}"), decoded(t, entry.Int(9)))
	assert.Equal(t, "escaped {} 9\n", string(broken))

	bad := f.FormatBroken(entry.Critical, ts, "unknown template 42")
	assert.Equal(t, MarkBadRecord+" unknown template 42\n", string(bad))
}

func TestFormatEvent(t *testing.T) {
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("txt", func(t *testing.T) {
		f := New().TimestampFormat(time.RFC3339)
		data := f.FormatEvent(ts, "PROC", "processed", uint64(10), "uptime_hours", 1.5, "note", "two words")
		assert.Equal(t, `2024-01-01T00:00:00Z PROC processed=10 uptime_hours=1.5 note="two words"`+"\n", string(data))
	})

	t.Run("json", func(t *testing.T) {
		f := New().Type("json")
		data := f.FormatEvent(ts, "DISK", "rotations", uint64(2), "ok", true, "err", errors.New("boom"), "none", nil)

		var result map[string]any
		require.NoError(t, json.Unmarshal(data, &result))
		assert.Equal(t, "DISK", result["level"])
		fields := result["fields"].(map[string]any)
		assert.Equal(t, float64(2), fields["rotations"])
		assert.Equal(t, true, fields["ok"])
		assert.Equal(t, "boom", fields["err"])
		assert.Nil(t, fields["none"])
	})

	t.Run("json numbers keep their type", func(t *testing.T) {
		f := New().Type("json")
		data := f.FormatEvent(ts, "SYS", "num_gc", uint32(5), "delta", int32(-3), "slots", uint(7), "ratio", float32(0.5))

		var result map[string]any
		require.NoError(t, json.Unmarshal(data, &result))
		fields := result["fields"].(map[string]any)
		assert.Equal(t, float64(5), fields["num_gc"])
		assert.Equal(t, float64(-3), fields["delta"])
		assert.Equal(t, float64(7), fields["slots"])
		assert.Equal(t, 0.5, fields["ratio"])
	})

	t.Run("other types are dumped", func(t *testing.T) {
		type limits struct{ Files int }
		f := New().Type("json")
		data := f.FormatEvent(ts, "DISK", "limits", limits{Files: 3})

		var result map[string]any
		require.NoError(t, json.Unmarshal(data, &result))
		dump, ok := result["fields"].(map[string]any)["limits"].(string)
		require.True(t, ok)
		assert.Contains(t, dump, "Files: (int) 3")
	})

	t.Run("raw", func(t *testing.T) {
		f := New().Type("raw")
		data := f.FormatEvent(ts, "SYS", "goroutines", 4)
		assert.True(t, strings.HasPrefix(string(data), "SYS goroutines=4"))
	})
}

func BenchmarkFormatTxt(b *testing.B) {
	tmpl := entry.MustTemplate("request {} took {} ms")
	args := []entry.Arg{entry.Lit("/index"), entry.Int(42)}
	h := entry.Header{Severity: entry.Notice}
	buf := make([]byte, entry.Size(h, args, false))
	entry.Encode(buf, h, args, false)
	_, r, _ := entry.Decode(buf)
	var vals []entry.Value
	for v, ok := r.Next(); ok; v, ok = r.Next() {
		vals = append(vals, v)
	}

	f := New()
	ts := time.Now()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = f.Format(entry.Notice, ts, tmpl, vals)
	}
}
