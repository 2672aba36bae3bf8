package sanitizer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizerPolicies(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		policy   PolicyPreset
		expected string
	}{
		{"raw passes through", "hello\x00world\n", PolicyRaw, "hello\x00world\n"},
		{"txt hex encodes null", "test\x00data", PolicyTxt, "test<00>data"},
		{"txt hex encodes control chars", "bell\x07tab\x09form\x0c", PolicyTxt, "bell<07>tab<09>form<0c>"},
		{"txt keeps printable", "Hello World 123!@#", PolicyTxt, "Hello World 123!@#"},
		{"txt multi-byte control", "line1\u0085line2", PolicyTxt, "line1<c285>line2"},
		{"txt keeps UTF-8", "Hello 世界 ✓", PolicyTxt, "Hello 世界 ✓"},
		{"txt invalid byte", "bad\xffbyte", PolicyTxt, "bad<ff>byte"},
		{"json escapes controls", "line1\nline2\ttab", PolicyJSON, "line1\\nline2\\ttab"},
		{"json escapes unicode control", "text\x01\x1f", PolicyJSON, "text\\u0001\\u001f"},
		{"shell strips specials", "rm -rf $(x); ls", PolicyShell, "rm-rfxls"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := New().Policy(tc.policy)
			assert.Equal(t, tc.expected, s.Sanitize(tc.input))
			assert.Equal(t, "pre:"+tc.expected, string(s.Append([]byte("pre:"), []byte(tc.input))))
		})
	}
}

func TestCustomRuleOrder(t *testing.T) {
	// The first matching rule wins, so the newline is stripped before the
	// hex rule sees it.
	s := New().Rule(FilterWhitespace, TransformStrip).Rule(FilterControl, TransformHexEncode)
	assert.Equal(t, "ab<07>c", s.Sanitize("a\nb\x07 c"))
	assert.True(t, New().Passthrough())
	assert.False(t, s.Passthrough())
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("json")
	require.NoError(t, err)
	assert.Equal(t, PolicyJSON, p)

	_, err = ParsePolicy("html")
	assert.Error(t, err)
}

func TestSerializer(t *testing.T) {
	t.Run("raw", func(t *testing.T) {
		se := NewSerializer("raw", New().Policy(PolicyTxt))
		assert.Equal(t, "a\x00b", string(se.AppendString(nil, []byte("a\x00b"))))
		assert.Equal(t, "nil", string(se.AppendNil(nil)))
		assert.False(t, se.NeedsQuotes([]byte("any string")))
	})

	t.Run("txt", func(t *testing.T) {
		se := NewSerializer("txt", New().Policy(PolicyTxt))
		assert.Equal(t, `"hello world"`, string(se.AppendString(nil, []byte("hello world"))))
		assert.Equal(t, "single", string(se.AppendString(nil, []byte("single"))))
		assert.Equal(t, `"say \"hi\""`, string(se.AppendString(nil, []byte(`say "hi"`))))
		assert.Equal(t, "hello world", string(se.AppendText(nil, []byte("hello world"))), "message text is never quoted")
		assert.Equal(t, "x<00>", string(se.AppendText(nil, []byte("x\x00"))))
		assert.Equal(t, "null", string(se.AppendNil(nil)))
		assert.True(t, se.NeedsQuotes(nil))
	})

	t.Run("json", func(t *testing.T) {
		se := NewSerializer("json", nil)
		assert.Equal(t, `"line1\nline2\t\"quoted\""`, string(se.AppendString(nil, []byte("line1\nline2\t\"quoted\""))))
		assert.Equal(t, `"null\u0000byte"`, string(se.AppendString(nil, []byte("null\x00byte"))))
		assert.Equal(t, `a\\b`, string(se.AppendText(nil, []byte(`a\b`))))
		assert.Equal(t, "true", string(se.AppendBool(nil, true)))
	})
}

func BenchmarkSanitizer(b *testing.B) {
	input := []byte(strings.Repeat("normal text\x00\n\t", 100))
	for _, p := range []PolicyPreset{PolicyRaw, PolicyTxt, PolicyJSON, PolicyShell} {
		b.Run(string(p), func(b *testing.B) {
			s := New().Policy(p)
			buf := make([]byte, 0, 4*len(input))
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				buf = s.Append(buf[:0], input)
			}
		})
	}
}
