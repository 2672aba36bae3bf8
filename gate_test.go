package mal

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moneytech/mini-async-log/entry"
)

func TestGate(t *testing.T) {
	g := NewGate(SeverityWarning)

	assert.False(t, g.IsEnabled(SeverityNotice))
	assert.True(t, g.IsEnabled(SeverityWarning))
	assert.True(t, g.IsEnabled(SeverityCritical))
	assert.False(t, g.IsEnabled(SeverityOff), "sentinels are never enabled")
	assert.False(t, g.IsEnabled(entry.Invalid))

	assert.True(t, g.SetThreshold(SeverityDebug))
	assert.True(t, g.IsEnabled(SeverityDebug))

	assert.True(t, g.SetThreshold(SeverityOff))
	assert.False(t, g.IsEnabled(SeverityCritical))

	assert.False(t, g.SetThreshold(entry.Invalid))
	assert.Equal(t, SeverityOff, g.Threshold(), "rejected thresholds keep the old value")
}

func TestFilteredCallTouchesNothing(t *testing.T) {
	logger := startWithSinks(t, nil, func(c *Config) {
		c.Level = "error"
	}, discardSink{})
	defer logger.Shutdown()

	p := logger.pipe.Load()
	require.NotNil(t, p)
	before := p.supplier.Stats()

	text := strings.Repeat("not copied ", 64)
	payload := []byte("neither is this")
	allocs := testing.AllocsPerRun(100, func() {
		if !logger.Debug(testTemplate, entry.Str(text), entry.Bytes(payload)) {
			t.Fatal("filtered call must report success")
		}
	})

	assert.Equal(t, float64(0), allocs)
	assert.Equal(t, before, p.supplier.Stats(), "no buffer acquired for a filtered call")
	stats := logger.Stats()
	assert.Zero(t, stats.Rejected())
	assert.Zero(t, stats.Processed)
}

func TestTooManyArgumentsRejected(t *testing.T) {
	sink := &collectSink{}
	logger := startWithSinks(t, nil, func(c *Config) {
		c.PoolSlotCount = 4
		c.PoolSlotSize = 4096
	}, sink)

	args := make([]entry.Arg, entry.MaxArgs+1)
	for i := range args {
		args[i] = entry.Int(i)
	}

	p := logger.pipe.Load()
	require.NotNil(t, p)
	before := p.supplier.Stats()

	assert.NotPanics(t, func() {
		assert.False(t, logger.Error(testTemplate, args...))
		assert.False(t, logger.ErrorSync(testTemplate, args...))
	})
	assert.Equal(t, before, p.supplier.Stats(), "rejected before any buffer is acquired")
	assert.Equal(t, uint64(2), logger.Stats().TooManyArgs)

	require.True(t, logger.Error(testTemplate, args[:2]...), "the logger keeps working")
	require.NoError(t, logger.Shutdown())
	assert.Equal(t, []string{"ERROR value 0 and 1\n"}, sink.Lines())
}

type discardSink struct{}

func (discardSink) WriteLine(Severity, []byte) error { return nil }

func BenchmarkFilteredCall(b *testing.B) {
	logger := NewLogger()
	logger.SetThreshold(SeverityError)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		logger.Debug(testTemplate, entry.Int(i), entry.Lit("literal"))
	}
}

func BenchmarkEnabledCall(b *testing.B) {
	logger := NewLogger()
	cfg := DefaultConfig()
	cfg.EnableFile = false
	cfg.QueueCapacity = 1 << 16
	_ = logger.ApplyConfig(cfg)
	logger.AddSink(discardSink{})
	_ = logger.Start()
	defer logger.Shutdown()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Notice(testTemplate, entry.Int(i), entry.Lit("literal"))
	}
}
