package mal

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moneytech/mini-async-log/entry"
	"github.com/moneytech/mini-async-log/formatter"
)

type failingSink struct{}

func (failingSink) WriteLine(Severity, []byte) error { return errors.New("disk on fire") }

type panickingSink struct{}

func (panickingSink) WriteLine(Severity, []byte) error { panic("sink exploded") }

// startWithSinks starts a file-less logger that writes to the given sinks
func startWithSinks(t *testing.T, internal *syncBuffer, mutate func(*Config), sinks ...Sink) *Logger {
	t.Helper()
	logger := NewLogger()
	if internal != nil {
		logger.internalOut = internal
	}
	cfg := DefaultConfig()
	cfg.EnableFile = false
	cfg.ShowTimestamp = false
	cfg.InternalErrorsToStderr = internal != nil
	if mutate != nil {
		mutate(cfg)
	}
	require.NoError(t, logger.ApplyConfig(cfg))
	for _, s := range sinks {
		logger.AddSink(s)
	}
	require.NoError(t, logger.Start())
	return logger
}

func TestOrderAcrossProducers(t *testing.T) {
	sink := &collectSink{}
	logger := startWithSinks(t, nil, func(c *Config) {
		c.QueueCapacity = 64
		c.PoolSlotCount = 64
	}, sink)
	tmpl := entry.MustTemplate("producer {} seq {}")

	const producers, perProducer = 8, 500
	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				assert.True(t, logger.NoticeSync(tmpl, entry.Int(p), entry.Int(i)))
			}
		}(p)
	}
	wg.Wait()
	require.NoError(t, logger.Shutdown(5*time.Second))

	lines := sink.Lines()
	require.Len(t, lines, producers*perProducer)

	next := make([]int, producers)
	for _, line := range lines {
		fields := strings.Fields(line)
		require.Len(t, fields, 5, line)
		p, err := strconv.Atoi(fields[2])
		require.NoError(t, err)
		seq, err := strconv.Atoi(fields[4])
		require.NoError(t, err)
		require.Equal(t, next[p], seq, "producer %d out of order", p)
		next[p]++
	}
}

func TestTemplateMismatch(t *testing.T) {
	internal := &syncBuffer{}
	sink := &collectSink{}
	logger := startWithSinks(t, internal, nil, sink)

	tmpl := entry.MustTemplate("a={} b={}")
	require.True(t, logger.Error(tmpl, entry.Int(1)))
	require.True(t, logger.Error(tmpl, entry.Int(1), entry.Int(2), entry.Str("x")))
	require.NoError(t, logger.Shutdown())

	lines := sink.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, "ERROR a=1 b="+formatter.MarkMissing+"\n", lines[0])
	assert.Equal(t, "ERROR a=1 b=2 "+formatter.MarkExtra+"string=x)\n", lines[1])

	assert.Equal(t, uint64(2), logger.Stats().BadRecords)
	report := internal.String()
	assert.Contains(t, report, `template "a={} b={}" expects 2 arguments, got 1`)
	assert.Contains(t, report, `(string) (len=1) "x"`, "values are dumped")
}

func TestCorruptEntryIsReported(t *testing.T) {
	internal := &syncBuffer{}
	sink := &collectSink{}
	logger := startWithSinks(t, internal, nil, sink)

	p := logger.pipe.Load()
	buf, ok := p.supplier.Acquire(3)
	require.True(t, ok)
	copy(buf.Data, []byte{0x07, 0x00, 0x00})
	require.Equal(t, "submitted", p.channel.TrySubmit(buf).String())
	require.NoError(t, logger.Shutdown())

	lines := sink.Lines()
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], formatter.MarkBadRecord)
	assert.Equal(t, uint64(1), logger.Stats().BadRecords)
	assert.Contains(t, internal.String(), "undecodable entry")
}

func TestSinkFailuresDoNotStopWorker(t *testing.T) {
	internal := &syncBuffer{}
	sink := &collectSink{}
	logger := startWithSinks(t, internal, nil, failingSink{}, panickingSink{}, sink)

	for i := 0; i < 3; i++ {
		require.True(t, logger.Warning(testTemplate, entry.Int(i), entry.Int(i)))
	}
	require.NoError(t, logger.Shutdown())

	assert.Len(t, sink.Lines(), 3)
	assert.Equal(t, uint64(6), logger.Stats().SinkFailures)
	assert.Equal(t, uint64(3), logger.Stats().Processed)
	assert.Contains(t, internal.String(), "disk on fire")
	assert.Contains(t, internal.String(), "sink exploded")
}

func TestInternalErrorsSilentByDefault(t *testing.T) {
	internal := &syncBuffer{}
	logger := NewLogger()
	logger.internalOut = internal
	cfg := DefaultConfig()
	cfg.EnableFile = false
	require.NoError(t, logger.ApplyConfig(cfg))
	logger.AddSink(failingSink{})
	require.NoError(t, logger.Start())

	require.True(t, logger.Error(testTemplate, entry.Int(1), entry.Int(1)))
	require.NoError(t, logger.Shutdown())

	assert.Equal(t, uint64(1), logger.Stats().SinkFailures)
	assert.Empty(t, internal.String())
}

func TestSinksAreSyncedOnShutdown(t *testing.T) {
	sink := &collectSink{}
	logger := startWithSinks(t, nil, nil, sink)
	require.NoError(t, logger.Shutdown())

	sink.mu.Lock()
	defer sink.mu.Unlock()
	assert.GreaterOrEqual(t, sink.syncs, 1)
}

func TestAllocationFailure(t *testing.T) {
	logger := startWithSinks(t, nil, func(c *Config) {
		c.PoolSlotCount = 4
		c.PoolSlotSize = 32
		c.Overflow = "forbid"
	}, &collectSink{})
	defer logger.Shutdown()

	big := entry.MustTemplate("payload {}")
	assert.False(t, logger.Error(big, entry.Str(strings.Repeat("x", 64))))
	assert.Equal(t, uint64(1), logger.Stats().AllocFailures)
	assert.True(t, logger.Error(big, entry.Str("fits")))
}

func TestFixedWidthRoundTrip(t *testing.T) {
	sink := &collectSink{}
	logger := startWithSinks(t, nil, func(c *Config) {
		c.FixedWidthIntegers = true
	}, sink)

	require.True(t, logger.Critical(testTemplate, entry.Int(3), entry.Int(255)))
	require.NoError(t, logger.Shutdown())

	require.Len(t, sink.Lines(), 1)
	assert.Equal(t, fmt.Sprintf("%s value 3 and 255\n", SeverityCritical), sink.Lines()[0])
}
