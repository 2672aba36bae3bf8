package mal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moneytech/mini-async-log/entry"
)

func TestSetProvider(t *testing.T) {
	t.Cleanup(func() { SetProvider(nil) })

	assert.False(t, Error(testTemplate, entry.Int(1), entry.Int(2)), "no provider installed")

	sink := &collectSink{}
	logger := startWithSinks(t, nil, nil, sink)
	SetProvider(func() *Logger { return logger })

	assert.True(t, Debug(testTemplate, entry.Int(0), entry.Int(0)), "filtered")
	assert.True(t, Notice(testTemplate, entry.Int(1), entry.Int(2)))
	assert.True(t, Log(SeverityError, testTemplate, entry.Int(3), entry.Int(4)))
	assert.True(t, LogSync(SeverityCritical, testTemplate, entry.Int(5), entry.Int(6)))
	require.NoError(t, logger.Shutdown())

	assert.Equal(t, []string{
		"NOTICE value 1 and 2\n",
		"ERROR value 3 and 4\n",
		"CRITICAL value 5 and 6\n",
	}, sink.Lines())

	SetProvider(func() *Logger { return nil })
	assert.False(t, Warning(testTemplate, entry.Int(1), entry.Int(2)))
}
