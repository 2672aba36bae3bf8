package mal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/moneytech/mini-async-log/entry"
	"github.com/moneytech/mini-async-log/rotation"
)

func TestZapSink(t *testing.T) {
	core, observed := observer.New(zapcore.DebugLevel)
	logger := startWithSinks(t, nil, func(c *Config) {
		c.Level = "debug"
	}, NewZapSink(zap.New(core)))

	require.True(t, logger.Trace(testTemplate, entry.Int(1), entry.Int(2)))
	require.True(t, logger.Notice(testTemplate, entry.Int(3), entry.Int(4)))
	require.True(t, logger.Warning(testTemplate, entry.Int(5), entry.Int(6)))
	require.True(t, logger.Critical(testTemplate, entry.Int(7), entry.Int(8)))
	require.NoError(t, logger.Shutdown())

	all := observed.All()
	require.Len(t, all, 4)

	wantLevels := []zapcore.Level{zapcore.DebugLevel, zapcore.InfoLevel, zapcore.WarnLevel, zapcore.ErrorLevel}
	wantSev := []string{"TRACE", "NOTICE", "WARNING", "CRITICAL"}
	for i, e := range all {
		assert.Equal(t, wantLevels[i], e.Level)
		assert.Equal(t, wantSev[i], e.ContextMap()["severity"])
		assert.NotContains(t, e.Message, "\n")
	}
	assert.Equal(t, "WARNING value 5 and 6", all[2].Message)
}

func TestZapSinkRespectsZapLevel(t *testing.T) {
	core, observed := observer.New(zapcore.ErrorLevel)
	sink := NewZapSink(zap.New(core))

	require.NoError(t, sink.WriteLine(SeverityNotice, []byte("dropped by zap\n")))
	require.NoError(t, sink.WriteLine(SeverityError, []byte("kept\n")))
	require.NoError(t, sink.Sync())

	require.Equal(t, 1, observed.Len())
	assert.Equal(t, "kept", observed.All()[0].Message)
}

func TestFileSinkRotation(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFileSink(rotation.Config{
		Directory: dir,
		Name:      "app",
		Extension: "log",
		MaxSize:   10,
		MaxFiles:  2,
	}, nil)
	require.NoError(t, err)

	for _, line := range []string{"first...\n", "second..\n", "third...\n"} {
		require.NoError(t, fs.WriteLine(SeverityNotice, []byte(line)))
	}
	require.NoError(t, fs.Sync())

	stats := fs.Stats()
	assert.Equal(t, uint64(2), stats.Rotations)
	assert.Equal(t, uint64(1), stats.Deletions)
	assert.Equal(t, 2, stats.Files)
	require.NoError(t, fs.Close())

	_, err = os.Stat(filepath.Join(dir, "app_1.log"))
	assert.True(t, os.IsNotExist(err))
	data, err := os.ReadFile(filepath.Join(dir, "app_3.log"))
	require.NoError(t, err)
	assert.Equal(t, "third...\n", string(data))

	assert.ErrorIs(t, fs.WriteLine(SeverityNotice, []byte("late\n")), rotation.ErrClosed)
}

func TestLoggerSeedsRotationFromDirectory(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"mal_4.log", "mal_7.log", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("old\n"), 0644))
	}

	logger, _ := createTestLogger(t, func(c *Config) {
		c.Directory = dir
		c.MaxFiles = 2
	})
	require.True(t, logger.Error(testTemplate, entry.Int(1), entry.Int(1)))
	require.NoError(t, logger.Shutdown())

	_, err := os.Stat(filepath.Join(dir, "mal_8.log"))
	assert.NoError(t, err, "new file continues the sequence")
	_, err = os.Stat(filepath.Join(dir, "mal_4.log"))
	assert.True(t, os.IsNotExist(err), "oldest file removed to honor max_files")
	_, err = os.Stat(filepath.Join(dir, "notes.txt"))
	assert.NoError(t, err, "foreign files are left alone")
}

func TestLoggerUsesSuppliedListing(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mal_2.log"), []byte("old\n"), 0644))

	logger := NewLogger()
	cfg := DefaultConfig()
	cfg.Directory = dir
	require.NoError(t, logger.ApplyConfig(cfg))
	// An explicit listing wins over the directory content
	logger.SetExistingFiles([]string{"mal_5.log"})
	require.NoError(t, logger.Start())
	require.True(t, logger.Error(testTemplate, entry.Int(1), entry.Int(1)))
	require.NoError(t, logger.Shutdown())

	_, err := os.Stat(filepath.Join(dir, "mal_6.log"))
	assert.NoError(t, err)

	// The listing is used once; a restart rescans and sees mal_6
	require.NoError(t, logger.Start())
	require.True(t, logger.Error(testTemplate, entry.Int(2), entry.Int(2)))
	require.NoError(t, logger.Shutdown())

	_, err = os.Stat(filepath.Join(dir, "mal_7.log"))
	assert.NoError(t, err)
}

func TestConsoleSinkTarget(t *testing.T) {
	assert.Equal(t, os.Stdout, NewConsoleSink("stdout").w)
	assert.Equal(t, os.Stderr, NewConsoleSink("stderr").w)
}
