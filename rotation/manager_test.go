package rotation

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names(files []File) []string {
	var out []string
	for _, f := range files {
		out = append(out, filepath.Base(f.Path))
	}
	return out
}

func touch(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("old\n"), 0644))
}

func TestRotationBoundary(t *testing.T) {
	dir := t.TempDir()
	m, err := New(Config{Directory: dir, Name: "app", Extension: "log", MaxSize: 10}, nil)
	require.NoError(t, err)
	defer m.Close()

	_, err = m.Write([]byte("12345"))
	require.NoError(t, err)
	_, err = m.Write([]byte("12345"))
	require.NoError(t, err, "exactly MaxSize stays in the same file")
	assert.Equal(t, []string{"app_1.log"}, names(m.Files()))

	_, err = m.Write([]byte("x"))
	require.NoError(t, err)
	assert.Equal(t, []string{"app_1.log", "app_2.log"}, names(m.Files()))
	assert.Equal(t, uint64(1), m.Stats().Rotations)

	data, err := os.ReadFile(filepath.Join(dir, "app_1.log"))
	require.NoError(t, err)
	assert.Equal(t, "1234512345", string(data))
}

func TestOversizedEntryGetsOwnFile(t *testing.T) {
	dir := t.TempDir()
	m, err := New(Config{Directory: dir, Name: "big", MaxSize: 4}, nil)
	require.NoError(t, err)
	defer m.Close()

	_, err = m.Write([]byte("this entry is longer than the limit"))
	require.NoError(t, err)
	assert.Equal(t, uint64(0), m.Stats().Rotations, "an empty file is never rotated")

	_, err = m.Write([]byte("ab"))
	require.NoError(t, err)
	assert.Equal(t, []string{"big_1", "big_2"}, names(m.Files()))
}

// TestRetentionRemovesOldestOncePerFile checks deletion count matches new files once full
func TestRetentionRemovesOldestOncePerFile(t *testing.T) {
	dir := t.TempDir()
	m, err := New(Config{Directory: dir, Name: "app", Extension: "log", MaxSize: 3, MaxFiles: 3}, nil)
	require.NoError(t, err)
	defer m.Close()

	for i := 0; i < 6; i++ {
		_, err := m.Write([]byte("abc"))
		require.NoError(t, err)
	}

	assert.Equal(t, []string{"app_4.log", "app_5.log", "app_6.log"}, names(m.Files()))
	st := m.Stats()
	assert.Equal(t, uint64(5), st.Rotations)
	assert.Equal(t, uint64(3), st.Deletions)

	for i := 1; i <= 3; i++ {
		_, err := os.Stat(filepath.Join(dir, "app_"+string(rune('0'+i))+".log"))
		assert.True(t, os.IsNotExist(err))
	}
	left, err := Scan(dir, "app", "log")
	require.NoError(t, err)
	assert.Len(t, left, 3)
}

func TestFailedCreateKeepsHistory(t *testing.T) {
	dir := t.TempDir()
	// The next file name is taken by a directory, so creating it fails
	require.NoError(t, os.Mkdir(filepath.Join(dir, "app_4.log"), 0755))

	m, err := New(Config{Directory: dir, Name: "app", Extension: "log", MaxSize: 4, MaxFiles: 3}, nil)
	require.NoError(t, err)
	defer m.Close()

	for _, line := range []string{"one\n", "two\n", "tri\n"} {
		_, err = m.Write([]byte(line))
		require.NoError(t, err)
	}

	for i := 0; i < 3; i++ {
		_, err = m.Write([]byte("for\n"))
		assert.Error(t, err)
	}

	assert.Equal(t, uint64(0), m.Stats().Deletions)
	assert.Equal(t, []string{"app_1.log", "app_2.log", "app_3.log"}, names(m.Files()))
	_, err = os.Stat(filepath.Join(dir, "app_1.log"))
	assert.NoError(t, err, "oldest file survives a failed rotation")
}

func TestSeedFromExistingListing(t *testing.T) {
	dir := t.TempDir()
	for _, n := range []string{"svc_2.log", "svc_10.log", "svc_7.log", "other.log", "svc_x.log", "svc_3.txt"} {
		touch(t, dir, n)
	}

	listing, err := Scan(dir, "svc", "log")
	require.NoError(t, err)
	assert.Len(t, listing, 3)

	m, err := New(Config{Directory: dir, Name: "svc", Extension: "log", MaxFiles: 3}, append(listing, "svc_-1.log", "notes.md"))
	require.NoError(t, err)
	defer m.Close()

	assert.Equal(t, []string{"svc_2.log", "svc_7.log", "svc_10.log"}, names(m.Files()))
	assert.Equal(t, []string{"svc_-1.log", "notes.md"}, m.Ignored())

	_, err = m.Write([]byte("fresh\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{"svc_7.log", "svc_10.log", "svc_11.log"}, names(m.Files()))
	_, err = os.Stat(filepath.Join(dir, "svc_2.log"))
	assert.True(t, os.IsNotExist(err), "oldest seeded file removed")
	_, err = os.Stat(filepath.Join(dir, "other.log"))
	assert.NoError(t, err, "files outside the set are untouched")
}

func TestMissingSeedFileIsNotAnError(t *testing.T) {
	dir := t.TempDir()
	var reported []error
	m, err := New(Config{
		Directory: dir, Name: "gone", Extension: "log", MaxFiles: 1,
		OnError: func(err error) { reported = append(reported, err) },
	}, []string{"gone_1.log"})
	require.NoError(t, err)
	defer m.Close()

	_, err = m.Write([]byte("x"))
	require.NoError(t, err)
	assert.Empty(t, reported)
	assert.Equal(t, []string{"gone_2.log"}, names(m.Files()))
}

func TestCloseAndSync(t *testing.T) {
	dir := t.TempDir()
	m, err := New(Config{Directory: dir, Name: "c"}, nil)
	require.NoError(t, err)

	assert.NoError(t, m.Sync(), "sync before the first write is a no-op")
	_, err = m.Write([]byte("line\n"))
	require.NoError(t, err)
	assert.NoError(t, m.Sync())
	assert.Equal(t, int64(5), m.Stats().ActiveSize)
	assert.True(t, strings.HasSuffix(m.Stats().ActivePath, "c_1"))

	require.NoError(t, m.Close())
	_, err = m.Write([]byte("late"))
	assert.ErrorIs(t, err, ErrClosed)
	assert.NoError(t, m.Close())
}

func TestNewValidation(t *testing.T) {
	_, err := New(Config{}, nil)
	assert.Error(t, err)
	_, err = New(Config{Name: "a", MaxFiles: -1}, nil)
	assert.Error(t, err)
}

func TestScanMissingDirectory(t *testing.T) {
	list, err := Scan(filepath.Join(t.TempDir(), "absent"), "a", "log")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestDiskFree(t *testing.T) {
	free, err := DiskFree(t.TempDir())
	require.NoError(t, err)
	assert.Greater(t, free, int64(0))
}
