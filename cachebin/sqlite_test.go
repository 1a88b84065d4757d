package cachebin

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geotilecore/geotilecore/config"
)

func newTestSQLiteBin(t *testing.T) *SQLiteBin {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bin.sqlite")
	bin, err := NewSQLiteBin(path)
	require.NoError(t, err)
	t.Cleanup(func() { bin.Close() })
	return bin
}

func TestSQLiteBinWriteRead(t *testing.T) {
	bin := newTestSQLiteBin(t)
	meta := config.New("headers")
	meta.Set("Content-Type", "image/png")

	require.NoError(t, bin.Write("k1", []byte("payload"), meta))

	entry, status := bin.Read("k1")
	assert.Equal(t, ReadSucceeded, status)
	assert.Equal(t, []byte("payload"), entry.Blob)
	v, _ := entry.Metadata.Get("Content-Type")
	assert.Equal(t, "image/png", v)
}

func TestSQLiteBinMiss(t *testing.T) {
	bin := newTestSQLiteBin(t)
	_, status := bin.Read("missing")
	assert.Equal(t, ReadNotFound, status)
}

// TestSQLiteBinReadReconstructsLastModified is the round-trip that
// revalidation depends on: httpclient.Client only sets
// If-Modified-Since when Read's returned entry carries a non-zero
// LastModified, so Read must reconstruct it from the stored metadata
// the same way Write captured it.
func TestSQLiteBinReadReconstructsLastModified(t *testing.T) {
	bin := newTestSQLiteBin(t)
	stamp := time.Date(2024, time.March, 5, 12, 0, 0, 0, time.UTC)
	meta := config.New("headers")
	meta.Set("Last-Modified", stamp.Format(http.TimeFormat))

	require.NoError(t, bin.Write("k1", []byte("payload"), meta))

	entry, status := bin.Read("k1")
	require.Equal(t, ReadSucceeded, status)
	require.False(t, entry.LastModified.IsZero(), "LastModified must round-trip through Read")
	assert.True(t, entry.LastModified.Equal(stamp))
}

func TestSQLiteBinTouchPreservesLastModified(t *testing.T) {
	bin := newTestSQLiteBin(t)
	stamp := time.Date(2024, time.March, 5, 12, 0, 0, 0, time.UTC)
	meta := config.New("headers")
	meta.Set("Last-Modified", stamp.Format(http.TimeFormat))
	require.NoError(t, bin.Write("k1", []byte("payload"), meta))

	before, _ := bin.Read("k1")
	time.Sleep(5 * time.Millisecond)
	require.NoError(t, bin.Touch("k1"))

	after, status := bin.Read("k1")
	require.Equal(t, ReadSucceeded, status)
	assert.True(t, after.Timestamp.After(before.Timestamp))
	assert.True(t, after.LastModified.Equal(stamp), "a 304 touch must not disturb LastModified")
}

func TestFilesystemBinReadReconstructsLastModified(t *testing.T) {
	dir := t.TempDir()
	bin, err := NewFilesystemBin(dir)
	require.NoError(t, err)

	stamp := time.Date(2024, time.March, 5, 12, 0, 0, 0, time.UTC)
	meta := config.New("headers")
	meta.Set("Last-Modified", stamp.Format(http.TimeFormat))
	require.NoError(t, bin.Write("k1", []byte("payload"), meta))

	entry, status := bin.Read("k1")
	require.Equal(t, ReadSucceeded, status)
	require.False(t, entry.LastModified.IsZero())
	assert.True(t, entry.LastModified.Equal(stamp))

	_, err = os.Stat(dir)
	require.NoError(t, err)
}
