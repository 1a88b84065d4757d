package cachebin

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/geotilecore/geotilecore/config"
)

// FilesystemBin stores each entry as three files (<name>.blob,
// <name>.meta.json and <name>.ts, where name is the key with every
// non-alphanumeric character replaced by '_') under a root directory
// — the simplest durable
// backend, offered alongside SQLiteBin per §4.4's "pluggable backend
// (filesystem, MBTiles)" requirement.
type FilesystemBin struct {
	root string
	mu   sync.Mutex
}

// NewFilesystemBin constructs a FilesystemBin rooted at dir, creating
// it if necessary.
func NewFilesystemBin(dir string) (*FilesystemBin, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FilesystemBin{root: dir}, nil
}

func (f *FilesystemBin) paths(key string) (blobPath, metaPath, tsPath string) {
	name := safeFileName(key)
	return filepath.Join(f.root, name+".blob"),
		filepath.Join(f.root, name+".meta.json"),
		filepath.Join(f.root, name+".ts")
}

func (f *FilesystemBin) Read(key string) (Entry, ReadStatus) {
	blobPath, metaPath, tsPath := f.paths(key)
	blob, err := os.ReadFile(blobPath)
	if os.IsNotExist(err) {
		return Entry{}, ReadNotFound
	}
	if err != nil {
		return Entry{}, ReadIOError
	}
	metaBytes, err := os.ReadFile(metaPath)
	meta := config.New("headers")
	if err == nil {
		if parsed, err := config.FromJSON(metaBytes); err == nil {
			meta = parsed
		}
	}
	ts := time.Time{}
	if tsBytes, err := os.ReadFile(tsPath); err == nil {
		if parsed, err := time.Parse(time.RFC3339Nano, string(tsBytes)); err == nil {
			ts = parsed
		}
	}
	return Entry{
		Blob:         blob,
		Metadata:     meta,
		Timestamp:    ts,
		LastModified: lastModifiedFromMetadata(meta),
	}, ReadSucceeded
}

func (f *FilesystemBin) Write(key string, blob []byte, metadata *config.Config) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	blobPath, metaPath, tsPath := f.paths(key)
	if err := os.WriteFile(blobPath, blob, 0o644); err != nil {
		return err
	}
	if metadata == nil {
		metadata = config.New("headers")
	}
	metaJSON, err := metadata.ToJSON()
	if err != nil {
		return err
	}
	if err := os.WriteFile(metaPath, metaJSON, 0o644); err != nil {
		return err
	}
	return os.WriteFile(tsPath, []byte(time.Now().Format(time.RFC3339Nano)), 0o644)
}

func (f *FilesystemBin) Touch(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, _, tsPath := f.paths(key)
	return os.WriteFile(tsPath, []byte(time.Now().Format(time.RFC3339Nano)), 0o644)
}

func (f *FilesystemBin) ReadMetadata(key string) (*config.Config, ReadStatus) {
	entry, status := f.Read(key)
	return entry.Metadata, status
}

func safeFileName(key string) string {
	out := make([]rune, 0, len(key))
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}
