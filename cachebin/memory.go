package cachebin

import (
	"sync"
	"time"

	"github.com/geotilecore/geotilecore/config"
)

// MemoryBin is an in-process Bin backend, grounded on the teacher's
// MemCache: a mutex-guarded map, useful for tests and for the default
// bin when no persistent backend is configured.
type MemoryBin struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewMemoryBin constructs an empty MemoryBin.
func NewMemoryBin() *MemoryBin {
	return &MemoryBin{entries: make(map[string]Entry)}
}

func (m *MemoryBin) Read(key string) (Entry, ReadStatus) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.entries[key]
	if !ok {
		return Entry{}, ReadNotFound
	}
	return entry, ReadSucceeded
}

func (m *MemoryBin) Write(key string, blob []byte, metadata *config.Config) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = Entry{
		Blob:         blob,
		Metadata:     metadata,
		Timestamp:    time.Now(),
		LastModified: lastModifiedFromMetadata(metadata),
	}
	return nil
}

func (m *MemoryBin) Touch(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[key]
	if !ok {
		return nil
	}
	entry.Timestamp = time.Now()
	m.entries[key] = entry
	return nil
}

func (m *MemoryBin) ReadMetadata(key string) (*config.Config, ReadStatus) {
	entry, status := m.Read(key)
	return entry.Metadata, status
}
