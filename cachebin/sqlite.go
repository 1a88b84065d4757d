package cachebin

import (
	"database/sql"
	"sync"
	"time"

	_ "github.com/glebarez/go-sqlite"
	"github.com/rs/zerolog/log"

	"github.com/geotilecore/geotilecore/config"
)

// SQLiteBin is a durable Bin backend, grounded directly on the
// teacher's core.SQLiteCache: same schema shape, same write-mutex
// discipline, generalized to additionally persist the entry's
// metadata Config (serialized as JSON) alongside the blob.
type SQLiteBin struct {
	db         *sql.DB
	writeMutex sync.Mutex
}

// NewSQLiteBin opens (creating if needed) a SQLite-backed Bin at path.
func NewSQLiteBin(path string) (*SQLiteBin, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	statements := []string{
		`CREATE TABLE IF NOT EXISTS bin (
			key TEXT PRIMARY KEY,
			blob BLOB,
			metadata TEXT,
			timestamp INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS bin_timestamp_idx ON bin (timestamp)`,
		`PRAGMA journal_mode=WAL`,
	}
	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, err
		}
	}
	return &SQLiteBin{db: db}, nil
}

func (s *SQLiteBin) Read(key string) (Entry, ReadStatus) {
	var blob []byte
	var metaJSON string
	var ts int64
	err := s.db.QueryRow("SELECT blob, metadata, timestamp FROM bin WHERE key = ?", key).
		Scan(&blob, &metaJSON, &ts)
	if err == sql.ErrNoRows {
		return Entry{}, ReadNotFound
	}
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("cachebin: sqlite read failed")
		return Entry{}, ReadIOError
	}
	meta, err := config.FromJSON([]byte(metaJSON))
	if err != nil {
		meta = config.New("headers")
	}
	return Entry{
		Blob:         blob,
		Metadata:     meta,
		Timestamp:    time.Unix(0, ts),
		LastModified: lastModifiedFromMetadata(meta),
	}, ReadSucceeded
}

func (s *SQLiteBin) Write(key string, blob []byte, metadata *config.Config) error {
	if metadata == nil {
		metadata = config.New("headers")
	}
	metaJSON, err := metadata.ToJSON()
	if err != nil {
		return err
	}
	s.writeMutex.Lock()
	defer s.writeMutex.Unlock()
	_, err = s.db.Exec(
		"INSERT OR REPLACE INTO bin (key, blob, metadata, timestamp) VALUES (?, ?, ?, ?)",
		key, blob, string(metaJSON), time.Now().UnixNano(),
	)
	return err
}

func (s *SQLiteBin) Touch(key string) error {
	s.writeMutex.Lock()
	defer s.writeMutex.Unlock()
	_, err := s.db.Exec("UPDATE bin SET timestamp = ? WHERE key = ?", time.Now().UnixNano(), key)
	return err
}

func (s *SQLiteBin) ReadMetadata(key string) (*config.Config, ReadStatus) {
	entry, status := s.Read(key)
	return entry.Metadata, status
}

// Close releases the underlying database handle.
func (s *SQLiteBin) Close() error {
	return s.db.Close()
}
