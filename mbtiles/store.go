// Package mbtiles implements the §4.9 local tile store: a SQLite
// database following the MBTiles schema, read and write through the
// same Cache Bin-shaped contract as cachebin, grounded directly on
// cachebin's SQLiteBin (itself grounded on the teacher's
// core.SQLiteCache).
package mbtiles

import (
	"bytes"
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/glebarez/go-sqlite"
	"github.com/rs/zerolog/log"

	"github.com/geotilecore/geotilecore/decoder"
	"github.com/geotilecore/geotilecore/tilekey"
)

// Extents is the geographic bounding box recorded in the metadata
// table's "bounds" value, west/south/east/north in degrees.
type Extents struct {
	West, South, East, North float64
}

// Metadata mirrors the recognized keys of the MBTiles metadata table.
type Metadata struct {
	Format      string
	Compression string
	Profile     string
	MinZoom     int
	MaxZoom     int
	Bounds      Extents
}

// Store is a SQLite-backed MBTiles archive. Unlike cachebin.SQLiteBin,
// which only serializes writes, Store serializes reads too: the spec
// calls for correctness before concurrency regardless of the
// underlying SQLite build's own locking.
type Store struct {
	db       *sql.DB
	mu       sync.Mutex
	meta     Metadata
	registry *decoder.Registry
}

// Open opens (creating if needed) the MBTiles database at path. If
// computeLevels is true and the metadata table has no minzoom/maxzoom
// recorded, Open scans the tiles table for the distinct zoom levels
// present and fills them in. format is the tile format name ("png",
// "jpg", "webp"); Read passes it to the decoder registry as the tile
// extension and MIME type, after content sniffing. Write does not
// encode with it. It is stored in metadata on first open and reused on
// later opens for consistency, ignoring a different format argument.
func Open(path, format string, computeLevels bool, registry *decoder.Registry) (*Store, *Metadata, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, nil, err
	}
	s := &Store{db: db, registry: registry}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, nil, err
	}
	if err := s.loadOrInitMetadata(format, computeLevels); err != nil {
		db.Close()
		return nil, nil, err
	}
	meta := s.meta
	return s, &meta, nil
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS tiles (
			zoom_level INTEGER,
			tile_column INTEGER,
			tile_row INTEGER,
			tile_data BLOB,
			PRIMARY KEY (zoom_level, tile_column, tile_row)
		)`,
		`CREATE TABLE IF NOT EXISTS metadata (
			name TEXT PRIMARY KEY,
			value TEXT
		)`,
		`PRAGMA journal_mode=WAL`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) loadOrInitMetadata(format string, computeLevels bool) error {
	existing, err := s.readMetadataTable()
	if err != nil {
		return err
	}

	meta := Metadata{Format: format}
	if v, ok := existing["format"]; ok {
		meta.Format = v
	}
	meta.Compression = existing["compression"]
	meta.Profile = existing["profile"]
	fmt.Sscanf(existing["minzoom"], "%d", &meta.MinZoom)
	fmt.Sscanf(existing["maxzoom"], "%d", &meta.MaxZoom)
	fmt.Sscanf(existing["bounds"], "%f,%f,%f,%f", &meta.Bounds.West, &meta.Bounds.South, &meta.Bounds.East, &meta.Bounds.North)

	_, hasMin := existing["minzoom"]
	_, hasMax := existing["maxzoom"]
	if computeLevels && (!hasMin || !hasMax) {
		minZ, maxZ, err := s.scanDistinctZoomLevels()
		if err != nil {
			return err
		}
		meta.MinZoom, meta.MaxZoom = minZ, maxZ
		if err := s.writeMetadataTable(map[string]string{
			"minzoom": fmt.Sprint(minZ),
			"maxzoom": fmt.Sprint(maxZ),
		}); err != nil {
			return err
		}
	}
	if _, ok := existing["format"]; !ok && format != "" {
		if err := s.writeMetadataTable(map[string]string{"format": format}); err != nil {
			return err
		}
	}

	s.meta = meta
	return nil
}

func (s *Store) readMetadataTable() (map[string]string, error) {
	rows, err := s.db.Query("SELECT name, value FROM metadata")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, err
		}
		out[name] = value
	}
	return out, rows.Err()
}

func (s *Store) writeMetadataTable(kv map[string]string) error {
	for name, value := range kv {
		if _, err := s.db.Exec(
			"INSERT OR REPLACE INTO metadata (name, value) VALUES (?, ?)", name, value,
		); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) scanDistinctZoomLevels() (min, max int, err error) {
	row := s.db.QueryRow("SELECT MIN(zoom_level), MAX(zoom_level) FROM tiles")
	var minN, maxN sql.NullInt64
	if err := row.Scan(&minN, &maxN); err != nil {
		return 0, 0, err
	}
	return int(minN.Int64), int(maxN.Int64), nil
}

// Read returns the decoded tile at key, or (zero Result, false, nil)
// if absent.
// Row lookup always converts the XYZ key to the TMS row convention
// the table is keyed on.
func (s *Store) Read(key tilekey.Key) (decoder.Result, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var blob []byte
	err := s.db.QueryRow(
		"SELECT tile_data FROM tiles WHERE zoom_level = ? AND tile_column = ? AND tile_row = ?",
		uint32(key.Level()), key.X(), key.FlippedY(),
	).Scan(&blob)
	if err == sql.ErrNoRows {
		return decoder.Result{}, false, nil
	}
	if err != nil {
		return decoder.Result{}, false, err
	}

	dec, err := s.registry.Lookup("tile."+extensionForFormat(s.meta.Format), s.meta.Format, blob)
	if err != nil {
		return decoder.Result{}, false, err
	}
	result, err := dec.Decode(bytes.NewReader(blob))
	if err != nil {
		return decoder.Result{}, false, err
	}
	return result, true, nil
}

// Write stores blob as-is under key — it does no encoding, so blob
// must already be in the store's tile format — converting the XYZ row
// to TMS convention per §6.
func (s *Store) Write(key tilekey.Key, blob []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO tiles (zoom_level, tile_column, tile_row, tile_data) VALUES (?, ?, ?, ?)`,
		uint32(key.Level()), key.X(), key.FlippedY(), blob,
	)
	if err != nil {
		log.Error().Err(err).Str("key", key.String()).Msg("mbtiles: write failed")
	}
	return err
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func extensionForFormat(format string) string {
	switch format {
	case "jpg", "jpeg":
		return "jpg"
	case "webp":
		return "webp"
	default:
		return "png"
	}
}
