// Package cache stores transform outputs keyed by the content they were
// computed from, so unchanged files are not re-parsed on repeated runs.
package cache

import (
	"bytes"
	"database/sql"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"
	"lukechampine.com/blake3"
	_ "modernc.org/sqlite"
)

// Cache is a SQLite-backed table of transform results.
type Cache struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS results (
	key TEXT PRIMARY KEY,
	changed INTEGER NOT NULL,
	output BLOB NOT NULL,
	created_at INTEGER NOT NULL
);
`

// Open opens or creates the cache database at {dir}/results.db.
func Open(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dir, "results.db"))
	if err != nil {
		return nil, fmt.Errorf("opening cache: %w", err)
	}
	// One writer at a time keeps SQLite from returning busy errors.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying cache schema: %w", err)
	}

	return &Cache{db: db}, nil
}

// Close closes the cache database.
func (c *Cache) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Key returns the cache key for content transformed under the given
// configuration digest and language.
func Key(configDigest []byte, lang string, content []byte) string {
	h := blake3.New(32, nil)
	h.Write(configDigest)
	h.Write([]byte{0})
	h.Write([]byte(lang))
	h.Write([]byte{0})
	h.Write(content)
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the cached output for key. ok is false on a miss.
func (c *Cache) Get(key string) (out []byte, changed bool, ok bool, err error) {
	var blob []byte
	var changedInt int
	err = c.db.QueryRow(
		"SELECT changed, output FROM results WHERE key = ?",
		key,
	).Scan(&changedInt, &blob)
	if err == sql.ErrNoRows {
		return nil, false, false, nil
	}
	if err != nil {
		return nil, false, false, fmt.Errorf("reading cache entry: %w", err)
	}

	out, err = decompress(blob)
	if err != nil {
		return nil, false, false, err
	}
	return out, changedInt != 0, true, nil
}

// Put stores the output for key, replacing any previous entry.
func (c *Cache) Put(key string, out []byte, changed bool) error {
	blob, err := compress(out)
	if err != nil {
		return err
	}

	changedInt := 0
	if changed {
		changedInt = 1
	}

	_, err = c.db.Exec(
		`INSERT OR REPLACE INTO results (key, changed, output, created_at)
		 VALUES (?, ?, ?, ?)`,
		key, changedInt, blob, time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}
	return nil
}

// Len returns the number of cached entries.
func (c *Cache) Len() (int, error) {
	var n int
	if err := c.db.QueryRow("SELECT COUNT(*) FROM results").Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func compress(data []byte) ([]byte, error) {
	var compressed bytes.Buffer
	encoder, err := zstd.NewWriter(&compressed, zstd.WithZeroFrames(true))
	if err != nil {
		return nil, fmt.Errorf("creating zstd encoder: %w", err)
	}
	if _, err := encoder.Write(data); err != nil {
		encoder.Close()
		return nil, fmt.Errorf("compressing: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("closing encoder: %w", err)
	}
	return compressed.Bytes(), nil
}

func decompress(blob []byte) ([]byte, error) {
	decoder, err := zstd.NewReader(bytes.NewReader(blob))
	if err != nil {
		return nil, fmt.Errorf("creating zstd decoder: %w", err)
	}
	defer decoder.Close()

	out, err := io.ReadAll(decoder)
	if err != nil {
		return nil, fmt.Errorf("decompressing: %w", err)
	}
	return out, nil
}
