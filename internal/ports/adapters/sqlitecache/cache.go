// Package sqlitecache memoizes successful recognitions in a SQLite file so
// re-running a source only pays for clips it has not heard before.
package sqlitecache

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "modernc.org/sqlite"

	"github.com/forPelevin/autosub/internal/logging"
	"github.com/forPelevin/autosub/internal/ports"
	"github.com/forPelevin/autosub/internal/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS recognitions (
	key        TEXT PRIMARY KEY,
	candidates TEXT NOT NULL,
	created_at TEXT NOT NULL
)`

// Cache wraps a speech backend.
type Cache struct {
	db     *sql.DB
	next   ports.SpeechBackend
	logger *slog.Logger
	now    func() time.Time
}

func Open(path string, next ports.SpeechBackend, logger *slog.Logger) (*Cache, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create cache directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One connection keeps the pragmas in effect for every statement.
	db.SetMaxOpenConns(1)
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Cache{
		db:     db,
		next:   next,
		logger: logging.NewComponentLogger(logger, "sqlitecache"),
		now:    time.Now,
	}, nil
}

func (c *Cache) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

func cacheKey(clip []byte, rate int, lang string) string {
	h := sha256.New()
	h.Write([]byte(lang))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(rate)))
	h.Write([]byte{0})
	h.Write(clip)
	return hex.EncodeToString(h.Sum(nil))
}

func (c *Cache) Recognize(ctx context.Context, clip []byte, rate int, lang string) (types.Recognition, error) {
	key := cacheKey(clip, rate, lang)

	var raw string
	err := c.db.QueryRowContext(ctx, "SELECT candidates FROM recognitions WHERE key = ?", key).Scan(&raw)
	switch {
	case err == nil:
		var cands []string
		if jerr := json.Unmarshal([]byte(raw), &cands); jerr == nil {
			return types.Recognition{Candidates: cands}, nil
		}
		c.logger.Warn("discarding unreadable cache entry", slog.String("key", key))
	case errors.Is(err, sql.ErrNoRows):
	default:
		if ctx.Err() != nil {
			return types.Recognition{}, ctx.Err()
		}
		c.logger.Warn("recognition cache lookup failed", logging.Error(err))
	}

	rec, err := c.next.Recognize(ctx, clip, rate, lang)
	if err != nil || rec.Code != 0 {
		return rec, err
	}

	b, err := json.Marshal(rec.Candidates)
	if err != nil {
		return rec, nil
	}
	if _, err := c.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO recognitions (key, candidates, created_at) VALUES (?, ?, ?)",
		key, string(b), c.now().UTC().Format(time.RFC3339),
	); err != nil {
		c.logger.Warn("recognition cache store failed", logging.Error(err))
	}
	return rec, nil
}
