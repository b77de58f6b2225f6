// Package barcache implements interfaces.BarCache using BuntDB.
// Each (symbol, year) is one JSON record with an optional expiry.
package barcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/buntdb"

	"github.com/bobmcallan/vire-chart/internal/common"
	"github.com/bobmcallan/vire-chart/internal/interfaces"
	"github.com/bobmcallan/vire-chart/internal/models"
)

const (
	// MemoryPath keeps the cache in process memory
	MemoryPath = ":memory:"

	keyPrefix    = "bars:"
	fetchedIndex = "fetched_at"
)

// Entry describes one cached (symbol, year) without its bars
type Entry struct {
	Symbol    string    `json:"symbol"`
	Year      int       `json:"year"`
	Bars      int       `json:"bars"`
	FetchedAt time.Time `json:"fetched_at"`
}

type record struct {
	Symbol    string            `json:"symbol"`
	Year      int               `json:"year"`
	FetchedAt time.Time         `json:"fetched_at"`
	Bars      []models.DailyBar `json:"bars"`
}

// Store implements interfaces.BarCache using BuntDB.
type Store struct {
	db     *buntdb.DB
	logger *common.Logger
	now    func() time.Time
}

var _ interfaces.BarCache = (*Store)(nil)

// NewStore opens the cache at path, creating parent directories as needed.
func NewStore(logger *common.Logger, path string) (*Store, error) {
	if path == "" {
		path = MemoryPath
	}
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create cache dir for %s: %w", path, err)
		}
	}

	db, err := buntdb.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open bar cache at %s: %w", path, err)
	}
	if err := db.SetConfig(buntdb.Config{
		SyncPolicy:           buntdb.EverySecond,
		AutoShrinkPercentage: 100,
		AutoShrinkMinSize:    32 * 1024 * 1024,
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure bar cache: %w", err)
	}
	if err := db.CreateIndex(fetchedIndex, keyPrefix+"*", buntdb.IndexJSON("fetched_at")); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create cache index: %w", err)
	}

	logger.Info().Str("path", path).Msg("Bar cache opened")
	return &Store{db: db, logger: logger, now: time.Now}, nil
}

func cacheKey(symbol string, year int) string {
	return keyPrefix + strings.ToUpper(symbol) + ":" + strconv.Itoa(year)
}

// Get returns the cached bars for symbol and year. Expired and missing
// entries report ok=false.
func (s *Store) Get(ctx context.Context, symbol string, year int) ([]models.DailyBar, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	key := cacheKey(symbol, year)
	var raw string
	err := s.db.View(func(tx *buntdb.Tx) error {
		v, err := tx.Get(key)
		if err != nil {
			return err
		}
		raw = v
		return nil
	})
	if errors.Is(err, buntdb.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cache entry '%s': %w", key, err)
	}

	var rec record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("Dropping unreadable cache entry")
		_ = s.Delete(ctx, symbol, year)
		return nil, false, nil
	}
	return rec.Bars, true, nil
}

// Put stores bars under symbol and year. ttl <= 0 stores without expiry.
func (s *Store) Put(ctx context.Context, symbol string, year int, bars []models.DailyBar, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key := cacheKey(symbol, year)
	content, err := json.Marshal(record{
		Symbol:    strings.ToUpper(symbol),
		Year:      year,
		FetchedAt: s.now().UTC(),
		Bars:      bars,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry '%s': %w", key, err)
	}

	var opts *buntdb.SetOptions
	if ttl > 0 {
		opts = &buntdb.SetOptions{Expires: true, TTL: ttl}
	}

	err = s.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(key, string(content), opts)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to store cache entry '%s': %w", key, err)
	}

	s.logger.Debug().Str("key", key).Int("bars", len(bars)).Dur("ttl", ttl).Msg("Bars cached")
	return nil
}

// Delete removes the entry for symbol and year. Missing entries are ignored.
func (s *Store) Delete(_ context.Context, symbol string, year int) error {
	key := cacheKey(symbol, year)
	err := s.db.Update(func(tx *buntdb.Tx) error {
		_, err := tx.Delete(key)
		return err
	})
	if err != nil && !errors.Is(err, buntdb.ErrNotFound) {
		return fmt.Errorf("failed to delete cache entry '%s': %w", key, err)
	}
	return nil
}

// Entries lists live cache entries, oldest fetch first.
func (s *Store) Entries(ctx context.Context) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries := make([]Entry, 0)
	err := s.db.View(func(tx *buntdb.Tx) error {
		return tx.Ascend(fetchedIndex, func(key, value string) bool {
			var rec record
			if err := json.Unmarshal([]byte(value), &rec); err != nil {
				s.logger.Warn().Err(err).Str("key", key).Msg("Skipping unreadable cache entry")
				return true
			}
			entries = append(entries, Entry{
				Symbol:    rec.Symbol,
				Year:      rec.Year,
				Bars:      len(rec.Bars),
				FetchedAt: rec.FetchedAt,
			})
			return true
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list cache entries: %w", err)
	}
	return entries, nil
}

// Close flushes and closes the cache
func (s *Store) Close() error {
	return s.db.Close()
}
