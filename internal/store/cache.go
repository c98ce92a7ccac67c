package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lwalden/isd-weather-api/internal/weather"
)

// source is what the cache reads through to; satisfied by *SQLiteStore.
type source interface {
	weather.Catalog
	weather.Archive
}

type seriesEntry struct {
	records   []weather.TemperatureRecord
	fetchedAt time.Time
}

// CachedStore is a concurrency-safe read-through cache in front of the
// SQLite store. The catalog and per-station series change only when the ETL
// runs, so entries are reused until they age past the TTL. A TTL of 0
// disables caching.
type CachedStore struct {
	mu  sync.RWMutex
	src source
	ttl time.Duration

	stations   []weather.Station
	stationsAt time.Time

	series map[string]seriesEntry

	now func() time.Time
}

// NewCachedStore wraps src with a TTL cache.
func NewCachedStore(src source, ttl time.Duration) *CachedStore {
	return &CachedStore{
		src:    src,
		ttl:    ttl,
		series: make(map[string]seriesEntry),
		now:    time.Now,
	}
}

// Stations returns the cached catalog, reloading it from the source when
// the cached copy is missing or stale.
func (c *CachedStore) Stations(ctx context.Context) ([]weather.Station, error) {
	c.mu.RLock()
	if c.stations != nil && c.fresh(c.stationsAt) {
		stations := c.stations
		c.mu.RUnlock()
		return stations, nil
	}
	c.mu.RUnlock()

	stations, err := c.src.Stations(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.stations = stations
	c.stationsAt = c.now()
	c.mu.Unlock()

	return stations, nil
}

// StationSeries returns the cached series for one station, reloading it
// from the source when missing or stale.
func (c *CachedStore) StationSeries(ctx context.Context, usaf, wban int) ([]weather.TemperatureRecord, error) {
	key := seriesKey(usaf, wban)

	c.mu.RLock()
	entry, ok := c.series[key]
	c.mu.RUnlock()
	if ok && c.fresh(entry.fetchedAt) {
		return entry.records, nil
	}

	records, err := c.src.StationSeries(ctx, usaf, wban)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.series[key] = seriesEntry{records: records, fetchedAt: c.now()}
	c.mu.Unlock()

	return records, nil
}

// Invalidate drops everything cached, forcing the next reads back to the
// source. The scheduler calls this after a refresh run.
func (c *CachedStore) Invalidate() {
	c.mu.Lock()
	c.stations = nil
	c.series = make(map[string]seriesEntry)
	c.mu.Unlock()
}

func (c *CachedStore) fresh(fetchedAt time.Time) bool {
	if c.ttl <= 0 {
		return false
	}
	return c.now().Sub(fetchedAt) < c.ttl
}

func seriesKey(usaf, wban int) string {
	return fmt.Sprintf("%06d-%05d", usaf, wban)
}
