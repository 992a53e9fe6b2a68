package geocode

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/vesselware/voyagelog/internal/trips"
)

// Cache stores geocoding results in a local sqlite database so repeated
// pipeline runs over the same season don't re-query the service.
type Cache struct {
	db *sql.DB
}

// OpenCache opens (and if needed creates) the cache database
func OpenCache(path string) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error opening cache database %s: %w", path, err)
	}

	schema := `
		CREATE TABLE IF NOT EXISTS geocode_cache (
			position TEXT PRIMARY KEY,
			place TEXT NOT NULL
		)
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("error creating cache schema: %w", err)
	}

	return &Cache{db: db}, nil
}

// Close closes the cache database
func (c *Cache) Close() error {
	return c.db.Close()
}

// Get looks up a cached place for a position
func (c *Cache) Get(position trips.Position) (*Place, bool) {
	var raw string
	err := c.db.QueryRow(`SELECT place FROM geocode_cache WHERE position = ?`, cacheKey(position)).Scan(&raw)
	if err != nil {
		return nil, false
	}

	place := &Place{}
	if err := json.Unmarshal([]byte(raw), place); err != nil {
		return nil, false
	}
	return place, true
}

// Put stores a resolved place. Cache failures are not fatal; the worst
// case is an extra service query on the next run.
func (c *Cache) Put(position trips.Position, place *Place) {
	raw, err := json.Marshal(place)
	if err != nil {
		return
	}
	c.db.Exec(`INSERT OR REPLACE INTO geocode_cache (position, place) VALUES (?, ?)`, cacheKey(position), string(raw))
}

// cacheKey rounds the coordinate so positions within roughly ten meters
// share a cache entry
func cacheKey(position trips.Position) string {
	return fmt.Sprintf("%.4f,%.4f", position.Latitude, position.Longitude)
}
