package geocoding

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// AddressDirectory resolves a postal code to a structured address.
type AddressDirectory interface {
	Lookup(ctx context.Context, code string) (*Address, error)
}

// CoordinateResolver resolves a structured address to a position.
type CoordinateResolver interface {
	Resolve(ctx context.Context, addr *Address) (float64, float64, error)
}

// Result is a fully resolved postal code.
type Result struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   Address `json:"address"`
}

type cacheEntry struct {
	result   Result
	storedAt time.Time
}

// Geocoder chains the directory and coordinate lookups behind a TTL cache
// keyed by cleaned postal code. Only successful resolutions are cached, so a
// transient failure never blocks a later retry. Concurrent first-time
// resolutions of the same code may each run the full chain; the downstream
// attempt delay keeps that acceptable.
type Geocoder struct {
	logger    *logrus.Logger
	directory AddressDirectory
	coords    CoordinateResolver
	ttl       time.Duration

	mu    sync.RWMutex
	cache map[string]cacheEntry
	now   func() time.Time
}

func NewGeocoder(logger *logrus.Logger, directory AddressDirectory, coords CoordinateResolver, ttl time.Duration) *Geocoder {
	return &Geocoder{
		logger:    logger,
		directory: directory,
		coords:    coords,
		ttl:       ttl,
		cache:     make(map[string]cacheEntry),
		now:       time.Now,
	}
}

// Resolve turns a postal code into coordinates plus the structured address.
// A non-stale cache entry short-circuits both external calls.
func (g *Geocoder) Resolve(ctx context.Context, code string) (*Result, error) {
	clean := CleanPostalCode(code)
	if len(clean) != 8 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPostalCode, code)
	}

	g.mu.RLock()
	entry, ok := g.cache[clean]
	g.mu.RUnlock()
	if ok && g.now().Sub(entry.storedAt) < g.ttl {
		g.logger.WithField("postal_code", clean).Debug("Geocode cache hit")
		result := entry.result
		return &result, nil
	}

	addr, err := g.directory.Lookup(ctx, clean)
	if err != nil {
		return nil, err
	}

	lat, lon, err := g.coords.Resolve(ctx, addr)
	if err != nil {
		return nil, err
	}

	result := Result{Latitude: lat, Longitude: lon, Address: *addr}

	g.mu.Lock()
	g.cache[clean] = cacheEntry{result: result, storedAt: g.now()}
	g.mu.Unlock()

	g.logger.WithFields(logrus.Fields{
		"postal_code": clean,
		"latitude":    lat,
		"longitude":   lon,
		"city":        addr.City,
	}).Info("Resolved postal code")
	return &result, nil
}
