package geocoding

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDirectory struct {
	calls int
	addr  *Address
	err   error
}

func (f *fakeDirectory) Lookup(ctx context.Context, code string) (*Address, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.addr, nil
}

type fakeResolver struct {
	calls    int
	lat, lon float64
	err      error
}

func (f *fakeResolver) Resolve(ctx context.Context, addr *Address) (float64, float64, error) {
	f.calls++
	if f.err != nil {
		return 0, 0, f.err
	}
	return f.lat, f.lon, nil
}

func newTestGeocoder(directory *fakeDirectory, coords *fakeResolver) *Geocoder {
	return NewGeocoder(logrus.New(), directory, coords, 24*time.Hour)
}

func TestGeocoderResolve(t *testing.T) {
	directory := &fakeDirectory{addr: &Address{PostalCode: "71901070", City: "Águas Claras", State: "DF"}}
	coords := &fakeResolver{lat: -15.8344, lon: -48.0255}
	g := newTestGeocoder(directory, coords)

	result, err := g.Resolve(context.Background(), "71901-070")
	require.NoError(t, err)
	assert.Equal(t, -15.8344, result.Latitude)
	assert.Equal(t, -48.0255, result.Longitude)
	assert.Equal(t, "Águas Claras", result.Address.City)
}

func TestGeocoderResolveCachesWithinTTL(t *testing.T) {
	directory := &fakeDirectory{addr: &Address{PostalCode: "71901070", City: "Águas Claras"}}
	coords := &fakeResolver{lat: -15.8344, lon: -48.0255}
	g := newTestGeocoder(directory, coords)

	first, err := g.Resolve(context.Background(), "71901070")
	require.NoError(t, err)

	// Second call within the TTL performs zero external calls.
	second, err := g.Resolve(context.Background(), "71901-070")
	require.NoError(t, err)
	assert.Equal(t, *first, *second)
	assert.Equal(t, 1, directory.calls)
	assert.Equal(t, 1, coords.calls)
}

func TestGeocoderResolveStaleEntryRefetches(t *testing.T) {
	directory := &fakeDirectory{addr: &Address{PostalCode: "71901070"}}
	coords := &fakeResolver{lat: -15.8344, lon: -48.0255}
	g := newTestGeocoder(directory, coords)

	current := time.Now()
	g.now = func() time.Time { return current }

	_, err := g.Resolve(context.Background(), "71901070")
	require.NoError(t, err)

	current = current.Add(25 * time.Hour)
	_, err = g.Resolve(context.Background(), "71901070")
	require.NoError(t, err)
	assert.Equal(t, 2, directory.calls)
}

func TestGeocoderResolveDoesNotCacheFailures(t *testing.T) {
	directory := &fakeDirectory{err: ErrAddressNotFound}
	coords := &fakeResolver{}
	g := newTestGeocoder(directory, coords)

	_, err := g.Resolve(context.Background(), "99999999")
	assert.ErrorIs(t, err, ErrAddressNotFound)

	// A transient failure must not block later retries.
	directory.err = nil
	directory.addr = &Address{PostalCode: "99999999"}
	coords.lat, coords.lon = -15.0, -47.0

	result, err := g.Resolve(context.Background(), "99999999")
	require.NoError(t, err)
	assert.Equal(t, -15.0, result.Latitude)
	assert.Equal(t, 2, directory.calls)
}

func TestGeocoderResolveCoordinateFailureNotCached(t *testing.T) {
	directory := &fakeDirectory{addr: &Address{PostalCode: "71901070"}}
	coords := &fakeResolver{err: ErrNoCoordinates}
	g := newTestGeocoder(directory, coords)

	_, err := g.Resolve(context.Background(), "71901070")
	assert.ErrorIs(t, err, ErrNoCoordinates)

	coords.err = nil
	coords.lat = -15.8
	_, err = g.Resolve(context.Background(), "71901070")
	require.NoError(t, err)
	assert.Equal(t, 2, coords.calls)
}

func TestGeocoderResolveInvalidCode(t *testing.T) {
	directory := &fakeDirectory{}
	g := newTestGeocoder(directory, &fakeResolver{})

	_, err := g.Resolve(context.Background(), "1234")
	assert.ErrorIs(t, err, ErrInvalidPostalCode)
	assert.Equal(t, 0, directory.calls)
}

func TestGeocoderResolvePropagatesUnknownErrors(t *testing.T) {
	boom := errors.New("directory down")
	g := newTestGeocoder(&fakeDirectory{err: boom}, &fakeResolver{})

	_, err := g.Resolve(context.Background(), "71901070")
	assert.ErrorIs(t, err, boom)
}
