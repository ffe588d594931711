package sqlite

import (
	"context"
	"io"
	"log/slog"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/couchcryptid/storm-track-etl/internal/domain"
	"github.com/couchcryptid/storm-track-etl/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := Open(filepath.Join(t.TempDir(), "tracks.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testRun(id string, at time.Time) domain.Run {
	return domain.Run{ID: id, Source: "ibtracs", ProcessedAt: at}
}

func TestStore_LoadAndReadBack(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	assert.Equal(t, "sqlite", store.Name())

	series := []pipeline.Series{
		{Name: "all_lon_lat", Header: "Longitude, Latitude, LSFlag", Format: "%6.2f",
			Columns: [][]float64{{130, 130.5}, {-10, -10.3}, {0, 1}}},
		{Name: "pressure_rate", Header: "All pressure change rates (hPa/hr)", Format: "%6.2f",
			Columns: [][]float64{{math.NaN(), -0.8333}}},
		{Name: "init_rmax", Header: "initial rmax (km)", Format: "%6.2f", Columns: [][]float64{{}}},
	}
	run := testRun("run-1", time.Date(2024, time.April, 26, 15, 10, 0, 0, time.UTC))
	require.NoError(t, store.Load(ctx, run, series))

	cols, err := store.Columns(ctx, "run-1", "all_lon_lat")
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{130, 130.5}, {-10, -10.3}, {0, 1}}, cols)

	rate, err := store.Columns(ctx, "run-1", "pressure_rate")
	require.NoError(t, err)
	require.Len(t, rate, 1)
	assert.True(t, domain.IsMissing(rate[0][0]))
	assert.InDelta(t, -0.8333, rate[0][1], 1e-9)

	empty, err := store.Columns(ctx, "run-1", "init_rmax")
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{}}, empty)

	var nulls int
	require.NoError(t, store.db.QueryRow(`SELECT COUNT(*) FROM series_values WHERE value IS NULL`).Scan(&nulls))
	assert.Equal(t, 1, nulls)
}

func TestStore_LatestRun(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, time.April, 26, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.Load(ctx, testRun("older", base), nil))
	require.NoError(t, store.Load(ctx, testRun("newer", base.Add(time.Hour)), nil))

	id, err := store.LatestRun(ctx, "ibtracs")
	require.NoError(t, err)
	assert.Equal(t, "newer", id)
}

func TestStore_LatestRun_SubSecond(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, time.April, 26, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.Load(ctx, testRun("whole", base), nil))
	require.NoError(t, store.Load(ctx, testRun("half", base.Add(500*time.Millisecond)), nil))

	id, err := store.LatestRun(ctx, "ibtracs")
	require.NoError(t, err)
	assert.Equal(t, "half", id)

	var stamp string
	require.NoError(t, store.db.QueryRowContext(ctx, `SELECT processed_at FROM runs WHERE run_id = ?`, "whole").Scan(&stamp))
	assert.Equal(t, "2024-04-26T00:00:00.000000000Z", stamp)
}

func TestStore_DuplicateRunRollsBack(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	run := testRun("dup", time.Now())
	series := []pipeline.Series{{Name: "jdays", Header: "Day", Format: "%d", Columns: [][]float64{{1}}}}

	require.NoError(t, store.Load(ctx, run, series))
	require.Error(t, store.Load(ctx, run, series))

	var n int
	require.NoError(t, store.db.QueryRow(`SELECT COUNT(*) FROM series_values WHERE run_id = 'dup'`).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestStore_MigrateIsIdempotent(t *testing.T) {
	store := setupTestStore(t)
	require.NoError(t, store.Migrate())

	var version int
	require.NoError(t, store.db.QueryRow(`SELECT MAX(version) FROM schema_migrations`).Scan(&version))
	assert.Equal(t, len(migrations), version)
}

func TestStore_Series(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	in := pipeline.Series{Name: "jdays", Header: "Day of year of observations", Format: "%d",
		Columns: [][]float64{{1, 32}}}
	require.NoError(t, store.Load(ctx, testRun("run-1", time.Now()), []pipeline.Series{in}))

	out, err := store.Series(ctx, "run-1", "jdays")
	require.NoError(t, err)
	assert.Equal(t, in, out)

	_, err = store.Series(ctx, "run-1", "frequency")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lookup series frequency")
}
