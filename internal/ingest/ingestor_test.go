package ingest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jgoulah/powerpal/internal/store"
	"github.com/jgoulah/powerpal/pkg/models"
)

type fixedSource struct {
	reading Reading
	err     error
}

func (f fixedSource) Read(ctx context.Context) (Reading, error) {
	return f.reading, f.err
}

type fixedBalance float64

func (b fixedBalance) ReadBalance(ctx context.Context) (float64, error) {
	return float64(b), nil
}

func newTestIngestor(t *testing.T, source MeterSource) (*Ingestor, *store.CSVStore) {
	t.Helper()
	s := store.NewCSVStore(filepath.Join(t.TempDir(), "usage_log.csv"))
	i := New(source, s)
	i.now = func() time.Time { return time.Date(2025, 4, 2, 7, 0, 0, 0, time.Local) }
	return i, s
}

func TestSimulated_Ranges(t *testing.T) {
	sim := NewSimulatedWithSeed(42)

	for n := 0; n < 500; n++ {
		r, err := sim.Read(context.Background())
		require.NoError(t, err)
		assert.True(t, r.HasStart)
		assert.GreaterOrEqual(t, r.UnitsStart, 50.0)
		assert.LessOrEqual(t, r.UnitsStart, 100.0)

		usage := r.UnitsStart - r.UnitsEnd
		assert.GreaterOrEqual(t, usage, 1.5-1e-9)
		assert.LessOrEqual(t, usage, 5.0+1e-9)
	}
}

func TestSimulated_Deterministic(t *testing.T) {
	a, _ := NewSimulatedWithSeed(7).Read(context.Background())
	b, _ := NewSimulatedWithSeed(7).Read(context.Background())
	assert.Equal(t, a, b)
}

func TestCollect_AppendsSimulatedRecords(t *testing.T) {
	i, s := newTestIngestor(t, NewSimulatedWithSeed(1))

	for n := 1; n <= 3; n++ {
		record, err := i.Collect(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "2025-04-02", record.Date.Format(models.DateLayout))
		assert.NoError(t, record.Validate())

		records, err := s.LoadAll()
		require.NoError(t, err)
		require.Len(t, records, n)
		assert.Equal(t, record, records[n-1])
	}
}

func TestCollect_BalanceOnlyUsesPreviousEnd(t *testing.T) {
	i, s := newTestIngestor(t, NewPortalSource(fixedBalance(81.25)))
	require.NoError(t, s.Append(models.NewRecord(time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC), 90, 84.5)))

	record, err := i.Collect(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 84.5, record.UnitsStart)
	assert.Equal(t, 81.25, record.UnitsEnd)
	assert.Equal(t, 3.25, record.Usage)
}

func TestCollect_BalanceOnlyWithoutHistory(t *testing.T) {
	i, s := newTestIngestor(t, NewPortalSource(fixedBalance(81.25)))

	_, err := i.Collect(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrInsufficientData))

	_, err = s.LoadAll()
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestCollect_SourceError(t *testing.T) {
	i, _ := newTestIngestor(t, fixedSource{err: errors.New("meter offline")})

	_, err := i.Collect(context.Background())
	assert.ErrorContains(t, err, "meter offline")
}

func TestCollect_InvalidReadingRejected(t *testing.T) {
	// A top-up between readings makes the end exceed the start
	i, s := newTestIngestor(t, fixedSource{reading: Reading{UnitsStart: 10, UnitsEnd: 12, HasStart: true}})

	_, err := i.Collect(context.Background())
	assert.True(t, errors.Is(err, models.ErrValidation))

	_, err = s.LoadAll()
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestAPISource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/meters/M-001/reading", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"units_start": 60.5, "units_end": 57.25}`))
	}))
	defer srv.Close()

	r, err := NewAPISource(srv.URL, "M-001", "tok").Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Reading{UnitsStart: 60.5, UnitsEnd: 57.25, HasStart: true}, r)
}

func TestAPISource_BalanceOnly(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"balance": 42}`))
	}))
	defer srv.Close()

	r, err := NewAPISource(srv.URL, "M-001", "").Read(context.Background())
	require.NoError(t, err)
	assert.False(t, r.HasStart)
	assert.Equal(t, 42.0, r.UnitsEnd)
}

func TestAPISource_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unknown meter", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewAPISource(srv.URL, "nope", "").Read(context.Background())
	assert.ErrorContains(t, err, "status 404")
}
