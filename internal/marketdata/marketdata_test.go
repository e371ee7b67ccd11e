package marketdata

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"options-copilot/internal/errors"
	"options-copilot/internal/models"
)

func sampleBars(n int) []models.Bar {
	bars := make([]models.Bar, n)
	date := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	for i := range bars {
		price := 100.0 + float64(i)
		bars[i] = models.Bar{
			Date:   date,
			Open:   price,
			High:   price + 1,
			Low:    price - 1,
			Close:  price + 0.5,
			Volume: 1000,
		}
		date = date.AddDate(0, 0, 1)
	}
	return bars
}

func TestFileProviderRoundTrip(t *testing.T) {
	p := NewFileProvider(t.TempDir())
	bars := sampleBars(10)

	require.NoError(t, p.Store("aapl", bars))

	got, err := p.DailyBars(context.Background(), "AAPL", bars[0].Date, bars[len(bars)-1].Date)
	require.NoError(t, err)
	require.Len(t, got, 10)
	assert.Equal(t, bars[0].Date, got[0].Date)
	assert.InDelta(t, bars[3].Close, got[3].Close, 1e-9)
}

func TestFileProviderRangeFilter(t *testing.T) {
	p := NewFileProvider(t.TempDir())
	bars := sampleBars(10)
	require.NoError(t, p.Store("AAPL", bars))

	got, err := p.DailyBars(context.Background(), "AAPL", bars[2].Date, bars[5].Date)
	require.NoError(t, err)
	assert.Len(t, got, 4)
}

func TestFileProviderMissingTicker(t *testing.T) {
	p := NewFileProvider(t.TempDir())

	_, err := p.DailyBars(context.Background(), "MISSING", time.Now().AddDate(-1, 0, 0), time.Now())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrMarketDataUnavailable))
}

func TestPolygonProviderFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/v2/aggs/ticker/AAPL/range/1/day/")
		assert.Equal(t, "test-key", r.URL.Query().Get("apiKey"))
		fmt.Fprint(w, `{"ticker":"AAPL","status":"OK","results":[
			{"o":100,"h":102,"l":99,"c":101,"v":500000,"t":1704171600000},
			{"o":101,"h":103,"l":100,"c":102.5,"v":600000,"t":1704258000000}
		]}`)
	}))
	defer server.Close()

	p := NewPolygonProvider(server.URL, "test-key", nil, zerolog.Nop())

	bars, err := p.DailyBars(context.Background(), "AAPL",
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.InDelta(t, 101, bars[0].Close, 1e-9)
	assert.InDelta(t, 102.5, bars[1].Close, 1e-9)
}

func TestPolygonProviderFallsBackToCache(t *testing.T) {
	cache := NewFileProvider(t.TempDir())
	bars := sampleBars(5)
	require.NoError(t, cache.Store("AAPL", bars))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	p := NewPolygonProvider(server.URL, "test-key", cache, zerolog.Nop())

	got, err := p.DailyBars(context.Background(), "AAPL", bars[0].Date, bars[len(bars)-1].Date)
	require.NoError(t, err)
	assert.Len(t, got, 5)
}
