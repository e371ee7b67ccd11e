package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"options-copilot/internal/errors"
	"options-copilot/internal/models"
)

// PolygonProvider fetches daily aggregates from the Polygon REST API. A
// circuit breaker guards the endpoint; while it is open, or on any request
// failure, the provider degrades to the file cache instead of failing the
// run.
type PolygonProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	cache   *FileProvider
	logger  zerolog.Logger
}

// NewPolygonProvider creates a Polygon-backed provider with cache
// fallback. cache may be nil to disable the fallback.
func NewPolygonProvider(baseURL, apiKey string, cache *FileProvider, logger zerolog.Logger) *PolygonProvider {
	settings := gobreaker.Settings{
		Name:    "polygon",
		Timeout: 60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Market data circuit breaker state change")
		},
	}
	return &PolygonProvider{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 30 * time.Second},
		breaker: gobreaker.NewCircuitBreaker(settings),
		cache:   cache,
		logger:  logger,
	}
}

type aggsResponse struct {
	Ticker  string `json:"ticker"`
	Status  string `json:"status"`
	Results []struct {
		Open      float64 `json:"o"`
		High      float64 `json:"h"`
		Low       float64 `json:"l"`
		Close     float64 `json:"c"`
		Volume    float64 `json:"v"`
		Timestamp int64   `json:"t"` // ms since epoch
	} `json:"results"`
}

// DailyBars fetches daily bars for the range, writing through to the
// cache on success and reading from it on failure.
func (p *PolygonProvider) DailyBars(ctx context.Context, ticker string, from, to time.Time) ([]models.Bar, error) {
	result, err := p.breaker.Execute(func() (interface{}, error) {
		return p.fetch(ctx, ticker, from, to)
	})
	if err != nil {
		if p.cache != nil {
			p.logger.Warn().
				Str("ticker", ticker).
				Err(err).
				Msg("Polygon request failed, serving from cache")
			return p.cache.DailyBars(ctx, ticker, from, to)
		}
		return nil, errors.NewMarketDataError("history", err)
	}

	bars := result.([]models.Bar)
	if p.cache != nil {
		if err := p.cache.Store(ticker, bars); err != nil {
			p.logger.Warn().Str("ticker", ticker).Err(err).Msg("Cache write failed")
		}
	}
	return bars, nil
}

func (p *PolygonProvider) fetch(ctx context.Context, ticker string, from, to time.Time) ([]models.Bar, error) {
	endpoint := fmt.Sprintf("%s/v2/aggs/ticker/%s/range/1/day/%s/%s",
		p.baseURL, url.PathEscape(ticker),
		from.Format("2006-01-02"), to.Format("2006-01-02"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	q := req.URL.Query()
	q.Set("adjusted", "true")
	q.Set("sort", "asc")
	q.Set("limit", "50000")
	q.Set("apiKey", p.apiKey)
	req.URL.RawQuery = q.Encode()

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("polygon returned %s", resp.Status)
	}

	var payload aggsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding polygon response: %w", err)
	}

	bars := make([]models.Bar, 0, len(payload.Results))
	for _, r := range payload.Results {
		bars = append(bars, models.Bar{
			Date:   time.UnixMilli(r.Timestamp).UTC().Truncate(24 * time.Hour),
			Open:   r.Open,
			High:   r.High,
			Low:    r.Low,
			Close:  r.Close,
			Volume: int64(r.Volume),
		})
	}
	return bars, nil
}
