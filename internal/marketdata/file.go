package marketdata

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gocarina/gocsv"

	"options-copilot/internal/errors"
	"options-copilot/internal/models"
)

// barRow is the on-disk CSV shape of one daily bar.
type barRow struct {
	Date   string  `csv:"date"`
	Open   float64 `csv:"open"`
	High   float64 `csv:"high"`
	Low    float64 `csv:"low"`
	Close  float64 `csv:"close"`
	Volume int64   `csv:"volume"`
}

// FileProvider serves bars from per-ticker CSV files in a cache directory.
type FileProvider struct {
	dir string
}

// NewFileProvider creates a provider reading from dir.
func NewFileProvider(dir string) *FileProvider {
	return &FileProvider{dir: dir}
}

// DailyBars reads <dir>/<TICKER>.csv and returns the bars in the date
// range, sorted ascending.
func (p *FileProvider) DailyBars(_ context.Context, ticker string, from, to time.Time) ([]models.Bar, error) {
	path := filepath.Join(p.dir, strings.ToUpper(ticker)+".csv")
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewMarketDataError("history", fmt.Errorf("no cached data for %s", ticker))
		}
		return nil, errors.NewMarketDataError("history", err)
	}
	defer file.Close()

	var rows []barRow
	if err := gocsv.UnmarshalFile(file, &rows); err != nil {
		return nil, errors.NewMarketDataError("history", fmt.Errorf("parsing %s: %w", path, err))
	}

	bars := make([]models.Bar, 0, len(rows))
	for _, row := range rows {
		date, err := time.Parse("2006-01-02", row.Date)
		if err != nil {
			continue
		}
		if date.Before(from) || date.After(to) {
			continue
		}
		bars = append(bars, models.Bar{
			Date:   date,
			Open:   row.Open,
			High:   row.High,
			Low:    row.Low,
			Close:  row.Close,
			Volume: row.Volume,
		})
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	return bars, nil
}

// Store writes bars to the per-ticker cache file, replacing any existing
// contents.
func (p *FileProvider) Store(ticker string, bars []models.Bar) error {
	if err := os.MkdirAll(p.dir, 0o755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}

	rows := make([]barRow, 0, len(bars))
	for _, b := range bars {
		rows = append(rows, barRow{
			Date:   b.Date.Format("2006-01-02"),
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: b.Volume,
		})
	}

	path := filepath.Join(p.dir, strings.ToUpper(ticker)+".csv")
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("writing cache file: %w", err)
	}
	defer file.Close()

	if err := gocsv.MarshalFile(&rows, file); err != nil {
		return fmt.Errorf("writing cache file: %w", err)
	}
	return nil
}
