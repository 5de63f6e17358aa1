package pricing

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultHourlyRate is the rate applied when a court has no explicit price (VND).
const DefaultHourlyRate = 50000.0

// RateProvider resolves a court's hourly rate. Court inventory lives outside
// this service; the provider is the seam it is reached through.
type RateProvider interface {
	HourlyRate(ctx context.Context, courtID int64) (float64, error)
}

type RateTable struct {
	Default float64
	Courts  map[int64]float64
}

func (t RateTable) HourlyRate(_ context.Context, courtID int64) (float64, error) {
	if rate, ok := t.Courts[courtID]; ok {
		return rate, nil
	}
	return t.Default, nil
}

// ParseRateTable reads "court:rate" pairs separated by commas, e.g. "1:50000,2:65000".
func ParseRateTable(raw string, fallback float64) (RateTable, error) {
	table := RateTable{Default: fallback, Courts: map[int64]float64{}}
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		courtStr, rateStr, ok := strings.Cut(pair, ":")
		if !ok {
			return RateTable{}, fmt.Errorf("court rate %q must look like court:rate", pair)
		}
		courtID, err := strconv.ParseInt(strings.TrimSpace(courtStr), 10, 64)
		if err != nil || courtID <= 0 {
			return RateTable{}, fmt.Errorf("invalid court id in %q", pair)
		}
		rate, err := strconv.ParseFloat(strings.TrimSpace(rateStr), 64)
		if err != nil || rate < 0 {
			return RateTable{}, fmt.Errorf("invalid rate in %q", pair)
		}
		table.Courts[courtID] = rate
	}
	return table, nil
}

type Calculator struct {
	rates RateProvider
}

func NewCalculator(rates RateProvider) *Calculator {
	return &Calculator{rates: rates}
}

// Price charges the court's hourly rate pro rata for [start, end).
func (c *Calculator) Price(ctx context.Context, courtID int64, start, end time.Time) (float64, error) {
	if !end.After(start) {
		return 0, fmt.Errorf("end time must be after start time")
	}
	rate, err := c.rates.HourlyRate(ctx, courtID)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve hourly rate for court %d: %w", courtID, err)
	}
	if rate < 0 {
		return 0, fmt.Errorf("court %d has a negative hourly rate", courtID)
	}
	return end.Sub(start).Hours() * rate, nil
}
