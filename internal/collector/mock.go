package collector

import (
	"context"
	"time"

	"Sentinels/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Quotes []model.AssetQuote
	Err    error
	// Delay blocks each call; the call still respects ctx cancellation.
	Delay time.Duration
	Calls int
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchQuotes(ctx context.Context) ([]model.AssetQuote, error) {
	m.Calls++
	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([]model.AssetQuote, len(m.Quotes))
	copy(out, m.Quotes)
	return out, nil
}
