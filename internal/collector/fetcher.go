package collector

import (
	"context"

	"Sentinels/internal/model"
)

// Fetcher defines the interface for fetching the raw asset listing.
type Fetcher interface {
	FetchQuotes(ctx context.Context) ([]model.AssetQuote, error)
	Name() string
}
