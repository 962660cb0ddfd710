package recorder

import (
	"context"
	"time"

	"Sentinels/internal/model"
)

// Digest is one row of the sentiment digest log.
type Digest struct {
	ID             int64   `db:"id" json:"id"`
	Timestamp      int64   `db:"timestamp" json:"timestamp"`
	SnapshotID     string  `db:"snapshot_id" json:"snapshot_id"`
	Source         string  `db:"source" json:"source"`
	FearGreed      int     `db:"fear_greed" json:"fear_greed"`
	BTCDominance   float64 `db:"btc_dominance" json:"btc_dominance"`
	TotalMarketCap float64 `db:"total_market_cap" json:"total_market_cap"`
	TotalVolume24h float64 `db:"total_volume_24h" json:"total_volume_24h"`
	Opportunities  int     `db:"opportunities" json:"opportunities"`
	BTCPrice       float64 `db:"btc_price" json:"btc_price"`
	BestSignal     string  `db:"best_signal" json:"best_signal"`
}

// NewDigest summarises a snapshot into a digest row.
func NewDigest(snap *model.Snapshot) *Digest {
	d := &Digest{
		Timestamp:      snap.GeneratedAt.Unix(),
		SnapshotID:     snap.ID,
		Source:         string(snap.Source),
		FearGreed:      snap.Sentiment.FearGreedIndex,
		BTCDominance:   snap.Sentiment.BTCDominance,
		TotalMarketCap: snap.Sentiment.TotalMarketCap,
		TotalVolume24h: snap.Sentiment.TotalVolume24h,
		Opportunities:  len(snap.Opportunities),
	}
	if d.Timestamp <= 0 {
		d.Timestamp = time.Now().Unix()
	}
	if btc := snap.Asset("BTC"); btc != nil {
		d.BTCPrice = btc.Price
	}
	if snap.BestSignal != nil {
		d.BestSignal = snap.BestSignal.Symbol
	}
	return d
}

// Recorder persists periodic sentiment digests for later analysis.
type Recorder interface {
	RecordDigest(ctx context.Context, d *Digest) error
	Recent(ctx context.Context, limit int) ([]Digest, error)
	Close() error
}
