package collector

import (
	_ "embed"
	"fmt"

	"Sentinels/internal/model"
	"Sentinels/internal/noise"
)

// BackupJitter is the maximum multiplicative price perturbation applied to
// backup quotes on every call (±0.05%).
const BackupJitter = 0.0005

//go:embed backup.json
var backupListing []byte

var backupQuotes = mustParseBackup()

func mustParseBackup() []model.AssetQuote {
	q, err := ParseListing(backupListing)
	if err != nil {
		panic(fmt.Sprintf("bundled backup listing: %v", err))
	}
	return q
}

// BackupQuotes returns a fresh copy of the bundled quote set with every price
// jittered, so repeated backup cycles still move.
func BackupQuotes(src noise.Source) []model.AssetQuote {
	out := make([]model.AssetQuote, len(backupQuotes))
	copy(out, backupQuotes)
	for i := range out {
		out[i].Price *= 1 + noise.Symmetric(src, BackupJitter)
	}
	return out
}
