package collector

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Sentinels/internal/model"
	"Sentinels/internal/noise"
)

const listing = `{"data":[
 {"symbol":"BTC","priceUsd":"96450.20","changePercent24Hr":"2.45","volumeUsd24Hr":"45000000000","marketCapUsd":"1900000000000","vwap24Hr":"95000.00"},
 {"symbol":"ETH","priceUsd":"3400.5","changePercent24Hr":"-1.5","volumeUsd24Hr":"1000","marketCapUsd":"2000","vwap24Hr":null}
]}`

func serve(t *testing.T, h http.HandlerFunc) *CoinCapFetcher {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewCoinCapFetcher(srv.URL, "", "")
}

func TestFetchQuotes_Primary(t *testing.T) {
	f := serve(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(listing))
	})
	quotes, src := NewCollector(f, noise.Zero, Options{}).FetchQuotes(context.Background())
	assert.Equal(t, model.SourcePrimary, src)
	require.Len(t, quotes, 2)
	assert.Equal(t, model.AssetQuote{
		Symbol: "BTC", Price: 96450.20, Change24h: 2.45,
		Volume24h: 4.5e10, MarketCap: 1.9e12, VWAP24h: 95000,
	}, quotes[0])
	assert.Equal(t, 3400.5, quotes[1].VWAP24h, "null vwap defaults to price")
}

func TestFetchQuotes_TimeoutFallsBack(t *testing.T) {
	f := serve(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(3 * time.Second):
		case <-r.Context().Done():
		}
	})
	var reasons []string
	c := NewCollector(f, noise.Zero, Options{
		Timeout:    100 * time.Millisecond,
		OnFallback: func(r string) { reasons = append(reasons, r) },
	})

	start := time.Now()
	quotes, src := c.FetchQuotes(context.Background())
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, model.SourceBackup, src)
	assert.Len(t, quotes, len(backupQuotes))
	assert.Equal(t, []string{ReasonTimeout}, reasons)
}

func TestFetchQuotes_TimeoutWithFetcherIgnoringContext(t *testing.T) {
	c := NewCollector(blockingFetcher{}, noise.Zero, Options{Timeout: 50 * time.Millisecond})
	done := make(chan model.FeedSource, 1)
	go func() {
		_, src := c.FetchQuotes(context.Background())
		done <- src
	}()
	select {
	case src := <-done:
		assert.Equal(t, model.SourceBackup, src)
	case <-time.After(2 * time.Second):
		t.Fatal("FetchQuotes did not honour its timeout")
	}
}

type blockingFetcher struct{}

func (blockingFetcher) Name() string { return "blocking" }
func (blockingFetcher) FetchQuotes(context.Context) ([]model.AssetQuote, error) {
	time.Sleep(time.Hour)
	return nil, nil
}

func TestFetchQuotes_FailuresFallBack(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		reason string
	}{
		{"server error", http.StatusInternalServerError, `oops`, ReasonHTTPStatus},
		{"not found", http.StatusNotFound, `{}`, ReasonHTTPStatus},
		{"missing data", http.StatusOK, `{}`, ReasonEmpty},
		{"null data", http.StatusOK, `{"data":null}`, ReasonEmpty},
		{"object data", http.StatusOK, `{"data":{"symbol":"BTC"}}`, ReasonEmpty},
		{"empty array", http.StatusOK, `{"data":[]}`, ReasonEmpty},
		{"all rows invalid", http.StatusOK, `{"data":[{"symbol":"X","priceUsd":"abc"},{"symbol":"","priceUsd":"1"}]}`, ReasonEmpty},
		{"not json", http.StatusOK, `<html>`, ReasonDecode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := serve(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			var got string
			c := NewCollector(f, noise.Zero, Options{OnFallback: func(r string) { got = r }})
			quotes, src := c.FetchQuotes(context.Background())
			assert.Equal(t, model.SourceBackup, src)
			assert.NotEmpty(t, quotes)
			assert.Equal(t, tt.reason, got)
		})
	}
}

func TestParseListing_DropsBadRows(t *testing.T) {
	q, err := ParseListing([]byte(`{"data":[{"symbol":"A","priceUsd":"-1"},{"symbol":"B","priceUsd":"NaN"},{"symbol":"C","priceUsd":"2","vwap24Hr":"0"}]}`))
	require.NoError(t, err)
	require.Len(t, q, 1)
	assert.Equal(t, "C", q[0].Symbol)
	assert.Equal(t, 2.0, q[0].VWAP24h)
}

func TestParseListing_NonFiniteNumbersReadAsZero(t *testing.T) {
	q, err := ParseListing([]byte(`{"data":[{"symbol":"X","priceUsd":"5","changePercent24Hr":"Inf","volumeUsd24Hr":"NaN","marketCapUsd":"Infinity","vwap24Hr":"+Inf"}]}`))
	require.NoError(t, err)
	require.Len(t, q, 1)
	assert.Equal(t, 0.0, q[0].Change24h)
	assert.Equal(t, 0.0, q[0].Volume24h)
	assert.Equal(t, 0.0, q[0].MarketCap)
	assert.Equal(t, 5.0, q[0].VWAP24h)

	_, err = json.Marshal(q)
	assert.NoError(t, err)
}

func TestBackupQuotes_JitterWithinBounds(t *testing.T) {
	src := noise.NewLocked(3)
	a := BackupQuotes(src)
	b := BackupQuotes(src)
	require.Len(t, a, 15)
	moved := false
	for i := range a {
		base := backupQuotes[i].Price
		assert.InDelta(t, base, a[i].Price, base*BackupJitter)
		if a[i].Price != b[i].Price {
			moved = true
		}
	}
	assert.True(t, moved, "repeated backup calls should produce a changing feed")
	assert.Equal(t, 96450.20, backupQuotes[0].Price, "bundled set must not be mutated")
}

func TestFetchQuotes_NilFetcherServesBackup(t *testing.T) {
	quotes, src := NewCollector(nil, nil, Options{}).FetchQuotes(context.Background())
	assert.Equal(t, model.SourceBackup, src)
	assert.Equal(t, backupQuotes, quotes)
}

func TestFetchQuotes_RateLimited(t *testing.T) {
	m := &MockFetcher{Quotes: []model.AssetQuote{{Symbol: "BTC", Price: 1}}}
	var reasons []string
	c := NewCollector(m, noise.Zero, Options{
		RatePerSecond: 0.001,
		Burst:         1,
		OnFallback:    func(r string) { reasons = append(reasons, r) },
	})
	_, first := c.FetchQuotes(context.Background())
	_, second := c.FetchQuotes(context.Background())
	assert.Equal(t, model.SourcePrimary, first)
	assert.Equal(t, model.SourceBackup, second)
	assert.Equal(t, []string{ReasonRateLimited}, reasons)
	assert.Equal(t, 1, m.Calls)
}

func TestFetchQuotes_BreakerOpensAfterFailures(t *testing.T) {
	m := &MockFetcher{Err: errors.New("connection refused")}
	var reasons []string
	c := NewCollector(m, noise.Zero, Options{
		BreakerFailures: 2,
		BreakerCooldown: time.Hour,
		OnFallback:      func(r string) { reasons = append(reasons, r) },
	})
	for i := 0; i < 4; i++ {
		_, src := c.FetchQuotes(context.Background())
		assert.Equal(t, model.SourceBackup, src)
	}
	assert.Equal(t, 2, m.Calls, "open breaker must skip the network")
	assert.Equal(t, []string{ReasonTransport, ReasonTransport, ReasonBreakerOpen, ReasonBreakerOpen}, reasons)
}
