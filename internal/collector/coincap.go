package collector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"Sentinels/internal/calculator"
	"Sentinels/internal/model"
)

// DefaultEndpoint is the public CoinCap asset listing.
const DefaultEndpoint = "https://api.coincap.io/v2/assets?limit=20"

// CoinCapFetcher implements Fetcher against a CoinCap-style asset listing.
type CoinCapFetcher struct {
	Endpoint string
	APIKey   string
	Client   *http.Client
}

// NewCoinCapFetcher creates a fetcher with optional proxy support. The client
// timeout is only a backstop; the collector bounds every call with its own deadline.
func NewCoinCapFetcher(endpoint, apiKey, proxyURL string) *CoinCapFetcher {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &CoinCapFetcher{
		Endpoint: endpoint,
		APIKey:   apiKey,
		Client: &http.Client{
			Timeout:   10 * time.Second,
			Transport: transport,
		},
	}
}

func (f *CoinCapFetcher) Name() string { return "coincap" }

// coincapAsset is one element of the listing. Numbers arrive string-encoded and may be null.
type coincapAsset struct {
	Symbol            string  `json:"symbol"`
	PriceUsd          *string `json:"priceUsd"`
	ChangePercent24Hr *string `json:"changePercent24Hr"`
	VolumeUsd24Hr     *string `json:"volumeUsd24Hr"`
	MarketCapUsd      *string `json:"marketCapUsd"`
	Vwap24Hr          *string `json:"vwap24Hr"`
}

func (f *CoinCapFetcher) FetchQuotes(ctx context.Context) ([]model.AssetQuote, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.Endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if f.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+f.APIKey)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch assets: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read assets body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if len(body) > 256 {
			body = body[:256]
		}
		return nil, &StatusError{Code: resp.StatusCode, Body: string(body)}
	}
	return ParseListing(body)
}

// ParseListing decodes a `{"data": [...]}` listing. Rows without a symbol or a
// positive price are dropped; an empty result is ErrEmptyPayload. Other
// unparsable or non-finite numbers read as 0.
func ParseListing(body []byte) ([]model.AssetQuote, error) {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	raw := bytes.TrimSpace(envelope.Data)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, ErrEmptyPayload
	}
	var rows []coincapAsset
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	quotes := make([]model.AssetQuote, 0, len(rows))
	for _, r := range rows {
		q, ok := r.quote()
		if !ok {
			log.Debug().Str("symbol", r.Symbol).Msg("dropping malformed asset row")
			continue
		}
		quotes = append(quotes, q)
	}
	if len(quotes) == 0 {
		return nil, ErrEmptyPayload
	}
	return quotes, nil
}

func (r coincapAsset) quote() (model.AssetQuote, bool) {
	price, ok := parseNum(r.PriceUsd)
	if r.Symbol == "" || !ok || price <= 0 {
		return model.AssetQuote{}, false
	}
	change, _ := parseNum(r.ChangePercent24Hr)
	volume, _ := parseNum(r.VolumeUsd24Hr)
	mcap, _ := parseNum(r.MarketCapUsd)
	q := model.AssetQuote{
		Symbol:    r.Symbol,
		Price:     price,
		Change24h: change,
		Volume24h: volume,
		MarketCap: mcap,
	}
	if vwap, ok := parseNum(r.Vwap24Hr); ok && vwap > 0 {
		q.VWAP24h = vwap
	} else {
		q.VWAP24h = price
	}
	return q, true
}

func parseNum(s *string) (float64, bool) {
	if s == nil || *s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(*s, 64)
	if err != nil || !calculator.Finite(v) {
		return 0, false
	}
	return v, true
}
