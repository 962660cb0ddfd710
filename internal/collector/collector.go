package collector

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"Sentinels/internal/model"
	"Sentinels/internal/noise"
)

// DefaultTimeout bounds a single primary fetch.
const DefaultTimeout = 2 * time.Second

// Options tunes the collector. Zero values pick defaults.
type Options struct {
	Timeout time.Duration
	// RatePerSecond caps primary requests; 0 disables the limiter.
	RatePerSecond float64
	Burst         int
	// BreakerFailures is the consecutive-failure count that opens the breaker; 0 disables it.
	BreakerFailures uint32
	BreakerCooldown time.Duration
	// OnFallback is called once per backup substitution with the reason.
	OnFallback func(reason string)
}

// Collector fetches quotes from the primary source and substitutes the bundled
// backup set on any failure. It never returns an error.
type Collector struct {
	Fetcher Fetcher
	Noise   noise.Source

	timeout    time.Duration
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
	onFallback func(reason string)
}

// NewCollector creates a new Collector. A nil fetcher always serves backup data.
func NewCollector(fetcher Fetcher, src noise.Source, opts Options) *Collector {
	if src == nil {
		src = noise.Zero
	}
	c := &Collector{
		Fetcher:    fetcher,
		Noise:      src,
		timeout:    opts.Timeout,
		onFallback: opts.OnFallback,
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	if opts.RatePerSecond > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RatePerSecond), burst)
	}
	if opts.BreakerFailures > 0 {
		cooldown := opts.BreakerCooldown
		if cooldown <= 0 {
			cooldown = 30 * time.Second
		}
		failures := opts.BreakerFailures
		name := "feed"
		if fetcher != nil {
			name = fetcher.Name()
		}
		c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    name,
			Timeout: cooldown,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= failures
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("feed breaker state change")
			},
		})
	}
	return c
}

// FetchQuotes returns the primary quotes, or the jittered backup set tagged
// BACKUP when the primary path fails for any reason.
func (c *Collector) FetchQuotes(ctx context.Context) ([]model.AssetQuote, model.FeedSource) {
	quotes, err := c.fetchPrimary(ctx)
	if err == nil {
		return quotes, model.SourcePrimary
	}

	reason := classify(err)
	log.Warn().Err(err).Str("reason", reason).Msg("primary feed unavailable, serving backup quotes")
	if c.onFallback != nil {
		c.onFallback(reason)
	}
	return BackupQuotes(c.Noise), model.SourceBackup
}

func (c *Collector) fetchPrimary(ctx context.Context) ([]model.AssetQuote, error) {
	if c.Fetcher == nil {
		return nil, ErrEmptyPayload
	}
	if c.limiter != nil && !c.limiter.Allow() {
		return nil, ErrRateLimited
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	call := func() ([]model.AssetQuote, error) { return c.Fetcher.FetchQuotes(ctx) }
	if c.breaker != nil {
		call = func() ([]model.AssetQuote, error) {
			res, err := c.breaker.Execute(func() (interface{}, error) {
				return c.Fetcher.FetchQuotes(ctx)
			})
			if err != nil {
				return nil, err
			}
			return res.([]model.AssetQuote), nil
		}
	}

	// The deadline holds even for fetchers that ignore ctx.
	type result struct {
		quotes []model.AssetQuote
		err    error
	}
	ch := make(chan result, 1)
	go func() {
		q, err := call()
		ch <- result{q, err}
	}()
	select {
	case r := <-ch:
		return r.quotes, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
