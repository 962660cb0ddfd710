// Package noise provides the injectable randomness used by the synthesizer and
// the backup feed jitter.
package noise

import (
	"math/rand"
	"sync"
	"time"
)

// Source yields uniform values in [0, 1). *rand.Rand satisfies it.
type Source interface {
	Float64() float64
}

// Symmetric returns a uniform perturbation in [-amplitude, amplitude).
func Symmetric(src Source, amplitude float64) float64 {
	return (src.Float64()*2 - 1) * amplitude
}

// Fixed always returns the same value. Fixed(0.5) yields zero symmetric noise.
type Fixed float64

func (f Fixed) Float64() float64 { return float64(f) }

// Zero is a source whose symmetric noise is always 0.
var Zero Source = Fixed(0.5)

// Locked is a goroutine-safe math/rand source.
type Locked struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewLocked seeds a Locked source. A zero seed uses the current time.
func NewLocked(seed int64) *Locked {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Locked{r: rand.New(rand.NewSource(seed))}
}

func (l *Locked) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Float64()
}
