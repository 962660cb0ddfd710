// Package publisher fans each published snapshot out to external sinks.
package publisher

import (
	"context"
	"errors"
	"fmt"

	"Sentinels/internal/model"
)

// Sink receives every published snapshot.
type Sink interface {
	Name() string
	Publish(ctx context.Context, snap *model.Snapshot) error
}

// Fanout publishes to every sink in order and joins their errors.
type Fanout []Sink

func (f Fanout) Name() string { return "fanout" }

func (f Fanout) Publish(ctx context.Context, snap *model.Snapshot) error {
	var errs []error
	for _, s := range f {
		if err := s.Publish(ctx, snap); err != nil {
			errs = append(errs, &SinkError{Sink: s.Name(), Err: err})
		}
	}
	return errors.Join(errs...)
}

// SinkError tags a failure with the sink that produced it.
type SinkError struct {
	Sink string
	Err  error
}

func (e *SinkError) Error() string { return fmt.Sprintf("sink %s: %v", e.Sink, e.Err) }
func (e *SinkError) Unwrap() error { return e.Err }
