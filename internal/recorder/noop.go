package recorder

import "context"

// NoopRecorder is a no-op implementation used when no database is configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordDigest(context.Context, *Digest) error { return nil }
func (n *NoopRecorder) Recent(context.Context, int) ([]Digest, error) { return nil, nil }
func (n *NoopRecorder) Close() error { return nil }
