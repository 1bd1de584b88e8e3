package cache

import (
	"context"
	"time"
)

// NullCache discards every write and misses every read. It backs the
// --no-cache flag and keeps the pipeline code free of nil checks.
type NullCache struct{}

var _ Cache = NullCache{}

// NewNullCache creates a cache that never stores anything.
func NewNullCache() Cache {
	return NullCache{}
}

func (NullCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

func (NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }

func (NullCache) Delete(context.Context, string) error { return nil }

func (NullCache) Clear(context.Context) error { return nil }

func (NullCache) Close() error { return nil }
