package numerator

import (
	"context"
	"sync"
	"time"
)

// MemoryGenerator keeps counters in process memory.
// Used by the in-memory storage driver and in unit tests.
type MemoryGenerator struct {
	mu       sync.Mutex
	counters map[string]int64
}

// NewMemoryGenerator creates an empty generator.
func NewMemoryGenerator() *MemoryGenerator {
	return &MemoryGenerator{counters: make(map[string]int64)}
}

// GetNextNumber implements Generator.
func (g *MemoryGenerator) GetNextNumber(_ context.Context, cfg Config, _ *Options, period time.Time) (string, error) {
	key := SequenceKey(cfg, period)

	g.mu.Lock()
	g.counters[key]++
	num := g.counters[key]
	g.mu.Unlock()

	return Format(cfg, period, num), nil
}

var _ Generator = (*MemoryGenerator)(nil)
