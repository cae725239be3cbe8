package jobs

import (
	"context"
	"sync/atomic"
)

// Sweeper evicts expired cache entries and reports how many it removed
type Sweeper interface {
	Sweep() int
}

// CacheSweepJob physically removes expired entries from an in-process cache
type CacheSweepJob struct {
	cache   Sweeper
	evicted atomic.Int64
}

// NewCacheSweepJob creates the sweep job for c
func NewCacheSweepJob(c Sweeper) *CacheSweepJob {
	return &CacheSweepJob{cache: c}
}

// Run performs one sweep
func (j *CacheSweepJob) Run(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	j.evicted.Add(int64(j.cache.Sweep()))
	return nil
}

// Evicted returns the total entries removed across runs
func (j *CacheSweepJob) Evicted() int {
	return int(j.evicted.Load())
}
