// Package stats provides runtime statistics accumulators for query
// execution: sample distributions and named metric counters.
package stats

import (
	"sync"
	"time"
)

const distributionRollingWindows = 5

// A Distribution accumulates a stream of sample values, tracking totals
// plus a rolling window of recent samples. Safe for concurrent use.
type Distribution struct {
	mu      sync.Mutex
	count   int64
	total   int64
	min     int64
	max     int64
	recent  []int64 // ring of recent samples for rolling averages
	head    int
	started bool
}

// CreateDistribution is a factory for Distributions
func CreateDistribution() *Distribution {
	return &Distribution{
		recent: make([]int64, distributionRollingWindows),
	}
}

// Add records one sample value
func (d *Distribution) Add(value int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.started || value < d.min {
		d.min = value
	}
	if !d.started || value > d.max {
		d.max = value
	}
	d.started = true
	d.count++
	d.total += value
	d.recent[d.head] = value
	d.head = (d.head + 1) % len(d.recent)
}

// AddDuration records one sample value in nanoseconds
func (d *Distribution) AddDuration(value time.Duration) {
	d.Add(value.Nanoseconds())
}

// A DistributionSnapshot is a point-in-time copy of a Distribution
type DistributionSnapshot struct {
	Count         int64
	Total         int64
	Min           int64
	Max           int64
	Avg           float64
	RecentAverage float64
}

// Snapshot returns a point-in-time copy of this Distribution
func (d *Distribution) Snapshot() DistributionSnapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	snapshot := DistributionSnapshot{
		Count: d.count,
		Total: d.total,
		Min:   d.min,
		Max:   d.max,
	}
	if d.count > 0 {
		snapshot.Avg = float64(d.total) / float64(d.count)
	}
	var recentTotal int64
	recentCount := d.count
	if recentCount > int64(len(d.recent)) {
		recentCount = int64(len(d.recent))
	}
	for _, value := range d.recent {
		recentTotal += value
	}
	if recentCount > 0 {
		snapshot.RecentAverage = float64(recentTotal) / float64(recentCount)
	}
	return snapshot
}
