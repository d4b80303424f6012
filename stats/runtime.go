package stats

import (
	"sort"
	"sync"
)

// Well-known runtime metric names
const (
	GetSplitDistributionName = "getSplitDistribution"
	ScheduledWallTimeName    = "stageScheduledWallTimeNanos"
)

// A RuntimeMetric accumulates one named runtime statistic
type RuntimeMetric struct {
	Name  string
	Sum   int64
	Count int64
	Min   int64
	Max   int64
}

func (m *RuntimeMetric) add(value int64) {
	if m.Count == 0 || value < m.Min {
		m.Min = value
	}
	if m.Count == 0 || value > m.Max {
		m.Max = value
	}
	m.Sum += value
	m.Count++
}

func (m *RuntimeMetric) mergeWith(other RuntimeMetric) {
	if other.Count == 0 {
		return
	}
	if m.Count == 0 || other.Min < m.Min {
		m.Min = other.Min
	}
	if m.Count == 0 || other.Max > m.Max {
		m.Max = other.Max
	}
	m.Sum += other.Sum
	m.Count += other.Count
}

// RuntimeStats accumulates named runtime metrics. Safe for concurrent
// use.
type RuntimeStats struct {
	mu      sync.Mutex
	metrics map[string]*RuntimeMetric
}

// CreateRuntimeStats is a factory for RuntimeStats
func CreateRuntimeStats() *RuntimeStats {
	return &RuntimeStats{
		metrics: make(map[string]*RuntimeMetric),
	}
}

// AddMetricValue records one value for a named metric
func (s *RuntimeStats) AddMetricValue(name string, value int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	metric, ok := s.metrics[name]
	if !ok {
		metric = &RuntimeMetric{Name: name}
		s.metrics[name] = metric
	}
	metric.add(value)
}

// Merge folds the metrics of another RuntimeStats into this one
func (s *RuntimeStats) Merge(other *RuntimeStats) {
	for _, metric := range other.Snapshot() {
		s.mu.Lock()
		existing, ok := s.metrics[metric.Name]
		if !ok {
			existing = &RuntimeMetric{Name: metric.Name}
			s.metrics[metric.Name] = existing
		}
		existing.mergeWith(metric)
		s.mu.Unlock()
	}
}

// Snapshot returns a point-in-time copy of all metrics, sorted by name
func (s *RuntimeStats) Snapshot() []RuntimeMetric {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := make([]RuntimeMetric, 0, len(s.metrics))
	for _, metric := range s.metrics {
		snapshot = append(snapshot, *metric)
	}
	sort.Slice(snapshot, func(i, j int) bool { return snapshot[i].Name < snapshot[j].Name })
	return snapshot
}

// Metric returns a point-in-time copy of one named metric
func (s *RuntimeStats) Metric(name string) (RuntimeMetric, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	metric, ok := s.metrics[name]
	if !ok {
		return RuntimeMetric{}, false
	}
	return *metric, true
}
