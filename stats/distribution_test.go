package stats

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDistributionBasic(t *testing.T) {
	d := CreateDistribution()
	d.Add(10)
	d.Add(20)
	d.Add(30)

	snapshot := d.Snapshot()
	require.Equal(t, int64(3), snapshot.Count)
	require.Equal(t, int64(60), snapshot.Total)
	require.Equal(t, int64(10), snapshot.Min)
	require.Equal(t, int64(30), snapshot.Max)
	require.Equal(t, 20.0, snapshot.Avg)
	require.Equal(t, 20.0, snapshot.RecentAverage)
}

func TestDistributionEmpty(t *testing.T) {
	snapshot := CreateDistribution().Snapshot()
	require.Equal(t, int64(0), snapshot.Count)
	require.Equal(t, 0.0, snapshot.Avg)
	require.Equal(t, 0.0, snapshot.RecentAverage)
}

func TestDistributionRollingWindow(t *testing.T) {
	d := CreateDistribution()
	// old samples fall out of the window
	for i := 0; i < 10; i++ {
		d.Add(1000)
	}
	for i := 0; i < distributionRollingWindows; i++ {
		d.Add(10)
	}

	snapshot := d.Snapshot()
	require.Equal(t, 10.0, snapshot.RecentAverage)
	require.Equal(t, int64(1000), snapshot.Max)
}

func TestDistributionNegativeValues(t *testing.T) {
	d := CreateDistribution()
	d.Add(-5)
	d.Add(5)

	snapshot := d.Snapshot()
	require.Equal(t, int64(-5), snapshot.Min)
	require.Equal(t, int64(5), snapshot.Max)
}

func TestDistributionConcurrentAdds(t *testing.T) {
	d := CreateDistribution()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				d.Add(1)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, int64(800), d.Snapshot().Count)
}

func TestRuntimeStatsAccumulate(t *testing.T) {
	s := CreateRuntimeStats()
	s.AddMetricValue(GetSplitDistributionName, 100)
	s.AddMetricValue(GetSplitDistributionName, 300)
	s.AddMetricValue(ScheduledWallTimeName, 50)

	metric, ok := s.Metric(GetSplitDistributionName)
	require.True(t, ok)
	require.Equal(t, int64(2), metric.Count)
	require.Equal(t, int64(400), metric.Sum)
	require.Equal(t, int64(100), metric.Min)
	require.Equal(t, int64(300), metric.Max)

	_, ok = s.Metric("missing")
	require.False(t, ok)
}

func TestRuntimeStatsMerge(t *testing.T) {
	a := CreateRuntimeStats()
	a.AddMetricValue("m", 10)
	b := CreateRuntimeStats()
	b.AddMetricValue("m", 30)
	b.AddMetricValue("n", 1)

	a.Merge(b)

	metric, ok := a.Metric("m")
	require.True(t, ok)
	require.Equal(t, int64(2), metric.Count)
	require.Equal(t, int64(40), metric.Sum)
	require.Equal(t, int64(10), metric.Min)
	require.Equal(t, int64(30), metric.Max)

	_, ok = a.Metric("n")
	require.True(t, ok)
}

func TestRuntimeStatsSnapshotSorted(t *testing.T) {
	s := CreateRuntimeStats()
	s.AddMetricValue("b", 1)
	s.AddMetricValue("a", 1)

	snapshot := s.Snapshot()
	require.Len(t, snapshot, 2)
	require.Equal(t, "a", snapshot[0].Name)
	require.Equal(t, "b", snapshot[1].Name)
}
