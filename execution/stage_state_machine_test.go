package execution

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/go-quarry/quarry/logging"
	"github.com/go-quarry/quarry/stats"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func createTestMachine(t *testing.T) (*StageExecutionStateMachine, *Executor) {
	executor := CreateExecutor(4)
	t.Cleanup(executor.Shutdown)
	machine := CreateStageExecutionStateMachine("stage-0.0", executor, logging.CreateLogger(logging.FatalLevel))
	return machine, executor
}

func TestInitialStateIsPlanned(t *testing.T) {
	machine, _ := createTestMachine(t)
	require.Equal(t, StagePlanned, machine.GetState())
}

func TestSchedulingTransitions(t *testing.T) {
	machine, _ := createTestMachine(t)

	require.True(t, machine.TransitionToScheduling())
	require.Equal(t, StageScheduling, machine.GetState())
	// already past PLANNED
	require.False(t, machine.TransitionToScheduling())

	require.True(t, machine.TransitionToFinishedTaskScheduling())
	require.True(t, machine.TransitionToSchedulingSplits())
	require.True(t, machine.TransitionToScheduled())
	require.Equal(t, StageScheduled, machine.GetState())

	// scheduling states cannot be re-entered
	require.False(t, machine.TransitionToSchedulingSplits())
	require.False(t, machine.TransitionToScheduled())
}

func TestTransitionToScheduledSkippingIntermediateStates(t *testing.T) {
	machine, _ := createTestMachine(t)

	require.True(t, machine.TransitionToScheduled())
	require.Equal(t, StageScheduled, machine.GetState())
	require.False(t, machine.TransitionToScheduled())

	_, ok := machine.SchedulingCompleteTime()
	require.True(t, ok)
}

func TestSchedulingCompleteTimeCapturedOnce(t *testing.T) {
	machine, _ := createTestMachine(t)

	require.True(t, machine.TransitionToScheduled())
	first, ok := machine.SchedulingCompleteTime()
	require.True(t, ok)

	machine.TransitionToScheduled()
	second, _ := machine.SchedulingCompleteTime()
	require.Equal(t, first, second)

	metric, ok := machine.RuntimeStats().Metric(stats.ScheduledWallTimeName)
	require.True(t, ok)
	require.Equal(t, int64(1), metric.Count)
}

func TestTerminalTransitionFirstWriterWins(t *testing.T) {
	machine, _ := createTestMachine(t)

	require.True(t, machine.TransitionToFinished())
	require.False(t, machine.TransitionToFinished())
	require.False(t, machine.TransitionToCanceled())
	require.False(t, machine.TransitionToAborted())
	require.Equal(t, StageFinished, machine.GetState())
}

func TestFailedAfterCanceledIsDiscarded(t *testing.T) {
	machine, _ := createTestMachine(t)

	require.True(t, machine.TransitionToCanceled())
	require.False(t, machine.TransitionToFailed(errors.New("late failure")))
	require.Equal(t, StageCanceled, machine.GetState())
	require.Nil(t, machine.FailureCause())
}

func TestFailureCauseStoredOnce(t *testing.T) {
	machine, _ := createTestMachine(t)

	require.True(t, machine.TransitionToFailed(errors.New("first")))
	require.False(t, machine.TransitionToFailed(errors.New("second")))

	cause := machine.FailureCause()
	require.NotNil(t, cause)
	require.Equal(t, "first", cause.Message)
	require.NotEmpty(t, cause.Stack)
}

func TestConcurrentTransitionToRunning(t *testing.T) {
	machine, _ := createTestMachine(t)

	const goroutines = 32
	var wins int32
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			if machine.TransitionToRunning() {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, int32(1), wins)
	require.Equal(t, StageRunning, machine.GetState())
}

func TestConcurrentTerminalTransitions(t *testing.T) {
	machine, _ := createTestMachine(t)

	const goroutines = 16
	var wins int32
	var wg sync.WaitGroup
	wg.Add(goroutines * 2)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			if machine.TransitionToFinished() {
				atomic.AddInt32(&wins, 1)
			}
		}()
		go func() {
			defer wg.Done()
			if machine.TransitionToCanceled() {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, int32(1), wins)
	require.True(t, machine.GetState().IsDone())
}

func TestStateChangeListenerNotifiedAsynchronously(t *testing.T) {
	machine, executor := createTestMachine(t)

	states := make(chan StageExecutionState, 8)
	machine.AddStateChangeListener(func(newState StageExecutionState) {
		states <- newState
	})

	require.True(t, machine.TransitionToRunning())
	require.True(t, machine.TransitionToFinished())
	executor.Shutdown()
	close(states)

	var seen []StageExecutionState
	for state := range states {
		seen = append(seen, state)
	}
	// order across transitions is not guaranteed
	require.ElementsMatch(t, []StageExecutionState{StageRunning, StageFinished}, seen)
}

func TestMemoryCounters(t *testing.T) {
	machine, _ := createTestMachine(t)

	machine.UpdateMemoryUsage(100, 150)
	machine.UpdateMemoryUsage(50, 75)
	require.Equal(t, int64(150), machine.CurrentUserMemory())
	require.Equal(t, int64(225), machine.CurrentTotalMemory())
	require.Equal(t, int64(150), machine.PeakUserMemory())

	machine.UpdateMemoryUsage(-120, -120)
	require.Equal(t, int64(30), machine.CurrentUserMemory())
	// peak is monotonic
	require.Equal(t, int64(150), machine.PeakUserMemory())
}

func TestRecordGetSplitTime(t *testing.T) {
	machine, _ := createTestMachine(t)

	machine.RecordGetSplitTime(time.Now().Add(-time.Millisecond))
	machine.RecordGetSplitTime(time.Now().Add(-2 * time.Millisecond))

	snapshot := machine.GetSplitDistribution()
	require.Equal(t, int64(2), snapshot.Count)
	require.True(t, snapshot.Min > 0)
}

func TestBasicStageStatsAggregation(t *testing.T) {
	machine, _ := createTestMachine(t)
	require.True(t, machine.TransitionToRunning())

	tasks := []TaskInfo{
		{TaskID: "0", State: TaskRunning, Stats: TaskStats{
			TotalDrivers: 10, CompletedDrivers: 5, RunningDrivers: 3, QueuedDrivers: 2,
			UserMemoryReservation: 100, FullyBlocked: true, BlockedReasons: []BlockedReason{"WAITING_FOR_MEMORY"},
		}},
		{TaskID: "1", State: TaskRunning, Stats: TaskStats{
			TotalDrivers: 10, CompletedDrivers: 10,
			UserMemoryReservation: 50, FullyBlocked: false,
		}},
		{TaskID: "2", State: TaskFinished, Stats: TaskStats{
			TotalDrivers: 4, CompletedDrivers: 4, FullyBlocked: true,
		}},
	}

	stats := machine.GetBasicStageStats(func() []TaskInfo { return tasks })
	require.True(t, stats.IsScheduled)
	require.Equal(t, 24, stats.TotalDrivers)
	require.Equal(t, 19, stats.CompletedDrivers)
	require.Equal(t, int64(150), stats.UserMemoryReservation)
	// the finished task's blocked flag does not count
	require.False(t, stats.FullyBlocked)
	require.True(t, stats.HasProgressPercentage)
	require.InDelta(t, 100.0*19.0/24.0, stats.ProgressPercentage, 0.001)
}

func TestFullyBlockedIsAndOverActiveTasks(t *testing.T) {
	machine, _ := createTestMachine(t)
	require.True(t, machine.TransitionToRunning())

	tasks := []TaskInfo{
		{TaskID: "0", State: TaskRunning, Stats: TaskStats{TotalDrivers: 1, FullyBlocked: true}},
		{TaskID: "1", State: TaskRunning, Stats: TaskStats{TotalDrivers: 1, FullyBlocked: true}},
		{TaskID: "2", State: TaskFinished, Stats: TaskStats{TotalDrivers: 1, FullyBlocked: false}},
	}
	stats := machine.GetBasicStageStats(func() []TaskInfo { return tasks })
	require.True(t, stats.FullyBlocked)
}

func TestProgressPercentageCappedAt100(t *testing.T) {
	machine, _ := createTestMachine(t)
	require.True(t, machine.TransitionToRunning())

	tasks := []TaskInfo{
		{TaskID: "0", State: TaskRunning, Stats: TaskStats{TotalDrivers: 4, CompletedDrivers: 6}},
	}
	stats := machine.GetBasicStageStats(func() []TaskInfo { return tasks })
	require.Equal(t, 100.0, stats.ProgressPercentage)
}

func TestProgressPercentageUnknownBeforeScheduled(t *testing.T) {
	machine, _ := createTestMachine(t)

	tasks := []TaskInfo{
		{TaskID: "0", State: TaskPlanned, Stats: TaskStats{TotalDrivers: 4}},
	}
	stats := machine.GetBasicStageStats(func() []TaskInfo { return tasks })
	require.False(t, stats.IsScheduled)
	require.False(t, stats.HasProgressPercentage)
}

func TestSetAllTasksFinal(t *testing.T) {
	machine, _ := createTestMachine(t)

	tasks := []TaskInfo{
		{TaskID: "0", State: TaskFinished, Stats: TaskStats{TotalDrivers: 2, CompletedDrivers: 2}},
	}

	// not terminal yet
	require.False(t, machine.SetAllTasksFinal(tasks))

	require.True(t, machine.TransitionToFinished())
	require.True(t, machine.SetAllTasksFinal(tasks))
	require.False(t, machine.SetAllTasksFinal(tasks))

	// the final snapshot is returned verbatim; the supplier is not queried
	info := machine.GetStageExecutionInfo(func() []TaskInfo {
		t.Fatal("supplier queried after final snapshot")
		return nil
	})
	require.True(t, info.IsFinal())
	require.Equal(t, StageFinished, info.State)
	require.Len(t, info.Tasks, 1)

	stats := machine.GetBasicStageStats(func() []TaskInfo {
		t.Fatal("supplier queried after final snapshot")
		return nil
	})
	require.Equal(t, 2, stats.TotalDrivers)
}

func TestFinalInfoListenerFiresExactlyOnce(t *testing.T) {
	machine, executor := createTestMachine(t)

	var fired int32
	machine.AddFinalStageInfoListener(func(info *StageExecutionInfo) {
		atomic.AddInt32(&fired, 1)
	})

	require.True(t, machine.TransitionToFinished())
	require.True(t, machine.SetAllTasksFinal(nil))
	machine.SetAllTasksFinal(nil)
	executor.Shutdown()

	require.Equal(t, int32(1), atomic.LoadInt32(&fired))
}

func TestFinalInfoListenerAddedAfterFinalFiresImmediately(t *testing.T) {
	machine, executor := createTestMachine(t)

	require.True(t, machine.TransitionToFinished())
	require.True(t, machine.SetAllTasksFinal(nil))

	fired := make(chan *StageExecutionInfo, 1)
	machine.AddFinalStageInfoListener(func(info *StageExecutionInfo) {
		fired <- info
	})
	executor.Shutdown()

	select {
	case info := <-fired:
		require.Equal(t, StageFinished, info.State)
	default:
		t.Fatal("listener did not fire")
	}
}

func TestFailedStageExecutionInfoCarriesCause(t *testing.T) {
	machine, _ := createTestMachine(t)

	require.True(t, machine.TransitionToFailed(errors.New("boom")))
	info := machine.GetStageExecutionInfo(func() []TaskInfo { return nil })
	require.Equal(t, StageFailed, info.State)
	require.NotNil(t, info.FailureCause)
	require.Equal(t, "boom", info.FailureCause.Message)
}
