package execution

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-quarry/quarry/logging"
	"github.com/go-quarry/quarry/stats"
)

// A StageExecutionStateMachine tracks one stage execution through its
// lifecycle. Transition methods return false, not an error, when the
// requested transition loses a race or arrives after a terminal state.
// Safe for concurrent use by any number of goroutines.
type StageExecutionStateMachine struct {
	stageExecutionID string
	stateMachine     *StateMachine[StageExecutionState]
	logger           *logging.Logger
	executor         *Executor
	createdAt        time.Time

	// failure cause, first writer wins
	failureMu    sync.Mutex
	failureCause *FailureInfo

	// unix nanos of the moment scheduling completed, captured once
	schedulingComplete int64

	currentUserMemory  int64
	currentTotalMemory int64
	peakUserMemory     int64

	getSplitDistribution *stats.Distribution
	runtimeStats         *stats.RuntimeStats

	finalInfoMu        sync.Mutex
	finalInfo          *StageExecutionInfo
	finalInfoListeners []func(*StageExecutionInfo)
}

// CreateStageExecutionStateMachine is a factory for
// StageExecutionStateMachines, starting in the planned state
func CreateStageExecutionStateMachine(stageExecutionID string, executor *Executor, logger *logging.Logger) *StageExecutionStateMachine {
	m := &StageExecutionStateMachine{
		stageExecutionID:     stageExecutionID,
		executor:             executor,
		logger:               logger,
		createdAt:            time.Now(),
		getSplitDistribution: stats.CreateDistribution(),
		runtimeStats:         stats.CreateRuntimeStats(),
	}
	m.stateMachine = CreateStateMachine(StagePlanned, executor, StageExecutionState.IsDone)
	m.stateMachine.AddStateChangeListener(func(newState StageExecutionState) {
		logger.Debugf("stage execution %s is %s", stageExecutionID, newState)
	})
	return m
}

// StageExecutionID returns the identifier of this stage execution
func (m *StageExecutionStateMachine) StageExecutionID() string {
	return m.stageExecutionID
}

// GetState returns the current state
func (m *StageExecutionStateMachine) GetState() StageExecutionState {
	return m.stateMachine.Get()
}

// AddStateChangeListener registers a listener notified asynchronously
// after each subsequent state transition
func (m *StageExecutionStateMachine) AddStateChangeListener(listener StateChangeListener[StageExecutionState]) {
	m.stateMachine.AddStateChangeListener(listener)
}

// TransitionToScheduling moves PLANNED to SCHEDULING
func (m *StageExecutionStateMachine) TransitionToScheduling() bool {
	return m.stateMachine.CompareAndSet(StagePlanned, StageScheduling)
}

// TransitionToFinishedTaskScheduling moves SCHEDULING to
// FINISHED_TASK_SCHEDULING
func (m *StageExecutionStateMachine) TransitionToFinishedTaskScheduling() bool {
	return m.stateMachine.CompareAndSet(StageScheduling, StageFinishedTaskScheduling)
}

// TransitionToSchedulingSplits moves any earlier scheduling state to
// SCHEDULING_SPLITS
func (m *StageExecutionStateMachine) TransitionToSchedulingSplits() bool {
	return m.stateMachine.SetIf(StageSchedulingSplits, func(currentState StageExecutionState) bool {
		switch currentState {
		case StagePlanned, StageScheduling, StageFinishedTaskScheduling:
			return true
		}
		return false
	})
}

// TransitionToScheduled moves any earlier scheduling state to SCHEDULED,
// capturing the scheduling-completion time on the first successful call
func (m *StageExecutionStateMachine) TransitionToScheduled() bool {
	now := time.Now()
	if atomic.CompareAndSwapInt64(&m.schedulingComplete, 0, now.UnixNano()) {
		m.runtimeStats.AddMetricValue(stats.ScheduledWallTimeName, now.Sub(m.createdAt).Nanoseconds())
	}
	return m.stateMachine.SetIf(StageScheduled, func(currentState StageExecutionState) bool {
		switch currentState {
		case StagePlanned, StageScheduling, StageFinishedTaskScheduling, StageSchedulingSplits:
			return true
		}
		return false
	})
}

// TransitionToRunning moves any non-terminal state to RUNNING
func (m *StageExecutionStateMachine) TransitionToRunning() bool {
	return m.stateMachine.SetIf(StageRunning, func(currentState StageExecutionState) bool {
		return currentState != StageRunning && !currentState.IsDone()
	})
}

// TransitionToFinished moves any non-terminal state to FINISHED
func (m *StageExecutionStateMachine) TransitionToFinished() bool {
	return m.stateMachine.SetIf(StageFinished, func(currentState StageExecutionState) bool {
		return !currentState.IsDone()
	})
}

// TransitionToCanceled moves any non-terminal state to CANCELED
func (m *StageExecutionStateMachine) TransitionToCanceled() bool {
	return m.stateMachine.SetIf(StageCanceled, func(currentState StageExecutionState) bool {
		return !currentState.IsDone()
	})
}

// TransitionToAborted moves any non-terminal state to ABORTED
func (m *StageExecutionStateMachine) TransitionToAborted() bool {
	return m.stateMachine.SetIf(StageAborted, func(currentState StageExecutionState) bool {
		return !currentState.IsDone()
	})
}

// TransitionToFailed moves any non-terminal state to FAILED, storing the
// cause if none is stored yet. A failure arriving after a terminal state
// is logged at debug level and discarded.
func (m *StageExecutionStateMachine) TransitionToFailed(err error) bool {
	failureInfo := CreateFailureInfo(err)

	// the cause is stored only by the winning transition: a failure
	// arriving after another terminal state is discarded
	m.failureMu.Lock()
	failed := m.stateMachine.SetIf(StageFailed, func(currentState StageExecutionState) bool {
		return !currentState.IsDone()
	})
	if failed && m.failureCause == nil {
		m.failureCause = failureInfo
	}
	m.failureMu.Unlock()
	if failed {
		m.logger.Errorf("stage execution %s failed: %v", m.stageExecutionID, err)
	} else {
		m.logger.Debugf("failure after stage execution %s finished: %v", m.stageExecutionID, err)
	}
	return failed
}

// FailureCause returns the stored failure cause, or nil if the execution
// has not failed
func (m *StageExecutionStateMachine) FailureCause() *FailureInfo {
	m.failureMu.Lock()
	defer m.failureMu.Unlock()
	return m.failureCause
}

// SchedulingCompleteTime returns the moment scheduling completed and
// whether it has completed at all
func (m *StageExecutionStateMachine) SchedulingCompleteTime() (time.Time, bool) {
	nanos := atomic.LoadInt64(&m.schedulingComplete)
	if nanos == 0 {
		return time.Time{}, false
	}
	return time.Unix(0, nanos), true
}

// UpdateMemoryUsage applies task memory deltas to the stage counters.
// User and total counters are independent atomics: a reader may observe
// them from different instants.
func (m *StageExecutionStateMachine) UpdateMemoryUsage(deltaUserMemory, deltaTotalMemory int64) {
	atomic.AddInt64(&m.currentTotalMemory, deltaTotalMemory)
	currentUser := atomic.AddInt64(&m.currentUserMemory, deltaUserMemory)
	for {
		peak := atomic.LoadInt64(&m.peakUserMemory)
		if currentUser <= peak || atomic.CompareAndSwapInt64(&m.peakUserMemory, peak, currentUser) {
			break
		}
	}
}

// CurrentUserMemory returns the current user memory reservation
func (m *StageExecutionStateMachine) CurrentUserMemory() int64 {
	return atomic.LoadInt64(&m.currentUserMemory)
}

// CurrentTotalMemory returns the current total memory reservation
func (m *StageExecutionStateMachine) CurrentTotalMemory() int64 {
	return atomic.LoadInt64(&m.currentTotalMemory)
}

// PeakUserMemory returns the peak user memory reservation
func (m *StageExecutionStateMachine) PeakUserMemory() int64 {
	return atomic.LoadInt64(&m.peakUserMemory)
}

// RecordGetSplitTime records the latency of one get-split call
func (m *StageExecutionStateMachine) RecordGetSplitTime(start time.Time) {
	elapsed := time.Since(start)
	m.getSplitDistribution.AddDuration(elapsed)
	m.runtimeStats.AddMetricValue(stats.GetSplitDistributionName, elapsed.Nanoseconds())
}

// GetSplitDistribution returns a snapshot of per-split scheduling
// latencies
func (m *StageExecutionStateMachine) GetSplitDistribution() stats.DistributionSnapshot {
	return m.getSplitDistribution.Snapshot()
}

// RuntimeStats returns the named metric accumulators of this execution
func (m *StageExecutionStateMachine) RuntimeStats() *stats.RuntimeStats {
	return m.runtimeStats
}

// GetBasicStageStats aggregates headline statistics across the stage's
// tasks. If a final snapshot exists its stats are returned verbatim.
func (m *StageExecutionStateMachine) GetBasicStageStats(supplier TaskInfoSupplier) BasicStageExecutionStats {
	if final := m.getFinalInfo(); final != nil {
		return final.Stats
	}
	// capture the state before fetching tasks: a stage that finishes in
	// between must not present a terminal state with missing task data
	state := m.stateMachine.Get()
	isScheduled := state == StageRunning || state.IsDone()
	return aggregateBasicStageStats(isScheduled, supplier())
}

// GetStageExecutionInfo builds a full snapshot of the stage execution. If
// a final snapshot exists it is returned verbatim.
func (m *StageExecutionStateMachine) GetStageExecutionInfo(supplier TaskInfoSupplier) *StageExecutionInfo {
	if final := m.getFinalInfo(); final != nil {
		return final
	}
	state := m.stateMachine.Get()
	isScheduled := state == StageRunning || state.IsDone()
	taskInfos := supplier()
	info := &StageExecutionInfo{
		StageExecutionID: m.stageExecutionID,
		State:            state,
		Stats:            aggregateBasicStageStats(isScheduled, taskInfos),
		Tasks:            taskInfos,
	}
	if state == StageFailed {
		info.FailureCause = m.FailureCause()
	}
	return info
}

// SetAllTasksFinal computes and caches the final stage info snapshot,
// assuming the stage has reached a terminal state and every task snapshot
// is terminal. The snapshot is set at most once; later calls return
// false. Final-info listeners fire on the first successful call.
func (m *StageExecutionStateMachine) SetAllTasksFinal(taskInfos []TaskInfo) bool {
	state := m.stateMachine.Get()
	if !state.IsDone() {
		return false
	}
	info := &StageExecutionInfo{
		StageExecutionID: m.stageExecutionID,
		State:            state,
		Stats:            aggregateBasicStageStats(true, taskInfos),
		Tasks:            taskInfos,
	}
	if state == StageFailed {
		info.FailureCause = m.FailureCause()
	}

	m.finalInfoMu.Lock()
	if m.finalInfo != nil {
		m.finalInfoMu.Unlock()
		return false
	}
	m.finalInfo = info
	listeners := make([]func(*StageExecutionInfo), len(m.finalInfoListeners))
	copy(listeners, m.finalInfoListeners)
	m.finalInfoListeners = nil
	m.finalInfoMu.Unlock()

	for _, listener := range listeners {
		listener := listener
		m.executor.Execute(func() { listener(info) })
	}
	return true
}

// AddFinalStageInfoListener registers a listener fired exactly once with
// the final stage info snapshot. If the snapshot already exists, the
// listener fires immediately, still asynchronously.
func (m *StageExecutionStateMachine) AddFinalStageInfoListener(listener func(*StageExecutionInfo)) {
	m.finalInfoMu.Lock()
	if m.finalInfo == nil {
		m.finalInfoListeners = append(m.finalInfoListeners, listener)
		m.finalInfoMu.Unlock()
		return
	}
	info := m.finalInfo
	m.finalInfoMu.Unlock()
	m.executor.Execute(func() { listener(info) })
}

func (m *StageExecutionStateMachine) getFinalInfo() *StageExecutionInfo {
	m.finalInfoMu.Lock()
	defer m.finalInfoMu.Unlock()
	return m.finalInfo
}
