package execution

import (
	"time"
)

// BasicStageExecutionStats aggregates the headline statistics of a stage
// execution across its tasks
type BasicStageExecutionStats struct {
	IsScheduled bool `json:"isScheduled"`

	TotalDrivers     int `json:"totalDrivers"`
	QueuedDrivers    int `json:"queuedDrivers"`
	RunningDrivers   int `json:"runningDrivers"`
	CompletedDrivers int `json:"completedDrivers"`

	RawInputDataSize int64 `json:"rawInputDataSize"`
	RawInputRows     int64 `json:"rawInputRows"`

	CumulativeUserMemory   float64 `json:"cumulativeUserMemory"`
	UserMemoryReservation  int64   `json:"userMemoryReservation"`
	TotalMemoryReservation int64   `json:"totalMemoryReservation"`

	TotalCPUTime  time.Duration `json:"totalCpuTimeNanos"`
	TotalWallTime time.Duration `json:"totalWallTimeNanos"`

	FullyBlocked   bool            `json:"fullyBlocked"`
	BlockedReasons []BlockedReason `json:"blockedReasons,omitempty"`

	// ProgressPercentage is meaningful only when HasProgressPercentage is
	// true: progress is unknowable until scheduling has completed and at
	// least one driver exists
	ProgressPercentage    float64 `json:"progressPercentage"`
	HasProgressPercentage bool    `json:"hasProgressPercentage"`
}

// aggregateBasicStageStats folds per-task snapshots into stage-level
// stats. Fully-blocked is the AND over non-terminal tasks only: a
// finished task no longer blocks anything.
func aggregateBasicStageStats(isScheduled bool, taskInfos []TaskInfo) BasicStageExecutionStats {
	stats := BasicStageExecutionStats{
		IsScheduled:  isScheduled,
		FullyBlocked: true,
	}
	sawActiveTask := false
	for _, task := range taskInfos {
		taskStats := task.Stats
		stats.TotalDrivers += taskStats.TotalDrivers
		stats.QueuedDrivers += taskStats.QueuedDrivers
		stats.RunningDrivers += taskStats.RunningDrivers
		stats.CompletedDrivers += taskStats.CompletedDrivers
		stats.RawInputDataSize += taskStats.RawInputDataSize
		stats.RawInputRows += taskStats.RawInputRows
		stats.CumulativeUserMemory += taskStats.CumulativeUserMemory
		stats.UserMemoryReservation += taskStats.UserMemoryReservation
		stats.TotalMemoryReservation += taskStats.TotalMemoryReservation
		stats.TotalCPUTime += time.Duration(taskStats.TotalCPUTimeNanos)
		stats.TotalWallTime += time.Duration(taskStats.TotalWallTimeNanos)
		if !task.State.IsDone() {
			sawActiveTask = true
			stats.FullyBlocked = stats.FullyBlocked && taskStats.FullyBlocked
			stats.BlockedReasons = append(stats.BlockedReasons, taskStats.BlockedReasons...)
		}
	}
	if !sawActiveTask {
		stats.FullyBlocked = false
		stats.BlockedReasons = nil
	}
	if isScheduled && stats.TotalDrivers > 0 {
		progress := 100.0 * float64(stats.CompletedDrivers) / float64(stats.TotalDrivers)
		if progress > 100 {
			progress = 100
		}
		stats.ProgressPercentage = progress
		stats.HasProgressPercentage = true
	}
	return stats
}

// StageExecutionInfo is a full snapshot of one stage execution: its
// state, aggregate stats, per-task snapshots, and failure cause if any
type StageExecutionInfo struct {
	StageExecutionID string                   `json:"stageExecutionId"`
	State            StageExecutionState      `json:"state"`
	Stats            BasicStageExecutionStats `json:"stats"`
	Tasks            []TaskInfo               `json:"tasks"`
	FailureCause     *FailureInfo             `json:"failureCause,omitempty"`
}

// IsFinal returns true iff this snapshot can never change: the stage is
// terminal and so is every task
func (i *StageExecutionInfo) IsFinal() bool {
	if !i.State.IsDone() {
		return false
	}
	for _, task := range i.Tasks {
		if !task.State.IsDone() {
			return false
		}
	}
	return true
}
