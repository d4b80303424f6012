// Package execution tracks the lifecycle of distributed query stages:
// a concurrent finite-state machine per stage execution, aggregate
// statistics over the stage's tasks, and snapshots of final stage state.
package execution

// StageExecutionState is the lifecycle state of one stage execution
type StageExecutionState int

const (
	// StagePlanned is the initial state of a stage execution
	StagePlanned StageExecutionState = iota
	// StageScheduling means tasks are being scheduled on nodes
	StageScheduling
	// StageFinishedTaskScheduling means all tasks have been scheduled but
	// splits are still outstanding
	StageFinishedTaskScheduling
	// StageSchedulingSplits means splits are being scheduled onto tasks
	StageSchedulingSplits
	// StageScheduled means all tasks and splits have been scheduled
	StageScheduled
	// StageRunning means at least one task is running
	StageRunning
	// StageFinished means the execution completed successfully
	StageFinished
	// StageCanceled means the execution was canceled by a user
	StageCanceled
	// StageAborted means the execution was aborted because the query
	// ended in another way
	StageAborted
	// StageFailed means the execution failed
	StageFailed
)

// IsDone returns true iff the state is terminal: no further transition is
// permitted from it
func (s StageExecutionState) IsDone() bool {
	switch s {
	case StageFinished, StageCanceled, StageAborted, StageFailed:
		return true
	}
	return false
}

func (s StageExecutionState) String() string {
	switch s {
	case StagePlanned:
		return "PLANNED"
	case StageScheduling:
		return "SCHEDULING"
	case StageFinishedTaskScheduling:
		return "FINISHED_TASK_SCHEDULING"
	case StageSchedulingSplits:
		return "SCHEDULING_SPLITS"
	case StageScheduled:
		return "SCHEDULED"
	case StageRunning:
		return "RUNNING"
	case StageFinished:
		return "FINISHED"
	case StageCanceled:
		return "CANCELED"
	case StageAborted:
		return "ABORTED"
	case StageFailed:
		return "FAILED"
	}
	return "UNKNOWN"
}
