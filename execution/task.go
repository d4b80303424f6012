package execution

// TaskState is the lifecycle state of one task within a stage execution
type TaskState int

const (
	// TaskPlanned is the initial state of a task
	TaskPlanned TaskState = iota
	// TaskRunning means the task is executing splits
	TaskRunning
	// TaskFinished means the task completed successfully
	TaskFinished
	// TaskCanceled means the task was canceled
	TaskCanceled
	// TaskAborted means the task was aborted
	TaskAborted
	// TaskFailed means the task failed
	TaskFailed
)

// IsDone returns true iff the task state is terminal
func (s TaskState) IsDone() bool {
	switch s {
	case TaskFinished, TaskCanceled, TaskAborted, TaskFailed:
		return true
	}
	return false
}

func (s TaskState) String() string {
	switch s {
	case TaskPlanned:
		return "PLANNED"
	case TaskRunning:
		return "RUNNING"
	case TaskFinished:
		return "FINISHED"
	case TaskCanceled:
		return "CANCELED"
	case TaskAborted:
		return "ABORTED"
	case TaskFailed:
		return "FAILED"
	}
	return "UNKNOWN"
}

// ParseTaskState resolves a task state from its string representation
func ParseTaskState(name string) (TaskState, bool) {
	switch name {
	case "PLANNED":
		return TaskPlanned, true
	case "RUNNING":
		return TaskRunning, true
	case "FINISHED":
		return TaskFinished, true
	case "CANCELED":
		return TaskCanceled, true
	case "ABORTED":
		return TaskAborted, true
	case "FAILED":
		return TaskFailed, true
	}
	return TaskPlanned, false
}

// A BlockedReason names why a task is not making progress
type BlockedReason string

// TaskStats is a point-in-time snapshot of one task's runtime statistics
type TaskStats struct {
	TotalDrivers     int   `json:"totalDrivers"`
	QueuedDrivers    int   `json:"queuedDrivers"`
	RunningDrivers   int   `json:"runningDrivers"`
	CompletedDrivers int   `json:"completedDrivers"`
	RawInputDataSize int64 `json:"rawInputDataSize"`
	RawInputRows     int64 `json:"rawInputRows"`

	CumulativeUserMemory   float64 `json:"cumulativeUserMemory"`
	UserMemoryReservation  int64   `json:"userMemoryReservation"`
	TotalMemoryReservation int64   `json:"totalMemoryReservation"`

	TotalCPUTimeNanos  int64 `json:"totalCpuTimeNanos"`
	TotalWallTimeNanos int64 `json:"totalWallTimeNanos"`

	FullyBlocked   bool            `json:"fullyBlocked"`
	BlockedReasons []BlockedReason `json:"blockedReasons,omitempty"`
}

// TaskInfo is a point-in-time snapshot of one task
type TaskInfo struct {
	TaskID string    `json:"taskId"`
	State  TaskState `json:"state"`
	Stats  TaskStats `json:"stats"`
}

// A TaskInfoSupplier produces live snapshots of the tasks of a stage
// execution. It is queried lazily, only while no final snapshot exists.
type TaskInfoSupplier func() []TaskInfo
