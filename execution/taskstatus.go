package execution

import (
	"bufio"
	"io"

	"github.com/tidwall/gjson"

	"github.com/go-quarry/quarry/errors"
)

// ParseTaskInfo decodes one task snapshot from the JSON form reported by
// worker nodes. Fields are read lazily by gjson path; unknown fields are
// ignored.
func ParseTaskInfo(data string) (TaskInfo, error) {
	if !gjson.Valid(data) {
		return TaskInfo{}, errors.InvalidTaskStatusError{Reason: "malformed json"}
	}
	parsed := gjson.Parse(data)

	taskID := parsed.Get("taskId")
	if !taskID.Exists() {
		return TaskInfo{}, errors.InvalidTaskStatusError{Reason: "missing taskId"}
	}
	state, ok := ParseTaskState(parsed.Get("state").String())
	if !ok {
		return TaskInfo{}, errors.InvalidTaskStatusError{Reason: "unknown state " + parsed.Get("state").String()}
	}

	taskStats := parsed.Get("stats")
	info := TaskInfo{
		TaskID: taskID.String(),
		State:  state,
		Stats: TaskStats{
			TotalDrivers:           int(taskStats.Get("totalDrivers").Int()),
			QueuedDrivers:          int(taskStats.Get("queuedDrivers").Int()),
			RunningDrivers:         int(taskStats.Get("runningDrivers").Int()),
			CompletedDrivers:       int(taskStats.Get("completedDrivers").Int()),
			RawInputDataSize:       taskStats.Get("rawInputDataSize").Int(),
			RawInputRows:           taskStats.Get("rawInputRows").Int(),
			CumulativeUserMemory:   taskStats.Get("cumulativeUserMemory").Float(),
			UserMemoryReservation:  taskStats.Get("userMemoryReservation").Int(),
			TotalMemoryReservation: taskStats.Get("totalMemoryReservation").Int(),
			TotalCPUTimeNanos:      taskStats.Get("totalCpuTimeNanos").Int(),
			TotalWallTimeNanos:     taskStats.Get("totalWallTimeNanos").Int(),
			FullyBlocked:           taskStats.Get("fullyBlocked").Bool(),
		},
	}
	for _, reason := range taskStats.Get("blockedReasons").Array() {
		info.Stats.BlockedReasons = append(info.Stats.BlockedReasons, BlockedReason(reason.String()))
	}
	return info, nil
}

// ParseTaskInfoLines decodes a stream of newline-delimited task
// snapshots, one JSON document per line. Blank lines are skipped.
func ParseTaskInfoLines(r io.Reader) ([]TaskInfo, error) {
	var infos []TaskInfo
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if len(line) == 0 {
			continue
		}
		info, err := ParseTaskInfo(line)
		if err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return infos, nil
}
