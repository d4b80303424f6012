package execution

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/go-quarry/quarry/errors"
)

const taskInfoJSON = `{
	"taskId": "stage-0.0.1",
	"state": "RUNNING",
	"stats": {
		"totalDrivers": 8,
		"queuedDrivers": 2,
		"runningDrivers": 3,
		"completedDrivers": 3,
		"rawInputDataSize": 4096,
		"rawInputRows": 100,
		"cumulativeUserMemory": 1.5,
		"userMemoryReservation": 2048,
		"totalMemoryReservation": 3072,
		"totalCpuTimeNanos": 5000000,
		"totalWallTimeNanos": 9000000,
		"fullyBlocked": true,
		"blockedReasons": ["WAITING_FOR_MEMORY"]
	}
}`

func TestParseTaskInfo(t *testing.T) {
	info, err := ParseTaskInfo(taskInfoJSON)
	require.Nil(t, err)
	require.Equal(t, "stage-0.0.1", info.TaskID)
	require.Equal(t, TaskRunning, info.State)
	require.Equal(t, 8, info.Stats.TotalDrivers)
	require.Equal(t, 3, info.Stats.CompletedDrivers)
	require.Equal(t, int64(4096), info.Stats.RawInputDataSize)
	require.Equal(t, 1.5, info.Stats.CumulativeUserMemory)
	require.True(t, info.Stats.FullyBlocked)
	require.Equal(t, []BlockedReason{"WAITING_FOR_MEMORY"}, info.Stats.BlockedReasons)
}

func TestParseTaskInfoMalformed(t *testing.T) {
	_, err := ParseTaskInfo("{not json")
	require.NotNil(t, err)
	require.IsType(t, errors.InvalidTaskStatusError{}, err)
}

func TestParseTaskInfoMissingTaskID(t *testing.T) {
	_, err := ParseTaskInfo(`{"state": "RUNNING"}`)
	require.NotNil(t, err)
	require.IsType(t, errors.InvalidTaskStatusError{}, err)
}

func TestParseTaskInfoUnknownState(t *testing.T) {
	_, err := ParseTaskInfo(`{"taskId": "a", "state": "DANCING"}`)
	require.NotNil(t, err)
	require.IsType(t, errors.InvalidTaskStatusError{}, err)
}

func TestParseTaskInfoLines(t *testing.T) {
	lines := `{"taskId": "a", "state": "FINISHED", "stats": {"totalDrivers": 1}}

{"taskId": "b", "state": "RUNNING", "stats": {"totalDrivers": 2}}
`
	infos, err := ParseTaskInfoLines(strings.NewReader(lines))
	require.Nil(t, err)
	require.Len(t, infos, 2)
	require.Equal(t, "a", infos[0].TaskID)
	require.Equal(t, TaskFinished, infos[0].State)
	require.Equal(t, 2, infos[1].Stats.TotalDrivers)
}
