package execution

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/go-quarry/quarry/logging"
)

func TestInfoArchiveRoundTrip(t *testing.T) {
	archive, err := CreateInfoArchive(t.TempDir())
	require.Nil(t, err)

	info := &StageExecutionInfo{
		StageExecutionID: "stage-0.0",
		State:            StageFinished,
		Stats:            BasicStageExecutionStats{IsScheduled: true, TotalDrivers: 7, CompletedDrivers: 7},
		Tasks: []TaskInfo{
			{TaskID: "stage-0.0.0", State: TaskFinished, Stats: TaskStats{TotalDrivers: 7, CompletedDrivers: 7}},
		},
	}

	path, err := archive.Archive(info)
	require.Nil(t, err)
	require.True(t, strings.HasSuffix(path, ".json.lz4"))
	require.Contains(t, path, "stage-0.0-")

	loaded, err := archive.Load(path)
	require.Nil(t, err)
	require.Equal(t, info, loaded)
}

func TestInfoArchiveDistinctFilesPerSnapshot(t *testing.T) {
	archive, err := CreateInfoArchive(t.TempDir())
	require.Nil(t, err)

	info := &StageExecutionInfo{StageExecutionID: "stage-1.0", State: StageCanceled}
	first, err := archive.Archive(info)
	require.Nil(t, err)
	second, err := archive.Archive(info)
	require.Nil(t, err)
	require.NotEqual(t, first, second)
}

func TestArchiveFinalInfoThroughListener(t *testing.T) {
	executor := CreateExecutor(2)
	defer executor.Shutdown()

	dir := t.TempDir()
	archive, err := CreateInfoArchive(dir)
	require.Nil(t, err)

	machine := createArchivingMachine(t, executor, archive)
	require.True(t, machine.TransitionToFinished())
	require.True(t, machine.SetAllTasksFinal(nil))
	executor.Shutdown()

	entries, err := os.ReadDir(dir)
	require.Nil(t, err)
	require.Len(t, entries, 1)
}

func createArchivingMachine(t *testing.T, executor *Executor, archive *InfoArchive) *StageExecutionStateMachine {
	machine := CreateStageExecutionStateMachine("stage-2.0", executor, logging.CreateLogger(logging.FatalLevel))
	machine.AddFinalStageInfoListener(func(info *StageExecutionInfo) {
		if _, err := archive.Archive(info); err != nil {
			t.Errorf("archiving final stage info: %v", err)
		}
	})
	return machine
}
