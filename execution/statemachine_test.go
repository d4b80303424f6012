package execution

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func createTestStateMachine(t *testing.T) (*StateMachine[StageExecutionState], *Executor) {
	executor := CreateExecutor(2)
	t.Cleanup(executor.Shutdown)
	return CreateStateMachine(StagePlanned, executor, StageExecutionState.IsDone), executor
}

func TestStateMachineCompareAndSet(t *testing.T) {
	machine, _ := createTestStateMachine(t)

	require.True(t, machine.CompareAndSet(StagePlanned, StageScheduling))
	require.False(t, machine.CompareAndSet(StagePlanned, StageScheduling))
	require.Equal(t, StageScheduling, machine.Get())
}

func TestStateMachineSetIf(t *testing.T) {
	machine, _ := createTestStateMachine(t)

	ok := machine.SetIf(StageRunning, func(currentState StageExecutionState) bool {
		return currentState == StageScheduled
	})
	require.False(t, ok)
	require.Equal(t, StagePlanned, machine.Get())

	ok = machine.SetIf(StageRunning, func(currentState StageExecutionState) bool {
		return !currentState.IsDone()
	})
	require.True(t, ok)
	require.Equal(t, StageRunning, machine.Get())
}

func TestStateMachineTerminalStatesFreeze(t *testing.T) {
	machine, _ := createTestStateMachine(t)

	machine.Set(StageFailed)
	require.Equal(t, StageFailed, machine.Get())

	machine.Set(StageRunning)
	require.False(t, machine.CompareAndSet(StageFailed, StageRunning))
	require.Equal(t, StageFailed, machine.Get())
}

func TestStateMachineListenersSeeEveryTransition(t *testing.T) {
	machine, executor := createTestStateMachine(t)

	var mu sync.Mutex
	var seen []StageExecutionState
	machine.AddStateChangeListener(func(newState StageExecutionState) {
		mu.Lock()
		seen = append(seen, newState)
		mu.Unlock()
	})

	machine.Set(StageScheduling)
	machine.Set(StageRunning)
	machine.Set(StageFinished)
	executor.Shutdown()

	mu.Lock()
	defer mu.Unlock()
	require.ElementsMatch(t, []StageExecutionState{StageScheduling, StageRunning, StageFinished}, seen)
}

func TestExecutorRunsAllSubmissions(t *testing.T) {
	executor := CreateExecutor(2)

	var mu sync.Mutex
	count := 0
	for i := 0; i < 20; i++ {
		executor.Execute(func() {
			mu.Lock()
			count++
			mu.Unlock()
		})
	}
	executor.Shutdown()

	require.Equal(t, 20, count)
}
