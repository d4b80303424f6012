package execution

import (
	"sync"
)

// A StateChangeListener is notified with the new state after each
// successful transition
type StateChangeListener[T any] func(newState T)

// A StateMachine holds a single state value updated through atomic
// conditional transitions. Terminal states are frozen: once entered, all
// further transition attempts are rejected. Listeners are notified
// asynchronously via the machine's Executor, never on the transitioning
// goroutine and never under the machine's lock.
type StateMachine[T comparable] struct {
	mu         sync.Mutex
	state      T
	isTerminal func(T) bool
	listeners  []StateChangeListener[T]
	executor   *Executor
}

// CreateStateMachine is a factory for StateMachines. isTerminal may be
// nil, meaning no state is terminal.
func CreateStateMachine[T comparable](initialState T, executor *Executor, isTerminal func(T) bool) *StateMachine[T] {
	if isTerminal == nil {
		isTerminal = func(T) bool { return false }
	}
	return &StateMachine[T]{
		state:      initialState,
		isTerminal: isTerminal,
		executor:   executor,
	}
}

// Get returns the current state
func (m *StateMachine[T]) Get() T {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Set unconditionally transitions to newState unless the current state is
// terminal. It returns the state before the call.
func (m *StateMachine[T]) Set(newState T) T {
	old, _ := m.transition(newState, nil)
	return old
}

// CompareAndSet transitions to newState iff the current state equals
// expected. It returns true iff the transition occurred.
func (m *StateMachine[T]) CompareAndSet(expected, newState T) bool {
	_, ok := m.transition(newState, func(current T) bool { return current == expected })
	return ok
}

// SetIf transitions to newState iff the predicate holds for the current
// state. It returns true iff the transition occurred. The predicate is
// evaluated under the machine's lock and must not block.
func (m *StateMachine[T]) SetIf(newState T, predicate func(currentState T) bool) bool {
	_, ok := m.transition(newState, predicate)
	return ok
}

func (m *StateMachine[T]) transition(newState T, predicate func(T) bool) (T, bool) {
	m.mu.Lock()
	old := m.state
	if m.isTerminal(old) || old == newState || (predicate != nil && !predicate(old)) {
		m.mu.Unlock()
		return old, false
	}
	m.state = newState
	listeners := make([]StateChangeListener[T], len(m.listeners))
	copy(listeners, m.listeners)
	m.mu.Unlock()

	for _, listener := range listeners {
		listener := listener
		m.executor.Execute(func() { listener(newState) })
	}
	return old, true
}

// AddStateChangeListener registers a listener notified after each
// subsequent successful transition. Delivery order across transitions and
// listeners is not guaranteed; consumers must treat the machine's current
// state, not event order, as ground truth.
func (m *StateMachine[T]) AddStateChangeListener(listener StateChangeListener[T]) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, listener)
}
