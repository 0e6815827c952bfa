package state

import (
	"errors"
	"fmt"
	"sync"
)

// ErrTransitionNotAllowed is returned when a state transition is not allowed.
var ErrTransitionNotAllowed = errors.New("state transition not allowed")

// State identifies a node of the machine.
type State string

// Hook runs when a state is entered or left.
type Hook func(from, to State)

type StateMachine interface {
	ChangeState(to State) error
	GetCurrentState() State
	AddTransition(from, to State, condition func() bool)
	Can(to State) bool
}

// BaseStateMachine only allows transitions that were registered with
// AddTransition. A registered transition may carry a guard condition.
type BaseStateMachine struct {
	currentState State
	transitions  map[State]map[State]func() bool // from -> to -> condition
	onEnter      map[State]Hook
	onExit       map[State]Hook
	mutex        sync.RWMutex
}

func NewBaseStateMachine(initialState State) *BaseStateMachine {
	return &BaseStateMachine{
		currentState: initialState,
		transitions:  make(map[State]map[State]func() bool),
		onEnter:      make(map[State]Hook),
		onExit:       make(map[State]Hook),
	}
}

func (sm *BaseStateMachine) AddTransition(from, to State, condition func() bool) {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	if _, exists := sm.transitions[from]; !exists {
		sm.transitions[from] = make(map[State]func() bool)
	}
	sm.transitions[from][to] = condition
}

func (sm *BaseStateMachine) OnEnter(s State, hook Hook) {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()
	sm.onEnter[s] = hook
}

func (sm *BaseStateMachine) OnExit(s State, hook Hook) {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()
	sm.onExit[s] = hook
}

func (sm *BaseStateMachine) allowed(to State) bool {
	conditions, exists := sm.transitions[sm.currentState]
	if !exists {
		return false
	}
	condition, exists := conditions[to]
	if !exists {
		return false
	}
	return condition == nil || condition()
}

// Can reports whether ChangeState(to) would currently succeed.
func (sm *BaseStateMachine) Can(to State) bool {
	sm.mutex.RLock()
	defer sm.mutex.RUnlock()
	return sm.allowed(to)
}

// ChangeState moves to the target state and runs the exit hook of the old
// state followed by the enter hook of the new one. Hooks run with the machine
// unlocked so they may inspect it.
func (sm *BaseStateMachine) ChangeState(to State) error {
	sm.mutex.Lock()
	from := sm.currentState
	if !sm.allowed(to) {
		sm.mutex.Unlock()
		return fmt.Errorf("%w: %s -> %s", ErrTransitionNotAllowed, from, to)
	}
	sm.currentState = to
	exit, enter := sm.onExit[from], sm.onEnter[to]
	sm.mutex.Unlock()

	if exit != nil {
		exit(from, to)
	}
	if enter != nil {
		enter(from, to)
	}
	return nil
}

func (sm *BaseStateMachine) GetCurrentState() State {
	sm.mutex.RLock()
	defer sm.mutex.RUnlock()
	return sm.currentState
}
