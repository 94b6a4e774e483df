// Generalized finite state machine logic, used to track per-connection
// framing state (state.ConnectionFSM) rather than Diameter peer-state
// negotiation (CER/CEA, DWR/DWA, DPR/DPA), which is out of scope.
package state

import (
	"context"
	"fmt"
	"sync"
)

type State string
type Event string

type ActionFunc[T any] func(ctx context.Context, args *T) (*T, error)

type Action[T any] struct {
	Name string
	Fn   ActionFunc[T]
}

type Transition[T any] struct {
	From   State
	To     State
	Event  Event
	Action []Action[T]
}

// FSM is a small, generic state machine: a current state plus a table of
// (from, event) -> (to, actions) transitions. It is safe for concurrent use;
// GetState/SetState/Trigger all hold mu for the duration of the state read
// or mutation.
type FSM[T any] struct {
	mu           sync.Mutex
	states       []State
	currentState State
	transitions  []Transition[T]
}

func NewFSM[T any](initialState State) *FSM[T] {
	fsm := &FSM[T]{currentState: initialState}
	fsm.RegisterState(initialState)
	return fsm
}

func (f *FSM[T]) RegisterState(state State) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states = append(f.states, state)
}

func (f *FSM[T]) AddTransition(from, to State, event Event, actions []Action[T]) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transitions = append(f.transitions, Transition[T]{
		From:   from,
		To:     to,
		Event:  event,
		Action: actions,
	})
}

// Trigger looks up the transition registered for the current state and
// event, runs its actions in order, and — if none fail — advances the
// FSM's state. It returns an error without advancing the state if no
// transition matches or an action fails.
func (f *FSM[T]) Trigger(ctx context.Context, event Event, args *T) (*T, error) {
	f.mu.Lock()
	current := f.currentState
	var nextState State
	var handlers []Action[T]
	matched := false
	for _, transition := range f.transitions {
		if transition.From == current && transition.Event == event {
			nextState = transition.To
			handlers = transition.Action
			matched = true
			break
		}
	}
	f.mu.Unlock()

	if !matched {
		return args, fmt.Errorf("state: no transition for event %q in state %q", event, current)
	}

	for _, handler := range handlers {
		if handler.Fn == nil {
			continue
		}
		var err error
		if args, err = handler.Fn(ctx, args); err != nil {
			return args, err
		}
	}

	f.mu.Lock()
	f.currentState = nextState
	f.mu.Unlock()
	return args, nil
}

// GetState returns the current state.
func (f *FSM[T]) GetState() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.currentState
}

// SetState forcibly sets the current state, bypassing the transition table.
// Used to recover to a known state (e.g. Closed) outside normal event flow.
func (f *FSM[T]) SetState(s State) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.currentState = s
}
