package statemachine

import (
	"context"
	"fmt"
)

// State names a node of the machine.
type State string

// Event names a trigger.
type Event string

// Guard decides whether a transition may be taken.
type Guard func(ctx context.Context, from State, event Event, data any) bool

// Action runs while a transition is taken. An error aborts the transition.
type Action func(ctx context.Context, from, to State, event Event, data any) error

// Transition is one edge of the table.
type Transition struct {
	From    State
	To      State
	Event   Event
	Guards  []Guard
	Actions []Action
}

func (t Transition) allowed(ctx context.Context, event Event, data any) bool {
	for _, g := range t.Guards {
		if !g(ctx, t.From, event, data) {
			return false
		}
	}
	return true
}

// Table is an immutable transition table keyed by [from][event].
type Table struct {
	transitions map[State]map[Event][]Transition
}

// New builds a Table from options.
func New(opts ...Option) (*Table, error) {
	t := &Table{transitions: make(map[State]map[Event][]Transition)}
	for _, opt := range opts {
		if err := opt(t); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// MustNew is New that panics on error.
func MustNew(opts ...Option) *Table {
	t, err := New(opts...)
	if err != nil {
		panic(fmt.Sprintf("statemachine: %v", err))
	}
	return t
}

func (t *Table) add(tr Transition) error {
	if tr.From == "" || tr.To == "" || tr.Event == "" {
		return ErrInvalidTransition
	}
	if _, ok := t.transitions[tr.From]; !ok {
		t.transitions[tr.From] = make(map[Event][]Transition)
	}
	t.transitions[tr.From][tr.Event] = append(t.transitions[tr.From][tr.Event], tr)
	return nil
}

// Fire evaluates event in state from and returns the state reached.
// On error the returned state is from.
func (t *Table) Fire(ctx context.Context, from State, event Event, data any) (State, error) {
	candidates := t.transitions[from][event]
	if len(candidates) == 0 {
		return from, &NoTransitionError{State: from, Event: event}
	}

	for _, tr := range candidates {
		if !tr.allowed(ctx, event, data) {
			continue
		}
		for _, action := range tr.Actions {
			if err := action(ctx, from, tr.To, event, data); err != nil {
				return from, fmt.Errorf("statemachine: %s -> %s on %s: %w", from, tr.To, event, err)
			}
		}
		return tr.To, nil
	}

	return from, &RejectedError{State: from, Event: event}
}

// CanFire reports whether some transition for event would pass its guards.
func (t *Table) CanFire(ctx context.Context, from State, event Event, data any) bool {
	for _, tr := range t.transitions[from][event] {
		if tr.allowed(ctx, event, data) {
			return true
		}
	}
	return false
}
