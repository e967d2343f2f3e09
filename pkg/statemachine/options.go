package statemachine

// Option configures a Table.
type Option func(*Table) error

// TransitionOption configures one transition.
type TransitionOption func(*Transition)

// WithTransition registers from -> to on event. Transitions sharing
// (from, event) are tried in registration order.
func WithTransition(from, to State, event Event, opts ...TransitionOption) Option {
	return func(t *Table) error {
		tr := Transition{From: from, To: to, Event: event}
		for _, opt := range opts {
			opt(&tr)
		}
		return t.add(tr)
	}
}

// WithTransitions registers several transitions in order.
func WithTransitions(transitions ...Transition) Option {
	return func(t *Table) error {
		for _, tr := range transitions {
			if err := t.add(tr); err != nil {
				return err
			}
		}
		return nil
	}
}

// WithGuard adds guards. Nil guards are skipped.
func WithGuard(guards ...Guard) TransitionOption {
	return func(tr *Transition) {
		for _, g := range guards {
			if g != nil {
				tr.Guards = append(tr.Guards, g)
			}
		}
	}
}

// WithAction adds actions. Nil actions are skipped.
func WithAction(actions ...Action) TransitionOption {
	return func(tr *Transition) {
		for _, a := range actions {
			if a != nil {
				tr.Actions = append(tr.Actions, a)
			}
		}
	}
}
