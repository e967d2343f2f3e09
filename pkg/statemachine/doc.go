// Package statemachine provides a small guarded transition table.
//
// A Table is built once and is safe for concurrent use. Evaluating an event
// walks the transitions registered for (state, event) in registration order;
// the first transition whose guards all pass wins and its actions run before
// the new state is returned. Registration order is therefore priority order.
//
//	table := statemachine.MustNew(
//	    statemachine.WithTransition("evaluating", "denied", "evaluate",
//	        statemachine.WithGuard(noToken),
//	        statemachine.WithAction(redirectHome)),
//	    statemachine.WithTransition("evaluating", "allowed", "evaluate"),
//	)
//	next, err := table.Fire(ctx, "evaluating", "evaluate", req)
package statemachine
