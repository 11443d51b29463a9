// Package dialog implements the interactive "ask, wait, validate" primitive
// used by every multi step prompt in the bot.
package dialog

// Outcome is how a wait ended.
type Outcome int

const (
	// OutcomeCompleted means a qualifying response was received.
	OutcomeCompleted Outcome = iota

	// OutcomeCancelled means the user declined or sent the cancel token.
	OutcomeCancelled

	// OutcomeTimedOut means no qualifying response arrived in time.
	OutcomeTimedOut
)

// Result is the tri-state outcome of an interactive wait. Cancel and timeout
// are ordinary values, not errors; they travel up through every layer and the
// top level command handler picks the user facing message.
type Result[T any] struct {
	// Outcome is how the wait ended.
	Outcome Outcome

	// Value is the response. Only set when Outcome is OutcomeCompleted.
	Value T
}

// Completed creates a completed result carrying a value.
func Completed[T any](value T) Result[T] {
	return Result[T]{Outcome: OutcomeCompleted, Value: value}
}

// Cancelled creates a cancelled result.
func Cancelled[T any]() Result[T] {
	return Result[T]{Outcome: OutcomeCancelled}
}

// TimedOut creates a timed out result.
func TimedOut[T any]() Result[T] {
	return Result[T]{Outcome: OutcomeTimedOut}
}

// Completed reports whether a qualifying response was received.
func (r Result[T]) Completed() bool {
	return r.Outcome == OutcomeCompleted
}
