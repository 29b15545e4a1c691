package domain

import (
	"errors"
	"fmt"
)

// Failure kinds. Every error surfaced by the assessment core matches exactly one
// of these through errors.Is.
var (
	// ErrTransient covers network failures, timeouts and bad backend responses.
	// Callers take the local fallback path.
	ErrTransient = errors.New("transient failure")
	// ErrInvalidInput is a rejected call. No state was mutated.
	ErrInvalidInput = errors.New("invalid input")
	// ErrIrrecoverable means there is nothing to fall back to; the user must retry.
	ErrIrrecoverable = errors.New("irrecoverable state")
)

var (
	// ErrInvalidAnswer is returned for a submission without question ID or answer.
	ErrInvalidAnswer = &Failure{Kind: ErrInvalidInput, Op: "submit answer", Err: errors.New("question id and answer are required")}
	// ErrNotInProgress is returned when an answer arrives outside the InProgress state.
	ErrNotInProgress = &Failure{Kind: ErrInvalidInput, Op: "submit answer", Err: errors.New("session is not in progress")}
	// ErrSubmissionInFlight guards against a second answer before the first has advanced the position.
	ErrSubmissionInFlight = &Failure{Kind: ErrInvalidInput, Op: "submit answer", Err: errors.New("previous answer still in flight")}
	// ErrSessionReset is returned when the session was reset while a call was in flight.
	ErrSessionReset = &Failure{Kind: ErrInvalidInput, Op: "session", Err: errors.New("session was reset")}
	// ErrSessionNotFound is returned when a patient has no active session.
	ErrSessionNotFound = &Failure{Kind: ErrInvalidInput, Op: "session", Err: errors.New("assessment session not found")}
	// ErrNoQuestions means not even the built-in question set is available.
	ErrNoQuestions = &Failure{Kind: ErrIrrecoverable, Op: "load questions", Err: errors.New("no questions available")}
	// ErrBackendUnavailable short-circuits remote calls while connectivity is down.
	ErrBackendUnavailable = &Failure{Kind: ErrTransient, Op: "backend", Err: errors.New("backend unavailable")}
	// ErrQuestionNotFound is returned when no question carries the requested number.
	ErrQuestionNotFound = &Failure{Kind: ErrInvalidInput, Op: "question by number", Err: errors.New("question not found")}
)

// Failure tags an error with its kind and the operation that produced it.
type Failure struct {
	Kind error
	Op   string
	Err  error
}

func (f *Failure) Error() string {
	if f.Op == "" {
		return f.Err.Error()
	}
	return f.Op + ": " + f.Err.Error()
}

func (f *Failure) Unwrap() error { return f.Err }

// Is matches the failure kind, so errors.Is(err, ErrTransient) works through wrapping.
func (f *Failure) Is(target error) bool {
	return target == f.Kind
}

// Transient wraps err as a transient failure of op.
func Transient(op string, err error) error {
	return &Failure{Kind: ErrTransient, Op: op, Err: err}
}

// Transientf builds a transient failure from a format string.
func Transientf(op, format string, args ...any) error {
	return &Failure{Kind: ErrTransient, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf reports the failure kind of err, or nil when err carries none.
func KindOf(err error) error {
	for _, kind := range []error{ErrTransient, ErrInvalidInput, ErrIrrecoverable} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
