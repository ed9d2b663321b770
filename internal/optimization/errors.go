package optimization

import "fmt"

// Error represents an optimization error with context
// that can be wrapped with additional information.
type Error struct {
	// Message describes the error that occurred.
	Message string
	// Op is the operation that caused the error.
	Op string
	// Component is the component where the error occurred.
	Component string
	// Err is the underlying error that triggered this one, if any.
	Err error
}

// Error returns the string representation of the error.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	var prefix string
	if e.Component != "" && e.Op != "" {
		prefix = fmt.Sprintf("%s: %s", e.Component, e.Op)
	} else if e.Component != "" {
		prefix = e.Component
	} else if e.Op != "" {
		prefix = e.Op
	}

	if e.Err != nil {
		if prefix != "" {
			return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Err)
		}
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	if prefix != "" {
		return fmt.Sprintf("%s: %s", prefix, e.Message)
	}
	return e.Message
}

// Unwrap returns the underlying error, if any.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// WithOperation adds operation context to the error.
func (e *Error) WithOperation(op string) *Error {
	e.Op = op
	return e
}

// WithComponent adds component context to the error.
func (e *Error) WithComponent(component string) *Error {
	e.Component = component
	return e
}

// NewError creates a new optimization error with the given message.
func NewError(message string) *Error {
	return &Error{
		Message: message,
	}
}

// NewErrorf creates a new optimization error with formatted message.
func NewErrorf(format string, args ...interface{}) *Error {
	return &Error{
		Message: fmt.Sprintf(format, args...),
	}
}

// WrapError wraps an existing error with additional context.
// If err is nil, WrapError returns nil.
func WrapError(err error, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Message: message,
		Err:     err,
	}
}

// InvalidDesignError reports a malformed sampling request: a non-positive
// trust-region radius, a point count below one, or existing points whose
// dimensionality does not match the region. Always fatal.
type InvalidDesignError struct {
	Message string
}

func (e *InvalidDesignError) Error() string {
	return "invalid design: " + e.Message
}

// NewInvalidDesignErrorf creates an InvalidDesignError with a formatted message.
func NewInvalidDesignErrorf(format string, args ...interface{}) *InvalidDesignError {
	return &InvalidDesignError{Message: fmt.Sprintf(format, args...)}
}

// ExplorationEvaluationError reports a criterion failure during the
// exploration phase. Recoverable under the continue policy, fatal under raise.
type ExplorationEvaluationError struct {
	// Index is the position of the failed point in the exploration sample.
	Index int
	// Point is the parameter vector that failed to evaluate.
	Point []float64
	// Err is the error returned by the criterion.
	Err error
}

func (e *ExplorationEvaluationError) Error() string {
	return fmt.Sprintf("exploration: criterion failed at sample %d: %v", e.Index, e.Err)
}

func (e *ExplorationEvaluationError) Unwrap() error { return e.Err }

// LocalOptimizationError reports a failed local optimization run.
// Recoverable under the continue policy, fatal under raise.
type LocalOptimizationError struct {
	// StartPoint is the scheduled start point of the failed run.
	StartPoint []float64
	// Err is the error returned by the local optimizer.
	Err error
}

func (e *LocalOptimizationError) Error() string {
	return fmt.Sprintf("local optimization failed from start point %v: %v", e.StartPoint, e.Err)
}

func (e *LocalOptimizationError) Unwrap() error { return e.Err }

// SchedulingError reports a custom mixing-weight function returning a weight
// outside its bounds. Always fatal: it indicates a broken caller-supplied
// scheduling function, not a noisy evaluation.
type SchedulingError struct {
	// Iteration is the scheduling iteration at which the violation occurred.
	Iteration int
	// Weight is the offending value.
	Weight float64
	// Min and Max are the configured mixing-weight bounds.
	Min, Max float64
}

func (e *SchedulingError) Error() string {
	return fmt.Sprintf("scheduling: mixing weight %v at iteration %d outside bounds [%v, %v]",
		e.Weight, e.Iteration, e.Min, e.Max)
}
