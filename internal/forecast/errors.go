package forecast

import "fmt"

// InsufficientDataError indicates the historical series is too short for the
// requested model or scenario window.
type InsufficientDataError struct {
	Model   string
	Message string
}

// Error returns the error message string.
func (e *InsufficientDataError) Error() string {
	if e.Model == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Model, e.Message)
}

// NewInsufficientDataErrorf creates an InsufficientDataError with a formatted message.
func NewInsufficientDataErrorf(model string, format string, args ...interface{}) error {
	return &InsufficientDataError{
		Model:   model,
		Message: fmt.Sprintf(format, args...),
	}
}

// InvalidArgumentError indicates a caller-supplied parameter is out of range or
// names an unknown model.
type InvalidArgumentError struct {
	Model   string
	Message string
}

// Error returns the error message string.
func (e *InvalidArgumentError) Error() string {
	if e.Model == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Model, e.Message)
}

// NewInvalidArgumentErrorf creates an InvalidArgumentError with a formatted message.
func NewInvalidArgumentErrorf(model string, format string, args ...interface{}) error {
	return &InvalidArgumentError{
		Model:   model,
		Message: fmt.Sprintf(format, args...),
	}
}

// NumericInstabilityError indicates a fit could not be computed reliably, such
// as an ill-conditioned polynomial system.
type NumericInstabilityError struct {
	Model   string
	Message string
}

// Error returns the error message string.
func (e *NumericInstabilityError) Error() string {
	if e.Model == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Model, e.Message)
}

// NewNumericInstabilityErrorf creates a NumericInstabilityError with a formatted message.
func NewNumericInstabilityErrorf(model string, format string, args ...interface{}) error {
	return &NumericInstabilityError{
		Model:   model,
		Message: fmt.Sprintf(format, args...),
	}
}
