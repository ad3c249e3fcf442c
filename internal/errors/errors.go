// Package errors provides categorized error handling for wastenet-go.
// Errors carry a component and category so log output and metrics can
// distinguish a camera fault from a database fault without string matching.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorCategory represents the functional category of an error
type ErrorCategory string

const (
	CategoryValidation      ErrorCategory = "validation"
	CategoryDatabase        ErrorCategory = "database"
	CategoryNetwork         ErrorCategory = "network"
	CategoryModelInit       ErrorCategory = "model-init"
	CategoryModelInference  ErrorCategory = "model-inference"
	CategoryImageProcessing ErrorCategory = "image-processing"
	CategoryHardware        ErrorCategory = "hardware-io"
	CategoryConfiguration   ErrorCategory = "configuration"
	CategorySystem          ErrorCategory = "system"
	CategoryMQTT            ErrorCategory = "mqtt"
	CategoryGeneric         ErrorCategory = "generic"
)

// ComponentUnknown is used when the reporting component is not set.
const ComponentUnknown = "unknown"

// EnhancedError wraps an error with component, category and context metadata.
type EnhancedError struct {
	Err       error
	Component string
	Category  ErrorCategory
	Context   map[string]any
	Timestamp time.Time
}

// Error implements the error interface.
func (ee *EnhancedError) Error() string {
	return ee.Err.Error()
}

// Unwrap supports errors.Is and errors.As traversal.
func (ee *EnhancedError) Unwrap() error {
	return ee.Err
}

// Is reports whether target matches this error or its chain.
func (ee *EnhancedError) Is(target error) bool {
	if other, ok := target.(*EnhancedError); ok {
		return ee.Component == other.Component && ee.Category == other.Category
	}
	return errors.Is(ee.Err, target)
}

// GetComponent returns the component that reported the error.
func (ee *EnhancedError) GetComponent() string {
	if ee.Component == "" {
		return ComponentUnknown
	}
	return ee.Component
}

// GetCategory returns the error category as a string.
func (ee *EnhancedError) GetCategory() string {
	return string(ee.Category)
}

// GetContext returns a copy of the context map.
func (ee *EnhancedError) GetContext() map[string]any {
	out := make(map[string]any, len(ee.Context))
	for k, v := range ee.Context {
		out[k] = v
	}
	return out
}

// ErrorBuilder provides a fluent API for building enhanced errors
type ErrorBuilder struct {
	err       error
	component string
	category  ErrorCategory
	context   map[string]any
}

// New creates a new error builder from an existing error.
func New(err error) *ErrorBuilder {
	return &ErrorBuilder{
		err:      err,
		category: CategoryGeneric,
	}
}

// Newf creates a new error builder from a format string.
func Newf(format string, args ...any) *ErrorBuilder {
	return New(fmt.Errorf(format, args...))
}

// Component sets the component reporting the error.
func (eb *ErrorBuilder) Component(component string) *ErrorBuilder {
	eb.component = component
	return eb
}

// Category sets the error category.
func (eb *ErrorBuilder) Category(category ErrorCategory) *ErrorBuilder {
	eb.category = category
	return eb
}

// Context adds a key-value pair to the error context.
func (eb *ErrorBuilder) Context(key string, value any) *ErrorBuilder {
	if eb.context == nil {
		eb.context = make(map[string]any)
	}
	eb.context[key] = value
	return eb
}

// NetworkContext adds URL and timeout information for transport errors.
func (eb *ErrorBuilder) NetworkContext(url string, timeout time.Duration) *ErrorBuilder {
	eb.Context("url", url)
	if timeout > 0 {
		eb.Context("timeout_seconds", timeout.Seconds())
	}
	return eb
}

// ModelContext adds model path information for classifier errors.
func (eb *ErrorBuilder) ModelContext(modelPath string) *ErrorBuilder {
	if modelPath != "" {
		eb.Context("model_path", modelPath)
	}
	return eb
}

// Build creates the final enhanced error.
func (eb *ErrorBuilder) Build() *EnhancedError {
	return &EnhancedError{
		Err:       eb.err,
		Component: eb.component,
		Category:  eb.category,
		Context:   eb.context,
		Timestamp: time.Now(),
	}
}

// ValidationError creates a validation error with a message.
func ValidationError(message string) *EnhancedError {
	return New(errors.New(message)).Category(CategoryValidation).Build()
}

// NewStd creates a plain standard error without enhancement, for sentinel
// values and places where metadata adds nothing.
func NewStd(text string) error {
	return errors.New(text)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}
