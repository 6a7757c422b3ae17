// Package errors provides the structured error type returned by the
// renderer and the command line.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeContent  ErrorType = "content"
	ErrorTypeTemplate ErrorType = "template"
	ErrorTypeConfig   ErrorType = "config"
	ErrorTypeIO       ErrorType = "io"
	ErrorTypeInternal ErrorType = "internal"
)

// Error codes.
const (
	CodeRequiredContent  = "ERR_REQUIRED_CONTENT"
	CodeTemplateNotFound = "ERR_TEMPLATE_NOT_FOUND"
	CodeTemplateSyntax   = "ERR_TEMPLATE_SYNTAX"
	CodeTemplateExec     = "ERR_TEMPLATE_EXEC"
	CodeConfigInvalid    = "ERR_CONFIG_INVALID"
	CodeIO               = "ERR_IO"
	CodeInternal         = "ERR_INTERNAL"
	CodeMultiple         = "ERR_MULTIPLE_ERRORS"
)

// RenderError is a structured error carrying the template and slot it
// occurred in.
type RenderError struct {
	Type     ErrorType
	Code     string
	Message  string
	Template string
	Slot     string
	Cause    error
	Context  map[string]any
}

// Error implements the error interface.
func (e *RenderError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.Template != "" {
		parts = append(parts, "template:"+e.Template)
	}

	if e.Slot != "" {
		parts = append(parts, "slot:"+e.Slot)
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *RenderError) Unwrap() error {
	return e.Cause
}

// Is matches another *RenderError of the same type and code.
func (e *RenderError) Is(target error) bool {
	var t *RenderError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithContext adds context information to the error.
func (e *RenderError) WithContext(key string, value any) *RenderError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value

	return e
}

// WithTemplate records the template the error occurred in.
func (e *RenderError) WithTemplate(name string) *RenderError {
	e.Template = name

	return e
}

// WithSlot records the slot the error concerns.
func (e *RenderError) WithSlot(slot string) *RenderError {
	e.Slot = slot

	return e
}

// NewContentError creates a content error.
func NewContentError(code, message string, cause error) *RenderError {
	return &RenderError{
		Type:    ErrorTypeContent,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewTemplateError creates a template error.
func NewTemplateError(code, message string, cause error) *RenderError {
	return &RenderError{
		Type:    ErrorTypeTemplate,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewConfigError creates a configuration error.
func NewConfigError(code, message string) *RenderError {
	return &RenderError{
		Type:    ErrorTypeConfig,
		Code:    code,
		Message: message,
	}
}

// NewIOError creates an I/O error.
func NewIOError(code, message string, cause error) *RenderError {
	return &RenderError{
		Type:    ErrorTypeIO,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewInternalError creates an internal error.
func NewInternalError(code, message string, cause error) *RenderError {
	return &RenderError{
		Type:    ErrorTypeInternal,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// IsContentError checks if an error concerns missing or failing content.
func IsContentError(err error) bool {
	return hasType(err, ErrorTypeContent)
}

// IsTemplateError checks if an error comes from template lookup or execution.
func IsTemplateError(err error) bool {
	return hasType(err, ErrorTypeTemplate)
}

// IsConfigError checks if an error is configuration-related.
func IsConfigError(err error) bool {
	return hasType(err, ErrorTypeConfig)
}

func hasType(err error, t ErrorType) bool {
	var re *RenderError
	if errors.As(err, &re) {
		return re.Type == t
	}

	return false
}
