package errors

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
)

// slotError is implemented by errors that concern a single named slot, such
// as a missing required section.
type slotError interface {
	error
	SlotName() string
}

// Wrap wraps an error with additional context, creating a RenderError if the
// input is not already one.
func Wrap(err error, errType ErrorType, code, message string) *RenderError {
	if err == nil {
		return nil
	}

	// Keep the location of an inner RenderError
	var re *RenderError
	if errors.As(err, &re) {
		return &RenderError{
			Type:     errType,
			Code:     code,
			Message:  message,
			Cause:    err,
			Template: re.Template,
			Slot:     re.Slot,
			Context:  maps.Clone(re.Context),
		}
	}

	return &RenderError{
		Type:    errType,
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// WrapIO wraps an error as an I/O error.
func WrapIO(err error, message string) *RenderError {
	return Wrap(err, ErrorTypeIO, CodeIO, message)
}

// WrapConfig wraps an error as a configuration error.
func WrapConfig(err error, message string) *RenderError {
	return Wrap(err, ErrorTypeConfig, CodeConfigInvalid, message)
}

// Classify turns an error raised while rendering template into a
// RenderError. Errors that are already classified only gain the template
// name when they lack one.
func Classify(err error, template string) error {
	if err == nil {
		return nil
	}

	var re *RenderError
	if errors.As(err, &re) {
		if re.Template == "" {
			re.Template = template
		}
		return err
	}

	var se slotError
	if errors.As(err, &se) {
		return NewContentError(CodeRequiredContent, "required content is missing", err).
			WithTemplate(template).
			WithSlot(se.SlotName())
	}

	if errors.Is(err, fs.ErrNotExist) {
		return NewTemplateError(CodeTemplateNotFound, "template not found", err).
			WithTemplate(template)
	}

	return NewTemplateError(CodeTemplateExec, "template execution failed", err).
		WithTemplate(template)
}

// FormatError formats an error for user display.
func FormatError(err error) string {
	if err == nil {
		return ""
	}

	var re *RenderError
	if errors.As(err, &re) {
		return re.Error()
	}

	return err.Error()
}

// GetErrorContext extracts log fields from a RenderError.
func GetErrorContext(err error) map[string]any {
	var re *RenderError
	if errors.As(err, &re) {
		context := maps.Clone(re.Context)
		if context == nil {
			context = make(map[string]any)
		}
		if re.Template != "" {
			context["template"] = re.Template
		}
		if re.Slot != "" {
			context["slot"] = re.Slot
		}
		context["type"] = string(re.Type)
		context["code"] = re.Code
		return context
	}

	return map[string]any{
		"message": err.Error(),
		"type":    "unknown",
	}
}

// ExtractCause extracts the root cause from a chain of RenderErrors.
func ExtractCause(err error) error {
	for err != nil {
		re, ok := err.(*RenderError)
		if !ok {
			return err
		}
		if re.Cause == nil {
			return re
		}
		err = re.Cause
	}
	return nil
}

// CombineErrors combines multiple errors into a single error.
func CombineErrors(errs ...error) error {
	var nonNil []error
	for _, err := range errs {
		if err != nil {
			nonNil = append(nonNil, err)
		}
	}
	switch len(nonNil) {
	case 0:
		return nil
	case 1:
		return nonNil[0]
	}

	messages := make([]string, 0, len(nonNil))
	for _, err := range nonNil {
		messages = append(messages, err.Error())
	}

	return &RenderError{
		Type:    ErrorTypeInternal,
		Code:    CodeMultiple,
		Message: fmt.Sprintf("multiple errors occurred: %d errors", len(nonNil)),
		Cause:   errors.Join(nonNil...),
		Context: map[string]any{
			"error_count": len(nonNil),
			"errors":      messages,
		},
	}
}
