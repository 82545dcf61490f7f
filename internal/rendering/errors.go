// Package rendering renders analysis reports as standalone HTML pages.
package rendering

import "fmt"

const builtinTemplateName = "built-in template"

func formatError(kind, subject, message string, cause error) string {
	msg := kind + ": "
	if subject != "" {
		msg += subject + ": "
	}
	msg += message
	if cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, cause)
	}
	return msg
}

// TemplateError reports a report template that could not be loaded or executed.
type TemplateError struct {
	Template string // file path, or the built-in template name
	Message  string
	Cause    error
}

func (e *TemplateError) Error() string {
	return formatError("template error", e.Template, e.Message, e.Cause)
}

func (e *TemplateError) Unwrap() error { return e.Cause }

// RenderError reports a report that cannot be rendered.
type RenderError struct {
	Message string
	Cause   error
}

func (e *RenderError) Error() string {
	return formatError("render error", "", e.Message, e.Cause)
}

func (e *RenderError) Unwrap() error { return e.Cause }
