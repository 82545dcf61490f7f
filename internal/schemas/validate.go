// Package schemas provides JSON Schema validation for generated reports.
package schemas

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ValidationError represents a schema validation error with field paths
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation error at a specific field
type FieldError struct {
	Field   string
	Message string
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "validation failed with %d error(s):\n", len(ve.Errors))
	for i, fe := range ve.Errors {
		fmt.Fprintf(&sb, "  %d. %s: %s\n", i+1, fe.Field, fe.Message)
	}
	return sb.String()
}

// SchemaLoadError represents errors loading or parsing the schema itself
type SchemaLoadError struct {
	Path    string
	Message string
	Cause   error
}

func (e *SchemaLoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to load schema %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to load schema %s: %s", e.Path, e.Message)
}

func (e *SchemaLoadError) Unwrap() error {
	return e.Cause
}

// Schema is a compiled JSON Schema. It is safe for concurrent use.
type Schema struct {
	schema *gojsonschema.Schema
}

func compile(name string, loader gojsonschema.JSONLoader) (*Schema, error) {
	schema, err := gojsonschema.NewSchema(loader)
	if err != nil {
		return nil, &SchemaLoadError{Path: name, Message: "invalid schema", Cause: err}
	}
	return &Schema{schema: schema}, nil
}

// LoadFile compiles the schema at path. Relative $refs resolve against the
// schema's directory.
func LoadFile(path string) (*Schema, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve schema path: %w", err)
	}
	if _, err := os.Stat(absPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("schema file not found: %s", absPath)
	}
	return compile(absPath, gojsonschema.NewReferenceLoader("file://"+filepath.ToSlash(absPath)))
}

// LoadBytes compiles in-memory schema content, such as the embedded report schema.
func LoadBytes(name string, schema []byte) (*Schema, error) {
	return compile(name, gojsonschema.NewBytesLoader(schema))
}

// Validate checks data against the schema. Schema violations are returned as
// a *ValidationError listing every failing field.
func (s *Schema) Validate(data []byte) error {
	result, err := s.schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("failed to parse JSON document: %w", err)
	}
	if result.Valid() {
		return nil
	}

	validationErr := &ValidationError{Errors: make([]FieldError, 0, len(result.Errors()))}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		validationErr.Errors = append(validationErr.Errors, FieldError{Field: field, Message: desc.Description()})
	}
	return validationErr
}

// ValidateJSON validates a JSON file against a JSON Schema file
func ValidateJSON(schemaPath, jsonPath string) error {
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("JSON file not found: %s", jsonPath)
		}
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	return ValidateBytes(schemaPath, data)
}

// ValidateBytes validates an in-memory JSON document against a JSON Schema file
func ValidateBytes(schemaPath string, data []byte) error {
	schema, err := LoadFile(schemaPath)
	if err != nil {
		return err
	}
	return schema.Validate(data)
}

// ValidateDocument validates a JSON document against schema content.
func ValidateDocument(schema, data []byte) error {
	s, err := LoadBytes("(embedded schema)", schema)
	if err != nil {
		return err
	}
	return s.Validate(data)
}
