// internal/common/validation/schema.go
package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Result is the outcome of validating one document.
type Result struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Validate checks document against a JSON Schema given as a Go value.
// Both arguments go through encoding/json, so structs with json tags work.
// A non-nil error means the schema itself could not be compiled.
func Validate(schema map[string]interface{}, document interface{}) (*Result, error) {
	if len(schema) == 0 {
		return &Result{Valid: true}, nil
	}

	res, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(schema),
		gojsonschema.NewGoLoader(document),
	)
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}

	out := &Result{Valid: res.Valid()}
	for _, desc := range res.Errors() {
		out.Errors = append(out.Errors, ValidationError{
			Field:   desc.Field(),
			Message: desc.Description(),
			Code:    strings.ToUpper(desc.Type()),
		})
	}
	return out, nil
}

// Err folds the validation errors into a single error, or nil when valid.
func (r *Result) Err() error {
	if r == nil || r.Valid {
		return nil
	}
	msgs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		msgs[i] = e.Field + ": " + e.Message
	}
	return fmt.Errorf("data validation failed: %s", strings.Join(msgs, "; "))
}

// Fields lists the offending field paths.
func (r *Result) Fields() []string {
	if r == nil {
		return nil
	}
	out := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		out = append(out, e.Field)
	}
	return out
}
