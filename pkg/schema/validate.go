package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	sjsonschema "github.com/santhosh-tekuri/jsonschema/v6"
)

// ValidationError is a single schema violation with its instance location.
type ValidationError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Validator is a compiled schema.
type Validator struct {
	sch *sjsonschema.Schema
}

// Compile prepares schemaJSON (as returned by Generate) for validation.
func Compile(name string, schemaJSON []byte) (*Validator, error) {
	var schemaDoc any
	if err := json.Unmarshal(schemaJSON, &schemaDoc); err != nil {
		return nil, fmt.Errorf("unmarshal schema: %w", err)
	}
	c := sjsonschema.NewCompiler()
	if err := c.AddResource(name, schemaDoc); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	sch, err := c.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &Validator{sch: sch}, nil
}

// ValidateValue round-trips v through encoding/json and validates the
// result.
func (v *Validator) ValidateValue(val any) []*ValidationError {
	data, err := json.Marshal(val)
	if err != nil {
		return []*ValidationError{{Message: fmt.Sprintf("marshal for schema validation: %v", err)}}
	}
	return v.ValidateJSON(data)
}

// ValidateJSON validates a raw JSON document.
func (v *Validator) ValidateJSON(data []byte) []*ValidationError {
	doc, err := sjsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return []*ValidationError{{Message: fmt.Sprintf("unmarshal document: %v", err)}}
	}
	if err := v.sch.Validate(doc); err != nil {
		ve, ok := err.(*sjsonschema.ValidationError)
		if !ok {
			return []*ValidationError{{Message: err.Error()}}
		}
		var errs []*ValidationError
		for _, cause := range flattenValidationErrors(ve) {
			errs = append(errs, &ValidationError{
				Path:    "/" + strings.Join(cause.InstanceLocation, "/"),
				Message: fmt.Sprintf("%v", cause.ErrorKind),
			})
		}
		return errs
	}
	return nil
}

// Join renders errs one per line.
func Join(errs []*ValidationError) string {
	lines := make([]string, len(errs))
	for i, e := range errs {
		lines[i] = e.Error()
	}
	return strings.Join(lines, "\n")
}

// flattenValidationErrors recursively collects all leaf validation errors.
func flattenValidationErrors(ve *sjsonschema.ValidationError) []*sjsonschema.ValidationError {
	if len(ve.Causes) == 0 {
		return []*sjsonschema.ValidationError{ve}
	}
	var flat []*sjsonschema.ValidationError
	for _, cause := range ve.Causes {
		flat = append(flat, flattenValidationErrors(cause)...)
	}
	return flat
}
