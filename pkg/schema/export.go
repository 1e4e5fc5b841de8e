// Package schema reflects JSON Schema documents from Go types and validates
// decoded documents against them.
package schema

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// BaseID prefixes the $id of every generated schema.
const BaseID = "https://github.com/ormasoftchile/thinkuc/schemas/"

// Doc describes a generated schema.
type Doc struct {
	Name        string // file name under BaseID, e.g. "config-v1.json"
	Title       string
	Description string
}

// Generate produces a JSON Schema Draft 2020-12 document for v's type
// using invopop/jsonschema.
func Generate(v any, d Doc) ([]byte, error) {
	r := new(jsonschema.Reflector)
	r.DoNotReference = false

	s := r.Reflect(v)
	s.ID = jsonschema.ID(BaseID + d.Name)
	s.Title = d.Title
	s.Description = d.Description

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal %s schema: %w", d.Name, err)
	}
	return data, nil
}
