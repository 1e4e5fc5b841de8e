package report

import (
	"fmt"
	"sort"

	"github.com/ormasoftchile/thinkuc/pkg/config"
	"github.com/ormasoftchile/thinkuc/pkg/step"
)

var schemas = map[string]func() ([]byte, error){
	"config": config.GenerateJSONSchema,
	"record": step.GenerateRecordSchema,
}

// SchemaKinds lists the documents Schema can produce.
func SchemaKinds() []string {
	kinds := make([]string, 0, len(schemas))
	for k := range schemas {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// Schema returns the JSON Schema for kind.
func Schema(kind string) ([]byte, error) {
	gen, ok := schemas[kind]
	if !ok {
		return nil, fmt.Errorf("unknown schema %q (want one of %v)", kind, SchemaKinds())
	}
	return gen()
}
