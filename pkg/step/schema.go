package step

import "github.com/ormasoftchile/thinkuc/pkg/schema"

// RecordSchemaDoc names the step record schema.
var RecordSchemaDoc = schema.Doc{
	Name:        "step-record-v1.json",
	Title:       "thinkuc step record",
	Description: "Metadata written next to every step's stdout/stderr logs (<epoch>-<step>.meta.json)",
}

// GenerateRecordSchema reflects the JSON Schema for Record.
func GenerateRecordSchema() ([]byte, error) {
	return schema.Generate(&Record{}, RecordSchemaDoc)
}
