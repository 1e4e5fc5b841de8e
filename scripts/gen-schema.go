//go:build ignore

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ormasoftchile/thinkuc/pkg/config"
	"github.com/ormasoftchile/thinkuc/pkg/step"
)

// Writes the published schemas for editors and CI: go run scripts/gen-schema.go
func main() {
	docs := []struct {
		name string
		gen  func() ([]byte, error)
	}{
		{config.SchemaDoc.Name, config.GenerateJSONSchema},
		{step.RecordSchemaDoc.Name, step.GenerateRecordSchema},
	}
	if err := os.MkdirAll("schemas", 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "mkdir: %v\n", err)
		os.Exit(1)
	}
	for _, d := range docs {
		data, err := d.gen()
		if err != nil {
			fmt.Fprintf(os.Stderr, "error generating %s: %v\n", d.name, err)
			os.Exit(1)
		}
		path := filepath.Join("schemas", d.name)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "write: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("wrote", path)
	}
}
