// Package output writes command results: serialized documents, conflict
// reports and dependency trees.
package output

import (
	"encoding/json"
	"fmt"
	"os"
)

// Write writes data to outputPath, or to stdout if outputPath is "-". A
// trailing newline is added when data lacks one.
func Write(outputPath string, data []byte) error {
	if len(data) == 0 || data[len(data)-1] != '\n' {
		data = append(data, '\n')
	}
	if outputPath == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", outputPath, err)
	}
	return nil
}

// writeJSON marshals v as indented JSON and writes it to outputPath (or stdout if "-").
func writeJSON(outputPath string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return Write(outputPath, data)
}
