package reporter

import (
	"encoding/json"
	"fmt"
	"os"
)

// WriteJSONReport stores the finalized run report at outputPath as indented
// JSON, replacing any existing file.
func WriteJSONReport(report *Report, outputPath string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		return fmt.Errorf("write report %s: %w", outputPath, err)
	}
	return nil
}
