package output

import (
	"fmt"
	"io"

	"github.com/goccy/go-json"

	"github.com/pankaj-dahiya-devops/dp-remediate/internal/models"
)

// RenderJSON writes report to w as indented JSON.
func RenderJSON(w io.Writer, report *models.RunReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if _, err := fmt.Fprintln(w, string(data)); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
