// Package output renders run reports for the terminal and for machines.
package output

import (
	"fmt"
	"io"

	"github.com/pankaj-dahiya-devops/dp-remediate/internal/models"
)

// Format controls the CLI output format.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
)

// ParseFormat validates a --format value. Empty selects FormatTable.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatTable:
		return FormatTable, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported output format %q: must be table or json", s)
	}
}

// Render writes report to w in format.
func Render(w io.Writer, report *models.RunReport, format Format, opts TableOptions) error {
	switch format {
	case FormatJSON:
		return RenderJSON(w, report)
	default:
		RenderTable(w, report, opts)
		return nil
	}
}
