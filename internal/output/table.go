package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/pankaj-dahiya-devops/dp-remediate/internal/models"
)

// TableOptions controls which columns RenderTable renders and how status is coloured.
type TableOptions struct {
	// Colored wraps status labels with ANSI codes. Default false (CI-safe).
	Colored bool

	// IncludeRegion adds a REGION column.
	IncludeRegion bool

	// IncludeRelated adds a RELATED column (e.g. the instances using an IAM role).
	IncludeRelated bool
}

// statusColor returns the colour for a terminal status, or nil for none.
func statusColor(s models.Status) *color.Color {
	switch s {
	case models.StatusFailed:
		return color.New(color.FgRed, color.Bold)
	case models.StatusRemediated:
		return color.New(color.FgGreen)
	case models.StatusPlanned:
		return color.New(color.FgYellow)
	case models.StatusSkipped:
		return color.New(color.FgBlue)
	default:
		return nil
	}
}

// ColorStatus wraps a status string with ANSI codes when colored is true.
// When colored is false the string is returned unchanged (CI-safe default).
func ColorStatus(s models.Status, colored bool) string {
	c := statusColor(s)
	if !colored || c == nil {
		return string(s)
	}
	c.EnableColor()
	return c.Sprint(string(s))
}

// ShortenMessage truncates msg to at most max runes, appending "..." when truncated.
// max is treated as at least 4 to guarantee space for the ellipsis.
func ShortenMessage(msg string, max int) string {
	if max < 4 {
		max = 4
	}
	runes := []rune(msg)
	if len(runes) <= max {
		return msg
	}
	return string(runes[:max-3]) + "..."
}

// statusCell returns the status padded to width characters.
// When colored, ANSI codes wrap only the text; trailing padding spaces are plain
// so subsequent columns stay visually aligned.
func statusCell(s models.Status, width int, colored bool) string {
	text := string(s)
	spaces := width - len(text)
	if spaces < 0 {
		spaces = 0
	}
	return ColorStatus(s, colored) + strings.Repeat(" ", spaces)
}

// truncateField shortens s to at most max bytes for ID/label columns.
func truncateField(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "~"
}

// actionsCell summarises the mutating calls of an outcome.
func actionsCell(actions []models.Action) string {
	if len(actions) == 0 {
		return "-"
	}
	op := actions[0].Operation
	for _, a := range actions[1:] {
		if a.Operation != op {
			return fmt.Sprintf("%d calls", len(actions))
		}
	}
	return fmt.Sprintf("%s x%d", op, len(actions))
}

// outcomeMessage prefers the error text for failed outcomes.
func outcomeMessage(o models.Outcome) string {
	if o.Error != "" {
		return o.Message + ": " + o.Error
	}
	return o.Message
}

// RenderTable writes a formatted outcomes table followed by target errors and
// a summary line to w.
//
// Column order:
//
//	RESOURCE  KIND  [REGION]  STATUS  ACTIONS  MESSAGE  [RELATED]
func RenderTable(w io.Writer, report *models.RunReport, opts TableOptions) {
	if len(report.Outcomes) == 0 {
		fmt.Fprintln(w, "No resources.")
	} else {
		renderOutcomes(w, report.Outcomes, opts)
	}

	if len(report.TargetErrors) > 0 {
		fmt.Fprintln(w)
		for _, te := range report.TargetErrors {
			fmt.Fprintf(w, "%s %s: %s\n", ColorStatus(models.StatusFailed, opts.Colored), te.Kind, te.Error)
		}
	}

	fmt.Fprintln(w)
	RenderSummary(w, report)
}

func renderOutcomes(w io.Writer, outcomes []models.Outcome, opts TableOptions) {
	// Fixed column display widths.
	const (
		wResource = 32
		wKind     = 16
		wRegion   = 15
		wStatus   = 10
		wActions  = 26
		wMessage  = 50
	)

	var hb strings.Builder
	hb.WriteString(fmt.Sprintf("%-*s", wResource, "RESOURCE"))
	hb.WriteString(fmt.Sprintf("  %-*s", wKind, "KIND"))
	if opts.IncludeRegion {
		hb.WriteString(fmt.Sprintf("  %-*s", wRegion, "REGION"))
	}
	hb.WriteString(fmt.Sprintf("  %-*s", wStatus, "STATUS"))
	hb.WriteString(fmt.Sprintf("  %-*s", wActions, "ACTIONS"))
	hb.WriteString(fmt.Sprintf("  %-*s", wMessage, "MESSAGE"))
	if opts.IncludeRelated {
		hb.WriteString("  RELATED")
	}
	header := strings.TrimRight(hb.String(), " ")

	fmt.Fprintln(w, header)
	fmt.Fprintln(w, strings.Repeat("-", len(header)))

	for _, o := range outcomes {
		var rb strings.Builder
		rb.WriteString(fmt.Sprintf("%-*s", wResource, truncateField(o.Resource.ID, wResource)))
		rb.WriteString(fmt.Sprintf("  %-*s", wKind, truncateField(string(o.Resource.Kind), wKind)))
		if opts.IncludeRegion {
			rb.WriteString(fmt.Sprintf("  %-*s", wRegion, truncateField(o.Resource.Region, wRegion)))
		}
		rb.WriteString("  " + statusCell(o.Status, wStatus, opts.Colored))
		rb.WriteString(fmt.Sprintf("  %-*s", wActions, truncateField(actionsCell(o.Actions), wActions)))
		rb.WriteString(fmt.Sprintf("  %-*s", wMessage, ShortenMessage(outcomeMessage(o), wMessage)))
		if opts.IncludeRelated && len(o.Resource.Related) > 0 {
			rb.WriteString("  " + strings.Join(o.Resource.Related, ","))
		}
		fmt.Fprintln(w, strings.TrimRight(rb.String(), " "))
	}
}

// RenderSummary writes the one-line run summary.
func RenderSummary(w io.Writer, report *models.RunReport) {
	s := report.Summary
	mode := ""
	if report.DryRun {
		mode = " (dry run)"
	}
	fmt.Fprintf(w, "Summary%s: %d resources, %d remediated, %d planned, %d skipped, %d failed, %d targets failed\n",
		mode, s.TotalResources, s.Remediated, s.Planned, s.Skipped, s.Failed, s.TargetsFailed)
}
