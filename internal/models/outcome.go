package models

import "time"

// Status is the terminal state of one resource in a run.
//
// Every resource moves Listed -> Inspected -> one of the terminal states.
// There are no backward transitions and no retries.
type Status string

const (
	StatusSkipped    Status = "SKIPPED"
	StatusPlanned    Status = "PLANNED"
	StatusRemediated Status = "REMEDIATED"
	StatusFailed     Status = "FAILED"
)

// Action records a single mutating call issued against the provider.
type Action struct {
	// Operation is the SDK operation name, e.g. "DetachRolePolicy".
	Operation string `json:"operation"`

	// Target is the ARN or identifier the call was applied to.
	Target string `json:"target"`
}

// Outcome is the per-resource result of a run.
type Outcome struct {
	Resource      Resource       `json:"resource"`
	RuleID        string         `json:"rule_id"`
	Status        Status         `json:"status"`
	Configuration *Configuration `json:"configuration,omitempty"`
	Actions       []Action       `json:"actions,omitempty"`
	Message       string         `json:"message,omitempty"`
	Error         string         `json:"error,omitempty"`
}

// TargetError records a target whose Lister failed. No outcomes exist for
// such a target.
type TargetError struct {
	Kind  ResourceKind `json:"kind"`
	Error string       `json:"error"`
}

// RunSummary aggregates outcome counts across a run.
type RunSummary struct {
	TotalResources int `json:"total_resources"`
	Skipped        int `json:"skipped"`
	Planned        int `json:"planned"`
	Remediated     int `json:"remediated"`
	Failed         int `json:"failed"`
	TargetsFailed  int `json:"targets_failed"`
}

// RunReport is the top-level output of a remediation run.
type RunReport struct {
	RunID        string        `json:"run_id"`
	StartedAt    time.Time     `json:"started_at"`
	FinishedAt   time.Time     `json:"finished_at"`
	AccountID    string        `json:"account_id,omitempty"`
	Profile      string        `json:"profile,omitempty"`
	DryRun       bool          `json:"dry_run"`
	Summary      RunSummary    `json:"summary"`
	Outcomes     []Outcome     `json:"outcomes"`
	TargetErrors []TargetError `json:"target_errors,omitempty"`
}

// HasFailures reports whether any resource or target failed. The CLI exits
// non-zero when this is true.
func (r *RunReport) HasFailures() bool {
	if r == nil {
		return false
	}
	return r.Summary.Failed > 0 || r.Summary.TargetsFailed > 0
}

// ComputeSummary recounts Summary from Outcomes and TargetErrors.
func (r *RunReport) ComputeSummary() {
	s := RunSummary{
		TotalResources: len(r.Outcomes),
		TargetsFailed:  len(r.TargetErrors),
	}
	for _, o := range r.Outcomes {
		switch o.Status {
		case StatusSkipped:
			s.Skipped++
		case StatusPlanned:
			s.Planned++
		case StatusRemediated:
			s.Remediated++
		case StatusFailed:
			s.Failed++
		}
	}
	r.Summary = s
}
