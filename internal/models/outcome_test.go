package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunReport_ComputeSummary(t *testing.T) {
	r := &RunReport{
		Outcomes: []Outcome{
			{Status: StatusSkipped},
			{Status: StatusRemediated},
			{Status: StatusRemediated},
			{Status: StatusFailed},
			{Status: StatusPlanned},
		},
		TargetErrors: []TargetError{{Kind: KindS3Bucket, Error: "boom"}},
	}
	r.ComputeSummary()

	assert.Equal(t, RunSummary{
		TotalResources: 5,
		Skipped:        1,
		Planned:        1,
		Remediated:     2,
		Failed:         1,
		TargetsFailed:  1,
	}, r.Summary)
	assert.True(t, r.HasFailures())
}

func TestRunReport_HasFailures(t *testing.T) {
	var nilReport *RunReport
	assert.False(t, nilReport.HasFailures())

	clean := &RunReport{Outcomes: []Outcome{{Status: StatusRemediated}, {Status: StatusSkipped}}}
	clean.ComputeSummary()
	assert.False(t, clean.HasFailures())

	listerFailed := &RunReport{TargetErrors: []TargetError{{Kind: KindRDSInstance}}}
	listerFailed.ComputeSummary()
	assert.True(t, listerFailed.HasFailures())
}

func TestConfiguration_Flag(t *testing.T) {
	var empty Configuration
	v, ok := empty.Flag(FlagPubliclyAccessible)
	assert.False(t, v)
	assert.False(t, ok)

	cfg := Configuration{Flags: map[string]bool{FlagPubliclyAccessible: true}}
	v, ok = cfg.Flag(FlagPubliclyAccessible)
	assert.True(t, v)
	assert.True(t, ok)
}
