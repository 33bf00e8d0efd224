package rules

import (
	"fmt"

	"github.com/pankaj-dahiya-devops/dp-remediate/internal/models"
)

// S3Mode selects the direction of S3 Block Public Access remediation.
type S3Mode string

const (
	// S3ModeEnforce flags buckets where any Block Public Access flag is off
	// and turns all four on.
	S3ModeEnforce S3Mode = "enforce"

	// S3ModeDisable flags buckets where any Block Public Access flag is on
	// and turns all four off. This reproduces the behaviour of the legacy
	// scripts and removes protections; it is never the default.
	S3ModeDisable S3Mode = "disable"
)

// ParseS3Mode validates a mode string. Empty selects S3ModeEnforce.
func ParseS3Mode(s string) (S3Mode, error) {
	switch S3Mode(s) {
	case "", S3ModeEnforce:
		return S3ModeEnforce, nil
	case S3ModeDisable:
		return S3ModeDisable, nil
	default:
		return "", fmt.Errorf("unknown S3 mode %q; valid values: enforce, disable", s)
	}
}

// S3BlockPublicAccessRule evaluates the four bucket-level Block Public Access
// flags against the target value of its mode.
type S3BlockPublicAccessRule struct {
	Mode S3Mode
}

func (r S3BlockPublicAccessRule) ID() string                { return "S3_BLOCK_PUBLIC_ACCESS" }
func (r S3BlockPublicAccessRule) Name() string              { return "S3 Block Public Access Settings" }
func (r S3BlockPublicAccessRule) Kind() models.ResourceKind { return models.KindS3Bucket }

// TargetValue is the value every flag holds after remediation.
func (r S3BlockPublicAccessRule) TargetValue() bool {
	return r.Mode != S3ModeDisable
}

// NeedsRemediation is true iff any of the four flags differs from
// TargetValue. Flags missing from cfg count as false, which is what S3
// reports for a bucket without a Block Public Access configuration.
func (r S3BlockPublicAccessRule) NeedsRemediation(cfg models.Configuration) bool {
	target := r.TargetValue()
	for _, name := range models.BlockPublicAccessFlags {
		v, _ := cfg.Flag(name)
		if v != target {
			return true
		}
	}
	return false
}
