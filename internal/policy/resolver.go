package policy

import (
	"github.com/pankaj-dahiya-devops/dp-remediate/internal/rules"
)

// RuleEnabled reports whether ruleID is enabled. Rules are enabled unless
// the policy explicitly sets enabled: false. Safe to call with cfg == nil.
func RuleEnabled(ruleID string, cfg *PolicyConfig) bool {
	if cfg == nil {
		return true
	}
	rc, ok := cfg.Rules[ruleID]
	if !ok || rc.Enabled == nil {
		return true
	}
	return *rc.Enabled
}

// SSMRule builds the IAM SSM policy rule from cfg.
func SSMRule(cfg *PolicyConfig) (rules.SSMPolicyRule, error) {
	if cfg == nil {
		return rules.NewSSMPolicyRule(), nil
	}
	return rules.NewSSMPolicyRuleWithOptions(rules.MatchMode(cfg.IAM.MatchMode), cfg.IAM.PolicyARNs)
}

// S3Rule builds the S3 Block Public Access rule from cfg. modeOverride, when
// non-empty, takes precedence over the policy file (it comes from a flag).
func S3Rule(cfg *PolicyConfig, modeOverride string) (rules.S3BlockPublicAccessRule, error) {
	mode := modeOverride
	if mode == "" && cfg != nil {
		mode = cfg.S3.Mode
	}
	m, err := rules.ParseS3Mode(mode)
	if err != nil {
		return rules.S3BlockPublicAccessRule{}, err
	}
	return rules.S3BlockPublicAccessRule{Mode: m}, nil
}
