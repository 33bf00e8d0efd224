package policy

import (
	"fmt"

	"github.com/pankaj-dahiya-devops/dp-remediate/internal/rules"
)

// Validate checks cfg for semantic correctness and returns all validation errors
// found. An empty slice means the config is valid.
//
// Checks performed:
//   - version must be 1
//   - rule IDs must appear in availableRuleIDs
//   - iam.match_mode must be allowlist or substring if set
//   - every iam.policy_arns entry must be an IAM policy ARN
//   - s3.mode must be enforce or disable if set
//
// All errors are collected before returning; Validate never stops at the first error.
func Validate(cfg *PolicyConfig, availableRuleIDs []string) []error {
	if cfg == nil {
		return []error{fmt.Errorf("policy config is nil")}
	}

	knownIDs := make(map[string]struct{}, len(availableRuleIDs))
	for _, id := range availableRuleIDs {
		knownIDs[id] = struct{}{}
	}

	var errs []error

	if cfg.Version != SupportedVersion {
		errs = append(errs, fmt.Errorf("version: unsupported value %d; must be %d", cfg.Version, SupportedVersion))
	}

	for ruleID := range cfg.Rules {
		if _, ok := knownIDs[ruleID]; !ok {
			errs = append(errs, fmt.Errorf("rules.%s: unknown rule ID", ruleID))
		}
	}

	switch rules.MatchMode(cfg.IAM.MatchMode) {
	case "", rules.MatchAllowList, rules.MatchSubstring:
	default:
		errs = append(errs, fmt.Errorf("iam.match_mode: invalid value %q; valid values: allowlist, substring", cfg.IAM.MatchMode))
	}

	for i, a := range cfg.IAM.PolicyARNs {
		if _, err := rules.NewSSMPolicyRuleWithOptions(rules.MatchAllowList, []string{a}); err != nil {
			errs = append(errs, fmt.Errorf("iam.policy_arns[%d]: %w", i, err))
		}
	}

	if _, err := rules.ParseS3Mode(cfg.S3.Mode); err != nil {
		errs = append(errs, fmt.Errorf("s3.mode: %w", err))
	}

	return errs
}
