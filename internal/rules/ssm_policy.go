package rules

import (
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws/arn"

	"github.com/pankaj-dahiya-devops/dp-remediate/internal/models"
)

// MatchMode selects how SSMPolicyRule decides whether a policy is SSM-related.
type MatchMode string

const (
	// MatchAllowList matches policy ARNs against an explicit set of known
	// SSM managed policies.
	MatchAllowList MatchMode = "allowlist"

	// MatchSubstring matches any policy whose name contains "SSM" or whose
	// ARN contains "AmazonSSM". It produces false positives on customer
	// policies that happen to contain those strings.
	MatchSubstring MatchMode = "substring"
)

// DefaultSSMPolicyARNs are the AWS managed policies that grant Systems
// Manager access to an instance role.
var DefaultSSMPolicyARNs = []string{
	"arn:aws:iam::aws:policy/AmazonSSMManagedInstanceCore",
	"arn:aws:iam::aws:policy/AmazonSSMFullAccess",
	"arn:aws:iam::aws:policy/AmazonSSMReadOnlyAccess",
	"arn:aws:iam::aws:policy/AmazonSSMPatchAssociation",
	"arn:aws:iam::aws:policy/AmazonSSMDirectoryServiceAccess",
	"arn:aws:iam::aws:policy/AmazonSSMManagedEC2InstanceDefaultPolicy",
	"arn:aws:iam::aws:policy/service-role/AmazonEC2RoleforSSM",
	"arn:aws:iam::aws:policy/service-role/AmazonSSMAutomationRole",
	"arn:aws:iam::aws:policy/service-role/AmazonSSMMaintenanceWindowRole",
}

// SSMPolicyRule flags IAM roles (reached through EC2 instance profiles) that
// have SSM managed policies attached.
type SSMPolicyRule struct {
	mode MatchMode
	// allowed is keyed by policyKey so ARNs match across partitions
	// (aws, aws-cn, aws-us-gov).
	allowed map[string]struct{}
}

// NewSSMPolicyRule returns an allow-list rule seeded with DefaultSSMPolicyARNs.
func NewSSMPolicyRule() SSMPolicyRule {
	r, _ := NewSSMPolicyRuleWithOptions(MatchAllowList, nil)
	return r
}

// NewSSMPolicyRuleWithOptions returns a rule using mode. extraARNs extend the
// default allow-list; an error is returned for any ARN that does not parse.
func NewSSMPolicyRuleWithOptions(mode MatchMode, extraARNs []string) (SSMPolicyRule, error) {
	if mode == "" {
		mode = MatchAllowList
	}
	if mode != MatchAllowList && mode != MatchSubstring {
		return SSMPolicyRule{}, fmt.Errorf("unknown IAM match mode %q", mode)
	}

	allowed := make(map[string]struct{}, len(DefaultSSMPolicyARNs)+len(extraARNs))
	for _, a := range append(append([]string{}, DefaultSSMPolicyARNs...), extraARNs...) {
		key, err := policyKey(a)
		if err != nil {
			return SSMPolicyRule{}, err
		}
		allowed[key] = struct{}{}
	}
	return SSMPolicyRule{mode: mode, allowed: allowed}, nil
}

func (r SSMPolicyRule) ID() string                { return "IAM_SSM_POLICY_ATTACHED" }
func (r SSMPolicyRule) Name() string              { return "SSM Policy Attached To Instance Role" }
func (r SSMPolicyRule) Kind() models.ResourceKind { return models.KindIAMRolePolicy }

// Mode returns the effective match mode.
func (r SSMPolicyRule) Mode() MatchMode {
	if r.mode == "" {
		return MatchAllowList
	}
	return r.mode
}

// Matches reports whether p is an SSM policy under the rule's mode.
func (r SSMPolicyRule) Matches(p models.PolicyDescriptor) bool {
	if r.Mode() == MatchSubstring {
		return strings.Contains(p.Name, "SSM") || strings.Contains(p.ARN, "AmazonSSM")
	}

	key, err := policyKey(p.ARN)
	if err != nil {
		return false
	}
	allowed := r.allowed
	if allowed == nil {
		allowed = NewSSMPolicyRule().allowed
	}
	_, ok := allowed[key]
	return ok
}

// Matching returns the attached policies in cfg that the rule would detach,
// in attachment order.
func (r SSMPolicyRule) Matching(cfg models.Configuration) []models.PolicyDescriptor {
	var out []models.PolicyDescriptor
	for _, p := range cfg.Policies {
		if r.Matches(p) {
			out = append(out, p)
		}
	}
	return out
}

// NeedsRemediation is true iff at least one attached policy matches.
func (r SSMPolicyRule) NeedsRemediation(cfg models.Configuration) bool {
	return len(r.Matching(cfg)) > 0
}

// policyKey reduces a policy ARN to service:account:resource.
func policyKey(policyARN string) (string, error) {
	a, err := arn.Parse(policyARN)
	if err != nil {
		return "", fmt.Errorf("parse policy ARN %q: %w", policyARN, err)
	}
	if a.Service != "iam" || !strings.HasPrefix(a.Resource, "policy/") {
		return "", fmt.Errorf("ARN %q is not an IAM policy", policyARN)
	}
	return a.Service + ":" + a.AccountID + ":" + a.Resource, nil
}
