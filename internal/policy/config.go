package policy

// PolicyConfig is the optional remediation policy file (dpr.yaml).
// A nil *PolicyConfig means "no policy loaded": every rule is enabled with
// its default settings.
type PolicyConfig struct {
	Version int                   `yaml:"version"`
	Rules   map[string]RuleConfig `yaml:"rules"`
	IAM     IAMConfig             `yaml:"iam"`
	S3      S3Config              `yaml:"s3"`
}

// RuleConfig toggles a single rule. Enabled is a pointer so that an absent
// key can be told apart from an explicit false.
type RuleConfig struct {
	Enabled *bool `yaml:"enabled,omitempty"`
}

// IAMConfig tunes SSM policy matching.
type IAMConfig struct {
	// MatchMode is "allowlist" (default) or "substring".
	MatchMode string `yaml:"match_mode,omitempty"`

	// PolicyARNs extends the built-in SSM managed policy allow-list.
	PolicyARNs []string `yaml:"policy_arns,omitempty"`
}

// S3Config selects the Block Public Access remediation direction.
type S3Config struct {
	// Mode is "enforce" (default) or "disable".
	Mode string `yaml:"mode,omitempty"`
}
