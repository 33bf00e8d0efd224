package rules

import "github.com/pankaj-dahiya-devops/dp-remediate/internal/models"

// Rule is a remediation predicate: it decides from an inspected
// Configuration whether a resource needs its corrective mutation.
//
// Rules must be stateless and safe to call concurrently. They must never
// call the AWS SDK or read external state; everything they need is in the
// Configuration passed to them.
type Rule interface {
	// ID returns the unique, stable identifier for this rule
	// (e.g. "RDS_PUBLICLY_ACCESSIBLE").
	ID() string

	// Name returns a short human-readable rule name.
	Name() string

	// Kind returns the resource kind this rule evaluates.
	Kind() models.ResourceKind

	// NeedsRemediation reports whether cfg violates the rule.
	NeedsRemediation(cfg models.Configuration) bool
}

// RuleRegistry manages the set of known rules.
type RuleRegistry interface {
	// Register adds a rule to the registry. Panics on duplicate ID.
	Register(rule Rule)

	// All returns all registered rules in registration order.
	All() []Rule

	// Get returns the rule with the given ID.
	Get(id string) (Rule, bool)
}
