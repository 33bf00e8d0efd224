package rules

import (
	"fmt"

	"github.com/pankaj-dahiya-devops/dp-remediate/internal/models"
)

// DefaultRuleRegistry is a simple, ordered, in-memory registry.
// Register panics on duplicate rule IDs to catch wiring mistakes at startup.
type DefaultRuleRegistry struct {
	rules []Rule
	index map[string]Rule
}

// NewDefaultRuleRegistry returns an empty registry ready for rule registration.
func NewDefaultRuleRegistry() *DefaultRuleRegistry {
	return &DefaultRuleRegistry{
		index: make(map[string]Rule),
	}
}

// Register adds rule to the registry. Panics if the same ID is registered twice.
func (r *DefaultRuleRegistry) Register(rule Rule) {
	if _, exists := r.index[rule.ID()]; exists {
		panic(fmt.Sprintf("duplicate rule ID: %q", rule.ID()))
	}
	r.rules = append(r.rules, rule)
	r.index[rule.ID()] = rule
}

// All returns all registered rules in registration order.
func (r *DefaultRuleRegistry) All() []Rule {
	return r.rules
}

// Get returns the rule registered under id.
func (r *DefaultRuleRegistry) Get(id string) (Rule, bool) {
	rule, ok := r.index[id]
	return rule, ok
}

// ByKind returns the first registered rule evaluating kind.
func (r *DefaultRuleRegistry) ByKind(kind models.ResourceKind) (Rule, bool) {
	for _, rule := range r.rules {
		if rule.Kind() == kind {
			return rule, true
		}
	}
	return nil, false
}

// IDs returns the IDs of every registered rule in registration order.
func (r *DefaultRuleRegistry) IDs() []string {
	ids := make([]string, 0, len(r.rules))
	for _, rule := range r.rules {
		ids = append(ids, rule.ID())
	}
	return ids
}

// NewBuiltinRegistry returns a registry holding the three built-in rules with
// their default settings. Used wherever the full set of rule IDs is needed
// (policy validation, doctor).
func NewBuiltinRegistry() *DefaultRuleRegistry {
	reg := NewDefaultRuleRegistry()
	reg.Register(NewSSMPolicyRule())
	reg.Register(RDSPublicAccessRule{})
	reg.Register(S3BlockPublicAccessRule{})
	return reg
}
