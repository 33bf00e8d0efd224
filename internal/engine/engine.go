// Package engine drives remediation targets through their lifecycle:
// list, inspect, decide, and (unless dry-running) remediate.
package engine

import (
	"context"

	"github.com/pankaj-dahiya-devops/dp-remediate/internal/models"
)

// Target is one remediation flow: a Lister, an Inspector, a predicate, and a
// Remediator for a single resource kind.
//
// Target implementations own all provider access; the Runner never calls the
// AWS SDK directly.
type Target interface {
	// Kind returns the resource kind this target enumerates.
	Kind() models.ResourceKind

	// RuleID returns the ID of the predicate applied to each resource.
	RuleID() string

	// List enumerates candidate resources. A List failure aborts the target.
	List(ctx context.Context) ([]models.Resource, error)

	// Inspect reads the remediation-relevant configuration of one resource.
	Inspect(ctx context.Context, res models.Resource) (models.Configuration, error)

	// NeedsRemediation applies the target's predicate. It must be pure.
	NeedsRemediation(cfg models.Configuration) bool

	// Remediate issues the corrective mutations and returns the actions that
	// were applied, including the ones applied before a failure.
	Remediate(ctx context.Context, res models.Resource, cfg models.Configuration) ([]models.Action, error)
}

// Options configures a Runner.
type Options struct {
	// DryRun evaluates every resource but issues no mutation. Resources that
	// need remediation end in PLANNED.
	DryRun bool

	// Verify re-inspects each remediated resource. If the predicate still
	// holds the outcome is FAILED.
	Verify bool

	// Profile and AccountID are copied onto the report.
	Profile   string
	AccountID string
}
