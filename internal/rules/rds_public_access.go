package rules

import "github.com/pankaj-dahiya-devops/dp-remediate/internal/models"

// RDSPublicAccessRule flags RDS instances with a publicly resolvable endpoint.
type RDSPublicAccessRule struct{}

func (r RDSPublicAccessRule) ID() string                { return "RDS_PUBLICLY_ACCESSIBLE" }
func (r RDSPublicAccessRule) Name() string              { return "RDS Instance Publicly Accessible" }
func (r RDSPublicAccessRule) Kind() models.ResourceKind { return models.KindRDSInstance }

// NeedsRemediation is true iff PubliclyAccessible is true. An instance with a
// pending modification to PubliclyAccessible=false is already being
// remediated and is not flagged again.
func (r RDSPublicAccessRule) NeedsRemediation(cfg models.Configuration) bool {
	public, _ := cfg.Flag(models.FlagPubliclyAccessible)
	if !public {
		return false
	}
	if pending, ok := cfg.Flag(models.FlagPendingPubliclyAccessible); ok && !pending {
		return false
	}
	return true
}
