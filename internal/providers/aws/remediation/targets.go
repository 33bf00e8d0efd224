// Package awsremediation implements the AWS remediation targets: IAM roles
// carrying SSM managed policies, publicly accessible RDS instances, and S3
// buckets with non-compliant Block Public Access settings.
package awsremediation

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/pankaj-dahiya-devops/dp-remediate/internal/engine"
	"github.com/pankaj-dahiya-devops/dp-remediate/internal/models"
	"github.com/pankaj-dahiya-devops/dp-remediate/internal/providers/aws/common"
	"github.com/pankaj-dahiya-devops/dp-remediate/internal/rules"
)

var (
	_ engine.Target = (*IAMRoleTarget)(nil)
	_ engine.Target = (*RDSInstanceTarget)(nil)
	_ engine.Target = (*S3BucketTarget)(nil)
)

// Deps carries everything a target needs to talk to AWS.
type Deps struct {
	Session  *common.ProfileConfig
	Provider *common.DefaultAWSClientProvider
	SSMRule  rules.SSMPolicyRule
	S3Rule   rules.S3BlockPublicAccessRule
	Log      zerolog.Logger
}

// AllKinds lists the resource kinds in the order "all" runs them.
var AllKinds = []models.ResourceKind{
	models.KindIAMRolePolicy,
	models.KindRDSInstance,
	models.KindS3Bucket,
}

// NewTarget builds the target for kind.
func NewTarget(kind models.ResourceKind, d Deps) (engine.Target, error) {
	cs := d.Session.Clients
	region := d.Session.Region
	switch kind {
	case models.KindIAMRolePolicy:
		return NewIAMRoleTarget(cs, region, d.SSMRule, d.Log), nil
	case models.KindRDSInstance:
		return NewRDSInstanceTarget(cs, region, d.Log), nil
	case models.KindS3Bucket:
		var resolve S3ClientResolver
		if d.Provider != nil {
			cache := make(map[string]common.S3Client)
			resolve = func(r string) common.S3Client {
				c, ok := cache[r]
				if !ok {
					c = d.Provider.ClientsForRegion(d.Session, r).S3
					cache[r] = c
				}
				return c
			}
		}
		return NewS3BucketTarget(cs, region, d.S3Rule, resolve, d.Log), nil
	default:
		return nil, fmt.Errorf("unknown resource kind %q", kind)
	}
}
