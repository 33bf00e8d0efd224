package models

// ResourceKind identifies which remediation target a resource belongs to.
type ResourceKind string

const (
	KindIAMRolePolicy ResourceKind = "IAM_ROLE_POLICY"
	KindRDSInstance   ResourceKind = "RDS_INSTANCE"
	KindS3Bucket      ResourceKind = "S3_BUCKET"
)

// Resource is a single listed cloud resource. It is immutable for the
// duration of a run.
type Resource struct {
	// ID is the provider identifier: IAM role name, DB instance identifier,
	// or bucket name.
	ID string `json:"id"`

	Kind ResourceKind `json:"kind"`

	// Region the resource was listed from. IAM and S3 listings are global
	// and carry the region of the client that listed them.
	Region string `json:"region,omitempty"`

	// Related carries secondary identifiers discovered while listing, such
	// as the EC2 instance IDs whose instance profile resolves to an IAM role.
	Related []string `json:"related,omitempty"`
}

// PolicyDescriptor is an attached managed policy (IAM only).
type PolicyDescriptor struct {
	Name string `json:"name"`
	ARN  string `json:"arn"`
}

// Configuration is the inspected state of one resource. It is fetched fresh
// on every inspection and never cached across runs.
//
// Flags holds named boolean attributes (PubliclyAccessible, the four Block
// Public Access flags). Policies is populated for IAM roles only.
type Configuration struct {
	Flags    map[string]bool    `json:"flags,omitempty"`
	Policies []PolicyDescriptor `json:"policies,omitempty"`
}

// Flag returns the named flag and whether it was present.
func (c Configuration) Flag(name string) (value, ok bool) {
	if c.Flags == nil {
		return false, false
	}
	value, ok = c.Flags[name]
	return value, ok
}

// Configuration flag names.
const (
	FlagPubliclyAccessible        = "PubliclyAccessible"
	FlagPendingPubliclyAccessible = "PendingPubliclyAccessible"
	FlagBlockPublicAcls           = "BlockPublicAcls"
	FlagIgnorePublicAcls          = "IgnorePublicAcls"
	FlagBlockPublicPolicy         = "BlockPublicPolicy"
	FlagRestrictPublicBuckets     = "RestrictPublicBuckets"
)

// BlockPublicAccessFlags lists the four S3 Block Public Access flags in the
// order AWS documents them.
var BlockPublicAccessFlags = []string{
	FlagBlockPublicAcls,
	FlagIgnorePublicAcls,
	FlagBlockPublicPolicy,
	FlagRestrictPublicBuckets,
}
