package common

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
)

// Credentials enumerates the inputs to session construction. They come from
// flags, environment variables, or the config file; nothing is ever read from
// an interactive prompt.
//
// When AccessKeyID and SecretAccessKey are both empty the SDK default
// credential chain (environment, shared files, instance role) is used,
// optionally narrowed to Profile.
type Credentials struct {
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	Region          string
	Profile         string
}

// Static reports whether an explicit key pair was supplied.
func (c Credentials) Static() bool {
	return c.AccessKeyID != "" || c.SecretAccessKey != ""
}

// ProfileConfig is a resolved AWS session with its SDK configuration and
// initialised service clients. It is the client handle passed explicitly into
// every remediation target; it is read-only once constructed.
type ProfileConfig struct {
	// ProfileName is the shared-config profile, "default", or "static" when
	// an explicit key pair was supplied.
	ProfileName string

	// AccountID is the resolved AWS account ID (via STS).
	AccountID string

	// Region is the home region of this session.
	Region string

	// Config is the fully loaded AWS SDK v2 configuration.
	Config aws.Config

	// Clients holds initialised service clients scoped to Region.
	Clients *ClientSet
}

// AWSClientProvider builds authenticated sessions. It is the sole entry
// point for AWS credential handling; a failure here is an auth error and
// aborts the run before any resource is listed.
type AWSClientProvider interface {
	// Load resolves creds into a verified ProfileConfig.
	Load(ctx context.Context, creds Credentials) (*ProfileConfig, error)

	// ConfigForRegion clones cfg with the target region set.
	ConfigForRegion(cfg *ProfileConfig, region string) aws.Config
}
