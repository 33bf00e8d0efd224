package common

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/pankaj-dahiya-devops/dp-remediate/internal/apperr"
)

// DefaultRegion is used when neither the credentials nor the shared config
// name a region.
const DefaultRegion = "us-east-1"

// DefaultAWSClientProvider is the production implementation of AWSClientProvider.
//
// Inject a custom ClientFactory via NewDefaultAWSClientProviderWithFactory to
// replace real SDK clients with fakes in unit tests.
type DefaultAWSClientProvider struct {
	factory ClientFactory
}

// NewDefaultAWSClientProvider returns a provider backed by the real AWS SDK.
func NewDefaultAWSClientProvider() *DefaultAWSClientProvider {
	return &DefaultAWSClientProvider{factory: NewClientSet}
}

// NewDefaultAWSClientProviderWithFactory returns a provider that uses f to
// create its ClientSet. Pass a fake factory in tests.
func NewDefaultAWSClientProviderWithFactory(f ClientFactory) *DefaultAWSClientProvider {
	return &DefaultAWSClientProvider{factory: f}
}

// Load builds an SDK config from creds, constructs clients, and verifies the
// session with STS GetCallerIdentity. Every failure is returned as an
// apperr AUTH_ERROR.
func (p *DefaultAWSClientProvider) Load(ctx context.Context, creds Credentials) (*ProfileConfig, error) {
	opts := []func(*awsconfig.LoadOptions) error{}
	if creds.Region != "" {
		opts = append(opts, awsconfig.WithRegion(creds.Region))
	}

	name := profileDisplayName(creds.Profile)
	switch {
	case creds.Static():
		if creds.AccessKeyID == "" || creds.SecretAccessKey == "" {
			return nil, apperr.Auth("load credentials",
				errors.New("access key ID and secret access key must be supplied together"))
		}
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(creds.AccessKeyID, creds.SecretAccessKey, creds.SessionToken),
		))
		name = "static"
	case creds.Profile != "":
		opts = append(opts, awsconfig.WithSharedConfigProfile(creds.Profile))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, apperr.Auth(fmt.Sprintf("load AWS profile %q", name), err)
	}

	// Fall back to us-east-1 when no region is configured so that all SDK
	// clients can be constructed successfully.
	if cfg.Region == "" {
		cfg.Region = DefaultRegion
	}

	clients := p.factory(cfg)

	accountID, err := resolveAccountID(ctx, clients.STS)
	if err != nil {
		return nil, apperr.Auth(fmt.Sprintf("resolve account ID for profile %q", name), err)
	}

	return &ProfileConfig{
		ProfileName: name,
		AccountID:   accountID,
		Region:      cfg.Region,
		Config:      cfg,
		Clients:     clients,
	}, nil
}

// ConfigForRegion returns a copy of cfg.Config with Region set to region.
func (p *DefaultAWSClientProvider) ConfigForRegion(cfg *ProfileConfig, region string) aws.Config {
	regional := cfg.Config
	regional.Region = region
	return regional
}

// ClientsForRegion returns clients scoped to region, reusing the home-region
// clients when region is empty or matches.
func (p *DefaultAWSClientProvider) ClientsForRegion(cfg *ProfileConfig, region string) *ClientSet {
	if region == "" || region == cfg.Region {
		return cfg.Clients
	}
	return p.factory(p.ConfigForRegion(cfg, region))
}

// profileDisplayName returns a human-readable profile identifier. An empty
// string (the default profile) is shown as "default".
func profileDisplayName(profile string) string {
	if profile == "" {
		return "default"
	}
	return profile
}

// resolveAccountID calls STS GetCallerIdentity to retrieve the numeric AWS
// account ID for the credentials currently loaded in stsClient.
func resolveAccountID(ctx context.Context, stsClient STSClient) (string, error) {
	out, err := stsClient.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", fmt.Errorf("STS GetCallerIdentity: %w", err)
	}
	if out.Account == nil {
		return "", fmt.Errorf("STS GetCallerIdentity returned nil account")
	}
	return aws.ToString(out.Account), nil
}
