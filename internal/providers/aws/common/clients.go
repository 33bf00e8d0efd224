package common

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// ---------------------------------------------------------------------------
// Per-service client interfaces
//
// Each interface covers only the operations used by this project. Using narrow
// interfaces instead of the full SDK clients makes mocking in unit tests
// trivial: create a struct that satisfies the interface and return canned data.
// ---------------------------------------------------------------------------

// STSClient is the subset of STS operations used by the loader.
type STSClient interface {
	GetCallerIdentity(
		ctx context.Context,
		params *sts.GetCallerIdentityInput,
		optFns ...func(*sts.Options),
	) (*sts.GetCallerIdentityOutput, error)
}

// EC2Client covers instance enumeration for the IAM role target. It embeds
// the paginator interface so the SDK paginator can be used directly.
type EC2Client interface {
	ec2.DescribeInstancesAPIClient
}

// IAMClient covers instance profile resolution, attached policy inspection,
// and policy detachment.
type IAMClient interface {
	iam.ListInstanceProfilesAPIClient
	iam.ListAttachedRolePoliciesAPIClient
	DetachRolePolicy(
		ctx context.Context,
		params *iam.DetachRolePolicyInput,
		optFns ...func(*iam.Options),
	) (*iam.DetachRolePolicyOutput, error)
}

// RDSClient covers DB instance listing, inspection, and modification.
type RDSClient interface {
	rds.DescribeDBInstancesAPIClient
	ModifyDBInstance(
		ctx context.Context,
		params *rds.ModifyDBInstanceInput,
		optFns ...func(*rds.Options),
	) (*rds.ModifyDBInstanceOutput, error)
}

// S3Client covers bucket listing and Block Public Access reads and writes.
type S3Client interface {
	s3.ListBucketsAPIClient
	GetPublicAccessBlock(
		ctx context.Context,
		params *s3.GetPublicAccessBlockInput,
		optFns ...func(*s3.Options),
	) (*s3.GetPublicAccessBlockOutput, error)
	PutPublicAccessBlock(
		ctx context.Context,
		params *s3.PutPublicAccessBlockInput,
		optFns ...func(*s3.Options),
	) (*s3.PutPublicAccessBlockOutput, error)
}

// CloudWatchClient covers publishing run outcome metrics.
type CloudWatchClient interface {
	PutMetricData(
		ctx context.Context,
		params *cloudwatch.PutMetricDataInput,
		optFns ...func(*cloudwatch.Options),
	) (*cloudwatch.PutMetricDataOutput, error)
}

// ---------------------------------------------------------------------------
// ClientSet and ClientFactory
// ---------------------------------------------------------------------------

// ClientSet holds fully initialised AWS service clients for a given session
// and region. All fields are interfaces so they can be replaced with fakes in
// tests.
type ClientSet struct {
	STS        STSClient
	EC2        EC2Client
	IAM        IAMClient
	RDS        RDSClient
	S3         S3Client
	CloudWatch CloudWatchClient
}

// ClientFactory creates a ClientSet from an aws.Config.
// Swap this in tests to inject fake clients.
type ClientFactory func(cfg aws.Config) *ClientSet

// NewClientSet is the production ClientFactory. It constructs real AWS SDK
// clients from cfg.
func NewClientSet(cfg aws.Config) *ClientSet {
	return &ClientSet{
		STS:        sts.NewFromConfig(cfg),
		EC2:        ec2.NewFromConfig(cfg),
		IAM:        iam.NewFromConfig(cfg),
		RDS:        rds.NewFromConfig(cfg),
		S3:         s3.NewFromConfig(cfg),
		CloudWatch: cloudwatch.NewFromConfig(cfg),
	}
}
