package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	cwsvc "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	ec2svc "github.com/aws/aws-sdk-go-v2/service/ec2"
	iamsvc "github.com/aws/aws-sdk-go-v2/service/iam"
	rdssvc "github.com/aws/aws-sdk-go-v2/service/rds"
	rdstypes "github.com/aws/aws-sdk-go-v2/service/rds/types"
	s3svc "github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	stssvc "github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/pankaj-dahiya-devops/dp-remediate/internal/providers/aws/common"
)

// ── fake AWS clients ──────────────────────────────────────────────────────────

type fakeSTS struct{ err error }

func (f *fakeSTS) GetCallerIdentity(_ context.Context, _ *stssvc.GetCallerIdentityInput, _ ...func(*stssvc.Options)) (*stssvc.GetCallerIdentityOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &stssvc.GetCallerIdentityOutput{Account: aws.String("111122223333")}, nil
}

// fakeEC2 has no instances, so the IAM target lists nothing.
type fakeEC2 struct{}

func (f *fakeEC2) DescribeInstances(_ context.Context, _ *ec2svc.DescribeInstancesInput, _ ...func(*ec2svc.Options)) (*ec2svc.DescribeInstancesOutput, error) {
	return &ec2svc.DescribeInstancesOutput{}, nil
}

type fakeIAM struct{ detaches int }

func (f *fakeIAM) ListInstanceProfiles(_ context.Context, _ *iamsvc.ListInstanceProfilesInput, _ ...func(*iamsvc.Options)) (*iamsvc.ListInstanceProfilesOutput, error) {
	return &iamsvc.ListInstanceProfilesOutput{}, nil
}

func (f *fakeIAM) ListAttachedRolePolicies(_ context.Context, _ *iamsvc.ListAttachedRolePoliciesInput, _ ...func(*iamsvc.Options)) (*iamsvc.ListAttachedRolePoliciesOutput, error) {
	return &iamsvc.ListAttachedRolePoliciesOutput{}, nil
}

func (f *fakeIAM) DetachRolePolicy(_ context.Context, _ *iamsvc.DetachRolePolicyInput, _ ...func(*iamsvc.Options)) (*iamsvc.DetachRolePolicyOutput, error) {
	f.detaches++
	return &iamsvc.DetachRolePolicyOutput{}, nil
}

// fakeRDS holds a single DB instance named "db-1".
type fakeRDS struct {
	public   bool
	listErr  error
	modifies int
}

func (f *fakeRDS) DescribeDBInstances(_ context.Context, in *rdssvc.DescribeDBInstancesInput, _ ...func(*rdssvc.Options)) (*rdssvc.DescribeDBInstancesOutput, error) {
	if in.DBInstanceIdentifier == nil && f.listErr != nil {
		return nil, f.listErr
	}
	return &rdssvc.DescribeDBInstancesOutput{DBInstances: []rdstypes.DBInstance{{
		DBInstanceIdentifier: aws.String("db-1"),
		DBInstanceStatus:     aws.String("available"),
		PubliclyAccessible:   aws.Bool(f.public),
	}}}, nil
}

func (f *fakeRDS) ModifyDBInstance(_ context.Context, in *rdssvc.ModifyDBInstanceInput, _ ...func(*rdssvc.Options)) (*rdssvc.ModifyDBInstanceOutput, error) {
	f.modifies++
	f.public = aws.ToBool(in.PubliclyAccessible)
	return &rdssvc.ModifyDBInstanceOutput{}, nil
}

// fakeS3 holds a single bucket named "bucket-1" with every flag false.
type fakeS3 struct{ puts int }

func (f *fakeS3) ListBuckets(_ context.Context, _ *s3svc.ListBucketsInput, _ ...func(*s3svc.Options)) (*s3svc.ListBucketsOutput, error) {
	return &s3svc.ListBucketsOutput{Buckets: []s3types.Bucket{{
		Name:         aws.String("bucket-1"),
		BucketRegion: aws.String("us-east-1"),
	}}}, nil
}

func (f *fakeS3) GetPublicAccessBlock(_ context.Context, _ *s3svc.GetPublicAccessBlockInput, _ ...func(*s3svc.Options)) (*s3svc.GetPublicAccessBlockOutput, error) {
	on := f.puts > 0
	return &s3svc.GetPublicAccessBlockOutput{PublicAccessBlockConfiguration: &s3types.PublicAccessBlockConfiguration{
		BlockPublicAcls:       aws.Bool(on),
		IgnorePublicAcls:      aws.Bool(on),
		BlockPublicPolicy:     aws.Bool(on),
		RestrictPublicBuckets: aws.Bool(on),
	}}, nil
}

func (f *fakeS3) PutPublicAccessBlock(_ context.Context, _ *s3svc.PutPublicAccessBlockInput, _ ...func(*s3svc.Options)) (*s3svc.PutPublicAccessBlockOutput, error) {
	f.puts++
	return &s3svc.PutPublicAccessBlockOutput{}, nil
}

type fakeCloudWatch struct{ calls []*cwsvc.PutMetricDataInput }

func (f *fakeCloudWatch) PutMetricData(_ context.Context, in *cwsvc.PutMetricDataInput, _ ...func(*cwsvc.Options)) (*cwsvc.PutMetricDataOutput, error) {
	f.calls = append(f.calls, in)
	return &cwsvc.PutMetricDataOutput{}, nil
}

// ── helpers ───────────────────────────────────────────────────────────────────

type fakeAccount struct {
	sts *fakeSTS
	iam *fakeIAM
	rds *fakeRDS
	s3  *fakeS3
	cw  *fakeCloudWatch
}

func newFakeAccount() *fakeAccount {
	return &fakeAccount{
		sts: &fakeSTS{},
		iam: &fakeIAM{},
		rds: &fakeRDS{public: true},
		s3:  &fakeS3{},
		cw:  &fakeCloudWatch{},
	}
}

func (a *fakeAccount) provider() *common.DefaultAWSClientProvider {
	return common.NewDefaultAWSClientProviderWithFactory(func(aws.Config) *common.ClientSet {
		return &common.ClientSet{
			STS:        a.sts,
			EC2:        &fakeEC2{},
			IAM:        a.iam,
			RDS:        a.rds,
			S3:         a.s3,
			CloudWatch: a.cw,
		}
	})
}

// isolate runs the test in a fresh working directory with an empty HOME and
// no AWS or DPR environment, so neither .env, dpr.yaml nor shared config
// files leak in from the developer machine.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("HOME", dir)
	t.Setenv("AWS_CONFIG_FILE", filepath.Join(dir, "aws-config"))
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", filepath.Join(dir, "aws-credentials"))
	for _, k := range []string{
		"AWS_PROFILE", "AWS_REGION", "AWS_DEFAULT_REGION",
		"AWS_ACCESS_KEY_ID", "AWS_SECRET_ACCESS_KEY", "AWS_SESSION_TOKEN",
		"DPR_AWS_PROFILE", "DPR_AWS_REGION", "DPR_RUN_DRY_RUN", "DPR_RUN_FORMAT",
	} {
		t.Setenv(k, "")
	}
	return dir
}

var errBoom = errors.New("boom")
