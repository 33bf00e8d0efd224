package awsremediation

import (
	"context"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	ec2svc "github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	iamsvc "github.com/aws/aws-sdk-go-v2/service/iam"
	iamtypes "github.com/aws/aws-sdk-go-v2/service/iam/types"
	rdssvc "github.com/aws/aws-sdk-go-v2/service/rds"
	rdstypes "github.com/aws/aws-sdk-go-v2/service/rds/types"
	s3svc "github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/pankaj-dahiya-devops/dp-remediate/internal/providers/aws/common"
)

// pageIndex decodes the fake pagination token: nil is page 0.
func pageIndex(token *string) int {
	if token == nil {
		return 0
	}
	i, _ := strconv.Atoi(*token)
	return i
}

func nextToken(i, n int) *string {
	if i+1 >= n {
		return nil
	}
	return aws.String(strconv.Itoa(i + 1))
}

// pageBounds slices n items into pages of size, starting at token. A size
// of zero or less returns everything in a single page.
func pageBounds(token *string, n, size int) (lo, hi int, next *string) {
	if size <= 0 {
		return 0, n, nil
	}
	lo = pageIndex(token) * size
	hi = min(lo+size, n)
	if hi < n {
		next = aws.String(strconv.Itoa(pageIndex(token) + 1))
	}
	return lo, hi, next
}

func apiError(code string) error {
	return &smithy.GenericAPIError{Code: code, Message: code}
}

// ── EC2 ───────────────────────────────────────────────────────────────────────

type fakeEC2 struct {
	pages [][]ec2types.Instance
	err   error
	calls int
}

func (f *fakeEC2) DescribeInstances(_ context.Context, in *ec2svc.DescribeInstancesInput, _ ...func(*ec2svc.Options)) (*ec2svc.DescribeInstancesOutput, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if len(f.pages) == 0 {
		return &ec2svc.DescribeInstancesOutput{}, nil
	}
	i := pageIndex(in.NextToken)
	return &ec2svc.DescribeInstancesOutput{
		Reservations: []ec2types.Reservation{{Instances: f.pages[i]}},
		NextToken:    nextToken(i, len(f.pages)),
	}, nil
}

func instance(id, profileARN string) ec2types.Instance {
	inst := ec2types.Instance{
		InstanceId: aws.String(id),
		State:      &ec2types.InstanceState{Name: ec2types.InstanceStateNameRunning},
	}
	if profileARN != "" {
		inst.IamInstanceProfile = &ec2types.IamInstanceProfile{Arn: aws.String(profileARN)}
	}
	return inst
}

// ── IAM ───────────────────────────────────────────────────────────────────────

type detachCall struct {
	role      string
	policyARN string
}

type fakeIAM struct {
	profilePages [][]iamtypes.InstanceProfile
	attached     map[string][]iamtypes.AttachedPolicy
	profilesErr  error
	attachedErr  error
	detachErr    map[string]error

	// attachedPageSize pages ListAttachedRolePolicies when positive.
	attachedPageSize int

	listProfileCalls  int
	listAttachedCalls int
	detached          []detachCall
}

func (f *fakeIAM) ListInstanceProfiles(_ context.Context, in *iamsvc.ListInstanceProfilesInput, _ ...func(*iamsvc.Options)) (*iamsvc.ListInstanceProfilesOutput, error) {
	f.listProfileCalls++
	if f.profilesErr != nil {
		return nil, f.profilesErr
	}
	if len(f.profilePages) == 0 {
		return &iamsvc.ListInstanceProfilesOutput{}, nil
	}
	i := pageIndex(in.Marker)
	next := nextToken(i, len(f.profilePages))
	return &iamsvc.ListInstanceProfilesOutput{
		InstanceProfiles: f.profilePages[i],
		IsTruncated:      next != nil,
		Marker:           next,
	}, nil
}

func (f *fakeIAM) ListAttachedRolePolicies(_ context.Context, in *iamsvc.ListAttachedRolePoliciesInput, _ ...func(*iamsvc.Options)) (*iamsvc.ListAttachedRolePoliciesOutput, error) {
	f.listAttachedCalls++
	if f.attachedErr != nil {
		return nil, f.attachedErr
	}
	all := f.attached[aws.ToString(in.RoleName)]
	lo, hi, next := pageBounds(in.Marker, len(all), f.attachedPageSize)
	return &iamsvc.ListAttachedRolePoliciesOutput{
		AttachedPolicies: all[lo:hi],
		IsTruncated:      next != nil,
		Marker:           next,
	}, nil
}

func (f *fakeIAM) DetachRolePolicy(_ context.Context, in *iamsvc.DetachRolePolicyInput, _ ...func(*iamsvc.Options)) (*iamsvc.DetachRolePolicyOutput, error) {
	policyARN := aws.ToString(in.PolicyArn)
	if err := f.detachErr[policyARN]; err != nil {
		return nil, err
	}
	role := aws.ToString(in.RoleName)
	f.detached = append(f.detached, detachCall{role: role, policyARN: policyARN})

	var kept []iamtypes.AttachedPolicy
	for _, p := range f.attached[role] {
		if aws.ToString(p.PolicyArn) != policyARN {
			kept = append(kept, p)
		}
	}
	f.attached[role] = kept
	return &iamsvc.DetachRolePolicyOutput{}, nil
}

func profile(name string, roles ...string) iamtypes.InstanceProfile {
	p := iamtypes.InstanceProfile{InstanceProfileName: aws.String(name)}
	for _, r := range roles {
		p.Roles = append(p.Roles, iamtypes.Role{RoleName: aws.String(r)})
	}
	return p
}

func attached(name, policyARN string) iamtypes.AttachedPolicy {
	return iamtypes.AttachedPolicy{PolicyName: aws.String(name), PolicyArn: aws.String(policyARN)}
}

// ── RDS ───────────────────────────────────────────────────────────────────────

type fakeDB struct {
	id     string
	public bool
	status string
}

type fakeRDS struct {
	dbs         []*fakeDB
	listErr     error
	describeErr error
	modifyErr   error
	// deferApply leaves PubliclyAccessible unchanged after a modify and puts
	// the instance into the "modifying" state, as RDS does in practice.
	deferApply bool
	// pageSize pages the unfiltered listing when positive.
	pageSize int

	listCalls int
	modifies  []*rdssvc.ModifyDBInstanceInput
}

func (f *fakeRDS) DescribeDBInstances(_ context.Context, in *rdssvc.DescribeDBInstancesInput, _ ...func(*rdssvc.Options)) (*rdssvc.DescribeDBInstancesOutput, error) {
	if in.DBInstanceIdentifier == nil {
		f.listCalls++
		if f.listErr != nil {
			return nil, f.listErr
		}
		lo, hi, next := pageBounds(in.Marker, len(f.dbs), f.pageSize)
		out := &rdssvc.DescribeDBInstancesOutput{Marker: next}
		for _, db := range f.dbs[lo:hi] {
			out.DBInstances = append(out.DBInstances, db.toSDK())
		}
		return out, nil
	}
	if f.describeErr != nil {
		return nil, f.describeErr
	}
	for _, db := range f.dbs {
		if db.id == aws.ToString(in.DBInstanceIdentifier) {
			return &rdssvc.DescribeDBInstancesOutput{DBInstances: []rdstypes.DBInstance{db.toSDK()}}, nil
		}
	}
	return nil, apiError("DBInstanceNotFound")
}

func (f *fakeRDS) ModifyDBInstance(_ context.Context, in *rdssvc.ModifyDBInstanceInput, _ ...func(*rdssvc.Options)) (*rdssvc.ModifyDBInstanceOutput, error) {
	if f.modifyErr != nil {
		return nil, f.modifyErr
	}
	f.modifies = append(f.modifies, in)
	for _, db := range f.dbs {
		if db.id != aws.ToString(in.DBInstanceIdentifier) {
			continue
		}
		if f.deferApply {
			db.status = "modifying"
		} else {
			db.public = aws.ToBool(in.PubliclyAccessible)
		}
	}
	return &rdssvc.ModifyDBInstanceOutput{}, nil
}

func (db *fakeDB) toSDK() rdstypes.DBInstance {
	status := db.status
	if status == "" {
		status = "available"
	}
	return rdstypes.DBInstance{
		DBInstanceIdentifier: aws.String(db.id),
		PubliclyAccessible:   aws.Bool(db.public),
		DBInstanceStatus:     aws.String(status),
	}
}

// ── S3 ────────────────────────────────────────────────────────────────────────

type fakeS3 struct {
	buckets []s3types.Bucket
	// blocks holds each bucket's configuration; a missing entry means S3
	// reports NoSuchPublicAccessBlockConfiguration.
	blocks  map[string]*s3types.PublicAccessBlockConfiguration
	listErr error
	getErr  error
	putErr  error
	// pageSize pages ListBuckets when positive.
	pageSize int

	listCalls int
	gets      []string
	puts []*s3svc.PutPublicAccessBlockInput
}

func (f *fakeS3) ListBuckets(_ context.Context, in *s3svc.ListBucketsInput, _ ...func(*s3svc.Options)) (*s3svc.ListBucketsOutput, error) {
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	lo, hi, next := pageBounds(in.ContinuationToken, len(f.buckets), f.pageSize)
	return &s3svc.ListBucketsOutput{Buckets: f.buckets[lo:hi], ContinuationToken: next}, nil
}

func (f *fakeS3) GetPublicAccessBlock(_ context.Context, in *s3svc.GetPublicAccessBlockInput, _ ...func(*s3svc.Options)) (*s3svc.GetPublicAccessBlockOutput, error) {
	name := aws.ToString(in.Bucket)
	f.gets = append(f.gets, name)
	if f.getErr != nil {
		return nil, f.getErr
	}
	cfg, ok := f.blocks[name]
	if !ok {
		return nil, apiError(codeNoPublicAccessBlock)
	}
	return &s3svc.GetPublicAccessBlockOutput{PublicAccessBlockConfiguration: cfg}, nil
}

func (f *fakeS3) PutPublicAccessBlock(_ context.Context, in *s3svc.PutPublicAccessBlockInput, _ ...func(*s3svc.Options)) (*s3svc.PutPublicAccessBlockOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	f.puts = append(f.puts, in)
	if f.blocks == nil {
		f.blocks = make(map[string]*s3types.PublicAccessBlockConfiguration)
	}
	c := *in.PublicAccessBlockConfiguration
	f.blocks[aws.ToString(in.Bucket)] = &c
	return &s3svc.PutPublicAccessBlockOutput{}, nil
}

func bucket(name, region string) s3types.Bucket {
	b := s3types.Bucket{Name: aws.String(name)}
	if region != "" {
		b.BucketRegion = aws.String(region)
	}
	return b
}

func blockConfig(acls, ignore, policy, restrict bool) *s3types.PublicAccessBlockConfiguration {
	return &s3types.PublicAccessBlockConfiguration{
		BlockPublicAcls:       aws.Bool(acls),
		IgnorePublicAcls:      aws.Bool(ignore),
		BlockPublicPolicy:     aws.Bool(policy),
		RestrictPublicBuckets: aws.Bool(restrict),
	}
}

// ── ClientSet ─────────────────────────────────────────────────────────────────

func clientSet(ec2 *fakeEC2, iam *fakeIAM, rds *fakeRDS, s3 *fakeS3) *common.ClientSet {
	cs := &common.ClientSet{}
	if ec2 != nil {
		cs.EC2 = ec2
	}
	if iam != nil {
		cs.IAM = iam
	}
	if rds != nil {
		cs.RDS = rds
	}
	if s3 != nil {
		cs.S3 = s3
	}
	return cs
}
