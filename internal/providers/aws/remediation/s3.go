package awsremediation

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	s3svc "github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog"

	"github.com/pankaj-dahiya-devops/dp-remediate/internal/models"
	"github.com/pankaj-dahiya-devops/dp-remediate/internal/providers/aws/common"
	"github.com/pankaj-dahiya-devops/dp-remediate/internal/rules"
)

// S3ClientResolver returns an S3 client for the given region. An empty
// region means the session's home region.
type S3ClientResolver func(region string) common.S3Client

// S3BucketTarget writes the bucket-level Block Public Access configuration.
type S3BucketTarget struct {
	client  common.S3Client
	regions S3ClientResolver
	rule    rules.S3BlockPublicAccessRule
	region  string
	log     zerolog.Logger
}

// NewS3BucketTarget returns a target bound to the S3 client of cs. When
// resolve is non-nil, per-bucket calls go to a client in the bucket's region.
func NewS3BucketTarget(cs *common.ClientSet, region string, rule rules.S3BlockPublicAccessRule, resolve S3ClientResolver, log zerolog.Logger) *S3BucketTarget {
	return &S3BucketTarget{
		client:  cs.S3,
		regions: resolve,
		rule:    rule,
		region:  region,
		log:     log.With().Str("kind", string(models.KindS3Bucket)).Logger(),
	}
}

func (t *S3BucketTarget) Kind() models.ResourceKind { return models.KindS3Bucket }
func (t *S3BucketTarget) RuleID() string            { return t.rule.ID() }

// List pages ListBuckets. Each resource carries the bucket's region when S3
// reports it.
func (t *S3BucketTarget) List(ctx context.Context) ([]models.Resource, error) {
	paginator := s3svc.NewListBucketsPaginator(t.client, &s3svc.ListBucketsInput{})
	var resources []models.Resource
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, classify("list buckets", "", err)
		}
		for _, b := range page.Buckets {
			region := aws.ToString(b.BucketRegion)
			if region == "" {
				region = t.region
			}
			resources = append(resources, models.Resource{
				ID:     aws.ToString(b.Name),
				Kind:   models.KindS3Bucket,
				Region: region,
			})
		}
	}
	return resources, nil
}

// Inspect reads the bucket's Block Public Access configuration. A bucket with
// no configuration reports all four flags as false.
func (t *S3BucketTarget) Inspect(ctx context.Context, res models.Resource) (models.Configuration, error) {
	out, err := t.clientFor(res).GetPublicAccessBlock(ctx, &s3svc.GetPublicAccessBlockInput{
		Bucket: aws.String(res.ID),
	})
	if err != nil {
		if apiErrorCode(err) == codeNoPublicAccessBlock {
			return models.Configuration{Flags: blockPublicAccessFlags(nil)}, nil
		}
		return models.Configuration{}, classify("get public access block", res.ID, err)
	}
	return models.Configuration{Flags: blockPublicAccessFlags(out.PublicAccessBlockConfiguration)}, nil
}

func (t *S3BucketTarget) NeedsRemediation(cfg models.Configuration) bool {
	return t.rule.NeedsRemediation(cfg)
}

// Remediate writes all four flags to the rule's target value in one call.
func (t *S3BucketTarget) Remediate(ctx context.Context, res models.Resource, _ models.Configuration) ([]models.Action, error) {
	v := t.rule.TargetValue()
	_, err := t.clientFor(res).PutPublicAccessBlock(ctx, &s3svc.PutPublicAccessBlockInput{
		Bucket: aws.String(res.ID),
		PublicAccessBlockConfiguration: &s3types.PublicAccessBlockConfiguration{
			BlockPublicAcls:       aws.Bool(v),
			IgnorePublicAcls:      aws.Bool(v),
			BlockPublicPolicy:     aws.Bool(v),
			RestrictPublicBuckets: aws.Bool(v),
		},
	})
	if err != nil {
		return nil, classify("put public access block", res.ID, err)
	}
	t.log.Info().
		Str("resource", res.ID).
		Bool("value", v).
		Msg("block public access flags written")
	return []models.Action{{Operation: "PutPublicAccessBlock", Target: res.ID}}, nil
}

func (t *S3BucketTarget) clientFor(res models.Resource) common.S3Client {
	if t.regions == nil || res.Region == "" || res.Region == t.region {
		return t.client
	}
	return t.regions(res.Region)
}

func blockPublicAccessFlags(c *s3types.PublicAccessBlockConfiguration) map[string]bool {
	if c == nil {
		c = &s3types.PublicAccessBlockConfiguration{}
	}
	return map[string]bool{
		models.FlagBlockPublicAcls:       aws.ToBool(c.BlockPublicAcls),
		models.FlagIgnorePublicAcls:      aws.ToBool(c.IgnorePublicAcls),
		models.FlagBlockPublicPolicy:     aws.ToBool(c.BlockPublicPolicy),
		models.FlagRestrictPublicBuckets: aws.ToBool(c.RestrictPublicBuckets),
	}
}
