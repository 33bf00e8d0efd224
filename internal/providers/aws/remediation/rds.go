package awsremediation

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	rdssvc "github.com/aws/aws-sdk-go-v2/service/rds"
	"github.com/rs/zerolog"

	"github.com/pankaj-dahiya-devops/dp-remediate/internal/apperr"
	"github.com/pankaj-dahiya-devops/dp-remediate/internal/models"
	"github.com/pankaj-dahiya-devops/dp-remediate/internal/providers/aws/common"
	"github.com/pankaj-dahiya-devops/dp-remediate/internal/rules"
)

// dbStatusAvailable is the RDS instance status once no modification is in
// progress.
const dbStatusAvailable = "available"

// RDSInstanceTarget turns off public accessibility on RDS DB instances.
type RDSInstanceTarget struct {
	client common.RDSClient
	rule   rules.RDSPublicAccessRule
	region string
	log    zerolog.Logger

	// requested holds identifiers this target has already modified, so a
	// re-inspection can report the change as pending while RDS applies it.
	requested map[string]struct{}
}

// NewRDSInstanceTarget returns a target bound to the RDS client of cs.
func NewRDSInstanceTarget(cs *common.ClientSet, region string, log zerolog.Logger) *RDSInstanceTarget {
	return &RDSInstanceTarget{
		client:    cs.RDS,
		region:    region,
		log:       log.With().Str("kind", string(models.KindRDSInstance)).Logger(),
		requested: make(map[string]struct{}),
	}
}

func (t *RDSInstanceTarget) Kind() models.ResourceKind { return models.KindRDSInstance }
func (t *RDSInstanceTarget) RuleID() string            { return t.rule.ID() }

// List pages DescribeDBInstances.
func (t *RDSInstanceTarget) List(ctx context.Context) ([]models.Resource, error) {
	paginator := rdssvc.NewDescribeDBInstancesPaginator(t.client, &rdssvc.DescribeDBInstancesInput{})
	var resources []models.Resource
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, classify("describe DB instances", "", err)
		}
		for _, db := range page.DBInstances {
			resources = append(resources, models.Resource{
				ID:     aws.ToString(db.DBInstanceIdentifier),
				Kind:   models.KindRDSInstance,
				Region: t.region,
			})
		}
	}
	return resources, nil
}

// Inspect describes one DB instance. When this target has already requested
// PubliclyAccessible=false and the instance is still being modified, the
// pending value is reported alongside the current one.
func (t *RDSInstanceTarget) Inspect(ctx context.Context, res models.Resource) (models.Configuration, error) {
	out, err := t.client.DescribeDBInstances(ctx, &rdssvc.DescribeDBInstancesInput{
		DBInstanceIdentifier: aws.String(res.ID),
	})
	if err != nil {
		return models.Configuration{}, classify("describe DB instance", res.ID, err)
	}
	if len(out.DBInstances) == 0 {
		return models.Configuration{}, apperr.NotFound("describe DB instance", res.ID,
			errors.New("no DB instance returned"))
	}
	db := out.DBInstances[0]

	public := aws.ToBool(db.PubliclyAccessible)
	flags := map[string]bool{models.FlagPubliclyAccessible: public}
	if _, ok := t.requested[res.ID]; ok && public && aws.ToString(db.DBInstanceStatus) != dbStatusAvailable {
		flags[models.FlagPendingPubliclyAccessible] = false
	}
	return models.Configuration{Flags: flags}, nil
}

func (t *RDSInstanceTarget) NeedsRemediation(cfg models.Configuration) bool {
	return t.rule.NeedsRemediation(cfg)
}

// Remediate issues ModifyDBInstance with PubliclyAccessible=false, applied
// immediately rather than in the next maintenance window.
func (t *RDSInstanceTarget) Remediate(ctx context.Context, res models.Resource, _ models.Configuration) ([]models.Action, error) {
	_, err := t.client.ModifyDBInstance(ctx, &rdssvc.ModifyDBInstanceInput{
		DBInstanceIdentifier: aws.String(res.ID),
		PubliclyAccessible:   aws.Bool(false),
		ApplyImmediately:     aws.Bool(true),
	})
	if err != nil {
		return nil, classify("modify DB instance", res.ID, err)
	}
	t.requested[res.ID] = struct{}{}
	t.log.Info().Str("resource", res.ID).Msg("public accessibility disabled")
	return []models.Action{{Operation: "ModifyDBInstance", Target: res.ID}}, nil
}
