package awsremediation

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/arn"
	ec2svc "github.com/aws/aws-sdk-go-v2/service/ec2"
	iamsvc "github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/rs/zerolog"

	"github.com/pankaj-dahiya-devops/dp-remediate/internal/apperr"
	"github.com/pankaj-dahiya-devops/dp-remediate/internal/models"
	"github.com/pankaj-dahiya-devops/dp-remediate/internal/providers/aws/common"
	"github.com/pankaj-dahiya-devops/dp-remediate/internal/rules"
)

// IAMRoleTarget detaches SSM managed policies from the IAM roles that back
// EC2 instance profiles.
//
// Listing walks every EC2 instance, resolves its instance profile to roles,
// and yields one resource per distinct role. Instance IDs sharing a role are
// carried in Resource.Related.
type IAMRoleTarget struct {
	ec2    common.EC2Client
	iam    common.IAMClient
	rule   rules.SSMPolicyRule
	region string
	log    zerolog.Logger
}

// NewIAMRoleTarget returns a target bound to the EC2 and IAM clients of cs.
func NewIAMRoleTarget(cs *common.ClientSet, region string, rule rules.SSMPolicyRule, log zerolog.Logger) *IAMRoleTarget {
	return &IAMRoleTarget{
		ec2:    cs.EC2,
		iam:    cs.IAM,
		rule:   rule,
		region: region,
		log:    log.With().Str("kind", string(models.KindIAMRolePolicy)).Logger(),
	}
}

func (t *IAMRoleTarget) Kind() models.ResourceKind { return models.KindIAMRolePolicy }
func (t *IAMRoleTarget) RuleID() string            { return t.rule.ID() }

// instanceProfileRef links an instance to the profile name in its ARN.
type instanceProfileRef struct {
	instanceID string
	profile    string
}

// List enumerates EC2 instances and resolves their instance profiles to
// roles. The instance profile listing is fetched once per call.
func (t *IAMRoleTarget) List(ctx context.Context) ([]models.Resource, error) {
	refs, err := t.instanceProfiles(ctx)
	if err != nil {
		return nil, err
	}
	if len(refs) == 0 {
		return nil, nil
	}

	profiles, err := t.profileRoles(ctx)
	if err != nil {
		return nil, err
	}

	var resources []models.Resource
	index := make(map[string]int)
	for _, ref := range refs {
		roles, ok := profiles[ref.profile]
		if !ok {
			t.log.Warn().
				Err(apperr.NotFound("resolve instance profile", ref.profile, nil)).
				Str("instance_id", ref.instanceID).
				Msg("instance profile not found in account listing")
			continue
		}
		if len(roles) == 0 {
			t.log.Info().
				Str("instance_id", ref.instanceID).
				Str("instance_profile", ref.profile).
				Msg("instance profile has no roles")
			continue
		}
		for _, role := range roles {
			i, seen := index[role]
			if !seen {
				i = len(resources)
				index[role] = i
				resources = append(resources, models.Resource{
					ID:     role,
					Kind:   models.KindIAMRolePolicy,
					Region: t.region,
				})
			}
			resources[i].Related = appendUnique(resources[i].Related, ref.instanceID)
		}
	}
	return resources, nil
}

// instanceProfiles pages DescribeInstances and returns every instance that
// has an instance profile attached, logging the inventory as it goes.
func (t *IAMRoleTarget) instanceProfiles(ctx context.Context) ([]instanceProfileRef, error) {
	paginator := ec2svc.NewDescribeInstancesPaginator(t.ec2, &ec2svc.DescribeInstancesInput{})
	var refs []instanceProfileRef
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, classify("describe EC2 instances", "", err)
		}
		for _, res := range page.Reservations {
			for _, inst := range res.Instances {
				id := aws.ToString(inst.InstanceId)
				var state string
				if inst.State != nil {
					state = string(inst.State.Name)
				}
				t.log.Info().Str("instance_id", id).Str("state", state).Msg("ec2 instance")

				if inst.IamInstanceProfile == nil || inst.IamInstanceProfile.Arn == nil {
					t.log.Debug().Str("instance_id", id).Msg("no instance profile attached")
					continue
				}
				name, err := profileNameFromARN(aws.ToString(inst.IamInstanceProfile.Arn))
				if err != nil {
					t.log.Warn().Err(err).Str("instance_id", id).Msg("skipping instance")
					continue
				}
				refs = append(refs, instanceProfileRef{instanceID: id, profile: name})
			}
		}
	}
	return refs, nil
}

// profileRoles pages ListInstanceProfiles and maps profile name to role names.
func (t *IAMRoleTarget) profileRoles(ctx context.Context) (map[string][]string, error) {
	paginator := iamsvc.NewListInstanceProfilesPaginator(t.iam, &iamsvc.ListInstanceProfilesInput{})
	profiles := make(map[string][]string)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, classify("list instance profiles", "", err)
		}
		for _, p := range page.InstanceProfiles {
			name := aws.ToString(p.InstanceProfileName)
			roles := make([]string, 0, len(p.Roles))
			for _, r := range p.Roles {
				roles = append(roles, aws.ToString(r.RoleName))
			}
			profiles[name] = roles
		}
	}
	return profiles, nil
}

// Inspect lists the managed policies attached to the role.
func (t *IAMRoleTarget) Inspect(ctx context.Context, res models.Resource) (models.Configuration, error) {
	paginator := iamsvc.NewListAttachedRolePoliciesPaginator(t.iam, &iamsvc.ListAttachedRolePoliciesInput{
		RoleName: aws.String(res.ID),
	})
	var policies []models.PolicyDescriptor
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return models.Configuration{}, classify("list attached role policies", res.ID, err)
		}
		for _, p := range page.AttachedPolicies {
			policies = append(policies, models.PolicyDescriptor{
				Name: aws.ToString(p.PolicyName),
				ARN:  aws.ToString(p.PolicyArn),
			})
		}
	}
	return models.Configuration{Policies: policies}, nil
}

func (t *IAMRoleTarget) NeedsRemediation(cfg models.Configuration) bool {
	return t.rule.NeedsRemediation(cfg)
}

// Remediate detaches each matching policy in order. It stops at the first
// failure; the returned actions are the detaches that succeeded.
func (t *IAMRoleTarget) Remediate(ctx context.Context, res models.Resource, cfg models.Configuration) ([]models.Action, error) {
	var actions []models.Action
	for _, p := range t.rule.Matching(cfg) {
		_, err := t.iam.DetachRolePolicy(ctx, &iamsvc.DetachRolePolicyInput{
			RoleName:  aws.String(res.ID),
			PolicyArn: aws.String(p.ARN),
		})
		if err != nil {
			return actions, classify("detach role policy "+p.ARN+" from", res.ID, err)
		}
		t.log.Info().
			Str("resource", res.ID).
			Str("policy_arn", p.ARN).
			Msg("policy detached")
		actions = append(actions, models.Action{Operation: "DetachRolePolicy", Target: p.ARN})
	}
	return actions, nil
}

// profileNameFromARN returns the final path segment of an instance profile
// ARN, e.g. "web" for arn:aws:iam::123456789012:instance-profile/app/web.
func profileNameFromARN(profileARN string) (string, error) {
	parsed, err := arn.Parse(profileARN)
	if err != nil {
		return "", fmt.Errorf("parse instance profile ARN %q: %w", profileARN, err)
	}
	name := parsed.Resource[strings.LastIndex(parsed.Resource, "/")+1:]
	if name == "" {
		return "", fmt.Errorf("instance profile ARN %q has no name", profileARN)
	}
	return name, nil
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}
