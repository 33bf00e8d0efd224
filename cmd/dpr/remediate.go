package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pankaj-dahiya-devops/dp-remediate/internal/engine"
	"github.com/pankaj-dahiya-devops/dp-remediate/internal/metrics"
	"github.com/pankaj-dahiya-devops/dp-remediate/internal/models"
	"github.com/pankaj-dahiya-devops/dp-remediate/internal/output"
	"github.com/pankaj-dahiya-devops/dp-remediate/internal/policy"
	"github.com/pankaj-dahiya-devops/dp-remediate/internal/providers/aws/common"
	awsremediation "github.com/pankaj-dahiya-devops/dp-remediate/internal/providers/aws/remediation"
	"github.com/pankaj-dahiya-devops/dp-remediate/internal/rules"
)

// errRemediationFailed is returned after the report has been rendered when
// at least one resource or target failed. main turns it into exit status 1.
var errRemediationFailed = errors.New("remediation finished with failures")

func newRemediateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remediate",
		Short: "Find and fix AWS misconfigurations",
	}

	pf := cmd.PersistentFlags()
	pf.Bool("dry-run", false, "evaluate only; report what would change without mutating anything")
	pf.Bool("verify", false, "re-inspect each remediated resource and fail it if still non-compliant")
	pf.String("format", "table", `output format: "table" or "json"`)
	pf.Bool("no-color", false, "disable coloured table output")
	pf.String("metrics-file", "", "write Prometheus textfile metrics to this path")
	pf.String("cloudwatch-namespace", "", "publish outcome metrics to this CloudWatch namespace")
	pf.String("s3-mode", "", `S3 Block Public Access direction: "enforce" or "disable" (overrides the policy file)`)

	cmd.AddCommand(
		newRemediateKindCmd(a, "iam", "Detach SSM managed policies from EC2 instance roles", models.KindIAMRolePolicy),
		newRemediateKindCmd(a, "rds", "Disable public accessibility on RDS DB instances", models.KindRDSInstance),
		newS3Cmd(a),
		&cobra.Command{
			Use:   "all",
			Short: "Run the iam, rds and s3 remediations in order",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.runRemediation(cmd, awsremediation.AllKinds, true)
			},
		},
	)
	return cmd
}

func newRemediateKindCmd(a *app, use, short string, kind models.ResourceKind) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runRemediation(cmd, []models.ResourceKind{kind}, false)
		},
	}
}

func newS3Cmd(a *app) *cobra.Command {
	cmd := newRemediateKindCmd(a, "s3", "Apply S3 Block Public Access settings to every bucket", models.KindS3Bucket)
	cmd.Long = `Apply S3 Block Public Access settings to every bucket.

The default enforce mode remediates buckets with any of the four settings off
and turns all four on. This reverses the legacy scripts, which turned all four
off whenever any was on. Pass --s3-mode disable, or set s3.mode: disable in
dpr.yaml, to reproduce that direction.`
	return cmd
}

// runRemediation resolves rules and credentials, runs the targets for kinds,
// renders the report and emits metrics.
func (a *app) runRemediation(cmd *cobra.Command, kinds []models.ResourceKind, all bool) error {
	ctx := cmd.Context()
	cfg := a.cfg

	format, err := output.ParseFormat(cfg.Run.Format)
	if err != nil {
		return err
	}

	pc, _, err := a.loadPolicy()
	if err != nil {
		return err
	}
	ssmRule, err := policy.SSMRule(pc)
	if err != nil {
		return fmt.Errorf("iam policy: %w", err)
	}
	s3Rule, err := policy.S3Rule(pc, cfg.Run.S3Mode)
	if err != nil {
		return fmt.Errorf("s3 policy: %w", err)
	}

	registry := rules.NewDefaultRuleRegistry()
	registry.Register(ssmRule)
	registry.Register(rules.RDSPublicAccessRule{})
	registry.Register(s3Rule)

	var enabled []models.ResourceKind
	for _, kind := range kinds {
		rule, ok := registry.ByKind(kind)
		if !ok || !policy.RuleEnabled(rule.ID(), pc) {
			a.log.Warn().Str("kind", string(kind)).Msg("rule disabled by policy; skipping")
			continue
		}
		enabled = append(enabled, kind)
	}

	session, err := a.provider.Load(ctx, cfg.Credentials())
	if err != nil {
		return err
	}
	a.log.Info().
		Str("profile", session.ProfileName).
		Str("account_id", session.AccountID).
		Str("region", session.Region).
		Bool("dry_run", cfg.Run.DryRun).
		Msg("authenticated")

	deps := awsremediation.Deps{
		Session:  session,
		Provider: a.provider,
		SSMRule:  ssmRule,
		S3Rule:   s3Rule,
		Log:      a.log,
	}
	targets := make([]engine.Target, 0, len(enabled))
	for _, kind := range enabled {
		t, err := awsremediation.NewTarget(kind, deps)
		if err != nil {
			return err
		}
		targets = append(targets, t)
	}

	runner := engine.NewRunner(engine.Options{
		DryRun:    cfg.Run.DryRun,
		Verify:    cfg.Run.Verify,
		Profile:   session.ProfileName,
		AccountID: session.AccountID,
	}, a.log)

	var report *models.RunReport
	var runErr error
	if all || len(targets) != 1 {
		report, runErr = runner.RunAll(ctx, targets...)
	} else {
		report, runErr = runner.Run(ctx, targets[0])
	}
	if report == nil {
		return runErr
	}

	opts := output.TableOptions{
		Colored:        !cfg.Run.NoColor && !color.NoColor,
		IncludeRegion:  true,
		IncludeRelated: true,
	}
	if err := output.Render(cmd.OutOrStdout(), report, format, opts); err != nil {
		return fmt.Errorf("render report: %w", err)
	}

	a.emitMetrics(ctx, session.Clients.CloudWatch, report)

	if runErr != nil {
		return runErr
	}
	if report.HasFailures() {
		return errRemediationFailed
	}
	return nil
}

// emitMetrics writes the textfile and publishes CloudWatch metrics when
// configured. Failures are logged and never change the run result.
func (a *app) emitMetrics(ctx context.Context, cw common.CloudWatchClient, report *models.RunReport) {
	if path := a.cfg.Run.MetricsFile; path != "" {
		rec := metrics.NewRecorder()
		rec.Observe(report)
		if err := rec.WriteTextfile(path); err != nil {
			a.log.Error().Err(err).Str("path", path).Msg("write metrics textfile")
		} else {
			a.log.Debug().Str("path", path).Msg("metrics textfile written")
		}
	}

	if ns := a.cfg.Run.CloudWatchNamespace; ns != "" && cw != nil {
		if err := metrics.NewCloudWatchPublisher(cw, ns).Publish(ctx, report); err != nil {
			a.log.Error().Err(err).Str("namespace", ns).Msg("publish cloudwatch metrics")
		} else {
			a.log.Debug().Str("namespace", ns).Msg("cloudwatch metrics published")
		}
	}
}
