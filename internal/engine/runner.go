package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/pankaj-dahiya-devops/dp-remediate/internal/apperr"
	"github.com/pankaj-dahiya-devops/dp-remediate/internal/models"
)

// ErrStillNonCompliant is recorded when verification finds the predicate
// still true after remediation.
var ErrStillNonCompliant = errors.New("resource still needs remediation after remediate")

// Runner executes targets sequentially, one resource at a time.
type Runner struct {
	opts Options
	log  zerolog.Logger
	now  func() time.Time
}

// NewRunner returns a Runner that logs state transitions to log.
func NewRunner(opts Options, log zerolog.Logger) *Runner {
	return &Runner{opts: opts, log: log, now: time.Now}
}

// Run executes a single target. A Lister failure is returned as a
// PROVIDER_ERROR with no report; per-resource failures are recorded as FAILED
// outcomes and do not stop the run.
//
// When ctx is cancelled between resources, Run returns the partial report
// together with the context error.
func (r *Runner) Run(ctx context.Context, target Target) (*models.RunReport, error) {
	report := r.newReport()
	if err := r.runTarget(ctx, target, report); err != nil {
		if ctx.Err() != nil {
			r.finish(report)
			return report, err
		}
		return nil, err
	}
	r.finish(report)
	return report, nil
}

// RunAll executes targets in order and merges their outcomes into one report.
// A Lister failure is recorded as a TargetError and the remaining targets
// still run. Only context cancellation stops RunAll early.
func (r *Runner) RunAll(ctx context.Context, targets ...Target) (*models.RunReport, error) {
	report := r.newReport()
	for _, t := range targets {
		if err := ctx.Err(); err != nil {
			r.finish(report)
			return report, err
		}
		if err := r.runTarget(ctx, t, report); err != nil {
			if ctx.Err() != nil {
				r.finish(report)
				return report, err
			}
			report.TargetErrors = append(report.TargetErrors, models.TargetError{
				Kind:  t.Kind(),
				Error: err.Error(),
			})
		}
	}
	r.finish(report)
	return report, nil
}

// runTarget lists and processes every resource of target, appending outcomes
// to report. It returns an error only when listing fails or ctx is done.
func (r *Runner) runTarget(ctx context.Context, target Target, report *models.RunReport) error {
	kind := target.Kind()
	log := r.log.With().Str("kind", string(kind)).Logger()

	resources, err := target.List(ctx)
	if err != nil {
		if apperr.CodeOf(err) == "" {
			err = apperr.Provider("list", string(kind), err)
		}
		log.Error().Err(err).Msg("listing failed; target aborted")
		return err
	}
	log.Info().Int("count", len(resources)).Msg("resources listed")

	for _, res := range resources {
		if err := ctx.Err(); err != nil {
			log.Warn().Err(err).Msg("run cancelled")
			return fmt.Errorf("%s: %w", kind, err)
		}
		report.Outcomes = append(report.Outcomes, r.process(ctx, target, res))
	}
	return nil
}

// process moves one resource from Listed to a terminal status.
func (r *Runner) process(ctx context.Context, target Target, res models.Resource) models.Outcome {
	out := models.Outcome{Resource: res, RuleID: target.RuleID()}
	log := r.log.With().
		Str("kind", string(target.Kind())).
		Str("resource", res.ID).
		Logger()

	cfg, err := target.Inspect(ctx, res)
	if err != nil {
		return r.fail(log, out, "inspect", err)
	}
	out.Configuration = &cfg
	log.Debug().Str("status", "INSPECTED").Msg("resource inspected")

	if !target.NeedsRemediation(cfg) {
		out.Status = models.StatusSkipped
		out.Message = "compliant"
		log.Info().Str("status", string(out.Status)).Msg("no remediation needed")
		return out
	}

	if r.opts.DryRun {
		out.Status = models.StatusPlanned
		out.Message = "remediation required (dry run)"
		log.Info().Str("status", string(out.Status)).Msg("remediation planned")
		return out
	}

	actions, err := target.Remediate(ctx, res, cfg)
	out.Actions = actions
	if err != nil {
		return r.fail(log, out, "remediate", err)
	}

	if r.opts.Verify {
		after, err := target.Inspect(ctx, res)
		if err != nil {
			return r.fail(log, out, "verify", err)
		}
		if target.NeedsRemediation(after) {
			return r.fail(log, out, "verify", ErrStillNonCompliant)
		}
		out.Message = "remediated and verified"
	} else {
		out.Message = "remediated"
	}

	out.Status = models.StatusRemediated
	log.Info().
		Str("status", string(out.Status)).
		Int("actions", len(actions)).
		Msg("resource remediated")
	return out
}

func (r *Runner) fail(log zerolog.Logger, out models.Outcome, stage string, err error) models.Outcome {
	out.Status = models.StatusFailed
	out.Message = stage + " failed"
	out.Error = err.Error()
	log.Error().
		Str("status", string(out.Status)).
		Str("stage", stage).
		Err(err).
		Msg("resource failed")
	return out
}

func (r *Runner) newReport() *models.RunReport {
	now := r.now()
	return &models.RunReport{
		RunID:     fmt.Sprintf("run-%d", now.UnixNano()),
		StartedAt: now.UTC(),
		AccountID: r.opts.AccountID,
		Profile:   r.opts.Profile,
		DryRun:    r.opts.DryRun,
		Outcomes:  []models.Outcome{},
	}
}

func (r *Runner) finish(report *models.RunReport) {
	report.FinishedAt = r.now().UTC()
	report.ComputeSummary()
	r.log.Info().
		Str("run_id", report.RunID).
		Int("total", report.Summary.TotalResources).
		Int("remediated", report.Summary.Remediated).
		Int("planned", report.Summary.Planned).
		Int("skipped", report.Summary.Skipped).
		Int("failed", report.Summary.Failed).
		Int("targets_failed", report.Summary.TargetsFailed).
		Msg("run finished")
}
