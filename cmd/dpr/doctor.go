package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/pankaj-dahiya-devops/dp-remediate/internal/output"
	"github.com/pankaj-dahiya-devops/dp-remediate/internal/providers/aws/common"
)

// errUnhealthy is returned by dpr doctor after the diagnostics have been
// rendered when any check failed.
var errUnhealthy = errors.New("environment is not healthy")

// DoctorResult is the structured output of dpr doctor. It can be serialised to
// JSON via --format=json or rendered as a human-readable table (default).
type DoctorResult struct {
	AWS struct {
		Profile     string `json:"profile,omitempty"`
		Credentials bool   `json:"credentials_ok"`
		AccountID   string `json:"account_id,omitempty"`
		Region      string `json:"region,omitempty"`
		Error       string `json:"error,omitempty"`
	} `json:"aws"`

	Policy struct {
		Path    string   `json:"path,omitempty"`
		Present bool     `json:"present"`
		Valid   bool     `json:"valid"`
		Errors  []string `json:"errors,omitempty"`
	} `json:"policy"`

	OverallHealthy bool `json:"overall_healthy"`
}

func newDoctorCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check credentials and the policy file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			result, err := runDoctor(cmd.Context(), a.provider, cmd.OutOrStdout(), format, a.cfg.Credentials(), a.policyPath())
			if err != nil {
				return err
			}
			if !result.OverallHealthy {
				return errUnhealthy
			}
			return nil
		},
	}
	cmd.Flags().String("format", "table", `output format: "table" or "json"`)
	return cmd
}

// runDoctor collects every diagnostic, renders them to w in format and
// returns the result. The error covers rendering failures only; callers
// inspect result.OverallHealthy.
func runDoctor(ctx context.Context, provider common.AWSClientProvider, w io.Writer, format string, creds common.Credentials, policyPath string) (DoctorResult, error) {
	f, err := output.ParseFormat(format)
	if err != nil {
		return DoctorResult{}, err
	}

	result := collectDoctorResult(ctx, provider, creds, policyPath)

	switch f {
	case output.FormatJSON:
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return result, fmt.Errorf("encode doctor result: %w", err)
		}
		if _, err := fmt.Fprintln(w, string(data)); err != nil {
			return result, err
		}
	default:
		renderDoctorTable(result, w)
	}
	return result, nil
}

// collectDoctorResult runs the checks without rendering anything.
func collectDoctorResult(ctx context.Context, provider common.AWSClientProvider, creds common.Credentials, policyPath string) DoctorResult {
	var result DoctorResult

	result.AWS.Profile = creds.Profile
	if creds.Static() {
		result.AWS.Profile = "static"
	}
	session, err := provider.Load(ctx, creds)
	if err != nil {
		result.AWS.Error = err.Error()
	} else {
		result.AWS.Credentials = true
		result.AWS.AccountID = session.AccountID
		result.AWS.Region = session.Region
		result.AWS.Profile = session.ProfileName
	}

	if policyPath != "" {
		result.Policy.Path = policyPath
		result.Policy.Present = true
		if _, errs := checkPolicy(policyPath); len(errs) == 0 {
			result.Policy.Valid = true
		} else {
			for _, e := range errs {
				result.Policy.Errors = append(result.Policy.Errors, e.Error())
			}
		}
	}

	result.OverallHealthy = result.AWS.Credentials && (!result.Policy.Present || result.Policy.Valid)
	return result
}

func renderDoctorTable(result DoctorResult, w io.Writer) {
	fmt.Fprintln(w, "Environment Diagnostics")

	if result.AWS.Profile != "" {
		fmt.Fprintf(w, "\nAWS (profile: %s):\n", result.AWS.Profile)
	} else {
		fmt.Fprintln(w, "\nAWS:")
	}
	if !result.AWS.Credentials {
		doctorPrint(w, "Credentials", "FAIL", result.AWS.Error)
		doctorPrint(w, "STS Identity", "FAIL", "skipped")
	} else {
		doctorPrint(w, "Credentials", "OK", "")
		doctorPrint(w, "STS Identity", "OK", "Account: "+result.AWS.AccountID)
		doctorPrint(w, "Region", "OK", result.AWS.Region)
	}

	fmt.Fprintln(w, "\nPolicy:")
	if !result.Policy.Present {
		doctorPrint(w, defaultPolicyFile+" present", "Not found (optional)", "")
		return
	}
	doctorPrint(w, result.Policy.Path+" present", "YES", "")
	if result.Policy.Valid {
		doctorPrint(w, "Policy valid", "OK", "")
		return
	}
	for _, e := range result.Policy.Errors {
		doctorPrint(w, "Policy valid", "FAIL", e)
	}
}

// doctorPrint writes one check line. A non-empty detail is appended in
// parentheses.
func doctorPrint(w io.Writer, label, status, detail string) {
	if detail != "" {
		fmt.Fprintf(w, "  %s: %s (%s)\n", label, status, detail)
	} else {
		fmt.Fprintf(w, "  %s: %s\n", label, status)
	}
}
