package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pankaj-dahiya-devops/dp-remediate/internal/apperr"
	"github.com/pankaj-dahiya-devops/dp-remediate/internal/config"
	"github.com/pankaj-dahiya-devops/dp-remediate/internal/logger"
	"github.com/pankaj-dahiya-devops/dp-remediate/internal/policy"
	"github.com/pankaj-dahiya-devops/dp-remediate/internal/providers/aws/common"
	"github.com/pankaj-dahiya-devops/dp-remediate/internal/rules"
)

// defaultPolicyFile is read from the working directory when --policy is not set.
const defaultPolicyFile = "dpr.yaml"

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"access-key-id":        config.KeyAccessKeyID,
	"secret-access-key":    config.KeySecretAccessKey,
	"session-token":        config.KeySessionToken,
	"region":               config.KeyRegion,
	"profile":              config.KeyProfile,
	"log-level":            config.KeyLogLevel,
	"log-format":           config.KeyLogFormat,
	"policy":               config.KeyPolicyFile,
	"dry-run":              config.KeyDryRun,
	"verify":               config.KeyVerify,
	"format":               config.KeyFormat,
	"no-color":             config.KeyNoColor,
	"metrics-file":         config.KeyMetricsFile,
	"cloudwatch-namespace": config.KeyCloudWatchNamespace,
	"s3-mode":              config.KeyS3Mode,
}

// app carries the dependencies and resolved configuration shared by every
// subcommand.
type app struct {
	provider   *common.DefaultAWSClientProvider
	configFile string
	envFile    string

	cfg *config.Config
	log zerolog.Logger
}

func newRootCmd() *cobra.Command {
	return newRootCmdWith(common.NewDefaultAWSClientProvider())
}

// newRootCmdWith builds the command tree around provider. Tests pass a
// provider backed by fake clients.
func newRootCmdWith(provider *common.DefaultAWSClientProvider) *cobra.Command {
	a := &app{provider: provider, log: zerolog.Nop()}

	root := &cobra.Command{
		Use:   "dpr",
		Short: "Remediate common AWS misconfigurations",
		Long: `dpr finds and fixes three AWS misconfigurations:

  iam  SSM managed policies attached to EC2 instance roles
  rds  publicly accessible RDS DB instances
  s3   S3 buckets whose Block Public Access settings are not compliant

Credentials come from flags, DPR_* or AWS_* environment variables, a .env
file, or the shared AWS config. dpr never prompts.

S3 defaults to enforce mode and turns all four Block Public Access settings
on. The legacy remediation scripts did the opposite and turned them off; use
--s3-mode disable (or s3.mode: disable in dpr.yaml) to keep that behaviour.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return a.loadConfig(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configFile, "config", "", "config file (default $HOME/.dpr/config.yaml)")
	pf.StringVar(&a.envFile, "env-file", ".env", "dotenv file loaded before reading environment variables")
	pf.String("profile", "", "AWS shared config profile")
	pf.String("region", "", "AWS region (default: profile region, then us-east-1)")
	pf.String("access-key-id", "", "AWS access key ID")
	pf.String("secret-access-key", "", "AWS secret access key")
	pf.String("session-token", "", "AWS session token for temporary credentials")
	pf.String("log-level", "info", "log level: debug, info, warn, error")
	pf.String("log-format", "console", "log format: console or json")
	pf.String("policy", "", "remediation policy file (default ./"+defaultPolicyFile+" when present)")

	root.AddCommand(newRemediateCmd(a))
	root.AddCommand(newDoctorCmd(a))
	root.AddCommand(newVersionCmd())
	return root
}

// loadConfig binds cmd's flags and resolves the configuration.
func (a *app) loadConfig(cmd *cobra.Command) error {
	v := viper.New()
	for name, key := range flagKeys {
		if f := cmd.Flags().Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return fmt.Errorf("bind flag --%s: %w", name, err)
			}
		}
	}

	cfg, err := config.Load(v, config.Options{ConfigFile: a.configFile, EnvFile: a.envFile})
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = logger.New(cmd.ErrOrStderr(), logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	return nil
}

// policyPath returns the configured policy file, or the default file when it
// exists in the working directory. Empty means no policy.
func (a *app) policyPath() string {
	if a.cfg.Run.PolicyFile != "" {
		return a.cfg.Run.PolicyFile
	}
	if _, err := os.Stat(defaultPolicyFile); errors.Is(err, os.ErrNotExist) {
		return ""
	}
	return defaultPolicyFile
}

// loadPolicy reads and validates the policy file. A nil config with a nil
// error means no policy is in use.
func (a *app) loadPolicy() (*policy.PolicyConfig, string, error) {
	path := a.policyPath()
	if path == "" {
		return nil, "", nil
	}
	pc, errs := checkPolicy(path)
	if len(errs) > 0 {
		return nil, path, apperr.Validation("policy "+path, errors.Join(errs...))
	}
	return pc, path, nil
}

// checkPolicy loads path and validates it against the built-in rule IDs.
func checkPolicy(path string) (*policy.PolicyConfig, []error) {
	pc, err := policy.LoadPolicy(path)
	if err != nil {
		return nil, []error{err}
	}
	if errs := policy.Validate(pc, rules.NewBuiltinRegistry().IDs()); len(errs) > 0 {
		return nil, errs
	}
	return pc, nil
}
