// Package config resolves dpr's runtime configuration from flags, environment
// variables, an optional .env file, and an optional YAML config file.
//
// Precedence, highest first: command-line flag, DPR_* variable, standard
// AWS_* variable, config file, default.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/pankaj-dahiya-devops/dp-remediate/internal/apperr"
	"github.com/pankaj-dahiya-devops/dp-remediate/internal/providers/aws/common"
)

// EnvPrefix prefixes every dpr environment variable.
const EnvPrefix = "DPR"

// Config keys. Flags are bound to these with viper.BindPFlag.
const (
	KeyAccessKeyID     = "aws.access_key_id"
	KeySecretAccessKey = "aws.secret_access_key"
	KeySessionToken    = "aws.session_token"
	KeyRegion          = "aws.region"
	KeyProfile         = "aws.profile"

	KeyLogLevel  = "log.level"
	KeyLogFormat = "log.format"

	KeyDryRun              = "run.dry_run"
	KeyVerify              = "run.verify"
	KeyPolicyFile          = "run.policy_file"
	KeyFormat              = "run.format"
	KeyNoColor             = "run.no_color"
	KeyMetricsFile         = "run.metrics_file"
	KeyCloudWatchNamespace = "run.cloudwatch_namespace"
	KeyS3Mode              = "run.s3_mode"
)

// Config is the fully resolved configuration. It never holds values read
// from an interactive prompt.
type Config struct {
	AWS AWSConfig `mapstructure:"aws"`
	Log LogConfig `mapstructure:"log"`
	Run RunConfig `mapstructure:"run"`
}

// AWSConfig enumerates the credential inputs.
type AWSConfig struct {
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	SessionToken    string `mapstructure:"session_token"`
	Region          string `mapstructure:"region"`
	Profile         string `mapstructure:"profile"`
}

// LogConfig configures the zerolog logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// RunConfig controls a remediation run.
type RunConfig struct {
	DryRun              bool   `mapstructure:"dry_run"`
	Verify              bool   `mapstructure:"verify"`
	PolicyFile          string `mapstructure:"policy_file"`
	Format              string `mapstructure:"format"`
	NoColor             bool   `mapstructure:"no_color"`
	MetricsFile         string `mapstructure:"metrics_file"`
	CloudWatchNamespace string `mapstructure:"cloudwatch_namespace"`
	S3Mode              string `mapstructure:"s3_mode"`
}

// Credentials converts the AWS section into provider credentials.
func (c *Config) Credentials() common.Credentials {
	return common.Credentials{
		AccessKeyID:     c.AWS.AccessKeyID,
		SecretAccessKey: c.AWS.SecretAccessKey,
		SessionToken:    c.AWS.SessionToken,
		Region:          c.AWS.Region,
		Profile:         c.AWS.Profile,
	}
}

// awsEnv maps config keys to the standard AWS variable each one also honours.
var awsEnv = map[string]string{
	KeyAccessKeyID:     "AWS_ACCESS_KEY_ID",
	KeySecretAccessKey: "AWS_SECRET_ACCESS_KEY",
	KeySessionToken:    "AWS_SESSION_TOKEN",
	KeyRegion:          "AWS_REGION",
	KeyProfile:         "AWS_PROFILE",
}

var defaults = map[string]any{
	KeyAccessKeyID:         "",
	KeySecretAccessKey:     "",
	KeySessionToken:        "",
	KeyRegion:              "",
	KeyProfile:             "",
	KeyLogLevel:            "info",
	KeyLogFormat:           "console",
	KeyDryRun:              false,
	KeyVerify:              false,
	KeyPolicyFile:          "",
	KeyFormat:              "table",
	KeyNoColor:             false,
	KeyMetricsFile:         "",
	KeyCloudWatchNamespace: "",
	KeyS3Mode:              "",
}

// Options locates the optional files Load reads.
type Options struct {
	// ConfigFile is an explicit YAML config path. When empty,
	// $HOME/.dpr/config.yaml is used if it exists.
	ConfigFile string

	// EnvFile is a dotenv file loaded into the process environment before
	// variables are read. Defaults to ".env"; a missing file is ignored.
	EnvFile string
}

// Load resolves configuration into v and validates it. Callers bind flags to
// v before calling Load.
func Load(v *viper.Viper, opts Options) (*Config, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, apperr.Validation("load "+envFile, err)
	}

	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, awsVar := range awsEnv {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, awsVar); err != nil {
			return nil, apperr.Validation("bind env "+key, err)
		}
	}

	if err := readConfigFile(v, opts.ConfigFile); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, apperr.Validation("decode configuration", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func readConfigFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return apperr.Validation("read config file "+path, err)
		}
		return nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	v.AddConfigPath(filepath.Join(home, ".dpr"))
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return apperr.Validation("read config file", err)
	}
	return nil
}

// Validate checks cross-field constraints and enumerated values.
func (c *Config) Validate() error {
	var errs []error
	if (c.AWS.AccessKeyID == "") != (c.AWS.SecretAccessKey == "") {
		errs = append(errs, errors.New("access key ID and secret access key must be supplied together"))
	}
	if c.AWS.SessionToken != "" && c.AWS.AccessKeyID == "" {
		errs = append(errs, errors.New("session token requires an access key ID and secret access key"))
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error", "disabled", "off":
	default:
		errs = append(errs, fmt.Errorf("unknown log level %q", c.Log.Level))
	}
	switch strings.ToLower(c.Log.Format) {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q: must be console or json", c.Log.Format))
	}
	switch c.Run.Format {
	case "table", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown output format %q: must be table or json", c.Run.Format))
	}
	switch c.Run.S3Mode {
	case "", "enforce", "disable":
	default:
		errs = append(errs, fmt.Errorf("unknown S3 mode %q: must be enforce or disable", c.Run.S3Mode))
	}
	if len(errs) > 0 {
		return apperr.Validation("validate configuration", errors.Join(errs...))
	}
	return nil
}
