package policy

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// SupportedVersion is the only dpr.yaml schema version.
const SupportedVersion = 1

// LoadPolicy reads and decodes the policy file at path. Unknown keys are
// rejected so that a misspelt setting never silently falls back to its
// default. Only structural checks happen here; call Validate for the rest.
func LoadPolicy(path string) (*PolicyConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy: %w", err)
	}

	var cfg PolicyConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("policy %s is empty", path)
		}
		return nil, fmt.Errorf("parse policy %s: %w", path, err)
	}

	if cfg.Version != SupportedVersion {
		return nil, fmt.Errorf("policy %s: unsupported version %d; must be %d", path, cfg.Version, SupportedVersion)
	}
	if cfg.Rules == nil {
		cfg.Rules = make(map[string]RuleConfig)
	}
	return &cfg, nil
}
