// Package config loads command configuration from the environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Prefix is prepended to every variable read by ParseEnvPrefixed.
const Prefix = "CABINET_"

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// ParseEnvPrefixed loads configuration whose tags omit the CABINET_ prefix.
// required marks every tagged field as mandatory.
func ParseEnvPrefixed(target any, required bool) error {
	if err := env.ParseWithOptions(target, env.Options{
		Prefix:          Prefix,
		RequiredIfNoDef: required,
	}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
