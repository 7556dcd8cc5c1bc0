// Package config wires the viper configuration engine: defaults, environment bindings and the on-disk TOML file.
package config

import (
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/tilawa-cli/tilawa/constant"
	"github.com/tilawa-cli/tilawa/filesystem"
	"github.com/tilawa-cli/tilawa/key"
	"github.com/tilawa-cli/tilawa/where"
)

// EnvKeyReplacer is a strings.Replacer used to normalize configuration keys into environment variable naming conventions.
var EnvKeyReplacer = strings.NewReplacer(".", "_")

// Setup initializes the global configuration state, including defaults, environment bindings, and the config file.
func Setup() error {
	viper.SetConfigName(constant.Tilawa)
	viper.SetConfigType("toml")
	viper.SetFs(filesystem.API())
	viper.AddConfigPath(where.Config())

	viper.SetEnvPrefix(constant.Tilawa)
	viper.SetEnvKeyReplacer(EnvKeyReplacer)
	for _, env := range EnvExposed {
		viper.MustBindEnv(env)
	}

	viper.SetTypeByDefaultValue(true)
	for name, field := range Default {
		viper.SetDefault(name, field.Value)
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return err
	}

	return nil
}

// Write persists the current settings to the config file, creating it when absent.
func Write() error {
	path := filepath.Join(where.Config(), constant.Tilawa+".toml")
	return viper.WriteConfigAs(path)
}

// ProbeTimeout returns the per-candidate probe budget.
func ProbeTimeout() time.Duration {
	seconds := viper.GetInt(key.ResolverProbeTimeout)
	if seconds <= 0 {
		seconds = DefaultProbeTimeoutSeconds
	}
	return time.Duration(seconds) * time.Second
}

// Volume returns the configured start-up volume as a 0..1 fraction.
func Volume() float64 {
	v := viper.GetInt(key.PlayerVolume)
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 1
	}
	return float64(v) / 100
}
