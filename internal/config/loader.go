package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

type LoadOptions struct {
	// EnvFile is a dotenv file to load first; missing files are ignored. Defaults to ".env".
	EnvFile string
	// File is an optional YAML file. Environment variables override it.
	File string
}

// Load merges defaults, the YAML file and the environment, in increasing priority.
// Variables already set in the process win over the dotenv file.
func Load(opts LoadOptions) (Config, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("config: load %s: %w", envFile, err)
	}

	v := viper.New()
	setDefaults(v, Default())
	v.AutomaticEnv()

	if opts.File != "" {
		v.SetConfigFile(opts.File)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", opts.File, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can find its variable on Unmarshal.
func setDefaults(v *viper.Viper, d Config) {
	raw, _ := yaml.Marshal(d)
	var m map[string]any
	_ = yaml.Unmarshal(raw, &m)
	for k, val := range m {
		v.SetDefault(k, val)
	}
	// Durations are not part of the yaml form.
	v.SetDefault("shutdown_timeout", d.ShutdownTimeout)
	v.SetDefault("provider_timeout", d.ProviderTimeout)
	v.SetDefault("cache_ttl", d.CacheTTL)
}

// YAML renders cfg for display with its secrets masked.
func YAML(cfg Config) ([]byte, error) {
	type view struct {
		Config          `yaml:",inline"`
		ShutdownTimeout string `yaml:"shutdown_timeout"`
		ProviderTimeout string `yaml:"provider_timeout"`
		CacheTTL        string `yaml:"cache_ttl"`
	}
	m := cfg.Masked()
	out, err := yaml.Marshal(view{
		Config:          m,
		ShutdownTimeout: m.ShutdownTimeout.String(),
		ProviderTimeout: m.ProviderTimeout.String(),
		CacheTTL:        m.CacheTTL.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("config: render: %w", err)
	}
	return out, nil
}
