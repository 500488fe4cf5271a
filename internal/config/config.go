package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
)

type (
	ServiceConfig struct {
		Environment string `yaml:"environment" env:"SIMPLEPERF_ENVIRONMENT" env-default:"development" env-description:"deployment environment"`
		Port        string `yaml:"port" env:"PORT" env-default:"8080" env-description:"port the HTTP service listens on"`
		SentryDSN   string `yaml:"sentry_dsn" env:"SENTRY_DSN" env-description:"where errors are reported, reporting is disabled when empty"`
		LogLevel    string `yaml:"log_level" env:"SIMPLEPERF_LOG_LEVEL" env-default:"info" env-description:"minimum level of logged events"`

		// BucketURL is a gocloud blob URL. It defaults to the bucket of the
		// environment.
		BucketURL string `yaml:"bucket_url" env:"SIMPLEPERF_BUCKET_URL" env-description:"bucket parse results are stored in (gs://, file:// or mem://)"`

		Workers       int   `yaml:"workers" env:"SIMPLEPERF_WORKERS" env-default:"4" env-description:"threads whose call trees are built concurrently"`
		MaxTraceBytes int64 `yaml:"max_trace_bytes" env:"SIMPLEPERF_MAX_TRACE_BYTES" env-default:"268435456" env-description:"largest accepted trace upload"`
	}
)

var (
	environmentBuckets = map[string]string{
		"production":  "gs://sentry-simpleperf",
		"development": "mem://",
		"test":        "mem://",
	}
)

// Load reads the configuration from the environment. When path is set, the
// file is read first and environment variables override its values.
func Load(path string) (ServiceConfig, error) {
	var c ServiceConfig
	var err error
	if path != "" {
		err = cleanenv.ReadConfig(path, &c)
	} else {
		err = cleanenv.ReadEnv(&c)
	}
	if err != nil {
		return ServiceConfig{}, err
	}
	if c.BucketURL == "" {
		bucketURL, exists := environmentBuckets[c.Environment]
		if !exists {
			return ServiceConfig{}, fmt.Errorf("service config for environment %v does not exist", c.Environment)
		}
		c.BucketURL = bucketURL
	}
	if c.Workers < 1 {
		return ServiceConfig{}, fmt.Errorf("config: workers should be at least 1, got %d", c.Workers)
	}
	if c.MaxTraceBytes <= 0 {
		return ServiceConfig{}, fmt.Errorf("config: max trace bytes should be positive, got %d", c.MaxTraceBytes)
	}
	return c, nil
}

// Description lists the environment variables the configuration is read from.
func Description() string {
	var c ServiceConfig
	d, err := cleanenv.GetDescription(&c, nil)
	if err != nil {
		return ""
	}
	return d
}
