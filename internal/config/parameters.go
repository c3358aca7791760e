// Package config provides a centralized entrypoint for the application parameters.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"
)

// Runtime modes.
const (
	ModeLambda  = "lambda"
	ModeService = "service"
)

// Webhook secret backends.
const (
	BackendSecretsManager = "secretsmanager"
	BackendSSM            = "ssm"
)

var (
	// Global is a struct that contains the global configuration.
	Global global
	// Webhook is a struct that contains the webhook destination configuration.
	Webhook webhook
	// Delivery is a struct that contains the delivery retry configuration.
	Delivery delivery
	// Service is a struct that contains the configuration for the service mode.
	Service service
	// Lambda is a struct that contains the configuration for the lambda mode.
	Lambda lambda
)

type global struct {
	// Mode is the runtime mode of the application.
	Mode string `yaml:"mode,omitempty" default:"lambda"`
	// Logging is a struct that contains the logging configuration.
	Logging struct {
		// Verbosity is the verbosity level of the application. It represents slog levels.
		Verbosity int `yaml:"verbosity,omitempty"`
		// CallerTrace is a flag that enables the caller trace in the logger.
		CallerTrace bool `yaml:"callerTrace,omitempty"`
	} `yaml:"logging,omitempty"`
	// S3 is a struct that contains the raw event archival configuration.
	S3 struct {
		Archive struct {
			BucketName string `yaml:"bucketName,omitempty"`
			Enabled    bool   `yaml:"enabled,omitempty"`
		} `yaml:"archive,omitempty"`
	} `yaml:"s3,omitempty"`
}

type webhook struct {
	// SecretName is the name of the secret holding the webhook URL.
	SecretName string `yaml:"secretName,omitempty" default:"teams-webhook-url"`
	// Backend selects the secret store. Supported values are
	// 'secretsmanager' and 'ssm'.
	Backend string `yaml:"backend,omitempty" default:"secretsmanager"`
	// CacheTTL bounds the lifetime of a cached webhook URL. Zero keeps the
	// value for the life of the process.
	CacheTTL time.Duration `yaml:"cacheTTL,omitempty"`
	// FetchTimeout bounds a single secret store round trip.
	FetchTimeout time.Duration `yaml:"fetchTimeout,omitempty" default:"3s"`
}

type delivery struct {
	// Attempts is the total number of POSTs issued for transient failures.
	Attempts int `yaml:"attempts,omitempty" default:"3"`
	// BackoffBase is the initial delay between attempts.
	BackoffBase time.Duration `yaml:"backoffBase,omitempty" default:"500ms"`
	// Timeout bounds a single webhook round trip.
	Timeout time.Duration `yaml:"timeout,omitempty" default:"5s"`
}

type service struct {
	Path    string        `yaml:"path,omitempty" default:"/"`
	Addr    string        `yaml:"addr,omitempty"`
	Port    string        `yaml:"port,omitempty" default:"8080"`
	Timeout time.Duration `yaml:"timeout,omitempty" default:"5s"`
}

type lambda struct {
	// InvocationTimeout bounds one whole invocation; overruns surface as
	// retryable failures to the routing layer.
	InvocationTimeout time.Duration `yaml:"invocationTimeout,omitempty" default:"30s"`
}

// SetDefaults sets the default values for the configuration.
func SetDefaults() error {
	return errors.Join(
		defaults.Set(&Global),
		defaults.Set(&Webhook),
		defaults.Set(&Delivery),
		defaults.Set(&Service),
		defaults.Set(&Lambda),
	)
}

// LoadFromFile loads the configuration from a file.
func LoadFromFile(path string) error {
	if len(path) == 0 {
		return nil
	}
	fstat, err := os.Stat(path)
	if err != nil {
		return nil //nolint:nilerr // If the file does not exist, we ignore it.
	}
	if fstat.IsDir() {
		return fmt.Errorf("configuration file %s is a directory", path)
	}
	if !fstat.Mode().IsRegular() {
		return fmt.Errorf("configuration file %s is not a regular file", path)
	}

	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("failed to read configuration file %s: %w", path, err)
	}
	type all struct {
		Global   global   `yaml:"global,omitempty"`
		Webhook  webhook  `yaml:"webhook,omitempty"`
		Delivery delivery `yaml:"delivery,omitempty"`
		Service  service  `yaml:"service,omitempty"`
		Lambda   lambda   `yaml:"lambda,omitempty"`
	}
	var a all
	if err = yaml.Unmarshal(content, &a); err != nil {
		return fmt.Errorf("failed to unmarshal configuration file %s: %w", path, err)
	}
	Global = a.Global
	Webhook = a.Webhook
	Delivery = a.Delivery
	Service = a.Service
	Lambda = a.Lambda

	return nil
}
