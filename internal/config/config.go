package config

import (
	"errors"
	"fmt"
	"net/url"
	"slices"

	"github.com/rs/zerolog"
)

type Logging struct {
	Level  string `koanf:"level" json:"level,omitempty"`
	Pretty bool   `koanf:"pretty" json:"pretty,omitempty"`
}

func (l Logging) validate() []error {
	var errs []error
	if _, err := zerolog.ParseLevel(l.Level); err != nil {
		errs = append(errs, fmt.Errorf("level: invalid log level %q: %w", l.Level, err))
	}
	return errs
}

var loggingDefault = Logging{
	Level: "info",
}

type DatabaseType string

const (
	DatabaseTypePostgres DatabaseType = "postgresql"
	DatabaseTypeRedis    DatabaseType = "redis"
)

// Database describes an optional datastore to probe during health checks.
type Database struct {
	Type     DatabaseType `koanf:"type" json:"type,omitempty"`
	Host     string       `koanf:"host" json:"host,omitempty"`
	Port     int          `koanf:"port" json:"port,omitempty"`
	DBName   string       `koanf:"database" json:"database,omitempty"`
	User     string       `koanf:"user" json:"user,omitempty"`
	Password string       `koanf:"password" json:"password,omitempty"`
}

// ExternalService is a named endpoint whose TCP reachability gets probed.
type ExternalService struct {
	Name string `koanf:"name" json:"name,omitempty"`
	URL  string `koanf:"url" json:"url,omitempty"`
}

type Config struct {
	TargetURL                   string            `koanf:"target_url" json:"target_url,omitempty"`
	APIKey                      string            `koanf:"api_key" json:"api_key,omitempty"`
	TimeoutSeconds              int               `koanf:"timeout_seconds" json:"timeout_seconds,omitempty"`
	PerformanceThresholdSeconds float64           `koanf:"performance_threshold_seconds" json:"performance_threshold_seconds,omitempty"`
	CPUThresholdPercent         float64           `koanf:"cpu_threshold_percent" json:"cpu_threshold_percent,omitempty"`
	MemoryThresholdPercent      float64           `koanf:"memory_threshold_percent" json:"memory_threshold_percent,omitempty"`
	DiskThresholdPercent        float64           `koanf:"disk_threshold_percent" json:"disk_threshold_percent,omitempty"`
	EnabledChecks               []string          `koanf:"enabled_checks" json:"enabled_checks,omitempty"`
	DisabledChecks              []string          `koanf:"disabled_checks" json:"disabled_checks,omitempty"`
	Tools                       []string          `koanf:"tools" json:"tools,omitempty"`
	DockerContainers            []string          `koanf:"docker_containers" json:"docker_containers,omitempty"`
	Database                    *Database         `koanf:"database" json:"database,omitempty"`
	ExternalServices            []ExternalService `koanf:"external_services" json:"external_services,omitempty"`
	Logging                     Logging           `koanf:"logging" json:"logging,omitzero"`
}

func (c Config) Validate() error {
	var errs []error
	if c.TargetURL == "" {
		errs = append(errs, errors.New("target_url cannot be empty"))
	} else if _, err := url.Parse(c.TargetURL); err != nil {
		errs = append(errs, fmt.Errorf("target_url: %w", err))
	}
	if c.TimeoutSeconds <= 0 {
		errs = append(errs, fmt.Errorf("timeout_seconds: must be positive, got %d", c.TimeoutSeconds))
	}
	if c.PerformanceThresholdSeconds <= 0 {
		errs = append(errs, fmt.Errorf("performance_threshold_seconds: must be positive, got %v", c.PerformanceThresholdSeconds))
	}
	for name, v := range map[string]float64{
		"cpu_threshold_percent":    c.CPUThresholdPercent,
		"memory_threshold_percent": c.MemoryThresholdPercent,
		"disk_threshold_percent":   c.DiskThresholdPercent,
	} {
		if v <= 0 || v > 100 {
			errs = append(errs, fmt.Errorf("%s: must be in (0, 100], got %v", name, v))
		}
	}
	if c.Database != nil {
		validTypes := []DatabaseType{DatabaseTypePostgres, DatabaseTypeRedis}
		if !slices.Contains(validTypes, c.Database.Type) {
			// Unknown types are skipped at check time rather than rejected
			// here, matching the check-level skip semantics. An empty type is
			// still a configuration mistake.
			if c.Database.Type == "" {
				errs = append(errs, errors.New("database.type cannot be empty"))
			}
		}
	}
	for i, svc := range c.ExternalServices {
		if svc.Name == "" {
			errs = append(errs, fmt.Errorf("external_services[%d].name cannot be empty", i))
		}
	}
	for _, err := range c.Logging.validate() {
		errs = append(errs, fmt.Errorf("logging.%w", err))
	}
	return errors.Join(errs...)
}

func DefaultConfig() Config {
	return Config{
		TargetURL:                   "http://localhost:8000",
		TimeoutSeconds:              10,
		PerformanceThresholdSeconds: 2.0,
		CPUThresholdPercent:         80,
		MemoryThresholdPercent:      80,
		DiskThresholdPercent:        90,
		DockerContainers:            []string{"mcpo", "open-webui"},
		Logging:                     loggingDefault,
	}
}
