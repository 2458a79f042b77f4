package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcpo-tools/mcpoctl/internal/config"
)

func TestDefaultConfig(t *testing.T) {
	cfg := config.DefaultConfig()

	assert.Equal(t, "http://localhost:8000", cfg.TargetURL)
	assert.Equal(t, 10, cfg.TimeoutSeconds)
	assert.Equal(t, 2.0, cfg.PerformanceThresholdSeconds)
	assert.Equal(t, 80.0, cfg.CPUThresholdPercent)
	assert.Equal(t, 80.0, cfg.MemoryThresholdPercent)
	assert.Equal(t, 90.0, cfg.DiskThresholdPercent)
	assert.Equal(t, []string{"mcpo", "open-webui"}, cfg.DockerContainers)
	assert.Equal(t, "info", cfg.Logging.Level)

	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{
			name:    "empty target url",
			mutate:  func(c *config.Config) { c.TargetURL = "" },
			wantErr: "target_url cannot be empty",
		},
		{
			name:    "non-positive timeout",
			mutate:  func(c *config.Config) { c.TimeoutSeconds = 0 },
			wantErr: "timeout_seconds",
		},
		{
			name:    "threshold out of range",
			mutate:  func(c *config.Config) { c.CPUThresholdPercent = 150 },
			wantErr: "cpu_threshold_percent",
		},
		{
			name:    "database type empty",
			mutate:  func(c *config.Config) { c.Database = &config.Database{} },
			wantErr: "database.type cannot be empty",
		},
		{
			name: "external service without name",
			mutate: func(c *config.Config) {
				c.ExternalServices = []config.ExternalService{{URL: "http://example.com"}}
			},
			wantErr: "external_services[0].name cannot be empty",
		},
		{
			name:    "bad log level",
			mutate:  func(c *config.Config) { c.Logging.Level = "loud" },
			wantErr: "invalid log level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestLoadSourcesDefaultsOnly(t *testing.T) {
	cfg, err := config.LoadSources()
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig(), cfg)
}

func TestLoadSourcesFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"target_url": "http://mcpo.internal:9000",
		"api_key": "file-key",
		"database": {"type": "redis", "host": "cache.internal"}
	}`), 0o644))

	cfg, err := config.LoadSources(config.NewJsonFileSource(path))
	require.NoError(t, err)

	assert.Equal(t, "http://mcpo.internal:9000", cfg.TargetURL)
	assert.Equal(t, "file-key", cfg.APIKey)
	require.NotNil(t, cfg.Database)
	assert.Equal(t, config.DatabaseTypeRedis, cfg.Database.Type)
	// Untouched values keep their defaults.
	assert.Equal(t, 10, cfg.TimeoutSeconds)
}

func TestLoadSourcesEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"api_key": "file-key"}`), 0o644))

	t.Setenv("MCPO_API_KEY", "env-key")
	t.Setenv("MCPO_LOGGING__LEVEL", "debug")

	cfg, err := config.LoadSources(
		config.NewJsonFileSource(path),
		config.NewEnvVarSource(),
	)
	require.NoError(t, err)

	assert.Equal(t, "env-key", cfg.APIKey)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadSourcesFlagsOverrideEnv(t *testing.T) {
	t.Setenv("MCPO_LOGGING__LEVEL", "debug")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("logging.level", "", "")
	require.NoError(t, flags.Parse([]string{"--logging.level=warn"}))

	cfg, err := config.LoadSources(
		config.NewEnvVarSource(),
		config.NewPFlagSource(flags),
	)
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadSourcesStructSource(t *testing.T) {
	override := config.Config{TargetURL: "http://override:8080"}
	source, err := config.NewStructSource(override)
	require.NoError(t, err)

	cfg, err := config.LoadSources(source)
	require.NoError(t, err)

	assert.Equal(t, "http://override:8080", cfg.TargetURL)
	assert.Equal(t, 10, cfg.TimeoutSeconds)
}

func TestLoadSourcesRejectsInvalid(t *testing.T) {
	source, err := config.NewStructSource(config.Config{TimeoutSeconds: -1})
	require.NoError(t, err)

	_, err = config.LoadSources(source)
	assert.ErrorContains(t, err, "timeout_seconds")
}
