package health

import (
	"context"
	"fmt"
	"math"
	"net"
	"net/http"
	"slices"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/rs/zerolog"

	"github.com/mcpo-tools/mcpoctl/internal/config"
)

// ContainerAPI is the slice of the docker client the container check needs.
type ContainerAPI interface {
	Ping(ctx context.Context) error
	ContainerInspect(ctx context.Context, name string) (types.ContainerJSON, error)
}

type probeFunc func(ctx context.Context) Result

type check struct {
	name string
	run  probeFunc
}

// Checker owns the ordered check table and executes selected checks
// sequentially, isolating each probe so a fault never aborts the run.
type Checker struct {
	cfg        config.Config
	logger     zerolog.Logger
	httpClient *http.Client
	containers ContainerAPI

	// Overridable seams for platform-dependent probes.
	readSystemStats func() (*systemStats, error)
	dialTimeout     func(network, addr string, timeout time.Duration) (net.Conn, error)
}

func NewChecker(cfg config.Config, logger zerolog.Logger, containers ContainerAPI) *Checker {
	return &Checker{
		cfg:    cfg,
		logger: logger,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
		containers:      containers,
		readSystemStats: collectSystemStats,
		dialTimeout:     net.DialTimeout,
	}
}

// checks returns the probe table in registration order. Report ordering and
// the prometheus metric labels both derive from these names.
func (c *Checker) checks() []check {
	return []check{
		{"mcpo_connectivity", c.checkConnectivity},
		{"mcpo_authentication", c.checkAuthentication},
		{"mcpo_tools", c.checkTools},
		{"mcpo_performance", c.checkPerformance},
		{"system_resources", c.checkSystemResources},
		{"docker_health", c.checkDockerHealth},
		{"database_health", c.checkDatabaseHealth},
		{"network_connectivity", c.checkNetworkConnectivity},
	}
}

// KnownChecks lists every registered check name in registration order.
func KnownChecks() []string {
	c := &Checker{}
	names := make([]string, 0, 8)
	for _, chk := range c.checks() {
		names = append(names, chk.name)
	}
	return names
}

// Run executes all selected checks and returns the completed report.
func (c *Checker) Run(ctx context.Context) *Report {
	return c.run(ctx, c.checks())
}

func (c *Checker) run(ctx context.Context, table []check) *Report {
	report := &Report{Timestamp: time.Now().UTC()}
	for _, chk := range table {
		if !c.shouldRun(chk.name) {
			continue
		}
		c.logger.Debug().Str("check", chk.name).Msg("running check")
		result := c.runProbe(ctx, chk)
		c.logger.Debug().
			Str("check", chk.name).
			Str("status", string(result.Status)).
			Float64("duration", result.Duration).
			Msg("check finished")
		report.Checks = append(report.Checks, NamedResult{Name: chk.name, Result: result})
	}
	report.finalize()
	return report
}

// shouldRun applies the selection rule: a non-empty allow-list takes strict
// precedence over the deny-list.
func (c *Checker) shouldRun(name string) bool {
	if len(c.cfg.EnabledChecks) > 0 {
		return slices.Contains(c.cfg.EnabledChecks, name)
	}
	return !slices.Contains(c.cfg.DisabledChecks, name)
}

// runProbe wraps one probe invocation with wall-clock timing and panic
// isolation. A panicking probe yields a StatusError result.
func (c *Checker) runProbe(ctx context.Context, chk check) (result Result) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			result = Result{
				Status:  StatusError,
				Message: fmt.Sprintf("Check failed with panic: %v", r),
				Details: map[string]any{},
			}
		}
		result.Duration = round3(time.Since(start).Seconds())
		if result.Details == nil {
			result.Details = map[string]any{}
		}
	}()
	result = chk.run(ctx)
	return result
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
