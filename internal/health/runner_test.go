package health

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcpo-tools/mcpoctl/internal/config"
)

func newTestChecker(t *testing.T, mutate func(*config.Config)) *Checker {
	t.Helper()
	cfg := config.DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	return NewChecker(cfg, zerolog.Nop(), nil)
}

func staticCheck(name string, result Result) check {
	return check{name: name, run: func(ctx context.Context) Result { return result }}
}

func TestKnownChecks(t *testing.T) {
	assert.Equal(t, []string{
		"mcpo_connectivity",
		"mcpo_authentication",
		"mcpo_tools",
		"mcpo_performance",
		"system_resources",
		"docker_health",
		"database_health",
		"network_connectivity",
	}, KnownChecks())
}

func TestRunPreservesRegistrationOrder(t *testing.T) {
	c := newTestChecker(t, nil)
	table := []check{
		staticCheck("first", Result{Status: StatusPass}),
		staticCheck("second", Result{Status: StatusFail}),
		staticCheck("third", Result{Status: StatusWarning}),
	}

	report := c.run(context.Background(), table)

	require.Len(t, report.Checks, 3)
	assert.Equal(t, "first", report.Checks[0].Name)
	assert.Equal(t, "second", report.Checks[1].Name)
	assert.Equal(t, "third", report.Checks[2].Name)
}

func TestRunPanicIsolation(t *testing.T) {
	c := newTestChecker(t, nil)
	table := []check{
		{name: "boom", run: func(ctx context.Context) Result { panic("kaboom") }},
		staticCheck("ok", Result{Status: StatusPass, Message: "fine"}),
	}

	report := c.run(context.Background(), table)

	require.Len(t, report.Checks, 2)

	boom, ok := report.Check("boom")
	require.True(t, ok)
	assert.Equal(t, StatusError, boom.Status)
	assert.Equal(t, "Check failed with panic: kaboom", boom.Message)
	assert.NotNil(t, boom.Details)
	assert.GreaterOrEqual(t, boom.Duration, 0.0)

	after, ok := report.Check("ok")
	require.True(t, ok)
	assert.Equal(t, StatusPass, after.Status)
}

func TestRunSelectionAllowList(t *testing.T) {
	c := newTestChecker(t, func(cfg *config.Config) {
		cfg.EnabledChecks = []string{"second"}
		// The allow-list wins even when the same name is denied.
		cfg.DisabledChecks = []string{"second"}
	})
	table := []check{
		staticCheck("first", Result{Status: StatusPass}),
		staticCheck("second", Result{Status: StatusPass}),
	}

	report := c.run(context.Background(), table)

	require.Len(t, report.Checks, 1)
	assert.Equal(t, "second", report.Checks[0].Name)
	assert.Equal(t, 1, report.Summary.Total)
}

func TestRunSelectionDenyList(t *testing.T) {
	c := newTestChecker(t, func(cfg *config.Config) {
		cfg.DisabledChecks = []string{"first", "third"}
	})
	table := []check{
		staticCheck("first", Result{Status: StatusPass}),
		staticCheck("second", Result{Status: StatusPass}),
		staticCheck("third", Result{Status: StatusPass}),
	}

	report := c.run(context.Background(), table)

	require.Len(t, report.Checks, 1)
	assert.Equal(t, "second", report.Checks[0].Name)
}

func TestSummaryArithmetic(t *testing.T) {
	c := newTestChecker(t, nil)
	table := []check{
		staticCheck("a", Result{Status: StatusPass}),
		staticCheck("b", Result{Status: StatusFail}),
		staticCheck("c", Result{Status: StatusWarning}),
		staticCheck("d", Result{Status: StatusSkip}),
		// Error-status checks land in the skipped bucket: skipped is the
		// remainder after passed, failed, and warnings.
		{name: "e", run: func(ctx context.Context) Result { panic("broken") }},
	}

	report := c.run(context.Background(), table)

	assert.Equal(t, Summary{
		Total:    5,
		Passed:   1,
		Failed:   1,
		Warnings: 1,
		Skipped:  2,
	}, report.Summary)
	assert.Equal(t, StatusFail, report.OverallStatus)
}

func TestOverallStatusPrecedence(t *testing.T) {
	tests := []struct {
		name     string
		statuses []Status
		want     Status
	}{
		{"all pass", []Status{StatusPass, StatusPass}, StatusPass},
		{"warning beats pass", []Status{StatusPass, StatusWarning}, StatusWarning},
		{"fail beats warning", []Status{StatusWarning, StatusFail}, StatusFail},
		{"skips alone pass", []Status{StatusSkip, StatusSkip}, StatusPass},
		{"errors alone pass", []Status{StatusError, StatusSkip}, StatusPass},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestChecker(t, nil)
			var table []check
			for i, s := range tt.statuses {
				table = append(table, staticCheck(string(rune('a'+i)), Result{Status: s}))
			}
			report := c.run(context.Background(), table)
			assert.Equal(t, tt.want, report.OverallStatus)
		})
	}
}

func TestRunProbeRoundsDuration(t *testing.T) {
	c := newTestChecker(t, nil)
	result := c.runProbe(context.Background(), staticCheck("x", Result{Status: StatusPass}))
	assert.Equal(t, result.Duration, round3(result.Duration))
}
