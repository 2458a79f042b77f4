package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"slices"
	"sort"
	"strings"
	"syscall"
	"time"
)

// wellKnownPaths are infrastructure endpoints excluded from tool discovery.
var wellKnownPaths = []string{"/", "/docs", "/openapi.json"}

func (c *Checker) endpoint(path string) string {
	return strings.TrimRight(c.cfg.TargetURL, "/") + path
}

// get issues a GET with the configured client, attaching the bearer
// credential when withAuth is set and a key is configured.
func (c *Checker) get(ctx context.Context, url string, withAuth bool) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if withAuth && c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}
	return c.httpClient.Do(req)
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}

type netFailure int

const (
	netFailureOther netFailure = iota
	netFailureTimeout
	netFailureRefused
)

func classifyNetError(err error) netFailure {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return netFailureTimeout
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return netFailureTimeout
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return netFailureRefused
	}
	return netFailureOther
}

// checkConnectivity probes the gateway's docs endpoint, following
// redirects. Reachability failures are expected conditions (fail), anything
// else is an error.
func (c *Checker) checkConnectivity(ctx context.Context) Result {
	url := c.endpoint("/docs")

	start := time.Now()
	resp, err := c.get(ctx, url, false)
	if err != nil {
		switch classifyNetError(err) {
		case netFailureTimeout:
			return Result{
				Status:  StatusFail,
				Message: "Connection timeout",
				Details: map[string]any{"url": c.cfg.TargetURL, "timeout": c.cfg.TimeoutSeconds},
			}
		case netFailureRefused:
			return Result{
				Status:  StatusFail,
				Message: "Connection refused",
				Details: map[string]any{"url": c.cfg.TargetURL},
			}
		default:
			return Result{
				Status:  StatusError,
				Message: fmt.Sprintf("Unexpected error: %v", err),
				Details: map[string]any{"url": c.cfg.TargetURL},
			}
		}
	}
	defer drain(resp)

	if resp.StatusCode != http.StatusOK {
		return Result{
			Status:  StatusFail,
			Message: fmt.Sprintf("MCPO returned HTTP %d", resp.StatusCode),
			Details: map[string]any{
				"url":         c.cfg.TargetURL,
				"status_code": resp.StatusCode,
			},
		}
	}

	return Result{
		Status:  StatusPass,
		Message: "MCPO is responding",
		Details: map[string]any{
			"url":           c.cfg.TargetURL,
			"status_code":   resp.StatusCode,
			"response_time": round3(time.Since(start).Seconds()),
		},
	}
}

// checkAuthentication repeats the connectivity probe with the bearer
// credential. 401/403 are authentication failures; any other non-200 code
// means the server is reachable but behaving unexpectedly.
func (c *Checker) checkAuthentication(ctx context.Context) Result {
	if c.cfg.APIKey == "" {
		return Result{
			Status:  StatusSkip,
			Message: "No API key configured",
			Details: map[string]any{},
		}
	}

	resp, err := c.get(ctx, c.endpoint("/docs"), true)
	if err != nil {
		return Result{
			Status:  StatusError,
			Message: fmt.Sprintf("Authentication check failed: %v", err),
			Details: map[string]any{},
		}
	}
	defer drain(resp)

	switch {
	case resp.StatusCode == http.StatusOK:
		return Result{
			Status:  StatusPass,
			Message: "Authentication successful",
			Details: map[string]any{
				"status_code":    resp.StatusCode,
				"api_key_length": len(c.cfg.APIKey),
			},
		}
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return Result{
			Status:  StatusFail,
			Message: fmt.Sprintf("Authentication failed (HTTP %d)", resp.StatusCode),
			Details: map[string]any{"status_code": resp.StatusCode},
		}
	default:
		return Result{
			Status:  StatusWarning,
			Message: fmt.Sprintf("Unexpected status code: %d", resp.StatusCode),
			Details: map[string]any{"status_code": resp.StatusCode},
		}
	}
}

// checkTools probes every configured tool route. With no explicit list it
// discovers routes from the gateway's OpenAPI description, and with nothing
// discovered it falls back to the bare root path.
func (c *Checker) checkTools(ctx context.Context) Result {
	tools := slices.Clone(c.cfg.Tools)
	if len(tools) == 0 {
		tools = c.discoverTools(ctx)
	}
	if len(tools) == 0 {
		// Empty string probes the base endpoint.
		tools = []string{""}
	}

	toolResults := map[string]any{}
	overall := StatusPass
	working := 0

	for _, tool := range tools {
		name := tool
		if name == "" {
			name = "base"
		}
		url := strings.TrimRight(c.endpoint("/"+tool), "/")

		start := time.Now()
		resp, err := c.get(ctx, url, true)
		if err != nil {
			toolResults[name] = map[string]any{"status": string(StatusError), "error": err.Error()}
			overall = StatusFail
			continue
		}
		elapsed := time.Since(start)
		drain(resp)

		if resp.StatusCode == http.StatusOK {
			toolResults[name] = map[string]any{
				"status":        string(StatusPass),
				"status_code":   resp.StatusCode,
				"response_time": round3(elapsed.Seconds()),
			}
			working++
		} else {
			toolResults[name] = map[string]any{
				"status":      string(StatusFail),
				"status_code": resp.StatusCode,
			}
			overall = StatusFail
		}
	}

	return Result{
		Status:  overall,
		Message: fmt.Sprintf("Checked %d tools", len(toolResults)),
		Details: map[string]any{
			"tools":         toolResults,
			"total_tools":   len(toolResults),
			"working_tools": working,
		},
	}
}

// discoverTools extracts route paths from the gateway's OpenAPI document,
// skipping the infrastructure endpoints. Discovery failures are not an
// error; the caller falls back to the base endpoint.
func (c *Checker) discoverTools(ctx context.Context) []string {
	resp, err := c.get(ctx, c.endpoint("/openapi.json"), true)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil
	}

	var spec struct {
		Paths map[string]json.RawMessage `json:"paths"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&spec); err != nil {
		return nil
	}

	var tools []string
	for path := range spec.Paths {
		if !strings.HasPrefix(path, "/") || slices.Contains(wellKnownPaths, path) {
			continue
		}
		tools = append(tools, strings.Trim(path, "/"))
	}
	// Map iteration order is random; keep the probe order stable.
	sort.Strings(tools)
	return tools
}

const performanceSamples = 3

// checkPerformance samples the docs endpoint sequentially and compares the
// mean latency against the configured threshold.
func (c *Checker) checkPerformance(ctx context.Context) Result {
	threshold := c.cfg.PerformanceThresholdSeconds

	var samples []float64
	for i := 0; i < performanceSamples; i++ {
		start := time.Now()
		resp, err := c.get(ctx, c.endpoint("/docs"), true)
		if err != nil {
			return Result{
				Status:  StatusError,
				Message: fmt.Sprintf("Performance check failed: %v", err),
				Details: map[string]any{},
			}
		}
		samples = append(samples, time.Since(start).Seconds())
		drain(resp)

		if resp.StatusCode != http.StatusOK {
			return Result{
				Status:  StatusFail,
				Message: fmt.Sprintf("Performance test failed with HTTP %d", resp.StatusCode),
				Details: map[string]any{"status_code": resp.StatusCode},
			}
		}
	}

	var sum float64
	minTime, maxTime := samples[0], samples[0]
	for _, s := range samples {
		sum += s
		minTime = min(minTime, s)
		maxTime = max(maxTime, s)
	}
	avg := sum / float64(len(samples))

	status := StatusPass
	message := fmt.Sprintf("Performance acceptable (avg: %.3fs)", avg)
	if avg > threshold {
		status = StatusWarning
		message = fmt.Sprintf("Average response time (%.3fs) exceeds threshold (%gs)", avg, threshold)
	}

	return Result{
		Status:  status,
		Message: message,
		Details: map[string]any{
			"avg_response_time": round3(avg),
			"max_response_time": round3(maxTime),
			"min_response_time": round3(minTime),
			"threshold":         threshold,
			"samples":           len(samples),
		},
	}
}
