package health

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"
)

const tcpProbeTimeout = 5 * time.Second

// checkNetworkConnectivity attempts a raw TCP connect to every configured
// external service. Any unreachable or misconfigured entry fails the whole
// check.
func (c *Checker) checkNetworkConnectivity(_ context.Context) Result {
	services := c.cfg.ExternalServices
	if len(services) == 0 {
		return Result{
			Status:  StatusSkip,
			Message: "No external services configured",
			Details: map[string]any{},
		}
	}

	results := map[string]any{}
	overall := StatusPass
	working := 0

	for _, svc := range services {
		name := valueOr(svc.Name, "unknown")

		host, port, err := resolveHostPort(svc.URL)
		if err != nil {
			results[name] = map[string]any{"status": string(StatusError), "error": err.Error()}
			overall = StatusFail
			continue
		}

		conn, err := c.dialTimeout("tcp", net.JoinHostPort(host, strconv.Itoa(port)), tcpProbeTimeout)
		if err != nil {
			results[name] = map[string]any{"status": string(StatusFail), "host": host, "port": port}
			overall = StatusFail
			continue
		}
		_ = conn.Close()
		results[name] = map[string]any{"status": string(StatusPass), "host": host, "port": port}
		working++
	}

	return Result{
		Status:  overall,
		Message: fmt.Sprintf("%d/%d external services reachable", working, len(results)),
		Details: map[string]any{
			"services": results,
			"working":  working,
			"total":    len(results),
		},
	}
}

// resolveHostPort extracts the host and port from a service URL, defaulting
// the port from the scheme (443 for https, 80 otherwise).
func resolveHostPort(rawURL string) (string, int, error) {
	if rawURL == "" {
		return "", 0, fmt.Errorf("no URL configured")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", 0, fmt.Errorf("invalid URL: %w", err)
	}
	host := u.Hostname()
	if host == "" {
		return "", 0, fmt.Errorf("no host in URL %q", rawURL)
	}
	if p := u.Port(); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return "", 0, fmt.Errorf("invalid port in URL %q: %w", rawURL, err)
		}
		return host, port, nil
	}
	if u.Scheme == "https" {
		return host, 443, nil
	}
	return host, 80, nil
}
