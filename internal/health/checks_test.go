package health

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcpo-tools/mcpoctl/internal/config"
)

// closedPortURL returns a URL whose port was just released, so connections
// get refused.
func closedPortURL(t *testing.T) string {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := lis.Addr().String()
	require.NoError(t, lis.Close())
	return "http://" + addr
}

func checkerForServer(t *testing.T, srv *httptest.Server, mutate func(*config.Config)) *Checker {
	t.Helper()
	return newTestChecker(t, func(cfg *config.Config) {
		cfg.TargetURL = srv.URL
		if mutate != nil {
			mutate(cfg)
		}
	})
}

func TestCheckConnectivity(t *testing.T) {
	t.Run("pass", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/docs", r.URL.Path)
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		result := checkerForServer(t, srv, nil).checkConnectivity(context.Background())

		assert.Equal(t, StatusPass, result.Status)
		assert.Equal(t, "MCPO is responding", result.Message)
		assert.Equal(t, 200, result.Details["status_code"])
		assert.Contains(t, result.Details, "response_time")
	})

	t.Run("http error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		result := checkerForServer(t, srv, nil).checkConnectivity(context.Background())

		assert.Equal(t, StatusFail, result.Status)
		assert.Equal(t, "MCPO returned HTTP 500", result.Message)
	})

	t.Run("refused", func(t *testing.T) {
		c := newTestChecker(t, func(cfg *config.Config) {
			cfg.TargetURL = closedPortURL(t)
		})

		result := c.checkConnectivity(context.Background())

		assert.Equal(t, StatusFail, result.Status)
		assert.Equal(t, "Connection refused", result.Message)
	})

	t.Run("timeout", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(500 * time.Millisecond)
		}))
		defer srv.Close()

		c := checkerForServer(t, srv, nil)
		c.httpClient.Timeout = 50 * time.Millisecond

		result := c.checkConnectivity(context.Background())

		assert.Equal(t, StatusFail, result.Status)
		assert.Equal(t, "Connection timeout", result.Message)
	})
}

func TestCheckAuthentication(t *testing.T) {
	t.Run("skip without key", func(t *testing.T) {
		c := newTestChecker(t, nil)

		result := c.checkAuthentication(context.Background())

		assert.Equal(t, StatusSkip, result.Status)
		assert.Equal(t, "No API key configured", result.Message)
	})

	t.Run("pass", func(t *testing.T) {
		var gotAuth string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		c := checkerForServer(t, srv, func(cfg *config.Config) {
			cfg.APIKey = "secret-key"
		})
		result := c.checkAuthentication(context.Background())

		assert.Equal(t, StatusPass, result.Status)
		assert.Equal(t, "Bearer secret-key", gotAuth)
		assert.Equal(t, len("secret-key"), result.Details["api_key_length"])
	})

	t.Run("forbidden", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer srv.Close()

		c := checkerForServer(t, srv, func(cfg *config.Config) {
			cfg.APIKey = "secret-key"
		})
		result := c.checkAuthentication(context.Background())

		assert.Equal(t, StatusFail, result.Status)
		assert.Equal(t, "Authentication failed (HTTP 403)", result.Message)
	})

	t.Run("unexpected status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}))
		defer srv.Close()

		c := checkerForServer(t, srv, func(cfg *config.Config) {
			cfg.APIKey = "secret-key"
		})
		result := c.checkAuthentication(context.Background())

		assert.Equal(t, StatusWarning, result.Status)
		assert.Equal(t, "Unexpected status code: 418", result.Message)
	})
}

func TestCheckTools(t *testing.T) {
	t.Run("discovered from openapi", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/openapi.json":
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"paths": {"/time": {}, "/fetch": {}, "/docs": {}, "/": {}}}`))
			case "/time", "/fetch":
				w.WriteHeader(http.StatusOK)
			default:
				w.WriteHeader(http.StatusNotFound)
			}
		}))
		defer srv.Close()

		result := checkerForServer(t, srv, nil).checkTools(context.Background())

		assert.Equal(t, StatusPass, result.Status)
		assert.Equal(t, "Checked 2 tools", result.Message)
		assert.Equal(t, 2, result.Details["total_tools"])
		assert.Equal(t, 2, result.Details["working_tools"])

		tools, ok := result.Details["tools"].(map[string]any)
		require.True(t, ok)
		assert.Contains(t, tools, "time")
		assert.Contains(t, tools, "fetch")
	})

	t.Run("configured tool failing", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/time":
				w.WriteHeader(http.StatusOK)
			default:
				w.WriteHeader(http.StatusNotFound)
			}
		}))
		defer srv.Close()

		c := checkerForServer(t, srv, func(cfg *config.Config) {
			cfg.Tools = []string{"time", "broken"}
		})
		result := c.checkTools(context.Background())

		assert.Equal(t, StatusFail, result.Status)
		assert.Equal(t, "Checked 2 tools", result.Message)
		assert.Equal(t, 1, result.Details["working_tools"])
	})

	t.Run("falls back to base endpoint", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		result := checkerForServer(t, srv, nil).checkTools(context.Background())

		assert.Equal(t, StatusPass, result.Status)
		tools, ok := result.Details["tools"].(map[string]any)
		require.True(t, ok)
		assert.Contains(t, tools, "base")
	})
}

func TestCheckPerformance(t *testing.T) {
	t.Run("acceptable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		result := checkerForServer(t, srv, nil).checkPerformance(context.Background())

		assert.Equal(t, StatusPass, result.Status)
		assert.Equal(t, performanceSamples, result.Details["samples"])
		assert.Contains(t, result.Details, "avg_response_time")
		assert.Contains(t, result.Details, "min_response_time")
		assert.Contains(t, result.Details, "max_response_time")
	})

	t.Run("over threshold", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(10 * time.Millisecond)
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		c := checkerForServer(t, srv, func(cfg *config.Config) {
			cfg.PerformanceThresholdSeconds = 0.001
		})
		result := c.checkPerformance(context.Background())

		assert.Equal(t, StatusWarning, result.Status)
		assert.Contains(t, result.Message, "exceeds threshold")
	})

	t.Run("http error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		result := checkerForServer(t, srv, nil).checkPerformance(context.Background())

		assert.Equal(t, StatusFail, result.Status)
		assert.Equal(t, "Performance test failed with HTTP 502", result.Message)
	})
}
