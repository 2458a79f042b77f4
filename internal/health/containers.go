package health

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mcpo-tools/mcpoctl/internal/docker"
)

const dockerOpTimeout = 5 * time.Second

// checkDockerHealth inspects each configured container's run state and, when
// declared, its health-check state. An unreachable daemon skips the check.
func (c *Checker) checkDockerHealth(ctx context.Context) Result {
	if c.containers == nil {
		return Result{
			Status:  StatusSkip,
			Message: "Docker not available",
			Details: map[string]any{},
		}
	}

	pingCtx, cancel := context.WithTimeout(ctx, dockerOpTimeout)
	defer cancel()
	if err := c.containers.Ping(pingCtx); err != nil {
		return Result{
			Status:  StatusSkip,
			Message: "Docker not available",
			Details: map[string]any{"error": err.Error()},
		}
	}

	containerInfo := map[string]any{}
	running := 0

	for _, name := range c.cfg.DockerContainers {
		inspectCtx, cancel := context.WithTimeout(ctx, dockerOpTimeout)
		resp, err := c.containers.ContainerInspect(inspectCtx, name)
		cancel()

		switch {
		case errors.Is(err, docker.ErrNotFound):
			containerInfo[name] = map[string]any{"status": "not found"}
		case err != nil:
			containerInfo[name] = map[string]any{"error": err.Error()}
		case resp.ContainerJSONBase == nil || resp.State == nil:
			containerInfo[name] = map[string]any{"status": "unknown"}
		default:
			entry := map[string]any{"status": resp.State.Status}
			if resp.State.Health != nil {
				entry["health"] = resp.State.Health.Status
			}
			containerInfo[name] = entry
			if resp.State.Running {
				running++
			}
		}
	}

	total := len(containerInfo)
	var status Status
	var message string
	switch {
	case running == total:
		status = StatusPass
		message = fmt.Sprintf("All %d containers running", total)
	case running > 0:
		status = StatusWarning
		message = fmt.Sprintf("%d/%d containers running", running, total)
	default:
		status = StatusFail
		message = "No containers running"
	}

	return Result{
		Status:  status,
		Message: message,
		Details: map[string]any{
			"containers": containerInfo,
			"running":    running,
			"total":      total,
		},
	}
}
