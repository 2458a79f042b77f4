package docker

import (
	"context"
	"errors"
	"fmt"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/client"
	"github.com/rs/zerolog"
	"github.com/samber/do"
)

var ErrNotFound = errors.New("not found error")

var _ do.Shutdownable = (*Docker)(nil)

// Docker is a thin wrapper around the engine API client exposing only the
// operations the container health check needs.
type Docker struct {
	client *client.Client
	logger zerolog.Logger
}

func NewDocker(logger zerolog.Logger) (*Docker, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}
	return &Docker{client: cli, logger: logger}, nil
}

// Ping reports whether a docker daemon is reachable. Creating the client
// never contacts the daemon, so this is the availability check.
func (d *Docker) Ping(ctx context.Context) error {
	if _, err := d.client.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping docker daemon: %w", err)
	}
	return nil
}

func (d *Docker) ContainerInspect(ctx context.Context, name string) (types.ContainerJSON, error) {
	resp, err := d.client.ContainerInspect(ctx, name)
	if err != nil {
		return types.ContainerJSON{}, fmt.Errorf("failed to inspect container: %w", errTranslate(err))
	}
	return resp, nil
}

func (d *Docker) Shutdown() error {
	if err := d.client.Close(); err != nil {
		return fmt.Errorf("failed to close docker client: %w", err)
	}
	return nil
}

// The docker errors are annoying to check further up in the stack since they
// rely on type checks. Wrapping them in our own errors makes it easier for
// callers to explicitly handle specific errors.
func errTranslate(err error) error {
	if client.IsErrNotFound(err) {
		return fmt.Errorf("%w: %s", ErrNotFound, err.Error())
	}
	return err
}
