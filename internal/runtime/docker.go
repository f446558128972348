package runtime

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/docker/docker/api/types/container"
	dclient "github.com/docker/docker/client"
)

// LocalRuntime drives the Docker daemon on the driver machine through the
// official SDK; artifacts are already local so CopyBundle is a no-op the
// dispatcher reports as an explicit skip.
type LocalRuntime struct {
	c *dclient.Client
}

func NewLocalRuntime() (*LocalRuntime, error) {
	cli, err := dclient.NewClientWithOpts(dclient.FromEnv, dclient.WithAPIVersionNegotiation())
	if err != nil {
		return nil, err
	}
	return &LocalRuntime{c: cli}, nil
}

func (r *LocalRuntime) Ping(ctx context.Context, addr string) error {
	_, err := r.c.Ping(ctx)
	return err
}

func (r *LocalRuntime) CopyBundle(ctx context.Context, addr string, files FileSet) error {
	return nil
}

func (r *LocalRuntime) Apply(ctx context.Context, addr, dir string) error {
	cmd := exec.CommandContext(ctx, "docker", "compose",
		"-f", dir+"/docker-compose.yml", "up", "-d", "--remove-orphans")
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("docker compose up: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

func (r *LocalRuntime) Verify(ctx context.Context, addr string, services []string) error {
	containers, err := r.c.ContainerList(ctx, container.ListOptions{})
	if err != nil {
		return err
	}
	var running []string
	for _, c := range containers {
		running = append(running, c.Names...)
	}
	joined := strings.Join(running, " ")

	var missing []string
	for _, svc := range services {
		if !strings.Contains(joined, svc) {
			missing = append(missing, svc)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("services not running locally: %s", strings.Join(missing, ", "))
	}
	return nil
}

// RunningContainers lists local container names, used by the status command.
func (r *LocalRuntime) RunningContainers(ctx context.Context) ([]string, error) {
	containers, err := r.c.ContainerList(ctx, container.ListOptions{})
	if err != nil {
		return nil, err
	}
	var names []string
	for _, c := range containers {
		for _, n := range c.Names {
			names = append(names, strings.TrimPrefix(n, "/"))
		}
	}
	return names, nil
}
