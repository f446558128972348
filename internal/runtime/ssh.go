package runtime

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/diyhub/homelabctl/internal/config"
	"github.com/diyhub/homelabctl/internal/sshx"
)

// SSHRuntime drives Docker on remote machines over SSH. Each call opens a
// fresh connection with the default bounded timeout; a timeout is treated
// the same as a refused connection.
type SSHRuntime struct {
	machines map[string]*config.Machine
}

func NewSSHRuntime(machines map[string]*config.Machine) *SSHRuntime {
	return &SSHRuntime{machines: machines}
}

func (r *SSHRuntime) dial(addr string) (*sshx.Client, error) {
	m, ok := r.machines[addr]
	if !ok {
		return nil, fmt.Errorf("unknown machine %q", addr)
	}
	return sshx.Dial(m.IP, m.SSHUser, m.SSHPort, sshx.DefaultTimeout)
}

func (r *SSHRuntime) Ping(ctx context.Context, addr string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c, err := r.dial(addr)
	if err != nil {
		return err
	}
	defer c.Close()
	_, err = c.Run("true")
	return err
}

func (r *SSHRuntime) CopyBundle(ctx context.Context, addr string, files FileSet) error {
	c, err := r.dial(addr)
	if err != nil {
		return err
	}
	defer c.Close()

	dirs := map[string]bool{}
	for _, remote := range files {
		dirs[path.Dir(remote)] = true
	}
	for dir := range dirs {
		if _, err := c.Run("mkdir -p " + dir); err != nil {
			return err
		}
	}
	for local, remote := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := c.Upload(local, remote); err != nil {
			return err
		}
	}
	return nil
}

func (r *SSHRuntime) Apply(ctx context.Context, addr, dir string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c, err := r.dial(addr)
	if err != nil {
		return err
	}
	defer c.Close()
	_, err = c.Run(fmt.Sprintf("docker compose -f %s/docker-compose.yml up -d --remove-orphans", dir))
	return err
}

func (r *SSHRuntime) Verify(ctx context.Context, addr string, services []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c, err := r.dial(addr)
	if err != nil {
		return err
	}
	defer c.Close()

	out, err := c.Run("docker ps --format '{{.Names}}'")
	if err != nil {
		return err
	}
	running := string(out)
	var missing []string
	for _, svc := range services {
		if !strings.Contains(running, svc) {
			missing = append(missing, svc)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("services not running on %s: %s", addr, strings.Join(missing, ", "))
	}
	return nil
}
