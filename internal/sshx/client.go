// Package sshx is the remote command execution capability: a thin wrapper
// around an SSH connection with bounded connect timeouts. Machine entries
// that omit ssh_user/ssh_port fall back to the operator's ~/.ssh/config.
package sshx

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/kevinburke/ssh_config"
	"github.com/melbahja/goph"
	"github.com/rs/zerolog/log"
	sshagent "github.com/xanzy/ssh-agent"
	"golang.org/x/crypto/ssh"
)

// DefaultTimeout bounds the TCP+handshake phase of every connection.
const DefaultTimeout = 5 * time.Second

type Client struct {
	conn *goph.Client
	addr string
}

// Dial opens a connection to addr. user and port may be empty/zero; the ssh
// client config and conventional defaults fill them in.
func Dial(addr, user string, port uint, timeout time.Duration) (*Client, error) {
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	if user == "" {
		user = ssh_config.Get(addr, "User")
	}
	if user == "" {
		user = "root"
	}
	if port == 0 {
		if p, err := strconv.Atoi(ssh_config.Get(addr, "Port")); err == nil && p > 0 {
			port = uint(p)
		}
	}
	if port == 0 {
		port = 22
	}

	auth, err := authMethods()
	if err != nil {
		return nil, err
	}

	conn, err := goph.NewConn(&goph.Config{
		User:     user,
		Addr:     addr,
		Port:     port,
		Auth:     auth,
		Timeout:  timeout,
		Callback: verifyHost,
	})
	if err != nil {
		return nil, fmt.Errorf("connect %s@%s:%d: %w", user, addr, port, err)
	}
	return &Client{conn: conn, addr: addr}, nil
}

// Run executes a command remotely and returns its combined output.
func (c *Client) Run(cmd string) ([]byte, error) {
	out, err := c.conn.Run(cmd)
	if err != nil {
		return out, fmt.Errorf("%s: %q: %w", c.addr, cmd, err)
	}
	return out, nil
}

// Upload copies a local file to the remote path over sftp.
func (c *Client) Upload(local, remote string) error {
	if err := c.conn.Upload(local, remote); err != nil {
		return fmt.Errorf("%s: upload %s -> %s: %w", c.addr, local, remote, err)
	}
	return nil
}

func (c *Client) Close() error { return c.conn.Close() }

// authMethods prefers a running SSH agent and falls back to the usual
// private key files.
func authMethods() (goph.Auth, error) {
	if ag, _, err := sshagent.New(); err == nil {
		log.Debug().Msg("using ssh agent for authentication")
		return goph.Auth{ssh.PublicKeysCallback(ag.Signers)}, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	for _, name := range []string{"id_ed25519", "id_rsa"} {
		path := filepath.Join(home, ".ssh", name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		log.Debug().Str("key", path).Msg("using private key for authentication")
		return goph.Key(path, "")
	}
	return nil, fmt.Errorf("no ssh agent and no private key found under %s", filepath.Join(home, ".ssh"))
}

// verifyHost accepts known hosts, records new ones, and rejects mismatched
// keys.
func verifyHost(host string, remote net.Addr, key ssh.PublicKey) error {
	found, err := goph.CheckKnownHost(host, remote, key, "")
	if found && err != nil {
		return err
	}
	if found {
		return nil
	}
	return goph.AddKnownHost(host, remote, key, "")
}
