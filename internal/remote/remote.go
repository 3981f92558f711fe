// Package remote executes commands on other machines over SSH. It
// backs the run_cmd and check_temps agent tools.
package remote

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"
)

// DefaultTimeout bounds one remote command execution.
const DefaultTimeout = 10 * time.Second

// Executor runs a command on a host as a user. The SSH client
// implements it; tests substitute a stub.
type Executor interface {
	Run(ctx context.Context, host, user, command string) (string, error)
}

// Client executes commands over SSH using public key authentication.
type Client struct {
	signer  ssh.Signer
	timeout time.Duration
}

// NewClient loads the private key at keyFile and returns a client that
// authenticates with it.
func NewClient(keyFile string) (*Client, error) {
	raw, err := os.ReadFile(keyFile)
	if err != nil {
		return nil, fmt.Errorf("remote: reading key: %w", err)
	}
	signer, err := ssh.ParsePrivateKey(raw)
	if err != nil {
		return nil, fmt.Errorf("remote: parsing key %s: %w", keyFile, err)
	}
	return &Client{signer: signer, timeout: DefaultTimeout}, nil
}

// Run executes command on host as user and returns the combined
// output, formatted the way the agent expects: stderr is prefixed so
// the model can tell failure chatter from real output.
func (c *Client) Run(ctx context.Context, host, user, command string) (string, error) {
	if !strings.Contains(host, ":") {
		host = net.JoinHostPort(host, "22")
	}

	cfg := &ssh.ClientConfig{
		User: user,
		Auth: []ssh.AuthMethod{ssh.PublicKeys(c.signer)},
		// Hosts on the home network come and go; key pinning would
		// turn every reinstall into a tool failure.
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         c.timeout,
	}

	conn, err := ssh.Dial("tcp", host, cfg)
	if err != nil {
		return "", fmt.Errorf("remote: connect %s: %w", host, err)
	}
	defer conn.Close()

	session, err := conn.NewSession()
	if err != nil {
		return "", fmt.Errorf("remote: session: %w", err)
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	// The ssh package has no context support; close the session when
	// the context ends so Wait returns.
	done := make(chan error, 1)
	go func() { done <- session.Run(command) }()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	select {
	case <-ctx.Done():
		session.Close()
		return "", fmt.Errorf("remote: command timed out: %w", ctx.Err())
	case err = <-done:
	}

	out := FormatOutput(stdout.String(), stderr.String())
	if err != nil {
		return out, fmt.Errorf("remote: %s: %w", command, err)
	}
	return out, nil
}

// FormatOutput merges stdout and stderr into the single string handed
// to the model.
func FormatOutput(stdout, stderr string) string {
	stdout = strings.TrimSpace(stdout)
	stderr = strings.TrimSpace(stderr)
	switch {
	case stderr != "":
		return fmt.Sprintf("STDERR: %s\nSTDOUT: %s", stderr, stdout)
	case stdout != "":
		return stdout
	default:
		return "Success (No Output)"
	}
}
