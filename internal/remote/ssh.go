// Package remote runs commands and transfers files on a cluster node
// over SSH.
package remote

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kballard/go-shellquote"
	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

// SSHConfig contains SSH connection parameters.
type SSHConfig struct {
	Host    string
	Port    int
	User    string
	KeyPath string
}

// SSHSession is an established connection to a node, carrying both an SSH
// client for command execution and an SFTP subsystem for file transfer.
type SSHSession struct {
	client *ssh.Client
	sftp   *sftp.Client
}

// DialSSH establishes a connection from the given config.
func DialSSH(config SSHConfig) (*SSHSession, error) {
	client, err := createSSHClient(config)
	if err != nil {
		return nil, err
	}

	sftpClient, err := sftp.NewClient(client)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to open sftp subsystem: %w", err)
	}

	return &SSHSession{client: client, sftp: sftpClient}, nil
}

// Close closes the SFTP subsystem and the SSH connection.
func (s *SSHSession) Close() error {
	if s.sftp != nil {
		s.sftp.Close()
	}
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// Execute runs a command on the remote host and returns its captured stdout
// and stderr. A non-zero exit status is not an error: callers inspect the
// output streams to decide whether the command did what they needed. Only
// transport and session failures return an error.
func (s *SSHSession) Execute(ctx context.Context, name string, args ...string) (string, string, error) {
	session, err := s.client.NewSession()
	if err != nil {
		return "", "", fmt.Errorf("failed to create SSH session: %w", err)
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	cmd := buildCommand(name, args)

	done := make(chan error, 1)
	if err := session.Start(cmd); err != nil {
		return "", "", fmt.Errorf("failed to start command: %w", err)
	}
	go func() { done <- session.Wait() }()

	select {
	case <-ctx.Done():
		session.Signal(ssh.SIGKILL)
		return stdout.String(), stderr.String(), ctx.Err()
	case err = <-done:
	}

	if err != nil {
		if _, ok := err.(*ssh.ExitError); ok {
			return stdout.String(), stderr.String(), nil
		}
		return stdout.String(), stderr.String(), fmt.Errorf("command execution failed: %w", err)
	}
	return stdout.String(), stderr.String(), nil
}

// UploadFile copies a local file to the given remote path via SFTP.
func (s *SSHSession) UploadFile(ctx context.Context, localPath, remotePath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	local, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", localPath, err)
	}
	defer local.Close()

	remote, err := s.sftp.Create(remotePath)
	if err != nil {
		return fmt.Errorf("failed to create remote file %s: %w", remotePath, err)
	}
	defer remote.Close()

	if _, err := remote.ReadFrom(local); err != nil {
		return fmt.Errorf("failed to upload %s to %s: %w", localPath, remotePath, err)
	}
	return nil
}

// buildCommand assembles the remote command line. Each argument is quoted
// individually so values never splice into the shell grammar.
func buildCommand(name string, args []string) string {
	return shellquote.Join(append([]string{name}, args...)...)
}

// createSSHClient establishes an SSH connection from the given config.
func createSSHClient(config SSHConfig) (*ssh.Client, error) {
	port := config.Port
	if port == 0 {
		port = 22
	}

	// Expand ~ in the key path
	keyPath := config.KeyPath
	if strings.HasPrefix(keyPath, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		keyPath = filepath.Join(home, keyPath[2:])
	}

	keyBytes, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read SSH key %s: %w", keyPath, err)
	}

	signer, err := ssh.ParsePrivateKey(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse SSH key: %w", err)
	}

	sshConfig := &ssh.ClientConfig{
		User: config.User,
		Auth: []ssh.AuthMethod{
			ssh.PublicKeys(signer),
		},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(), // TODO: known_hosts support
	}

	addr := fmt.Sprintf("%s:%d", config.Host, port)
	client, err := ssh.Dial("tcp", addr, sshConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	return client, nil
}
