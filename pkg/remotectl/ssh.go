package remotectl

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"os"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	"golang.org/x/crypto/ssh"
)

const (
	connectTimeout = 10 * time.Second
	pingTimeout    = 2 * time.Second
)

// SSH is the Executor implementation used for the real devices.
//
// An SSH instance controls exactly one device and is owned by a single
// caller.
type SSH struct {
	host     string
	port     int
	username string
	password string

	client *ssh.Client
}

var _ Executor = (*SSH)(nil)

// NewSSH returns an Executor controlling the device at host:port.
func NewSSH(host string, port int, username string, password string) *SSH {
	return &SSH{
		host:     host,
		port:     port,
		username: username,
		password: password,
	}
}

func (s *SSH) addr() string {
	return net.JoinHostPort(s.host, strconv.Itoa(s.port))
}

// Connect implements Executor. Reconnecting is allowed: a device reboots
// mid-deployment and the old connection dies with it.
func (s *SSH) Connect(ctx context.Context) error {
	if s.client != nil {
		_ = s.client.Close()
		s.client = nil
	}

	cfg := &ssh.ClientConfig{
		User: s.username,
		Auth: []ssh.AuthMethod{ssh.Password(s.password)},
		// the lab network is isolated and the devices regenerate
		// their host keys on every flash
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         connectTimeout,
	}

	client, err := ssh.Dial("tcp", s.addr(), cfg)
	if err != nil {
		return ErrConnect{Err: err, Addr: s.addr()}
	}
	s.client = client
	logger.FromCtx(ctx).Debugf("connected to '%s@%s'", s.username, s.addr())
	return nil
}

// RunCommand implements Executor.
func (s *SSH) RunCommand(ctx context.Context, command string) ([]string, error) {
	if s.client == nil {
		return nil, ErrRunCommand{Err: ErrNotConnected{}, Command: command}
	}

	session, err := s.client.NewSession()
	if err != nil {
		return nil, ErrRunCommand{Err: err, Command: command}
	}
	defer session.Close()

	logger.FromCtx(ctx).Debugf("running '%s' on '%s'", command, s.addr())
	out, err := session.Output(command)
	if err != nil {
		return nil, ErrRunCommand{Err: err, Command: command}
	}
	return outputLines(out), nil
}

// CopyFile implements Executor. The file is streamed through the session's
// stdin, the devices have no sftp server installed.
func (s *SSH) CopyFile(ctx context.Context, localPath string, remotePath string) error {
	if s.client == nil {
		return ErrCopyFile{Err: ErrNotConnected{}, LocalPath: localPath, RemotePath: remotePath}
	}

	f, err := os.Open(localPath)
	if err != nil {
		return ErrCopyFile{Err: err, LocalPath: localPath, RemotePath: remotePath}
	}
	defer f.Close()

	session, err := s.client.NewSession()
	if err != nil {
		return ErrCopyFile{Err: err, LocalPath: localPath, RemotePath: remotePath}
	}
	defer session.Close()

	session.Stdin = f
	if err := session.Run(fmt.Sprintf("cat > %s", ShellQuote(remotePath))); err != nil {
		return ErrCopyFile{Err: err, LocalPath: localPath, RemotePath: remotePath}
	}
	logger.FromCtx(ctx).Debugf("copied '%s' to '%s:%s'", localPath, s.addr(), remotePath)
	return nil
}

// FetchFromServer implements Executor.
func (s *SSH) FetchFromServer(ctx context.Context, fileURL string, remoteDir string) error {
	command, err := fetchCommand(fileURL, remoteDir)
	if err != nil {
		return err
	}
	_, err = s.RunCommand(ctx, command)
	return err
}

// PingReachable implements Executor. Reachability means "accepts TCP
// connections on the control port": that is the condition every caller
// actually waits for, and it requires no raw-socket privileges.
func (s *SSH) PingReachable(ctx context.Context) bool {
	d := net.Dialer{Timeout: pingTimeout}
	conn, err := d.DialContext(ctx, "tcp", s.addr())
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

// Close implements Executor.
func (s *SSH) Close() error {
	if s.client == nil {
		return nil
	}
	err := s.client.Close()
	s.client = nil
	return err
}

// fetchCommand composes the command a device runs to pull a file from the
// staging server. The download is skipped if the file is already staged on
// the device.
func fetchCommand(fileURL string, remoteDir string) (string, error) {
	parsed, err := url.Parse(fileURL)
	if err != nil {
		return "", ErrRunCommand{Err: err, Command: fileURL}
	}
	dst := path.Join(remoteDir, path.Base(parsed.Path))
	return fmt.Sprintf(
		"test -f %s || wget %s -P %s",
		ShellQuote(dst), ShellQuote(fileURL), ShellQuote(remoteDir),
	), nil
}

func outputLines(out []byte) []string {
	trimmed := strings.TrimRight(string(out), "\n")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "\n")
}

// ShellQuote single-quotes a string for the device's shell. The device side
// is busybox ash, single quotes are the one quoting form it gets right.
func ShellQuote(in string) string {
	return "'" + strings.ReplaceAll(in, "'", `'\''`) + "'"
}
