package finders

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/Soumalya1857/catapult/pkg/browser"
)

// crosChromePath is where the Chrome binary lives on a ChromeOS image.
const crosChromePath = "/opt/google/chrome/chrome"

// SSHProber probes a remote ChromeOS device over SSH, statting the
// Chrome binary through SFTP.
type SSHProber struct {
	// ChromePath overrides the binary location on the device.
	ChromePath string

	// ConnectionTimeout bounds the SSH dial.
	ConnectionTimeout time.Duration

	// KnownHostsPath is the known_hosts file used for host key
	// verification. Empty disables verification; ChromeOS test images
	// regenerate host keys on flash, so that is the default.
	KnownHostsPath string
}

// NewSSHProber creates a prober with defaults suitable for ChromeOS
// test devices.
func NewSSHProber() *SSHProber {
	return &SSHProber{
		ChromePath:        crosChromePath,
		ConnectionTimeout: 30 * time.Second,
	}
}

// StatChrome implements RemoteProber.
func (p *SSHProber) StatChrome(ctx context.Context, remote *browser.CrosRemote) (time.Time, error) {
	cfg, err := p.clientConfig(remote)
	if err != nil {
		return time.Time{}, err
	}

	addr := net.JoinHostPort(remote.Host, strconv.Itoa(portOrDefault(remote.Port)))

	conn, err := dialContext(ctx, addr, cfg)
	if err != nil {
		return time.Time{}, fmt.Errorf("ssh dial %s: %w", addr, err)
	}
	defer conn.Close()

	client, err := sftp.NewClient(conn)
	if err != nil {
		return time.Time{}, fmt.Errorf("sftp session: %w", err)
	}
	defer client.Close()

	path := p.ChromePath
	if path == "" {
		path = crosChromePath
	}
	fi, err := client.Stat(path)
	if err != nil {
		return time.Time{}, fmt.Errorf("stat %s: %w", path, err)
	}

	return fi.ModTime(), nil
}

// clientConfig builds the SSH client configuration for a remote.
func (p *SSHProber) clientConfig(remote *browser.CrosRemote) (*ssh.ClientConfig, error) {
	user := remote.User
	if user == "" {
		user = "root"
	}

	var auth []ssh.AuthMethod
	if remote.PrivateKeyPath != "" {
		key, err := loadPrivateKey(remote.PrivateKeyPath)
		if err != nil {
			return nil, err
		}
		auth = append(auth, ssh.PublicKeys(key))
	}

	hostKeyCallback := ssh.InsecureIgnoreHostKey() //nolint:gosec // test devices regenerate host keys
	if p.KnownHostsPath != "" {
		cb, err := knownhosts.New(p.KnownHostsPath)
		if err != nil {
			return nil, fmt.Errorf("loading known_hosts: %w", err)
		}
		hostKeyCallback = cb
	}

	timeout := p.ConnectionTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &ssh.ClientConfig{
		User:            user,
		Auth:            auth,
		HostKeyCallback: hostKeyCallback,
		Timeout:         timeout,
	}, nil
}

// dialContext establishes the SSH connection, honoring context
// cancellation during the dial.
func dialContext(ctx context.Context, addr string, cfg *ssh.ClientConfig) (*ssh.Client, error) {
	d := net.Dialer{Timeout: cfg.Timeout}
	netConn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(netConn, addr, cfg)
	if err != nil {
		_ = netConn.Close()
		return nil, err
	}
	return ssh.NewClient(sshConn, chans, reqs), nil
}

// loadPrivateKey reads and parses an SSH private key file.
func loadPrivateKey(path string) (ssh.Signer, error) {
	expanded := path
	if len(path) > 1 && path[:2] == "~/" {
		home, err := os.UserHomeDir()
		if err == nil {
			expanded = filepath.Join(home, path[2:])
		}
	}

	raw, err := os.ReadFile(expanded)
	if err != nil {
		return nil, fmt.Errorf("reading private key: %w", err)
	}

	signer, err := ssh.ParsePrivateKey(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing private key: %w", err)
	}
	return signer, nil
}

func portOrDefault(port int) int {
	if port <= 0 {
		return 22
	}
	return port
}
