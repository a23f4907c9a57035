// Package sshdeploy configures booted instances over SSH.
//
// Every call opens its own connection, so a single Deployer can serve
// concurrent deployments. Dialing is retried with exponential backoff because
// freshly booted instances take a while before sshd accepts connections.
package sshdeploy

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"

	providerdrv "github.com/yaegashi/clusterops/adapters/drivers/provider"
	"github.com/yaegashi/clusterops/domain/model"
	"github.com/yaegashi/clusterops/internal/logging"
	"github.com/yaegashi/clusterops/internal/retry"
)

// Provider settings read by the deployer.
const (
	SettingUser    = "ssh_user"
	SettingKeyFile = "ssh_key_file"
	SettingPort    = "ssh_port"
)

const (
	defaultUser         = "ubuntu"
	defaultPort         = 22
	defaultDialTimeout  = 10 * time.Second
	defaultDialRetries  = 30
	defaultRetryDelay   = 2 * time.Second
	defaultMaxDelay     = 10 * time.Second
	defaultShellTerm    = "xterm-256color"
	defaultShellEscape  = "~."
	controllerIPEnvName = "CLUSTEROPS_CONTROLLER_IP"
)

// Config holds remote commands and file locations used during deployment.
type Config struct {
	ControllerCommand string
	EngineConfigPath  string
	ClientConfigPath  string
	WorkerConfigPath  string
	WorkerKeyPath     string
	WorkerCommand     string

	// DialRetries bounds connection attempts. If zero, defaultDialRetries is used.
	DialRetries int
	// RetryDelay is the initial delay between attempts. If zero, defaultRetryDelay is used.
	RetryDelay  time.Duration
	DialTimeout time.Duration

	// ShellEscape detaches an interactive shell. "none" disables it.
	ShellEscape string

	// HostKeyCallback verifies host keys. If nil, host keys are not checked.
	HostKeyCallback ssh.HostKeyCallback
}

// DefaultConfig returns the built-in remote layout.
func DefaultConfig() Config {
	return Config{
		ControllerCommand: "sudo systemctl enable --now clusterops-controller",
		EngineConfigPath:  "/etc/clusterops/engine.json",
		ClientConfigPath:  "/etc/clusterops/client.json",
		WorkerConfigPath:  "/etc/clusterops/engine.json",
		WorkerKeyPath:     "/etc/clusterops/controller.key",
		WorkerCommand:     "sudo -E systemctl restart clusterops-engine",
	}
}

// withDefaults fills unset fields of c from DefaultConfig and built-in constants.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	setDefault(&c.ControllerCommand, def.ControllerCommand)
	setDefault(&c.EngineConfigPath, def.EngineConfigPath)
	setDefault(&c.ClientConfigPath, def.ClientConfigPath)
	setDefault(&c.WorkerConfigPath, def.WorkerConfigPath)
	setDefault(&c.WorkerKeyPath, def.WorkerKeyPath)
	setDefault(&c.WorkerCommand, def.WorkerCommand)
	setDefault(&c.ShellEscape, defaultShellEscape)
	if c.DialRetries == 0 {
		c.DialRetries = defaultDialRetries
	}
	if c.RetryDelay == 0 {
		c.RetryDelay = defaultRetryDelay
	}
	if c.DialTimeout == 0 {
		c.DialTimeout = defaultDialTimeout
	}
	if c.HostKeyCallback == nil {
		c.HostKeyCallback = ssh.InsecureIgnoreHostKey() //nolint:gosec // instances are ephemeral
	}
	return c
}

func setDefault(dst *string, def string) {
	if *dst == "" {
		*dst = def
	}
}

// Deployer implements model.DeployPort and model.ShellPort over SSH.
type Deployer struct {
	cfg     Config
	baseDir string
	logger  logging.Logger

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

var (
	_ model.DeployPort = (*Deployer)(nil)
	_ model.ShellPort  = (*Deployer)(nil)
)

// New returns a Deployer. Relative key file paths are resolved against baseDir.
func New(cfg Config, baseDir string, logger logging.Logger) *Deployer {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Deployer{
		cfg:     cfg.withDefaults(),
		baseDir: baseDir,
		logger:  logger,
		stdin:   os.Stdin,
		stdout:  os.Stdout,
		stderr:  os.Stderr,
	}
}

// ConfigureController implements model.DeployPort.
func (d *Deployer) ConfigureController(ctx context.Context, provider *model.Provider, host string) (err error) {
	ctx, cleanup := providerdrv.MethodLogger(ctx, d.logger, "ssh", "ConfigureController")
	defer func() { cleanup(err) }()

	client, err := d.connect(ctx, provider, host)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	_, err = d.run(ctx, client, host, d.cfg.ControllerCommand, nil)
	return err
}

// EngineConfig implements model.DeployPort.
func (d *Deployer) EngineConfig(ctx context.Context, provider *model.Provider, controllerHost string) (data []byte, err error) {
	ctx, cleanup := providerdrv.MethodLogger(ctx, d.logger, "ssh", "EngineConfig")
	defer func() { cleanup(err) }()
	return d.readFile(ctx, provider, controllerHost, d.cfg.EngineConfigPath)
}

// ClientConfig implements model.DeployPort.
func (d *Deployer) ClientConfig(ctx context.Context, provider *model.Provider, controllerHost string) (data []byte, err error) {
	ctx, cleanup := providerdrv.MethodLogger(ctx, d.logger, "ssh", "ClientConfig")
	defer func() { cleanup(err) }()
	return d.readFile(ctx, provider, controllerHost, d.cfg.ClientConfigPath)
}

// ConfigureWorker implements model.DeployPort. It uploads the engine connection
// file and the controller private key, then runs the worker command with the
// controller address exported in the environment.
func (d *Deployer) ConfigureWorker(ctx context.Context, wd model.WorkerDeployment) (err error) {
	ctx, cleanup := providerdrv.MethodLogger(ctx, d.logger, "ssh", "ConfigureWorker")
	defer func() { cleanup(err) }()

	if wd.ControllerIP == "" {
		return errors.New("controller address is empty")
	}
	controllerKey, err := d.privateKey(wd.ControllerProvider)
	if err != nil {
		return fmt.Errorf("controller key: %w", err)
	}

	client, err := d.connect(ctx, wd.Provider, wd.Host)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	if err := d.upload(ctx, client, wd.Host, d.cfg.WorkerConfigPath, wd.EngineConfig); err != nil {
		return err
	}
	if err := d.upload(ctx, client, wd.Host, d.cfg.WorkerKeyPath, controllerKey); err != nil {
		return err
	}
	cmd := "export " + controllerIPEnvName + "=" + shellQuote(wd.ControllerIP) + "; " + d.cfg.WorkerCommand
	_, err = d.run(ctx, client, wd.Host, cmd, nil)
	return err
}

func (d *Deployer) readFile(ctx context.Context, provider *model.Provider, host, path string) ([]byte, error) {
	client, err := d.connect(ctx, provider, host)
	if err != nil {
		return nil, err
	}
	defer func() { _ = client.Close() }()
	return d.run(ctx, client, host, "sudo cat "+shellQuote(path), nil)
}

func (d *Deployer) upload(ctx context.Context, client *ssh.Client, host, path string, data []byte) error {
	dir := path[:max(strings.LastIndex(path, "/"), 0)]
	script := "umask 077 && cat > " + shellQuote(path)
	if dir != "" {
		script = "mkdir -p " + shellQuote(dir) + " && " + script
	}
	if data == nil {
		data = []byte{}
	}
	_, err := d.run(ctx, client, host, "sudo sh -c "+shellQuote(script), data)
	if err != nil {
		return fmt.Errorf("upload %s: %w", path, err)
	}
	return nil
}

// run executes cmd in a new session and returns its stdout. The session is
// closed when ctx is done.
func (d *Deployer) run(ctx context.Context, client *ssh.Client, host, cmd string, stdin []byte) ([]byte, error) {
	session, err := client.NewSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create SSH session on %s: %w", host, err)
	}
	defer func() { _ = session.Close() }()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr
	if stdin != nil {
		session.Stdin = bytes.NewReader(stdin)
	}

	d.logger.Debug(ctx, "SSH:EXEC", "host", host, "cmd", cmd)
	done := make(chan error, 1)
	go func() { done <- session.Run(cmd) }()
	select {
	case <-ctx.Done():
		_ = session.Close()
		return nil, ctx.Err()
	case err := <-done:
		if err != nil {
			return stdout.Bytes(), fmt.Errorf("command failed on %s: %w: %s", host, err, strings.TrimSpace(stderr.String()))
		}
	}
	return stdout.Bytes(), nil
}

// connect dials host with the provider's SSH credentials, retrying until sshd
// answers or the retry budget is spent.
func (d *Deployer) connect(ctx context.Context, provider *model.Provider, host string) (*ssh.Client, error) {
	if host == "" {
		return nil, errors.New("host address is empty")
	}
	keyPEM, err := d.privateKey(provider)
	if err != nil {
		return nil, err
	}
	signer, err := ssh.ParsePrivateKey(keyPEM)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}
	port := defaultPort
	if v := provider.Setting(SettingPort, ""); v != "" {
		if port, err = strconv.Atoi(v); err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", SettingPort, v, err)
		}
	}
	config := &ssh.ClientConfig{
		User:            provider.Setting(SettingUser, defaultUser),
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
		HostKeyCallback: d.cfg.HostKeyCallback,
		Timeout:         d.cfg.DialTimeout,
	}
	addr := net.JoinHostPort(host, strconv.Itoa(port))

	var client *ssh.Client
	err = retry.Do(ctx, func() error {
		c, dialErr := dial(ctx, addr, config)
		if dialErr != nil {
			d.logger.Debug(ctx, "SSH:DIAL:RETRY", "addr", addr, "err", dialErr.Error())
			return dialErr
		}
		client = c
		return nil
	},
		retry.WithMaxRetries(d.cfg.DialRetries),
		retry.WithInitialDelay(d.cfg.RetryDelay),
		retry.WithMaxDelay(defaultMaxDelay),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to establish SSH connection to %s: %w", addr, err)
	}
	return client, nil
}

// dial is ssh.Dial with a context-aware TCP connect.
func dial(ctx context.Context, addr string, config *ssh.ClientConfig) (*ssh.Client, error) {
	dialer := net.Dialer{Timeout: config.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	c, chans, reqs, err := ssh.NewClientConn(conn, addr, config)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	return ssh.NewClient(c, chans, reqs), nil
}

func (d *Deployer) privateKey(provider *model.Provider) ([]byte, error) {
	if provider == nil {
		return nil, errors.New("provider is nil")
	}
	path := provider.Setting(SettingKeyFile, "")
	if path == "" {
		return nil, fmt.Errorf("provider %s: %s is not set", provider.Name, SettingKeyFile)
	}
	data, err := os.ReadFile(providerdrv.ResolvePath(d.baseDir, path))
	if err != nil {
		return nil, fmt.Errorf("read ssh key: %w", err)
	}
	return data, nil
}

// shellQuote quotes s for POSIX sh.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
