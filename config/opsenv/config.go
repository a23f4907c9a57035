package opsenv

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variable names
const (
	OpsDirEnvKey = "CLUSTEROPS_DIR"
	DBURLEnvKey  = "CLUSTEROPS_DB_URL"
)

// Directory and file names
const (
	OpsDirName     = ".clusterops"
	ConfigFileName = "config.yml"
	DBFileName     = "clusterops.db"
)

// Env holds the resolved CLUSTEROPS_DIR and the loaded config.yml contents.
type Env struct {
	OpsDir  string  // Resolved CLUSTEROPS_DIR
	Version int     // config.yml version
	Store   Store   // config.yml store configuration
	Logging Logging // config.yml logging configuration
	Deploy  Deploy  // config.yml deploy configuration
}

// Store represents the store configuration from config.yml
type Store struct {
	URL string `yaml:"url,omitempty"` // sqlite:PATH or memory: (default: sqlite:$CLUSTEROPS_DIR/clusterops.db)
}

// Logging represents the logging configuration from config.yml
type Logging struct {
	Dir           string `yaml:"dir,omitempty"`           // Log directory (default: $CLUSTEROPS_DIR/logs)
	Format        string `yaml:"format,omitempty"`        // Log format: human (default), text, json
	Level         string `yaml:"level,omitempty"`         // Log level: DEBUG, INFO (default), WARN, ERROR
	Output        string `yaml:"output,omitempty"`        // "-" (default) for stderr, "none", or a file path
	RetentionDays int    `yaml:"retentionDays,omitempty"` // Days to retain log files (default: 7)
}

// Deploy represents the remote configuration steps run over SSH.
type Deploy struct {
	ControllerCommand string        `yaml:"controllerCommand,omitempty"`
	EngineConfigPath  string        `yaml:"engineConfigPath,omitempty"`
	ClientConfigPath  string        `yaml:"clientConfigPath,omitempty"`
	WorkerConfigPath  string        `yaml:"workerConfigPath,omitempty"`
	WorkerKeyPath     string        `yaml:"workerKeyPath,omitempty"`
	WorkerCommand     string        `yaml:"workerCommand,omitempty"`
	DialRetries       int           `yaml:"dialRetries,omitempty"`
	RetryDelay        time.Duration `yaml:"retryDelay,omitempty"`
	// Parallelism bounds concurrent deployments. Zero means one task per instance.
	Parallelism int `yaml:"parallelism,omitempty"`
}

// configFile represents the structure of config.yml for unmarshaling
type configFile struct {
	Version int     `yaml:"version"`
	Store   Store   `yaml:"store,omitempty"`
	Logging Logging `yaml:"logging,omitempty"`
	Deploy  Deploy  `yaml:"deploy,omitempty"`
}

// Resolve discovers CLUSTEROPS_DIR and loads config.yml.
//
// Resolution order for CLUSTEROPS_DIR:
//  1. opsDir parameter (from --config-dir flag or CLUSTEROPS_DIR env)
//  2. Upward search from workDir for a .clusterops directory
//  3. Default: $workDir/.clusterops, created when missing
func Resolve(opsDir, workDir string) (*Env, error) {
	if opsDir == "" {
		found, err := searchForOpsDir(workDir)
		if err != nil {
			return nil, fmt.Errorf("searching for %s directory: %w", OpsDirName, err)
		}
		opsDir = found
	}
	if opsDir == "" {
		opsDir = filepath.Join(workDir, OpsDirName)
	}

	var err error
	opsDir, err = filepath.Abs(opsDir)
	if err != nil {
		return nil, fmt.Errorf("resolving CLUSTEROPS_DIR to absolute path: %w", err)
	}
	opsDir = filepath.Clean(opsDir)

	info, err := os.Stat(opsDir)
	switch {
	case errors.Is(err, os.ErrNotExist):
		if err := os.MkdirAll(opsDir, 0o700); err != nil {
			return nil, fmt.Errorf("creating CLUSTEROPS_DIR %q: %w", opsDir, err)
		}
	case err != nil:
		return nil, fmt.Errorf("CLUSTEROPS_DIR %q: %w", opsDir, err)
	case !info.IsDir():
		return nil, fmt.Errorf("CLUSTEROPS_DIR %q is not a directory", opsDir)
	}

	env := &Env{OpsDir: opsDir}
	if err := env.loadConfigFile(); err != nil {
		return nil, err
	}
	return env, nil
}

// searchForOpsDir searches upward from startDir for a .clusterops directory.
// Returns the .clusterops path or empty string if not found.
func searchForOpsDir(startDir string) (string, error) {
	current, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("resolving start directory: %w", err)
	}
	for {
		candidate := filepath.Join(current, OpsDirName)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate, nil
		}
		parent := filepath.Dir(current)
		if parent == current {
			return "", nil
		}
		current = parent
	}
}

// loadConfigFile loads config.yml into the Env.
// Does nothing if the file doesn't exist (not an error).
func (e *Env) loadConfigFile() error {
	configPath := filepath.Join(e.OpsDir, ConfigFileName)
	data, err := os.ReadFile(configPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading config file %q: %w", configPath, err)
	}

	var cf configFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return fmt.Errorf("parsing config file %q: %w", configPath, err)
	}
	e.Version = cf.Version
	e.Store = cf.Store
	e.Logging = cf.Logging
	e.Deploy = cf.Deploy
	return nil
}

// ExpandVars replaces $CLUSTEROPS_DIR in the given string.
func (e *Env) ExpandVars(s string) string {
	return strings.ReplaceAll(s, "$"+OpsDirEnvKey, e.OpsDir)
}

// DBURL returns the registry URL. Precedence: flag value, CLUSTEROPS_DB_URL,
// config.yml store.url, then the sqlite file in CLUSTEROPS_DIR.
func (e *Env) DBURL(flag string) string {
	for _, v := range []string{flag, os.Getenv(DBURLEnvKey), e.Store.URL} {
		if v != "" {
			return e.ExpandVars(v)
		}
	}
	return "sqlite:" + filepath.Join(e.OpsDir, DBFileName)
}

// LogDir returns the log directory with variables expanded.
func (e *Env) LogDir() string {
	if e.Logging.Dir == "" {
		return filepath.Join(e.OpsDir, "logs")
	}
	return e.ExpandVars(e.Logging.Dir)
}

// InitialConfigYAML generates the initial config.yml content as YAML bytes.
func InitialConfigYAML() ([]byte, error) {
	defaultConfig := configFile{
		Version: 1,
		Store:   Store{URL: "sqlite:$" + OpsDirEnvKey + "/" + DBFileName},
		Logging: Logging{Format: "human", Level: "INFO", Output: "-"},
	}

	var buf strings.Builder
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(&defaultConfig); err != nil {
		return nil, fmt.Errorf("encoding default config: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("closing yaml encoder: %w", err)
	}
	return []byte(buf.String()), nil
}
