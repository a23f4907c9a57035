package opsenv

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestSearchForOpsDir(t *testing.T) {
	tmpDir := t.TempDir()
	projectDir := filepath.Join(tmpDir, "project")
	deepDir := filepath.Join(projectDir, "sub", "deep")
	if err := os.MkdirAll(deepDir, 0755); err != nil {
		t.Fatalf("creating directory %q: %v", deepDir, err)
	}
	opsDir := filepath.Join(projectDir, OpsDirName)
	if err := os.Mkdir(opsDir, 0755); err != nil {
		t.Fatalf("creating %s directory: %v", OpsDirName, err)
	}

	tests := []struct {
		name     string
		startDir string
		want     string
	}{
		{name: "from project root", startDir: projectDir, want: opsDir},
		{name: "from deep subdirectory", startDir: deepDir, want: opsDir},
		{name: "not found", startDir: tmpDir, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := searchForOpsDir(tt.startDir)
			if err != nil {
				t.Fatalf("searchForOpsDir() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("searchForOpsDir() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	tmpDir := t.TempDir()
	projectDir := filepath.Join(tmpDir, "project")
	opsDir := filepath.Join(projectDir, OpsDirName)
	if err := os.MkdirAll(opsDir, 0755); err != nil {
		t.Fatalf("creating directories: %v", err)
	}
	explicit := filepath.Join(tmpDir, "explicit")

	tests := []struct {
		name    string
		opsDir  string
		workDir string
		want    string
	}{
		{name: "explicit dir is created", opsDir: explicit, workDir: projectDir, want: explicit},
		{name: "discover from workdir", workDir: filepath.Join(projectDir), want: opsDir},
		{name: "default under workdir", workDir: filepath.Join(tmpDir, "fresh"), want: filepath.Join(tmpDir, "fresh", OpsDirName)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, err := Resolve(tt.opsDir, tt.workDir)
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if env.OpsDir != tt.want {
				t.Errorf("OpsDir = %q, want %q", env.OpsDir, tt.want)
			}
			if info, err := os.Stat(env.OpsDir); err != nil || !info.IsDir() {
				t.Errorf("OpsDir %q was not created", env.OpsDir)
			}
		})
	}
}

func TestResolve_NotADirectory(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(file, nil, 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Resolve(file, ""); err == nil {
		t.Fatal("Resolve() expected error for a regular file")
	}
}

func TestLoadConfigFile(t *testing.T) {
	opsDir := t.TempDir()
	content := `version: 1
store:
  url: sqlite:$CLUSTEROPS_DIR/state.db
logging:
  format: json
  level: DEBUG
  retentionDays: 3
deploy:
  workerCommand: systemctl restart engine
  dialRetries: 5
  retryDelay: 3s
  parallelism: 4
`
	if err := os.WriteFile(filepath.Join(opsDir, ConfigFileName), []byte(content), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	env, err := Resolve(opsDir, "")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if env.Version != 1 {
		t.Errorf("Version = %d, want 1", env.Version)
	}
	if env.Logging.Format != "json" || env.Logging.Level != "DEBUG" || env.Logging.RetentionDays != 3 {
		t.Errorf("Logging = %+v", env.Logging)
	}
	if env.Deploy.WorkerCommand != "systemctl restart engine" || env.Deploy.DialRetries != 5 {
		t.Errorf("Deploy = %+v", env.Deploy)
	}
	if env.Deploy.RetryDelay != 3*time.Second {
		t.Errorf("RetryDelay = %v, want 3s", env.Deploy.RetryDelay)
	}
	if env.Deploy.Parallelism != 4 {
		t.Errorf("Parallelism = %d, want 4", env.Deploy.Parallelism)
	}

	t.Setenv(DBURLEnvKey, "")
	if got, want := env.DBURL(""), "sqlite:"+filepath.Join(opsDir, "state.db"); got != want {
		t.Errorf("DBURL() = %q, want %q", got, want)
	}
}

func TestLoadConfigFile_Invalid(t *testing.T) {
	opsDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(opsDir, ConfigFileName), []byte("version: [\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Resolve(opsDir, ""); err == nil || !strings.Contains(err.Error(), "parsing config file") {
		t.Errorf("Resolve() error = %v, want parse error", err)
	}
}

func TestDBURL_Precedence(t *testing.T) {
	env := &Env{OpsDir: "/ops", Store: Store{URL: "sqlite:/from/config.db"}}

	t.Setenv(DBURLEnvKey, "sqlite:/from/env.db")
	if got := env.DBURL("memory:"); got != "memory:" {
		t.Errorf("flag: DBURL() = %q", got)
	}
	if got := env.DBURL(""); got != "sqlite:/from/env.db" {
		t.Errorf("env: DBURL() = %q", got)
	}
	t.Setenv(DBURLEnvKey, "")
	if got := env.DBURL(""); got != "sqlite:/from/config.db" {
		t.Errorf("config: DBURL() = %q", got)
	}
	env.Store.URL = ""
	if got := env.DBURL(""); got != "sqlite:/ops/clusterops.db" {
		t.Errorf("default: DBURL() = %q", got)
	}
}

func TestExpandVarsAndLogDir(t *testing.T) {
	env := &Env{OpsDir: "/home/user/.clusterops"}
	if got := env.ExpandVars("$CLUSTEROPS_DIR/keys/id"); got != "/home/user/.clusterops/keys/id" {
		t.Errorf("ExpandVars() = %q", got)
	}
	if got := env.LogDir(); got != "/home/user/.clusterops/logs" {
		t.Errorf("LogDir() = %q", got)
	}
	env.Logging.Dir = "$CLUSTEROPS_DIR/l"
	if got := env.LogDir(); got != "/home/user/.clusterops/l" {
		t.Errorf("LogDir() = %q", got)
	}
}

func TestInitialConfigYAML(t *testing.T) {
	data, err := InitialConfigYAML()
	if err != nil {
		t.Fatalf("InitialConfigYAML() error: %v", err)
	}
	s := string(data)
	for _, want := range []string{"version: 1", "url: sqlite:$CLUSTEROPS_DIR/clusterops.db", "format: human"} {
		if !strings.Contains(s, want) {
			t.Errorf("InitialConfigYAML() missing %q in:\n%s", want, s)
		}
	}
	if strings.Contains(s, "deploy:") {
		t.Errorf("InitialConfigYAML() should omit empty deploy section:\n%s", s)
	}
}
