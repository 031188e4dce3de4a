package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestLoad_ReadsAllFields(t *testing.T) {
	tmpDir := t.TempDir()
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)
	os.Chdir(tmpDir)

	content := `server_url: "http://localhost:3001"
token: "secret"
user_id: "u1"
display_name: "Sam Park"
request_timeout: "15s"
log_level: "debug"
log_file: "/tmp/tchat.log"
health_instances:
  - "http://localhost:4000"
`
	if err := os.WriteFile(filepath.Join(tmpDir, FileName), []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg := &Config{
		ServerURL:   "http://localhost:3001",
		Token:       "secret",
		UserID:      "u1",
		DisplayName: "Sam Park",
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if loaded.ServerURL != cfg.ServerURL {
		t.Errorf("ServerURL = %q, want %q", loaded.ServerURL, cfg.ServerURL)
	}
	if loaded.Token != cfg.Token {
		t.Errorf("Token = %q, want %q", loaded.Token, cfg.Token)
	}
	if loaded.UserID != cfg.UserID {
		t.Errorf("UserID = %q, want %q", loaded.UserID, cfg.UserID)
	}
	if loaded.DisplayName != cfg.DisplayName {
		t.Errorf("DisplayName = %q, want %q", loaded.DisplayName, cfg.DisplayName)
	}
	if loaded.RequestTimeoutOrDefault() != 15*time.Second {
		t.Errorf("RequestTimeoutOrDefault() = %v, want 15s", loaded.RequestTimeoutOrDefault())
	}
	if loaded.LogLevel != "debug" || loaded.LogFile != "/tmp/tchat.log" {
		t.Errorf("LogLevel/LogFile = %q/%q", loaded.LogLevel, loaded.LogFile)
	}
	if len(loaded.HealthInstances) != 1 || loaded.HealthInstances[0] != "http://localhost:4000" {
		t.Errorf("HealthInstances = %v", loaded.HealthInstances)
	}
}

func TestLoadNotFound(t *testing.T) {
	tmpDir := t.TempDir()
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)
	os.Chdir(tmpDir)

	_, err := Load()
	if err == nil {
		t.Error("Load() should return error when file doesn't exist")
	}
	if !os.IsNotExist(err) {
		t.Errorf("Load() error should be IsNotExist, got: %v", err)
	}
}

func TestLoad_FindsConfigInGitRootFromSubdir(t *testing.T) {
	tmpDir := t.TempDir()
	repoDir := filepath.Join(tmpDir, "repo")
	subDir := filepath.Join(repoDir, "nested", "dir")
	if err := os.MkdirAll(subDir, 0755); err != nil {
		t.Fatalf("MkdirAll() error: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(repoDir, ".git"), 0755); err != nil {
		t.Fatalf("MkdirAll(.git) error: %v", err)
	}

	data := []byte(`server_url: "http://chat.internal:8080"
user_id: "u7"
`)
	if err := os.WriteFile(filepath.Join(repoDir, FileName), data, 0600); err != nil {
		t.Fatalf("WriteFile(.tchat) error: %v", err)
	}

	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)
	if err := os.Chdir(subDir); err != nil {
		t.Fatalf("Chdir() error: %v", err)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if loaded.ServerURL != "http://chat.internal:8080" {
		t.Errorf("ServerURL = %q, want %q", loaded.ServerURL, "http://chat.internal:8080")
	}
	if loaded.UserID != "u7" {
		t.Errorf("UserID = %q, want %q", loaded.UserID, "u7")
	}
}

func TestLoad_DoesNotCrossNestedGitRoots(t *testing.T) {
	tmpDir := t.TempDir()

	outer := filepath.Join(tmpDir, "outer")
	inner := filepath.Join(outer, "inner")
	innerSub := filepath.Join(inner, "subdir")
	if err := os.MkdirAll(innerSub, 0755); err != nil {
		t.Fatalf("MkdirAll() error: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(outer, ".git"), 0755); err != nil {
		t.Fatalf("MkdirAll(outer .git) error: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(inner, ".git"), 0755); err != nil {
		t.Fatalf("MkdirAll(inner .git) error: %v", err)
	}

	if err := os.WriteFile(filepath.Join(outer, FileName), []byte("server_url: \"http://localhost:3001\"\n"), 0600); err != nil {
		t.Fatalf("WriteFile(outer .tchat) error: %v", err)
	}

	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)
	if err := os.Chdir(innerSub); err != nil {
		t.Fatalf("Chdir() error: %v", err)
	}

	_, err := Load()
	if err == nil {
		t.Fatalf("Load() should error when config is only in outer repo")
	}
	if !os.IsNotExist(err) {
		t.Fatalf("Load() error should be IsNotExist, got: %v", err)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "bad.yaml")
	if err := os.WriteFile(path, []byte("server_url: [unterminated\n"), 0600); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}

	_, err := LoadFrom(path)
	if err == nil {
		t.Fatal("LoadFrom() should fail on invalid YAML")
	}
	if !strings.Contains(err.Error(), "parsing") {
		t.Errorf("Expected parsing error, got: %v", err)
	}
}

func TestSetPath_UsesCustomPath(t *testing.T) {
	tmpDir := t.TempDir()
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)
	os.Chdir(tmpDir)
	defer SetPath("")

	customPath := filepath.Join(tmpDir, "custom", ".tchat-dev")
	os.MkdirAll(filepath.Dir(customPath), 0755)
	if err := os.WriteFile(customPath, []byte("server_url: \"http://localhost:9999\"\n"), 0600); err != nil {
		t.Fatalf("Failed to write custom config: %v", err)
	}

	SetPath(customPath)

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if loaded.ServerURL != "http://localhost:9999" {
		t.Errorf("ServerURL = %q, want %q", loaded.ServerURL, "http://localhost:9999")
	}
}

func TestResolve_WithoutFileUsesEnvAndDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)
	os.Chdir(tmpDir)

	cfg, err := Resolve(envMap(map[string]string{
		EnvURL:    "http://chat.example.com/",
		EnvToken:  "tok",
		EnvUserID: "u9",
	}))
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if cfg.ServerURL != "http://chat.example.com" {
		t.Errorf("ServerURL = %q, want trailing slash trimmed", cfg.ServerURL)
	}
	if cfg.Token != "tok" || cfg.UserID != "u9" {
		t.Errorf("env overrides not applied: %+v", cfg)
	}
	if cfg.LogLevel != DefaultLogLevel || cfg.LogFormat != DefaultLogFormat {
		t.Errorf("log defaults = %q/%q", cfg.LogLevel, cfg.LogFormat)
	}
	if len(cfg.HealthInstances) != 3 || cfg.HealthInstances[0] != "http://localhost:3001" {
		t.Errorf("HealthInstances = %v", cfg.HealthInstances)
	}
	if cfg.HealthTimeoutOrDefault() != 5*time.Second {
		t.Errorf("HealthTimeoutOrDefault() = %v, want 5s", cfg.HealthTimeoutOrDefault())
	}
}

func TestResolve_EnvOverridesFile(t *testing.T) {
	tmpDir := t.TempDir()
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)
	os.Chdir(tmpDir)

	data := []byte("server_url: \"http://from-file:3001\"\nuser_id: \"u1\"\nlog_level: \"warn\"\n")
	if err := os.WriteFile(filepath.Join(tmpDir, FileName), data, 0600); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}

	cfg, err := Resolve(envMap(map[string]string{EnvLogLevel: "debug"}))
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if cfg.ServerURL != "http://from-file:3001" {
		t.Errorf("ServerURL = %q", cfg.ServerURL)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want env override", cfg.LogLevel)
	}
}

func TestResolve_MissingCustomPathFails(t *testing.T) {
	defer SetPath("")
	SetPath(filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := Resolve(envMap(nil))
	if !os.IsNotExist(err) {
		t.Errorf("Expected IsNotExist error, got: %v", err)
	}
}

func TestResolve_InvalidEnvURL(t *testing.T) {
	tmpDir := t.TempDir()
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)
	os.Chdir(tmpDir)

	_, err := Resolve(envMap(map[string]string{EnvURL: "ftp://nope"}))
	if err == nil || !strings.Contains(err.Error(), "server_url") {
		t.Errorf("Expected server_url error, got: %v", err)
	}
}

func TestValidate(t *testing.T) {
	valid := Config{ServerURL: "https://chat.example.com"}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "minimal", mutate: func(c *Config) {}},
		{name: "missing url", mutate: func(c *Config) { c.ServerURL = "" }, wantErr: "server_url is required"},
		{name: "bad url", mutate: func(c *Config) { c.ServerURL = "localhost:3001" }, wantErr: "server_url must"},
		{name: "bad timeout", mutate: func(c *Config) { c.RequestTimeout = "ten" }, wantErr: "request_timeout"},
		{name: "negative health timeout", mutate: func(c *Config) { c.HealthTimeout = "-1s" }, wantErr: "health_timeout must be positive"},
		{name: "log level", mutate: func(c *Config) { c.LogLevel = "trace" }, wantErr: "log_level"},
		{name: "log level case", mutate: func(c *Config) { c.LogLevel = "DEBUG" }},
		{name: "log format", mutate: func(c *Config) { c.LogFormat = "xml" }, wantErr: "log_format"},
		{name: "health instance", mutate: func(c *Config) { c.HealthInstances = []string{"http://ok", "nope"} }, wantErr: "health_instances"},
		{name: "long display name", mutate: func(c *Config) { c.DisplayName = strings.Repeat("x", 65) }, wantErr: "display_name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestTimeoutFallbacks(t *testing.T) {
	cfg := Config{RequestTimeout: "garbage", HealthTimeout: "0s"}
	if got := cfg.RequestTimeoutOrDefault(); got != DefaultRequestTimeout {
		t.Errorf("RequestTimeoutOrDefault() = %v, want %v", got, DefaultRequestTimeout)
	}
	if got := cfg.HealthTimeoutOrDefault(); got != DefaultHealthTimeout {
		t.Errorf("HealthTimeoutOrDefault() = %v, want %v", got, DefaultHealthTimeout)
	}
}
