// Package config handles .tchat configuration file parsing.
//
// The .tchat file is located at the repository root (or any directory between
// the working directory and the git root) and contains:
//
//	server_url: "http://..."         - Chat backend base URL
//	token: "eyJ..."                  - Bearer token for the backend
//	user_id: "u1"                    - Current user id (optional if the token carries it)
//	display_name: "Sam Park"         - Optional display name override
//	request_timeout: "10s"           - Per-request timeout for CLI commands
//	log_level: "info"                - debug, info, warn or error
//	log_format: "text"               - text or json
//	log_file: "/tmp/tchat.log"       - Log destination for the interactive panel
//	health_instances: [...]          - Base URLs probed by `tchat health`
//	health_timeout: "5s"             - Per-instance health timeout
//
// TCHAT_URL, TCHAT_TOKEN, TCHAT_USER_ID and TCHAT_LOG_LEVEL override the file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// FileName is the name of the configuration file.
const FileName = ".tchat"

// Defaults applied by Resolve for unset fields.
const (
	DefaultServerURL      = "http://localhost:3001"
	DefaultRequestTimeout = 10 * time.Second
	DefaultHealthTimeout  = 5 * time.Second
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "text"
)

// DefaultHealthInstances are the local instances probed when none are configured.
var DefaultHealthInstances = []string{
	"http://localhost:3001",
	"http://localhost:3002",
	"http://localhost:3003",
}

// Environment variable names that override file values.
const (
	EnvURL      = "TCHAT_URL"
	EnvToken    = "TCHAT_TOKEN"
	EnvUserID   = "TCHAT_USER_ID"
	EnvLogLevel = "TCHAT_LOG_LEVEL"
)

// customPath holds an optional custom config file path.
// When empty, Load() uses the default FileName.
var customPath string

// SetPath sets a custom config file path for Load() to use.
// Pass an empty string to reset to the default path.
func SetPath(path string) {
	customPath = path
}

// FindPath resolves the config file path using the same logic as Load(),
// without reading or parsing the file contents.
func FindPath() (string, error) {
	if customPath != "" {
		return customPath, nil
	}
	return findDefaultConfigPath()
}

// WorkspaceRoot returns the directory containing the resolved config file.
func WorkspaceRoot() (string, error) {
	path, err := FindPath()
	if err != nil {
		return "", err
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return filepath.Dir(path), nil
}

var (
	urlPattern       = regexp.MustCompile(`^https?://[^\s]+$`)
	validLogLevels   = []string{"debug", "info", "warn", "error"}
	validLogFormats  = []string{"text", "json"}
	displayNameLimit = 64
)

// Config represents the .tchat configuration file.
type Config struct {
	ServerURL       string   `yaml:"server_url"`
	Token           string   `yaml:"token,omitempty"`
	UserID          string   `yaml:"user_id,omitempty"`
	DisplayName     string   `yaml:"display_name,omitempty"`
	RequestTimeout  string   `yaml:"request_timeout,omitempty"`
	LogLevel        string   `yaml:"log_level,omitempty"`
	LogFormat       string   `yaml:"log_format,omitempty"`
	LogFile         string   `yaml:"log_file,omitempty"`
	HealthInstances []string `yaml:"health_instances,omitempty"`
	HealthTimeout   string   `yaml:"health_timeout,omitempty"`
}

// Load reads and parses the .tchat configuration file.
// Uses the custom path if set via SetPath(), otherwise uses the default FileName.
func Load() (*Config, error) {
	if customPath != "" {
		return LoadFrom(customPath)
	}

	path, err := findDefaultConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads and parses a .tchat configuration file from a specific path.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err // Return unwrapped for os.IsNotExist() checks
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	return &cfg, nil
}

// Resolve loads the config file if there is one, applies environment
// overrides and defaults, and validates the result. A missing default file is
// not an error; a missing file set with SetPath is.
func Resolve(getenv func(string) string) (*Config, error) {
	cfg, err := Load()
	if err != nil {
		if customPath != "" || !os.IsNotExist(err) {
			return nil, err
		}
		cfg = &Config{}
	}
	cfg.ApplyEnv(getenv)
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from the TCHAT_* environment variables.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if getenv == nil {
		return
	}
	if v := strings.TrimSpace(getenv(EnvURL)); v != "" {
		c.ServerURL = v
	}
	if v := strings.TrimSpace(getenv(EnvToken)); v != "" {
		c.Token = v
	}
	if v := strings.TrimSpace(getenv(EnvUserID)); v != "" {
		c.UserID = v
	}
	if v := strings.TrimSpace(getenv(EnvLogLevel)); v != "" {
		c.LogLevel = v
	}
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.ServerURL == "" {
		c.ServerURL = DefaultServerURL
	}
	c.ServerURL = strings.TrimRight(c.ServerURL, "/")
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = DefaultLogFormat
	}
	if len(c.HealthInstances) == 0 {
		c.HealthInstances = append([]string(nil), DefaultHealthInstances...)
	}
}

// RequestTimeoutOrDefault returns the parsed request_timeout.
func (c *Config) RequestTimeoutOrDefault() time.Duration {
	return durationOr(c.RequestTimeout, DefaultRequestTimeout)
}

// HealthTimeoutOrDefault returns the parsed health_timeout.
func (c *Config) HealthTimeoutOrDefault() time.Duration {
	return durationOr(c.HealthTimeout, DefaultHealthTimeout)
}

func durationOr(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func findDefaultConfigPath() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		// Fallback: look only in current directory
		return FileName, nil
	}

	gitRoot, ok := findGitRoot(cwd)
	if !ok {
		// Outside a git worktree only the current directory is considered.
		return FileName, nil
	}

	dir := cwd
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}

		if dir == gitRoot {
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	// Keep the error IsNotExist-compatible, pointing at the repo root.
	rootCandidate := filepath.Join(gitRoot, FileName)
	return rootCandidate, &os.PathError{Op: "open", Path: rootCandidate, Err: os.ErrNotExist}
}

func findGitRoot(start string) (string, bool) {
	dir := start
	for {
		gitPath := filepath.Join(dir, ".git")
		if _, err := os.Stat(gitPath); err == nil {
			return dir, true
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false
}

// Validate checks that all fields are well formed.
func (c *Config) Validate() error {
	if c.ServerURL == "" {
		return fmt.Errorf("server_url is required")
	}
	if !urlPattern.MatchString(c.ServerURL) {
		return fmt.Errorf("server_url must be a valid HTTP(S) URL")
	}
	if len(c.DisplayName) > displayNameLimit {
		return fmt.Errorf("display_name must be at most %d characters", displayNameLimit)
	}
	if err := validateDuration("request_timeout", c.RequestTimeout); err != nil {
		return err
	}
	if err := validateDuration("health_timeout", c.HealthTimeout); err != nil {
		return err
	}
	if c.LogLevel != "" && !oneOf(strings.ToLower(c.LogLevel), validLogLevels) {
		return fmt.Errorf("log_level must be one of %s", strings.Join(validLogLevels, ", "))
	}
	if c.LogFormat != "" && !oneOf(strings.ToLower(c.LogFormat), validLogFormats) {
		return fmt.Errorf("log_format must be one of %s", strings.Join(validLogFormats, ", "))
	}
	for _, inst := range c.HealthInstances {
		if !urlPattern.MatchString(inst) {
			return fmt.Errorf("health_instances entry %q must be a valid HTTP(S) URL", inst)
		}
	}
	return nil
}

func validateDuration(field, value string) error {
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("%s must be a duration like \"10s\": %w", field, err)
	}
	if d <= 0 {
		return fmt.Errorf("%s must be positive", field)
	}
	return nil
}

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}
