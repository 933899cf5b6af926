// Package config loads and validates the pipeline configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the application configuration.
type Config struct {
	Site      SiteConfig      `yaml:"site"`
	Content   ContentConfig   `yaml:"content"`
	Output    OutputConfig    `yaml:"output"`
	Generator GeneratorConfig `yaml:"generator"`
	Commit    CommitConfig    `yaml:"commit"`
	Push      PushConfig      `yaml:"push"`
	Auth      *AuthConfig     `yaml:"auth,omitempty"`
	Lock      LockConfig      `yaml:"lock"`
	Watch     WatchConfig     `yaml:"watch"`
	History   HistoryConfig   `yaml:"history"`
	Notify    NotifyConfig    `yaml:"notify"`
}

// SiteConfig carries display metadata only; the generator owns rendering.
type SiteConfig struct {
	Title string `yaml:"title,omitempty"`
}

// ContentConfig locates the authored content tree.
type ContentConfig struct {
	Directory string `yaml:"directory"`
}

// OutputConfig locates the generated artifact tree.
type OutputConfig struct {
	Directory string `yaml:"directory"`
}

// GeneratorConfig describes the external site generator invocation.
type GeneratorConfig struct {
	Command string            `yaml:"command"`
	Args    []string          `yaml:"args,omitempty"`
	Env     map[string]string `yaml:"env,omitempty"`
	Timeout string            `yaml:"timeout,omitempty"` // Go duration string, 0/empty = no timeout
}

// TimeoutDuration parses the configured timeout, returning 0 when unset.
func (g GeneratorConfig) TimeoutDuration() (time.Duration, error) {
	if g.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(g.Timeout)
	if err != nil {
		return 0, fmt.Errorf("generator timeout: %w", err)
	}
	return d, nil
}

// CommitConfig controls revision creation.
type CommitConfig struct {
	MessagePrefix string `yaml:"message_prefix,omitempty"`
	AuthorName    string `yaml:"author_name,omitempty"`
	AuthorEmail   string `yaml:"author_email,omitempty"`
}

// PushConfig controls the publish step. Pushing is explicit opt-in; a cycle
// with push disabled stops after the snapshot.
type PushConfig struct {
	Enabled bool         `yaml:"enabled"`
	Remotes []string     `yaml:"remotes,omitempty"` // "origin/main" or bare "origin"
	Retry   *RetryConfig `yaml:"retry,omitempty"`   // nil = single attempt per remote
}

// RetryConfig controls retries of transient push failures. Rejected pushes
// (non-fast-forward) are never retried.
type RetryConfig struct {
	Backoff    string `yaml:"backoff,omitempty"` // fixed|linear|exponential, default linear
	Initial    string `yaml:"initial,omitempty"` // Go duration, default 1s
	Max        string `yaml:"max,omitempty"`     // Go duration, default 30s
	MaxRetries int    `yaml:"max_retries"`
}

// InitialDuration parses the initial backoff delay, 0 when unset.
func (r *RetryConfig) InitialDuration() (time.Duration, error) {
	return parseOptionalDuration(r.Initial, "push retry initial")
}

// MaxDuration parses the backoff cap, 0 when unset.
func (r *RetryConfig) MaxDuration() (time.Duration, error) {
	return parseOptionalDuration(r.Max, "push retry max")
}

func parseOptionalDuration(raw, what string) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", what, err)
	}
	return d, nil
}

// AuthType enumerates supported authentication methods (stringly for YAML compatibility).
type AuthType string

const (
	AuthTypeNone  AuthType = "none"
	AuthTypeSSH   AuthType = "ssh"
	AuthTypeToken AuthType = "token"
	AuthTypeBasic AuthType = "basic"
)

// AuthConfig represents push authentication configuration.
type AuthConfig struct {
	Type     AuthType `yaml:"type"` // ssh|token|basic|none
	Username string   `yaml:"username,omitempty"`
	Password string   `yaml:"password,omitempty"`
	Token    string   `yaml:"token,omitempty"`
	KeyPath  string   `yaml:"key_path,omitempty"`
}

// IsZero reports whether no auth method is specified.
func (a *AuthConfig) IsZero() bool { return a == nil || a.Type == "" || a.Type == AuthTypeNone }

// LockConfig controls the advisory lock serializing concurrent invocations.
type LockConfig struct {
	Path string `yaml:"path,omitempty"`
}

// WatchConfig controls watch mode.
type WatchConfig struct {
	Debounce    string `yaml:"debounce,omitempty"` // Go duration, default 2s
	Every       string `yaml:"every,omitempty"`    // periodic publish interval, empty = disabled
	Publish     bool   `yaml:"publish"`            // full publish cycle vs rebuild only
	MetricsAddr string `yaml:"metrics_addr,omitempty"`
}

// DebounceDuration parses the debounce interval with its default.
func (w WatchConfig) DebounceDuration() (time.Duration, error) {
	if w.Debounce == "" {
		return 2 * time.Second, nil
	}
	d, err := time.ParseDuration(w.Debounce)
	if err != nil {
		return 0, fmt.Errorf("watch debounce: %w", err)
	}
	return d, nil
}

// EveryDuration parses the schedule interval, returning 0 when disabled.
func (w WatchConfig) EveryDuration() (time.Duration, error) {
	if w.Every == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(w.Every)
	if err != nil {
		return 0, fmt.Errorf("watch interval: %w", err)
	}
	return d, nil
}

// HistoryConfig locates the publish history store. Empty path disables it.
type HistoryConfig struct {
	Path string `yaml:"path,omitempty"`
}

// NotifyConfig controls optional cycle event notifications.
type NotifyConfig struct {
	NATSURL string `yaml:"nats_url,omitempty"` // empty = disabled
	Subject string `yaml:"subject,omitempty"`
}

// Load reads configuration from the given file, expanding ${VAR} references
// from the process environment (after loading .env files).
func Load(configPath string) (*Config, error) {
	loadEnvFiles()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Content.Directory == "" {
		c.Content.Directory = "./content"
	}
	if c.Output.Directory == "" {
		c.Output.Directory = "./public"
	}
	if c.Generator.Command == "" {
		c.Generator.Command = "hugo"
	}
	if c.Commit.MessagePrefix == "" {
		c.Commit.MessagePrefix = "RELEASE"
	}
	if c.Commit.AuthorName == "" {
		c.Commit.AuthorName = "sitepub"
	}
	if c.Commit.AuthorEmail == "" {
		c.Commit.AuthorEmail = "sitepub@localhost"
	}
	if c.Push.Enabled && len(c.Push.Remotes) == 0 {
		c.Push.Remotes = []string{"origin"}
	}
	if c.Notify.NATSURL != "" && c.Notify.Subject == "" {
		c.Notify.Subject = "sitepub.cycles"
	}
}

// Validate rejects configurations the pipeline cannot run with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Output.Directory) == "" {
		return fmt.Errorf("output.directory must be set")
	}
	output := cleanPath(c.Output.Directory)
	content := cleanPath(c.Content.Directory)
	// Clean() removes everything under output.directory, so it must never
	// resolve to the repository root or overlap the authored content tree.
	if output == "." {
		return fmt.Errorf("output.directory must not be the repository root")
	}
	if output == content {
		return fmt.Errorf("output.directory must differ from content.directory")
	}
	if pathContains(output, content) {
		return fmt.Errorf("output.directory must not contain content.directory")
	}
	if pathContains(content, output) {
		return fmt.Errorf("output.directory must not be inside content.directory")
	}
	if _, err := c.Generator.TimeoutDuration(); err != nil {
		return err
	}
	if _, err := c.Watch.DebounceDuration(); err != nil {
		return err
	}
	if _, err := c.Watch.EveryDuration(); err != nil {
		return err
	}
	for _, r := range c.Push.Remotes {
		if strings.TrimSpace(r) == "" {
			return fmt.Errorf("push.remotes entries must not be empty")
		}
	}
	if r := c.Push.Retry; r != nil {
		if _, err := r.InitialDuration(); err != nil {
			return err
		}
		if _, err := r.MaxDuration(); err != nil {
			return err
		}
		if r.MaxRetries < 0 {
			return fmt.Errorf("push retry max_retries cannot be negative")
		}
	}
	return nil
}

func cleanPath(p string) string {
	return filepath.Clean(strings.TrimSpace(p))
}

// pathContains reports whether child lives strictly inside dir. Both paths
// must already be cleaned.
func pathContains(dir, child string) bool {
	rel, err := filepath.Rel(dir, child)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
