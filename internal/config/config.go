// Package config loads and validates the book.yaml build configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the book build configuration.
type Config struct {
	Book     BookConfig     `yaml:"book"`
	Source   SourceConfig   `yaml:"source,omitempty"`
	Resolver ResolverConfig `yaml:"resolver"`
	Output   OutputConfig   `yaml:"output"`
	Daemon   DaemonConfig   `yaml:"daemon,omitempty"`
}

// BookConfig identifies the outline and content root of the book.
type BookConfig struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description,omitempty"`
	ContentRoot string `yaml:"content_root"`
	Outline     string `yaml:"outline"` // relative to content_root
}

// SourceConfig optionally points the build at a remote book source.
// When Git is set the content root is materialized from a clone.
type SourceConfig struct {
	Git *GitSource `yaml:"git,omitempty"`
}

// GitSource describes a git-hosted book.
type GitSource struct {
	URL    string `yaml:"url"`
	Branch string `yaml:"branch,omitempty"`
	Token  string `yaml:"token,omitempty"` // env-expanded, e.g. ${BOOK_GIT_TOKEN}
}

// ResolverConfig controls content loading behavior.
type ResolverConfig struct {
	// PathFallback enables the trailing /md -> .md rewrite for references
	// whose literal path does not exist. Uses of the fallback are always
	// reported as warnings; this flag only controls whether it is attempted.
	PathFallback *bool    `yaml:"path_fallback,omitempty"`
	Workers      int      `yaml:"workers,omitempty"`
	FileTimeout  Duration `yaml:"file_timeout,omitempty"`
}

// OutputConfig controls where build artifacts land.
type OutputConfig struct {
	Directory   string `yaml:"directory"`
	Clean       bool   `yaml:"clean"`
	SearchIndex *bool  `yaml:"search_index,omitempty"`
}

// DaemonConfig configures watch mode.
type DaemonConfig struct {
	Listen          string      `yaml:"listen,omitempty"`
	Debounce        Duration    `yaml:"debounce,omitempty"`
	RebuildInterval Duration    `yaml:"rebuild_interval,omitempty"`
	HistoryDB       string      `yaml:"history_db,omitempty"`
	NATS            *NATSConfig `yaml:"nats,omitempty"`
}

// NATSConfig enables publishing build events to a JetStream subject.
type NATSConfig struct {
	URL     string `yaml:"url"`
	Stream  string `yaml:"stream,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

// Duration is a time.Duration that unmarshals from YAML strings like "750ms".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Load loads configuration from the specified file.
func Load(configPath string) (*Config, error) {
	loadEnvFiles()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(expandedData), &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Content root and outline are interpreted relative to the config file's
	// directory so builds behave the same from any working directory. With a
	// git source the content root stays repository-relative; the source
	// resolves it inside the clone.
	base := filepath.Dir(configPath)
	if config.Source.Git == nil && !filepath.IsAbs(config.Book.ContentRoot) {
		config.Book.ContentRoot = filepath.Join(base, config.Book.ContentRoot)
	}
	if config.Output.Directory != "" && !filepath.IsAbs(config.Output.Directory) {
		config.Output.Directory = filepath.Join(base, config.Output.Directory)
	}

	return &config, nil
}

// applyDefaults fills unset fields with their documented defaults.
func (c *Config) applyDefaults() {
	if c.Book.Title == "" {
		c.Book.Title = "Untitled Book"
	}
	if c.Book.ContentRoot == "" {
		c.Book.ContentRoot = "./src"
	}
	if c.Book.Outline == "" {
		c.Book.Outline = "SUMMARY.md"
	}
	if c.Resolver.PathFallback == nil {
		enabled := true
		c.Resolver.PathFallback = &enabled
	}
	if c.Resolver.Workers <= 0 {
		c.Resolver.Workers = 8
	}
	if c.Resolver.FileTimeout <= 0 {
		c.Resolver.FileTimeout = Duration(5 * time.Second)
	}
	if c.Output.Directory == "" {
		c.Output.Directory = "./book"
	}
	if c.Output.SearchIndex == nil {
		enabled := true
		c.Output.SearchIndex = &enabled
	}
	if c.Daemon.Listen == "" {
		c.Daemon.Listen = ":8173"
	}
	if c.Daemon.Debounce <= 0 {
		c.Daemon.Debounce = Duration(750 * time.Millisecond)
	}
	if c.Daemon.RebuildInterval <= 0 {
		c.Daemon.RebuildInterval = Duration(30 * time.Minute)
	}
	if c.Daemon.HistoryDB == "" {
		c.Daemon.HistoryDB = ".bookc/history.db"
	}
	if c.Source.Git != nil && c.Source.Git.Branch == "" {
		c.Source.Git.Branch = "main"
	}
	if c.Daemon.NATS != nil {
		if c.Daemon.NATS.Stream == "" {
			c.Daemon.NATS.Stream = "BOOK_BUILDS"
		}
		if c.Daemon.NATS.Subject == "" {
			c.Daemon.NATS.Subject = "book.builds.completed"
		}
	}
}

// Validate rejects configurations that cannot produce a build.
func (c *Config) Validate() error {
	if c.Source.Git != nil && c.Source.Git.URL == "" {
		return fmt.Errorf("source.git.url must be set when a git source is configured")
	}
	if c.Daemon.NATS != nil && c.Daemon.NATS.URL == "" {
		return fmt.Errorf("daemon.nats.url must be set when NATS is configured")
	}
	if c.Resolver.Workers > 256 {
		return fmt.Errorf("resolver.workers %d exceeds the supported maximum of 256", c.Resolver.Workers)
	}
	return nil
}

// PathFallbackEnabled reports whether the /md -> .md fallback is active.
func (c *Config) PathFallbackEnabled() bool {
	return c.Resolver.PathFallback != nil && *c.Resolver.PathFallback
}

// SearchIndexEnabled reports whether the publisher should emit a search index.
func (c *Config) SearchIndexEnabled() bool {
	return c.Output.SearchIndex != nil && *c.Output.SearchIndex
}

// OutlinePath returns the absolute path of the outline document.
func (c *Config) OutlinePath() string {
	return filepath.Join(c.Book.ContentRoot, c.Book.Outline)
}

// loadEnvFiles loads environment variables from .env files if present.
// Existing environment variables are never overridden.
func loadEnvFiles() {
	for _, envPath := range []string{".env", ".env.local"} {
		if _, err := os.Stat(envPath); err != nil {
			continue
		}
		if err := godotenv.Load(envPath); err != nil {
			fmt.Fprintf(os.Stderr, "Note: %s could not be loaded: %v\n", envPath, err)
		}
	}
}
