// Package config loads and validates the service configuration: the webhook
// listener settings, the set of Pterodactyl containers to synchronize, and
// the named workflow policies the containers reference.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/ktox-dev/pterodactyl-git-webhook/internal/constants"
	"github.com/ktox-dev/pterodactyl-git-webhook/internal/errors"
	"github.com/ktox-dev/pterodactyl-git-webhook/internal/xdg"
)

// Config is the root configuration, loaded once at startup and read-only
// for the remainder of the process's life.
type Config struct {
	Server     ServerConfig        `toml:"server" yaml:"server"`
	Webhook    WebhookConfig       `toml:"webhook" yaml:"webhook"`
	Git        GitConfig           `toml:"git" yaml:"git"`
	Database   DatabaseConfig      `toml:"database" yaml:"database"`
	Workflows  map[string]Workflow `toml:"workflows" yaml:"workflows"`
	Containers []Container         `toml:"containers" yaml:"containers"`
}

// ServerConfig holds the webhook listener settings
type ServerConfig struct {
	Host     string `toml:"host" yaml:"host"`
	Port     int    `toml:"port" yaml:"port"`
	LogLevel string `toml:"log_level" yaml:"log_level"`
}

// WebhookConfig holds request validation settings
type WebhookConfig struct {
	// Secret is the HMAC secret shared with GitHub. Signature checking is
	// skipped when empty.
	Secret string `toml:"secret" yaml:"secret"`
	// VerifyOrigin enables the GitHub meta API hook CIDR allow-list check
	VerifyOrigin bool `toml:"verify_origin" yaml:"verify_origin"`
	// Marker identifies pushes created by this service. Defaults to
	// the auto-commit message.
	Marker string `toml:"marker" yaml:"marker"`
}

// GitConfig holds the commit identity and the in-container repository owner
type GitConfig struct {
	Name  string `toml:"name" yaml:"name"`
	Email string `toml:"email" yaml:"email"`
	// Owner is the uid:gid ownership restored by the permission-denied
	// remediation. Pterodactyl runs servers as the "container" user.
	Owner string `toml:"owner" yaml:"owner"`
}

// DatabaseConfig holds the run-history store settings
type DatabaseConfig struct {
	Path string `toml:"path" yaml:"path"`
}

// Workflow is a named, immutable bundle of boolean flags describing which
// Git actions a container sync performs. Containers reference workflows by
// name and share them; nothing mutates a Workflow after load.
type Workflow struct {
	ResetOnChanges      bool `toml:"reset_on_changes" yaml:"reset_on_changes"`
	Pull                bool `toml:"pull" yaml:"pull"`
	Commit              bool `toml:"commit" yaml:"commit"`
	Push                bool `toml:"push" yaml:"push"`
	SubmoduleUpdate     bool `toml:"submodule_update" yaml:"submodule_update"`
	SubmoduleRemote     bool `toml:"submodule_remote" yaml:"submodule_remote"`
	SubmoduleCommitPush bool `toml:"submodule_commit_push" yaml:"submodule_commit_push"`
}

// Submodule is a nested repository tracked at a fixed path inside a
// container's main repository. Path is always relative to the repo root.
type Submodule struct {
	Path   string `toml:"path" yaml:"path"`
	Branch string `toml:"branch" yaml:"branch"`
}

// Container describes one Pterodactyl server whose working tree is kept in
// sync. ID is the docker container name (the Pterodactyl server UUID).
type Container struct {
	ID         string      `toml:"id" yaml:"id"`
	Name       string      `toml:"name" yaml:"name"`
	Branch     string      `toml:"branch" yaml:"branch"`
	Workflow   string      `toml:"workflow" yaml:"workflow"`
	RepoRoot   string      `toml:"repo_root" yaml:"repo_root"`
	Submodules []Submodule `toml:"submodules" yaml:"submodules"`
}

// defaultWorkflows are the two policies that exist by convention: "main"
// for read-only deployment targets and "dev" for targets that originate
// changes. A workflows section in the file overrides them by name.
func defaultWorkflows() map[string]Workflow {
	return map[string]Workflow{
		"main": {
			ResetOnChanges:  true,
			Pull:            true,
			SubmoduleUpdate: true,
		},
		"dev": {
			Pull:                true,
			Commit:              true,
			Push:                true,
			SubmoduleUpdate:     true,
			SubmoduleRemote:     true,
			SubmoduleCommitPush: true,
		},
	}
}

// Default returns a configuration with all defaults applied and no containers
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:     "0.0.0.0",
			Port:     constants.DefaultServerPort,
			LogLevel: "info",
		},
		Webhook: WebhookConfig{
			Marker: constants.AutoCommitMarker,
		},
		Git: GitConfig{
			Name:  constants.DefaultCommitterName,
			Email: constants.DefaultCommitterEmail,
			Owner: "container:container",
		},
		Workflows: defaultWorkflows(),
	}
}

// Load reads, parses and validates the configuration file at path. The file
// format is chosen by extension: .toml, or .yaml/.yml. The returned Config
// has every default applied and every cross-reference resolved; callers can
// treat it as pre-validated.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigNotFound(path)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, errors.ConfigParseError(err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.ConfigParseError(err)
		}
	default:
		return nil, errors.ConfigValidationError("path",
			fmt.Sprintf("unsupported config format %q (want .toml, .yaml or .yml)", filepath.Ext(path)))
	}

	cfg.applyDefaults()
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults fills the fields a sparse config file may omit
func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = constants.DefaultServerPort
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}
	if c.Webhook.Marker == "" {
		c.Webhook.Marker = constants.AutoCommitMarker
	}
	if c.Git.Name == "" {
		c.Git.Name = constants.DefaultCommitterName
	}
	if c.Git.Email == "" {
		c.Git.Email = constants.DefaultCommitterEmail
	}
	if c.Git.Owner == "" {
		c.Git.Owner = "container:container"
	}
	if c.Workflows == nil {
		c.Workflows = map[string]Workflow{}
	}
	// Canned policies stay available unless the file shadows them
	for name, wf := range defaultWorkflows() {
		if _, ok := c.Workflows[name]; !ok {
			c.Workflows[name] = wf
		}
	}
	for i := range c.Containers {
		if c.Containers[i].RepoRoot == "" {
			// Pterodactyl mounts the server volume at /home/container
			c.Containers[i].RepoRoot = "/home/container/server-data"
		}
	}
}

// applyEnvOverrides lets deployment environments override file values
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("PTERO_WEBHOOK_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("PTERO_WEBHOOK_SECRET"); v != "" {
		c.Webhook.Secret = v
	}
	if v := os.Getenv("PTERO_WEBHOOK_LOG_LEVEL"); v != "" {
		c.Server.LogLevel = v
	}
	if v := os.Getenv("PTERO_WEBHOOK_DB_PATH"); v != "" {
		c.Database.Path = v
	}
}

// DatabasePath returns the configured sqlite path, falling back to the XDG
// data directory
func (c *Config) DatabasePath() (string, error) {
	if c.Database.Path != "" {
		return c.Database.Path, nil
	}
	dataDir, err := xdg.DataDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve data directory: %w", err)
	}
	return filepath.Join(dataDir, "webhook.db"), nil
}

// ResolveWorkflow returns the workflow a container references. The reference
// is guaranteed to resolve for a validated config.
func (c *Config) ResolveWorkflow(name string) (Workflow, bool) {
	wf, ok := c.Workflows[name]
	return wf, ok
}
