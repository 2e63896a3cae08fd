package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// TestLoadTomlConfig tests parsing a full TOML configuration
func TestLoadTomlConfig(t *testing.T) {
	content := `
[server]
host = "127.0.0.1"
port = 9000
log_level = "debug"

[webhook]
secret = "hunter2"
verify_origin = true

[git]
name = "Deploy Bot"
email = "deploy@example.com"

[workflows.readonly]
reset_on_changes = true
pull = true
submodule_update = true

[[containers]]
id = "34bee3f5-fb2b-4bab-b45e-c303b1d15137"
name = "production"
branch = "main"
workflow = "readonly"
repo_root = "/home/container/server-data"

[[containers.submodules]]
path = "resources/cars"
branch = "main"
`
	cfg, err := Load(writeConfig(t, "config.toml", content))
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "hunter2", cfg.Webhook.Secret)
	assert.True(t, cfg.Webhook.VerifyOrigin)
	assert.Equal(t, "Deploy Bot", cfg.Git.Name)

	require.Len(t, cfg.Containers, 1)
	ct := cfg.Containers[0]
	assert.Equal(t, "production", ct.Name)
	assert.Equal(t, "readonly", ct.Workflow)
	require.Len(t, ct.Submodules, 1)
	assert.Equal(t, "resources/cars", ct.Submodules[0].Path)

	wf, ok := cfg.ResolveWorkflow("readonly")
	require.True(t, ok)
	assert.True(t, wf.ResetOnChanges)
	assert.True(t, wf.Pull)
	assert.False(t, wf.Push)
}

// TestLoadYamlConfig tests parsing the equivalent YAML configuration
func TestLoadYamlConfig(t *testing.T) {
	content := `
server:
  port: 9000
containers:
  - id: fbb6360b-1f8f-4768-a39e-340daf0eac6f
    name: development
    branch: dev
    workflow: dev
    submodules:
      - path: resources/cars
        branch: main
`
	cfg, err := Load(writeConfig(t, "config.yaml", content))
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	require.Len(t, cfg.Containers, 1)
	assert.Equal(t, "development", cfg.Containers[0].Name)

	// repo_root falls back to the Pterodactyl volume
	assert.Equal(t, "/home/container/server-data", cfg.Containers[0].RepoRoot)
}

// TestCannedWorkflowsAvailable tests that the conventional policies exist
// without being declared
func TestCannedWorkflowsAvailable(t *testing.T) {
	content := `
[[containers]]
id = "34bee3f5-fb2b-4bab-b45e-c303b1d15137"
branch = "main"
workflow = "main"
`
	cfg, err := Load(writeConfig(t, "config.toml", content))
	require.NoError(t, err)

	main, ok := cfg.ResolveWorkflow("main")
	require.True(t, ok)
	assert.True(t, main.ResetOnChanges)
	assert.True(t, main.Pull)
	assert.True(t, main.SubmoduleUpdate)
	assert.False(t, main.Commit)
	assert.False(t, main.Push)

	dev, ok := cfg.ResolveWorkflow("dev")
	require.True(t, ok)
	assert.True(t, dev.Commit)
	assert.True(t, dev.Push)
	assert.True(t, dev.SubmoduleRemote)
	assert.True(t, dev.SubmoduleCommitPush)
	assert.False(t, dev.ResetOnChanges)
}

// TestValidationErrors tests that invalid configurations are rejected at load
func TestValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "no containers",
			content: `[server]` + "\n" + `port = 5000`,
			wantErr: "at least one container",
		},
		{
			name: "container id not a UUID",
			content: `
[[containers]]
id = "not-a-uuid"
branch = "main"
workflow = "main"
`,
			wantErr: "not a Pterodactyl server UUID",
		},
		{
			name: "missing branch",
			content: `
[[containers]]
id = "34bee3f5-fb2b-4bab-b45e-c303b1d15137"
workflow = "main"
`,
			wantErr: "branch is required",
		},
		{
			name: "dangling workflow reference",
			content: `
[[containers]]
id = "34bee3f5-fb2b-4bab-b45e-c303b1d15137"
branch = "main"
workflow = "nonexistent"
`,
			wantErr: `workflow "nonexistent" is not defined`,
		},
		{
			name: "absolute submodule path",
			content: `
[[containers]]
id = "34bee3f5-fb2b-4bab-b45e-c303b1d15137"
branch = "main"
workflow = "main"

[[containers.submodules]]
path = "/absolute/path"
branch = "main"
`,
			wantErr: "must be relative",
		},
		{
			name: "submodule without branch",
			content: `
[[containers]]
id = "34bee3f5-fb2b-4bab-b45e-c303b1d15137"
branch = "main"
workflow = "main"

[[containers.submodules]]
path = "resources/cars"
`,
			wantErr: "submodule branch is required",
		},
		{
			name: "duplicate container id",
			content: `
[[containers]]
id = "34bee3f5-fb2b-4bab-b45e-c303b1d15137"
branch = "main"
workflow = "main"

[[containers]]
id = "34bee3f5-fb2b-4bab-b45e-c303b1d15137"
branch = "dev"
workflow = "dev"
`,
			wantErr: "duplicate container id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, "config.toml", tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

// TestEnvOverrides tests that environment variables override file values
func TestEnvOverrides(t *testing.T) {
	t.Setenv("PTERO_WEBHOOK_PORT", "7777")
	t.Setenv("PTERO_WEBHOOK_SECRET", "from-env")

	content := `
[server]
port = 5000

[[containers]]
id = "34bee3f5-fb2b-4bab-b45e-c303b1d15137"
branch = "main"
workflow = "main"
`
	cfg, err := Load(writeConfig(t, "config.toml", content))
	require.NoError(t, err)

	assert.Equal(t, 7777, cfg.Server.Port)
	assert.Equal(t, "from-env", cfg.Webhook.Secret)
}

// TestLoadMissingFile tests the not-found error path
func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

// TestLoadUnsupportedExtension tests format detection by extension
func TestLoadUnsupportedExtension(t *testing.T) {
	_, err := Load(writeConfig(t, "config.json", `{}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported config format")
}
