package config

import (
	"fmt"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/ktox-dev/pterodactyl-git-webhook/internal/errors"
)

// Validate checks every invariant the engine assumes: non-empty identities
// and branches, relative submodule paths, and workflow references that
// resolve. A validation failure here is fatal at startup; the engine never
// re-validates.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.ConfigValidationError("server.port", fmt.Sprintf("invalid port %d", c.Server.Port))
	}

	if len(c.Containers) == 0 {
		return errors.ConfigValidationError("containers", "at least one container is required")
	}

	seen := make(map[string]bool, len(c.Containers))
	for i, ct := range c.Containers {
		field := fmt.Sprintf("containers[%d]", i)

		if ct.ID == "" {
			return errors.ConfigValidationError(field+".id", "container id is required")
		}
		if _, err := uuid.Parse(ct.ID); err != nil {
			return errors.ContainerInvalidID(ct.ID)
		}
		if seen[ct.ID] {
			return errors.ConfigValidationError(field+".id", fmt.Sprintf("duplicate container id %q", ct.ID))
		}
		seen[ct.ID] = true

		if ct.Branch == "" {
			return errors.ConfigValidationError(field+".branch", "branch is required")
		}
		if !filepath.IsAbs(ct.RepoRoot) {
			return errors.ConfigValidationError(field+".repo_root",
				fmt.Sprintf("%q must be an absolute path inside the container", ct.RepoRoot))
		}

		if ct.Workflow == "" {
			return errors.ConfigValidationError(field+".workflow", "workflow reference is required")
		}
		if _, ok := c.Workflows[ct.Workflow]; !ok {
			return errors.ConfigValidationError(field+".workflow",
				fmt.Sprintf("workflow %q is not defined", ct.Workflow))
		}

		for j, sm := range ct.Submodules {
			smField := fmt.Sprintf("%s.submodules[%d]", field, j)
			if sm.Path == "" {
				return errors.ConfigValidationError(smField+".path", "submodule path is required")
			}
			if filepath.IsAbs(sm.Path) {
				return errors.ConfigValidationError(smField+".path",
					fmt.Sprintf("%q must be relative to the repository root", sm.Path))
			}
			if sm.Branch == "" {
				return errors.ConfigValidationError(smField+".branch", "submodule branch is required")
			}
		}
	}

	return nil
}
