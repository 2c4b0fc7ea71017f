package cli

// This file contains the test262 revision lookup.

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

func (a *App) getRevision(ctx context.Context, dir string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", "-C", dir, "rev-parse", "HEAD")
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("failed to get the test262 revision of %s: %w", dir, err)
	}
	revision := strings.TrimSpace(string(output))
	a.logger.Debug().Str("revision", revision).Msg("Test262 revision")
	return revision, nil
}
