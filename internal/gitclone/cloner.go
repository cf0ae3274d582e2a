// Package gitclone materializes local working copies through the system git
// client.
package gitclone

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Cloner abstracts the clone operation so the orchestrator can be tested
// without git or network access.
type Cloner interface {
	// Clone performs a shallow clone of url into dest, replacing any
	// pre-existing directory at dest.
	Clone(ctx context.Context, url, dest, token string) error
}

// GitCloner shells out to `git clone --depth 1`.
type GitCloner struct{}

// Clone removes any previous clone at dest, recreates the parent directory,
// and performs a fresh shallow clone.
func (GitCloner) Clone(ctx context.Context, url, dest, token string) error {
	if err := prepareDest(dest); err != nil {
		return err
	}

	cloneURL := authURL(url, token)

	slog.Info("cloning repository", "url", url, "dest", dest)
	cmd := exec.CommandContext(ctx, "git", "clone", "--depth", "1", cloneURL, dest)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("git clone failed: %s", strings.TrimSpace(stderr.String()))
	}

	slog.Debug("repository cloned", "dest", dest)
	return nil
}

// prepareDest applies the fresh-clone policy: the old copy is deleted
// wholesale and the parent directory created.
func prepareDest(dest string) error {
	if _, err := os.Stat(dest); err == nil {
		slog.Info("removing old clone", "path", dest)
		if err := os.RemoveAll(dest); err != nil {
			return fmt.Errorf("removing old clone: %w", err)
		}
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("creating clone parent directory: %w", err)
	}
	return nil
}

// authURL splices the credential into an https clone URL. URLs that already
// embed credentials, and non-https URLs, are returned unchanged.
func authURL(url, token string) string {
	if token == "" || strings.Contains(url, "@") {
		return url
	}
	if strings.HasPrefix(url, "https://") {
		return "https://" + token + "@" + strings.TrimPrefix(url, "https://")
	}
	return url
}
