// Package repoid classifies repository references and extracts owner/name
// coordinates from them.
//
// Classification is a string heuristic, not authoritative URL parsing: a
// reference counts as remote when it starts with an HTTP(S)/SSH scheme or
// contains a known hosting-service substring. Everything else is treated as
// a local filesystem path.
package repoid

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"repoingest/internal/models"
)

var (
	schemeRe = regexp.MustCompile(`^(https?://|git@|ssh://)`)
	// Tolerates HTTPS and SSH-style syntax with an optional .git suffix:
	// https://github.com/owner/repo, git@github.com:owner/repo.git, ...
	githubRe = regexp.MustCompile(`github\.com[:/]([^/]+)/([^/]+?)(?:\.git)?$`)
)

// IsProbableRemote reports whether s looks like a hosted repository
// reference rather than a local path.
func IsProbableRemote(s string) bool {
	s = strings.TrimSpace(s)
	return schemeRe.MatchString(s) || strings.Contains(s, "github.com")
}

// ParseRemote extracts the owner and repository name from a remote
// reference, stripping any trailing .git suffix.
func ParseRemote(s string) (owner, name string, err error) {
	m := githubRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return "", "", fmt.Errorf("invalid GitHub URL: %s", s)
	}
	return m[1], m[2], nil
}

// NormalizeLocalPath expands a user-supplied local path: surrounding quotes
// stripped, ~ and environment variables expanded, path cleaned.
func NormalizeLocalPath(s string) string {
	p := strings.TrimSpace(s)
	p = strings.Trim(p, `"'`)
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			p = filepath.Join(home, strings.TrimPrefix(p[1:], "/"))
		}
	}
	p = os.ExpandEnv(p)
	return filepath.Clean(p)
}

// LocalOwner is the synthetic owner label used for local repositories.
const LocalOwner = "Local"

// RemoteRef classifies s as a remote reference.
func RemoteRef(s string) (models.RepoRef, error) {
	raw := strings.TrimSpace(s)
	owner, name, err := ParseRemote(raw)
	if err != nil {
		return models.RepoRef{}, err
	}
	return models.RepoRef{
		Kind:           models.RefRemote,
		Raw:            raw,
		Owner:          owner,
		Name:           name,
		EffectiveInput: raw,
	}, nil
}

// LocalRef classifies s as a local path, requiring it to resolve to an
// existing directory. The effective input is the resolved absolute path.
func LocalRef(s string) (models.RepoRef, error) {
	raw := strings.TrimSpace(s)
	path := NormalizeLocalPath(raw)

	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return models.RepoRef{}, fmt.Errorf("local path not found or not a directory: %s", path)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return models.RepoRef{}, fmt.Errorf("resolving local path: %w", err)
	}

	return models.RepoRef{
		Kind:           models.RefLocal,
		Raw:            raw,
		Owner:          LocalOwner,
		Name:           filepath.Base(abs),
		EffectiveInput: abs,
	}, nil
}
