// Package index checks for and invalidates externally produced repository
// indexes. This component never builds indexes; it only observes the
// presence of the artifacts and deletes a repository's index directory
// wholesale when re-ingestion is requested.
package index

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// requiredArtifacts are the files whose joint presence marks a complete
// index under {root}/{repo}/.
var requiredArtifacts = []string{"repo.index", "chunks.json", "graph.pkl"}

// Store locates indexes under a root directory.
type Store struct {
	root string
}

// NewStore creates a Store rooted at root.
func NewStore(root string) *Store {
	return &Store{root: root}
}

// Dir returns the index directory for a repository name.
func (s *Store) Dir(repo string) string {
	return filepath.Join(s.root, repo)
}

// Exists reports whether a complete index is present for the repository.
// Content is never validated, only the presence of all required artifacts.
func (s *Store) Exists(repo string) bool {
	dir := s.Dir(repo)
	for _, name := range requiredArtifacts {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			return false
		}
	}
	return true
}

// Invalidate deletes the whole index directory for the repository. It
// reports whether a directory was actually removed.
func (s *Store) Invalidate(repo string) (bool, error) {
	dir := s.Dir(repo)
	if _, err := os.Stat(dir); err != nil {
		return false, nil
	}

	slog.Info("deleting stale index", "path", dir)
	if err := os.RemoveAll(dir); err != nil {
		return false, fmt.Errorf("deleting index directory: %w", err)
	}
	return true, nil
}
