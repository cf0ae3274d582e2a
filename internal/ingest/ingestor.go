// Package ingest orchestrates the ingestion workflow: classify the input,
// invalidate any stale index, run the external ingestion tool, and
// conditionally clone remote repositories.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"repoingest/internal/config"
	"repoingest/internal/ghapi"
	"repoingest/internal/gitclone"
	"repoingest/internal/gitingest"
	"repoingest/internal/index"
	"repoingest/internal/models"
	"repoingest/internal/repoid"
)

// timestampLayout names ingestion artifacts: {owner}_{repo}_{timestamp}.txt
const timestampLayout = "20060102_150405"

// PreflightFunc runs a diagnostic before a remote ingestion. It must never
// fail the request.
type PreflightFunc func(ctx context.Context, token string)

// Ingestor coordinates one ingestion request end to end. It is stateless per
// invocation except for its side effects on the filesystem.
type Ingestor struct {
	cfg       config.Config
	runner    gitingest.Runner
	cloner    gitclone.Cloner
	indexes   *index.Store
	preflight PreflightFunc
}

// New creates an Ingestor with explicit collaborators. Tests substitute fake
// runners and cloners here.
func New(cfg config.Config, runner gitingest.Runner, cloner gitclone.Cloner) *Ingestor {
	return &Ingestor{
		cfg:     cfg,
		runner:  runner,
		cloner:  cloner,
		indexes: index.NewStore(cfg.IndexesDir),
	}
}

// WithPreflight installs a diagnostic that runs before remote ingestions
// when a credential is present. Returns the Ingestor for chaining.
func (ing *Ingestor) WithPreflight(f PreflightFunc) *Ingestor {
	ing.preflight = f
	return ing
}

// NewDefault creates an Ingestor backed by the real gitingest and git
// subprocesses, with the GitHub rate-limit preflight enabled.
func NewDefault(cfg config.Config) *Ingestor {
	return New(cfg, &gitingest.ExecRunner{Timeout: cfg.IngestTimeout()}, gitclone.GitCloner{}).
		WithPreflight(func(ctx context.Context, token string) {
			ghapi.NewClient(ctx, token).Preflight(ctx)
		})
}

// Ingest runs the full workflow for a single repository reference. All
// failures, including panics from unexpected faults, come back as a failed
// result rather than an error.
func (ing *Ingestor) Ingest(ctx context.Context, repoInput, token string) (res *models.IngestResult) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("ingestion panicked", "input", repoInput, "panic", r)
			res = models.Failure(repoInput, models.ErrInternalError, fmt.Sprintf("internal error: %v", r))
		}
	}()

	raw := strings.TrimSpace(repoInput)
	if raw == "" {
		return models.Failure(repoInput, models.ErrInputEmpty, "No repository URL or local path provided.")
	}

	if token == "" {
		token = ing.cfg.GitHubToken
	}

	ref, failure := ing.classify(ctx, raw, token)
	if failure != nil {
		return failure
	}

	// Stale-cache invalidation: mere presence of a complete index triggers
	// wholesale deletion before the tool runs.
	if ing.indexes.Exists(ref.Name) {
		if _, err := ing.indexes.Invalidate(ref.Name); err != nil {
			return models.Failure(raw, models.ErrInternalError, err.Error())
		}
	}

	if err := os.MkdirAll(ing.cfg.OutputDir, 0755); err != nil {
		return models.Failure(raw, models.ErrInternalError, fmt.Sprintf("creating output directory: %v", err))
	}

	outputFile := filepath.Join(ing.cfg.OutputDir,
		fmt.Sprintf("%s_%s_%s.txt", ref.Owner, ref.Name, time.Now().Format(timestampLayout)))

	runRes := ing.runner.Run(ctx, gitingest.Request{
		Input:      ref.EffectiveInput,
		OutputFile: outputFile,
		Token:      token,
		RemoteAuth: ref.Remote(),
	})
	if !runRes.OK {
		return models.Failure(raw, runRes.ErrorType, runRes.Stderr)
	}

	slog.Info("structured output saved", "file", outputFile)
	result := &models.IngestResult{
		Success:    true,
		RepoInput:  raw,
		OutputFile: outputFile,
		Detail:     models.SuccessDetail,
	}

	// Clone only for remote inputs; a clone failure is non-fatal and leaves
	// local_repo null.
	if ing.cfg.Clone && ref.Remote() {
		dest := filepath.Join(ing.cfg.ReposDir, ref.Owner, ref.Name)
		if err := ing.cloner.Clone(ctx, ref.Raw, dest, token); err != nil {
			slog.Warn("repo clone skipped", "url", ref.Raw, "error", err)
			result.CloneError = err.Error()
		} else {
			result.LocalRepo = &dest
		}
	}

	return result
}

// classify turns the raw input into a RepoRef, performing the local-marker
// write and the remote preflight as side effects of classification.
func (ing *Ingestor) classify(ctx context.Context, raw, token string) (models.RepoRef, *models.IngestResult) {
	if repoid.IsProbableRemote(raw) {
		ref, err := repoid.RemoteRef(raw)
		if err != nil {
			return models.RepoRef{}, models.Failure(raw, models.ErrRefInvalid, err.Error())
		}
		if token != "" && ing.preflight != nil {
			ing.preflight(ctx, token)
		}
		return ref, nil
	}

	ref, err := repoid.LocalRef(raw)
	if err != nil {
		return models.RepoRef{}, models.Failure(raw, models.ErrLocalPathMissing, err.Error())
	}
	if err := ing.writeLocalMarker(ref); err != nil {
		return models.RepoRef{}, models.Failure(raw, models.ErrInternalError, err.Error())
	}
	return ref, nil
}

// writeLocalMarker records the resolved source path under
// {repos_dir}/Local/{name}/repopath.txt so later tooling can recover the
// original location.
func (ing *Ingestor) writeLocalMarker(ref models.RepoRef) error {
	dir := filepath.Join(ing.cfg.ReposDir, ref.Owner, ref.Name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating local repo directory: %w", err)
	}
	marker := filepath.Join(dir, "repopath.txt")
	if err := os.WriteFile(marker, []byte(ref.EffectiveInput), 0644); err != nil {
		return fmt.Errorf("writing repo path marker: %w", err)
	}
	return nil
}
