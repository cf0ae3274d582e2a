package ingest_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"testing"

	"repoingest/internal/config"
	"repoingest/internal/gitingest"
	"repoingest/internal/ingest"
	"repoingest/internal/models"
)

// fakeRunner records requests and returns a canned result. onRun lets tests
// observe filesystem state at the moment the tool would execute.
type fakeRunner struct {
	mu    sync.Mutex
	res   gitingest.RunResult
	calls []gitingest.Request
	onRun func(req gitingest.Request)
}

func (f *fakeRunner) Run(_ context.Context, req gitingest.Request) gitingest.RunResult {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()
	if f.onRun != nil {
		f.onRun(req)
	}
	return f.res
}

func (f *fakeRunner) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// fakeCloner records clone calls and optionally fails.
type fakeCloner struct {
	mu    sync.Mutex
	err   error
	calls []string // urls
	dests []string
}

func (f *fakeCloner) Clone(_ context.Context, url, dest, _ string) error {
	f.mu.Lock()
	f.calls = append(f.calls, url)
	f.dests = append(f.dests, dest)
	f.mu.Unlock()
	return f.err
}

func (f *fakeCloner) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	base := t.TempDir()
	cfg := config.Default()
	cfg.OutputDir = filepath.Join(base, "gitingest_outputs")
	cfg.ReposDir = filepath.Join(base, "my_repos")
	cfg.IndexesDir = filepath.Join(base, "indexes")
	return cfg
}

func okRunner() *fakeRunner {
	return &fakeRunner{res: gitingest.RunResult{OK: true}}
}

func TestIngestEmptyInput(t *testing.T) {
	for _, input := range []string{"", "   ", "\t\n"} {
		runner := okRunner()
		ing := ingest.New(testConfig(t), runner, &fakeCloner{})

		res := ing.Ingest(context.Background(), input, "")
		if res.Success {
			t.Errorf("input %q: expected failure", input)
		}
		if !regexp.MustCompile(`(?i)no repository`).MatchString(res.Error) {
			t.Errorf("input %q: expected no-repository message, got %q", input, res.Error)
		}
		if runner.callCount() != 0 {
			t.Errorf("input %q: tool ran despite empty input", input)
		}
	}
}

func TestIngestLocalPathMissing(t *testing.T) {
	cfg := testConfig(t)
	runner := okRunner()
	ing := ingest.New(cfg, runner, &fakeCloner{})

	missing := filepath.Join(t.TempDir(), "nope")
	res := ing.Ingest(context.Background(), missing, "")

	if res.Success {
		t.Fatal("expected failure for missing local path")
	}
	if !regexp.MustCompile(`not found`).MatchString(res.Error) {
		t.Errorf("expected not-found message, got %q", res.Error)
	}
	if runner.callCount() != 0 {
		t.Error("tool ran despite missing path")
	}

	// No marker directory may appear.
	marker := filepath.Join(cfg.ReposDir, "Local", "nope", "repopath.txt")
	if _, err := os.Stat(marker); !os.IsNotExist(err) {
		t.Error("marker file written for missing path")
	}
}

func TestIngestLocalDirectory(t *testing.T) {
	cfg := testConfig(t)
	runner := okRunner()
	cloner := &fakeCloner{}
	ing := ingest.New(cfg, runner, cloner)

	src := t.TempDir()
	res := ing.Ingest(context.Background(), src, "tok")

	if !res.Success {
		t.Fatalf("expected success, got %q", res.Error)
	}

	abs, err := filepath.Abs(src)
	if err != nil {
		t.Fatalf("abs: %v", err)
	}

	// Marker file holds exactly the resolved absolute path.
	marker := filepath.Join(cfg.ReposDir, "Local", filepath.Base(abs), "repopath.txt")
	data, err := os.ReadFile(marker)
	if err != nil {
		t.Fatalf("reading marker: %v", err)
	}
	if string(data) != abs {
		t.Errorf("marker = %q, want %q", data, abs)
	}

	// The tool sees the resolved path and never the credential.
	if runner.callCount() != 1 {
		t.Fatalf("expected one tool run, got %d", runner.callCount())
	}
	req := runner.calls[0]
	if req.Input != abs {
		t.Errorf("tool input = %q, want %q", req.Input, abs)
	}
	if req.RemoteAuth {
		t.Error("credential enabled for local input")
	}

	// Local inputs are never cloned.
	if cloner.callCount() != 0 {
		t.Error("clone attempted for local input")
	}
	if res.LocalRepo != nil {
		t.Errorf("expected nil local_repo, got %q", *res.LocalRepo)
	}
}

func TestIngestRemoteEndToEnd(t *testing.T) {
	cfg := testConfig(t)
	runner := okRunner()
	cloner := &fakeCloner{}
	ing := ingest.New(cfg, runner, cloner)

	res := ing.Ingest(context.Background(), "https://github.com/owner/repo.git", "")

	if !res.Success {
		t.Fatalf("expected success, got %q", res.Error)
	}
	if res.Detail != models.SuccessDetail {
		t.Errorf("expected success marker, got %q", res.Detail)
	}

	// Artifact path follows {owner}_{repo}_{timestamp}.txt under the
	// output directory.
	if filepath.Dir(res.OutputFile) != cfg.OutputDir {
		t.Errorf("artifact outside output dir: %s", res.OutputFile)
	}
	base := filepath.Base(res.OutputFile)
	if !regexp.MustCompile(`^owner_repo_\d{8}_\d{6}\.txt$`).MatchString(base) {
		t.Errorf("artifact name %q does not match owner_repo_timestamp pattern", base)
	}

	// Clone went to the predictable owner/repo destination.
	want := filepath.Join(cfg.ReposDir, "owner", "repo")
	if res.LocalRepo == nil || *res.LocalRepo != want {
		t.Errorf("local_repo = %v, want %s", res.LocalRepo, want)
	}
	if cloner.callCount() != 1 {
		t.Fatalf("expected one clone, got %d", cloner.callCount())
	}
	if cloner.calls[0] != "https://github.com/owner/repo.git" {
		t.Errorf("cloned %q, want original url", cloner.calls[0])
	}
}

func TestIngestRemoteInvalid(t *testing.T) {
	ing := ingest.New(testConfig(t), okRunner(), &fakeCloner{})

	res := ing.Ingest(context.Background(), "https://github.com/ownemissing", "")
	if res.Success {
		t.Fatal("expected failure for malformed remote ref")
	}
	if res.ErrorType != models.ErrRefInvalid {
		t.Errorf("expected ref_invalid, got %s", res.ErrorType)
	}
}

func TestIngestStaleIndexInvalidation(t *testing.T) {
	cfg := testConfig(t)

	// A complete index for "repo" exists before ingestion.
	idxDir := filepath.Join(cfg.IndexesDir, "repo")
	if err := os.MkdirAll(idxDir, 0755); err != nil {
		t.Fatalf("creating index dir: %v", err)
	}
	for _, name := range []string{"repo.index", "chunks.json", "graph.pkl"} {
		if err := os.WriteFile(filepath.Join(idxDir, name), []byte("stale"), 0644); err != nil {
			t.Fatalf("writing artifact: %v", err)
		}
	}

	runner := okRunner()
	runner.onRun = func(gitingest.Request) {
		// By the time the tool runs, the stale index must be gone.
		if _, err := os.Stat(idxDir); !os.IsNotExist(err) {
			t.Error("stale index still present when tool ran")
		}
	}

	ing := ingest.New(cfg, runner, &fakeCloner{})
	res := ing.Ingest(context.Background(), "https://github.com/owner/repo", "")
	if !res.Success {
		t.Fatalf("expected success, got %q", res.Error)
	}
	if runner.callCount() != 1 {
		t.Fatal("tool did not run")
	}
}

func TestIngestIncompleteIndexKept(t *testing.T) {
	cfg := testConfig(t)

	// Only two of three artifacts: not a complete index, so no invalidation.
	idxDir := filepath.Join(cfg.IndexesDir, "repo")
	if err := os.MkdirAll(idxDir, 0755); err != nil {
		t.Fatalf("creating index dir: %v", err)
	}
	for _, name := range []string{"repo.index", "chunks.json"} {
		if err := os.WriteFile(filepath.Join(idxDir, name), []byte("x"), 0644); err != nil {
			t.Fatalf("writing artifact: %v", err)
		}
	}

	ing := ingest.New(cfg, okRunner(), &fakeCloner{})
	if res := ing.Ingest(context.Background(), "https://github.com/owner/repo", ""); !res.Success {
		t.Fatalf("expected success, got %q", res.Error)
	}

	if _, err := os.Stat(idxDir); err != nil {
		t.Error("incomplete index was deleted")
	}
}

func TestIngestToolFailure(t *testing.T) {
	runner := &fakeRunner{res: gitingest.RunResult{
		Stderr:    "auth failed",
		ErrorType: models.ErrToolFailed,
	}}
	cloner := &fakeCloner{}
	ing := ingest.New(testConfig(t), runner, cloner)

	res := ing.Ingest(context.Background(), "https://github.com/owner/repo", "")

	if res.Success {
		t.Fatal("expected failure")
	}
	if res.Error != "auth failed" {
		t.Errorf("expected tool stderr echoed, got %q", res.Error)
	}
	if res.OutputFile != "" {
		t.Errorf("expected no output file on failure, got %q", res.OutputFile)
	}
	// No clone after a failed ingestion.
	if cloner.callCount() != 0 {
		t.Error("clone attempted after tool failure")
	}
}

func TestIngestCloneFailureNonFatal(t *testing.T) {
	cloner := &fakeCloner{err: errors.New("git clone failed: network down")}
	ing := ingest.New(testConfig(t), okRunner(), cloner)

	res := ing.Ingest(context.Background(), "https://github.com/owner/repo", "")

	if !res.Success {
		t.Fatalf("clone failure must not fail the ingestion, got %q", res.Error)
	}
	if res.LocalRepo != nil {
		t.Errorf("expected nil local_repo after clone failure, got %q", *res.LocalRepo)
	}
}

func TestIngestCloneDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Clone = false
	cloner := &fakeCloner{}
	ing := ingest.New(cfg, okRunner(), cloner)

	res := ing.Ingest(context.Background(), "https://github.com/owner/repo", "")
	if !res.Success {
		t.Fatalf("expected success, got %q", res.Error)
	}
	if cloner.callCount() != 0 {
		t.Error("clone attempted with cloning disabled")
	}
	if res.LocalRepo != nil {
		t.Error("expected nil local_repo with cloning disabled")
	}
}

func TestIngestRemoteAuthPlumbing(t *testing.T) {
	runner := okRunner()
	ing := ingest.New(testConfig(t), runner, &fakeCloner{})

	res := ing.Ingest(context.Background(), "https://github.com/owner/repo", "tok")
	if !res.Success {
		t.Fatalf("expected success, got %q", res.Error)
	}

	req := runner.calls[0]
	if !req.RemoteAuth {
		t.Error("expected credential enabled for remote input")
	}
	if req.Token != "tok" {
		t.Errorf("token = %q, want tok", req.Token)
	}
}

func TestIngestPreflight(t *testing.T) {
	var calls int
	ing := ingest.New(testConfig(t), okRunner(), &fakeCloner{}).
		WithPreflight(func(context.Context, string) { calls++ })

	// Remote with token: preflight runs.
	ing.Ingest(context.Background(), "https://github.com/owner/repo", "tok")
	if calls != 1 {
		t.Errorf("expected one preflight call, got %d", calls)
	}

	// Remote without token: no preflight.
	ing.Ingest(context.Background(), "https://github.com/owner/repo", "")
	if calls != 1 {
		t.Errorf("preflight ran without a token: %d calls", calls)
	}

	// Local input: no preflight even with a token.
	ing.Ingest(context.Background(), t.TempDir(), "tok")
	if calls != 1 {
		t.Errorf("preflight ran for local input: %d calls", calls)
	}
}

func TestIngestConfigTokenFallback(t *testing.T) {
	cfg := testConfig(t)
	cfg.GitHubToken = "cfg-tok"
	runner := okRunner()
	ing := ingest.New(cfg, runner, &fakeCloner{})

	if res := ing.Ingest(context.Background(), "https://github.com/owner/repo", ""); !res.Success {
		t.Fatalf("expected success, got %q", res.Error)
	}
	if runner.calls[0].Token != "cfg-tok" {
		t.Errorf("expected config token, got %q", runner.calls[0].Token)
	}
}
