// Package gitingest drives the external gitingest CLI, which produces the
// flattened text representation of a repository.
//
// The boundary never returns a Go error: every fault, including timeouts and
// spawn failures, is converted into a RunResult so callers deal with a single
// outcome shape.
package gitingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"repoingest/internal/models"
)

// DefaultTimeout bounds a single ingestion-tool invocation.
const DefaultTimeout = 5 * time.Minute

// tokenEnvVar carries the credential to the tool for remote inputs.
const tokenEnvVar = "GITHUB_TOKEN"

// Request describes a single tool invocation.
type Request struct {
	// Input is the effective input: a resolved local path or the original
	// remote reference.
	Input string
	// OutputFile is where the tool writes its structured text.
	OutputFile string
	// Token is the access credential, passed via --token and the
	// environment, but only when RemoteAuth is set.
	Token string
	// RemoteAuth is true only for remote references; local paths never get
	// the credential.
	RemoteAuth bool
}

// RunResult is the outcome of a tool invocation.
type RunResult struct {
	OK        bool
	Stderr    string
	ErrorType models.ErrorType
}

// Runner abstracts the ingestion tool so the orchestrator can be tested
// without the binary installed.
type Runner interface {
	Run(ctx context.Context, req Request) RunResult
}

// ExecRunner invokes the gitingest binary as a subprocess.
type ExecRunner struct {
	// Bin is the tool binary name. Defaults to "gitingest".
	Bin string
	// Timeout is the hard per-invocation timeout. Defaults to DefaultTimeout.
	Timeout time.Duration
}

// Run executes the tool and converts any fault into the result.
func (r *ExecRunner) Run(ctx context.Context, req Request) RunResult {
	bin := r.Bin
	if bin == "" {
		bin = "gitingest"
	}
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	slog.Info("running ingestion tool", "input", req.Input, "output", req.OutputFile)

	cmd := exec.CommandContext(ctx, bin, buildArgs(req)...)
	cmd.Env = buildEnv(os.Environ(), req)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		slog.Debug("ingestion tool completed", "input", req.Input)
		return RunResult{OK: true}
	}

	return classify(ctx, err, stderr.String(), timeout)
}

// buildArgs assembles the tool command line:
// gitingest <input> --output <file> [--token <credential>]
func buildArgs(req Request) []string {
	args := []string{req.Input, "--output", req.OutputFile}
	if req.RemoteAuth && req.Token != "" {
		args = append(args, "--token", req.Token)
	}
	return args
}

// buildEnv appends the credential environment variable for remote inputs.
func buildEnv(base []string, req Request) []string {
	if req.RemoteAuth && req.Token != "" {
		return append(base, fmt.Sprintf("%s=%s", tokenEnvVar, req.Token))
	}
	return base
}

// classify converts a subprocess error into a failed RunResult.
func classify(ctx context.Context, err error, stderr string, timeout time.Duration) RunResult {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return RunResult{
			Stderr:    fmt.Sprintf("ingestion timed out after %s", timeout),
			ErrorType: models.ErrToolTimeout,
		}
	}

	detail := strings.TrimSpace(stderr)
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if detail == "" {
			detail = fmt.Sprintf("ingestion tool exited with code %d", exitErr.ExitCode())
		}
		return RunResult{Stderr: detail, ErrorType: models.ErrToolFailed}
	}

	// Spawn failure (binary missing, permission denied, ...).
	if detail == "" {
		detail = err.Error()
	}
	return RunResult{Stderr: detail, ErrorType: models.ErrToolFailed}
}
