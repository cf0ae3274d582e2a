package ingest

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"repoingest/internal/models"
)

// LoadManifest reads a repos.yaml batch manifest. Empty manifests and
// duplicate refs are rejected up front so a batch never ingests the same
// repository twice concurrently.
func LoadManifest(path string) (models.BatchManifest, error) {
	var m models.BatchManifest

	data, err := os.ReadFile(path)
	if err != nil {
		return m, fmt.Errorf("reading batch manifest: %w", err)
	}
	if err := yaml.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("parsing batch manifest: %w", err)
	}

	if len(m.Repos) == 0 {
		return m, fmt.Errorf("batch manifest has no repos")
	}

	seen := make(map[string]bool, len(m.Repos))
	for i, entry := range m.Repos {
		ref := strings.TrimSpace(entry.Ref)
		if ref == "" {
			return m, fmt.Errorf("repos[%d]: ref is empty", i)
		}
		if seen[ref] {
			return m, fmt.Errorf("repos[%d]: duplicate ref %q", i, ref)
		}
		seen[ref] = true
	}

	return m, nil
}

// RunBatch ingests every entry in the manifest with at most workers
// ingestions in flight. A failing entry never aborts the batch; each repo
// gets a result in the report, in manifest order.
func (ing *Ingestor) RunBatch(ctx context.Context, m models.BatchManifest, workers int) *models.BatchReport {
	if workers <= 0 {
		workers = 1
	}

	report := &models.BatchReport{
		TotalRepos: len(m.Repos),
		StartedAt:  time.Now(),
		Outcomes:   make([]models.BatchOutcome, len(m.Repos)),
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, entry := range m.Repos {
		i, entry := i, entry
		g.Go(func() error {
			result := ing.Ingest(ctx, entry.Ref, entry.Token)
			report.Outcomes[i] = models.BatchOutcome{Ref: entry.Ref, Result: result}
			return nil
		})
	}

	// Workers never return errors; Wait only serves as the join point.
	_ = g.Wait()

	report.EndedAt = time.Now()
	report.TotalDurationSec = report.EndedAt.Sub(report.StartedAt).Seconds()
	for _, o := range report.Outcomes {
		if o.Result != nil && o.Result.Success {
			report.Succeeded++
		} else {
			report.Failed++
		}
	}

	return report
}
