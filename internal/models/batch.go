package models

import "time"

// BatchEntry is a single repository reference in a batch manifest.
type BatchEntry struct {
	Ref   string `yaml:"ref"`
	Token string `yaml:"token,omitempty"`
}

// BatchManifest is the parsed repos.yaml manifest.
type BatchManifest struct {
	Repos []BatchEntry `yaml:"repos"`
}

// BatchOutcome pairs a manifest entry with its ingestion result.
type BatchOutcome struct {
	Ref    string        `json:"ref"`
	Result *IngestResult `json:"result"`
}

// BatchReport aggregates the outcomes of a batch run.
type BatchReport struct {
	TotalRepos       int            `json:"total_repos"`
	Succeeded        int            `json:"succeeded"`
	Failed           int            `json:"failed"`
	StartedAt        time.Time      `json:"started_at"`
	EndedAt          time.Time      `json:"ended_at"`
	TotalDurationSec float64        `json:"total_duration_sec"`
	Outcomes         []BatchOutcome `json:"outcomes"`
}
