package models

// RefKind identifies how a repository reference was classified.
type RefKind string

const (
	// RefRemote is a hosted repository reference (HTTPS or SSH style).
	RefRemote RefKind = "remote"
	// RefLocal is a filesystem path to an existing directory.
	RefLocal RefKind = "local"
)

// RepoRef is a classified repository reference.
//
// Exactly one kind is active per reference: remote refs carry the owner and
// name parsed from the URL, local refs carry the synthetic owner "Local" and
// the final path segment as the name.
type RepoRef struct {
	Kind  RefKind
	Raw   string // original input, trimmed
	Owner string
	Name  string
	// EffectiveInput is what gets handed to the ingestion tool: the resolved
	// absolute path for local refs, the original reference for remote refs.
	EffectiveInput string
}

// Remote reports whether the reference points at a hosted repository.
func (r RepoRef) Remote() bool {
	return r.Kind == RefRemote
}

// IngestResult is the outcome of a single ingestion request.
//
// The JSON shape mirrors the HTTP response body: failures carry only the
// error message, successes carry the artifact path, the success marker in
// structured_text, and the clone path when one was made.
type IngestResult struct {
	Success    bool    `json:"success"`
	Error      string  `json:"error,omitempty"`
	RepoInput  string  `json:"repo_input"`
	OutputFile string  `json:"output_file,omitempty"`
	LocalRepo  *string `json:"local_repo"`
	Detail     string  `json:"structured_text,omitempty"`

	// ErrorType categorizes failures for logs and metrics. It is not part of
	// the response body; the error field stays a human-readable message.
	ErrorType ErrorType `json:"-"`
	// CloneError records a non-fatal clone failure for logs and metrics.
	// The response only reflects it through a null local_repo.
	CloneError string `json:"-"`
}

// SuccessDetail is the marker text attached to successful ingestions.
const SuccessDetail = "File Successfully Ingested!"

// Failure builds a failed result for the given input.
func Failure(repoInput string, errType ErrorType, msg string) *IngestResult {
	return &IngestResult{
		Success:   false,
		Error:     msg,
		RepoInput: repoInput,
		ErrorType: errType,
	}
}
