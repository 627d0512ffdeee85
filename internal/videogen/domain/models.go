package domain

// Status is the lifecycle state of a generation job.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Terminal reports whether no further transitions can occur.
func (s Status) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed
}

// Request is an accepted generation request. Seed is nil when the
// caller wants one generated for them.
type Request struct {
	UserID string
	Prompt string
	Seed   *int64
}

// SubmitInput is what adapters send to their provider.
type SubmitInput struct {
	Prompt string
	Seed   int64
}

// JobHandle identifies an in-flight job at a poll-based provider.
type JobHandle struct {
	Provider  string
	ID        string
	StatusURL string
}

// StatusResult is one observation of a poll-based job.
type StatusResult struct {
	Status      Status
	ArtifactURL string
	Detail      string
}

// Artifact is the final output of a successful generation.
type Artifact struct {
	URL  string
	Seed int64
}

// Result is returned to the caller once the job reaches a terminal
// state. DebitFailed flags the narrow race where the generation
// succeeded but the credit was drained concurrently; the artifact is
// still returned because the provider work cannot be undone.
type Result struct {
	ArtifactURL      string
	Seed             int64
	RemainingBalance int64
	DebitFailed      bool
}
