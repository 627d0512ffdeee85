package domain

import "context"

// BackendConfig carries provider credentials and tunables resolved from
// application configuration. Adapters never read the environment.
type BackendConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	GroupID string
}

// Backend is the capability-neutral root of the adapter contract.
// Concrete adapters implement exactly one of the two shapes below.
type Backend interface {
	Provider() string
}

// ImmediateBackend yields the final artifact in a single call; there is
// no intermediate state.
type ImmediateBackend interface {
	Backend
	Submit(ctx context.Context, input SubmitInput) (*Artifact, error)
}

// PollBackend accepts a job and requires repeated status checks until a
// terminal state is reached.
type PollBackend interface {
	Backend
	Submit(ctx context.Context, input SubmitInput) (*JobHandle, error)
	CheckStatus(ctx context.Context, handle *JobHandle) (*StatusResult, error)
}

// BackendFactory builds an adapter for one provider.
type BackendFactory interface {
	Provider() string
	NewBackend(cfg BackendConfig) (Backend, error)
}

// Service drives a credit-gated generation to its terminal state.
type Service interface {
	Generate(ctx context.Context, req Request) (*Result, error)
}
