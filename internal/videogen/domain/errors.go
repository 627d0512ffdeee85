package domain

import "errors"

var (
	// ErrNotConfigured means provider credentials are missing; raised
	// before any network call is attempted.
	ErrNotConfigured = errors.New("videogen: backend credentials not configured")

	ErrProviderNotFound = errors.New("videogen: unknown provider")

	ErrInvalidPrompt = errors.New("videogen: prompt is required")

	ErrInsufficientCredit = errors.New("videogen: insufficient credit")

	// ErrBackendTransport means we could not learn the job status;
	// retried a bounded number of times inside the poller only.
	ErrBackendTransport = errors.New("videogen: backend transport failure")

	// ErrBackendFailure means the provider explicitly reported a
	// failed job; never retried.
	ErrBackendFailure = errors.New("videogen: backend reported failure")

	// ErrPollTimeout is the synthesized terminal failure when a job
	// never reaches a terminal state within the polling ceiling. The
	// provider job is abandoned, not cancelled.
	ErrPollTimeout = errors.New("videogen: generation timed out")
)
