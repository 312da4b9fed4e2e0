package core

import "errors"

var (
	// ErrClassificationAmbiguous is recovered inside the classifier and never
	// reaches a caller.
	ErrClassificationAmbiguous = errors.New("classification ambiguous")
	ErrExtractionIncomplete    = errors.New("extraction incomplete")
	ErrRetrievalUnavailable    = errors.New("retrieval unavailable")
	ErrGenerationFailure       = errors.New("generation failed")
	// ErrCrossTenantScope means the index returned a document outside the
	// query scope. It is an invariant breach, not a user error.
	ErrCrossTenantScope     = errors.New("document outside query scope")
	ErrNotFound             = errors.New("not found")
	ErrInvalidSchedule      = errors.New("invalid schedule")
	ErrDirectoryUnavailable = errors.New("directory unavailable")
)
