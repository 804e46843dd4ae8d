package model

import "errors"

// Sentinel errors surfaced unchanged to the request layer. Extraction
// failures are the only locally-recovered class; everything below
// propagates to the caller, which decides whether to retry.
var (
	// ErrSessionNotFound means the session id is unknown.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSectionNotFound means the section id is not part of the analysis.
	ErrSectionNotFound = errors.New("section not found")
	// ErrNoFiles means an upload batch contained no files.
	ErrNoFiles = errors.New("no files uploaded")
	// ErrMissingSubject means the subject name was blank.
	ErrMissingSubject = errors.New("subject name is required")
)
