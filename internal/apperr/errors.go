package apperr

import "errors"

// ErrInvalidInput is returned when a version string or a configured value fails validation.
// Use errors.Is(err, apperr.ErrInvalidInput) to detect validation failures uniformly.
var ErrInvalidInput = errors.New("invalid input")

// ErrDownloadFailed is returned when a release artifact could not be downloaded
// after all retry attempts were exhausted.
var ErrDownloadFailed = errors.New("download failed")

// ErrEntryNotFound is returned when a required entry is missing from a downloaded archive.
var ErrEntryNotFound = errors.New("archive entry not found")

// ErrMalformedMetadata is returned when a manifest or binary module does not have
// the structure needed to read its commit.
var ErrMalformedMetadata = errors.New("malformed metadata")

// ErrAttributeNotFound is returned when a binary module carries no informational
// version attribute.
var ErrAttributeNotFound = errors.New("informational version attribute not found")
