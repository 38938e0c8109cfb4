package sieve

import "github.com/pkg/errors"

var (
	// ErrDataFormat marks a malformed input record. Readers recover from it locally by
	// skipping the record and counting it.
	ErrDataFormat = errors.New("malformed input")
	// ErrConfiguration is returned for missing files, missing indices, or invalid settings.
	ErrConfiguration = errors.New("invalid configuration")
	// ErrIndexNotFound is returned when searching an index that has not been created.
	ErrIndexNotFound = errors.WithMessage(ErrConfiguration, "index not found")
	// ErrBackendUnavailable is returned when the search backend or scorer cannot be reached.
	ErrBackendUnavailable = errors.New("backend unavailable")
	// ErrNoValidData is returned when nothing usable remains after skipping malformed records.
	ErrNoValidData = errors.New("no valid data")
)
