package service

import "errors"

var (
	// ErrNotConfigured is returned when a research operation is attempted
	// before external API clients have been configured.
	ErrNotConfigured = errors.New("research clients not configured")

	// ErrJobFailed is returned when a report download is requested for a job
	// that ended in error.
	ErrJobFailed = errors.New("research was not successful")

	// ErrNoReport is returned when a completed job has no report content to
	// download.
	ErrNoReport = errors.New("no report content available")

	// ErrUnsupportedFormat is returned for download formats other than
	// markdown.
	ErrUnsupportedFormat = errors.New("unsupported download format")
)
