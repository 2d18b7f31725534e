// Package errors provides the structured error type shared by every speakline
// package. Errors carry a machine-readable code, a human-readable message,
// optional details and an underlying cause, so that a failed pipeline run can
// surface one classified, actionable error.
package errors
