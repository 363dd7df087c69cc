package costsync

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a sync failure so callers can tell transient
// platform conditions apart from configuration or data problems.
type ErrorKind string

const (
	ErrKindAuthentication ErrorKind = "authentication"
	ErrKindSessionExpired ErrorKind = "session_expired"
	ErrKindTaskCreation   ErrorKind = "task_creation"
	ErrKindExportFailed   ErrorKind = "export_failed"
	ErrKindPollingTimeout ErrorKind = "polling_timeout"
	ErrKindDownload       ErrorKind = "download"
	ErrKindParse          ErrorKind = "parse"
	ErrKindReconcile      ErrorKind = "reconcile"
	ErrKindUnknown        ErrorKind = "unknown"
)

// SyncError is the error type produced by every stage of the sync
// pipeline. Kind is stable; Message carries platform detail.
type SyncError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *SyncError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}

func newSyncError(kind ErrorKind, message string, err error) *SyncError {
	return &SyncError{Kind: kind, Message: message, Err: err}
}

// NewAuthenticationError reports a failed or refused platform login.
func NewAuthenticationError(message string, err error) *SyncError {
	return newSyncError(ErrKindAuthentication, message, err)
}

// NewSessionExpiredError reports that the platform rejected a previously
// valid session mid-pipeline.
func NewSessionExpiredError(message string) *SyncError {
	return newSyncError(ErrKindSessionExpired, message, nil)
}

// NewTaskCreationError reports that the export task could not be created.
func NewTaskCreationError(message string, err error) *SyncError {
	return newSyncError(ErrKindTaskCreation, message, err)
}

// NewExportFailedError reports a terminal export failure on the platform,
// carrying the remote reason.
func NewExportFailedError(message string) *SyncError {
	return newSyncError(ErrKindExportFailed, message, nil)
}

// NewPollingTimeoutError reports that the export task did not reach a
// terminal state within the polling window.
func NewPollingTimeoutError(message string) *SyncError {
	return newSyncError(ErrKindPollingTimeout, message, nil)
}

// NewDownloadError reports a failed or empty artifact download.
func NewDownloadError(message string, err error) *SyncError {
	return newSyncError(ErrKindDownload, message, err)
}

// NewParseError reports an artifact that could not be decoded into rows.
func NewParseError(message string, err error) *SyncError {
	return newSyncError(ErrKindParse, message, err)
}

// NewReconcileError reports a database-level failure while applying rows.
func NewReconcileError(message string, err error) *SyncError {
	return newSyncError(ErrKindReconcile, message, err)
}

// KindOf extracts the ErrorKind from err, following wrapped chains.
// Errors outside the sync taxonomy map to ErrKindUnknown.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var se *SyncError
	if errors.As(err, &se) {
		return se.Kind
	}
	return ErrKindUnknown
}

// IsSessionExpired reports whether err (or anything it wraps) is a
// session expiry rejected by the platform.
func IsSessionExpired(err error) bool {
	return KindOf(err) == ErrKindSessionExpired
}
