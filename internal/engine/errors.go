package engine

import "fmt"

// Kind is the error taxonomy value surfaced through OperationResult. Nothing
// in the taxonomy is fatal to the process and nothing is retried internally;
// every failure is a reported result for one request.
type Kind string

const (
	// KindValidation covers bad or missing paths, incompatible
	// format+compression pairs, and malformed glob patterns.
	KindValidation Kind = "validation"

	// KindUnknownFormat reports an unarchive request whose format could not
	// be resolved from the source filename.
	KindUnknownFormat Kind = "unknown_format"

	// KindArchiveWrite reports an I/O failure while building an archive or
	// extracting members, after guaranteed temp-file cleanup.
	KindArchiveWrite Kind = "archive_write"

	// KindPathTraversal reports an archive member escaping the extraction
	// root. Extraction is aborted with nothing written for the offending
	// entry.
	KindPathTraversal Kind = "path_traversal"

	// KindSourceDeletion reports a failed source deletion after the primary
	// operation already succeeded. Callers must treat this as partial
	// success: changed=true, delete pending.
	KindSourceDeletion Kind = "source_deletion"

	// KindUpload reports a failed post-archive upload. The archive is left
	// in place and the source is not deleted.
	KindUpload Kind = "upload"
)

// OperationError ties a taxonomy kind to the underlying cause.
type OperationError struct {
	Kind Kind
	Err  error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

func opErr(kind Kind, err error) *OperationError {
	return &OperationError{Kind: kind, Err: err}
}
