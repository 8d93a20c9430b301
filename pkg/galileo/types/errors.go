package types

import "github.com/cockroachdb/errors"

// Sentinel errors for the pinned external collaborators (§6/§7). Handlers
// test against these with errors.Is; the concrete FSError/PartitionError
// wrap one of these plus a cause and a stack trace.
var (
	ErrFileSystem         = errors.New("galileo: file-system layer failure")
	ErrIO                 = errors.New("galileo: transport i/o failure")
	ErrPartitionExhausted = errors.New("galileo: partitioner could not locate a node")
	ErrUnknownQueryID     = errors.New("galileo: unknown query id")
	ErrUnsupportedVersion = errors.New("galileo: unsupported protocol version")
	ErrWriteQueueClosed   = errors.New("galileo: write queue closed")
)

// FSError wraps a failure raised by the FS collaborator (§6's
// FileSystemException/IOException).
type FSError struct {
	Op    string
	cause error
}

func NewFSError(op string, cause error) *FSError {
	return &FSError{Op: op, cause: errors.Wrap(cause, op)}
}

func (e *FSError) Error() string { return e.cause.Error() }
func (e *FSError) Unwrap() error { return e.cause }

// PartitionError wraps a failure raised by the Partitioner collaborator
// (§6's PartitionException).
type PartitionError struct {
	Metadata Metadata
	cause    error
}

func NewPartitionError(metadata Metadata, cause error) *PartitionError {
	return &PartitionError{Metadata: metadata, cause: errors.Wrap(cause, "locate")}
}

func (e *PartitionError) Error() string { return e.cause.Error() }
func (e *PartitionError) Unwrap() error { return e.cause }
