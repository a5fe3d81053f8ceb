package types

import "fmt"

// Kind classifies a cache failure so callers and log lines can group
// failures without a program having to pattern-match on message text.
type Kind int

const (
	// InvalidArgument covers empty keys/values, oversized paths, and a
	// storage type that cannot serve the requested operation.
	InvalidArgument Kind = iota
	// IOFailure covers filesystem and database query/update/open/close
	// errors.
	IOFailure
	// CorruptState covers schema initialization failing against a
	// previously-working database; it triggers the one-shot
	// reset-and-retry recovery path.
	CorruptState
	// Missing covers a key absent from the manifest, or present with a
	// file that has vanished underneath it.
	Missing
)

func (k Kind) String() string {
	switch k {
	case InvalidArgument:
		return "invalid_argument"
	case IOFailure:
		return "io_failure"
	case CorruptState:
		return "corrupt_state"
	case Missing:
		return "missing"
	default:
		return "unknown"
	}
}

// Error is the internal failure representation both cache tiers use to
// attach a Kind to an underlying cause for logging. It is never returned
// from a public method; public methods surface only bool / (value, ok) /
// -1 per the contract callers rely on, and convert an *Error to a log line
// when error logging is enabled.
type Error struct {
	Kind Kind
	Op   string
	Key  string
	Err  error
}

func (e *Error) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("%s: %s (key=%q): %v", e.Op, e.Kind, e.Key, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError wraps err with a Kind and the operation/key that produced it.
func NewError(kind Kind, op, key string, err error) *Error {
	return &Error{Kind: kind, Op: op, Key: key, Err: err}
}
