package types

import "fmt"

// UnrecognizedFormatError is returned when no supported container magic
// matches the buffer. It is not fatal to the caller's wider workflow; the
// buffer simply cannot be opened as a tag session.
type UnrecognizedFormatError struct {
	Reason string
}

func (e *UnrecognizedFormatError) Error() string {
	if e.Reason == "" {
		return "unrecognized container format"
	}
	return fmt.Sprintf("unrecognized container format: %s", e.Reason)
}

// MalformedContainerError is returned when a container's structural
// invariants are violated: truncated chunk, size field exceeding the
// remaining buffer, bad sync bytes.
type MalformedContainerError struct {
	Format Format
	Offset int64
	Reason string
}

func (e *MalformedContainerError) Error() string {
	return fmt.Sprintf("%s: malformed container at offset %d: %s", e.Format, e.Offset, e.Reason)
}

// Unwrap exposes a wrapped cause, if any parse error carried one.
func (e *MalformedContainerError) Unwrap() error { return nil }

// UnsupportedOperationError is returned when a format-specific accessor is
// invoked on a session holding a different format.
type UnsupportedOperationError struct {
	Format Format
	Op     string
}

func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("%s not supported for %s", e.Op, e.Format)
}

// SerializationError is returned when a tag value cannot be legally encoded
// in the target format.
type SerializationError struct {
	Format Format
	Reason string
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("%s: cannot serialize: %s", e.Format, e.Reason)
}

// UseAfterDisposeError is returned when any session operation is invoked
// after Close.
type UseAfterDisposeError struct {
	Op string
}

func (e *UseAfterDisposeError) Error() string {
	return fmt.Sprintf("%s called on disposed session", e.Op)
}
