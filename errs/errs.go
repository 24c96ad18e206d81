// Package errs defines the four observable error kinds shared by every
// component of treegen: SchemaError, NotWellFormed, CodecError and Missing.
// None of them are caught internally; they propagate to the caller, per
// the error handling design in the generator's specification.
package errs

import "fmt"

// SchemaError reports a schema parse failure, an unresolved reference, a
// duplicate node or directive, or a mismatched edge/type encountered while
// reading a serialized payload.
type SchemaError struct {
	File string
	Line int
	Msg  string
}

func (e *SchemaError) Error() string {
	if e.File == "" {
		return "schema error: " + e.Msg
	}
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: schema error: %s", e.File, e.Line, e.Msg)
	}
	return fmt.Sprintf("%s: schema error: %s", e.File, e.Msg)
}

// NewSchemaError builds a SchemaError with a formatted message.
func NewSchemaError(file string, line int, format string, args ...any) error {
	return &SchemaError{File: file, Line: line, Msg: fmt.Sprintf(format, args...)}
}

// NotWellFormed reports a uniqueness, required-edge, list-non-empty,
// link-reachability, or error-marker violation found while validating a
// tree.
type NotWellFormed struct {
	Msg string
}

func (e *NotWellFormed) Error() string {
	return "not well-formed: " + e.Msg
}

// NewNotWellFormed builds a NotWellFormed with a formatted message.
func NewNotWellFormed(format string, args ...any) error {
	return &NotWellFormed{Msg: fmt.Sprintf(format, args...)}
}

// CodecError reports malformed CBOR, an unsupported CBOR feature (half or
// single precision float, undefined, integers out of signed-64 range), or a
// write to a shadowed Writer handle.
type CodecError struct {
	Offset int
	Msg    string
}

func (e *CodecError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("cbor: at offset %d: %s", e.Offset, e.Msg)
	}
	return "cbor: " + e.Msg
}

// NewCodecError builds a CodecError with a formatted message and no known
// offset.
func NewCodecError(format string, args ...any) error {
	return &CodecError{Offset: -1, Msg: fmt.Sprintf(format, args...)}
}

// NewCodecErrorAt builds a CodecError with a formatted message at a known
// byte offset.
func NewCodecErrorAt(offset int, format string, args ...any) error {
	return &CodecError{Offset: offset, Msg: fmt.Sprintf(format, args...)}
}

// Missing reports a failed annotation lookup by type identity.
type Missing struct {
	Msg string
}

func (e *Missing) Error() string {
	return "missing: " + e.Msg
}

// NewMissing builds a Missing with a formatted message.
func NewMissing(format string, args ...any) error {
	return &Missing{Msg: fmt.Sprintf(format, args...)}
}
