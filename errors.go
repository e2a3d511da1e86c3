// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package har

import (
	"errors"
	"fmt"
)

// ErrorKind classifies the fatal conditions the codec can report. Every
// decode or encode failure from a Reader, Writer, or the sl4 package
// carries one of these; the harx package reports its JSON and ZIP
// failures as plain errors.
type ErrorKind int

const (
	// IoFailure wraps an error returned by the underlying stream.
	IoFailure ErrorKind = iota
	// UnexpectedEOF is returned when a record or file is truncated.
	UnexpectedEOF
	// LengthMismatch is returned when a record's length prefix and trailer disagree.
	LengthMismatch
	// UnknownType is returned for an unrecognised 4-character type code.
	UnknownType
	// MalformedRecord is returned when a record's interior violates its expected shape.
	MalformedRecord
	// SchemaError is returned by the sl4 package for a missing mandatory header
	// or an invalid single-character enum value.
	SchemaError
	// IntegrityError is returned by the sl4 package for an out-of-range pointer
	// or a cross-array count inconsistency.
	IntegrityError
	// KeyNotFound is returned when a prefix lookup names a label that is not
	// a member of the corresponding set, or is longer than the rank.
	KeyNotFound
)

func (k ErrorKind) String() string {
	switch k {
	case IoFailure:
		return "io failure"
	case UnexpectedEOF:
		return "unexpected eof"
	case LengthMismatch:
		return "record length mismatch"
	case UnknownType:
		return "unknown type code"
	case MalformedRecord:
		return "malformed record"
	case SchemaError:
		return "schema error"
	case IntegrityError:
		return "integrity error"
	case KeyNotFound:
		return "key not found"
	default:
		return "unknown error"
	}
}

// Error is the error type surfaced by the decode and encode operations of
// this package and of sl4 (errors from opening or creating a file are
// returned as the os package reports them). It always carries enough context
// to diagnose a decode/encode failure: the byte offset where known, the
// header code involved where applicable, and an index (partition number,
// set position, entry count) where applicable.
type Error struct {
	Kind   ErrorKind
	Header string // 4-char header code, empty if not header-scoped
	Index  int    // partition/entry/pointer index, -1 if not applicable
	Offset int64  // byte offset into the stream, -1 if unknown
	Err    error  // wrapped underlying error, may be nil
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Header != "" {
		msg = fmt.Sprintf("%s: header %q", msg, e.Header)
	}
	if e.Index >= 0 {
		msg = fmt.Sprintf("%s: index %d", msg, e.Index)
	}
	if e.Offset >= 0 {
		msg = fmt.Sprintf("%s: offset %d", msg, e.Offset)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func newErr(kind ErrorKind, header string, index int, offset int64, cause error) *Error {
	return &Error{Kind: kind, Header: header, Index: index, Offset: offset, Err: cause}
}

// Sentinel errors for the common, context-free cases. The *Error values
// reported for a length mismatch and for a missing key wrap
// ErrLengthMismatch and ErrKeyNotFound, so errors.Is matches those two;
// the other sentinels are not wrapped by errors this package returns, and
// KindOf is the way to classify those failures.
var (
	ErrUnexpectedEOF   = errors.New("har: unexpected eof")
	ErrLengthMismatch  = errors.New("har: record length prefix and trailer disagree")
	ErrUnknownType     = errors.New("har: unrecognised type code")
	ErrMalformedRecord = errors.New("har: malformed record")
	ErrKeyNotFound     = errors.New("har: key not found")
)

// KindOf reports the ErrorKind carried by err, if err is (or wraps) an *Error.
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}
