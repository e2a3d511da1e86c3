// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package har

import (
	"encoding/binary"
	"errors"
	"io"
)

// RecordReader frames a HAR/SL4 byte stream into records: a little-endian
// 32-bit length prefix, the payload, and a trailing length that must match
// the prefix. It performs no interpretation of the payload bytes.
type RecordReader struct {
	r      io.Reader
	offset int64
}

// NewRecordReader wraps r for record-at-a-time reads.
func NewRecordReader(r io.Reader) *RecordReader {
	return &RecordReader{r: r}
}

// Offset returns the number of bytes consumed from the underlying stream so far.
func (rr *RecordReader) Offset() int64 { return rr.offset }

// ReadRecord reads one framed record and returns its payload. It returns
// io.EOF (unwrapped) only when the stream ends cleanly before any byte of a
// new record has been read; any truncation inside a record surfaces as
// UnexpectedEOF, and a prefix/trailer mismatch surfaces as LengthMismatch.
func (rr *RecordReader) ReadRecord() ([]byte, error) {
	var lenBuf [4]byte
	n, err := io.ReadFull(rr.r, lenBuf[:])
	if err != nil {
		if errors.Is(err, io.EOF) && n == 0 {
			return nil, io.EOF
		}
		return nil, newErr(UnexpectedEOF, "", -1, rr.offset, err)
	}
	rr.offset += int64(n)

	length := binary.LittleEndian.Uint32(lenBuf[:])
	payload := make([]byte, length)
	n, err = io.ReadFull(rr.r, payload)
	rr.offset += int64(n)
	if err != nil {
		return nil, newErr(UnexpectedEOF, "", -1, rr.offset, err)
	}

	var trailerBuf [4]byte
	n, err = io.ReadFull(rr.r, trailerBuf[:])
	rr.offset += int64(n)
	if err != nil {
		return nil, newErr(UnexpectedEOF, "", -1, rr.offset, err)
	}
	trailer := binary.LittleEndian.Uint32(trailerBuf[:])
	if trailer != length {
		return nil, newErr(LengthMismatch, "", -1, rr.offset, ErrLengthMismatch)
	}

	return payload, nil
}

// RecordWriter emits framed records to an underlying stream.
type RecordWriter struct {
	w      io.Writer
	offset int64
}

// NewRecordWriter wraps w for record-at-a-time writes.
func NewRecordWriter(w io.Writer) *RecordWriter {
	return &RecordWriter{w: w}
}

// WriteRecord emits prefix+payload+trailer. A write failure midway leaves
// the underlying writer at whatever partial state it reported; the writer's
// error is wrapped in an *Error of kind IoFailure, so errors.Unwrap yields
// the true cause.
func (rw *RecordWriter) WriteRecord(payload []byte) error {
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(payload)))

	if _, err := rw.w.Write(lenBuf[:]); err != nil {
		return newErr(IoFailure, "", -1, rw.offset, err)
	}
	rw.offset += 4

	if _, err := rw.w.Write(payload); err != nil {
		return newErr(IoFailure, "", -1, rw.offset, err)
	}
	rw.offset += int64(len(payload))

	if _, err := rw.w.Write(lenBuf[:]); err != nil {
		return newErr(IoFailure, "", -1, rw.offset, err)
	}
	rw.offset += 4

	return nil
}
