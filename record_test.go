// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package har

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"
)

func TestRecordRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
	}{
		{"empty", []byte{}},
		{"short", []byte("hello")},
		{"binary", []byte{0x00, 0xff, 0x10, 0x20, 0x30}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := NewRecordWriter(&buf).WriteRecord(tt.payload); err != nil {
				t.Fatalf("WriteRecord() failed, reason: %v", err)
			}

			got, err := NewRecordReader(&buf).ReadRecord()
			if err != nil {
				t.Fatalf("ReadRecord() failed, reason: %v", err)
			}
			if !bytes.Equal(got, tt.payload) {
				t.Errorf("ReadRecord() got %v, want %v", got, tt.payload)
			}
		})
	}
}

func TestRecordReaderCleanEOF(t *testing.T) {
	rr := NewRecordReader(bytes.NewReader(nil))
	_, err := rr.ReadRecord()
	if err != io.EOF {
		t.Errorf("ReadRecord() on empty stream got %v, want io.EOF", err)
	}
}

func TestRecordReaderLengthMismatch(t *testing.T) {
	var buf bytes.Buffer
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], 3)
	buf.Write(lenBuf[:])
	buf.WriteString("abc")
	binary.LittleEndian.PutUint32(lenBuf[:], 4)
	buf.Write(lenBuf[:])

	_, err := NewRecordReader(&buf).ReadRecord()
	if kind, ok := KindOf(err); !ok || kind != LengthMismatch {
		t.Errorf("ReadRecord() got kind %v (ok=%v), want LengthMismatch", kind, ok)
	}
}

func TestRecordReaderTruncated(t *testing.T) {
	var buf bytes.Buffer
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], 10)
	buf.Write(lenBuf[:])
	buf.WriteString("short")

	_, err := NewRecordReader(&buf).ReadRecord()
	if kind, ok := KindOf(err); !ok || kind != UnexpectedEOF {
		t.Errorf("ReadRecord() got kind %v (ok=%v), want UnexpectedEOF", kind, ok)
	}
}
