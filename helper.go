// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package har

import (
	"encoding/binary"
	"math"
	"strings"
)

// MaxPartitionElements is the largest element count the Fortran-origin
// writer permits in a single numeric (or label) record; larger payloads
// must be split into consecutive partitions (§4.B "Numeric partitioning rule").
const MaxPartitionElements = 1999991

// padASCII returns s truncated or space-padded to exactly width bytes, the
// fixed-width ASCII encoding used throughout HAR/SL4 for tags, names, and
// descriptions.
func padASCII(s string, width int) []byte {
	b := make([]byte, width)
	for i := range b {
		b[i] = ' '
	}
	copy(b, s)
	if len(s) > width {
		copy(b, s[:width])
	}
	return b
}

// trimASCII strips trailing spaces, the inverse of padASCII on read.
func trimASCII(b []byte) string {
	return strings.TrimRight(string(b), " ")
}

func readI32(b []byte) int32 {
	return int32(binary.LittleEndian.Uint32(b))
}

func writeI32(b []byte, v int32) {
	binary.LittleEndian.PutUint32(b, uint32(v))
}

func readF32(b []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}

func writeF32(b []byte, v float32) {
	binary.LittleEndian.PutUint32(b, math.Float32bits(v))
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
