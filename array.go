// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package har

import "fmt"

// ArrayType is the 4-character on-disk type code identifying how a header's
// payload is encoded.
type ArrayType string

// The type codes recognised on read; RE is always emitted on write for
// labelled reals (RL is read-only, §4.B).
const (
	TypeString         ArrayType = "1C"
	TypeReal           ArrayType = "RE"
	TypeReal2D         ArrayType = "2R"
	TypeInt2D          ArrayType = "2I"
	TypeRealUnlabelled ArrayType = "RL"
)

// Storage subcodes for an RE header's value records.
type Storage string

const (
	StorageFull   Storage = "FULL"
	StorageSparse Storage = "SPSE"
)

// HeaderArray is one immutable, named array record from a HAR file. Exactly
// one of Strings/Reals/Real2D/Int2D is populated, selected by Type — the Go
// rendition of the tagged variant the design notes call for (§9). Callers
// that know the expected Type access the matching field directly; callers
// that don't should switch on Type first.
type HeaderArray struct {
	Header      string // 4 ASCII chars, unique within a file
	Coefficient string // <=12 chars, often equal to Header
	Description string // <=70 chars
	Type        ArrayType
	Dimensions  []int
	Sets        []Set

	Strings *IndexedDict[string]  // populated iff Type == TypeString
	Reals   *IndexedDict[float32] // populated iff Type == TypeReal or TypeRealUnlabelled
	Real2D  *Dense2D[float32]     // populated iff Type == TypeReal2D
	Int2D   *Dense2D[int32]       // populated iff Type == TypeInt2D
}

// ElementCount returns the logical element count: the product of Dimensions,
// or 0 for a marker header (§4.B zero-dimension corner case).
func (h *HeaderArray) ElementCount() int {
	if len(h.Dimensions) == 0 {
		return 0
	}
	n := 1
	for _, d := range h.Dimensions {
		n *= d
	}
	return n
}

// WithHeader returns a copy of h carrying a new 4-character header code;
// all entries are unchanged. Arrays are never mutated in place (§3
// Lifecycle) — this is how a caller "renames" one.
func (h *HeaderArray) WithHeader(code string) (*HeaderArray, error) {
	if len(code) != 4 {
		return nil, newErr(MalformedRecord, code, -1, -1, fmt.Errorf("header code must be 4 characters, got %q", code))
	}
	cp := *h
	cp.Header = code
	return &cp, nil
}

// newStringArray builds a 1C header array from a fully-populated dictionary.
func newStringArray(header, coeff, desc string, dims []int, sets []Set, entries *IndexedDict[string]) *HeaderArray {
	return &HeaderArray{
		Header: header, Coefficient: coeff, Description: desc,
		Type: TypeString, Dimensions: dims, Sets: sets, Strings: entries,
	}
}

// newRealArray builds an RE (or RL-read) header array.
func newRealArray(header, coeff, desc string, dims []int, sets []Set, entries *IndexedDict[float32], unlabelled bool) *HeaderArray {
	typ := TypeReal
	if unlabelled {
		typ = TypeRealUnlabelled
	}
	return &HeaderArray{
		Header: header, Coefficient: coeff, Description: desc,
		Type: typ, Dimensions: dims, Sets: sets, Reals: entries,
	}
}

// newReal2DArray builds a 2R header array.
func newReal2DArray(header, coeff, desc string, dims []int, data *Dense2D[float32]) *HeaderArray {
	return &HeaderArray{
		Header: header, Coefficient: coeff, Description: desc,
		Type: TypeReal2D, Dimensions: dims, Real2D: data,
	}
}

// newInt2DArray builds a 2I header array.
func newInt2DArray(header, coeff, desc string, dims []int, data *Dense2D[int32]) *HeaderArray {
	return &HeaderArray{
		Header: header, Coefficient: coeff, Description: desc,
		Type: TypeInt2D, Dimensions: dims, Int2D: data,
	}
}
