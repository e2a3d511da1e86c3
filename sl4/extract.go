// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package sl4

import (
	"fmt"

	"github.com/saferwall/har"
)

// lookup fetches a mandatory header by code, failing with SchemaError if
// it is absent (§4.E "error if any missing").
func lookup(file *har.HeaderArrayFile, code string) (*har.HeaderArray, error) {
	h, ok := file.Lookup(code)
	if !ok {
		return nil, missingHeader(code)
	}
	return h, nil
}

// intVector reads a mandatory 2I-typed header as a flat integer vector.
// SL4's per-variable pointer and count tables are stored as 2I arrays of
// shape (1, n) rather than as a dedicated 1-D integer type, since the HAR
// type system this package sits on has no such type.
func intVector(file *har.HeaderArrayFile, code string) ([]int32, error) {
	h, err := lookup(file, code)
	if err != nil {
		return nil, err
	}
	if h.Type != har.TypeInt2D || h.Int2D == nil {
		return nil, schemaErr(code, fmt.Errorf("expected a 2I array, got type %q", h.Type))
	}
	return append([]int32(nil), h.Int2D.Data...), nil
}

// realVector reads a mandatory 2R-typed header as a flat float vector.
func realVector(file *har.HeaderArrayFile, code string) ([]float32, error) {
	h, err := lookup(file, code)
	if err != nil {
		return nil, err
	}
	if h.Type != har.TypeReal2D || h.Real2D == nil {
		return nil, schemaErr(code, fmt.Errorf("expected a 2R array, got type %q", h.Type))
	}
	return append([]float32(nil), h.Real2D.Data...), nil
}

// stringVector reads a mandatory 1C-typed header as an ordered string
// vector: one string per position of its (synthetic, positional) set.
func stringVector(file *har.HeaderArrayFile, code string) ([]string, error) {
	h, err := lookup(file, code)
	if err != nil {
		return nil, err
	}
	if h.Type != har.TypeString || h.Strings == nil {
		return nil, schemaErr(code, fmt.Errorf("expected a 1C array, got type %q", h.Type))
	}
	values := make([]string, 0, h.Strings.Total())
	h.Strings.Enumerate(func(_ har.KeySequence, val string) bool {
		values = append(values, val)
		return true
	})
	return values, nil
}

// charVector reads a mandatory 1C-typed header whose entries are
// single-character enum codes, returning the raw bytes.
func charVector(file *har.HeaderArrayFile, code string) ([]byte, error) {
	values, err := stringVector(file, code)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(values))
	for i, v := range values {
		if len(v) != 1 {
			return nil, schemaErr(code, fmt.Errorf("index %d: expected a single character, got %q", i, v))
		}
		out[i] = v[0]
	}
	return out, nil
}
