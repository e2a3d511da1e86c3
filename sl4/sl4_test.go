// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package sl4

import (
	"testing"

	"github.com/saferwall/har"
)

func stringHeader(code string, values []string) *har.HeaderArray {
	set := har.Set{Name: "SYN0", Labels: positionalLabels(len(values))}
	dict := har.NewIndexedDict[string]([]har.Set{set})
	for i, v := range values {
		dict.Put(har.KeySequence{set.Labels[i]}, v)
	}
	return &har.HeaderArray{
		Header: code, Coefficient: code, Type: har.TypeString,
		Dimensions: []int{len(values)}, Sets: []har.Set{set}, Strings: dict,
	}
}

func intHeader(code string, values []int32) *har.HeaderArray {
	data := har.NewDense2D[int32](1, len(values))
	for i, v := range values {
		data.Set(0, i, v)
	}
	return &har.HeaderArray{
		Header: code, Coefficient: code, Type: har.TypeInt2D,
		Dimensions: []int{1, len(values)}, Int2D: data,
	}
}

func realHeader(code string, values []float32) *har.HeaderArray {
	data := har.NewDense2D[float32](1, len(values))
	for i, v := range values {
		data.Set(0, i, v)
	}
	return &har.HeaderArray{
		Header: code, Coefficient: code, Type: har.TypeReal2D,
		Dimensions: []int{1, len(values)}, Real2D: data,
	}
}

func positionalLabels(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = string(rune('a' + i))
	}
	return out
}

// fixture builds a minimal single-variable solution file. The variable
// "TAX1" ranges over a 3-element set PROD={P1,P2,P3}.
func fixture(vct0, vcs0 string, vncp, orex, shck []int32, orel, shcl []int32, cums, shoc []float32) *har.HeaderArrayFile {
	file := &har.HeaderArrayFile{}
	add := func(h *har.HeaderArray) { _ = file.Add(h) }

	add(intHeader("VCNI", []int32{1}))
	add(stringHeader("VCNM", []string{"TAX1"}))
	add(stringHeader("VCL0", []string{"a tax rate"}))
	add(stringHeader("VCLE", []string{"price"}))
	add(stringHeader("VCT0", []string{vct0}))
	add(stringHeader("VCS0", []string{vcs0}))
	add(intHeader("VCSP", []int32{1}))
	add(intHeader("VCSN", []int32{1}))

	add(stringHeader("STNM", []string{"PROD"}))
	add(stringHeader("STLB", []string{"products"}))
	add(stringHeader("STTP", []string{"n"}))
	add(intHeader("SSZ ", []int32{3}))
	add(stringHeader("STEL", []string{"P1", "P2", "P3"}))

	// PCUM/CMND/PSHK are per-endogenous-variable tables, same length as
	// VNCP/OREX/SHCK; only index 0 (the lone variable under test, when
	// endogenous) ever points at real data.
	pcum := make([]int32, len(vncp))
	cmnd := make([]int32, len(vncp))
	pshk := make([]int32, len(vncp))
	if len(vncp) > 0 {
		if len(cums) > 0 {
			pcum[0] = 1
			cmnd[0] = int32(len(cums))
		}
		pshk[0] = 1
	}

	add(intHeader("VNCP", vncp))
	add(intHeader("PCUM", pcum))
	add(intHeader("CMND", cmnd))
	add(realHeader("CUMS", cums))
	add(intHeader("OREX", orex))
	add(intHeader("OREL", orel))
	add(intHeader("SHCK", shck))
	add(intHeader("PSHK", pshk))
	add(intHeader("SHCL", shcl))
	add(realHeader("SHOC", shoc))

	return file
}

// TestDecodeCondensedVariable reproduces the documented reconstruction
// example: a 3-element condensed variable with two condensed values and
// one exogenous (zeroed) position inserted at position 2.
func TestDecodeCondensedVariable(t *testing.T) {
	file := fixture("c", "c",
		[]int32{3}, []int32{1}, []int32{0},
		[]int32{2}, nil,
		[]float32{10.0, 20.0}, nil)

	got, err := Decode(file, nil)
	if err != nil {
		t.Fatalf("Decode() failed, reason: %v", err)
	}
	if len(got.Headers) != 1 {
		t.Fatalf("Decode() got %d headers, want 1", len(got.Headers))
	}
	h := got.Headers[0]
	want := []float32{10.0, 0.0, 20.0}
	for i, label := range []string{"P1", "P2", "P3"} {
		v, err := h.Reals.GetByPrefix([]string{label})
		if err != nil {
			t.Fatalf("GetByPrefix(%s) failed, reason: %v", label, err)
		}
		got := v.Entries()[0].Value
		if got != want[i] {
			t.Errorf("value at %s got %v, want %v", label, got, want[i])
		}
	}
}

// TestDecodeFullyExogenous reproduces the fully-exogenous scenario: every
// position is exogenous, so the reconstructed variable is all zeros
// regardless of any condensed values present.
func TestDecodeFullyExogenous(t *testing.T) {
	file := fixture("c", "b",
		[]int32{3}, []int32{3}, []int32{0},
		nil, nil,
		[]float32{10.0, 20.0}, nil)

	got, err := Decode(file, nil)
	if err != nil {
		t.Fatalf("Decode() failed, reason: %v", err)
	}
	h := got.Headers[0]
	for _, label := range []string{"P1", "P2", "P3"} {
		v, err := h.Reals.GetByPrefix([]string{label})
		if err != nil {
			t.Fatalf("GetByPrefix(%s) failed, reason: %v", label, err)
		}
		if got := v.Entries()[0].Value; got != 0 {
			t.Errorf("value at %s got %v, want 0", label, got)
		}
	}
}

func TestDecodeOmittedVariableNotEmitted(t *testing.T) {
	file := fixture("c", "o",
		nil, nil, nil,
		nil, nil,
		nil, nil)

	got, err := Decode(file, nil)
	if err != nil {
		t.Fatalf("Decode() failed, reason: %v", err)
	}
	if len(got.Headers) != 0 {
		t.Fatalf("Decode() got %d headers, want 0 (omitted variable is not endogenous)", len(got.Headers))
	}
}

func TestDecodeMissingMandatoryHeader(t *testing.T) {
	file := fixture("c", "c",
		[]int32{3}, []int32{1}, []int32{0},
		[]int32{2}, nil,
		[]float32{10.0, 20.0}, nil)

	// Drop VCNI to trigger a missing-header failure.
	pruned := &har.HeaderArrayFile{}
	for _, h := range file.Headers {
		if h.Header != "VCNI" {
			_ = pruned.Add(h)
		}
	}

	_, err := Decode(pruned, nil)
	if kind, ok := har.KindOf(err); !ok || kind != har.SchemaError {
		t.Errorf("Decode() got kind %v (ok=%v), want SchemaError", kind, ok)
	}
}

func TestDecodeInvalidEnumCode(t *testing.T) {
	file := fixture("x", "c",
		[]int32{3}, []int32{1}, []int32{0},
		[]int32{2}, nil,
		[]float32{10.0, 20.0}, nil)

	_, err := Decode(file, nil)
	if kind, ok := har.KindOf(err); !ok || kind != har.SchemaError {
		t.Errorf("Decode() got kind %v (ok=%v), want SchemaError", kind, ok)
	}
}

func TestDecodeOutOfRangeSetPointer(t *testing.T) {
	file := fixture("c", "c",
		[]int32{3}, []int32{1}, []int32{0},
		[]int32{2}, nil,
		[]float32{10.0, 20.0}, nil)
	// Point VCSN at a global set index beyond the single defined set.
	bad := &har.HeaderArrayFile{}
	for _, h := range file.Headers {
		if h.Header == "VCSN" {
			h = intHeader("VCSN", []int32{5})
		}
		_ = bad.Add(h)
	}

	_, err := Decode(bad, nil)
	if kind, ok := har.KindOf(err); !ok || kind != har.IntegrityError {
		t.Errorf("Decode() got kind %v (ok=%v), want IntegrityError", kind, ok)
	}
}

func TestDecodeParallelMatchesSequential(t *testing.T) {
	file := fixture("c", "c",
		[]int32{3}, []int32{1}, []int32{0},
		[]int32{2}, nil,
		[]float32{10.0, 20.0}, nil)

	seq, err := Decode(file, &Options{Parallel: false})
	if err != nil {
		t.Fatalf("Decode(sequential) failed, reason: %v", err)
	}
	par, err := Decode(file, &Options{Parallel: true})
	if err != nil {
		t.Fatalf("Decode(parallel) failed, reason: %v", err)
	}
	if len(seq.Headers) != len(par.Headers) {
		t.Fatalf("header count got %d (parallel) vs %d (sequential)", len(par.Headers), len(seq.Headers))
	}
	for i := range seq.Headers {
		if seq.Headers[i].Header != par.Headers[i].Header {
			t.Errorf("header[%d] got %q (parallel) vs %q (sequential)", i, par.Headers[i].Header, seq.Headers[i].Header)
		}
	}
}
