// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package har

import (
	"bytes"
	"io"
	"testing"
)

func realArrayFixture() *HeaderArray {
	com := Set{Name: "COM", Labels: []string{"AGR", "MFG"}}
	reg := Set{Name: "REG", Labels: []string{"USA", "ROW"}}
	dict := NewIndexedDict[float32]([]Set{com, reg})
	dict.Put(KeySequence{"AGR", "USA"}, 1.5)
	dict.Put(KeySequence{"MFG", "ROW"}, -2.25)
	return newRealArray("TAX1", "TAX1", "a tax rate", []int{2, 2}, []Set{com, reg}, dict, false)
}

func TestHARRoundTrip(t *testing.T) {
	original := &HeaderArrayFile{}
	if err := original.Add(realArrayFixture()); err != nil {
		t.Fatalf("Add() failed, reason: %v", err)
	}

	var buf bytes.Buffer
	if err := Write(&buf, original, nil); err != nil {
		t.Fatalf("Write() failed, reason: %v", err)
	}

	got, err := ReadBytes(buf.Bytes(), nil)
	if err != nil {
		t.Fatalf("ReadBytes() failed, reason: %v", err)
	}
	if len(got.Headers) != 1 {
		t.Fatalf("ReadBytes() got %d headers, want 1", len(got.Headers))
	}

	h := got.Headers[0]
	if h.Header != "TAX1" {
		t.Errorf("Header got %q, want %q", h.Header, "TAX1")
	}
	sub, err := h.Reals.GetByPrefix([]string{"MFG"})
	if err != nil {
		t.Fatalf("GetByPrefix(MFG) failed, reason: %v", err)
	}
	entries := sub.Entries()
	if len(entries) != 1 || entries[0].Value != -2.25 {
		t.Errorf("GetByPrefix(MFG) got %+v, want one entry of -2.25", entries)
	}
	if got := h.Reals.Total(); got != 4 {
		t.Errorf("Total() got %d, want 4", got)
	}
	if got := h.Reals.Count(); got != 2 {
		t.Errorf("Count() got %d, want 2", got)
	}
}

// TestEmptyMarkerHeader covers §8 scenario 2.
func TestEmptyMarkerHeader(t *testing.T) {
	dict := NewIndexedDict[float32](nil)
	marker := newRealArray("MARK", "MARK", "marker header", nil, nil, dict, false)

	original := &HeaderArrayFile{}
	if err := original.Add(marker); err != nil {
		t.Fatalf("Add() failed, reason: %v", err)
	}

	var buf bytes.Buffer
	if err := Write(&buf, original, nil); err != nil {
		t.Fatalf("Write() failed, reason: %v", err)
	}
	got, err := ReadBytes(buf.Bytes(), nil)
	if err != nil {
		t.Fatalf("ReadBytes() failed, reason: %v", err)
	}
	if len(got.Headers) != 1 {
		t.Fatalf("ReadBytes() got %d headers, want 1", len(got.Headers))
	}
	if got.Headers[0].Reals.Count() != 0 {
		t.Errorf("Count() got %d, want 0", got.Headers[0].Reals.Count())
	}
}

func TestHARMultipleHeadersStreaming(t *testing.T) {
	com := Set{Name: "COM", Labels: []string{"AGR", "MFG"}}
	first := newRealArray("AAAA", "AAAA", "first", []int{2}, []Set{com}, NewIndexedDict[float32]([]Set{com}), false)
	strDict := NewIndexedDict[string]([]Set{com})
	strDict.Put(KeySequence{"AGR"}, "agriculture")
	strDict.Put(KeySequence{"MFG"}, "manufacturing")
	second := newStringArray("BBBB", "BBBB", "second", []int{2}, []Set{com}, strDict)

	original := &HeaderArrayFile{}
	_ = original.Add(first)
	_ = original.Add(second)

	var buf bytes.Buffer
	if err := Write(&buf, original, nil); err != nil {
		t.Fatalf("Write() failed, reason: %v", err)
	}

	rd := NewReader(&buf, nil)
	var codes []string
	for {
		h, err := rd.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next() failed, reason: %v", err)
		}
		codes = append(codes, h.Header)
	}
	if len(codes) != 2 || codes[0] != "AAAA" || codes[1] != "BBBB" {
		t.Errorf("streamed headers got %v, want [AAAA BBBB]", codes)
	}
}

func TestHeaderArrayFileDuplicateRejected(t *testing.T) {
	file := &HeaderArrayFile{}
	if err := file.Add(realArrayFixture()); err != nil {
		t.Fatalf("Add() failed, reason: %v", err)
	}
	err := file.Add(realArrayFixture())
	if kind, ok := KindOf(err); !ok || kind != MalformedRecord {
		t.Errorf("Add() duplicate got kind %v (ok=%v), want MalformedRecord", kind, ok)
	}
}

func TestHeaderArrayFileLookup(t *testing.T) {
	file := &HeaderArrayFile{}
	_ = file.Add(realArrayFixture())
	h, ok := file.Lookup("TAX1")
	if !ok || h.Header != "TAX1" {
		t.Errorf("Lookup(TAX1) got (%v, %v), want a hit", h, ok)
	}
	if _, ok := file.Lookup("ZZZZ"); ok {
		t.Errorf("Lookup(ZZZZ) got a hit, want none")
	}
}
