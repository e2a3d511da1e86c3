// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package har

import "testing"

func TestMetadataRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		typ  string
		dims []int
	}{
		{"real 2d", string(TypeReal), []int{2, 3}},
		{"marker", string(TypeString), nil},
		{"unlabelled 2d", string(TypeReal2D), []int{5, 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded := encodeMetadata("TAG1", tt.typ, "FULL", "a description", tt.dims)
			got, err := decodeMetadata(encoded)
			if err != nil {
				t.Fatalf("decodeMetadata() failed, reason: %v", err)
			}
			if got.Tag != "TAG1" {
				t.Errorf("Tag got %q, want %q", got.Tag, "TAG1")
			}
			if got.Type != tt.typ {
				t.Errorf("Type got %q, want %q", got.Type, tt.typ)
			}
			if len(got.Dims) != len(tt.dims) {
				t.Fatalf("Dims got %v, want %v", got.Dims, tt.dims)
			}
			for i := range tt.dims {
				if got.Dims[i] != tt.dims[i] {
					t.Errorf("Dims[%d] got %d, want %d", i, got.Dims[i], tt.dims[i])
				}
			}
		})
	}
}

// TestPartitionLaw checks §8 "Partition law": concatenating the partition
// ranges covers the full Cartesian product exactly once with no overlap,
// and at least 3 partitions are emitted for a 5 000 000-element array
// (§8 scenario 5).
func TestPartitionLaw(t *testing.T) {
	dims := []int{5_000_000, 1}
	partitions := planPartitions(dims)
	if len(partitions) < 3 {
		t.Fatalf("planPartitions() emitted %d partitions, want at least 3", len(partitions))
	}

	total := productInts(dims)
	covered := make([]bool, total)
	for i, ph := range partitions {
		wantK := int32(len(partitions) - i)
		if ph.K != wantK {
			t.Errorf("partition %d: K got %d, want %d", i, ph.K, wantK)
		}
		for row := ph.Axes[0].Lower; row <= ph.Axes[0].Upper; row++ {
			idx := row - 1
			if covered[idx] {
				t.Fatalf("row %d covered by more than one partition", idx)
			}
			covered[idx] = true
		}
	}
	if partitions[len(partitions)-1].K != 1 {
		t.Errorf("last partition K got %d, want 1", partitions[len(partitions)-1].K)
	}
	for i, c := range covered {
		if !c {
			t.Fatalf("row %d not covered by any partition", i)
		}
	}
}

func TestScatterGatherPartitionRoundTrip(t *testing.T) {
	dims := []int{4, 3}
	full := make([]float64, 12)
	for i := range full {
		full[i] = float64(i)
	}

	for _, ph := range planPartitions(dims) {
		chunk := gatherPartition(full, dims, ph)
		dst := make([]float64, 12)
		scatterPartition(dst, dims, ph, chunk)
		for row := ph.Axes[0].Lower; row <= ph.Axes[0].Upper; row++ {
			for col := 0; col < dims[1]; col++ {
				flat := (row-1)*dims[1] + col
				if dst[flat] != full[flat] {
					t.Errorf("flat %d got %v, want %v", flat, dst[flat], full[flat])
				}
			}
		}
	}
}

func TestUnravelRavel(t *testing.T) {
	dims := []int{3, 4}
	for flat := 0; flat < 12; flat++ {
		idx := unravel(dims, flat)
		if got := ravel(dims, idx); got != flat {
			t.Errorf("ravel(unravel(%d)) got %d, want %d", flat, got, flat)
		}
	}
}
