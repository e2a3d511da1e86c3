// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package har

import "testing"

func TestKeySequenceCaseFolding(t *testing.T) {
	tests := []struct {
		a, b KeySequence
		want bool
	}{
		{KeySequence{"AGR", "USA"}, KeySequence{"agr", "usa"}, true},
		{KeySequence{"Mfg"}, KeySequence{"MFG"}, true},
		{KeySequence{"AGR"}, KeySequence{"MFG"}, false},
		{KeySequence{"AGR", "USA"}, KeySequence{"AGR"}, false},
	}
	for _, tt := range tests {
		if got := tt.a.Equal(tt.b); got != tt.want {
			t.Errorf("%v.Equal(%v) got %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestIndexedDictScenario1(t *testing.T) {
	com := Set{Name: "COM", Labels: []string{"AGR", "MFG"}}
	reg := Set{Name: "REG", Labels: []string{"USA", "ROW"}}
	dict := NewIndexedDict[float32]([]Set{com, reg})
	dict.Put(KeySequence{"AGR", "USA"}, 1.5)
	dict.Put(KeySequence{"MFG", "ROW"}, -2.25)

	if got := dict.Total(); got != 4 {
		t.Errorf("Total() got %d, want 4", got)
	}
	if got := dict.Count(); got != 2 {
		t.Errorf("Count() got %d, want 2", got)
	}

	sub, err := dict.GetByPrefix([]string{"MFG"})
	if err != nil {
		t.Fatalf("GetByPrefix(MFG) failed, reason: %v", err)
	}
	entries := sub.Entries()
	if len(entries) != 1 || !entries[0].Key.Equal(KeySequence{"ROW"}) || entries[0].Value != -2.25 {
		t.Errorf("GetByPrefix(MFG) got %+v, want [{ROW -2.25}]", entries)
	}
}

func TestIndexedDictPrefixNotFound(t *testing.T) {
	com := Set{Name: "COM", Labels: []string{"AGR", "MFG"}}
	dict := NewIndexedDict[float32]([]Set{com})
	_, err := dict.GetByPrefix([]string{"OIL"})
	if kind, ok := KindOf(err); !ok || kind != KeyNotFound {
		t.Errorf("GetByPrefix(OIL) got kind %v (ok=%v), want KeyNotFound", kind, ok)
	}
}

func TestIndexedDictZeroFill(t *testing.T) {
	com := Set{Name: "COM", Labels: []string{"AGR", "MFG", "OIL"}}
	dict := NewIndexedDict[float32]([]Set{com})
	dict.Put(KeySequence{"MFG"}, 7)

	count := 0
	var zeros int
	dict.Enumerate(func(key KeySequence, val float32) bool {
		count++
		if val == 0 {
			zeros++
		}
		return true
	})
	if count != 3 {
		t.Errorf("Enumerate() visited %d keys, want 3", count)
	}
	if zeros != 2 {
		t.Errorf("Enumerate() found %d zero entries, want 2", zeros)
	}
}

func TestSetIndexOfCaseInsensitive(t *testing.T) {
	s := Set{Name: "REG", Labels: []string{"USA", "ROW"}}
	idx, ok := s.IndexOf("usa")
	if !ok || idx != 0 {
		t.Errorf("IndexOf(usa) got (%d, %v), want (0, true)", idx, ok)
	}
}

func TestDense2D(t *testing.T) {
	m := NewDense2D[int32](2, 3)
	m.Set(1, 2, 42)
	if got := m.At(1, 2); got != 42 {
		t.Errorf("At(1,2) got %d, want 42", got)
	}
	if got := m.At(0, 0); got != 0 {
		t.Errorf("At(0,0) got %d, want 0", got)
	}
}
