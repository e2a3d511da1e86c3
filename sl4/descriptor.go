// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package sl4

import (
	"fmt"
	"sync"

	"github.com/saferwall/har"
)

// ChangeType is a solution variable's VCT0 code.
type ChangeType int

const (
	Change ChangeType = iota
	PercentChange
)

// VariableKind is a solution variable's VCS0 code.
type VariableKind int

const (
	Condensed VariableKind = iota
	Backsolved
	Omitted
	Substituted
)

// VariableDescriptor is the per-variable schema record pass 1 builds
// (§3 "Solution-variable descriptor").
type VariableDescriptor struct {
	Name          string
	Description   string
	VariableIndex int // 1-based rank among all model variables
	NumberOfSets  int
	UnitType      string
	ChangeType    ChangeType
	VariableKind  VariableKind
	Sets          []har.Set
}

// Endogenous reports whether d's values are reconstructed by pass 2
// (VariableKind Condensed or Backsolved).
func (d VariableDescriptor) Endogenous() bool {
	return d.VariableKind == Condensed || d.VariableKind == Backsolved
}

func parseChangeType(c byte, name string) (ChangeType, error) {
	switch c {
	case 'c':
		return Change, nil
	case 'p':
		return PercentChange, nil
	default:
		return 0, schemaErr("VCT0", fmt.Errorf("variable %q: invalid change-type code %q", name, c))
	}
}

func parseVariableKind(c byte, name string) (VariableKind, error) {
	switch c {
	case 'c':
		return Condensed, nil
	case 'b':
		return Backsolved, nil
	case 'o':
		return Omitted, nil
	case 's':
		return Substituted, nil
	default:
		return 0, schemaErr("VCS0", fmt.Errorf("variable %q: invalid variable-type code %q", name, c))
	}
}

// globalSetTable resolves the STNM/STTP/SSZ /STEL headers into the
// ordered list of global sets variables reference by index (§4.E
// "global set table"). STLB (the long-form set label) carries no
// field of its own in har.Set; it is validated for presence, type and
// length but not retained, since nothing downstream consumes it.
func globalSetTable(file *har.HeaderArrayFile) ([]har.Set, error) {
	names, err := stringVector(file, "STNM")
	if err != nil {
		return nil, err
	}
	labels, err := stringVector(file, "STLB")
	if err != nil {
		return nil, err
	}
	types, err := charVector(file, "STTP")
	if err != nil {
		return nil, err
	}
	sizes, err := intVector(file, "SSZ ")
	if err != nil {
		return nil, err
	}
	elements, err := stringVector(file, "STEL")
	if err != nil {
		return nil, err
	}

	if len(names) != len(labels) || len(names) != len(types) || len(names) != len(sizes) {
		return nil, integrityErr("STNM", -1, fmt.Errorf("global set table arrays disagree in length: STNM=%d STLB=%d STTP=%d SSZ =%d", len(names), len(labels), len(types), len(sizes)))
	}

	sets := make([]har.Set, len(names))
	offset := 0
	for i, name := range names {
		if types[i] != 'i' && types[i] != 'n' {
			return nil, schemaErr("STTP", fmt.Errorf("set %q: invalid set-type code %q", name, types[i]))
		}
		size := int(sizes[i])
		if size < 0 || offset+size > len(elements) {
			return nil, integrityErr("STEL", i, fmt.Errorf("set %q: element range [%d,%d) out of bounds (STEL has %d entries)", name, offset, offset+size, len(elements)))
		}
		sets[i] = har.Set{Name: name, Labels: append([]string(nil), elements[offset:offset+size]...)}
		offset += size
	}
	return sets, nil
}

// buildDescriptors runs pass 1 (§4.E): it reads the fixed schema headers
// and resolves each variable's descriptor, in sequence or in parallel
// according to opts.Parallel.
func buildDescriptors(file *har.HeaderArrayFile, opts *Options) ([]VariableDescriptor, error) {
	setsPerVariable, err := intVector(file, "VCNI")
	if err != nil {
		return nil, err
	}
	names, err := stringVector(file, "VCNM")
	if err != nil {
		return nil, err
	}
	descriptions, err := stringVector(file, "VCL0")
	if err != nil {
		return nil, err
	}
	units, err := stringVector(file, "VCLE")
	if err != nil {
		return nil, err
	}
	changeCodes, err := charVector(file, "VCT0")
	if err != nil {
		return nil, err
	}
	kindCodes, err := charVector(file, "VCS0")
	if err != nil {
		return nil, err
	}
	setPointers, err := intVector(file, "VCSP")
	if err != nil {
		return nil, err
	}
	setIndices, err := intVector(file, "VCSN")
	if err != nil {
		return nil, err
	}
	globalSets, err := globalSetTable(file)
	if err != nil {
		return nil, err
	}

	n := len(setsPerVariable)
	for name, got := range map[string]int{
		"VCNM": len(names), "VCL0": len(descriptions), "VCLE": len(units),
		"VCT0": len(changeCodes), "VCS0": len(kindCodes), "VCSP": len(setPointers),
	} {
		if got != n {
			return nil, integrityErr(name, -1, fmt.Errorf("expected %d entries (one per variable, per VCNI), got %d", n, got))
		}
	}

	out := make([]VariableDescriptor, n)
	errs := make([]error, n)

	build := func(v int) {
		out[v], errs[v] = buildOne(v, setsPerVariable, names, descriptions, units, changeCodes, kindCodes, setPointers, setIndices, globalSets)
	}

	if opts != nil && opts.Parallel {
		var wg sync.WaitGroup
		wg.Add(n)
		for v := 0; v < n; v++ {
			v := v
			go func() {
				defer wg.Done()
				build(v)
			}()
		}
		wg.Wait()
	} else {
		for v := 0; v < n; v++ {
			build(v)
		}
	}

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func buildOne(v int, setsPerVariable []int32, names, descriptions, units []string, changeCodes, kindCodes []byte, setPointers, setIndices []int32, globalSets []har.Set) (VariableDescriptor, error) {
	changeType, err := parseChangeType(changeCodes[v], names[v])
	if err != nil {
		return VariableDescriptor{}, err
	}
	kind, err := parseVariableKind(kindCodes[v], names[v])
	if err != nil {
		return VariableDescriptor{}, err
	}

	numSets := int(setsPerVariable[v])
	if numSets < 0 {
		return VariableDescriptor{}, integrityErr("VCNI", v, fmt.Errorf("variable %q: negative set count", names[v]))
	}
	start := int(setPointers[v]) - 1
	if start < 0 || start+numSets > len(setIndices) {
		return VariableDescriptor{}, integrityErr("VCSP", v, fmt.Errorf("variable %q: set pointer out of range", names[v]))
	}

	sets := make([]har.Set, numSets)
	for j := 0; j < numSets; j++ {
		gi := int(setIndices[start+j]) - 1
		if gi < 0 || gi >= len(globalSets) {
			return VariableDescriptor{}, integrityErr("VCSN", start+j, fmt.Errorf("variable %q: global set index out of range", names[v]))
		}
		sets[j] = globalSets[gi]
	}

	return VariableDescriptor{
		Name:          names[v],
		Description:   descriptions[v],
		VariableIndex: v + 1,
		NumberOfSets:  numSets,
		UnitType:      units[v],
		ChangeType:    changeType,
		VariableKind:  kind,
		Sets:          sets,
	}, nil
}
