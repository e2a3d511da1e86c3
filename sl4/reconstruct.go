// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package sl4

import (
	"fmt"

	"github.com/saferwall/har"
)

// reconstruct runs pass 2 (§4.E): for each endogenous variable, reassemble
// its dense array from the condensed/exogenous/shock tables and emit it
// as a new RE header array.
func reconstruct(file *har.HeaderArrayFile, descriptors []VariableDescriptor, opts *Options) (*har.HeaderArrayFile, error) {
	vncp, err := intVector(file, "VNCP")
	if err != nil {
		return nil, err
	}
	pcum, err := intVector(file, "PCUM")
	if err != nil {
		return nil, err
	}
	cmnd, err := intVector(file, "CMND")
	if err != nil {
		return nil, err
	}
	cums, err := realVector(file, "CUMS")
	if err != nil {
		return nil, err
	}
	orex, err := intVector(file, "OREX")
	if err != nil {
		return nil, err
	}
	orel, err := intVector(file, "OREL")
	if err != nil {
		return nil, err
	}
	shck, err := intVector(file, "SHCK")
	if err != nil {
		return nil, err
	}
	pshk, err := intVector(file, "PSHK")
	if err != nil {
		return nil, err
	}
	shcl, err := intVector(file, "SHCL")
	if err != nil {
		return nil, err
	}
	shoc, err := realVector(file, "SHOC")
	if err != nil {
		return nil, err
	}

	var endogenous []VariableDescriptor
	for _, d := range descriptors {
		if d.Endogenous() {
			endogenous = append(endogenous, d)
		}
	}
	m := len(endogenous)
	for name, got := range map[string]int{
		"VNCP": len(vncp), "PCUM": len(pcum), "CMND": len(cmnd),
		"OREX": len(orex), "SHCK": len(shck), "PSHK": len(pshk),
	} {
		if got != m {
			return nil, integrityErr(name, -1, fmt.Errorf("expected %d entries (one per endogenous variable), got %d", m, got))
		}
	}

	// Prefix sums of each table's "contributes to the next variable's
	// base offset" terms, zero when a table's count equals the variable's
	// full component count. prefOrex[e] = Σ_{i<e}; prefShck[e] = Σ_{i<e}
	// as well, but the shock overlay below indexes prefShck[e-1] rather
	// than prefShck[e] — an asymmetry kept exactly as observed rather than
	// normalised to match the exogenous-expansion base.
	prefOrex := make([]int, m+1)
	prefShck := make([]int, m+1)
	for i := 0; i < m; i++ {
		orexTerm, shckTerm := 0, 0
		if orex[i] != vncp[i] {
			orexTerm = int(orex[i])
		}
		if shck[i] != vncp[i] {
			shckTerm = int(shck[i])
		}
		prefOrex[i+1] = prefOrex[i] + orexTerm
		prefShck[i+1] = prefShck[i] + shckTerm
	}

	out := &har.HeaderArrayFile{}
	for e, d := range endogenous {
		n := int(vncp[e])
		values := make([]float32, n)

		if pcum[e] != 0 {
			if err := copyRange(values, cums, int(pcum[e])-1, int(cmnd[e]), "CUMS", e); err != nil {
				return nil, err
			}
		}

		fullyExogenous := int(orex[e]) == n
		if fullyExogenous {
			for i := range values {
				values[i] = 0
			}
		} else if orex[e] != 0 {
			base := prefOrex[e]
			for k := 0; k < int(orex[e]); k++ {
				if base+k >= len(orel) {
					return nil, integrityErr("OREL", base+k, fmt.Errorf("variable %q: exogenous position index out of range", d.Name))
				}
				p := int(orel[base+k]) - 1
				if p < 0 || p >= n {
					return nil, integrityErr("OREL", base+k, fmt.Errorf("variable %q: exogenous position %d out of range [0,%d)", d.Name, p, n))
				}
				copy(values[p+1:], values[p:n-1])
				values[p] = 0
			}
		}

		// Shock overlay base offset sums over i<e-1 in the source this
		// package is modelled on, asymmetric with the i<e base above for
		// exogenous expansion. Left as-is pending validation against
		// ground-truth SL4 files.
		if shck[e] > 0 {
			sbase := 0
			if e > 0 {
				sbase = prefShck[e-1]
			}
			for k := 0; k < int(shck[e]); k++ {
				var p int
				if int(shck[e]) == n {
					p = k
				} else {
					if sbase+k >= len(shcl) {
						return nil, integrityErr("SHCL", sbase+k, fmt.Errorf("variable %q: shock position index out of range", d.Name))
					}
					p = int(shcl[sbase+k]) - 1
				}
				if p < 0 || p >= n {
					return nil, integrityErr("SHCL", sbase+k, fmt.Errorf("variable %q: shock position %d out of range [0,%d)", d.Name, p, n))
				}
				valIdx := int(pshk[e]) - 1 + k
				if valIdx < 0 || valIdx >= len(shoc) {
					return nil, integrityErr("SHOC", valIdx, fmt.Errorf("variable %q: shock value pointer out of range", d.Name))
				}
				values[p] = shoc[valIdx]
			}
		}

		h, err := emit(d, values)
		if err != nil {
			return nil, err
		}
		if err := out.Add(h); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func copyRange(dst []float32, src []float32, srcStart, count int, header string, index int) error {
	if srcStart < 0 || srcStart+count > len(src) {
		return integrityErr(header, index, fmt.Errorf("range [%d,%d) out of bounds (have %d)", srcStart, srcStart+count, len(src)))
	}
	if count > len(dst) {
		return integrityErr(header, index, fmt.Errorf("%d condensed values do not fit in a %d-element array", count, len(dst)))
	}
	copy(dst[:count], src[srcStart:srcStart+count])
	return nil
}

// emit builds the RE header array a reconstructed endogenous variable is
// exposed as. Header codes must be 4 ASCII characters; VariableIndex is
// unique per file, so it is rendered as a zero-padded 4-digit code and the
// full variable name is kept in Coefficient.
func emit(d VariableDescriptor, values []float32) (*har.HeaderArray, error) {
	dims := make([]int, len(d.Sets))
	for i, s := range d.Sets {
		dims[i] = s.Size()
	}

	dict := har.NewIndexedDict[float32](d.Sets)
	if len(dims) == 0 {
		if len(values) > 0 {
			dict.Put(nil, values[0])
		}
	} else {
		idx := make([]int, len(dims))
		key := make([]string, len(dims))
		for flat := 0; flat < len(values); flat++ {
			for i, s := range d.Sets {
				key[i] = s.Labels[idx[i]]
			}
			dict.Put(append(har.KeySequence(nil), key...), values[flat])

			for a := len(idx) - 1; a >= 0; a-- {
				idx[a]++
				if idx[a] < dims[a] {
					break
				}
				idx[a] = 0
			}
		}
	}

	code := fmt.Sprintf("%04d", d.VariableIndex%10000)
	h := &har.HeaderArray{
		Header:      code,
		Coefficient: d.Name,
		Description: d.Description,
		Type:        har.TypeReal,
		Dimensions:  dims,
		Sets:        d.Sets,
		Reals:       dict,
	}
	return h, nil
}
