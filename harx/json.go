// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package harx

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/saferwall/har"
)

// Document is the JSON shape of one header array's HARX entry (§4.F).
type Document struct {
	Header      string              `json:"Header"`
	Coefficient string              `json:"Coefficient"`
	Description string              `json:"Description"`
	Type        string              `json:"Type"`
	Dimensions  []int               `json:"Dimensions"`
	Sets        []map[string][]string `json:"Sets"`
	Entries     map[string]interface{} `json:"Entries"`
}

// formatKey renders a composite key as "[lbl1][lbl2]..." (§4.F, §8
// scenario 6).
func formatKey(labels []string) string {
	var b strings.Builder
	for _, l := range labels {
		b.WriteByte('[')
		b.WriteString(l)
		b.WriteByte(']')
	}
	return b.String()
}

// parseKey is the inverse of formatKey.
func parseKey(key string) ([]string, error) {
	if key == "" {
		return nil, nil
	}
	var labels []string
	for len(key) > 0 {
		if key[0] != '[' {
			return nil, fmt.Errorf("malformed entry key %q", key)
		}
		end := strings.IndexByte(key, ']')
		if end < 0 {
			return nil, fmt.Errorf("malformed entry key %q", key)
		}
		labels = append(labels, key[1:end])
		key = key[end+1:]
	}
	return labels, nil
}

// positional returns "1".."n", the labels this package uses for 2R/2I
// entries, which carry no named sets of their own.
func positional(n int) []string {
	labels := make([]string, n)
	for i := range labels {
		labels[i] = strconv.Itoa(i + 1)
	}
	return labels
}

// toDocument converts a decoded header array to its HARX JSON shape.
func toDocument(h *har.HeaderArray) (*Document, error) {
	doc := &Document{
		Header:      h.Header,
		Coefficient: h.Coefficient,
		Description: h.Description,
		Type:        string(h.Type),
		Dimensions:  append([]int(nil), h.Dimensions...),
		Entries:     map[string]interface{}{},
	}
	if doc.Type == string(har.TypeRealUnlabelled) {
		// Writers never re-emit RL; treat it as RE for interchange since
		// HARX's documented type set is {1C, RE, 2R, 2I} (§4.F).
		doc.Type = string(har.TypeReal)
	}

	switch h.Type {
	case har.TypeString:
		for _, s := range h.Sets {
			doc.Sets = append(doc.Sets, map[string][]string{s.Name: append([]string(nil), s.Labels...)})
		}
		for _, kv := range h.Strings.Entries() {
			doc.Entries[formatKey(kv.Key)] = kv.Value
		}

	case har.TypeReal, har.TypeRealUnlabelled:
		for _, s := range h.Sets {
			doc.Sets = append(doc.Sets, map[string][]string{s.Name: append([]string(nil), s.Labels...)})
		}
		for _, kv := range h.Reals.Entries() {
			doc.Entries[formatKey(kv.Key)] = float64(kv.Value)
		}

	case har.TypeReal2D:
		rowLabels, colLabels := positional(h.Real2D.Rows), positional(h.Real2D.Cols)
		for r := 0; r < h.Real2D.Rows; r++ {
			for c := 0; c < h.Real2D.Cols; c++ {
				doc.Entries[formatKey([]string{rowLabels[r], colLabels[c]})] = float64(h.Real2D.At(r, c))
			}
		}

	case har.TypeInt2D:
		rowLabels, colLabels := positional(h.Int2D.Rows), positional(h.Int2D.Cols)
		for r := 0; r < h.Int2D.Rows; r++ {
			for c := 0; c < h.Int2D.Cols; c++ {
				doc.Entries[formatKey([]string{rowLabels[r], colLabels[c]})] = float64(h.Int2D.At(r, c))
			}
		}

	default:
		return nil, fmt.Errorf("harx: cannot encode array of type %q", h.Type)
	}

	return doc, nil
}

// fromDocument is the inverse of toDocument. Unknown JSON fields were
// already dropped by encoding/json; missing required fields surface here.
func fromDocument(doc *Document) (*har.HeaderArray, error) {
	if len(doc.Header) != 4 {
		return nil, fmt.Errorf("harx: header code %q must be 4 characters", doc.Header)
	}

	switch har.ArrayType(doc.Type) {
	case har.TypeString:
		sets, err := decodeSets(doc.Sets)
		if err != nil {
			return nil, err
		}
		dict := har.NewIndexedDict[string](sets)
		for key, raw := range doc.Entries {
			labels, err := parseKey(key)
			if err != nil {
				return nil, err
			}
			s, ok := raw.(string)
			if !ok {
				return nil, fmt.Errorf("harx: entry %q: expected a string value for a 1C array", key)
			}
			dict.Put(labels, s)
		}
		return &har.HeaderArray{
			Header: doc.Header, Coefficient: doc.Coefficient, Description: doc.Description,
			Type: har.TypeString, Dimensions: doc.Dimensions, Sets: sets, Strings: dict,
		}, nil

	case har.TypeReal:
		sets, err := decodeSets(doc.Sets)
		if err != nil {
			return nil, err
		}
		dict := har.NewIndexedDict[float32](sets)
		for key, raw := range doc.Entries {
			labels, err := parseKey(key)
			if err != nil {
				return nil, err
			}
			f, ok := raw.(float64)
			if !ok {
				return nil, fmt.Errorf("harx: entry %q: expected a numeric value for an RE array", key)
			}
			dict.Put(labels, float32(f))
		}
		total := 1
		for _, s := range sets {
			total *= s.Size()
		}
		if total > 0 && dict.Count() < total {
			dict.SetSparse(true)
		}
		return &har.HeaderArray{
			Header: doc.Header, Coefficient: doc.Coefficient, Description: doc.Description,
			Type: har.TypeReal, Dimensions: doc.Dimensions, Sets: sets, Reals: dict,
		}, nil

	case har.TypeReal2D:
		if len(doc.Dimensions) != 2 {
			return nil, fmt.Errorf("harx: 2R array %q must have 2 dimensions", doc.Header)
		}
		data := har.NewDense2D[float32](doc.Dimensions[0], doc.Dimensions[1])
		if err := fill2D(doc, func(r, c int, v float64) { data.Set(r, c, float32(v)) }); err != nil {
			return nil, err
		}
		return &har.HeaderArray{
			Header: doc.Header, Coefficient: doc.Coefficient, Description: doc.Description,
			Type: har.TypeReal2D, Dimensions: doc.Dimensions, Real2D: data,
		}, nil

	case har.TypeInt2D:
		if len(doc.Dimensions) != 2 {
			return nil, fmt.Errorf("harx: 2I array %q must have 2 dimensions", doc.Header)
		}
		data := har.NewDense2D[int32](doc.Dimensions[0], doc.Dimensions[1])
		if err := fill2D(doc, func(r, c int, v float64) { data.Set(r, c, int32(v)) }); err != nil {
			return nil, err
		}
		return &har.HeaderArray{
			Header: doc.Header, Coefficient: doc.Coefficient, Description: doc.Description,
			Type: har.TypeInt2D, Dimensions: doc.Dimensions, Int2D: data,
		}, nil

	default:
		return nil, fmt.Errorf("harx: unrecognised type %q", doc.Type)
	}
}

func decodeSets(docSets []map[string][]string) ([]har.Set, error) {
	sets := make([]har.Set, len(docSets))
	for i, m := range docSets {
		if len(m) != 1 {
			return nil, fmt.Errorf("harx: set entry %d must carry exactly one name", i)
		}
		for name, labels := range m {
			sets[i] = har.Set{Name: name, Labels: append([]string(nil), labels...)}
		}
	}
	return sets, nil
}

func fill2D(doc *Document, set func(r, c int, v float64)) error {
	for key, raw := range doc.Entries {
		labels, err := parseKey(key)
		if err != nil {
			return err
		}
		if len(labels) != 2 {
			return fmt.Errorf("harx: entry %q: expected a 2-element key", key)
		}
		r, err := strconv.Atoi(labels[0])
		if err != nil {
			return fmt.Errorf("harx: entry %q: non-numeric row label: %w", key, err)
		}
		c, err := strconv.Atoi(labels[1])
		if err != nil {
			return fmt.Errorf("harx: entry %q: non-numeric column label: %w", key, err)
		}
		v, ok := raw.(float64)
		if !ok {
			return fmt.Errorf("harx: entry %q: expected a numeric value", key)
		}
		set(r-1, c-1, v)
	}
	return nil
}
