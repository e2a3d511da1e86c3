// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package har

import (
	"fmt"
	"io"

	"github.com/go-kratos/kratos/v2/log"
)

// Writer serialises header arrays to a HAR/SL4 byte stream, one at a time
// and in the order they are written (§4.D Writer, §5 "HARX writer holds a
// single... stream and serialises entries sequentially" applies equally
// here: there is no concurrent writer).
type Writer struct {
	rw      *RecordWriter
	defined map[string]bool // folded set name -> already written as a definition
	log     *log.Helper
}

// NewWriter creates a Writer over w.
func NewWriter(w io.Writer, opts *Options) *Writer {
	return &Writer{
		rw:      NewRecordWriter(w),
		defined: make(map[string]bool),
		log:     opts.helper(),
	}
}

// Write emits one header array: its metadata record, set records (with
// file-wide set de-duplication by name), and value/partition records.
func (wr *Writer) Write(h *HeaderArray) error {
	switch h.Type {
	case TypeReal:
		return wr.writeRealArray(h)
	case TypeString:
		return wr.writeStringArray(h)
	case TypeReal2D:
		return wr.writeReal2DArray(h)
	case TypeInt2D:
		return wr.writeInt2DArray(h)
	case TypeRealUnlabelled:
		// RL is read-only (§4.B "writers always emit RE"). An RL-typed
		// in-memory array is written as an RE array with FULL storage and
		// positional ("1".."n") set records, so it reads back as RE.
		return wr.writeUnlabelledRealArray(h)
	default:
		return newErr(UnknownType, h.Header, -1, -1, fmt.Errorf("cannot write unknown array type %q", h.Type))
	}
}

func (wr *Writer) writeSets(sets []Set) error {
	for _, s := range sets {
		key := asciiUpper(s.Name)
		if s.Name != "" && wr.defined[key] {
			if err := wr.rw.WriteRecord(encodeSetHeader(s.Name, false, 0)); err != nil {
				return err
			}
			continue
		}
		if err := wr.rw.WriteRecord(encodeSetHeader(s.Name, true, len(s.Labels))); err != nil {
			return err
		}
		for _, rec := range encodeLabelRecords(s.Labels) {
			if err := wr.rw.WriteRecord(rec); err != nil {
				return err
			}
		}
		if s.Name != "" {
			wr.defined[key] = true
		}
	}
	return nil
}

func (wr *Writer) writeNumericPartitions(dims []int, encode func([]float64) []byte, values []float64) error {
	for _, ph := range planPartitions(dims) {
		chunk := gatherPartition(values, dims, ph)
		payload := append(encodePartitionHeader(ph), encode(chunk)...)
		if err := wr.rw.WriteRecord(payload); err != nil {
			return err
		}
	}
	return nil
}

func encodeFloatValues(values []float64) []byte {
	buf := make([]byte, len(values)*4)
	for i, v := range values {
		writeF32(buf[i*4:i*4+4], float32(v))
	}
	return buf
}

func encodeIntValues(values []float64) []byte {
	buf := make([]byte, len(values)*4)
	for i, v := range values {
		writeI32(buf[i*4:i*4+4], int32(v))
	}
	return buf
}

func (wr *Writer) writeRealArray(h *HeaderArray) error {
	n := h.ElementCount()
	sparse := n > 0 && shouldWriteSparse(h.Reals, n)
	storage := StorageFull
	if sparse {
		storage = StorageSparse
	}
	meta := encodeMetadata(h.Header, string(TypeReal), string(storage), h.Description, h.Dimensions)
	if err := wr.rw.WriteRecord(meta); err != nil {
		return err
	}
	if len(h.Dimensions) > 0 {
		if err := wr.writeSets(h.Sets); err != nil {
			return err
		}
	}
	if n == 0 {
		return nil
	}

	if sparse {
		return wr.writeSparse(h)
	}

	values := denseValues(h.Reals, h.Dimensions, h.Sets)
	return wr.writeNumericPartitions(h.Dimensions, encodeFloatValues, values)
}

func (wr *Writer) writeUnlabelledRealArray(h *HeaderArray) error {
	meta := encodeMetadata(h.Header, string(TypeReal), string(StorageFull), h.Description, h.Dimensions)
	if err := wr.rw.WriteRecord(meta); err != nil {
		return err
	}
	sets := make([]Set, len(h.Dimensions))
	for i, d := range h.Dimensions {
		sets[i] = syntheticSet(d)
	}
	if err := wr.writeSets(sets); err != nil {
		return err
	}
	n := h.ElementCount()
	if n == 0 {
		return nil
	}
	values := denseValues(h.Reals, h.Dimensions, h.Sets)
	return wr.writeNumericPartitions(h.Dimensions, encodeFloatValues, values)
}

// shouldWriteSparse applies the fixed density threshold (§4.D) to decide
// FULL vs SPSE for an RE array that did not explicitly request one via
// IndexedDict.SetSparse.
func shouldWriteSparse(dict *IndexedDict[float32], total int) bool {
	if dict == nil {
		return false
	}
	if dict.Sparse() {
		return true
	}
	density := float64(dict.Count()) / float64(total)
	return density < sparseDensityThreshold
}

func denseValues(dict *IndexedDict[float32], dims []int, sets []Set) []float64 {
	n := productInts(dims)
	out := make([]float64, n)
	if dict == nil {
		return out
	}
	// Enumerate walks the Cartesian product in the same row-major order
	// planPartitions expects, so no key->index resolution is needed here.
	i := 0
	dict.Enumerate(func(key KeySequence, val float32) bool {
		out[i] = float64(val)
		i++
		return true
	})
	return out
}

func (wr *Writer) writeSparse(h *HeaderArray) error {
	type entry struct {
		idx int
		val float32
	}
	var entries []entry
	for _, kv := range h.Reals.Entries() {
		idx, ok := keyToFlatIndex(h.Dimensions, h.Sets, kv.Key)
		if !ok {
			return newErr(MalformedRecord, h.Header, -1, -1, fmt.Errorf("entry key does not resolve to a valid index"))
		}
		entries = append(entries, entry{idx: idx, val: kv.Value})
	}

	var countBuf [4]byte
	writeI32(countBuf[:], int32(len(entries)))
	if err := wr.rw.WriteRecord(countBuf[:]); err != nil {
		return err
	}

	const perRecord = MaxPartitionElements
	total := (len(entries) + perRecord - 1) / perRecord
	for i := 0; i < len(entries); i += perRecord {
		end := minInt(i+perRecord, len(entries))
		chunk := entries[i:end]
		buf := make([]byte, 8, 8+8*len(chunk))
		k := total - i/perRecord
		writeI32(buf[0:4], int32(k))
		writeI32(buf[4:8], int32(len(chunk)))
		for _, e := range chunk {
			var pair [8]byte
			writeI32(pair[0:4], int32(e.idx+1))
			writeF32(pair[4:8], e.val)
			buf = append(buf, pair[:]...)
		}
		if err := wr.rw.WriteRecord(buf); err != nil {
			return err
		}
	}
	return nil
}

// keyToFlatIndex resolves a KeySequence to a 0-based flat row-major index
// under sets. It reports false when sets has fewer entries than dims or a
// label is not a member of its set.
func keyToFlatIndex(dims []int, sets []Set, key KeySequence) (int, bool) {
	idx := make([]int, len(dims))
	for i := range dims {
		if i >= len(sets) {
			return 0, false
		}
		pos, ok := sets[i].IndexOf(key[i])
		if !ok {
			return 0, false
		}
		idx[i] = pos
	}
	return ravel(dims, idx), true
}

func (wr *Writer) writeStringArray(h *HeaderArray) error {
	meta := encodeMetadata(h.Header, string(TypeString), "", h.Description, h.Dimensions)
	if err := wr.rw.WriteRecord(meta); err != nil {
		return err
	}
	if len(h.Dimensions) > 0 {
		if err := wr.writeSets(h.Sets); err != nil {
			return err
		}
	}
	n := h.ElementCount()
	if n == 0 {
		return nil
	}

	values := make([]string, n)
	i := 0
	h.Strings.Enumerate(func(key KeySequence, val string) bool {
		values[i] = val
		i++
		return true
	})

	width := 12
	for _, v := range values {
		if len(v) > width {
			width = len(v)
		}
	}

	var widthBuf [4]byte
	writeI32(widthBuf[:], int32(width))
	if err := wr.rw.WriteRecord(widthBuf[:]); err != nil {
		return err
	}

	perRecord := maxInt(1, MaxPartitionElements/width)
	for i := 0; i < len(values); i += perRecord {
		end := minInt(i+perRecord, len(values))
		chunk := values[i:end]
		buf := make([]byte, 0, width*len(chunk))
		for _, v := range chunk {
			buf = append(buf, padASCII(v, width)...)
		}
		if err := wr.rw.WriteRecord(buf); err != nil {
			return err
		}
	}
	return nil
}

func (wr *Writer) writeReal2DArray(h *HeaderArray) error {
	meta := encodeMetadata(h.Header, string(TypeReal2D), "", h.Description, h.Dimensions)
	if err := wr.rw.WriteRecord(meta); err != nil {
		return err
	}
	n := h.ElementCount()
	if n == 0 {
		return nil
	}
	values := make([]float64, n)
	for i, v := range h.Real2D.Data {
		values[i] = float64(v)
	}
	return wr.writeNumericPartitions(h.Dimensions, encodeFloatValues, values)
}

func (wr *Writer) writeInt2DArray(h *HeaderArray) error {
	meta := encodeMetadata(h.Header, string(TypeInt2D), "", h.Description, h.Dimensions)
	if err := wr.rw.WriteRecord(meta); err != nil {
		return err
	}
	n := h.ElementCount()
	if n == 0 {
		return nil
	}
	values := make([]float64, n)
	for i, v := range h.Int2D.Data {
		values[i] = float64(v)
	}
	return wr.writeNumericPartitions(h.Dimensions, encodeIntValues, values)
}
