// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package har

import (
	"fmt"
	"io"

	"github.com/go-kratos/kratos/v2/log"
)

// Reader streams a HAR/SL4 file one header array at a time without
// requiring the full file in memory (§4.D "Operates in streaming mode").
// It owns the file-level set dictionary so later headers can reference
// sets a previous header defined.
type Reader struct {
	rr      *RecordReader
	sets    map[string]Set // folded set name -> definition, for reference resolution
	log     *log.Helper
	options *Options
}

// NewReader creates a Reader over r. r is consumed sequentially; Reader
// never seeks.
func NewReader(r io.Reader, opts *Options) *Reader {
	return &Reader{
		rr:      NewRecordReader(r),
		sets:    make(map[string]Set),
		log:     opts.helper(),
		options: opts,
	}
}

// Next decodes and returns the next header array, or io.EOF when the
// stream is exhausted cleanly between headers.
func (rd *Reader) Next() (*HeaderArray, error) {
	payload, err := rd.rr.ReadRecord()
	if err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, err
	}

	meta, err := decodeMetadata(payload)
	if err != nil {
		return nil, err
	}

	switch ArrayType(meta.Type) {
	case TypeReal:
		return rd.readRealArray(meta)
	case TypeString:
		return rd.readStringArray(meta)
	case TypeReal2D:
		return rd.readReal2DArray(meta)
	case TypeInt2D:
		return rd.readInt2DArray(meta)
	case TypeRealUnlabelled:
		return rd.readUnlabelledRealArray(meta)
	default:
		return nil, newErr(UnknownType, meta.Tag, -1, rd.rr.Offset(), fmt.Errorf("unrecognised type code %q", meta.Type))
	}
}

// readSets reads `rank` consecutive set records (and any label-continuation
// records each needs), resolving references against the file-level
// dictionary and recording new definitions into it.
func (rd *Reader) readSets(header string, rank int) ([]Set, error) {
	sets := make([]Set, rank)
	for i := 0; i < rank; i++ {
		payload, err := rd.rr.ReadRecord()
		if err != nil {
			return nil, err
		}
		sh, err := decodeSetHeader(payload)
		if err != nil {
			return nil, err
		}

		if !sh.IsNew {
			s, ok := rd.sets[asciiUpper(sh.Name)]
			if !ok {
				return nil, newErr(MalformedRecord, header, i, rd.rr.Offset(), fmt.Errorf("reference to undefined set %q", sh.Name))
			}
			sets[i] = s
			continue
		}

		labels := make([]string, 0, sh.Count)
		for len(labels) < sh.Count {
			lp, err := rd.rr.ReadRecord()
			if err != nil {
				return nil, err
			}
			chunk, err := decodeLabelRecord(lp)
			if err != nil {
				return nil, err
			}
			labels = append(labels, chunk...)
		}
		if len(labels) != sh.Count {
			return nil, newErr(MalformedRecord, header, i, rd.rr.Offset(), fmt.Errorf("set %q: expected %d labels, read %d", sh.Name, sh.Count, len(labels)))
		}

		s := Set{Name: sh.Name, Labels: labels}
		sets[i] = s
		rd.sets[asciiUpper(sh.Name)] = s
	}
	return sets, nil
}

// readNumericPartitions reads partition records until the countdown index k
// reaches 1, decoding values with decode and placing them via scatter.
func (rd *Reader) readNumericPartitions(header string, dims []int, n int, decode func([]byte) []float64) ([]float64, error) {
	dst := make([]float64, n)
	for {
		payload, err := rd.rr.ReadRecord()
		if err != nil {
			return nil, err
		}
		ph, rest, err := decodePartitionHeader(payload)
		if err != nil {
			return nil, err
		}
		count := partitionElementCount(ph, len(dims))
		values := decode(rest)
		if len(values) != count {
			return nil, newErr(MalformedRecord, header, int(ph.K), rd.rr.Offset(),
				fmt.Errorf("partition declares %d elements, payload carried %d", count, len(values)))
		}
		scatterPartition(dst, dims, ph, values)
		if ph.K <= 1 {
			return dst, nil
		}
	}
}

func decodeFloatValues(b []byte) []float64 {
	n := len(b) / 4
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = float64(readF32(b[i*4 : i*4+4]))
	}
	return out
}

func decodeIntValues(b []byte) []float64 {
	n := len(b) / 4
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = float64(readI32(b[i*4 : i*4+4]))
	}
	return out
}

func (rd *Reader) readRealArray(meta metadataHeader) (*HeaderArray, error) {
	n := productInts(meta.Dims)
	var sets []Set
	if len(meta.Dims) > 0 {
		var err error
		sets, err = rd.readSets(meta.Tag, len(meta.Dims))
		if err != nil {
			return nil, err
		}
	}

	dict := NewIndexedDict[float32](sets)
	if n == 0 {
		return newRealArray(meta.Tag, meta.Tag, meta.Description, meta.Dims, sets, dict, false), nil
	}

	switch Storage(meta.Storage) {
	case StorageSparse:
		if err := rd.readSparseInto(meta.Tag, meta.Dims, sets, dict); err != nil {
			return nil, err
		}
		dict.SetSparse(true)
	default:
		values, err := rd.readNumericPartitions(meta.Tag, meta.Dims, n, decodeFloatValues)
		if err != nil {
			return nil, err
		}
		fillDense(dict, meta.Dims, sets, values)
	}

	return newRealArray(meta.Tag, meta.Tag, meta.Description, meta.Dims, sets, dict, false), nil
}

func (rd *Reader) readUnlabelledRealArray(meta metadataHeader) (*HeaderArray, error) {
	n := productInts(meta.Dims)
	sets := make([]Set, len(meta.Dims))
	for i, d := range meta.Dims {
		sets[i] = syntheticSet(d)
	}
	dict := NewIndexedDict[float32](sets)
	if n > 0 {
		values, err := rd.readNumericPartitions(meta.Tag, meta.Dims, n, decodeFloatValues)
		if err != nil {
			return nil, err
		}
		fillDense(dict, meta.Dims, sets, values)
	}
	return newRealArray(meta.Tag, meta.Tag, meta.Description, meta.Dims, sets, dict, true), nil
}

func (rd *Reader) readSparseInto(header string, dims []int, sets []Set, dict *IndexedDict[float32]) error {
	countPayload, err := rd.rr.ReadRecord()
	if err != nil {
		return err
	}
	if len(countPayload) < 4 {
		return newErr(MalformedRecord, header, -1, rd.rr.Offset(), fmt.Errorf("truncated sparse count record"))
	}
	total := int(readI32(countPayload[0:4]))
	read := 0
	for read < total {
		payload, err := rd.rr.ReadRecord()
		if err != nil {
			return err
		}
		if len(payload) < 8 {
			return newErr(MalformedRecord, header, -1, rd.rr.Offset(), fmt.Errorf("truncated sparse partition"))
		}
		k := readI32(payload[0:4])
		n := int(readI32(payload[4:8]))
		pos := 8
		for i := 0; i < n; i++ {
			if len(payload) < pos+8 {
				return newErr(MalformedRecord, header, i, rd.rr.Offset(), fmt.Errorf("truncated sparse entry"))
			}
			flatIdx := int(readI32(payload[pos : pos+4]))
			val := readF32(payload[pos+4 : pos+8])
			pos += 8
			if flatIdx < 1 || flatIdx > productInts(dims) {
				return newErr(MalformedRecord, header, flatIdx, rd.rr.Offset(), fmt.Errorf("sparse index out of range"))
			}
			key := indexToKey(dims, sets, flatIdx-1)
			dict.Put(key, val)
		}
		read += n
		if k <= 1 && read != total {
			return newErr(MalformedRecord, header, -1, rd.rr.Offset(), fmt.Errorf("sparse partitions ended before reaching declared count"))
		}
	}
	return nil
}

func (rd *Reader) readStringArray(meta metadataHeader) (*HeaderArray, error) {
	n := productInts(meta.Dims)
	var sets []Set
	if len(meta.Dims) > 0 {
		var err error
		sets, err = rd.readSets(meta.Tag, len(meta.Dims))
		if err != nil {
			return nil, err
		}
	}

	dict := NewIndexedDict[string](sets)
	if n == 0 {
		return newStringArray(meta.Tag, meta.Tag, meta.Description, meta.Dims, sets, dict), nil
	}

	widthPayload, err := rd.rr.ReadRecord()
	if err != nil {
		return nil, err
	}
	if len(widthPayload) < 4 {
		return nil, newErr(MalformedRecord, meta.Tag, -1, rd.rr.Offset(), fmt.Errorf("truncated string width record"))
	}
	width := int(readI32(widthPayload[0:4]))

	values := make([]string, 0, n)
	for len(values) < n {
		payload, err := rd.rr.ReadRecord()
		if err != nil {
			return nil, err
		}
		if width <= 0 || len(payload)%width != 0 {
			return nil, newErr(MalformedRecord, meta.Tag, -1, rd.rr.Offset(), fmt.Errorf("string record length %d not a multiple of width %d", len(payload), width))
		}
		for i := 0; i < len(payload); i += width {
			values = append(values, trimASCII(payload[i:i+width]))
		}
	}
	if len(values) != n {
		return nil, newErr(MalformedRecord, meta.Tag, -1, rd.rr.Offset(), fmt.Errorf("expected %d strings, read %d", n, len(values)))
	}

	for i, v := range values {
		dict.Put(indexToKey(meta.Dims, sets, i), v)
	}

	return newStringArray(meta.Tag, meta.Tag, meta.Description, meta.Dims, sets, dict), nil
}

func (rd *Reader) readReal2DArray(meta metadataHeader) (*HeaderArray, error) {
	if len(meta.Dims) != 2 {
		return nil, newErr(MalformedRecord, meta.Tag, -1, rd.rr.Offset(), fmt.Errorf("2R header must have rank 2, got %d", len(meta.Dims)))
	}
	n := productInts(meta.Dims)
	data := NewDense2D[float32](meta.Dims[0], meta.Dims[1])
	if n > 0 {
		values, err := rd.readNumericPartitions(meta.Tag, meta.Dims, n, decodeFloatValues)
		if err != nil {
			return nil, err
		}
		for i, v := range values {
			data.Data[i] = float32(v)
		}
	}
	return newReal2DArray(meta.Tag, meta.Tag, meta.Description, meta.Dims, data), nil
}

func (rd *Reader) readInt2DArray(meta metadataHeader) (*HeaderArray, error) {
	if len(meta.Dims) != 2 {
		return nil, newErr(MalformedRecord, meta.Tag, -1, rd.rr.Offset(), fmt.Errorf("2I header must have rank 2, got %d", len(meta.Dims)))
	}
	n := productInts(meta.Dims)
	data := NewDense2D[int32](meta.Dims[0], meta.Dims[1])
	if n > 0 {
		values, err := rd.readNumericPartitions(meta.Tag, meta.Dims, n, decodeIntValues)
		if err != nil {
			return nil, err
		}
		for i, v := range values {
			data.Data[i] = int32(v)
		}
	}
	return newInt2DArray(meta.Tag, meta.Tag, meta.Description, meta.Dims, data), nil
}

func productInts(dims []int) int {
	if len(dims) == 0 {
		return 0
	}
	n := 1
	for _, d := range dims {
		n *= d
	}
	return n
}

// indexToKey converts a 0-based flat row-major position into the
// KeySequence naming that position under sets. An axis with no
// corresponding set gets an empty label.
func indexToKey(dims []int, sets []Set, flat int) KeySequence {
	idx := unravel(dims, flat)
	key := make(KeySequence, len(idx))
	for i, pos := range idx {
		if i < len(sets) {
			key[i] = sets[i].Labels[pos]
		}
	}
	return key
}

func fillDense(dict *IndexedDict[float32], dims []int, sets []Set, values []float64) {
	for i, v := range values {
		dict.Put(indexToKey(dims, sets, i), float32(v))
	}
}
