// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package har

import (
	"bytes"
	"fmt"
	"io"
	"os"

	mmap "github.com/edsrzf/mmap-go"
	"github.com/go-kratos/kratos/v2/log"
)

// sparseDensityThreshold is the materialised/logical ratio below which the
// Writer emits an RE array as SPSE rather than FULL. Any value between
// 0.50 and 0.75 keeps both encodings conformant; 0.60 is fixed so output
// is deterministic across runs.
const sparseDensityThreshold = 0.60

// Options configures a Reader or Writer: an optional structured logger.
type Options struct {
	// Logger backs the log helper a Reader or Writer holds; neither logs
	// any message of its own. Defaults to a stderr logger filtered to
	// Error level when nil.
	Logger log.Logger
}

func (o *Options) helper() *log.Helper {
	if o == nil || o.Logger == nil {
		return log.NewHelper(log.NewFilter(log.NewStdLogger(os.Stderr), log.FilterLevel(log.LevelError)))
	}
	return log.NewHelper(o.Logger)
}

// HeaderArrayFile is an ordered collection of header arrays read from, or
// destined for, a single HAR/SL4 container. Header codes are unique within
// a file (§3 Invariants).
type HeaderArrayFile struct {
	Headers []*HeaderArray
}

// Lookup finds a header by its 4-character code. Comparison is exact
// (header codes are written and compared verbatim, unlike set/element
// labels which fold ASCII case).
func (f *HeaderArrayFile) Lookup(code string) (*HeaderArray, bool) {
	for _, h := range f.Headers {
		if h.Header == code {
			return h, true
		}
	}
	return nil, false
}

// Add appends a header array, returning an error if its code collides with
// one already present.
func (f *HeaderArrayFile) Add(h *HeaderArray) error {
	if _, ok := f.Lookup(h.Header); ok {
		return newErr(MalformedRecord, h.Header, -1, -1, fmt.Errorf("duplicate header code %q", h.Header))
	}
	f.Headers = append(f.Headers, h)
	return nil
}

// mappedFile owns an open file and its memory mapping, released together
// on Close.
type mappedFile struct {
	f    *os.File
	data mmap.MMap
}

func (m *mappedFile) Close() error {
	var err error
	if m.data != nil {
		err = m.data.Unmap()
	}
	if m.f != nil {
		if cerr := m.f.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// OpenFile memory-maps path (as pe.New does for PE images) and returns a
// Reader over it. The returned closer must be closed once the Reader (and
// any HeaderArray it produced) is no longer needed.
func OpenFile(path string, opts *Options) (*Reader, io.Closer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	data, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	mf := &mappedFile{f: f, data: data}
	return NewReader(bytes.NewReader(data), opts), mf, nil
}

// ReadAll reads path to completion and returns the assembled file.
func ReadAll(path string, opts *Options) (*HeaderArrayFile, error) {
	rd, closer, err := OpenFile(path, opts)
	if err != nil {
		return nil, err
	}
	defer closer.Close()
	return readAll(rd)
}

// ReadBytes decodes a complete in-memory HAR/SL4 byte buffer.
func ReadBytes(data []byte, opts *Options) (*HeaderArrayFile, error) {
	return readAll(NewReader(bytes.NewReader(data), opts))
}

func readAll(rd *Reader) (*HeaderArrayFile, error) {
	file := &HeaderArrayFile{}
	for {
		h, err := rd.Next()
		if err == io.EOF {
			return file, nil
		}
		if err != nil {
			return nil, err
		}
		if err := file.Add(h); err != nil {
			return nil, err
		}
	}
}

// Write emits every header of f to w, in file order.
func Write(w io.Writer, f *HeaderArrayFile, opts *Options) error {
	wr := NewWriter(w, opts)
	for _, h := range f.Headers {
		if err := wr.Write(h); err != nil {
			return err
		}
	}
	return nil
}

// WriteFile creates (or truncates) path and writes f to it.
func WriteFile(path string, f *HeaderArrayFile, opts *Options) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()
	return Write(out, f, opts)
}
