// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package harx

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/klauspost/compress/flate"
	"github.com/saferwall/har"
)

// registerCompressor swaps archive/zip's deflate implementation for
// klauspost/compress/flate's, which is faster and compresses tighter than
// the standard library's. archive/zip's registry is process-global, so
// this is done once regardless of how many Readers/Writers run.
var registerCompressor sync.Once

func useFastDeflate() {
	registerCompressor.Do(func() {
		zip.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
			return flate.NewWriter(w, flate.DefaultCompression)
		})
		zip.RegisterDecompressor(zip.Deflate, func(r io.Reader) io.ReadCloser {
			return flate.NewReader(r)
		})
	})
}

// Read decodes a HARX archive, one JSON-encoded header array per ZIP
// entry, entry name = header code (§4.F).
func Read(r *zip.Reader, opts *Options) (*har.HeaderArrayFile, error) {
	useFastDeflate()
	h := opts.helper()

	file := &har.HeaderArrayFile{}
	for _, entry := range r.File {
		rc, err := entry.Open()
		if err != nil {
			return nil, fmt.Errorf("harx: opening entry %q: %w", entry.Name, err)
		}
		var doc Document
		dec := json.NewDecoder(rc)
		err = dec.Decode(&doc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("harx: decoding entry %q: %w", entry.Name, err)
		}

		array, err := fromDocument(&doc)
		if err != nil {
			return nil, err
		}
		if err := file.Add(array); err != nil {
			return nil, err
		}
		h.Debugf("harx: decoded entry %q (%s)", entry.Name, array.Type)
	}
	return file, nil
}

// ReadFile opens path as a HARX archive and decodes it.
func ReadFile(path string, opts *Options) (*har.HeaderArrayFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	zr, err := zip.NewReader(f, info.Size())
	if err != nil {
		return nil, err
	}
	return Read(zr, opts)
}

// Write emits f as a HARX archive: one JSON entry per header array, named
// by its header code, in file order. The writer serialises entries
// sequentially onto a single ZIP output stream (§5 "no concurrent
// writer").
func Write(w io.Writer, f *har.HeaderArrayFile, opts *Options) error {
	useFastDeflate()
	h := opts.helper()

	zw := zip.NewWriter(w)
	for _, array := range f.Headers {
		doc, err := toDocument(array)
		if err != nil {
			return err
		}
		entry, err := zw.CreateHeader(&zip.FileHeader{Name: array.Header, Method: zip.Deflate})
		if err != nil {
			return fmt.Errorf("harx: creating entry %q: %w", array.Header, err)
		}
		enc := json.NewEncoder(entry)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("harx: encoding entry %q: %w", array.Header, err)
		}
		h.Debugf("harx: wrote entry %q (%s)", array.Header, array.Type)
	}
	return zw.Close()
}

// WriteFile creates (or truncates) path and writes f to it as HARX.
func WriteFile(path string, f *har.HeaderArrayFile, opts *Options) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()
	return Write(out, f, opts)
}
