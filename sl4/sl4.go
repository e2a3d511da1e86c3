// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// Package sl4 reconstructs the dense, fully-indexed results of a solved
// general-equilibrium model from the packed representation a GEMPACK
// solution (.sl4) file stores: an SL4 file is a HAR file under a fixed,
// named schema, and this package is a reader layered on top of
// github.com/saferwall/har.
package sl4

import (
	"os"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/saferwall/har"
)

// Options configures Decode.
type Options struct {
	// Logger receives diagnostic messages about descriptor construction
	// and array reassembly. Defaults to a stderr logger filtered to
	// Error level, matching har.Options.
	Logger log.Logger

	// Parallel runs pass 1 (per-variable descriptor construction) over
	// goroutines instead of sequentially. Pass 2 is always sequential:
	// it accumulates running offsets (base, sbase) across variables, so
	// parallelising it would require each worker to know every prior
	// worker's contribution first.
	Parallel bool
}

func (o *Options) helper() *log.Helper {
	if o == nil || o.Logger == nil {
		return log.NewHelper(log.NewFilter(log.NewStdLogger(os.Stderr), log.FilterLevel(log.LevelError)))
	}
	return log.NewHelper(o.Logger)
}

// Decode reconstructs every endogenous variable in file and returns a
// HeaderArrayFile of dense RE arrays, one per endogenous variable, in
// VariableIndex order. Variables whose VariableType is Omitted or
// Substituted are not emitted.
func Decode(file *har.HeaderArrayFile, opts *Options) (*har.HeaderArrayFile, error) {
	h := opts.helper()

	descriptors, err := buildDescriptors(file, opts)
	if err != nil {
		return nil, err
	}
	h.Infof("sl4: resolved %d variable descriptors", len(descriptors))

	out, err := reconstruct(file, descriptors, opts)
	if err != nil {
		return nil, err
	}
	h.Infof("sl4: reconstructed %d endogenous arrays", len(out.Headers))
	return out, nil
}
