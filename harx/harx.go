// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// Package harx re-encodes a HAR file's header arrays as a ZIP archive
// holding one JSON document per header, the portable interchange format
// for tools that would rather not link a binary HAR codec.
package harx

import (
	"os"

	"github.com/go-kratos/kratos/v2/log"
)

// Options configures Read and Write.
type Options struct {
	// Logger receives a debug message for each entry read or written;
	// failures are returned, not logged. Defaults to a stderr logger
	// filtered to Error level, matching har.Options.
	Logger log.Logger
}

func (o *Options) helper() *log.Helper {
	if o == nil || o.Logger == nil {
		return log.NewHelper(log.NewFilter(log.NewStdLogger(os.Stderr), log.FilterLevel(log.LevelError)))
	}
	return log.NewHelper(o.Logger)
}
