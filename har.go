// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// Package har reads and writes GEMPACK Header Array files: the binary
// container format used to move named, typed, multi-dimensional arrays
// between economic modelling tools. A HAR file is a sequence of
// independently-framed header arrays; an SL4 solution file is a HAR file
// whose headers follow a fixed schema that reconstructs a model's solved
// variables (see the har/sl4 subpackage). HARX re-encodes the same
// header arrays as one JSON document per header inside a zip archive
// (see the har/harx subpackage).
package har

// Format family identifiers, used by callers that branch on which
// on-disk shape they're working with rather than opening the file and
// inspecting its headers.
const (
	FormatHAR  = "HAR"
	FormatSL4  = "SL4"
	FormatHARX = "HARX"
)

// HeaderCodeLength is the fixed width, in ASCII bytes, of a header code.
const HeaderCodeLength = 4

// CoefficientLength is the maximum width, in ASCII bytes, of a
// coefficient name.
const CoefficientLength = 12

// DescriptionLength is the maximum width, in ASCII bytes, of a header's
// long description.
const DescriptionLength = 70
