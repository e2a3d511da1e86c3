// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package sl4

import (
	"fmt"

	"github.com/saferwall/har"
)

// schemaErr reports a missing mandatory header or an invalid single-char
// enum value (§4.E "Failure semantics").
func schemaErr(header string, cause error) error {
	return &har.Error{Kind: har.SchemaError, Header: header, Index: -1, Offset: -1, Err: cause}
}

// integrityErr reports an out-of-range pointer or a cross-array count
// inconsistency, with the offending header and index for diagnosis.
func integrityErr(header string, index int, cause error) error {
	return &har.Error{Kind: har.IntegrityError, Header: header, Index: index, Offset: -1, Err: cause}
}

func missingHeader(code string) error {
	return schemaErr(code, fmt.Errorf("mandatory header %q not present in file", code))
}
