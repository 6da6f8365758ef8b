// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package shader

import "unicode/utf8"

// Kind hints at the encoding of a Code blob.
type Kind uint8

const (
	// KindAuto detects the encoding from the blob contents.
	KindAuto Kind = iota
	// KindSPIRV is a SPIR-V binary in either byte order.
	KindSPIRV
	// KindWGSL is WGSL source text.
	KindWGSL
)

func (k Kind) String() string {
	switch k {
	case KindAuto:
		return "auto"
	case KindSPIRV:
		return "spirv"
	case KindWGSL:
		return "wgsl"
	default:
		return "unknown"
	}
}

// Code is a shader blob as handed over by the caller.
type Code struct {
	Data []byte
	Kind Kind
}

// SPIRV wraps a SPIR-V binary.
func SPIRV(data []byte) Code { return Code{Data: data, Kind: KindSPIRV} }

// WGSL wraps WGSL source text.
func WGSL(source string) Code { return Code{Data: []byte(source), Kind: KindWGSL} }

// Detect resolves KindAuto. Blobs starting with the SPIR-V magic number in
// either byte order are SPIR-V, valid UTF-8 text is WGSL, anything else is
// treated as (malformed) SPIR-V.
func (c Code) Detect() Kind {
	if c.Kind != KindAuto {
		return c.Kind
	}
	if hasMagic(c.Data) {
		return KindSPIRV
	}
	if len(c.Data) > 0 && utf8.Valid(c.Data) {
		return KindWGSL
	}
	return KindSPIRV
}
