// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package shader

import (
	"github.com/gogpu/gpuboot/backend"
)

// Module is a shader stage ready to upload: SPIR-V words and the
// reflected interface of its entry point.
type Module struct {
	Words     []uint32
	Interface Interface
	// Source records the encoding the module was prepared from.
	Source Kind
}

// Prepare validates or compiles code and reflects the entry point for
// stage. An empty entry name selects the first entry point of the stage.
//
// WGSL failures wrap ErrCompile. SPIR-V failures wrap ErrInvalidSPIRV or
// ErrNoEntryPoint.
func Prepare(code Code, stage backend.ShaderStage, entry string) (*Module, error) {
	switch code.Detect() {
	case KindWGSL:
		source := string(code.Data)
		iface, err := ReflectWGSL(source, stage, entry)
		if err != nil {
			return nil, err
		}
		words, err := CompileWGSLWords(source)
		if err != nil {
			return nil, err
		}
		return &Module{Words: words, Interface: *iface, Source: KindWGSL}, nil
	default:
		words, err := Words(code.Data)
		if err != nil {
			return nil, err
		}
		iface, err := ReflectSPIRV(words, stage, entry)
		if err != nil {
			return nil, err
		}
		return &Module{Words: words, Interface: *iface, Source: KindSPIRV}, nil
	}
}
