// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package shader

import (
	"fmt"
	"slices"

	"github.com/gogpu/gpuboot/backend"
	"github.com/gogpu/gputypes"
)

// ScalarKind is the scalar type of a shader input component.
type ScalarKind uint8

const (
	ScalarUnknown ScalarKind = iota
	ScalarFloat
	ScalarSint
	ScalarUint
	ScalarBool
)

func (k ScalarKind) String() string {
	switch k {
	case ScalarFloat:
		return "f32"
	case ScalarSint:
		return "i32"
	case ScalarUint:
		return "u32"
	case ScalarBool:
		return "bool"
	default:
		return "unknown"
	}
}

// Input is a user-defined stage input bound to a location.
type Input struct {
	Location   uint32
	Components uint32
	Kind       ScalarKind
}

func (in Input) String() string {
	if in.Components == 1 {
		return fmt.Sprintf("@location(%d) %v", in.Location, in.Kind)
	}
	return fmt.Sprintf("@location(%d) vec%d<%v>", in.Location, in.Components, in.Kind)
}

// Interface is the reflected signature of one entry point.
type Interface struct {
	EntryPoint string
	Stage      backend.ShaderStage
	// Inputs are sorted by location. Built-in inputs are not listed.
	Inputs []Input
}

// Input returns the input at location, if any.
func (i *Interface) Input(location uint32) (Input, bool) {
	idx := slices.IndexFunc(i.Inputs, func(in Input) bool { return in.Location == location })
	if idx < 0 {
		return Input{}, false
	}
	return i.Inputs[idx], true
}

func sortInputs(in []Input) {
	slices.SortFunc(in, func(a, b Input) int { return int(a.Location) - int(b.Location) })
}

// VertexFormatInput returns the component count and scalar kind a vertex
// attribute of format f delivers to the shader. Normalized integer
// formats deliver floats.
func VertexFormatInput(f gputypes.VertexFormat) (components uint32, kind ScalarKind, ok bool) {
	switch f {
	case gputypes.VertexFormatFloat32:
		return 1, ScalarFloat, true
	case gputypes.VertexFormatFloat32x2, gputypes.VertexFormatFloat16x2,
		gputypes.VertexFormatUnorm8x2, gputypes.VertexFormatSnorm8x2,
		gputypes.VertexFormatUnorm16x2, gputypes.VertexFormatSnorm16x2:
		return 2, ScalarFloat, true
	case gputypes.VertexFormatFloat32x3:
		return 3, ScalarFloat, true
	case gputypes.VertexFormatFloat32x4, gputypes.VertexFormatFloat16x4,
		gputypes.VertexFormatUnorm8x4, gputypes.VertexFormatSnorm8x4,
		gputypes.VertexFormatUnorm16x4, gputypes.VertexFormatSnorm16x4,
		gputypes.VertexFormatUnorm1010102:
		return 4, ScalarFloat, true
	case gputypes.VertexFormatUint32:
		return 1, ScalarUint, true
	case gputypes.VertexFormatUint32x2, gputypes.VertexFormatUint8x2, gputypes.VertexFormatUint16x2:
		return 2, ScalarUint, true
	case gputypes.VertexFormatUint32x3:
		return 3, ScalarUint, true
	case gputypes.VertexFormatUint32x4, gputypes.VertexFormatUint8x4, gputypes.VertexFormatUint16x4:
		return 4, ScalarUint, true
	case gputypes.VertexFormatSint32:
		return 1, ScalarSint, true
	case gputypes.VertexFormatSint32x2, gputypes.VertexFormatSint8x2, gputypes.VertexFormatSint16x2:
		return 2, ScalarSint, true
	case gputypes.VertexFormatSint32x3:
		return 3, ScalarSint, true
	case gputypes.VertexFormatSint32x4, gputypes.VertexFormatSint8x4, gputypes.VertexFormatSint16x4:
		return 4, ScalarSint, true
	}
	return 0, ScalarUnknown, false
}
