// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package shader

import (
	"fmt"
	"slices"

	"github.com/gogpu/gpuboot/backend"
	"github.com/gogpu/gpuboot/internal/cache"
	"github.com/gogpu/naga"
	"github.com/gogpu/naga/ir"
)

// compileCacheSize bounds the number of distinct sources kept compiled.
const compileCacheSize = 64

// compiled maps WGSL source to its SPIR-V binary. Failed compilations are
// not cached.
var compiled = cache.New[string, []byte](compileCacheSize)

// CompileStats reports compile cache activity.
type CompileStats struct {
	Entries int
	Hits    uint64
	Misses  uint64
}

// CompileCacheStats returns the current compile cache counters.
func CompileCacheStats() CompileStats {
	s := compiled.Stats()
	return CompileStats{Entries: s.Len, Hits: s.Hits, Misses: s.Misses}
}

// ResetCompileCache drops every cached compilation.
func ResetCompileCache() {
	compiled.Clear()
}

// CompileWGSL compiles WGSL source to a SPIR-V binary. Results are cached
// by source text; the returned slice is owned by the caller.
func CompileWGSL(source string) ([]byte, error) {
	if spirv, ok := compiled.Get(source); ok {
		return slices.Clone(spirv), nil
	}
	spirv, err := naga.CompileWithOptions(source, naga.DefaultOptions())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCompile, err)
	}
	compiled.Set(source, spirv)
	return slices.Clone(spirv), nil
}

// CompileWGSLWords compiles WGSL source to SPIR-V words.
func CompileWGSLWords(source string) ([]uint32, error) {
	spirv, err := CompileWGSL(source)
	if err != nil {
		return nil, err
	}
	return Words(spirv)
}

// ReflectWGSL parses source and returns the interface of the entry point
// for stage. An empty entry name selects the first entry point of that
// stage.
func ReflectWGSL(source string, stage backend.ShaderStage, entry string) (*Interface, error) {
	ast, err := naga.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCompile, err)
	}
	module, err := naga.LowerWithSource(ast, source)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCompile, err)
	}
	return reflectIR(module, stage, entry)
}

func irStage(stage backend.ShaderStage) ir.ShaderStage {
	if stage == backend.StageFragment {
		return ir.StageFragment
	}
	return ir.StageVertex
}

func reflectIR(module *ir.Module, stage backend.ShaderStage, entry string) (*Interface, error) {
	want := irStage(stage)
	for _, ep := range module.EntryPoints {
		if ep.Stage != want || (entry != "" && ep.Name != entry) {
			continue
		}
		out := &Interface{EntryPoint: ep.Name, Stage: stage}
		for _, arg := range ep.Function.Arguments {
			if arg.Binding != nil {
				if in, ok := irInput(module, *arg.Binding, arg.Type); ok {
					out.Inputs = append(out.Inputs, in)
				}
				continue
			}
			// Inputs may be grouped in a struct whose members carry bindings.
			if int(arg.Type) >= len(module.Types) {
				continue
			}
			st, ok := module.Types[arg.Type].Inner.(ir.StructType)
			if !ok {
				continue
			}
			for _, m := range st.Members {
				if m.Binding == nil {
					continue
				}
				if in, ok := irInput(module, *m.Binding, m.Type); ok {
					out.Inputs = append(out.Inputs, in)
				}
			}
		}
		sortInputs(out.Inputs)
		return out, nil
	}
	if entry == "" {
		return nil, fmt.Errorf("%w: no %v entry point", ErrNoEntryPoint, stage)
	}
	return nil, fmt.Errorf("%w: no %v entry point %q", ErrNoEntryPoint, stage, entry)
}

func irInput(module *ir.Module, b ir.Binding, typ ir.TypeHandle) (Input, bool) {
	loc, ok := b.(ir.LocationBinding)
	if !ok {
		return Input{}, false
	}
	in := Input{Location: loc.Location}
	if int(typ) < len(module.Types) {
		switch t := module.Types[typ].Inner.(type) {
		case ir.ScalarType:
			in.Components, in.Kind = 1, irScalarKind(t.Kind)
		case ir.VectorType:
			in.Components, in.Kind = uint32(t.Size), irScalarKind(t.Scalar.Kind)
		}
	}
	return in, true
}

func irScalarKind(k ir.ScalarKind) ScalarKind {
	switch k {
	case ir.ScalarFloat:
		return ScalarFloat
	case ir.ScalarSint:
		return ScalarSint
	case ir.ScalarUint:
		return ScalarUint
	case ir.ScalarBool:
		return ScalarBool
	default:
		return ScalarUnknown
	}
}
