// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package shader

import (
	"encoding/binary"
	"fmt"

	"github.com/gogpu/gpuboot/backend"
)

// Magic is the first word of every SPIR-V module.
const Magic = 0x07230203

const headerWords = 5

// SPIR-V opcodes, enumerants and decorations the scanner understands.
const (
	opEntryPoint  = 15
	opTypeBool    = 20
	opTypeInt     = 21
	opTypeFloat   = 22
	opTypeVector  = 23
	opTypePointer = 32
	opVariable    = 59
	opDecorate    = 71

	execModelVertex   = 0
	execModelFragment = 4

	decorationBuiltIn  = 11
	decorationLocation = 30

	storageClassInput = 1
)

// Words converts a SPIR-V binary to 32-bit words. The byte order is taken
// from the magic number; blobs without a recognizable magic are decoded
// as little-endian.
func Words(data []byte) ([]uint32, error) {
	if len(data) == 0 || len(data)%4 != 0 {
		return nil, fmt.Errorf("%w: length %d is not a positive multiple of 4", ErrInvalidSPIRV, len(data))
	}
	var order binary.ByteOrder = binary.LittleEndian
	if binary.BigEndian.Uint32(data) == Magic {
		order = binary.BigEndian
	}
	words := make([]uint32, len(data)/4)
	for i := range words {
		words[i] = order.Uint32(data[i*4:])
	}
	return words, nil
}

// hasMagic reports whether data starts with the SPIR-V magic number in
// either byte order.
func hasMagic(data []byte) bool {
	if len(data) < 4 {
		return false
	}
	return binary.LittleEndian.Uint32(data) == Magic || binary.BigEndian.Uint32(data) == Magic
}

// Version returns the major and minor SPIR-V version of words.
func Version(words []uint32) (major, minor uint8) {
	if len(words) < 2 {
		return 0, 0
	}
	return uint8(words[1] >> 16), uint8(words[1] >> 8)
}

// Validate checks the header and the instruction stream framing.
func Validate(words []uint32) error {
	if len(words) < headerWords {
		return fmt.Errorf("%w: %d words, header needs %d", ErrInvalidSPIRV, len(words), headerWords)
	}
	if words[0] != Magic {
		return fmt.Errorf("%w: bad magic 0x%08x", ErrInvalidSPIRV, words[0])
	}
	major, minor := Version(words)
	if major != 1 || minor > 6 || words[1]&0xff0000ff != 0 {
		return fmt.Errorf("%w: unknown version 0x%08x", ErrInvalidSPIRV, words[1])
	}
	return walk(words, func(uint32, []uint32) {})
}

// walk calls fn for every instruction after the header.
func walk(words []uint32, fn func(op uint32, operands []uint32)) error {
	for pc := headerWords; pc < len(words); {
		count := int(words[pc] >> 16)
		op := words[pc] & 0xffff
		if count == 0 {
			return fmt.Errorf("%w: zero-length instruction at word %d", ErrInvalidSPIRV, pc)
		}
		if pc+count > len(words) {
			return fmt.Errorf("%w: instruction at word %d overruns module", ErrInvalidSPIRV, pc)
		}
		fn(op, words[pc+1:pc+count])
		pc += count
	}
	return nil
}

// literalString decodes a nul-terminated literal and returns the number
// of words it occupies.
func literalString(words []uint32) (string, int) {
	var buf []byte
	for i, w := range words {
		for shift := 0; shift < 32; shift += 8 {
			b := byte(w >> shift)
			if b == 0 {
				return string(buf), i + 1
			}
			buf = append(buf, b)
		}
	}
	return string(buf), len(words)
}

type spirvEntryPoint struct {
	model uint32
	name  string
	iface []uint32
}

type spirvType struct {
	op       uint32
	operands []uint32
}

type spirvVariable struct {
	typ     uint32
	storage uint32
}

type spirvModule struct {
	entryPoints []spirvEntryPoint
	types       map[uint32]spirvType
	variables   map[uint32]spirvVariable
	locations   map[uint32]uint32
	builtins    map[uint32]bool
}

func scan(words []uint32) (*spirvModule, error) {
	m := &spirvModule{
		types:     make(map[uint32]spirvType),
		variables: make(map[uint32]spirvVariable),
		locations: make(map[uint32]uint32),
		builtins:  make(map[uint32]bool),
	}
	err := walk(words, func(op uint32, ops []uint32) {
		switch op {
		case opEntryPoint:
			if len(ops) < 3 {
				return
			}
			name, n := literalString(ops[2:])
			m.entryPoints = append(m.entryPoints, spirvEntryPoint{
				model: ops[0],
				name:  name,
				iface: ops[2+n:],
			})
		case opTypeBool, opTypeInt, opTypeFloat, opTypeVector, opTypePointer:
			if len(ops) >= 1 {
				m.types[ops[0]] = spirvType{op: op, operands: ops[1:]}
			}
		case opVariable:
			if len(ops) >= 3 {
				m.variables[ops[1]] = spirvVariable{typ: ops[0], storage: ops[2]}
			}
		case opDecorate:
			if len(ops) < 2 {
				return
			}
			switch ops[1] {
			case decorationLocation:
				if len(ops) >= 3 {
					m.locations[ops[0]] = ops[2]
				}
			case decorationBuiltIn:
				m.builtins[ops[0]] = true
			}
		}
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// scalarShape resolves a value type to its component count and kind.
// Types the scanner does not record (arrays, matrices, structs) resolve
// to ScalarUnknown. A vector whose component is not a scalar type is
// malformed.
func (m *spirvModule) scalarShape(id uint32) (uint32, ScalarKind, error) {
	t, ok := m.types[id]
	if !ok {
		return 0, ScalarUnknown, nil
	}
	if t.op != opTypeVector {
		if kind := scalarKind(t); kind != ScalarUnknown {
			return 1, kind, nil
		}
		return 0, ScalarUnknown, nil
	}
	if len(t.operands) < 2 {
		return 0, ScalarUnknown, fmt.Errorf("%w: vector %%%d has no component type", ErrInvalidSPIRV, id)
	}
	kind := ScalarUnknown
	if component, ok := m.types[t.operands[0]]; ok {
		kind = scalarKind(component)
	}
	if kind == ScalarUnknown {
		return 0, ScalarUnknown, fmt.Errorf("%w: vector %%%d component %%%d is not a scalar type",
			ErrInvalidSPIRV, id, t.operands[0])
	}
	return t.operands[1], kind, nil
}

func scalarKind(t spirvType) ScalarKind {
	switch t.op {
	case opTypeBool:
		return ScalarBool
	case opTypeFloat:
		return ScalarFloat
	case opTypeInt:
		if len(t.operands) >= 2 && t.operands[1] != 0 {
			return ScalarSint
		}
		return ScalarUint
	}
	return ScalarUnknown
}

func executionModel(stage backend.ShaderStage) uint32 {
	if stage == backend.StageFragment {
		return execModelFragment
	}
	return execModelVertex
}

// ReflectSPIRV returns the interface of the entry point for stage. An
// empty entry name selects the first entry point of that stage.
func ReflectSPIRV(words []uint32, stage backend.ShaderStage, entry string) (*Interface, error) {
	if err := Validate(words); err != nil {
		return nil, err
	}
	m, err := scan(words)
	if err != nil {
		return nil, err
	}
	model := executionModel(stage)
	for _, ep := range m.entryPoints {
		if ep.model != model || (entry != "" && ep.name != entry) {
			continue
		}
		out := &Interface{EntryPoint: ep.name, Stage: stage}
		for _, id := range ep.iface {
			v, ok := m.variables[id]
			if !ok || v.storage != storageClassInput || m.builtins[id] {
				continue
			}
			loc, ok := m.locations[id]
			if !ok {
				continue
			}
			ptr, ok := m.types[v.typ]
			if !ok || ptr.op != opTypePointer || len(ptr.operands) < 2 {
				continue
			}
			n, kind, err := m.scalarShape(ptr.operands[1])
			if err != nil {
				return nil, err
			}
			out.Inputs = append(out.Inputs, Input{Location: loc, Components: n, Kind: kind})
		}
		sortInputs(out.Inputs)
		return out, nil
	}
	if entry == "" {
		return nil, fmt.Errorf("%w: no %v entry point", ErrNoEntryPoint, stage)
	}
	return nil, fmt.Errorf("%w: no %v entry point %q", ErrNoEntryPoint, stage, entry)
}
