// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpuboot

import (
	"errors"

	"github.com/gogpu/gpuboot/backend"
	"github.com/gogpu/gpuboot/shader"
)

// ShaderStage is a shader module uploaded to a device together with the
// reflected interface of its entry point.
type ShaderStage struct {
	stage  backend.ShaderStage
	iface  shader.Interface
	source shader.Kind
	module backend.ShaderModule

	destroyed bool
}

// LoadShader prepares code for stage and uploads it to dev, using the
// first entry point of the stage.
//
// WGSL that does not compile fails with ErrShaderCompilation. Malformed
// SPIR-V, a missing entry point or a backend rejection fails with
// ErrShaderLoad.
func LoadShader(dev *Device, stage backend.ShaderStage, code shader.Code) (*ShaderStage, error) {
	return LoadShaderEntry(dev, stage, code, "")
}

// LoadShaderEntry is like LoadShader but selects the entry point by name.
func LoadShaderEntry(dev *Device, stage backend.ShaderStage, code shader.Code, entry string) (*ShaderStage, error) {
	if err := dev.check(); err != nil {
		return nil, stageError(ErrShaderLoad, "%v: %w", stage, err)
	}
	mod, err := shader.Prepare(code, stage, entry)
	if err != nil {
		if errors.Is(err, shader.ErrCompile) {
			return nil, stageError(ErrShaderCompilation, "%v: %w", stage, err)
		}
		return nil, stageError(ErrShaderLoad, "%v: %w", stage, err)
	}

	m, err := dev.dev.CreateShaderModule(&backend.ShaderModuleDescriptor{
		Label:      dev.ctx.label(stage.String()),
		Stage:      stage,
		EntryPoint: mod.Interface.EntryPoint,
		SPIRV:      mod.Words,
	})
	if err != nil {
		return nil, stageError(ErrShaderLoad, "%v: %w", stage, err)
	}
	s := &ShaderStage{
		stage:  stage,
		iface:  mod.Interface,
		source: mod.Source,
		module: m,
	}
	dev.own(stage.String(), s)
	return s, nil
}

// Stage returns the pipeline stage.
func (s *ShaderStage) Stage() backend.ShaderStage { return s.stage }

// EntryPoint returns the entry point name.
func (s *ShaderStage) EntryPoint() string { return s.iface.EntryPoint }

// Interface returns the reflected entry point interface.
func (s *ShaderStage) Interface() shader.Interface { return s.iface }

// Source reports whether the stage was loaded from SPIR-V or WGSL.
func (s *ShaderStage) Source() shader.Kind { return s.source }

// Module returns the backend shader module.
func (s *ShaderStage) Module() backend.ShaderModule { return s.module }

// Destroy releases the shader module. It is idempotent.
func (s *ShaderStage) Destroy() {
	if s.destroyed {
		return
	}
	s.destroyed = true
	s.module.Destroy()
}
