// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpuboot

import (
	"errors"
	"fmt"
)

// Bootstrap failure taxonomy. Every error returned by a stage wraps exactly
// one of these, together with the backend cause.
var (
	ErrBackendUnavailable    = errors.New("gpuboot: backend unavailable")
	ErrNoDeviceAvailable     = errors.New("gpuboot: no physical device available")
	ErrSurfaceCreation       = errors.New("gpuboot: surface creation failed")
	ErrNoSuitableQueueFamily = errors.New("gpuboot: no queue family supports graphics and present")
	ErrDeviceCreation        = errors.New("gpuboot: logical device creation failed")
	ErrChainCreation         = errors.New("gpuboot: presentation chain creation failed")
	ErrShaderCompilation     = errors.New("gpuboot: shader compilation failed")
	ErrShaderLoad            = errors.New("gpuboot: shader load failed")
	ErrRenderPass            = errors.New("gpuboot: render pass creation failed")
	ErrPipelineCreation      = errors.New("gpuboot: pipeline creation failed")
	ErrFramebufferCreation   = errors.New("gpuboot: framebuffer creation failed")
)

var (
	// ErrAlreadyRun is returned by a second Bootstrapper.Run.
	ErrAlreadyRun = errors.New("gpuboot: bootstrap already run")

	// ErrDestroyed is returned when a destroyed object is used.
	ErrDestroyed = errors.New("gpuboot: object destroyed")
)

// stageError joins kind with a formatted cause so that errors.Is matches
// both the taxonomy sentinel and any sentinel wrapped by the cause.
func stageError(kind error, format string, args ...any) error {
	return fmt.Errorf("%w: %w", kind, fmt.Errorf(format, args...))
}

// BootstrapError reports the stage a bootstrap failed in.
type BootstrapError struct {
	Stage Stage
	Err   error
}

func (e *BootstrapError) Error() string {
	return fmt.Sprintf("gpuboot: bootstrap failed at %s: %v", e.Stage, e.Err)
}

func (e *BootstrapError) Unwrap() error { return e.Err }
