// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package shader

// TriangleEntryPoint is the entry point name of both triangle stages.
const TriangleEntryPoint = "main"

// TriangleVertexWGSL passes a 2D position through to clip space.
const TriangleVertexWGSL = `
@vertex
fn main(@location(0) position: vec2<f32>) -> @builtin(position) vec4<f32> {
    return vec4<f32>(position, 0.0, 1.0);
}
`

// TriangleFragmentWGSL fills with opaque red.
const TriangleFragmentWGSL = `
@fragment
fn main() -> @location(0) vec4<f32> {
    return vec4<f32>(1.0, 0.0, 0.0, 1.0);
}
`

// Triangle returns the built-in vertex and fragment stages. The vertex
// stage consumes a vec2<f32> position at location 0.
func Triangle() (vertex, fragment Code) {
	return WGSL(TriangleVertexWGSL), WGSL(TriangleFragmentWGSL)
}
