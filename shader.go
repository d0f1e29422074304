// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package error2d

import _ "embed"

//go:embed shaders/error2d.wgsl
var shaderSource string

// Entry points of the error-bar program.
const (
	VertexEntry             = "vs_main"
	UniformColorVertexEntry = "vs_uniform_color"
	FragmentEntry           = "fs_main"
)

// ShaderSource returns the WGSL source of the error-bar program.
func ShaderSource() string {
	return shaderSource
}

func programDesc() *ProgramDesc {
	return &ProgramDesc{
		Label:                   "error2d",
		WGSL:                    shaderSource,
		VertexEntry:             VertexEntry,
		UniformColorVertexEntry: UniformColorVertexEntry,
		FragmentEntry:           FragmentEntry,
	}
}
