//go:build !nogpu

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"fmt"

	"github.com/gogpu/error2d"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"
)

// targetFormat is the offscreen colour format.
const targetFormat = gputypes.TextureFormatBGRA8Unorm

// program holds the compiled error-bar module and its two pipelines.
type program struct {
	shader        hal.ShaderModule
	uniformLayout hal.BindGroupLayout
	pipeLayout    hal.PipelineLayout

	// perPoint reads colour from vertex buffer slot 3.
	perPoint hal.RenderPipeline
	// uniformColor reads colour from the uniform block.
	uniformColor hal.RenderPipeline
}

// compileWGSL compiles WGSL source to SPIR-V words.
func compileWGSL(source string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(source)
	if err != nil {
		return nil, fmt.Errorf("compile shader: %w", err)
	}
	// SPIR-V is little-endian 32-bit words
	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return words, nil
}

// CreateProgram compiles desc and creates both render pipelines.
func (d *Device) CreateProgram(desc *error2d.ProgramDesc) (error2d.ProgramID, error) {
	if d.destroyed {
		return error2d.InvalidID, ErrDestroyed
	}
	if desc == nil || desc.WGSL == "" || desc.VertexEntry == "" ||
		desc.UniformColorVertexEntry == "" || desc.FragmentEntry == "" {
		return error2d.InvalidID, fmt.Errorf("wgpu: incomplete program descriptor")
	}
	p, err := d.buildProgram(desc)
	if err != nil {
		d.destroyProgram(p)
		return error2d.InvalidID, err
	}
	d.nextID++
	id := error2d.ProgramID(d.nextID)
	d.programs[id] = p
	error2d.Logger().Debug("wgpu: program created", "label", desc.Label)
	return id, nil
}

func (d *Device) buildProgram(desc *error2d.ProgramDesc) (*program, error) {
	p := &program{}
	spirv, err := compileWGSL(desc.WGSL)
	if err != nil {
		return p, fmt.Errorf("wgpu: %s: %w", desc.Label, err)
	}
	p.shader, err = d.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  desc.Label,
		Source: hal.ShaderSource{SPIRV: spirv},
	})
	if err != nil {
		return p, fmt.Errorf("wgpu: create shader module: %w", err)
	}

	p.uniformLayout, err = d.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: desc.Label + "_uniform_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
		},
	})
	if err != nil {
		return p, fmt.Errorf("wgpu: create bind group layout: %w", err)
	}

	p.pipeLayout, err = d.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            desc.Label + "_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{p.uniformLayout},
	})
	if err != nil {
		return p, fmt.Errorf("wgpu: create pipeline layout: %w", err)
	}

	p.perPoint, err = d.createPipeline(desc.Label+"_per_point", p, desc.VertexEntry, desc.FragmentEntry, vertexLayout(true))
	if err != nil {
		return p, err
	}
	p.uniformColor, err = d.createPipeline(desc.Label+"_uniform_color", p, desc.UniformColorVertexEntry, desc.FragmentEntry, vertexLayout(false))
	if err != nil {
		return p, err
	}
	return p, nil
}

func (d *Device) createPipeline(label string, p *program, vertexEntry, fragmentEntry string, buffers []gputypes.VertexBufferLayout) (hal.RenderPipeline, error) {
	blend := blendState()
	pipeline, err := d.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  label,
		Layout: p.pipeLayout,
		Vertex: hal.VertexState{
			Module:     p.shader,
			EntryPoint: vertexEntry,
			Buffers:    buffers,
		},
		Fragment: &hal.FragmentState{
			Module:     p.shader,
			EntryPoint: fragmentEntry,
			Targets: []gputypes.ColorTargetState{
				{
					Format:    targetFormat,
					Blend:     &blend,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create render pipeline %s: %w", label, err)
	}
	return pipeline, nil
}

// blendState is straight alpha over: src-alpha/one-minus-src-alpha on
// colour and one/one-minus-src-alpha on alpha.
func blendState() gputypes.BlendState {
	return gputypes.BlendState{
		Color: gputypes.BlendComponent{
			SrcFactor: gputypes.BlendFactorSrcAlpha,
			DstFactor: gputypes.BlendFactorOneMinusSrcAlpha,
			Operation: gputypes.BlendOperationAdd,
		},
		Alpha: gputypes.BlendComponent{
			SrcFactor: gputypes.BlendFactorOne,
			DstFactor: gputypes.BlendFactorOneMinusSrcAlpha,
			Operation: gputypes.BlendOperationAdd,
		},
	}
}

// vertexLayout returns the buffer layouts of the error-bar pipelines.
// Slot 0 steps per vertex, the rest per instance. The colour slot exists
// only in the per-point pipeline.
func vertexLayout(perPointColor bool) []gputypes.VertexBufferLayout {
	layouts := []gputypes.VertexBufferLayout{
		{
			ArrayStride: error2d.MeshVertexStride,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},  // axis
				{Format: gputypes.VertexFormatFloat32x2, Offset: 8, ShaderLocation: 1},  // line
				{Format: gputypes.VertexFormatFloat32x2, Offset: 16, ShaderLocation: 2}, // cap
			},
		},
		{
			ArrayStride: error2d.PositionStride,
			StepMode:    gputypes.VertexStepModeInstance,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 3},
			},
		},
		{
			ArrayStride: error2d.ErrorStride,
			StepMode:    gputypes.VertexStepModeInstance,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x4, Offset: 0, ShaderLocation: 4},
			},
		},
	}
	if perPointColor {
		layouts = append(layouts, gputypes.VertexBufferLayout{
			ArrayStride: error2d.ColorStride,
			StepMode:    gputypes.VertexStepModeInstance,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x4, Offset: 0, ShaderLocation: 5},
			},
		})
	}
	return layouts
}

// DestroyProgram releases a program. Unknown IDs are ignored.
func (d *Device) DestroyProgram(id error2d.ProgramID) {
	p, ok := d.programs[id]
	if !ok {
		return
	}
	d.destroyProgram(p)
	delete(d.programs, id)
}

func (d *Device) destroyProgram(p *program) {
	if p == nil || d.device == nil {
		return
	}
	if p.uniformColor != nil {
		d.device.DestroyRenderPipeline(p.uniformColor)
		p.uniformColor = nil
	}
	if p.perPoint != nil {
		d.device.DestroyRenderPipeline(p.perPoint)
		p.perPoint = nil
	}
	if p.pipeLayout != nil {
		d.device.DestroyPipelineLayout(p.pipeLayout)
		p.pipeLayout = nil
	}
	if p.uniformLayout != nil {
		d.device.DestroyBindGroupLayout(p.uniformLayout)
		p.uniformLayout = nil
	}
	if p.shader != nil {
		d.device.DestroyShaderModule(p.shader)
		p.shader = nil
	}
}
