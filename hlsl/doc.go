// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package hlsl prints linked fragment programs as HLSL source.
//
// A linked program already carries unique member names and one constant
// buffer per group of variables, so printing is mostly a matter of
// emitting declarations in order. The printer adds what HLSL needs on top:
//
//   - a Streams structure holding every stream member, and a static
//     instance of it named streams that method bodies access;
//   - register bindings for constant buffers and resource variables;
//   - escaping of member names that collide with HLSL keywords.
//
// # Usage
//
//	program, log := link.Link(root, link.DefaultOptions())
//	if log.HasErrors() {
//	    return log.Err()
//	}
//	code, info, err := hlsl.Compile(program, hlsl.DefaultOptions())
//
// # Register Binding
//
// HLSL uses register-based resource binding with spaces:
//
//	cbuffer : register(b#, space#)  // Constant buffers
//	Texture : register(t#, space#)  // Textures/SRVs
//	Sampler : register(s#, space#)  // Samplers
//	RWTexture: register(u#, space#) // UAVs
//
// Options.Bindings assigns registers by link name; with
// FakeMissingBindings the remaining resources are numbered in order.
package hlsl
