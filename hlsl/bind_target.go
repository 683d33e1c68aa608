// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package hlsl

import (
	"fmt"
	"strings"

	"github.com/gogpu/mixer/ast"
)

// BindTarget specifies the HLSL register binding for a resource.
// HLSL uses register(x#, space#) syntax for resource binding.
type BindTarget struct {
	// Space is the register space (0-based).
	Space uint8

	// Register is the register index within the space.
	Register uint32
}

// RegisterType represents the HLSL register type.
type RegisterType uint8

const (
	// RegisterTypeB is for constant buffers (cbuffer).
	RegisterTypeB RegisterType = iota

	// RegisterTypeT is for textures and shader resource views.
	RegisterTypeT

	// RegisterTypeS is for samplers.
	RegisterTypeS

	// RegisterTypeU is for unordered access views (UAV).
	RegisterTypeU
)

// String returns the single-character register prefix.
func (rt RegisterType) String() string {
	switch rt {
	case RegisterTypeB:
		return "b"
	case RegisterTypeT:
		return "t"
	case RegisterTypeS:
		return "s"
	case RegisterTypeU:
		return "u"
	default:
		return "b"
	}
}

// registerTypeOf returns the register class of a resource variable type.
// ok is false for types that take no register.
func registerTypeOf(t ast.Type) (rt RegisterType, ok bool) {
	tn, isName := ast.ElemType(t).(*ast.TypeName)
	if !isName {
		return 0, false
	}
	switch tn.Class {
	case ast.ClassSampler:
		return RegisterTypeS, true
	case ast.ClassTexture, ast.ClassObject:
		switch {
		case strings.HasPrefix(tn.Name, "RW"),
			strings.HasPrefix(tn.Name, "Append"),
			strings.HasPrefix(tn.Name, "Consume"):
			return RegisterTypeU, true
		case strings.HasSuffix(tn.Name, "Stream"), strings.HasSuffix(tn.Name, "Patch"):
			return 0, false
		}
		return RegisterTypeT, true
	}
	return 0, false
}

// register formats a binding for the given model.
func (bt BindTarget) register(rt RegisterType, sm ShaderModel) string {
	if sm.SupportsSpaces() {
		return fmt.Sprintf("register(%s%d, space%d)", rt, bt.Register, bt.Space)
	}
	return fmt.Sprintf("register(%s%d)", rt, bt.Register)
}
