// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package hlsl

import "fmt"

// ShaderModel represents a DirectX Shader Model version.
type ShaderModel uint8

// Supported Shader Model versions.
const (
	// ShaderModel5_0 is the base SM5 version (DirectX 11).
	ShaderModel5_0 ShaderModel = iota

	// ShaderModel5_1 provides improved resource binding (default).
	ShaderModel5_1

	// ShaderModel6_0 introduces wave intrinsics and DXIL.
	ShaderModel6_0

	// ShaderModel6_2 adds float16 and denorm control.
	ShaderModel6_2

	// ShaderModel6_6 adds 64-bit atomics and dynamic resources.
	ShaderModel6_6
)

// String returns a human-readable representation of the shader model.
// Example: "SM 5.1", "SM 6.0"
func (sm ShaderModel) String() string {
	major, minor := sm.version()
	return fmt.Sprintf("SM %d.%d", major, minor)
}

// ProfileSuffix returns the shader profile suffix for this model.
// Example: "5_1", "6_0"
func (sm ShaderModel) ProfileSuffix() string {
	major, minor := sm.version()
	return fmt.Sprintf("%d_%d", major, minor)
}

func (sm ShaderModel) version() (major, minor uint8) {
	switch sm {
	case ShaderModel5_0:
		return 5, 0
	case ShaderModel5_1:
		return 5, 1
	case ShaderModel6_0:
		return 6, 0
	case ShaderModel6_2:
		return 6, 2
	case ShaderModel6_6:
		return 6, 6
	default:
		return 5, 1
	}
}

// SupportsSpaces reports whether register spaces are accepted.
// Register spaces were introduced in Shader Model 5.1.
func (sm ShaderModel) SupportsSpaces() bool {
	return sm >= ShaderModel5_1
}

// stagePrefixes maps entry point names to profile prefixes.
var stagePrefixes = map[string]string{
	"VSMain":         "vs",
	"HSMain":         "hs",
	"HSConstantMain": "hs",
	"DSMain":         "ds",
	"GSMain":         "gs",
	"PSMain":         "ps",
	"CSMain":         "cs",
}

// Profile returns the compiler target profile for an entry point, such as
// "ps_5_1", or "" when the name is not a known stage entry point.
func (sm ShaderModel) Profile(entryPoint string) string {
	prefix, ok := stagePrefixes[entryPoint]
	if !ok {
		return ""
	}
	return prefix + "_" + sm.ProfileSuffix()
}
