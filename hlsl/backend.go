// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package hlsl

import (
	"github.com/gogpu/mixer/link"
)

// Options configures HLSL code generation.
type Options struct {
	// ShaderModel specifies the target shader model.
	// Defaults to ShaderModel5_1 for maximum compatibility.
	ShaderModel ShaderModel

	// Bindings maps the link names of constant buffers and resource
	// variables to register targets. Constant buffers are keyed by their
	// buffer name.
	Bindings map[string]BindTarget

	// FakeMissingBindings numbers resources not found in Bindings in
	// declaration order. When false a missing binding fails with
	// ErrMissingBinding.
	FakeMissingBindings bool

	// EntryPoint, when set, must name an entry point of the program.
	EntryPoint string
}

// DefaultOptions returns sensible default options for HLSL generation.
func DefaultOptions() *Options {
	return &Options{
		ShaderModel:         ShaderModel5_1,
		Bindings:            make(map[string]BindTarget),
		FakeMissingBindings: true,
	}
}

// TranslationInfo contains metadata about the HLSL translation.
type TranslationInfo struct {
	// EntryPointNames maps entry point names to generated HLSL names.
	EntryPointNames map[string]string

	// Profiles maps entry point names to compiler target profiles.
	Profiles map[string]string

	// RegisterBindings maps resource names to their HLSL register bindings.
	// Format: "resourceName" -> "register(t0, space0)"
	RegisterBindings map[string]string
}

// Compile generates HLSL source code from a linked program.
// Returns the HLSL source, translation info, or an error.
func Compile(program *link.Program, options *Options) (string, *TranslationInfo, error) {
	if program == nil {
		return "", nil, NewError(ErrInternalError, "program is nil")
	}
	if !program.Valid() {
		return "", nil, NewError(ErrInvalidProgram, "program "+program.Name+" did not link")
	}
	if options == nil {
		options = DefaultOptions()
	}
	if options.EntryPoint != "" && program.EntryPoints[options.EntryPoint] == nil {
		return "", nil, &Error{
			Kind:    ErrEntryPointNotFound,
			Message: "no entry point " + options.EntryPoint,
			Member:  program.Name,
		}
	}

	w := newWriter(program, options)
	if err := w.writeProgram(); err != nil {
		return "", nil, err
	}
	return w.String(), w.info, nil
}
