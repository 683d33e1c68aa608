// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package hlsl

import (
	"strings"

	"github.com/gogpu/mixer/ast"
	"github.com/gogpu/mixer/link"
)

// writer generates HLSL source code from a linked program.
type writer struct {
	out     strings.Builder
	program *link.Program
	options *Options
	names   *namer
	printer *ast.Printer
	info    *TranslationInfo

	// next is the next fake register per register type.
	next    [4]uint32
	prevVar bool
}

func newWriter(program *link.Program, options *Options) *writer {
	w := &writer{
		program: program,
		options: options,
		names:   newNamer(),
		info: &TranslationInfo{
			EntryPointNames:  make(map[string]string),
			Profiles:         make(map[string]string),
			RegisterBindings: make(map[string]string),
		},
	}
	w.printer = &ast.Printer{
		Name:       w.names.lookup,
		Qualifiers: ast.QualConst | ast.QualStatic | ast.QualInOut,
	}
	return w
}

// String returns the generated HLSL code.
func (w *writer) String() string {
	return w.out.String()
}

func (w *writer) writeProgram() error {
	w.registerNames()
	w.writeStreams()

	for _, m := range w.program.Members {
		_, isVar := m.(*ast.Variable)
		if w.out.Len() > 0 && !(isVar && w.prevVar) {
			w.out.WriteByte('\n')
		}
		w.prevVar = isVar

		switch m := m.(type) {
		case *ast.ConstantBuffer:
			if err := w.writeBuffer(m); err != nil {
				return err
			}
		case *ast.Variable:
			if err := w.writeGlobal(m); err != nil {
				return err
			}
		default:
			w.printer.WriteMember(&w.out, m, 0)
		}
	}

	for name, fn := range w.program.EntryPoints {
		w.info.EntryPointNames[name] = w.names.lookup(fn.Name)
		if profile := w.options.ShaderModel.Profile(name); profile != "" {
			w.info.Profiles[name] = profile
		}
	}
	return nil
}

// registerNames assigns an HLSL identifier to every declared name, in
// declaration order.
func (w *writer) registerNames() {
	for _, v := range w.program.StreamVariables {
		w.names.call(v.Name)
	}
	for _, m := range w.program.Members {
		switch m := m.(type) {
		case *ast.ConstantBuffer:
			w.names.call(m.Name)
			for _, v := range m.Members {
				w.names.call(v.Name)
			}
		case ast.Decl:
			w.names.call(m.DeclName())
		}
	}
}

// writeStreams declares the Streams structure and its static instance.
func (w *writer) writeStreams() {
	if len(w.program.StreamVariables) == 0 {
		return
	}
	w.out.WriteString("struct " + StreamsType + "\n{\n")
	for _, v := range w.program.StreamVariables {
		w.out.WriteByte('\t')
		w.out.WriteString(w.printer.Variable(v))
		w.out.WriteString(";\n")
	}
	w.out.WriteString("};\n")
	w.out.WriteString("static " + StreamsType + " " + StreamsVar + ";\n")
}

// variable renders a member variable without its semantic, which HLSL
// only accepts on stage inputs and outputs.
func (w *writer) variable(v *ast.Variable) string {
	cp := *v
	cp.Semantic = ""
	return w.printer.Variable(&cp)
}

func (w *writer) writeBuffer(cb *ast.ConstantBuffer) error {
	reg, err := w.bind(cb.Name, cb.Name, RegisterTypeB)
	if err != nil {
		return err
	}
	w.out.WriteString("cbuffer " + w.names.lookup(cb.Name) + " : " + reg + "\n{\n")
	for _, v := range cb.Members {
		w.out.WriteByte('\t')
		w.out.WriteString(w.variable(v))
		w.out.WriteString(";\n")
	}
	w.out.WriteString("};\n")
	return nil
}

func (w *writer) writeGlobal(v *ast.Variable) error {
	w.out.WriteString(w.variable(v))
	if rt, ok := registerTypeOf(v.Type); ok {
		key := v.Name
		if a := v.Attribute("Link"); a != nil && len(a.Args) > 0 {
			key = a.Args[0]
		}
		reg, err := w.bind(key, v.Name, rt)
		if err != nil {
			return err
		}
		w.out.WriteString(" : " + reg)
	}
	w.out.WriteString(";\n")
	return nil
}

// bind returns the register clause of a resource, from the configured
// bindings or, when allowed, the next free register of its type.
func (w *writer) bind(key, name string, rt RegisterType) (string, error) {
	bt, ok := w.options.Bindings[key]
	if !ok {
		if !w.options.FakeMissingBindings {
			return "", &Error{
				Kind:    ErrMissingBinding,
				Message: "no binding for " + key,
				Member:  name,
			}
		}
		bt = BindTarget{Register: w.next[rt]}
		w.next[rt]++
	}
	reg := bt.register(rt, w.options.ShaderModel)
	w.info.RegisterBindings[w.names.lookup(name)] = reg
	return reg, nil
}
