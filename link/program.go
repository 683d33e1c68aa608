package link

import (
	"strings"

	"github.com/gogpu/mixer/ast"
	"github.com/gogpu/mixer/streams"
)

// Program is a linked shader: one flat list of members with unique names.
type Program struct {
	// Name is the name of the root unit.
	Name string

	// Members holds typedefs and structs, constant buffers, top-level
	// variables and method definitions, in that order.
	Members []ast.Member

	// StreamVariables are the stream members, one per name.
	StreamVariables []*ast.Variable

	// EntryPoints maps each found entry point name to its definition.
	EntryPoints map[string]*ast.Method

	// Streams is the stream usage of the program methods.
	Streams *streams.Analysis

	refs  *RefPool
	valid bool
}

// Valid reports whether linking finished without errors.
func (p *Program) Valid() bool { return p != nil && p.valid }

// References returns the merged reference pool of the program.
func (p *Program) References() *RefPool { return p.refs }

// Buffers returns the constant buffers in declaration order.
func (p *Program) Buffers() []*ast.ConstantBuffer {
	var out []*ast.ConstantBuffer
	for _, m := range p.Members {
		if cb, ok := m.(*ast.ConstantBuffer); ok {
			out = append(out, cb)
		}
	}
	return out
}

// Variables returns the variables declared outside constant buffers.
func (p *Program) Variables() []*ast.Variable {
	var out []*ast.Variable
	for _, m := range p.Members {
		if v, ok := m.(*ast.Variable); ok {
			out = append(out, v)
		}
	}
	return out
}

// Methods returns the method definitions.
func (p *Program) Methods() []*ast.Method {
	var out []*ast.Method
	for _, m := range p.Members {
		if fn, ok := m.(*ast.Method); ok {
			out = append(out, fn)
		}
	}
	return out
}

// Member returns the member declared with name, looking inside constant
// buffers too.
func (p *Program) Member(name string) ast.Member {
	for _, m := range p.Members {
		if cb, ok := m.(*ast.ConstantBuffer); ok {
			for _, v := range cb.Members {
				if v.Name == name {
					return v
				}
			}
			continue
		}
		if d, ok := m.(ast.Decl); ok && d.DeclName() == name {
			return m
		}
	}
	return nil
}

// String renders the program in fragment syntax, for diagnostics and
// tests.
func (p *Program) String() string {
	var sb strings.Builder
	pr := &ast.Printer{Qualifiers: ast.QualConst | ast.QualStatic, Attributes: true}
	for _, v := range p.StreamVariables {
		sb.WriteString("stream ")
		sb.WriteString(pr.Variable(v))
		sb.WriteString(";\n")
	}
	for _, m := range p.Members {
		pr.WriteMember(&sb, m, 0)
	}
	return sb.String()
}
