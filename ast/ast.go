// Package ast defines the fragment IR: a mutable, pointer-based syntax tree
// for shader fragments (mixins) and for the flattened programs the linker
// produces from them.
//
// Expressions that name declarations carry a Decl field filled by name
// binding. Binding is not done by the parser; a freshly parsed or cloned
// tree has nil Decl fields unless the clone source was already bound.
package ast

import (
	"strings"

	"github.com/gogpu/mixer/diag"
)

// Span is a source location.
type Span = diag.Span

// Node is the base interface for all AST nodes.
type Node interface {
	Pos() Span
}

// Member is a fragment-level declaration.
type Member interface {
	Node
	memberNode()
}

// Stmt is the interface for statements.
type Stmt interface {
	Node
	stmtNode()
}

// Expr is the interface for expressions.
type Expr interface {
	Node
	exprNode()
}

// Decl is a declaration an expression can be bound to.
type Decl interface {
	Node
	DeclName() string
}

// Qualifier is a set of storage and linkage qualifiers.
type Qualifier uint16

const (
	QualStage Qualifier = 1 << iota
	QualStream
	QualPatchStream
	QualExtern
	QualConst
	QualStatic
	QualClone
	QualOverride
	QualAbstract
	QualInternal
	QualIn
	QualOut
)

// QualInOut is the in-out parameter qualifier.
const QualInOut = QualIn | QualOut

var qualifierNames = []struct {
	q    Qualifier
	name string
}{
	{QualInternal, "internal"},
	{QualClone, "clone"},
	{QualAbstract, "abstract"},
	{QualOverride, "override"},
	{QualStage, "stage"},
	{QualStream, "stream"},
	{QualPatchStream, "patchstream"},
	{QualExtern, "compose"},
	{QualStatic, "static"},
	{QualConst, "const"},
	{QualIn, "in"},
	{QualOut, "out"},
}

// Has reports whether all qualifiers in q2 are set.
func (q Qualifier) Has(q2 Qualifier) bool { return q&q2 == q2 }

// String returns the qualifiers in source order, space separated.
func (q Qualifier) String() string {
	if q.Has(QualInOut) {
		q2 := q &^ QualInOut
		if q2 == 0 {
			return "inout"
		}
		return q2.String() + " inout"
	}
	var parts []string
	for _, qn := range qualifierNames {
		if q.Has(qn.q) {
			parts = append(parts, qn.name)
		}
	}
	return strings.Join(parts, " ")
}

// Attribute is a bracketed annotation such as [Link("Material.Color")].
type Attribute struct {
	Name string
	Args []string
	Span Span
}

// Fragment is a named shader mixin.
type Fragment struct {
	Name string

	// GenericParams are the declared generic parameters, each a typed name.
	GenericParams []*Variable

	// Bases are the direct base fragments in declaration order.
	Bases []*TypeName

	Members []Member

	// SourceHash and PreprocessedHash are hex digests of the source text
	// and of the macro-expanded token stream.
	SourceHash       string
	PreprocessedHash string

	Span Span
}

func (f *Fragment) Pos() Span        { return f.Span }
func (f *Fragment) DeclName() string { return f.Name }

// Variables returns the member variables in declaration order.
func (f *Fragment) Variables() []*Variable {
	var out []*Variable
	for _, m := range f.Members {
		if v, ok := m.(*Variable); ok {
			out = append(out, v)
		}
	}
	return out
}

// Methods returns the member methods in declaration order.
func (f *Fragment) Methods() []*Method {
	var out []*Method
	for _, m := range f.Members {
		if fn, ok := m.(*Method); ok {
			out = append(out, fn)
		}
	}
	return out
}

// Variable looks up a member variable by name.
func (f *Fragment) Variable(name string) *Variable {
	for _, m := range f.Members {
		if v, ok := m.(*Variable); ok && v.Name == name {
			return v
		}
	}
	return nil
}

// Variable is a member, local, parameter or generic parameter declaration.
type Variable struct {
	Name       string
	Type       Type
	Qualifiers Qualifier
	Semantic   string
	Init       Expr
	Attributes []*Attribute

	// CBuffer is the explicit constant buffer the variable was declared in.
	CBuffer string

	Span Span
}

func (v *Variable) Pos() Span        { return v.Span }
func (v *Variable) DeclName() string { return v.Name }
func (v *Variable) memberNode()      {}

// Is reports whether the variable carries all the given qualifiers.
func (v *Variable) Is(q Qualifier) bool { return v.Qualifiers.Has(q) }

// IsStream reports whether the variable is a stream or patch-stream member.
func (v *Variable) IsStream() bool {
	return v.Qualifiers&(QualStream|QualPatchStream) != 0
}

// Attribute returns the first attribute with the given name.
func (v *Variable) Attribute(name string) *Attribute {
	return findAttribute(v.Attributes, name)
}

// SetAttribute replaces or appends an attribute with a single argument.
func (v *Variable) SetAttribute(name, arg string) {
	if a := v.Attribute(name); a != nil {
		a.Args = []string{arg}
		return
	}
	v.Attributes = append(v.Attributes, &Attribute{Name: name, Args: []string{arg}})
}

// Method is a member function. Body is nil for declarations.
type Method struct {
	Name       string
	ReturnType Type
	Params     []*Variable
	Qualifiers Qualifier
	Semantic   string
	Attributes []*Attribute
	Body       *BlockStmt
	Span       Span
}

func (m *Method) Pos() Span        { return m.Span }
func (m *Method) DeclName() string { return m.Name }
func (m *Method) memberNode()      {}

// Is reports whether the method carries all the given qualifiers.
func (m *Method) Is(q Qualifier) bool { return m.Qualifiers.Has(q) }

// IsDefinition reports whether the method has a body.
func (m *Method) IsDefinition() bool { return m.Body != nil }

// Signature identifies the method for override matching: its name and
// parameter types.
func (m *Method) Signature() string {
	var sb strings.Builder
	sb.WriteString(m.Name)
	sb.WriteByte('(')
	for i, p := range m.Params {
		if i > 0 {
			sb.WriteByte(',')
		}
		if p.Type != nil {
			sb.WriteString(p.Type.String())
		}
	}
	sb.WriteByte(')')
	return sb.String()
}

// StructDecl is a structure type declaration.
type StructDecl struct {
	Name   string
	Fields []*Variable
	Span   Span
}

func (s *StructDecl) Pos() Span        { return s.Span }
func (s *StructDecl) DeclName() string { return s.Name }
func (s *StructDecl) memberNode()      {}

// Typedef is a type alias declaration.
type Typedef struct {
	Name string
	Type Type
	Span Span
}

func (t *Typedef) Pos() Span        { return t.Span }
func (t *Typedef) DeclName() string { return t.Name }
func (t *Typedef) memberNode()      {}

// ConstantBuffer groups variables into one named buffer. It appears only
// in flattened programs.
type ConstantBuffer struct {
	Name    string
	Members []*Variable
	Span    Span
}

func (c *ConstantBuffer) Pos() Span        { return c.Span }
func (c *ConstantBuffer) DeclName() string { return c.Name }
func (c *ConstantBuffer) memberNode()      {}

func findAttribute(attrs []*Attribute, name string) *Attribute {
	for _, a := range attrs {
		if a.Name == name {
			return a
		}
	}
	return nil
}

// StreamsVar is the implicit declaration bound to the streams keyword.
var StreamsVar = &Variable{
	Name: "streams",
	Type: &TypeName{Name: "Streams", Class: ClassStreams},
}
