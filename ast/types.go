package ast

import "strings"

// Type is a type expression.
type Type interface {
	Node
	String() string
	typeNode()
}

// TypeClass classifies a named type.
type TypeClass uint8

const (
	// ClassNamed is a user type: struct, typedef, fragment or generic parameter.
	ClassNamed TypeClass = iota
	// ClassValue is a scalar, vector or matrix.
	ClassValue
	ClassSampler
	ClassTexture
	// ClassObject is any other resource object (buffers, stream outputs).
	ClassObject
	// ClassStreams is the streams record type.
	ClassStreams
)

// TypeName is a possibly generic named type, e.g. float4 or Texture2D<float4>.
type TypeName struct {
	Name  string
	Args  []string
	Class TypeClass
	Span  Span
}

func (t *TypeName) Pos() Span { return t.Span }
func (t *TypeName) typeNode() {}

func (t *TypeName) String() string {
	if len(t.Args) == 0 {
		return t.Name
	}
	return t.Name + "<" + strings.Join(t.Args, ",") + ">"
}

// ArrayType is an array of Elem. A nil dimension is unsized.
type ArrayType struct {
	Elem Type
	Dims []Expr
	Span Span
}

func (a *ArrayType) Pos() Span { return a.Span }
func (a *ArrayType) typeNode() {}

func (a *ArrayType) String() string {
	var sb strings.Builder
	sb.WriteString(a.Elem.String())
	for _, d := range a.Dims {
		sb.WriteByte('[')
		if lit, ok := d.(*Literal); ok {
			sb.WriteString(lit.Value)
		}
		sb.WriteByte(']')
	}
	return sb.String()
}

// ElemType strips array dimensions.
func ElemType(t Type) Type {
	if a, ok := t.(*ArrayType); ok {
		return a.Elem
	}
	return t
}

// IsObjectType reports whether t is a sampler, texture or other resource type.
func IsObjectType(t Type) bool {
	tn, ok := ElemType(t).(*TypeName)
	if !ok {
		return false
	}
	switch tn.Class {
	case ClassSampler, ClassTexture, ClassObject:
		return true
	}
	return false
}

// IsStreamsType reports whether t is the streams record type.
func IsStreamsType(t Type) bool {
	tn, ok := ElemType(t).(*TypeName)
	return ok && tn.Class == ClassStreams
}

var scalarNames = []string{"bool", "int", "uint", "dword", "half", "float", "double", "min16float", "min16int", "min16uint"}

// ClassifyType returns the class of a type by its name.
func ClassifyType(name string) TypeClass {
	switch name {
	case "void":
		return ClassValue
	case "Streams":
		return ClassStreams
	case "SamplerState", "SamplerComparisonState", "sampler":
		return ClassSampler
	}
	if strings.HasPrefix(name, "Texture") || strings.HasPrefix(name, "RWTexture") {
		return ClassTexture
	}
	if strings.HasSuffix(name, "Buffer") || strings.HasSuffix(name, "Stream") ||
		strings.HasSuffix(name, "Patch") {
		return ClassObject
	}
	for _, s := range scalarNames {
		if !strings.HasPrefix(name, s) {
			continue
		}
		rest := name[len(s):]
		if rest == "" || isVectorSuffix(rest) {
			return ClassValue
		}
	}
	if name == "vector" || name == "matrix" {
		return ClassValue
	}
	return ClassNamed
}

func isVectorSuffix(s string) bool {
	switch len(s) {
	case 1:
		return s[0] >= '1' && s[0] <= '4'
	case 3:
		return s[0] >= '1' && s[0] <= '4' && s[1] == 'x' && s[2] >= '1' && s[2] <= '4'
	}
	return false
}
