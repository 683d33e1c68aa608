package ast

import "strings"

// Printer renders nodes as source text.
type Printer struct {
	// Indent is the per-level indentation. Empty means a tab.
	Indent string

	// Name maps identifiers before they are written. Nil keeps them.
	Name func(string) string

	// Qualifiers masks the qualifiers written on declarations.
	Qualifiers Qualifier

	// Attributes enables writing [Name(args)] annotations.
	Attributes bool
}

// DefaultPrinter writes every qualifier and attribute.
var DefaultPrinter = &Printer{Qualifiers: ^Qualifier(0), Attributes: true}

// ExprString renders e with the default printer.
func ExprString(e Expr) string { return DefaultPrinter.Expr(e) }

// StmtString renders s with the default printer.
func StmtString(s Stmt) string {
	var sb strings.Builder
	DefaultPrinter.WriteStmt(&sb, s, 0)
	return sb.String()
}

func (p *Printer) name(s string) string {
	if p.Name == nil {
		return s
	}
	return p.Name(s)
}

func (p *Printer) indent(sb *strings.Builder, depth int) {
	in := p.Indent
	if in == "" {
		in = "\t"
	}
	for i := 0; i < depth; i++ {
		sb.WriteString(in)
	}
}

// Type renders a type without array dimensions.
func (p *Printer) Type(t Type) string {
	switch t := t.(type) {
	case *TypeName:
		if len(t.Args) == 0 {
			return p.name(t.Name)
		}
		return p.name(t.Name) + "<" + strings.Join(t.Args, ", ") + ">"
	case *ArrayType:
		return p.Type(t.Elem)
	case nil:
		return "void"
	}
	return t.String()
}

func (p *Printer) dims(t Type) string {
	a, ok := t.(*ArrayType)
	if !ok {
		return ""
	}
	var sb strings.Builder
	for _, d := range a.Dims {
		sb.WriteByte('[')
		if d != nil {
			sb.WriteString(p.Expr(d))
		}
		sb.WriteByte(']')
	}
	return sb.String()
}

func (p *Printer) attributes(sb *strings.Builder, attrs []*Attribute) {
	if !p.Attributes {
		return
	}
	for _, a := range attrs {
		sb.WriteByte('[')
		sb.WriteString(a.Name)
		if len(a.Args) > 0 {
			sb.WriteByte('(')
			for i, arg := range a.Args {
				if i > 0 {
					sb.WriteString(", ")
				}
				sb.WriteByte('"')
				sb.WriteString(arg)
				sb.WriteByte('"')
			}
			sb.WriteByte(')')
		}
		sb.WriteString("] ")
	}
}

// Variable renders a declaration without the trailing semicolon.
func (p *Printer) Variable(v *Variable) string {
	var sb strings.Builder
	p.attributes(&sb, v.Attributes)
	if q := (v.Qualifiers & p.Qualifiers).String(); q != "" {
		sb.WriteString(q)
		sb.WriteByte(' ')
	}
	sb.WriteString(p.Type(v.Type))
	sb.WriteByte(' ')
	sb.WriteString(p.name(v.Name))
	sb.WriteString(p.dims(v.Type))
	if v.Semantic != "" {
		sb.WriteString(" : ")
		sb.WriteString(v.Semantic)
	}
	if v.Init != nil {
		sb.WriteString(" = ")
		sb.WriteString(p.Expr(v.Init))
	}
	return sb.String()
}

// WriteMethod renders a method declaration or definition.
func (p *Printer) WriteMethod(sb *strings.Builder, m *Method, depth int) {
	p.indent(sb, depth)
	p.attributes(sb, m.Attributes)
	if q := (m.Qualifiers & p.Qualifiers).String(); q != "" {
		sb.WriteString(q)
		sb.WriteByte(' ')
	}
	sb.WriteString(p.Type(m.ReturnType))
	sb.WriteByte(' ')
	sb.WriteString(p.name(m.Name))
	sb.WriteByte('(')
	for i, param := range m.Params {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(p.Variable(param))
	}
	sb.WriteByte(')')
	if m.Semantic != "" {
		sb.WriteString(" : ")
		sb.WriteString(m.Semantic)
	}
	if m.Body == nil {
		sb.WriteString(";\n")
		return
	}
	sb.WriteByte('\n')
	p.WriteStmt(sb, m.Body, depth)
}

// WriteMember renders a fragment or program member.
func (p *Printer) WriteMember(sb *strings.Builder, m Member, depth int) {
	switch m := m.(type) {
	case *Variable:
		p.indent(sb, depth)
		sb.WriteString(p.Variable(m))
		sb.WriteString(";\n")
	case *Method:
		p.WriteMethod(sb, m, depth)
	case *StructDecl:
		p.indent(sb, depth)
		sb.WriteString("struct ")
		sb.WriteString(p.name(m.Name))
		sb.WriteString("\n")
		p.indent(sb, depth)
		sb.WriteString("{\n")
		for _, f := range m.Fields {
			p.indent(sb, depth+1)
			sb.WriteString(p.Variable(f))
			sb.WriteString(";\n")
		}
		p.indent(sb, depth)
		sb.WriteString("};\n")
	case *Typedef:
		p.indent(sb, depth)
		sb.WriteString("typedef ")
		sb.WriteString(p.Type(m.Type))
		sb.WriteByte(' ')
		sb.WriteString(p.name(m.Name))
		sb.WriteString(p.dims(m.Type))
		sb.WriteString(";\n")
	case *ConstantBuffer:
		p.indent(sb, depth)
		sb.WriteString("cbuffer ")
		sb.WriteString(p.name(m.Name))
		sb.WriteString("\n")
		p.indent(sb, depth)
		sb.WriteString("{\n")
		for _, v := range m.Members {
			p.indent(sb, depth+1)
			sb.WriteString(p.Variable(v))
			sb.WriteString(";\n")
		}
		p.indent(sb, depth)
		sb.WriteString("};\n")
	}
}

// WriteStmt renders a statement at the given depth.
func (p *Printer) WriteStmt(sb *strings.Builder, s Stmt, depth int) {
	switch s := s.(type) {
	case *BlockStmt:
		p.indent(sb, depth)
		sb.WriteString("{\n")
		for _, st := range s.Stmts {
			p.WriteStmt(sb, st, depth+1)
		}
		p.indent(sb, depth)
		sb.WriteString("}\n")
	case *ExprStmt:
		p.indent(sb, depth)
		sb.WriteString(p.Expr(s.X))
		sb.WriteString(";\n")
	case *DeclStmt:
		for _, v := range s.Vars {
			p.indent(sb, depth)
			sb.WriteString(p.Variable(v))
			sb.WriteString(";\n")
		}
	case *ReturnStmt:
		p.indent(sb, depth)
		sb.WriteString("return")
		if s.Value != nil {
			sb.WriteByte(' ')
			sb.WriteString(p.Expr(s.Value))
		}
		sb.WriteString(";\n")
	case *IfStmt:
		p.indent(sb, depth)
		sb.WriteString("if (")
		sb.WriteString(p.Expr(s.Cond))
		sb.WriteString(")\n")
		p.body(sb, s.Then, depth)
		if s.Else != nil {
			p.indent(sb, depth)
			sb.WriteString("else\n")
			p.body(sb, s.Else, depth)
		}
	case *ForStmt:
		p.indent(sb, depth)
		sb.WriteString("for (")
		sb.WriteString(p.inlineStmt(s.Init))
		sb.WriteString("; ")
		if s.Cond != nil {
			sb.WriteString(p.Expr(s.Cond))
		}
		sb.WriteString("; ")
		if s.Post != nil {
			sb.WriteString(p.Expr(s.Post))
		}
		sb.WriteString(")\n")
		p.body(sb, s.Body, depth)
	case *ForEachStmt:
		p.indent(sb, depth)
		sb.WriteString("foreach (")
		sb.WriteString(p.Variable(s.Var))
		sb.WriteString(" in ")
		sb.WriteString(p.Expr(s.Collection))
		sb.WriteString(")\n")
		p.body(sb, s.Body, depth)
	case *WhileStmt:
		p.indent(sb, depth)
		if s.Do {
			sb.WriteString("do\n")
			p.body(sb, s.Body, depth)
			p.indent(sb, depth)
			sb.WriteString("while (")
			sb.WriteString(p.Expr(s.Cond))
			sb.WriteString(");\n")
			return
		}
		sb.WriteString("while (")
		sb.WriteString(p.Expr(s.Cond))
		sb.WriteString(")\n")
		p.body(sb, s.Body, depth)
	case *BranchStmt:
		p.indent(sb, depth)
		sb.WriteString(s.Kind.String())
		sb.WriteString(";\n")
	}
}

func (p *Printer) body(sb *strings.Builder, s Stmt, depth int) {
	if _, ok := s.(*BlockStmt); ok {
		p.WriteStmt(sb, s, depth)
		return
	}
	p.WriteStmt(sb, s, depth+1)
}

func (p *Printer) inlineStmt(s Stmt) string {
	switch s := s.(type) {
	case *DeclStmt:
		parts := make([]string, len(s.Vars))
		for i, v := range s.Vars {
			parts[i] = p.Variable(v)
		}
		return strings.Join(parts, ", ")
	case *ExprStmt:
		return p.Expr(s.X)
	}
	return ""
}

// Expr renders an expression.
func (p *Printer) Expr(e Expr) string {
	switch e := e.(type) {
	case nil:
		return ""
	case *Ident:
		return p.name(e.Name)
	case *Literal:
		if e.Kind == LitString {
			return `"` + e.Value + `"`
		}
		return e.Value
	case *MemberExpr:
		return p.Expr(e.X) + "." + p.name(e.Member)
	case *IndexExpr:
		return p.Expr(e.X) + "[" + p.Expr(e.Index) + "]"
	case *CallExpr:
		args := make([]string, len(e.Args))
		for i, a := range e.Args {
			args[i] = p.Expr(a)
		}
		return p.Expr(e.Fun) + "(" + strings.Join(args, ", ") + ")"
	case *BinaryExpr:
		return p.Expr(e.X) + " " + e.Op + " " + p.Expr(e.Y)
	case *UnaryExpr:
		if e.Postfix {
			return p.Expr(e.X) + e.Op
		}
		return e.Op + p.Expr(e.X)
	case *AssignExpr:
		return p.Expr(e.Lhs) + " " + e.Op + " " + p.Expr(e.Rhs)
	case *CondExpr:
		return p.Expr(e.Cond) + " ? " + p.Expr(e.Then) + " : " + p.Expr(e.Else)
	case *ParenExpr:
		return "(" + p.Expr(e.X) + ")"
	case *InitList:
		elems := make([]string, len(e.Elems))
		for i, x := range e.Elems {
			elems[i] = p.Expr(x)
		}
		return "{" + strings.Join(elems, ", ") + "}"
	}
	return ""
}
