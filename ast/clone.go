package ast

// cloner deep-copies trees. Declarations copied during one clone operation
// are remapped so that bound expressions inside the copy point at the
// copied declarations; bindings to declarations outside the copied tree are
// kept as they are.
type cloner struct {
	vars    map[*Variable]*Variable
	methods map[*Method]*Method
}

func newCloner() *cloner {
	return &cloner{
		vars:    make(map[*Variable]*Variable),
		methods: make(map[*Method]*Method),
	}
}

// CloneFragment returns a deep copy of f.
func CloneFragment(f *Fragment) *Fragment {
	if f == nil {
		return nil
	}
	c := newCloner()
	out := &Fragment{
		Name:             f.Name,
		SourceHash:       f.SourceHash,
		PreprocessedHash: f.PreprocessedHash,
		Span:             f.Span,
	}
	for _, p := range f.GenericParams {
		out.GenericParams = append(out.GenericParams, c.variable(p))
	}
	for _, b := range f.Bases {
		out.Bases = append(out.Bases, c.typeName(b))
	}
	// Declare methods first so calls bound to later methods are remapped.
	for _, m := range f.Members {
		if fn, ok := m.(*Method); ok {
			c.methods[fn] = &Method{}
		}
	}
	for _, m := range f.Members {
		out.Members = append(out.Members, c.member(m))
	}
	c.fixup(out)
	return out
}

// CloneStmt returns a deep copy of s.
func CloneStmt(s Stmt) Stmt {
	c := newCloner()
	out := c.stmt(s)
	c.fixup(out)
	return out
}

// CloneExpr returns a deep copy of e.
func CloneExpr(e Expr) Expr {
	c := newCloner()
	out := c.expr(e)
	c.fixup(out)
	return out
}

// CloneType returns a deep copy of t.
func CloneType(t Type) Type {
	return newCloner().typ(t)
}

// fixup rebinds references to declarations that were copied after the
// reference itself.
func (c *cloner) fixup(n Node) {
	Inspect(n, func(n, _ Node) bool {
		switch e := n.(type) {
		case *Ident:
			e.Decl = c.decl(e.Decl)
		case *MemberExpr:
			e.Decl = c.decl(e.Decl)
		case *CallExpr:
			if m, ok := c.methods[e.Decl]; ok {
				e.Decl = m
			}
		}
		return true
	})
}

func (c *cloner) decl(d Decl) Decl {
	switch d := d.(type) {
	case *Variable:
		if v, ok := c.vars[d]; ok {
			return v
		}
	case *Method:
		if m, ok := c.methods[d]; ok {
			return m
		}
	}
	return d
}

func (c *cloner) member(m Member) Member {
	switch m := m.(type) {
	case *Variable:
		return c.variable(m)
	case *Method:
		out := c.methods[m]
		if out == nil {
			out = &Method{}
			c.methods[m] = out
		}
		*out = Method{
			Name:       m.Name,
			ReturnType: c.typ(m.ReturnType),
			Qualifiers: m.Qualifiers,
			Semantic:   m.Semantic,
			Attributes: cloneAttributes(m.Attributes),
			Span:       m.Span,
		}
		for _, p := range m.Params {
			out.Params = append(out.Params, c.variable(p))
		}
		if m.Body != nil {
			out.Body = c.block(m.Body)
		}
		return out
	case *StructDecl:
		out := &StructDecl{Name: m.Name, Span: m.Span}
		for _, f := range m.Fields {
			out.Fields = append(out.Fields, c.variable(f))
		}
		return out
	case *Typedef:
		return &Typedef{Name: m.Name, Type: c.typ(m.Type), Span: m.Span}
	case *ConstantBuffer:
		out := &ConstantBuffer{Name: m.Name, Span: m.Span}
		for _, v := range m.Members {
			out.Members = append(out.Members, c.variable(v))
		}
		return out
	}
	return m
}

func (c *cloner) variable(v *Variable) *Variable {
	if v == nil {
		return nil
	}
	out := &Variable{
		Name:       v.Name,
		Type:       c.typ(v.Type),
		Qualifiers: v.Qualifiers,
		Semantic:   v.Semantic,
		Init:       c.expr(v.Init),
		Attributes: cloneAttributes(v.Attributes),
		CBuffer:    v.CBuffer,
		Span:       v.Span,
	}
	c.vars[v] = out
	return out
}

func cloneAttributes(attrs []*Attribute) []*Attribute {
	if attrs == nil {
		return nil
	}
	out := make([]*Attribute, len(attrs))
	for i, a := range attrs {
		out[i] = &Attribute{Name: a.Name, Args: append([]string(nil), a.Args...), Span: a.Span}
	}
	return out
}

func (c *cloner) typeName(t *TypeName) *TypeName {
	if t == nil {
		return nil
	}
	return &TypeName{Name: t.Name, Args: append([]string(nil), t.Args...), Class: t.Class, Span: t.Span}
}

func (c *cloner) typ(t Type) Type {
	switch t := t.(type) {
	case *TypeName:
		return c.typeName(t)
	case *ArrayType:
		out := &ArrayType{Elem: c.typ(t.Elem), Span: t.Span}
		for _, d := range t.Dims {
			out.Dims = append(out.Dims, c.expr(d))
		}
		return out
	}
	return t
}

func (c *cloner) block(b *BlockStmt) *BlockStmt {
	out := &BlockStmt{Span: b.Span, Stmts: make([]Stmt, 0, len(b.Stmts))}
	for _, s := range b.Stmts {
		out.Stmts = append(out.Stmts, c.stmt(s))
	}
	return out
}

func (c *cloner) stmt(s Stmt) Stmt {
	switch s := s.(type) {
	case nil:
		return nil
	case *BlockStmt:
		return c.block(s)
	case *ExprStmt:
		return &ExprStmt{X: c.expr(s.X), Span: s.Span}
	case *DeclStmt:
		out := &DeclStmt{Span: s.Span}
		for _, v := range s.Vars {
			out.Vars = append(out.Vars, c.variable(v))
		}
		return out
	case *ReturnStmt:
		return &ReturnStmt{Value: c.expr(s.Value), Span: s.Span}
	case *IfStmt:
		return &IfStmt{Cond: c.expr(s.Cond), Then: c.stmt(s.Then), Else: c.stmt(s.Else), Span: s.Span}
	case *ForStmt:
		return &ForStmt{Init: c.stmt(s.Init), Cond: c.expr(s.Cond), Post: c.expr(s.Post), Body: c.stmt(s.Body), Span: s.Span}
	case *ForEachStmt:
		return &ForEachStmt{Var: c.variable(s.Var), Collection: c.expr(s.Collection), Body: c.stmt(s.Body), Span: s.Span}
	case *WhileStmt:
		return &WhileStmt{Cond: c.expr(s.Cond), Body: c.stmt(s.Body), Do: s.Do, Span: s.Span}
	case *BranchStmt:
		return &BranchStmt{Kind: s.Kind, Span: s.Span}
	}
	return s
}

func (c *cloner) expr(e Expr) Expr {
	switch e := e.(type) {
	case nil:
		return nil
	case *Ident:
		return &Ident{Name: e.Name, Decl: e.Decl, Span: e.Span}
	case *MemberExpr:
		return &MemberExpr{X: c.expr(e.X), Member: e.Member, Decl: e.Decl, Span: e.Span}
	case *IndexExpr:
		return &IndexExpr{X: c.expr(e.X), Index: c.expr(e.Index), Span: e.Span}
	case *CallExpr:
		out := &CallExpr{Fun: c.expr(e.Fun), Decl: e.Decl, Static: e.Static, Span: e.Span}
		for _, a := range e.Args {
			out.Args = append(out.Args, c.expr(a))
		}
		return out
	case *BinaryExpr:
		return &BinaryExpr{Op: e.Op, X: c.expr(e.X), Y: c.expr(e.Y), Span: e.Span}
	case *UnaryExpr:
		return &UnaryExpr{Op: e.Op, X: c.expr(e.X), Postfix: e.Postfix, Span: e.Span}
	case *AssignExpr:
		return &AssignExpr{Op: e.Op, Lhs: c.expr(e.Lhs), Rhs: c.expr(e.Rhs), Span: e.Span}
	case *CondExpr:
		return &CondExpr{Cond: c.expr(e.Cond), Then: c.expr(e.Then), Else: c.expr(e.Else), Span: e.Span}
	case *ParenExpr:
		return &ParenExpr{X: c.expr(e.X), Span: e.Span}
	case *InitList:
		out := &InitList{Span: e.Span}
		for _, x := range e.Elems {
			out.Elems = append(out.Elems, c.expr(x))
		}
		return out
	case *Literal:
		return &Literal{Kind: e.Kind, Value: e.Value, Span: e.Span}
	}
	return e
}
