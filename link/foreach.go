package link

import (
	"strconv"

	"github.com/gogpu/mixer/ast"
	"github.com/gogpu/mixer/diag"
)

func intType() *ast.TypeName { return &ast.TypeName{Name: "int", Class: ast.ClassValue} }

// countingLoop returns for (int iter = 0; iter < n; ++iter) body.
func countingLoop(iter *ast.Variable, n int, body *ast.BlockStmt, span ast.Span) *ast.ForStmt {
	ref := func() *ast.Ident { return &ast.Ident{Name: iter.Name, Decl: iter} }
	return &ast.ForStmt{
		Init: &ast.DeclStmt{Vars: []*ast.Variable{iter}, Span: span},
		Cond: &ast.BinaryExpr{Op: "<", X: ref(), Y: ast.IntLit(strconv.Itoa(n))},
		Post: &ast.UnaryExpr{Op: "++", X: ref()},
		Body: body,
		Span: span,
	}
}

// expandExternForEach rewrites every foreach over a compose array into a
// counting loop bounded by the number of bound compositions. The loop body
// dispatches on the index to a copy of the original body where the loop
// variable is replaced by the indexed composition.
func (l *linker) expandExternForEach() {
	for _, top := range l.tops {
		for _, m := range top.members {
			for _, fn := range m.frag.Methods() {
				if fn.Body != nil {
					l.expandExternIn(m, fn.Body)
				}
			}
		}
	}
}

func (l *linker) expandExternIn(m *mixin, root ast.Stmt) {
	type hit struct {
		fe     *ast.ForEachStmt
		parent ast.Node
		v      *ast.Variable
	}
	var hits []hit
	ast.Inspect(root, func(n, parent ast.Node) bool {
		fe, ok := n.(*ast.ForEachStmt)
		if !ok {
			return true
		}
		if v := externArray(m, fe.Collection); v != nil {
			hits = append(hits, hit{fe, parent, v})
			return false
		}
		return true
	})
	for _, h := range hits {
		loop := l.unrollExtern(h.fe, h.v)
		ast.ReplaceStmt(h.parent, h.fe, loop)
		l.expandExternIn(m, loop)
	}
}

// externArray returns the compose array a foreach collection names.
func externArray(m *mixin, coll ast.Expr) *ast.Variable {
	var name string
	switch c := ast.Unparen(coll).(type) {
	case *ast.Ident:
		name = c.Name
	case *ast.MemberExpr:
		id, ok := c.X.(*ast.Ident)
		if !ok || id.Name != "this" {
			return nil
		}
		name = c.Member
	default:
		return nil
	}
	v := m.lookupVar(name)
	if v == nil || !v.Is(ast.QualExtern) || !isArray(v) {
		return nil
	}
	return v
}

func (l *linker) unrollExtern(fe *ast.ForEachStmt, v *ast.Variable) ast.Stmt {
	n := len(l.comps[v])
	if n == 0 {
		return &ast.BlockStmt{Span: fe.Span}
	}
	iter := &ast.Variable{Name: fe.Var.Name + "Iter", Type: intType(), Init: ast.IntLit("0"), Span: fe.Span}

	var chain ast.Stmt
	for i := n - 1; i >= 0; i-- {
		body := ast.CloneStmt(fe.Body)
		elem := func() ast.Expr {
			return &ast.IndexExpr{X: ast.CloneExpr(fe.Collection), Index: ast.IntLit(strconv.Itoa(i))}
		}
		type ref struct {
			id     *ast.Ident
			parent ast.Node
		}
		var refs []ref
		ast.Inspect(body, func(n, parent ast.Node) bool {
			if id, ok := n.(*ast.Ident); ok && id.Name == fe.Var.Name {
				refs = append(refs, ref{id, parent})
			}
			return true
		})
		for _, r := range refs {
			ast.ReplaceExpr(r.parent, r.id, elem())
		}
		chain = &ast.IfStmt{
			Cond: &ast.BinaryExpr{Op: "==", X: &ast.Ident{Name: iter.Name, Decl: iter}, Y: ast.IntLit(strconv.Itoa(i))},
			Then: asBlock(body),
			Else: chain,
			Span: fe.Span,
		}
	}
	return countingLoop(iter, n, &ast.BlockStmt{Stmts: []ast.Stmt{chain}, Span: fe.Span}, fe.Span)
}

func asBlock(s ast.Stmt) *ast.BlockStmt {
	if b, ok := s.(*ast.BlockStmt); ok {
		return b
	}
	return &ast.BlockStmt{Stmts: []ast.Stmt{s}, Span: s.Pos()}
}

// expandValueForEach rewrites the remaining foreach statements, which
// iterate over value arrays, into counting loops declaring the loop
// variable from the indexed element.
func (l *linker) expandValueForEach(methods []*ast.Method) {
	for _, fn := range methods {
		if fn.Body == nil {
			continue
		}
		type hit struct {
			fe     *ast.ForEachStmt
			parent ast.Node
		}
		var hits []hit
		ast.Inspect(fn.Body, func(n, parent ast.Node) bool {
			if fe, ok := n.(*ast.ForEachStmt); ok {
				hits = append(hits, hit{fe, parent})
			}
			return true
		})
		// Inner loops first, so replacing an outer loop keeps them.
		for i := len(hits) - 1; i >= 0; i-- {
			h := hits[i]
			if loop := l.valueLoop(fn, h.fe); loop != nil {
				ast.ReplaceStmt(h.parent, h.fe, loop)
			}
		}
	}
}

func (l *linker) valueLoop(fn *ast.Method, fe *ast.ForEachStmt) ast.Stmt {
	var decl ast.Decl
	switch c := ast.Unparen(fe.Collection).(type) {
	case *ast.Ident:
		decl = c.Decl
	case *ast.MemberExpr:
		decl = c.Decl
	}
	coll, _ := decl.(*ast.Variable)
	var at *ast.ArrayType
	if coll != nil {
		at, _ = coll.Type.(*ast.ArrayType)
	}
	var dim *ast.Literal
	if at != nil && len(at.Dims) == 1 {
		dim, _ = at.Dims[0].(*ast.Literal)
	}
	if dim == nil || dim.Kind != ast.LitInt {
		l.log.Error(diag.ErrUnsupportedForEach, fe.Span,
			"foreach in %s needs an array with one literal dimension, got %s", fn.Name, ast.ExprString(fe.Collection))
		return nil
	}
	n, err := strconv.Atoi(dim.Value)
	if err != nil {
		l.log.Error(diag.ErrUnsupportedForEach, fe.Span, "foreach in %s: bad dimension %s", fn.Name, dim.Value)
		return nil
	}

	iter := &ast.Variable{Name: fe.Var.Name + "Iter", Type: intType(), Init: ast.IntLit("0"), Span: fe.Span}
	elem := fe.Var
	if tn, ok := elem.Type.(*ast.TypeName); !ok || tn.Name == "var" {
		elem.Type = ast.CloneType(at.Elem)
	}
	elem.Init = &ast.IndexExpr{X: ast.CloneExpr(fe.Collection), Index: &ast.Ident{Name: iter.Name, Decl: iter}}

	body := &ast.BlockStmt{Stmts: []ast.Stmt{&ast.DeclStmt{Vars: []*ast.Variable{elem}, Span: fe.Span}}, Span: fe.Span}
	if b, ok := fe.Body.(*ast.BlockStmt); ok {
		body.Stmts = append(body.Stmts, b.Stmts...)
	} else if fe.Body != nil {
		body.Stmts = append(body.Stmts, fe.Body)
	}
	return countingLoop(iter, n, body, fe.Span)
}
