package link

import (
	"strconv"

	"github.com/gogpu/mixer/ast"
)

func uniqueName(name string, n int) string {
	return name + "_id" + strconv.Itoa(n)
}

// renameVariables suffixes every member variable with a link-wide counter
// and rewrites each reference to the bare new name. Stream members keep
// their names and are accessed through streams; the flip flag is left
// alone.
func (l *linker) renameVariables() {
	n := 0
	for _, v := range l.pool.Variables() {
		switch {
		case v.Name == l.opts.FlipRenderTarget:
			for _, s := range l.pool.VariableSites(v) {
				l.rewriteRef(s, v)
			}
		case v.IsStream():
			for _, s := range l.pool.VariableSites(v) {
				streamRef(s, v)
			}
		default:
			v.Name = uniqueName(v.Name, n)
			n++
			for _, s := range l.pool.VariableSites(v) {
				l.rewriteRef(s, v)
			}
		}
	}
}

// rewriteRef replaces a reference by an identifier naming v.
func (l *linker) rewriteRef(s *Site, v *ast.Variable) {
	switch e := s.Expr.(type) {
	case *ast.Ident:
		e.Name = v.Name
		e.Decl = v
	case *ast.MemberExpr:
		id := &ast.Ident{Name: v.Name, Decl: v, Span: e.Span}
		if ast.ReplaceExpr(s.Parent, e, id) {
			s.Expr = id
		}
	}
}

func streamsIdent(span ast.Span) *ast.Ident {
	return &ast.Ident{Name: ast.StreamsVar.Name, Decl: ast.StreamsVar, Span: span}
}

// streamRef rewrites a reference as streams.member.
func streamRef(s *Site, v *ast.Variable) {
	switch e := s.Expr.(type) {
	case *ast.Ident:
		me := &ast.MemberExpr{X: streamsIdent(e.Span), Member: v.Name, Decl: v, Span: e.Span}
		if ast.ReplaceExpr(s.Parent, e, me) {
			s.Expr = me
		}
	case *ast.MemberExpr:
		e.X = streamsIdent(e.Span)
		e.Member = v.Name
		e.Decl = v
	}
}

// renameMethods suffixes every method definition except entry points with
// a second counter and rewrites each call to the bare new name.
func (l *linker) renameMethods() {
	n := 0
	for _, fn := range l.pool.Methods() {
		if !l.isEntry(fn) {
			fn.Name = uniqueName(fn.Name, n)
			n++
		}
		for _, call := range l.pool.MethodCalls(fn) {
			call.Fun = &ast.Ident{Name: fn.Name, Span: call.Fun.Pos()}
		}
	}
}
