package link

import (
	"fmt"
	"strconv"

	"github.com/gogpu/mixer/ast"
	"github.com/gogpu/mixer/diag"
)

type callKind uint8

const (
	callThis callKind = iota
	callBase
	callStatic
	callExtern
)

// callSite is a call to a fragment method whose final target depends on
// the whole link.
type callSite struct {
	call   *ast.CallExpr
	caller *mixin
	method *ast.Method
	kind   callKind
	target *ast.Method
	// comp is the composition instance of a callExtern.
	comp *mixin
	// via is the compose variable of a callExtern.
	via *ast.Variable
}

// binder resolves names inside one instance.
type binder struct {
	l      *linker
	m      *mixin
	method *ast.Method
	scopes []map[string]*ast.Variable
}

// bindAll binds every instance, including static instances created while
// binding.
func (l *linker) bindAll() {
	for i := 0; i < len(l.tops); i++ {
		for _, m := range l.tops[i].members {
			b := &binder{l: l, m: m}
			b.fragment()
		}
	}
}

func (b *binder) fragment() {
	for _, v := range b.m.frag.Variables() {
		if v.Init != nil && !isStageInit(v) {
			b.expr(v.Init, v)
		}
	}
	for _, fn := range b.m.frag.Methods() {
		if fn.Body == nil {
			continue
		}
		b.method = fn
		b.push()
		for _, p := range fn.Params {
			b.declare(p)
		}
		b.stmt(fn.Body)
		b.pop()
	}
	b.method = nil
}

func (b *binder) push() { b.scopes = append(b.scopes, make(map[string]*ast.Variable)) }
func (b *binder) pop()  { b.scopes = b.scopes[:len(b.scopes)-1] }

func (b *binder) declare(v *ast.Variable) {
	b.scopes[len(b.scopes)-1][v.Name] = v
}

func (b *binder) local(name string) *ast.Variable {
	for i := len(b.scopes) - 1; i >= 0; i-- {
		if v, ok := b.scopes[i][name]; ok {
			return v
		}
	}
	return nil
}

func (b *binder) errorf(code diag.Code, span ast.Span, format string, args ...any) {
	b.l.log.Add(&diag.Message{
		Severity: diag.SeverityError,
		Code:     code,
		Span:     span,
		Source:   b.m.name,
		Text:     fmt.Sprintf(format, args...),
	})
}

func (b *binder) stmt(s ast.Stmt) {
	switch s := s.(type) {
	case nil:
	case *ast.BlockStmt:
		b.push()
		for _, st := range s.Stmts {
			b.stmt(st)
		}
		b.pop()
	case *ast.ExprStmt:
		b.expr(s.X, s)
	case *ast.DeclStmt:
		for _, v := range s.Vars {
			b.dims(v)
			if v.Init != nil {
				b.expr(v.Init, v)
			}
			b.declare(v)
		}
	case *ast.ReturnStmt:
		if s.Value != nil {
			b.expr(s.Value, s)
		}
	case *ast.IfStmt:
		b.expr(s.Cond, s)
		b.stmt(s.Then)
		b.stmt(s.Else)
	case *ast.ForStmt:
		b.push()
		b.stmt(s.Init)
		if s.Cond != nil {
			b.expr(s.Cond, s)
		}
		if s.Post != nil {
			b.expr(s.Post, s)
		}
		b.stmt(s.Body)
		b.pop()
	case *ast.ForEachStmt:
		b.expr(s.Collection, s)
		b.push()
		b.declare(s.Var)
		b.stmt(s.Body)
		b.pop()
	case *ast.WhileStmt:
		b.expr(s.Cond, s)
		b.stmt(s.Body)
	}
}

func (b *binder) dims(v *ast.Variable) {
	at, ok := v.Type.(*ast.ArrayType)
	if !ok {
		return
	}
	for _, d := range at.Dims {
		if d != nil {
			b.expr(d, at)
		}
	}
}

func (b *binder) expr(e ast.Expr, parent ast.Node) {
	switch e := e.(type) {
	case nil, *ast.Literal:
	case *ast.Ident:
		b.ident(e, parent)
	case *ast.MemberExpr:
		b.member(e, parent)
	case *ast.IndexExpr:
		b.expr(e.X, e)
		b.expr(e.Index, e)
	case *ast.CallExpr:
		b.call(e)
	case *ast.BinaryExpr:
		b.expr(e.X, e)
		b.expr(e.Y, e)
	case *ast.UnaryExpr:
		b.expr(e.X, e)
	case *ast.AssignExpr:
		b.expr(e.Lhs, e)
		b.expr(e.Rhs, e)
	case *ast.CondExpr:
		b.expr(e.Cond, e)
		b.expr(e.Then, e)
		b.expr(e.Else, e)
	case *ast.ParenExpr:
		b.expr(e.X, e)
	case *ast.InitList:
		for _, el := range e.Elems {
			b.expr(el, e)
		}
	}
}

func (b *binder) ident(e *ast.Ident, parent ast.Node) {
	if v := b.local(e.Name); v != nil {
		e.Decl = v
		return
	}
	if e.Name == ast.StreamsVar.Name {
		e.Decl = ast.StreamsVar
		return
	}
	if v := b.m.lookupVar(e.Name); v != nil {
		b.ref(e, parent, v)
	}
}

// ref binds a member variable reference and records it in the pool of
// the referencing composition.
func (b *binder) ref(e ast.Expr, parent ast.Node, v *ast.Variable) {
	setDecl(e, v)
	if v.Is(ast.QualExtern) {
		return
	}
	b.m.top.pool.InsertVariable(v, &Site{Expr: e, Parent: parent})
}

func setDecl(e ast.Expr, v *ast.Variable) {
	switch e := e.(type) {
	case *ast.Ident:
		e.Decl = v
	case *ast.MemberExpr:
		e.Decl = v
	}
}

// qualifier returns the name x stands for when it is an identifier that
// is neither a local nor a member variable.
func (b *binder) qualifier(x ast.Expr) (*ast.Ident, bool) {
	id, ok := ast.Unparen(x).(*ast.Ident)
	if !ok || b.local(id.Name) != nil || b.m.lookupVar(id.Name) != nil {
		return nil, false
	}
	return id, true
}

// scope returns the instance a fragment-qualified access refers to: an
// ancestor of the current instance, or the shared static instance.
func (b *binder) scope(name string) *mixin {
	if a := b.m.ancestor(name); a != nil {
		return a
	}
	return b.l.static(name)
}

// composition returns the instance the expression x denotes when x names
// a compose variable, an element of a compose array, or a compose
// variable of another composition. v is the compose variable; the
// instance is nil when nothing is bound at that position.
func (b *binder) composition(x ast.Expr) (comp *mixin, v *ast.Variable) {
	idx := 0
	switch x := ast.Unparen(x).(type) {
	case *ast.Ident:
		if b.local(x.Name) != nil {
			return nil, nil
		}
		v = b.m.lookupVar(x.Name)
		if v == nil || !v.Is(ast.QualExtern) {
			return nil, nil
		}
		x.Decl = v
	case *ast.IndexExpr:
		id, ok := ast.Unparen(x.X).(*ast.Ident)
		if !ok || b.local(id.Name) != nil {
			return nil, nil
		}
		v = b.m.lookupVar(id.Name)
		if v == nil || !v.Is(ast.QualExtern) {
			return nil, nil
		}
		id.Decl = v
		lit, ok := ast.Unparen(x.Index).(*ast.Literal)
		if !ok || lit.Kind != ast.LitInt {
			b.errorf(diag.ErrVariableNotFound, x.Span, "composition array %s indexed by %s", v.Name, ast.ExprString(x.Index))
			return nil, v
		}
		n, err := strconv.Atoi(lit.Value)
		if err != nil {
			return nil, v
		}
		idx = n
	case *ast.MemberExpr:
		outer, ov := b.composition(x.X)
		if outer == nil {
			if ov != nil {
				return nil, ov
			}
			return nil, nil
		}
		v = outer.lookupVar(x.Member)
		if v == nil || !v.Is(ast.QualExtern) {
			return nil, nil
		}
		x.Decl = v
	default:
		return nil, nil
	}
	list := b.l.comps[v]
	if idx < 0 || idx >= len(list) {
		return nil, v
	}
	return list[idx], v
}

func (b *binder) member(e *ast.MemberExpr, parent ast.Node) {
	if id, ok := ast.Unparen(e.X).(*ast.Ident); ok && b.local(id.Name) == nil {
		switch id.Name {
		case ast.StreamsVar.Name:
			id.Decl = ast.StreamsVar
			v := b.m.lookupVar(e.Member)
			if v == nil || !v.IsStream() {
				v = b.l.findStream(e.Member)
			}
			if v == nil {
				b.errorf(diag.ErrVariableNotFound, e.Span, "stream member %s is not declared", e.Member)
				return
			}
			b.ref(e, parent, v)
			return
		case "this":
			v := b.m.lookupVar(e.Member)
			if v == nil {
				b.errorf(diag.ErrVariableNotFound, e.Span, "member %s is not declared", e.Member)
				return
			}
			b.ref(e, parent, v)
			return
		}
	}

	if comp, v := b.composition(e.X); v != nil {
		if comp == nil {
			b.errorf(diag.ErrVariableNotFound, e.Span, "nothing is bound to %s", ast.ExprString(e.X))
			return
		}
		target := comp.lookupVar(e.Member)
		if target == nil && isStageInit(v) {
			target = b.l.bySemantic(comp, e.Member)
			if target != nil {
				b.l.log.Warning(diag.WarnUseSemanticType, e.Span, "%s.%s matched %s by semantic", v.Name, e.Member, target.Name)
			}
		}
		if target == nil {
			code := diag.ErrVariableNotFound
			if isStageInit(v) {
				code = diag.ErrStageMixinVariableNotFound
			}
			b.errorf(code, e.Span, "%s has no member %s", comp.name, e.Member)
			return
		}
		b.ref(e, parent, target)
		return
	}

	if id, ok := b.qualifier(e.X); ok {
		if target := b.scope(id.Name); target != nil {
			id.Decl = target.frag
			v := target.lookupVar(e.Member)
			if v == nil {
				b.errorf(diag.ErrVariableNotFound, e.Span, "%s has no member %s", target.name, e.Member)
				return
			}
			b.ref(e, parent, v)
			return
		}
	}
	b.expr(e.X, e)
}

func (b *binder) call(e *ast.CallExpr) {
	for _, arg := range e.Args {
		b.expr(arg, e)
	}
	arity := len(e.Args)
	switch fun := e.Fun.(type) {
	case *ast.Ident:
		if b.local(fun.Name) != nil {
			return
		}
		if target := b.m.lookupMethod(fun.Name, arity); target != nil {
			b.site(e, callThis, target, nil, nil)
		}
		return
	case *ast.MemberExpr:
		if id, ok := ast.Unparen(fun.X).(*ast.Ident); ok && b.local(id.Name) == nil {
			switch id.Name {
			case "base":
				target := b.m.ancestorMethod(fun.Member, arity)
				if target == nil {
					b.errorf(diag.ErrImpossibleBaseCall, e.Span, "no base method %s in %s", fun.Member, b.m.name)
					return
				}
				b.site(e, callBase, target, nil, nil)
				return
			case "this":
				target := b.m.lookupMethod(fun.Member, arity)
				if target == nil {
					b.errorf(diag.ErrCallNotFound, e.Span, "method %s is not declared", fun.Member)
					return
				}
				b.site(e, callThis, target, nil, nil)
				return
			}
		}

		if comp, v := b.composition(fun.X); v != nil {
			code := diag.ErrCallNotFound
			if isStageInit(v) {
				code = diag.ErrStageMixinMethodNotFound
			}
			if comp == nil {
				b.errorf(code, e.Span, "nothing is bound to %s", ast.ExprString(fun.X))
				return
			}
			target := comp.lookupMethod(fun.Member, arity)
			if target == nil {
				b.errorf(code, e.Span, "%s has no method %s", comp.name, fun.Member)
				return
			}
			b.site(e, callExtern, target, comp, v)
			return
		}

		if id, ok := b.qualifier(fun.X); ok {
			if target := b.scope(id.Name); target != nil {
				id.Decl = target.frag
				fn := target.lookupMethod(fun.Member, arity)
				if fn == nil {
					b.errorf(diag.ErrCallNotFound, e.Span, "%s has no method %s", target.name, fun.Member)
					return
				}
				e.Static = true
				b.site(e, callStatic, fn, target, nil)
				return
			}
		}
		b.expr(fun.X, fun)
	}
}

func (b *binder) site(e *ast.CallExpr, kind callKind, target *ast.Method, comp *mixin, via *ast.Variable) {
	e.Decl = target
	b.l.calls = append(b.l.calls, &callSite{
		call:   e,
		caller: b.m,
		method: b.method,
		kind:   kind,
		target: target,
		comp:   comp,
		via:    via,
	})
}

// findStream returns the first stream variable named name declared by any
// instance of the link, in inheritance order.
func (l *linker) findStream(name string) *ast.Variable {
	for _, m := range l.order {
		if v := m.frag.Variable(name); v != nil && v.IsStream() {
			return v
		}
	}
	return nil
}

// bySemantic returns the stage variable visible from m whose semantic
// matches sem.
func (l *linker) bySemantic(m *mixin, sem string) *ast.Variable {
	for _, x := range m.hierarchy() {
		for _, v := range x.frag.Variables() {
			if v.Is(ast.QualStage) && v.Semantic != "" && sameSemantic(v.Semantic, sem) {
				return v
			}
		}
	}
	return nil
}
