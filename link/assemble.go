package link

import (
	"github.com/gogpu/mixer/ast"
	"github.com/gogpu/mixer/streams"
)

// outOfBuffer reports whether v must be declared at top level: resources,
// constants and statics cannot live in a constant buffer.
func outOfBuffer(v *ast.Variable) bool {
	return ast.IsObjectType(v.Type) || v.Is(ast.QualConst) || v.Is(ast.QualStatic)
}

// keepInBuffer reports whether v belongs in a constant buffer.
func keepInBuffer(v *ast.Variable) bool {
	return !v.Is(ast.QualExtern) && !v.IsStream() && !outOfBuffer(v)
}

func (l *linker) assemble() *Program {
	p := &Program{
		Name:        l.root.name,
		EntryPoints: l.entries,
		refs:        l.pool,
	}

	types := make(map[string]bool)
	for _, m := range append(append([]*mixin(nil), l.order...), l.staticMembers()...) {
		if m.occurrence != 1 {
			continue
		}
		for _, mem := range m.frag.Members {
			switch mem := mem.(type) {
			case *ast.Typedef, *ast.StructDecl:
				name := mem.(ast.Decl).DeclName()
				if !types[name] {
					types[name] = true
					p.Members = append(p.Members, mem)
				}
			}
		}
	}

	var (
		explicit []*ast.ConstantBuffer
		buffers  = make(map[string]*ast.ConstantBuffer)
		globals  = &ast.ConstantBuffer{Name: l.opts.DefaultBuffer}
		top      []*ast.Variable
		streamed = make(map[string]bool)
	)
	for _, v := range l.pool.Variables() {
		switch {
		case v.Is(ast.QualExtern):
		case v.IsStream():
			if !streamed[v.Name] {
				streamed[v.Name] = true
				p.StreamVariables = append(p.StreamVariables, v)
			}
		case keepInBuffer(v) && v.CBuffer != "":
			cb := buffers[v.CBuffer]
			if cb == nil {
				cb = &ast.ConstantBuffer{Name: v.CBuffer, Span: v.Span}
				buffers[v.CBuffer] = cb
				explicit = append(explicit, cb)
			}
			cb.Members = append(cb.Members, v)
		case keepInBuffer(v):
			globals.Members = append(globals.Members, v)
		default:
			top = append(top, v)
		}
	}
	for _, cb := range append(explicit, globals) {
		if len(cb.Members) > 0 {
			p.Members = append(p.Members, cb)
		}
	}
	for _, v := range top {
		p.Members = append(p.Members, v)
	}
	methods := l.orderedMethods()
	for _, fn := range methods {
		p.Members = append(p.Members, fn)
	}

	p.Streams = streams.Analyze(methods, l.log)
	l.expandValueForEach(methods)
	if !l.opts.KeepUnusedVariables {
		l.removeUnused(p)
	}
	p.valid = !l.log.HasErrors()
	return p
}

// orderedMethods returns the definitions of the program, each after the
// methods it calls.
func (l *linker) orderedMethods() []*ast.Method {
	all := l.pool.Methods()
	in := make(map[*ast.Method]bool, len(all))
	for _, fn := range all {
		in[fn] = true
	}
	done := make(map[*ast.Method]bool, len(all))
	out := make([]*ast.Method, 0, len(all))
	var visit func(fn *ast.Method)
	visit = func(fn *ast.Method) {
		if done[fn] {
			return
		}
		done[fn] = true
		ast.Inspect(fn.Body, func(n, _ ast.Node) bool {
			if c, ok := n.(*ast.CallExpr); ok && c.Decl != nil && in[c.Decl] {
				visit(c.Decl)
			}
			return true
		})
		out = append(out, fn)
	}
	for _, fn := range all {
		if fn.IsDefinition() && !l.dropped[fn] {
			visit(fn)
		}
	}
	return out
}

// removeUnused drops member variables nothing refers to, except the flip
// flag, and constant buffers left empty.
func (l *linker) removeUnused(p *Program) {
	uses := make(map[*ast.Variable]int)
	count := func(n ast.Node) {
		ast.Inspect(n, func(n, _ ast.Node) bool {
			var d ast.Decl
			switch e := n.(type) {
			case *ast.Ident:
				d = e.Decl
			case *ast.MemberExpr:
				d = e.Decl
			}
			if v, ok := d.(*ast.Variable); ok {
				uses[v]++
			}
			return true
		})
	}
	for _, m := range p.Members {
		switch m := m.(type) {
		case *ast.Method:
			count(m.Body)
		case *ast.Variable:
			count(m.Init)
			count(m.Type)
		case *ast.ConstantBuffer:
			for _, v := range m.Members {
				count(v.Init)
				count(v.Type)
			}
		}
	}
	used := func(v *ast.Variable) bool {
		return uses[v] > 0 || v.Name == l.opts.FlipRenderTarget
	}

	members := p.Members[:0]
	for _, m := range p.Members {
		switch x := m.(type) {
		case *ast.Variable:
			if !used(x) {
				l.pool.RemoveVariable(x)
				continue
			}
		case *ast.ConstantBuffer:
			kept := x.Members[:0]
			for _, v := range x.Members {
				if used(v) {
					kept = append(kept, v)
				} else {
					l.pool.RemoveVariable(v)
				}
			}
			x.Members = kept
			if len(kept) == 0 {
				continue
			}
		}
		members = append(members, m)
	}
	p.Members = members
	l.pool.RegenerateKeys()
}
