package link

import (
	"github.com/gogpu/mixer/ast"
	"github.com/gogpu/mixer/diag"
)

// chainEntry is one definition in a stage override chain.
type chainEntry struct {
	mixin  *mixin
	method *ast.Method
}

// chain lists the definitions of one stage method across the whole link,
// base first. Calls bind to the last entry; base calls bind to the entry
// before the caller's.
type chain struct {
	key     string
	entries []chainEntry
}

func (c *chain) last() *ast.Method { return c.entries[len(c.entries)-1].method }

type chainSet struct {
	list  []*chain
	byKey map[string]*chain
}

func newChainSet() *chainSet {
	return &chainSet{byKey: make(map[string]*chain)}
}

func (s *chainSet) get(key string) *chain { return s.byKey[key] }

func (s *chainSet) add(key string) *chain {
	c := &chain{key: key}
	s.list = append(s.list, c)
	s.byKey[key] = c
	return c
}

// declKey identifies the base declaration of fn: the fragment first
// declaring a method with the same signature in the hierarchy of the
// instance owning fn, and the signature.
func (l *linker) declKey(fn *ast.Method) string {
	sig := fn.Signature()
	owner := l.methodOwner[fn]
	if owner == nil {
		return sig
	}
	for _, m := range owner.hierarchy() {
		for _, x := range m.frag.Methods() {
			if x.Signature() == sig {
				return m.name + "::" + sig
			}
		}
	}
	return owner.name + "::" + sig
}

// buildChains collects the stage method definitions in inheritance order.
// A definition joins an existing chain only when its instance is the first
// occurrence of its fragment or the method is marked clone; other repeated
// definitions are dropped from the program.
func (l *linker) buildChains() {
	for _, m := range l.order {
		for _, fn := range m.frag.Methods() {
			if !fn.Is(ast.QualStage) || !fn.IsDefinition() {
				continue
			}
			key := l.declKey(fn)
			c := l.chains.get(key)
			switch {
			case c == nil:
				c = l.chains.add(key)
			case m.occurrence == 1 || fn.Is(ast.QualClone):
			default:
				l.dropped[fn] = true
				m.top.pool.RemoveMethod(fn)
				continue
			}
			c.entries = append(c.entries, chainEntry{mixin: m, method: fn})
		}
	}
}

// virtual returns the definition a non-base call to target made inside
// composition top executes: the last entry of its stage chain, or the most
// derived definition in the composition.
func (l *linker) virtual(top *mixin, target *ast.Method) *ast.Method {
	if target.Is(ast.QualStage) {
		if c := l.chains.get(l.declKey(target)); c != nil {
			return c.last()
		}
	}
	sig := target.Signature()
	h := top.hierarchy()
	for i := len(h) - 1; i >= 0; i-- {
		for _, fn := range h[i].frag.Methods() {
			if fn.IsDefinition() && fn.Signature() == sig {
				return fn
			}
		}
	}
	return nil
}

// baseOf returns the definition a base call to target made inside m
// executes.
func (l *linker) baseOf(m *mixin, target *ast.Method) *ast.Method {
	if target.Is(ast.QualStage) {
		if c := l.chains.get(l.declKey(target)); c != nil {
			for j, e := range c.entries {
				if e.mixin == m {
					if j == 0 {
						return nil
					}
					return c.entries[j-1].method
				}
			}
		}
	}
	sig := target.Signature()
	for i := len(m.inherit) - 1; i >= 0; i-- {
		for _, fn := range m.inherit[i].frag.Methods() {
			if fn.IsDefinition() && fn.Signature() == sig {
				return fn
			}
		}
	}
	return nil
}

// resolveCalls binds every recorded call to its final definition and
// records it in the pool of the calling composition.
func (l *linker) resolveCalls() {
	for _, s := range l.calls {
		if s.method != nil && l.dropped[s.method] {
			continue
		}
		var res *ast.Method
		code := diag.ErrImpossibleVirtualCall
		switch s.kind {
		case callThis:
			res = l.virtual(s.caller.top, s.target)
		case callBase:
			res = l.baseOf(s.caller, s.target)
			code = diag.ErrImpossibleBaseCall
		case callStatic:
			res = s.target
			if !res.IsDefinition() {
				res = l.virtual(s.comp.top, s.target)
			}
			code = diag.ErrCallToAbstractMethod
		case callExtern:
			res = l.virtual(s.comp.top, s.target)
			code = diag.ErrCallToAbstractMethod
		}
		if res == nil || !res.IsDefinition() {
			l.log.Add(&diag.Message{
				Severity: diag.SeverityError,
				Code:     code,
				Span:     s.call.Span,
				Source:   s.caller.name,
				Text:     "no definition for call to " + s.target.Signature(),
			})
			continue
		}
		s.call.Decl = res
		s.caller.top.pool.InsertMethod(res, s.call)
	}
}

// findEntryPoints locates each configured entry point: the last definition
// in inheritance order whose instance is the first of its fragment, or
// which is marked clone. A pixel entry point with an empty body does not
// count.
func (l *linker) findEntryPoints() {
	for _, name := range l.opts.EntryPoints {
		for i := len(l.order) - 1; i >= 0; i-- {
			m := l.order[i]
			var fn *ast.Method
			for _, x := range m.frag.Methods() {
				if x.Name == name && x.IsDefinition() && !l.dropped[x] {
					fn = x
				}
			}
			if fn == nil || (m.occurrence > 1 && !fn.Is(ast.QualClone)) {
				continue
			}
			if name == "PSMain" && len(fn.Body.Stmts) == 0 {
				break
			}
			l.entries[name] = fn
			break
		}
	}
}

func (l *linker) isEntry(fn *ast.Method) bool {
	for _, e := range l.entries {
		if e == fn {
			return true
		}
	}
	return false
}

// unifyStageVariables makes every reference to a stage variable point at
// one declaration per declaring fragment: the first in inheritance order.
func (l *linker) unifyStageVariables() {
	canon := make(map[string]*ast.Variable)
	key := func(v *ast.Variable) string {
		return l.varOwner[v].name + "." + v.Name
	}
	for _, m := range append(append([]*mixin(nil), l.order...), l.staticMembers()...) {
		for _, v := range m.frag.Variables() {
			if !v.Is(ast.QualStage) || v.Is(ast.QualExtern) {
				continue
			}
			if _, ok := canon[key(v)]; !ok {
				canon[key(v)] = v
			}
		}
	}
	for _, top := range l.tops {
		for _, v := range top.pool.Variables() {
			if !v.Is(ast.QualStage) {
				continue
			}
			c := canon[key(v)]
			if c == nil || c == v {
				continue
			}
			for _, s := range top.pool.RemoveVariable(v) {
				setDecl(s.Expr, c)
				top.pool.InsertVariable(c, s)
			}
		}
	}
}

func (l *linker) staticMembers() []*mixin {
	var out []*mixin
	for _, top := range l.staticTops() {
		out = append(out, top.members...)
	}
	return out
}

// mergePools folds the pools of every composition into the root pool,
// in inheritance order, static instances last.
func (l *linker) mergePools() {
	l.pool.MergeInto(l.root.pool)
	for _, m := range l.order {
		if m.top == m {
			l.pool.MergeInto(m.pool)
		}
	}
	for _, top := range l.staticTops() {
		l.pool.MergeInto(top.pool)
	}
}
