package link

import (
	"sort"
	"strconv"

	"github.com/gogpu/mixer/ast"
	"github.com/gogpu/mixer/diag"
	"github.com/gogpu/mixer/library"
)

// mixin is one instance of a fragment inside a link. Every composition
// gets its own instances, sharing nothing with other compositions; within
// one composition a fragment reached twice through inheritance is
// instantiated once.
type mixin struct {
	unit    *library.Unit
	name    string
	generic string
	frag    *ast.Fragment

	bases []*mixin
	// inherit lists every ancestor once, dependencies first.
	inherit []*mixin
	top     *mixin

	// occurrence counts the instances of the same fragment in the
	// inheritance order up to and including this one.
	occurrence int

	// Set on top instances only.
	members []*mixin
	pool    *RefPool
	static  bool
}

// hierarchy returns the ancestors followed by m itself.
func (m *mixin) hierarchy() []*mixin {
	out := make([]*mixin, 0, len(m.inherit)+1)
	out = append(out, m.inherit...)
	return append(out, m)
}

// lookupVar finds a member variable visible from m: its own first, then
// its ancestors from the most derived.
func (m *mixin) lookupVar(name string) *ast.Variable {
	if v := m.frag.Variable(name); v != nil {
		return v
	}
	for i := len(m.inherit) - 1; i >= 0; i-- {
		if v := m.inherit[i].frag.Variable(name); v != nil {
			return v
		}
	}
	return nil
}

func ownMethod(m *mixin, name string, arity int) *ast.Method {
	var decl *ast.Method
	for _, fn := range m.frag.Methods() {
		if fn.Name != name || len(fn.Params) != arity {
			continue
		}
		if fn.IsDefinition() {
			return fn
		}
		if decl == nil {
			decl = fn
		}
	}
	return decl
}

// lookupMethod finds a method visible from m by name and arity.
func (m *mixin) lookupMethod(name string, arity int) *ast.Method {
	if fn := ownMethod(m, name, arity); fn != nil {
		return fn
	}
	return m.ancestorMethod(name, arity)
}

// ancestorMethod is lookupMethod restricted to the ancestors of m.
func (m *mixin) ancestorMethod(name string, arity int) *ast.Method {
	for i := len(m.inherit) - 1; i >= 0; i-- {
		if fn := ownMethod(m.inherit[i], name, arity); fn != nil {
			return fn
		}
	}
	return nil
}

// ancestor returns m or the ancestor of m instantiating fragment name.
func (m *mixin) ancestor(name string) *mixin {
	if m.name == name {
		return m
	}
	for i := len(m.inherit) - 1; i >= 0; i-- {
		if m.inherit[i].name == name {
			return m.inherit[i]
		}
	}
	return nil
}

// fragName returns the fragment a variable type names.
func fragName(t ast.Type) string {
	tn, ok := ast.ElemType(t).(*ast.TypeName)
	if !ok {
		return ""
	}
	return tn.String()
}

func isArray(v *ast.Variable) bool {
	_, ok := v.Type.(*ast.ArrayType)
	return ok
}

// isStageInit reports whether a compose variable is initialized with
// stage, sharing the instance already present in the inheritance order.
func isStageInit(v *ast.Variable) bool {
	id, ok := v.Init.(*ast.Ident)
	return ok && id.Name == "stage"
}

// newTop instantiates u and its ancestors as one composition.
func (l *linker) newTop(u *library.Unit) *mixin {
	byName := make(map[string]*mixin)
	var all []*mixin
	var build func(u *library.Unit, span ast.Span) *mixin
	build = func(u *library.Unit, span ast.Span) *mixin {
		if m, ok := byName[u.Name()]; ok {
			return m
		}
		m := &mixin{
			unit:    u,
			name:    u.Name(),
			generic: u.GenericName(),
			frag:    ast.CloneFragment(u.AST()),
		}
		if m.frag == nil {
			l.log.Error(diag.ErrMixinNotFound, span, "fragment %s has no body", u.Name())
			return nil
		}
		byName[m.name] = m
		all = append(all, m)
		for _, b := range m.frag.Bases {
			bu, ok := l.units[b.String()]
			if !ok {
				l.log.Add(&diag.Message{
					Severity: diag.SeverityError,
					Code:     diag.ErrMixinNotFound,
					Span:     b.Span,
					Source:   m.name,
					Text:     "base " + b.String() + " is not in the link context",
				})
				continue
			}
			if bm := build(bu, b.Span); bm != nil && bm != m {
				m.bases = append(m.bases, bm)
			}
		}
		return m
	}
	top := build(u, ast.Span{})
	if top == nil {
		return nil
	}
	for _, m := range all {
		m.top = top
		m.inherit = inheritance(m)
	}
	top.members = top.hierarchy()
	top.pool = NewRefPool()
	for _, m := range top.members {
		for _, v := range m.frag.Variables() {
			l.varOwner[v] = m
			if !v.Is(ast.QualExtern) {
				top.pool.InsertVariable(v, nil)
			}
		}
		for _, fn := range m.frag.Methods() {
			l.methodOwner[fn] = m
			if fn.IsDefinition() {
				top.pool.InsertMethod(fn, nil)
			}
		}
	}
	l.tops = append(l.tops, top)
	return top
}

// inheritance lists the ancestors of m once each, dependencies first.
func inheritance(m *mixin) []*mixin {
	var out []*mixin
	seen := map[*mixin]bool{m: true}
	var visit func(x *mixin)
	visit = func(x *mixin) {
		for _, b := range x.bases {
			if seen[b] {
				continue
			}
			seen[b] = true
			visit(b)
			out = append(out, b)
		}
	}
	visit(m)
	return out
}

// instantiate builds the instances of a composition and, recursively, of
// everything bound to its compose variables.
func (l *linker) instantiate(c *Composition) *mixin {
	top := l.newTop(c.Unit)
	if top == nil {
		return nil
	}
	for _, m := range top.members {
		for _, v := range m.frag.Variables() {
			if v.Is(ast.QualExtern) {
				l.bindComposition(m, v, c.Slots[v.Name])
			}
		}
	}
	return top
}

func (l *linker) bindComposition(m *mixin, v *ast.Variable, fillers []*Composition) {
	if isStageInit(v) {
		l.stageInit = append(l.stageInit, v)
		return
	}
	if at, ok := v.Type.(*ast.ArrayType); ok {
		if len(at.Dims) != 1 {
			l.log.Add(&diag.Message{
				Severity: diag.SeverityError,
				Code:     diag.ErrMultidimensionalCompositionArray,
				Span:     v.Span,
				Source:   m.name,
				Text:     "composition array " + v.Name + " has more than one dimension",
			})
			return
		}
		switch d := at.Dims[0].(type) {
		case nil:
			at.Dims[0] = ast.IntLit(strconv.Itoa(len(fillers)))
		case *ast.Literal:
			if n, err := strconv.Atoi(d.Value); d.Kind != ast.LitInt || err != nil || n != len(fillers) {
				l.log.Add(&diag.Message{
					Severity: diag.SeverityError,
					Code:     diag.ErrCompositionArraySize,
					Span:     v.Span,
					Source:   m.name,
					Text: "composition array " + v.Name + " declares " + d.Value +
						" entries but " + strconv.Itoa(len(fillers)) + " are bound",
				})
			}
		}
		var list []*mixin
		for _, f := range fillers {
			if c := l.instantiate(f); c != nil {
				list = append(list, c)
			}
		}
		l.comps[v] = list
		return
	}

	if len(fillers) == 0 {
		u, ok := l.units[fragName(v.Type)]
		if !ok {
			l.log.Add(&diag.Message{
				Severity: diag.SeverityError,
				Code:     diag.ErrMixinNotFound,
				Span:     v.Span,
				Source:   m.name,
				Text:     "no default composition " + fragName(v.Type) + " for " + v.Name,
			})
			return
		}
		fillers = []*Composition{{Unit: u}}
	}
	if c := l.instantiate(fillers[0]); c != nil {
		l.comps[v] = []*mixin{c}
	}
}

// buildOrder computes the global inheritance order: for every instance its
// ancestors, then itself, then what its own compose variables bind.
func (l *linker) buildOrder() {
	seen := make(map[*mixin]bool)
	var visit func(m *mixin)
	visit = func(m *mixin) {
		if seen[m] {
			return
		}
		seen[m] = true
		for _, b := range m.inherit {
			visit(b)
		}
		l.order = append(l.order, m)
		for _, v := range m.frag.Variables() {
			for _, c := range l.comps[v] {
				visit(c)
			}
		}
	}
	visit(l.root)

	count := make(map[string]int)
	for _, m := range l.order {
		count[m.name]++
		m.occurrence = count[m.name]
	}
}

// bindStageCompositions binds compose variables initialized with stage to
// the first instance of their fragment in the inheritance order.
func (l *linker) bindStageCompositions() {
	for _, v := range l.stageInit {
		name := fragName(v.Type)
		var found *mixin
		for _, m := range l.order {
			if m.name == name {
				found = m
				break
			}
		}
		if found == nil {
			l.log.Add(&diag.Message{
				Severity: diag.SeverityError,
				Code:     diag.ErrStageMixinNotFound,
				Span:     v.Span,
				Source:   l.varOwner[v].name,
				Text:     "no stage instance of " + name + " for " + v.Name,
			})
			continue
		}
		l.comps[v] = []*mixin{found}
	}
}

// static returns the shared instance of a statically referenced fragment,
// creating it on first use.
func (l *linker) static(name string) *mixin {
	if m, ok := l.statics[name]; ok {
		return m
	}
	u, ok := l.units[name]
	if !ok {
		return nil
	}
	m := l.newTop(u)
	if m == nil {
		return nil
	}
	m.static = true
	for _, x := range m.members {
		x.occurrence = 1
	}
	l.statics[name] = m
	return m
}

// staticTops returns the static instances sorted by fragment name.
func (l *linker) staticTops() []*mixin {
	out := make([]*mixin, 0, len(l.statics))
	for _, name := range sortedKeys(l.statics) {
		out = append(out, l.statics[name])
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
