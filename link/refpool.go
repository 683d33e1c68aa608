package link

import (
	"github.com/gogpu/mixer/ast"
)

// Site is one place an expression refers to a variable: the referencing
// expression and its direct parent, so the reference can be replaced.
type Site struct {
	Expr   ast.Expr
	Parent ast.Node
}

type varEntry struct {
	v     *ast.Variable
	sites []*Site
	index map[ast.Expr]struct{}
}

type methodEntry struct {
	m     *ast.Method
	calls []*ast.CallExpr
	index map[*ast.CallExpr]struct{}
}

// RefPool records, for every variable, the expressions referring to it and,
// for every method, the calls targeting it. Entries keep insertion order;
// a reference is recorded at most once per variable or method.
type RefPool struct {
	vars    []*varEntry
	varIdx  map[*ast.Variable]int
	methods []*methodEntry
	methIdx map[*ast.Method]int
	byName  map[string][]*ast.Variable
}

// NewRefPool returns an empty pool.
func NewRefPool() *RefPool {
	return &RefPool{
		varIdx:  make(map[*ast.Variable]int),
		methIdx: make(map[*ast.Method]int),
		byName:  make(map[string][]*ast.Variable),
	}
}

func (p *RefPool) varEntry(v *ast.Variable) *varEntry {
	if i, ok := p.varIdx[v]; ok {
		return p.vars[i]
	}
	e := &varEntry{v: v, index: make(map[ast.Expr]struct{})}
	p.varIdx[v] = len(p.vars)
	p.vars = append(p.vars, e)
	p.byName[v.Name] = append(p.byName[v.Name], v)
	return e
}

func (p *RefPool) methodEntry(m *ast.Method) *methodEntry {
	if i, ok := p.methIdx[m]; ok {
		return p.methods[i]
	}
	e := &methodEntry{m: m, index: make(map[*ast.CallExpr]struct{})}
	p.methIdx[m] = len(p.methods)
	p.methods = append(p.methods, e)
	return e
}

// InsertVariable records site as a reference to v, creating the entry if
// needed. A nil site only declares v.
func (p *RefPool) InsertVariable(v *ast.Variable, site *Site) {
	e := p.varEntry(v)
	if site == nil {
		return
	}
	if _, dup := e.index[site.Expr]; dup {
		return
	}
	e.index[site.Expr] = struct{}{}
	e.sites = append(e.sites, site)
}

// InsertMethod records call as a call to m, creating the entry if needed.
// A nil call only declares m.
func (p *RefPool) InsertMethod(m *ast.Method, call *ast.CallExpr) {
	e := p.methodEntry(m)
	if call == nil {
		return
	}
	if _, dup := e.index[call]; dup {
		return
	}
	e.index[call] = struct{}{}
	e.calls = append(e.calls, call)
}

// HasVariable reports whether v has an entry.
func (p *RefPool) HasVariable(v *ast.Variable) bool {
	i, ok := p.varIdx[v]
	return ok && p.vars[i] != nil
}

// HasMethod reports whether m has an entry.
func (p *RefPool) HasMethod(m *ast.Method) bool {
	i, ok := p.methIdx[m]
	return ok && p.methods[i] != nil
}

// Variables returns the declared variables in insertion order.
func (p *RefPool) Variables() []*ast.Variable {
	out := make([]*ast.Variable, 0, len(p.varIdx))
	for _, e := range p.vars {
		if e != nil {
			out = append(out, e.v)
		}
	}
	return out
}

// Methods returns the declared methods in insertion order.
func (p *RefPool) Methods() []*ast.Method {
	out := make([]*ast.Method, 0, len(p.methIdx))
	for _, e := range p.methods {
		if e != nil {
			out = append(out, e.m)
		}
	}
	return out
}

// VariableSites returns the references to v in insertion order.
func (p *RefPool) VariableSites(v *ast.Variable) []*Site {
	if i, ok := p.varIdx[v]; ok && p.vars[i] != nil {
		return p.vars[i].sites
	}
	return nil
}

// MethodCalls returns the calls to m in insertion order.
func (p *RefPool) MethodCalls(m *ast.Method) []*ast.CallExpr {
	if i, ok := p.methIdx[m]; ok && p.methods[i] != nil {
		return p.methods[i].calls
	}
	return nil
}

// RemoveVariable drops the entry of v and returns its sites.
func (p *RefPool) RemoveVariable(v *ast.Variable) []*Site {
	i, ok := p.varIdx[v]
	if !ok {
		return nil
	}
	e := p.vars[i]
	p.vars[i] = nil
	delete(p.varIdx, v)
	p.dropName(v)
	return e.sites
}

// RemoveMethod drops the entry of m and returns its calls.
func (p *RefPool) RemoveMethod(m *ast.Method) []*ast.CallExpr {
	i, ok := p.methIdx[m]
	if !ok {
		return nil
	}
	e := p.methods[i]
	p.methods[i] = nil
	delete(p.methIdx, m)
	return e.calls
}

// RemoveCall drops call from whichever method entries record it.
func (p *RefPool) RemoveCall(call *ast.CallExpr) {
	for _, e := range p.methods {
		if e == nil {
			continue
		}
		if _, ok := e.index[call]; !ok {
			continue
		}
		delete(e.index, call)
		for i, c := range e.calls {
			if c == call {
				e.calls = append(e.calls[:i], e.calls[i+1:]...)
				break
			}
		}
	}
}

func (p *RefPool) dropName(v *ast.Variable) {
	list := p.byName[v.Name]
	for i, x := range list {
		if x == v {
			list = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(list) == 0 {
		delete(p.byName, v.Name)
	} else {
		p.byName[v.Name] = list
	}
}

// FindVariable returns the first variable named name accepted by match,
// or nil. A nil match accepts any variable. The name index reflects
// variable names as of the last RegenerateKeys.
func (p *RefPool) FindVariable(name string, match func(*ast.Variable) bool) *ast.Variable {
	for _, v := range p.byName[name] {
		if p.HasVariable(v) && (match == nil || match(v)) {
			return v
		}
	}
	return nil
}

// MergeInto adds every entry of other to p. Entries for the same
// declaration are unioned; other's references follow p's.
func (p *RefPool) MergeInto(other *RefPool) {
	if other == nil || other == p {
		return
	}
	for _, e := range other.vars {
		if e == nil {
			continue
		}
		p.varEntry(e.v)
		for _, s := range e.sites {
			p.InsertVariable(e.v, s)
		}
	}
	for _, e := range other.methods {
		if e == nil {
			continue
		}
		p.methodEntry(e.m)
		for _, c := range e.calls {
			p.InsertMethod(e.m, c)
		}
	}
}

// Merge returns a new pool holding the union of p and other.
func (p *RefPool) Merge(other *RefPool) *RefPool {
	out := NewRefPool()
	out.MergeInto(p)
	out.MergeInto(other)
	return out
}

// RegenerateKeys compacts removed entries and rebuilds the name index
// after declarations were renamed.
func (p *RefPool) RegenerateKeys() {
	vars := p.vars[:0]
	p.varIdx = make(map[*ast.Variable]int, len(p.varIdx))
	p.byName = make(map[string][]*ast.Variable, len(p.byName))
	for _, e := range p.vars {
		if e == nil {
			continue
		}
		p.varIdx[e.v] = len(vars)
		vars = append(vars, e)
		p.byName[e.v.Name] = append(p.byName[e.v.Name], e.v)
	}
	p.vars = vars

	methods := p.methods[:0]
	p.methIdx = make(map[*ast.Method]int, len(p.methIdx))
	for _, e := range p.methods {
		if e == nil {
			continue
		}
		p.methIdx[e.m] = len(methods)
		methods = append(methods, e)
	}
	p.methods = methods
}
