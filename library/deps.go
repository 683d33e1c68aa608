package library

import (
	"github.com/gogpu/mixer/ast"
)

// dependency is one fragment a unit refers to.
type dependency struct {
	ref  *ClassSource
	span ast.Span

	// names are the type names to rewrite to the instantiated name of the
	// resolved dependency.
	names []*ast.TypeName
	// idents are static fragment references to rewrite likewise.
	idents []*ast.Ident
}

func (d *dependency) rename(name string) {
	for _, tn := range d.names {
		tn.Name = name
		tn.Args = nil
	}
	for _, id := range d.idents {
		id.Name = name
	}
}

// scanDependencies lists the fragments frag refers to: its bases, member
// and local variables of fragment type, and fragment-qualified static
// references such as Utils.Pi or Utils.Compute(). exists tells fragment
// names from other type names.
func scanDependencies(frag *ast.Fragment, exists func(string) bool) []*dependency {
	var deps []*dependency
	byKey := make(map[string]*dependency)
	known := make(map[string]bool)
	isFragment := func(name string) bool {
		if name == "" || name == frag.Name {
			return false
		}
		ok, seen := known[name]
		if !seen {
			ok = exists(name)
			known[name] = ok
		}
		return ok
	}
	get := func(ref *ClassSource, span ast.Span) *dependency {
		key := ref.String()
		if d, ok := byKey[key]; ok {
			return d
		}
		d := &dependency{ref: ref, span: span}
		byKey[key] = d
		deps = append(deps, d)
		return d
	}

	for _, b := range frag.Bases {
		d := get(&ClassSource{Name: b.Name, GenericArguments: b.Args}, b.Span)
		d.names = append(d.names, b)
	}

	local := make(map[string]bool)
	for _, p := range frag.GenericParams {
		local[p.Name] = true
	}
	ast.Inspect(frag, func(n, parent ast.Node) bool {
		switch n := n.(type) {
		case *ast.Variable:
			if parent != frag {
				local[n.Name] = true
			}
			tn, ok := ast.ElemType(n.Type).(*ast.TypeName)
			if ok && tn.Class == ast.ClassNamed && isFragment(tn.Name) {
				d := get(&ClassSource{Name: tn.Name, GenericArguments: tn.Args}, tn.Span)
				d.names = append(d.names, tn)
			}
		case *ast.MemberExpr:
			id, ok := n.X.(*ast.Ident)
			if !ok || local[id.Name] || frag.Variable(id.Name) != nil {
				return true
			}
			switch id.Name {
			case "this", "base", "streams":
				return true
			}
			if isFragment(id.Name) {
				d := get(&ClassSource{Name: id.Name}, id.Span)
				d.idents = append(d.idents, id)
			}
		}
		return true
	})
	return deps
}
