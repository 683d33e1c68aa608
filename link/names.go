package link

import (
	"strconv"
	"strings"

	"github.com/gogpu/mixer/ast"
)

// linkNames gives every variable its external Link attribute. Variables
// reached through a composition carry the path of compose variables from
// the root, innermost first: Generic.var.slot[1].outer. Stage variables
// are shared by all compositions and keep the unsuffixed name.
func (l *linker) linkNames() {
	visited := make(map[*mixin]bool)
	var walk func(m *mixin, context string)
	walk = func(m *mixin, context string) {
		if visited[m] {
			return
		}
		visited[m] = true
		for _, v := range m.frag.Variables() {
			switch {
			case v.Is(ast.QualExtern):
				list := l.comps[v]
				if isArray(v) {
					for i, c := range list {
						walk(c, "."+v.Name+"["+strconv.Itoa(i)+"]"+context)
					}
				} else if len(list) > 0 {
					walk(list[0], "."+v.Name+context)
				}
			case v.IsStream():
			default:
				setLink(m, v, context)
			}
		}
		for _, b := range m.inherit {
			walk(b, context)
		}
	}
	walk(l.root, "")

	for _, m := range l.staticMembers() {
		for _, v := range m.frag.Variables() {
			if v.Is(ast.QualExtern) || v.IsStream() || v.Attribute("Link") != nil {
				continue
			}
			v.SetAttribute("Link", m.generic+"."+v.Name)
		}
	}
}

func setLink(m *mixin, v *ast.Variable, context string) {
	var link string
	if a := v.Attribute("Link"); a != nil && len(a.Args) > 0 {
		link = a.Args[0]
	} else if a := v.Attribute("Map"); a != nil && len(a.Args) > 0 {
		link = strings.ReplaceAll(a.Args[0], "Keys.", ".")
	} else {
		link = m.generic + "." + v.Name
	}
	if !v.Is(ast.QualStage) {
		link += context
	}
	v.SetAttribute("Link", link)
}
