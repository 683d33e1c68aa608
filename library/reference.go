package library

import (
	"fmt"
	"sort"
	"strings"
)

// Macro is a preprocessor definition.
type Macro struct {
	Name       string
	Definition string
}

// String formats the macro as NAME=DEF.
func (m Macro) String() string { return m.Name + "=" + m.Definition }

// MacrosEqual reports whether two macro lists hold the same definitions,
// regardless of order.
func MacrosEqual(a, b []Macro) bool {
	if len(a) != len(b) {
		return false
	}
	return MacroKey(a) == MacroKey(b)
}

// MacroKey returns the canonical name-sorted NAME=DEF form of a macro set,
// used to bucket cache entries.
func MacroKey(macros []Macro) string {
	parts := make([]string, len(macros))
	for i, m := range macros {
		parts[i] = m.String()
	}
	sort.Strings(parts)
	return strings.Join(parts, ";")
}

// MergeMacros returns parent overridden by child, matching by name. The
// result keeps parent order with child-only macros appended.
func MergeMacros(parent, child []Macro) []Macro {
	out := make([]Macro, 0, len(parent)+len(child))
	idx := make(map[string]int, len(parent)+len(child))
	for _, m := range parent {
		if i, ok := idx[m.Name]; ok {
			out[i] = m
			continue
		}
		idx[m.Name] = len(out)
		out = append(out, m)
	}
	for _, m := range child {
		if i, ok := idx[m.Name]; ok {
			out[i] = m
			continue
		}
		idx[m.Name] = len(out)
		out = append(out, m)
	}
	return out
}

// Defines converts macros to a name to definition map.
func Defines(macros []Macro) map[string]string {
	env := make(map[string]string, len(macros))
	for _, m := range macros {
		env[m.Name] = m.Definition
	}
	return env
}

// Source is a reference to mixable shader code: a single fragment, a
// bundle of fragments with compositions, or an array of sources.
type Source interface {
	Equal(Source) bool
	String() string
	source()
}

// ClassSource references one fragment, possibly with generic arguments.
type ClassSource struct {
	Name             string
	GenericArguments []string
}

func (*ClassSource) source() {}

// Equal compares name and generic arguments.
func (c *ClassSource) Equal(other Source) bool {
	o, ok := other.(*ClassSource)
	if !ok || o == nil || c == nil {
		return ok && o == c
	}
	if c.Name != o.Name || len(c.GenericArguments) != len(o.GenericArguments) {
		return false
	}
	for i := range c.GenericArguments {
		if c.GenericArguments[i] != o.GenericArguments[i] {
			return false
		}
	}
	return true
}

// String formats the reference as Name or Name<a,b>.
func (c *ClassSource) String() string {
	if len(c.GenericArguments) == 0 {
		return c.Name
	}
	return c.Name + "<" + strings.Join(c.GenericArguments, ",") + ">"
}

// ParseClassSource parses Name or Name<a,b,...>. Arguments may contain
// nested parentheses or angle brackets.
func ParseClassSource(s string) (*ClassSource, error) {
	s = strings.TrimSpace(s)
	open := strings.IndexByte(s, '<')
	if open < 0 {
		if s == "" || strings.ContainsAny(s, ">,") {
			return nil, fmt.Errorf("invalid fragment reference %q", s)
		}
		return &ClassSource{Name: s}, nil
	}
	if !strings.HasSuffix(s, ">") || open == 0 {
		return nil, fmt.Errorf("invalid fragment reference %q", s)
	}
	cs := &ClassSource{Name: strings.TrimSpace(s[:open])}
	body := s[open+1 : len(s)-1]
	depth, start := 0, 0
	for i := 0; i < len(body); i++ {
		switch body[i] {
		case '(', '<', '[':
			depth++
		case ')', '>', ']':
			depth--
		case ',':
			if depth == 0 {
				cs.GenericArguments = append(cs.GenericArguments, strings.TrimSpace(body[start:i]))
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return nil, fmt.Errorf("unbalanced generic arguments in %q", s)
	}
	cs.GenericArguments = append(cs.GenericArguments, strings.TrimSpace(body[start:]))
	return cs, nil
}

// MixinSource is a bundle of fragments mixed together, with its own macros
// and named compositions.
type MixinSource struct {
	Mixins       []*ClassSource
	Macros       []Macro
	Compositions map[string]Source
}

func (*MixinSource) source() {}

// CompositionNames returns the composition keys in sorted order.
func (m *MixinSource) CompositionNames() []string {
	names := make([]string, 0, len(m.Compositions))
	for k := range m.Compositions {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Equal compares mixins in order, macros as a set and compositions by key.
func (m *MixinSource) Equal(other Source) bool {
	o, ok := other.(*MixinSource)
	if !ok || o == nil || m == nil {
		return ok && o == m
	}
	if len(m.Mixins) != len(o.Mixins) || !MacrosEqual(m.Macros, o.Macros) || len(m.Compositions) != len(o.Compositions) {
		return false
	}
	for i := range m.Mixins {
		if !m.Mixins[i].Equal(o.Mixins[i]) {
			return false
		}
	}
	for k, v := range m.Compositions {
		ov, ok := o.Compositions[k]
		if !ok || !sourceEqual(v, ov) {
			return false
		}
	}
	return true
}

// String formats the bundle for diagnostics.
func (m *MixinSource) String() string {
	var sb strings.Builder
	sb.WriteString("mixin[")
	for i, c := range m.Mixins {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(c.String())
	}
	for _, k := range m.CompositionNames() {
		fmt.Fprintf(&sb, "; %s=%s", k, m.Compositions[k])
	}
	sb.WriteByte(']')
	return sb.String()
}

// ArraySource is an ordered list of sources filling an array composition.
type ArraySource struct {
	Values []Source
}

func (*ArraySource) source() {}

// Equal compares the elements in order.
func (a *ArraySource) Equal(other Source) bool {
	o, ok := other.(*ArraySource)
	if !ok || o == nil || a == nil {
		return ok && o == a
	}
	if len(a.Values) != len(o.Values) {
		return false
	}
	for i := range a.Values {
		if !sourceEqual(a.Values[i], o.Values[i]) {
			return false
		}
	}
	return true
}

// String formats the array for diagnostics.
func (a *ArraySource) String() string {
	parts := make([]string, len(a.Values))
	for i, v := range a.Values {
		parts[i] = v.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func sourceEqual(a, b Source) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(b)
}
