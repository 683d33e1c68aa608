package link

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/gogpu/mixer/ast"
	"github.com/gogpu/mixer/diag"
)

var semanticFolder = cases.Fold()

// splitSemantic returns the case-folded semantic name and its index. A
// semantic without trailing digits has index 0.
func splitSemantic(s string) (name, index string) {
	s = semanticFolder.String(s)
	i := len(s)
	for i > 0 && s[i-1] >= '0' && s[i-1] <= '9' {
		i--
	}
	name, index = s[:i], strings.TrimLeft(s[i:], "0")
	if index == "" {
		index = "0"
	}
	return name, index
}

// sameSemantic compares semantics ignoring case, treating TEXCOORD and
// TEXCOORD0 as equal.
func sameSemantic(a, b string) bool {
	an, ai := splitSemantic(a)
	bn, bi := splitSemantic(b)
	return an == bn && ai == bi
}

// moveReferences repoints every reference to from at into.
func (l *linker) moveReferences(from, into *ast.Variable) {
	for _, s := range l.pool.RemoveVariable(from) {
		setDecl(s.Expr, into)
		if id, ok := s.Expr.(*ast.Ident); ok {
			id.Name = into.Name
		}
		l.pool.InsertVariable(into, s)
	}
}

// mergeSemantics keeps one variable per semantic. The constant buffer of
// a merged variable is adopted when the kept one has none; two different
// buffers are a conflict and the variables stay apart.
func (l *linker) mergeSemantics() {
	vars := l.pool.Variables()
	removed := make(map[*ast.Variable]bool)
	for i, v := range vars {
		if removed[v] || v.Semantic == "" {
			continue
		}
		for _, o := range vars[i+1:] {
			if removed[o] || o.Semantic == "" || !sameSemantic(v.Semantic, o.Semantic) {
				continue
			}
			switch {
			case o.CBuffer == "" || o.CBuffer == v.CBuffer:
			case v.CBuffer == "":
				v.CBuffer = o.CBuffer
			default:
				l.log.Add(&diag.Message{
					Severity: diag.SeverityError,
					Code:     diag.ErrSemanticCbufferConflict,
					Span:     o.Span,
					Source:   l.ownerName(o),
					Text: "semantic " + o.Semantic + " is declared in cbuffer " + v.CBuffer +
						" and in cbuffer " + o.CBuffer,
				})
				continue
			}
			l.moveReferences(o, v)
			removed[o] = true
		}
	}
	l.pool.RegenerateKeys()
}

// mergeAliases folds variables initialized with a plain reference to
// another member variable into that variable.
func (l *linker) mergeAliases() {
	for _, v := range l.pool.Variables() {
		target := aliasOf(v)
		if target == nil || target == v || !l.pool.HasVariable(target) || target.IsStream() != v.IsStream() {
			continue
		}
		l.moveReferences(v, target)
	}
	l.pool.RegenerateKeys()
}

// mergeFlipFlag keeps one declaration of the flip flag. The flag is never
// renamed, so every composition declaring it must share the first copy.
func (l *linker) mergeFlipFlag() {
	name := l.opts.FlipRenderTarget
	if name == "" {
		return
	}
	var keep *ast.Variable
	for _, v := range l.pool.Variables() {
		if v.Name != name || v.Is(ast.QualExtern) || v.IsStream() {
			continue
		}
		if keep == nil {
			keep = v
			continue
		}
		l.moveReferences(v, keep)
	}
	l.pool.RegenerateKeys()
}

func aliasOf(v *ast.Variable) *ast.Variable {
	var decl ast.Decl
	switch e := ast.Unparen(v.Init).(type) {
	case *ast.Ident:
		decl = e.Decl
	case *ast.MemberExpr:
		decl = e.Decl
	}
	target, _ := decl.(*ast.Variable)
	return target
}

func (l *linker) ownerName(v *ast.Variable) string {
	if m := l.varOwner[v]; m != nil {
		return m.name
	}
	return ""
}
