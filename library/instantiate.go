package library

import (
	"strconv"
	"strings"

	"github.com/gogpu/mixer/ast"
)

// Generic parameter types with special substitution rules. Parameters of
// any other type are values substituted into expressions.
const (
	genericSemantic   = "Semantic"
	genericLinkType   = "LinkType"
	genericMemberName = "MemberName"
)

// instantiate substitutes generic arguments into frag in place and clears
// its generic parameter list. len(args) must be at least the number of
// parameters.
func instantiate(frag *ast.Fragment, args []string) {
	for i, p := range frag.GenericParams {
		arg := args[i]
		kind := ""
		if tn, ok := p.Type.(*ast.TypeName); ok {
			kind = tn.Name
		}
		switch kind {
		case genericSemantic:
			substituteSemantic(frag, p.Name, arg)
		case genericLinkType:
			substituteLink(frag, p.Name, arg)
		case genericMemberName:
			substituteMember(frag, p.Name, arg)
		default:
			substituteValue(frag, p.Name, arg)
		}
	}
	frag.GenericParams = nil
}

func substituteSemantic(frag *ast.Fragment, param, arg string) {
	ast.Inspect(frag, func(n, _ ast.Node) bool {
		switch n := n.(type) {
		case *ast.Variable:
			if n.Semantic == param {
				n.Semantic = arg
			}
		case *ast.Method:
			if n.Semantic == param {
				n.Semantic = arg
			}
		}
		return true
	})
}

// substituteLink replaces dotted segments equal to param in Link and Map
// attribute arguments.
func substituteLink(frag *ast.Fragment, param, arg string) {
	for _, v := range frag.Variables() {
		for _, a := range v.Attributes {
			if a.Name != "Link" && a.Name != "Map" {
				continue
			}
			for i, s := range a.Args {
				parts := strings.Split(s, ".")
				for j := range parts {
					if parts[j] == param {
						parts[j] = arg
					}
				}
				a.Args[i] = strings.Join(parts, ".")
			}
		}
	}
}

func substituteMember(frag *ast.Fragment, param, arg string) {
	ast.Inspect(frag, func(n, _ ast.Node) bool {
		if me, ok := n.(*ast.MemberExpr); ok && me.Member == param {
			me.Member = arg
		}
		return true
	})
}

// substituteValue replaces identifiers naming param with the argument
// expression, and type and base arguments equal to param with the
// argument text.
func substituteValue(frag *ast.Fragment, param, arg string) {
	repl := argExpr(arg)
	substArgs := func(args []string) {
		for i := range args {
			if args[i] == param {
				args[i] = arg
			}
		}
	}
	for _, b := range frag.Bases {
		substArgs(b.Args)
	}
	var idents []struct {
		id     *ast.Ident
		parent ast.Node
	}
	ast.Inspect(frag, func(n, parent ast.Node) bool {
		switch n := n.(type) {
		case *ast.TypeName:
			substArgs(n.Args)
		case *ast.Ident:
			if n.Name == param {
				idents = append(idents, struct {
					id     *ast.Ident
					parent ast.Node
				}{n, parent})
			}
		}
		return true
	})
	for _, e := range idents {
		ast.ReplaceExpr(e.parent, e.id, ast.CloneExpr(repl))
	}
}

// argExpr turns generic argument text into an expression: a literal for
// numbers and booleans, an identifier or member chain for dotted names,
// and a verbatim literal otherwise.
func argExpr(arg string) ast.Expr {
	switch {
	case arg == "true" || arg == "false":
		return &ast.Literal{Kind: ast.LitBool, Value: arg}
	case isIntLiteral(arg):
		return ast.IntLit(arg)
	case isFloatLiteral(arg):
		return &ast.Literal{Kind: ast.LitFloat, Value: arg}
	}
	parts := strings.Split(arg, ".")
	for _, p := range parts {
		if !isIdent(p) {
			return &ast.Literal{Kind: ast.LitFloat, Value: arg}
		}
	}
	var e ast.Expr = &ast.Ident{Name: parts[0]}
	for _, p := range parts[1:] {
		e = &ast.MemberExpr{X: e, Member: p}
	}
	return e
}

func isIntLiteral(s string) bool {
	s = strings.TrimRight(s, "uUlL")
	_, err := strconv.ParseInt(s, 0, 64)
	return err == nil
}

func isFloatLiteral(s string) bool {
	s = strings.TrimRight(s, "fFhH")
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
