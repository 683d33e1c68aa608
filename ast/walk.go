package ast

// Inspect traverses the tree rooted at n in depth-first order, calling f
// with each node and its direct parent (nil for n itself). If f returns
// false the children of that node are skipped.
func Inspect(n Node, f func(n, parent Node) bool) {
	if n == nil {
		return
	}
	inspect(n, nil, f)
}

func inspect(n, parent Node, f func(n, parent Node) bool) {
	if !f(n, parent) {
		return
	}
	switch n := n.(type) {
	case *Fragment:
		for _, p := range n.GenericParams {
			inspect(p, n, f)
		}
		for _, b := range n.Bases {
			inspect(b, n, f)
		}
		for _, m := range n.Members {
			inspect(m, n, f)
		}
	case *Variable:
		if n.Type != nil {
			inspect(n.Type, n, f)
		}
		if n.Init != nil {
			inspect(n.Init, n, f)
		}
	case *Method:
		if n.ReturnType != nil {
			inspect(n.ReturnType, n, f)
		}
		for _, p := range n.Params {
			inspect(p, n, f)
		}
		if n.Body != nil {
			inspect(n.Body, n, f)
		}
	case *StructDecl:
		for _, fd := range n.Fields {
			inspect(fd, n, f)
		}
	case *Typedef:
		if n.Type != nil {
			inspect(n.Type, n, f)
		}
	case *ConstantBuffer:
		for _, v := range n.Members {
			inspect(v, n, f)
		}
	case *ArrayType:
		inspect(n.Elem, n, f)
		for _, d := range n.Dims {
			if d != nil {
				inspect(d, n, f)
			}
		}
	case *TypeName:

	case *BlockStmt:
		for _, s := range n.Stmts {
			inspect(s, n, f)
		}
	case *ExprStmt:
		inspect(n.X, n, f)
	case *DeclStmt:
		for _, v := range n.Vars {
			inspect(v, n, f)
		}
	case *ReturnStmt:
		if n.Value != nil {
			inspect(n.Value, n, f)
		}
	case *IfStmt:
		inspect(n.Cond, n, f)
		inspect(n.Then, n, f)
		if n.Else != nil {
			inspect(n.Else, n, f)
		}
	case *ForStmt:
		if n.Init != nil {
			inspect(n.Init, n, f)
		}
		if n.Cond != nil {
			inspect(n.Cond, n, f)
		}
		if n.Post != nil {
			inspect(n.Post, n, f)
		}
		inspect(n.Body, n, f)
	case *ForEachStmt:
		inspect(n.Var, n, f)
		inspect(n.Collection, n, f)
		inspect(n.Body, n, f)
	case *WhileStmt:
		inspect(n.Cond, n, f)
		inspect(n.Body, n, f)
	case *BranchStmt:

	case *Ident, *Literal:

	case *MemberExpr:
		inspect(n.X, n, f)
	case *IndexExpr:
		inspect(n.X, n, f)
		inspect(n.Index, n, f)
	case *CallExpr:
		inspect(n.Fun, n, f)
		for _, a := range n.Args {
			inspect(a, n, f)
		}
	case *BinaryExpr:
		inspect(n.X, n, f)
		inspect(n.Y, n, f)
	case *UnaryExpr:
		inspect(n.X, n, f)
	case *AssignExpr:
		inspect(n.Lhs, n, f)
		inspect(n.Rhs, n, f)
	case *CondExpr:
		inspect(n.Cond, n, f)
		inspect(n.Then, n, f)
		inspect(n.Else, n, f)
	case *ParenExpr:
		inspect(n.X, n, f)
	case *InitList:
		for _, e := range n.Elems {
			inspect(e, n, f)
		}
	}
}

// ReplaceExpr replaces the direct child expression old of parent with repl.
// It reports whether old was found.
func ReplaceExpr(parent Node, old, repl Expr) bool {
	swap := func(e *Expr) bool {
		if *e == old {
			*e = repl
			return true
		}
		return false
	}
	switch p := parent.(type) {
	case *Variable:
		return swap(&p.Init)
	case *ArrayType:
		for i := range p.Dims {
			if swap(&p.Dims[i]) {
				return true
			}
		}
	case *ExprStmt:
		return swap(&p.X)
	case *ReturnStmt:
		return swap(&p.Value)
	case *IfStmt:
		return swap(&p.Cond)
	case *ForStmt:
		return swap(&p.Cond) || swap(&p.Post)
	case *ForEachStmt:
		return swap(&p.Collection)
	case *WhileStmt:
		return swap(&p.Cond)
	case *MemberExpr:
		return swap(&p.X)
	case *IndexExpr:
		return swap(&p.X) || swap(&p.Index)
	case *CallExpr:
		if swap(&p.Fun) {
			return true
		}
		for i := range p.Args {
			if swap(&p.Args[i]) {
				return true
			}
		}
	case *BinaryExpr:
		return swap(&p.X) || swap(&p.Y)
	case *UnaryExpr:
		return swap(&p.X)
	case *AssignExpr:
		return swap(&p.Lhs) || swap(&p.Rhs)
	case *CondExpr:
		return swap(&p.Cond) || swap(&p.Then) || swap(&p.Else)
	case *ParenExpr:
		return swap(&p.X)
	case *InitList:
		for i := range p.Elems {
			if swap(&p.Elems[i]) {
				return true
			}
		}
	}
	return false
}

// ReplaceStmt replaces the direct child statement old of parent with repl.
// It reports whether old was found.
func ReplaceStmt(parent Node, old, repl Stmt) bool {
	swap := func(s *Stmt) bool {
		if *s == old {
			*s = repl
			return true
		}
		return false
	}
	switch p := parent.(type) {
	case *BlockStmt:
		for i := range p.Stmts {
			if swap(&p.Stmts[i]) {
				return true
			}
		}
	case *IfStmt:
		return swap(&p.Then) || swap(&p.Else)
	case *ForStmt:
		return swap(&p.Init) || swap(&p.Body)
	case *ForEachStmt:
		return swap(&p.Body)
	case *WhileStmt:
		return swap(&p.Body)
	}
	return false
}
