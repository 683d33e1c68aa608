package ast

// Ident is a bare name.
type Ident struct {
	Name string
	Decl Decl
	Span Span
}

func (e *Ident) Pos() Span { return e.Span }
func (e *Ident) exprNode() {}

// MemberExpr is X.Member: a field, swizzle, stream member, composition
// member or fragment-qualified member access.
type MemberExpr struct {
	X      Expr
	Member string
	Decl   Decl
	Span   Span
}

func (e *MemberExpr) Pos() Span { return e.Span }
func (e *MemberExpr) exprNode() {}

// IndexExpr is X[Index].
type IndexExpr struct {
	X     Expr
	Index Expr
	Span  Span
}

func (e *IndexExpr) Pos() Span { return e.Span }
func (e *IndexExpr) exprNode() {}

// CallExpr is a method, intrinsic or constructor call.
type CallExpr struct {
	Fun  Expr
	Args []Expr

	// Decl is the method the call is bound to, nil for intrinsics.
	Decl *Method

	// Static marks a call explicitly scoped to a named fragment
	// (Fragment.Method()) that must not be dispatched virtually.
	Static bool

	Span Span
}

func (e *CallExpr) Pos() Span { return e.Span }
func (e *CallExpr) exprNode() {}

// Name returns the called name: the identifier or the member name.
func (e *CallExpr) Name() string {
	switch f := e.Fun.(type) {
	case *Ident:
		return f.Name
	case *MemberExpr:
		return f.Member
	}
	return ""
}

// BinaryExpr is X Op Y.
type BinaryExpr struct {
	Op   string
	X    Expr
	Y    Expr
	Span Span
}

func (e *BinaryExpr) Pos() Span { return e.Span }
func (e *BinaryExpr) exprNode() {}

// UnaryExpr is Op X, or X Op when Postfix is set.
type UnaryExpr struct {
	Op      string
	X       Expr
	Postfix bool
	Span    Span
}

func (e *UnaryExpr) Pos() Span { return e.Span }
func (e *UnaryExpr) exprNode() {}

// AssignExpr is Lhs Op Rhs where Op is "=" or a compound operator.
type AssignExpr struct {
	Op   string
	Lhs  Expr
	Rhs  Expr
	Span Span
}

func (e *AssignExpr) Pos() Span { return e.Span }
func (e *AssignExpr) exprNode() {}

// CondExpr is Cond ? Then : Else.
type CondExpr struct {
	Cond Expr
	Then Expr
	Else Expr
	Span Span
}

func (e *CondExpr) Pos() Span { return e.Span }
func (e *CondExpr) exprNode() {}

// ParenExpr is a parenthesized expression.
type ParenExpr struct {
	X    Expr
	Span Span
}

func (e *ParenExpr) Pos() Span { return e.Span }
func (e *ParenExpr) exprNode() {}

// InitList is a braced initializer { a, b, c }.
type InitList struct {
	Elems []Expr
	Span  Span
}

func (e *InitList) Pos() Span { return e.Span }
func (e *InitList) exprNode() {}

// LiteralKind is the kind of a literal.
type LiteralKind uint8

const (
	LitInt LiteralKind = iota
	LitFloat
	LitBool
	LitString
)

// Literal is a numeric, boolean or string literal kept in source form.
type Literal struct {
	Kind  LiteralKind
	Value string
	Span  Span
}

func (e *Literal) Pos() Span { return e.Span }
func (e *Literal) exprNode() {}

// IntLit returns an integer literal.
func IntLit(v string) *Literal { return &Literal{Kind: LitInt, Value: v} }

// Unparen returns e with enclosing parentheses removed.
func Unparen(e Expr) Expr {
	for {
		p, ok := e.(*ParenExpr)
		if !ok {
			return e
		}
		e = p.X
	}
}
