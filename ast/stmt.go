package ast

// BlockStmt is a braced statement list.
type BlockStmt struct {
	Stmts []Stmt
	Span  Span
}

func (b *BlockStmt) Pos() Span { return b.Span }
func (b *BlockStmt) stmtNode() {}

// ExprStmt is an expression evaluated for its side effects.
type ExprStmt struct {
	X    Expr
	Span Span
}

func (s *ExprStmt) Pos() Span { return s.Span }
func (s *ExprStmt) stmtNode() {}

// DeclStmt declares one or more local variables.
type DeclStmt struct {
	Vars []*Variable
	Span Span
}

func (s *DeclStmt) Pos() Span { return s.Span }
func (s *DeclStmt) stmtNode() {}

// ReturnStmt returns from a method. Value may be nil.
type ReturnStmt struct {
	Value Expr
	Span  Span
}

func (s *ReturnStmt) Pos() Span { return s.Span }
func (s *ReturnStmt) stmtNode() {}

// IfStmt is a conditional. Else may be nil.
type IfStmt struct {
	Cond Expr
	Then Stmt
	Else Stmt
	Span Span
}

func (s *IfStmt) Pos() Span { return s.Span }
func (s *IfStmt) stmtNode() {}

// ForStmt is a C-style counting loop. Any clause may be nil.
type ForStmt struct {
	Init Stmt
	Cond Expr
	Post Expr
	Body Stmt
	Span Span
}

func (s *ForStmt) Pos() Span { return s.Span }
func (s *ForStmt) stmtNode() {}

// ForEachStmt iterates Var over the elements of Collection.
type ForEachStmt struct {
	Var        *Variable
	Collection Expr
	Body       Stmt
	Span       Span
}

func (s *ForEachStmt) Pos() Span { return s.Span }
func (s *ForEachStmt) stmtNode() {}

// WhileStmt is a while loop, or a do-while loop when Do is set.
type WhileStmt struct {
	Cond Expr
	Body Stmt
	Do   bool
	Span Span
}

func (s *WhileStmt) Pos() Span { return s.Span }
func (s *WhileStmt) stmtNode() {}

// BranchKind is the keyword of a BranchStmt.
type BranchKind uint8

const (
	BranchBreak BranchKind = iota
	BranchContinue
	BranchDiscard
)

// String returns the keyword.
func (k BranchKind) String() string {
	switch k {
	case BranchContinue:
		return "continue"
	case BranchDiscard:
		return "discard"
	default:
		return "break"
	}
}

// BranchStmt is break, continue or discard.
type BranchStmt struct {
	Kind BranchKind
	Span Span
}

func (s *BranchStmt) Pos() Span { return s.Span }
func (s *BranchStmt) stmtNode() {}
