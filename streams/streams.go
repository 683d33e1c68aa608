// Package streams classifies how methods access the streams record, the
// implicit per-invocation structure threaded between pipeline stages.
//
// For every method it records each read, write and partial access to a
// stream member or to the record as a whole, each call to another method,
// and the statement shapes that copy the whole record (streams = e,
// e = streams, Streams s = streams) together with the block holding them,
// so a struct generator can rewrite them in place.
package streams

import (
	"strings"

	"github.com/gogpu/mixer/ast"
	"github.com/gogpu/mixer/diag"
)

// Usage is a set of access kinds.
type Usage uint8

const (
	Read Usage = 1 << iota
	Write
	// Partial marks an access to some components only, through a member,
	// swizzle or index.
	Partial
)

func (u Usage) IsRead() bool    { return u&Read != 0 }
func (u Usage) IsWrite() bool   { return u&Write != 0 }
func (u Usage) IsPartial() bool { return u&Partial != 0 }

// String returns the usage as read, write, partial joined by "|".
func (u Usage) String() string {
	var parts []string
	if u.IsRead() {
		parts = append(parts, "read")
	}
	if u.IsWrite() {
		parts = append(parts, "write")
	}
	if u.IsPartial() {
		parts = append(parts, "partial")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// CallType tells what kind of access a usage records.
type CallType uint8

const (
	// Member is an access to one stream member.
	Member CallType = iota + 1
	// Method is a call to a method that may access streams itself.
	Method
	// Direct is a use of the whole streams record.
	Direct
)

func (c CallType) String() string {
	switch c {
	case Member:
		return "member"
	case Method:
		return "method"
	case Direct:
		return "direct"
	}
	return "unknown"
}

// UsageInfo is one recorded access.
type UsageInfo struct {
	CallType CallType
	// Variable is the stream member, or ast.StreamsVar for direct uses.
	Variable *ast.Variable
	// Method is the callee for Method usages.
	Method *ast.Method
	Expr   ast.Expr
	Usage  Usage
}

// Assignment is an assignment statement copying the whole record, with
// the block containing it.
type Assignment struct {
	Expr  *ast.AssignExpr
	Block *ast.BlockStmt
}

// VariableAssignment is a local declaration initialized from the whole
// record, with the block containing it.
type VariableAssignment struct {
	Var   *ast.Variable
	Block *ast.BlockStmt
}

// Analysis holds the classification of a set of methods.
type Analysis struct {
	// Methods lists the methods with at least one recorded usage, in
	// analysis order.
	Methods []*ast.Method
	Usages  map[*ast.Method][]*UsageInfo

	// StreamAssignments are statements of the form streams = e.
	StreamAssignments []Assignment
	// AssignmentsToStreams are statements of the form e = streams.
	AssignmentsToStreams []Assignment
	// VariableStreamsAssignments are declarations Streams s = streams.
	VariableStreamsAssignments []VariableAssignment

	// AppendCalls are Append calls on stream output objects.
	AppendCalls []*ast.CallExpr
}

// UsageOf returns the usages recorded for m.
func (a *Analysis) UsageOf(m *ast.Method) []*UsageInfo {
	if a == nil {
		return nil
	}
	return a.Usages[m]
}

// Analyze classifies the stream accesses of the given method definitions.
// Declarations without a body are skipped. Nested assignments are
// reported to log as diag.ErrNestedAssignment.
func Analyze(methods []*ast.Method, log *diag.Log) *Analysis {
	a := &Analysis{Usages: make(map[*ast.Method][]*UsageInfo)}
	for _, m := range methods {
		if m == nil || m.Body == nil {
			continue
		}
		v := &visitor{a: a, log: log, method: m, usage: Read, seen: make(map[*ast.Method]bool)}
		v.stmt(m.Body)
		if len(v.usages) > 0 {
			a.Methods = append(a.Methods, m)
			a.Usages[m] = v.usages
		}
	}
	return a
}

type visitor struct {
	a      *Analysis
	log    *diag.Log
	method *ast.Method

	usage  Usage
	assign int
	blocks []*ast.BlockStmt

	usages []*UsageInfo
	seen   map[*ast.Method]bool
}

func (v *visitor) block() *ast.BlockStmt {
	if len(v.blocks) == 0 {
		return nil
	}
	return v.blocks[len(v.blocks)-1]
}

func (v *visitor) stmt(s ast.Stmt) {
	switch s := s.(type) {
	case nil:
	case *ast.BlockStmt:
		v.blocks = append(v.blocks, s)
		for _, st := range s.Stmts {
			v.stmt(st)
		}
		v.blocks = v.blocks[:len(v.blocks)-1]
	case *ast.ExprStmt:
		v.expr(s.X, nil)
	case *ast.DeclStmt:
		for _, vr := range s.Vars {
			v.declaration(vr)
		}
	case *ast.ReturnStmt:
		if s.Value != nil {
			v.expr(s.Value, s)
		}
	case *ast.IfStmt:
		v.expr(s.Cond, s)
		v.stmt(s.Then)
		v.stmt(s.Else)
	case *ast.ForStmt:
		v.stmt(s.Init)
		if s.Cond != nil {
			v.expr(s.Cond, s)
		}
		if s.Post != nil {
			v.expr(s.Post, s)
		}
		v.stmt(s.Body)
	case *ast.ForEachStmt:
		v.expr(s.Collection, s)
		v.stmt(s.Body)
	case *ast.WhileStmt:
		v.expr(s.Cond, s)
		v.stmt(s.Body)
	}
}

func (v *visitor) declaration(vr *ast.Variable) {
	if vr.Init == nil {
		return
	}
	v.expr(vr.Init, vr)
	if b := v.block(); b != nil && ast.IsStreamsType(vr.Type) && isStreams(vr.Init) {
		v.a.VariableStreamsAssignments = append(v.a.VariableStreamsAssignments, VariableAssignment{Var: vr, Block: b})
	}
}

func (v *visitor) expr(e ast.Expr, parent ast.Node) {
	switch e := e.(type) {
	case nil:
	case *ast.Ident:
		if _, inMember := parent.(*ast.MemberExpr); !inMember && isStreams(e) {
			v.usages = append(v.usages, &UsageInfo{CallType: Direct, Variable: ast.StreamsVar, Expr: e, Usage: v.usage})
		}
	case *ast.MemberExpr:
		saved := v.usage
		v.usage |= Partial
		v.expr(e.X, e)
		v.usage = saved
		if sv := streamMember(e); sv != nil {
			v.member(sv, e, v.usage)
		}
	case *ast.IndexExpr:
		saved := v.usage
		v.usage |= Partial
		v.expr(e.X, e)
		v.usage = Read
		v.expr(e.Index, e)
		v.usage = saved
	case *ast.CallExpr:
		v.call(e)
	case *ast.BinaryExpr:
		saved := v.usage
		v.usage = Read
		v.expr(e.X, e)
		v.expr(e.Y, e)
		v.usage = saved
	case *ast.UnaryExpr:
		saved := v.usage
		v.usage = Read
		v.expr(e.X, e)
		v.usage = saved
	case *ast.AssignExpr:
		v.assignment(e)
	case *ast.CondExpr:
		saved := v.usage
		v.usage = Read
		v.expr(e.Cond, e)
		v.usage = saved
		v.expr(e.Then, e)
		v.expr(e.Else, e)
	case *ast.ParenExpr:
		v.expr(e.X, e)
	case *ast.InitList:
		for _, el := range e.Elems {
			v.expr(el, e)
		}
	}
}

func (v *visitor) member(sv *ast.Variable, e ast.Expr, u Usage) {
	v.usages = append(v.usages, &UsageInfo{CallType: Member, Variable: sv, Expr: e, Usage: u})
}

func (v *visitor) call(e *ast.CallExpr) {
	v.expr(e.Fun, e)
	for _, arg := range e.Args {
		v.expr(arg, e)
	}

	if m := e.Decl; m != nil {
		if !v.seen[m] {
			v.seen[m] = true
			v.usages = append(v.usages, &UsageInfo{CallType: Method, Method: m, Expr: e})
		}
		for i, arg := range e.Args {
			if i >= len(m.Params) {
				break
			}
			me, ok := ast.Unparen(arg).(*ast.MemberExpr)
			if !ok {
				continue
			}
			sv := streamMember(me)
			if sv == nil {
				continue
			}
			switch q := m.Params[i].Qualifiers; {
			case q.Has(ast.QualInOut):
				v.member(sv, me, Read|Write)
			case q.Has(ast.QualOut):
				v.member(sv, me, Write)
			default:
				v.member(sv, me, Read)
			}
		}
	}

	if fun, ok := e.Fun.(*ast.MemberExpr); ok && fun.Member == "Append" && isStreamOutput(fun.X) {
		v.a.AppendCalls = append(v.a.AppendCalls, e)
	}
}

func (v *visitor) assignment(e *ast.AssignExpr) {
	if v.assign > 0 {
		v.log.Error(diag.ErrNestedAssignment, e.Span, "nested assignment in %s", v.method.Name)
	}
	v.assign++
	saved := v.usage

	v.usage = Read
	v.expr(e.Rhs, e)
	if e.Op == "=" {
		v.usage = Write
	} else {
		v.usage = Read | Write
	}
	v.expr(e.Lhs, e)

	v.usage = saved
	v.assign--

	b := v.block()
	if e.Op != "=" || b == nil {
		return
	}
	switch {
	case isStreams(e.Lhs):
		v.a.StreamAssignments = append(v.a.StreamAssignments, Assignment{Expr: e, Block: b})
	case isStreams(e.Rhs):
		v.a.AssignmentsToStreams = append(v.a.AssignmentsToStreams, Assignment{Expr: e, Block: b})
	}
}

// isStreams reports whether e is the bare streams record.
func isStreams(e ast.Expr) bool {
	id, ok := ast.Unparen(e).(*ast.Ident)
	if !ok {
		return false
	}
	return id.Decl == ast.StreamsVar || (id.Decl == nil && id.Name == ast.StreamsVar.Name)
}

// streamMember returns the stream variable e accesses, or nil.
func streamMember(e *ast.MemberExpr) *ast.Variable {
	sv, ok := e.Decl.(*ast.Variable)
	if !ok || !sv.IsStream() {
		return nil
	}
	return sv
}

func isStreamOutput(e ast.Expr) bool {
	var decl ast.Decl
	switch x := ast.Unparen(e).(type) {
	case *ast.Ident:
		decl = x.Decl
	case *ast.MemberExpr:
		decl = x.Decl
	}
	vr, ok := decl.(*ast.Variable)
	if !ok {
		return false
	}
	tn, ok := ast.ElemType(vr.Type).(*ast.TypeName)
	return ok && tn.Class == ast.ClassObject && strings.HasSuffix(tn.Name, "Stream")
}
