package link

import (
	"testing"

	"github.com/gogpu/mixer/ast"
)

func testVar(name string) *ast.Variable {
	return &ast.Variable{Name: name, Type: &ast.TypeName{Name: "float4"}}
}

func refTo(v *ast.Variable) *Site {
	return &Site{Expr: &ast.Ident{Name: v.Name, Decl: v}}
}

func TestRefPoolInsertDeduplicates(t *testing.T) {
	p := NewRefPool()
	a := testVar("A")
	s := refTo(a)

	p.InsertVariable(a, nil)
	p.InsertVariable(a, s)
	p.InsertVariable(a, s)
	p.InsertVariable(a, &Site{Expr: s.Expr})

	if got := len(p.VariableSites(a)); got != 1 {
		t.Errorf("sites = %d, want 1", got)
	}
	if got := len(p.Variables()); got != 1 {
		t.Errorf("variables = %d, want 1", got)
	}

	fn := &ast.Method{Name: "F", Body: &ast.BlockStmt{}}
	call := &ast.CallExpr{Fun: &ast.Ident{Name: "F"}}
	p.InsertMethod(fn, call)
	p.InsertMethod(fn, call)
	if got := len(p.MethodCalls(fn)); got != 1 {
		t.Errorf("calls = %d, want 1", got)
	}
}

func TestRefPoolKeepsInsertionOrder(t *testing.T) {
	p := NewRefPool()
	vars := []*ast.Variable{testVar("C"), testVar("A"), testVar("B")}
	for _, v := range vars {
		p.InsertVariable(v, nil)
	}
	got := p.Variables()
	for i, v := range vars {
		if got[i] != v {
			t.Fatalf("Variables()[%d] = %s, want %s", i, got[i].Name, v.Name)
		}
	}
}

func TestRefPoolRemove(t *testing.T) {
	p := NewRefPool()
	a, b := testVar("A"), testVar("B")
	sa := refTo(a)
	p.InsertVariable(a, sa)
	p.InsertVariable(b, nil)

	sites := p.RemoveVariable(a)
	if len(sites) != 1 || sites[0] != sa {
		t.Errorf("RemoveVariable returned %v", sites)
	}
	if p.HasVariable(a) {
		t.Error("removed variable still present")
	}
	if p.FindVariable("A", nil) != nil {
		t.Error("FindVariable found a removed variable")
	}
	if got := p.Variables(); len(got) != 1 || got[0] != b {
		t.Errorf("Variables() = %v", got)
	}
	if p.RemoveVariable(a) != nil {
		t.Error("second removal returned sites")
	}

	fn := &ast.Method{Name: "F", Body: &ast.BlockStmt{}}
	c1 := &ast.CallExpr{Fun: &ast.Ident{Name: "F"}}
	c2 := &ast.CallExpr{Fun: &ast.Ident{Name: "F"}}
	p.InsertMethod(fn, c1)
	p.InsertMethod(fn, c2)
	p.RemoveCall(c1)
	if calls := p.MethodCalls(fn); len(calls) != 1 || calls[0] != c2 {
		t.Errorf("calls after RemoveCall = %v", calls)
	}
	if calls := p.RemoveMethod(fn); len(calls) != 1 {
		t.Errorf("RemoveMethod returned %d calls", len(calls))
	}
	if p.HasMethod(fn) {
		t.Error("removed method still present")
	}
}

func TestRefPoolMerge(t *testing.T) {
	a, b := testVar("A"), testVar("B")
	sa1, sa2 := refTo(a), refTo(a)

	left := NewRefPool()
	left.InsertVariable(a, sa1)
	right := NewRefPool()
	right.InsertVariable(a, sa2)
	right.InsertVariable(b, nil)

	merged := left.Merge(right)
	if got := len(merged.VariableSites(a)); got != 2 {
		t.Errorf("merged sites = %d, want 2", got)
	}
	if merged.VariableSites(a)[0] != sa1 {
		t.Error("merged sites do not keep the receiver's references first")
	}
	if len(left.VariableSites(a)) != 1 || left.HasVariable(b) {
		t.Error("Merge modified its receiver")
	}

	left.MergeInto(right)
	if !left.HasVariable(b) || len(left.VariableSites(a)) != 2 {
		t.Error("MergeInto did not union the entries")
	}
	left.MergeInto(left)
	if len(left.VariableSites(a)) != 2 {
		t.Error("merging a pool into itself changed it")
	}
}

func TestRefPoolRegenerateKeys(t *testing.T) {
	p := NewRefPool()
	a, b := testVar("Color"), testVar("Other")
	p.InsertVariable(a, nil)
	p.InsertVariable(b, nil)
	p.RemoveVariable(b)

	a.Name = "Color_id0"
	if p.FindVariable("Color_id0", nil) != nil {
		t.Error("name index updated before RegenerateKeys")
	}
	p.RegenerateKeys()
	if p.FindVariable("Color_id0", nil) != a {
		t.Error("renamed variable not found after RegenerateKeys")
	}
	if p.FindVariable("Color", nil) != nil {
		t.Error("old name still indexed")
	}
	if got := p.Variables(); len(got) != 1 {
		t.Errorf("Variables() after compaction = %d entries", len(got))
	}

	c := testVar("Color_id0")
	c.Qualifiers = ast.QualStage
	p.InsertVariable(c, nil)
	got := p.FindVariable("Color_id0", func(v *ast.Variable) bool { return v.Is(ast.QualStage) })
	if got != c {
		t.Error("FindVariable ignored the match predicate")
	}
}
