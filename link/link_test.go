package link

import (
	"errors"
	"strings"
	"testing"

	"github.com/gogpu/mixer/ast"
	"github.com/gogpu/mixer/diag"
	"github.com/gogpu/mixer/library"
	"github.com/gogpu/mixer/source"
)

var testSources = map[string]string{
	"ShadingBase": `shader ShadingBase {
	stage stream float4 ColorTarget : SV_Target0;
	stage float4 Shading() { return 0; }
	stage void PSMain() { streams.ColorTarget = Shading(); }
};`,
	"LightA": `shader LightA : ShadingBase {
	stage override float4 Shading() { return base.Shading() + 1; }
};`,
	"LightB": `shader LightB : ShadingBase {
	stage override float4 Shading() { return base.Shading() * 2; }
};`,
	"ComputeColor": `shader ComputeColor { float4 Compute() { return 0; } };`,
	"ColorConst": `shader ColorConst : ComputeColor {
	float4 Value;
	override float4 Compute() { return Value; }
};`,
	"Material": `shader Material : ShadingBase {
	compose ComputeColor Diffuse;
	float4 Unused;
	[Link("Custom.Gain")] float Gain;
	stage override float4 Shading() { return Diffuse.Compute() * Gain; }
};`,
	"Layered": `shader Layered : ShadingBase {
	compose ComputeColor Layers[];
	stage override float4 Shading() {
		float4 acc = 0;
		foreach (var layer in Layers) {
			acc += layer.Compute();
		}
		return acc;
	}
};`,
	"SemA": `shader SemA { stage stream float2 TexCoord : TEXCOORD0; };`,
	"SemB": `shader SemB {
	stage stream float2 UV : texcoord;
	void Touch() { streams.UV = 0; }
};`,
	"Plain": `shader Plain { float4 Tint : COLOR; float4 Use() { return Tint; } };`,
	"BufA":  `shader BufA { cbuffer PerDraw { float4 Tint : COLOR; }; float4 Use() { return Tint; } };`,
	"BufB":  `shader BufB { cbuffer PerFrame { float4 Shade : COLOR0; }; };`,
	"Utils": `shader Utils {
	static const float Scale = 2.0;
	float Twice(float x) { return x * Scale; }
};`,
	"Scaled": `shader Scaled : ComputeColor {
	override float4 Compute() { return Utils.Twice(Utils.Scale); }
};`,
	"SharedUser": `shader SharedUser : ColorConst {
	compose ComputeColor Shared = stage;
	float4 Get() { return Shared.Compute(); }
};`,
	"Orphan":        `shader Orphan { float4 Compute() { return base.Compute(); } };`,
	"AbstractColor": `shader AbstractColor { abstract float4 Compute(); };`,
	"UsesAbstract": `shader UsesAbstract {
	compose AbstractColor C;
	float4 Get() { return C.Compute(); }
};`,
	"UsesNope": `shader UsesNope {
	compose ComputeColor C;
	float4 Get() { return C.Nope(); }
};`,
	"Grid":      `shader Grid { compose ComputeColor Cells[2][2]; };`,
	"StageUser": `shader StageUser { compose ComputeColor Shared = stage; };`,
	"Unsized": `shader Unsized {
	float4 Values[];
	float4 Sum() { float4 s = 0; foreach (var v in Values) { s += v; } return s; }
};`,
	"Sized": `shader Sized {
	float4 Values[4];
	float4 Sum() { float4 s = 0; foreach (var v in Values) { s += v; } return s; }
};`,
	"Counted": `shader Counted<int N> { float4 Values[N]; };`,
	"Diamond": `shader Diamond : LightA, LightB { };`,
	"Mixed": `shader Mixed : ShadingBase {
	Texture2D Tex;
	SamplerState Samp;
	static const float K = 1.0;
	float4 Tint;
	stage stream float4 Extra;
	compose ComputeColor C;
	stage override float4 Shading() {
		streams.Extra = Tint * K;
		return Tex.Sample(Samp, float2(0, 0)) + C.Compute() + streams.Extra;
	}
};`,
	"Bad": `shader Bad : BufA, BufB { float4 Get() { return this.Missing; } };`,
	"Fixed": `shader Fixed : ShadingBase {
	compose ComputeColor Layers[2];
	stage override float4 Shading() {
		float4 acc = 0;
		foreach (var layer in Layers) {
			acc += layer.Compute();
		}
		return acc;
	}
};`,
	"FlipColor": `shader FlipColor : ComputeColor {
	float ParadoxFlipRendertarget;
	override float4 Compute() { return ParadoxFlipRendertarget; }
};`,
	"Flipper": `shader Flipper {
	float ParadoxFlipRendertarget;
	float4 Unused;
	float4 Get() { return 1; }
};`,
}

func newLib(t *testing.T) *library.Library {
	t.Helper()
	m := source.NewManager(nil)
	for name, text := range testSources {
		m.AddSource(name, text, "")
	}
	return library.New(library.NewParserLoader(m))
}

func unit(t *testing.T, lib *library.Library, name string) *Composition {
	t.Helper()
	u, err := lib.Get(&library.ClassSource{Name: name}, nil)
	if err != nil {
		t.Fatalf("Get(%s): %v", name, err)
	}
	return &Composition{Unit: u}
}

func mix(t *testing.T, lib *library.Library, names ...string) *Composition {
	t.Helper()
	src := &library.MixinSource{}
	for _, n := range names {
		src.Mixins = append(src.Mixins, &library.ClassSource{Name: n})
	}
	u, err := lib.Get(src, nil)
	if err != nil {
		t.Fatalf("Get(%s): %v", src, err)
	}
	return &Composition{Unit: u}
}

func mustLink(t *testing.T, root *Composition, opts Options) *Program {
	t.Helper()
	p, log := Link(root, opts)
	if log.HasErrors() {
		t.Fatalf("link errors:\n%s", log.FormatAll())
	}
	if !p.Valid() {
		t.Fatal("program is not valid")
	}
	return p
}

func linkErr(t *testing.T, root *Composition) (*Program, *diag.Log) {
	t.Helper()
	p, log := Link(root, DefaultOptions())
	if !log.HasErrors() {
		t.Fatalf("link succeeded, want errors; program:\n%s", p)
	}
	return p, log
}

func method(t *testing.T, p *Program, name string) *ast.Method {
	t.Helper()
	for _, fn := range p.Methods() {
		if fn.Name == name {
			return fn
		}
	}
	t.Fatalf("no method %s in:\n%s", name, p)
	return nil
}

func methodNames(p *Program) []string {
	var names []string
	for _, fn := range p.Methods() {
		names = append(names, fn.Name)
	}
	return names
}

func bodyString(fn *ast.Method) string { return ast.StmtString(fn.Body) }

func bufferNames(cb *ast.ConstantBuffer) []string {
	names := make([]string, len(cb.Members))
	for i, v := range cb.Members {
		names[i] = v.Name
	}
	return names
}

func buffer(t *testing.T, p *Program, name string) *ast.ConstantBuffer {
	t.Helper()
	for _, cb := range p.Buffers() {
		if cb.Name == name {
			return cb
		}
	}
	t.Fatalf("no cbuffer %s in:\n%s", name, p)
	return nil
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestLinkOverrideChain(t *testing.T) {
	lib := newLib(t)
	p := mustLink(t, mix(t, lib, "LightA", "LightB"), DefaultOptions())

	want := []string{"Shading_id0", "Shading_id1", "Shading_id2", "PSMain"}
	if got := methodNames(p); !equalStrings(got, want) {
		t.Errorf("methods = %v, want %v", got, want)
	}

	tests := []struct {
		method string
		want   string
	}{
		{"PSMain", "streams.ColorTarget = Shading_id2();"},
		{"Shading_id2", "return Shading_id1() * 2;"},
		{"Shading_id1", "return Shading_id0() + 1;"},
		{"Shading_id0", "return 0;"},
	}
	for _, tt := range tests {
		if body := bodyString(method(t, p, tt.method)); !strings.Contains(body, tt.want) {
			t.Errorf("%s body:\n%s\nwant %q", tt.method, body, tt.want)
		}
	}

	if p.EntryPoints["PSMain"] == nil {
		t.Error("PSMain entry point not found")
	}
	if p.EntryPoints["VSMain"] != nil {
		t.Error("VSMain entry point found in a pixel-only program")
	}
	if len(p.StreamVariables) != 1 || p.StreamVariables[0].Name != "ColorTarget" {
		t.Errorf("stream variables = %v", p.StreamVariables)
	}
	if p.Streams == nil || len(p.Streams.UsageOf(p.EntryPoints["PSMain"])) == 0 {
		t.Error("no stream usage recorded for PSMain")
	}
}

func TestLinkDiamond(t *testing.T) {
	lib := newLib(t)
	p := mustLink(t, unit(t, lib, "Diamond"), DefaultOptions())

	var shading []string
	for _, name := range methodNames(p) {
		if strings.HasPrefix(name, "Shading_id") {
			shading = append(shading, name)
		}
	}
	if len(shading) != 3 {
		t.Fatalf("override chain = %v, want one Shading per declaration", shading)
	}
	// The second override's base call targets the first override, not the root.
	if body := bodyString(method(t, p, "Shading_id2")); !strings.Contains(body, "return Shading_id1() * 2;") {
		t.Errorf("Shading_id2 body:\n%s", body)
	}
	if body := bodyString(method(t, p, "Shading_id1")); !strings.Contains(body, "return Shading_id0() + 1;") {
		t.Errorf("Shading_id1 body:\n%s", body)
	}
}

func TestLinkRoundTrip(t *testing.T) {
	lib := newLib(t)
	p := mustLink(t, unit(t, lib, "Plain"), DefaultOptions())

	stripID := func(name string) string {
		if i := strings.LastIndex(name, "_id"); i > 0 {
			return name[:i]
		}
		return name
	}
	var methods, vars []string
	for _, fn := range p.Methods() {
		methods = append(methods, stripID(fn.Name))
	}
	for _, cb := range p.Buffers() {
		for _, v := range cb.Members {
			vars = append(vars, stripID(v.Name))
		}
	}
	for _, v := range p.Variables() {
		vars = append(vars, stripID(v.Name))
	}
	if !equalStrings(methods, []string{"Use"}) || !equalStrings(vars, []string{"Tint"}) {
		t.Errorf("methods = %v, variables = %v, want the declared set", methods, vars)
	}
}

func TestLinkBufferInvariant(t *testing.T) {
	lib := newLib(t)
	root := unit(t, lib, "Mixed").Bind("C", unit(t, lib, "ColorConst"))
	p := mustLink(t, root, DefaultOptions())

	for _, cb := range p.Buffers() {
		for _, v := range cb.Members {
			if !keepInBuffer(v) || ast.IsObjectType(v.Type) || v.Is(ast.QualConst) || v.IsStream() {
				t.Errorf("%s placed in cbuffer %s", v.Name, cb.Name)
			}
		}
	}
	top := make(map[string]bool)
	for _, v := range p.Variables() {
		top[strings.SplitN(v.Name, "_id", 2)[0]] = true
	}
	for _, name := range []string{"Tex", "Samp", "K"} {
		if !top[name] {
			t.Errorf("%s is not declared at top level", name)
		}
	}
	if globals := bufferNames(buffer(t, p, "Globals")); len(globals) != 2 {
		t.Errorf("Globals = %v, want Tint and Value", globals)
	}
}

func TestLinkComposition(t *testing.T) {
	lib := newLib(t)
	root := unit(t, lib, "Material").Bind("Diffuse", unit(t, lib, "ColorConst"))
	p := mustLink(t, root, DefaultOptions())

	globals := buffer(t, p, "Globals")
	if got, want := bufferNames(globals), []string{"Gain_id1", "Value_id2"}; !equalStrings(got, want) {
		t.Errorf("Globals = %v, want %v", got, want)
	}

	links := map[string]string{
		"Gain_id1":  "Custom.Gain",
		"Value_id2": "ColorConst.Value.Diffuse",
	}
	for name, want := range links {
		v, ok := p.Member(name).(*ast.Variable)
		if !ok {
			t.Errorf("no variable %s", name)
			continue
		}
		if a := v.Attribute("Link"); a == nil || a.Args[0] != want {
			t.Errorf("%s link = %v, want %s", name, a, want)
		}
	}

	shading := method(t, p, "Shading_id1")
	if body := bodyString(shading); !strings.Contains(body, "return Compute_id2() * Gain_id1;") {
		t.Errorf("Shading body:\n%s", body)
	}
	if body := bodyString(method(t, p, "PSMain")); !strings.Contains(body, "Shading_id1()") {
		t.Errorf("PSMain does not call the most derived Shading:\n%s", body)
	}
}

func TestLinkKeepUnusedVariables(t *testing.T) {
	lib := newLib(t)
	root := unit(t, lib, "Material").Bind("Diffuse", unit(t, lib, "ColorConst"))
	opts := DefaultOptions()
	opts.KeepUnusedVariables = true
	p := mustLink(t, root, opts)

	got := bufferNames(buffer(t, p, "Globals"))
	want := []string{"Unused_id0", "Gain_id1", "Value_id2"}
	if !equalStrings(got, want) {
		t.Errorf("Globals = %v, want %v", got, want)
	}
}

func TestLinkFlipRenderTarget(t *testing.T) {
	lib := newLib(t)
	p := mustLink(t, unit(t, lib, "Flipper"), DefaultOptions())

	got := bufferNames(buffer(t, p, "Globals"))
	if !equalStrings(got, []string{"ParadoxFlipRendertarget"}) {
		t.Errorf("Globals = %v, want only the unrenamed flip flag", got)
	}
}

func TestLinkExternForEach(t *testing.T) {
	lib := newLib(t)
	root := unit(t, lib, "Layered").Bind("Layers",
		unit(t, lib, "ColorConst"),
		unit(t, lib, "ComputeColor"),
		unit(t, lib, "ColorConst"),
	)
	p := mustLink(t, root, DefaultOptions())

	var shading *ast.Method
	for _, fn := range p.Methods() {
		if strings.HasPrefix(fn.Name, "Shading_id") && strings.Contains(bodyString(fn), "acc") {
			shading = fn
		}
	}
	if shading == nil {
		t.Fatalf("no layered Shading in:\n%s", p)
	}

	var loop *ast.ForStmt
	ast.Inspect(shading.Body, func(n, _ ast.Node) bool {
		if f, ok := n.(*ast.ForStmt); ok && loop == nil {
			loop = f
		}
		if _, ok := n.(*ast.ForEachStmt); ok {
			t.Error("foreach over a composition array left in place")
		}
		return true
	})
	if loop == nil {
		t.Fatalf("no loop in:\n%s", bodyString(shading))
	}
	if got := ast.ExprString(loop.Cond); got != "layerIter < 3" {
		t.Errorf("loop condition = %q", got)
	}

	targets := make(map[*ast.Method]bool)
	branches := 0
	ast.Inspect(loop.Body, func(n, _ ast.Node) bool {
		switch n := n.(type) {
		case *ast.IfStmt:
			branches++
		case *ast.CallExpr:
			if n.Decl != nil {
				targets[n.Decl] = true
			}
		}
		return true
	})
	if branches != 3 {
		t.Errorf("dispatch has %d branches, want 3", branches)
	}
	if len(targets) != 3 {
		t.Errorf("loop calls %d distinct methods, want 3", len(targets))
	}

	values := 0
	for _, v := range buffer(t, p, "Globals").Members {
		if strings.HasPrefix(v.Name, "Value_id") {
			values++
		}
	}
	if values != 2 {
		t.Errorf("Globals holds %d Value variables, want one per ColorConst composition", values)
	}
}

func TestLinkEmptyCompositionArray(t *testing.T) {
	lib := newLib(t)
	p := mustLink(t, unit(t, lib, "Layered"), DefaultOptions())
	for _, fn := range p.Methods() {
		ast.Inspect(fn.Body, func(n, _ ast.Node) bool {
			switch n.(type) {
			case *ast.ForStmt, *ast.ForEachStmt:
				t.Errorf("%s still loops over an empty composition array", fn.Name)
			}
			return true
		})
	}
}

func TestLinkMergeSemantics(t *testing.T) {
	lib := newLib(t)
	p := mustLink(t, mix(t, lib, "SemA", "SemB"), DefaultOptions())

	if len(p.StreamVariables) != 1 || p.StreamVariables[0].Name != "TexCoord" {
		t.Fatalf("stream variables = %v, want only TexCoord", p.StreamVariables)
	}
	if body := bodyString(method(t, p, "Touch_id0")); !strings.Contains(body, "streams.TexCoord = 0;") {
		t.Errorf("Touch body:\n%s", body)
	}
}

func TestLinkSemanticCbuffer(t *testing.T) {
	lib := newLib(t)
	p := mustLink(t, mix(t, lib, "Plain", "BufB"), DefaultOptions())

	cb := buffer(t, p, "PerFrame")
	if got := bufferNames(cb); !equalStrings(got, []string{"Tint_id0"}) {
		t.Errorf("PerFrame = %v, want [Tint_id0]", got)
	}
	for _, b := range p.Buffers() {
		if b.Name == "Globals" {
			t.Errorf("empty Globals buffer emitted: %v", bufferNames(b))
		}
	}

	p, log := linkErr(t, mix(t, newLib(t), "BufA", "BufB"))
	if !log.Has(diag.ErrSemanticCbufferConflict) {
		t.Errorf("want ErrSemanticCbufferConflict, got:\n%s", log.FormatAll())
	}
	if p == nil || p.Valid() {
		t.Error("want an invalid program after a cbuffer conflict")
	}
}

func TestLinkStaticCalls(t *testing.T) {
	lib := newLib(t)
	p := mustLink(t, unit(t, lib, "Scaled"), DefaultOptions())

	if body := bodyString(method(t, p, "Compute_id1")); !strings.Contains(body, "return Twice_id2(Scale_id0);") {
		t.Errorf("Compute body:\n%s", body)
	}
	if body := bodyString(method(t, p, "Twice_id2")); !strings.Contains(body, "x * Scale_id0") {
		t.Errorf("Twice body:\n%s", body)
	}

	vars := p.Variables()
	if len(vars) != 1 || vars[0].Name != "Scale_id0" {
		t.Fatalf("top-level variables = %v", vars)
	}
	if a := vars[0].Attribute("Link"); a == nil || a.Args[0] != "Utils.Scale" {
		t.Errorf("Scale link = %v", a)
	}
	if len(p.Buffers()) != 0 {
		t.Errorf("unexpected buffers %v", p.Buffers())
	}
}

func TestLinkStageComposition(t *testing.T) {
	lib := newLib(t)
	p := mustLink(t, unit(t, lib, "SharedUser"), DefaultOptions())

	if body := bodyString(method(t, p, "Get_id2")); !strings.Contains(body, "return Compute_id1();") {
		t.Errorf("Get body:\n%s", body)
	}
}

func TestLinkValueForEach(t *testing.T) {
	lib := newLib(t)
	p := mustLink(t, unit(t, lib, "Sized"), DefaultOptions())

	var loop *ast.ForStmt
	ast.Inspect(method(t, p, "Sum_id0").Body, func(n, _ ast.Node) bool {
		if f, ok := n.(*ast.ForStmt); ok {
			loop = f
		}
		return true
	})
	if loop == nil {
		t.Fatalf("foreach not lowered:\n%s", p)
	}
	if got := ast.ExprString(loop.Cond); got != "vIter < 4" {
		t.Errorf("loop condition = %q", got)
	}
	if body := ast.StmtString(loop.Body); !strings.Contains(body, "float4 v = Values_id0[vIter];") {
		t.Errorf("loop body:\n%s", body)
	}
}

func TestLinkErrors(t *testing.T) {
	tests := []struct {
		name string
		root func(t *testing.T, lib *library.Library) *Composition
		code diag.Code
	}{
		{
			name: "base call without base",
			root: func(t *testing.T, lib *library.Library) *Composition { return unit(t, lib, "Orphan") },
			code: diag.ErrImpossibleBaseCall,
		},
		{
			name: "abstract target",
			root: func(t *testing.T, lib *library.Library) *Composition { return unit(t, lib, "UsesAbstract") },
			code: diag.ErrCallToAbstractMethod,
		},
		{
			name: "unknown composition method",
			root: func(t *testing.T, lib *library.Library) *Composition { return unit(t, lib, "UsesNope") },
			code: diag.ErrCallNotFound,
		},
		{
			name: "two dimensional composition array",
			root: func(t *testing.T, lib *library.Library) *Composition { return unit(t, lib, "Grid") },
			code: diag.ErrMultidimensionalCompositionArray,
		},
		{
			name: "stage composition without instance",
			root: func(t *testing.T, lib *library.Library) *Composition { return unit(t, lib, "StageUser") },
			code: diag.ErrStageMixinNotFound,
		},
		{
			name: "generic without arguments",
			root: func(t *testing.T, lib *library.Library) *Composition { return unit(t, lib, "Counted") },
			code: diag.ErrClassNotInstantiated,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, log := linkErr(t, tt.root(t, newLib(t)))
			if !log.Has(tt.code) {
				t.Errorf("want %v, got:\n%s", tt.code, log.FormatAll())
			}
			if p.Valid() {
				t.Error("failed link produced a valid program")
			}
		})
	}
}

func TestLinkReportsEveryPass(t *testing.T) {
	p, log := linkErr(t, unit(t, newLib(t), "Bad"))
	for _, code := range []diag.Code{diag.ErrVariableNotFound, diag.ErrSemanticCbufferConflict} {
		if !log.Has(code) {
			t.Errorf("want %v, got:\n%s", code, log.FormatAll())
		}
	}
	if p == nil {
		t.Fatal("no program returned after assembly")
	}
	if p.Valid() {
		t.Error("program marked valid")
	}
}

func TestLinkUninstantiatedRoot(t *testing.T) {
	p, log := linkErr(t, unit(t, newLib(t), "Counted"))
	if !log.Has(diag.ErrClassNotInstantiated) {
		t.Errorf("want ErrClassNotInstantiated, got:\n%s", log.FormatAll())
	}
	if p != nil {
		t.Error("program returned for a root that cannot be instantiated")
	}
}

func TestLinkSizedCompositionArray(t *testing.T) {
	lib := newLib(t)
	root := unit(t, lib, "Fixed").Bind("Layers", unit(t, lib, "ColorConst"), unit(t, lib, "Scaled"))
	p := mustLink(t, root, DefaultOptions())
	if calls := strings.Count(p.String(), "Compute_id"); calls == 0 {
		t.Errorf("no Compute calls linked:\n%s", p)
	}

	lib = newLib(t)
	root = unit(t, lib, "Fixed").Bind("Layers", unit(t, lib, "ColorConst"))
	_, log := linkErr(t, root)
	if !log.Has(diag.ErrCompositionArraySize) {
		t.Errorf("want ErrCompositionArraySize, got:\n%s", log.FormatAll())
	}
}

func TestLinkSharedFlipFlag(t *testing.T) {
	lib := newLib(t)
	root := unit(t, lib, "Layered").Bind("Layers", unit(t, lib, "FlipColor"), unit(t, lib, "FlipColor"))
	p := mustLink(t, root, DefaultOptions())

	flag := DefaultOptions().FlipRenderTarget
	declared := 0
	for _, cb := range p.Buffers() {
		for _, v := range cb.Members {
			if v.Name == flag {
				declared++
			}
		}
	}
	for _, v := range p.Variables() {
		if v.Name == flag {
			declared++
		}
	}
	if declared != 1 {
		t.Errorf("%s declared %d times:\n%s", flag, declared, p)
	}
	if got := strings.Count(p.String(), "return "+flag+";"); got != 2 {
		t.Errorf("%d Compute bodies read %s, want 2:\n%s", got, flag, p)
	}
}

func TestLinkUnsupportedForEach(t *testing.T) {
	p, log := linkErr(t, unit(t, newLib(t), "Unsized"))
	if !log.Has(diag.ErrUnsupportedForEach) {
		t.Errorf("want ErrUnsupportedForEach, got:\n%s", log.FormatAll())
	}
	if p == nil {
		t.Fatal("no program returned after assembly")
	}
	if p.Valid() {
		t.Error("program marked valid")
	}
}

func TestLinkNilRoot(t *testing.T) {
	_, _, err := LinkE(nil, DefaultOptions())
	if !errors.Is(err, ErrNilRoot) {
		t.Errorf("LinkE(nil) error = %v", err)
	}
	p, log := Link(&Composition{}, DefaultOptions())
	if p != nil || !log.Has(diag.ErrMixinNotFound) {
		t.Errorf("Link(empty) = %v, %s", p, log.FormatAll())
	}
}

func TestLinkEReturnsDiagnostics(t *testing.T) {
	_, log, err := LinkE(unit(t, newLib(t), "Orphan"), DefaultOptions())
	if err == nil {
		t.Fatal("LinkE succeeded")
	}
	if !errors.Is(err, diag.ErrLink) {
		t.Errorf("error %v is not a link error", err)
	}
	if !log.Has(diag.ErrImpossibleBaseCall) {
		t.Errorf("log:\n%s", log.FormatAll())
	}
}

func TestLinkDeterministic(t *testing.T) {
	build := func() string {
		lib := newLib(t)
		root := unit(t, lib, "Layered").Bind("Layers", unit(t, lib, "ColorConst"), unit(t, lib, "Scaled"))
		return mustLink(t, root, DefaultOptions()).String()
	}
	first := build()
	for i := 0; i < 3; i++ {
		if got := build(); got != first {
			t.Fatalf("link output differs between runs:\n%s\n---\n%s", first, got)
		}
	}
}

func TestLinkUniqueNames(t *testing.T) {
	lib := newLib(t)
	root := unit(t, lib, "Layered").Bind("Layers",
		unit(t, lib, "ColorConst"),
		unit(t, lib, "ColorConst"),
		unit(t, lib, "Scaled"),
	)
	p := mustLink(t, root, DefaultOptions())

	seen := make(map[string]bool)
	check := func(name string) {
		if seen[name] {
			t.Errorf("name %s declared twice", name)
		}
		seen[name] = true
	}
	for _, m := range p.Members {
		switch m := m.(type) {
		case *ast.ConstantBuffer:
			for _, v := range m.Members {
				check(v.Name)
			}
		case ast.Decl:
			check(m.DeclName())
		}
	}
}
