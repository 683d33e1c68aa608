package sdsl

import (
	"errors"
	"strings"
	"testing"

	"github.com/gogpu/mixer/ast"
	"github.com/gogpu/mixer/diag"
)

const texturedSource = `
// Samples a texture and tints it.
shader ComputeColorTexture<Semantic TexCoord, float Scale> : ComputeColor, Texturing
{
    compose ComputeColor Tint;
    compose ComputeColor Layers[];
    stage stream float2 UV : TexCoord;
    [Link("Material.Diffuse")] Texture2D<float4> Diffuse;
    cbuffer PerMaterial
    {
        stage float4 Color = float4(1, 1, 1, 1);
        float Alpha;
    };
    struct Light { float3 Direction; float Intensity; };
    typedef float4 Color4;

    abstract float4 Shade(float4 c);

    override float4 Compute()
    {
        float4 acc = base.Compute() * Scale;
        foreach (var layer in Layers)
        {
            acc += layer.Compute();
        }
        for (int i = 0; i < 4; ++i)
            acc.x += (float)i;
        if (acc.w > 0.5f) { streams.UV = acc.xy; } else discard;
        return Diffuse.Sample(Sampler, streams.UV) * Tint.Compute() * acc;
    }
};
`

func TestParseFragment(t *testing.T) {
	f, err := Parse("ComputeColorTexture", texturedSource, nil)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if f.Name != "ComputeColorTexture" {
		t.Errorf("Name = %q", f.Name)
	}
	if len(f.GenericParams) != 2 || f.GenericParams[0].Name != "TexCoord" || f.GenericParams[1].Type.String() != "float" {
		t.Errorf("GenericParams = %+v", f.GenericParams)
	}
	if len(f.Bases) != 2 || f.Bases[0].Name != "ComputeColor" || f.Bases[1].Name != "Texturing" {
		t.Errorf("Bases = %+v", f.Bases)
	}
	if f.PreprocessedHash == "" {
		t.Error("PreprocessedHash is empty")
	}

	tint := f.Variable("Tint")
	if tint == nil || !tint.Is(ast.QualExtern) {
		t.Fatalf("Tint = %+v, want compose variable", tint)
	}
	layers := f.Variable("Layers")
	at, ok := layers.Type.(*ast.ArrayType)
	if !ok || len(at.Dims) != 1 || at.Dims[0] != nil {
		t.Errorf("Layers type = %#v, want unsized array", layers.Type)
	}
	uv := f.Variable("UV")
	if !uv.Is(ast.QualStage|ast.QualStream) || uv.Semantic != "TexCoord" {
		t.Errorf("UV = %+v", uv)
	}
	diffuse := f.Variable("Diffuse")
	if a := diffuse.Attribute("Link"); a == nil || a.Args[0] != "Material.Diffuse" {
		t.Errorf("Diffuse attributes = %+v", diffuse.Attributes)
	}
	if tn := diffuse.Type.(*ast.TypeName); tn.Class != ast.ClassTexture || tn.Args[0] != "float4" {
		t.Errorf("Diffuse type = %+v", tn)
	}
	color := f.Variable("Color")
	if color.CBuffer != "PerMaterial" || !color.Is(ast.QualStage) || color.Init == nil {
		t.Errorf("Color = %+v", color)
	}
	if alpha := f.Variable("Alpha"); alpha.CBuffer != "PerMaterial" {
		t.Errorf("Alpha.CBuffer = %q", alpha.CBuffer)
	}

	methods := f.Methods()
	if len(methods) != 2 {
		t.Fatalf("got %d methods, want 2", len(methods))
	}
	if methods[0].IsDefinition() || !methods[0].Is(ast.QualAbstract) {
		t.Error("Shade must be an abstract declaration")
	}
	compute := methods[1]
	if !compute.Is(ast.QualOverride) || len(compute.Body.Stmts) != 5 {
		t.Fatalf("Compute has %d statements", len(compute.Body.Stmts))
	}
	if _, ok := compute.Body.Stmts[1].(*ast.ForEachStmt); !ok {
		t.Errorf("statement 1 = %T, want *ast.ForEachStmt", compute.Body.Stmts[1])
	}
	loop, ok := compute.Body.Stmts[2].(*ast.ForStmt)
	if !ok {
		t.Fatalf("statement 2 = %T, want *ast.ForStmt", compute.Body.Stmts[2])
	}
	if got := ast.ExprString(loop.Cond); got != "i < 4" {
		t.Errorf("for condition = %q", got)
	}
	cast := loop.Body.(*ast.ExprStmt).X.(*ast.AssignExpr).Rhs.(*ast.CallExpr)
	if cast.Name() != "float" {
		t.Errorf("cast parsed as %q", ast.ExprString(cast))
	}
}

func TestParseExpressions(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"a + b * c", "a + b * c"},
		{"a = b = c", "a = b = c"},
		{"x ? y : z", "x ? y : z"},
		{"-a.b[2].c", "-a.b[2].c"},
		{"f(1, 2.0f, true)", "f(1, 2.0f, true)"},
		{"(a + b) * c", "(a + b) * c"},
		{"i++", "i++"},
		{"streams.Color.rgb", "streams.Color.rgb"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			src := "shader S { void M() { " + tt.src + "; } };"
			f, err := Parse("S", src, nil)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			stmt := f.Methods()[0].Body.Stmts[0].(*ast.ExprStmt)
			if got := ast.ExprString(stmt.X); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParsePrecedence(t *testing.T) {
	f, err := Parse("S", "shader S { float M() { return a + b * c; } };", nil)
	if err != nil {
		t.Fatal(err)
	}
	ret := f.Methods()[0].Body.Stmts[0].(*ast.ReturnStmt)
	add, ok := ret.Value.(*ast.BinaryExpr)
	if !ok || add.Op != "+" {
		t.Fatalf("root = %#v, want +", ret.Value)
	}
	if mul, ok := add.Y.(*ast.BinaryExpr); !ok || mul.Op != "*" {
		t.Errorf("right operand = %#v, want *", add.Y)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"missing shader", "float x;"},
		{"bad member", "shader S { float = 3; };"},
		{"unclosed generic", "shader S : Base<1 { };"},
		{"unterminated if", "#ifdef A\nshader S {};"},
		{"method in cbuffer", "shader S { cbuffer C { void M(); } };"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("S", tt.src, nil)
			if err == nil {
				t.Fatal("Parse() error = nil")
			}
			if !errors.Is(err, diag.ErrLookup) {
				t.Errorf("error %v does not match diag.ErrLookup", err)
			}
			var list diag.Errors
			if !errors.As(err, &list) || list[0].Code != diag.ErrParse {
				t.Errorf("error %T is not a parse error list", err)
			}
		})
	}
}

func TestParseRecoversAfterBadMember(t *testing.T) {
	p := NewParser("S", NewLexer("shader S { float = 3; float4 Good; };").Tokenize())
	f := p.Fragment()
	if f == nil {
		t.Fatal("Fragment() = nil")
	}
	if f.Variable("Good") == nil {
		t.Error("member after the syntax error was not parsed")
	}
	if len(p.Errors()) != 1 {
		t.Errorf("got %d errors, want 1", len(p.Errors()))
	}
}

func TestPreprocess(t *testing.T) {
	src := strings.Join([]string{
		"#define LOCAL 2",
		"#ifdef USE_FOG",
		"fog",
		"#elif defined(USE_MIST) && QUALITY",
		"mist",
		"#else",
		"clear",
		"#endif",
		"#if !defined(NOPE) || OTHER",
		"always",
		"#endif",
	}, "\n")

	tests := []struct {
		name    string
		defines map[string]string
		want    []string
		reject  []string
	}{
		{"fog", map[string]string{"USE_FOG": ""}, []string{"fog", "always"}, []string{"mist", "clear"}},
		{"mist", map[string]string{"USE_MIST": "", "QUALITY": "1"}, []string{"mist"}, []string{"fog", "clear"}},
		{"mist off", map[string]string{"USE_MIST": "", "QUALITY": "0"}, []string{"clear"}, []string{"fog", "mist"}},
		{"none", nil, []string{"clear", "always"}, []string{"fog", "mist"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, env, err := Preprocess(src, tt.defines)
			if err != nil {
				t.Fatal(err)
			}
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("output lacks %q:\n%s", w, out)
				}
			}
			for _, r := range tt.reject {
				if strings.Contains(out, r) {
					t.Errorf("output contains %q:\n%s", r, out)
				}
			}
			if env["LOCAL"] != "2" {
				t.Errorf("LOCAL = %q, want 2", env["LOCAL"])
			}
			if got := strings.Count(out, "\n"); got != 10 {
				t.Errorf("line count changed: %d newlines", got)
			}
		})
	}
}

func TestMacroExpansionChangesPreprocessedHash(t *testing.T) {
	src := "shader S { float M() { return FACTOR; } };"
	a, err := Parse("S", src, map[string]string{"FACTOR": "1.0"})
	if err != nil {
		t.Fatal(err)
	}
	b, err := Parse("S", src, map[string]string{"FACTOR": "2.0"})
	if err != nil {
		t.Fatal(err)
	}
	c, err := Parse("S", src, map[string]string{"FACTOR": "1.0", "UNUSED": "x"})
	if err != nil {
		t.Fatal(err)
	}
	if a.PreprocessedHash == b.PreprocessedHash {
		t.Error("different expansions share a preprocessed hash")
	}
	if a.PreprocessedHash != c.PreprocessedHash {
		t.Error("an unused macro changed the preprocessed hash")
	}
	ret := a.Methods()[0].Body.Stmts[0].(*ast.ReturnStmt)
	if lit, ok := ret.Value.(*ast.Literal); !ok || lit.Value != "1.0" {
		t.Errorf("FACTOR expanded to %#v", ret.Value)
	}
}

func TestLexer(t *testing.T) {
	toks := NewLexer("a <<= 0x1Fu 1.5e3f .5 \"s\" // c\n/* b */ stage").Tokenize()
	want := []TokenKind{TokenIdent, TokenLessLessEqual, TokenIntLiteral, TokenFloatLiteral, TokenFloatLiteral, TokenStringLiteral, TokenStage, TokenEOF}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d: %+v", len(toks), len(want), toks)
	}
	for i, k := range want {
		if toks[i].Kind != k {
			t.Errorf("token %d = %s (%q), want %s", i, toks[i].Kind, toks[i].Lexeme, k)
		}
	}
	if toks[6].Line != 2 {
		t.Errorf("stage on line %d, want 2", toks[6].Line)
	}
}

func TestParseStageComposition(t *testing.T) {
	f, err := Parse("S", "shader S { compose ComputeColor Shared = stage; compose ComputeColor Own; };", nil)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	shared := f.Variable("Shared")
	id, ok := shared.Init.(*ast.Ident)
	if !ok || id.Name != "stage" || !shared.Is(ast.QualExtern) {
		t.Errorf("Shared = %+v, want compose variable initialized to stage", shared)
	}
	if own := f.Variable("Own"); own.Init != nil {
		t.Errorf("Own.Init = %v, want nil", own.Init)
	}
}
