// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package hlsl

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gogpu/mixer/library"
	"github.com/gogpu/mixer/link"
	"github.com/gogpu/mixer/source"
)

var testSources = map[string]string{
	"ShadingBase": `shader ShadingBase {
	stage stream float4 ColorTarget : SV_Target0;
	stage float4 Shading() { return 0; }
	stage void PSMain() { streams.ColorTarget = Shading(); }
};`,
	"Textured": `shader Textured : ShadingBase {
	Texture2D Tex;
	SamplerState Linear;
	float4 Tint;
	stage override float4 Shading() { return Tex.Sample(Linear, float2(0, 0)) * Tint; }
};`,
	"Broken": `shader Broken { float4 Values[]; float4 Sum() { float4 s = 0; foreach (var v in Values) { s += v; } return s; } };`,
}

func linkProgram(t *testing.T, name string) *link.Program {
	t.Helper()
	m := source.NewManager(nil)
	for n, text := range testSources {
		m.AddSource(n, text, "")
	}
	lib := library.New(library.NewParserLoader(m))
	u, err := lib.Get(&library.ClassSource{Name: name}, nil)
	if err != nil {
		t.Fatalf("Get(%s): %v", name, err)
	}
	p, _ := link.Link(&link.Composition{Unit: u}, link.DefaultOptions())
	if p == nil {
		t.Fatalf("link %s returned no program", name)
	}
	return p
}

func compareGolden(t *testing.T, path, got string) {
	t.Helper()
	if os.Getenv("UPDATE_GOLDEN") == "1" {
		if err := os.WriteFile(path, []byte(got), 0o644); err != nil {
			t.Fatal(err)
		}
		return
	}
	want, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v (run with UPDATE_GOLDEN=1 to create)", err)
	}
	if got != string(want) {
		t.Errorf("output differs from %s\ngot:\n%s\nwant:\n%s", path, got, want)
	}
}

func TestCompileGolden(t *testing.T) {
	code, info, err := Compile(linkProgram(t, "Textured"), DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	compareGolden(t, filepath.Join("testdata", "golden", "textured.hlsl"), code)

	if got := info.Profiles["PSMain"]; got != "ps_5_1" {
		t.Errorf("PSMain profile = %q", got)
	}
	if got := info.EntryPointNames["PSMain"]; got != "PSMain" {
		t.Errorf("PSMain name = %q", got)
	}
	wantBindings := map[string]string{
		"Globals":    "register(b0, space0)",
		"Tex_id0":    "register(t0, space0)",
		"Linear_id1": "register(s0, space0)",
	}
	for name, want := range wantBindings {
		if got := info.RegisterBindings[name]; got != want {
			t.Errorf("binding of %s = %q, want %q", name, got, want)
		}
	}
}

func TestCompileBindings(t *testing.T) {
	opts := DefaultOptions()
	opts.ShaderModel = ShaderModel5_0
	opts.Bindings["Textured.Tex"] = BindTarget{Register: 3}
	code, _, err := Compile(linkProgram(t, "Textured"), opts)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(code, "Texture2D Tex_id0 : register(t3);") {
		t.Errorf("explicit binding not applied:\n%s", code)
	}

	opts = DefaultOptions()
	opts.FakeMissingBindings = false
	_, _, err = Compile(linkProgram(t, "Textured"), opts)
	var herr *Error
	if !errors.As(err, &herr) || !herr.IsMissingBinding() {
		t.Errorf("want missing binding error, got %v", err)
	}
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name    string
		program func(t *testing.T) *link.Program
		opts    *Options
		kind    ErrorKind
	}{
		{
			name:    "nil program",
			program: func(*testing.T) *link.Program { return nil },
			kind:    ErrInternalError,
		},
		{
			name:    "invalid program",
			program: func(t *testing.T) *link.Program { return linkProgram(t, "Broken") },
			kind:    ErrInvalidProgram,
		},
		{
			name:    "missing entry point",
			program: func(t *testing.T) *link.Program { return linkProgram(t, "Textured") },
			opts:    &Options{ShaderModel: ShaderModel5_1, FakeMissingBindings: true, EntryPoint: "VSMain"},
			kind:    ErrEntryPointNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Compile(tt.program(t), tt.opts)
			var herr *Error
			if !errors.As(err, &herr) {
				t.Fatalf("error = %v, want *Error", err)
			}
			if herr.Kind != tt.kind {
				t.Errorf("kind = %v, want %v", herr.Kind, tt.kind)
			}
		})
	}
}

func TestRegisterTypeOf(t *testing.T) {
	tests := []struct {
		typ  string
		want RegisterType
		ok   bool
	}{
		{"Texture2D", RegisterTypeT, true},
		{"SamplerState", RegisterTypeS, true},
		{"RWTexture2D", RegisterTypeU, true},
		{"StructuredBuffer", RegisterTypeT, true},
		{"AppendStructuredBuffer", RegisterTypeU, true},
		{"TriangleStream", 0, false},
		{"float4", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			got, ok := registerTypeOf(typeName(tt.typ))
			if ok != tt.ok || (ok && got != tt.want) {
				t.Errorf("registerTypeOf(%s) = %v, %v", tt.typ, got, ok)
			}
		})
	}
}
