// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package hlsl

import (
	"testing"

	"github.com/gogpu/mixer/ast"
)

func typeName(name string) *ast.TypeName {
	return &ast.TypeName{Name: name, Class: ast.ClassifyType(name)}
}

func TestNamer_Call(t *testing.T) {
	n := newNamer()

	if got := n.call("Color_id0"); got != "Color_id0" {
		t.Errorf("call(Color_id0) = %q", got)
	}
	if got := n.call("Color_id0"); got != "Color_id0" {
		t.Errorf("second call(Color_id0) = %q, want the same identifier", got)
	}
	if got := n.lookup("Color_id0"); got != "Color_id0" {
		t.Errorf("lookup(Color_id0) = %q", got)
	}
	if got := n.lookup("float4"); got != "float4" {
		t.Errorf("lookup of an undeclared name = %q", got)
	}
}

func TestNamer_CaseInsensitivity(t *testing.T) {
	n := newNamer()
	if got := n.call("myvar"); got != "myvar" {
		t.Errorf("first call = %q", got)
	}
	if got := n.call("MYVAR"); got == "MYVAR" {
		t.Error("MYVAR should conflict with myvar")
	}
}

func TestNamer_ReservedKeywords(t *testing.T) {
	n := newNamer()
	tests := []struct {
		input string
		want  string
	}{
		{"line", "_line"},
		{"sample", "_sample"},
		{"float4", "_float4"},
		{"Technique", "_Technique"},
		{"streams", "_streams"},
		{"", UnnamedIdentifier},
		{"Gain_id1", "Gain_id1"},
	}
	for _, tt := range tests {
		if got := n.call(tt.input); got != tt.want {
			t.Errorf("call(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestEscape(t *testing.T) {
	if !IsReserved("cbuffer") || !IsReserved("float3x3") || IsReserved("Color") {
		t.Error("IsReserved misclassifies")
	}
	if !IsCaseInsensitiveReserved("PASS") {
		t.Error("PASS should be reserved regardless of case")
	}
	if got := Escape("Color"); got != "Color" {
		t.Errorf("Escape(Color) = %q", got)
	}
}

func TestShaderModel(t *testing.T) {
	tests := []struct {
		sm      ShaderModel
		str     string
		profile string
		spaces  bool
	}{
		{ShaderModel5_0, "SM 5.0", "ps_5_0", false},
		{ShaderModel5_1, "SM 5.1", "ps_5_1", true},
		{ShaderModel6_0, "SM 6.0", "ps_6_0", true},
		{ShaderModel6_6, "SM 6.6", "ps_6_6", true},
	}
	for _, tt := range tests {
		t.Run(tt.str, func(t *testing.T) {
			if got := tt.sm.String(); got != tt.str {
				t.Errorf("String() = %q", got)
			}
			if got := tt.sm.Profile("PSMain"); got != tt.profile {
				t.Errorf("Profile(PSMain) = %q", got)
			}
			if got := tt.sm.SupportsSpaces(); got != tt.spaces {
				t.Errorf("SupportsSpaces() = %v", got)
			}
		})
	}
	if got := ShaderModel5_1.Profile("Helper"); got != "" {
		t.Errorf("Profile(Helper) = %q", got)
	}
	if got := ShaderModel6_0.Profile("CSMain"); got != "cs_6_0" {
		t.Errorf("Profile(CSMain) = %q", got)
	}
}

func TestErrorString(t *testing.T) {
	err := &Error{Kind: ErrMissingBinding, Message: "no binding for Tex", Member: "Tex_id0"}
	if got := err.Error(); got != "hlsl MissingBinding at Tex_id0: no binding for Tex" {
		t.Errorf("Error() = %q", got)
	}
	if got := NewError(ErrInternalError, "boom").Error(); got != "hlsl InternalError: boom" {
		t.Errorf("Error() = %q", got)
	}
	if got := ErrorKind(200).String(); got != "Unknown" {
		t.Errorf("unknown kind = %q", got)
	}
}
