package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gogpu/mixer/hlsl"
	"github.com/gogpu/mixer/library"
)

const sampleProject = `
[project]
lookup-dirs = ["shaders", "shaders/lib"]
default-buffer = "PerMaterial"
flip-rendertarget = "FlipY"
keep-unused = true
shader-model = "6.0"

[[effect]]
name = "Basic"
mixins = ["ShaderBase", "Texturing<2>"]
output = "out/basic.hlsl"
[effect.macros]
USE_FOG = "1"
QUALITY = "high"
[effect.compositions]
albedo = ["ComputeColorRed"]
layers = ["LayerA", "LayerB<float4(1, 0, 0, 1)>"]
none = []

[[effect]]
name = "Plain"
mixins = ["ShaderBase"]
output = "/abs/plain.hlsl"
`

func TestParse(t *testing.T) {
	p, err := Parse([]byte(sampleProject))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got := strings.Join(p.LookupDirs, ","); got != "shaders,shaders/lib" {
		t.Errorf("LookupDirs = %s", got)
	}
	if p.ShaderModel != hlsl.ShaderModel6_0 || !p.KeepUnused {
		t.Errorf("project settings = %+v", p)
	}
	if len(p.Effects) != 2 {
		t.Fatalf("got %d effects, want 2", len(p.Effects))
	}

	basic, ok := p.Effect("Basic")
	if !ok {
		t.Fatal("no effect Basic")
	}
	if got := basic.Mixins[1].String(); got != "Texturing<2>" {
		t.Errorf("second mixin = %s", got)
	}
	if len(basic.Macros) != 2 || basic.Macros[0].Name != "QUALITY" || basic.Macros[1].Name != "USE_FOG" {
		t.Errorf("macros = %v, want sorted by name", basic.Macros)
	}
	if got := basic.Compositions["layers"][1].GenericArguments; len(got) != 1 || got[0] != "float4(1, 0, 0, 1)" {
		t.Errorf("layer generic arguments = %q", got)
	}
}

func TestEffectSource(t *testing.T) {
	p, err := Parse([]byte(sampleProject))
	if err != nil {
		t.Fatal(err)
	}
	basic, _ := p.Effect("Basic")
	src := basic.Source()

	if _, ok := src.Compositions["albedo"].(*library.ClassSource); !ok {
		t.Errorf("albedo = %T, want a single fragment", src.Compositions["albedo"])
	}
	arr, ok := src.Compositions["layers"].(*library.ArraySource)
	if !ok || len(arr.Values) != 2 {
		t.Errorf("layers = %v, want an array of two", src.Compositions["layers"])
	}
	if arr, ok := src.Compositions["none"].(*library.ArraySource); !ok || len(arr.Values) != 0 {
		t.Errorf("none = %v, want an empty array", src.Compositions["none"])
	}
	if !src.Equal(basic.Source()) {
		t.Error("Source() is not stable")
	}
	if job := basic.Job(); job.Name != "Basic" || !job.Source.Equal(src) {
		t.Errorf("Job() = %+v", job)
	}
}

func TestOptions(t *testing.T) {
	p, err := Parse([]byte(sampleProject))
	if err != nil {
		t.Fatal(err)
	}
	opts := p.Options()
	if opts.Link.DefaultBuffer != "PerMaterial" || opts.Link.FlipRenderTarget != "FlipY" {
		t.Errorf("link options = %+v", opts.Link)
	}
	if !opts.Link.KeepUnusedVariables {
		t.Error("keep-unused not applied")
	}
	if len(opts.Link.EntryPoints) == 0 {
		t.Error("default entry points dropped")
	}
	if opts.HLSL.ShaderModel != hlsl.ShaderModel6_0 {
		t.Errorf("shader model = %v", opts.HLSL.ShaderModel)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		toml string
		want string
	}{
		{"no project", `[[effect]]
name = "A"`, "missing [project]"},
		{"no lookup dirs", `[project]
keep-unused = true
[[effect]]
name = "A"
mixins = ["A"]
output = "a.hlsl"`, "lookup directory"},
		{"bad shader model", `[project]
lookup-dirs = ["s"]
shader-model = "4.0"`, "unknown shader model"},
		{"no effects", `[project]
lookup-dirs = ["s"]`, "at least one [[effect]]"},
		{"effect without mixins", `[project]
lookup-dirs = ["s"]
[[effect]]
name = "A"
output = "a.hlsl"`, "at least one mixin"},
		{"effect without output", `[project]
lookup-dirs = ["s"]
[[effect]]
name = "A"
mixins = ["A"]`, "no output path"},
		{"duplicate effect", `[project]
lookup-dirs = ["s"]
[[effect]]
name = "A"
mixins = ["A"]
output = "a.hlsl"
[[effect]]
name = "A"
mixins = ["B"]
output = "b.hlsl"`, "declared twice"},
		{"bad reference", `[project]
lookup-dirs = ["s"]
[[effect]]
name = "A"
mixins = ["A<1"]
output = "a.hlsl"`, "invalid fragment reference"},
		{"bad macro", `[project]
lookup-dirs = ["s"]
[[effect]]
name = "A"
mixins = ["A"]
output = "a.hlsl"
[effect.macros]
"1BAD" = "x"`, "not an identifier"},
		{"bad toml", `[project`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.toml))
			if err == nil {
				t.Fatal("Parse() succeeded")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(sampleProject), 0o644); err != nil {
		t.Fatal(err)
	}

	p, err := Load(dir)
	if err != nil {
		t.Fatalf("Load(dir) error = %v", err)
	}
	if p.Root != dir {
		t.Errorf("Root = %s, want %s", p.Root, dir)
	}
	basic, _ := p.Effect("Basic")
	if got, want := p.OutputPath(basic), filepath.Join(dir, "out", "basic.hlsl"); got != want {
		t.Errorf("OutputPath = %s, want %s", got, want)
	}
	plain, _ := p.Effect("Plain")
	if got := p.OutputPath(plain); got != "/abs/plain.hlsl" {
		t.Errorf("absolute OutputPath = %s", got)
	}
	if got := strings.Join(p.Dirs(), ","); got != "shaders,shaders/lib" {
		t.Errorf("Dirs() = %s", got)
	}

	if _, err := Load(filepath.Join(dir, "missing.toml")); err == nil {
		t.Error("Load of a missing file succeeded")
	}
}
