package mixer

import (
	"context"
	"runtime"
	"testing"

	"github.com/gogpu/mixer/hlsl"
	"github.com/gogpu/mixer/library"
	"github.com/gogpu/mixer/link"
	"github.com/gogpu/mixer/sdsl"
)

// ---------------------------------------------------------------------------
// Effects grouped by composition depth
// ---------------------------------------------------------------------------

type effectCase struct {
	name string
	src  func() library.Source
}

var effectsByComplexity = []effectCase{
	{"single_fragment", func() library.Source {
		return mixin("Tinted")
	}},
	{"composition", func() library.Source {
		src := mixin("Material")
		src.Compositions["Diffuse"] = &library.ClassSource{Name: "ColorConst"}
		return src
	}},
	{"array_composition", func() library.Source {
		src := mixin("Layered")
		src.Compositions["Layers"] = &library.ArraySource{Values: []library.Source{
			&library.ClassSource{Name: "ColorConst"},
			&library.ClassSource{Name: "ComputeColor"},
			&library.ClassSource{Name: "ColorFog"},
			&library.ClassSource{Name: "ColorConst"},
		}}
		return src
	}},
}

// ---------------------------------------------------------------------------
// End-to-end: fragment sources to HLSL
// ---------------------------------------------------------------------------

// BenchmarkCompileCold benchmarks a full compile with an empty cache, so
// every fragment is parsed and instantiated.
func BenchmarkCompileCold(b *testing.B) {
	fsys := testFS()
	for _, ec := range effectsByComplexity {
		b.Run(ec.name, func(b *testing.B) {
			src := ec.src()
			b.ReportAllocs()
			b.ResetTimer()

			var code string
			for i := 0; i < b.N; i++ {
				c := New(fsys, []string{"shaders"}, DefaultOptions())
				var err error
				code, _, _, err = c.Compile(src, nil)
				if err != nil {
					b.Fatalf("compile failed: %v", err)
				}
			}
			runtime.KeepAlive(code)
		})
	}
}

// BenchmarkCompileCached benchmarks recompiling an effect whose units are
// already cached; only linking and code generation run.
func BenchmarkCompileCached(b *testing.B) {
	for _, ec := range effectsByComplexity {
		b.Run(ec.name, func(b *testing.B) {
			c := New(testFS(), []string{"shaders"}, DefaultOptions())
			src := ec.src()
			if _, _, _, err := c.Compile(src, nil); err != nil {
				b.Fatalf("compile failed: %v", err)
			}
			b.ReportAllocs()
			b.ResetTimer()

			var code string
			for i := 0; i < b.N; i++ {
				var err error
				code, _, _, err = c.Compile(src, nil)
				if err != nil {
					b.Fatalf("compile failed: %v", err)
				}
			}
			runtime.KeepAlive(code)
		})
	}
}

// BenchmarkMixAll benchmarks linking every effect concurrently against one
// shared cache.
func BenchmarkMixAll(b *testing.B) {
	c := New(testFS(), []string{"shaders"}, DefaultOptions())
	jobs := make([]Job, len(effectsByComplexity))
	for i, ec := range effectsByComplexity {
		jobs[i] = Job{Name: ec.name, Source: ec.src()}
	}
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		results, err := c.MixAll(context.Background(), jobs)
		if err != nil {
			b.Fatal(err)
		}
		for _, r := range results {
			if r.Err != nil {
				b.Fatalf("%s: %v", r.Name, r.Err)
			}
		}
	}
}

// ---------------------------------------------------------------------------
// Individual stages
// ---------------------------------------------------------------------------

// BenchmarkParse benchmarks parsing one fragment.
func BenchmarkParse(b *testing.B) {
	data := testFS()["shaders/Layered.sdsl"].Data
	text := string(data)
	b.ReportAllocs()
	b.SetBytes(int64(len(data)))
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		frag, err := sdsl.Parse("Layered.sdsl", text, nil)
		if err != nil {
			b.Fatalf("parse failed: %v", err)
		}
		runtime.KeepAlive(frag)
	}
}

// BenchmarkLink benchmarks the linker alone on a prebuilt composition tree.
func BenchmarkLink(b *testing.B) {
	c := New(testFS(), []string{"shaders"}, DefaultOptions())
	src := effectsByComplexity[2].src()
	if _, _, err := c.Mix(src, nil); err != nil {
		b.Fatal(err)
	}
	root, err := c.compose(src, nil)
	if err != nil {
		b.Fatal(err)
	}
	opts := link.DefaultOptions()
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		p, log := link.Link(root, opts)
		if log.HasErrors() {
			b.Fatalf("link failed:\n%s", log.FormatAll())
		}
		runtime.KeepAlive(p)
	}
}

// BenchmarkGenerateHLSL benchmarks code generation for a linked program.
func BenchmarkGenerateHLSL(b *testing.B) {
	c := New(testFS(), []string{"shaders"}, DefaultOptions())
	p, _, err := c.Mix(effectsByComplexity[2].src(), nil)
	if err != nil {
		b.Fatal(err)
	}
	opts := hlsl.DefaultOptions()
	b.ReportAllocs()
	b.ResetTimer()

	var code string
	for i := 0; i < b.N; i++ {
		code, _, err = hlsl.Compile(p, opts)
		if err != nil {
			b.Fatal(err)
		}
	}
	runtime.KeepAlive(code)
}
