package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, text := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(text), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

var projectFiles = map[string]string{
	"mixer.toml": `[project]
lookup-dirs = ["shaders"]

[[effect]]
name = "Tinted"
mixins = ["Tinted"]
output = "out/tinted.hlsl"
`,
	"shaders/ShadingBase.sdsl": `shader ShadingBase {
	stage stream float4 ColorTarget : SV_Target0;
	stage float4 Shading() { return 0; }
	stage void PSMain() { streams.ColorTarget = Shading(); }
};`,
	"shaders/Tinted.sdsl": `shader Tinted : ShadingBase {
	float4 Tint;
	stage override float4 Shading() { return Tint; }
};`,
}

func TestExecBuild(t *testing.T) {
	dir := writeProject(t, projectFiles)
	if !execBuild(context.Background(), dir, levelSilent) {
		t.Fatal("build failed")
	}
	out, err := os.ReadFile(filepath.Join(dir, "out", "tinted.hlsl"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(out), "void PSMain()") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestExecBuildFailures(t *testing.T) {
	files := map[string]string{}
	for k, v := range projectFiles {
		files[k] = v
	}
	delete(files, "shaders/ShadingBase.sdsl")
	dir := writeProject(t, files)
	if execBuild(context.Background(), dir, levelSilent) {
		t.Error("build with a missing base fragment succeeded")
	}
	if execBuild(context.Background(), filepath.Join(dir, "nope.toml"), levelSilent) {
		t.Error("build of a missing project succeeded")
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]logLevel{
		"silent":  levelSilent,
		"error":   levelError,
		"warn":    levelWarn,
		"verbose": levelVerbose,
		"":        levelWarn,
	}
	for in, want := range tests {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
