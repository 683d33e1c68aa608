// Package config loads mixc project files. A project file is TOML: a
// [project] table with the link settings shared by every effect, and one
// [[effect]] table per program to build.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/pelletier/go-toml"

	"github.com/gogpu/mixer"
	"github.com/gogpu/mixer/hlsl"
	"github.com/gogpu/mixer/library"
)

// FileName is the project file looked up in a directory.
const FileName = "mixer.toml"

// tomlFile is the project file as it is encoded in TOML.
type tomlFile struct {
	Project *tomlProject  `toml:"project"`
	Effects []*tomlEffect `toml:"effect"`
}

type tomlProject struct {
	LookupDirs       []string `toml:"lookup-dirs"`
	DefaultBuffer    string   `toml:"default-buffer,omitempty"`
	FlipRenderTarget string   `toml:"flip-rendertarget,omitempty"`
	KeepUnused       bool     `toml:"keep-unused"`
	ShaderModel      string   `toml:"shader-model,omitempty"`
	EntryPoints      []string `toml:"entry-points,omitempty"`
}

type tomlEffect struct {
	Name         string              `toml:"name"`
	Mixins       []string            `toml:"mixins"`
	Output       string              `toml:"output"`
	Macros       map[string]string   `toml:"macros,omitempty"`
	Compositions map[string][]string `toml:"compositions,omitempty"`
}

// Project is a validated project file.
type Project struct {
	// Root is the directory holding the project file. Relative lookup
	// directories and outputs are resolved against it.
	Root string

	LookupDirs       []string
	DefaultBuffer    string
	FlipRenderTarget string
	KeepUnused       bool
	ShaderModel      hlsl.ShaderModel
	EntryPoints      []string

	Effects []*Effect
}

// Effect is one program to build.
type Effect struct {
	Name   string
	Mixins []*library.ClassSource
	Output string
	Macros []library.Macro

	// Compositions maps compose variable names to the fragments filling
	// them. One entry fills a variable, several fill an array.
	Compositions map[string][]*library.ClassSource
}

var shaderModels = map[string]hlsl.ShaderModel{
	"5.0": hlsl.ShaderModel5_0,
	"5.1": hlsl.ShaderModel5_1,
	"6.0": hlsl.ShaderModel6_0,
	"6.2": hlsl.ShaderModel6_2,
	"6.6": hlsl.ShaderModel6_6,
}

// Load reads and validates the project file at path. A directory path
// loads the FileName inside it.
func Load(path string) (*Project, error) {
	if fi, err := os.Stat(path); err == nil && fi.IsDir() {
		path = filepath.Join(path, FileName)
	}
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	p, err := Parse(buf)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	p.Root = filepath.Dir(path)
	return p, nil
}

// Parse decodes and validates a project file.
func Parse(buf []byte) (*Project, error) {
	tf := &tomlFile{}
	if err := toml.Unmarshal(buf, tf); err != nil {
		return nil, err
	}
	if tf.Project == nil {
		return nil, errors.New("missing [project] table")
	}

	p := &Project{
		LookupDirs:       tf.Project.LookupDirs,
		DefaultBuffer:    tf.Project.DefaultBuffer,
		FlipRenderTarget: tf.Project.FlipRenderTarget,
		KeepUnused:       tf.Project.KeepUnused,
		ShaderModel:      hlsl.ShaderModel5_1,
		EntryPoints:      tf.Project.EntryPoints,
	}
	if err := validateProject(p, tf.Project); err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(tf.Effects))
	for _, te := range tf.Effects {
		e, err := convertEffect(te)
		if err != nil {
			return nil, err
		}
		if seen[e.Name] {
			return nil, fmt.Errorf("effect %s is declared twice", e.Name)
		}
		seen[e.Name] = true
		p.Effects = append(p.Effects, e)
	}
	if len(p.Effects) == 0 {
		return nil, errors.New("project must declare at least one [[effect]]")
	}
	return p, nil
}

// validateProject checks the [project] table and fills defaults.
func validateProject(p *Project, tp *tomlProject) error {
	if len(p.LookupDirs) == 0 {
		return errors.New("project must name at least one lookup directory")
	}
	if tp.ShaderModel != "" {
		sm, ok := shaderModels[tp.ShaderModel]
		if !ok {
			return fmt.Errorf("unknown shader model %q", tp.ShaderModel)
		}
		p.ShaderModel = sm
	}
	if p.DefaultBuffer != "" && !isIdentifier(p.DefaultBuffer) {
		return fmt.Errorf("default buffer %q is not an identifier", p.DefaultBuffer)
	}
	if p.FlipRenderTarget != "" && !isIdentifier(p.FlipRenderTarget) {
		return fmt.Errorf("flip render target %q is not an identifier", p.FlipRenderTarget)
	}
	return nil
}

func convertEffect(te *tomlEffect) (*Effect, error) {
	if te.Name == "" {
		return nil, errors.New("effect without a name")
	}
	if len(te.Mixins) == 0 {
		return nil, fmt.Errorf("effect %s must list at least one mixin", te.Name)
	}
	if te.Output == "" {
		return nil, fmt.Errorf("effect %s has no output path", te.Name)
	}

	e := &Effect{
		Name:         te.Name,
		Output:       te.Output,
		Compositions: make(map[string][]*library.ClassSource, len(te.Compositions)),
	}
	for _, m := range te.Mixins {
		cs, err := library.ParseClassSource(m)
		if err != nil {
			return nil, fmt.Errorf("effect %s: %w", te.Name, err)
		}
		e.Mixins = append(e.Mixins, cs)
	}
	for name, refs := range te.Compositions {
		if !isIdentifier(name) {
			return nil, fmt.Errorf("effect %s: composition %q is not an identifier", te.Name, name)
		}
		list := make([]*library.ClassSource, 0, len(refs))
		for _, r := range refs {
			cs, err := library.ParseClassSource(r)
			if err != nil {
				return nil, fmt.Errorf("effect %s: composition %s: %w", te.Name, name, err)
			}
			list = append(list, cs)
		}
		e.Compositions[name] = list
	}

	names := make([]string, 0, len(te.Macros))
	for name := range te.Macros {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if !isIdentifier(name) {
			return nil, fmt.Errorf("effect %s: macro %q is not an identifier", te.Name, name)
		}
		e.Macros = append(e.Macros, library.Macro{Name: name, Definition: te.Macros[name]})
	}
	return e, nil
}

// Source returns the mixin source of the effect. A composition listing a
// single fragment fills a variable; an empty or longer list fills an array.
func (e *Effect) Source() *library.MixinSource {
	src := &library.MixinSource{
		Mixins:       e.Mixins,
		Macros:       e.Macros,
		Compositions: make(map[string]library.Source, len(e.Compositions)),
	}
	for name, refs := range e.Compositions {
		if len(refs) == 1 {
			src.Compositions[name] = refs[0]
			continue
		}
		arr := &library.ArraySource{}
		for _, r := range refs {
			arr.Values = append(arr.Values, r)
		}
		src.Compositions[name] = arr
	}
	return src
}

// Job returns the MixAll job of the effect.
func (e *Effect) Job() mixer.Job {
	return mixer.Job{Name: e.Name, Source: e.Source()}
}

// OutputPath returns the effect's output resolved against the project root.
func (p *Project) OutputPath(e *Effect) string {
	if filepath.IsAbs(e.Output) {
		return e.Output
	}
	return filepath.Join(p.Root, e.Output)
}

// Dirs returns the lookup directories relative to the project root, in
// slash form for use with an fs.FS rooted there.
func (p *Project) Dirs() []string {
	dirs := make([]string, len(p.LookupDirs))
	for i, d := range p.LookupDirs {
		dirs[i] = filepath.ToSlash(filepath.Clean(d))
	}
	return dirs
}

// Options converts the project settings to compiler options.
func (p *Project) Options() mixer.Options {
	opts := mixer.DefaultOptions()
	if p.DefaultBuffer != "" {
		opts.Link.DefaultBuffer = p.DefaultBuffer
	}
	if p.FlipRenderTarget != "" {
		opts.Link.FlipRenderTarget = p.FlipRenderTarget
	}
	if len(p.EntryPoints) > 0 {
		opts.Link.EntryPoints = p.EntryPoints
	}
	opts.Link.KeepUnusedVariables = p.KeepUnused
	opts.HLSL.ShaderModel = p.ShaderModel
	return opts
}

// Effect returns the effect with the given name.
func (p *Project) Effect(name string) (*Effect, bool) {
	for _, e := range p.Effects {
		if e.Name == name {
			return e, true
		}
	}
	return nil, false
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}
