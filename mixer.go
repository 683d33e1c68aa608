// Package mixer provides a Pure Go shader mixin compiler.
//
// mixer composes shader fragments written in a C-like shading language
// with class-like composition into single flat programs:
//   - library: caches one compiled unit per fragment reference and macro set
//   - link: flattens a composition tree into one program with unique names
//   - streams: decides which stream variables each stage reads and writes
//   - hlsl: prints a linked program as HLSL source
//
// Example usage:
//
//	c := mixer.New(os.DirFS("."), []string{"shaders"}, mixer.DefaultOptions())
//	src := &library.MixinSource{
//	    Mixins: []*library.ClassSource{{Name: "ShaderBase"}, {Name: "Texturing"}},
//	}
//	code, _, log, err := c.Compile(src, nil)
//	if err != nil {
//	    fmt.Println(log.FormatAll())
//	}
//
// A Compiler may be shared by goroutines; MixAll links many effects in
// parallel against one cache.
package mixer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/gogpu/mixer/diag"
	"github.com/gogpu/mixer/hlsl"
	"github.com/gogpu/mixer/library"
	"github.com/gogpu/mixer/link"
	"github.com/gogpu/mixer/source"
)

// ErrArrayRoot is returned when an array source is mixed on its own.
var ErrArrayRoot = errors.New("mixer: an array source cannot be the root of a mix")

// Options configures mixing and code generation.
type Options struct {
	// Link configures the linker.
	Link link.Options

	// HLSL configures code generation. Nil uses hlsl.DefaultOptions.
	HLSL *hlsl.Options

	// Parallelism bounds the number of links MixAll runs at once.
	// Zero means GOMAXPROCS.
	Parallelism int
}

// DefaultOptions returns sensible default options.
func DefaultOptions() Options {
	return Options{
		Link: link.DefaultOptions(),
		HLSL: hlsl.DefaultOptions(),
	}
}

// SetLogger configures the logger shared by every mixer package.
// Pass nil to restore the silent default.
func SetLogger(l *slog.Logger) {
	diag.SetLogger(l)
}

// Logger returns the current logger.
func Logger() *slog.Logger {
	return diag.Logger()
}

// Compiler mixes fragment sources into programs, caching compiled units
// between calls.
type Compiler struct {
	sources *source.Manager
	lib     *library.Library
	opts    Options
}

// New returns a compiler reading fragment files from the lookup
// directories of fsys.
func New(fsys fs.FS, dirs []string, opts Options) *Compiler {
	return NewWithSources(source.NewManager(fsys, dirs...), opts)
}

// NewWithSources returns a compiler backed by an existing source manager.
func NewWithSources(sources *source.Manager, opts Options) *Compiler {
	return &Compiler{
		sources: sources,
		lib:     library.New(library.NewParserLoader(sources)),
		opts:    opts,
	}
}

// Sources returns the compiler's source manager.
func (c *Compiler) Sources() *source.Manager { return c.sources }

// Library returns the compiler's unit cache.
func (c *Compiler) Library() *library.Library { return c.lib }

// Mix resolves src under macros and links it into a program. The returned
// log holds every diagnostic of the resolved units and of the link; err is
// non-nil when the log contains errors or a fragment cannot be loaded.
// A link with errors still returns the assembled program, marked invalid.
// Units taking part in a successful link are marked analyzed.
func (c *Compiler) Mix(src library.Source, macros []library.Macro) (*link.Program, *diag.Log, error) {
	log := diag.NewLog()
	if _, ok := src.(*library.ArraySource); ok || src == nil {
		return nil, log, ErrArrayRoot
	}

	units, err := c.lib.Resolve(src, macros)
	for _, u := range units {
		log.Append(u.Log())
	}
	if err != nil {
		return nil, log, err
	}
	if log.HasErrors() {
		return nil, log, log.Err()
	}

	root, err := c.compose(src, macros)
	if err != nil {
		return nil, log, err
	}
	prog, linkLog := link.Link(root, c.opts.Link)
	log.Append(linkLog)
	if log.HasErrors() {
		return prog, log, log.Err()
	}
	for _, u := range units {
		u.MarkAnalyzed()
	}
	return prog, log, nil
}

// compose builds the composition tree of src, binding each named
// composition of a mixin source to the units of its value.
func (c *Compiler) compose(src library.Source, macros []library.Macro) (*link.Composition, error) {
	u, err := c.lib.Get(src, macros)
	if err != nil {
		return nil, err
	}
	comp := &link.Composition{Unit: u}
	m, ok := src.(*library.MixinSource)
	if !ok {
		return comp, nil
	}
	merged := library.MergeMacros(macros, m.Macros)
	for _, name := range m.CompositionNames() {
		values := []library.Source{m.Compositions[name]}
		if arr, ok := m.Compositions[name].(*library.ArraySource); ok {
			values = arr.Values
			comp.Bind(name)
		}
		for _, v := range values {
			if v == nil {
				continue
			}
			child, err := c.compose(v, merged)
			if err != nil {
				return nil, fmt.Errorf("composition %s: %w", name, err)
			}
			comp.Bind(name, child)
		}
	}
	return comp, nil
}

// Compile mixes src and generates HLSL for the program.
func (c *Compiler) Compile(src library.Source, macros []library.Macro) (string, *hlsl.TranslationInfo, *diag.Log, error) {
	prog, log, err := c.Mix(src, macros)
	if err != nil {
		return "", nil, log, err
	}
	code, info, err := hlsl.Compile(prog, c.opts.HLSL)
	if err != nil {
		return "", nil, log, err
	}
	return code, info, log, nil
}

// Job is one effect to compile with MixAll.
type Job struct {
	Name   string
	Source library.Source
	Macros []library.Macro
}

// Result is the outcome of one Job.
type Result struct {
	Name    string
	Program *link.Program
	Code    string
	Info    *hlsl.TranslationInfo
	Log     *diag.Log
	Err     error
}

// MixAll compiles jobs concurrently. Results are in job order and carry
// their own errors; the returned error is only set when ctx is cancelled.
func (c *Compiler) MixAll(ctx context.Context, jobs []Job) ([]Result, error) {
	results := make([]Result, len(jobs))
	g, ctx := errgroup.WithContext(ctx)
	limit := c.opts.Parallelism
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	g.SetLimit(limit)

	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r := Result{Name: job.Name}
			r.Program, r.Log, r.Err = c.Mix(job.Source, job.Macros)
			if r.Err == nil {
				r.Code, r.Info, r.Err = hlsl.Compile(r.Program, c.opts.HLSL)
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// DeleteObsolete drops every cached unit built from or depending on the
// named fragments, so the next mix reloads their sources.
func (c *Compiler) DeleteObsolete(names ...string) {
	c.lib.DeleteObsolete(names...)
}
