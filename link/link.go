// Package link flattens a tree of compiled fragments into one program.
//
// The root composition and every composition it binds are instantiated
// as private copies of their units, bound by name, and then merged: base
// calls and virtual calls are resolved against the combined inheritance
// order, stage members declared by the same fragment collapse to one
// declaration, variables receive their external link names, and every
// member gets a unique name. The result is a single fragment-like program
// whose variables are grouped into constant buffers, ready for a target
// printer.
package link

import (
	"errors"
	"log/slog"

	"github.com/gogpu/mixer/ast"
	"github.com/gogpu/mixer/diag"
	"github.com/gogpu/mixer/library"
)

// ErrNilRoot is returned by LinkE when no root composition is given.
var ErrNilRoot = errors.New("link: nil root composition")

// Composition is a unit with the compositions bound to its compose
// variables, keyed by variable name. Array variables take every entry of
// their slot in order; scalar variables take the first.
type Composition struct {
	Unit  *library.Unit
	Slots map[string][]*Composition
}

// Bind appends fillers to the slot named name and returns c.
func (c *Composition) Bind(name string, fillers ...*Composition) *Composition {
	if c.Slots == nil {
		c.Slots = make(map[string][]*Composition)
	}
	c.Slots[name] = append(c.Slots[name], fillers...)
	return c
}

// Options configure a link.
type Options struct {
	// FlipRenderTarget names a variable kept even when unreferenced and
	// never renamed, so hosts can always set it.
	FlipRenderTarget string

	// EntryPoints are the stage entry method names to locate.
	EntryPoints []string

	// DefaultBuffer names the constant buffer collecting variables
	// declared outside any cbuffer.
	DefaultBuffer string

	// KeepUnusedVariables disables the removal of unreferenced variables.
	KeepUnusedVariables bool

	// Logger receives pass boundaries; diag.Logger() when nil.
	Logger *slog.Logger
}

// DefaultOptions returns the options used by the compiler front end.
func DefaultOptions() Options {
	return Options{
		FlipRenderTarget: "ParadoxFlipRendertarget",
		EntryPoints:      []string{"VSMain", "HSMain", "HSConstantMain", "DSMain", "GSMain", "PSMain", "CSMain"},
		DefaultBuffer:    "Globals",
	}
}

// linker holds the state of one link.
type linker struct {
	opts   Options
	log    *diag.Log
	logger *slog.Logger

	units   map[string]*library.Unit
	root    *mixin
	tops    []*mixin
	statics map[string]*mixin

	// comps maps compose variables to the instances bound to them.
	comps map[*ast.Variable][]*mixin
	// stageInit lists compose variables initialized with stage.
	stageInit []*ast.Variable

	varOwner    map[*ast.Variable]*mixin
	methodOwner map[*ast.Method]*mixin

	order  []*mixin
	chains *chainSet
	calls  []*callSite
	pool   *RefPool

	dropped map[*ast.Method]bool
	entries map[string]*ast.Method
}

// Link flattens root into a program. Diagnostics of every pass are
// collected in the returned log. The program is nil when the root or a
// unit it needs cannot be instantiated; otherwise it is always assembled
// and Valid reports whether the log holds no errors.
func Link(root *Composition, opts Options) (*Program, *diag.Log) {
	log := diag.NewLog()
	if root == nil || root.Unit == nil {
		log.Error(diag.ErrMixinNotFound, ast.Span{}, "no root composition")
		return nil, log
	}
	if opts.DefaultBuffer == "" {
		opts.DefaultBuffer = "Globals"
	}
	l := &linker{
		opts:        opts,
		log:         log,
		logger:      opts.Logger,
		units:       make(map[string]*library.Unit),
		statics:     make(map[string]*mixin),
		comps:       make(map[*ast.Variable][]*mixin),
		varOwner:    make(map[*ast.Variable]*mixin),
		methodOwner: make(map[*ast.Method]*mixin),
		chains:      newChainSet(),
		pool:        NewRefPool(),
		dropped:     make(map[*ast.Method]bool),
		entries:     make(map[string]*ast.Method),
	}
	if l.logger == nil {
		l.logger = diag.Logger()
	}
	p := l.run(root)
	if log.HasErrors() {
		l.logger.Warn("link: finished with errors", "root", root.Unit.Name(), "errors", len(log.Errors()))
	}
	return p, log
}

// LinkE is Link returning the first error-severity diagnostics as an
// error. The log is returned as well for warnings.
func LinkE(root *Composition, opts Options) (*Program, *diag.Log, error) {
	if root == nil || root.Unit == nil {
		return nil, diag.NewLog(), ErrNilRoot
	}
	p, log := Link(root, opts)
	return p, log, log.Err()
}

func (l *linker) pass(name string) {
	l.logger.Debug("link: pass", "name", name, "root", l.root.name)
}

func (l *linker) run(root *Composition) *Program {
	if !l.collectUnits(root) {
		return nil
	}

	l.root = l.instantiate(root)
	if l.root == nil {
		return nil
	}
	l.pass("inheritance")
	l.buildOrder()
	l.bindStageCompositions()
	l.expandExternForEach()

	l.pass("bind")
	l.bindAll()

	l.pass("stage")
	l.buildChains()
	l.unifyStageVariables()
	l.resolveCalls()
	l.findEntryPoints()
	l.linkNames()
	l.mergePools()

	l.pass("merge")
	l.mergeSemantics()
	l.mergeAliases()
	l.mergeFlipFlag()

	l.pass("rename")
	l.renameVariables()
	l.renameMethods()
	l.pool.RegenerateKeys()

	l.pass("assemble")
	return l.assemble()
}

// collectUnits indexes every unit reachable from root by name, checking
// that each one is instantiated.
func (l *linker) collectUnits(c *Composition) bool {
	ok := true
	var walk func(c *Composition)
	walk = func(c *Composition) {
		if c == nil || c.Unit == nil {
			return
		}
		for _, u := range c.Unit.MinimalContext() {
			if !u.Instantiated() {
				l.log.Error(diag.ErrClassNotInstantiated, ast.Span{}, "fragment %s is not instantiated", u.Name())
				ok = false
				continue
			}
			if _, dup := l.units[u.Name()]; !dup {
				l.units[u.Name()] = u
			}
		}
		if !c.Unit.Instantiated() {
			l.log.Error(diag.ErrClassNotInstantiated, ast.Span{}, "fragment %s is not instantiated", c.Unit.Name())
			ok = false
		} else if _, dup := l.units[c.Unit.Name()]; !dup {
			l.units[c.Unit.Name()] = c.Unit
		}
		for _, name := range sortedKeys(c.Slots) {
			for _, f := range c.Slots[name] {
				walk(f)
			}
		}
	}
	walk(c)
	return ok
}
