// Package library is the instantiation cache for shader fragments: it
// turns fragment references plus macro sets into canonical compiled units,
// deduplicates them, tracks what each unit needs to be linked, and drops
// units when their sources change.
package library

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/mixer/ast"
	"github.com/gogpu/mixer/diag"
	"github.com/gogpu/mixer/source"
)

// Loader produces fragment trees for references. LoadClass returns nil and
// records the reason in log when the fragment cannot be loaded. The
// returned tree is owned by the caller.
type Loader interface {
	LoadClass(src *ClassSource, macros []Macro, log *diag.Log) *ast.Fragment
	Exists(name string) bool
	DeleteObsolete(names []string)
}

// Library caches compiled units. It is safe for concurrent use; all entry
// points are serialized by one lock.
type Library struct {
	loader Loader

	mu       sync.RWMutex
	bodies   []*body
	units    []*Unit
	buckets  map[string][]*Unit
	hashes   map[string]string
	mixCount int
}

// New creates an empty library backed by loader.
func New(loader Loader) *Library {
	return &Library{
		loader:  loader,
		buckets: make(map[string][]*Unit),
		hashes:  make(map[string]string),
	}
}

// resolver carries the state of one Resolve call.
type resolver struct {
	lib  *Library
	out  []*Unit
	seen map[*Unit]bool
	errs []error

	reported map[*Unit]bool
}

func (r *resolver) add(u *Unit) {
	if r.seen[u] {
		return
	}
	r.seen[u] = true
	r.out = append(r.out, u)
}

// Resolve compiles src under macros and returns every unit reachable from
// it: the units of the reference itself, then their minimal contexts.
// Equivalent requests return the same units. Fragments that cannot be
// found or parsed produce no unit; their errors are joined into the
// returned error while sibling references keep resolving. Units failing
// generic instantiation are returned with Instantiated() == false.
func (l *Library) Resolve(src Source, macros []Macro) ([]*Unit, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	r := &resolver{lib: l, seen: make(map[*Unit]bool), reported: make(map[*Unit]bool)}
	direct := r.resolve(src, macros)
	for _, u := range direct {
		r.add(u)
	}
	for _, u := range direct {
		for _, c := range u.context {
			r.add(c)
		}
	}
	l.replaceLocked(r.out)
	return r.out, errors.Join(r.errs...)
}

// Get returns the unit for a single class or mixin source, building it if
// needed. Array sources have no unit of their own.
func (l *Library) Get(src Source, macros []Macro) (*Unit, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	r := &resolver{lib: l, seen: make(map[*Unit]bool), reported: make(map[*Unit]bool)}
	switch s := src.(type) {
	case *ClassSource:
		u, err := r.unit(s, macros)
		if err != nil {
			return nil, err
		}
		return u, errors.Join(r.errs...)
	case *MixinSource:
		u, err := r.unit(s, MergeMacros(macros, s.Macros))
		if err != nil {
			return nil, err
		}
		return u, errors.Join(r.errs...)
	}
	return nil, fmt.Errorf("library: %T has no unit", src)
}

func (r *resolver) resolve(src Source, macros []Macro) []*Unit {
	switch s := src.(type) {
	case *ClassSource:
		u, err := r.unit(s, macros)
		if err != nil {
			r.errs = append(r.errs, err)
			return nil
		}
		return []*Unit{u}
	case *MixinSource:
		merged := MergeMacros(macros, s.Macros)
		var out []*Unit
		u, err := r.unit(s, merged)
		if err != nil {
			r.errs = append(r.errs, err)
		} else {
			out = append(out, u)
		}
		for _, name := range s.CompositionNames() {
			out = append(out, r.resolve(s.Compositions[name], merged)...)
		}
		return out
	case *ArraySource:
		var out []*Unit
		for _, v := range s.Values {
			out = append(out, r.resolve(v, macros)...)
		}
		return out
	case nil:
		return nil
	}
	r.errs = append(r.errs, fmt.Errorf("library: unsupported source %T", src))
	return nil
}

// unit returns the cached unit for (src, macros) or builds it.
func (r *resolver) unit(src Source, macros []Macro) (*Unit, error) {
	l := r.lib
	key := MacroKey(macros)
	for _, u := range l.buckets[key] {
		if u.source.Equal(src) {
			diag.Logger().Debug("library: cache hit", "source", src.String(), "macros", key)
			r.cachedErrors(u)
			return u, nil
		}
	}
	diag.Logger().Debug("library: cache miss", "source", src.String(), "macros", key)

	u, err := l.build(src, macros)
	if err != nil {
		return nil, err
	}
	l.buckets[key] = append(l.buckets[key], u)
	if !u.instantiated {
		return u, nil
	}
	l.units = append(l.units, u)
	u.addContext(u)
	if !u.log.HasErrors() {
		r.loadDependencies(u, macros)
	}
	return u, nil
}

func (l *Library) newBody(frag *ast.Fragment, genericName string) BodyID {
	l.bodies = append(l.bodies, &body{frag: frag, genericName: genericName})
	return BodyID(len(l.bodies) - 1)
}

func (l *Library) build(src Source, macros []Macro) (*Unit, error) {
	u := &Unit{
		lib:        l,
		source:     src,
		macros:     append([]Macro(nil), macros...),
		contextSet: make(map[*Unit]struct{}),
		log:        diag.NewLog(),
	}

	switch s := src.(type) {
	case *MixinSource:
		name := fmt.Sprintf("Mix%d", l.mixCount)
		l.mixCount++
		frag := &ast.Fragment{Name: name}
		for _, m := range s.Mixins {
			frag.Bases = append(frag.Bases, &ast.TypeName{Name: m.Name, Args: append([]string(nil), m.GenericArguments...)})
		}
		u.name = name
		u.sourceHash = source.HashText(name).String()
		u.preprocessedHash = u.sourceHash
		u.instantiated = true
		u.body = l.newBody(frag, name)
		return u, nil

	case *ClassSource:
		frag := l.loader.LoadClass(s, macros, u.log)
		if frag == nil {
			if err := u.log.Err(); err != nil {
				return nil, err
			}
			return nil, &diag.Message{
				Severity: diag.SeverityError,
				Code:     diag.ErrSourceNotFound,
				Source:   s.Name,
				Text:     fmt.Sprintf("fragment %s could not be loaded", s),
			}
		}
		genericName := frag.Name
		u.sourceHash = frag.SourceHash
		u.preprocessedHash = frag.PreprocessedHash
		u.instantiated = true
		if n := len(frag.GenericParams); n > 0 {
			if len(s.GenericArguments) < n {
				u.instantiated = false
				u.log.Error(diag.ErrClassNotInstantiated, frag.Span,
					"fragment %s declares %d generic parameters but got %d arguments", s.Name, n, len(s.GenericArguments))
			} else {
				instantiate(frag, s.GenericArguments)
				frag.Name = s.String()
			}
		}
		for _, m := range u.log.Messages() {
			if m.Source == "" {
				m.Source = s.String()
			}
		}
		u.name = frag.Name
		u.body = l.newBody(frag, genericName)
		l.hashes[s.Name] = frag.SourceHash
		return u, nil
	}
	return nil, fmt.Errorf("library: cannot build %T", src)
}

// loadDependencies resolves every fragment the unit refers to and folds
// their minimal contexts into the unit's own.
func (r *resolver) loadDependencies(u *Unit, macros []Macro) {
	frag := u.fragment()
	for _, dep := range scanDependencies(frag, r.lib.loader.Exists) {
		du, err := r.unit(dep.ref, macros)
		if err != nil {
			u.log.Error(diag.ErrSourceNotFound, dep.span, "dependency %s of %s: %v", dep.ref, u.name, err)
			u.missing = append(u.missing, dep.ref.Name)
			u.depErr = errors.Join(u.depErr, err)
			r.reported[u] = true
			r.errs = append(r.errs, err)
			continue
		}
		if !du.instantiated {
			u.log.Error(diag.ErrClassNotInstantiated, dep.span, "dependency %s of %s is not instantiated", dep.ref, u.name)
			continue
		}
		dep.rename(du.name)
		for _, c := range du.context {
			u.addContext(c)
		}
	}
}

// cachedErrors reports again the dependency failures recorded on u and on
// its context.
func (r *resolver) cachedErrors(u *Unit) {
	for _, c := range u.context {
		if c.depErr != nil && !r.reported[c] {
			r.reported[c] = true
			r.errs = append(r.errs, c.depErr)
		}
	}
}

// Replace swaps the body of each unit for the body of an equivalent,
// already analyzed unit when one exists. Dependencies are checked first
// and each unit is checked once. A cross-reference cycle is reported as a
// warning on the unit where it is detected and left unreplaced.
func (l *Library) Replace(units []*Unit) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.replaceLocked(units)
}

func (l *Library) replaceLocked(units []*Unit) {
	for _, u := range units {
		l.checkReplacement(u)
	}
}

func (l *Library) checkReplacement(u *Unit) {
	switch u.replace {
	case replaceDone:
		return
	case replaceInProgress:
		u.log.Warning(diag.WarnReplacementCycle, ast.Span{}, "cross reference cycle through %s", u.name)
		return
	}
	u.replace = replaceInProgress
	for _, c := range u.context {
		if c != u {
			l.checkReplacement(c)
		}
	}
	for _, cand := range l.units {
		if cand == u || cand.body == u.body || !u.instantiated {
			continue
		}
		b := l.bodies[cand.body]
		if b == nil || !b.analyzed {
			continue
		}
		if !cand.source.Equal(u.source) || cand.preprocessedHash != u.preprocessedHash {
			continue
		}
		if !contextCovers(u, cand) {
			continue
		}
		diag.Logger().Debug("library: replacing unit body", "unit", u.name, "from", u.body, "to", cand.body)
		u.body = cand.body
		break
	}
	u.replace = replaceDone
}

// contextCovers reports whether every dependency of cand other than
// itself shares a body with some dependency of u.
func contextCovers(u, cand *Unit) bool {
	bodies := make(map[BodyID]bool, len(u.context))
	for _, c := range u.context {
		bodies[c.body] = true
	}
	for _, c := range cand.context {
		if c != cand && !bodies[c.body] {
			return false
		}
	}
	return true
}

// DeleteObsolete drops every unit built from one of the named fragments or
// depending on one, forgets their source digests and forwards the names to
// the loader. Calling it again with the same names is a no-op.
func (l *Library) DeleteObsolete(names ...string) {
	if len(names) == 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	obsolete := make(map[string]bool, len(names))
	for _, n := range names {
		obsolete[n] = true
	}
	isObsolete := func(u *Unit) bool {
		if obsolete[u.ClassName()] || obsolete[u.name] {
			return true
		}
		for _, c := range u.context {
			if obsolete[c.ClassName()] {
				return true
			}
			for _, n := range c.missing {
				if obsolete[n] {
					return true
				}
			}
		}
		return false
	}

	removed := 0
	for key, bucket := range l.buckets {
		kept := bucket[:0]
		for _, u := range bucket {
			if isObsolete(u) {
				removed++
				continue
			}
			kept = append(kept, u)
		}
		if len(kept) == 0 {
			delete(l.buckets, key)
		} else {
			l.buckets[key] = kept
		}
	}
	kept := l.units[:0]
	for _, u := range l.units {
		if !isObsolete(u) {
			kept = append(kept, u)
		}
	}
	for i := len(kept); i < len(l.units); i++ {
		l.units[i] = nil
	}
	l.units = kept

	live := make(map[BodyID]bool, len(l.units))
	for _, bucket := range l.buckets {
		for _, u := range bucket {
			live[u.body] = true
		}
	}
	for id := range l.bodies {
		if !live[BodyID(id)] {
			l.bodies[id] = nil
		}
	}
	for _, n := range names {
		delete(l.hashes, n)
	}
	l.loader.DeleteObsolete(names)
	diag.Logger().Info("library: deleted obsolete units", "fragments", names, "units", removed)
}

// Units returns the instantiated units in creation order.
func (l *Library) Units() []*Unit {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]*Unit(nil), l.units...)
}

// SourceHash returns the digest recorded for a fragment's source text.
func (l *Library) SourceHash(name string) (string, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	h, ok := l.hashes[name]
	return h, ok
}
