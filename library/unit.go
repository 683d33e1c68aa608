package library

import (
	"github.com/gogpu/mixer/ast"
	"github.com/gogpu/mixer/diag"
)

// BodyID addresses a compiled fragment body in the library arena. IDs are
// never reused while the library lives.
type BodyID uint32

type body struct {
	frag        *ast.Fragment
	genericName string

	// analyzed is set once a link using this body succeeded.
	analyzed bool
}

type replaceState uint8

const (
	replaceNone replaceState = iota
	replaceInProgress
	replaceDone
)

// Unit is a compiled unit: the canonical, instantiated form of one
// fragment reference under one macro set, with everything it depends on.
//
// A Unit's identity is stable for the life of the library. Replacement
// swaps the body it points to, never the Unit itself.
type Unit struct {
	lib    *Library
	source Source
	macros []Macro

	name string
	body BodyID

	sourceHash       string
	preprocessedHash string

	context    []*Unit
	contextSet map[*Unit]struct{}

	instantiated bool
	replace      replaceState
	log          *diag.Log

	// missing names the dependencies that failed to load and depErr holds
	// why, so cache hits report the failure again and a later change to
	// one of them evicts the unit.
	missing []string
	depErr  error
}

// Source returns the reference the unit was built from.
func (u *Unit) Source() Source { return u.source }

// Macros returns the macro set the unit was built with.
func (u *Unit) Macros() []Macro { return u.macros }

// Name returns the fragment name. Generic instantiations are named
// Name<arg,...> so each instantiation is distinct.
func (u *Unit) Name() string { return u.name }

// ClassName returns the referenced fragment name without generic arguments.
func (u *Unit) ClassName() string {
	if cs, ok := u.source.(*ClassSource); ok {
		return cs.Name
	}
	return u.name
}

// GenericName returns the fragment name before instantiation. It is the
// prefix of link names generated for the unit's variables.
func (u *Unit) GenericName() string {
	u.lib.mu.RLock()
	defer u.lib.mu.RUnlock()
	return u.lib.bodies[u.body].genericName
}

// AST returns the canonical fragment tree. Callers must not modify it;
// the linker works on clones.
func (u *Unit) AST() *ast.Fragment {
	u.lib.mu.RLock()
	defer u.lib.mu.RUnlock()
	return u.fragment()
}

func (u *Unit) fragment() *ast.Fragment {
	if b := u.lib.bodies[u.body]; b != nil {
		return b.frag
	}
	return nil
}

// Body returns the arena handle of the unit's current body.
func (u *Unit) Body() BodyID {
	u.lib.mu.RLock()
	defer u.lib.mu.RUnlock()
	return u.body
}

// SourceHash returns the digest of the fragment source text.
func (u *Unit) SourceHash() string { return u.sourceHash }

// PreprocessedHash returns the digest of the macro-expanded tokens.
func (u *Unit) PreprocessedHash() string { return u.preprocessedHash }

// MinimalContext returns the units needed to link this one, itself
// included, in discovery order.
func (u *Unit) MinimalContext() []*Unit {
	u.lib.mu.RLock()
	defer u.lib.mu.RUnlock()
	return append([]*Unit(nil), u.context...)
}

// Instantiated reports whether every generic parameter received an argument.
func (u *Unit) Instantiated() bool { return u.instantiated }

// Log returns the diagnostics recorded while building the unit.
func (u *Unit) Log() *diag.Log { return u.log }

// MarkAnalyzed records that a link using the unit's body succeeded, which
// makes the body a candidate for replacement of equivalent units.
func (u *Unit) MarkAnalyzed() {
	u.lib.mu.Lock()
	defer u.lib.mu.Unlock()
	if b := u.lib.bodies[u.body]; b != nil {
		b.analyzed = true
	}
}

func (u *Unit) addContext(c *Unit) {
	if _, ok := u.contextSet[c]; ok {
		return
	}
	u.contextSet[c] = struct{}{}
	u.context = append(u.context, c)
}

func (u *Unit) inContext(name string) bool {
	for _, c := range u.context {
		if c.ClassName() == name || c.name == name {
			return true
		}
	}
	return false
}
