// Package diag holds the diagnostics shared by the mixer packages: message
// codes, the accumulated message log, and the package-wide logger.
package diag

import "errors"

// Code identifies a kind of diagnostic.
type Code uint8

const (
	// ErrClassNotInstantiated reports a generic fragment referenced with
	// fewer arguments than it declares parameters.
	ErrClassNotInstantiated Code = iota

	// ErrSourceNotFound reports a fragment whose source cannot be located.
	ErrSourceNotFound

	// ErrParse reports a syntax error in fragment source text.
	ErrParse

	// ErrImpossibleBaseCall reports a base call with no earlier definition.
	ErrImpossibleBaseCall

	// ErrImpossibleVirtualCall reports a call that resolves to no definition.
	ErrImpossibleVirtualCall

	// ErrVariableNotFound reports a member access that binds to no variable.
	ErrVariableNotFound

	// ErrCallNotFound reports a call through a composition that binds to no method.
	ErrCallNotFound

	// ErrCallToAbstractMethod reports a call whose final target has no body.
	ErrCallToAbstractMethod

	// ErrMultidimensionalCompositionArray reports a composition array with
	// more than one dimension.
	ErrMultidimensionalCompositionArray

	// ErrSemanticCbufferConflict reports two variables sharing a semantic
	// but declared in different constant buffers.
	ErrSemanticCbufferConflict

	// ErrStageMixinNotFound reports a stage member whose declaring fragment
	// is not part of the linked program.
	ErrStageMixinNotFound

	// ErrStageMixinVariableNotFound reports a stage variable with no
	// canonical declaration.
	ErrStageMixinVariableNotFound

	// ErrStageMixinMethodNotFound reports a stage method with no override chain.
	ErrStageMixinMethodNotFound

	// ErrMixinNotFound reports a base fragment missing from the context.
	ErrMixinNotFound

	// ErrUnsupportedForEach reports a foreach over a collection without a
	// single literal dimension.
	ErrUnsupportedForEach

	// ErrNestedAssignment reports an assignment nested inside another one
	// while analyzing stream usage.
	ErrNestedAssignment

	// ErrCompositionArraySize reports a sized composition array bound to a
	// different number of compositions.
	ErrCompositionArraySize

	// WarnReplacementCycle reports a cross-reference cycle met while
	// checking units for replacement.
	WarnReplacementCycle

	// WarnUseSemanticType reports a stage variable matched by semantic
	// instead of by name.
	WarnUseSemanticType
)

// String returns a human-readable code name.
func (c Code) String() string {
	switch c {
	case ErrClassNotInstantiated:
		return "ClassNotInstantiated"
	case ErrSourceNotFound:
		return "SourceNotFound"
	case ErrParse:
		return "Parse"
	case ErrImpossibleBaseCall:
		return "ImpossibleBaseCall"
	case ErrImpossibleVirtualCall:
		return "ImpossibleVirtualCall"
	case ErrVariableNotFound:
		return "VariableNotFound"
	case ErrCallNotFound:
		return "CallNotFound"
	case ErrCallToAbstractMethod:
		return "CallToAbstractMethod"
	case ErrMultidimensionalCompositionArray:
		return "MultidimensionalCompositionArray"
	case ErrSemanticCbufferConflict:
		return "SemanticCbufferConflict"
	case ErrStageMixinNotFound:
		return "StageMixinNotFound"
	case ErrStageMixinVariableNotFound:
		return "StageMixinVariableNotFound"
	case ErrStageMixinMethodNotFound:
		return "StageMixinMethodNotFound"
	case ErrMixinNotFound:
		return "MixinNotFound"
	case ErrUnsupportedForEach:
		return "UnsupportedForEach"
	case ErrNestedAssignment:
		return "NestedAssignment"
	case ErrCompositionArraySize:
		return "CompositionArraySize"
	case WarnReplacementCycle:
		return "ReplacementCycle"
	case WarnUseSemanticType:
		return "UseSemanticType"
	default:
		return "Unknown"
	}
}

// Category groups codes by the component that raises them.
type Category uint8

const (
	CategoryInstantiation Category = iota
	CategoryLookup
	CategoryLink
	CategoryStream
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryInstantiation:
		return "instantiation"
	case CategoryLookup:
		return "lookup"
	case CategoryLink:
		return "link"
	case CategoryStream:
		return "stream"
	default:
		return "unknown"
	}
}

// Category returns the component category of the code.
func (c Code) Category() Category {
	switch c {
	case ErrClassNotInstantiated:
		return CategoryInstantiation
	case ErrSourceNotFound, ErrParse:
		return CategoryLookup
	case ErrNestedAssignment:
		return CategoryStream
	default:
		return CategoryLink
	}
}

// Sentinel errors matched by errors.Is against any *Message of the
// corresponding category.
var (
	ErrInstantiation = errors.New("instantiation error")
	ErrLookup        = errors.New("lookup error")
	ErrLink          = errors.New("link error")
	ErrStream        = errors.New("stream analysis error")
)

func (c Category) sentinel() error {
	switch c {
	case CategoryInstantiation:
		return ErrInstantiation
	case CategoryLookup:
		return ErrLookup
	case CategoryStream:
		return ErrStream
	default:
		return ErrLink
	}
}
