// Package summary builds the language-neutral analysis model shared by
// linting, completion and hover. It reuses the template AST and the script
// binding table and never invokes the code generator.
package summary

import (
	"github.com/ushironoko/vize/internal/script"
	"github.com/ushironoko/vize/internal/tmplast"
)

type ScopeKind uint8

const (
	ScopeModule ScopeKind = iota
	ScopeSetup
	ScopeBlock
	ScopeFunction
	ScopeVFor
	ScopeVSlot
	ScopeEventHandler
	ScopeCallback
	ScopeClosure
	ScopeClientOnly
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeModule:
		return "module"
	case ScopeSetup:
		return "setup"
	case ScopeBlock:
		return "block"
	case ScopeFunction:
		return "function"
	case ScopeVFor:
		return "v-for"
	case ScopeVSlot:
		return "v-slot"
	case ScopeEventHandler:
		return "event-handler"
	case ScopeCallback:
		return "callback"
	case ScopeClosure:
		return "closure"
	case ScopeClientOnly:
		return "client-only"
	default:
		panic("Internal error")
	}
}

// ScopeBinding is one named entry of a scope, in declaration order.
type ScopeBinding struct {
	Name       string
	Type       tmplast.BindingType
	DeclOffset int32
	Used       bool
}

// Scope is one node of the scope chain. Lookup walks parent links.
type Scope struct {
	Kind     ScopeKind
	Start    int32
	End      int32
	Bindings []ScopeBinding
	Parent   *Scope
	Children []*Scope
}

func (s *Scope) NewChild(kind ScopeKind, start int32, end int32) *Scope {
	child := &Scope{Kind: kind, Start: start, End: end, Parent: s}
	s.Children = append(s.Children, child)
	return child
}

func (s *Scope) Declare(name string, bt tmplast.BindingType, offset int32) {
	s.Bindings = append(s.Bindings, ScopeBinding{Name: name, Type: bt, DeclOffset: offset})
}

// Lookup resolves a name through the chain, marking the binding used.
func (s *Scope) Lookup(name string) *ScopeBinding {
	for scope := s; scope != nil; scope = scope.Parent {
		for i := range scope.Bindings {
			if scope.Bindings[i].Name == name {
				scope.Bindings[i].Used = true
				return &scope.Bindings[i]
			}
		}
	}
	return nil
}

// UndefinedRef is a template reference that no scope, binding, or global
// resolves.
type UndefinedRef struct {
	Name    string
	Offset  int32
	Context string
}

// TemplateExpr records every template expression for downstream type
// checking.
type TemplateExpr struct {
	Content string
	Offset  int32
}

// UsedProp is a prop passed on a component tag in a template.
type UsedProp struct {
	Name    string
	Dynamic bool
}

// ComponentUsage is one component tag occurrence with the props and events
// it receives.
type ComponentUsage struct {
	Name   string
	Offset int32
	Props  []UsedProp
	Events []string
}

// WatchPattern flags watch(src, cb) calls whose callback is a pure
// mutation target.value = f(src.value).
type WatchPattern struct {
	SourceName string
	TargetName string
	Offset     int32
	PureCompute bool
}

// DomAccess is a document/window reference inside setup scope.
type DomAccess struct {
	API    string
	Offset int32

	// True when the access happens inside an onMounted or nextTick
	// callback, where the DOM is available
	InMountedScope bool
}

// ReactiveEscape tracks a reactive source passed out of setup to an
// unknown function, plus whether it was mutated afterwards.
type ReactiveEscape struct {
	Name         string
	EscapeOffset int32
	MutatedAfter bool
	MutateOffset int32
}

// Summary is the full analysis product for one SFC.
type Summary struct {
	Name string

	Bindings *tmplast.BindingMetadata
	Macros   script.Macros

	Props     []script.PropDecl
	Emits     []string
	EmitCalls []script.EmitCall

	Reactivity     []script.ReactiveSource
	InvalidExports []script.InvalidExport
	ProvideInject  []script.ProvideInject
	Imports        []script.ImportRecord

	RootScope *Scope

	UndefinedRefs []UndefinedRef
	TemplateExprs []TemplateExpr
	Components    []ComponentUsage
	Directives    []string

	RootElementCount int

	// Script-side lint tables consumed by the cross-file checks
	WatchPatterns   []WatchPattern
	DomAccesses     []DomAccess
	ReactiveEscapes []ReactiveEscape

	// Module-scope reactive declarations (outside any component setup)
	ModuleScopeReactive []script.ReactiveSource
}
