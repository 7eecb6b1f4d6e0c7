package transforms

import (
	"github.com/ushironoko/vize/internal/arena"
	"github.com/ushironoko/vize/internal/logger"
	"github.com/ushironoko/vize/internal/tmplast"
)

// Options controls the transform pipeline. Zero value is a plain
// non-prefixing function-mode transform.
type Options struct {
	// Run the expression rewriter. Required when Inline is set.
	PrefixIdentifiers bool

	// Embed the render function into setup and bind setup locals directly
	// through the closure instead of going through $setup.
	Inline bool

	// Cache event handlers in the per-instance _cache array
	CacheHandlers bool

	// Lift constant subtrees into module-level constants
	HoistStatic bool

	// Strip TypeScript syntax from template expressions
	IsTS bool

	// Scoped-style id emitted as an attribute on native elements
	ScopeID string

	// Identifier origins derived from the script block (or supplied by the
	// caller, which takes precedence)
	BindingMetadata *tmplast.BindingMetadata
}

// ExitFn runs after a node's children have been transformed, in reverse
// registration order.
type ExitFn func(ctx *Context)

// Context threads mutable traversal state through a single transform run.
// Parent access goes through the ParentNode interface so a transform can
// take, replace or remove the node currently being visited without the
// driver losing its place.
type Context struct {
	Arena   *arena.Arena
	Log     logger.Log
	Source  *logger.Source
	Options Options

	Root *tmplast.Root

	// Traversal state
	parent      tmplast.ParentNode
	grandparent tmplast.ParentNode
	childIndex  int
	nodeRemoved bool

	// Accumulated root metadata
	Helpers    tmplast.HelperSet
	Components []string
	Directives []string
	Hoists     []tmplast.Node
	Cached     int
	Temps      int

	componentSeen map[string]bool
	directiveSeen map[string]bool

	// Identifiers currently in template scope (v-for aliases, slot
	// parameters). Counted because the same name can nest.
	identifiers map[string]int

	// True inside a v-once subtree; suppresses hoisting and caching
	InVOnce bool
}

func NewContext(a *arena.Arena, log logger.Log, source *logger.Source, options Options) *Context {
	return &Context{
		Arena:         a,
		Log:           log,
		Source:        source,
		Options:       options,
		componentSeen: make(map[string]bool),
		directiveSeen: make(map[string]bool),
		identifiers:   make(map[string]int),
	}
}

func (ctx *Context) Helper(h tmplast.RuntimeHelper) {
	ctx.Helpers.Add(h)
}

func (ctx *Context) AddComponent(name string) {
	if !ctx.componentSeen[name] {
		ctx.componentSeen[name] = true
		ctx.Components = append(ctx.Components, name)
	}
}

func (ctx *Context) AddDirective(name string) {
	if !ctx.directiveSeen[name] {
		ctx.directiveSeen[name] = true
		ctx.Directives = append(ctx.Directives, name)
	}
}

func (ctx *Context) AddIdentifier(name string) {
	if name != "" {
		ctx.identifiers[name]++
	}
}

func (ctx *Context) RemoveIdentifier(name string) {
	if name == "" {
		return
	}
	if ctx.identifiers[name] > 1 {
		ctx.identifiers[name]--
	} else {
		delete(ctx.identifiers, name)
	}
}

func (ctx *Context) IsInScope(name string) bool {
	return ctx.identifiers[name] > 0
}

// Hoist appends node to the hoist table and returns its index.
func (ctx *Context) Hoist(node tmplast.Node) int {
	ctx.Hoists = append(ctx.Hoists, node)
	return len(ctx.Hoists) - 1
}

// CacheSlot allocates the next _cache index.
func (ctx *Context) CacheSlot() int {
	slot := ctx.Cached
	ctx.Cached++
	return slot
}

func (ctx *Context) OnError(code logger.MsgCode, loc tmplast.Loc, text string) {
	r := logger.StubRange
	if !loc.IsStub() {
		r = logger.Range{Loc: logger.Loc{Start: loc.Start}, Len: loc.End - loc.Start}
	}
	ctx.Log.AddError(code, ctx.Source, r, text)
}

// ReplaceNode writes a new node into the slot currently being visited.
func (ctx *Context) ReplaceNode(newNode tmplast.Node) {
	children := *ctx.parent.ChildSlice()
	if ctx.childIndex < len(children) {
		children[ctx.childIndex] = newNode
	}
}

// TakeCurrentNode swaps the current slot for a stub comment placeholder and
// returns the node that was there. Taking instead of removing preserves
// slot identity while a transform builds the replacement.
func (ctx *Context) TakeCurrentNode() tmplast.Node {
	children := *ctx.parent.ChildSlice()
	if ctx.childIndex >= len(children) {
		return nil
	}
	taken := children[ctx.childIndex]
	children[ctx.childIndex] = &tmplast.Comment{Loc: tmplast.StubLoc}
	return taken
}

// RemoveNode deletes the current slot. The driver will not advance past the
// node that shifted into this position.
func (ctx *Context) RemoveNode() {
	slice := ctx.parent.ChildSlice()
	children := *slice
	if ctx.childIndex < len(children) {
		*slice = append(children[:ctx.childIndex], children[ctx.childIndex+1:]...)
		ctx.nodeRemoved = true
	}
}

// RemoveNodeAt deletes an arbitrary sibling, adjusting the iteration index
// when the removal happens before the current node.
func (ctx *Context) RemoveNodeAt(index int) {
	slice := ctx.parent.ChildSlice()
	children := *slice
	if index < len(children) {
		*slice = append(children[:index], children[index+1:]...)
		if index < ctx.childIndex {
			ctx.childIndex--
		}
		ctx.nodeRemoved = true
	}
}

// CurrentNode returns the node in the slot being visited, which may differ
// from the node the driver entered with after a replace.
func (ctx *Context) CurrentNode() tmplast.Node {
	children := *ctx.parent.ChildSlice()
	if ctx.childIndex < len(children) {
		return children[ctx.childIndex]
	}
	return nil
}
