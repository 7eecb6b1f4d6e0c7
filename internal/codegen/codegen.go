// Package codegen emits the render function from a transformed template
// AST. Output is plain JavaScript source text built through a measuring
// joiner; the emission order of the preamble (helpers in enum order,
// components and directives in source order, hoists by table index) is
// deterministic so snapshots and output hashes stay stable.
package codegen

import (
	"strconv"
	"strings"

	"github.com/ushironoko/vize/internal/helpers"
	"github.com/ushironoko/vize/internal/tmplast"
)

type Mode uint8

const (
	// ModuleMode emits an ES module with an import preamble
	ModuleMode Mode = iota

	// FunctionMode emits a plain function reading helpers off the global
	// runtime object
	FunctionMode
)

type Options struct {
	Mode              Mode
	Inline            bool
	PrefixIdentifiers bool
	CacheHandlers     bool
	ScopeID           string

	// Import specifier for the runtime. Empty means "vue".
	RuntimeModuleName string

	BindingMetadata *tmplast.BindingMetadata
}

func (o *Options) runtimeModule() string {
	if o.RuntimeModuleName == "" {
		return "vue"
	}
	return o.RuntimeModuleName
}

type Result struct {
	// The full output: preamble + hoists + render function
	Code string

	// The pieces, for the SFC compiler to splice into a module
	Imports    string
	Hoists     string
	RenderBody string

	// Every helper the emitted code references, in enum order
	Helpers []tmplast.RuntimeHelper
}

// Context carries emission state. Helper usage is tracked here, at the
// point of emission, so the recorded set always equals the helpers that
// appear in the output.
type Context struct {
	options Options
	root    *tmplast.Root

	j           helpers.Joiner
	indentLevel int

	used tmplast.HelperSet

	cacheIndex int

	// Emission flags threaded through nested generators
	skipScopeID   bool
	skipNormalize bool
	skipIsProp    bool

	// Key entry injected into the next props object (v-if branch keys)
	injectedKey string
}

func newContext(root *tmplast.Root, options Options) *Context {
	return &Context{
		options:    options,
		root:       root,
		cacheIndex: root.CachedCount,
	}
}

func (ctx *Context) push(s string) {
	ctx.j.AddString(s)
}

func (ctx *Context) indent() {
	ctx.indentLevel++
}

func (ctx *Context) deindent() {
	ctx.indentLevel--
}

func (ctx *Context) newline() {
	ctx.push("\n")
	ctx.push(strings.Repeat("  ", ctx.indentLevel))
}

// helper marks h as used and returns its local alias.
func (ctx *Context) helper(h tmplast.RuntimeHelper) string {
	ctx.used.Add(h)
	return h.Alias()
}

func (ctx *Context) nextCacheSlot() int {
	slot := ctx.cacheIndex
	ctx.cacheIndex++
	return slot
}

func (ctx *Context) isComponentInBindings(tag string) bool {
	return ctx.options.BindingMetadata.Has(tag)
}

// Generate emits the render function for a transformed root.
func Generate(root *tmplast.Root, options Options) Result {
	ctx := newContext(root, options)

	// The body and the hoists both mark helpers, so they are generated
	// before the preamble is assembled
	body := generateRenderBody(ctx)
	hoists := generateHoists(ctx)
	imports := generateImports(ctx)

	var out helpers.Joiner
	switch options.Mode {
	case ModuleMode:
		if imports != "" {
			out.AddString(imports)
			out.AddString("\n")
		}
		if hoists != "" {
			out.AddString("\n")
			out.AddString(hoists)
		}
		out.AddString("\n")
		out.AddString("export function render(_ctx, _cache, $props, $setup, $data, $options) {\n")
		out.AddString(body)
		out.AddString("\n}\n")

	case FunctionMode:
		if imports != "" {
			out.AddString(imports)
			out.AddString("\n")
		}
		if hoists != "" {
			out.AddString("\n")
			out.AddString(hoists)
		}
		out.AddString("\n")
		out.AddString("function render(_ctx, _cache, $props, $setup, $data, $options) {\n")
		out.AddString(body)
		out.AddString("\n}\n")
	}

	return Result{
		Code:       out.Done(),
		Imports:    imports,
		Hoists:     hoists,
		RenderBody: body,
		Helpers:    ctx.used.Sorted(),
	}
}

// generateImports renders the helper preamble once helper usage is known.
func generateImports(ctx *Context) string {
	if ctx.used.IsEmpty() {
		return ""
	}

	var sb strings.Builder
	switch ctx.options.Mode {
	case ModuleMode:
		sb.WriteString("import { ")
		for i, h := range ctx.used.Sorted() {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(h.Name())
			sb.WriteString(" as ")
			sb.WriteString(h.Alias())
		}
		sb.WriteString(" } from ")
		sb.WriteString(helpers.QuoteDouble(ctx.options.runtimeModule()))
		sb.WriteString("\n")

	case FunctionMode:
		sb.WriteString("const { ")
		for i, h := range ctx.used.Sorted() {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(h.Name())
			sb.WriteString(": ")
			sb.WriteString(h.Alias())
		}
		sb.WriteString(" } = Vue\n")
	}
	return sb.String()
}

// generateHoists emits one module-level constant per hoist-table entry, in
// table order.
func generateHoists(ctx *Context) string {
	if len(ctx.root.Hoists) == 0 {
		return ""
	}

	saved := ctx.j
	ctx.j = helpers.Joiner{}

	for i, node := range ctx.root.Hoists {
		ctx.push("const _hoisted_")
		ctx.push(strconv.Itoa(i + 1))
		ctx.push(" = ")
		switch node := node.(type) {
		case *tmplast.Element:
			generateHoistedElement(ctx, node)
		case *tmplast.HoistedProps:
			generateProps(ctx, node.El)
		default:
			ctx.push("null")
		}
		ctx.push("\n")
	}

	result := ctx.j.Done()
	ctx.j = saved
	return result
}

// generateRenderBody emits the resolve statements plus the return
// expression for the root.
func generateRenderBody(ctx *Context) string {
	saved := ctx.j
	ctx.j = helpers.Joiner{}
	ctx.indentLevel = 1

	ctx.push("  ")

	// Component resolution in source order
	var resolved []string
	for _, name := range ctx.root.Components {
		if ctx.isComponentInBindings(name) {
			continue
		}
		resolved = append(resolved, name)
	}
	for _, name := range resolved {
		ctx.push("const _component_")
		ctx.push(strings.ReplaceAll(name, "-", "_"))
		ctx.push(" = ")
		ctx.push(ctx.helper(tmplast.HelperResolveComponent))
		ctx.push("(")
		ctx.push(helpers.QuoteDouble(name))
		ctx.push(")")
		ctx.newline()
	}

	// Directive resolution in source order
	for _, name := range ctx.root.Directives {
		ctx.push("const _directive_")
		ctx.push(strings.ReplaceAll(name, "-", "_"))
		ctx.push(" = ")
		ctx.push(ctx.helper(tmplast.HelperResolveDirective))
		ctx.push("(")
		ctx.push(helpers.QuoteDouble(name))
		ctx.push(")")
		ctx.newline()
	}

	ctx.push("return ")
	generateRoot(ctx)

	result := ctx.j.Done()
	ctx.j = saved
	ctx.indentLevel = 0
	return result
}

// generateRoot handles the boundary behaviors: empty template, one root
// element block, or a fragment block around multiple children.
func generateRoot(ctx *Context) {
	children := ctx.root.Children
	switch len(children) {
	case 0:
		ctx.push("null")

	case 1:
		generateRootNode(ctx, children[0])

	default:
		flag := tmplast.PatchFlagStableFrag
		if anyChildHasKey(children) {
			flag = tmplast.PatchFlagKeyedFrag
		}
		ctx.push("(")
		ctx.push(ctx.helper(tmplast.HelperOpenBlock))
		ctx.push("(), ")
		ctx.push(ctx.helper(tmplast.HelperCreateElementBlock))
		ctx.push("(")
		ctx.push(ctx.helper(tmplast.HelperFragment))
		ctx.push(", null, [")
		ctx.indent()
		for i, child := range children {
			if i > 0 {
				ctx.push(",")
			}
			ctx.newline()
			generateNode(ctx, child)
		}
		ctx.deindent()
		ctx.newline()
		ctx.push("], ")
		pushPatchFlag(ctx, flag)
		ctx.push("))")
	}
}

func generateRootNode(ctx *Context, node tmplast.Node) {
	switch node := node.(type) {
	case *tmplast.Element:
		generateElementBlock(ctx, node)
	case *tmplast.If:
		generateIf(ctx, node)
	case *tmplast.For:
		generateFor(ctx, node)
	default:
		generateNode(ctx, node)
	}
}

func anyChildHasKey(children []tmplast.Node) bool {
	for _, child := range children {
		if el, ok := child.(*tmplast.Element); ok {
			if el.Attribute("key") != nil {
				return true
			}
			if dir := el.Directive("bind"); dir != nil {
				if arg, static := dir.ArgIsStatic(); static && arg == "key" {
					return true
				}
			}
		}
	}
	return false
}

// generateNode emits a child in a non-block position.
func generateNode(ctx *Context, node tmplast.Node) {
	switch node := node.(type) {
	case *tmplast.Element:
		generateElement(ctx, node)

	case *tmplast.If:
		generateIf(ctx, node)

	case *tmplast.For:
		generateFor(ctx, node)

	case *tmplast.Text:
		ctx.push(ctx.helper(tmplast.HelperCreateTextVNode))
		ctx.push("(")
		ctx.push(helpers.QuoteDouble(node.Content))
		ctx.push(")")

	case *tmplast.Interpolation:
		ctx.push(ctx.helper(tmplast.HelperCreateTextVNode))
		ctx.push("(")
		ctx.push(ctx.helper(tmplast.HelperToDisplayString))
		ctx.push("(")
		generateExpression(ctx, node.Content)
		ctx.push("), ")
		pushPatchFlag(ctx, tmplast.PatchFlagText)
		ctx.push(")")

	case *tmplast.Comment:
		ctx.push(ctx.helper(tmplast.HelperCreateCommentVNode))
		ctx.push("(")
		ctx.push(helpers.QuoteDouble(node.Content))
		ctx.push(")")

	default:
		ctx.push("null")
	}
}

// generateExpression writes an expression node verbatim (simple) or by
// splicing its fragments (compound).
func generateExpression(ctx *Context, exp tmplast.Expr) {
	switch exp := exp.(type) {
	case *tmplast.SimpleExpr:
		if exp.IsStatic {
			ctx.push(helpers.QuoteDouble(exp.Content))
		} else {
			ctx.push(exp.Content)
		}
	case *tmplast.CompoundExpr:
		for _, child := range exp.Children {
			switch {
			case child.IsHelper:
				ctx.push(ctx.helper(child.Helper))
			case child.Expr != nil:
				generateExpression(ctx, child.Expr)
			default:
				ctx.push(child.Text)
			}
		}
	case nil:
		ctx.push("null")
	}
}

func pushPatchFlag(ctx *Context, flag tmplast.PatchFlags) {
	ctx.push(strconv.FormatInt(int64(flag), 10))
	if name := flag.String(); name != "" {
		ctx.push(" /* ")
		ctx.push(name)
		ctx.push(" */")
	}
}

// allTextChildren reports whether every child is text or interpolation, in
// which case the generator merges them into one text expression.
func allTextChildren(children []tmplast.Node) bool {
	if len(children) == 0 {
		return false
	}
	for _, child := range children {
		switch child.(type) {
		case *tmplast.Text, *tmplast.Interpolation:
		default:
			return false
		}
	}
	return true
}

// generateTextChildren merges adjacent text and interpolation children into
// a single concatenated expression.
func generateTextChildren(ctx *Context, children []tmplast.Node) {
	for i, child := range children {
		if i > 0 {
			ctx.push(" + ")
		}
		switch child := child.(type) {
		case *tmplast.Text:
			ctx.push(helpers.QuoteDouble(child.Content))
		case *tmplast.Interpolation:
			ctx.push(ctx.helper(tmplast.HelperToDisplayString))
			ctx.push("(")
			generateExpression(ctx, child.Content)
			ctx.push(")")
		}
	}
}

// hasDynamicTextChild reports whether the merged text expression depends on
// runtime state, which is what sets the TEXT patch bit.
func hasDynamicTextChild(children []tmplast.Node) bool {
	for _, child := range children {
		if interp, ok := child.(*tmplast.Interpolation); ok {
			if simple, ok := interp.Content.(*tmplast.SimpleExpr); !ok || !simple.IsStatic {
				return true
			}
		}
	}
	return false
}
