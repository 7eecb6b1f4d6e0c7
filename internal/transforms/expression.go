package transforms

import (
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/ushironoko/vize/internal/helpers"
	"github.com/ushironoko/vize/internal/jsparse"
	"github.com/ushironoko/vize/internal/tmplast"
)

// ProcessExpression rewrites a template expression so identifier references
// resolve correctly at runtime: binding-dependent prefixes, ".value" on
// refs, unref wrapping, and TypeScript stripping. The rewrite is idempotent:
// an expression whose IsRefTransformed flag is set passes through untouched.
func ProcessExpression(ctx *Context, exp tmplast.Expr) tmplast.Expr {
	simple, ok := exp.(*tmplast.SimpleExpr)
	if !ok {
		return exp
	}
	if simple.IsStatic || simple.IsRefTransformed || simple.Content == "" {
		return simple
	}

	var processed string
	if ctx.Options.PrefixIdentifiers {
		result := rewriteExpression(ctx, simple.Content)
		if result.usedUnref {
			ctx.Helper(tmplast.HelperUnref)
		}
		processed = result.code
	} else if ctx.Options.IsTS {
		processed = jsparse.StripTypes(simple.Content)
	} else {
		processed = simple.Content
	}

	out := simple.Clone()
	out.Content = processed
	out.IsRefTransformed = true
	return out
}

// ProcessInlineHandler rewrites a v-on value. Method references keep their
// shape; inline statements are wrapped into "$event => (...)"; function
// expressions pass through the normal rewrite.
func ProcessInlineHandler(ctx *Context, exp tmplast.Expr) tmplast.Expr {
	simple, ok := exp.(*tmplast.SimpleExpr)
	if !ok {
		return exp
	}
	if simple.IsStatic || simple.IsRefTransformed || simple.Content == "" {
		return simple
	}

	content := simple.Content

	makeHandler := func(code string) *tmplast.SimpleExpr {
		out := simple.Clone()
		out.Content = code
		out.ConstType = tmplast.ConstNotConstant
		out.IsHandlerKey = true
		out.IsRefTransformed = true
		return out
	}

	// Already a function expression: rewrite the body in place
	if strings.Contains(content, "=>") || strings.HasPrefix(content, "function") {
		if ctx.Options.PrefixIdentifiers {
			result := rewriteExpression(ctx, content)
			if result.usedUnref {
				ctx.Helper(tmplast.HelperUnref)
			}
			return makeHandler(result.code)
		}
		if ctx.Options.IsTS {
			return makeHandler(jsparse.StripTypes(content))
		}
		return makeHandler(content)
	}

	// A bare method reference is passed through with just the prefix
	if helpers.IsSimpleIdentifier(content) {
		code := content
		if ctx.Options.PrefixIdentifiers {
			if prefix, found := ctx.prefixFor(content); found {
				code = prefix + content
			}
		}
		return makeHandler(code)
	}

	// Inline statement: wrap in an arrow with the implicit $event parameter
	rewritten := content
	if ctx.Options.PrefixIdentifiers {
		result := rewriteExpression(ctx, content)
		if result.usedUnref {
			ctx.Helper(tmplast.HelperUnref)
		}
		rewritten = result.code
	} else if ctx.Options.IsTS {
		rewritten = jsparse.StripTypes(content)
	}
	return makeHandler("$event => (" + rewritten + ")")
}

type rewriteResult struct {
	code      string
	usedUnref bool
}

// rewriteExpression parses content as a JS expression, walks it once
// collecting (position, insert-before) and (position, insert-after)
// records, then splices them into the original string from the end
// backwards. Positions are adjusted for the wrapping parenthesis the parse
// added.
func rewriteExpression(ctx *Context, content string) rewriteResult {
	if ctx.Options.IsTS {
		content = jsparse.StripTypes(content)
	}

	tree, expr, ok := jsparse.ParseExpression(content, jsparse.LangJS)
	if !ok {
		// Parse failed: handle the bare-identifier case and otherwise
		// forward the content unchanged
		code := content
		if helpers.IsSimpleIdentifier(content) {
			if prefix, found := ctx.prefixFor(content); found {
				code = prefix + content
			} else if ctx.isInlineRef(content) {
				code = content + ".value"
			}
		}
		return rewriteResult{code: code}
	}
	defer tree.Close()

	w := &exprWalker{
		ctx:      ctx,
		source:   tree.Source,
		scope:    make(map[string]int),
		targets:  make(map[int]bool),
		prefixes: make(map[int]string),
	}
	w.walk(expr)

	type splice struct {
		pos  int
		text string
	}
	var all []splice
	for pos, text := range w.prefixes {
		all = append(all, splice{pos, text})
	}
	for _, s := range w.suffixes {
		all = append(all, splice{s.pos, s.text})
	}
	if len(all) == 0 {
		return rewriteResult{code: content, usedUnref: w.usedUnref}
	}

	sort.Slice(all, func(i, j int) bool { return all[i].pos > all[j].pos })

	result := content
	for _, s := range all {
		pos := s.pos - jsparse.WrapOffset
		if pos < 0 || pos > len(result) {
			continue
		}
		result = result[:pos] + s.text + result[pos:]
	}

	return rewriteResult{code: result, usedUnref: w.usedUnref}
}

// prefixFor decides what prefix an identifier reference needs, if any.
func (ctx *Context) prefixFor(name string) (string, bool) {
	if jsparse.IsGlobalAllowed(name) {
		return "", false
	}
	if ctx.IsInScope(name) {
		return "", false
	}

	meta := ctx.Options.BindingMetadata
	if meta.Has(name) {
		bt := meta.Get(name)
		if bt == tmplast.BindingProps || bt == tmplast.BindingPropsAliased {
			if ctx.Options.Inline {
				return "__props.", true
			}
			return "$props.", true
		}
		if ctx.Options.Inline {
			// Setup bindings are bound directly through the closure
			return "", false
		}
		return "$setup.", true
	}

	return "_ctx.", true
}

func (ctx *Context) isInlineRef(name string) bool {
	return ctx.Options.Inline &&
		ctx.Options.BindingMetadata.Get(name) == tmplast.BindingSetupRef &&
		!ctx.IsInScope(name)
}

func (ctx *Context) needsUnref(name string) bool {
	return ctx.Options.BindingMetadata.Get(name).NeedsUnref() && !ctx.IsInScope(name)
}

type suffixSplice struct {
	pos  int
	text string
}

// exprWalker is the single-pass identifier collector. Scope frames are
// pushed when entering function bodies and popped on the way out; rewrite
// records accumulate and are applied after the walk.
type exprWalker struct {
	ctx    *Context
	source []byte

	// Counted locals from arrow/function parameters and patterns
	scope map[string]int

	// Byte positions (within the wrapped source) of assignment targets
	targets map[int]bool

	prefixes map[int]string
	suffixes []suffixSplice

	usedUnref bool
}

func (w *exprWalker) text(n *sitter.Node) string {
	return n.Content(w.source)
}

func (w *exprWalker) walkChildren(n *sitter.Node) {
	count := int(n.NamedChildCount())
	for i := 0; i < count; i++ {
		w.walk(n.NamedChild(i))
	}
}

func (w *exprWalker) walk(n *sitter.Node) {
	if n == nil {
		return
	}

	switch n.Type() {
	case "identifier":
		w.handleIdentifier(n)

	case "member_expression":
		w.handleMember(n)

	case "subscript_expression":
		w.walk(n.ChildByFieldName("object"))
		w.walk(n.ChildByFieldName("index"))

	case "arrow_function", "function_expression", "function":
		w.handleFunction(n)

	case "assignment_expression", "augmented_assignment_expression":
		w.collectTargets(n.ChildByFieldName("left"))
		w.walkChildren(n)

	case "update_expression":
		w.collectTargets(n.ChildByFieldName("argument"))
		w.walkChildren(n)

	case "pair":
		if key := n.ChildByFieldName("key"); key != nil && key.Type() == "computed_property_name" {
			w.walk(key)
		}
		w.walk(n.ChildByFieldName("value"))

	case "shorthand_property_identifier":
		w.handleShorthand(n)

	case "template_string":
		// Only substitutions contain references
		count := int(n.NamedChildCount())
		for i := 0; i < count; i++ {
			child := n.NamedChild(i)
			if child.Type() == "template_substitution" {
				w.walkChildren(child)
			}
		}

	case "string", "number", "regex", "property_identifier",
		"true", "false", "null", "undefined", "comment":
		// Nothing to rewrite

	default:
		w.walkChildren(n)
	}
}

func (w *exprWalker) handleMember(n *sitter.Node) {
	object := n.ChildByFieldName("object")
	property := n.ChildByFieldName("property")

	// A read that already goes through ".value" must not get a second one
	if property != nil && w.text(property) == "value" &&
		object != nil && object.Type() == "identifier" {
		name := w.text(object)
		if w.scope[name] == 0 && w.ctx.isInlineRef(name) {
			if prefix, found := w.ctx.prefixFor(name); found {
				w.prefixes[int(object.StartByte())] = prefix
			}
			return
		}
	}

	w.walk(object)
	// The property name is never a reference
}

func (w *exprWalker) handleFunction(n *sitter.Node) {
	var names []string
	add := func(name string) {
		names = append(names, name)
		w.scope[name]++
	}

	if params := n.ChildByFieldName("parameters"); params != nil {
		jsparse.CollectPatternNames(params, w.source, add)
	}
	if param := n.ChildByFieldName("parameter"); param != nil {
		// Single-parameter arrow without parentheses
		jsparse.CollectPatternNames(param, w.source, add)
	}
	if name := n.ChildByFieldName("name"); name != nil {
		add(w.text(name))
	}

	w.walk(n.ChildByFieldName("body"))

	for _, name := range names {
		if w.scope[name] > 1 {
			w.scope[name]--
		} else {
			delete(w.scope, name)
		}
	}
}

func (w *exprWalker) collectTargets(n *sitter.Node) {
	if n == nil {
		return
	}
	switch n.Type() {
	case "identifier":
		w.targets[int(n.StartByte())] = true
	case "object_pattern", "array_pattern", "rest_pattern",
		"pair_pattern", "assignment_pattern", "parenthesized_expression":
		count := int(n.NamedChildCount())
		for i := 0; i < count; i++ {
			w.collectTargets(n.NamedChild(i))
		}
	case "shorthand_property_identifier_pattern":
		w.targets[int(n.StartByte())] = true
	}
}

func (w *exprWalker) handleIdentifier(n *sitter.Node) {
	name := w.text(n)
	if w.scope[name] > 0 {
		return
	}

	start := int(n.StartByte())
	end := int(n.EndByte())
	ctx := w.ctx

	prefix, found := ctx.prefixFor(name)
	isRef := ctx.isInlineRef(name)
	needsUnref := ctx.needsUnref(name)

	if w.targets[start] {
		// Assignment and update targets take the prefix and, for refs, the
		// ".value" needed to write through the cell
		if found {
			w.prefixes[start] = prefix
		}
		if isRef || needsUnref {
			w.suffixes = append(w.suffixes, suffixSplice{end, ".value"})
		}
		return
	}

	switch {
	case found && needsUnref && prefix == "$setup.":
		w.prefixes[start] = "_unref($setup."
		w.suffixes = append(w.suffixes, suffixSplice{end, ")"})
		w.usedUnref = true
	case found:
		w.prefixes[start] = prefix
	case isRef:
		w.suffixes = append(w.suffixes, suffixSplice{end, ".value"})
	case needsUnref:
		w.prefixes[start] = "_unref("
		w.suffixes = append(w.suffixes, suffixSplice{end, ")"})
		w.usedUnref = true
	}
}

// handleShorthand expands "{ foo }" into "{ foo: <rewritten foo> }" by
// appending the rewritten reference after the shorthand name.
func (w *exprWalker) handleShorthand(n *sitter.Node) {
	name := w.text(n)
	if w.scope[name] > 0 || jsparse.IsGlobalAllowed(name) {
		return
	}

	ctx := w.ctx
	prefix, found := ctx.prefixFor(name)
	isRef := ctx.isInlineRef(name)
	needsUnref := ctx.needsUnref(name)

	var ref string
	switch {
	case found && needsUnref && prefix == "$setup.":
		ref = "_unref($setup." + name + ")"
		w.usedUnref = true
	case found:
		ref = prefix + name
	case isRef:
		ref = name + ".value"
	case needsUnref:
		ref = "_unref(" + name + ")"
		w.usedUnref = true
	default:
		return
	}

	w.suffixes = append(w.suffixes, suffixSplice{int(n.EndByte()), ": " + ref})
}

// patternNames extracts the identifiers bound by a slot-props expression
// like "{ item, index }" or "slotProps".
func patternNames(src string) []string {
	src = strings.TrimSpace(src)
	if src == "" {
		return nil
	}
	if helpers.IsSimpleIdentifier(src) {
		return []string{src}
	}

	wrapped := src
	if !strings.HasPrefix(wrapped, "(") {
		wrapped = "(" + wrapped + ")"
	}
	tree, expr, ok := jsparse.ParseExpression(wrapped+" => 0", jsparse.LangJS)
	if !ok {
		return nil
	}
	defer tree.Close()

	var names []string
	if expr.Type() == "arrow_function" {
		if params := expr.ChildByFieldName("parameters"); params != nil {
			jsparse.CollectPatternNames(params, tree.Source, func(name string) {
				names = append(names, name)
			})
		}
	}
	return names
}
