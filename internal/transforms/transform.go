package transforms

import (
	"github.com/ushironoko/vize/internal/arena"
	"github.com/ushironoko/vize/internal/logger"
	"github.com/ushironoko/vize/internal/tmplast"
)

// Transform runs the single-pass traversal over the parsed root: structural
// directive lowering at enter time, expression rewriting on the way, exit
// functions in reverse order, then static hoisting, then root metadata.
func Transform(a *arena.Arena, log logger.Log, source *logger.Source, root *tmplast.Root, options Options) *Context {
	ctx := NewContext(a, log, source, options)
	ctx.Root = root

	traverseChildren(ctx, root)

	if options.HoistStatic {
		hoistStatic(ctx, root)
	}

	root.Helpers = ctx.Helpers.Sorted()
	root.Components = ctx.Components
	root.Directives = ctx.Directives
	root.Hoists = ctx.Hoists
	root.CachedCount = ctx.Cached
	root.Temps = ctx.Temps
	root.Transformed = true
	return ctx
}

func traverseChildren(ctx *Context, parent tmplast.ParentNode) {
	prevParent, prevGrand, prevIndex := ctx.parent, ctx.grandparent, ctx.childIndex

	i := 0
	for i < len(*parent.ChildSlice()) {
		ctx.grandparent = prevParent
		ctx.parent = parent
		ctx.childIndex = i
		ctx.nodeRemoved = false

		traverseNode(ctx, (*parent.ChildSlice())[i])

		if !ctx.nodeRemoved {
			i++
		}
	}

	ctx.parent, ctx.grandparent, ctx.childIndex = prevParent, prevGrand, prevIndex
}

func traverseNode(ctx *Context, node tmplast.Node) {
	var exitFns []ExitFn

	switch node := node.(type) {
	case *tmplast.Element:
		// Structural directives restructure the tree before anything else
		// looks at the element
		if dir := structuralDirective(node); dir != nil {
			removeDirective(node, dir.Name)

			switch dir.Name {
			case "if":
				transformVIf(ctx, node, dir, true)
			case "else-if", "else":
				transformVIf(ctx, node, dir, false)
				if ctx.nodeRemoved {
					// The element joined the nearest preceding If node as its
					// last branch and its slot is gone: traverse that branch
					// here and leave the shifted sibling to the driver
					children := *ctx.parent.ChildSlice()
					for j := ctx.childIndex - 1; j >= 0; j-- {
						if ifNode, ok := children[j].(*tmplast.If); ok {
							traverseChildren(ctx, ifNode.Branches[len(ifNode.Branches)-1])
							break
						}
					}
					ctx.nodeRemoved = true
					return
				}
			case "for":
				transformVFor(ctx, node, dir)
			}

			// The slot may now hold an If or For node, or still the element
			// when a v-else found no v-if to join
			switch current := ctx.CurrentNode().(type) {
			case *tmplast.If:
				for _, branch := range current.Branches {
					traverseChildren(ctx, branch)
				}
				return
			case *tmplast.For:
				traverseForChildren(ctx, current)
				return
			case *tmplast.Element:
				if fns := transformElement(ctx, current); fns != nil {
					exitFns = append(exitFns, fns...)
				}
				node = current
			default:
				return
			}
		} else {
			if fns := transformElement(ctx, node); fns != nil {
				exitFns = append(exitFns, fns...)
			}
		}

		// Slot parameters are visible inside the element's subtree
		slotParams := slotScopeParams(ctx, node)
		for _, name := range slotParams {
			ctx.AddIdentifier(name)
		}

		wasInVOnce := ctx.InVOnce
		if node.Directive("once") != nil {
			ctx.InVOnce = true
		}

		traverseChildren(ctx, node)

		ctx.InVOnce = wasInVOnce
		for _, name := range slotParams {
			ctx.RemoveIdentifier(name)
		}

	case *tmplast.Interpolation:
		ctx.Helper(tmplast.HelperToDisplayString)
		if ctx.Options.PrefixIdentifiers || ctx.Options.IsTS {
			node.Content = ProcessExpression(ctx, node.Content)
		}

	case *tmplast.If:
		for _, branch := range node.Branches {
			traverseChildren(ctx, branch)
		}

	case *tmplast.For:
		traverseForChildren(ctx, node)
	}

	for i := len(exitFns) - 1; i >= 0; i-- {
		exitFns[i](ctx)
	}
}

// traverseForChildren scopes the loop aliases for the duration of the body
// traversal.
func traverseForChildren(ctx *Context, forNode *tmplast.For) {
	aliases := []string{
		tmplast.ExprContent(forNode.ValueAlias),
		tmplast.ExprContent(forNode.KeyAlias),
		tmplast.ExprContent(forNode.IndexAlias),
	}
	for _, alias := range aliases {
		ctx.AddIdentifier(alias)
	}

	traverseChildren(ctx, forNode)

	for _, alias := range aliases {
		ctx.RemoveIdentifier(alias)
	}

	ctx.Helper(tmplast.HelperRenderList)
	ctx.Helper(tmplast.HelperFragment)
}

// structuralDirective returns the first v-if/v-else-if/v-else/v-for on the
// element, or nil.
func structuralDirective(el *tmplast.Element) *tmplast.Directive {
	for _, p := range el.Props {
		if dir, ok := p.(*tmplast.Directive); ok {
			switch dir.Name {
			case "if", "else-if", "else", "for":
				return dir
			}
		}
	}
	return nil
}

func removeDirective(el *tmplast.Element, name string) {
	for i, p := range el.Props {
		if dir, ok := p.(*tmplast.Directive); ok && dir.Name == name {
			el.Props = append(el.Props[:i], el.Props[i+1:]...)
			return
		}
	}
}

// extractKeyProp removes and returns the user-supplied key prop (static
// "key" attribute or ":key" binding), if any.
func extractKeyProp(el *tmplast.Element) tmplast.Prop {
	for i, p := range el.Props {
		switch p := p.(type) {
		case *tmplast.Attribute:
			if p.Name == "key" {
				el.Props = append(el.Props[:i], el.Props[i+1:]...)
				return p
			}
		case *tmplast.Directive:
			if p.Name == "bind" {
				if arg, ok := p.ArgIsStatic(); ok && arg == "key" {
					el.Props = append(el.Props[:i], el.Props[i+1:]...)
					return p
				}
			}
		}
	}
	return nil
}

// transformElement processes an ordinary element at enter time: directive
// expression rewriting, helper bookkeeping, and registration of custom
// directives. The v-model lowering runs as an exit function once the
// children are done.
func transformElement(ctx *Context, el *tmplast.Element) []ExitFn {
	if ctx.Options.PrefixIdentifiers || ctx.Options.IsTS {
		processDirectiveExpressions(ctx, el)
	}

	for _, p := range el.Props {
		dir, ok := p.(*tmplast.Directive)
		if !ok {
			continue
		}
		switch {
		case dir.Name == "slot", dir.Name == "show", dir.Name == "model":
			// Handled by codegen (vShow/vModel runtime directives) or by
			// the slot emitter
		case !tmplast.IsBuiltinDirective(dir.Name):
			ctx.Helper(tmplast.HelperWithDirectives)
			ctx.Helper(tmplast.HelperResolveDirective)
			ctx.AddDirective(dir.Name)
		}
	}

	switch el.Type {
	case tmplast.ElementPlain:
		ctx.Helper(tmplast.HelperCreateElementVNode)
	case tmplast.ElementComponent:
		ctx.Helper(tmplast.HelperCreateVNode)
		if !isBuiltinComponent(el.Tag) {
			if !ctx.Options.BindingMetadata.Has(el.Tag) {
				ctx.Helper(tmplast.HelperResolveComponent)
			}
			ctx.AddComponent(el.Tag)
		}
	case tmplast.ElementSlot:
		ctx.Helper(tmplast.HelperRenderSlot)
	case tmplast.ElementTemplate:
		ctx.Helper(tmplast.HelperFragment)
	}

	if el.Directive("model") != nil {
		return []ExitFn{func(ctx *Context) {
			lowerVModel(ctx, el)
		}}
	}
	return nil
}

func isBuiltinComponent(tag string) bool {
	switch tag {
	case "Teleport", "KeepAlive", "Suspense":
		return true
	}
	return false
}

// processDirectiveExpressions rewrites every directive value, dynamic
// argument, and v-on handler through the expression rewriter.
func processDirectiveExpressions(ctx *Context, el *tmplast.Element) {
	for _, p := range el.Props {
		dir, ok := p.(*tmplast.Directive)
		if !ok {
			continue
		}

		switch dir.Name {
		case "on":
			if dir.Exp != nil {
				dir.Exp = ProcessInlineHandler(ctx, dir.Exp)
			}
		case "slot", "pre", "cloak", "once":
			// No value expression to rewrite
		default:
			if dir.Exp != nil {
				dir.Exp = ProcessExpression(ctx, dir.Exp)
			}
		}

		// Dynamic arguments are expressions too
		if simple, ok := dir.Arg.(*tmplast.SimpleExpr); ok && !simple.IsStatic {
			dir.Arg = ProcessExpression(ctx, dir.Arg)
		}
	}
}

// slotScopeParams returns the identifiers bound by a v-slot directive on
// the element, so child traversal can treat them as in scope.
func slotScopeParams(ctx *Context, el *tmplast.Element) []string {
	dir := el.Directive("slot")
	if dir == nil || dir.Exp == nil {
		return nil
	}
	return patternNames(tmplast.ExprContent(dir.Exp))
}
