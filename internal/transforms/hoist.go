package transforms

import (
	"github.com/ushironoko/vize/internal/tmplast"
)

// hoistStatic lifts maximal constant subtrees out of the render function.
// A hoisted node must reach at least CanCache and must not sit under a
// v-for body or a v-once cached ancestor. When a node itself is dynamic
// but all of its props are static, only the props object is hoisted.
func hoistStatic(ctx *Context, root *tmplast.Root) {
	// The single root child is the root block; hoisting it would leave the
	// render function with nothing to track
	doNotHoistRoot := len(root.Children) == 1
	hoistChildren(ctx, root.Children, false, doNotHoistRoot)
}

func hoistChildren(ctx *Context, children []tmplast.Node, inFor bool, doNotHoist bool) {
	for _, child := range children {
		switch child := child.(type) {
		case *tmplast.Element:
			hoistElement(ctx, child, inFor, doNotHoist)

		case *tmplast.If:
			for _, branch := range child.Branches {
				// Branch roots are blocks themselves
				hoistChildren(ctx, branch.Children, inFor, true)
			}

		case *tmplast.For:
			// Everything under v-for re-renders per iteration; only
			// props objects may still be lifted
			hoistChildren(ctx, child.Children, true, true)
		}
	}
}

func hoistElement(ctx *Context, el *tmplast.Element, inFor bool, doNotHoist bool) {
	if el.Directive("once") != nil {
		// v-once has its own caching strategy
		return
	}

	if el.Type == tmplast.ElementPlain && !inFor && !doNotHoist {
		if constantType(el) >= tmplast.ConstCanCache {
			el.HoistedIndex = ctx.Hoist(el)
			return
		}
	}

	// Full hoist failed; the props object alone may still be constant.
	// Class/style dynamism and dynamic props would put bits in the patch
	// flag, so static-only props are exactly the hoistable case.
	if el.Type == tmplast.ElementPlain && len(el.Props) > 0 &&
		propsConstantType(el) >= tmplast.ConstCanCache {
		el.HoistedPropsIndex = ctx.Hoist(&tmplast.HoistedProps{El: el, Loc: el.Loc})
	}

	hoistChildren(ctx, el.Children, inFor, false)
}

// constantType is the bottom-up constantness recurrence: an element's type
// is the minimum over its props and children, cut to NotConstant by any
// dynamic directive.
func constantType(node tmplast.Node) tmplast.ConstantType {
	switch node := node.(type) {
	case *tmplast.Text, *tmplast.Comment:
		return tmplast.ConstCanStringify

	case *tmplast.Interpolation:
		if simple, ok := node.Content.(*tmplast.SimpleExpr); ok {
			if simple.IsStatic {
				return tmplast.ConstCanStringify
			}
			return simple.ConstType
		}
		return tmplast.ConstNotConstant

	case *tmplast.Element:
		if node.Type != tmplast.ElementPlain {
			return tmplast.ConstNotConstant
		}
		result := propsConstantType(node)
		if result == tmplast.ConstNotConstant {
			return result
		}
		for _, child := range node.Children {
			result = result.Meet(constantType(child))
			if result == tmplast.ConstNotConstant {
				return result
			}
		}
		return result

	default:
		return tmplast.ConstNotConstant
	}
}

// propsConstantType classifies just the property list of an element.
func propsConstantType(el *tmplast.Element) tmplast.ConstantType {
	result := tmplast.ConstCanStringify
	for _, p := range el.Props {
		switch p := p.(type) {
		case *tmplast.Attribute:
			if p.Name == "ref" {
				// Template refs write into component state on every render
				return tmplast.ConstNotConstant
			}

		case *tmplast.Directive:
			switch p.Name {
			case "pre", "cloak":
				// Compile-time only
			case "bind":
				if p.Exp == nil || p.Arg == nil {
					return tmplast.ConstNotConstant
				}
				if _, static := p.ArgIsStatic(); !static {
					return tmplast.ConstNotConstant
				}
				simple, ok := p.Exp.(*tmplast.SimpleExpr)
				if !ok {
					return tmplast.ConstNotConstant
				}
				result = result.Meet(simple.ConstType)
				if result == tmplast.ConstNotConstant {
					return result
				}
			default:
				// v-on, v-model, v-show, v-html, v-text, custom directives
				return tmplast.ConstNotConstant
			}
		}
	}
	return result
}
