package codegen

import (
	"github.com/ushironoko/vize/internal/helpers"
	"github.com/ushironoko/vize/internal/tmplast"
)

// hasSlotChildren reports whether the component's children compile into a
// slots object. Built-in wrappers take plain array children instead.
func hasSlotChildren(el *tmplast.Element) bool {
	if el.Type != tmplast.ElementComponent {
		return false
	}
	switch el.Tag {
	case "Teleport", "KeepAlive", "Suspense":
		return false
	}
	return hasRealChildren(el)
}

// hasDynamicSlots reports whether any slot entry has a computed name or is
// wrapped in structural directives, which forces the DYNAMIC marker.
func hasDynamicSlots(el *tmplast.Element) bool {
	for _, child := range el.Children {
		tmpl, ok := child.(*tmplast.Element)
		if !ok || tmpl.Type != tmplast.ElementTemplate {
			continue
		}
		if dir := tmpl.Directive("slot"); dir != nil {
			if simple, ok := dir.Arg.(*tmplast.SimpleExpr); ok && !simple.IsStatic {
				return true
			}
		}
		if tmpl.Directive("if") != nil || tmpl.Directive("else-if") != nil ||
			tmpl.Directive("else") != nil || tmpl.Directive("for") != nil {
			return true
		}
	}
	// Structural nodes created before slot processing count too
	for _, child := range el.Children {
		switch child.(type) {
		case *tmplast.If, *tmplast.For:
			return true
		}
	}
	return false
}

// generateSlots emits the slots object for a component: named slots from
// <template v-slot:name> children, everything else collected into the
// default slot, plus the stability marker.
func generateSlots(ctx *Context, el *tmplast.Element) {
	type namedSlot struct {
		name     string
		dynamic  bool
		params   string
		children []tmplast.Node
	}

	var slots []namedSlot
	var defaultChildren []tmplast.Node

	// v-slot on the component tag itself claims the default slot
	defaultParams := ""
	if dir := el.Directive("slot"); dir != nil {
		if dir.Exp != nil {
			defaultParams = tmplast.ExprContent(dir.Exp)
		}
	}

	for _, child := range el.Children {
		if tmplast.IsWhitespaceOnly(child) {
			continue
		}
		if tmpl, ok := child.(*tmplast.Element); ok && tmpl.Type == tmplast.ElementTemplate {
			if dir := tmpl.Directive("slot"); dir != nil {
				slot := namedSlot{name: "default", children: tmpl.Children}
				if dir.Arg != nil {
					if name, static := dir.ArgIsStatic(); static {
						slot.name = name
					} else {
						slot.name = tmplast.ExprContent(dir.Arg)
						slot.dynamic = true
					}
				}
				if dir.Exp != nil {
					slot.params = tmplast.ExprContent(dir.Exp)
				}
				slots = append(slots, slot)
				continue
			}
		}
		defaultChildren = append(defaultChildren, child)
	}

	if len(defaultChildren) > 0 {
		slots = append(slots, namedSlot{
			name:     "default",
			params:   defaultParams,
			children: defaultChildren,
		})
	}

	stability := "1 /* STABLE */"
	if hasDynamicSlots(el) {
		stability = "2 /* DYNAMIC */"
	}

	ctx.push("{")
	ctx.indent()
	for _, slot := range slots {
		ctx.newline()
		if slot.dynamic {
			ctx.push("[")
			ctx.push(slot.name)
			ctx.push("]")
		} else {
			pushPropKey(ctx, slot.name)
		}
		ctx.push(": ")
		ctx.push(ctx.helper(tmplast.HelperWithCtx))
		ctx.push("((")
		ctx.push(slot.params)
		ctx.push(") => [")
		ctx.indent()
		first := true
		for _, child := range slot.children {
			if tmplast.IsWhitespaceOnly(child) {
				continue
			}
			if !first {
				ctx.push(",")
			}
			first = false
			ctx.newline()
			generateNode(ctx, child)
		}
		ctx.deindent()
		ctx.newline()
		ctx.push("]),")
	}
	ctx.newline()
	ctx.push("_: ")
	ctx.push(stability)
	ctx.deindent()
	ctx.newline()
	ctx.push("}")
}

// generateSlotOutlet emits renderSlot for a <slot> element, with forwarded
// props and the element children as fallback content.
func generateSlotOutlet(ctx *Context, el *tmplast.Element) {
	ctx.push(ctx.helper(tmplast.HelperRenderSlot))
	ctx.push("(_ctx.$slots, ")

	// Slot name: static attribute, :name binding, or "default"
	if dir := el.Directive("bind"); dir != nil {
		if arg, static := dir.ArgIsStatic(); static && arg == "name" && dir.Exp != nil {
			generateExpression(ctx, dir.Exp)
			generateSlotOutletRest(ctx, el)
			return
		}
	}
	name := "default"
	if attr := el.Attribute("name"); attr != nil && attr.Value != nil {
		name = attr.Value.Content
	}
	ctx.push(helpers.QuoteDouble(name))
	generateSlotOutletRest(ctx, el)
}

func generateSlotOutletRest(ctx *Context, el *tmplast.Element) {
	// Forwarded slot props: everything except the name
	forwarded := &tmplast.Element{
		Tag:               el.Tag,
		Type:              el.Type,
		HoistedIndex:      -1,
		HoistedPropsIndex: -1,
		Loc:               el.Loc,
	}
	for _, p := range el.Props {
		switch p := p.(type) {
		case *tmplast.Attribute:
			if p.Name != "name" {
				forwarded.Props = append(forwarded.Props, p)
			}
		case *tmplast.Directive:
			if p.Name == "bind" {
				if arg, static := p.ArgIsStatic(); static && arg == "name" {
					continue
				}
			}
			forwarded.Props = append(forwarded.Props, p)
		}
	}

	hasProps := len(forwarded.Props) > 0
	hasFallback := hasRealChildren(el)

	if hasProps || hasFallback {
		ctx.push(", ")
		if hasProps {
			prevSkip := ctx.skipScopeID
			ctx.skipScopeID = true
			generateProps(ctx, forwarded)
			ctx.skipScopeID = prevSkip
		} else {
			ctx.push("{}")
		}
	}

	if hasFallback {
		ctx.push(", () => [")
		ctx.indent()
		first := true
		for _, child := range el.Children {
			if tmplast.IsWhitespaceOnly(child) {
				continue
			}
			if !first {
				ctx.push(",")
			}
			first = false
			ctx.newline()
			generateNode(ctx, child)
		}
		ctx.deindent()
		ctx.newline()
		ctx.push("])")
		return
	}

	ctx.push(")")
}
