package codegen

import (
	"github.com/ushironoko/vize/internal/tmplast"
)

// patchInfo is the computed runtime-diff summary for one element: the
// patch-flag bitmask plus the list of prop keys that can change.
type patchInfo struct {
	flag         tmplast.PatchFlags
	dynamicProps []string
}

func (p patchInfo) isEmpty() bool {
	return p.flag == 0 && len(p.dynamicProps) == 0
}

// computePatchInfo derives the patch flag from the prop list and children.
// Every bit corresponds to a structural reason: CLASS for a dynamic :class,
// STYLE for :style, PROPS plus the key list for other dynamic props,
// FULL_PROPS when keys themselves are dynamic, NEED_PATCH for runtime
// directives and template refs, TEXT for a dynamic text child.
func computePatchInfo(ctx *Context, el *tmplast.Element) patchInfo {
	var info patchInfo

	addDynamicProp := func(key string) {
		for _, existing := range info.dynamicProps {
			if existing == key {
				return
			}
		}
		info.dynamicProps = append(info.dynamicProps, key)
	}

	for _, p := range el.Props {
		switch p := p.(type) {
		case *tmplast.Attribute:
			if p.Name == "ref" {
				info.flag |= tmplast.PatchFlagNeedPatch
			}

		case *tmplast.Directive:
			switch p.Name {
			case "bind":
				arg, static := p.ArgIsStatic()
				switch {
				case p.Arg == nil || (ctx.skipIsProp && arg == "is"):
					// v-bind="obj" spreads unknown keys
					if p.Arg == nil {
						info.flag |= tmplast.PatchFlagFullProps
					}
				case !static:
					info.flag |= tmplast.PatchFlagFullProps
				case arg == "key":
					// Handled by the block machinery
				case arg == "ref":
					info.flag |= tmplast.PatchFlagNeedPatch
				case expIsStatic(p.Exp):
					// Constant binding, nothing to diff
				case arg == "class":
					info.flag |= tmplast.PatchFlagClass
				case arg == "style":
					info.flag |= tmplast.PatchFlagStyle
				default:
					info.flag |= tmplast.PatchFlagProps
					addDynamicProp(arg)
				}

			case "on":
				if key, static := staticEventKey(p); static {
					info.flag |= tmplast.PatchFlagProps
					addDynamicProp(key)
				} else {
					// Dynamic event name or v-on="handlers"
					info.flag |= tmplast.PatchFlagFullProps
				}

			case "model":
				// The runtime model directive patches the element itself
				info.flag |= tmplast.PatchFlagNeedPatch

			case "show":
				info.flag |= tmplast.PatchFlagNeedPatch

			case "html":
				if !expIsStatic(p.Exp) {
					info.flag |= tmplast.PatchFlagProps
					addDynamicProp("innerHTML")
				}

			case "text":
				if !expIsStatic(p.Exp) {
					info.flag |= tmplast.PatchFlagProps
					addDynamicProp("textContent")
				}

			case "once", "memo", "pre", "cloak", "slot", "if", "else", "else-if", "for":
				// No direct patch contribution

			default:
				// Custom directive
				info.flag |= tmplast.PatchFlagNeedPatch
			}
		}
	}

	// TEXT: a dynamic interpolation child not wrapped in an element
	if allTextChildren(el.Children) && hasDynamicTextChild(el.Children) {
		info.flag |= tmplast.PatchFlagText
	}

	// FULL_PROPS subsumes the per-key list
	if info.flag&tmplast.PatchFlagFullProps != 0 {
		info.flag &^= tmplast.PatchFlagProps | tmplast.PatchFlagClass | tmplast.PatchFlagStyle
		info.dynamicProps = nil
	}

	return info
}

func expIsStatic(exp tmplast.Expr) bool {
	simple, ok := exp.(*tmplast.SimpleExpr)
	return ok && (simple.IsStatic || simple.ConstType >= tmplast.ConstCanCache)
}

// eventNameFor applies the mouse-button renames before the handler key is
// computed: ".right" on click listens on contextmenu, ".middle" on mouseup.
func eventNameFor(event string, dir *tmplast.Directive) string {
	if event == "click" {
		if dir.HasModifier("right") {
			return "contextmenu"
		}
		if dir.HasModifier("middle") {
			return "mouseup"
		}
	}
	return event
}
