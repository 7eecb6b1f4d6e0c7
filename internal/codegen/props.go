package codegen

import (
	"strconv"
	"strings"

	"github.com/ushironoko/vize/internal/helpers"
	"github.com/ushironoko/vize/internal/tmplast"
)

func hasVBindObject(el *tmplast.Element) bool {
	for _, p := range el.Props {
		if dir, ok := p.(*tmplast.Directive); ok && dir.Name == "bind" && dir.Arg == nil && dir.Exp != nil {
			return true
		}
	}
	return false
}

func hasVOnObject(el *tmplast.Element) bool {
	for _, p := range el.Props {
		if dir, ok := p.(*tmplast.Directive); ok && dir.Name == "on" && dir.Arg == nil && dir.Exp != nil {
			return true
		}
	}
	return false
}

// isEmittedAsProp reports whether a directive contributes an entry to the
// props object. Static v-model stays out (it lowered into other props or a
// runtime directive); object spreads are handled by the merge path.
func isEmittedAsProp(dir *tmplast.Directive) bool {
	switch dir.Name {
	case "bind", "on":
		return dir.Arg != nil && dir.Exp != nil
	case "html", "text":
		return dir.Exp != nil
	case "model":
		// Only a dynamic argument leaves the directive in the prop list
		if simple, ok := dir.Arg.(*tmplast.SimpleExpr); ok {
			return !simple.IsStatic
		}
		return dir.Arg != nil
	}
	return false
}

func hasRenderableProps(ctx *Context, el *tmplast.Element) bool {
	if ctx.injectedKey != "" {
		return true
	}
	if ctx.options.ScopeID != "" && !ctx.skipScopeID {
		return true
	}
	if hasVBindObject(el) || hasVOnObject(el) {
		return true
	}
	for _, p := range el.Props {
		switch p := p.(type) {
		case *tmplast.Attribute:
			return true
		case *tmplast.Directive:
			if isEmittedAsProp(p) {
				return true
			}
		}
	}
	return false
}

func hasDynamicPropKey(el *tmplast.Element) bool {
	for _, p := range el.Props {
		dir, ok := p.(*tmplast.Directive)
		if !ok {
			continue
		}
		if dir.Name == "bind" || dir.Name == "model" {
			if simple, ok := dir.Arg.(*tmplast.SimpleExpr); ok && !simple.IsStatic {
				return true
			}
		}
	}
	return false
}

// generateProps emits the props argument for an element: a literal object,
// a mergeProps/toHandlers combination for object spreads, or a
// normalizeProps wrapper when keys are computed.
func generateProps(ctx *Context, el *tmplast.Element) {
	scopeID := ""
	if ctx.options.ScopeID != "" && !ctx.skipScopeID {
		scopeID = ctx.options.ScopeID
	}

	vbindObj := hasVBindObject(el)
	vonObj := hasVOnObject(el)

	if vbindObj || vonObj {
		generateMergedProps(ctx, el, scopeID, vbindObj, vonObj)
		return
	}

	needsNormalize := hasDynamicPropKey(el)
	if needsNormalize {
		ctx.push(ctx.helper(tmplast.HelperNormalizeProps))
		ctx.push("(")
	}
	generatePropsObject(ctx, el, scopeID, false)
	if needsNormalize {
		ctx.push(")")
	}
}

// generateMergedProps handles v-bind="obj" and v-on="handlers" spreads,
// which require mergeProps when combined with anything else.
func generateMergedProps(ctx *Context, el *tmplast.Element, scopeID string, vbindObj bool, vonObj bool) {
	hasOther := ctx.injectedKey != ""
	for _, p := range el.Props {
		switch p := p.(type) {
		case *tmplast.Attribute:
			hasOther = true
		case *tmplast.Directive:
			if isEmittedAsProp(p) {
				hasOther = true
			}
		}
	}

	pushVBindExp := func() {
		for _, p := range el.Props {
			if dir, ok := p.(*tmplast.Directive); ok && dir.Name == "bind" && dir.Arg == nil && dir.Exp != nil {
				generateExpression(ctx, dir.Exp)
				return
			}
		}
	}
	pushVOnExp := func() {
		ctx.push(ctx.helper(tmplast.HelperToHandlers))
		ctx.push("(")
		for _, p := range el.Props {
			if dir, ok := p.(*tmplast.Directive); ok && dir.Name == "on" && dir.Arg == nil && dir.Exp != nil {
				generateExpression(ctx, dir.Exp)
				break
			}
		}
		ctx.push(", true)")
	}

	if hasOther || (vbindObj && vonObj) || (scopeID != "" && vonObj) {
		ctx.push(ctx.helper(tmplast.HelperMergeProps))
		ctx.push("(")
		first := true
		if vbindObj {
			pushVBindExp()
			first = false
		}
		if vonObj {
			if !first {
				ctx.push(", ")
			}
			pushVOnExp()
			first = false
		}
		if hasOther {
			if !first {
				ctx.push(", ")
			}
			generatePropsObject(ctx, el, scopeID, true)
		} else if scopeID != "" {
			if !first {
				ctx.push(", ")
			}
			ctx.push("{ ")
			ctx.push(helpers.QuoteDouble(scopeID))
			ctx.push(": \"\" }")
		}
		ctx.push(")")
		return
	}

	if vbindObj {
		// Lone v-bind="obj": the runtime still normalizes and guards it
		if scopeID != "" {
			ctx.push(ctx.helper(tmplast.HelperMergeProps))
			ctx.push("(")
		}
		ctx.push(ctx.helper(tmplast.HelperNormalizeProps))
		ctx.push("(")
		ctx.push(ctx.helper(tmplast.HelperGuardReactiveProps))
		ctx.push("(")
		pushVBindExp()
		ctx.push("))")
		if scopeID != "" {
			ctx.push(", { ")
			ctx.push(helpers.QuoteDouble(scopeID))
			ctx.push(": \"\" })")
		}
		return
	}

	// Lone v-on="handlers"
	pushVOnExp()
}

// generatePropsObject emits the literal { key: value, ... } body.
func generatePropsObject(ctx *Context, el *tmplast.Element, scopeID string, insideMerge bool) {
	prevSkipNormalize := ctx.skipNormalize
	if insideMerge {
		// mergeProps normalizes class and style itself
		ctx.skipNormalize = true
	}

	injectedKey := ctx.injectedKey
	ctx.injectedKey = ""

	staticClass, staticStyle := "", ""
	hasDynClass, hasDynStyle := false, false
	for _, p := range el.Props {
		switch p := p.(type) {
		case *tmplast.Attribute:
			if p.Value != nil {
				if p.Name == "class" {
					staticClass = p.Value.Content
				} else if p.Name == "style" {
					staticStyle = p.Value.Content
				}
			}
		case *tmplast.Directive:
			if p.Name == "bind" {
				if arg, static := p.ArgIsStatic(); static {
					if arg == "class" {
						hasDynClass = true
					} else if arg == "style" {
						hasDynStyle = true
					}
				}
			}
		}
	}
	skipStaticClass := staticClass != "" && hasDynClass
	skipStaticStyle := staticStyle != "" && hasDynStyle

	entries := countVisibleProps(ctx, el, scopeID, injectedKey, skipStaticClass, skipStaticStyle)
	multiline := entries > 1 || hasMultilineValue(ctx, el)

	open, sep, close := "{ ", " ", " }"
	if multiline {
		open, close = "{", "}"
	}

	ctx.push(open)
	if multiline {
		ctx.indent()
	}

	first := true
	writeSep := func() {
		if !first {
			ctx.push(",")
		}
		if multiline {
			ctx.newline()
		} else if !first {
			ctx.push(sep)
		}
		first = false
	}

	if injectedKey != "" {
		writeSep()
		ctx.push(injectedKey)
	}

	// Pre-scan duplicate v-on events for array merging
	eventCounts := make(map[string]int)
	for _, p := range el.Props {
		if dir, ok := p.(*tmplast.Directive); ok {
			if key, ok := staticEventKey(dir); ok {
				eventCounts[key]++
			}
		}
	}
	emittedEvents := make(map[string]bool)

	for _, p := range el.Props {
		switch p := p.(type) {
		case *tmplast.Attribute:
			if skipStaticClass && p.Name == "class" {
				continue
			}
			if skipStaticStyle && p.Name == "style" {
				continue
			}
			if ctx.skipIsProp && p.Name == "is" {
				continue
			}
			writeSep()
			pushPropKey(ctx, p.Name)
			ctx.push(": ")
			if p.Value != nil {
				ctx.push(helpers.QuoteDouble(p.Value.Content))
			} else {
				ctx.push("\"\"")
			}

		case *tmplast.Directive:
			if !isEmittedAsProp(p) {
				continue
			}
			if ctx.skipIsProp && p.Name == "bind" {
				if arg, static := p.ArgIsStatic(); static && arg == "is" {
					continue
				}
			}

			if key, ok := staticEventKey(p); ok && eventCounts[key] > 1 {
				if emittedEvents[key] {
					continue
				}
				emittedEvents[key] = true
				writeSep()
				pushPropKey(ctx, key)
				ctx.push(": [")
				idx := 0
				for _, q := range el.Props {
					if dir, ok := q.(*tmplast.Directive); ok {
						if k, ok := staticEventKey(dir); ok && k == key {
							if idx > 0 {
								ctx.push(", ")
							}
							generateHandlerValue(ctx, dir)
							idx++
						}
					}
				}
				ctx.push("]")
				continue
			}

			writeSep()
			generateDirectiveProp(ctx, p, staticClass, staticStyle)
		}
	}

	if scopeID != "" {
		writeSep()
		ctx.push(helpers.QuoteDouble(scopeID))
		ctx.push(": \"\"")
	}

	if multiline {
		ctx.deindent()
		ctx.newline()
		ctx.push("}")
	} else {
		ctx.push(close)
	}

	ctx.skipNormalize = prevSkipNormalize
}

func countVisibleProps(ctx *Context, el *tmplast.Element, scopeID string, injectedKey string, skipClass bool, skipStyle bool) int {
	count := 0
	if scopeID != "" {
		count++
	}
	if injectedKey != "" {
		count++
	}
	for _, p := range el.Props {
		switch p := p.(type) {
		case *tmplast.Attribute:
			if (skipClass && p.Name == "class") || (skipStyle && p.Name == "style") {
				continue
			}
			if ctx.skipIsProp && p.Name == "is" {
				continue
			}
			count++
		case *tmplast.Directive:
			if isEmittedAsProp(p) {
				count++
			}
		}
	}
	return count
}

// hasMultilineValue mirrors the formatting rule: normalization calls,
// inline handlers and cached handlers read better one prop per line.
func hasMultilineValue(ctx *Context, el *tmplast.Element) bool {
	for _, p := range el.Props {
		dir, ok := p.(*tmplast.Directive)
		if !ok {
			continue
		}
		switch dir.Name {
		case "text":
			return true
		case "bind":
			if arg, static := dir.ArgIsStatic(); static && (arg == "class" || arg == "style") {
				if !expIsStatic(dir.Exp) {
					return true
				}
			}
		case "on":
			if dir.Exp == nil {
				continue
			}
			if ctx.options.CacheHandlers && shouldCacheHandler(ctx, dir) {
				return true
			}
			for _, m := range dir.Modifiers {
				switch m.Content {
				case "capture", "once", "passive":
				default:
					return true
				}
			}
			if simple, ok := dir.Exp.(*tmplast.SimpleExpr); ok {
				c := simple.Content
				if strings.ContainsAny(c, "(+-= ") {
					return true
				}
			}
		}
	}
	return false
}

func pushPropKey(ctx *Context, name string) {
	if helpers.IsValidJSIdentifier(name) {
		ctx.push(name)
	} else {
		ctx.push(helpers.QuoteDouble(name))
	}
}

// staticEventKey returns the full prop key for a v-on directive with a
// static argument, including option-modifier suffixes.
func staticEventKey(dir *tmplast.Directive) (string, bool) {
	if dir.Name != "on" {
		return "", false
	}
	arg, static := dir.ArgIsStatic()
	if !static {
		return "", false
	}
	key := helpers.ToHandlerKey(eventNameFor(arg, dir))
	for _, m := range dir.Modifiers {
		switch m.Content {
		case "capture":
			key += "Capture"
		case "once":
			key += "Once"
		case "passive":
			key += "Passive"
		}
	}
	return key, true
}

// generateDirectiveProp emits one directive as a key/value entry.
func generateDirectiveProp(ctx *Context, dir *tmplast.Directive, staticClass string, staticStyle string) {
	switch dir.Name {
	case "bind":
		generateBindProp(ctx, dir, staticClass, staticStyle)

	case "on":
		if key, ok := staticEventKey(dir); ok {
			pushPropKey(ctx, key)
		} else {
			// Dynamic event name goes through toHandlerKey
			ctx.push("[")
			ctx.push(ctx.helper(tmplast.HelperToHandlerKey))
			ctx.push("(")
			generateExpression(ctx, dir.Arg)
			ctx.push(")]")
		}
		ctx.push(": ")
		generateHandlerValue(ctx, dir)

	case "html":
		ctx.push("innerHTML: ")
		generateExpression(ctx, dir.Exp)

	case "text":
		ctx.push("textContent: ")
		ctx.push(ctx.helper(tmplast.HelperToDisplayString))
		ctx.push("(")
		generateExpression(ctx, dir.Exp)
		ctx.push(")")

	case "model":
		// Dynamic-argument v-model: computed prop key plus computed update
		// event key; the surrounding normalizeProps handles the merge
		arg := tmplast.ExprContent(dir.Arg)
		exp := tmplast.ExprContent(dir.Exp)
		ctx.push("[")
		ctx.push(arg)
		ctx.push(" || \"\"]: ")
		ctx.push(exp)
		ctx.push(",")
		ctx.newline()
		ctx.push("[\"onUpdate:\" + (")
		ctx.push(arg)
		ctx.push(" || \"\")]: $event => ((")
		ctx.push(exp)
		ctx.push(") = $event)")
	}
}

func generateBindProp(ctx *Context, dir *tmplast.Directive, staticClass string, staticStyle string) {
	arg, static := dir.ArgIsStatic()

	if !static {
		// Dynamic attribute name: [expr || ""]: value
		ctx.push("[")
		generateExpression(ctx, dir.Arg)
		ctx.push(" || \"\"]: ")
		generateExpression(ctx, dir.Exp)
		return
	}

	key := arg
	hasCamel := dir.HasModifier("camel")
	hasProp := dir.HasModifier("prop")
	hasAttr := dir.HasModifier("attr")
	switch {
	case hasCamel:
		key = helpers.Camelize(key)
	case hasProp:
		key = "." + key
	case hasAttr:
		key = "^" + key
	}

	switch {
	case arg == "class" && !ctx.skipNormalize && !expIsStatic(dir.Exp):
		pushPropKey(ctx, "class")
		ctx.push(": ")
		ctx.push(ctx.helper(tmplast.HelperNormalizeClass))
		ctx.push("(")
		if staticClass != "" {
			ctx.push("[")
			ctx.push(helpers.QuoteDouble(staticClass))
			ctx.push(", ")
			generateExpression(ctx, dir.Exp)
			ctx.push("]")
		} else {
			generateExpression(ctx, dir.Exp)
		}
		ctx.push(")")

	case arg == "style" && !ctx.skipNormalize && !expIsStatic(dir.Exp):
		pushPropKey(ctx, "style")
		ctx.push(": ")
		ctx.push(ctx.helper(tmplast.HelperNormalizeStyle))
		ctx.push("(")
		if staticStyle != "" {
			ctx.push("[")
			ctx.push(helpers.QuoteDouble(staticStyle))
			ctx.push(", ")
			generateExpression(ctx, dir.Exp)
			ctx.push("]")
		} else {
			generateExpression(ctx, dir.Exp)
		}
		ctx.push(")")

	default:
		pushPropKey(ctx, key)
		ctx.push(": ")
		generateExpression(ctx, dir.Exp)
	}
}

// shouldCacheHandler follows the rule that setup-const method references
// never change, so caching them buys nothing. Everything else is cached
// when the option is on.
func shouldCacheHandler(ctx *Context, dir *tmplast.Directive) bool {
	if !ctx.options.CacheHandlers {
		return false
	}
	simple, ok := dir.Exp.(*tmplast.SimpleExpr)
	if !ok {
		return true
	}
	content := strings.TrimSpace(simple.Content)
	if helpers.IsSimpleIdentifier(content) &&
		ctx.options.BindingMetadata.Get(content) == tmplast.BindingSetupConst {
		return false
	}
	return true
}

// generateHandlerValue emits a v-on handler with its runtime wrappers.
// Wrapping order is withKeys(withModifiers(fn, sys), keys); event-option
// modifiers mutated the key instead and are not wrappers.
func generateHandlerValue(ctx *Context, dir *tmplast.Directive) {
	eventName, _ := dir.ArgIsStatic()
	isKeyboard := eventName == "keydown" || eventName == "keyup" || eventName == "keypress"

	var systemMods, keyMods []string
	for _, m := range dir.Modifiers {
		switch m.Content {
		case "capture", "once", "passive", "native":
			// Key suffixes, handled in staticEventKey
		case "left", "right":
			// Key aliases on keyboard events, mouse-button guards elsewhere
			if isKeyboard {
				keyMods = append(keyMods, m.Content)
			} else {
				systemMods = append(systemMods, m.Content)
			}
		case "middle":
			systemMods = append(systemMods, m.Content)
		case "stop", "prevent", "self", "ctrl", "shift", "alt", "meta", "exact":
			systemMods = append(systemMods, m.Content)
		case "enter", "tab", "delete", "esc", "space", "up", "down":
			keyMods = append(keyMods, m.Content)
		default:
			// Unknown names are treated as key aliases
			keyMods = append(keyMods, m.Content)
		}
	}

	cached := shouldCacheHandler(ctx, dir)
	var slot int
	if cached {
		slot = ctx.nextCacheSlot()
		ctx.push("_cache[")
		ctx.push(strconv.Itoa(slot))
		ctx.push("] || (_cache[")
		ctx.push(strconv.Itoa(slot))
		ctx.push("] = ")
	}

	if len(keyMods) > 0 {
		ctx.push(ctx.helper(tmplast.HelperWithKeys))
		ctx.push("(")
	}
	if len(systemMods) > 0 {
		ctx.push(ctx.helper(tmplast.HelperWithModifiers))
		ctx.push("(")
	}

	if dir.Exp != nil {
		generateExpression(ctx, dir.Exp)
	} else {
		ctx.push("() => {}")
	}

	if len(systemMods) > 0 {
		ctx.push(", [")
		for i, m := range systemMods {
			if i > 0 {
				ctx.push(",")
			}
			ctx.push(helpers.QuoteDouble(m))
		}
		ctx.push("])")
	}
	if len(keyMods) > 0 {
		ctx.push(", [")
		for i, m := range keyMods {
			if i > 0 {
				ctx.push(",")
			}
			ctx.push(helpers.QuoteDouble(m))
		}
		ctx.push("])")
	}

	if cached {
		ctx.push(")")
	}
}
