package codegen

import (
	"strconv"
	"strings"

	"github.com/ushironoko/vize/internal/helpers"
	"github.com/ushironoko/vize/internal/tmplast"
)

func hasVOnce(el *tmplast.Element) bool {
	return el.Directive("once") != nil
}

func hasVShow(el *tmplast.Element) bool {
	return el.Directive("show") != nil
}

func hasVModel(el *tmplast.Element) bool {
	return el.Directive("model") != nil
}

func customDirectives(el *tmplast.Element) []*tmplast.Directive {
	var dirs []*tmplast.Directive
	for _, p := range el.Props {
		if dir, ok := p.(*tmplast.Directive); ok && !tmplast.IsBuiltinDirective(dir.Name) {
			dirs = append(dirs, dir)
		}
	}
	return dirs
}

// generateElementBlock emits an element in block position:
// "(openBlock(), createElementBlock(...))" with any directive wrappers
// around the sequence.
func generateElementBlock(ctx *Context, el *tmplast.Element) {
	if hasVOnce(el) {
		generateVOnce(ctx, el, true)
		return
	}
	if el.HoistedIndex >= 0 {
		ctx.push("_hoisted_")
		ctx.push(strconv.Itoa(el.HoistedIndex + 1))
		return
	}

	// Slots are never blocks
	if el.Type == tmplast.ElementSlot {
		generateSlotOutlet(ctx, el)
		return
	}

	wrappers := openDirectiveWrappers(ctx, el)

	ctx.push("(")
	ctx.push(ctx.helper(tmplast.HelperOpenBlock))
	ctx.push("(), ")

	switch el.Type {
	case tmplast.ElementPlain:
		generateVNodeCall(ctx, el, ctx.helper(tmplast.HelperCreateElementBlock))
	case tmplast.ElementComponent:
		generateComponentCall(ctx, el, ctx.helper(tmplast.HelperCreateBlock))
	case tmplast.ElementTemplate:
		ctx.push(ctx.helper(tmplast.HelperCreateElementBlock))
		ctx.push("(")
		ctx.push(ctx.helper(tmplast.HelperFragment))
		ctx.push(", null, ")
		generateChildren(ctx, el.Children, false)
		ctx.push(")")
	}

	ctx.push(")")
	closeDirectiveWrappers(ctx, el, wrappers)
}

// generateElement emits an element in non-block position.
func generateElement(ctx *Context, el *tmplast.Element) {
	if hasVOnce(el) {
		generateVOnce(ctx, el, false)
		return
	}
	if el.HoistedIndex >= 0 {
		ctx.push("_hoisted_")
		ctx.push(strconv.Itoa(el.HoistedIndex + 1))
		return
	}

	if el.Type == tmplast.ElementSlot {
		generateSlotOutlet(ctx, el)
		return
	}

	wrappers := openDirectiveWrappers(ctx, el)

	switch el.Type {
	case tmplast.ElementPlain:
		generateVNodeCall(ctx, el, ctx.helper(tmplast.HelperCreateElementVNode))
	case tmplast.ElementComponent:
		generateComponentCall(ctx, el, ctx.helper(tmplast.HelperCreateVNode))
	case tmplast.ElementTemplate:
		ctx.push(ctx.helper(tmplast.HelperCreateElementVNode))
		ctx.push("(")
		ctx.push(ctx.helper(tmplast.HelperFragment))
		ctx.push(", null, ")
		generateChildren(ctx, el.Children, false)
		ctx.push(")")
	}

	closeDirectiveWrappers(ctx, el, wrappers)
}

// generateHoistedElement emits the element expression for the hoist table.
// Hoisted nodes are fully static, so no wrappers or patch flags apply; the
// temporary -1 index keeps the emitter from short-circuiting on itself.
func generateHoistedElement(ctx *Context, el *tmplast.Element) {
	index := el.HoistedIndex
	el.HoistedIndex = -1
	generateElement(ctx, el)
	el.HoistedIndex = index
}

type wrapperInfo struct {
	custom bool
	model  bool
	show   bool
}

// openDirectiveWrappers pushes the withDirectives( prefix when the element
// carries runtime directives. The matching argument arrays are emitted by
// closeDirectiveWrappers.
func openDirectiveWrappers(ctx *Context, el *tmplast.Element) wrapperInfo {
	info := wrapperInfo{
		custom: len(customDirectives(el)) > 0,
		show:   hasVShow(el),
	}
	// v-model uses a runtime directive only on native elements
	info.model = hasVModel(el) && el.Type == tmplast.ElementPlain

	if info.custom || info.model || info.show {
		ctx.push(ctx.helper(tmplast.HelperWithDirectives))
		ctx.push("(")
	}
	return info
}

func closeDirectiveWrappers(ctx *Context, el *tmplast.Element, info wrapperInfo) {
	if !info.custom && !info.model && !info.show {
		return
	}

	ctx.push(", [")
	ctx.indent()
	first := true

	if info.model {
		dir := el.Directive("model")
		if !first {
			ctx.push(",")
		}
		first = false
		ctx.newline()
		ctx.push("[")
		ctx.push(ctx.helper(vModelHelperFor(el)))
		ctx.push(", ")
		generateExpression(ctx, dir.Exp)
		if mods := runtimeModelModifiers(dir); mods != "" {
			ctx.push(", void 0, ")
			ctx.push(mods)
		}
		ctx.push("]")
	}

	if info.show {
		dir := el.Directive("show")
		if !first {
			ctx.push(",")
		}
		first = false
		ctx.newline()
		ctx.push("[")
		ctx.push(ctx.helper(tmplast.HelperVShow))
		ctx.push(", ")
		generateExpression(ctx, dir.Exp)
		ctx.push("]")
	}

	for _, dir := range customDirectives(el) {
		if !first {
			ctx.push(",")
		}
		first = false
		ctx.newline()
		ctx.push("[_directive_")
		ctx.push(strings.ReplaceAll(dir.Name, "-", "_"))
		if dir.Exp != nil {
			ctx.push(", ")
			generateExpression(ctx, dir.Exp)
		}
		if arg, static := dir.ArgIsStatic(); static {
			if dir.Exp == nil {
				ctx.push(", void 0")
			}
			ctx.push(", ")
			ctx.push(helpers.QuoteDouble(arg))
		}
		ctx.push("]")
	}

	ctx.deindent()
	ctx.newline()
	ctx.push("])")
}

// vModelHelperFor selects the runtime model directive by element and type
// attribute: text inputs, checkboxes, radios, selects, or the dynamic
// fallback when :type is bound.
func vModelHelperFor(el *tmplast.Element) tmplast.RuntimeHelper {
	switch el.Tag {
	case "select":
		return tmplast.HelperVModelSelect
	case "textarea":
		return tmplast.HelperVModelText
	}

	if dir := el.Directive("bind"); dir != nil {
		if arg, static := dir.ArgIsStatic(); static && arg == "type" {
			return tmplast.HelperVModelDynamic
		}
	}

	if attr := el.Attribute("type"); attr != nil && attr.Value != nil {
		switch attr.Value.Content {
		case "checkbox":
			return tmplast.HelperVModelCheckbox
		case "radio":
			return tmplast.HelperVModelRadio
		}
	}
	return tmplast.HelperVModelText
}

// runtimeModelModifiers renders the lazy/number/trim modifier object passed
// as the fourth directive argument. Coercion order is documented: trim runs
// before number.
func runtimeModelModifiers(dir *tmplast.Directive) string {
	var mods []string
	for _, m := range dir.Modifiers {
		switch m.Content {
		case "lazy", "number", "trim":
			mods = append(mods, m.Content+": true")
		}
	}
	if len(mods) == 0 {
		return ""
	}
	return "{ " + strings.Join(mods, ", ") + " }"
}

// generateVNodeCall emits the call for a native element: tag, props,
// children, patch flag, dynamic props.
func generateVNodeCall(ctx *Context, el *tmplast.Element, callee string) {
	ctx.push(callee)
	ctx.push("(")
	ctx.push(helpers.QuoteDouble(el.Tag))

	info := computePatchInfo(ctx, el)
	hasPatchInfo := !info.isEmpty()

	// When the props object was hoisted the patch flag usually collapses;
	// a remaining lone TEXT bit is omitted as well
	emitFlag := info.flag != 0
	if el.HoistedPropsIndex >= 0 && info.flag == tmplast.PatchFlagText {
		emitFlag = false
		hasPatchInfo = len(info.dynamicProps) > 0
	}

	switch {
	case el.HoistedPropsIndex >= 0:
		ctx.push(", _hoisted_")
		ctx.push(strconv.Itoa(el.HoistedPropsIndex + 1))
	case hasRenderableProps(ctx, el):
		ctx.push(", ")
		generateProps(ctx, el)
	case len(el.Children) > 0 || hasPatchInfo:
		ctx.push(", null")
	}

	switch {
	case len(el.Children) > 0:
		ctx.push(", ")
		generateChildren(ctx, el.Children, false)
	case hasPatchInfo:
		ctx.push(", null")
	}

	if emitFlag {
		ctx.push(", ")
		pushPatchFlag(ctx, info.flag)
	}

	if emitFlag && len(info.dynamicProps) > 0 {
		ctx.push(", [")
		for i, name := range info.dynamicProps {
			if i > 0 {
				ctx.push(", ")
			}
			ctx.push(helpers.QuoteDouble(name))
		}
		ctx.push("]")
	}

	ctx.push(")")
}

// generateComponentCall emits the call for a component: resolved tag or
// dynamic component, props, slots, patch flag.
func generateComponentCall(ctx *Context, el *tmplast.Element, callee string) {
	ctx.push(callee)
	ctx.push("(")

	isDynamic := el.Tag == "component"
	pushComponentReference(ctx, el, isDynamic)

	prevSkipIs := ctx.skipIsProp
	if isDynamic {
		ctx.skipIsProp = true
	}

	info := computePatchInfo(ctx, el)

	// Text inside a component lives in a slot, not in the vnode
	info.flag &^= tmplast.PatchFlagText

	slotted := hasSlotChildren(el)
	if el.Tag == "KeepAlive" || (slotted && hasDynamicSlots(el)) {
		info.flag |= tmplast.PatchFlagDynamicSlots
	}
	hasPatchInfo := !info.isEmpty()

	realChildren := hasRealChildren(el)

	// The scope id is delegated to the runtime via __scopeId on components,
	// so it never appears in their props object. The flag only brackets
	// this props emission; slot children restore the normal behavior.
	prevSkipScope := ctx.skipScopeID
	ctx.skipScopeID = true
	hasProps := hasRenderableProps(ctx, el)
	switch {
	case hasProps:
		ctx.push(", ")
		generateProps(ctx, el)
	case realChildren || hasPatchInfo:
		ctx.push(", null")
	}
	ctx.skipScopeID = prevSkipScope

	switch {
	case slotted:
		ctx.push(", ")
		generateSlots(ctx, el)
	case realChildren:
		// Teleport, KeepAlive and friends take plain array children
		ctx.push(", [")
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
		ctx.push("]")
	case hasPatchInfo:
		ctx.push(", null")
	}

	if info.flag != 0 {
		ctx.push(", ")
		pushPatchFlag(ctx, info.flag)
	}

	if len(info.dynamicProps) > 0 {
		ctx.push(", [")
		for i, name := range info.dynamicProps {
			if i > 0 {
				ctx.push(", ")
			}
			ctx.push(helpers.QuoteDouble(name))
		}
		ctx.push("]")
	}

	ctx.skipIsProp = prevSkipIs
	ctx.push(")")
}

// pushComponentReference resolves how the component is referenced: builtin
// helper, setup binding, resolved component, or resolveDynamicComponent
// for <component :is>.
func pushComponentReference(ctx *Context, el *tmplast.Element, isDynamic bool) {
	if isDynamic {
		if dir := el.Directive("bind"); dir != nil {
			if arg, static := dir.ArgIsStatic(); static && arg == "is" && dir.Exp != nil {
				ctx.push(ctx.helper(tmplast.HelperResolveDynamicComponent))
				ctx.push("(")
				generateExpression(ctx, dir.Exp)
				ctx.push(")")
				return
			}
		}
		if attr := el.Attribute("is"); attr != nil && attr.Value != nil {
			ctx.push(ctx.helper(tmplast.HelperResolveDynamicComponent))
			ctx.push("(")
			ctx.push(helpers.QuoteDouble(attr.Value.Content))
			ctx.push(")")
			return
		}
	}

	switch el.Tag {
	case "Teleport":
		ctx.push(ctx.helper(tmplast.HelperTeleport))
		return
	case "KeepAlive":
		ctx.push(ctx.helper(tmplast.HelperKeepAlive))
		return
	case "Suspense":
		ctx.push(ctx.helper(tmplast.HelperSuspense))
		return
	}

	if ctx.isComponentInBindings(el.Tag) {
		if !ctx.options.Inline {
			ctx.push("$setup.")
		}
		ctx.push(el.Tag)
		return
	}

	ctx.push("_component_")
	ctx.push(strings.ReplaceAll(el.Tag, "-", "_"))
}

func hasRealChildren(el *tmplast.Element) bool {
	for _, child := range el.Children {
		if !tmplast.IsWhitespaceOnly(child) {
			return true
		}
	}
	return false
}

// generateChildren emits an element's child list: a merged text expression,
// a single call, or an array.
func generateChildren(ctx *Context, children []tmplast.Node, forceArray bool) {
	if !forceArray && allTextChildren(children) {
		generateTextChildren(ctx, children)
		return
	}

	if !forceArray && len(children) == 1 {
		generateNode(ctx, children[0])
		return
	}

	ctx.push("[")
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
	ctx.push("]")
}

// generateIf emits the conditional chain. Every branch is its own block and
// the branches share unique ascending keys so the diff sees continuity.
func generateIf(ctx *Context, ifNode *tmplast.If) {
	generateBranchChain(ctx, ifNode.Branches, 0)
}

func generateBranchChain(ctx *Context, branches []*tmplast.IfBranch, i int) {
	branch := branches[i]

	if branch.Condition == nil {
		generateBranch(ctx, branch, i)
		return
	}

	generateExpression(ctx, branch.Condition)
	ctx.newline()
	ctx.push("  ? ")
	generateBranch(ctx, branch, i)
	ctx.newline()
	ctx.push("  : ")
	if i+1 < len(branches) {
		generateBranchChain(ctx, branches, i+1)
	} else {
		// No v-else: fall back to a comment placeholder
		ctx.push(ctx.helper(tmplast.HelperCreateCommentVNode))
		ctx.push("(\"v-if\", true)")
	}
}

// branchKeyEntry renders the key entry for a branch: the user-supplied key
// prop when one was written, else the branch index.
func branchKeyEntry(branch *tmplast.IfBranch, index int) string {
	switch key := branch.UserKey.(type) {
	case *tmplast.Attribute:
		if key.Value != nil {
			return "key: " + helpers.QuoteDouble(key.Value.Content)
		}
	case *tmplast.Directive:
		if key.Exp != nil {
			return "key: " + tmplast.ExprContent(key.Exp)
		}
	}
	return "key: " + strconv.Itoa(index)
}

func generateBranch(ctx *Context, branch *tmplast.IfBranch, index int) {
	keyEntry := branchKeyEntry(branch, index)

	if len(branch.Children) == 1 {
		if el, ok := branch.Children[0].(*tmplast.Element); ok {
			prevKey := ctx.injectedKey
			ctx.injectedKey = keyEntry
			generateElementBlock(ctx, el)
			ctx.injectedKey = prevKey
			return
		}
	}

	// template v-if or non-element content becomes a keyed fragment block
	ctx.push("(")
	ctx.push(ctx.helper(tmplast.HelperOpenBlock))
	ctx.push("(), ")
	ctx.push(ctx.helper(tmplast.HelperCreateElementBlock))
	ctx.push("(")
	ctx.push(ctx.helper(tmplast.HelperFragment))
	ctx.push(", { ")
	ctx.push(keyEntry)
	ctx.push(" }, ")
	generateChildren(ctx, branch.Children, true)
	ctx.push("))")
}

// generateFor emits the fragment-wrapped renderList call. The fragment flag
// depends on the source and the key: stable for constant sources, keyed
// when a :key is present, unkeyed otherwise.
func generateFor(ctx *Context, forNode *tmplast.For) {
	flag := tmplast.PatchFlagUnkeyedFrag
	if len(forNode.Children) == 1 {
		if el, ok := forNode.Children[0].(*tmplast.Element); ok && elementHasKey(el) {
			flag = tmplast.PatchFlagKeyedFrag
		}
	}
	if simple, ok := forNode.Source.(*tmplast.SimpleExpr); ok && simple.ConstType >= tmplast.ConstCanCache {
		flag = tmplast.PatchFlagStableFrag
	}

	openArg := "true"
	if flag == tmplast.PatchFlagStableFrag {
		openArg = ""
	}

	ctx.push("(")
	ctx.push(ctx.helper(tmplast.HelperOpenBlock))
	ctx.push("(")
	ctx.push(openArg)
	ctx.push("), ")
	ctx.push(ctx.helper(tmplast.HelperCreateElementBlock))
	ctx.push("(")
	ctx.push(ctx.helper(tmplast.HelperFragment))
	ctx.push(", null, ")
	ctx.push(ctx.helper(tmplast.HelperRenderList))
	ctx.push("(")
	generateExpression(ctx, forNode.Source)
	ctx.push(", (")

	params := []string{}
	if forNode.ValueAlias != nil {
		params = append(params, tmplast.ExprContent(forNode.ValueAlias))
	}
	if forNode.KeyAlias != nil {
		params = append(params, tmplast.ExprContent(forNode.KeyAlias))
	}
	if forNode.IndexAlias != nil {
		params = append(params, tmplast.ExprContent(forNode.IndexAlias))
	}
	ctx.push(strings.Join(params, ", "))
	ctx.push(") => ")

	if len(forNode.Children) == 1 {
		if el, ok := forNode.Children[0].(*tmplast.Element); ok {
			generateElementBlock(ctx, el)
		} else {
			generateNode(ctx, forNode.Children[0])
		}
	} else {
		generateChildren(ctx, forNode.Children, true)
	}

	ctx.push("), ")
	pushPatchFlag(ctx, flag)
	ctx.push("))")
}

func elementHasKey(el *tmplast.Element) bool {
	if el.Attribute("key") != nil {
		return true
	}
	for _, p := range el.Props {
		if dir, ok := p.(*tmplast.Directive); ok && dir.Name == "bind" {
			if arg, static := dir.ArgIsStatic(); static && arg == "key" {
				return true
			}
		}
	}
	return false
}

// generateVOnce emits the element inside a cache slot guarded by
// setBlockTracking so the cached subtree opts out of block collection on
// later renders.
func generateVOnce(ctx *Context, el *tmplast.Element, asBlock bool) {
	slot := ctx.nextCacheSlot()
	slotText := strconv.Itoa(slot)

	ctx.push("_cache[")
	ctx.push(slotText)
	ctx.push("] || (")
	ctx.indent()
	ctx.newline()
	ctx.push(ctx.helper(tmplast.HelperSetBlockTracking))
	ctx.push("(-1, true),")
	ctx.newline()
	ctx.push("(_cache[")
	ctx.push(slotText)
	ctx.push("] = ")

	// Emit without the v-once directive so we don't recurse
	removeOnce(el)
	if asBlock {
		generateElementBlock(ctx, el)
	} else {
		generateElement(ctx, el)
	}

	ctx.push(").cacheIndex = ")
	ctx.push(slotText)
	ctx.push(",")
	ctx.newline()
	ctx.push(ctx.helper(tmplast.HelperSetBlockTracking))
	ctx.push("(1),")
	ctx.newline()
	ctx.push("_cache[")
	ctx.push(slotText)
	ctx.push("]")
	ctx.deindent()
	ctx.newline()
	ctx.push(")")
}

func removeOnce(el *tmplast.Element) {
	for i, p := range el.Props {
		if dir, ok := p.(*tmplast.Directive); ok && dir.Name == "once" {
			el.Props = append(el.Props[:i], el.Props[i+1:]...)
			return
		}
	}
}
