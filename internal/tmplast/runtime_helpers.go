package tmplast

// RuntimeHelper enumerates every runtime import the generator can emit. The
// declaration order here is the emission order of the import preamble, which
// keeps output byte-stable across runs.
type RuntimeHelper uint8

const (
	HelperFragment RuntimeHelper = iota
	HelperTeleport
	HelperSuspense
	HelperKeepAlive
	HelperOpenBlock
	HelperCreateBlock
	HelperCreateElementBlock
	HelperCreateVNode
	HelperCreateElementVNode
	HelperCreateCommentVNode
	HelperCreateTextVNode
	HelperCreateStaticVNode
	HelperResolveComponent
	HelperResolveDynamicComponent
	HelperResolveDirective
	HelperWithDirectives
	HelperRenderList
	HelperRenderSlot
	HelperToDisplayString
	HelperMergeProps
	HelperNormalizeClass
	HelperNormalizeStyle
	HelperNormalizeProps
	HelperGuardReactiveProps
	HelperToHandlers
	HelperToHandlerKey
	HelperSetBlockTracking
	HelperWithCtx
	HelperWithKeys
	HelperWithModifiers
	HelperVShow
	HelperVModelText
	HelperVModelCheckbox
	HelperVModelRadio
	HelperVModelSelect
	HelperVModelDynamic
	HelperUnref
	HelperToNumber
	HelperUseModel
	HelperMergeDefaults

	helperCount
)

var helperNames = [helperCount]string{
	HelperFragment:                "Fragment",
	HelperTeleport:                "Teleport",
	HelperSuspense:                "Suspense",
	HelperKeepAlive:               "KeepAlive",
	HelperOpenBlock:               "openBlock",
	HelperCreateBlock:             "createBlock",
	HelperCreateElementBlock:      "createElementBlock",
	HelperCreateVNode:             "createVNode",
	HelperCreateElementVNode:      "createElementVNode",
	HelperCreateCommentVNode:      "createCommentVNode",
	HelperCreateTextVNode:         "createTextVNode",
	HelperCreateStaticVNode:       "createStaticVNode",
	HelperResolveComponent:        "resolveComponent",
	HelperResolveDynamicComponent: "resolveDynamicComponent",
	HelperResolveDirective:        "resolveDirective",
	HelperWithDirectives:          "withDirectives",
	HelperRenderList:              "renderList",
	HelperRenderSlot:              "renderSlot",
	HelperToDisplayString:         "toDisplayString",
	HelperMergeProps:              "mergeProps",
	HelperNormalizeClass:          "normalizeClass",
	HelperNormalizeStyle:          "normalizeStyle",
	HelperNormalizeProps:          "normalizeProps",
	HelperGuardReactiveProps:      "guardReactiveProps",
	HelperToHandlers:              "toHandlers",
	HelperToHandlerKey:            "toHandlerKey",
	HelperSetBlockTracking:        "setBlockTracking",
	HelperWithCtx:                 "withCtx",
	HelperWithKeys:                "withKeys",
	HelperWithModifiers:           "withModifiers",
	HelperVShow:                   "vShow",
	HelperVModelText:              "vModelText",
	HelperVModelCheckbox:          "vModelCheckbox",
	HelperVModelRadio:             "vModelRadio",
	HelperVModelSelect:            "vModelSelect",
	HelperVModelDynamic:           "vModelDynamic",
	HelperUnref:                   "unref",
	HelperToNumber:                "toNumber",
	HelperUseModel:                "useModel",
	HelperMergeDefaults:           "mergeDefaults",
}

// Name is the import name in the runtime module.
func (h RuntimeHelper) Name() string {
	return helperNames[h]
}

// Alias is the local name used in emitted code ("_openBlock").
func (h RuntimeHelper) Alias() string {
	return "_" + helperNames[h]
}

// HelperCount is exported for iteration in enum order.
const HelperCount = int(helperCount)

// HelperSet tracks which helpers a compilation uses. Iteration via Sorted is
// always in declaration order.
type HelperSet struct {
	used [helperCount]bool
}

func (s *HelperSet) Add(h RuntimeHelper) {
	s.used[h] = true
}

func (s *HelperSet) Remove(h RuntimeHelper) {
	s.used[h] = false
}

func (s *HelperSet) Has(h RuntimeHelper) bool {
	return s.used[h]
}

func (s *HelperSet) IsEmpty() bool {
	for _, u := range s.used {
		if u {
			return false
		}
	}
	return true
}

func (s *HelperSet) Sorted() []RuntimeHelper {
	var out []RuntimeHelper
	for i := 0; i < HelperCount; i++ {
		if s.used[i] {
			out = append(out, RuntimeHelper(i))
		}
	}
	return out
}
