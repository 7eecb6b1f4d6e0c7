package logger

// MsgCode is a stable kebab-case identifier attached to every diagnostic.
// Codes are grouped by a slash-separated namespace. Editor clients match on
// these strings, so renaming a code is a breaking change.
type MsgCode string

// Markup parse errors
const (
	CodeUnclosedTag             MsgCode = "template/unclosed-tag"
	CodeInvalidEndTag           MsgCode = "template/invalid-end-tag"
	CodeUnterminatedString      MsgCode = "template/unterminated-string"
	CodeUnterminatedComment     MsgCode = "template/unterminated-comment"
	CodeUnterminatedInterpolate MsgCode = "template/unterminated-interpolation"
	CodeMalformedDirective      MsgCode = "template/malformed-directive"
	CodeDuplicateAttribute      MsgCode = "template/duplicate-attribute"
)

// Structural directive errors reported during transform
const (
	CodeVElseNoAdjacentIf      MsgCode = "template/v-else-no-adjacent-if"
	CodeVForNoExpression       MsgCode = "template/v-for-no-expression"
	CodeVForMalformed          MsgCode = "template/v-for-malformed-expression"
	CodeVModelUnsupported      MsgCode = "template/v-model-unsupported-element"
	CodeVModelNoExpression     MsgCode = "template/v-model-no-expression"
	CodeVSlotMisplaced         MsgCode = "template/v-slot-misplaced"
	CodeVIfWithVFor            MsgCode = "template/v-if-with-v-for"
	CodeVMemoOnVForChild       MsgCode = "template/v-memo-inside-v-for"
	CodeDynamicKeyFallthrough  MsgCode = "template/dynamic-key-fallthrough"
	CodeTemplateBindUnexpected MsgCode = "template/v-bind-no-expression"
)

// SFC block splitter errors
const (
	CodeDuplicateTemplateBlock MsgCode = "sfc/duplicate-template-block"
	CodeDuplicateScriptBlock   MsgCode = "sfc/duplicate-script-block"
	CodeUnterminatedBlock      MsgCode = "sfc/unterminated-block"
)

// Script analyzer errors
const (
	CodeMacroOutsideTopLevel  MsgCode = "script/macro-outside-top-level"
	CodeDuplicateDefineProps  MsgCode = "script/duplicate-define-props"
	CodeDuplicateDefineEmits  MsgCode = "script/duplicate-define-emits"
	CodeDestructureWrongMacro MsgCode = "script/destructure-on-wrong-macro"
	CodeTypeUsedInTemplate    MsgCode = "script/type-used-in-template"
)

// Summary/lint diagnostics
const (
	CodeUndefinedReference MsgCode = "template/undefined-reference"
	CodeUnusedBinding      MsgCode = "script/unused-binding"
)

// Cross-file diagnostics
const (
	CodeUnmatchedInject     MsgCode = "cross-file/unmatched-inject"
	CodeUnusedProvide       MsgCode = "cross-file/unused-provide"
	CodeUndeclaredEmit      MsgCode = "cross-file/undeclared-emit"
	CodeUnusedEmit          MsgCode = "cross-file/unused-emit"
	CodeUndeclaredProp      MsgCode = "cross-file/undeclared-prop"
	CodeMissingRequiredProp MsgCode = "cross-file/missing-required-prop"
	CodeCircularDependency  MsgCode = "cross-file/circular-dep"
	CodeUnresolvedImport    MsgCode = "cross-file/unresolved-import"
	CodeUnregisteredTag     MsgCode = "cross-file/unregistered-component"
)

// Reactivity diagnostics
const (
	CodeDestructureBreaksReactivity MsgCode = "reactivity/destructuring-breaks-reactivity"
	CodeReassignBreaksReactivity    MsgCode = "reactivity/reassignment-breaks-reactivity"
	CodeValueExtractionBreaks       MsgCode = "reactivity/value-extraction-breaks-reactivity"
	CodeSpreadOnReactive            MsgCode = "reactivity/spread-breaks-reactivity"
	CodeModuleScopeReactive         MsgCode = "reactivity/module-scope-reactive-state"
	CodeComputedSideEffects         MsgCode = "reactivity/computed-with-side-effects"
	CodeReactiveEscapes             MsgCode = "reactivity/reference-escapes-setup"
	CodeReactiveMutatedAfterEscape  MsgCode = "reactivity/mutated-after-escape"
	CodeWatchCanBeComputed          MsgCode = "reactivity/watch-can-be-computed"
	CodeDomAccessWithoutNextTick    MsgCode = "reactivity/dom-access-without-next-tick"
	CodeListenerWithoutCleanup      MsgCode = "reactivity/event-listener-without-cleanup"
	CodeAsyncBoundaryCrossing       MsgCode = "reactivity/async-boundary-crossing"
	CodeIdentityCompareOnReactive   MsgCode = "reactivity/object-identity-comparison"
	CodeShallowDeepAccess           MsgCode = "reactivity/shallow-reactive-deep-access"
	CodeToRawMutation               MsgCode = "reactivity/toraw-mutation"
)
