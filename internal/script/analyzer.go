// Package script analyzes <script setup> blocks: binding extraction, macro
// detection, reactive-source tracking, props destructure handling, and the
// final module assembly for compiled SFCs.
package script

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/ushironoko/vize/internal/jsparse"
	"github.com/ushironoko/vize/internal/logger"
	"github.com/ushironoko/vize/internal/tmplast"
)

// Macro names recognized at the top level of <script setup>. They are
// compile-time only and emit no runtime call.
var macroNames = map[string]bool{
	"defineProps":   true,
	"defineEmits":   true,
	"defineExpose":  true,
	"defineOptions": true,
	"defineSlots":   true,
	"defineModel":   true,
	"withDefaults":  true,
}

// MacroCall records one recognized macro invocation.
type MacroCall struct {
	Name string

	// Byte span of the whole call within the script content
	Start int32
	End   int32

	// Raw argument source, excluding the parentheses
	Args string

	// Raw type-argument source for defineProps<T>() style calls
	TypeArgs string

	// Local identifier when the result was bound, "" otherwise
	BindingName string

	// Span of the whole declaration statement, for removal during
	// compilation
	StmtStart int32
	StmtEnd   int32
}

// PropDecl is one prop derived from defineProps (runtime or type form).
type PropDecl struct {
	Name     string
	JSType   string // String, Number, Boolean, Array, Object, Function, or ""
	TSType   string // original TypeScript type text, "" for runtime form
	Required bool
	Default  string // default expression from withDefaults or destructure
}

// ReactiveSource tracks where reactive state is created, for the summary
// builder and the cross-file checks.
type ReactiveSource struct {
	Name  string
	Kind  string // "ref", "reactive", "computed", "shallowRef", ...
	Start int32
	End   int32
}

// InvalidExport is a type-level declaration that templates cannot
// reference at runtime.
type InvalidExport struct {
	Name  string
	Kind  string // "interface", "type", "declare"
	Start int32
	End   int32
}

type ProvideInject struct {
	Key       string
	IsProvide bool
	Start     int32
}

type EmitCall struct {
	Name  string
	Start int32
}

type ImportRecord struct {
	Local  string
	Module string
	Start  int32
	End    int32 // span of the whole import statement
}

type Macros struct {
	DefineProps   *MacroCall
	WithDefaults  *MacroCall
	DefineEmits   *MacroCall
	DefineExpose  *MacroCall
	DefineOptions *MacroCall
	DefineSlots   *MacroCall
	DefineModels  []MacroCall
}

// Analysis is the full product of analyzing one script block.
type Analysis struct {
	Bindings *tmplast.BindingMetadata
	Macros   Macros

	Props []PropDecl

	// Declared emit names from defineEmits plus defineModel updates
	Emits []string

	EmitCalls []EmitCall

	Reactivity     []ReactiveSource
	InvalidExports []InvalidExport
	ProvideInject  []ProvideInject
	Imports        []ImportRecord

	// Statement spans to drop when assembling the compiled module
	removedSpans []span

	// Import statement spans, hoisted verbatim above the export
	importSpans []span

	// Binding names in declaration order, for the deterministic setup
	// return object
	bindingOrder []string

	// True when the tree-sitter parse produced error nodes; destructure
	// rewriting then falls back to text substitution
	parseFailed bool
}

type span struct{ start, end int32 }

// Analyze extracts bindings, macros and reactivity from script-setup
// source. Errors are reported against source with offset added to every
// position, so diagnostics point into the enclosing SFC.
func Analyze(log logger.Log, source *logger.Source, content string, lang jsparse.Lang, offset int32) *Analysis {
	a := &Analysis{
		Bindings: tmplast.NewBindingMetadata(),
	}

	tree, err := jsparse.ParseProgram([]byte(content), lang)
	if err != nil {
		a.parseFailed = true
		return a
	}
	defer tree.Close()

	root := tree.Root()
	if root.HasError() {
		a.parseFailed = true
	}

	w := &scriptWalker{
		log:        log,
		source:     source,
		content:    content,
		tree:       tree,
		offset:     offset,
		a:          a,
		typeBodies: make(map[string]string),
	}

	// Type bodies first, so defineProps<Props>() can resolve forward
	// references
	count := int(root.NamedChildCount())
	for i := 0; i < count; i++ {
		w.collectTypeBody(root.NamedChild(i))
	}
	for i := 0; i < count; i++ {
		w.topLevelStatement(root.NamedChild(i))
	}
	w.checkNestedMacros(root, 0)

	return a
}

type scriptWalker struct {
	log     logger.Log
	source  *logger.Source
	content string
	tree    *jsparse.Tree
	offset  int32
	a       *Analysis

	// Interface and type-alias bodies by name, so defineProps<Props>() can
	// resolve a named type declared in the same script
	typeBodies map[string]string
}

func (w *scriptWalker) text(n *sitter.Node) string {
	return n.Content(w.tree.Source)
}

func (w *scriptWalker) rangeOf(n *sitter.Node) logger.Range {
	return logger.Range{
		Loc: logger.Loc{Start: w.offset + int32(n.StartByte())},
		Len: int32(n.EndByte() - n.StartByte()),
	}
}

func (w *scriptWalker) addBinding(name string, bt tmplast.BindingType) {
	if name == "" {
		return
	}
	if _, seen := w.a.Bindings.Bindings[name]; !seen {
		w.a.bindingOrder = append(w.a.bindingOrder, name)
	}
	w.a.Bindings.Bindings[name] = bt
}

func (w *scriptWalker) markRemoved(n *sitter.Node) {
	w.a.removedSpans = append(w.a.removedSpans, span{int32(n.StartByte()), int32(n.EndByte())})
}

func (w *scriptWalker) topLevelStatement(stmt *sitter.Node) {
	switch stmt.Type() {
	case "import_statement":
		w.importStatement(stmt)

	case "lexical_declaration", "variable_declaration":
		w.variableDeclaration(stmt)

	case "function_declaration", "generator_function_declaration":
		if name := stmt.ChildByFieldName("name"); name != nil {
			w.addBinding(w.text(name), tmplast.BindingSetupConst)
		}

	case "class_declaration":
		if name := stmt.ChildByFieldName("name"); name != nil {
			w.addBinding(w.text(name), tmplast.BindingSetupConst)
		}

	case "interface_declaration":
		w.invalidExport(stmt, "interface")

	case "type_alias_declaration":
		w.invalidExport(stmt, "type")

	case "ambient_declaration":
		w.a.InvalidExports = append(w.a.InvalidExports, InvalidExport{
			Kind:  "declare",
			Start: w.offset + int32(stmt.StartByte()),
			End:   w.offset + int32(stmt.EndByte()),
		})
		w.markRemoved(stmt)

	case "expression_statement":
		expr := stmt.NamedChild(0)
		if expr == nil {
			return
		}
		if expr.Type() == "call_expression" {
			w.topLevelCall(stmt, expr)
		}
	}

	// emit() and provide/inject calls can appear anywhere in the body
	w.scanCalls(stmt)
}

func (w *scriptWalker) collectTypeBody(stmt *sitter.Node) {
	switch stmt.Type() {
	case "interface_declaration":
		name := stmt.ChildByFieldName("name")
		body := stmt.ChildByFieldName("body")
		if name != nil && body != nil {
			w.typeBodies[w.text(name)] = w.text(body)
		}
	case "type_alias_declaration":
		name := stmt.ChildByFieldName("name")
		value := stmt.ChildByFieldName("value")
		if name != nil && value != nil {
			w.typeBodies[w.text(name)] = w.text(value)
		}
	}
}

func (w *scriptWalker) invalidExport(stmt *sitter.Node, kind string) {
	name := ""
	if n := stmt.ChildByFieldName("name"); n != nil {
		name = w.text(n)
	}
	w.a.InvalidExports = append(w.a.InvalidExports, InvalidExport{
		Name:  name,
		Kind:  kind,
		Start: w.offset + int32(stmt.StartByte()),
		End:   w.offset + int32(stmt.EndByte()),
	})
}

func (w *scriptWalker) importStatement(stmt *sitter.Node) {
	// The whole statement is hoisted above the export during compilation
	w.a.importSpans = append(w.a.importSpans, span{int32(stmt.StartByte()), int32(stmt.EndByte())})

	moduleName := ""
	if src := stmt.ChildByFieldName("source"); src != nil {
		moduleName = strings.Trim(w.text(src), "'\"")
	}

	record := func(local string) {
		w.addBinding(local, tmplast.BindingExternalModule)
		w.a.Imports = append(w.a.Imports, ImportRecord{
			Local:  local,
			Module: moduleName,
			Start:  w.offset + int32(stmt.StartByte()),
			End:    w.offset + int32(stmt.EndByte()),
		})
	}

	// "import type { ... }" binds nothing a template can use
	if isTypeOnlyImport(stmt, w.tree.Source) {
		return
	}

	count := int(stmt.NamedChildCount())
	for i := 0; i < count; i++ {
		child := stmt.NamedChild(i)
		if child.Type() != "import_clause" {
			continue
		}
		clauseCount := int(child.NamedChildCount())
		for j := 0; j < clauseCount; j++ {
			part := child.NamedChild(j)
			switch part.Type() {
			case "identifier":
				record(w.text(part))
			case "namespace_import":
				if id := part.NamedChild(0); id != nil {
					record(w.text(id))
				}
			case "named_imports":
				specCount := int(part.NamedChildCount())
				for k := 0; k < specCount; k++ {
					spec := part.NamedChild(k)
					if spec.Type() != "import_specifier" {
						continue
					}
					if isTypeOnlySpecifier(spec, w.tree.Source) {
						continue
					}
					local := spec.ChildByFieldName("alias")
					if local == nil {
						local = spec.ChildByFieldName("name")
					}
					if local != nil {
						record(w.text(local))
					}
				}
			}
		}
	}
}

func isTypeOnlyImport(stmt *sitter.Node, source []byte) bool {
	count := int(stmt.ChildCount())
	for i := 0; i < count; i++ {
		child := stmt.Child(i)
		if child.Type() == "import" {
			continue
		}
		return string(source[child.StartByte():child.EndByte()]) == "type" ||
			child.Type() == "type"
	}
	return false
}

func isTypeOnlySpecifier(spec *sitter.Node, source []byte) bool {
	if first := spec.Child(0); first != nil {
		text := string(source[first.StartByte():first.EndByte()])
		return text == "type"
	}
	return false
}

func (w *scriptWalker) variableDeclaration(stmt *sitter.Node) {
	isLet := false
	if first := stmt.Child(0); first != nil {
		kind := first.Type()
		isLet = kind == "let" || kind == "var"
	}

	count := int(stmt.NamedChildCount())
	for i := 0; i < count; i++ {
		declarator := stmt.NamedChild(i)
		if declarator.Type() != "variable_declarator" {
			continue
		}

		name := declarator.ChildByFieldName("name")
		value := declarator.ChildByFieldName("value")
		if name == nil {
			continue
		}

		switch name.Type() {
		case "identifier":
			w.classifyBinding(stmt, w.text(name), value, isLet)

		case "object_pattern":
			if value != nil && isPropsMacroCall(value, w.tree.Source) {
				w.propsDestructure(stmt, name, value, isLet)
				continue
			}
			w.patternBinding(name, isLet)

		case "array_pattern":
			if value != nil && isPropsMacroCall(value, w.tree.Source) {
				w.log.AddError(logger.CodeDestructureWrongMacro, w.source, w.rangeOf(name),
					"defineProps can only be destructured with an object pattern")
			}
			w.patternBinding(name, isLet)
		}
	}
}

func (w *scriptWalker) patternBinding(pattern *sitter.Node, isLet bool) {
	jsparse.CollectPatternNames(pattern, w.tree.Source, func(name string) {
		if isLet {
			w.addBinding(name, tmplast.BindingSetupLet)
		} else {
			// A const destructured off an arbitrary object may hold a ref
			w.addBinding(name, tmplast.BindingSetupMaybeRef)
		}
	})
}

// classifyBinding implements the origin table for a plain identifier
// declaration.
func (w *scriptWalker) classifyBinding(stmt *sitter.Node, name string, value *sitter.Node, isLet bool) {
	if isLet {
		w.addBinding(name, tmplast.BindingSetupLet)
		return
	}
	if value == nil {
		w.addBinding(name, tmplast.BindingSetupConst)
		return
	}

	switch value.Type() {
	case "call_expression":
		callee := value.ChildByFieldName("function")
		if callee == nil || callee.Type() != "identifier" {
			w.addBinding(name, tmplast.BindingSetupMaybeRef)
			return
		}
		calleeName := w.text(callee)

		if macroNames[calleeName] {
			w.recordMacro(stmt, value, calleeName, name)
			switch calleeName {
			case "defineProps", "withDefaults":
				w.addBinding(name, tmplast.BindingSetupReactiveConst)
			default:
				w.addBinding(name, tmplast.BindingSetupConst)
			}
			return
		}

		switch calleeName {
		case "ref", "shallowRef", "computed", "customRef":
			w.addBinding(name, tmplast.BindingSetupRef)
			w.addReactiveSource(name, calleeName, value)
		case "reactive", "shallowReactive", "readonly":
			w.addBinding(name, tmplast.BindingSetupReactiveConst)
			w.addReactiveSource(name, calleeName, value)
		case "toRef", "toRefs":
			w.addBinding(name, tmplast.BindingSetupMaybeRef)
			w.addReactiveSource(name, calleeName, value)
		default:
			// An unknown call may return anything, including a ref
			w.addBinding(name, tmplast.BindingSetupMaybeRef)
		}

	case "string", "number", "true", "false", "null", "undefined", "regex":
		w.addBinding(name, tmplast.BindingLiteralConst)

	case "template_string":
		if int(value.NamedChildCount()) == 0 {
			w.addBinding(name, tmplast.BindingLiteralConst)
		} else {
			w.addBinding(name, tmplast.BindingSetupConst)
		}

	case "arrow_function", "function_expression", "function", "class":
		w.addBinding(name, tmplast.BindingSetupConst)

	default:
		w.addBinding(name, tmplast.BindingSetupConst)
	}
}

func (w *scriptWalker) addReactiveSource(name string, kind string, node *sitter.Node) {
	w.a.Reactivity = append(w.a.Reactivity, ReactiveSource{
		Name:  name,
		Kind:  kind,
		Start: w.offset + int32(node.StartByte()),
		End:   w.offset + int32(node.EndByte()),
	})
}

// isPropsMacroCall recognizes defineProps(...) and
// withDefaults(defineProps...(), {...}) initializers.
func isPropsMacroCall(value *sitter.Node, source []byte) bool {
	if value.Type() != "call_expression" {
		return false
	}
	callee := value.ChildByFieldName("function")
	if callee == nil {
		return false
	}
	text := string(source[callee.StartByte():callee.EndByte()])
	return text == "defineProps" || text == "withDefaults"
}

func (w *scriptWalker) topLevelCall(stmt *sitter.Node, call *sitter.Node) {
	callee := call.ChildByFieldName("function")
	if callee == nil || callee.Type() != "identifier" {
		return
	}
	name := w.text(callee)
	if macroNames[name] {
		w.recordMacro(stmt, call, name, "")
	}
}

// recordMacro registers one macro call, handling the compound
// withDefaults(defineProps<T>(), defaults) by registering the inner
// defineProps and attaching the defaults.
func (w *scriptWalker) recordMacro(stmt *sitter.Node, call *sitter.Node, name string, bindingName string) {
	mc := MacroCall{
		Name:        name,
		Start:       w.offset + int32(call.StartByte()),
		End:         w.offset + int32(call.EndByte()),
		Args:        w.callArgs(call),
		TypeArgs:    w.callTypeArgs(call),
		BindingName: bindingName,
		StmtStart:   int32(stmt.StartByte()),
		StmtEnd:     int32(stmt.EndByte()),
	}

	switch name {
	case "defineProps":
		if w.a.Macros.DefineProps != nil {
			w.log.AddError(logger.CodeDuplicateDefineProps, w.source, w.rangeOf(call),
				"defineProps can only be called once")
			return
		}
		w.a.Macros.DefineProps = &mc
		w.markRemoved(stmt)
		w.collectProps(call)

	case "withDefaults":
		w.a.Macros.WithDefaults = &mc
		// Register the inner defineProps; the defaults object is the
		// second argument
		if inner := firstArgCall(call, w.tree.Source, "defineProps"); inner != nil {
			w.recordMacro(stmt, inner, "defineProps", bindingName)
			w.applyWithDefaults(call)
		}

	case "defineEmits":
		if w.a.Macros.DefineEmits != nil {
			w.log.AddError(logger.CodeDuplicateDefineEmits, w.source, w.rangeOf(call),
				"defineEmits can only be called once")
			return
		}
		w.a.Macros.DefineEmits = &mc
		w.markRemoved(stmt)
		w.collectEmits(call)

	case "defineExpose":
		w.a.Macros.DefineExpose = &mc
		w.markRemoved(stmt)

	case "defineOptions":
		w.a.Macros.DefineOptions = &mc
		w.markRemoved(stmt)

	case "defineSlots":
		w.a.Macros.DefineSlots = &mc
		w.markRemoved(stmt)

	case "defineModel":
		w.a.Macros.DefineModels = append(w.a.Macros.DefineModels, mc)
		w.markRemoved(stmt)
		modelName := modelNameFromArgs(mc.Args)
		w.a.Emits = append(w.a.Emits, "update:"+modelName)
	}
}

func (w *scriptWalker) callArgs(call *sitter.Node) string {
	args := call.ChildByFieldName("arguments")
	if args == nil {
		return ""
	}
	text := w.text(args)
	text = strings.TrimPrefix(text, "(")
	text = strings.TrimSuffix(text, ")")
	return strings.TrimSpace(text)
}

func (w *scriptWalker) callTypeArgs(call *sitter.Node) string {
	typeArgs := call.ChildByFieldName("type_arguments")
	if typeArgs == nil {
		return ""
	}
	text := w.text(typeArgs)
	text = strings.TrimPrefix(text, "<")
	text = strings.TrimSuffix(text, ">")
	return strings.TrimSpace(text)
}

func firstArgCall(call *sitter.Node, source []byte, calleeName string) *sitter.Node {
	args := call.ChildByFieldName("arguments")
	if args == nil {
		return nil
	}
	count := int(args.NamedChildCount())
	for i := 0; i < count; i++ {
		arg := args.NamedChild(i)
		if arg.Type() == "call_expression" {
			callee := arg.ChildByFieldName("function")
			if callee != nil && string(source[callee.StartByte():callee.EndByte()]) == calleeName {
				return arg
			}
		}
	}
	return nil
}

func modelNameFromArgs(args string) string {
	args = strings.TrimSpace(args)
	if strings.HasPrefix(args, "'") || strings.HasPrefix(args, "\"") {
		quote := args[0]
		if end := strings.IndexByte(args[1:], quote); end >= 0 {
			return args[1 : 1+end]
		}
	}
	return "modelValue"
}

// checkNestedMacros reports macro calls that are not top-level statements.
// A macro call is valid when the path from it up to the program node only
// crosses declaration plumbing (and the withDefaults wrapper).
func (w *scriptWalker) checkNestedMacros(n *sitter.Node, _ int) {
	jsparse.VisitNamed(n, func(node *sitter.Node) bool {
		if node.Type() != "call_expression" {
			return true
		}
		callee := node.ChildByFieldName("function")
		if callee == nil || callee.Type() != "identifier" {
			return true
		}
		name := w.text(callee)
		if !macroNames[name] {
			return true
		}
		if !w.isTopLevelMacro(node) {
			w.log.AddError(logger.CodeMacroOutsideTopLevel, w.source, w.rangeOf(node),
				name+" can only be used at the top level of <script setup>")
		}
		return true
	})
}

func (w *scriptWalker) isTopLevelMacro(call *sitter.Node) bool {
	for p := call.Parent(); p != nil; p = p.Parent() {
		switch p.Type() {
		case "program":
			return true
		case "expression_statement", "variable_declarator",
			"lexical_declaration", "variable_declaration",
			"parenthesized_expression", "arguments":
			// Declaration plumbing between the call and the program
		case "call_expression":
			// Only the withDefaults wrapper may enclose a macro call
			callee := p.ChildByFieldName("function")
			if callee == nil || w.text(callee) != "withDefaults" {
				return false
			}
		default:
			return false
		}
	}
	return false
}

// scanCalls looks for emit calls and provide/inject registrations anywhere
// inside the statement.
func (w *scriptWalker) scanCalls(stmt *sitter.Node) {
	emitName := ""
	if w.a.Macros.DefineEmits != nil {
		emitName = w.a.Macros.DefineEmits.BindingName
	}

	jsparse.VisitNamed(stmt, func(n *sitter.Node) bool {
		if n.Type() != "call_expression" {
			return true
		}
		callee := n.ChildByFieldName("function")
		if callee == nil || callee.Type() != "identifier" {
			return true
		}
		name := w.text(callee)

		switch {
		case name == "provide" || name == "inject":
			if key, ok := w.firstStringArg(n); ok {
				w.a.ProvideInject = append(w.a.ProvideInject, ProvideInject{
					Key:       key,
					IsProvide: name == "provide",
					Start:     w.offset + int32(n.StartByte()),
				})
			}

		case name == "emit" || (emitName != "" && name == emitName):
			if event, ok := w.firstStringArg(n); ok {
				w.a.EmitCalls = append(w.a.EmitCalls, EmitCall{
					Name:  event,
					Start: w.offset + int32(n.StartByte()),
				})
			}
		}
		return true
	})
}

func (w *scriptWalker) firstStringArg(call *sitter.Node) (string, bool) {
	args := call.ChildByFieldName("arguments")
	if args == nil {
		return "", false
	}
	first := args.NamedChild(0)
	if first == nil || first.Type() != "string" {
		return "", false
	}
	return strings.Trim(w.text(first), "'\""), true
}
