package script

import (
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/ushironoko/vize/internal/jsparse"
	"github.com/ushironoko/vize/internal/tmplast"
)

// propsDestructure parses `const { msg, count = 0, old: renamed, ...rest }
// = defineProps(...)` into the ordered destructure table. References to the
// locals in the script body are later rewritten into __props accesses.
func (w *scriptWalker) propsDestructure(stmt *sitter.Node, pattern *sitter.Node, value *sitter.Node, isLet bool) {
	// Register the macro itself
	callee := value.ChildByFieldName("function")
	calleeName := w.text(callee)
	if calleeName == "withDefaults" {
		if inner := firstArgCall(value, w.tree.Source, "defineProps"); inner != nil {
			w.recordMacro(stmt, inner, "defineProps", "")
			w.recordMacro(stmt, value, "withDefaults", "")
			w.applyWithDefaults(value)
		}
	} else {
		w.recordMacro(stmt, value, "defineProps", "")
	}
	_ = isLet

	count := int(pattern.NamedChildCount())
	for i := 0; i < count; i++ {
		prop := pattern.NamedChild(i)
		switch prop.Type() {
		case "shorthand_property_identifier_pattern":
			name := w.text(prop)
			w.addDestructured(name, name, "", false)

		case "pair_pattern":
			key := prop.ChildByFieldName("key")
			val := prop.ChildByFieldName("value")
			if key == nil || val == nil {
				continue
			}
			keyName := strings.Trim(w.text(key), "'\"")
			switch val.Type() {
			case "identifier":
				w.addDestructured(keyName, w.text(val), "", false)
			case "assignment_pattern":
				local := val.ChildByFieldName("left")
				def := val.ChildByFieldName("right")
				if local != nil && def != nil {
					w.addDestructured(keyName, w.text(local), w.text(def), true)
				}
			}

		case "object_assignment_pattern", "assignment_pattern":
			// Shorthand with default: { msg = "hi" }
			local := prop.ChildByFieldName("left")
			def := prop.ChildByFieldName("right")
			if local != nil && def != nil {
				name := w.text(local)
				w.addDestructured(name, name, w.text(def), true)
			}

		case "rest_pattern":
			if id := prop.NamedChild(0); id != nil {
				w.a.Bindings.RestID = w.text(id)
				w.addBinding(w.text(id), tmplast.BindingSetupReactiveConst)
			}
		}
	}
}

func (w *scriptWalker) addDestructured(key string, local string, def string, optional bool) {
	w.a.Bindings.Destructured = append(w.a.Bindings.Destructured, tmplast.DestructuredProp{
		Key:      key,
		Local:    local,
		Default:  def,
		Optional: optional,
	})

	if key == local {
		w.addBinding(local, tmplast.BindingProps)
	} else {
		w.addBinding(local, tmplast.BindingPropsAliased)
	}

	// Merge the pattern default into the prop table entry
	if def != "" {
		for j := range w.a.Props {
			if w.a.Props[j].Name == key {
				w.a.Props[j].Default = def
				w.a.Props[j].Required = false
			}
		}
	}
}

// RewriteDestructuredProps rewrites references to destructured prop locals
// into "__props.<key>" member accesses across the setup body. Shadowed
// references are left alone: function parameters, block-scoped const/let,
// catch parameters, for-of/in bindings, and named function or class
// declarations all shadow. When the source fails to parse, a conservative
// word-boundary text substitution takes over.
func RewriteDestructuredProps(source string, meta *tmplast.BindingMetadata, lang jsparse.Lang) string {
	if meta == nil || len(meta.Destructured) == 0 {
		return source
	}

	localToKey := make(map[string]string, len(meta.Destructured))
	for _, d := range meta.Destructured {
		localToKey[d.Local] = d.Key
	}

	tree, err := jsparse.ParseProgram([]byte(source), lang)
	if err != nil {
		return rewriteTextBased(source, localToKey)
	}
	defer tree.Close()

	root := tree.Root()
	if root.HasError() {
		return rewriteTextBased(source, localToKey)
	}

	r := &destructureRewriter{
		source:     tree.Source,
		localToKey: localToKey,
		scope:      make(map[string]int),
	}
	r.walkStatements(root)

	if len(r.edits) == 0 {
		return source
	}

	sort.Slice(r.edits, func(i, j int) bool { return r.edits[i].start > r.edits[j].start })

	out := source
	for _, e := range r.edits {
		out = out[:e.start] + e.text + out[e.end:]
	}
	return out
}

type destructureEdit struct {
	start, end int
	text       string
}

type destructureRewriter struct {
	source     []byte
	localToKey map[string]string
	scope      map[string]int
	edits      []destructureEdit
}

func (r *destructureRewriter) text(n *sitter.Node) string {
	return n.Content(r.source)
}

func (r *destructureRewriter) propsAccess(local string) string {
	key := r.localToKey[local]
	if isPlainTypeName(key) {
		return "__props." + key
	}
	return `__props["` + key + `"]`
}

// pushScope adds names and returns the undo list.
func (r *destructureRewriter) pushScope(names []string) []string {
	for _, name := range names {
		r.scope[name]++
	}
	return names
}

func (r *destructureRewriter) popScope(names []string) {
	for _, name := range names {
		if r.scope[name] > 1 {
			r.scope[name]--
		} else {
			delete(r.scope, name)
		}
	}
}

// walkStatements processes a statement list, accumulating block-scoped
// declarations as it goes and undoing them when the block ends.
func (r *destructureRewriter) walkStatements(block *sitter.Node) {
	var declared []string
	count := int(block.NamedChildCount())
	for i := 0; i < count; i++ {
		stmt := block.NamedChild(i)
		declared = append(declared, r.walkStatement(stmt)...)
	}
	r.popScope(declared)
}

// walkStatement handles one statement and returns the names it declared in
// the enclosing scope.
func (r *destructureRewriter) walkStatement(stmt *sitter.Node) []string {
	switch stmt.Type() {
	case "lexical_declaration", "variable_declaration":
		var names []string
		count := int(stmt.NamedChildCount())
		for i := 0; i < count; i++ {
			declarator := stmt.NamedChild(i)
			if declarator.Type() != "variable_declarator" {
				continue
			}
			// The initializer still sees the outer bindings
			r.walkExpression(declarator.ChildByFieldName("value"))
			if name := declarator.ChildByFieldName("name"); name != nil {
				jsparse.CollectPatternNames(name, r.source, func(n string) {
					names = append(names, n)
				})
			}
		}
		return r.pushScope(names)

	case "function_declaration", "generator_function_declaration", "class_declaration":
		var outer []string
		if name := stmt.ChildByFieldName("name"); name != nil {
			outer = append(outer, r.text(name))
		}
		r.pushScope(outer)

		var params []string
		if p := stmt.ChildByFieldName("parameters"); p != nil {
			jsparse.CollectPatternNames(p, r.source, func(n string) {
				params = append(params, n)
			})
		}
		r.pushScope(params)
		if body := stmt.ChildByFieldName("body"); body != nil {
			r.walkStatements(body)
		}
		r.popScope(params)
		return outer

	case "statement_block":
		r.walkStatements(stmt)
		return nil

	case "for_in_statement":
		// for (const x of xs) / for (const k in obj)
		var names []string
		if left := stmt.ChildByFieldName("left"); left != nil {
			jsparse.CollectPatternNames(left, r.source, func(n string) {
				names = append(names, n)
			})
		}
		r.walkExpression(stmt.ChildByFieldName("right"))
		r.pushScope(names)
		if body := stmt.ChildByFieldName("body"); body != nil {
			r.walkStatement(body)
		}
		r.popScope(names)
		return nil

	case "for_statement":
		var names []string
		if init := stmt.ChildByFieldName("initializer"); init != nil {
			jsparse.VisitNamed(init, func(n *sitter.Node) bool {
				if n.Type() == "variable_declarator" {
					if name := n.ChildByFieldName("name"); name != nil {
						jsparse.CollectPatternNames(name, r.source, func(s string) {
							names = append(names, s)
						})
					}
					r.walkExpression(n.ChildByFieldName("value"))
					return false
				}
				return true
			})
		}
		r.pushScope(names)
		r.walkExpression(stmt.ChildByFieldName("condition"))
		r.walkExpression(stmt.ChildByFieldName("increment"))
		if body := stmt.ChildByFieldName("body"); body != nil {
			r.walkStatement(body)
		}
		r.popScope(names)
		return nil

	case "try_statement":
		if body := stmt.ChildByFieldName("body"); body != nil {
			r.walkStatements(body)
		}
		count := int(stmt.NamedChildCount())
		for i := 0; i < count; i++ {
			child := stmt.NamedChild(i)
			switch child.Type() {
			case "catch_clause":
				var params []string
				if p := child.ChildByFieldName("parameter"); p != nil {
					jsparse.CollectPatternNames(p, r.source, func(n string) {
						params = append(params, n)
					})
				}
				r.pushScope(params)
				if body := child.ChildByFieldName("body"); body != nil {
					r.walkStatements(body)
				}
				r.popScope(params)
			case "finally_clause":
				if body := child.NamedChild(0); body != nil {
					r.walkStatements(body)
				}
			}
		}
		return nil

	default:
		r.walkExpression(stmt)
		return nil
	}
}

// walkExpression rewrites identifier references inside expressions,
// entering nested functions with their own scope frames.
func (r *destructureRewriter) walkExpression(n *sitter.Node) {
	if n == nil {
		return
	}

	switch n.Type() {
	case "identifier":
		name := r.text(n)
		if r.scope[name] == 0 {
			if _, ok := r.localToKey[name]; ok {
				r.edits = append(r.edits, destructureEdit{
					start: int(n.StartByte()),
					end:   int(n.EndByte()),
					text:  r.propsAccess(name),
				})
			}
		}

	case "member_expression":
		r.walkExpression(n.ChildByFieldName("object"))
		// Property names are not references

	case "subscript_expression":
		r.walkExpression(n.ChildByFieldName("object"))
		r.walkExpression(n.ChildByFieldName("index"))

	case "pair":
		if key := n.ChildByFieldName("key"); key != nil && key.Type() == "computed_property_name" {
			r.walkExpression(key)
		}
		r.walkExpression(n.ChildByFieldName("value"))

	case "shorthand_property_identifier":
		name := r.text(n)
		if r.scope[name] == 0 {
			if _, ok := r.localToKey[name]; ok {
				r.edits = append(r.edits, destructureEdit{
					start: int(n.EndByte()),
					end:   int(n.EndByte()),
					text:  ": " + r.propsAccess(name),
				})
			}
		}

	case "arrow_function", "function_expression", "function":
		var params []string
		if p := n.ChildByFieldName("parameters"); p != nil {
			jsparse.CollectPatternNames(p, r.source, func(s string) {
				params = append(params, s)
			})
		}
		if p := n.ChildByFieldName("parameter"); p != nil {
			jsparse.CollectPatternNames(p, r.source, func(s string) {
				params = append(params, s)
			})
		}
		if name := n.ChildByFieldName("name"); name != nil {
			params = append(params, r.text(name))
		}
		r.pushScope(params)
		if body := n.ChildByFieldName("body"); body != nil {
			if body.Type() == "statement_block" {
				r.walkStatements(body)
			} else {
				r.walkExpression(body)
			}
		}
		r.popScope(params)

	case "template_string":
		count := int(n.NamedChildCount())
		for i := 0; i < count; i++ {
			child := n.NamedChild(i)
			if child.Type() == "template_substitution" {
				innerCount := int(child.NamedChildCount())
				for j := 0; j < innerCount; j++ {
					r.walkExpression(child.NamedChild(j))
				}
			}
		}

	case "string", "number", "regex", "property_identifier", "comment",
		"true", "false", "null", "undefined":
		// Nothing to rewrite

	case "statement_block":
		r.walkStatements(n)

	default:
		count := int(n.NamedChildCount())
		for i := 0; i < count; i++ {
			r.walkExpression(n.NamedChild(i))
		}
	}
}

// rewriteTextBased is the correctness safety net for input the parser
// rejects. It has no scope awareness: locals are sorted by descending
// length and replaced only where neither neighbor is an identifier
// character and the occurrence is not a member access.
func rewriteTextBased(source string, localToKey map[string]string) string {
	locals := make([]string, 0, len(localToKey))
	for local := range localToKey {
		locals = append(locals, local)
	}
	sort.Slice(locals, func(i, j int) bool { return len(locals[i]) > len(locals[j]) })

	for _, local := range locals {
		source = replaceIdentifier(source, local, "__props."+localToKey[local])
	}
	return source
}

func replaceIdentifier(source string, name string, replacement string) string {
	var sb strings.Builder
	sb.Grow(len(source))

	for i := 0; i < len(source); {
		idx := strings.Index(source[i:], name)
		if idx < 0 {
			sb.WriteString(source[i:])
			break
		}
		idx += i

		before := byte(0)
		if idx > 0 {
			before = source[idx-1]
		}
		after := byte(0)
		if idx+len(name) < len(source) {
			after = source[idx+len(name)]
		}

		if isIdentChar(before) || before == '.' || isIdentChar(after) {
			sb.WriteString(source[i : idx+len(name)])
			i = idx + len(name)
			continue
		}

		sb.WriteString(source[i:idx])
		sb.WriteString(replacement)
		i = idx + len(name)
	}

	return sb.String()
}

func isIdentChar(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9') || c == '_' || c == '$'
}
