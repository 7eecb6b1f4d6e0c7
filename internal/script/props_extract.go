package script

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/ushironoko/vize/internal/tmplast"
)

// collectProps fills the prop table from a defineProps call: runtime array
// form, runtime object form, or the type-argument form.
func (w *scriptWalker) collectProps(call *sitter.Node) {
	mc := w.a.Macros.DefineProps

	switch {
	case mc.TypeArgs != "":
		body := mc.TypeArgs
		// A named type argument refers to an interface or alias declared in
		// the same script
		if isPlainTypeName(body) {
			if resolved, ok := w.typeBodies[body]; ok {
				body = resolved
			}
		}
		for _, member := range splitTopLevel(strings.Trim(strings.TrimSpace(body), "{}"), ";,") {
			name, rest, found := strings.Cut(member, ":")
			if !found {
				continue
			}
			name = strings.TrimSpace(name)
			optional := strings.HasSuffix(name, "?")
			name = strings.TrimSuffix(name, "?")
			if name == "" || !isPlainTypeName(name) {
				continue
			}
			tsType := strings.TrimSpace(rest)
			w.addProp(PropDecl{
				Name:     name,
				JSType:   tsTypeToJSType(tsType),
				TSType:   tsType,
				Required: !optional,
			})
		}

	case strings.HasPrefix(mc.Args, "["):
		inner := strings.Trim(mc.Args, "[]")
		for _, part := range splitTopLevel(inner, ",") {
			name := strings.Trim(strings.TrimSpace(part), "'\"")
			if name != "" {
				w.addProp(PropDecl{Name: name})
			}
		}

	case strings.HasPrefix(mc.Args, "{"):
		inner := strings.TrimSpace(mc.Args)
		inner = strings.TrimPrefix(inner, "{")
		inner = strings.TrimSuffix(inner, "}")
		for _, pair := range splitTopLevel(inner, ",") {
			name, options, found := strings.Cut(pair, ":")
			if !found {
				name = pair
			}
			name = strings.Trim(strings.TrimSpace(name), "'\"")
			if name == "" {
				continue
			}
			// The runtime options object carries requiredness verbatim
			required := strings.Contains(options, "required: true") ||
				strings.Contains(options, "required:true")
			w.addProp(PropDecl{Name: name, Required: required})
		}
	}
}

func (w *scriptWalker) addProp(prop PropDecl) {
	for _, existing := range w.a.Props {
		if existing.Name == prop.Name {
			return
		}
	}
	w.a.Props = append(w.a.Props, prop)
	w.addBinding(prop.Name, tmplast.BindingProps)
}

// applyWithDefaults attaches the defaults object of
// withDefaults(defineProps<T>(), { ... }) to the collected props.
func (w *scriptWalker) applyWithDefaults(call *sitter.Node) {
	args := call.ChildByFieldName("arguments")
	if args == nil {
		return
	}
	var defaultsNode *sitter.Node
	count := int(args.NamedChildCount())
	for i := 0; i < count; i++ {
		arg := args.NamedChild(i)
		if arg.Type() == "object" {
			defaultsNode = arg
			break
		}
	}
	if defaultsNode == nil {
		return
	}

	pairs := int(defaultsNode.NamedChildCount())
	for i := 0; i < pairs; i++ {
		pair := defaultsNode.NamedChild(i)
		if pair.Type() != "pair" {
			continue
		}
		key := pair.ChildByFieldName("key")
		value := pair.ChildByFieldName("value")
		if key == nil || value == nil {
			continue
		}
		name := strings.Trim(w.text(key), "'\"")
		for j := range w.a.Props {
			if w.a.Props[j].Name == name {
				w.a.Props[j].Default = w.text(value)
				w.a.Props[j].Required = false
			}
		}
	}
}

// collectEmits derives the declared emit names from either the runtime
// array form or the type form (call signatures or the mapped shorthand).
func (w *scriptWalker) collectEmits(call *sitter.Node) {
	mc := w.a.Macros.DefineEmits

	addEmit := func(name string) {
		for _, existing := range w.a.Emits {
			if existing == name {
				return
			}
		}
		w.a.Emits = append(w.a.Emits, name)
	}

	if strings.HasPrefix(mc.Args, "[") {
		inner := strings.Trim(mc.Args, "[]")
		for _, part := range splitTopLevel(inner, ",") {
			name := strings.Trim(strings.TrimSpace(part), "'\"")
			if name != "" {
				addEmit(name)
			}
		}
		return
	}

	if mc.TypeArgs == "" {
		return
	}

	body := strings.TrimSpace(mc.TypeArgs)
	body = strings.TrimPrefix(body, "{")
	body = strings.TrimSuffix(body, "}")

	for _, member := range splitTopLevel(body, ";,") {
		member = strings.TrimSpace(member)
		if member == "" {
			continue
		}
		if strings.HasPrefix(member, "(") {
			// Call signature: (e: 'click', id: number): void
			if start := strings.IndexAny(member, "'\""); start >= 0 {
				quote := member[start]
				if end := strings.IndexByte(member[start+1:], quote); end >= 0 {
					addEmit(member[start+1 : start+1+end])
				}
			}
			continue
		}
		// Mapped shorthand: click: [id: number]
		if name, _, found := strings.Cut(member, ":"); found {
			name = strings.Trim(strings.TrimSpace(name), "'\"")
			name = strings.TrimSuffix(name, "?")
			if name != "" {
				addEmit(name)
			}
		}
	}
}

// splitTopLevel splits on any of the separator bytes, ignoring separators
// nested inside brackets, generics, or string literals.
func splitTopLevel(s string, seps string) []string {
	var parts []string
	depth := 0
	var quote byte
	start := 0

	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			if c == quote && (i == 0 || s[i-1] != '\\') {
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"', '`':
			quote = c
		case '{', '[', '(', '<':
			depth++
		case '}', ']', ')':
			depth--
		case '>':
			// "=>" is an arrow, not a closing generic bracket
			if i == 0 || s[i-1] != '=' {
				depth--
			}
		default:
			if depth == 0 && strings.IndexByte(seps, c) >= 0 {
				if part := strings.TrimSpace(s[start:i]); part != "" {
					parts = append(parts, part)
				}
				start = i + 1
			}
		}
	}
	if part := strings.TrimSpace(s[start:]); part != "" {
		parts = append(parts, part)
	}
	return parts
}

func isPlainTypeName(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c == '_', c == '$':
		case c >= '0' && c <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// tsTypeToJSType maps a TypeScript member type to the runtime constructor
// used in the emitted props record. The mapping is syntactic only.
func tsTypeToJSType(tsType string) string {
	t := strings.TrimSpace(tsType)

	// A union collapses to its first usable member
	if parts := splitTopLevel(t, "|"); len(parts) > 1 {
		for _, part := range parts {
			part = strings.TrimSpace(part)
			if part == "null" || part == "undefined" {
				continue
			}
			t = part
			break
		}
	}

	switch {
	case t == "string" || strings.HasPrefix(t, "'") || strings.HasPrefix(t, "\""):
		return "String"
	case t == "number" || t == "bigint":
		return "Number"
	case t == "boolean":
		return "Boolean"
	case strings.HasSuffix(t, "[]"), strings.HasPrefix(t, "Array<"), strings.HasPrefix(t, "ReadonlyArray<"):
		return "Array"
	case strings.HasPrefix(t, "() =>"), strings.HasPrefix(t, "("), t == "Function":
		return "Function"
	case t == "any", t == "unknown", t == "null", t == "undefined", t == "":
		return "null"
	case t == "object", strings.HasPrefix(t, "{"), strings.HasPrefix(t, "Record<"):
		return "Object"
	case t == "symbol":
		return "Symbol"
	default:
		// Named types are forwarded as opaque; Object is the safe runtime
		// constructor
		return "Object"
	}
}
