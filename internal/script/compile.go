package script

import (
	"sort"
	"strings"

	"github.com/ushironoko/vize/internal/helpers"
	"github.com/ushironoko/vize/internal/jsparse"
	"github.com/ushironoko/vize/internal/tmplast"
)

type CompileOptions struct {
	ComponentName string
	IsTS          bool
	Inline        bool
	ScopeID       string
}

// TemplateParts is what the template code generator contributed: the vue
// helper import line, the hoisted constants, and the render body.
type TemplateParts struct {
	Imports    string
	Hoists     string
	RenderBody string
}

type CompileResult struct {
	Code     string
	Bindings *tmplast.BindingMetadata
}

// CompileSetup assembles the compiled SFC module from a script-setup
// analysis plus the generated template parts. The emitted module exports a
// default object with __name, props, emits, setup and (in function mode) a
// render reference.
func CompileSetup(a *Analysis, content string, lang jsparse.Lang, tpl TemplateParts, opts CompileOptions) CompileResult {
	var out strings.Builder

	hasModels := len(a.Macros.DefineModels) > 0
	destructureDefaults := collectDestructureDefaults(a)
	needsMergeDefaults := a.Macros.DefineProps != nil &&
		a.Macros.DefineProps.TypeArgs == "" &&
		a.Macros.DefineProps.Args != "" &&
		len(destructureDefaults) > 0

	// Runtime imports the assembly itself needs come first
	if needsMergeDefaults {
		out.WriteString("import { mergeDefaults as _mergeDefaults } from 'vue'\n")
	}
	if hasModels {
		out.WriteString("import { useModel as _useModel } from 'vue'\n")
	}
	if opts.IsTS {
		out.WriteString("import { defineComponent } from 'vue'\n")
	}

	// Template helper imports
	if tpl.Imports != "" {
		out.WriteString(tpl.Imports)
		out.WriteString("\n")
	}

	// User imports, hoisted verbatim in source order
	for _, sp := range a.importSpans {
		out.WriteString(strings.TrimSpace(content[sp.start:sp.end]))
		out.WriteString("\n")
	}

	// Hoisted template constants
	if tpl.Hoists != "" {
		out.WriteString("\n")
		out.WriteString(tpl.Hoists)
	}

	// Export default opening
	out.WriteString("\n")
	hasOptions := a.Macros.DefineOptions != nil
	switch {
	case hasOptions:
		out.WriteString("export default /*@__PURE__*/Object.assign(")
		out.WriteString(strings.TrimSpace(a.Macros.DefineOptions.Args))
		out.WriteString(", {\n")
	case opts.IsTS:
		out.WriteString("export default defineComponent({\n")
	default:
		out.WriteString("export default {\n")
	}

	out.WriteString("  __name: '")
	out.WriteString(opts.ComponentName)
	out.WriteString("',\n")

	if opts.ScopeID != "" {
		out.WriteString("  __scopeId: ")
		out.WriteString(helpers.QuoteDouble(opts.ScopeID))
		out.WriteString(",\n")
	}

	emitPropsSection(&out, a, needsMergeDefaults, destructureDefaults)
	emitEmitsSection(&out, a)

	// Function mode: the render function is declared after the export as
	// a hoisted function, so the object can name it
	if !opts.Inline && tpl.RenderBody != "" {
		out.WriteString("  render,\n")
	}

	// Setup signature depends on which macros appeared
	hasEmit := a.Macros.DefineEmits != nil
	hasExpose := a.Macros.DefineExpose != nil
	var setupArgs []string
	if hasExpose {
		setupArgs = append(setupArgs, "expose: __expose")
	}
	if hasEmit {
		setupArgs = append(setupArgs, "emit: __emit")
	}

	if len(setupArgs) == 0 {
		out.WriteString("  setup(__props) {\n\n")
	} else {
		out.WriteString("  setup(__props, { ")
		out.WriteString(strings.Join(setupArgs, ", "))
		out.WriteString(" }) {\n\n")
	}

	// Macro result bindings
	if hasEmit && a.Macros.DefineEmits.BindingName != "" {
		out.WriteString("const ")
		out.WriteString(a.Macros.DefineEmits.BindingName)
		out.WriteString(" = __emit\n")
	}
	if a.Macros.DefineProps != nil && a.Macros.DefineProps.BindingName != "" {
		out.WriteString("const ")
		out.WriteString(a.Macros.DefineProps.BindingName)
		out.WriteString(" = __props\n")
	}
	for _, model := range a.Macros.DefineModels {
		binding := model.BindingName
		if binding == "" {
			continue
		}
		out.WriteString("const ")
		out.WriteString(binding)
		out.WriteString(" = _useModel(__props, \"")
		out.WriteString(modelNameFromArgs(model.Args))
		out.WriteString("\")\n")
	}

	// Setup body: the script content minus imports and macro statements,
	// with destructured prop references rewritten
	body := stripSpans(content, append(append([]span{}, a.removedSpans...), a.importSpans...))
	body = RewriteDestructuredProps(body, a.Bindings, lang)
	for _, line := range strings.Split(body, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		out.WriteString(line)
		out.WriteString("\n")
	}

	if hasExpose {
		out.WriteString("__expose(")
		out.WriteString(strings.TrimSpace(a.Macros.DefineExpose.Args))
		out.WriteString(")\n")
	}

	out.WriteString("\n")
	if opts.Inline {
		// The render function closes over the setup scope
		out.WriteString("return (_ctx, _cache) => {\n")
		out.WriteString(tpl.RenderBody)
		out.WriteString("\n}\n")
	} else {
		// Function mode: export the bindings object for $setup access
		out.WriteString("return { ")
		out.WriteString(strings.Join(setupReturnNames(a), ", "))
		out.WriteString(" }\n")
	}

	out.WriteString("}\n")

	if hasOptions || opts.IsTS {
		out.WriteString("})\n")
	} else {
		out.WriteString("}\n")
	}

	return CompileResult{Code: out.String(), Bindings: a.Bindings}
}

func collectDestructureDefaults(a *Analysis) [][2]string {
	var defaults [][2]string
	if a.Bindings == nil {
		return nil
	}
	for _, d := range a.Bindings.Destructured {
		if d.Default != "" {
			defaults = append(defaults, [2]string{d.Key, d.Default})
		}
	}
	return defaults
}

func emitPropsSection(out *strings.Builder, a *Analysis, mergeDefaults bool, defaults [][2]string) {
	mc := a.Macros.DefineProps
	models := a.Macros.DefineModels

	if mc == nil && len(models) == 0 {
		return
	}

	// Runtime-form props forward the user's expression
	if mc != nil && mc.TypeArgs == "" && mc.Args != "" {
		if mergeDefaults {
			out.WriteString("  props: /*@__PURE__*/_mergeDefaults(")
			out.WriteString(mc.Args)
			out.WriteString(", {\n")
			for i, kv := range defaults {
				out.WriteString("    ")
				out.WriteString(kv[0])
				out.WriteString(": ")
				out.WriteString(kv[1])
				if i < len(defaults)-1 {
					out.WriteString(",")
				}
				out.WriteString("\n")
			}
			out.WriteString("  }),\n")
		} else {
			out.WriteString("  props: ")
			out.WriteString(mc.Args)
			out.WriteString(",\n")
		}
		return
	}

	// Type-form props become a full runtime record
	if (mc != nil && len(a.Props) > 0) || len(models) > 0 {
		out.WriteString("  props: {\n")

		sorted := make([]PropDecl, len(a.Props))
		copy(sorted, a.Props)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

		for _, prop := range sorted {
			out.WriteString("    ")
			out.WriteString(prop.Name)
			out.WriteString(": { type: ")
			if prop.JSType != "" {
				out.WriteString(prop.JSType)
			} else {
				out.WriteString("null")
			}
			out.WriteString(", required: ")
			if prop.Required {
				out.WriteString("true")
			} else {
				out.WriteString("false")
			}
			if prop.Default != "" {
				out.WriteString(", default: ")
				out.WriteString(prop.Default)
			}
			out.WriteString(" },\n")
		}

		for _, model := range models {
			name := modelNameFromArgs(model.Args)
			out.WriteString("    ")
			out.WriteString(name)
			out.WriteString(": ")
			if options := modelOptionsFromArgs(model.Args); options != "" {
				out.WriteString(options)
			} else {
				out.WriteString("{}")
			}
			out.WriteString(",\n")
		}

		out.WriteString("  },\n")
	}
}

func modelOptionsFromArgs(args string) string {
	args = strings.TrimSpace(args)
	if strings.HasPrefix(args, "{") {
		return args
	}
	if _, rest, found := strings.Cut(args, ","); found {
		rest = strings.TrimSpace(rest)
		if strings.HasPrefix(rest, "{") {
			return rest
		}
	}
	return ""
}

func emitEmitsSection(out *strings.Builder, a *Analysis) {
	if len(a.Emits) == 0 {
		return
	}
	out.WriteString("  emits: [")
	for i, name := range a.Emits {
		if i > 0 {
			out.WriteString(", ")
		}
		out.WriteString(helpers.QuoteDouble(name))
	}
	out.WriteString("],\n")
}

// setupReturnNames lists the bindings exposed to the render function in
// function mode, in declaration order. Props are read off $props and stay
// out of the object.
func setupReturnNames(a *Analysis) []string {
	var names []string
	for _, name := range a.bindingOrder {
		switch a.Bindings.Bindings[name] {
		case tmplast.BindingProps, tmplast.BindingPropsAliased:
			continue
		}
		names = append(names, name)
	}
	return names
}

// stripSpans removes byte ranges from content, collapsing the holes.
func stripSpans(content string, spans []span) string {
	if len(spans) == 0 {
		return content
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })

	var sb strings.Builder
	sb.Grow(len(content))
	pos := int32(0)
	for _, sp := range spans {
		if sp.start < pos {
			continue
		}
		sb.WriteString(content[pos:sp.start])
		pos = sp.end
		// Swallow the trailing newline of a removed statement
		if int(pos) < len(content) && content[pos] == '\n' {
			pos++
		}
	}
	if int(pos) < len(content) {
		sb.WriteString(content[pos:])
	}
	return sb.String()
}
