package summary

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/ushironoko/vize/internal/jsparse"
	"github.com/ushironoko/vize/internal/script"
	"github.com/ushironoko/vize/internal/tmplast"
)

// Build produces the Summary for one SFC from its script analysis and
// parsed template. Either input may be nil when the corresponding block is
// absent.
func Build(name string, analysis *script.Analysis, scriptContent string, scriptLang jsparse.Lang, root *tmplast.Root) *Summary {
	s := &Summary{
		Name:     name,
		Bindings: tmplast.NewBindingMetadata(),
	}

	module := &Scope{Kind: ScopeModule}
	s.RootScope = module

	if analysis != nil {
		s.Bindings = analysis.Bindings
		s.Macros = analysis.Macros
		s.Props = analysis.Props
		s.Emits = analysis.Emits
		s.EmitCalls = analysis.EmitCalls
		s.Reactivity = analysis.Reactivity
		s.InvalidExports = analysis.InvalidExports
		s.ProvideInject = analysis.ProvideInject
		s.Imports = analysis.Imports

		setup := module.NewChild(ScopeSetup, 0, int32(len(scriptContent)))
		for name, bt := range s.Bindings.Bindings {
			setup.Declare(name, bt, 0)
		}

		analyzeScriptPatterns(s, scriptContent, scriptLang)
	}

	if root != nil {
		b := &templateWalker{s: s, scope: s.RootScope}
		if analysis != nil && len(s.RootScope.Children) > 0 {
			b.scope = s.RootScope.Children[0]
		}

		for _, child := range root.Children {
			if isElementChild(child) {
				s.RootElementCount++
			}
		}
		for _, child := range root.Children {
			b.visit(child)
		}
	}

	return s
}

func isElementChild(node tmplast.Node) bool {
	switch node := node.(type) {
	case *tmplast.Element:
		return true
	case *tmplast.If:
		if len(node.Branches) > 0 {
			for _, c := range node.Branches[0].Children {
				if isElementChild(c) {
					return true
				}
			}
		}
		return false
	case *tmplast.For:
		return true
	}
	return false
}

type templateWalker struct {
	s     *Summary
	scope *Scope
}

func (b *templateWalker) visit(node tmplast.Node) {
	switch node := node.(type) {
	case *tmplast.Element:
		b.visitElement(node)

	case *tmplast.Interpolation:
		b.expression(node.Content, "interpolation")

	case *tmplast.If:
		for _, branch := range node.Branches {
			if branch.Condition != nil {
				b.expression(branch.Condition, "v-if")
			}
			for _, child := range branch.Children {
				b.visit(child)
			}
		}

	case *tmplast.For:
		b.expression(node.Source, "v-for source")

		loop := b.scope.NewChild(ScopeVFor, node.Loc.Start, node.Loc.End)
		for _, alias := range []string{node.ParseResult.Value, node.ParseResult.Key, node.ParseResult.Index} {
			if alias != "" {
				loop.Declare(alias, tmplast.BindingUnknown, node.Loc.Start)
			}
		}
		prev := b.scope
		b.scope = loop
		for _, child := range node.Children {
			b.visit(child)
		}
		b.scope = prev
	}
}

func (b *templateWalker) visitElement(el *tmplast.Element) {
	scope := b.scope

	// v-for on an unlowered element (the summary builder also runs on
	// untransformed trees)
	if dir := el.Directive("for"); dir != nil && dir.Exp != nil {
		loop := b.scope.NewChild(ScopeVFor, el.Loc.Start, el.Loc.End)
		content := tmplast.ExprContent(dir.Exp)
		if parsed, ok := parseForAliases(content); ok {
			for _, alias := range parsed {
				loop.Declare(alias, tmplast.BindingUnknown, dir.Loc.Start)
			}
		}
		scope = loop
	}

	// Slot parameters are visible in the subtree
	if dir := el.Directive("slot"); dir != nil && dir.Exp != nil {
		slot := scope.NewChild(ScopeVSlot, el.Loc.Start, el.Loc.End)
		for _, name := range patternNamesOf(tmplast.ExprContent(dir.Exp)) {
			slot.Declare(name, tmplast.BindingUnknown, dir.Loc.Start)
		}
		scope = slot
	}

	if el.Type == tmplast.ElementComponent {
		b.recordComponentUsage(el)
	}

	prev := b.scope
	b.scope = scope

	for _, p := range el.Props {
		dir, ok := p.(*tmplast.Directive)
		if !ok {
			continue
		}
		if !tmplast.IsBuiltinDirective(dir.Name) {
			b.addDirective(dir.Name)
		}
		switch dir.Name {
		case "slot", "pre", "cloak", "once":
		case "for":
			// The aliases were scoped above; the source is checked here
			if dir.Exp != nil {
				if parsed, ok := splitForSource(tmplast.ExprContent(dir.Exp)); ok {
					b.expressionText(parsed, dir.Exp.ExprLoc().Start, "v-for source")
				}
			}
		case "on":
			if dir.Exp != nil {
				handler := b.scope.NewChild(ScopeEventHandler, dir.Loc.Start, dir.Loc.End)
				handler.Declare("$event", tmplast.BindingGlobalBuiltin, dir.Loc.Start)
				prevScope := b.scope
				b.scope = handler
				b.expression(dir.Exp, "event handler")
				b.scope = prevScope
			}
		default:
			if dir.Exp != nil {
				b.expression(dir.Exp, "v-"+dir.Name)
			}
		}
		if simple, ok := dir.Arg.(*tmplast.SimpleExpr); ok && !simple.IsStatic {
			b.expression(dir.Arg, "dynamic argument")
		}
	}

	for _, child := range el.Children {
		b.visit(child)
	}

	b.scope = prev
}

func (b *templateWalker) addDirective(name string) {
	for _, existing := range b.s.Directives {
		if existing == name {
			return
		}
	}
	b.s.Directives = append(b.s.Directives, name)
}

func (b *templateWalker) recordComponentUsage(el *tmplast.Element) {
	usage := ComponentUsage{Name: el.Tag, Offset: el.Loc.Start}
	for _, p := range el.Props {
		switch p := p.(type) {
		case *tmplast.Attribute:
			usage.Props = append(usage.Props, UsedProp{Name: p.Name})
		case *tmplast.Directive:
			switch p.Name {
			case "bind":
				if arg, static := p.ArgIsStatic(); static {
					usage.Props = append(usage.Props, UsedProp{Name: arg, Dynamic: true})
				}
			case "on":
				if arg, static := p.ArgIsStatic(); static {
					usage.Events = append(usage.Events, arg)
				}
			case "model":
				name := "modelValue"
				if arg, static := p.ArgIsStatic(); static {
					name = arg
				}
				usage.Props = append(usage.Props, UsedProp{Name: name, Dynamic: true})
				usage.Events = append(usage.Events, "update:"+name)
			}
		}
	}
	b.s.Components = append(b.s.Components, usage)
}

func (b *templateWalker) expression(exp tmplast.Expr, context string) {
	simple, ok := exp.(*tmplast.SimpleExpr)
	if !ok || simple.IsStatic || simple.Content == "" {
		return
	}
	b.expressionText(simple.Content, simple.Loc.Start, context)
}

func (b *templateWalker) expressionText(content string, offset int32, context string) {
	b.s.TemplateExprs = append(b.s.TemplateExprs, TemplateExpr{Content: content, Offset: offset})

	for _, ref := range extractReferences(content) {
		if jsparse.IsGlobalAllowed(ref.name) {
			continue
		}
		if b.scope.Lookup(ref.name) != nil {
			continue
		}
		if b.s.Bindings.Has(ref.name) {
			continue
		}
		b.s.UndefinedRefs = append(b.s.UndefinedRefs, UndefinedRef{
			Name:    ref.name,
			Offset:  offset + ref.offset,
			Context: context,
		})
	}
}

type reference struct {
	name   string
	offset int32
}

// extractReferences parses the expression and collects free identifier
// references, skipping local scopes introduced by arrows and destructures.
func extractReferences(content string) []reference {
	tree, expr, ok := jsparse.ParseExpression(content, jsparse.LangJS)
	if !ok {
		return nil
	}
	defer tree.Close()

	var refs []reference
	scope := map[string]int{}
	collectReferences(expr, tree.Source, scope, &refs)
	return refs
}

func collectReferences(n *sitter.Node, source []byte, scope map[string]int, refs *[]reference) {
	switch n.Type() {
	case "identifier":
		name := n.Content(source)
		if scope[name] == 0 {
			*refs = append(*refs, reference{name: name, offset: int32(n.StartByte()) - jsparse.WrapOffset})
		}
		return

	case "member_expression":
		if obj := n.ChildByFieldName("object"); obj != nil {
			collectReferences(obj, source, scope, refs)
		}
		return

	case "pair":
		if key := n.ChildByFieldName("key"); key != nil && key.Type() == "computed_property_name" {
			collectReferences(key, source, scope, refs)
		}
		if value := n.ChildByFieldName("value"); value != nil {
			collectReferences(value, source, scope, refs)
		}
		return

	case "arrow_function", "function_expression", "function":
		var names []string
		add := func(name string) {
			names = append(names, name)
			scope[name]++
		}
		if p := n.ChildByFieldName("parameters"); p != nil {
			jsparse.CollectPatternNames(p, source, add)
		}
		if p := n.ChildByFieldName("parameter"); p != nil {
			jsparse.CollectPatternNames(p, source, add)
		}
		if body := n.ChildByFieldName("body"); body != nil {
			collectReferences(body, source, scope, refs)
		}
		for _, name := range names {
			if scope[name] > 1 {
				scope[name]--
			} else {
				delete(scope, name)
			}
		}
		return

	case "string", "number", "regex", "property_identifier", "comment":
		return
	}

	count := int(n.NamedChildCount())
	for i := 0; i < count; i++ {
		collectReferences(n.NamedChild(i), source, scope, refs)
	}
}

func patternNamesOf(src string) []string {
	var names []string
	wrapped := src
	if len(wrapped) > 0 && wrapped[0] != '(' {
		wrapped = "(" + wrapped + ")"
	}
	tree, expr, ok := jsparse.ParseExpression(wrapped+" => 0", jsparse.LangJS)
	if !ok {
		return nil
	}
	defer tree.Close()
	if expr.Type() == "arrow_function" {
		if params := expr.ChildByFieldName("parameters"); params != nil {
			jsparse.CollectPatternNames(params, tree.Source, func(name string) {
				names = append(names, name)
			})
		}
	}
	return names
}

// parseForAliases extracts the alias names of a raw v-for expression.
func parseForAliases(content string) ([]string, bool) {
	aliasPart, ok := splitForAlias(content)
	if !ok {
		return nil, false
	}
	return patternNamesOf(aliasPart), true
}

func splitForAlias(content string) (string, bool) {
	if idx := indexOfSeparator(content); idx >= 0 {
		return trimParens(content[:idx]), true
	}
	return "", false
}

func splitForSource(content string) (string, bool) {
	if idx := indexOfSeparator(content); idx >= 0 {
		sep := 4
		return content[idx+sep:], true
	}
	return "", false
}

func indexOfSeparator(content string) int {
	if idx := strings.Index(content, " in "); idx >= 0 {
		return idx
	}
	return strings.Index(content, " of ")
}

func trimParens(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '(' && s[len(s)-1] == ')' {
		return s[1 : len(s)-1]
	}
	return s
}
