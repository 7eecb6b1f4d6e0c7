// Package jsparse wraps the external JavaScript/TypeScript parser behind a
// narrow facade. The rest of the compiler treats it as a black box that
// turns source text into a typed syntax tree with byte spans; nothing
// outside this package imports tree-sitter directly.
package jsparse

import (
	"context"
	"fmt"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

type Lang uint8

const (
	LangJS Lang = iota
	LangTS
)

func (l Lang) grammar() *sitter.Language {
	if l == LangTS {
		return typescript.GetLanguage()
	}
	return javascript.GetLanguage()
}

// Tree owns a parsed syntax tree plus the source bytes it indexes into.
// Callers must Close it when done; the arena does not manage parser memory.
type Tree struct {
	tree   *sitter.Tree
	Source []byte
}

func (t *Tree) Close() {
	if t.tree != nil {
		t.tree.Close()
		t.tree = nil
	}
}

func (t *Tree) Root() *sitter.Node {
	return t.tree.RootNode()
}

func (t *Tree) Text(n *sitter.Node) string {
	return n.Content(t.Source)
}

// ParseProgram parses a whole script block.
func ParseProgram(source []byte, lang Lang) (*Tree, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(lang.grammar())
	tree, err := parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return nil, fmt.Errorf("parse script: %w", err)
	}
	return &Tree{tree: tree, Source: source}, nil
}

// ParseExpression parses a template expression. The text is wrapped in
// parentheses so fragments like object literals parse as expressions; the
// returned node is the inner expression and its byte spans are offset by
// exactly one (the added "(").
//
// ok is false when the parse produced error nodes; callers fall back to
// conservative handling in that case.
func ParseExpression(content string, lang Lang) (tree *Tree, expr *sitter.Node, ok bool) {
	wrapped := []byte("(" + content + ")")
	t, err := ParseProgram(wrapped, lang)
	if err != nil {
		return nil, nil, false
	}

	root := t.Root()
	if root.HasError() {
		t.Close()
		return nil, nil, false
	}

	// program > expression_statement > parenthesized_expression > expr
	stmt := root.NamedChild(0)
	if stmt == nil || stmt.Type() != "expression_statement" {
		t.Close()
		return nil, nil, false
	}
	paren := stmt.NamedChild(0)
	if paren == nil || paren.Type() != "parenthesized_expression" {
		t.Close()
		return nil, nil, false
	}
	inner := paren.NamedChild(0)
	if inner == nil {
		t.Close()
		return nil, nil, false
	}
	return t, inner, true
}

// WrapOffset is the span adjustment introduced by ParseExpression.
const WrapOffset = 1

// VisitNamed walks named nodes in preorder. Returning false from visit
// skips the node's children.
func VisitNamed(n *sitter.Node, visit func(n *sitter.Node) bool) {
	if n == nil {
		return
	}
	if !visit(n) {
		return
	}
	count := int(n.NamedChildCount())
	for i := 0; i < count; i++ {
		VisitNamed(n.NamedChild(i), visit)
	}
}

// CollectPatternNames adds every identifier bound by a destructuring or
// parameter pattern: plain identifiers, object/array patterns, defaults,
// and rest elements.
func CollectPatternNames(pattern *sitter.Node, source []byte, add func(name string)) {
	if pattern == nil {
		return
	}
	switch pattern.Type() {
	case "identifier", "shorthand_property_identifier_pattern":
		add(pattern.Content(source))
	case "object_pattern", "array_pattern", "formal_parameters":
		count := int(pattern.NamedChildCount())
		for i := 0; i < count; i++ {
			CollectPatternNames(pattern.NamedChild(i), source, add)
		}
	case "pair_pattern":
		CollectPatternNames(pattern.ChildByFieldName("value"), source, add)
	case "assignment_pattern", "object_assignment_pattern":
		CollectPatternNames(pattern.ChildByFieldName("left"), source, add)
	case "rest_pattern":
		count := int(pattern.NamedChildCount())
		for i := 0; i < count; i++ {
			CollectPatternNames(pattern.NamedChild(i), source, add)
		}
	case "required_parameter", "optional_parameter":
		CollectPatternNames(pattern.ChildByFieldName("pattern"), source, add)
	}
}

// NeedsTypeStripping is a cheap pre-check for TypeScript syntax inside an
// expression: "as" assertions, arrow parameter annotations, type arguments,
// and non-null assertions. Expressions that pass this check skip the TS
// parse entirely.
func NeedsTypeStripping(content string) bool {
	if strings.Contains(content, " as ") || strings.Contains(content, " satisfies ") {
		return true
	}

	// Arrow parameter annotations: "(x: T) =>"
	if strings.Contains(content, "=>") {
		inParen := false
		afterIdent := false
		for i := 0; i < len(content); i++ {
			switch c := content[i]; {
			case c == '(':
				inParen = true
				afterIdent = false
			case c == ')':
				inParen = false
				afterIdent = false
			case c == ':' && inParen && afterIdent:
				if i+1 >= len(content) || content[i+1] != ':' {
					return true
				}
			case (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') ||
				(c >= '0' && c <= '9') || c == '_' || c == '$':
				afterIdent = true
			case c == ' ' || c == '\t':
				// Whitespace doesn't reset afterIdent
			case c == ',':
				afterIdent = false
			default:
				afterIdent = false
			}
		}
	}

	// Type arguments: "<" directly after an identifier, as in "fn<T>(x)"
	for i := 1; i < len(content); i++ {
		prev := content[i-1]
		if content[i] == '<' && ((prev >= 'a' && prev <= 'z') || (prev >= 'A' && prev <= 'Z') ||
			(prev >= '0' && prev <= '9') || prev == '_' || prev == '$') {
			return true
		}
	}

	// Non-null assertion: "!" after an identifier, ")" or "]". Logical NOT
	// comes before an expression, never after one.
	for i := 1; i < len(content); i++ {
		if content[i] != '!' {
			continue
		}
		// "!=" and "!==" are comparisons
		if i+1 < len(content) && content[i+1] == '=' {
			continue
		}
		prev := content[i-1]
		if (prev >= 'a' && prev <= 'z') || (prev >= 'A' && prev <= 'Z') ||
			(prev >= '0' && prev <= '9') || prev == '_' || prev == '$' ||
			prev == ')' || prev == ']' {
			return true
		}
	}

	return false
}

// StripTypes removes TypeScript-only syntax from an expression, returning
// plain JavaScript. The removal is purely syntactic: "x as T" keeps "x",
// "y!" keeps "y", annotations and type arguments disappear. On parse
// failure the input is returned unchanged.
func StripTypes(content string) string {
	if !NeedsTypeStripping(content) {
		return content
	}

	tree, expr, ok := ParseExpression(content, LangTS)
	if !ok {
		return content
	}
	defer tree.Close()

	var deletions []byteSpan
	VisitNamed(expr, func(n *sitter.Node) bool { return visitForDeletion(n, &deletions) })

	if len(deletions) == 0 {
		return content
	}

	sort.Slice(deletions, func(i, j int) bool { return deletions[i].start < deletions[j].start })

	var sb strings.Builder
	sb.Grow(len(content))
	pos := 0
	for _, d := range deletions {
		// Spans are relative to the wrapped source; shift by the paren
		start, end := d.start-WrapOffset, d.end-WrapOffset
		if start < pos {
			continue
		}
		if start > len(content) {
			break
		}
		if end > len(content) {
			end = len(content)
		}
		sb.WriteString(content[pos:start])
		pos = end
	}
	sb.WriteString(content[pos:])
	return strings.TrimSpace(sb.String())
}

type byteSpan struct{ start, end int }

func visitForDeletion(n *sitter.Node, deletions *[]byteSpan) bool {
	switch n.Type() {
	case "as_expression", "satisfies_expression":
		// Keep the value, drop everything from its end to the node end
		if value := n.NamedChild(0); value != nil {
			*deletions = append(*deletions, byteSpan{int(value.EndByte()), int(n.EndByte())})
			VisitNamed(value, func(inner *sitter.Node) bool { return visitForDeletion(inner, deletions) })
			return false
		}
	case "non_null_expression":
		*deletions = append(*deletions, byteSpan{int(n.EndByte()) - 1, int(n.EndByte())})
	case "type_annotation", "type_arguments", "type_parameters":
		*deletions = append(*deletions, byteSpan{int(n.StartByte()), int(n.EndByte())})
		return false
	}
	return true
}
