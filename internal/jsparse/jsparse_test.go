package jsparse

import (
	"testing"

	sitter "github.com/smacker/go-tree-sitter"
)

func TestParseExpression(t *testing.T) {
	tree, expr, ok := ParseExpression("a + b", LangJS)
	if !ok {
		t.Fatal("parse failed")
	}
	defer tree.Close()
	if expr.Type() != "binary_expression" {
		t.Fatalf("got %s", expr.Type())
	}
}

func TestParseExpressionObjectLiteral(t *testing.T) {
	// Without the paren wrapping this would parse as a block statement
	tree, expr, ok := ParseExpression("{ a: 1 }", LangJS)
	if !ok {
		t.Fatal("parse failed")
	}
	defer tree.Close()
	if expr.Type() != "object" {
		t.Fatalf("got %s", expr.Type())
	}
}

func TestParseExpressionReportsErrors(t *testing.T) {
	if _, _, ok := ParseExpression("a +", LangJS); ok {
		t.Fatal("broken input should not parse cleanly")
	}
}

func TestCollectPatternNames(t *testing.T) {
	tree, expr, ok := ParseExpression("({ a, b: c, d = 1, ...rest }) => 0", LangJS)
	if !ok {
		t.Fatal("parse failed")
	}
	defer tree.Close()

	params := expr.ChildByFieldName("parameters")
	var names []string
	CollectPatternNames(params, tree.Source, func(name string) {
		names = append(names, name)
	})

	want := []string{"a", "c", "d", "rest"}
	if len(names) != len(want) {
		t.Fatalf("names = %v", names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("names = %v, want %v", names, want)
		}
	}
}

func TestNeedsTypeStripping(t *testing.T) {
	positive := []string{
		"x as string",
		"(x: number) => x",
		"value!",
		"items![0]",
	}
	negative := []string{
		"a + b",
		"!flag",
		"a != b",
		"a !== b",
		"{ key: value }",
	}
	for _, c := range positive {
		if !NeedsTypeStripping(c) {
			t.Fatalf("%q should need stripping", c)
		}
	}
	for _, c := range negative {
		if NeedsTypeStripping(c) {
			t.Fatalf("%q should not need stripping", c)
		}
	}
}

func TestStripTypes(t *testing.T) {
	cases := map[string]string{
		"x as string":        "x",
		"value!":             "value",
		"(x: number) => x":   "(x) => x",
		"a + b":              "a + b",
		"fn<string>(input)":  "fn(input)",
		"(x as Foo).bar":     "(x).bar",
	}
	for input, want := range cases {
		if got := StripTypes(input); got != want {
			t.Fatalf("StripTypes(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestVisitNamedSkipsChildren(t *testing.T) {
	tree, expr, ok := ParseExpression("f(a, g(b))", LangJS)
	if !ok {
		t.Fatal("parse failed")
	}
	defer tree.Close()

	var idents []string
	VisitNamed(expr, func(n *sitter.Node) bool {
		if n.Type() == "identifier" {
			idents = append(idents, n.Content(tree.Source))
		}
		// Skip nested call arguments
		return n.Type() != "arguments" || n.Parent() == expr
	})
	if len(idents) == 0 {
		t.Fatal("no identifiers visited")
	}
}

func TestGlobalAllowlist(t *testing.T) {
	for _, name := range []string{"Math", "JSON", "console", "$event", "undefined"} {
		if !IsGlobalAllowed(name) {
			t.Fatalf("%q should be allowed", name)
		}
	}
	for _, name := range []string{"count", "msg", "window", "document"} {
		if IsGlobalAllowed(name) {
			t.Fatalf("%q should not be allowed", name)
		}
	}
}
