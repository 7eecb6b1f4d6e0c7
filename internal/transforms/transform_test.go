package transforms

import (
	"testing"

	"github.com/ushironoko/vize/internal/arena"
	"github.com/ushironoko/vize/internal/logger"
	"github.com/ushironoko/vize/internal/test"
	"github.com/ushironoko/vize/internal/tmplast"
	"github.com/ushironoko/vize/internal/tmplparser"
)

func transformForTest(t *testing.T, contents string, options Options) (*tmplast.Root, []logger.Msg) {
	t.Helper()
	log := logger.NewDeferLog()
	source := test.SourceForTest(contents)
	root := tmplparser.Parse(log, &source, tmplparser.Options{})
	a := arena.New()
	defer a.Reset()
	Transform(a, log, &source, root, options)
	return root, log.Done()
}

func TestVIfCreatesIfNode(t *testing.T) {
	root, msgs := transformForTest(t, `<div v-if="show">visible</div>`, Options{})
	test.AssertEqual(t, len(msgs), 0)
	test.AssertEqual(t, len(root.Children), 1)

	ifNode, ok := root.Children[0].(*tmplast.If)
	if !ok {
		t.Fatalf("expected an If node, got %T", root.Children[0])
	}
	test.AssertEqual(t, len(ifNode.Branches), 1)
	if ifNode.Branches[0].Condition == nil {
		t.Fatal("branch should have a condition")
	}
}

func TestVElseJoinsBranches(t *testing.T) {
	root, msgs := transformForTest(t, `<div v-if="show">yes</div><div v-else>no</div>`, Options{})
	test.AssertEqual(t, len(msgs), 0)

	// The v-else merges into the If node; no second root child remains
	test.AssertEqual(t, len(root.Children), 1)

	ifNode := root.Children[0].(*tmplast.If)
	test.AssertEqual(t, len(ifNode.Branches), 2)
	if ifNode.Branches[0].Condition == nil {
		t.Fatal("first branch should have a condition")
	}
	if ifNode.Branches[1].Condition != nil {
		t.Fatal("else branch should have no condition")
	}
}

func TestVElseIfChain(t *testing.T) {
	root, _ := transformForTest(t,
		`<div v-if="a">1</div><div v-else-if="b">2</div><div v-else>3</div>`, Options{})
	test.AssertEqual(t, len(root.Children), 1)
	ifNode := root.Children[0].(*tmplast.If)
	test.AssertEqual(t, len(ifNode.Branches), 3)
}

func TestVElseNoAdjacentIf(t *testing.T) {
	_, msgs := transformForTest(t, `<div v-else>no</div>`, Options{})
	found := false
	for _, msg := range msgs {
		if msg.Code == logger.CodeVElseNoAdjacentIf {
			found = true
		}
	}
	test.AssertEqual(t, found, true)
}

func TestVForCreatesForNode(t *testing.T) {
	root, msgs := transformForTest(t, `<div v-for="item in items">{{ item }}</div>`, Options{})
	test.AssertEqual(t, len(msgs), 0)

	forNode, ok := root.Children[0].(*tmplast.For)
	if !ok {
		t.Fatalf("expected a For node, got %T", root.Children[0])
	}
	test.AssertEqual(t, tmplast.ExprContent(forNode.Source), "items")
	test.AssertEqual(t, tmplast.ExprContent(forNode.ValueAlias), "item")
	if forNode.KeyAlias != nil {
		t.Fatal("no key alias expected")
	}
}

func TestVForAliasForms(t *testing.T) {
	root, _ := transformForTest(t, `<li v-for="(v, k, i) of things"></li>`, Options{})
	forNode := root.Children[0].(*tmplast.For)
	test.AssertEqual(t, forNode.ParseResult.Value, "v")
	test.AssertEqual(t, forNode.ParseResult.Key, "k")
	test.AssertEqual(t, forNode.ParseResult.Index, "i")
	test.AssertEqual(t, forNode.ParseResult.Source, "things")
}

func TestVForNoExpression(t *testing.T) {
	_, msgs := transformForTest(t, `<div v-for>x</div>`, Options{})
	found := false
	for _, msg := range msgs {
		if msg.Code == logger.CodeVForNoExpression {
			found = true
		}
	}
	test.AssertEqual(t, found, true)
}

// After lowering, no element may carry a structural directive.
func TestNoStructuralDirectivesSurvive(t *testing.T) {
	root, _ := transformForTest(t,
		`<div v-if="a"><span v-for="x in xs">{{ x }}</span></div><p v-else></p>`, Options{})

	var check func(nodes []tmplast.Node)
	check = func(nodes []tmplast.Node) {
		for _, node := range nodes {
			switch node := node.(type) {
			case *tmplast.Element:
				for _, name := range []string{"if", "else", "else-if", "for"} {
					if node.Directive(name) != nil {
						t.Fatalf("element <%s> still carries v-%s", node.Tag, name)
					}
				}
				check(node.Children)
			case *tmplast.If:
				for _, branch := range node.Branches {
					check(branch.Children)
				}
			case *tmplast.For:
				check(node.Children)
			}
		}
	}
	check(root.Children)
}

func TestHelpersRecorded(t *testing.T) {
	root, _ := transformForTest(t, `<div v-for="item in items">{{ item }}</div>`, Options{})
	want := map[tmplast.RuntimeHelper]bool{
		tmplast.HelperRenderList: true,
		tmplast.HelperFragment:   true,
		tmplast.HelperOpenBlock:  true,
	}
	for _, h := range root.Helpers {
		delete(want, h)
	}
	for h := range want {
		t.Fatalf("missing helper %s", h.Name())
	}
}

func TestComponentRegistration(t *testing.T) {
	root, _ := transformForTest(t, `<MyWidget></MyWidget>`, Options{})
	test.AssertEqual(t, len(root.Components), 1)
	test.AssertEqual(t, root.Components[0], "MyWidget")
}

func TestCustomDirectiveRegistration(t *testing.T) {
	root, _ := transformForTest(t, `<div v-highlight="color"></div>`, Options{})
	test.AssertEqual(t, len(root.Directives), 1)
	test.AssertEqual(t, root.Directives[0], "highlight")
}

func TestVModelOnComponentLowered(t *testing.T) {
	root, _ := transformForTest(t, `<MyInput v-model="text"/>`, Options{})
	el := root.Children[0].(*tmplast.Element)

	if el.Directive("model") != nil {
		t.Fatal("static v-model should be removed from component props")
	}

	var keys []string
	for _, p := range el.Props {
		if dir, ok := p.(*tmplast.Directive); ok {
			arg, _ := dir.ArgIsStatic()
			keys = append(keys, dir.Name+":"+arg)
		}
	}
	test.AssertEqual(t, len(keys), 2)
	test.AssertEqual(t, keys[0], "bind:modelValue")
	test.AssertEqual(t, keys[1], "on:update:modelValue")
}

func TestVModelOnNativeKeepsDirective(t *testing.T) {
	root, _ := transformForTest(t, `<input v-model="text"/>`, Options{})
	el := root.Children[0].(*tmplast.Element)
	if el.Directive("model") == nil {
		t.Fatal("native v-model keeps the directive for withDirectives")
	}
	if el.Directive("on") == nil {
		t.Fatal("native v-model gains the update handler")
	}
}

func TestHoistStaticElement(t *testing.T) {
	root, _ := transformForTest(t,
		`<div><p class="static">fixed</p><p>{{ msg }}</p></div>`,
		Options{HoistStatic: true})

	test.AssertEqual(t, len(root.Hoists), 1)

	hoisted := root.Hoists[0].(*tmplast.Element)
	test.AssertEqual(t, hoisted.Tag, "p")
	if hoisted.HoistedIndex != 0 {
		t.Fatalf("hoisted index = %d", hoisted.HoistedIndex)
	}
}

func TestHoistSkipsVFor(t *testing.T) {
	root, _ := transformForTest(t,
		`<div v-for="x in xs"><p class="static">fixed</p></div>`,
		Options{HoistStatic: true})

	for _, h := range root.Hoists {
		if _, ok := h.(*tmplast.Element); ok {
			t.Fatal("nothing inside v-for may be fully hoisted")
		}
	}
}

func TestHoistedConstantType(t *testing.T) {
	root, _ := transformForTest(t,
		`<div><p class="a" data-x="y">fixed</p><p>{{ m }}</p></div>`,
		Options{HoistStatic: true})

	for _, h := range root.Hoists {
		if el, ok := h.(*tmplast.Element); ok {
			if constantType(el) < tmplast.ConstCanCache {
				t.Fatal("hoisted node below CanCache")
			}
		}
	}
}

func TestTransformIdempotence(t *testing.T) {
	// A second pass over an already-transformed tree must not restructure
	// anything: structural directives are gone and expressions carry the
	// rewritten flag
	log := logger.NewDeferLog()
	source := test.SourceForTest(`<div v-if="a">x</div><div v-else>y</div>`)
	root := tmplparser.Parse(log, &source, tmplparser.Options{})
	a := arena.New()
	defer a.Reset()

	Transform(a, log, &source, root, Options{})
	branchesBefore := len(root.Children[0].(*tmplast.If).Branches)

	Transform(a, log, &source, root, Options{})
	branchesAfter := len(root.Children[0].(*tmplast.If).Branches)

	test.AssertEqual(t, branchesBefore, branchesAfter)
	test.AssertEqual(t, len(root.Children), 1)
}
