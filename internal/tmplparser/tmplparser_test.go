package tmplparser

import (
	"testing"

	"github.com/ushironoko/vize/internal/logger"
	"github.com/ushironoko/vize/internal/test"
	"github.com/ushironoko/vize/internal/tmplast"
)

func parseForTest(t *testing.T, contents string) (*tmplast.Root, []logger.Msg) {
	t.Helper()
	log := logger.NewDeferLog()
	source := test.SourceForTest(contents)
	root := Parse(log, &source, Options{})
	return root, log.Done()
}

func parseNoErrors(t *testing.T, contents string) *tmplast.Root {
	t.Helper()
	root, msgs := parseForTest(t, contents)
	for _, msg := range msgs {
		if msg.Kind == logger.Error {
			t.Fatalf("unexpected error: %s", msg.Data.Text)
		}
	}
	return root
}

func firstElement(t *testing.T, root *tmplast.Root) *tmplast.Element {
	t.Helper()
	for _, child := range root.Children {
		if el, ok := child.(*tmplast.Element); ok {
			return el
		}
	}
	t.Fatal("no element in root")
	return nil
}

func TestParseSimpleElement(t *testing.T) {
	root := parseNoErrors(t, "<div>hello</div>")
	test.AssertEqual(t, len(root.Children), 1)

	el := firstElement(t, root)
	test.AssertEqual(t, el.Tag, "div")
	test.AssertEqual(t, el.Type, tmplast.ElementPlain)
	test.AssertEqual(t, len(el.Children), 1)

	text, ok := el.Children[0].(*tmplast.Text)
	if !ok {
		t.Fatal("expected a text child")
	}
	test.AssertEqual(t, text.Content, "hello")
}

func TestElementClassification(t *testing.T) {
	root := parseNoErrors(t, "<MyWidget/><template/><slot/><span/>")
	types := []tmplast.ElementType{}
	for _, child := range root.Children {
		types = append(types, child.(*tmplast.Element).Type)
	}
	test.AssertEqual(t, types[0], tmplast.ElementComponent)
	test.AssertEqual(t, types[1], tmplast.ElementTemplate)
	test.AssertEqual(t, types[2], tmplast.ElementSlot)
	test.AssertEqual(t, types[3], tmplast.ElementPlain)
}

func TestInterpolationNode(t *testing.T) {
	root := parseNoErrors(t, "{{ msg }}")
	interp, ok := root.Children[0].(*tmplast.Interpolation)
	if !ok {
		t.Fatal("expected an interpolation")
	}
	simple := interp.Content.(*tmplast.SimpleExpr)
	test.AssertEqual(t, simple.Content, "msg")
	test.AssertEqual(t, simple.IsStatic, false)
}

func TestWhitespaceOnlyTextDropped(t *testing.T) {
	root := parseNoErrors(t, "<div></div>\n  <span></span>")
	test.AssertEqual(t, len(root.Children), 2)
}

func TestDirectiveForms(t *testing.T) {
	root := parseNoErrors(t, `<template v-bind:title="t" :id="i" @click="go" #header v-model.lazy="m"></template>`)
	el := firstElement(t, root)
	test.AssertEqual(t, len(el.Props), 5)

	bind := el.Props[0].(*tmplast.Directive)
	test.AssertEqual(t, bind.Name, "bind")
	arg, static := bind.ArgIsStatic()
	test.AssertEqual(t, static, true)
	test.AssertEqual(t, arg, "title")

	shorthand := el.Props[1].(*tmplast.Directive)
	test.AssertEqual(t, shorthand.Name, "bind")

	on := el.Props[2].(*tmplast.Directive)
	test.AssertEqual(t, on.Name, "on")
	arg, _ = on.ArgIsStatic()
	test.AssertEqual(t, arg, "click")

	slot := el.Props[3].(*tmplast.Directive)
	test.AssertEqual(t, slot.Name, "slot")
	arg, _ = slot.ArgIsStatic()
	test.AssertEqual(t, arg, "header")

	model := el.Props[4].(*tmplast.Directive)
	test.AssertEqual(t, model.Name, "model")
	test.AssertEqual(t, model.HasModifier("lazy"), true)
}

func TestDynamicDirectiveArg(t *testing.T) {
	root := parseNoErrors(t, `<div :[dynKey]="v"></div>`)
	el := firstElement(t, root)
	dir := el.Props[0].(*tmplast.Directive)
	simple := dir.Arg.(*tmplast.SimpleExpr)
	test.AssertEqual(t, simple.IsStatic, false)
	test.AssertEqual(t, simple.Content, "dynKey")
}

func TestModifierChain(t *testing.T) {
	root := parseNoErrors(t, `<button @click.stop.prevent="go"></button>`)
	el := firstElement(t, root)
	dir := el.Props[0].(*tmplast.Directive)
	test.AssertEqual(t, len(dir.Modifiers), 2)
	test.AssertEqual(t, dir.Modifiers[0].Content, "stop")
	test.AssertEqual(t, dir.Modifiers[1].Content, "prevent")
}

func TestPropShorthand(t *testing.T) {
	root := parseNoErrors(t, `<div .innerText="v"></div>`)
	el := firstElement(t, root)
	dir := el.Props[0].(*tmplast.Directive)
	test.AssertEqual(t, dir.Name, "bind")
	test.AssertEqual(t, dir.HasModifier("prop"), true)
}

func TestUnclosedTag(t *testing.T) {
	root, msgs := parseForTest(t, "<div><span></div>")
	if len(msgs) == 0 {
		t.Fatal("expected a diagnostic")
	}
	// Best-effort AST still comes back
	test.AssertEqual(t, len(root.Children), 1)
}

func TestDuplicateAttribute(t *testing.T) {
	_, msgs := parseForTest(t, `<div id="a" id="b"></div>`)
	found := false
	for _, msg := range msgs {
		if msg.Code == logger.CodeDuplicateAttribute {
			found = true
		}
	}
	test.AssertEqual(t, found, true)
}

func TestVIfWithVForConflict(t *testing.T) {
	_, msgs := parseForTest(t, `<div v-if="a" v-for="b in c"></div>`)
	found := false
	for _, msg := range msgs {
		if msg.Code == logger.CodeVIfWithVFor {
			found = true
		}
	}
	test.AssertEqual(t, found, true)
}

func TestLocationsNestInParent(t *testing.T) {
	root := parseNoErrors(t, "<div><span>x</span></div>")
	el := firstElement(t, root)
	child := el.Children[0].(*tmplast.Element)
	if child.Loc.Start < el.Loc.Start || child.Loc.End > el.Loc.End {
		t.Fatalf("child span [%d,%d) escapes parent [%d,%d)",
			child.Loc.Start, child.Loc.End, el.Loc.Start, el.Loc.End)
	}
}

func TestVoidElements(t *testing.T) {
	root := parseNoErrors(t, "<div><br><img src=\"x.png\"></div>")
	el := firstElement(t, root)
	test.AssertEqual(t, len(el.Children), 2)
}
