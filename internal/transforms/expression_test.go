package transforms

import (
	"testing"

	"github.com/ushironoko/vize/internal/arena"
	"github.com/ushironoko/vize/internal/logger"
	"github.com/ushironoko/vize/internal/test"
	"github.com/ushironoko/vize/internal/tmplast"
)

func rewriteForTest(t *testing.T, content string, options Options) string {
	t.Helper()
	log := logger.NewDeferLog()
	source := test.SourceForTest(content)
	ctx := NewContext(arena.New(), log, &source, options)

	exp := tmplast.NewSimpleExpr(content, false, tmplast.StubLoc)
	out := ProcessExpression(ctx, exp)
	return out.(*tmplast.SimpleExpr).Content
}

func bindingsOf(pairs map[string]tmplast.BindingType) *tmplast.BindingMetadata {
	meta := tmplast.NewBindingMetadata()
	for name, bt := range pairs {
		meta.Bindings[name] = bt
	}
	return meta
}

func TestPrefixUnknownIdentifier(t *testing.T) {
	out := rewriteForTest(t, "ok", Options{PrefixIdentifiers: true})
	test.AssertEqual(t, out, "_ctx.ok")
}

func TestPrefixMemberExpressionObjectOnly(t *testing.T) {
	out := rewriteForTest(t, "user.name", Options{PrefixIdentifiers: true})
	test.AssertEqual(t, out, "_ctx.user.name")
}

func TestGlobalsUntouched(t *testing.T) {
	out := rewriteForTest(t, "Math.max(a, 1)", Options{PrefixIdentifiers: true})
	test.AssertEqual(t, out, "Math.max(_ctx.a, 1)")
}

func TestInlineRefGetsValue(t *testing.T) {
	options := Options{
		PrefixIdentifiers: true,
		Inline:            true,
		BindingMetadata:   bindingsOf(map[string]tmplast.BindingType{"count": tmplast.BindingSetupRef}),
	}
	out := rewriteForTest(t, "count + 1", options)
	test.AssertEqual(t, out, "count.value + 1")
}

func TestInlineRefValueNotDoubled(t *testing.T) {
	options := Options{
		PrefixIdentifiers: true,
		Inline:            true,
		BindingMetadata:   bindingsOf(map[string]tmplast.BindingType{"count": tmplast.BindingSetupRef}),
	}
	out := rewriteForTest(t, "count.value + 1", options)
	test.AssertEqual(t, out, "count.value + 1")
}

func TestFunctionModeSetupPrefix(t *testing.T) {
	options := Options{
		PrefixIdentifiers: true,
		BindingMetadata:   bindingsOf(map[string]tmplast.BindingType{"count": tmplast.BindingSetupRef}),
	}
	out := rewriteForTest(t, "count + 1", options)
	test.AssertEqual(t, out, "$setup.count + 1")
}

func TestPropsPrefix(t *testing.T) {
	inline := Options{
		PrefixIdentifiers: true,
		Inline:            true,
		BindingMetadata:   bindingsOf(map[string]tmplast.BindingType{"msg": tmplast.BindingProps}),
	}
	test.AssertEqual(t, rewriteForTest(t, "msg", inline), "__props.msg")

	fn := Options{
		PrefixIdentifiers: true,
		BindingMetadata:   bindingsOf(map[string]tmplast.BindingType{"msg": tmplast.BindingProps}),
	}
	test.AssertEqual(t, rewriteForTest(t, "msg", fn), "$props.msg")
}

func TestSetupLetWrappedWithUnref(t *testing.T) {
	inline := Options{
		PrefixIdentifiers: true,
		Inline:            true,
		BindingMetadata:   bindingsOf(map[string]tmplast.BindingType{"maybe": tmplast.BindingSetupLet}),
	}
	test.AssertEqual(t, rewriteForTest(t, "maybe", inline), "_unref(maybe)")

	fn := Options{
		PrefixIdentifiers: true,
		BindingMetadata:   bindingsOf(map[string]tmplast.BindingType{"maybe": tmplast.BindingSetupLet}),
	}
	test.AssertEqual(t, rewriteForTest(t, "maybe", fn), "_unref($setup.maybe)")
}

func TestArrowParamsShadow(t *testing.T) {
	out := rewriteForTest(t, "items.map(item => item.id)", Options{PrefixIdentifiers: true})
	test.AssertEqual(t, out, "_ctx.items.map(item => item.id)")
}

func TestScopeIdentifiersNotPrefixed(t *testing.T) {
	log := logger.NewDeferLog()
	source := test.SourceForTest("")
	ctx := NewContext(arena.New(), log, &source, Options{PrefixIdentifiers: true})
	ctx.AddIdentifier("item")

	exp := tmplast.NewSimpleExpr("item.name", false, tmplast.StubLoc)
	out := ProcessExpression(ctx, exp).(*tmplast.SimpleExpr)
	test.AssertEqual(t, out.Content, "item.name")
}

func TestShorthandExpanded(t *testing.T) {
	out := rewriteForTest(t, "{ foo }", Options{PrefixIdentifiers: true})
	test.AssertEqual(t, out, "{ foo: _ctx.foo }")
}

func TestUpdateTargetRefValue(t *testing.T) {
	options := Options{
		PrefixIdentifiers: true,
		Inline:            true,
		BindingMetadata:   bindingsOf(map[string]tmplast.BindingType{"count": tmplast.BindingSetupRef}),
	}
	out := rewriteForTest(t, "count++", options)
	test.AssertEqual(t, out, "count.value++")
}

func TestRewriteIdempotence(t *testing.T) {
	log := logger.NewDeferLog()
	source := test.SourceForTest("")
	ctx := NewContext(arena.New(), log, &source, Options{PrefixIdentifiers: true})

	exp := tmplast.NewSimpleExpr("ok", false, tmplast.StubLoc)
	once := ProcessExpression(ctx, exp).(*tmplast.SimpleExpr)
	test.AssertEqual(t, once.IsRefTransformed, true)

	twice := ProcessExpression(ctx, once).(*tmplast.SimpleExpr)
	test.AssertEqual(t, twice.Content, once.Content)
}

func TestTypeScriptStripping(t *testing.T) {
	out := rewriteForTest(t, "value as string", Options{PrefixIdentifiers: true, IsTS: true})
	test.AssertEqual(t, out, "_ctx.value")

	out = rewriteForTest(t, "item!.name", Options{PrefixIdentifiers: true, IsTS: true})
	test.AssertEqual(t, out, "_ctx.item.name")
}

func TestInlineHandlerMethodReference(t *testing.T) {
	log := logger.NewDeferLog()
	source := test.SourceForTest("")
	ctx := NewContext(arena.New(), log, &source, Options{PrefixIdentifiers: true})

	exp := tmplast.NewSimpleExpr("go", false, tmplast.StubLoc)
	out := ProcessInlineHandler(ctx, exp).(*tmplast.SimpleExpr)
	test.AssertEqual(t, out.Content, "_ctx.go")
	test.AssertEqual(t, out.IsHandlerKey, true)
}

func TestInlineHandlerStatementWrapped(t *testing.T) {
	options := Options{
		PrefixIdentifiers: true,
		Inline:            true,
		BindingMetadata:   bindingsOf(map[string]tmplast.BindingType{"count": tmplast.BindingSetupRef}),
	}
	log := logger.NewDeferLog()
	source := test.SourceForTest("")
	ctx := NewContext(arena.New(), log, &source, options)

	exp := tmplast.NewSimpleExpr("count++", false, tmplast.StubLoc)
	out := ProcessInlineHandler(ctx, exp).(*tmplast.SimpleExpr)
	test.AssertEqual(t, out.Content, "$event => (count.value++)")
}

func TestUnrefHelperRecorded(t *testing.T) {
	options := Options{
		PrefixIdentifiers: true,
		Inline:            true,
		BindingMetadata:   bindingsOf(map[string]tmplast.BindingType{"maybe": tmplast.BindingSetupMaybeRef}),
	}
	log := logger.NewDeferLog()
	source := test.SourceForTest("")
	ctx := NewContext(arena.New(), log, &source, options)

	exp := tmplast.NewSimpleExpr("maybe", false, tmplast.StubLoc)
	ProcessExpression(ctx, exp)
	test.AssertEqual(t, ctx.Helpers.Has(tmplast.HelperUnref), true)
}
