package script

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ushironoko/vize/internal/jsparse"
	"github.com/ushironoko/vize/internal/logger"
	"github.com/ushironoko/vize/internal/test"
	"github.com/ushironoko/vize/internal/tmplast"
)

func metaFor(names ...string) *tmplast.BindingMetadata {
	meta := tmplast.NewBindingMetadata()
	for _, name := range names {
		meta.Destructured = append(meta.Destructured, tmplast.DestructuredProp{Key: name, Local: name})
		meta.Bindings[name] = tmplast.BindingProps
	}
	return meta
}

func rewrite(source string, meta *tmplast.BindingMetadata) string {
	return RewriteDestructuredProps(source, meta, jsparse.LangJS)
}

func TestDestructureTableParsed(t *testing.T) {
	log := logger.NewDeferLog()
	source := test.SourceForTest("")
	a := Analyze(log, &source,
		`const { msg, old: renamed, count = 0, ...rest } = defineProps(['msg', 'old', 'count'])`,
		jsparse.LangJS, 0)

	require.Len(t, a.Bindings.Destructured, 3)

	assert.Equal(t, "msg", a.Bindings.Destructured[0].Key)
	assert.Equal(t, "msg", a.Bindings.Destructured[0].Local)

	assert.Equal(t, "old", a.Bindings.Destructured[1].Key)
	assert.Equal(t, "renamed", a.Bindings.Destructured[1].Local)

	assert.Equal(t, "count", a.Bindings.Destructured[2].Key)
	assert.Equal(t, "0", a.Bindings.Destructured[2].Default)
	assert.True(t, a.Bindings.Destructured[2].Optional)

	assert.Equal(t, "rest", a.Bindings.RestID)

	assert.Equal(t, tmplast.BindingProps, a.Bindings.Get("msg"))
	assert.Equal(t, tmplast.BindingPropsAliased, a.Bindings.Get("renamed"))
}

func TestRewriteSimple(t *testing.T) {
	out := rewrite(`console.log(msg)`, metaFor("msg"))
	assert.Equal(t, `console.log(__props.msg)`, out)
}

func TestRewriteAliased(t *testing.T) {
	meta := tmplast.NewBindingMetadata()
	meta.Destructured = append(meta.Destructured, tmplast.DestructuredProp{Key: "old", Local: "renamed"})
	out := rewrite(`use(renamed)`, meta)
	assert.Equal(t, `use(__props.old)`, out)
}

func TestRewriteShadowedByParam(t *testing.T) {
	out := rewrite(`const f = (msg) => msg.length`, metaFor("msg"))
	assert.Equal(t, `const f = (msg) => msg.length`, out)
}

func TestRewriteShadowedInBlock(t *testing.T) {
	out := rewrite(`{
  const msg = "local"
  use(msg)
}
use(msg)`, metaFor("msg"))
	assert.Contains(t, out, `use(__props.msg)`)
	assert.Contains(t, out, "const msg = \"local\"")
}

func TestRewriteShadowedInForOf(t *testing.T) {
	out := rewrite(`for (const msg of list) { use(msg) }`, metaFor("msg"))
	assert.Equal(t, `for (const msg of list) { use(msg) }`, out)
}

func TestRewriteShadowedInCatch(t *testing.T) {
	out := rewrite(`try { run() } catch (msg) { use(msg) }`, metaFor("msg"))
	assert.Equal(t, `try { run() } catch (msg) { use(msg) }`, out)
}

func TestRewriteShadowedByFunctionDecl(t *testing.T) {
	out := rewrite(`function msg() {}
use(msg)`, metaFor("msg"))
	assert.NotContains(t, out, "__props")
}

func TestRewriteInWatchCallback(t *testing.T) {
	out := rewrite(`watch(() => count, (val) => use(count, val))`, metaFor("count"))
	assert.Equal(t, `watch(() => __props.count, (val) => use(__props.count, val))`, out)
}

func TestRewriteMemberAccessNotTouched(t *testing.T) {
	out := rewrite(`state.msg = 1`, metaFor("msg"))
	assert.Equal(t, `state.msg = 1`, out)
}

func TestRewriteStringKeysNotTouched(t *testing.T) {
	out := rewrite(`use("msg", { msg: 1 })`, metaFor("msg"))
	assert.Equal(t, `use("msg", { msg: 1 })`, out)
}

func TestRewriteShorthandExpanded(t *testing.T) {
	out := rewrite(`use({ msg })`, metaFor("msg"))
	assert.Equal(t, `use({ msg: __props.msg })`, out)
}

func TestRewriteTemplateLiteral(t *testing.T) {
	out := rewrite("use(`value: ${msg}`)", metaFor("msg"))
	assert.Equal(t, "use(`value: ${__props.msg}`)", out)
}

func TestRewriteTernary(t *testing.T) {
	out := rewrite(`const x = msg ? msg : other`, metaFor("msg"))
	assert.Equal(t, `const x = __props.msg ? __props.msg : other`, out)
}

func TestTextFallback(t *testing.T) {
	// Deliberately broken source falls back to word-boundary substitution
	locals := map[string]string{"msg": "msg"}
	out := rewriteTextBased(`use(msg); obj.msg; msgValue; const {`, locals)
	assert.Contains(t, out, "use(__props.msg)")
	assert.Contains(t, out, "obj.msg")
	assert.Contains(t, out, "msgValue")
}

func TestTextFallbackLongestFirst(t *testing.T) {
	locals := map[string]string{"a": "a", "ab": "ab"}
	out := rewriteTextBased(`f(ab, a)`, locals)
	assert.Equal(t, `f(__props.ab, __props.a)`, out)
}
