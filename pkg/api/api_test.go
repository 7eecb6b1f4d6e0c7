package api

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ushironoko/vize/internal/logger"
	"github.com/ushironoko/vize/internal/tmplast"
)

func expectContains(t *testing.T, code string, wanted ...string) {
	t.Helper()
	for _, want := range wanted {
		if !strings.Contains(code, want) {
			t.Fatalf("output does not contain %q:\n%s", want, code)
		}
	}
}

func TestCompileSimpleTemplate(t *testing.T) {
	result := CompileTemplate("<div>hello</div>", Options{})
	require.False(t, result.HasErrors())
	expectContains(t, result.Code, `_createElementBlock("div", null, "hello")`)
	assert.Contains(t, result.Helpers, "createElementBlock")
	assert.Contains(t, result.Helpers, "openBlock")
}

func TestCompileInterpolationInlineRef(t *testing.T) {
	meta := tmplast.NewBindingMetadata()
	meta.Bindings["msg"] = tmplast.BindingSetupRef

	result := CompileTemplate("{{ msg }}", Options{
		PrefixIdentifiers: true,
		Inline:            true,
		BindingMetadata:   meta,
	})
	require.False(t, result.HasErrors())
	expectContains(t, result.Code, "_toDisplayString(msg.value)")
	assert.Contains(t, result.Helpers, "toDisplayString")
	assert.Contains(t, result.Helpers, "createTextVNode")
}

func TestCompileVIfElseFunctionMode(t *testing.T) {
	result := CompileTemplate(`<div v-if="ok">yes</div><div v-else>no</div>`, Options{
		Mode:              ModeFunction,
		PrefixIdentifiers: true,
	})
	require.False(t, result.HasErrors())
	expectContains(t, result.Code,
		"_ctx.ok",
		`(_openBlock(), _createElementBlock("div", { key: 0 }, "yes"))`,
		`(_openBlock(), _createElementBlock("div", { key: 1 }, "no"))`,
	)
	assert.NotContains(t, result.Code, "_Fragment")
}

func TestCompileVForKeyed(t *testing.T) {
	result := CompileTemplate(
		`<div v-for="(item, i) in items" :key="item.id">{{ item.name }}</div>`,
		Options{PrefixIdentifiers: true})
	require.False(t, result.HasErrors())
	expectContains(t, result.Code,
		"_renderList(_ctx.items, (item, i) => ",
		"128 /* KEYED_FRAGMENT */",
		"_toDisplayString(item.name)",
	)
}

func TestCompileCachedHandler(t *testing.T) {
	meta := tmplast.NewBindingMetadata()
	meta.Bindings["count"] = tmplast.BindingSetupRef

	result := CompileTemplate(`<button @click.stop.prevent="count++">+1</button>`, Options{
		PrefixIdentifiers: true,
		Inline:            true,
		CacheHandlers:     true,
		BindingMetadata:   meta,
	})
	require.False(t, result.HasErrors())
	expectContains(t, result.Code,
		"_cache[0] || (_cache[0] = _withModifiers(",
		"count.value++",
		"8 /* PROPS */",
		`["onClick"]`,
	)
}

func TestCompileSFCPropsDestructure(t *testing.T) {
	source := `<script setup lang="ts">
const { msg = "hi" } = defineProps<{ msg?: string }>()
</script>

<template>
  <p>{{ msg }}</p>
</template>
`
	result := CompileSFC("Greeting.vue", source, Options{Inline: true})
	require.False(t, result.HasErrors())

	expectContains(t, result.Code,
		`msg: { type: String, required: false, default: "hi" }`,
		"__props.msg",
	)
	// The destructure statement itself is gone from the setup body
	assert.NotContains(t, result.Code, "} = defineProps")
}

func TestCompileSFCInlineModule(t *testing.T) {
	source := `<script setup>
import { ref } from 'vue'
const count = ref(0)
</script>

<template>
  <button @click="count++">{{ count }}</button>
</template>
`
	result := CompileSFC("Counter.vue", source, Options{Inline: true})
	require.False(t, result.HasErrors())

	expectContains(t, result.Code,
		"export default {",
		"__name: 'Counter'",
		"setup(__props) {",
		"const count = ref(0)",
		"return (_ctx, _cache) => {",
		"count.value++",
		"_toDisplayString(count.value)",
	)
}

func TestCompileSFCFunctionModeReturnsBindings(t *testing.T) {
	source := `<script setup>
import { ref } from 'vue'
const count = ref(0)
</script>

<template>
  <span>{{ count }}</span>
</template>
`
	result := CompileSFC("Counter.vue", source, Options{})
	require.False(t, result.HasErrors())

	expectContains(t, result.Code,
		"return { ref, count }",
		"$setup.count",
		"export function render(_ctx, _cache, $props, $setup, $data, $options)",
	)
}

func TestCompileSFCEmitsAndExpose(t *testing.T) {
	source := `<script setup>
const emit = defineEmits(['save'])
defineExpose({ focus: () => {} })
emit('save')
</script>

<template><button>x</button></template>
`
	result := CompileSFC("Form.vue", source, Options{Inline: true})
	require.False(t, result.HasErrors())
	expectContains(t, result.Code,
		`emits: ["save"]`,
		"setup(__props, { expose: __expose, emit: __emit })",
		"const emit = __emit",
		"__expose({ focus: () => {} })",
	)
}

func TestCompileSFCScopedStyle(t *testing.T) {
	source := `<template><div>x</div></template>

<style scoped>
div { color: red }
</style>

<script setup>
const a = 1
</script>
`
	result := CompileSFC("Scoped.vue", source, Options{Inline: true})
	require.False(t, result.HasErrors())
	assert.Contains(t, result.Code, "data-v-")
	assert.Contains(t, result.Code, "__scopeId:")
}

func TestCompileEmptyTemplate(t *testing.T) {
	result := CompileTemplate("", Options{})
	expectContains(t, result.Code, "return null")
}

func TestAnalyzeReportsUndefinedRefs(t *testing.T) {
	source := `<script setup>
const a = 1
</script>

<template><p>{{ missing }}</p></template>
`
	s, msgs := AnalyzeSFC("App.vue", source)
	require.NotNil(t, s)

	found := false
	for _, msg := range msgs {
		if msg.Code == logger.CodeUndefinedReference {
			found = true
		}
	}
	assert.True(t, found)
}

func TestCheckProjectProvideInject(t *testing.T) {
	files := map[string]string{
		"App.vue": `<script setup>
import { provide } from 'vue'
provide('store', {})
</script>
<template><Child/></template>`,
		"Child.vue": `<script setup>
import { inject } from 'vue'
const store = inject('store')
</script>
<template><div/></template>`,
	}

	for _, msg := range CheckProject(files) {
		if msg.Code == logger.CodeUnmatchedInject || msg.Code == logger.CodeUnusedProvide {
			t.Fatalf("unexpected diagnostic %s", msg.Code)
		}
	}

	// Dropping the injector flips the provide to an unused warning
	delete(files, "Child.vue")
	found := false
	for _, msg := range CheckProject(files) {
		if msg.Code == logger.CodeUnusedProvide {
			found = true
			assert.Equal(t, logger.Warning, msg.Kind)
		}
	}
	assert.True(t, found)
}

func TestDeterministicCompilation(t *testing.T) {
	source := `<template><div :a="x" :b="y"><Widget/></div></template>
<script setup>
import Widget from './Widget.vue'
const x = 1
const y = 2
</script>`
	first := CompileSFC("A.vue", source, Options{Inline: true})
	second := CompileSFC("A.vue", source, Options{Inline: true})
	assert.Equal(t, first.Code, second.Code)
}
