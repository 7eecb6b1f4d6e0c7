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

func analyzeForTest(t *testing.T, content string, lang jsparse.Lang) *Analysis {
	t.Helper()
	log := logger.NewDeferLog()
	source := test.SourceForTest(content)
	return Analyze(log, &source, content, lang, 0)
}

func TestBindingClassification(t *testing.T) {
	a := analyzeForTest(t, `
import { ref, reactive, computed, toRef } from 'vue'
import Widget from './Widget.vue'

const count = ref(0)
const state = reactive({ on: false })
const double = computed(() => count.value * 2)
const maybe = toRef(state, 'on')
const limit = 10
const config = window.config
let current = null
function update() {}
class Store {}
`, jsparse.LangJS)

	expect := map[string]tmplast.BindingType{
		"ref":      tmplast.BindingExternalModule,
		"reactive": tmplast.BindingExternalModule,
		"Widget":   tmplast.BindingExternalModule,
		"count":    tmplast.BindingSetupRef,
		"state":    tmplast.BindingSetupReactiveConst,
		"double":   tmplast.BindingSetupRef,
		"maybe":    tmplast.BindingSetupMaybeRef,
		"limit":    tmplast.BindingLiteralConst,
		"config":   tmplast.BindingSetupConst,
		"current":  tmplast.BindingSetupLet,
		"update":   tmplast.BindingSetupConst,
		"Store":    tmplast.BindingSetupConst,
	}
	for name, want := range expect {
		assert.Equal(t, want, a.Bindings.Get(name), "binding %q", name)
	}
}

func TestTypeOnlyImportsDiscarded(t *testing.T) {
	a := analyzeForTest(t, `
import type { Config } from './types'
import { type Other, helper } from './util'
`, jsparse.LangTS)

	assert.False(t, a.Bindings.Has("Config"))
	assert.False(t, a.Bindings.Has("Other"))
	assert.True(t, a.Bindings.Has("helper"))
}

func TestDefinePropsRuntimeArray(t *testing.T) {
	a := analyzeForTest(t, `const props = defineProps(['msg', 'count'])`, jsparse.LangJS)

	require.NotNil(t, a.Macros.DefineProps)
	assert.Equal(t, "props", a.Macros.DefineProps.BindingName)
	require.Len(t, a.Props, 2)
	assert.Equal(t, "msg", a.Props[0].Name)
	assert.Equal(t, tmplast.BindingProps, a.Bindings.Get("msg"))
}

func TestDefinePropsTypeForm(t *testing.T) {
	a := analyzeForTest(t, `defineProps<{ msg?: string, count: number }>()`, jsparse.LangTS)

	require.NotNil(t, a.Macros.DefineProps)
	require.Len(t, a.Props, 2)

	byName := map[string]PropDecl{}
	for _, p := range a.Props {
		byName[p.Name] = p
	}
	assert.Equal(t, "String", byName["msg"].JSType)
	assert.False(t, byName["msg"].Required)
	assert.Equal(t, "Number", byName["count"].JSType)
	assert.True(t, byName["count"].Required)
}

func TestDefinePropsNamedInterface(t *testing.T) {
	a := analyzeForTest(t, `
interface Props { title: string }
defineProps<Props>()
`, jsparse.LangTS)

	require.Len(t, a.Props, 1)
	assert.Equal(t, "title", a.Props[0].Name)
	assert.Equal(t, "String", a.Props[0].JSType)

	require.Len(t, a.InvalidExports, 1)
	assert.Equal(t, "Props", a.InvalidExports[0].Name)
	assert.Equal(t, "interface", a.InvalidExports[0].Kind)
}

func TestWithDefaultsCompound(t *testing.T) {
	a := analyzeForTest(t,
		`const props = withDefaults(defineProps<{ msg?: string }>(), { msg: "hi" })`,
		jsparse.LangTS)

	require.NotNil(t, a.Macros.DefineProps)
	require.NotNil(t, a.Macros.WithDefaults)
	require.Len(t, a.Props, 1)
	assert.Equal(t, `"hi"`, a.Props[0].Default)
	assert.False(t, a.Props[0].Required)
}

func TestDuplicateDefineProps(t *testing.T) {
	log := logger.NewDeferLog()
	source := test.SourceForTest("")
	Analyze(log, &source, `
defineProps(['a'])
defineProps(['b'])
`, jsparse.LangJS, 0)

	msgs := log.Done()
	require.NotEmpty(t, msgs)
	assert.Equal(t, logger.CodeDuplicateDefineProps, msgs[0].Code)
}

func TestMacroOutsideTopLevel(t *testing.T) {
	log := logger.NewDeferLog()
	source := test.SourceForTest("")
	Analyze(log, &source, `
function setup() {
  defineProps(['a'])
}
`, jsparse.LangJS, 0)

	found := false
	for _, msg := range log.Done() {
		if msg.Code == logger.CodeMacroOutsideTopLevel {
			found = true
		}
	}
	assert.True(t, found)
}

func TestDefineEmits(t *testing.T) {
	a := analyzeForTest(t, `const emit = defineEmits(['save', 'close'])
emit('save')
`, jsparse.LangJS)

	require.NotNil(t, a.Macros.DefineEmits)
	assert.Equal(t, "emit", a.Macros.DefineEmits.BindingName)
	assert.Equal(t, []string{"save", "close"}, a.Emits)
	require.Len(t, a.EmitCalls, 1)
	assert.Equal(t, "save", a.EmitCalls[0].Name)
}

func TestDefineEmitsTypeForm(t *testing.T) {
	a := analyzeForTest(t,
		"const emit = defineEmits<{ (e: 'save', id: number): void; (e: 'close'): void }>()",
		jsparse.LangTS)
	assert.Equal(t, []string{"save", "close"}, a.Emits)
}

func TestDefineModel(t *testing.T) {
	a := analyzeForTest(t, `const title = defineModel('title')`, jsparse.LangJS)

	require.Len(t, a.Macros.DefineModels, 1)
	assert.Equal(t, "title", a.Macros.DefineModels[0].BindingName)
	assert.Contains(t, a.Emits, "update:title")
}

func TestProvideInjectCollected(t *testing.T) {
	a := analyzeForTest(t, `
import { provide, inject } from 'vue'
provide('theme', 'dark')
const other = inject('store')
`, jsparse.LangJS)

	require.Len(t, a.ProvideInject, 2)
	assert.True(t, a.ProvideInject[0].IsProvide)
	assert.Equal(t, "theme", a.ProvideInject[0].Key)
	assert.False(t, a.ProvideInject[1].IsProvide)
	assert.Equal(t, "store", a.ProvideInject[1].Key)
}

func TestReactiveSourcesTracked(t *testing.T) {
	a := analyzeForTest(t, `
import { ref, reactive } from 'vue'
const n = ref(1)
const s = reactive({})
`, jsparse.LangJS)

	require.Len(t, a.Reactivity, 2)
	assert.Equal(t, "ref", a.Reactivity[0].Kind)
	assert.Equal(t, "reactive", a.Reactivity[1].Kind)
}
