package summary

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ushironoko/vize/internal/jsparse"
	"github.com/ushironoko/vize/internal/logger"
	"github.com/ushironoko/vize/internal/script"
	"github.com/ushironoko/vize/internal/test"
	"github.com/ushironoko/vize/internal/tmplparser"
)

func buildForTest(t *testing.T, scriptContent string, template string) *Summary {
	t.Helper()
	log := logger.NewDeferLog()

	var analysis *script.Analysis
	if scriptContent != "" {
		source := test.SourceForTest(scriptContent)
		analysis = script.Analyze(log, &source, scriptContent, jsparse.LangJS, 0)
	}

	source := test.SourceForTest(template)
	root := tmplparser.Parse(log, &source, tmplparser.Options{})

	return Build("Test", analysis, scriptContent, jsparse.LangJS, root)
}

func TestUndefinedReferenceDetected(t *testing.T) {
	s := buildForTest(t, `
import { ref } from 'vue'
const count = ref(0)
`, `<div>{{ count }} {{ missing }}</div>`)

	require.Len(t, s.UndefinedRefs, 1)
	assert.Equal(t, "missing", s.UndefinedRefs[0].Name)
	assert.Equal(t, "interpolation", s.UndefinedRefs[0].Context)
}

func TestVForAliasesPreAdded(t *testing.T) {
	s := buildForTest(t, `
import { ref } from 'vue'
const items = ref([])
`, `<li v-for="(item, i) in items">{{ item.name }} {{ i }}</li>`)

	assert.Empty(t, s.UndefinedRefs)
}

func TestVSlotParamsPreAdded(t *testing.T) {
	s := buildForTest(t, "", `<Card><template #body="{ row }">{{ row.id }}</template></Card>`)
	assert.Empty(t, s.UndefinedRefs)
}

func TestEventHandlerScopeHasEvent(t *testing.T) {
	s := buildForTest(t, `
const go = () => {}
`, `<button @click="go($event)">x</button>`)
	assert.Empty(t, s.UndefinedRefs)
}

func TestComponentUsageRecorded(t *testing.T) {
	s := buildForTest(t, "", `<UserCard :user="u" name="static" @save="onSave"/>`)

	require.Len(t, s.Components, 1)
	usage := s.Components[0]
	assert.Equal(t, "UserCard", usage.Name)
	require.Len(t, usage.Props, 2)
	assert.Equal(t, "user", usage.Props[0].Name)
	assert.True(t, usage.Props[0].Dynamic)
	assert.Equal(t, "name", usage.Props[1].Name)
	assert.Equal(t, []string{"save"}, usage.Events)
}

func TestTemplateExpressionsCollected(t *testing.T) {
	s := buildForTest(t, "", `<div :title="a + b">{{ c }}</div>`)
	require.Len(t, s.TemplateExprs, 2)
}

func TestRootElementCount(t *testing.T) {
	s := buildForTest(t, "", `<div/><span/>`)
	assert.Equal(t, 2, s.RootElementCount)
}

func TestScopeChainLookup(t *testing.T) {
	s := buildForTest(t, `
import { ref } from 'vue'
const count = ref(0)
`, `<div>{{ count }}</div>`)

	setup := s.RootScope.Children[0]
	assert.Equal(t, ScopeSetup, setup.Kind)

	binding := setup.Lookup("count")
	require.NotNil(t, binding)
	assert.True(t, binding.Used)
}

func TestWatchCanBeComputedPattern(t *testing.T) {
	s := buildForTest(t, `
import { ref, watch } from 'vue'
const src = ref(1)
const dst = ref(0)
watch(src, () => { dst.value = src.value * 2 })
`, ``)

	require.Len(t, s.WatchPatterns, 1)
	assert.Equal(t, "src", s.WatchPatterns[0].SourceName)
	assert.Equal(t, "dst", s.WatchPatterns[0].TargetName)
	assert.True(t, s.WatchPatterns[0].PureCompute)
}

func TestDomAccessInSetupFlagged(t *testing.T) {
	s := buildForTest(t, `
import { onMounted } from 'vue'
const el = document.querySelector('#app')
onMounted(() => {
  document.title = "ready"
})
`, ``)

	require.Len(t, s.DomAccesses, 2)
	assert.False(t, s.DomAccesses[0].InMountedScope)
	assert.True(t, s.DomAccesses[1].InMountedScope)
}

func TestReactiveEscapeMutation(t *testing.T) {
	s := buildForTest(t, `
import { reactive } from 'vue'
const state = reactive({ n: 0 })
registerGlobal(state)
state.n = 1
`, ``)

	require.Len(t, s.ReactiveEscapes, 1)
	assert.Equal(t, "state", s.ReactiveEscapes[0].Name)
	assert.True(t, s.ReactiveEscapes[0].MutatedAfter)
}
