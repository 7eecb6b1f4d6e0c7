package sfc

import (
	"testing"

	"github.com/ushironoko/vize/internal/logger"
	"github.com/ushironoko/vize/internal/test"
)

func parseForTest(t *testing.T, contents string) (*Descriptor, []logger.Msg) {
	t.Helper()
	log := logger.NewDeferLog()
	source := test.SourceForTest(contents)
	return ParseDescriptor(log, &source), log.Done()
}

func TestBasicBlocks(t *testing.T) {
	d, msgs := parseForTest(t, `<template>
  <div>{{ msg }}</div>
</template>

<script setup>
const msg = "hi"
</script>

<style scoped>
div { color: red }
</style>
`)
	test.AssertEqual(t, len(msgs), 0)

	if d.Template == nil {
		t.Fatal("missing template block")
	}
	test.AssertEqual(t, d.Template.Content, "\n  <div>{{ msg }}</div>\n")

	if d.ScriptSetup == nil {
		t.Fatal("missing script setup block")
	}
	test.AssertEqual(t, d.ScriptSetup.Setup, true)
	test.AssertEqual(t, d.ScriptSetup.Content, "\nconst msg = \"hi\"\n")

	test.AssertEqual(t, len(d.Styles), 1)
	test.AssertEqual(t, d.Styles[0].Scoped, true)
}

func TestBlockAttrs(t *testing.T) {
	d, _ := parseForTest(t, `<script setup lang="ts" custom-attr="x"></script>`)
	if d.ScriptSetup == nil {
		t.Fatal("missing script setup block")
	}
	test.AssertEqual(t, d.ScriptSetup.Lang, "ts")
	test.AssertEqual(t, d.ScriptSetup.Attrs["custom-attr"], "x")
}

func TestPlainScriptVsSetup(t *testing.T) {
	d, _ := parseForTest(t, `<script>export default {}</script><script setup>const a = 1</script>`)
	if d.Script == nil || d.ScriptSetup == nil {
		t.Fatal("both script blocks should be recognized")
	}
}

func TestNestedTemplateElements(t *testing.T) {
	d, msgs := parseForTest(t, `<template><template v-if="a">x</template></template>`)
	test.AssertEqual(t, len(msgs), 0)
	test.AssertEqual(t, d.Template.Content, `<template v-if="a">x</template>`)
}

func TestDuplicateTemplate(t *testing.T) {
	d, msgs := parseForTest(t, `<template><a/></template><template><b/></template>`)
	found := false
	for _, msg := range msgs {
		if msg.Code == logger.CodeDuplicateTemplateBlock {
			found = true
		}
	}
	test.AssertEqual(t, found, true)
	// First block wins
	test.AssertEqual(t, d.Template.Content, "<a/>")
}

func TestContentSpans(t *testing.T) {
	contents := `<template><div/></template>`
	d, _ := parseForTest(t, contents)
	start, end := d.Template.ContentStart, d.Template.ContentEnd
	test.AssertEqual(t, contents[start:end], "<div/>")
}

func TestSrcAttribute(t *testing.T) {
	d, _ := parseForTest(t, `<style src="./theme.css"></style>`)
	test.AssertEqual(t, len(d.Styles), 1)
	test.AssertEqual(t, d.Styles[0].Src, "./theme.css")
}

func TestUnterminatedBlock(t *testing.T) {
	_, msgs := parseForTest(t, `<template><div/>`)
	found := false
	for _, msg := range msgs {
		if msg.Code == logger.CodeUnterminatedBlock {
			found = true
		}
	}
	test.AssertEqual(t, found, true)
}
