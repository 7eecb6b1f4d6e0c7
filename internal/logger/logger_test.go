package logger

import (
	"strings"
	"testing"
)

func TestComputeLineAndColumn(t *testing.T) {
	contents := "first\nsecond\nthird"
	source := &Source{PrettyPath: "file.vue", Contents: contents}

	loc := LocationOrNil(source, Range{Loc: Loc{Start: int32(strings.Index(contents, "second"))}, Len: 6})
	if loc.Line != 2 {
		t.Fatalf("line = %d", loc.Line)
	}
	if loc.Column != 0 {
		t.Fatalf("column = %d", loc.Column)
	}
	if loc.LineText != "second" {
		t.Fatalf("lineText = %q", loc.LineText)
	}
}

func TestStubRangeHasNoLocation(t *testing.T) {
	source := &Source{PrettyPath: "file.vue", Contents: "abc"}
	if LocationOrNil(source, StubRange) != nil {
		t.Fatal("stub ranges must not produce locations")
	}
}

func TestDeferLogCollectsAndSorts(t *testing.T) {
	log := NewDeferLog()
	source := &Source{PrettyPath: "file.vue", Contents: "line one\nline two"}

	log.AddWarning(CodeDuplicateAttribute, source, Range{Loc: Loc{Start: 10}}, "later")
	log.AddError(CodeUnclosedTag, source, Range{Loc: Loc{Start: 0}}, "earlier")

	if !log.HasErrors() {
		t.Fatal("expected HasErrors")
	}

	msgs := log.Done()
	if len(msgs) != 2 {
		t.Fatalf("got %d messages", len(msgs))
	}
	if msgs[0].Data.Text != "earlier" {
		t.Fatalf("messages not sorted by position: %q first", msgs[0].Data.Text)
	}
}

func TestMsgStringIncludesCode(t *testing.T) {
	msg := Msg{
		Kind: Error,
		Code: CodeVElseNoAdjacentIf,
		Data: MsgData{Text: "v-else has no adjacent v-if"},
	}
	text := msg.String(OutputOptions{}, TerminalInfo{})
	if !strings.Contains(text, string(CodeVElseNoAdjacentIf)) {
		t.Fatalf("missing code in %q", text)
	}
	if !strings.Contains(text, "error") {
		t.Fatalf("missing severity in %q", text)
	}
}

func TestMsgStringWithSource(t *testing.T) {
	source := &Source{PrettyPath: "file.vue", Contents: "<div v-else>x</div>"}
	msg := Msg{
		Kind: Error,
		Code: CodeVElseNoAdjacentIf,
		Data: MsgData{
			Text:     "v-else has no adjacent v-if",
			Location: LocationOrNil(source, Range{Loc: Loc{Start: 5}, Len: 6}),
		},
	}
	text := msg.String(OutputOptions{IncludeSource: true}, TerminalInfo{})
	if !strings.Contains(text, "file.vue:1:5") {
		t.Fatalf("missing location in %q", text)
	}
	if !strings.Contains(text, "~~~~~~") {
		t.Fatalf("missing marker in %q", text)
	}
}

func TestSeverityNames(t *testing.T) {
	pairs := map[MsgKind]string{
		Error:   "error",
		Warning: "warning",
		Info:    "info",
		Hint:    "hint",
		Note:    "note",
	}
	for kind, want := range pairs {
		if kind.String() != want {
			t.Fatalf("%d = %q", kind, kind.String())
		}
	}
}
