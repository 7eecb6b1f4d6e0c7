package helpers

import "testing"

func TestJoiner(t *testing.T) {
	var j Joiner
	j.AddString("a")
	j.AddString("")
	j.AddString("bc")
	if j.Length() != 3 {
		t.Fatalf("length = %d", j.Length())
	}
	if j.Done() != "abc" {
		t.Fatalf("done = %q", j.Done())
	}
	if j.LastByte() != 'c' {
		t.Fatalf("lastByte = %q", j.LastByte())
	}
	if !j.Contains("bc") || j.Contains("xyz") {
		t.Fatal("contains is wrong")
	}
}

func TestQuoteDouble(t *testing.T) {
	cases := map[string]string{
		"abc":      `"abc"`,
		`say "hi"`: `"say \"hi\""`,
		"a\nb":     `"a\nb"`,
		"tab\t":    `"tab\t"`,
		"back\\":   `"back\\"`,
	}
	for input, want := range cases {
		if got := QuoteDouble(input); got != want {
			t.Fatalf("QuoteDouble(%q) = %s, want %s", input, got, want)
		}
	}
}

func TestQuoteSingle(t *testing.T) {
	if got := QuoteSingle("it's"); got != `'it\'s'` {
		t.Fatalf("got %s", got)
	}
}

func TestCamelize(t *testing.T) {
	cases := map[string]string{
		"foo-bar":     "fooBar",
		"foo-bar-baz": "fooBarBaz",
		"plain":       "plain",
	}
	for input, want := range cases {
		if got := Camelize(input); got != want {
			t.Fatalf("Camelize(%q) = %q", input, got)
		}
	}
}

func TestToHandlerKey(t *testing.T) {
	cases := map[string]string{
		"click":             "onClick",
		"update:modelValue": "onUpdate:modelValue",
		"my-event":          "onMyEvent",
	}
	for input, want := range cases {
		if got := ToHandlerKey(input); got != want {
			t.Fatalf("ToHandlerKey(%q) = %q", input, got)
		}
	}
}

func TestIsValidJSIdentifier(t *testing.T) {
	valid := []string{"foo", "_x", "$y", "a1"}
	invalid := []string{"", "1a", "foo-bar", "a b", "on:click"}
	for _, name := range valid {
		if !IsValidJSIdentifier(name) {
			t.Fatalf("%q should be valid", name)
		}
	}
	for _, name := range invalid {
		if IsValidJSIdentifier(name) {
			t.Fatalf("%q should be invalid", name)
		}
	}
}
