package arena

import "testing"

func TestNewStringCopies(t *testing.T) {
	a := New()
	buf := []byte("hello")
	s := a.NewString(string(buf))
	buf[0] = 'X'
	if s != "hello" {
		t.Fatalf("arena string aliases the input: %q", s)
	}
}

func TestConcat(t *testing.T) {
	a := New()
	if got := a.Concat("_ctx.", "count", ".value"); got != "_ctx.count.value" {
		t.Fatalf("got %q", got)
	}
	if got := a.Concat(); got != "" {
		t.Fatalf("got %q", got)
	}
}

func TestInternReturnsCanonical(t *testing.T) {
	a := New()
	first := a.Intern("item")
	second := a.Intern("it" + "em")
	if first != second {
		t.Fatal("interned strings differ")
	}
}

func TestLargeAllocationsSpanChunks(t *testing.T) {
	a := New()
	big := make([]byte, defaultChunkSize*2)
	for i := range big {
		big[i] = 'a'
	}
	s := a.NewString(string(big))
	if len(s) != len(big) {
		t.Fatalf("len = %d", len(s))
	}
	// Subsequent small allocations still work
	if a.NewString("x") != "x" {
		t.Fatal("small allocation after oversized chunk failed")
	}
}

func TestReset(t *testing.T) {
	a := New()
	a.NewString("data")
	a.Intern("data")
	if a.Allocated() == 0 {
		t.Fatal("expected allocations")
	}
	a.Reset()
	if a.Allocated() != 0 {
		t.Fatal("reset did not clear the counter")
	}
	if a.Intern("data") != "data" {
		t.Fatal("arena unusable after reset")
	}
}
