package tmplast

import "testing"

func TestConstantTypeLattice(t *testing.T) {
	if ConstNotConstant >= ConstCanSkipPatch || ConstCanSkipPatch >= ConstCanCache ||
		ConstCanCache >= ConstCanStringify {
		t.Fatal("lattice order broken")
	}
	if ConstCanStringify.Meet(ConstCanCache) != ConstCanCache {
		t.Fatal("meet should take the minimum")
	}
	if ConstNotConstant.Meet(ConstCanStringify) != ConstNotConstant {
		t.Fatal("meet should take the minimum")
	}
}

func TestPatchFlagNames(t *testing.T) {
	cases := map[PatchFlags]string{
		PatchFlagText:                      "TEXT",
		PatchFlagClass | PatchFlagStyle:    "CLASS, STYLE",
		PatchFlagProps | PatchFlagText:     "TEXT, PROPS",
		PatchFlagKeyedFrag:                 "KEYED_FRAGMENT",
		PatchFlagHoisted:                   "HOISTED",
		PatchFlagBail:                      "BAIL",
		PatchFlags(0):                      "",
	}
	for flag, want := range cases {
		if got := flag.String(); got != want {
			t.Fatalf("%d.String() = %q, want %q", flag, got, want)
		}
	}
}

func TestHelperSetSortedInEnumOrder(t *testing.T) {
	var set HelperSet
	set.Add(HelperRenderList)
	set.Add(HelperOpenBlock)
	set.Add(HelperFragment)

	sorted := set.Sorted()
	if len(sorted) != 3 {
		t.Fatalf("len = %d", len(sorted))
	}
	if sorted[0] != HelperFragment || sorted[1] != HelperOpenBlock || sorted[2] != HelperRenderList {
		t.Fatalf("order = %v", sorted)
	}
}

func TestHelperAliases(t *testing.T) {
	if HelperCreateElementVNode.Name() != "createElementVNode" {
		t.Fatal(HelperCreateElementVNode.Name())
	}
	if HelperOpenBlock.Alias() != "_openBlock" {
		t.Fatal(HelperOpenBlock.Alias())
	}
}

func TestBindingMetadata(t *testing.T) {
	meta := NewBindingMetadata()
	meta.Bindings["count"] = BindingSetupRef
	meta.Destructured = append(meta.Destructured, DestructuredProp{Key: "msg", Local: "m"})

	if meta.Get("count") != BindingSetupRef {
		t.Fatal("lookup failed")
	}
	if meta.Get("other") != BindingUnknown {
		t.Fatal("missing names must be unknown")
	}
	if key, ok := meta.DestructuredKey("m"); !ok || key != "msg" {
		t.Fatal("destructure lookup failed")
	}

	var nilMeta *BindingMetadata
	if nilMeta.Has("x") || nilMeta.Get("x") != BindingUnknown {
		t.Fatal("nil metadata must behave as empty")
	}
}

func TestBindingTypeBehavior(t *testing.T) {
	if !BindingSetupLet.NeedsUnref() || !BindingSetupMaybeRef.NeedsUnref() {
		t.Fatal("let and maybe-ref reads go through unref")
	}
	if BindingSetupRef.NeedsUnref() {
		t.Fatal("plain refs use .value, not unref")
	}
	if !BindingSetupRef.IsSetup() || BindingProps.IsSetup() {
		t.Fatal("IsSetup misclassifies")
	}
}
