package tmplast

import "strings"

// PatchFlags is the bitmask the runtime uses to decide which parts of a
// vnode need re-diffing. The generator emits the numeric value followed by
// a comment with the symbolic names.
type PatchFlags int32

const (
	PatchFlagText          PatchFlags = 1
	PatchFlagClass         PatchFlags = 1 << 1
	PatchFlagStyle         PatchFlags = 1 << 2
	PatchFlagProps         PatchFlags = 1 << 3
	PatchFlagFullProps     PatchFlags = 1 << 4
	PatchFlagHydrateEvents PatchFlags = 1 << 5
	PatchFlagStableFrag    PatchFlags = 1 << 6
	PatchFlagKeyedFrag     PatchFlags = 1 << 7
	PatchFlagUnkeyedFrag   PatchFlags = 1 << 8
	PatchFlagNeedPatch     PatchFlags = 1 << 9
	PatchFlagDynamicSlots  PatchFlags = 1 << 10

	PatchFlagHoisted PatchFlags = -1
	PatchFlagBail    PatchFlags = -2
)

var patchFlagNames = []struct {
	flag PatchFlags
	name string
}{
	{PatchFlagText, "TEXT"},
	{PatchFlagClass, "CLASS"},
	{PatchFlagStyle, "STYLE"},
	{PatchFlagProps, "PROPS"},
	{PatchFlagFullProps, "FULL_PROPS"},
	{PatchFlagHydrateEvents, "HYDRATE_EVENTS"},
	{PatchFlagStableFrag, "STABLE_FRAGMENT"},
	{PatchFlagKeyedFrag, "KEYED_FRAGMENT"},
	{PatchFlagUnkeyedFrag, "UNKEYED_FRAGMENT"},
	{PatchFlagNeedPatch, "NEED_PATCH"},
	{PatchFlagDynamicSlots, "DYNAMIC_SLOTS"},
}

// String renders the symbolic names joined with ", ", matching the comment
// format the generator emits next to the numeric value.
func (f PatchFlags) String() string {
	switch f {
	case PatchFlagHoisted:
		return "HOISTED"
	case PatchFlagBail:
		return "BAIL"
	case 0:
		return ""
	}
	var names []string
	for _, entry := range patchFlagNames {
		if f&entry.flag != 0 {
			names = append(names, entry.name)
		}
	}
	return strings.Join(names, ", ")
}
