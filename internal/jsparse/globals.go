package jsparse

// Identifiers that resolve globally at runtime and are never prefixed or
// reported as undefined references. "$event" is the implicit parameter of
// inline event handlers.
var globalAllowlist = map[string]bool{
	"true": true, "false": true, "null": true, "undefined": true,
	"this": true, "NaN": true, "Infinity": true,

	"isFinite": true, "isNaN": true, "parseFloat": true, "parseInt": true,
	"decodeURI": true, "decodeURIComponent": true,
	"encodeURI": true, "encodeURIComponent": true,

	"Array": true, "ArrayBuffer": true, "BigInt": true, "Boolean": true,
	"Date": true, "Error": true, "Intl": true, "JSON": true, "Map": true,
	"Math": true, "Number": true, "Object": true, "Promise": true,
	"Proxy": true, "Reflect": true, "RegExp": true, "Set": true,
	"String": true, "Symbol": true, "WeakMap": true, "WeakSet": true,

	"console": true,

	"$event": true,
}

// IsGlobalAllowed reports whether name is on the fixed JS global allowlist.
func IsGlobalAllowed(name string) bool {
	return globalAllowlist[name]
}
