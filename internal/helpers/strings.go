package helpers

import "strings"

// Camelize converts a kebab-case name to camelCase ("foo-bar" => "fooBar").
func Camelize(name string) string {
	if !strings.ContainsRune(name, '-') {
		return name
	}
	var sb strings.Builder
	sb.Grow(len(name))
	upperNext := false
	for _, c := range name {
		switch {
		case c == '-':
			upperNext = true
		case upperNext:
			upperNext = false
			if c >= 'a' && c <= 'z' {
				c -= 'a' - 'A'
			}
			sb.WriteRune(c)
		default:
			sb.WriteRune(c)
		}
	}
	return sb.String()
}

// Capitalize upper-cases the first byte of an ASCII name.
func Capitalize(name string) string {
	if name == "" {
		return name
	}
	if c := name[0]; c >= 'a' && c <= 'z' {
		return string(c-('a'-'A')) + name[1:]
	}
	return name
}

// ToHandlerKey converts an event name to its prop key ("click" => "onClick",
// "update:modelValue" => "onUpdate:modelValue").
func ToHandlerKey(event string) string {
	return "on" + Capitalize(Camelize(event))
}

// IsValidJSIdentifier reports whether name can be used as an unquoted object
// key in the emitted code. This is deliberately ASCII-only: anything exotic
// simply gets quoted.
func IsValidJSIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c == '_', c == '$':
		case c >= '0' && c <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// IsSimpleIdentifier reports whether s is a bare identifier reference (no
// member access, no operators). Used to decide whether an expression can be
// treated as a plain method reference.
func IsSimpleIdentifier(s string) bool {
	return IsValidJSIdentifier(s)
}
