package byzantium

import (
	"strconv"
	"strings"
)

// MaxNameBody is the maximum length of a canonical name's body (before the
// optional extension).
const MaxNameBody = 8

// MaxNameSuffix is the maximum length of a canonical name's extension.
const MaxNameSuffix = 3

// maxNameSuffixAttempts bounds the "~N" disambiguation loop; beyond this the
// name is rejected rather than assigned, matching the original server's
// fallthrough when all thirty slots are exhausted.
const maxNameSuffixAttempts = 30

var reservedNames = map[string]bool{
	"ALL":    true,
	"ANY":    true,
	"SERVER": true,
}

// IsReserved reports whether name is one of the reserved broadcast keywords.
func IsReserved(name string) bool {
	return reservedNames[name]
}

// Canonicalize maps a raw, user-supplied label to a canonical short name
// (≤12 bytes, uppercase, alphanumeric + one optional '.' extension),
// disambiguating against isTaken with a "~N" suffix on collision.
//
// isTaken reports whether a candidate name is already in use by a joined
// slot. Canonicalize returns ok=false if the label canonicalizes to nothing
// usable (empty, reserved) or if every "~1".."~30" alternative is taken.
func Canonicalize(raw string, isTaken func(name string) bool) (name string, ok bool) {
	body, suffix := splitCanonical(raw)
	if body == "" && suffix == "" {
		return "", false
	}

	full := assemble(truncate(body, MaxNameBody), truncate(suffix, MaxNameSuffix))
	if full == "" || IsReserved(full) {
		return "", false
	}
	if !isTaken(full) {
		return full, true
	}

	sfx := truncate(suffix, MaxNameSuffix)
	for j := 1; j <= maxNameSuffixAttempts; j++ {
		bodyLimit := MaxNameBody - len(strconv.Itoa(j))
		tentative := truncate(body, bodyLimit) + "~" + strconv.Itoa(j)
		tentative = assemble(tentative, sfx)
		if !isTaken(tentative) {
			return tentative, true
		}
	}
	return "", false
}

// splitCanonical runs the character-filter, dot-collapse, and uppercase
// steps of canonicalization, returning the (untruncated) body and extension.
func splitCanonical(raw string) (body, suffix string) {
	var filtered strings.Builder
	filtered.Grow(len(raw))
	for _, r := range raw {
		if r == ' ' {
			continue
		}
		if isAlnum(r) || r == '.' {
			filtered.WriteRune(r)
		}
	}

	trimmed := strings.Trim(filtered.String(), ".")
	if trimmed == "" {
		return "", ""
	}

	parts := strings.Split(trimmed, ".")
	if len(parts) == 1 {
		body = parts[0]
	} else {
		body = strings.Join(parts[:len(parts)-1], "")
		suffix = parts[len(parts)-1]
	}
	return strings.ToUpper(body), strings.ToUpper(suffix)
}

func isAlnum(r rune) bool {
	return (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
}

func truncate(s string, n int) string {
	if n < 0 {
		return ""
	}
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func assemble(body, suffix string) string {
	if suffix == "" {
		return body
	}
	return body + "." + suffix
}
