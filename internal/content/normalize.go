package content

import (
	"path"
	"strings"
)

// Normalize canonicalizes a content reference for loading and matching:
// backslashes become slashes, the path is cleaned, and a bare "." collapses
// to the empty reference. Case is preserved; matching is exact.
func Normalize(ref string) string {
	ref = strings.TrimSpace(ref)
	ref = strings.ReplaceAll(ref, "\\", "/")
	ref = path.Clean(ref)
	if ref == "." {
		return ""
	}
	return ref
}

// FallbackMD rewrites a trailing "/md" path segment to a ".md" extension,
// the one irregularity the resolver is allowed to correct. Reports whether
// a rewrite happened.
func FallbackMD(ref string) (string, bool) {
	if strings.HasSuffix(ref, "/md") {
		return strings.TrimSuffix(ref, "/md") + ".md", true
	}
	return ref, false
}

// EffectiveRef is the matching form of a reference: normalized, with the
// /md fallback applied when the fallback is enabled. The link graph and the
// validator compare references in this form so that graph matching follows
// exactly the rule resolution used.
func EffectiveRef(ref string, fallbackEnabled bool) string {
	n := Normalize(ref)
	if fallbackEnabled {
		n, _ = FallbackMD(n)
	}
	return n
}

// EscapesRoot reports whether a normalized reference points outside the
// content root.
func EscapesRoot(ref string) bool {
	return ref == ".." || strings.HasPrefix(ref, "../")
}
