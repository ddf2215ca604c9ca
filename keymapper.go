package prefixstore

import "strings"

// Separator divides directory levels inside logical names and keys.
const Separator = "/"

// KeyMapper converts logical names to storage keys under a single prefix and
// back. The zero value maps names verbatim.
type KeyMapper struct {
	prefix string
}

// NewKeyMapper creates a KeyMapper for the given prefix after normalizing it
func NewKeyMapper(prefix string) KeyMapper {
	return KeyMapper{prefix: NormalizePrefix(prefix)}
}

// NormalizePrefix returns "" or the prefix ending with exactly one separator.
// Nothing else about the prefix is rewritten.
func NormalizePrefix(prefix string) string {
	return withTrailingSeparator(prefix)
}

// Prefix returns the normalized prefix
func (m KeyMapper) Prefix() string {
	return m.prefix
}

// MakePrefix returns the listing prefix for dir. ok is false when the
// combined prefix is empty, meaning the whole bucket is in scope.
func (m KeyMapper) MakePrefix(dir string) (prefix string, ok bool) {
	prefix = withTrailingSeparator(m.prefix + dir)
	return prefix, prefix != ""
}

// MakeKey returns the storage key for an object name. Object names are leaf
// keys so no separator normalization is applied.
func (m KeyMapper) MakeKey(name string) string {
	if m.prefix == "" {
		return name
	}
	return m.prefix + name
}

// StripPrefix removes the listing prefix for dir from fullKey. ok is false
// when fullKey lies outside that prefix.
func (m KeyMapper) StripPrefix(dir, fullKey string) (name string, ok bool) {
	prefix, scoped := m.MakePrefix(dir)
	if !scoped {
		return fullKey, true
	}
	if !strings.HasPrefix(fullKey, prefix) {
		return "", false
	}
	return fullKey[len(prefix):], true
}

// withTrailingSeparator collapses any run of trailing separators into one.
// Only the empty string maps to "".
func withTrailingSeparator(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimRight(s, Separator) + Separator
}
