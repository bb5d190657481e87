package redis_client

import "strings"

var globEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

// EscapeGlob escapes the SCAN/KEYS glob metacharacters in s.
func EscapeGlob(s string) string {
	return globEscaper.Replace(s)
}

// PrefixPattern returns a MATCH pattern selecting exactly the keys that start
// with prefix.
func PrefixPattern(prefix string) string {
	return EscapeGlob(prefix) + "*"
}
