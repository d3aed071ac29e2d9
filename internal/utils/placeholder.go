package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"sort"
	"strings"
)

// Tokens are exact: no whitespace inside the braces.
var placeholderRE = regexp.MustCompile(`\{\{([A-Za-z0-9_]+)\}\}`)

// Substitute replaces every {{key}} in body with values[key]. Keys without a
// value are replaced by the empty string. Spaced forms such as {{ key }} are
// left as written.
func Substitute(body string, values map[string]string) string {
	return placeholderRE.ReplaceAllStringFunc(body, func(m string) string {
		match := placeholderRE.FindStringSubmatch(m)
		if len(match) != 2 {
			return ""
		}
		return values[match[1]]
	})
}

// Placeholders returns the distinct keys referenced by body, sorted.
func Placeholders(body string) []string {
	seen := map[string]struct{}{}
	for _, match := range placeholderRE.FindAllStringSubmatch(body, -1) {
		seen[match[1]] = struct{}{}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SortedKeys returns the keys of m in ascending order.
func SortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func NormalizeText(in string) string {
	s := strings.ReplaceAll(in, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], " \t")
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n") + "\n"
}

// HashRendered returns the hex sha256 of the normalized text, so line-ending
// differences do not change a signed contract's hash.
func HashRendered(rendered string) string {
	sum := sha256.Sum256([]byte(NormalizeText(rendered)))
	return hex.EncodeToString(sum[:])
}
