package service

import "strings"

// NormalizeUserID lowercases an identifier and drops everything that is not a letter or digit,
// so "Ash Ketchum" and "ashketchum" name the same account.
func NormalizeUserID(id string) string {
	var b strings.Builder
	b.Grow(len(id))
	for _, r := range strings.ToLower(id) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
