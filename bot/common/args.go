package common

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// SplitArgs splits comma separated arguments, trimming whitespace and dropping empties
func SplitArgs(args string) []string {
	var parts []string
	for _, p := range strings.Split(args, ",") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

// Fields splits on commas and whitespace, for sub-command style arguments like "start 10"
func Fields(args string) []string {
	return strings.FieldsFunc(args, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
}

// ParseAmount parses a positive whole amount. Thousand separators are accepted.
func ParseAmount(s string) (int64, error) {
	clean := strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	clean = strings.ReplaceAll(clean, "_", "")
	amount, err := strconv.ParseInt(clean, 10, 64)
	if err != nil || amount <= 0 {
		return 0, NewUserError("Amount must be a positive whole number.", fmt.Sprintf("invalid amount %q", s))
	}
	return amount, nil
}

// ParseRange parses "start-end" (1-indexed, inclusive). A bare number N means 1-N.
func ParseRange(s string, defaultStart, defaultEnd int) (int, int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultStart, defaultEnd, nil
	}

	invalid := NewUserError("Invalid range. Use start-end, e.g. 1-10.", fmt.Sprintf("invalid range %q", s))
	startStr, endStr, found := strings.Cut(s, "-")
	if !found {
		end, err := strconv.Atoi(s)
		if err != nil {
			return 0, 0, invalid
		}
		return 1, end, nil
	}

	start, err := strconv.Atoi(strings.TrimSpace(startStr))
	if err != nil {
		return 0, 0, invalid
	}
	end, err := strconv.Atoi(strings.TrimSpace(endStr))
	if err != nil {
		return 0, 0, invalid
	}
	return start, end, nil
}

// ParseCommand splits a chat message into command name and arguments when it starts with
// one of the prefixes. The name is lowercased.
func ParseCommand(text string, prefixes ...string) (name, args string, ok bool) {
	text = strings.TrimSpace(text)
	for _, prefix := range prefixes {
		if prefix == "" || !strings.HasPrefix(text, prefix) {
			continue
		}
		rest := strings.TrimPrefix(text, prefix)
		name, args, _ = strings.Cut(rest, " ")
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			return "", "", false
		}
		return name, strings.TrimSpace(args), true
	}
	return "", "", false
}
