package core

import "strings"

// noneSentinel is the literal users type to say a module had no issues.
const noneSentinel = "none"

// IssueStatusOf classifies a raw Issues cell. A cell is NoIssue when it is
// empty or, trimmed and lowercased, equals "none". Anything else is HasIssue,
// including a cell holding only whitespace.
func IssueStatusOf(raw string) IssueStatus {
	if raw == "" || strings.ToLower(strings.TrimSpace(raw)) == noneSentinel {
		return NoIssue
	}
	return HasIssue
}
