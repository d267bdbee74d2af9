// Package classifier buckets free-text issue notes into category labels.
//
// Two backends implement core.Classifier: Keyword, an offline rule table,
// and GenAI, which asks a Gemini model to pick one of the same labels. The
// server wraps whichever is configured in a Handle so it is built once, on
// first use, and shared by every request.
package classifier

import (
	"context"
	"strings"

	"github.com/JonMunkholm/moderation/internal/core"
)

// FallbackLabel is assigned when no rule matches.
const FallbackLabel = "Other"

// DefaultRules cover the issue notes moderators usually write.
func DefaultRules() []core.CategoryRule {
	return []core.CategoryRule{
		{Label: "Academic Integrity", Keywords: []string{"plagiar", "collusion", "misconduct", "copied", "cheat", "ai-generated", "ai generated"}},
		{Label: "Deadlines", Keywords: []string{"late", "deadline", "extension", "overdue"}},
		{Label: "Marking", Keywords: []string{"mark", "grade", "grading", "rubric", "feedback", "moderat"}},
		{Label: "Assessment Design", Keywords: []string{"brief", "question", "exam paper", "learning outcome", "assessment design", "ambigu"}},
		{Label: "Attendance", Keywords: []string{"attendance", "absent", "absence", "engagement"}},
		{Label: "Administration", Keywords: []string{"missing", "paperwork", "upload", "sample", "record", "cover sheet"}},
	}
}

// Keyword classifies by case-insensitive substring match. Rules are tried in
// order and the first rule with a matching keyword wins.
type Keyword struct {
	rules    []core.CategoryRule
	fallback string
}

// NewKeyword builds a Keyword classifier. An empty rule set selects
// DefaultRules and an empty fallback selects FallbackLabel.
func NewKeyword(rules []core.CategoryRule, fallback string) *Keyword {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	if fallback == "" {
		fallback = FallbackLabel
	}

	normalized := make([]core.CategoryRule, len(rules))
	for i, r := range rules {
		kws := make([]string, 0, len(r.Keywords))
		for _, kw := range r.Keywords {
			if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
				kws = append(kws, kw)
			}
		}
		normalized[i] = core.CategoryRule{Label: r.Label, Keywords: kws}
	}

	return &Keyword{rules: normalized, fallback: fallback}
}

// Classify implements core.Classifier. It never fails.
func (k *Keyword) Classify(_ context.Context, text string) (string, error) {
	lower := strings.ToLower(text)
	for _, r := range k.rules {
		for _, kw := range r.Keywords {
			if strings.Contains(lower, kw) {
				return r.Label, nil
			}
		}
	}
	return k.fallback, nil
}

// Labels returns every label Classify can produce, fallback last.
func (k *Keyword) Labels() []string {
	seen := make(map[string]bool, len(k.rules)+1)
	out := make([]string, 0, len(k.rules)+1)
	for _, r := range k.rules {
		if !seen[r.Label] {
			seen[r.Label] = true
			out = append(out, r.Label)
		}
	}
	if !seen[k.fallback] {
		out = append(out, k.fallback)
	}
	return out
}
