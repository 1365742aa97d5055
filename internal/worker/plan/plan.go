// Package plan derives a Reddit search plan (query + target subreddits) from
// an event's metadata. It is a pure function of the event and the static
// category table; no network or storage access.
package plan

import (
	"strings"

	"github.com/campuspulse/social-pulse/internal/worker/domain"
)

const (
	maxKeywords      = 8
	fallbackKeywords = 5
)

// Plan is the search plan for one event.
type Plan struct {
	Query   string
	Targets []string
}

// categoryTargets maps a normalized tag (lower-case, spaces as underscores) to
// the subreddits where discussion of that category tends to land. Used only
// when the event carries no explicit subreddit list.
var categoryTargets = map[string][]string{
	"hackathon":        {"programming", "technology"},
	"ai":               {"artificial", "MachineLearning"},
	"machine_learning": {"MachineLearning", "learnmachinelearning"},
	"robotics":         {"robotics", "engineering"},
	"career_fair":      {"jobs", "cscareerquestions"},
	"music":            {"Music", "WeAreTheMusicMakers"},
	"sports":           {"sports", "CollegeBasketball"},
	"gaming":           {"gaming", "esports"},
	"startup":          {"startups", "Entrepreneur"},
	"research":         {"AskAcademia", "GradSchool"},
}

// fallbackTargets is used only when the event has no explicit subreddits and
// none of its tags map to a category.
var fallbackTargets = []string{"college", "university", "technology", "CampusLife"}

// Build computes the search plan for an event. ok is false when no keywords
// can be derived; such events are skipped, not errored.
func Build(event domain.Event) (Plan, bool) {
	keywords := deriveKeywords(event)
	if len(keywords) == 0 {
		return Plan{}, false
	}

	return Plan{
		Query:   strings.Join(keywords, " OR "),
		Targets: deriveTargets(event),
	}, true
}

// deriveKeywords takes tags first (original casing), then lower-cased title
// words, deduplicates case-insensitively keeping the first-seen form, and caps
// the result. If nothing survives, the first title words are the fallback.
func deriveKeywords(event domain.Event) []string {
	candidates := make([]string, 0, len(event.Tags)+8)
	candidates = append(candidates, event.Tags...)

	titleWords := strings.Fields(strings.ToLower(event.Title))
	candidates = append(candidates, titleWords...)

	keywords := dedupeFold(candidates, maxKeywords)
	if len(keywords) == 0 {
		keywords = titleWords
		if len(keywords) > fallbackKeywords {
			keywords = keywords[:fallbackKeywords]
		}
	}

	return keywords
}

// deriveTargets resolves targets in priority order: explicit subreddits, then
// tag categories, then the fixed fallback list.
func deriveTargets(event domain.Event) []string {
	if targets := dedupeFold(event.Subreddits, 0); len(targets) > 0 {
		return targets
	}

	var mapped []string
	for _, tag := range event.Tags {
		key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(tag)), " ", "_")
		mapped = append(mapped, categoryTargets[key]...)
	}
	if targets := dedupeFold(mapped, 0); len(targets) > 0 {
		return targets
	}

	return fallbackTargets
}

// dedupeFold removes case-insensitive duplicates and empty entries, preserving
// first-seen order and form. limit of 0 means unbounded.
func dedupeFold(items []string, limit int) []string {
	seen := make(map[string]struct{}, len(items))
	var out []string
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		key := strings.ToLower(item)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, item)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}
