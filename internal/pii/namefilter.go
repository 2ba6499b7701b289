package pii

import (
	"regexp"
	"strings"
)

// NamePolicy decides whether a person-labeled span from the recognizer is a
// plausible person name. General-purpose NER over-generates person-like
// spans from titles, addresses, and calendar references; the policy is the
// place where that noise gets rejected.
type NamePolicy interface {
	LikelyPerson(name string) bool
}

// defaultNamePolicy rejects known non-name phrases, title/suffix/street/month
// words, and spans whose word shape falls outside the normal range for a
// person name.
type defaultNamePolicy struct {
	exclusions map[string]bool
	rejections []*regexp.Regexp
}

// nameExclusions holds common multi-word phrases NER models mistake for
// person names.
var nameExclusions = []string{
	"united states", "new york", "los angeles", "san francisco",
	"machine learning", "data science", "artificial intelligence",
	"google drive", "microsoft office", "adobe acrobat", "dear sir",
	"dear madam", "yours truly", "best regards", "thank you",
	"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday",
}

var nameRejections = []*regexp.Regexp{
	regexp.MustCompile(`\b(mr|mrs|ms|dr|prof|sir|madam)\b`),
	regexp.MustCompile(`\b(inc|llc|corp|ltd|co)\b`),
	regexp.MustCompile(`\b(street|avenue|road|drive|lane)\b`),
	regexp.MustCompile(`\b(monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`),
	regexp.MustCompile(`\b(january|february|march|april|may|june|july|august|september|october|november|december)\b`),
}

// DefaultNamePolicy returns the standard name-validity policy.
func DefaultNamePolicy() NamePolicy {
	exclusions := make(map[string]bool, len(nameExclusions))
	for _, phrase := range nameExclusions {
		exclusions[phrase] = true
	}
	return &defaultNamePolicy{
		exclusions: exclusions,
		rejections: nameRejections,
	}
}

func (p *defaultNamePolicy) LikelyPerson(name string) bool {
	lower := strings.ToLower(name)

	if p.exclusions[lower] {
		return false
	}

	for _, pattern := range p.rejections {
		if pattern.MatchString(lower) {
			return false
		}
	}

	words := strings.Fields(name)
	if len(words) < 2 || len(words) > 4 {
		return false
	}

	for _, word := range words {
		if len(word) < 2 || len(word) > 20 {
			return false
		}
	}

	return true
}
