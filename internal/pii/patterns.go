package pii

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/docveil/docveil/internal/logger"
	"go.uber.org/zap"
)

// DetectionRule binds a PII type to its candidate patterns and an optional
// structural validator. A candidate that fails validation is dropped
// silently, never reported.
type DetectionRule struct {
	Name     Type
	Patterns []*regexp.Regexp
	Validate func(match string) bool
}

var (
	emailPattern      = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	ssnPattern        = regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`)
	creditCardPattern = regexp.MustCompile(`\b\d{4}[\s-]?\d{4}[\s-]?\d{4}[\s-]?\d{4}\b`)
	urlPattern        = regexp.MustCompile("https?://[^\\s<>\"{}|\\\\^`\\[\\]]+")
	ipAddressPattern  = regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`)

	phonePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b\d{3}-\d{3}-\d{4}\b`),        // 123-456-7890
		regexp.MustCompile(`\b\(\d{3}\)\s*\d{3}-\d{4}\b`),  // (123) 456-7890
		regexp.MustCompile(`\b\d{10}\b`),                   // 1234567890
		regexp.MustCompile(`\b\d{3}\.\d{3}\.\d{4}\b`),      // 123.456.7890
		regexp.MustCompile(`\+\d{1,3}[\s-]?\d{3,4}[\s-]?\d{3,4}[\s-]?\d{3,4}\b`), // international
	}

	nonDigits = regexp.MustCompile(`\D`)
)

// StripNonDigits removes every non-digit rune from s.
func StripNonDigits(s string) string {
	return nonDigits.ReplaceAllString(s, "")
}

// ValidPhone reports whether the candidate has at least 10 digits once
// separators are stripped.
func ValidPhone(candidate string) bool {
	return len(StripNonDigits(candidate)) >= 10
}

// ValidCreditCard reports whether the candidate has exactly 16 digits once
// separators are stripped.
func ValidCreditCard(candidate string) bool {
	return len(StripNonDigits(candidate)) == 16
}

// ValidIPAddress reports whether every octet of a dotted quad parses in
// [0,255].
func ValidIPAddress(candidate string) bool {
	octets := strings.Split(candidate, ".")
	if len(octets) != 4 {
		return false
	}
	for _, octet := range octets {
		n, err := strconv.Atoi(octet)
		if err != nil || n < 0 || n > 255 {
			return false
		}
	}
	return true
}

// DefaultRules returns the pattern-matcher rule set covering structurally
// identifiable PII. Names, organizations, and the other semantic types are
// the recognizer's territory.
func DefaultRules() []DetectionRule {
	return []DetectionRule{
		{Name: TypeEmail, Patterns: []*regexp.Regexp{emailPattern}},
		{Name: TypePhone, Patterns: phonePatterns, Validate: ValidPhone},
		{Name: TypeSSN, Patterns: []*regexp.Regexp{ssnPattern}},
		{Name: TypeCreditCard, Patterns: []*regexp.Regexp{creditCardPattern}, Validate: ValidCreditCard},
		{Name: TypeURL, Patterns: []*regexp.Regexp{urlPattern}},
		{Name: TypeIPAddress, Patterns: []*regexp.Regexp{ipAddressPattern}, Validate: ValidIPAddress},
	}
}

// Matcher is the deterministic, full-text pattern detector. Stateless after
// construction and safe for concurrent use.
type Matcher struct {
	rules   []DetectionRule
	enabled map[Type]bool
	logger  *logger.Logger
}

// NewMatcher creates a pattern matcher with the given detectors enabled.
// The special name "all" enables every rule.
func NewMatcher(detectors []string, log *logger.Logger) (*Matcher, error) {
	m := &Matcher{
		rules:   DefaultRules(),
		enabled: make(map[Type]bool),
		logger:  log,
	}

	if err := m.configureDetectors(detectors); err != nil {
		return nil, fmt.Errorf("failed to configure detectors: %w", err)
	}

	log.Info("Pattern matcher initialized",
		zap.Int("total_rules", len(m.rules)),
		zap.Int("enabled_rules", m.countEnabledRules()),
	)

	return m, nil
}

// configureDetectors enables/disables rules based on configuration
func (m *Matcher) configureDetectors(detectors []string) error {
	for _, rule := range m.rules {
		m.enabled[rule.Name] = false
	}

	for _, detector := range detectors {
		if detector == "all" {
			for _, rule := range m.rules {
				m.enabled[rule.Name] = true
			}
			continue
		}

		found := false
		for _, rule := range m.rules {
			if string(rule.Name) == detector {
				m.enabled[rule.Name] = true
				found = true
				break
			}
		}

		if !found {
			return fmt.Errorf("unknown detector: %s", detector)
		}
	}

	return nil
}

// Detect scans the full text with every enabled rule and returns the
// candidates that survive structural validation.
func (m *Matcher) Detect(text string) []Item {
	var items []Item

	for _, rule := range m.rules {
		if !m.enabled[rule.Name] {
			continue
		}

		for _, pattern := range rule.Patterns {
			for _, match := range pattern.FindAllString(text, -1) {
				if rule.Validate != nil && !rule.Validate(match) {
					continue
				}
				items = append(items, Item{Type: rule.Name, Value: match})
			}
		}
	}

	if len(items) > 0 {
		m.logger.Debug("Pattern detection completed",
			zap.Int("candidates", len(items)),
		)
	}

	return items
}

// EnabledRules returns the names of enabled rules.
func (m *Matcher) EnabledRules() []string {
	var enabled []string
	for name, isEnabled := range m.enabled {
		if isEnabled {
			enabled = append(enabled, string(name))
		}
	}
	return enabled
}

// countEnabledRules returns the number of enabled detection rules
func (m *Matcher) countEnabledRules() int {
	count := 0
	for _, enabled := range m.enabled {
		if enabled {
			count++
		}
	}
	return count
}
