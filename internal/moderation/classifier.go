package moderation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// Verdict is the classifier output. Reason and Severity are nil for clean text.
type Verdict struct {
	Flagged  bool      `json:"flagged"`
	Reason   *string   `json:"reason"`
	Severity *Severity `json:"severity"`
}

func (v Verdict) Is(s Severity) bool {
	return v.Severity != nil && *v.Severity == s
}

// ReasonText returns the reason or an empty string.
func (v Verdict) ReasonText() string {
	if v.Reason == nil {
		return ""
	}
	return *v.Reason
}

var bannedKeywords = []string{
	"spam", "scam", "fraud", "hate", "violence", "abuse",
	"harassment", "explicit", "nsfw", "drugs", "illegal",
}

var suspiciousPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:https?://)?(?:bit\.ly|tinyurl|goo\.gl)/\w+`),
	regexp.MustCompile(`\b\d{16}\b`),
	regexp.MustCompile(`\b\d{3}[-.]?\d{3}[-.]?\d{4}\b`),
	regexp.MustCompile(`(?i)(buy|click|download|install|register)\s+(now|here|today)`),
}

const (
	capsRatioThreshold = 0.7
	capsMinLength      = 20
	repeatRunLength    = 6
)

func flagged(reason string, s Severity) Verdict {
	return Verdict{Flagged: true, Reason: &reason, Severity: &s}
}

// Classify runs the keyword, pattern, caps and repetition checks in that order
// and returns the first hit.
func Classify(text string) Verdict {
	lower := strings.ToLower(text)
	for _, kw := range bannedKeywords {
		if strings.Contains(lower, kw) {
			return flagged(fmt.Sprintf("Content contains restricted term: %q", kw), SeverityHigh)
		}
	}

	for _, p := range suspiciousPatterns {
		if p.MatchString(text) {
			return flagged("Content contains suspicious pattern (spam/phishing)", SeverityMedium)
		}
	}

	if n := utf8.RuneCountInString(text); n > capsMinLength {
		caps := 0
		for _, r := range text {
			if r >= 'A' && r <= 'Z' {
				caps++
			}
		}
		if float64(caps)/float64(n) > capsRatioThreshold {
			return flagged("Excessive use of capital letters", SeverityLow)
		}
	}

	if hasRepeatedRun(text, repeatRunLength) {
		return flagged("Suspicious repeated characters", SeverityLow)
	}

	return Verdict{}
}

// hasRepeatedRun reports whether any character occurs n or more times in a row.
// RE2 has no backreferences, so this is a linear scan.
func hasRepeatedRun(text string, n int) bool {
	var prev rune
	run := 0
	for i, r := range text {
		if i > 0 && r == prev {
			run++
		} else {
			run = 1
		}
		if run >= n {
			return true
		}
		prev = r
	}
	return false
}
