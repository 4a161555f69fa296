package security

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// RedactionToken replaces every matched prompt-injection phrase.
const RedactionToken = "[REMOVED]"

// SanitizationRule pairs a compiled pattern with the text that replaces its
// matches.
type SanitizationRule struct {
	Name    string
	Pattern *regexp.Regexp
	Token   string
}

// injectionRules is the declarative rule table. Every entry needs a full
// multi-word phrase or an exact marker; no rule fires on a bare keyword, so
// "systemic", "previously" or "role as a developer" pass through untouched.
var injectionRules = []struct {
	name string
	expr string
}{
	{"instruction-override", `\b(?:ignore|disregard|forget|override)\s+(?:all\s+)?(?:previous|above|prior)\s+(?:instructions?|prompts?|context)\b`},
	{"role-reassignment", `\byou\s+are\s+now\s+(?:a|an)\b`},
	{"new-role", `\byour\s+new\s+(?:role|purpose|instructions?)\s+(?:is|are)\b`},
	{"turn-marker", `\b(?:system|assistant|human)\s*:`},
	{"bracket-system", `\[\[\s*system\s*\]\]`},
	{"angle-system", `<<\s*system\s*>>`},
	{"inst-token", `\[/?INST\]`},
	{"chatml-token", `<\|im_(?:start|end)\|>`},
}

// DefaultRules returns the compiled rule table. Patterns are case-insensitive.
func DefaultRules() []SanitizationRule {
	out := make([]SanitizationRule, 0, len(injectionRules))
	for _, r := range injectionRules {
		out = append(out, SanitizationRule{
			Name:    r.name,
			Pattern: regexp.MustCompile(`(?i)` + r.expr),
			Token:   RedactionToken,
		})
	}
	return out
}

// Sanitizer redacts prompt-injection phrasing from untrusted text. It is
// pattern based and makes no attempt at semantic detection.
type Sanitizer struct {
	rules []SanitizationRule
}

// NewSanitizer returns a Sanitizer over the given rules, or DefaultRules when
// none are given.
func NewSanitizer(rules ...SanitizationRule) *Sanitizer {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Sanitizer{rules: rules}
}

var defaultSanitizer = NewSanitizer()

// Sanitize redacts known injection phrasings with the default rules and trims
// the result. It never truncates.
func Sanitize(input string) string { return defaultSanitizer.Sanitize(input, 0) }

// SanitizeMax is Sanitize with the input first cut to maxLen characters.
// A maxLen <= 0 disables truncation.
func SanitizeMax(input string, maxLen int) string { return defaultSanitizer.Sanitize(input, maxLen) }

// Sanitize truncates input to maxLen runes (when maxLen > 0), replaces every
// match of every rule with the rule's token, then trims surrounding
// whitespace. Internal whitespace and line breaks are preserved.
func (s *Sanitizer) Sanitize(input string, maxLen int) string {
	out, _ := s.SanitizeCount(input, maxLen)
	return out
}

type span struct {
	start, end int
	token      string
}

// SanitizeCount is Sanitize that also reports how many redactions were made.
//
// All rules are evaluated against the same (truncated) input and their
// matches are merged, so one rule's replacement never feeds another rule.
func (s *Sanitizer) SanitizeCount(input string, maxLen int) (string, int) {
	if input == "" {
		return "", 0
	}
	if !utf8.ValidString(input) {
		input = strings.ToValidUTF8(input, "")
	}
	input = truncateRunes(input, maxLen)

	var spans []span
	for _, r := range s.rules {
		for _, loc := range r.Pattern.FindAllStringIndex(input, -1) {
			if loc[1] > loc[0] {
				spans = append(spans, span{start: loc[0], end: loc[1], token: r.Token})
			}
		}
	}
	if len(spans) == 0 {
		return strings.TrimSpace(input), 0
	}

	sort.Slice(spans, func(i, j int) bool {
		if spans[i].start != spans[j].start {
			return spans[i].start < spans[j].start
		}
		return spans[i].end > spans[j].end
	})

	var b strings.Builder
	b.Grow(len(input))
	pos, n := 0, 0
	for i := 0; i < len(spans); {
		cur := spans[i]
		i++
		// Overlapping matches collapse into one redaction.
		for i < len(spans) && spans[i].start < cur.end {
			if spans[i].end > cur.end {
				cur.end = spans[i].end
			}
			i++
		}
		b.WriteString(input[pos:cur.start])
		b.WriteString(cur.token)
		pos = cur.end
		n++
	}
	b.WriteString(input[pos:])
	return strings.TrimSpace(b.String()), n
}

// truncateRunes cuts s to at most n runes. n <= 0 means no limit.
func truncateRunes(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
