package security

import (
	"regexp"
	"strings"
)

// piiPatterns catch personal data typed straight into a prompt, where no
// keyword gives it away.
var piiPatterns = map[string]*regexp.Regexp{
	"email":       regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`),
	"card number": regexp.MustCompile(`\b(?:\d[ -]?){13,16}\b`),
}

// piiPatternOrder fixes the reporting order of piiPatterns.
var piiPatternOrder = []string{"email", "card number"}

// PIIDetector checks prompts for sensitive PII keywords and values
type PIIDetector struct {
	keywords []string
}

func NewPIIDetector(keywords []string) *PIIDetector {
	lower := make([]string, 0, len(keywords))
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			lower = append(lower, k)
		}
	}
	return &PIIDetector{keywords: lower}
}

// Detect returns true and what matched if PII is found in text. Keywords are
// checked before value patterns.
func (d *PIIDetector) Detect(text string) (bool, string) {
	lower := strings.ToLower(text)
	for _, kw := range d.keywords {
		if strings.Contains(lower, kw) {
			return true, kw
		}
	}
	for _, name := range piiPatternOrder {
		if piiPatterns[name].MatchString(text) {
			return true, name
		}
	}
	return false, ""
}
