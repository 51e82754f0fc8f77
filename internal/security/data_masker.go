package security

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	emailValueRe = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	cardValueRe  = regexp.MustCompile(`\b(?:\d[ -]?){13,16}\b`)
	phoneValueRe = regexp.MustCompile(`\+?\d[\d\s().-]{8,}\d`)
	secretRe     = regexp.MustCompile(`(?i)\b(password|secret|token|api[_ ]?key)\s*[:=]\s*\S+`)
)

// DataMasker masks personal values in free text before it is written to logs.
// Prompts and model answers are logged as previews, and a user may paste
// anything into a chat.
type DataMasker struct {
	maxPreview int
}

// NewDataMasker returns a masker whose Preview output is cut to maxPreview
// runes; zero keeps the full text.
func NewDataMasker(maxPreview int) *DataMasker {
	return &DataMasker{maxPreview: maxPreview}
}

// Mask replaces emails, card numbers, phone numbers and inline secrets.
func (m *DataMasker) Mask(text string) string {
	text = secretRe.ReplaceAllStringFunc(text, func(s string) string {
		key := secretRe.FindStringSubmatch(s)[1]
		return key + "=***"
	})
	text = emailValueRe.ReplaceAllStringFunc(text, maskEmail)
	// Cards before phones; a card number also looks like a long phone number.
	text = cardValueRe.ReplaceAllStringFunc(text, maskCreditCard)
	text = phoneValueRe.ReplaceAllStringFunc(text, maskPhone)
	return text
}

// Preview masks text and truncates it for log lines.
func (m *DataMasker) Preview(text string) string {
	masked := m.Mask(text)
	if m.maxPreview <= 0 {
		return masked
	}
	r := []rune(masked)
	if len(r) <= m.maxPreview {
		return masked
	}
	return string(r[:m.maxPreview]) + "..."
}

// maskEmail: "john.doe@example.com" → "jo***@***.com"
func maskEmail(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return "***"
	}
	local := parts[0]
	domain := parts[1]

	visible := 2
	if len(local) < visible {
		visible = len(local)
	}
	maskedLocal := local[:visible] + "***"

	domainParts := strings.Split(domain, ".")
	ext := domainParts[len(domainParts)-1]
	return fmt.Sprintf("%s@***.%s", maskedLocal, ext)
}

// maskPhone: any phone → "***-***-1234" (show last 4)
func maskPhone(phone string) string {
	digits := onlyDigits(phone)
	if len(digits) < 4 {
		return "***-***-****"
	}
	return "***-***-" + digits[len(digits)-4:]
}

// maskCreditCard: "4111111111111111" → "****-****-****-1111"
func maskCreditCard(cc string) string {
	digits := onlyDigits(cc)
	if len(digits) < 4 {
		return "****-****-****-****"
	}
	return "****-****-****-" + digits[len(digits)-4:]
}

func onlyDigits(s string) string {
	var b strings.Builder
	for _, c := range s {
		if c >= '0' && c <= '9' {
			b.WriteRune(c)
		}
	}
	return b.String()
}
