package domain

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	phonePattern        = regexp.MustCompile(`\+7\d{10}`)
	emailPattern        = regexp.MustCompile(`sir\+(\d+)@outluk\.ru`)
	emailLocalPattern   = regexp.MustCompile(`sir\+(\d+)@`)
	markedAmountPattern = regexp.MustCompile(`!(\d+)|(\d+)!`)
	nonDigitPattern     = regexp.MustCompile(`[^\d\s]`)
)

// Extract maps raw message text to zero or more typed field values. It is a
// pure function: each field kind is matched independently and a message may
// carry any subset of them.
func Extract(text string) PartialFields {
	var fields PartialFields

	if phone, ok := ExtractPhone(text); ok {
		fields.Phone = &phone
	}
	if amount, ok := ExtractAmount(text); ok {
		fields.Amount = &amount
	}
	if bank, ok := ExtractBank(text); ok {
		fields.Bank = &bank
	}
	if email, ok := ExtractEmail(text); ok {
		fields.Email = &email
	}

	return fields
}

// ExtractPhone matches a country-code prefixed ten-digit number. The first
// match wins when a message contains several.
func ExtractPhone(text string) (string, bool) {
	match := phonePattern.FindString(text)
	return match, match != ""
}

// ExtractAmount matches a bare integer optionally wrapped in a single leading
// or trailing marker. Marked candidates are preferred and the last marked
// match wins; bare candidates fall back to the first valid digit run. A
// candidate is rejected when the message contains an email-like token whose
// numeric local-part suffix equals the candidate digits, since those digits
// belong to the email, not an amount. Digits consumed by a phone match are
// not amount candidates either.
func ExtractAmount(text string) (int64, bool) {
	taken := emailDigits(text)
	text = phonePattern.ReplaceAllString(text, " ")

	if matches := markedAmountPattern.FindAllStringSubmatch(text, -1); len(matches) > 0 {
		last := matches[len(matches)-1]
		digits := last[1]
		if digits == "" {
			digits = last[2]
		}
		if amount, ok := parseAmount(digits, taken); ok {
			return amount, true
		}
	}

	plain := nonDigitPattern.ReplaceAllString(text, " ")
	for _, token := range strings.Fields(plain) {
		if amount, ok := parseAmount(token, taken); ok {
			return amount, true
		}
	}

	return 0, false
}

// ExtractBank tests the message against the recognized bank literals.
// Registry order decides when literals of several banks are present.
func ExtractBank(text string) (BankTag, bool) {
	for _, entry := range bankRegistry {
		for _, literal := range entry.Literals {
			if strings.Contains(text, literal) {
				return entry.Tag, true
			}
		}
	}
	return "", false
}

// ExtractEmail matches the fixed numeric-local-part receipt address.
func ExtractEmail(text string) (string, bool) {
	match := emailPattern.FindString(text)
	return match, match != ""
}

func parseAmount(digits string, taken map[string]struct{}) (int64, bool) {
	if digits == "" {
		return 0, false
	}
	if _, collides := taken[digits]; collides {
		return 0, false
	}
	amount, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || amount <= 0 {
		return 0, false
	}
	return amount, true
}

func emailDigits(text string) map[string]struct{} {
	matches := emailLocalPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}

	taken := make(map[string]struct{}, len(matches))
	for _, match := range matches {
		taken[match[1]] = struct{}{}
	}
	return taken
}
