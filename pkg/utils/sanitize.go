package utils

import (
	"html"
	"regexp"
	"strings"
	"unicode"
)

var htmlTagPattern = regexp.MustCompile(`<[^>]*>`)

// SanitizeString trims whitespace and escapes HTML entities.
func SanitizeString(input string) string {
	return html.EscapeString(strings.TrimSpace(input))
}

// NormalizeEmail lower-cases and trims an email so that lookups and the
// uniqueness constraint agree on one spelling.
func NormalizeEmail(email string) string {
	email = strings.ToLower(strings.TrimSpace(email))
	email = stripHTML(email)
	return removeControlChars(email)
}

// SanitizePhone keeps digits and a leading plus sign.
func SanitizePhone(phone string) string {
	phone = stripHTML(strings.TrimSpace(phone))

	var result strings.Builder
	for i, r := range phone {
		if unicode.IsDigit(r) || (r == '+' && i == 0) {
			result.WriteRune(r)
		}
	}

	return result.String()
}

// SanitizeText escapes multi-line text, dropping control characters other
// than newlines and tabs.
func SanitizeText(input string) string {
	escaped := html.EscapeString(strings.TrimSpace(input))

	var result strings.Builder
	for _, r := range escaped {
		if unicode.IsPrint(r) || r == '\n' || r == '\t' || r == '\r' {
			result.WriteRune(r)
		}
	}

	return result.String()
}

func stripHTML(input string) string {
	return htmlTagPattern.ReplaceAllString(input, "")
}

func removeControlChars(input string) string {
	var result strings.Builder
	for _, r := range input {
		if unicode.IsPrint(r) {
			result.WriteRune(r)
		}
	}
	return result.String()
}
