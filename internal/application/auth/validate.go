package auth

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxNameLength is measured in characters, not bytes.
const MaxNameLength = 100

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidateEmail trims and lowercases raw. On failure the returned code is non-empty.
func ValidateEmail(raw string) (string, ErrorCode) {
	email := normalizeTarget(raw)
	if email == "" {
		return "", CodeEmailEmpty
	}
	if !emailPattern.MatchString(email) {
		return "", CodeEmailInvalid
	}
	return email, ""
}

// normalizeTarget brings a target to the form SendCode stores it in.
func normalizeTarget(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// ValidateName trims raw and bounds its length.
func ValidateName(raw string) (string, ErrorCode) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", CodeNameEmpty
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return "", CodeNameTooLong
	}
	return name, ""
}
