package sanitizer

import "strings"

// NormalizeEmail lowercases an address and consolidates consecutive dots
// in the local part, which cause delivery failures with some providers.
// Strings that don't look like an address are returned trimmed but
// otherwise untouched so validation can reject them with the original
// value intact.
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	email = strings.ToLower(email)

	local, domain, ok := strings.Cut(email, "@")
	if !ok || strings.Contains(domain, "@") {
		return email
	}

	local = dotRegex.ReplaceAllString(local, ".")
	local = strings.Trim(local, ".")

	return local + "@" + domain
}

// ExtractEmailDomain returns the lowercased domain part of an address,
// or an empty string when the input is not an address.
func ExtractEmailDomain(email string) string {
	email = strings.TrimSpace(email)
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" || strings.Contains(domain, "@") {
		return ""
	}
	return strings.ToLower(domain)
}
