package plan

import (
	"fmt"
	"regexp"
)

var urlPattern = regexp.MustCompile(`(?i)^https?://` +
	`(?:(?:[A-Z0-9](?:[A-Z0-9-]{0,61}[A-Z0-9])?\.)+[A-Z]{2,6}\.?|` +
	`localhost|` +
	`\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3})` +
	`(?::\d+)?` +
	`(?:/?|[/?]\S+)$`)

// InvalidURLError is returned for URLs rejected before any network access.
type InvalidURLError struct {
	URL string
}

func (e *InvalidURLError) Error() string {
	return fmt.Sprintf("Invalid URL: %s", e.URL)
}

// ValidateURL accepts http(s) URLs whose host is a domain, localhost or an
// IPv4 address, with optional port and path.
func ValidateURL(raw string) error {
	if !urlPattern.MatchString(raw) {
		return &InvalidURLError{URL: raw}
	}
	return nil
}

// NeedsURLGuard reports whether function fetches its first argument.
func NeedsURLGuard(function string) bool {
	return function == "make_get_request" || function == "fetch_article"
}
