package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidateNodeID validates a node identifier taken from user input
// (URL path parameters, CLI flags).
//
// IDs are compared as opaque tokens, so the rules only reject values that
// could not have come from a document:
//   - No empty IDs
//   - No control characters or null bytes
//   - Maximum length of 128 characters
func ValidateNodeID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "node id cannot be empty")
	}

	const maxIDLength = 128
	if len(id) > maxIDLength {
		return New(ErrCodeInvalidInput, "node id too long (max %d characters)", maxIDLength)
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "node id contains invalid control characters")
		}
	}

	return nil
}

// treeNameRegex matches names usable as database keys.
var treeNameRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidateTreeName validates the name under which a tree is stored in a
// database source (MongoDB document ID, SQLite tree column).
func ValidateTreeName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidSource, "tree name cannot be empty")
	}
	if len(name) > 256 {
		return New(ErrCodeInvalidSource, "tree name too long (max 256 characters)")
	}
	if !treeNameRegex.MatchString(name) {
		return New(ErrCodeInvalidSource, "invalid tree name: %q", name)
	}
	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}
