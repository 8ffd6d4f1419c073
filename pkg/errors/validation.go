package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// elementIDRegex matches element identifiers as emitted by the parsers:
// a letter or digit followed by letters, digits, underscores or hyphens.
var elementIDRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)

// ValidateElementID validates a process-model element identifier.
//
// The validation rules are intentionally conservative:
//   - No empty IDs
//   - No control characters
//   - Maximum length of 256 characters
//   - Letters, digits, underscore and hyphen only
func ValidateElementID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidModel, "element ID cannot be empty")
	}

	if len(id) > 256 {
		return New(ErrCodeInvalidModel, "element ID too long (max 256 characters)")
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidModel, "element ID contains invalid control characters")
		}
	}

	if !elementIDRegex.MatchString(id) {
		return New(ErrCodeInvalidModel, "invalid element ID: %q", id)
	}

	return nil
}

// ValidateSessionID validates a session identifier before it touches the
// session store. Session IDs are UUID-shaped but the store does not
// depend on that; this only blocks path and key injection.
func ValidateSessionID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "session ID cannot be empty")
	}

	if len(id) > 128 {
		return New(ErrCodeInvalidInput, "session ID too long (max 128 characters)")
	}

	for _, pattern := range []string{"..", "/", "\\", "\x00"} {
		if strings.Contains(id, pattern) {
			return New(ErrCodeInvalidInput, "session ID contains invalid characters: %q", pattern)
		}
	}

	return nil
}

// ValidatePath validates a file path for safety.
// It prevents path traversal attacks and ensures reasonable path length.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No absolute paths (must be relative)
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	// Check for null bytes and control characters
	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	// Must not be absolute path
	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidPath, "path must be relative (cannot start with /)")
	}

	// Check for path traversal
	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	}

	// No backslashes (potential Windows path injection)
	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}

	return nil
}

// ValidateExportFormat validates a requested export format name.
func ValidateExportFormat(format string, supported []string) error {
	if format == "" {
		return New(ErrCodeInvalidFormat, "export format cannot be empty")
	}
	for _, s := range supported {
		if format == s {
			return nil
		}
	}
	return New(ErrCodeInvalidFormat, "unsupported export format: %q (supported: %s)",
		format, strings.Join(supported, ", "))
}
