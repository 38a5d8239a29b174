package errors

import (
	"strings"
	"unicode"
)

// maxNameLength bounds artifact names and versions, both of which become
// directory names under the install base.
const maxNameLength = 256

// ValidatePackageName validates an artifact name for safety and correctness.
// Names become path components of the install location, so anything that
// could be used for path traversal is rejected:
//   - No empty names
//   - No control characters
//   - No path separators or traversal sequences
//   - Maximum length of 256 characters
func ValidatePackageName(name string) error {
	return validateComponent(ErrCodeInvalidPackage, "package name", name)
}

// ValidateVersion validates a version string with the same rules as names.
func ValidateVersion(version string) error {
	return validateComponent(ErrCodeInvalidPackage, "version", version)
}

// ValidateFileName validates a download file name. It must be a simple
// basename without path components.
func ValidateFileName(name string) error {
	return validateComponent(ErrCodeInvalidPath, "file name", name)
}

func validateComponent(code Code, what, s string) error {
	if s == "" {
		return New(code, "%s cannot be empty", what)
	}

	if len(s) > maxNameLength {
		return New(code, "%s too long (max %d characters)", what, maxNameLength)
	}

	for _, r := range s {
		if unicode.IsControl(r) {
			return New(code, "%s contains invalid control characters", what)
		}
	}

	if s == "." || s == ".." {
		return New(code, "%s cannot be %q", what, s)
	}

	dangerousPatterns := []string{
		"..",   // Parent directory
		"/",    // Path separator
		"\x00", // Null byte
		"\\",   // Backslash (Windows path)
	}
	for _, pattern := range dangerousPatterns {
		if strings.Contains(s, pattern) {
			return New(code, "%s contains invalid characters: %q", what, pattern)
		}
	}

	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	// Simple scheme validation without full URL parsing
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}
