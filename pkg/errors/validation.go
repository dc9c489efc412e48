package errors

import (
	"slices"
	"strings"
	"unicode"
)

const maxLabelLength = 256

// ValidateLabel checks a vertex label before it reaches a renderer or an
// HTTP response. Labels must be non-empty, at most 256 bytes and free of
// control characters.
func ValidateLabel(label string) error {
	if label == "" {
		return New(ErrCodeInvalidGraph, "vertex label cannot be empty")
	}
	if len(label) > maxLabelLength {
		return New(ErrCodeInvalidGraph, "vertex label too long (max %d characters)", maxLabelLength)
	}
	for _, r := range label {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidGraph, "vertex label %q contains control characters", label)
		}
	}
	return nil
}

// ValidateFormat checks that format is one of allowed, ignoring case.
func ValidateFormat(format string, allowed ...string) error {
	if slices.Contains(allowed, strings.ToLower(format)) {
		return nil
	}
	return New(ErrCodeInvalidFormat, "unsupported format %q (want one of %s)", format, strings.Join(allowed, ", "))
}

// ValidatePath validates an output path for safety.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No path traversal sequences (..)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	for _, part := range strings.FieldsFunc(path, func(r rune) bool { return r == '/' || r == '\\' }) {
		if part == ".." {
			return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
		}
	}
	return nil
}
