package common

import (
	"fmt"
	"slices"
	"strings"

	"skillmatch/internal/errors"
)

// NormalizeOutputFormat canonicalizes a format flag value so "JSON" and
// " json " select the same formatter.
func NormalizeOutputFormat(format string) string {
	return strings.ToLower(strings.TrimSpace(format))
}

// ValidateOutputFormat checks a requested output format against the
// configured allow-list. An empty allow-list permits any format.
func ValidateOutputFormat(format string, supportedFormats []string) error {
	if len(supportedFormats) == 0 {
		return nil
	}

	if slices.Contains(supportedFormats, NormalizeOutputFormat(format)) {
		return nil
	}

	return errors.NewValidationError(errors.ErrCodeInvalidFormat,
		fmt.Sprintf("unsupported output format %q (supported: %s)",
			format, strings.Join(supportedFormats, ", ")), nil)
}

// GetSupportedFormats returns a copy of the configured format allow-list,
// safe for callers to sort or mutate.
func GetSupportedFormats(supportedFormats []string) []string {
	return slices.Clone(supportedFormats)
}
