package common

import (
	"fmt"
	"slices"
	"strings"

	"neuromatch/internal/errors"
	"neuromatch/internal/types"
)

// ValidateOutputFormat validates format against configured supported formats
func ValidateOutputFormat(format string, supportedFormats []string) error {
	if len(supportedFormats) == 0 {
		return nil
	}

	if slices.Contains(supportedFormats, format) {
		return nil
	}

	return fmt.Errorf("unsupported output format '%s'. Supported formats: %v",
		format, supportedFormats)
}

// ValidateMode accepts an empty mode (server default) or one of fast,
// balanced and deep
func ValidateMode(mode string) (types.Mode, error) {
	if strings.TrimSpace(mode) == "" {
		return "", nil
	}
	m, ok := types.ParseMode(mode)
	if !ok {
		return "", errors.NewValidationError(errors.ErrCodeInvalidMode,
			fmt.Sprintf("unknown mode '%s'. Supported modes: fast, balanced, deep", mode), nil)
	}
	return m, nil
}

// SplitList splits a comma separated flag value, dropping blanks
func SplitList(value string) []string {
	var out []string
	for item := range strings.SplitSeq(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
