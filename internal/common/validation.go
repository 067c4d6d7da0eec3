package common

import (
	"fmt"
	"slices"
)

// CommandConfig holds the output options shared by file-producing commands.
type CommandConfig struct {
	OutputFile   string
	OutputFormat string
}

// ValidateOutputFormat validates format against configured supported formats
func ValidateOutputFormat(format string, supportedFormats []string) error {
	if len(supportedFormats) == 0 {
		return nil // No restrictions configured
	}

	if slices.Contains(supportedFormats, format) {
		return nil
	}

	return fmt.Errorf("unsupported output format '%s'. Supported formats: %v",
		format, supportedFormats)
}
