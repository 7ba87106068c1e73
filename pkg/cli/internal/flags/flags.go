// Package flags provides reusable flag types for CLI commands.
package flags

import (
	"strings"

	"github.com/spf13/pflag"
)

// StringSlice implements pflag.Value for repeatable string flags. Unlike
// pflag's own slice type it does not split on commas, so values such as
// glob patterns with braces survive intact.
type StringSlice []string

var _ pflag.Value = (*StringSlice)(nil)

// String returns the string representation of the flag value.
func (s *StringSlice) String() string {
	return strings.Join(*s, ",")
}

// Set appends a value to the slice.
func (s *StringSlice) Set(value string) error {
	*s = append(*s, value)
	return nil
}

// Type specifies the type label for Cobra flags.
func (s *StringSlice) Type() string {
	return "stringSlice"
}
