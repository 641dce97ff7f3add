package utils

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

var resultPattern = regexp.MustCompile(`^\((ok|err)(?:\s+(.*))?\)$`)

// Result is a parsed receipt string.
type Result struct {
	Ok    bool
	Value string
}

// ParseResult splits a receipt string such as "(ok true)" or "(err u100)" into its outcome and value.
func ParseResult(s string) (Result, error) {
	matches := resultPattern.FindStringSubmatch(strings.TrimSpace(s))
	if len(matches) < 3 {
		return Result{}, errors.WithMessage(fmt.Errorf("unrecognized result %q", s), "error parsing receipt")
	}

	return Result{
		Ok:    matches[1] == "ok",
		Value: matches[2],
	}, nil
}

// IsErr reports whether a receipt string is an (err ...) result.
func IsErr(s string) bool {
	return strings.HasPrefix(s, "(err")
}

// StripHexPrefix removes a single leading 0x or 0X.
func StripHexPrefix(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}
