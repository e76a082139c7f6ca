// Package params decodes the pipe-delimited configuration string handed to
// mediation adapters by ad delivery.
package params

import (
	"fmt"
	"strconv"
	"strings"
)

// Separator splits configuration tokens. Ad unit identifiers may contain '/'
// so a pipe is used instead. Literal pipes cannot be escaped.
const Separator = "|"

// Token positions shared by all networks
const (
	KeyIndex    = 0
	AdUnitIndex = 1
	// FormatIndex is the first format-specific token (size, geometry)
	FormatIndex = 2
)

// Fields is an ordered view over the decoded tokens. Reading past the last
// token yields defaults instead of failing.
type Fields struct {
	raw    string
	tokens []string
}

// Decode splits a configuration string into its tokens. Token content is not
// validated here; numeric tokens fail on first use.
func Decode(config string) Fields {
	return Fields{raw: config, tokens: strings.Split(config, Separator)}
}

// Raw returns the undecoded configuration string
func (f Fields) Raw() string { return f.raw }

// Len returns the number of tokens present
func (f Fields) Len() int { return len(f.tokens) }

// String returns token i, or "" when absent
func (f Fields) String(i int) string {
	if i < 0 || i >= len(f.tokens) {
		return ""
	}
	return f.tokens[i]
}

// Int parses token i. An absent token is 0; a malformed one is an error.
func (f Fields) Int(i int) (int, error) {
	s := f.String(i)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("token %d %q is not an integer: %w", i, s, err)
	}
	return n, nil
}

// IntOr parses token i, returning def when it is absent or malformed
func (f Fields) IntOr(i, def int) int {
	if f.String(i) == "" {
		return def
	}
	n, err := f.Int(i)
	if err != nil {
		return def
	}
	return n
}

// Key returns the network account, app or asset key (token 0)
func (f Fields) Key() string { return f.String(KeyIndex) }

// AdUnitID returns the ad unit identifier (token 1), "" when absent
func (f Fields) AdUnitID() string { return f.String(AdUnitIndex) }

// SizeToken returns the first format token, "0" when absent
func (f Fields) SizeToken() string {
	if s := f.String(FormatIndex); s != "" {
		return s
	}
	return "0"
}
