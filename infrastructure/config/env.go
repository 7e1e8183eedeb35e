package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	domainconfig "github.com/felixgeelhaar/duelist/domain/config"
)

var (
	// ${VAR}, ${VAR:-default}, ${VAR:?message}
	bracketPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(:-[^}]*|:\?[^}]*)?\}`)
	simplePattern  = regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`)
)

// envExpander expands environment variables in configuration text.
type envExpander struct {
	strict  bool
	lookup  func(string) (string, bool)
	missing []string
}

func newEnvExpander(strict bool) *envExpander {
	return &envExpander{strict: strict, lookup: os.LookupEnv}
}

// Expand expands environment variables in the input string.
// Supported patterns:
//   - ${VAR} expands to the value of VAR
//   - ${VAR:-default} expands to VAR, or default when unset or empty
//   - ${VAR:?message} fails when VAR is unset or empty
//   - $VAR simple expansion
func (e *envExpander) Expand(input string) (string, error) {
	e.missing = nil

	result := bracketPattern.ReplaceAllStringFunc(input, func(match string) string {
		sub := bracketPattern.FindStringSubmatch(match)
		name, modifier := sub[1], sub[2]
		value, exists := e.lookup(name)

		switch {
		case strings.HasPrefix(modifier, ":-"):
			if !exists || value == "" {
				return modifier[2:]
			}
		case strings.HasPrefix(modifier, ":?"):
			if !exists || value == "" {
				e.missing = append(e.missing, fmt.Sprintf("%s: %s", name, modifier[2:]))
				return match
			}
		default:
			if !exists && e.strict {
				e.missing = append(e.missing, name)
			}
		}
		return value
	})

	result = simplePattern.ReplaceAllStringFunc(result, func(match string) string {
		name := match[1:]
		value, exists := e.lookup(name)
		if !exists && e.strict {
			e.missing = append(e.missing, name)
		}
		return value
	})

	if len(e.missing) > 0 {
		return "", fmt.Errorf("%w: %s", domainconfig.ErrMissingEnvVar, strings.Join(e.missing, ", "))
	}
	return result, nil
}

// ExpandEnv expands environment variables, leaving unset ones empty.
func ExpandEnv(input string) string {
	result, _ := newEnvExpander(false).Expand(input)
	return result
}

// ExpandEnvStrict expands environment variables and fails on missing ones.
func ExpandEnvStrict(input string) (string, error) {
	return newEnvExpander(true).Expand(input)
}
