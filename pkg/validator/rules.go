package validator

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
	"unicode/utf8"
)

// RequiredString fails on empty or whitespace-only values.
func RequiredString(field, value string) Rule {
	return Rule{
		Check: func() bool { return strings.TrimSpace(value) != "" },
		Error: ValidationError{Field: field, Message: "is required"},
	}
}

func MinLenString(field, value string, n int) Rule {
	return Rule{
		Check: func() bool { return utf8.RuneCountInString(value) >= n },
		Error: ValidationError{Field: field, Message: fmt.Sprintf("must be at least %d characters long", n)},
	}
}

func MaxLenString(field, value string, n int) Rule {
	return Rule{
		Check: func() bool { return utf8.RuneCountInString(value) <= n },
		Error: ValidationError{Field: field, Message: fmt.Sprintf("must be at most %d characters long", n)},
	}
}

// ValidURL accepts absolute URLs whose scheme is one of schemes.
func ValidURL(field, value string, schemes ...string) Rule {
	return Rule{
		Check: func() bool {
			u, err := url.Parse(value)
			if err != nil || u.Host == "" {
				return false
			}
			return len(schemes) == 0 || slices.Contains(schemes, u.Scheme)
		},
		Error: ValidationError{Field: field, Message: "must be an absolute URL"},
	}
}

func OneOfString(field, value string, options []string) Rule {
	return Rule{
		Check: func() bool { return slices.Contains(options, value) },
		Error: ValidationError{Field: field, Message: "must be one of: " + strings.Join(options, ", ")},
	}
}

func MinNum[T Numeric](field string, value, min T) Rule {
	return Rule{
		Check: func() bool { return value >= min },
		Error: ValidationError{Field: field, Message: fmt.Sprintf("must be at least %v", min)},
	}
}
