// Package passwords holds the configurable password-strength policy.
// Validation collects every failing rule so the caller can report all
// violations in one response instead of failing on the first.
package passwords

import (
	"fmt"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation"
)

var (
	reUpper   = regexp.MustCompile(`[A-Z]`)
	reLower   = regexp.MustCompile(`[a-z]`)
	reDigit   = regexp.MustCompile(`[0-9]`)
	reSpecial = regexp.MustCompile(`[^a-zA-Z0-9]`)
)

type Policy struct {
	MinLength int
}

func DefaultPolicy() Policy {
	return Policy{MinLength: 8}
}

// Violations returns the list of failed rules, empty when the password
// satisfies the policy.
func (p Policy) Violations(password string) []string {
	minLen := p.MinLength
	if minLen <= 0 {
		minLen = 8
	}

	rules := []struct {
		rule validation.Rule
		msg  string
	}{
		{validation.Required, "password must not be empty"},
		{validation.Length(minLen, 0), fmt.Sprintf("password must be at least %d characters", minLen)},
		{validation.Match(reUpper), "password must contain an uppercase letter"},
		{validation.Match(reLower), "password must contain a lowercase letter"},
		{validation.Match(reDigit), "password must contain a digit"},
		{validation.Match(reSpecial), "password must contain a special character"},
	}

	var violations []string
	for _, r := range rules {
		if err := validation.Validate(password, r.rule); err != nil {
			violations = append(violations, r.msg)
		}
	}
	return violations
}
