package naming

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Rule identifies which naming rule a name broke
type Rule int

const (
	// RuleEmpty means the name is empty
	RuleEmpty Rule = iota
	// RuleTooLong means the name exceeds the maximum length
	RuleTooLong
	// RuleLeadingLetter means the name does not start with a lowercase letter
	RuleLeadingLetter
	// RuleCharset means the name contains characters outside [a-z0-9_]
	RuleCharset
	// RuleDoubleUnderscore means the name contains "__"
	RuleDoubleUnderscore
	// RuleEdgeUnderscore means the name starts or ends with "_"
	RuleEdgeUnderscore
)

// String returns the string representation of the rule
func (r Rule) String() string {
	switch r {
	case RuleEmpty:
		return "empty"
	case RuleTooLong:
		return "too_long"
	case RuleLeadingLetter:
		return "leading_letter"
	case RuleCharset:
		return "charset"
	case RuleDoubleUnderscore:
		return "double_underscore"
	case RuleEdgeUnderscore:
		return "edge_underscore"
	default:
		return "unknown"
	}
}

// RuleError describes why a name failed validation
type RuleError struct {
	Name    string
	Rule    Rule
	Message string
}

// Error implements the error interface
func (e *RuleError) Error() string {
	return e.Message
}

// Validate checks a canonical name against the naming rules.
// It returns nil when the name is legal and a *RuleError otherwise.
//
// Callers may pass names that did not come out of Normalize, so every rule is
// checked independently of how the name was produced.
func Validate(name string, maxLen int) error {
	if name == "" {
		return &RuleError{Name: name, Rule: RuleEmpty, Message: "name must not be empty"}
	}

	if utf8.RuneCountInString(name) > maxLen {
		return &RuleError{
			Name:    name,
			Rule:    RuleTooLong,
			Message: fmt.Sprintf("name must not exceed %d characters", maxLen),
		}
	}

	if c := name[0]; c < 'a' || c > 'z' {
		return &RuleError{Name: name, Rule: RuleLeadingLetter, Message: "name must start with a lowercase letter"}
	}

	for i := 0; i < len(name); i++ {
		c := name[i]
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '_' {
			continue
		}
		return &RuleError{
			Name:    name,
			Rule:    RuleCharset,
			Message: "name may only contain lowercase letters, digits and underscores",
		}
	}

	if strings.Contains(name, "__") {
		return &RuleError{Name: name, Rule: RuleDoubleUnderscore, Message: "name must not contain consecutive underscores"}
	}

	if strings.HasPrefix(name, "_") || strings.HasSuffix(name, "_") {
		return &RuleError{Name: name, Rule: RuleEdgeUnderscore, Message: "name must not start or end with an underscore"}
	}

	return nil
}
