package refdata

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	operatorCallRe = regexp.MustCompile(`(\w+)\s*\(`)
	identifierRe   = regexp.MustCompile(`[A-Za-z_]\w*`)
)

// reservedWords are expression-language keywords that are neither
// operators nor data fields.
var reservedWords = map[string]struct{}{
	"and":   {},
	"or":    {},
	"not":   {},
	"true":  {},
	"false": {},
	"nan":   {},
	"if":    {},
	"else":  {},
}

// Validator checks expressions against a loaded catalog before they
// are spent on a simulation slot.
type Validator struct {
	operators map[string]struct{}
	fields    map[string]struct{}
}

// NewValidator builds a validator from a catalog.
func NewValidator(catalog *Catalog) *Validator {
	v := &Validator{
		operators: make(map[string]struct{}, len(catalog.Operators)),
		fields:    make(map[string]struct{}, len(catalog.DataFields)),
	}
	for _, op := range catalog.Operators {
		v.operators[strings.ToLower(op.Name)] = struct{}{}
	}
	for _, f := range catalog.DataFields {
		v.fields[strings.ToLower(f.ID)] = struct{}{}
	}
	return v
}

// Validate reports the first unknown operator or identifier in the
// expression. Balanced parentheses are checked first since that is
// the cheapest failure.
func (v *Validator) Validate(expression string) error {
	if strings.TrimSpace(expression) == "" {
		return fmt.Errorf("empty expression")
	}

	depth := 0
	for _, r := range expression {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return fmt.Errorf("unbalanced parentheses")
			}
		}
	}
	if depth != 0 {
		return fmt.Errorf("unbalanced parentheses")
	}

	calls := make(map[string]struct{})
	for _, m := range operatorCallRe.FindAllStringSubmatch(expression, -1) {
		name := strings.ToLower(m[1])
		calls[name] = struct{}{}
		if _, ok := v.operators[name]; !ok {
			return fmt.Errorf("unknown operator: %s", m[1])
		}
	}

	for _, ident := range identifierRe.FindAllString(expression, -1) {
		lower := strings.ToLower(ident)
		if _, ok := calls[lower]; ok {
			continue
		}
		if _, ok := reservedWords[lower]; ok {
			continue
		}
		if _, ok := v.fields[lower]; !ok {
			return fmt.Errorf("unknown variable: %s", ident)
		}
	}

	return nil
}
