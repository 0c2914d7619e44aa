// services/template_service.go
package services

import (
	"fmt"
	"regexp"
	"strings"
)

var placeholderPattern = regexp.MustCompile(`\{([^}]+)\}`)

type templateService struct{}

func NewTemplateService() TemplateService {
	return &templateService{}
}

// Resolve substitutes every satisfiable placeholder and leaves the rest untouched.
func (s *templateService) Resolve(template string, variables TemplateVariables) string {
	return placeholderPattern.ReplaceAllStringFunc(template, func(match string) string {
		name := match[1 : len(match)-1]
		value, ok := variableString(variables[name])
		if !ok {
			return match
		}
		return value
	})
}

// Validate lists unsatisfied placeholder names once each, in order of first appearance.
func (s *templateService) Validate(template string, variables TemplateVariables) []string {
	missing := []string{}
	seen := make(map[string]bool)
	for _, m := range placeholderPattern.FindAllStringSubmatch(template, -1) {
		name := m[1]
		if seen[name] {
			continue
		}
		seen[name] = true
		if _, ok := variableString(variables[name]); !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

// variableString renders a variable value; ok is false for absent or empty values.
func variableString(v interface{}) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", false
	case string:
		return val, val != ""
	case []string:
		if len(val) == 0 {
			return "", false
		}
		return strings.Join(val, ", "), true
	case []interface{}:
		if len(val) == 0 {
			return "", false
		}
		parts := make([]string, len(val))
		for i, item := range val {
			parts[i] = fmt.Sprint(item)
		}
		return strings.Join(parts, ", "), true
	default:
		return fmt.Sprint(val), true
	}
}
