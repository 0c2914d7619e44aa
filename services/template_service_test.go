package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	svc := NewTemplateService()

	tests := []struct {
		name      string
		template  string
		variables TemplateVariables
		want      string
	}{
		{
			name:      "string and list values",
			template:  "What are the best {category} tools for {audience}?",
			variables: TemplateVariables{"category": "CRM", "audience": []string{"startups", "agencies"}},
			want:      "What are the best CRM tools for startups, agencies?",
		},
		{
			name:      "missing placeholder is left in place",
			template:  "Compare {brand} with {competitor}",
			variables: TemplateVariables{"brand": "Acme"},
			want:      "Compare Acme with {competitor}",
		},
		{
			name:      "empty values do not substitute",
			template:  "{a} and {b}",
			variables: TemplateVariables{"a": "", "b": []string{}},
			want:      "{a} and {b}",
		},
		{
			name:      "scalars are stringified",
			template:  "Top {n} tools in {year}",
			variables: TemplateVariables{"n": 5, "year": 2024},
			want:      "Top 5 tools in 2024",
		},
		{
			name:      "decoded json arrays",
			template:  "Tools for {teams}",
			variables: TemplateVariables{"teams": []interface{}{"sales", "support"}},
			want:      "Tools for sales, support",
		},
		{
			name:      "repeated placeholder",
			template:  "{x} vs {x}",
			variables: TemplateVariables{"x": "Acme"},
			want:      "Acme vs Acme",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, svc.Resolve(tt.template, tt.variables))
		})
	}
}

func TestValidate(t *testing.T) {
	svc := NewTemplateService()

	missing := svc.Validate("{b} {a} {b} {c}", TemplateVariables{"c": "ok", "a": nil})
	assert.Equal(t, []string{"b", "a"}, missing)

	assert.Empty(t, svc.Validate("no placeholders here", nil))
	assert.NotNil(t, svc.Validate("no placeholders here", nil))
}

func TestValidateThenResolveLeavesNoPlaceholders(t *testing.T) {
	svc := NewTemplateService()
	tmpl := "What are the best {category} tools for {audience}?"
	vars := TemplateVariables{"category": "CRM", "audience": "startups"}

	assert.Empty(t, svc.Validate(tmpl, vars))
	resolved := svc.Resolve(tmpl, vars)
	assert.NotContains(t, resolved, "{")
	assert.Equal(t, resolved, svc.Resolve(resolved, vars))
}

func TestValidateIsIdempotent(t *testing.T) {
	svc := NewTemplateService()

	tests := []struct {
		name      string
		template  string
		variables TemplateVariables
		want      []string
	}{
		{"all missing", "{brand} vs {competitor}", nil, []string{"brand", "competitor"}},
		{"partly satisfied", "{brand} vs {competitor} in {year}", TemplateVariables{"year": 2024}, []string{"brand", "competitor"}},
		{"satisfied", "{brand}", TemplateVariables{"brand": "Acme"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first := svc.Validate(tt.template, tt.variables)
			second := svc.Validate(tt.template, tt.variables)
			assert.Equal(t, tt.want, first)
			assert.Equal(t, first, second)
		})
	}
}
