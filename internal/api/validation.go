// internal/api/validation.go
package api

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/xeipuuv/gojsonschema"
)

const draft07 = "http://json-schema.org/draft-07/schema#"

// QueryBody is the payload of POST /api/query. queryText is accepted as an older name for promptText.
type QueryBody struct {
	CompanyID  string `json:"companyId" jsonschema:"required,format=uuid"`
	Platform   string `json:"platform" jsonschema:"required,minLength=1"`
	PromptText string `json:"promptText,omitempty"`
	QueryText  string `json:"queryText,omitempty"`
	QueryType  string `json:"queryType,omitempty"`
}

func (b QueryBody) prompt() string {
	if b.PromptText != "" {
		return b.PromptText
	}
	return b.QueryText
}

// BatchBody is the payload of PUT /api/query and POST /api/query/batch/async.
type BatchBody struct {
	CompanyID  string                 `json:"companyId" jsonschema:"required,format=uuid"`
	TemplateID string                 `json:"templateId" jsonschema:"required,format=uuid"`
	Platforms  []string               `json:"platforms" jsonschema:"required,minItems=1"`
	Variables  map[string]interface{} `json:"variables" jsonschema:"required"`
	QueryType  string                 `json:"queryType,omitempty"`
}

// RequestSchemas returns the draft-07 JSON Schemas of the request bodies, keyed by name.
func RequestSchemas() (map[string]json.RawMessage, error) {
	out := make(map[string]json.RawMessage, 2)
	for name, v := range map[string]interface{}{"query": &QueryBody{}, "batch": &BatchBody{}} {
		raw, err := schemaFor(v)
		if err != nil {
			return nil, err
		}
		out[name] = raw
	}
	return out, nil
}

func schemaFor(v interface{}) (json.RawMessage, error) {
	r := &jsonschema.Reflector{
		Anonymous:                  true,
		DoNotReference:             true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  true,
		RequiredFromJSONSchemaTags: true,
	}
	s := r.Reflect(v)
	s.Version = draft07

	raw, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	return raw, nil
}

// Validator checks request bodies against the reflected schemas
type Validator struct {
	query *gojsonschema.Schema
	batch *gojsonschema.Schema
}

func NewValidator() (*Validator, error) {
	schemas, err := RequestSchemas()
	if err != nil {
		return nil, err
	}
	v := &Validator{}
	if v.query, err = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemas["query"])); err != nil {
		return nil, fmt.Errorf("failed to compile query schema: %w", err)
	}
	if v.batch, err = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemas["batch"])); err != nil {
		return nil, fmt.Errorf("failed to compile batch schema: %w", err)
	}
	return v, nil
}

func (v *Validator) ValidateQuery(body []byte) error {
	return validate(v.query, body)
}

func (v *Validator) ValidateBatch(body []byte) error {
	return validate(v.batch, body)
}

// ValidationError lists every schema violation of a request body
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Problems, "; ")
}

func validate(schema *gojsonschema.Schema, body []byte) error {
	result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return &ValidationError{Problems: []string{fmt.Sprintf("invalid JSON body: %v", err)}}
	}
	if result.Valid() {
		return nil
	}
	problems := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		problems = append(problems, e.String())
	}
	return &ValidationError{Problems: problems}
}
