// Package outputparser declares the shape free-text model output must take
// and extracts validated fields from it.
package outputparser

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

var (
	ErrMissingField = errors.New("required field missing")
	ErrUnrecognized = errors.New("no structured object found")
)

// ResponseSchema declares one required output field and what it means.
type ResponseSchema struct {
	Name        string
	Description string
}

// CommentarySchemas are the fields requested for per-location news.
var CommentarySchemas = []ResponseSchema{
	{Name: "commentary", Description: "news about the disaster"},
	{Name: "date", Description: "date of the disaster"},
	{Name: "source", Description: "source used to answer the user's question, should be a website."},
}

type ParseError struct {
	Kind  error
	Field string
	Err   error
}

func (e *ParseError) Error() string {
	msg := "outputparser: " + e.Kind.Error()
	if e.Field != "" {
		msg += fmt.Sprintf(" %q", e.Field)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

var fencedBlock = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

// FormatInstructions renders the block appended to prompts that request
// structured data.
func FormatInstructions(schemas []ResponseSchema) string {
	var b strings.Builder
	b.WriteString("The output should be a markdown code snippet formatted in the following schema, ")
	b.WriteString("including the leading and trailing \"```json\" and \"```\":\n\n")
	b.WriteString("```json\n{\n")
	for _, s := range schemas {
		fmt.Fprintf(&b, "\t%q: string  // %s\n", s.Name, s.Description)
	}
	b.WriteString("}\n```")
	return b.String()
}

// Parse extracts one value per schema from raw. Values that are not JSON
// strings are returned as their JSON text; null becomes the empty string.
func Parse(raw string, schemas []ResponseSchema) (map[string]string, error) {
	body, ok := extractObject(raw)
	if !ok {
		return nil, &ParseError{Kind: ErrUnrecognized}
	}

	dec := json.NewDecoder(strings.NewReader(body))
	dec.UseNumber()
	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, &ParseError{Kind: ErrUnrecognized, Err: err}
	}
	if doc == nil {
		return nil, &ParseError{Kind: ErrUnrecognized}
	}

	if err := validate(doc, schemas); err != nil {
		return nil, err
	}

	out := make(map[string]string, len(schemas))
	for _, s := range schemas {
		v, err := stringify(doc[s.Name])
		if err != nil {
			return nil, &ParseError{Kind: ErrUnrecognized, Field: s.Name, Err: err}
		}
		out[s.Name] = v
	}
	return out, nil
}

func extractObject(raw string) (string, bool) {
	if m := fencedBlock.FindStringSubmatch(raw); m != nil {
		if body := strings.TrimSpace(m[1]); body != "" {
			return body, true
		}
	}
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return raw[start : end+1], true
}

func validate(doc map[string]any, schemas []ResponseSchema) error {
	required := make([]string, 0, len(schemas))
	for _, s := range schemas {
		required = append(required, s.Name)
	}
	schema := map[string]any{
		"type":     "object",
		"required": required,
	}

	result, err := gojsonschema.Validate(gojsonschema.NewGoLoader(schema), gojsonschema.NewGoLoader(doc))
	if err != nil {
		return &ParseError{Kind: ErrUnrecognized, Err: fmt.Errorf("error validating output: %w", err)}
	}
	if result.Valid() {
		return nil
	}

	for _, re := range result.Errors() {
		if re.Type() == "required" {
			return &ParseError{Kind: ErrMissingField, Field: fmt.Sprint(re.Details()["property"])}
		}
	}
	return &ParseError{Kind: ErrUnrecognized, Err: errors.New(result.Errors()[0].String())}
}

func stringify(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "", nil
	case string:
		return val, nil
	case json.Number:
		return val.String(), nil
	default:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(val); err != nil {
			return "", err
		}
		return strings.TrimSpace(buf.String()), nil
	}
}
