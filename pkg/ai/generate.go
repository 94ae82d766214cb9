package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/sellersaathi/copilot-api/pkg/logger"
)

// FormatInstructionsKey is the template placeholder receiving
// Schema.Instructions().
const FormatInstructionsKey = "format_instructions"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterValidation("urgency", validateUrgency)
	return v
}

// validateUrgency accepts high, medium or low in any case. An empty value
// passes so a record without a usable date may leave urgency out.
func validateUrgency(fl validator.FieldLevel) bool {
	switch strings.ToLower(strings.TrimSpace(fl.Field().String())) {
	case "", "high", "medium", "low":
		return true
	}
	return false
}

// Request is one schema constrained generation.
type Request struct {
	// Task names the generation in logs and fan-out results.
	Task string
	// Template is a text/template using {{.key}} for each Inputs key and
	// {{.format_instructions}} for the schema.
	Template       string
	Inputs         map[string]string
	System         string
	History        []Turn
	Image          *Image
	Temperature    *float64
	EvaluationDate time.Time
}

// Result is a validated, corrected value of T.
type Result[T any] struct {
	Value       T            `json:"value"`
	Corrections []Correction `json:"corrections,omitempty"`
	Notes       []Note       `json:"notes,omitempty"`
}

// GenerateStructured renders the prompt, calls the provider in JSON mode and
// returns a value of T only when the output matches T's schema. Images go to
// the vision generator as a separate input part. Nothing is retried.
func GenerateStructured[T any](ctx context.Context, p Providers, req Request) (*Result[T], error) {
	schema := SchemaOf[T]()
	log := logger.FromContext(ctx).With().Str("task", req.Task).Str("schema", schema.Name).Logger()

	prompt, err := RenderPrompt(req.Template, req.Inputs, schema)
	if err != nil {
		return nil, err
	}

	raw, err := callProvider(ctx, p, req, prompt)
	if err != nil {
		return nil, err
	}

	var doc any
	cleaned := StripCodeFences(raw)
	if err := json.Unmarshal([]byte(cleaned), &doc); err != nil {
		log.Warn().Err(err).Int("length", len(raw)).Msg("provider output is not JSON")
		return nil, schemaViolation("provider output is not valid JSON: %v", err)
	}

	if violations := schema.Validate(doc); len(violations) > 0 {
		log.Warn().Int("violations", len(violations)).Str("first", violations[0].String()).Msg("provider output does not match schema")
		return nil, violationError(schema, violations)
	}

	// decode from the checked document so both steps read numbers the same
	// way; 21.0 is re-encoded as 21
	normalized, err := json.Marshal(doc)
	if err != nil {
		return nil, schemaViolation("re-encode provider output: %v", err)
	}
	var value T
	if err := json.Unmarshal(normalized, &value); err != nil {
		return nil, schemaViolation("provider output does not decode into %s: %v", schema.Name, err)
	}

	evaluationDate := req.EvaluationDate
	if evaluationDate.IsZero() {
		evaluationDate = time.Now()
	}
	corrections, notes := CorrectAdvisory(&value, evaluationDate)
	if len(corrections) > 0 || len(notes) > 0 {
		log.Debug().Int("corrections", len(corrections)).Int("notes", len(notes)).Msg("advisory fields recomputed")
	}

	// advisory values are checked only after recomputation, so only a value
	// kept from the provider can fail here
	if err := validate.Struct(&value); err != nil {
		return nil, schemaViolation("%s failed validation: %v", schema.Name, err)
	}

	return &Result[T]{Value: value, Corrections: corrections, Notes: notes}, nil
}

func callProvider(ctx context.Context, p Providers, req Request, prompt string) (string, error) {
	if req.Image != nil {
		if p.Vision == nil {
			return "", providerUnavailable("vision", fmt.Errorf("no vision generator"))
		}
		return p.Vision.Describe(ctx, VisionRequest{
			System:      req.System,
			Prompt:      prompt,
			Image:       *req.Image,
			History:     req.History,
			JSONMode:    true,
			Temperature: req.Temperature,
		})
	}
	if p.Text == nil {
		return "", providerUnavailable("text", fmt.Errorf("no text generator"))
	}
	return p.Text.Generate(ctx, TextRequest{
		System:      req.System,
		Prompt:      prompt,
		History:     req.History,
		JSONMode:    true,
		Temperature: req.Temperature,
	})
}

// RenderPrompt executes tmpl with inputs plus the schema's format
// instructions. A placeholder without an input is an error.
func RenderPrompt(tmpl string, inputs map[string]string, schema Schema) (string, error) {
	data := make(map[string]string, len(inputs)+1)
	for k, v := range inputs {
		data[k] = v
	}
	data[FormatInstructionsKey] = schema.Instructions()
	return renderTemplate(schema.Name, tmpl, data)
}

func renderTemplate(name, tmpl string, data map[string]string) (string, error) {
	t, err := template.New(name).Option("missingkey=error").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("parse prompt template: %w", err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render prompt template: %w", err)
	}
	return buf.String(), nil
}

// StripCodeFences removes a surrounding markdown code block and any prose
// outside the outermost JSON object.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if nl := strings.IndexByte(s, '\n'); nl >= 0 {
			s = s[nl+1:]
		} else {
			s = strings.TrimPrefix(s, "```")
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
		s = strings.TrimSpace(s)
	}
	if strings.HasPrefix(s, "{") || strings.HasPrefix(s, "[") {
		return s
	}
	start, end := strings.IndexByte(s, '{'), strings.LastIndexByte(s, '}')
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}

func violationError(schema Schema, violations []Violation) *Error {
	const shown = 3
	parts := make([]string, 0, shown)
	for i, v := range violations {
		if i == shown {
			parts = append(parts, fmt.Sprintf("and %d more", len(violations)-shown))
			break
		}
		parts = append(parts, v.String())
	}
	return schemaViolation("provider output does not match %s: %s", schema.Name, strings.Join(parts, "; "))
}
