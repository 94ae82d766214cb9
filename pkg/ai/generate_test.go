package ai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sellersaathi/copilot-api/pkg/models"
)

var evalDate = time.Date(2026, time.October, 18, 0, 0, 0, 0, time.UTC)

const plannerJSON = `{
	"upcomingFestivals": [
		{"id": 1, "name": "Diwali", "date": "2026-11-08", "daysLeft": 99, "urgency": "low", "items": ["Diyas"]},
		{"id": 2, "name": "Dussehra", "date": "2026-10-20", "daysLeft": 2, "urgency": "high", "items": []},
		{"id": 3, "name": "Mystery", "date": "sometime soon", "daysLeft": 7, "urgency": "High", "items": []}
	],
	"topProductsToStock": [],
	"nearbyDemand": [],
	"avoidProducts": []
}`

func plannerRequest() Request {
	return Request{
		Task:           "planner",
		Template:       "Plan for {{.location}}.\n{{.format_instructions}}",
		Inputs:         map[string]string{"location": "Delhi"},
		EvaluationDate: evalDate,
	}
}

func TestGenerateStructured_CorrectsAdvisoryFields(t *testing.T) {
	text := new(mockText)
	text.On("Generate", mock.Anything, mock.MatchedBy(func(req TextRequest) bool {
		return req.JSONMode && contains(req.Prompt, "Plan for Delhi.") && contains(req.Prompt, `"upcomingFestivals"`)
	})).Return(plannerJSON, nil)

	res, err := GenerateStructured[models.PlannerReport](context.Background(), Providers{Text: text}, plannerRequest())
	require.NoError(t, err)

	fests := res.Value.UpcomingFestivals
	require.Len(t, fests, 3)

	assert.Equal(t, 21, fests[0].DaysLeft)
	assert.Equal(t, "medium", fests[0].Urgency)
	assert.Equal(t, 2, fests[1].DaysLeft)
	assert.Equal(t, "high", fests[1].Urgency)

	// unparsable date keeps the provider's values
	assert.Equal(t, 7, fests[2].DaysLeft)
	assert.Equal(t, "High", fests[2].Urgency)
	require.Len(t, res.Notes, 1)
	assert.Equal(t, KindMalformedRecord, res.Notes[0].Kind)
	assert.Equal(t, "$.upcomingFestivals[2].date", res.Notes[0].Path)

	assert.Contains(t, res.Corrections, Correction{Path: "$.upcomingFestivals[0].daysLeft", Provider: "99", Computed: "21"})
	text.AssertExpectations(t)
}

func TestGenerateStructured_AdvisoryFieldsAreNotTrusted(t *testing.T) {
	tests := []struct {
		name   string
		record string
	}{
		{"unknown urgency word", `{"id": 1, "name": "Diwali", "date": "2026-11-08", "daysLeft": 21, "urgency": "urgent", "items": []}`},
		{"missing daysLeft", `{"id": 1, "name": "Diwali", "date": "2026-11-08", "urgency": "low", "items": []}`},
		{"missing both", `{"id": 1, "name": "Diwali", "date": "2026-11-08", "items": []}`},
		{"integral float", `{"id": 1.0, "name": "Diwali", "date": "2026-11-08", "daysLeft": 21.0, "urgency": "medium", "items": []}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := `{"upcomingFestivals": [` + tt.record + `], "topProductsToStock": [], "nearbyDemand": [], "avoidProducts": []}`
			text := new(mockText)
			text.On("Generate", mock.Anything, mock.Anything).Return(raw, nil).Once()

			res, err := GenerateStructured[models.PlannerReport](context.Background(), Providers{Text: text}, plannerRequest())
			require.NoError(t, err)
			require.Len(t, res.Value.UpcomingFestivals, 1)
			assert.Equal(t, 1, res.Value.UpcomingFestivals[0].ID)
			assert.Equal(t, 21, res.Value.UpcomingFestivals[0].DaysLeft)
			assert.Equal(t, "medium", res.Value.UpcomingFestivals[0].Urgency)
		})
	}
}

func TestGenerateStructured_KeptUrgencyIsStillChecked(t *testing.T) {
	text := new(mockText)
	text.On("Generate", mock.Anything, mock.Anything).Return(`{"upcomingFestivals": [
		{"id": 1, "name": "Mystery", "date": "soon", "items": []}
	], "topProductsToStock": [], "nearbyDemand": [], "avoidProducts": []}`, nil)

	res, err := GenerateStructured[models.PlannerReport](context.Background(), Providers{Text: text}, plannerRequest())
	require.NoError(t, err, "an absent urgency is allowed when the date cannot be read")
	assert.Empty(t, res.Value.UpcomingFestivals[0].Urgency)
	require.Len(t, res.Notes, 1)
}

func TestGenerateStructured_StripsCodeFences(t *testing.T) {
	text := new(mockText)
	text.On("Generate", mock.Anything, mock.Anything).Return("```json\n"+plannerJSON+"\n```", nil)

	res, err := GenerateStructured[models.PlannerReport](context.Background(), Providers{Text: text}, plannerRequest())
	require.NoError(t, err)
	assert.Len(t, res.Value.UpcomingFestivals, 3)
}

func TestGenerateStructured_SchemaViolations(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", "Sure! Here is your plan: Diwali is coming."},
		{"truncated", `{"upcomingFestivals": [`},
		{"missing field", `{"upcomingFestivals": [], "topProductsToStock": [], "nearbyDemand": []}`},
		{"wrong type", `{"upcomingFestivals": "Diwali", "topProductsToStock": [], "nearbyDemand": [], "avoidProducts": []}`},
		{"bad urgency", `{"upcomingFestivals": [{"id": 1, "name": "Diwali", "date": "x", "daysLeft": 1, "urgency": "urgent", "items": []}], "topProductsToStock": [], "nearbyDemand": [], "avoidProducts": []}`},
		{"empty name", `{"upcomingFestivals": [{"id": 1, "name": "", "date": "2026-11-08", "daysLeft": 1, "urgency": "low", "items": []}], "topProductsToStock": [], "nearbyDemand": [], "avoidProducts": []}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text := new(mockText)
			text.On("Generate", mock.Anything, mock.Anything).Return(tt.raw, nil).Once()

			res, err := GenerateStructured[models.PlannerReport](context.Background(), Providers{Text: text}, plannerRequest())
			assert.Nil(t, res)
			assert.ErrorIs(t, err, ErrSchemaViolation)
			assert.Equal(t, KindSchemaViolation, KindOf(err))

			var aiErr *Error
			require.ErrorAs(t, err, &aiErr)
			assert.Equal(t, CapabilityGeneration, aiErr.Capability)
			text.AssertNumberOfCalls(t, "Generate", 1)
		})
	}
}

func TestGenerateStructured_ProviderErrorsPassThrough(t *testing.T) {
	_, err := GenerateStructured[models.PlannerReport](context.Background(),
		Providers{Text: &Unconfigured{Provider: "openai", Reason: "no API key configured"}}, plannerRequest())
	assert.ErrorIs(t, err, ErrProviderUnavailable)

	text := new(mockText)
	text.On("Generate", mock.Anything, mock.Anything).Return("", providerFailure("mock", errors.New("503 from upstream")))
	_, err = GenerateStructured[models.PlannerReport](context.Background(), Providers{Text: text}, plannerRequest())
	assert.ErrorIs(t, err, ErrProviderFailure)
}

func TestGenerateStructured_ImageGoesToVision(t *testing.T) {
	vision := new(mockVision)
	vision.On("Describe", mock.Anything, mock.MatchedBy(func(req VisionRequest) bool {
		return req.JSONMode && req.Image.MIMEType == "image/png" && !contains(req.Prompt, "base64")
	})).Return(`{"title": "Kurti", "description": "Cotton kurti", "category": "Kurtis"}`, nil)

	req := Request{
		Template: "Describe.\n{{.format_instructions}}",
		Image:    &Image{Data: []byte("png-bytes"), MIMEType: "image/png"},
	}
	res, err := GenerateStructured[models.SEOListing](context.Background(), Providers{Vision: vision}, req)
	require.NoError(t, err)
	assert.Equal(t, "Kurti", res.Value.Title)
	vision.AssertExpectations(t)
}

func TestRenderPrompt_MissingInput(t *testing.T) {
	_, err := RenderPrompt("Hello {{.location}}", map[string]string{}, SchemaOf[models.SEOListing]())
	assert.Error(t, err)
}

func TestStripCodeFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, StripCodeFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, StripCodeFences("```\n{\"a\":1}```"))
	assert.Equal(t, `{"a":1}`, StripCodeFences("Here you go: {\"a\":1} hope it helps"))
	assert.Equal(t, `[1]`, StripCodeFences("  [1]  "))
	assert.Equal(t, "no json", StripCodeFences("no json"))
}

func TestUrgencyFor(t *testing.T) {
	assert.Equal(t, "high", UrgencyFor(0))
	assert.Equal(t, "high", UrgencyFor(14))
	assert.Equal(t, "medium", UrgencyFor(15))
	assert.Equal(t, "medium", UrgencyFor(45))
	assert.Equal(t, "low", UrgencyFor(46))
	assert.Equal(t, "high", UrgencyFor(-3))
}
