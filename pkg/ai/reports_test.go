package ai

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sellersaathi/copilot-api/pkg/festival"
	"github.com/sellersaathi/copilot-api/pkg/models"
)

type yearSource map[int]festival.YearData

func (s yearSource) Name() string { return "test" }

func (s yearSource) FestivalsForYear(_ context.Context, year int) (festival.YearData, error) {
	if data, ok := s[year]; ok {
		return data, nil
	}
	return nil, errors.New("no data")
}

func testCopilot(p Providers, src festival.Source) *Copilot {
	now := time.Date(2026, time.October, 18, 9, 0, 0, 0, time.UTC)
	svc := festival.NewService(src, festival.WithClock(func() time.Time { return now }))
	return NewCopilot(p, svc, 15)
}

var diwaliSource = yearSource{2026: {"November": {{Name: "Diwali", Date: "8"}}}}

func TestCopilot_ChatUsesFestivalContext(t *testing.T) {
	text := new(mockText)
	text.On("Generate", mock.Anything, mock.MatchedBy(func(req TextRequest) bool {
		return strings.Contains(req.System, "'Seller Saathi'") &&
			strings.Contains(req.System, "You speak hinglish") &&
			strings.Contains(req.System, "- Diwali on November 08, 2026") &&
			req.Prompt == "Diwali ke liye kya stock karu?" &&
			len(req.History) == 1 && !req.JSONMode
	})).Return("Diyas aur lights stock karo!", nil)

	reply, err := testCopilot(Providers{Text: text}, diwaliSource).Chat(context.Background(), ChatInput{
		History: []Turn{{Role: RoleUser, Text: "namaste"}},
		Query:   "Diwali ke liye kya stock karu?",
	})
	require.NoError(t, err)
	assert.Equal(t, "Diyas aur lights stock karo!", reply)
	text.AssertExpectations(t)
}

func TestCopilot_ChatEmptyReplyFallsBack(t *testing.T) {
	text := new(mockText)
	text.On("Generate", mock.Anything, mock.Anything).Return("  ", nil)

	reply, err := testCopilot(Providers{Text: text}, yearSource{}).Chat(context.Background(), ChatInput{Query: "hi", Language: "english"})
	require.NoError(t, err)
	assert.Equal(t, ChatFallbackReply, reply)
}

func TestCopilot_ChatWithImageUsesVision(t *testing.T) {
	vision := new(mockVision)
	vision.On("Describe", mock.Anything, mock.MatchedBy(func(req VisionRequest) bool {
		return strings.Contains(req.System, festival.NoUpcomingFestivalsChat) && req.Prompt == "price?"
	})).Return("Around ₹499", nil)

	reply, err := testCopilot(Providers{Text: new(mockText), Vision: vision}, yearSource{}).Chat(context.Background(), ChatInput{
		Query: "price?",
		Image: &Image{Data: pngHeader, MIMEType: "image/png"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Around ₹499", reply)
}

func TestCopilot_PlannerReportInlinesFestivals(t *testing.T) {
	text := new(mockText)
	text.On("Generate", mock.Anything, mock.MatchedBy(func(req TextRequest) bool {
		return strings.Contains(req.Prompt, "Diwali (2026-11-08)") &&
			strings.Contains(req.Prompt, "located in: Jaipur") &&
			req.System == JSONOnlySystemPrompt
	})).Return(plannerJSON, nil)

	res, err := testCopilot(Providers{Text: text}, diwaliSource).PlannerReport(context.Background(), "Jaipur")
	require.NoError(t, err)
	assert.Equal(t, 21, res.Value.UpcomingFestivals[0].DaysLeft)
}

func TestCopilot_TrendsReport(t *testing.T) {
	text := new(mockText)
	text.On("Generate", mock.Anything, promptContains("analyzing the Sarees category")).Return(`{
		"personalizedInsights": [], "categoryData": [], "hotspots": [],
		"trendingProducts": [], "returnedProducts": []
	}`, nil)

	res, err := testCopilot(Providers{Text: text}, diwaliSource).TrendsReport(context.Background(), "Delhi", "Sarees")
	require.NoError(t, err)
	assert.Empty(t, res.Value.Hotspots)
}

func TestCopilot_TrendsReportClampsSimilarity(t *testing.T) {
	text := new(mockText)
	text.On("Generate", mock.Anything, mock.Anything).Return(`{
		"personalizedInsights": [], "categoryData": [], "hotspots": [], "returnedProducts": [],
		"trendingProducts": [
			{"product": "Kurti", "trend": "+20%", "avgPrice": "₹499", "action": "Stock", "similarity": 140},
			{"product": "Saree", "trend": "+5%", "avgPrice": "₹999", "action": "Wait", "similarity": -3},
			{"product": "Dupatta", "trend": "+1%", "avgPrice": "₹199", "action": "Stock", "similarity": 60}
		]
	}`, nil)

	res, err := testCopilot(Providers{Text: text}, diwaliSource).TrendsReport(context.Background(), "Delhi", "Kurtis")
	require.NoError(t, err)

	products := res.Value.TrendingProducts
	require.Len(t, products, 3)
	assert.Equal(t, 100, products[0].Similarity)
	assert.Equal(t, 0, products[1].Similarity)
	assert.Equal(t, 60, products[2].Similarity)
	assert.Equal(t, []Correction{
		{Path: "$.trendingProducts[0].similarity", Provider: "140", Computed: "100"},
		{Path: "$.trendingProducts[1].similarity", Provider: "-3", Computed: "0"},
	}, res.Corrections)
}

func TestCopilot_GenerateListingPartialSuccess(t *testing.T) {
	vision := new(mockVision)
	vision.On("Describe", mock.Anything, mock.MatchedBy(func(req VisionRequest) bool {
		return req.Prompt == ImageDescriptionPrompt && !req.JSONMode
	})).Return("A pink cotton kurti with floral print.", nil).Once()

	text := new(mockText)
	text.On("Generate", mock.Anything, promptContains("SEO specialist")).
		Return(`{"title": "Pink Kurti", "description": "Soft cotton.", "category": "Kurtis"}`, nil)
	text.On("Generate", mock.Anything, promptContains("WhatsApp broadcast")).
		Return(`not json at all`, nil)
	text.On("Generate", mock.Anything, promptContains("conversational pitch")).
		Return(`{"headline": "Hi!", "pitch": "Look at this kurti.", "key_points": ["cotton"]}`, nil)

	out, err := testCopilot(Providers{Text: text, Vision: vision}, diwaliSource).GenerateListing(context.Background(), ListingInput{
		Description:  "pink kurti",
		Category:     "Kurtis",
		Image:        &Image{Data: pngHeader, MIMEType: "image/png"},
		ContentTypes: models.ContentTypes,
	})
	require.NoError(t, err)

	assert.Equal(t, "A pink cotton kurti with floral print.", out.ImageDescription)
	require.Contains(t, out.Contents, "seo")
	assert.Equal(t, "Pink Kurti", out.Contents["seo"].(models.SEOListing).Title)
	assert.Contains(t, out.Contents, "conversational")
	require.Len(t, out.Failures, 1)
	assert.Equal(t, "whatsapp", out.Failures[0].Task)
	assert.Equal(t, KindSchemaViolation, out.Failures[0].Kind)
	vision.AssertExpectations(t)
}

func TestCopilot_GenerateListingAllFailed(t *testing.T) {
	text := new(mockText)
	text.On("Generate", mock.Anything, mock.Anything).Return("", providerFailure("mock", errors.New("timeout")))

	_, err := testCopilot(Providers{Text: text}, diwaliSource).GenerateListing(context.Background(), ListingInput{
		Description:  "pink kurti",
		Category:     "Kurtis",
		ContentTypes: []models.ContentType{models.ContentSEO, models.ContentWhatsApp},
	})
	var fe *FanOutError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, KindProviderFailure, fe.AllKind())
}

func TestCopilot_GenerateListingVisionUnavailable(t *testing.T) {
	_, err := testCopilot(Providers{Text: new(mockText), Vision: &Unconfigured{Provider: "gemini"}}, diwaliSource).
		GenerateListing(context.Background(), ListingInput{
			Image:        &Image{Data: pngHeader, MIMEType: "image/png"},
			ContentTypes: []models.ContentType{models.ContentSEO},
		})
	assert.ErrorIs(t, err, ErrProviderUnavailable)
}

func TestCopilot_ImproveKeepsOriginalFields(t *testing.T) {
	text := new(mockText)
	text.On("Generate", mock.Anything, mock.MatchedBy(func(req TextRequest) bool {
		return req.System == ImproveSystemPrompt && req.Temperature != nil && *req.Temperature == 0.7
	})).Return(`{"title": "Better", "description": "Much better."}`, nil)

	listing, err := testCopilot(Providers{Text: text}, diwaliSource).ImproveListing(context.Background(), models.ImproveListingRequest{
		Title:       "Kurti",
		Description: "A kurti",
		OriginalListing: models.SEOListing{
			Title: "Kurti", Description: "A kurti", Tags: []string{"kurti"}, Category: "Kurtis",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Better", listing.Title)
	assert.Equal(t, "Much better.", listing.Description)
	assert.Equal(t, []string{"kurti"}, listing.Tags)
	assert.Equal(t, "Kurtis", listing.Category)
}

func TestCopilot_Translate(t *testing.T) {
	text := new(mockText)
	text.On("Generate", mock.Anything, promptContains("Translate this into Hindi")).
		Return(`{"title": "कुर्ती", "description": "सूती कुर्ती"}`, nil)

	out, err := testCopilot(Providers{Text: text}, diwaliSource).TranslateListing(context.Background(), models.TranslateRequest{
		Title: "Kurti", Description: "Cotton kurti", Language: "Hindi",
	})
	require.NoError(t, err)
	assert.Equal(t, "कुर्ती", out.Title)
}
