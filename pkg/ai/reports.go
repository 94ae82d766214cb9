package ai

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sellersaathi/copilot-api/pkg/festival"
	"github.com/sellersaathi/copilot-api/pkg/logger"
	"github.com/sellersaathi/copilot-api/pkg/models"
)

const (
	DefaultLanguage = "hinglish"
	noPhotoProvided = "No photo provided."
)

// Copilot builds every seller facing report from the injected providers
// and the festival service. It keeps no state between calls.
type Copilot struct {
	providers Providers
	festivals *festival.Service
	inlineMax int
}

func NewCopilot(providers Providers, festivals *festival.Service, inlineMax int) *Copilot {
	if inlineMax <= 0 {
		inlineMax = festival.DefaultInlineMax
	}
	return &Copilot{providers: providers, festivals: festivals, inlineMax: inlineMax}
}

func (c *Copilot) Providers() Providers {
	return c.providers
}

// Festivals computes the current 90 day window.
func (c *Copilot) Festivals(ctx context.Context) festival.Window {
	return c.festivals.Upcoming(ctx)
}

func (c *Copilot) FestivalSource() string {
	return c.festivals.SourceName()
}

func (c *Copilot) inlineFestivals(w festival.Window) string {
	return festival.FormatForInlinePrompt(w.Events, c.inlineMax)
}

// PlannerReport generates the inventory plan for a location.
func (c *Copilot) PlannerReport(ctx context.Context, location string) (*Result[models.PlannerReport], error) {
	w := c.Festivals(ctx)
	return GenerateStructured[models.PlannerReport](ctx, c.providers, Request{
		Task:     "planner",
		System:   JSONOnlySystemPrompt,
		Template: PlannerPromptTemplate,
		Inputs: map[string]string{
			"location":  location,
			"today":     festival.FormatCanonical(w.EvaluationDate),
			"festivals": c.inlineFestivals(w),
		},
		EvaluationDate: w.EvaluationDate,
	})
}

// TrendsReport generates the trends page for a location and category.
func (c *Copilot) TrendsReport(ctx context.Context, location, category string) (*Result[models.TrendsReport], error) {
	w := c.Festivals(ctx)
	res, err := GenerateStructured[models.TrendsReport](ctx, c.providers, Request{
		Task:     "trends",
		Template: TrendsPromptTemplate,
		Inputs: map[string]string{
			"location":  location,
			"category":  category,
			"today":     festival.FormatCanonical(w.EvaluationDate),
			"festivals": c.inlineFestivals(w),
		},
		EvaluationDate: w.EvaluationDate,
	})
	if err != nil {
		return nil, err
	}
	res.Corrections = append(res.Corrections, clampSimilarity(res.Value.TrendingProducts)...)
	return res, nil
}

func clampSimilarity(products []models.TrendingProduct) []Correction {
	var corrections []Correction
	for i := range products {
		p := &products[i]
		clamped := min(max(p.Similarity, 0), 100)
		if clamped == p.Similarity {
			continue
		}
		corrections = append(corrections, Correction{
			Path:     fmt.Sprintf("$.trendingProducts[%d].similarity", i),
			Provider: strconv.Itoa(p.Similarity),
			Computed: strconv.Itoa(clamped),
		})
		p.Similarity = clamped
	}
	return corrections
}

type ChatInput struct {
	History  []Turn
	Query    string
	Language string
	Image    *Image
}

// Chat answers as Seller Saathi, grounded on the upcoming festival list.
// With an image the vision generator answers directly.
func (c *Copilot) Chat(ctx context.Context, in ChatInput) (string, error) {
	language := strings.TrimSpace(in.Language)
	if language == "" {
		language = DefaultLanguage
	}

	w := c.Festivals(ctx)
	system, err := renderTemplate("chat", ChatSystemPrompt, map[string]string{
		"language":  language,
		"today":     festival.FormatLong(w.EvaluationDate),
		"festivals": festival.FormatForChatContext(w.Events),
	})
	if err != nil {
		return "", err
	}

	var reply string
	if in.Image != nil {
		reply, err = c.providers.Vision.Describe(ctx, VisionRequest{
			System:  system,
			Prompt:  in.Query,
			Image:   *in.Image,
			History: in.History,
		})
	} else {
		reply, err = c.providers.Text.Generate(ctx, TextRequest{
			System:  system,
			Prompt:  in.Query,
			History: in.History,
		})
	}
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(reply) == "" {
		return ChatFallbackReply, nil
	}
	return reply, nil
}

type ListingInput struct {
	Description  string
	Category     string
	Image        *Image
	ContentTypes []models.ContentType
}

// ListingOutput carries every content type that was generated and a record
// of those that failed.
type ListingOutput struct {
	Contents         map[string]any `json:"contents"`
	Failures         []TaskFailure  `json:"failures"`
	ImageDescription string         `json:"image_description,omitempty"`
}

// GenerateListing describes the image once, then generates each requested
// content type concurrently from that description. It fails only when the
// image cannot be described or every content type failed.
func (c *Copilot) GenerateListing(ctx context.Context, in ListingInput) (*ListingOutput, error) {
	imageDescription := noPhotoProvided
	if in.Image != nil {
		desc, err := c.providers.Vision.Describe(ctx, VisionRequest{
			Prompt: ImageDescriptionPrompt,
			Image:  *in.Image,
		})
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(desc) != "" {
			imageDescription = strings.TrimSpace(desc)
		}
	}

	inputs := map[string]string{
		"description":       in.Description,
		"category":          in.Category,
		"image_description": imageDescription,
	}
	evaluationDate := c.festivals.Today()

	tasks := make([]Task, 0, len(in.ContentTypes))
	for _, ct := range in.ContentTypes {
		task, err := c.listingTask(ct, inputs, evaluationDate)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}

	agg := FanOut(ctx, tasks)
	if err := agg.Err(); err != nil {
		return nil, err
	}

	out := &ListingOutput{
		Contents: agg.Results,
		Failures: agg.Failures,
	}
	if in.Image != nil {
		out.ImageDescription = imageDescription
	}
	if out.Failures == nil {
		out.Failures = []TaskFailure{}
	}
	return out, nil
}

func (c *Copilot) listingTask(ct models.ContentType, inputs map[string]string, evaluationDate time.Time) (Task, error) {
	req := Request{
		Task:           string(ct),
		Inputs:         inputs,
		EvaluationDate: evaluationDate,
	}
	switch ct {
	case models.ContentSEO:
		req.Template = SEOListingPromptTemplate
		return Task{Name: string(ct), Run: func(ctx context.Context) (any, error) {
			res, err := GenerateStructured[models.SEOListing](ctx, c.providers, req)
			if err != nil {
				return nil, err
			}
			return res.Value, nil
		}}, nil
	case models.ContentWhatsApp:
		req.Template = WhatsAppListingPromptTemplate
		return Task{Name: string(ct), Run: func(ctx context.Context) (any, error) {
			res, err := GenerateStructured[models.WhatsAppListing](ctx, c.providers, req)
			if err != nil {
				return nil, err
			}
			return res.Value, nil
		}}, nil
	case models.ContentConversational:
		req.Template = ConversationalListingPromptTemplate
		return Task{Name: string(ct), Run: func(ctx context.Context) (any, error) {
			res, err := GenerateStructured[models.ConversationalListing](ctx, c.providers, req)
			if err != nil {
				return nil, err
			}
			return res.Value, nil
		}}, nil
	default:
		return Task{}, fmt.Errorf("unknown content type %q", ct)
	}
}

// ImproveListing rewrites title and description and keeps the rest of the
// original listing.
func (c *Copilot) ImproveListing(ctx context.Context, in models.ImproveListingRequest) (*models.SEOListing, error) {
	temperature := 0.7
	res, err := GenerateStructured[models.ImprovedContent](ctx, c.providers, Request{
		Task:     "improve",
		System:   ImproveSystemPrompt,
		Template: ImprovePromptTemplate,
		Inputs: map[string]string{
			"title":       in.Title,
			"description": in.Description,
		},
		Temperature: &temperature,
	})
	if err != nil {
		return nil, err
	}

	listing := in.OriginalListing
	listing.Title = res.Value.Title
	listing.Description = res.Value.Description
	logger.FromContext(ctx).Debug().Str("title", listing.Title).Msg("listing improved")
	return &listing, nil
}

func (c *Copilot) TranslateListing(ctx context.Context, in models.TranslateRequest) (*models.TranslatedContent, error) {
	temperature := 0.3
	res, err := GenerateStructured[models.TranslatedContent](ctx, c.providers, Request{
		Task:     "translate",
		System:   TranslateSystemPrompt,
		Template: TranslatePromptTemplate,
		Inputs: map[string]string{
			"title":       in.Title,
			"description": in.Description,
			"language":    in.Language,
		},
		Temperature: &temperature,
	})
	if err != nil {
		return nil, err
	}
	return &res.Value, nil
}
