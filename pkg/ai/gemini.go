package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/sellersaathi/copilot-api/pkg/config"
	"github.com/sellersaathi/copilot-api/pkg/logger"
)

// GeminiClient calls the Gemini API. Images are sent as inline bytes.
type GeminiClient struct {
	client      *genai.Client
	model       string
	temperature float64
	maxTokens   int
	timeout     time.Duration
}

func NewGeminiClient(ctx context.Context, pc config.ProviderConfig) (*GeminiClient, error) {
	cc := &genai.ClientConfig{
		APIKey:  pc.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if pc.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: pc.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiClient{
		client:      client,
		model:       pc.Model,
		temperature: pc.Temperature,
		maxTokens:   pc.MaxTokens,
		timeout:     pc.Timeout,
	}, nil
}

func (g *GeminiClient) Name() string {
	return "gemini"
}

func (g *GeminiClient) Generate(ctx context.Context, req TextRequest) (string, error) {
	contents := g.history(req.History)
	contents = append(contents, genai.NewContentFromText(req.Prompt, genai.RoleUser))
	return g.generate(ctx, req.System, contents, req.JSONMode, req.Temperature)
}

func (g *GeminiClient) Describe(ctx context.Context, req VisionRequest) (string, error) {
	contents := g.history(req.History)
	contents = append(contents, genai.NewContentFromParts([]*genai.Part{
		genai.NewPartFromText(req.Prompt),
		genai.NewPartFromBytes(req.Image.Data, req.Image.MIMEType),
	}, genai.RoleUser))
	return g.generate(ctx, req.System, contents, req.JSONMode, req.Temperature)
}

func (g *GeminiClient) history(turns []Turn) []*genai.Content {
	var contents []*genai.Content
	for _, turn := range turns {
		switch turn.Role {
		case RoleUser:
			contents = append(contents, genai.NewContentFromText(turn.Text, genai.RoleUser))
		case RoleAssistant:
			contents = append(contents, genai.NewContentFromText(turn.Text, genai.RoleModel))
		}
	}
	return contents
}

func (g *GeminiClient) generate(ctx context.Context, system string, contents []*genai.Content, jsonMode bool, temperature *float64) (string, error) {
	temp := g.temperature
	if temperature != nil {
		temp = *temperature
	}

	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(temp)),
	}
	if g.maxTokens > 0 {
		cfg.MaxOutputTokens = int32(g.maxTokens)
	}
	if system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	if jsonMode {
		cfg.ResponseMIMEType = "application/json"
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		logger.FromContext(ctx).Error().Err(err).Str("provider", g.Name()).Msg("gemini generation failed")
		return "", classifyGeminiError(g.Name(), err)
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return "", providerFailure(g.Name(), errors.New("no candidates in response"))
	}
	return strings.TrimSpace(resp.Text()), nil
}

func classifyGeminiError(provider string, err error) error {
	code := 0
	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
		code = apiErr.Code
	case errors.As(err, &apiErrPtr):
		code = apiErrPtr.Code
	}
	if code != 0 {
		switch code {
		case 401, 403, 404:
			return providerUnavailable(provider, err)
		default:
			return providerFailure(provider, err)
		}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return providerFailure(provider, err)
	}
	return providerUnavailable(provider, err)
}
