package ai

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/shared"

	"github.com/sellersaathi/copilot-api/pkg/config"
	"github.com/sellersaathi/copilot-api/pkg/logger"
)

const groqBaseURL = "https://api.groq.com/openai/v1"

// OpenAIClient talks to any OpenAI compatible chat completions endpoint
// (OpenAI, Groq, Azure OpenAI). It serves both text and vision requests.
type OpenAIClient struct {
	client      openai.Client
	provider    string
	model       string
	temperature float64
	maxTokens   int
}

func NewOpenAIClient(pc config.ProviderConfig, opts ...option.RequestOption) *OpenAIClient {
	baseURL := pc.BaseURL
	if baseURL == "" && pc.Provider == "groq" {
		baseURL = groqBaseURL
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(pc.APIKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(baseURL))
	}
	if pc.Timeout > 0 {
		reqOpts = append(reqOpts, option.WithRequestTimeout(pc.Timeout))
	}
	reqOpts = append(reqOpts, opts...)

	provider := pc.Provider
	if provider == "" {
		provider = "openai"
	}

	return &OpenAIClient{
		client:      openai.NewClient(reqOpts...),
		provider:    provider,
		model:       pc.Model,
		temperature: pc.Temperature,
		maxTokens:   pc.MaxTokens,
	}
}

func (c *OpenAIClient) Name() string {
	return c.provider
}

func (c *OpenAIClient) Generate(ctx context.Context, req TextRequest) (string, error) {
	messages := c.conversation(req.System, req.History)
	messages = append(messages, openai.ChatCompletionMessageParamUnion{
		OfUser: &openai.ChatCompletionUserMessageParam{
			Content: openai.ChatCompletionUserMessageParamContentUnion{
				OfString: openai.String(req.Prompt),
			},
		},
	})
	return c.complete(ctx, messages, req.JSONMode, req.Temperature)
}

func (c *OpenAIClient) Describe(ctx context.Context, req VisionRequest) (string, error) {
	messages := c.conversation(req.System, req.History)
	messages = append(messages, openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
		openai.TextContentPart(req.Prompt),
		openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
			URL: req.Image.DataURL(),
		}),
	}))
	return c.complete(ctx, messages, req.JSONMode, req.Temperature)
}

func (c *OpenAIClient) conversation(system string, history []Turn) []openai.ChatCompletionMessageParamUnion {
	var messages []openai.ChatCompletionMessageParamUnion
	if system != "" {
		messages = append(messages, openai.ChatCompletionMessageParamUnion{
			OfSystem: &openai.ChatCompletionSystemMessageParam{
				Content: openai.ChatCompletionSystemMessageParamContentUnion{
					OfString: openai.String(system),
				},
			},
		})
	}
	for _, turn := range history {
		switch turn.Role {
		case RoleUser:
			messages = append(messages, openai.UserMessage(turn.Text))
		case RoleAssistant:
			messages = append(messages, openai.AssistantMessage(turn.Text))
		}
	}
	return messages
}

func (c *OpenAIClient) complete(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion, jsonMode bool, temperature *float64) (string, error) {
	temp := c.temperature
	if temperature != nil {
		temp = *temperature
	}

	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(c.model),
		Messages:    messages,
		Temperature: openai.Float(temp),
	}
	if c.maxTokens > 0 {
		params.MaxTokens = openai.Int(int64(c.maxTokens))
	}
	if jsonMode {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		logger.FromContext(ctx).Error().Err(err).Str("provider", c.provider).Msg("chat completion failed")
		return "", classifyOpenAIError(c.provider, err)
	}

	if len(resp.Choices) == 0 {
		return "", providerFailure(c.provider, errors.New("no choices in response"))
	}

	// an empty message is returned as is; callers decide on a fallback
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// classifyOpenAIError separates "needs setup" (bad key, unknown model,
// unreachable host) from runtime failures.
func classifyOpenAIError(provider string, err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
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
