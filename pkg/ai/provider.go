package ai

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"

	"github.com/sellersaathi/copilot-api/pkg/config"
	"github.com/sellersaathi/copilot-api/pkg/logger"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one prior message in a conversation.
type Turn struct {
	Role Role
	Text string
}

// Image is a single embedded image, always sent as its own input part.
type Image struct {
	Data     []byte
	MIMEType string
}

// NewImage sniffs the MIME type when mimeType is empty or generic.
func NewImage(data []byte, mimeType string) *Image {
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(data)
	}
	return &Image{Data: data, MIMEType: mimeType}
}

// DecodeImage accepts raw base64 or a data URL ("data:image/png;base64,...").
func DecodeImage(value string) (*Image, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, errors.New("empty image")
	}

	mimeType := ""
	if rest, ok := strings.CutPrefix(value, "data:"); ok {
		meta, payload, found := strings.Cut(rest, ",")
		if !found || !strings.HasSuffix(meta, ";base64") {
			return nil, errors.New("image data URL must be base64 encoded")
		}
		mimeType = strings.TrimSuffix(meta, ";base64")
		value = payload
	}

	data, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, errors.New("empty image")
	}
	return NewImage(data, mimeType), nil
}

func (i *Image) DataURL() string {
	return "data:" + i.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(i.Data)
}

type TextRequest struct {
	System      string
	Prompt      string
	History     []Turn
	JSONMode    bool
	Temperature *float64
}

type VisionRequest struct {
	System      string
	Prompt      string
	Image       Image
	History     []Turn
	JSONMode    bool
	Temperature *float64
}

type TextGenerator interface {
	Name() string
	Generate(ctx context.Context, req TextRequest) (string, error)
}

type VisionGenerator interface {
	Name() string
	Describe(ctx context.Context, req VisionRequest) (string, error)
}

// Providers holds the generators built once at startup.
type Providers struct {
	Text   TextGenerator
	Vision VisionGenerator
}

// Configured reports whether each generator has credentials.
func (p Providers) Configured() map[string]bool {
	return map[string]bool{
		"text":   isConfigured(p.Text),
		"vision": isConfigured(p.Vision),
	}
}

func isConfigured(g any) bool {
	if g == nil {
		return false
	}
	_, off := g.(*Unconfigured)
	return !off
}

// NewProviders builds the text and vision generators described by cfg. A
// provider without credentials becomes an Unconfigured generator rather
// than an error, so the server still starts and reports the gap per call.
func NewProviders(ctx context.Context, cfg *config.Config) Providers {
	return Providers{
		Text:   newText(ctx, cfg.Text),
		Vision: newVision(ctx, cfg.Vision),
	}
}

func newText(ctx context.Context, pc config.ProviderConfig) TextGenerator {
	g, err := newGenerator(ctx, pc)
	if err != nil {
		logger.Logger.Warn().Err(err).Str("provider", pc.Provider).Msg("text generation disabled")
		return &Unconfigured{Provider: pc.Provider, Reason: err.Error()}
	}
	t, ok := g.(TextGenerator)
	if !ok {
		return &Unconfigured{Provider: pc.Provider, Reason: "provider cannot generate text"}
	}
	logger.Logger.Info().Str("provider", t.Name()).Str("model", pc.Model).Msg("text generation enabled")
	return t
}

func newVision(ctx context.Context, pc config.ProviderConfig) VisionGenerator {
	g, err := newGenerator(ctx, pc)
	if err != nil {
		logger.Logger.Warn().Err(err).Str("provider", pc.Provider).Msg("vision generation disabled")
		return &Unconfigured{Provider: pc.Provider, Reason: err.Error()}
	}
	v, ok := g.(VisionGenerator)
	if !ok {
		return &Unconfigured{Provider: pc.Provider, Reason: "provider cannot describe images"}
	}
	logger.Logger.Info().Str("provider", v.Name()).Str("model", pc.Model).Msg("vision generation enabled")
	return v
}

func newGenerator(ctx context.Context, pc config.ProviderConfig) (any, error) {
	if pc.APIKey == "" {
		return nil, errors.New("no API key configured")
	}
	switch pc.Provider {
	case "openai", "groq", "azure":
		return NewOpenAIClient(pc), nil
	case "gemini", "google":
		return NewGeminiClient(ctx, pc)
	default:
		return nil, errors.New("unknown provider " + pc.Provider)
	}
}

// Unconfigured stands in for a provider that could not be built. Every call
// fails with a provider_unavailable error.
type Unconfigured struct {
	Provider string
	Reason   string
}

func (u *Unconfigured) Name() string {
	if u.Provider == "" {
		return "unconfigured"
	}
	return u.Provider
}

func (u *Unconfigured) Generate(context.Context, TextRequest) (string, error) {
	return "", providerUnavailable(u.Name(), errors.New(u.Reason))
}

func (u *Unconfigured) Describe(context.Context, VisionRequest) (string, error) {
	return "", providerUnavailable(u.Name(), errors.New(u.Reason))
}
