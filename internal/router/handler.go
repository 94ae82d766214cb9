package router

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sellersaathi/copilot-api/pkg/ai"
	"github.com/sellersaathi/copilot-api/pkg/festival"
	"github.com/sellersaathi/copilot-api/pkg/global"
	"github.com/sellersaathi/copilot-api/pkg/logger"
	"github.com/sellersaathi/copilot-api/pkg/models"
)

const (
	defaultLocation = "Delhi"
	defaultCategory = "Kurtis"

	multipartMemory = 8 << 20
)

type Handler struct {
	copilot        *ai.Copilot
	maxUploadBytes int64
}

func NewHandler(copilot *ai.Copilot, maxUploadBytes int64) *Handler {
	return &Handler{copilot: copilot, maxUploadBytes: maxUploadBytes}
}

func (h *Handler) Welcome(c *gin.Context) {
	c.JSON(http.StatusOK, global.SuccessResponse(map[string]string{
		"message": "Welcome to the Seller Saathi AI Co-pilot API!",
	}))
}

func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, global.SuccessResponse(map[string]any{
		"status":          "OK",
		"providers":       h.copilot.Providers().Configured(),
		"festival_source": h.copilot.FestivalSource(),
	}))
}

func (h *Handler) Chat(c *gin.Context) {
	var req models.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid chat request", bindErrors(err))
		return
	}

	query := strings.TrimSpace(req.CurrentQuery)
	if query == "" {
		badRequest(c, "Invalid chat request", []global.ValidationError{
			{Field: "current_query", Message: "current_query must not be blank", Code: "required"},
		})
		return
	}

	in := ai.ChatInput{
		History:  historyTurns(req.History),
		Query:    query,
		Language: req.Language,
	}
	if req.Image != "" {
		img, err := ai.DecodeImage(req.Image)
		if err != nil {
			badRequest(c, "Invalid chat image", []global.ValidationError{
				{Field: "image", Message: "image must be base64 or a base64 data URL", Code: "invalid_image"},
			})
			return
		}
		in.Image = img
	}

	reply, err := h.copilot.Chat(c.Request.Context(), in)
	if err != nil {
		writeError(c, "Failed to generate chat reply", err)
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(models.ChatResponse{Reply: reply}))
}

// historyTurns keeps user and assistant turns; the assistant may be called
// model, bot or assistant. Other roles and empty turns are dropped.
func historyTurns(history []models.ChatMessage) []ai.Turn {
	turns := make([]ai.Turn, 0, len(history))
	for _, msg := range history {
		var role ai.Role
		switch strings.ToLower(strings.TrimSpace(msg.Role)) {
		case "user":
			role = ai.RoleUser
		case "model", "bot", "assistant":
			role = ai.RoleAssistant
		default:
			continue
		}
		if len(msg.Parts) == 0 || strings.TrimSpace(msg.Parts[0].Text) == "" {
			continue
		}
		turns = append(turns, ai.Turn{Role: role, Text: msg.Parts[0].Text})
	}
	return turns
}

func (h *Handler) GetPlannerReport(c *gin.Context) {
	location := queryOrDefault(c, "location", defaultLocation)

	res, err := h.copilot.PlannerReport(c.Request.Context(), location)
	if err != nil {
		writeError(c, "Failed to generate planner report", err)
		return
	}
	setCorrectionHeader(c, len(res.Corrections))
	c.JSON(http.StatusOK, global.SuccessResponse(res.Value))
}

type sourceGap struct {
	Source  string `json:"source"`
	Year    int    `json:"year"`
	Message string `json:"message"`
}

type festivalWindowResponse struct {
	EvaluationDate string               `json:"evaluationDate"`
	HorizonDays    int                  `json:"horizonDays"`
	Source         string               `json:"source"`
	Festivals      []festival.EventView `json:"festivals"`
	Skipped        []festival.Skip      `json:"skipped,omitempty"`
	Unavailable    []sourceGap          `json:"unavailable,omitempty"`
}

// GetFestivals returns the festival window for today. The evaluation date
// and horizon are fixed server side.
func (h *Handler) GetFestivals(c *gin.Context) {
	w := h.copilot.Festivals(c.Request.Context())

	resp := festivalWindowResponse{
		EvaluationDate: festival.FormatCanonical(w.EvaluationDate),
		HorizonDays:    w.HorizonDays,
		Source:         h.copilot.FestivalSource(),
		Festivals:      w.Views(),
		Skipped:        w.Skipped,
	}
	for _, se := range w.SourceErrors {
		resp.Unavailable = append(resp.Unavailable, sourceGap{Source: se.Source, Year: se.Year, Message: se.Err.Error()})
	}
	c.JSON(http.StatusOK, global.SuccessResponse(resp))
}

func (h *Handler) GetTrendsReport(c *gin.Context) {
	location := queryOrDefault(c, "location", defaultLocation)
	category := queryOrDefault(c, "category", defaultCategory)

	res, err := h.copilot.TrendsReport(c.Request.Context(), location, category)
	if err != nil {
		writeError(c, "Failed to generate trends report", err)
		return
	}
	setCorrectionHeader(c, len(res.Corrections))
	c.JSON(http.StatusOK, global.SuccessResponse(res.Value))
}

// GenerateListing reads a multipart form with description, category, an
// optional image and content_types (comma separated, default seo).
func (h *Handler) GenerateListing(c *gin.Context) {
	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	}
	if err := c.Request.ParseMultipartForm(multipartMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, global.ErrorResponse("Upload too large", []global.ValidationError{
				{Field: "image", Message: "request exceeds the " + strconv.FormatInt(tooLarge.Limit, 10) + " byte upload limit", Code: "too_large"},
			}))
			return
		}
		badRequest(c, "Invalid form data", []global.ValidationError{
			{Field: "body", Message: err.Error(), Code: "invalid_form"},
		})
		return
	}

	in := ai.ListingInput{
		Description: strings.TrimSpace(c.PostForm("description")),
		Category:    strings.TrimSpace(c.PostForm("category")),
	}

	var details []global.ValidationError
	if in.Category == "" {
		details = append(details, global.ValidationError{Field: "category", Message: "category is required", Code: "required"})
	}

	types, invalid := parseContentTypes(c.PostFormArray("content_types"))
	for _, t := range invalid {
		details = append(details, global.ValidationError{
			Field:   "content_types",
			Message: "unknown content type " + strconv.Quote(t) + ", expected seo, whatsapp or conversational",
			Code:    "invalid_content_type",
		})
	}
	in.ContentTypes = types

	img, imageErr := formImage(c)
	if imageErr != nil {
		details = append(details, *imageErr)
	}
	in.Image = img

	if in.Description == "" && in.Image == nil && imageErr == nil {
		details = append(details, global.ValidationError{Field: "description", Message: "a description or an image is required", Code: "required"})
	}
	if len(details) > 0 {
		badRequest(c, "Invalid listing request", details)
		return
	}

	out, err := h.copilot.GenerateListing(c.Request.Context(), in)
	if err != nil {
		writeError(c, "Failed to generate listing", err)
		return
	}
	if len(out.Failures) > 0 {
		logger.FromContext(c.Request.Context()).Warn().Int("failed", len(out.Failures)).Int("generated", len(out.Contents)).Msg("listing partially generated")
	}
	c.JSON(http.StatusOK, global.SuccessResponse(out))
}

// parseContentTypes accepts repeated fields and comma lists, keeps first
// occurrence order and defaults to seo.
func parseContentTypes(values []string) ([]models.ContentType, []string) {
	var types []models.ContentType
	var invalid []string
	seen := map[models.ContentType]bool{}
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			name := strings.ToLower(strings.TrimSpace(part))
			if name == "" {
				continue
			}
			ct := models.ContentType(name)
			if !ct.Valid() {
				invalid = append(invalid, part)
				continue
			}
			if !seen[ct] {
				seen[ct] = true
				types = append(types, ct)
			}
		}
	}
	if len(types) == 0 && len(invalid) == 0 {
		types = []models.ContentType{models.ContentSEO}
	}
	return types, invalid
}

func formImage(c *gin.Context) (*ai.Image, *global.ValidationError) {
	file, header, err := c.Request.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, &global.ValidationError{Field: "image", Message: err.Error(), Code: "invalid_image"}
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, &global.ValidationError{Field: "image", Message: "image could not be read", Code: "invalid_image"}
	}
	if len(data) == 0 {
		return nil, &global.ValidationError{Field: "image", Message: "image is empty", Code: "invalid_image"}
	}

	img := ai.NewImage(data, header.Header.Get("Content-Type"))
	if !strings.HasPrefix(img.MIMEType, "image/") {
		return nil, &global.ValidationError{Field: "image", Message: "file must be an image, got " + img.MIMEType, Code: "unsupported_media_type"}
	}
	return img, nil
}

func (h *Handler) ImproveListing(c *gin.Context) {
	var req models.ImproveListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid improve request", bindErrors(err))
		return
	}

	listing, err := h.copilot.ImproveListing(c.Request.Context(), req)
	if err != nil {
		writeError(c, "Failed to improve listing", err)
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(listing))
}

func (h *Handler) TranslateListing(c *gin.Context) {
	var req models.TranslateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid translate request", bindErrors(err))
		return
	}

	translated, err := h.copilot.TranslateListing(c.Request.Context(), req)
	if err != nil {
		writeError(c, "Failed to translate listing", err)
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(translated))
}

func queryOrDefault(c *gin.Context, key, fallback string) string {
	if v := strings.TrimSpace(c.Query(key)); v != "" {
		return v
	}
	return fallback
}

func setCorrectionHeader(c *gin.Context, n int) {
	if n > 0 {
		c.Header("X-Advisory-Corrections", strconv.Itoa(n))
	}
}
