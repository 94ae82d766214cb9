package router

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/sellersaathi/copilot-api/pkg/ai"
	"github.com/sellersaathi/copilot-api/pkg/global"
	"github.com/sellersaathi/copilot-api/pkg/logger"
)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(jsonFieldName)
	}
}

func jsonFieldName(sf reflect.StructField) string {
	name, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	if name == "" {
		return sf.Name
	}
	return name
}

// statusFor maps an error kind onto the HTTP status returned to clients.
func statusFor(kind ai.Kind) int {
	switch kind {
	case ai.KindProviderUnavailable, ai.KindSourceUnavailable:
		return http.StatusServiceUnavailable
	case ai.KindSchemaViolation, ai.KindProviderFailure, ai.KindMalformedRecord:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeError answers a failed operation. message describes what the
// handler was doing; the error kind decides the status.
func writeError(c *gin.Context, message string, err error) {
	log := logger.FromContext(c.Request.Context())

	var fanOut *ai.FanOutError
	if errors.As(err, &fanOut) {
		status := http.StatusBadGateway
		if fanOut.AllKind() == ai.KindProviderUnavailable {
			status = http.StatusServiceUnavailable
		}
		details := make([]global.ValidationError, 0, len(fanOut.Failures))
		for _, f := range fanOut.Failures {
			details = append(details, global.ValidationError{
				Field:   string(f.Capability) + "." + f.Task,
				Message: f.Message,
				Code:    string(f.Kind),
			})
		}
		log.Error().Err(err).Int("status", status).Msg(message)
		c.JSON(status, global.ErrorResponse(message, details))
		return
	}

	var aiErr *ai.Error
	if errors.As(err, &aiErr) {
		status := statusFor(aiErr.Kind)
		log.Error().Err(err).Int("status", status).Str("kind", string(aiErr.Kind)).Msg(message)
		c.JSON(status, global.ErrorResponse(message, []global.ValidationError{
			{Field: string(aiErr.Capability), Message: aiErr.Message, Code: string(aiErr.Kind)},
		}))
		return
	}

	log.Error().Err(err).Msg(message)
	c.JSON(http.StatusInternalServerError, global.ErrorResponse(message, nil))
}

// bindErrors turns a ShouldBind error into per field details.
func bindErrors(err error) []global.ValidationError {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		out := make([]global.ValidationError, 0, len(ve))
		for _, fe := range ve {
			out = append(out, global.ValidationError{
				Field:   fieldPath(fe),
				Message: fieldMessage(fe),
				Code:    fe.Tag(),
			})
		}
		return out
	}
	return []global.ValidationError{{Field: "body", Message: err.Error(), Code: "invalid_json"}}
}

// fieldPath drops the top level struct name from the namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return fe.Field()
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fieldPath(fe) + " is required"
	case "oneof":
		return fieldPath(fe) + " must be one of: " + fe.Param()
	default:
		return fieldPath(fe) + " failed " + fe.Tag() + " validation"
	}
}

func badRequest(c *gin.Context, message string, details []global.ValidationError) {
	c.JSON(http.StatusBadRequest, global.ErrorResponse(message, details))
}
