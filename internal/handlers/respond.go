package handlers

import (
	"errors"
	"net/http"
	"reflect"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/yukikurage/field-service-api/internal/dto"
	apierrors "github.com/yukikurage/field-service-api/internal/errors"
	"github.com/yukikurage/field-service-api/internal/logger"
	"github.com/yukikurage/field-service-api/internal/middleware"
	"github.com/yukikurage/field-service-api/internal/policy"
	"github.com/yukikurage/field-service-api/internal/services"
	"github.com/yukikurage/field-service-api/internal/utils"
)

func respond(c *gin.Context, status int, data interface{}) {
	c.JSON(status, apierrors.Envelope{Success: true, Data: data})
}

func respondPage(c *gin.Context, data interface{}, pagination utils.PaginationResponse) {
	c.JSON(http.StatusOK, apierrors.Envelope{Success: true, Data: data, Pagination: pagination})
}

func respondMessage(c *gin.Context, message string) {
	c.JSON(http.StatusOK, apierrors.Envelope{Success: true, Message: message})
}

// respondServiceError maps service errors to the envelope. Everything
// unexpected is logged and answered with 500.
func respondServiceError(c *gin.Context, err error) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		apierrors.ValidationFailed(c, toFieldErrors(verr.Fields))
	case errors.Is(err, dto.ErrPatchNotObject):
		apierrors.BadRequest(c, "Invalid request body")
	case errors.Is(err, services.ErrInvalidCredentials):
		apierrors.InvalidCredentials(c)
	case errors.Is(err, services.ErrTenantInactive):
		apierrors.Unauthorized(c, message(err))
	case errors.Is(err, services.ErrFileTooLarge):
		apierrors.PayloadTooLarge(c, message(err))
	case errors.Is(err, services.ErrUnsupportedFileType):
		apierrors.UnsupportedFileType(c, message(err))
	case errors.Is(err, services.ErrNotFound):
		apierrors.NotFound(c, message(err))
	case errors.Is(err, services.ErrForbidden):
		apierrors.Forbidden(c, message(err))
	case errors.Is(err, services.ErrConflict):
		apierrors.Conflict(c, message(err))
	default:
		logger.FromGin(c).Error("Request failed", zap.Error(err))
		apierrors.InternalError(c, "", err)
	}
}

func message(err error) string {
	msg := err.Error()
	r, size := utf8.DecodeRuneInString(msg)
	if r == utf8.RuneError {
		return msg
	}
	return string(unicode.ToUpper(r)) + msg[size:]
}

func toFieldErrors(fields []services.FieldError) []apierrors.FieldError {
	out := make([]apierrors.FieldError, len(fields))
	for i, f := range fields {
		out[i] = apierrors.FieldError{Field: f.Field, Message: f.Message}
	}
	return out
}

// currentActor returns the authenticated caller as a policy actor
func currentActor(c *gin.Context) (policy.Actor, bool) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return policy.Actor{}, false
	}
	return policy.Actor{
		UserID:   identity.UserID,
		TenantID: identity.TenantID,
		Role:     identity.Role,
	}, true
}

var registerTagNames sync.Once

// bindJSON decodes the body and runs the binding rules. Rule failures are
// answered with per-field details named after the JSON keys.
func bindJSON(c *gin.Context, req interface{}) bool {
	registerTagNames.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			v.RegisterTagNameFunc(func(field reflect.StructField) string {
				name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
				if name == "-" {
					return ""
				}
				return name
			})
		}
	})

	if err := c.ShouldBindJSON(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			apierrors.ValidationFailed(c, validationDetails(verrs))
			return false
		}
		apierrors.BadRequest(c, "Invalid request body")
		return false
	}
	return true
}

func validationDetails(verrs validator.ValidationErrors) []apierrors.FieldError {
	out := make([]apierrors.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		var msg string
		switch fe.Tag() {
		case "required":
			msg = field + " is required"
		case "email":
			msg = field + " must be a valid email"
		case "min":
			msg = field + " must be at least " + fe.Param() + " characters"
		case "oneof":
			msg = field + " must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
		default:
			msg = field + " is invalid"
		}
		out = append(out, apierrors.FieldError{Field: field, Message: msg})
	}
	return out
}
