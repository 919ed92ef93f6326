package handlers

import (
	"errors"
	"net/http"

	"account_store/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

const (
	msgInvalidBody = "invalid request body"
	msgInternal    = "internal server error"
)

type fieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

type errorResponse struct {
	Error   string       `json:"error"`
	Details []fieldError `json:"details,omitempty"`
}

// bindJSONOrBadRequest tries to bind the request body into dst and writes a 400 JSON on failure.
// Returns false if the request was already handled (aborted), true otherwise.
func (h *Handler) bindJSONOrBadRequest(c *gin.Context, dst any) bool {
	err := c.ShouldBindJSON(dst)
	if err == nil {
		return true
	}

	if log := h.reqLog(c); log != nil {
		log.Infow("bad_request_body", "path", c.FullPath(), "err", err)
	}

	resp := errorResponse{Error: msgInvalidBody}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			resp.Details = append(resp.Details, fieldError{Field: jsonFieldName(fe), Rule: fe.Tag()})
		}
	}
	c.JSON(http.StatusBadRequest, resp)
	return false
}

// jsonFieldName lowercases the struct field name; request fields are single words.
func jsonFieldName(fe validator.FieldError) string {
	name := []rune(fe.Field())
	if len(name) > 0 && name[0] >= 'A' && name[0] <= 'Z' {
		name[0] += 'a' - 'A'
	}
	return string(name)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, service.ErrAuthentication):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps a service error to its status and caller-facing message.
// Unclassified and storage errors never leak their cause.
func (h *Handler) writeError(c *gin.Context, event string, err error, kv ...any) {
	status := statusFor(err)

	msg := msgInternal
	var se *service.Error
	if errors.As(err, &se) && status != http.StatusInternalServerError {
		msg = se.Msg
	}

	if log := h.reqLog(c); log != nil {
		fields := append([]any{"status", status, "err", err}, kv...)
		if status >= http.StatusInternalServerError {
			log.Errorw(event, fields...)
		} else {
			log.Infow(event, fields...)
		}
	}

	c.JSON(status, errorResponse{Error: msg})
}
