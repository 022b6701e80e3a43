package http

import (
	"errors"
	"net/http"

	"iq-arena-service/internal/domain"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type errorResponse struct {
	Error string `json:"error"`
}

func statusFor(kind domain.Kind) int {
	switch kind {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindConflict:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes {error: message}. Internal errors are logged and replaced by fallback.
func (h *Handler) respondError(c *gin.Context, err error, fallback string) {
	kind := domain.KindOf(err)
	if kind == domain.KindInternal {
		h.log.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		msg := fallback
		if errors.Is(err, domain.ErrNoQuestions) {
			msg = "No questions available in the database."
		}
		if msg == "" {
			msg = "Internal server error"
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, errorResponse{Error: msg})
		return
	}
	c.AbortWithStatusJSON(statusFor(kind), errorResponse{Error: err.Error()})
}
