package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// RouterOptions configures the cross-cutting middleware.
type RouterOptions struct {
	AllowedOrigins []string
	RateLimit      int
	RateWindow     time.Duration
}

// NewRouter wires middleware and routes around h.
func NewRouter(h *Handler, opts RouterOptions) *gin.Engine {
	router := gin.New()
	router.Use(
		Recovery(h.log),
		RequestLogger(h.log),
		h.metrics.Middleware(),
		Secure(),
		CORS(opts.AllowedOrigins),
	)
	if opts.RateLimit > 0 && opts.RateWindow > 0 {
		router.Use(NewRateLimiter(opts.RateLimit, opts.RateWindow).Middleware())
	}

	router.GET("/health", h.Health)
	router.GET("/ready", h.Ready)
	if h.metrics != nil {
		router.GET("/metrics", h.metrics.Handler())
	}

	router.POST("/start-quiz", h.StartQuiz)
	router.POST("/submit-test", h.SubmitTest)
	router.GET("/leaderboard", h.Leaderboard)
	router.GET("/leaderboard/:challengeId", h.Leaderboard)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, errorResponse{Error: "Not found"})
	})
	return router
}
