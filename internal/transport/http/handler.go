package http

import (
	"context"
	"net/http"
	"time"

	"iq-arena-service/internal/app"
	"iq-arena-service/internal/domain"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Pinger is a dependency checked by the readiness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler serves the quiz JSON API.
type Handler struct {
	quiz       *app.QuizService
	challenges *app.ChallengeService
	metrics    *Metrics
	log        *zap.Logger
	checks     map[string]Pinger
	now        func() time.Time
}

func NewHandler(quiz *app.QuizService, challenges *app.ChallengeService, metrics *Metrics, log *zap.Logger, checks map[string]Pinger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		quiz:       quiz,
		challenges: challenges,
		metrics:    metrics,
		log:        log,
		checks:     checks,
		now:        time.Now,
	}
}

type submitRequest struct {
	QuizSessionID string          `json:"quizSessionId" binding:"required"`
	UserName      string          `json:"userName" binding:"required"`
	Answers       []domain.Answer `json:"answers" binding:"required"`
	TimeTaken     *float64        `json:"timeTaken" binding:"required"`
	ChallengeID   string          `json:"challengeId"`
}

// StartQuiz handles POST /start-quiz.
func (h *Handler) StartQuiz(c *gin.Context) {
	started, err := h.quiz.StartQuiz(c.Request.Context())
	if err != nil {
		h.respondError(c, err, "Internal server error while starting quiz")
		return
	}
	c.JSON(http.StatusOK, started)
}

// SubmitTest handles POST /submit-test.
func (h *Handler) SubmitTest(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.metrics.observeSubmission(domain.ErrInvalidPayload, 0)
		h.respondError(c, domain.ErrInvalidPayload, "")
		return
	}

	result, err := h.quiz.SubmitTest(c.Request.Context(), domain.Submission{
		QuizSessionID: req.QuizSessionID,
		UserName:      req.UserName,
		Answers:       req.Answers,
		TimeTaken:     *req.TimeTaken,
		ChallengeID:   req.ChallengeID,
	})
	h.metrics.observeSubmission(err, result.Score)
	if err != nil {
		h.respondError(c, err, "Internal server error while evaluating test")
		return
	}
	c.JSON(http.StatusOK, result)
}

// Leaderboard handles GET /leaderboard/:challengeId.
func (h *Handler) Leaderboard(c *gin.Context) {
	board, err := h.challenges.Leaderboard(c.Request.Context(), c.Param("challengeId"))
	if err != nil {
		h.respondError(c, err, "Internal server error while fetching leaderboard")
		return
	}
	c.JSON(http.StatusOK, board)
}

// Health is a liveness probe.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "OK",
		"timestamp": h.now().UTC().Format(time.RFC3339),
	})
}

// Ready pings every configured store.
func (h *Handler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	components := make(gin.H, len(h.checks))
	for name, check := range h.checks {
		if err := check.Ping(ctx); err != nil {
			h.log.Warn("readiness check failed", zap.String("component", name), zap.Error(err))
			components[name] = "down"
			status = http.StatusServiceUnavailable
			continue
		}
		components[name] = "up"
	}
	c.JSON(status, gin.H{"status": http.StatusText(status), "components": components})
}
