package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"iq-arena-service/internal/app"
	"iq-arena-service/internal/domain"
	"iq-arena-service/internal/infra/memory"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestStartAndSubmitFlow(t *testing.T) {
	router := newTestRouter(t, pool(5), RouterOptions{})

	rec := do(router, http.MethodPost, "/start-quiz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("start quiz: %d %s", rec.Code, rec.Body)
	}
	if strings.Contains(rec.Body.String(), "correctAnswer") {
		t.Fatalf("start response leaks answers: %s", rec.Body)
	}
	var started domain.StartedQuiz
	decode(t, rec, &started)
	if started.QuizSessionID == "" || len(started.Questions) != 5 {
		t.Fatalf("unexpected start response: %+v", started)
	}

	answers := make([]domain.Answer, 0, len(started.Questions))
	for _, q := range started.Questions {
		answers = append(answers, domain.Answer{QuestionID: q.ID, Selected: "A"})
	}
	rec = do(router, http.MethodPost, "/submit-test", map[string]any{
		"quizSessionId": started.QuizSessionID,
		"userName":      "Alice",
		"answers":       answers,
		"timeTaken":     100,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("submit: %d %s", rec.Code, rec.Body)
	}
	var result domain.Result
	decode(t, rec, &result)
	if result.Score != 100 || result.Title != "Above Average" || result.Percentile != 100 {
		t.Fatalf("unexpected result: %+v", result)
	}

	rec = do(router, http.MethodGet, "/leaderboard/"+result.ChallengeID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("leaderboard: %d %s", rec.Code, rec.Body)
	}
	var board domain.Leaderboard
	decode(t, rec, &board)
	if board.TotalParticipants != 1 || board.Participants[0].Name != "Alice" || board.Participants[0].Rank != 1 {
		t.Fatalf("unexpected leaderboard: %+v", board)
	}

	rec = do(router, http.MethodPost, "/submit-test", map[string]any{
		"quizSessionId": started.QuizSessionID,
		"userName":      "Alice",
		"answers":       answers,
		"timeTaken":     100,
	})
	assertError(t, rec, http.StatusForbidden, "Session already used")
}

func TestSubmitErrorStatuses(t *testing.T) {
	router := newTestRouter(t, pool(5), RouterOptions{})

	cases := []struct {
		name   string
		body   any
		status int
		msg    string
	}{
		{name: "malformed", body: "not json", status: http.StatusBadRequest, msg: "Invalid payload"},
		{name: "missing time", body: map[string]any{"quizSessionId": "x", "userName": "a", "answers": []any{}}, status: http.StatusBadRequest, msg: "Invalid payload"},
		{name: "missing answers", body: map[string]any{"quizSessionId": "x", "userName": "a", "timeTaken": 10}, status: http.StatusBadRequest, msg: "Invalid payload"},
		{name: "unknown session", body: map[string]any{"quizSessionId": "x", "userName": "a", "answers": []any{}, "timeTaken": 10}, status: http.StatusNotFound, msg: "Session not found"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assertError(t, do(router, http.MethodPost, "/submit-test", tc.body), tc.status, tc.msg)
		})
	}
}

func TestSubmitUnknownChallenge(t *testing.T) {
	router := newTestRouter(t, pool(3), RouterOptions{})

	var started domain.StartedQuiz
	decode(t, do(router, http.MethodPost, "/start-quiz", nil), &started)

	rec := do(router, http.MethodPost, "/submit-test", map[string]any{
		"quizSessionId": started.QuizSessionID,
		"userName":      "Bob",
		"answers":       []any{},
		"timeTaken":     50,
		"challengeId":   "missing",
	})
	assertError(t, rec, http.StatusNotFound, "Challenge not found")
}

func TestStartQuizWithEmptyPool(t *testing.T) {
	router := newTestRouter(t, nil, RouterOptions{})
	assertError(t, do(router, http.MethodPost, "/start-quiz", nil), http.StatusInternalServerError, "No questions available in the database.")
}

func TestLeaderboardRoutes(t *testing.T) {
	router := newTestRouter(t, pool(1), RouterOptions{})

	assertError(t, do(router, http.MethodGet, "/leaderboard", nil), http.StatusBadRequest, "Missing challengeId")
	assertError(t, do(router, http.MethodGet, "/leaderboard/unknown", nil), http.StatusNotFound, "Challenge not found")
}

func TestHealthAndReady(t *testing.T) {
	h := newTestHandler(pool(1), map[string]Pinger{"redis": pingFunc(func(context.Context) error { return nil })})
	h.now = func() time.Time { return time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC) }
	router := NewRouter(h, RouterOptions{})

	rec := do(router, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("health: %d", rec.Code)
	}
	var health map[string]string
	decode(t, rec, &health)
	if health["status"] != "OK" || health["timestamp"] != "2026-10-15T12:00:00Z" {
		t.Fatalf("unexpected health body: %v", health)
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" || rec.Header().Get("X-Frame-Options") != "DENY" {
		t.Fatalf("security headers missing: %v", rec.Header())
	}

	if rec := do(router, http.MethodGet, "/ready", nil); rec.Code != http.StatusOK {
		t.Fatalf("ready: %d %s", rec.Code, rec.Body)
	}

	down := newTestHandler(pool(1), map[string]Pinger{"postgres": pingFunc(func(context.Context) error { return errors.New("refused") })})
	rec = do(NewRouter(down, RouterOptions{}), http.MethodGet, "/ready", nil)
	if rec.Code != http.StatusServiceUnavailable || !strings.Contains(rec.Body.String(), `"postgres":"down"`) {
		t.Fatalf("expected postgres down, got %d %s", rec.Code, rec.Body)
	}
}

func TestUnknownRoute(t *testing.T) {
	router := newTestRouter(t, pool(1), RouterOptions{})
	assertError(t, do(router, http.MethodGet, "/nope", nil), http.StatusNotFound, "Not found")
}

func TestRateLimiter(t *testing.T) {
	router := newTestRouter(t, pool(1), RouterOptions{RateLimit: 3, RateWindow: time.Hour})

	for i := 0; i < 3; i++ {
		if rec := do(router, http.MethodGet, "/health", nil); rec.Code != http.StatusOK {
			t.Fatalf("request %d: %d", i, rec.Code)
		}
	}
	assertError(t, do(router, http.MethodGet, "/health", nil), http.StatusTooManyRequests, "Too many requests, please try again later.")
}

func TestRateLimiterIsPerKeyAndRefills(t *testing.T) {
	limiter := NewRateLimiter(2, time.Minute)
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	if !limiter.Allow("a") || !limiter.Allow("a") {
		t.Fatalf("burst should be allowed")
	}
	if limiter.Allow("a") {
		t.Fatalf("third request should be limited")
	}
	if !limiter.Allow("b") {
		t.Fatalf("other clients are limited separately")
	}
	now = now.Add(31 * time.Second)
	if !limiter.Allow("a") {
		t.Fatalf("token should refill after window/max")
	}
}

func TestCORS(t *testing.T) {
	router := newTestRouter(t, pool(1), RouterOptions{AllowedOrigins: []string{"http://localhost:5173"}})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Fatalf("expected allowed origin header, got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected foreign origin to be rejected, got %d", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouter(t, pool(1), RouterOptions{})
	do(router, http.MethodGet, "/health", nil)
	do(router, http.MethodPost, "/submit-test", "bad")

	rec := do(router, http.MethodGet, "/metrics", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics: %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `http_requests_total{endpoint="/health",method="GET",status="200"} 1`) {
		t.Fatalf("request counter missing:\n%s", body)
	}
	if !strings.Contains(body, `arena_submissions_total{outcome="validation"} 1`) {
		t.Fatalf("submission counter missing:\n%s", body)
	}
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func newTestHandler(questions []domain.Question, checks map[string]Pinger) *Handler {
	arena := memory.NewChallengeStore()
	challenges := app.NewChallengeService(arena, arena)
	repo := memory.NewQuestionRepository(memory.NewStaticQuestionLoader(questions), time.Minute)
	quiz := app.NewQuizService(repo, memory.NewSessionStore(), challenges)
	return NewHandler(quiz, challenges, NewMetrics(), nil, checks)
}

func newTestRouter(t *testing.T, questions []domain.Question, opts RouterOptions) *gin.Engine {
	t.Helper()
	return NewRouter(newTestHandler(questions, nil), opts)
}

func pool(n int) []domain.Question {
	out := make([]domain.Question, n)
	for i := range out {
		out[i] = domain.Question{
			ID:            fmt.Sprintf("q%d", i+1),
			Text:          fmt.Sprintf("Question %d", i+1),
			Options:       []string{"A", "B", "C"},
			CorrectAnswer: "A",
			Difficulty:    1,
		}
	}
	return out
}

func do(router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		_ = json.NewEncoder(&buf).Encode(b)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %s: %v", rec.Body, err)
	}
}

func assertError(t *testing.T, rec *httptest.ResponseRecorder, status int, msg string) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("expected status %d, got %d: %s", status, rec.Code, rec.Body)
	}
	var body errorResponse
	decode(t, rec, &body)
	if body.Error != msg {
		t.Fatalf("expected error %q, got %q", msg, body.Error)
	}
}
