package app

import (
	"math"
	"strings"
	"time"

	"iq-arena-service/internal/domain"
)

const (
	minScore     = 80
	maxScore     = 145
	maxRawScore  = 260
	scoreSpan    = maxScore - minScore
	maxNameRunes = 50
)

// Rules holds the tunable limits of a quiz run.
type Rules struct {
	QuestionsPerSession int
	TimeLimit           time.Duration
	Grace               time.Duration
	MinTimeTaken        float64
	MaxTimeTaken        float64
	MaxParticipants     int
}

// DefaultRules returns the production limits: 20 questions, 15 minutes plus a
// minute of grace, 2..1500 seconds reported time, 25 participants per challenge.
func DefaultRules() Rules {
	return Rules{
		QuestionsPerSession: 20,
		TimeLimit:           15 * time.Minute,
		Grace:               time.Minute,
		MinTimeTaken:        2,
		MaxTimeTaken:        1500,
		MaxParticipants:     25,
	}
}

// ShuffleQuestions permutes questions in place (Fisher-Yates).
func ShuffleQuestions(questions []domain.Question, rnd Source) {
	for i := len(questions) - 1; i > 0; i-- {
		j := rnd.Intn(i + 1)
		questions[i], questions[j] = questions[j], questions[i]
	}
}

// SanitizeName keeps ASCII letters, digits and spaces, truncated to 50 characters.
func SanitizeName(name string) string {
	var b strings.Builder
	n := 0
	for _, r := range name {
		if n == maxNameRunes {
			break
		}
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == ' ' {
			b.WriteRune(r)
			n++
		}
	}
	return b.String()
}

// RawScore combines correctness, difficulty and a speed bonus for finishing under 600 seconds.
func RawScore(correctCount int, difficultySum, timeTaken float64) float64 {
	timeBonus := math.Max(0, 600-timeTaken) / 10
	return float64(correctCount*5) + difficultySum + timeBonus
}

// ScaleScore maps a raw score onto the 80..145 display scale.
func ScaleScore(raw float64) int {
	score := int(math.Floor(minScore + raw*scoreSpan/maxRawScore))
	if score < minScore {
		return minScore
	}
	if score > maxScore {
		return maxScore
	}
	return score
}

// TitleFor returns the title band of a scaled score.
func TitleFor(score int) string {
	switch {
	case score < 90:
		return "Raw Potential"
	case score <= 105:
		return "Above Average"
	case score <= 120:
		return "Strategic Thinker"
	case score <= 135:
		return "Elite Problem Solver"
	default:
		return "Rare Mind"
	}
}

// Percentile is the share of the challenge strictly outscored by score, counting
// the new participant in the denominator. The first participant always gets 100.
func Percentile(existing []domain.Participant, score int) int {
	if len(existing) == 0 {
		return 100
	}
	lower := 0
	for _, p := range existing {
		if p.Score < score {
			lower++
		}
	}
	return int(math.Round(float64(lower) / float64(len(existing)+1) * 100))
}

// Evaluate scores answers against the stored questions. Unknown questions count as wrong.
func Evaluate(answers []domain.Answer, questions map[string]domain.Question) (correctCount int, difficultySum float64) {
	for _, ans := range answers {
		q, ok := questions[ans.QuestionID]
		if !ok || q.CorrectAnswer != ans.Selected {
			continue
		}
		correctCount++
		difficultySum += q.Weight()
	}
	return correctCount, difficultySum
}
