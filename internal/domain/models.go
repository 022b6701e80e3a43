package domain

import "time"

// Question is a seeded quiz question. CorrectAnswer and Difficulty never leave the server.
type Question struct {
	ID            string   `json:"id" yaml:"id"`
	Text          string   `json:"text" yaml:"text"`
	Options       []string `json:"options" yaml:"options"`
	CorrectAnswer string   `json:"correctAnswer" yaml:"correctAnswer"`
	Difficulty    float64  `json:"difficulty" yaml:"difficulty"` // treated as 1 if zero
}

// Weight returns the difficulty used for scoring.
func (q Question) Weight() float64 {
	if q.Difficulty == 0 {
		return 1
	}
	return q.Difficulty
}

// Public strips the answer-revealing fields.
func (q Question) Public() PublicQuestion {
	options := make([]string, len(q.Options))
	copy(options, q.Options)
	return PublicQuestion{ID: q.ID, Text: q.Text, Options: options}
}

// PublicQuestion is the client-facing view of a question.
type PublicQuestion struct {
	ID      string   `json:"id"`
	Text    string   `json:"text"`
	Options []string `json:"options"`
}

// QuizSession records which questions were drawn for one test-taker.
type QuizSession struct {
	ID          string
	QuestionIDs []string
	StartedAt   time.Time
	Consumed    bool
}

// HasQuestion reports whether questionID was drawn for this session.
func (s QuizSession) HasQuestion(questionID string) bool {
	for _, id := range s.QuestionIDs {
		if id == questionID {
			return true
		}
	}
	return false
}

// Challenge is a shareable leaderboard seeded by its creator's result.
type Challenge struct {
	ID              string
	CreatorName     string
	CreatorScore    int
	CreatorTitle    string
	CreatedAt       time.Time
	MaxParticipants int
	Closed          bool
}

// Participant is one scored submission inside a challenge.
type Participant struct {
	ID          string
	ChallengeID string
	UserName    string
	Score       int
	Title       string
	Percentile  int
	TimeTaken   float64
	CreatedAt   time.Time
}

// Answer is a single selected option for a question.
type Answer struct {
	QuestionID string `json:"questionId"`
	Selected   string `json:"selected"`
}

// Submission is a completed test handed in for evaluation.
type Submission struct {
	QuizSessionID string
	UserName      string
	Answers       []Answer
	TimeTaken     float64
	ChallengeID   string
}

// StartedQuiz is returned when a session is issued.
type StartedQuiz struct {
	QuizSessionID string           `json:"quizSessionId"`
	Questions     []PublicQuestion `json:"questions"`
}

// Result summarizes an evaluated submission.
type Result struct {
	Score             int    `json:"score"`
	Percentile        int    `json:"percentile"`
	Title             string `json:"title"`
	ChallengeID       string `json:"challengeId"`
	SharedChallengeID string `json:"sharedChallengeId"`
	TotalParticipants int    `json:"totalParticipants"`
}

// CreatorRecord is the challenge creator shown above the ranked participants.
type CreatorRecord struct {
	CreatorName  string `json:"creatorName"`
	CreatorScore int    `json:"creatorScore"`
	CreatorTitle string `json:"creatorTitle"`
}

// LeaderboardEntry is a ranked participant.
type LeaderboardEntry struct {
	Rank  int    `json:"rank"`
	Name  string `json:"name"`
	Score int    `json:"score"`
	Title string `json:"title"`
}

// Leaderboard captures the ordered scoreboard of a challenge.
type Leaderboard struct {
	ChallengeRecord   CreatorRecord      `json:"challengeRecord"`
	Participants      []LeaderboardEntry `json:"participants"`
	TotalParticipants int                `json:"totalParticipants"`
}
