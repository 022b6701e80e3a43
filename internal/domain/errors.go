package domain

import "errors"

// Kind classifies errors so transports can map them without string matching.
type Kind int

const (
	// KindInternal covers store failures and anything unexpected.
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Error is a classified business error. Message is safe to show to clients.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

var (
	// ErrInvalidPayload is returned when a submission is missing required fields.
	ErrInvalidPayload = &Error{Kind: KindValidation, Message: "Invalid payload"}
	// ErrSessionExpired is returned when the session outlived the quiz time budget.
	ErrSessionExpired = &Error{Kind: KindValidation, Message: "Session expired"}
	// ErrInvalidAnswersLength is returned for more answers than drawn questions.
	ErrInvalidAnswersLength = &Error{Kind: KindValidation, Message: "Invalid answers length"}
	// ErrQuestionMismatch is returned when an answer targets a question outside the session.
	ErrQuestionMismatch = &Error{Kind: KindValidation, Message: "Question IDs mismatch"}
	// ErrInvalidTimeTaken is returned when the reported duration is out of range.
	ErrInvalidTimeTaken = &Error{Kind: KindValidation, Message: "Invalid timeTaken"}
	// ErrEmptySession is returned when a session has no questions to score.
	ErrEmptySession = &Error{Kind: KindValidation, Message: "No questions in session"}
	// ErrMissingChallengeID is returned when a leaderboard is requested without an id.
	ErrMissingChallengeID = &Error{Kind: KindValidation, Message: "Missing challengeId"}

	// ErrSessionNotFound is returned when a quiz session does not exist.
	ErrSessionNotFound = &Error{Kind: KindNotFound, Message: "Session not found"}
	// ErrChallengeNotFound is returned when a challenge does not exist.
	ErrChallengeNotFound = &Error{Kind: KindNotFound, Message: "Challenge not found"}

	// ErrSessionUsed is returned when a session was already consumed.
	ErrSessionUsed = &Error{Kind: KindConflict, Message: "Session already used"}
	// ErrChallengeClosed is returned when a challenge no longer accepts participants.
	ErrChallengeClosed = &Error{Kind: KindConflict, Message: "Challenge closed"}
	// ErrChallengeFull is returned when a challenge reached its participant cap.
	ErrChallengeFull = &Error{Kind: KindConflict, Message: "Challenge full"}

	// ErrNoQuestions indicates the question pool is empty.
	ErrNoQuestions = errors.New("no questions available in the database")
)
