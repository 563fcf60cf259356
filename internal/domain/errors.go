package domain

import "errors"

// Kind classifies an error for callers that need to map it onto a transport status.
type Kind string

const (
	KindUnauthorized Kind = "Unauthorized"
	KindForbidden    Kind = "Forbidden"
	KindNotFound     Kind = "NotFound"
	KindBadRequest   Kind = "BadRequest"
	KindConflict     Kind = "Conflict"
	KindInternal     Kind = "InternalError"
)

// Error is a sentinel error carrying its Kind.
type Error struct {
	kind Kind
	msg  string
}

func newError(kind Kind, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

func (e *Error) Error() string { return e.msg }

// Kind reports the error class.
func (e *Error) Kind() Kind { return e.kind }

var (
	// ErrUnauthorized is returned when no valid bearer token accompanies a request.
	ErrUnauthorized = newError(KindUnauthorized, "authentication required")
	// ErrForbidden is returned on role or ownership mismatch.
	ErrForbidden = newError(KindForbidden, "access denied")
	// ErrAdminRequired is returned when a non-admin calls an admin operation.
	ErrAdminRequired = newError(KindForbidden, "admin access required")
	// ErrQuestionsHidden is returned when question browsing is disabled by battle mode.
	ErrQuestionsHidden = newError(KindForbidden, "questions are hidden in battle mode; create a session to start")
	// ErrSelfGrading is returned when a grader tries to grade their own answer.
	ErrSelfGrading = newError(KindForbidden, "answers cannot be graded by their owner")

	// ErrSessionNotFound is returned when a quiz session does not exist.
	ErrSessionNotFound = newError(KindNotFound, "session not found")
	// ErrQuestionNotFound indicates an unknown question, or one outside the session snapshot.
	ErrQuestionNotFound = newError(KindNotFound, "question not found")
	// ErrAnswerNotFound indicates an unknown answer id.
	ErrAnswerNotFound = newError(KindNotFound, "answer not found")
	// ErrUserNotFound indicates an unknown user id.
	ErrUserNotFound = newError(KindNotFound, "user not found")
	// ErrCategoryNotFound indicates an unknown category id.
	ErrCategoryNotFound = newError(KindNotFound, "category not found")

	// ErrNoQuestionsAvailable is returned when session filters match no questions.
	ErrNoQuestionsAvailable = newError(KindBadRequest, "no questions available with these filters")
	// ErrSessionExpired is returned when answering a timed session past its deadline.
	ErrSessionExpired = newError(KindBadRequest, "session has expired")
	// ErrInvalidQuestion indicates a malformed question definition.
	ErrInvalidQuestion = newError(KindBadRequest, "invalid question")
	// ErrInvalidAnswer indicates a malformed answer payload.
	ErrInvalidAnswer = newError(KindBadRequest, "invalid answer")
	// ErrInvalidGrade indicates malformed rubric scores.
	ErrInvalidGrade = newError(KindBadRequest, "invalid grade")
	// ErrInvalidRequest covers remaining request validation failures.
	ErrInvalidRequest = newError(KindBadRequest, "invalid request")

	// ErrAlreadyCompleted is returned when mutating a completed session.
	ErrAlreadyCompleted = newError(KindConflict, "session already completed")
	// ErrAlreadyAnswered is returned on a second answer for the same session question.
	ErrAlreadyAnswered = newError(KindConflict, "question already answered in this session")
	// ErrAlreadyGraded is returned when grading an answer twice.
	ErrAlreadyGraded = newError(KindConflict, "answer already graded")
)

// KindOf returns the Kind of the first domain error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.kind
	}
	return KindInternal
}
