package domain

import "errors"

var (
	// ErrInvalidName is returned when a session is started with a blank player name.
	ErrInvalidName = errors.New("player name must not be empty")
	// ErrSessionNotFound is returned when no session exists for the given ID.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrDuplicateSubmission indicates an answer arrived while the current
	// question is already being evaluated; callers treat it as a no-op.
	ErrDuplicateSubmission = errors.New("answer already submitted for current question")
	// ErrSessionFinished indicates a submission after the session reached its terminal state.
	ErrSessionFinished = errors.New("quiz session already finished")
	// ErrSessionActive indicates a report was requested before the session finished.
	ErrSessionActive = errors.New("quiz session still in progress")
	// ErrReportNotFound indicates no archived report exists for the given ID.
	ErrReportNotFound = errors.New("report not found")
)
