package domain

import "errors"

var (
	// ErrInvalidOptionIndex is returned when a selection is outside the current question's options.
	ErrInvalidOptionIndex = errors.New("option index out of range")
	// ErrNoSelection is returned when an answer is submitted with nothing selected.
	ErrNoSelection = errors.New("no option selected")
	// ErrAlreadyRevealed is returned when the current question's answer is already shown.
	ErrAlreadyRevealed = errors.New("answer already revealed")
	// ErrNotRevealed is returned when advancing past a question that was not submitted.
	ErrNotRevealed = errors.New("answer not revealed yet")
	// ErrSessionFinished is returned for any mutation after the last question was advanced past.
	ErrSessionFinished = errors.New("quiz session finished")

	// ErrSessionNotFound is returned when a quiz session is unknown or expired.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrSubjectNotFound indicates the question bank for a subject could not be loaded.
	ErrSubjectNotFound = errors.New("subject not found")
	// ErrInvalidQuestionBank indicates loaded content breaks a question invariant.
	ErrInvalidQuestionBank = errors.New("invalid question bank")
	// ErrInvalidStudent indicates a student record failed validation.
	ErrInvalidStudent = errors.New("invalid student")
	// ErrInvalidProgress indicates a synced progress record failed validation.
	ErrInvalidProgress = errors.New("invalid progress record")
)
