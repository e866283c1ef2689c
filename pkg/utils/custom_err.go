package utils

import "errors"

var (
	ErrInvalidMessage      = errors.New("invalid or empty message")
	ErrInvalidConversation = errors.New("invalid conversation id")
	ErrMetadataTooLarge    = errors.New("metadata exceeds allowed size")
	ErrInvalidNudge        = errors.New("invalid nudge id")
	ErrRateLimited         = errors.New("too many messages, retry shortly")
	ErrAssessmentNotFound  = errors.New("assessment not found")
	ErrStorageFailure      = errors.New("conversation storage failure")
	ErrDatabaseError       = errors.New("database error")
)
