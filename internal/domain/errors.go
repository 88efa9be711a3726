package domain

import "errors"

var (
	ErrEmptyConversation = errors.New("empty conversation")
	ErrInvalidRole       = errors.New("invalid message role")
	ErrMisplacedSystem   = errors.New("system message must be the first message")
	ErrEmptyMessage      = errors.New("empty message")
	ErrMessageTooLong    = errors.New("message too long")
)

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrProfileRequired = errors.New("profile is required")
	ErrUnknownField    = errors.New("unknown profile field")
	ErrEmptyName       = errors.New("empty name")
	ErrInvalidAge      = errors.New("invalid age")
	ErrTooManyChildren = errors.New("too many children")
)

var (
	ErrLocked        = errors.New("chat is locked")
	ErrWrongPassword = errors.New("wrong password")
	ErrRateLimited   = errors.New("rate limit exceeded")
)
