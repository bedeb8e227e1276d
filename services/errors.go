package services

import (
	"errors"
	"fmt"

	"tour-session-system/models"
)

// Every operation either returns a mutated aggregate or one of these.
// All of them map to a user-facing response at the handler boundary;
// none is a fatal process error.
var (
	ErrSessionNotJoinable    = errors.New("session does not exist or is no longer joinable")
	ErrTeamNotFound          = errors.New("no team for user in this session")
	ErrChallengeNotFound     = errors.New("challenge not found in session's tour")
	ErrTourNotFound          = errors.New("tour template not found")
	ErrUnauthorized          = errors.New("operation restricted to the session host")
	ErrInsufficientTokens    = errors.New("not enough tokens to start a session")
	ErrPubGolfStopNotTracked = errors.New("stop is not tracked for pub golf on this team")
)

// ActiveSessionConflictError is returned by StartSession when the user
// already has a non-terminal session and force was not set. It carries
// the first conflicting session so the caller can surface it and retry
// with force.
type ActiveSessionConflictError struct {
	Session models.Session
}

func (e *ActiveSessionConflictError) Error() string {
	return fmt.Sprintf("user already has an active session %s (status %s)", e.Session.ID, e.Session.Status)
}
