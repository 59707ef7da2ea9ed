package domain

import "time"

// NoteOrigin indicates who authored a note.
type NoteOrigin string

const (
	OriginUser   NoteOrigin = "user"
	OriginAdmin  NoteOrigin = "admin"
	OriginSystem NoteOrigin = "system"
)

// Note is an immutable audit trail entry on a service request.
type Note struct {
	ID        string
	RequestID string
	Message   string
	AuthorID  *string
	Origin    NoteOrigin
	CreatedAt time.Time
}
