package domain

import "errors"

// Authentication failures terminate the connection after one auth_error event.
var (
	ErrMissingCredential = errors.New("credential not provided")
	ErrInvalidCredential = errors.New("invalid credential")
	ErrUnknownIdentity   = errors.New("identity not found")
	ErrInconsistentRole  = errors.New("restaurant role without restaurant affiliation")
)

// Authorization and routing failures deny the action; the connection stays open.
var (
	ErrSessionNotFound = errors.New("chat session not found")
	ErrNotParticipant  = errors.New("not a participant of the chat session")
	ErrNotMember       = errors.New("not a member of the chat room")
)
