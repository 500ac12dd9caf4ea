// Package common defines sentinel errors shared by the server layers.
// Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Lookup errors.
	ErrorNotFound = errors.New("not found")

	// Session registry.
	ErrAlreadyOnline = errors.New("user already logged in")
	ErrInvalidName   = errors.New("invalid name")

	// Transfer errors.
	ErrCapacityExhausted = errors.New("server buffer full, cannot accept upload")
	ErrUnknownSession    = errors.New("upload session not found")
	ErrSizeMismatch      = errors.New("file size mismatch")
	ErrInvalidSize       = errors.New("invalid file size")

	// Access and workflow errors.
	ErrAccessDenied   = errors.New("access denied - file is private")
	ErrInvalidRequest = errors.New("invalid request id")
	ErrSelfRequest    = errors.New("cannot send request to yourself")
	ErrUnknownUser    = errors.New("user does not exist")
	ErrEmptyField     = errors.New("field cannot be empty")

	// Protocol errors.
	ErrProtocolViolation = errors.New("protocol violation")
	ErrFrameTooLarge     = errors.New("frame too large")
)
