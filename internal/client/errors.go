package client

import "errors"

var (
	ErrLoginFailed      = errors.New("login failed")
	ErrCancelled        = errors.New("cancelled")
	ErrChecksumMismatch = errors.New("checksum mismatch")
	ErrDisconnected     = errors.New("disconnected by server")
	ErrUnexpected       = errors.New("unexpected server message")
)

// ServerError carries the text of an error the server reported.
type ServerError struct {
	Text string
}

func (e *ServerError) Error() string { return e.Text }
