// Package client is a Go client for the file-sharing server.
//
// # Overview
//
// Client speaks the main protocol: login, listings, uploads with conflict
// handling, downloads with checksum verification, file requests and inbox
// views. Every operation returns the connection to the menu state, so
// calls can be made back to back on one Client.
//
// Notifier speaks the notification side-channel and yields pushed texts.
//
// # Error Handling
//
// Refusals reported by the server come back as *ServerError. Transport
// failures are returned as-is; after one the Client must be closed.
// Sentinel errors ErrLoginFailed, ErrCancelled, ErrChecksumMismatch and
// ErrDisconnected can be matched with errors.Is.
//
// Concurrency & Contexts
//
// A Client or Notifier must not be used from several goroutines at once.
// Operations honor context cancellation by expiring the socket deadline.
package client
