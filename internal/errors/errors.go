package errors

import "errors"

// This package defines a centralized set of sentinel errors for the client.
// Using sentinel errors allows the session store to signal why an operation
// was refused without coupling callers to implementation details. The
// presentation layer can check them with `errors.Is()` and decide what, if
// anything, to show the user.

var (
	// ErrEmptyMessage signifies that a send was attempted with no content.
	// This is a client-side guard: the operation is refused silently and
	// never reaches the gateway.
	ErrEmptyMessage = errors.New("message content is empty")

	// ErrBusy signifies that a send was attempted while another send is
	// still in flight. Sends are serialized; the duplicate is a no-op.
	ErrBusy = errors.New("a send is already in flight")

	// ErrNoActiveChat signifies that a send was attempted with no chat
	// selected. The store creates a chat instead and reports this error so
	// the caller knows no message was sent.
	ErrNoActiveChat = errors.New("no active chat selected")

	// ErrValidation signifies that an outbound request payload failed
	// client-side validation before being sent to the gateway.
	ErrValidation = errors.New("validation failed")
)
