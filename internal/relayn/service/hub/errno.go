package hub

import (
	"errors"
)

var (
	// ErrMessageboxOwned is returned when a second engage registration
	// tries to adopt the messagebox while another owner holds it.
	ErrMessageboxOwned = errors.New("messagebox already owned")

	// ErrNoMessageboxHandler is returned by Dispatch when no engage
	// registration currently owns the messagebox.
	ErrNoMessageboxHandler = errors.New("no messagebox handler registered")

	// ErrUnknownInstance is returned for operations on an instance the
	// catalog does not contain.
	ErrUnknownInstance = errors.New("unknown plugin instance")

	// ErrUnknownAction is returned when no action executor is configured
	// or the executor does not know the requested action.
	ErrUnknownAction = errors.New("unknown action")

	// ErrDisposed is returned for operations on a disposed hub.
	ErrDisposed = errors.New("hub is disposed")
)
