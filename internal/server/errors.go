package server

import "errors"

var (
	// ErrNoListeners is returned when a server is started with no configured
	// listen addresses.
	ErrNoListeners = errors.New("no listen addresses configured")

	// ErrAlreadyStarted is returned when Run is called on a server that has
	// already been started.
	ErrAlreadyStarted = errors.New("server already started")
)
