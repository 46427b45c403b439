package pop3

import "errors"

// Session/authentication errors (§4.7, §7).
var (
	// ErrWrongUserOrPass is returned by TryLogin on any authentication
	// failure. It deliberately does not distinguish "no such user" from
	// "wrong password" so a session cannot probe for valid usernames.
	ErrWrongUserOrPass = errors.New("wrong username or password")

	// ErrAlreadyLoggedIn is returned by TryLogin when the username is
	// already held by another session's UserHandle.
	ErrAlreadyLoggedIn = errors.New("user is already logged in")

	// ErrMaildropUnavailable is returned when a user's new/ directory
	// cannot be opened at login.
	ErrMaildropUnavailable = errors.New("An unexpected error occurred while opening your maildrop")
)

// State/command errors (§4.8, §7).
var (
	// ErrWrongState is returned when a command is sent in a session
	// state that does not permit it.
	ErrWrongState = errors.New("command not valid in current state")

	// ErrNoUsername is returned when PASS is sent before USER.
	ErrNoUsername = errors.New("Must specify a user before a password")

	// ErrNoSuchMessage is returned when a message number is out of the
	// snapshot's range.
	ErrNoSuchMessage = errors.New("no such message")

	// ErrMessageDeleted is returned when a message number refers to a
	// message already marked deleted in this session.
	ErrMessageDeleted = errors.New("message is deleted")
)
