package pop3

import "sync"

// UserTracker enforces at-most-one session per authenticated username
// (I1). §4.6 describes a lock-free single-threaded set, appropriate to
// the original's single-threaded cooperative scheduler; this server
// runs one goroutine per connection, so the set is mutex-protected
// instead — the same invariant, adapted to Go's concurrency model.
type UserTracker struct {
	mu    sync.Mutex
	users map[string]struct{}
}

// NewUserTracker creates an empty tracker.
func NewUserTracker() *UserTracker {
	return &UserTracker{users: make(map[string]struct{})}
}

// TryRegister attempts to claim username. On success it returns a
// UserHandle that releases the entry exactly once, however the caller
// stops using it (QUIT, disconnect, or error). A nil handle and false
// mean the username is already claimed.
func (t *UserTracker) TryRegister(username string) (*UserHandle, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, taken := t.users[username]; taken {
		return nil, false
	}
	t.users[username] = struct{}{}
	return &UserHandle{tracker: t, username: username}, true
}

func (t *UserTracker) release(username string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.users, username)
}

// UserHandle is held by exactly one Transaction-state session (I4). Its
// Release method is idempotent. The connection driver defers
// Session.Close, which calls Release, so the handle is released on every
// exit path, standing in for the destructor-based scoped cleanup
// described in §9; QUIT and a failed maildrop open release it earlier.
type UserHandle struct {
	tracker  *UserTracker
	username string
	once     sync.Once
}

// Release removes the handle's username from the tracker. Safe to call
// more than once; only the first call has any effect.
func (h *UserHandle) Release() {
	h.once.Do(func() {
		h.tracker.release(h.username)
	})
}

// Username returns the username this handle was issued for.
func (h *UserHandle) Username() string {
	return h.username
}
