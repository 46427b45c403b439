package pop3

import (
	"os"
	"path/filepath"
)

// ServerConfig holds the configuration shared by reference across all
// sessions (§3, §4.7).
type ServerConfig struct {
	MaildirsRoot string
	BufferSize   int
	Verbose      bool
	Silent       bool
}

// ServerState holds the configuration and user tracker by shared
// reference, exactly as §4.7 describes it.
type ServerState struct {
	cfg     ServerConfig
	tracker *UserTracker
}

// NewServerState builds server-wide state from cfg.
func NewServerState(cfg ServerConfig) *ServerState {
	return &ServerState{
		cfg:     cfg,
		tracker: NewUserTracker(),
	}
}

// BufferSize returns the configured per-connection buffer size.
func (s *ServerState) BufferSize() int { return s.cfg.BufferSize }

// Verbose reports whether verbose logging is requested.
func (s *ServerState) Verbose() bool { return s.cfg.Verbose }

// Silent reports whether silent logging is requested.
func (s *ServerState) Silent() bool { return s.cfg.Silent }

// maildropPath returns <maildirs>/<username>.
func (s *ServerState) maildropPath(username string) string {
	return filepath.Join(s.cfg.MaildirsRoot, username)
}

// TryLogin implements the algorithm from §4.7: open and compare the
// user's password file, then claim the user-tracker entry.
func (s *ServerState) TryLogin(username, password string) (*UserHandle, string, error) {
	maildrop := s.maildropPath(username)
	passwordPath := filepath.Join(maildrop, "password")

	f, err := os.Open(passwordPath)
	if err != nil {
		return nil, "", ErrWrongUserOrPass
	}
	defer f.Close()

	buf := make([]byte, MaxUsernameLength)
	n, err := readUpTo(f, buf)
	if err != nil {
		return nil, "", ErrWrongUserOrPass
	}

	if string(buf[:n]) != password {
		return nil, "", ErrWrongUserOrPass
	}

	handle, ok := s.tracker.TryRegister(username)
	if !ok {
		return nil, "", ErrAlreadyLoggedIn
	}

	return handle, maildrop, nil
}

// readUpTo reads at most len(buf) bytes from r, tolerating a short read
// that stops at EOF (as os.File.Read does once the file is shorter than
// the buffer).
func readUpTo(r *os.File, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := r.Read(buf[total:])
		total += n
		if err != nil {
			if total > 0 {
				return total, nil
			}
			return 0, err
		}
		if n == 0 {
			break
		}
	}
	return total, nil
}
