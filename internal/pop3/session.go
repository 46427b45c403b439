package pop3

import (
	"bufio"
	"errors"
	"log/slog"
	"os"
	"strconv"
)

// sessionState is the tag of the session's state machine (§4.8). A
// tagged record and a switch on the tag stands in for a subclass
// hierarchy.
type sessionState int

const (
	stateAuthorization sessionState = iota
	stateTransaction
	stateEnd
)

// Session is one client's POP3 state machine, from greeting to QUIT or
// disconnect. It is not safe for concurrent use; a connection driver
// owns exactly one Session for the lifetime of its connection.
type Session struct {
	server *ServerState
	logger *slog.Logger

	state    sessionState
	username string // pending username, set by USER, read by PASS

	handle   *UserHandle
	maildrop string
	messages []*messageRecord
}

// NewSession starts a fresh session in the Authorization state.
func NewSession(server *ServerState, logger *slog.Logger) *Session {
	return &Session{server: server, logger: logger, state: stateAuthorization}
}

// Done reports whether the session has reached the End state, either
// via QUIT or because the driver is tearing the connection down.
func (s *Session) Done() bool {
	return s.state == stateEnd
}

// Close releases any held user handle. It is safe to call multiple
// times and is the session-level analogue of the scoped cleanup
// described for the user tracker (§9); connection drivers defer it
// unconditionally.
func (s *Session) Close() {
	if s.handle != nil {
		s.handle.Release()
		s.handle = nil
	}
	s.state = stateEnd
}

// Dispatch handles one parsed command, writing its response(s) to w.
// A non-nil error means an unrecoverable I/O failure and the connection
// must be closed: either writing to w failed, or reading a message body
// failed during RETR after the status line had already been written, so
// no further response on this connection is safe.
func (s *Session) Dispatch(cmd Command, w *bufio.Writer) error {
	switch s.state {
	case stateAuthorization:
		return s.dispatchAuthorization(cmd, w)
	case stateTransaction:
		return s.dispatchTransaction(cmd, w)
	default:
		return writeResponse(w, Err("command not valid in current state"))
	}
}

func (s *Session) dispatchAuthorization(cmd Command, w *bufio.Writer) error {
	switch cmd.Kind {
	case CmdUSER:
		s.username = cmd.Username
		return writeResponse(w, OKEmpty())

	case CmdPASS:
		if s.username == "" {
			return writeResponse(w, Err(ErrNoUsername.Error()))
		}
		return s.login(cmd, w)

	case CmdQUIT:
		s.state = stateEnd
		return writeResponse(w, OKDeleted(0))

	default:
		return writeResponse(w, Err("Command only allowed in the AUTHORIZATION state"))
	}
}

func (s *Session) login(cmd Command, w *bufio.Writer) error {
	handle, maildrop, err := s.server.TryLogin(s.username, cmd.Password)
	if err != nil {
		s.username = ""
		switch {
		case errors.Is(err, ErrAlreadyLoggedIn):
			return writeResponse(w, Err(ErrAlreadyLoggedIn.Error()))
		default:
			return writeResponse(w, Err(ErrWrongUserOrPass.Error()))
		}
	}

	records, err := snapshotMaildrop(s.logger, maildrop)
	if err != nil {
		handle.Release()
		s.username = ""
		s.logger.Error("failed to open maildrop", "maildrop", maildrop, "error", err.Error())
		return writeResponse(w, Err(ErrMaildropUnavailable.Error()))
	}

	s.handle = handle
	s.maildrop = maildrop
	s.messages = records
	s.state = stateTransaction
	return writeResponse(w, OKEmpty())
}

func (s *Session) dispatchTransaction(cmd Command, w *bufio.Writer) error {
	switch cmd.Kind {
	case CmdUSER, CmdPASS:
		return writeResponse(w, Err("Command only allowed in the TRANSACTION state"))

	case CmdSTAT:
		return s.handleStat(w)

	case CmdLIST:
		return s.handleList(cmd, w)

	case CmdRETR:
		return s.handleRetr(cmd, w)

	case CmdDELE:
		return s.handleDele(cmd, w)

	case CmdNOOP:
		return writeResponse(w, OKEmpty())

	case CmdRSET:
		for _, m := range s.messages {
			m.deleted = false
		}
		return writeResponse(w, OKEmpty())

	case CmdQUIT:
		return s.handleQuit(w)

	default:
		return writeResponse(w, Err("Command only allowed in the TRANSACTION state"))
	}
}

func (s *Session) handleStat(w *bufio.Writer) error {
	count := 0
	var total uint64
	for _, m := range s.messages {
		if m.deleted {
			continue
		}
		size, err := m.sizeOf()
		if err != nil {
			s.logger.Error("failed to size message", "path", m.path, "error", err.Error())
			return writeResponse(w, Err(ErrMaildropUnavailable.Error()))
		}
		count++
		total += size
	}
	return writeResponse(w, OKStat(count, total))
}

// lookup validates a 1-based message number against the snapshot,
// returning the record or a typed error (§4.8 "Validate as in LIST n").
func (s *Session) lookup(n uint16) (*messageRecord, error) {
	if n == 0 || int(n) > len(s.messages) {
		return nil, ErrNoSuchMessage
	}
	m := s.messages[n-1]
	if m.deleted {
		return nil, ErrMessageDeleted
	}
	return m, nil
}

func (s *Session) handleList(cmd Command, w *bufio.Writer) error {
	if cmd.HasMsgNum {
		m, err := s.lookup(cmd.MsgNum)
		if err != nil {
			return writeResponse(w, Err(errMessage(err)))
		}
		size, err := m.sizeOf()
		if err != nil {
			s.logger.Error("failed to size message", "path", m.path, "error", err.Error())
			return writeResponse(w, Err(ErrMaildropUnavailable.Error()))
		}
		return writeResponse(w, OKListOne(cmd.MsgNum, size))
	}

	if err := writeResponse(w, OKEmpty()); err != nil {
		return err
	}
	for i, m := range s.messages {
		if m.deleted {
			continue
		}
		size, err := m.sizeOf()
		if err != nil {
			s.logger.Error("failed to size message", "path", m.path, "error", err.Error())
			continue
		}
		if _, err := w.Write(ListingLine(uint16(i+1), size)); err != nil {
			return &WriterError{Err: err}
		}
	}
	if _, err := w.WriteString(".\r\n"); err != nil {
		return &WriterError{Err: err}
	}
	return nil
}

func (s *Session) handleRetr(cmd Command, w *bufio.Writer) error {
	m, err := s.lookup(cmd.MsgNum)
	if err != nil {
		return writeResponse(w, Err(errMessage(err)))
	}

	f, err := os.Open(m.path)
	if err != nil {
		s.logger.Error("failed to open message", "path", m.path, "error", err.Error())
		return writeResponse(w, Err(ErrMaildropUnavailable.Error()))
	}
	defer f.Close()

	size, err := m.sizeOf()
	if err != nil {
		s.logger.Error("failed to size message", "path", m.path, "error", err.Error())
		return writeResponse(w, Err(ErrMaildropUnavailable.Error()))
	}
	if err := writeResponse(w, OK(strconv.FormatUint(size, 10)+" octets")); err != nil {
		return err
	}

	if err := Transcode(bufio.NewReader(f), w); err != nil {
		return err
	}
	if _, err := w.WriteString(".\r\n"); err != nil {
		return &WriterError{Err: err}
	}
	return nil
}

func (s *Session) handleDele(cmd Command, w *bufio.Writer) error {
	m, err := s.lookup(cmd.MsgNum)
	if err != nil {
		return writeResponse(w, Err(errMessage(err)))
	}
	m.deleted = true
	return writeResponse(w, OKEmpty())
}

func (s *Session) handleQuit(w *bufio.Writer) error {
	k, ok := finalizeDeletions(s.logger, s.maildrop, s.messages)
	s.Close()
	if ok {
		return writeResponse(w, OKDeleted(k))
	}
	return writeResponse(w, ErrDeleted(k))
}

func errMessage(err error) string {
	switch {
	case errors.Is(err, ErrNoSuchMessage):
		return "No such message"
	case errors.Is(err, ErrMessageDeleted):
		return "Message is deleted"
	default:
		return err.Error()
	}
}

func writeResponse(w *bufio.Writer, r Response) error {
	if _, err := w.Write(r.Bytes()); err != nil {
		return &WriterError{Err: err}
	}
	return nil
}
