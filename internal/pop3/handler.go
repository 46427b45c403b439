package pop3

import (
	"bufio"
	"context"
	"errors"
	"net"
	"time"

	"github.com/hearthmail/pop3d/internal/logging"
	"github.com/hearthmail/pop3d/internal/metrics"
)

// maxCommandLine is the longest command line accepted, excluding the
// terminator (§3, I6).
const maxCommandLine = 255

// HandlerConfig configures the per-connection driver.
type HandlerConfig struct {
	Hostname   string
	Banner     string
	BufferSize int

	// ConnectionTimeout bounds the entire lifetime of a connection; zero
	// means no overall bound. CommandTimeout is the idle timeout reset
	// before every command line is read; zero means no idle bound.
	ConnectionTimeout time.Duration
	CommandTimeout    time.Duration
}

// Handler builds a connection driver closing over server-wide state. It
// implements §4.9: buffered adapters, greeting, main command loop, and
// clean shutdown of the session on every exit path.
func Handler(hc HandlerConfig, state *ServerState, collector metrics.Collector) func(ctx context.Context, conn net.Conn) {
	return func(ctx context.Context, conn net.Conn) {
		handleConnection(ctx, conn, hc, state, collector)
	}
}

func handleConnection(ctx context.Context, conn net.Conn, hc HandlerConfig, state *ServerState, collector metrics.Collector) {
	logger := logging.FromContext(ctx)

	collector.ConnectionOpened()
	defer collector.ConnectionClosed()

	bufSize := hc.BufferSize
	if bufSize <= 0 {
		bufSize = state.BufferSize()
	}

	r := bufio.NewReaderSize(conn, bufSize)
	w := bufio.NewWriterSize(conn, bufSize)
	lr := NewLineReader(r)

	sess := NewSession(state, logger)
	defer sess.Close()

	var connDeadline time.Time
	if hc.ConnectionTimeout > 0 {
		connDeadline = time.Now().Add(hc.ConnectionTimeout)
		if err := conn.SetDeadline(connDeadline); err != nil {
			logger.Error("failed to set connection deadline", "error", err.Error())
			return
		}
	}

	banner := hc.Banner
	if banner == "" {
		banner = "pop3d ready"
	}
	if err := writeResponse(w, OK(hc.Hostname+" "+banner)); err != nil {
		logger.Error("failed to send greeting", "error", err.Error())
		return
	}
	if err := w.Flush(); err != nil {
		logger.Error("failed to flush greeting", "error", err.Error())
		return
	}

	var lineBuf [maxCommandLine]byte

	for {
		if hc.CommandTimeout > 0 {
			readDeadline := time.Now().Add(hc.CommandTimeout)
			if !connDeadline.IsZero() && readDeadline.After(connDeadline) {
				readDeadline = connDeadline
			}
			if err := conn.SetReadDeadline(readDeadline); err != nil {
				logger.Error("failed to set command timeout", "error", err.Error())
				break
			}
		}

		n, err := lr.ReadLine(lineBuf[:])
		if err != nil {
			if errors.Is(err, ErrUnexpectedEOF) {
				logger.Debug("client closed connection")
				break
			}
			if errors.Is(err, ErrLineTooLong) {
				logger.Debug("command line too long")
				if werr := writeResponse(w, Err("POP3 lines must be at most 255 characters long")); werr != nil {
					logger.Error("failed to send error response", "error", werr.Error())
					break
				}
				if ferr := w.Flush(); ferr != nil {
					logger.Error("failed to flush response", "error", ferr.Error())
					break
				}
				continue
			}
			logger.Error("error reading command", "error", err.Error())
			break
		}

		cmd, parseErr := ParseCommand(lineBuf[:n])
		if parseErr != nil {
			if werr := writeResponse(w, Err(parseErr.Reason)); werr != nil {
				logger.Error("failed to send error response", "error", werr.Error())
				break
			}
			if ferr := w.Flush(); ferr != nil {
				logger.Error("failed to flush response", "error", ferr.Error())
				break
			}
			continue
		}

		collector.CommandProcessed(cmd.Kind.String())
		logger.Debug("executing command", "command", cmd.Kind.String())

		wasTransaction := sess.state == stateTransaction
		if dispatchErr := sess.Dispatch(cmd, w); dispatchErr != nil {
			logger.Error("command dispatch error", "command", cmd.Kind.String(), "error", dispatchErr.Error())
			break
		}

		if wasTransaction {
			recordCommandMetrics(collector, cmd, sess)
		} else if cmd.Kind == CmdPASS {
			collector.AuthAttempt(sess.username, sess.state == stateTransaction)
		}

		if cmd.Kind == CmdQUIT {
			if err := w.Flush(); err != nil {
				logger.Error("failed to flush final response", "error", err.Error())
			}
			break
		}

		if err := w.Flush(); err != nil {
			logger.Error("failed to flush response", "error", err.Error())
			break
		}
	}
}

// recordCommandMetrics reports domain-specific counters that depend on
// command outcome, beyond the generic per-command counter already
// recorded in the main loop.
func recordCommandMetrics(collector metrics.Collector, cmd Command, sess *Session) {
	switch cmd.Kind {
	case CmdDELE:
		collector.MessageDeleted(currentUsername(sess))
	case CmdLIST:
		collector.MessageListed(currentUsername(sess))
	case CmdRETR:
		var size int64
		if cmd.HasMsgNum && int(cmd.MsgNum) <= len(sess.messages) {
			if m := sess.messages[cmd.MsgNum-1]; m.hasSize {
				size = int64(m.size)
			}
		}
		collector.MessageRetrieved(currentUsername(sess), size)
	}
}

func currentUsername(sess *Session) string {
	if sess.handle != nil {
		return sess.handle.Username()
	}
	return sess.username
}
