package pop3

import (
	"bufio"
	"errors"
	"fmt"
	"io"
)

// ReaderError wraps a failure reading the message source during
// transcoding (§4.5). During RETR it occurs after the status line has
// been written, so Session.Dispatch returns it and the connection driver
// closes the connection.
type ReaderError struct {
	Err error
}

func (e *ReaderError) Error() string { return fmt.Sprintf("transcode: reader error: %v", e.Err) }
func (e *ReaderError) Unwrap() error { return e.Err }

// WriterError wraps a failure writing to the destination during
// transcoding. The caller must treat this as connection-fatal.
type WriterError struct {
	Err error
}

func (e *WriterError) Error() string { return fmt.Sprintf("transcode: writer error: %v", e.Err) }
func (e *WriterError) Unwrap() error { return e.Err }

// transcodeSink receives the transcoded byte stream. writerSink emits to
// a real writer; countSink only tallies length, for message size
// computation (§4.5 "count only" mode).
type transcodeSink interface {
	writeByte(b byte) error
}

type writerSink struct {
	w *bufio.Writer
}

func (s *writerSink) writeByte(b byte) error { return s.w.WriteByte(b) }

type countSink struct {
	n uint64
}

func (s *countSink) writeByte(byte) error {
	s.n++
	return nil
}

// transcode runs the LF->CRLF + dot-stuffing transform from src to
// sink. It reports the first ReaderError or WriterError encountered.
//
// A source CR is held back (pendingCR) until the following byte is
// known: a CR immediately followed by LF is a source CRLF and must
// collapse to a single emitted CRLF, not CRLF plus a stray CR. A CR not
// followed by LF is ordinary content and is flushed verbatim.
func transcode(src *bufio.Reader, sink transcodeSink) error {
	// atLineStart is false at byte 0: dot-stuffing applies only
	// immediately after a newline, and there is no preceding newline at
	// the start of the stream.
	atLineStart := false
	wroteAny := false
	endedWithNewline := false
	pendingCR := false

	emit := func(b byte) error {
		if atLineStart && b == '.' {
			if err := sink.writeByte('.'); err != nil {
				return &WriterError{Err: err}
			}
		}
		if err := sink.writeByte(b); err != nil {
			return &WriterError{Err: err}
		}
		atLineStart = false
		endedWithNewline = false
		return nil
	}

	for {
		b, err := src.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return &ReaderError{Err: err}
		}
		wroteAny = true

		if pendingCR {
			pendingCR = false
			if b == '\n' {
				if err := writeCRLF(sink); err != nil {
					return err
				}
				atLineStart = true
				endedWithNewline = true
				continue
			}
			if err := emit('\r'); err != nil {
				return err
			}
		}

		if b == '\r' {
			pendingCR = true
			continue
		}
		if b == '\n' {
			if err := writeCRLF(sink); err != nil {
				return err
			}
			atLineStart = true
			endedWithNewline = true
			continue
		}
		if err := emit(b); err != nil {
			return err
		}
	}

	if pendingCR {
		if err := emit('\r'); err != nil {
			return err
		}
	}

	if wroteAny && !endedWithNewline {
		if err := writeCRLF(sink); err != nil {
			return err
		}
	}

	return nil
}

func writeCRLF(sink transcodeSink) error {
	if err := sink.writeByte('\r'); err != nil {
		return &WriterError{Err: err}
	}
	if err := sink.writeByte('\n'); err != nil {
		return &WriterError{Err: err}
	}
	return nil
}

// Transcode streams src through the LF->CRLF + dot-stuffing transform
// and into w. It does not write the leading "+OK" status line nor the
// terminal ".CRLF"; the caller emits those around it.
func Transcode(src *bufio.Reader, w *bufio.Writer) error {
	return transcode(src, &writerSink{w: w})
}

// CountTranscoded returns the number of bytes Transcode would write for
// src, without actually writing them. Used by messageRecord.sizeOf, the
// first time a message's size is needed, to compute the size reported
// by STAT/LIST (§4.5, P5).
func CountTranscoded(src *bufio.Reader) (uint64, error) {
	sink := &countSink{}
	if err := transcode(src, sink); err != nil {
		return 0, err
	}
	return sink.n, nil
}
