package session

import (
	"context"
	"errors"
	"io"
	"net"
	"os"
	"syscall"
)

var (
	// ErrWouldBlock reports that no data was available yet. It is not a
	// failure; the receive loop waits and retries.
	ErrWouldBlock = errors.New("session: would block")
	// ErrClosed reports that the stream was closed by either side.
	ErrClosed = errors.New("session: stream closed")
	// ErrShortWrite reports that the stream accepted only part of a document.
	ErrShortWrite = errors.New("session: short write")
)

// Stream is a connected, already secured byte stream. At most one goroutine
// sends and at most one receives at a time; Close may be called from any
// goroutine and unblocks a pending Receive.
type Stream interface {
	// Send writes all of p or returns an error.
	Send(p []byte) error
	// Receive returns up to max bytes. It returns ErrWouldBlock when nothing
	// arrived within the stream's read bound.
	Receive(max int) ([]byte, error)
	Close() error
}

// Dialer opens a Stream, including any security handshake.
type Dialer interface {
	Dial(ctx context.Context) (Stream, error)
}

// DialerFunc adapts a function to Dialer.
type DialerFunc func(ctx context.Context) (Stream, error)

func (f DialerFunc) Dial(ctx context.Context) (Stream, error) { return f(ctx) }

// Class groups transport errors by how the receive loop reacts to them.
type Class int

const (
	ClassNone Class = iota
	// ClassTransient errors are retried after a bounded wait.
	ClassTransient
	// ClassClosed errors end the loop as a normal close.
	ClassClosed
	// ClassFatal errors end the loop and are returned to the caller.
	ClassFatal
)

func (c Class) String() string {
	switch c {
	case ClassNone:
		return "none"
	case ClassTransient:
		return "transient"
	case ClassClosed:
		return "closed"
	case ClassFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

func Classify(err error) Class {
	if err == nil {
		return ClassNone
	}
	if errors.Is(err, ErrWouldBlock) || errors.Is(err, os.ErrDeadlineExceeded) {
		return ClassTransient
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ClassTransient
	}
	if errors.Is(err, ErrClosed) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE) {
		return ClassClosed
	}
	return ClassFatal
}
