package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/danmuck/takctl/internal/protocol/cot"
	"github.com/danmuck/takctl/internal/protocol/stream"
	"github.com/rs/zerolog/log"
)

var (
	ErrNotConnected     = errors.New("session: not connected")
	ErrAlreadyConnected = errors.New("session: already connected")
	ErrAlreadyListening = errors.New("session: receive loop already running")
	ErrSendFailed       = errors.New("session: send failed")
)

type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateSending
	StateListening
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateSending:
		return "sending"
	case StateListening:
		return "listening"
	default:
		return "unknown"
	}
}

// MessageHandler is called once per decoded document, on the goroutine
// running ReceiveLoop.
type MessageHandler func(cot.Message)

type Option func(*Controller)

func WithReadSize(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.readSize = n
		}
	}
}

func WithPollInterval(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.pollInterval = d
		}
	}
}

func WithMaxBuffered(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.maxBuffered = n
		}
	}
}

func WithObserver(o Observer) Option {
	return func(c *Controller) {
		if o != nil {
			c.observer = o
		}
	}
}

// WithConfig applies the receive settings of cfg.
func WithConfig(cfg Config) Option {
	return func(c *Controller) {
		WithReadSize(cfg.ReadSize)(c)
		WithPollInterval(cfg.PollInterval)(c)
		WithMaxBuffered(cfg.MaxBuffered)(c)
	}
}

// Controller runs one session at a time over streams opened by its Dialer.
// It never reconnects on its own.
type Controller struct {
	dialer       Dialer
	readSize     int
	pollInterval time.Duration
	maxBuffered  int
	observer     Observer

	mu        sync.Mutex
	state     State
	stream    Stream
	sending   int
	listening bool
	// attempt identifies the latest Connect; an older dial that returns
	// late must not touch the state of a newer one.
	attempt uint64
}

func NewController(dialer Dialer, opts ...Option) *Controller {
	c := &Controller{
		dialer:       dialer,
		readSize:     DefaultReadSize,
		pollInterval: DefaultPollInterval,
		maxBuffered:  stream.DefaultMaxBuffered,
		observer:     nopObserver{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State reports the current state. Sending wins over Listening while both
// are in progress.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateConnected {
		return c.state
	}
	switch {
	case c.sending > 0:
		return StateSending
	case c.listening:
		return StateListening
	default:
		return StateConnected
	}
}

// Connect dials and handshakes. A failure leaves the controller
// Disconnected; no retry is attempted.
func (c *Controller) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateDisconnected {
		c.mu.Unlock()
		return ErrAlreadyConnected
	}
	c.state = StateConnecting
	c.attempt++
	attempt := c.attempt
	c.mu.Unlock()

	s, err := c.dialer.Dial(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	current := c.attempt == attempt && c.state == StateConnecting
	if err != nil {
		if current {
			c.state = StateDisconnected
		}
		log.Warn().Err(err).Msg("session.Controller.Connect failed")
		return fmt.Errorf("session: connect: %w", err)
	}
	if !current {
		// Disconnect ran during the handshake, possibly followed by a
		// newer Connect.
		_ = s.Close()
		return ErrClosed
	}
	c.stream = s
	c.state = StateConnected
	log.Info().Msg("session.Controller.Connect connected")
	return nil
}

// Send serializes e and writes it. A failed write leaves the state as it
// was; the caller decides whether the session is still usable.
func (c *Controller) Send(e *cot.Entity) error {
	return c.SendRaw([]byte(e.Serialize()))
}

// SendRaw writes an already serialized document.
func (c *Controller) SendRaw(doc []byte) error {
	c.mu.Lock()
	if c.stream == nil {
		c.mu.Unlock()
		return ErrNotConnected
	}
	s := c.stream
	c.sending++
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.sending--
		c.mu.Unlock()
	}()

	if err := s.Send(doc); err != nil {
		c.observer.SendFailed()
		log.Warn().Err(err).Int("bytes", len(doc)).Msg("session.Controller.Send failed")
		return fmt.Errorf("%w: %w", ErrSendFailed, err)
	}
	c.observer.Sent(len(doc))
	return nil
}

// ReceiveLoop reads, reassembles and parses documents until the stream ends
// or ctx is done. Malformed documents are logged and skipped.
//
// It returns nil after a local Disconnect, an error wrapping ErrClosed when
// the peer closed the stream, ctx.Err() on cancellation, and the transport
// error otherwise. The controller is Disconnected after a remote close or
// transport error.
func (c *Controller) ReceiveLoop(ctx context.Context, onMessage MessageHandler) error {
	c.mu.Lock()
	if c.stream == nil {
		c.mu.Unlock()
		return ErrNotConnected
	}
	if c.listening {
		c.mu.Unlock()
		return ErrAlreadyListening
	}
	s := c.stream
	c.listening = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.listening = false
		c.mu.Unlock()
	}()

	dec := stream.NewDecoder(
		stream.WithMaxBuffered(c.maxBuffered),
		stream.WithOverflowHook(c.observer.Overflow),
	)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		chunk, err := s.Receive(c.readSize)
		if err != nil {
			switch Classify(err) {
			case ClassTransient:
				c.observer.WouldBlock()
				if err := c.wait(ctx); err != nil {
					return err
				}
				continue
			case ClassClosed:
				if c.release(s) {
					return nil
				}
				log.Info().Err(err).Msg("session.Controller.ReceiveLoop stream closed by peer")
				if errors.Is(err, ErrClosed) {
					return err
				}
				return fmt.Errorf("%w: %w", ErrClosed, err)
			default:
				if c.release(s) {
					return nil
				}
				log.Error().Err(err).Msg("session.Controller.ReceiveLoop transport error")
				return fmt.Errorf("session: receive: %w", err)
			}
		}
		if len(chunk) == 0 {
			c.observer.WouldBlock()
			if err := c.wait(ctx); err != nil {
				return err
			}
			continue
		}

		dec.Feed(chunk)
		for doc := range dec.Documents() {
			msg, err := cot.Parse(doc)
			if err != nil {
				c.observer.ParseFailed()
				log.Warn().Err(err).Int("bytes", len(doc)).
					Msg("session.Controller.ReceiveLoop skipping malformed document")
				continue
			}
			c.observer.DocumentDecoded()
			onMessage(msg)
		}
	}
}

// Disconnect closes the stream. It is idempotent and safe to call while
// ReceiveLoop runs; the loop returns nil on its next read.
func (c *Controller) Disconnect() error {
	c.mu.Lock()
	s := c.stream
	c.stream = nil
	c.state = StateDisconnected
	c.mu.Unlock()

	if s == nil {
		return nil
	}
	log.Info().Msg("session.Controller.Disconnect closing stream")
	if err := s.Close(); err != nil && Classify(err) != ClassClosed {
		return err
	}
	return nil
}

// release drops s after the loop observed its end. It reports whether the
// stream had already been released by Disconnect.
func (c *Controller) release(s Stream) (local bool) {
	c.mu.Lock()
	if c.stream != s {
		c.mu.Unlock()
		return true
	}
	c.stream = nil
	c.state = StateDisconnected
	c.mu.Unlock()
	_ = s.Close()
	return false
}

func (c *Controller) wait(ctx context.Context) error {
	timer := time.NewTimer(c.pollInterval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
