package stream

import (
	"bytes"
	"iter"

	"github.com/rs/zerolog/log"
)

// DefaultMaxBuffered is the cap on bytes held while waiting for a document
// to complete.
const DefaultMaxBuffered = 16 * 1024

// Stats counts decoder activity since construction. BytesDiscarded only
// covers overflow resets.
type Stats struct {
	Documents      uint64
	Overflows      uint64
	BytesDiscarded uint64
}

// OverflowFunc is called after the buffer was cleared for exceeding the cap.
type OverflowFunc func(discarded int)

// Option customizes a Decoder.
type Option func(*Decoder)

// WithMaxBuffered overrides DefaultMaxBuffered. Non-positive values are ignored.
func WithMaxBuffered(n int) Option {
	return func(d *Decoder) {
		if n > 0 {
			d.maxBuffered = n
		}
	}
}

// WithOverflowHook registers fn to observe lossy buffer resets.
func WithOverflowHook(fn OverflowFunc) Option {
	return func(d *Decoder) { d.onOverflow = fn }
}

// Decoder buffers partial input between Feed calls. It is not safe for
// concurrent use.
type Decoder struct {
	buf         []byte
	maxBuffered int
	onOverflow  OverflowFunc
	stats       Stats
}

func NewDecoder(opts ...Option) *Decoder {
	d := &Decoder{maxBuffered: DefaultMaxBuffered}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Feed appends a received chunk. Documents are extracted by Next; Feed only
// enforces the cap when the buffer holds no end marker at all, so a writer
// that never calls Next cannot grow it without bound.
func (d *Decoder) Feed(chunk []byte) {
	d.buf = append(d.buf, chunk...)
	if len(d.buf) > d.maxBuffered && !bytes.Contains(d.buf, endMarker) {
		_, rest, _ := NextDocument(d.buf)
		d.consume(rest)
		d.enforceCap()
	}
}

// Write implements io.Writer on top of Feed. It never fails.
func (d *Decoder) Write(p []byte) (int, error) {
	d.Feed(p)
	return len(p), nil
}

// Next returns the next complete document, exactly as received.
//
// When no complete document is buffered, Next drops bytes that can never
// start one and, if what remains exceeds the cap, clears the buffer and
// reports the overflow.
func (d *Decoder) Next() (string, bool) {
	doc, rest, ok := NextDocument(d.buf)
	if ok {
		out := string(doc)
		d.consume(rest)
		d.stats.Documents++
		return out, true
	}

	d.consume(rest)
	d.enforceCap()
	return "", false
}

func (d *Decoder) enforceCap() {
	if len(d.buf) > d.maxBuffered {
		discarded := len(d.buf)
		d.buf = d.buf[:0]
		d.stats.Overflows++
		d.stats.BytesDiscarded += uint64(discarded)
		log.Warn().Int("discarded", discarded).Int("cap", d.maxBuffered).
			Msg("stream.Decoder buffer overflow, partial data dropped")
		if d.onOverflow != nil {
			d.onOverflow(discarded)
		}
	}
}

// Documents yields complete documents until the buffer holds none.
// It can be ranged over again after the next Feed.
func (d *Decoder) Documents() iter.Seq[string] {
	return func(yield func(string) bool) {
		for {
			doc, ok := d.Next()
			if !ok || !yield(doc) {
				return
			}
		}
	}
}

// Buffered reports how many bytes are held for an incomplete document.
func (d *Decoder) Buffered() int {
	return len(d.buf)
}

func (d *Decoder) Stats() Stats {
	return d.stats
}

// Reset drops all buffered input. Stats are kept.
func (d *Decoder) Reset() {
	d.buf = d.buf[:0]
}

// consume keeps rest, a suffix of d.buf, at the front of the buffer.
func (d *Decoder) consume(rest []byte) {
	if len(rest) == len(d.buf) {
		return
	}
	n := copy(d.buf, rest)
	d.buf = d.buf[:n]
}
