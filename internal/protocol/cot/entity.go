package cot

import (
	"fmt"
	"time"

	"github.com/danmuck/takctl/internal/protocol/sidc"
)

const (
	DefaultType     = "a-f-G-U-C"
	DefaultHow      = "h-g-i-g-o"
	DefaultCallsign = "GoCoT"
	DefaultTeam     = "Blue"

	// PersistentStale is the horizon for placed tactical objects.
	PersistentStale = 24 * time.Hour
	// TrackStale is the horizon for live position reports.
	TrackStale = 10 * time.Minute
)

// Report carries the reporting fields shared by both constructors.
type Report struct {
	How      string
	Lat      float64
	Lon      float64
	HAE      float64
	Callsign string
	Team     string
}

// Option customizes entity construction.
type Option func(*Entity)

// WithIDGenerator replaces the uid source.
func WithIDGenerator(g IDGenerator) Option {
	return func(e *Entity) {
		if g != nil {
			e.ids = g
		}
	}
}

// WithClock replaces the time source used for timestamps.
func WithClock(c Clock) Option {
	return func(e *Entity) {
		if c != nil {
			e.now = c
		}
	}
}

// WithPersistent sets the persistence flag.
func WithPersistent(v bool) Option {
	return func(e *Entity) { e.persistent = v }
}

// Entity is one trackable object. It is owned by its creator and is not safe
// for concurrent mutation.
type Entity struct {
	uid        string
	cotType    string
	code       sidc.Code
	how        string
	lat        float64
	lon        float64
	hae        float64
	callsign   string
	team       string
	persistent bool
	timestamp  time.Time

	ids IDGenerator
	now Clock
}

// NewEntity builds a non-persistent entity with an explicit CoT type and no
// identity code. Empty strings fall back to the package defaults.
func NewEntity(cotType string, r Report, opts ...Option) *Entity {
	if cotType == "" {
		cotType = DefaultType
	}
	e := newEntity(r, opts)
	e.cotType = cotType
	return e
}

// NewEntityFromSIDC builds an entity whose CoT type is derived from code.
func NewEntityFromSIDC(code sidc.Code, r Report, persistent bool, opts ...Option) (*Entity, error) {
	if !sidc.IsValid(code) {
		return nil, fmt.Errorf("%w: %q", sidc.ErrInvalidCode, string(code))
	}
	opts = append([]Option{WithPersistent(persistent)}, opts...)
	e := newEntity(r, opts)
	e.code = code
	e.cotType = sidc.ToCoTType(code)
	return e, nil
}

func newEntity(r Report, opts []Option) *Entity {
	e := &Entity{
		how:      r.How,
		lat:      r.Lat,
		lon:      r.Lon,
		hae:      r.HAE,
		callsign: r.Callsign,
		team:     r.Team,
		ids:      UUIDGenerator(),
		now:      SystemClock,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.how == "" {
		e.how = DefaultHow
	}
	if e.callsign == "" {
		e.callsign = DefaultCallsign
	}
	if e.team == "" {
		e.team = DefaultTeam
	}
	e.uid = e.ids.NewID()
	e.timestamp = e.now()
	return e
}

// Touch refreshes the entity timestamp. The uid is unchanged.
func (e *Entity) Touch() {
	e.timestamp = e.now()
}

// SetSIDC replaces the identity code and recomputes the CoT type.
func (e *Entity) SetSIDC(code sidc.Code) error {
	if !sidc.IsValid(code) {
		return fmt.Errorf("%w: %q", sidc.ErrInvalidCode, string(code))
	}
	e.code = code
	e.cotType = sidc.ToCoTType(code)
	return nil
}

// SetPosition moves the entity. It does not touch the timestamp.
func (e *Entity) SetPosition(lat, lon, hae float64) {
	e.lat, e.lon, e.hae = lat, lon, hae
}

func (e *Entity) UID() string          { return e.uid }
func (e *Entity) Type() string         { return e.cotType }
func (e *Entity) SIDC() sidc.Code      { return e.code }
func (e *Entity) How() string          { return e.how }
func (e *Entity) Callsign() string     { return e.callsign }
func (e *Entity) Team() string         { return e.team }
func (e *Entity) Persistent() bool     { return e.persistent }
func (e *Entity) Timestamp() time.Time { return e.timestamp }

func (e *Entity) Position() (lat, lon, hae float64) {
	return e.lat, e.lon, e.hae
}

// Description returns the identity code description, or "" without a code.
func (e *Entity) Description() string {
	if e.code == "" {
		return ""
	}
	return sidc.Describe(e.code)
}

// StaleAfter returns the staleness horizon implied by the persistence flag.
func (e *Entity) StaleAfter() time.Duration {
	if e.persistent {
		return PersistentStale
	}
	return TrackStale
}
