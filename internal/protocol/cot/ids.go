package cot

import (
	"time"

	"github.com/google/uuid"
)

// IDGenerator produces the stable uid assigned to an entity at construction.
type IDGenerator interface {
	NewID() string
}

// IDFunc adapts a function to IDGenerator.
type IDFunc func() string

func (f IDFunc) NewID() string { return f() }

// UUIDGenerator returns random version 4 UUIDs.
func UUIDGenerator() IDGenerator {
	return IDFunc(uuid.NewString)
}

// Clock supplies the current time.
type Clock func() time.Time

// SystemClock is time.Now.
func SystemClock() time.Time { return time.Now() }
