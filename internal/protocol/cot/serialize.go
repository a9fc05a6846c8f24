package cot

import (
	"encoding/xml"
	"strconv"
	"strings"
	"time"
)

const (
	// TimeLayout is the ISO-8601 UTC millisecond form used on the wire.
	TimeLayout = "2006-01-02T15:04:05.000Z"

	xmlHeader  = `<?xml version="1.0" encoding="UTF-8"?>` + "\n"
	pointError = "10.0"
)

// FormatTime renders t in TimeLayout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// Serialize renders the entity as one event document.
//
// time is read from the clock on every call, start is the entity timestamp
// (creation or last Touch) and stale is time plus the persistence horizon.
// Serialize does not mutate the entity.
func (e *Entity) Serialize() string {
	now := e.now()
	start := e.timestamp
	if start.IsZero() || start.After(now) {
		start = now
	}

	var b strings.Builder
	b.Grow(640)
	b.WriteString(xmlHeader)

	b.WriteString(`<event version="2.0"`)
	writeAttr(&b, "uid", e.uid)
	writeAttr(&b, "type", e.cotType)
	writeAttr(&b, "how", e.how)
	b.WriteString("\n      ")
	writeAttr(&b, "time", FormatTime(now))
	writeAttr(&b, "start", FormatTime(start))
	writeAttr(&b, "stale", FormatTime(now.Add(e.StaleAfter())))
	if e.code != "" {
		writeAttr(&b, "sidc", string(e.code))
	}
	b.WriteString(">\n")

	b.WriteString("  <point")
	writeAttr(&b, "lat", strconv.FormatFloat(e.lat, 'f', 6, 64))
	writeAttr(&b, "lon", strconv.FormatFloat(e.lon, 'f', 6, 64))
	writeAttr(&b, "hae", strconv.FormatFloat(e.hae, 'f', 2, 64))
	writeAttr(&b, "ce", pointError)
	writeAttr(&b, "le", pointError)
	b.WriteString("/>\n")

	b.WriteString("  <detail>\n")
	b.WriteString("    <contact")
	writeAttr(&b, "callsign", e.callsign)
	b.WriteString("/>\n")
	b.WriteString("    <__group")
	writeAttr(&b, "name", e.team)
	writeAttr(&b, "role", "Team Member")
	b.WriteString("/>\n")
	if e.code != "" {
		b.WriteString("    <__milsym")
		writeAttr(&b, "id", string(e.code))
		b.WriteString("/>\n")
	}
	if e.persistent {
		b.WriteString("    <archive/>\n")
	}
	b.WriteString("  </detail>\n")
	b.WriteString("</event>\n")
	return b.String()
}

func writeAttr(b *strings.Builder, name, value string) {
	b.WriteByte(' ')
	b.WriteString(name)
	b.WriteString(`="`)
	// strings.Builder never returns a write error.
	_ = xml.EscapeText(b, []byte(value))
	b.WriteByte('"')
}
