package cot

import (
	"html"
	"strconv"
	"strings"
)

// Message is a read-only snapshot of one received event document.
type Message struct {
	UID   string
	Type  string
	How   string
	Time  string
	Start string
	Stale string

	Lat float64
	Lon float64
	HAE float64

	Callsign string
	Team     string
	SIDC     string

	Raw string
}

// Parse extracts the known attributes from one complete document.
//
// Missing elements or attributes leave the zero value in place. A numeric
// attribute that is present but malformed fails the whole document with a
// *FieldError.
func Parse(doc string) (Message, error) {
	msg := Message{Raw: doc}

	event := findTag(doc, "event")
	msg.UID = attr(event, "uid")
	msg.Type = attr(event, "type")
	msg.How = attr(event, "how")
	msg.Time = attr(event, "time")
	msg.Start = attr(event, "start")
	msg.Stale = attr(event, "stale")
	msg.SIDC = attr(event, "sidc")

	point := findTag(doc, "point")
	var err error
	if msg.Lat, err = floatAttr(point, "point", "lat"); err != nil {
		return Message{}, err
	}
	if msg.Lon, err = floatAttr(point, "point", "lon"); err != nil {
		return Message{}, err
	}
	if msg.HAE, err = floatAttr(point, "point", "hae"); err != nil {
		return Message{}, err
	}

	msg.Callsign = attr(findTag(doc, "contact"), "callsign")
	msg.Team = attr(findTag(doc, "__group"), "name")
	return msg, nil
}

func floatAttr(tag, element, name string) (float64, error) {
	raw := attr(tag, name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, &FieldError{Element: element, Attr: name, Value: raw, Err: err}
	}
	return v, nil
}

// findTag returns the attribute region of the first start tag named name,
// or "" when there is none.
func findTag(doc, name string) string {
	open := "<" + name
	for offset := 0; offset < len(doc); {
		i := strings.Index(doc[offset:], open)
		if i < 0 {
			return ""
		}
		begin := offset + i + len(open)
		if begin < len(doc) && isTagBoundary(doc[begin]) {
			return doc[begin:tagEnd(doc, begin)]
		}
		offset = begin
	}
	return ""
}

// tagEnd returns the index of the '>' closing the tag that starts before
// from, skipping quoted attribute values. It returns len(doc) if unclosed.
func tagEnd(doc string, from int) int {
	var quote byte
	for i := from; i < len(doc); i++ {
		c := doc[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '>':
			return i
		}
	}
	return len(doc)
}

func isTagBoundary(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '/' || c == '>'
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// attr returns the unescaped value of the first attribute called name in a
// tag region produced by findTag. Empty values are reported as absent.
func attr(tag, name string) string {
	i := 0
	for i < len(tag) {
		for i < len(tag) && isSpace(tag[i]) {
			i++
		}
		if i >= len(tag) || tag[i] == '/' {
			return ""
		}
		keyStart := i
		for i < len(tag) && tag[i] != '=' && !isSpace(tag[i]) && tag[i] != '/' {
			i++
		}
		key := tag[keyStart:i]
		for i < len(tag) && isSpace(tag[i]) {
			i++
		}
		if i >= len(tag) || tag[i] != '=' {
			// Valueless attribute: not part of this protocol, skip it.
			if key == "" {
				i++
			}
			continue
		}
		i++
		for i < len(tag) && isSpace(tag[i]) {
			i++
		}
		if i >= len(tag) || (tag[i] != '"' && tag[i] != '\'') {
			return ""
		}
		quote := tag[i]
		i++
		valueStart := i
		for i < len(tag) && tag[i] != quote {
			i++
		}
		if i >= len(tag) {
			return ""
		}
		value := tag[valueStart:i]
		i++
		if key == name {
			return html.UnescapeString(value)
		}
	}
	return ""
}
