package stream

import "bytes"

var (
	declMarker  = []byte("<?xml")
	eventMarker = []byte("<event")
	endMarker   = []byte("</event>")
)

// NextDocument finds the first complete document in buf.
//
// When ok is true, doc is the bytes from the start marker through the
// closing tag and rest is everything after it. When ok is false, rest is the
// suffix that must be kept to complete a document later: the bytes from the
// first start marker, a trailing partial start marker, or nothing.
// Both results alias buf.
func NextDocument(buf []byte) (doc, rest []byte, ok bool) {
	start := startIndex(buf)
	if start < 0 {
		return nil, partialMarkerSuffix(buf), false
	}
	end := bytes.Index(buf[start:], endMarker)
	if end < 0 {
		return nil, buf[start:], false
	}
	stop := start + end + len(endMarker)
	return buf[start:stop], buf[stop:], true
}

// startIndex returns the earliest of the declaration and event markers.
func startIndex(buf []byte) int {
	decl := bytes.Index(buf, declMarker)
	event := bytes.Index(buf, eventMarker)
	switch {
	case decl < 0:
		return event
	case event < 0:
		return decl
	case decl < event:
		return decl
	default:
		return event
	}
}

// partialMarkerSuffix returns the tail of buf that is a proper prefix of a
// start marker, so a marker split across chunks is not discarded.
func partialMarkerSuffix(buf []byte) []byte {
	i := bytes.LastIndexByte(buf, '<')
	if i < 0 {
		return nil
	}
	tail := buf[i:]
	if bytes.HasPrefix(declMarker, tail) || bytes.HasPrefix(eventMarker, tail) {
		return tail
	}
	return nil
}
