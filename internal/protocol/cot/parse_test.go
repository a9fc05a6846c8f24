package cot

import (
	"errors"
	"math"
	"strconv"
	"testing"

	"github.com/danmuck/takctl/internal/testutil/testlog"
)

const sampleDoc = `<?xml version="1.0" encoding="UTF-8"?>
<event version="2.0" uid="abc-123" type="a-f-G-U-C" how="h-g-i-g-o"
       time="2026-01-02T03:04:05.678Z" start="2026-01-02T03:04:05.678Z" stale="2026-01-02T03:14:05.678Z">
  <point lat="-33.865143" lon="151.209900" hae="50.00" ce="10.0" le="10.0"/>
  <detail>
    <contact callsign="Alpha-1" endpoint="*:-1:stcp"/>
    <__group name="Blue" role="Team Member"/>
  </detail>
</event>`

func TestParseSample(t *testing.T) {
	testlog.Start(t)
	msg, err := Parse(sampleDoc)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if msg.UID != "abc-123" || msg.Type != "a-f-G-U-C" || msg.How != "h-g-i-g-o" {
		t.Fatalf("event attrs: %+v", msg)
	}
	if msg.Time != "2026-01-02T03:04:05.678Z" || msg.Stale != "2026-01-02T03:14:05.678Z" || msg.Start != msg.Time {
		t.Fatalf("time attrs: %+v", msg)
	}
	if math.Abs(msg.Lat+33.865143) > 1e-9 || math.Abs(msg.Lon-151.2099) > 1e-9 || math.Abs(msg.HAE-50) > 1e-9 {
		t.Fatalf("point: %v %v %v", msg.Lat, msg.Lon, msg.HAE)
	}
	if msg.Callsign != "Alpha-1" || msg.Team != "Blue" {
		t.Fatalf("detail: callsign=%q team=%q", msg.Callsign, msg.Team)
	}
	if msg.Raw != sampleDoc {
		t.Fatalf("raw document must be preserved")
	}
}

func TestParseSparseDocument(t *testing.T) {
	testlog.Start(t)
	msg, err := Parse(`<event uid="only"></event>`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if msg.UID != "only" || msg.Type != "" || msg.Callsign != "" || msg.Team != "" {
		t.Fatalf("unexpected: %+v", msg)
	}
	if msg.Lat != 0 || msg.Lon != 0 || msg.HAE != 0 {
		t.Fatalf("absent point must default to zero")
	}
}

func TestParseEmptyNumericIsAbsent(t *testing.T) {
	testlog.Start(t)
	msg, err := Parse(`<event uid="e"><point lat="" lon="2.5"/></event>`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if msg.Lat != 0 || msg.Lon != 2.5 {
		t.Fatalf("unexpected point: %v %v", msg.Lat, msg.Lon)
	}
}

func TestParseMalformedNumber(t *testing.T) {
	testlog.Start(t)
	_, err := Parse(`<event uid="e"><point lat="12.5" lon="east" hae="1"/></event>`)
	if !errors.Is(err, ErrInvalidNumber) {
		t.Fatalf("expected ErrInvalidNumber, got %v", err)
	}
	var fe *FieldError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FieldError, got %T", err)
	}
	if fe.Element != "point" || fe.Attr != "lon" || fe.Value != "east" {
		t.Fatalf("unexpected field error: %+v", fe)
	}
	if !errors.Is(err, strconv.ErrSyntax) {
		t.Fatalf("underlying strconv error should be preserved: %v", err)
	}
}

func TestParseElementBoundaries(t *testing.T) {
	testlog.Start(t)
	doc := `<event uid="u" type='single-quoted'>
  <pointer lat="99"/>
  <point   lat = "1.5"  lon="2.5" hae="3.5"/>
  <detail>
    <contactinfo callsign="wrong"/>
    <contact phone="x>y" callsign="right"/>
    <__group role="Team Member" name="Green"/>
  </detail>
</event>`
	msg, err := Parse(doc)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if msg.Type != "single-quoted" {
		t.Fatalf("type=%q", msg.Type)
	}
	if msg.Lat != 1.5 || msg.Lon != 2.5 || msg.HAE != 3.5 {
		t.Fatalf("point prefix must not match longer element names: %v %v %v", msg.Lat, msg.Lon, msg.HAE)
	}
	if msg.Callsign != "right" {
		t.Fatalf("callsign=%q", msg.Callsign)
	}
	if msg.Team != "Green" {
		t.Fatalf("team=%q", msg.Team)
	}
}

func TestParseAttributeNameIsExact(t *testing.T) {
	testlog.Start(t)
	msg, err := Parse(`<event xuid="no" uid="yes"><__group teamname="no" name="yes"/></event>`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if msg.UID != "yes" || msg.Team != "yes" {
		t.Fatalf("unexpected: uid=%q team=%q", msg.UID, msg.Team)
	}
}

func TestParseUnescapesEntities(t *testing.T) {
	testlog.Start(t)
	msg, err := Parse(`<event uid="a&amp;b"><detail><contact callsign="&lt;Hawk&gt; &#34;1&#34;"/></detail></event>`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if msg.UID != "a&b" || msg.Callsign != `<Hawk> "1"` {
		t.Fatalf("unexpected: uid=%q callsign=%q", msg.UID, msg.Callsign)
	}
}
