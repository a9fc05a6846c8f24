package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/danmuck/takctl/internal/protocol/cot"
	"github.com/danmuck/takctl/internal/testutil/testlog"
)

func sample() cot.Message {
	return cot.Message{
		UID:      "u-1",
		Type:     "a-h-G-U-C-A",
		How:      "h-p-i",
		Time:     "2026-03-01T12:34:56.789Z",
		Stale:    "2026-03-02T12:34:56.789Z",
		Lat:      -33.865143,
		Lon:      151.2099,
		HAE:      50,
		Callsign: "Enemy-1",
		Team:     "Red",
		SIDC:     "10610110200150000000",
		Raw:      `<event uid="u-1"/>`,
	}
}

func TestDetailed(t *testing.T) {
	testlog.Start(t)
	var buf bytes.Buffer
	if err := Detailed(&buf, sample()); err != nil {
		t.Fatalf("detailed: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"UID:       u-1\n",
		"Type:      a-h-G-U-C-A\n",
		"Position:  -33.865143, 151.209900 (HAE: 50.00m)\n",
		"Callsign:  Enemy-1\n",
		"Team:      Red\n",
		"Symbol:    Hostile Land Unit Armor (Company) (10610110200150000000)\n",
		"Stale:     2026-03-02T12:34:56.789Z\n",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestDetailedOmitsEmptyOptionalFields(t *testing.T) {
	testlog.Start(t)
	var buf bytes.Buffer
	if err := Detailed(&buf, cot.Message{UID: "bare"}); err != nil {
		t.Fatalf("detailed: %v", err)
	}
	for _, unwanted := range []string{"Callsign:", "Team:", "Symbol:"} {
		if strings.Contains(buf.String(), unwanted) {
			t.Fatalf("unexpected %q in:\n%s", unwanted, buf.String())
		}
	}
}

func TestCompact(t *testing.T) {
	testlog.Start(t)
	var buf bytes.Buffer
	if err := Compact(&buf, sample()); err != nil {
		t.Fatalf("compact: %v", err)
	}
	want := "[12:34:56] Enemy-1      | a-h-G-U-C-A | -33.8651  ,151.2099    | Red\n"
	if buf.String() != want {
		t.Fatalf("got  %q\nwant %q", buf.String(), want)
	}
}

func TestPrinterFilterHeaderAndVerbose(t *testing.T) {
	testlog.Start(t)
	var buf bytes.Buffer
	p := NewPrinter(&buf, Options{Compact: true, Filter: "a-h", Verbose: true})

	friendly := sample()
	friendly.Type = "a-f-G-U-C"
	for _, msg := range []cot.Message{friendly, sample(), sample()} {
		if err := p.Print(msg); err != nil {
			t.Fatalf("print: %v", err)
		}
	}
	shown, filtered := p.Counts()
	if shown != 2 || filtered != 1 {
		t.Fatalf("shown=%d filtered=%d", shown, filtered)
	}
	out := buf.String()
	if strings.Count(out, "Time     | Callsign") != 1 {
		t.Fatalf("header should print once:\n%s", out)
	}
	if strings.Count(out, "Raw XML:\n<event uid=\"u-1\"/>") != 2 {
		t.Fatalf("raw echo missing:\n%s", out)
	}
	if strings.Contains(out, "a-f-G-U-C") {
		t.Fatalf("filtered message printed:\n%s", out)
	}
}

func TestMatches(t *testing.T) {
	testlog.Start(t)
	msg := sample()
	if !Matches(msg, "") || !Matches(msg, "a-h") || !Matches(msg, "G-U-C") || Matches(msg, "a-f") {
		t.Fatalf("unexpected filter results for %q", msg.Type)
	}
}
