package stream

import (
	"bytes"
	"io"
	"math/rand"
	"slices"
	"strings"
	"testing"

	"github.com/danmuck/takctl/internal/testutil/testlog"
)

const docA = `<?xml version="1.0" encoding="UTF-8"?>
<event version="2.0" uid="a" type="a-f-G-U-C" how="h-g-i-g-o" time="2026-01-01T00:00:00.000Z" start="2026-01-01T00:00:00.000Z" stale="2026-01-01T00:10:00.000Z">
  <point lat="-33.865143" lon="151.209900" hae="50.00" ce="10.0" le="10.0"/>
  <detail>
    <contact callsign="Alpha-1"/>
    <__group name="Blue" role="Team Member"/>
  </detail>
</event>`

const docB = `<event version="2.0" uid="b" type="a-h-G-U-C-A"><point lat="1.000000" lon="2.000000" hae="3.00"/></event>`

func drain(d *Decoder) []string {
	return slices.Collect(d.Documents())
}

func TestNextDocument(t *testing.T) {
	testlog.Start(t)
	doc, rest, ok := NextDocument([]byte("noise" + docB + "tail"))
	if !ok || string(doc) != docB || string(rest) != "tail" {
		t.Fatalf("got ok=%v doc=%q rest=%q", ok, doc, rest)
	}

	_, rest, ok = NextDocument([]byte("junk<event uid=\"x\">"))
	if ok || string(rest) != `<event uid="x">` {
		t.Fatalf("incomplete: ok=%v rest=%q", ok, rest)
	}

	_, rest, ok = NextDocument([]byte("junk with no markers"))
	if ok || len(rest) != 0 {
		t.Fatalf("no marker: ok=%v rest=%q", ok, rest)
	}

	_, rest, ok = NextDocument([]byte("junk<?x"))
	if ok || string(rest) != "<?x" {
		t.Fatalf("partial marker must be kept: ok=%v rest=%q", ok, rest)
	}
}

func TestNextDocumentPrefersEarliestMarker(t *testing.T) {
	testlog.Start(t)
	in := `<event uid="first"></event><?xml version="1.0"?><event uid="second"></event>`
	doc, rest, ok := NextDocument([]byte(in))
	if !ok || string(doc) != `<event uid="first"></event>` {
		t.Fatalf("got ok=%v doc=%q", ok, doc)
	}
	doc, _, ok = NextDocument(rest)
	if !ok || string(doc) != `<?xml version="1.0"?><event uid="second"></event>` {
		t.Fatalf("second: ok=%v doc=%q", ok, doc)
	}
}

func TestDecoderSingleChunk(t *testing.T) {
	testlog.Start(t)
	d := NewDecoder()
	d.Feed([]byte(docA))
	got := drain(d)
	if len(got) != 1 || got[0] != docA {
		t.Fatalf("got %d docs: %q", len(got), got)
	}
	if d.Buffered() != 0 {
		t.Fatalf("buffer should be empty, has %d", d.Buffered())
	}
}

func TestDecoderTwoDocumentsOneChunk(t *testing.T) {
	testlog.Start(t)
	d := NewDecoder()
	d.Feed([]byte(docA + "\n" + docB + "\n"))
	got := drain(d)
	if len(got) != 2 || got[0] != docA || got[1] != docB {
		t.Fatalf("got %q", got)
	}
	if d.Stats().Documents != 2 {
		t.Fatalf("stats=%+v", d.Stats())
	}
}

func TestDecoderReassemblesEverySplit(t *testing.T) {
	testlog.Start(t)
	in := []byte(docA)
	for cut := 1; cut < len(in); cut++ {
		d := NewDecoder()
		d.Feed(in[:cut])
		if got := drain(d); len(got) != 0 {
			t.Fatalf("cut=%d emitted early: %q", cut, got)
		}
		d.Feed(in[cut:])
		got := drain(d)
		if len(got) != 1 || got[0] != docA {
			t.Fatalf("cut=%d got %q", cut, got)
		}
	}
}

func TestDecoderReassemblesRandomChunking(t *testing.T) {
	testlog.Start(t)
	rng := rand.New(rand.NewSource(42))
	stream := []byte(strings.Repeat(docA+"\r\n"+docB, 5))
	for round := 0; round < 200; round++ {
		d := NewDecoder()
		var got []string
		for rest := stream; len(rest) > 0; {
			n := 1 + rng.Intn(64)
			if n > len(rest) {
				n = len(rest)
			}
			d.Feed(rest[:n])
			rest = rest[n:]
			got = append(got, drain(d)...)
		}
		if len(got) != 10 {
			t.Fatalf("round=%d got %d docs", round, len(got))
		}
		for i, doc := range got {
			want := docA
			if i%2 == 1 {
				want = docB
			}
			if doc != want {
				t.Fatalf("round=%d doc %d mismatch: %q", round, i, doc)
			}
		}
	}
}

func TestDecoderOneByteAtATime(t *testing.T) {
	testlog.Start(t)
	d := NewDecoder()
	var got []string
	for _, b := range []byte("garbage<" + docB + "<ev" + "ent uid=\"c\"></event>") {
		d.Feed([]byte{b})
		got = append(got, drain(d)...)
	}
	if len(got) != 2 || got[0] != docB || got[1] != `<event uid="c"></event>` {
		t.Fatalf("got %q", got)
	}
}

func TestDecoderDropsLeadingNoise(t *testing.T) {
	testlog.Start(t)
	d := NewDecoder()
	d.Feed([]byte("\x00\x01 keepalive \n"))
	if got := drain(d); len(got) != 0 {
		t.Fatalf("unexpected docs %q", got)
	}
	if d.Buffered() != 0 {
		t.Fatalf("noise without a start marker should be dropped, buffered=%d", d.Buffered())
	}
}

func TestDecoderOverflowRecovers(t *testing.T) {
	testlog.Start(t)
	var hooked []int
	d := NewDecoder(WithOverflowHook(func(n int) { hooked = append(hooked, n) }))

	huge := append([]byte(`<event uid="stuck">`), bytes.Repeat([]byte("x"), DefaultMaxBuffered)...)
	for off := 0; off < len(huge); off += 4096 {
		end := min(off+4096, len(huge))
		d.Feed(huge[off:end])
		if got := drain(d); len(got) != 0 {
			t.Fatalf("oversized partial must not yield documents: %q", got)
		}
	}
	if d.Buffered() != 0 {
		t.Fatalf("buffer should be cleared after overflow, buffered=%d", d.Buffered())
	}
	st := d.Stats()
	if st.Overflows != 1 || len(hooked) != 1 || hooked[0] != len(huge) || st.BytesDiscarded != uint64(len(huge)) {
		t.Fatalf("stats=%+v hooked=%v", st, hooked)
	}

	d.Feed([]byte(docB))
	got := drain(d)
	if len(got) != 1 || got[0] != docB {
		t.Fatalf("decoder stuck after overflow: %q", got)
	}
}

func TestDecoderCustomCap(t *testing.T) {
	testlog.Start(t)
	d := NewDecoder(WithMaxBuffered(32))
	d.Feed([]byte(`<event uid="0123456789012345678901234567890123456789">`))
	if got := drain(d); len(got) != 0 || d.Buffered() != 0 || d.Stats().Overflows != 1 {
		t.Fatalf("got=%q buffered=%d stats=%+v", got, d.Buffered(), d.Stats())
	}
}

func TestDecoderWriteEnforcesCap(t *testing.T) {
	testlog.Start(t)
	d := NewDecoder(WithMaxBuffered(1024))
	src := io.MultiReader(
		strings.NewReader(`<event uid="runaway">`),
		strings.NewReader(strings.Repeat("x", 64*1024)),
	)
	if _, err := io.Copy(d, src); err != nil {
		t.Fatalf("copy: %v", err)
	}
	if d.Buffered() > 1024 {
		t.Fatalf("writer grew buffer past cap: buffered=%d", d.Buffered())
	}
	if d.Stats().Overflows == 0 {
		t.Fatalf("expected an overflow, stats=%+v", d.Stats())
	}

	d.Feed([]byte(docB))
	if got := drain(d); len(got) != 1 || got[0] != docB {
		t.Fatalf("decoder stuck after write overflow: %q", got)
	}
}

func TestDecoderFeedKeepsCompleteDocumentsOverCap(t *testing.T) {
	testlog.Start(t)
	d := NewDecoder(WithMaxBuffered(32))
	d.Feed([]byte(docB))
	if got := drain(d); len(got) != 1 || got[0] != docB || d.Stats().Overflows != 0 {
		t.Fatalf("got=%q stats=%+v", got, d.Stats())
	}
}

func TestDecoderWriteAndReset(t *testing.T) {
	testlog.Start(t)
	d := NewDecoder()
	n, err := d.Write([]byte(`<event uid="partial"`))
	if err != nil || n != 20 {
		t.Fatalf("write n=%d err=%v", n, err)
	}
	if got := drain(d); len(got) != 0 || d.Buffered() != 20 {
		t.Fatalf("got=%q buffered=%d", got, d.Buffered())
	}
	d.Reset()
	if d.Buffered() != 0 {
		t.Fatalf("reset should clear buffer")
	}
}

func TestDocumentsStopsEarly(t *testing.T) {
	testlog.Start(t)
	d := NewDecoder()
	d.Feed([]byte(docB + docB + docB))
	for doc := range d.Documents() {
		if doc != docB {
			t.Fatalf("doc=%q", doc)
		}
		break
	}
	if got := drain(d); len(got) != 2 {
		t.Fatalf("remaining docs should stay buffered, got %d", len(got))
	}
}
