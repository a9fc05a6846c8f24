// Package render prints decoded messages for the listen command.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/danmuck/takctl/internal/protocol/cot"
	"github.com/danmuck/takctl/internal/protocol/sidc"
)

const rule = "═══════════════════════════════════════"

// Options selects the output format.
type Options struct {
	Compact bool
	// Filter keeps messages whose type contains it. Empty keeps all.
	Filter string
	// Verbose echoes the raw document after each message.
	Verbose bool
}

// Printer writes messages to w. It is not safe for concurrent use.
type Printer struct {
	w          io.Writer
	opts       Options
	headerDone bool
	shown      int
	filtered   int
}

func NewPrinter(w io.Writer, opts Options) *Printer {
	return &Printer{w: w, opts: opts}
}

// Matches reports whether msg passes filter.
func Matches(msg cot.Message, filter string) bool {
	return filter == "" || strings.Contains(msg.Type, filter)
}

// Print renders msg unless it is filtered out.
func (p *Printer) Print(msg cot.Message) error {
	if !Matches(msg, p.opts.Filter) {
		p.filtered++
		return nil
	}
	var err error
	if p.opts.Compact {
		if !p.headerDone {
			p.headerDone = true
			if err = CompactHeader(p.w); err != nil {
				return err
			}
		}
		err = Compact(p.w, msg)
	} else {
		err = Detailed(p.w, msg)
	}
	if err != nil {
		return err
	}
	if p.opts.Verbose {
		if _, err := fmt.Fprintf(p.w, "\nRaw XML:\n%s\n\n", msg.Raw); err != nil {
			return err
		}
	}
	p.shown++
	return nil
}

// Counts returns how many messages were printed and filtered out.
func (p *Printer) Counts() (shown, filtered int) {
	return p.shown, p.filtered
}

func Detailed(w io.Writer, msg cot.Message) error {
	var b strings.Builder
	b.WriteString(rule + "\n")
	b.WriteString("CoT Message Received\n")
	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "UID:       %s\n", msg.UID)
	fmt.Fprintf(&b, "Type:      %s\n", msg.Type)
	fmt.Fprintf(&b, "How:       %s\n", msg.How)
	fmt.Fprintf(&b, "Time:      %s\n", msg.Time)
	fmt.Fprintf(&b, "Position:  %.6f, %.6f (HAE: %.2fm)\n", msg.Lat, msg.Lon, msg.HAE)
	if msg.Callsign != "" {
		fmt.Fprintf(&b, "Callsign:  %s\n", msg.Callsign)
	}
	if msg.Team != "" {
		fmt.Fprintf(&b, "Team:      %s\n", msg.Team)
	}
	if msg.SIDC != "" {
		fmt.Fprintf(&b, "Symbol:    %s (%s)\n", sidc.Describe(sidc.Code(msg.SIDC)), msg.SIDC)
	}
	fmt.Fprintf(&b, "Stale:     %s\n", msg.Stale)
	b.WriteString(rule + "\n")
	_, err := io.WriteString(w, b.String())
	return err
}

func CompactHeader(w io.Writer) error {
	_, err := io.WriteString(w,
		"Time     | Callsign     | Type       | Position (Lat,Lon)      | Team\n"+
			"---------|--------------|------------|-------------------------|----------\n")
	return err
}

func Compact(w io.Writer, msg cot.Message) error {
	_, err := fmt.Fprintf(w, "[%s] %-12s | %-10s | %-10.4f,%-11.4f | %s\n",
		clock(msg.Time), msg.Callsign, msg.Type, msg.Lat, msg.Lon, msg.Team)
	return err
}

// clock returns the hh:mm:ss part of an ISO-8601 timestamp.
func clock(ts string) string {
	if len(ts) < 19 {
		return fmt.Sprintf("%-8s", ts)
	}
	return ts[11:19]
}
