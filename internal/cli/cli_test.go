package cli

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/danmuck/takctl/internal/protocol/cot"
	"github.com/danmuck/takctl/internal/protocol/session"
	"github.com/danmuck/takctl/internal/protocol/sidc"
	"github.com/danmuck/takctl/internal/protocol/stream"
	"github.com/danmuck/takctl/internal/testutil/testlog"
	"github.com/danmuck/takctl/internal/testutil/tlstest"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCmd()
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(&out)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := root.ExecuteContext(ctx)
	return out.String(), err
}

type server struct {
	host string
	port string
	ca   string
}

func startServer(t *testing.T, handle func(*tls.Conn)) server {
	t.Helper()
	dir := t.TempDir()
	ca := tlstest.NewAuthority(t, dir, "cli-test")
	cert, key := ca.IssueServerCert(t, dir, "tak", []string{"localhost"}, []net.IP{net.ParseIP("127.0.0.1")})
	srv := tlstest.StartServer(t, tlstest.ServerOptions{CertFile: cert, KeyFile: key}, handle)
	host, port, err := net.SplitHostPort(srv.Addr())
	require.NoError(t, err)
	return server{host: host, port: port, ca: ca.CAFile()}
}

func (s server) flags() []string {
	return []string{"--host", s.host, "--port", s.port, "--ca", s.ca}
}

func TestDescribe(t *testing.T) {
	testlog.Start(t)
	code := string(sidc.FriendlyInfantry(sidc.EchelonSquad))
	out, err := run(t, "describe", code)
	require.NoError(t, err)
	require.Equal(t, code+"\tFriend Land Unit Infantry (Squad)\ta-f-G-U-C-I\tcountry=000\n", out)

	out, err = run(t, "describe", code, "12345")
	require.ErrorIs(t, err, sidc.ErrInvalidCode)
	require.Contains(t, out, "12345\tInvalid SIDC\n")
}

func TestConfigInitAndValidate(t *testing.T) {
	testlog.Start(t)
	path := filepath.Join(t.TempDir(), "takctl.toml")

	out, err := run(t, "config", "init", path)
	require.NoError(t, err)
	require.Contains(t, out, "Wrote "+path)

	_, err = run(t, "config", "init", path)
	require.Error(t, err)
	_, err = run(t, "config", "init", "--force", path)
	require.NoError(t, err)

	out, err = run(t, "config", "validate", path)
	require.NoError(t, err)
	require.Contains(t, out, "localhost:8089, development mode")

	require.NoError(t, os.WriteFile(path, []byte("security_mode = \"production\"\n"), 0o600))
	_, err = run(t, "config", "validate", path)
	require.ErrorIs(t, err, session.ErrMTLSRequired)
}

func TestInjectSendsBatches(t *testing.T) {
	testlog.Start(t)
	docs := make(chan string, 64)
	srv := startServer(t, func(conn *tls.Conn) {
		dec := stream.NewDecoder()
		buf := make([]byte, 4096)
		for {
			n, err := conn.Read(buf)
			dec.Feed(buf[:n])
			for doc := range dec.Documents() {
				docs <- doc
			}
			if err != nil {
				return
			}
		}
	})

	args := append([]string{"inject", "--count", "2", "--interval", "20ms", "--seed", "42"}, srv.flags()...)
	out, err := run(t, args...)
	require.NoError(t, err)
	require.Contains(t, out, "=== Batch 2 of 2 ===")
	require.Contains(t, out, "CoT injection completed successfully")
	require.Equal(t, 12, strings.Count(out, "Sent CoT object "))

	perUID := map[string]int{}
	callsigns := map[string]bool{}
	for i := 0; i < 12; i++ {
		select {
		case doc := <-docs:
			msg, err := cot.Parse(doc)
			require.NoError(t, err)
			perUID[msg.UID]++
			callsigns[msg.Callsign] = true
		case <-time.After(5 * time.Second):
			t.Fatalf("server received %d of 12 documents", i)
		}
	}
	require.Len(t, perUID, 6)
	for uid, n := range perUID {
		require.Equal(t, 2, n, uid)
	}
	require.True(t, callsigns["Eagle-1"] && callsigns["Neutral-1"])
}

func TestInjectUnpacedWithDrift(t *testing.T) {
	testlog.Start(t)
	docs := make(chan string, 64)
	srv := startServer(t, func(conn *tls.Conn) {
		dec := stream.NewDecoder()
		buf := make([]byte, 4096)
		for {
			n, err := conn.Read(buf)
			dec.Feed(buf[:n])
			for doc := range dec.Documents() {
				docs <- doc
			}
			if err != nil {
				return
			}
		}
	})

	args := append([]string{"inject", "--count", "3", "--interval", "0", "--drift", "0.5", "--seed", "7"}, srv.flags()...)
	out, err := run(t, args...)
	require.NoError(t, err)
	require.Equal(t, 18, strings.Count(out, "Sent CoT object "))

	positions := map[string]map[[2]float64]bool{}
	for i := 0; i < 18; i++ {
		select {
		case doc := <-docs:
			msg, err := cot.Parse(doc)
			require.NoError(t, err)
			if positions[msg.UID] == nil {
				positions[msg.UID] = map[[2]float64]bool{}
			}
			positions[msg.UID][[2]float64{msg.Lat, msg.Lon}] = true
		case <-time.After(5 * time.Second):
			t.Fatalf("server received %d of 18 documents", i)
		}
	}
	require.Len(t, positions, 6)
	for uid, seen := range positions {
		require.Len(t, seen, 3, "unit %s should report a new position each batch", uid)
	}
}

func TestListenFiltersAndReportsClose(t *testing.T) {
	testlog.Start(t)
	clock := func() time.Time { return time.Date(2026, 3, 1, 8, 15, 30, 0, time.UTC) }
	friendly := cot.NewEntity("a-f-G-U-C", cot.Report{Callsign: "Alpha-1"}, cot.WithClock(clock))
	hostile := cot.NewEntity("a-h-G-U-C-A", cot.Report{Callsign: "Enemy-1", Team: "Red"}, cot.WithClock(clock))
	srv := startServer(t, func(conn *tls.Conn) {
		payload := friendly.Serialize() + `<event uid="x"><point lat="?"/></event>` + hostile.Serialize()
		_, _ = conn.Write([]byte(payload))
	})

	args := append([]string{"listen", "--compact", "--filter", "a-h"}, srv.flags()...)
	out, err := run(t, args...)
	require.ErrorIs(t, err, session.ErrClosed)
	require.Contains(t, out, "Filter: a-h")
	require.Contains(t, out, "Time     | Callsign")
	require.Contains(t, out, "[08:15:30] Enemy-1")
	require.NotContains(t, out, "Alpha-1")
}

// scriptStream yields its chunks once and then reports a closed stream.
type scriptStream struct {
	mu     sync.Mutex
	chunks [][]byte
}

func (s *scriptStream) Send([]byte) error { return nil }
func (s *scriptStream) Close() error      { return nil }

func (s *scriptStream) Receive(int) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.chunks) == 0 {
		return nil, session.ErrClosed
	}
	chunk := s.chunks[0]
	s.chunks = s.chunks[1:]
	return chunk, nil
}

func TestRunListenerReconnects(t *testing.T) {
	testlog.Start(t)
	doc := cot.NewEntity("", cot.Report{Callsign: "Late"}).Serialize()
	attempts := 0
	dialer := session.DialerFunc(func(context.Context) (session.Stream, error) {
		attempts++
		switch attempts {
		case 1:
			return nil, errors.New("connection refused")
		case 2:
			return &scriptStream{}, nil
		default:
			return &scriptStream{chunks: [][]byte{[]byte(doc)}}, nil
		}
	})
	c := session.NewController(dialer, session.WithPollInterval(time.Millisecond))
	backoff := session.NewBackoff(session.BackoffConfig{InitialDelay: time.Millisecond, Multiplier: 1})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var got []cot.Message
	err := runListener(ctx, c, backoff, true, func(msg cot.Message) {
		got = append(got, msg)
		cancel()
	})
	require.NoError(t, err)
	require.Equal(t, 3, attempts)
	require.Len(t, got, 1)
	require.Equal(t, "Late", got[0].Callsign)
	require.Equal(t, session.StateDisconnected, c.State())
}

func TestRunListenerWithoutReconnect(t *testing.T) {
	testlog.Start(t)
	dialErr := errors.New("connection refused")
	c := session.NewController(session.DialerFunc(func(context.Context) (session.Stream, error) {
		return nil, dialErr
	}))
	err := runListener(context.Background(), c, session.NewBackoff(session.BackoffConfig{}), false, func(cot.Message) {})
	require.ErrorIs(t, err, dialErr)
}
