package observability

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const namespace = "takctl"

// Metrics holds the session and decoder counters. It satisfies
// session.Observer. A nil *Metrics records nothing.
type Metrics struct {
	documents     prometheus.Counter
	overflows     prometheus.Counter
	discarded     prometheus.Counter
	parseFailures prometheus.Counter
	sent          prometheus.Counter
	sentBytes     prometheus.Counter
	sendFailures  prometheus.Counter
	wouldBlock    prometheus.Counter
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
)

// Default returns the process-wide metrics registered on
// prometheus.DefaultRegisterer.
func Default() *Metrics {
	defaultOnce.Do(func() {
		defaultMetrics = NewMetrics(prometheus.DefaultRegisterer)
	})
	return defaultMetrics
}

// NewMetrics creates the counters and registers them on reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	counter := func(subsystem, name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      name,
			Help:      help,
		})
	}
	m := &Metrics{
		documents:     counter("stream", "documents_total", "Complete documents reassembled from the stream."),
		overflows:     counter("stream", "overflows_total", "Decoder buffer resets after exceeding the cap."),
		discarded:     counter("stream", "discarded_bytes_total", "Bytes dropped by decoder buffer resets."),
		parseFailures: counter("session", "parse_failures_total", "Received documents skipped as malformed."),
		sent:          counter("session", "sent_total", "Documents written to the stream."),
		sentBytes:     counter("session", "sent_bytes_total", "Bytes written to the stream."),
		sendFailures:  counter("session", "send_failures_total", "Failed document writes."),
		wouldBlock:    counter("session", "would_block_total", "Reads that returned no data yet."),
	}
	if reg != nil {
		reg.MustRegister(
			m.documents, m.overflows, m.discarded, m.parseFailures,
			m.sent, m.sentBytes, m.sendFailures, m.wouldBlock,
		)
	}
	return m
}

func (m *Metrics) DocumentDecoded() {
	if m == nil {
		return
	}
	m.documents.Inc()
}

func (m *Metrics) ParseFailed() {
	if m == nil {
		return
	}
	m.parseFailures.Inc()
}

func (m *Metrics) Overflow(discarded int) {
	if m == nil {
		return
	}
	m.overflows.Inc()
	m.discarded.Add(float64(discarded))
}

func (m *Metrics) Sent(bytes int) {
	if m == nil {
		return
	}
	m.sent.Inc()
	m.sentBytes.Add(float64(bytes))
}

func (m *Metrics) SendFailed() {
	if m == nil {
		return
	}
	m.sendFailures.Inc()
}

func (m *Metrics) WouldBlock() {
	if m == nil {
		return
	}
	m.wouldBlock.Inc()
}

// Handler exposes g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// Serve runs a /metrics endpoint on addr until ctx is done.
func Serve(ctx context.Context, addr string, g prometheus.Gatherer) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(g))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("observability.Serve metrics listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
