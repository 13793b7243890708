package subwire

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync/atomic"
	"testing"

	subtest "github.com/arloliu/subwire/testing"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type countingProvisioner struct {
	topics   atomic.Int32
	channels atomic.Int32
	err      error
}

func (p *countingProvisioner) CreateTopic(_ context.Context) error {
	p.topics.Add(1)
	return p.err
}

func (p *countingProvisioner) CreateChannel(_ context.Context) error {
	p.channels.Add(1)
	return p.err
}

type countingTransport struct {
	requests atomic.Int32
}

func (rt *countingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	rt.requests.Add(1)
	return http.DefaultTransport.RoundTrip(req)
}

func TestWithProvisioner(t *testing.T) {
	admin := subtest.StartAdminServer(t)

	t.Run("replaces the HTTP provisioner", func(t *testing.T) {
		p := &countingProvisioner{}
		l := newTestListener(t, newTestConfig(admin), &subtest.FakeDialer{}, WithProvisioner(p))

		_, err := l.ListenAsync(testContext(t)).Wait(testContext(t))
		require.NoError(t, err)
		require.Equal(t, int32(1), p.topics.Load())
		require.Equal(t, int32(1), p.channels.Load())
		require.Empty(t, admin.Requests())
	})

	t.Run("provisioner errors are wrapped", func(t *testing.T) {
		p := &countingProvisioner{err: errors.New("stream unavailable")}
		l := newTestListener(t, newTestConfig(admin), &subtest.FakeDialer{}, WithProvisioner(p))

		_, err := l.ListenAsync(testContext(t)).Wait(testContext(t))
		require.ErrorIs(t, err, ErrProvisioning)

		var perr *ProvisioningError
		require.ErrorAs(t, err, &perr)
		require.Equal(t, "topic", perr.Resource)
		require.Equal(t, int32(0), p.channels.Load())
	})
}

func TestWithHTTPClient(t *testing.T) {
	admin := subtest.StartAdminServer(t)
	rt := &countingTransport{}

	l := newTestListener(t, newTestConfig(admin), &subtest.FakeDialer{},
		WithHTTPClient(&http.Client{Transport: rt}),
	)

	_, err := l.ListenAsync(testContext(t)).Wait(testContext(t))
	require.NoError(t, err)
	require.Equal(t, int32(2), rt.requests.Load())
	require.Len(t, admin.Requests(), 2)
}

func TestObservabilityConstructors(t *testing.T) {
	t.Run("slog logger writes through the handler", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewSlogLogger(slog.New(slog.NewTextHandler(&buf, nil)))
		logger.Info("listening", "topic", "t")
		require.Contains(t, buf.String(), "topic=t")
	})

	t.Run("zerolog logger writes through the logger", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewZerologLogger(zerolog.New(&buf))
		logger.Warn("slow", "topic", "t")
		require.Contains(t, buf.String(), `"topic":"t"`)
	})

	t.Run("nop implementations are safe", func(t *testing.T) {
		require.NotPanics(t, func() {
			NewNopLogger().Error("ignored", "k", "v")
			NewNopMetrics().RecordListenOutcome(true, 0)
		})
	})

	t.Run("prometheus metrics register on the given registry", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		admin := subtest.StartAdminServer(t)
		l := newTestListener(t, newTestConfig(admin), &subtest.FakeDialer{},
			WithMetrics(NewPrometheusMetrics(reg, "opts")),
		)

		_, err := l.ListenAsync(testContext(t)).Wait(testContext(t))
		require.NoError(t, err)

		count, err := testutil.GatherAndCount(reg)
		require.NoError(t, err)
		require.Positive(t, count)
	})
}
