package provision

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	subtest "github.com/arloliu/subwire/testing"
	"github.com/arloliu/subwire/types"
	"github.com/stretchr/testify/require"
)

func TestNewHTTP_URLs(t *testing.T) {
	t.Run("defaults to http", func(t *testing.T) {
		p := NewHTTP(HTTPConfig{Host: "nsqd", Port: 4151, Topic: "t", Channel: "c"}, nil)
		require.Equal(t, "http://nsqd:4151/topic/create?topic=t", p.TopicURL())
		require.Equal(t, "http://nsqd:4151/channel/create?topic=t&channel=c", p.ChannelURL())
	})

	t.Run("uses https when configured", func(t *testing.T) {
		p := NewHTTP(HTTPConfig{Protocol: "https", Host: "nsqd", Port: 4151, Topic: "t", Channel: "c"}, nil)
		require.Equal(t, "https://nsqd:4151/topic/create?topic=t", p.TopicURL())
	})

	t.Run("escapes ephemeral suffix", func(t *testing.T) {
		p := NewHTTP(HTTPConfig{Host: "nsqd", Port: 4151, Topic: "t#ephemeral", Channel: "c#ephemeral"}, nil)
		require.Equal(t, "http://nsqd:4151/channel/create?topic=t%23ephemeral&channel=c%23ephemeral", p.ChannelURL())
	})

	t.Run("brackets IPv6 hosts", func(t *testing.T) {
		p := NewHTTP(HTTPConfig{Host: "::1", Port: 4151, Topic: "t", Channel: "c"}, nil)
		require.Equal(t, "http://[::1]:4151/topic/create?topic=t", p.TopicURL())
	})
}

func TestHTTP_Create(t *testing.T) {
	admin := subtest.StartAdminServer(t)
	p := NewHTTP(HTTPConfig{
		Host:    admin.Host(),
		Port:    admin.Port(),
		Topic:   "orders",
		Channel: "billing",
		Logger:  subtest.NewTestLogger(t),
	}, &http.Client{Timeout: 2 * time.Second})

	require.NoError(t, p.CreateTopic(t.Context()))
	require.NoError(t, p.CreateChannel(t.Context()))

	reqs := admin.Requests()
	require.Len(t, reqs, 2)
	require.Equal(t, subtest.AdminRequest{Method: http.MethodPost, Path: "/topic/create", Topic: "orders"}, reqs[0])
	require.Equal(t, subtest.AdminRequest{Method: http.MethodPost, Path: "/channel/create", Topic: "orders", Channel: "billing"}, reqs[1])
}

func TestHTTP_Rejection(t *testing.T) {
	admin := subtest.StartAdminServer(t)
	admin.FailChannel(http.StatusInternalServerError)
	p := NewHTTP(HTTPConfig{Host: admin.Host(), Port: admin.Port(), Topic: "orders", Channel: "billing"}, nil)

	err := p.CreateChannel(t.Context())
	require.Error(t, err)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
	require.Equal(t, "Internal Server Error", statusErr.Body)
	require.Equal(t, p.ChannelURL(), statusErr.URL)
	require.Equal(t, 1, admin.ChannelRequests(), "no retry after rejection")
}

func TestHTTP_TransportErrorIsVerbatim(t *testing.T) {
	transportErr := errors.New("dial refused")
	client := &http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
		return nil, transportErr
	})}
	p := NewHTTP(HTTPConfig{Host: "nsqd", Port: 4151, Topic: "t", Channel: "c"}, client)

	err := p.CreateTopic(t.Context())
	require.ErrorIs(t, err, transportErr)

	var statusErr *StatusError
	require.False(t, errors.As(err, &statusErr))
}

func TestHTTP_IgnoresSuccessBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"unexpected": true}`))
	}))
	defer srv.Close()

	ep, err := types.ParseEndpoint(srv.Listener.Addr().String())
	require.NoError(t, err)

	p := NewHTTP(HTTPConfig{Host: ep.Host, Port: ep.Port, Topic: "t", Channel: "c"}, srv.Client())
	require.NoError(t, p.CreateTopic(t.Context()))
}

func TestStatusError_Error(t *testing.T) {
	err := &StatusError{URL: "http://nsqd/topic/create?topic=t", StatusCode: 400, Body: "INVALID_TOPIC"}
	require.Equal(t, "POST http://nsqd/topic/create?topic=t: status 400: INVALID_TOPIC", err.Error())

	err.Body = ""
	require.Equal(t, "POST http://nsqd/topic/create?topic=t: status 400", err.Error())
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }
