package testing

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/arloliu/subwire/types"
	"github.com/go-chi/chi/v5"
)

// AdminRequest is a creation request received by an AdminServer.
type AdminRequest struct {
	Method  string
	Path    string
	Topic   string
	Channel string
}

// AdminServer is a fake nsqd administrative endpoint.
//
// It accepts POST /topic/create and POST /channel/create, records each request
// and answers 200 unless a failure status was configured for the resource.
type AdminServer struct {
	server *httptest.Server
	host   string
	port   int

	mu            sync.Mutex
	requests      []AdminRequest
	topicStatus   int
	channelStatus int
}

// StartAdminServer starts a fake administrative endpoint closed with t.Cleanup.
func StartAdminServer(t *testing.T) *AdminServer {
	t.Helper()

	s := &AdminServer{}
	r := chi.NewRouter()
	r.HandleFunc("/topic/create", s.handle(func() int { return s.topicStatus }))
	r.HandleFunc("/channel/create", s.handle(func() int { return s.channelStatus }))

	s.server = httptest.NewServer(r)
	t.Cleanup(s.server.Close)

	u, err := url.Parse(s.server.URL)
	if err != nil {
		t.Fatalf("Failed to parse admin server URL: %v", err)
	}

	ep, err := types.ParseEndpoint(u.Host)
	if err != nil {
		t.Fatalf("Failed to parse admin server address: %v", err)
	}
	s.host, s.port = ep.Host, ep.Port

	return s
}

// URL returns the base URL of the server.
func (s *AdminServer) URL() string {
	return s.server.URL
}

// Host returns the listening host.
func (s *AdminServer) Host() string {
	return s.host
}

// Port returns the listening port.
func (s *AdminServer) Port() int {
	return s.port
}

// Close stops the server. Later requests fail at the transport level.
func (s *AdminServer) Close() {
	s.server.Close()
}

// FailTopic makes topic creation answer with status. Zero restores success.
func (s *AdminServer) FailTopic(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.topicStatus = status
}

// FailChannel makes channel creation answer with status. Zero restores success.
func (s *AdminServer) FailChannel(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channelStatus = status
}

// Requests returns every recorded request in arrival order.
func (s *AdminServer) Requests() []AdminRequest {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]AdminRequest(nil), s.requests...)
}

// TopicRequests returns how many topic creation requests were received.
func (s *AdminServer) TopicRequests() int {
	return s.count("/topic/create")
}

// ChannelRequests returns how many channel creation requests were received.
func (s *AdminServer) ChannelRequests() int {
	return s.count("/channel/create")
}

func (s *AdminServer) count(path string) int {
	n := 0
	for _, r := range s.Requests() {
		if r.Path == path {
			n++
		}
	}

	return n
}

func (s *AdminServer) handle(status func() int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()

		s.mu.Lock()
		s.requests = append(s.requests, AdminRequest{
			Method:  r.Method,
			Path:    r.URL.Path,
			Topic:   query.Get("topic"),
			Channel: query.Get("channel"),
		})
		code := status()
		s.mu.Unlock()

		switch {
		case r.Method != http.MethodPost:
			http.Error(w, "METHOD_NOT_ALLOWED", http.StatusMethodNotAllowed)
		case query.Get("topic") == "":
			http.Error(w, "MISSING_ARG_TOPIC", http.StatusBadRequest)
		case code != 0:
			http.Error(w, http.StatusText(code), code)
		default:
			w.WriteHeader(http.StatusOK)
		}
	}
}
