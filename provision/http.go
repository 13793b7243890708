package provision

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"

	"github.com/arloliu/subwire/internal/logging"
	"github.com/arloliu/subwire/types"
)

// HTTPConfig addresses the administrative endpoint of a data service.
type HTTPConfig struct {
	// Protocol is "http" or "https". Empty means "http".
	Protocol string

	// Host is the data service host.
	Host string

	// Port is the administrative HTTP port.
	Port int

	// Topic is the topic to create.
	Topic string

	// Channel is the channel to create on Topic.
	Channel string

	// Logger receives request logs. Optional.
	Logger types.Logger
}

// HTTP creates topics and channels through the nsqd HTTP API.
//
// Request URLs are computed once at construction. Transport errors are returned
// unchanged; a status of 400 or above is returned as *StatusError. The response
// body is otherwise ignored.
//
// A completed request is therefore not enough for success: nsqd answering 4xx or
// 5xx, for example to an invalid name, fails the creation.
type HTTP struct {
	client     *http.Client
	logger     types.Logger
	topicURL   string
	channelURL string
}

// Compile-time assertion that HTTP implements Provisioner.
var _ types.Provisioner = (*HTTP)(nil)

// NewHTTP creates an HTTP provisioner.
//
// Parameters:
//   - cfg: Endpoint and resource names
//   - client: HTTP client to use (http.DefaultClient if nil)
//
// Returns:
//   - *HTTP: Provisioner with precomputed request URLs
//
// Example:
//
//	p := provision.NewHTTP(provision.HTTPConfig{
//	    Host:    "127.0.0.1",
//	    Port:    4151,
//	    Topic:   "orders",
//	    Channel: "billing",
//	}, &http.Client{Timeout: 10 * time.Second})
//	err := p.CreateTopic(ctx)
func NewHTTP(cfg HTTPConfig, client *http.Client) *HTTP {
	if client == nil {
		client = http.DefaultClient
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	scheme := cfg.Protocol
	if scheme == "" {
		scheme = "http"
	}

	base := scheme + "://" + net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	topic := url.QueryEscape(cfg.Topic)

	return &HTTP{
		client:     client,
		logger:     logger,
		topicURL:   base + "/topic/create?topic=" + topic,
		channelURL: base + "/channel/create?topic=" + topic + "&channel=" + url.QueryEscape(cfg.Channel),
	}
}

// TopicURL returns the topic creation URL.
func (h *HTTP) TopicURL() string {
	return h.topicURL
}

// ChannelURL returns the channel creation URL.
func (h *HTTP) ChannelURL() string {
	return h.channelURL
}

// CreateTopic issues one topic creation request.
func (h *HTTP) CreateTopic(ctx context.Context) error {
	return h.post(ctx, h.topicURL)
}

// CreateChannel issues one channel creation request.
func (h *HTTP) CreateChannel(ctx context.Context) error {
	return h.post(ctx, h.channelURL)
}

func (h *HTTP) post(ctx context.Context, target string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, nil)
	if err != nil {
		return err
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		h.logger.Warn("creation request rejected", "url", target, "status", resp.StatusCode)

		return newStatusError(target, resp.StatusCode, body)
	}

	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, resp.Body)
	h.logger.Debug("creation request accepted", "url", target, "status", resp.StatusCode)

	return nil
}
