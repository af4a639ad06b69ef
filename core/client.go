package core

import (
	"time"

	fhttp "github.com/bogdanfinn/fhttp"
	"sklandapi/utils"
)

const (
	DefaultMaxRetries = 3
	DefaultRetryDelay = time.Second
)

// HttpDoer is the subset of tls_client.HttpClient the client needs.
type HttpDoer interface {
	Do(req *fhttp.Request) (*fhttp.Response, error)
}

type Options struct {
	Proxy          string
	TimeoutSeconds int
	MaxRetries     int
	RetryDelay     time.Duration
}

// Client walks the auth chain for one or more user tokens.
//
// A Client owns one device identity, created lazily on first use and reused
// for every later call. It is not safe for concurrent use: flows that run in
// parallel need separate clients.
type Client struct {
	HTTP       HttpDoer
	MaxRetries int
	RetryDelay time.Duration

	Signer  *Signer
	Builder *FingerprintBuilder

	did   string
	close func()
}

func NewClient(opts Options) (*Client, error) {
	httpClient, err := utils.NewClient(opts.Proxy, opts.TimeoutSeconds)
	if err != nil {
		return nil, err
	}

	c := NewClientWithDoer(httpClient)
	if opts.MaxRetries > 0 {
		c.MaxRetries = opts.MaxRetries
	}
	if opts.RetryDelay > 0 {
		c.RetryDelay = opts.RetryDelay
	}
	c.close = httpClient.CloseIdleConnections
	return c, nil
}

// NewClientWithDoer wires a client around any transport, mainly for tests.
func NewClientWithDoer(doer HttpDoer) *Client {
	clock := utils.RealClock{}
	return &Client{
		HTTP:       doer,
		MaxRetries: DefaultMaxRetries,
		RetryDelay: DefaultRetryDelay,
		Signer:     &Signer{Clock: clock},
		Builder:    &FingerprintBuilder{Clock: clock, IDs: utils.UUIDSource{}},
	}
}

// Close releases pooled connections. The client must not be used afterwards.
func (c *Client) Close() {
	if c.close != nil {
		c.close()
		c.close = nil
	}
}
