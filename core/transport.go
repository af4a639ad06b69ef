package core

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"

	fhttp "github.com/bogdanfinn/fhttp"
	"github.com/cenkalti/backoff/v5"
	log "github.com/sirupsen/logrus"
	"sklandapi/utils"
)

const maxErrorSnippet = 200

// request sends one call through the retry policy and decodes the JSON
// response into out. Every failure is retried the same way: transport
// errors, unreadable bodies and bodies that are not JSON.
func (c *Client) request(ctx context.Context, method, rawURL string, headers fhttp.Header, body []byte, out interface{}) error {
	maxTries := c.MaxRetries
	if maxTries <= 0 {
		maxTries = 1
	}

	host := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		host = u.Host
	}

	attempts := 0
	operation := func() (struct{}, error) {
		attempts++
		err := c.doOnce(method, rawURL, headers, body, out)
		if err != nil {
			requestAttempts.WithLabelValues(host, "error").Inc()
			log.WithFields(log.Fields{
				"url":     rawURL,
				"attempt": attempts,
				"max":     maxTries,
			}).Warnf("request failed: %v", err)
			return struct{}{}, err
		}
		requestAttempts.WithLabelValues(host, "ok").Inc()
		return struct{}{}, nil
	}

	_, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewConstantBackOff(c.RetryDelay)),
		backoff.WithMaxTries(uint(maxTries)),
	)
	if err != nil {
		return &NetworkError{Attempts: attempts, Err: err}
	}
	return nil
}

func (c *Client) doOnce(method, rawURL string, headers fhttp.Header, body []byte, out interface{}) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := fhttp.NewRequest(method, rawURL, reader)
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", method, err)
	}
	for key, values := range headers {
		req.Header[key] = values
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("transport error: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	// tls-client normally inflates for us; only handle bodies it left alone
	if len(raw) > 2 && raw[0] == 0x1f && raw[1] == 0x8b {
		if inflated, gzErr := utils.Gunzip(raw); gzErr == nil {
			raw = inflated
		}
	}

	log.WithFields(log.Fields{"url": rawURL, "status": resp.StatusCode}).Debugf("response: %s", string(raw))

	if !json.Valid(raw) {
		text := utils.StripHTML(string(raw))
		if r := []rune(text); len(r) > maxErrorSnippet {
			text = string(r[:maxErrorSnippet])
		}
		return fmt.Errorf("non-JSON response (status %d): %s", resp.StatusCode, text)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to parse response JSON: %w", err)
	}
	return nil
}
