package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const DefaultQmsgBase = "https://qmsg.zendee.cn"

// Qmsg pushes a private message through the Qmsg bot.
type Qmsg struct {
	Key     string
	BaseURL string
	HTTP    *http.Client
}

func (q *Qmsg) Name() string {
	return "qmsg"
}

// Send ignores title: Qmsg messages are body only.
func (q *Qmsg) Send(ctx context.Context, _, content string) error {
	if q.Key == "" {
		return errors.New("no qmsg key")
	}
	base := q.BaseURL
	if base == "" {
		base = DefaultQmsgBase
	}

	form := url.Values{"msg": {content}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/send/%s", base, q.Key), strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := q.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var out struct {
		Success bool   `json:"success"`
		Reason  string `json:"reason"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("failed to parse response (status %d): %w", resp.StatusCode, err)
	}
	if !out.Success {
		return fmt.Errorf("push rejected: %s", out.Reason)
	}
	return nil
}
