package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Qinglong sends through the panel's Open API. Token is used as is when
// set, otherwise it is exchanged from the client credentials.
type Qinglong struct {
	BaseURL      string
	Token        string
	ClientID     string
	ClientSecret string
	HTTP         *http.Client
}

type qlResponse struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (q *Qinglong) Name() string {
	return "qinglong"
}

func (q *Qinglong) Send(ctx context.Context, title, content string) error {
	token := q.Token
	if token == "" {
		if q.ClientID == "" || q.ClientSecret == "" {
			return errors.New("no token or client credentials")
		}
		var err error
		token, err = q.fetchToken(ctx)
		if err != nil {
			return err
		}
	}

	body, err := json.Marshal(map[string]string{"title": title, "content": content})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, q.endpoint("/open/system/notify"), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := q.do(req)
	if err != nil {
		return err
	}
	if resp.Code != 200 {
		return fmt.Errorf("notify rejected: code=%d message=%s", resp.Code, resp.Message)
	}
	return nil
}

func (q *Qinglong) fetchToken(ctx context.Context) (string, error) {
	query := url.Values{
		"client_id":     {q.ClientID},
		"client_secret": {q.ClientSecret},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, q.endpoint("/open/auth/token")+"?"+query.Encode(), nil)
	if err != nil {
		return "", err
	}

	resp, err := q.do(req)
	if err != nil {
		return "", err
	}
	if resp.Code != 200 {
		return "", fmt.Errorf("token exchange rejected: code=%d message=%s", resp.Code, resp.Message)
	}

	var data struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(resp.Data, &data); err != nil || data.Token == "" {
		return "", errors.New("token exchange returned no token")
	}
	return data.Token, nil
}

func (q *Qinglong) do(req *http.Request) (*qlResponse, error) {
	resp, err := q.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out qlResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to parse response (status %d): %w", resp.StatusCode, err)
	}
	return &out, nil
}

func (q *Qinglong) endpoint(path string) string {
	return strings.TrimRight(q.BaseURL, "/") + path
}
