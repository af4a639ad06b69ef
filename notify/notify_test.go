package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"sklandapi/config"
)

func mockClient() (*http.Client, *httpmock.MockTransport) {
	transport := httpmock.NewMockTransport()
	return &http.Client{Transport: transport}, transport
}

func TestQinglongWithClientCredentials(t *testing.T) {
	client, transport := mockClient()

	transport.RegisterResponder(http.MethodGet, "http://ql:5700/open/auth/token",
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "cid", req.URL.Query().Get("client_id"))
			assert.Equal(t, "secret", req.URL.Query().Get("client_secret"))
			return httpmock.NewStringResponse(200, `{"code":200,"data":{"token":"jwt"}}`), nil
		})

	var sent map[string]string
	transport.RegisterResponder(http.MethodPut, "http://ql:5700/open/system/notify",
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "Bearer jwt", req.Header.Get("Authorization"))
			body, _ := io.ReadAll(req.Body)
			require.NoError(t, json.Unmarshal(body, &sent))
			return httpmock.NewStringResponse(200, `{"code":200}`), nil
		})

	q := &Qinglong{BaseURL: "http://ql:5700/", ClientID: "cid", ClientSecret: "secret", HTTP: client}
	require.NoError(t, q.Send(context.Background(), "title", "content"))
	assert.Equal(t, map[string]string{"title": "title", "content": "content"}, sent)
}

func TestQinglongWithStaticToken(t *testing.T) {
	client, transport := mockClient()
	transport.RegisterResponder(http.MethodPut, "http://localhost:5600/open/system/notify",
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "Bearer static", req.Header.Get("Authorization"))
			return httpmock.NewStringResponse(200, `{"code":400,"message":"bad"}`), nil
		})

	q := &Qinglong{BaseURL: "http://localhost:5600", Token: "static", HTTP: client}
	err := q.Send(context.Background(), "t", "c")
	assert.ErrorContains(t, err, "code=400")

	info := transport.GetCallCountInfo()
	assert.Zero(t, info["GET http://localhost:5600/open/auth/token"])
}

func TestQinglongTokenExchangeFails(t *testing.T) {
	client, transport := mockClient()
	transport.RegisterResponder(http.MethodGet, "http://ql/open/auth/token",
		httpmock.NewStringResponder(200, `{"code":401,"message":"invalid client"}`))

	q := &Qinglong{BaseURL: "http://ql", ClientID: "a", ClientSecret: "b", HTTP: client}
	err := q.Send(context.Background(), "t", "c")
	assert.ErrorContains(t, err, "token exchange rejected")
	assert.Zero(t, transport.GetCallCountInfo()["PUT http://ql/open/system/notify"])
}

func TestQmsgSend(t *testing.T) {
	client, transport := mockClient()
	transport.RegisterResponder(http.MethodPost, "https://qmsg.zendee.cn/send/key123",
		func(req *http.Request) (*http.Response, error) {
			require.NoError(t, req.ParseForm())
			assert.Equal(t, "hello\nworld", req.PostForm.Get("msg"))
			return httpmock.NewStringResponse(200, `{"success":true}`), nil
		})

	q := &Qmsg{Key: "key123", HTTP: client}
	assert.NoError(t, q.Send(context.Background(), "ignored", "hello\nworld"))
}

func TestQmsgRejected(t *testing.T) {
	client, transport := mockClient()
	transport.RegisterResponder(http.MethodPost, "https://qmsg.zendee.cn/send/key123",
		httpmock.NewStringResponder(200, `{"success":false,"reason":"key invalid"}`))

	q := &Qmsg{Key: "key123", HTTP: client}
	assert.ErrorContains(t, q.Send(context.Background(), "", "msg"), "key invalid")
}

type stubNotifier struct {
	name string
	err  error
	got  []string
}

func (s *stubNotifier) Name() string { return s.name }

func (s *stubNotifier) Send(_ context.Context, title, content string) error {
	s.got = append(s.got, title+"|"+content)
	return s.err
}

func TestDispatchContinuesAfterFailure(t *testing.T) {
	failing := &stubNotifier{name: "first", err: assert.AnError}
	working := &stubNotifier{name: "second"}
	d := &Dispatcher{Notifiers: []Notifier{failing, working}}

	sent, err := d.Dispatch(context.Background(), Title, "report")

	assert.True(t, sent)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, []string{"森空岛签到|report"}, working.got)
}

func TestDispatchWithoutChannels(t *testing.T) {
	sent, err := (&Dispatcher{}).Dispatch(context.Background(), Title, "report")
	assert.False(t, sent)
	assert.NoError(t, err)
}

func TestFromConfig(t *testing.T) {
	d := FromConfig(&config.Config{QmsgKey: "k", Qinglong: config.QinglongConfig{ClientID: "id"}}, nil)
	require.Len(t, d.Notifiers, 1)
	assert.Equal(t, "qmsg", d.Notifiers[0].Name())

	d = FromConfig(&config.Config{Qinglong: config.QinglongConfig{APIBase: "http://ql", Token: "t"}}, nil)
	require.Len(t, d.Notifiers, 1)
	assert.Equal(t, "qinglong", d.Notifiers[0].Name())
}
