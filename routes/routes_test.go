package routes

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	fhttp "github.com/bogdanfinn/fhttp"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"sklandapi/core"
	"sklandapi/utils"
)

type cannedDoer map[string]string

func (d cannedDoer) Do(req *fhttp.Request) (*fhttp.Response, error) {
	payload, ok := d[req.URL.String()]
	if !ok {
		return nil, fmt.Errorf("unexpected request to %s", req.URL)
	}
	return &fhttp.Response{
		StatusCode: 200,
		Header:     fhttp.Header{},
		Body:       io.NopCloser(strings.NewReader(payload)),
	}, nil
}

func happyDoer() cannedDoer {
	return cannedDoer{
		utils.DeviceProfileURL: `{"code":1100,"detail":{"deviceId":"abc123"}}`,
		utils.GrantURL:         `{"status":0,"data":{"code":"c"}}`,
		utils.CredentialURL:    `{"code":0,"data":{"token":"t","cred":"cr"}}`,
		utils.BindingURL:       `{"code":0,"data":{"list":[{"appCode":"arknights","bindingList":[{"uid":"u1","gameId":1,"nickName":"Doctor"}]}]}}`,
		utils.AttendanceURL:    `{"code":0,"data":{"awards":[{"resource":{"name":"龙门币"},"count":500}]}}`,
	}
}

func newServer(t *testing.T, doer cannedDoer) (*echo.Echo, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	require.NoError(t, core.RegisterMetrics(reg))

	h := &Handler{
		NewClient: func() (*core.Client, error) {
			c := core.NewClientWithDoer(doer)
			c.RetryDelay = 0
			return c, nil
		},
		Gatherer: reg,
	}
	e := echo.New()
	h.Register(e)
	return e, reg
}

func do(e *echo.Echo, method, path, contentType, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	e, _ := newServer(t, happyDoer())
	rec := do(e, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSignInRejectsWrongContentType(t *testing.T) {
	e, _ := newServer(t, happyDoer())
	rec := do(e, http.MethodPost, "/signIn", "text/plain", "token=abc")
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestSignInRequiresToken(t *testing.T) {
	e, _ := newServer(t, happyDoer())
	rec := do(e, http.MethodPost, "/signIn", echo.MIMEApplicationJSON, `{"token":"  "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "token wasn't provided", decode(t, rec)["error"])
}

func TestSignIn(t *testing.T) {
	e, reg := newServer(t, happyDoer())
	rec := do(e, http.MethodPost, "/signIn", echo.MIMEApplicationJSON, `{"token":"user-token"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	out := decode(t, rec)
	assert.Equal(t, true, out["success"])
	assert.Equal(t, "Doctor", out["nickname"])
	results := out["results"].([]interface{})
	require.Len(t, results, 1)
	first := results[0].(map[string]interface{})
	assert.Equal(t, true, first["success"])
	assert.Equal(t, []interface{}{"龙门币x500"}, first["awards"])

	metrics := do(e, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, metrics.Code)
	assert.Contains(t, metrics.Body.String(), "skland_request_attempts_total")

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestSignInChainFailure(t *testing.T) {
	doer := happyDoer()
	doer[utils.GrantURL] = `{"status":1,"message":"bad token"}`
	e, _ := newServer(t, doer)

	rec := do(e, http.MethodPost, "/signIn", echo.MIMEApplicationJSON, `{"token":"user-token"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "authorization failed: bad token", decode(t, rec)["error"])
}

func TestStatus(t *testing.T) {
	doer := happyDoer()
	doer[utils.AttendanceURL] = `{"code":10001,"message":"请勿重复签到！"}`
	e, _ := newServer(t, doer)

	rec := do(e, http.MethodPost, "/status", echo.MIMEApplicationJSON, `{"token":"user-token"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	out := decode(t, rec)
	assert.Equal(t, map[string]interface{}{"arknights": true, "endfield": false}, out["status"])
}

func TestDecryptFingerprint(t *testing.T) {
	fp, err := (&core.FingerprintBuilder{Clock: utils.RealClock{}, IDs: utils.UUIDSource{}}).Build()
	require.NoError(t, err)

	e, _ := newServer(t, happyDoer())
	body := fmt.Sprintf(`{"data":%q,"pri_id":%q}`, fp.Data, fp.PriID)
	rec := do(e, http.MethodPost, "/decryptFingerprint", echo.MIMEApplicationJSON, body)
	require.Equal(t, http.StatusOK, rec.Code)

	fields := decode(t, rec)["fields"].(map[string]interface{})
	assert.Equal(t, fp.Mapping["tn"], fields["tn"])
	assert.Equal(t, fp.Mapping["canvas"], fields["canvas"])
}

func TestDecryptFingerprintValidation(t *testing.T) {
	e, _ := newServer(t, happyDoer())
	rec := do(e, http.MethodPost, "/decryptFingerprint", echo.MIMEApplicationJSON, `{"data":"abcd","pri_id":"short"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
