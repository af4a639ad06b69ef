package core

import (
	"context"
	"fmt"
	"net/url"

	fhttp "github.com/bogdanfinn/fhttp"
	log "github.com/sirupsen/logrus"
	"sklandapi/utils"
)

const (
	unknownError    = "Unknown error"
	notLoggedInText = "用户未登录"
)

type grantRequest struct {
	AppCode string `json:"appCode"`
	Token   string `json:"token"`
	Type    int    `json:"type"`
}

type credentialRequest struct {
	Code string `json:"code"`
	Kind int    `json:"kind"`
}

func jsonHeaders(did string) fhttp.Header {
	headers := baseHeaders(did)
	headers["Content-Type"] = []string{"application/json"}
	headers[fhttp.HeaderOrderKey] = append(headers[fhttp.HeaderOrderKey], "content-type")
	return headers
}

// GetAuthorization exchanges a raw user token for a one-time grant code.
func (c *Client) GetAuthorization(ctx context.Context, userToken string) (string, error) {
	did, err := c.DeviceID(ctx)
	if err != nil {
		return "", err
	}

	body, err := marshalCompact(grantRequest{AppCode: utils.GrantAppCode, Token: userToken, Type: 0})
	if err != nil {
		return "", err
	}

	var resp utils.GrantResponse
	if err := c.request(ctx, fhttp.MethodPost, utils.GrantURL, jsonHeaders(did), body, &resp); err != nil {
		return "", err
	}

	if resp.Status == nil || *resp.Status != 0 {
		return "", &ProtocolError{Step: StepAuthorization, Code: intOr(resp.Status, -1), Message: utils.StringOr(resp.Message, unknownError)}
	}
	if resp.Data == nil || resp.Data.Code == "" {
		return "", &ProtocolError{Step: StepAuthorization, Message: "missing data.code"}
	}
	return resp.Data.Code, nil
}

// GetCredential exchanges a grant code for the signing token and cred.
func (c *Client) GetCredential(ctx context.Context, code string) (utils.Credential, error) {
	did, err := c.DeviceID(ctx)
	if err != nil {
		return utils.Credential{}, err
	}

	body, err := marshalCompact(credentialRequest{Code: code, Kind: 1})
	if err != nil {
		return utils.Credential{}, err
	}

	var resp utils.CredentialResponse
	if err := c.request(ctx, fhttp.MethodPost, utils.CredentialURL, jsonHeaders(did), body, &resp); err != nil {
		return utils.Credential{}, err
	}

	if resp.Code == nil || *resp.Code != 0 {
		return utils.Credential{}, &ProtocolError{Step: StepCredential, Code: intOr(resp.Code, -1), Message: utils.StringOr(resp.Message, unknownError)}
	}
	if resp.Data == nil || resp.Data.Token == "" || resp.Data.Cred == "" {
		return utils.Credential{}, &ProtocolError{Step: StepCredential, Message: "missing data.token or data.cred"}
	}
	return utils.Credential{Token: resp.Data.Token, Cred: resp.Data.Cred}, nil
}

// GetBindings lists the supported game bindings of the account. Bindings of
// other games are dropped; an empty list is not an error.
func (c *Client) GetBindings(ctx context.Context, cred utils.Credential) ([]utils.UserBinding, error) {
	did, err := c.DeviceID(ctx)
	if err != nil {
		return nil, err
	}

	u, err := url.Parse(utils.BindingURL)
	if err != nil {
		return nil, err
	}
	headers := c.signedHeaders(cred, u.Path, u.RawQuery, did)

	var resp utils.BindingResponse
	if err := c.request(ctx, fhttp.MethodGet, utils.BindingURL, headers, nil, &resp); err != nil {
		return nil, err
	}

	if resp.Code == nil || *resp.Code != 0 {
		msg := utils.StringOr(resp.Message, unknownError)
		if msg == notLoggedInText {
			return nil, ErrSessionExpired
		}
		return nil, &ProtocolError{Step: StepBinding, Code: intOr(resp.Code, -1), Message: msg}
	}

	bindings := make([]utils.UserBinding, 0)
	if resp.Data == nil {
		return bindings, nil
	}

	for _, app := range resp.Data.List {
		if app.AppCode != utils.AppArknights && app.AppCode != utils.AppEndfield {
			log.Debugf("skipping bindings for unsupported app %q", app.AppCode)
			continue
		}
		for _, entry := range app.BindingList {
			bindings = append(bindings, entry.ToUserBinding(app.AppCode))
		}
	}
	return bindings, nil
}

func intOr(v *int, fallback int) int {
	if v == nil {
		return fallback
	}
	return *v
}

func pathOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		panic(fmt.Sprintf("invalid endpoint %q: %v", rawURL, err))
	}
	return u.Path
}
