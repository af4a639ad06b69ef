package core

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"

	fhttp "github.com/bogdanfinn/fhttp"
	"sklandapi/utils"
)

// SignHeaders field order is part of the signed message.
type SignHeaders struct {
	Platform  string `json:"platform"`
	Timestamp string `json:"timestamp"`
	DID       string `json:"dId"`
	VName     string `json:"vName"`
}

type Signer struct {
	Clock utils.Clock
}

// Sign returns md5(hex(hmac_sha256(token, path+bodyOrQuery+timestamp+headers))).
func (s *Signer) Sign(token, path, bodyOrQuery, dID string) (string, SignHeaders) {
	headers := SignHeaders{
		Platform:  utils.SignPlatform,
		Timestamp: strconv.FormatInt(s.Clock.Now().Unix(), 10),
		DID:       dID,
		VName:     utils.SignVName,
	}

	// a flat struct of strings always marshals
	headerJSON, _ := marshalCompact(headers)

	mac := hmac.New(sha256.New, []byte(token))
	mac.Write([]byte(path + bodyOrQuery + headers.Timestamp + string(headerJSON)))
	return utils.Md5Hash(hex.EncodeToString(mac.Sum(nil))), headers
}

func baseHeaders(did string) fhttp.Header {
	return fhttp.Header{
		"User-Agent":       {utils.UserAgent},
		"Accept-Encoding":  {"gzip"},
		"Connection":       {"close"},
		"X-Requested-With": {utils.RequestedWith},
		"dId":              {did},
		fhttp.HeaderOrderKey: {
			"user-agent",
			"accept-encoding",
			"connection",
			"x-requested-with",
			"did",
		},
	}
}

func (c *Client) signedHeaders(cred utils.Credential, path, bodyOrQuery, did string) fhttp.Header {
	sign, sh := c.Signer.Sign(cred.Token, path, bodyOrQuery, did)

	headers := baseHeaders(did)
	headers["cred"] = []string{cred.Cred}
	headers["sign"] = []string{sign}
	headers["platform"] = []string{sh.Platform}
	headers["timestamp"] = []string{sh.Timestamp}
	headers["vName"] = []string{sh.VName}
	headers[fhttp.HeaderOrderKey] = append(headers[fhttp.HeaderOrderKey],
		"cred", "sign", "platform", "timestamp", "vname")
	return headers
}
