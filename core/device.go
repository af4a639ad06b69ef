package core

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	fhttp "github.com/bogdanfinn/fhttp"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cast"
	"sklandapi/utils"
)

const smidTimeLayout = "20060102150405"

// FingerprintBuilder assembles the simulated browser profile that is
// registered to obtain a device id.
type FingerprintBuilder struct {
	Clock utils.Clock
	IDs   utils.IDSource
}

// Fingerprint keeps every layer of one build so it can be inspected.
type Fingerprint struct {
	SessionID  string
	PriID      string
	EP         string
	Mapping    map[string]interface{}
	Obfuscated map[string]interface{}
	Data       string
}

type deviceProfileRequest struct {
	AppID        string `json:"appId"`
	Compress     int    `json:"compress"`
	Data         string `json:"data"`
	Encode       int    `json:"encode"`
	EP           string `json:"ep"`
	Organization string `json:"organization"`
	OS           string `json:"os"`
}

func (b *FingerprintBuilder) Build() (*Fingerprint, error) {
	sessionID := b.IDs.NewID()
	sum := md5.Sum([]byte(sessionID))
	priID := hex.EncodeToString(sum[:8])

	ep, err := utils.RSAEncrypt(sessionID)
	if err != nil {
		return nil, &CryptoError{Op: "rsa encrypt", Err: err}
	}

	mapping := b.Mapping()

	obfuscated, err := ObfuscateFields(mapping)
	if err != nil {
		return nil, err
	}

	payload, err := marshalCompact(obfuscated)
	if err != nil {
		return nil, &CryptoError{Op: "marshal fingerprint", Err: err}
	}

	compressed, err := utils.Gzip(payload, 2)
	if err != nil {
		return nil, &CryptoError{Op: "gzip", Err: err}
	}

	data, err := utils.EncryptEnvelope(compressed, priID)
	if err != nil {
		return nil, &CryptoError{Op: "aes encrypt", Err: err}
	}

	return &Fingerprint{
		SessionID:  sessionID,
		PriID:      priID,
		EP:         ep,
		Mapping:    mapping,
		Obfuscated: obfuscated,
		Data:       data,
	}, nil
}

// Mapping returns the plain fingerprint with every randomized field filled
// and tn computed last.
func (b *FingerprintBuilder) Mapping() map[string]interface{} {
	now := b.Clock.Now()
	ms := now.UnixMilli()

	mapping := utils.ProtocolConstants()
	mapping["smid"] = b.Smid()
	for k, v := range utils.BrowserEnvironment() {
		mapping[k] = v
	}
	mapping["vpw"] = b.IDs.NewID()
	mapping["trees"] = b.IDs.NewID()
	mapping["svm"] = ms
	mapping["pmf"] = ms

	mapping["tn"] = utils.Md5Hash(TnInput(mapping))
	return mapping
}

// Smid is local time, an md5 of a fresh id, "00", then 7 bytes of
// md5("smsk_web_"+prefix) in hex and a trailing "0".
func (b *FingerprintBuilder) Smid() string {
	v := b.Clock.Now().Local().Format(smidTimeLayout) + utils.Md5Hash(b.IDs.NewID()) + "00"
	sum := md5.Sum([]byte("smsk_web_" + v))
	return v + hex.EncodeToString(sum[:7]) + "0"
}

// TnInput flattens a mapping in sorted key order. Integers are scaled by
// 10000, nested maps recurse and empty values contribute nothing.
func TnInput(data map[string]interface{}) string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, k := range keys {
		switch v := data[k].(type) {
		case bool:
			if v {
				sb.WriteString("10000")
			} else {
				sb.WriteString("0")
			}
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
			sb.WriteString(strconv.FormatInt(cast.ToInt64(v)*10000, 10))
		case map[string]interface{}:
			sb.WriteString(TnInput(v))
		default:
			if !isFalsy(v) {
				sb.WriteString(cast.ToString(v))
			}
		}
	}
	return sb.String()
}

func isFalsy(v interface{}) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == ""
	case float32:
		return val == 0
	case float64:
		return val == 0
	}
	return false
}

// ObfuscateFields applies the cipher table: encrypted fields become
// base64(DES-ECB(value)), plain fields are only renamed and unknown fields
// pass through untouched.
func ObfuscateFields(data map[string]interface{}) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(data))
	for field, value := range data {
		rule, ok := utils.LookupCipherRule(field)
		if !ok {
			out[field] = value
			continue
		}
		if !rule.Encrypted() {
			out[rule.ObfuscatedName] = value
			continue
		}

		encrypted, err := utils.DESEncryptECB([]byte(rule.Key), []byte(cast.ToString(value)))
		if err != nil {
			return nil, &CryptoError{Op: "des encrypt " + field, Err: err}
		}
		out[rule.ObfuscatedName] = base64.StdEncoding.EncodeToString(encrypted)
	}
	return out, nil
}

// RevealFields inverts ObfuscateFields. Decrypted values come back as strings.
func RevealFields(data map[string]interface{}) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(data))
	for wire, value := range data {
		field, rule, ok := utils.FieldForWireName(wire)
		if !ok {
			out[wire] = value
			continue
		}
		if !rule.Encrypted() {
			out[field] = value
			continue
		}

		raw, err := base64.StdEncoding.DecodeString(cast.ToString(value))
		if err != nil {
			return nil, &CryptoError{Op: "decode " + wire, Err: err}
		}
		plain, err := utils.DESDecryptECB([]byte(rule.Key), raw)
		if err != nil {
			return nil, &CryptoError{Op: "des decrypt " + wire, Err: err}
		}
		out[field] = string(plain)
	}
	return out, nil
}

// DecodeEnvelope turns a captured data field back into the plain mapping.
func DecodeEnvelope(dataHex, priID string) (map[string]interface{}, error) {
	compressed, err := utils.DecryptEnvelope(dataHex, priID)
	if err != nil {
		return nil, &CryptoError{Op: "aes decrypt", Err: err}
	}

	payload, err := utils.Gunzip(compressed)
	if err != nil {
		return nil, &CryptoError{Op: "gunzip", Err: err}
	}

	var obfuscated map[string]interface{}
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	if err := dec.Decode(&obfuscated); err != nil {
		return nil, &CryptoError{Op: "unmarshal fingerprint", Err: err}
	}
	return RevealFields(obfuscated)
}

// DeviceID returns the memoized device id, registering a fingerprint on
// first use.
func (c *Client) DeviceID(ctx context.Context) (string, error) {
	if c.did != "" {
		return c.did, nil
	}

	fp, err := c.Builder.Build()
	if err != nil {
		return "", err
	}

	body, err := marshalCompact(deviceProfileRequest{
		AppID:        utils.ProfileAppID,
		Compress:     utils.ProfileCompress,
		Data:         fp.Data,
		Encode:       utils.ProfileEncode,
		EP:           fp.EP,
		Organization: utils.Organization,
		OS:           utils.ProfileOS,
	})
	if err != nil {
		return "", &CryptoError{Op: "marshal envelope", Err: err}
	}

	headers := fhttp.Header{"Content-Type": {"application/json"}}

	var resp utils.DeviceProfileResponse
	if err := c.request(ctx, fhttp.MethodPost, utils.DeviceProfileURL, headers, body, &resp); err != nil {
		return "", err
	}

	if resp.Code == nil || *resp.Code != utils.ProfileSuccess {
		code := 0
		if resp.Code != nil {
			code = *resp.Code
		}
		return "", &ProtocolError{
			Step:    StepDeviceProfile,
			Code:    code,
			Message: utils.StringOr(resp.Message, fmt.Sprintf("unexpected code %d", code)),
		}
	}
	if resp.Detail == nil || resp.Detail.DeviceID == "" {
		return "", &ProtocolError{Step: StepDeviceProfile, Code: *resp.Code, Message: "missing detail.deviceId"}
	}

	c.did = utils.DeviceIDPrefix + resp.Detail.DeviceID
	log.Debugf("registered device %s", c.did)
	return c.did, nil
}

func marshalCompact(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
