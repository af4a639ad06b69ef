package utils

// Endpoints
const (
	DeviceProfileURL   = "https://fp-it.portal101.cn/deviceprofile/v4"
	GrantURL           = "https://as.hypergryph.com/user/oauth2/v2/grant"
	CredentialURL      = "https://zonai.skland.com/web/v1/user/auth/generate_cred_by_code"
	BindingURL         = "https://zonai.skland.com/api/v1/game/player/binding"
	AttendanceURL      = "https://zonai.skland.com/api/v1/game/attendance"
	EndfieldSignURL    = "https://zonai.skland.com/web/v1/game/endfield/attendance"
	EndfieldGameOrigin = "https://game.skland.com/"
)

const (
	// Android WebView user agent of the SKLand app
	UserAgent      = "Mozilla/5.0 (Linux; Android 12; SM-A5560 Build/V417IR; wv) AppleWebKit/537.36 (KHTML, like Gecko) Version/4.0 Chrome/101.0.4951.61 Safari/537.36; SKLand/1.52.1"
	RequestedWith  = "com.hypergryph.skland"
	GrantAppCode   = "4ca99fa6b56cc2ba"
	Organization   = "UWXspnCCJN4sfYlNfqps"
	DeviceIDPrefix = "B"

	// Device profile envelope
	ProfileAppID    = "default"
	ProfileOS       = "web"
	ProfileCompress = 2
	ProfileEncode   = 5
	ProfileSuccess  = 1100

	SignPlatform = "3"
	SignVName    = "1.0.0"

	EnvelopeIV = "0102030405060708"

	RSAPublicKey = "MIGfMA0GCSqGSIb3DQEBAQUAA4GNADCBiQKBgQCmxMNr7n8ZeT0tE1R9j/mPixoinPkeM+k4VGIn/s0k7N5rJAfnZ0eMER+QhwFvshzo0LNmeUkpR8uIlU/GEVr8mN28sKmwd2gpygqj0ePnBmOW4v0ZVwbSYK+izkhVFk2V/doLoMbWy6b+UnA8mkjvg0iYWRByfRsK2gdl7llqCwIDAQAB"
)

// ProtocolConstants returns a fresh copy of the fixed fields of the
// fingerprint mapping.
func ProtocolConstants() map[string]interface{} {
	return map[string]interface{}{
		"protocol":     102,
		"organization": Organization,
		"appId":        ProfileAppID,
		"os":           ProfileOS,
		"version":      "3.0.0",
		"sdkver":       "3.0.0",
		"box":          "",
		"rtype":        "all",
		"subVersion":   "1.0.0",
		"time":         0,
	}
}

// BrowserEnvironment is the simulated Edge on Windows desktop.
func BrowserEnvironment() map[string]interface{} {
	return map[string]interface{}{
		"plugins":    "MicrosoftEdgePDFPluginPortableDocumentFormatinternal-pdf-viewer1,MicrosoftEdgePDFViewermhjfbmdgcfjbbpaeojofohoefgiehjai1",
		"ua":         "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/129.0.0.0 Safari/537.36 Edg/129.0.0.0",
		"canvas":     "259ffe69",
		"timezone":   -480,
		"platform":   "Win32",
		"url":        "https://www.skland.com/",
		"referer":    "",
		"res":        "1920_1080_24_1.25",
		"clientSize": "0_0_1080_1920_1920_1080_1920_1080",
		"status":     "0011",
	}
}
