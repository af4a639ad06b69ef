package utils

import (
	"fmt"

	"github.com/bogdanfinn/fhttp/http2"
	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"
	tls "github.com/bogdanfinn/utls"
	log "github.com/sirupsen/logrus"
)

const DefaultTimeoutSeconds = 30

// Chrome 101 WebView on Android 12, matching UserAgent.
const webViewJA3 = "771,4865-4866-4867-49195-49199-49196-49200-52393-52392-49171-49172-156-157-47-53,0-23-65281-10-11-35-16-5-13-18-51-45-43-27-17513-21,29-23-24,0"

func GetWebViewProfile() profiles.ClientProfile {
	signatureAlgorithms := []string{
		"ECDSAWithP256AndSHA256",
		"PSSWithSHA256",
		"PKCS1WithSHA256",
		"ECDSAWithP384AndSHA384",
		"PSSWithSHA384",
		"PKCS1WithSHA384",
		"PSSWithSHA512",
		"PKCS1WithSHA512",
	}
	supportedVersions := []string{"GREASE", "1.3", "1.2"}
	supportedGroups := []string{"GREASE", "X25519", "secp256r1", "secp384r1"}

	alpnProtocols := []string{"h2", "http/1.1"}
	alpsProtocols := []string{"h2"}

	specFunc, err := tls_client.GetSpecFactoryFromJa3String(
		webViewJA3, signatureAlgorithms, signatureAlgorithms, supportedVersions,
		supportedGroups, alpnProtocols, alpsProtocols, nil, nil, "brotli",
	)
	if err != nil {
		log.Warnf("failed to build webview TLS spec, falling back to Chrome 120: %v", err)
		return profiles.Chrome_120
	}

	settings := map[http2.SettingID]uint32{
		http2.SettingHeaderTableSize:      65536,
		http2.SettingMaxConcurrentStreams: 1000,
		http2.SettingInitialWindowSize:    6291456,
		http2.SettingMaxHeaderListSize:    262144,
	}
	settingsOrder := []http2.SettingID{
		http2.SettingHeaderTableSize,
		http2.SettingMaxConcurrentStreams,
		http2.SettingInitialWindowSize,
		http2.SettingMaxHeaderListSize,
	}

	pseudoHeaderOrder := []string{
		":method",
		":authority",
		":scheme",
		":path",
	}

	return profiles.NewClientProfile(
		tls.ClientHelloID{
			Client:      "SKLandWebView",
			Version:     "101",
			Seed:        nil,
			SpecFactory: specFunc,
		},
		settings,
		settingsOrder,
		pseudoHeaderOrder,
		uint32(15663105),
		nil,
		nil,
	)
}

// NewClient builds the pooled HTTP client for one run. An empty proxy means
// a direct connection.
func NewClient(proxy string, timeoutSeconds int) (tls_client.HttpClient, error) {
	if timeoutSeconds <= 0 {
		timeoutSeconds = DefaultTimeoutSeconds
	}

	jar := tls_client.NewCookieJar()
	options := []tls_client.HttpClientOption{
		tls_client.WithTimeoutSeconds(timeoutSeconds),
		tls_client.WithClientProfile(GetWebViewProfile()),
		tls_client.WithCookieJar(jar),
	}
	if proxy != "" {
		options = append(options, tls_client.WithProxyUrl(proxy))
	}

	client, err := tls_client.NewHttpClient(tls_client.NewNoopLogger(), options...)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return client, nil
}
