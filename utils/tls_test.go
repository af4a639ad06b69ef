package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebViewProfileBuilds(t *testing.T) {
	profile := GetWebViewProfile()
	assert.NotEmpty(t, profile.GetClientHelloStr())
}

func TestNewClient(t *testing.T) {
	client, err := NewClient("", 0)
	require.NoError(t, err)
	require.NotNil(t, client)
	client.CloseIdleConnections()

	proxied, err := NewClient("http://127.0.0.1:8888", 5)
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:8888", proxied.GetProxy())
}
