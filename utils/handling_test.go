package utils

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDESKnownVector(t *testing.T) {
	key, _ := hex.DecodeString("133457799BBCDFF1")
	plain, _ := hex.DecodeString("0123456789ABCDEF")

	out, err := DESEncryptECB(key, plain)
	require.NoError(t, err)

	// an aligned input still gets a full block of zeros
	require.Len(t, out, 16)
	assert.Equal(t, "85e813540f0ab405", hex.EncodeToString(out[:8]))
}

func TestDESKeyIsTruncatedAndPadded(t *testing.T) {
	long, err := DESEncryptECB([]byte("abcdefghXYZ"), []byte("value"))
	require.NoError(t, err)
	exact, err := DESEncryptECB([]byte("abcdefgh"), []byte("value"))
	require.NoError(t, err)
	assert.Equal(t, exact, long)

	short, err := DESEncryptECB([]byte("abc"), []byte("value"))
	require.NoError(t, err)
	padded, err := DESEncryptECB([]byte("abc\x00\x00\x00\x00\x00"), []byte("value"))
	require.NoError(t, err)
	assert.Equal(t, padded, short)
}

func TestDESRoundTrip(t *testing.T) {
	out, err := DESEncryptECB([]byte("k92crp1t"), []byte("Mozilla/5.0"))
	require.NoError(t, err)
	assert.Len(t, out, 16)

	plain, err := DESDecryptECB([]byte("k92crp1t"), out)
	require.NoError(t, err)
	assert.Equal(t, "Mozilla/5.0", string(plain))
}

func TestNullPadding(t *testing.T) {
	assert.Len(t, NullPadding([]byte("abc"), 8), 8)
	assert.Len(t, NullPadding(make([]byte, 8), 8), 16)
	assert.Len(t, NullPadding(nil, 8), 8)
	assert.True(t, bytes.HasSuffix(NullPadding([]byte("abc"), 8), []byte{0, 0, 0, 0, 0}))
}

func TestEnvelopeRoundTrip(t *testing.T) {
	priID := Md5Hash("session")[:16]
	payload, err := Gzip([]byte(`{"jf":"","protocol":102}`), 2)
	require.NoError(t, err)

	data, err := EncryptEnvelope(payload, priID)
	require.NoError(t, err)
	raw, err := hex.DecodeString(data)
	require.NoError(t, err)
	assert.Zero(t, len(raw)%16)

	back, err := DecryptEnvelope(data, priID)
	require.NoError(t, err)
	plain, err := Gunzip(back)
	require.NoError(t, err)
	assert.Equal(t, `{"jf":"","protocol":102}`, string(plain))
}

func TestEnvelopeAlignedInputGetsPKCS7Block(t *testing.T) {
	// 12 bytes encode to 16 base64 chars, then PKCS#7 adds a whole block
	data, err := EncryptEnvelope(make([]byte, 12), "0123456789abcdef")
	require.NoError(t, err)
	assert.Len(t, data, 64)
}

func TestRSAEncrypt(t *testing.T) {
	ep, err := RSAEncrypt("9b2f6c1e-3d4a-4b5c-8d6e-7f8091a2b3c4")
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(ep)
	require.NoError(t, err)
	assert.Len(t, raw, 128)

	other, err := RSAEncrypt("9b2f6c1e-3d4a-4b5c-8d6e-7f8091a2b3c4")
	require.NoError(t, err)
	assert.NotEqual(t, ep, other)
}

func TestMd5Hash(t *testing.T) {
	assert.Equal(t, "d41d8cd98f00b204e9800998ecf8427e", Md5Hash(""))
	assert.Equal(t, "900150983cd24fb0d6963f7d28e17f72", Md5Hash("abc"))
}

func TestStripHTML(t *testing.T) {
	assert.Equal(t, "502 Bad Gateway nginx", StripHTML("<html><body><h1>502 Bad Gateway</h1>\n<hr><center>nginx</center></body></html>"))
	assert.Equal(t, "plain", StripHTML("plain"))
}
