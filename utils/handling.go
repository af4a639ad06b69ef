package utils

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/des"
	"crypto/md5"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"golang.org/x/net/html"
)

func Md5Hash(data string) string {
	hash := md5.New()
	hash.Write([]byte(data))
	return hex.EncodeToString(hash.Sum(nil))
}

func PKCS7Padding(data []byte, blockSize int) []byte {
	padding := blockSize - (len(data) % blockSize)
	padText := bytes.Repeat([]byte{byte(padding)}, padding)
	return append(data, padText...)
}

func PKCS7Unpadding(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, errors.New("invalid padded length")
	}
	padding := int(data[len(data)-1])
	if padding == 0 || padding > blockSize {
		return nil, errors.New("invalid padding")
	}
	return data[:len(data)-padding], nil
}

// NullPadding always appends between 1 and blockSize zero bytes, so an
// aligned input grows by a whole block.
func NullPadding(data []byte, blockSize int) []byte {
	padding := blockSize - (len(data) % blockSize)
	return append(data, make([]byte, padding)...)
}

func desKey(key []byte) []byte {
	k := make([]byte, des.BlockSize)
	copy(k, key)
	return k
}

// DESEncryptECB encrypts data block by block under the first 8 bytes of key.
func DESEncryptECB(key, data []byte) ([]byte, error) {
	block, err := des.NewCipher(desKey(key))
	if err != nil {
		return nil, err
	}

	padded := NullPadding(append([]byte(nil), data...), des.BlockSize)
	out := make([]byte, len(padded))
	for i := 0; i < len(padded); i += des.BlockSize {
		block.Encrypt(out[i:i+des.BlockSize], padded[i:i+des.BlockSize])
	}
	return out, nil
}

// DESDecryptECB reverses DESEncryptECB. Trailing zero bytes are stripped,
// which is lossy for plaintexts that end in NUL.
func DESDecryptECB(key, data []byte) ([]byte, error) {
	if len(data)%des.BlockSize != 0 {
		return nil, fmt.Errorf("ciphertext length %d is not a multiple of %d", len(data), des.BlockSize)
	}
	block, err := des.NewCipher(desKey(key))
	if err != nil {
		return nil, err
	}

	out := make([]byte, len(data))
	for i := 0; i < len(data); i += des.BlockSize {
		block.Decrypt(out[i:i+des.BlockSize], data[i:i+des.BlockSize])
	}
	return bytes.TrimRight(out, "\x00"), nil
}

// EncryptEnvelope base64s the payload, aligns it with zeros, applies PKCS#7
// and encrypts it with AES-128-CBC under the hex pri id. Output is hex.
func EncryptEnvelope(payload []byte, priID string) (string, error) {
	block, err := aes.NewCipher([]byte(priID))
	if err != nil {
		return "", err
	}

	encoded := []byte(base64.StdEncoding.EncodeToString(payload))
	if rem := len(encoded) % aes.BlockSize; rem != 0 {
		encoded = append(encoded, make([]byte, aes.BlockSize-rem)...)
	}
	padded := PKCS7Padding(encoded, aes.BlockSize)

	cipherText := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, []byte(EnvelopeIV)).CryptBlocks(cipherText, padded)
	return hex.EncodeToString(cipherText), nil
}

func DecryptEnvelope(dataHex, priID string) ([]byte, error) {
	cipherText, err := hex.DecodeString(dataHex)
	if err != nil {
		return nil, fmt.Errorf("invalid hex data: %w", err)
	}
	if len(cipherText) == 0 || len(cipherText)%aes.BlockSize != 0 {
		return nil, errors.New("ciphertext is not a multiple of the block size")
	}

	block, err := aes.NewCipher([]byte(priID))
	if err != nil {
		return nil, err
	}

	plain := make([]byte, len(cipherText))
	cipher.NewCBCDecrypter(block, []byte(EnvelopeIV)).CryptBlocks(plain, cipherText)

	plain, err = PKCS7Unpadding(plain, aes.BlockSize)
	if err != nil {
		return nil, err
	}
	return base64.StdEncoding.DecodeString(string(bytes.TrimRight(plain, "\x00")))
}

func Gzip(data []byte, level int) ([]byte, error) {
	var buf bytes.Buffer
	w, err := gzip.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func Gunzip(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

// RSAEncrypt encrypts with the fixed device-profile public key (PKCS#1 v1.5)
// and returns base64.
func RSAEncrypt(plain string) (string, error) {
	der, err := base64.StdEncoding.DecodeString(RSAPublicKey)
	if err != nil {
		return "", fmt.Errorf("failed to decode public key: %w", err)
	}

	pub, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return "", fmt.Errorf("failed to parse public key: %w", err)
	}
	rsaKey, ok := pub.(*rsa.PublicKey)
	if !ok {
		return "", errors.New("public key is not RSA")
	}

	out, err := rsa.EncryptPKCS1v15(rand.Reader, rsaKey, []byte(plain))
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(out), nil
}

func StripHTML(input string) string {
	var output bytes.Buffer
	tokenizer := html.NewTokenizer(strings.NewReader(input))

	for {
		tt := tokenizer.Next()
		switch tt {
		case html.ErrorToken:
			return strings.Join(strings.Fields(output.String()), " ")
		case html.TextToken:
			output.Write(tokenizer.Text())
			output.WriteByte(' ')
		}
	}
}
