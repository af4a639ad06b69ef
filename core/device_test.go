package core

import (
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"sklandapi/utils"
)

func testBuilder() *FingerprintBuilder {
	return &FingerprintBuilder{
		Clock: utils.NewFixedClock(fixedNow),
		IDs: &utils.SequenceSource{IDs: []string{
			"9b2f6c1e-3d4a-4b5c-8d6e-7f8091a2b3c4",
			"0d1e2f3a-4b5c-4d6e-9f80-91a2b3c4d5e6",
			"11111111-2222-4333-8444-555555555555",
			"66666666-7777-4888-9999-aaaaaaaaaaaa",
		}},
	}
}

func TestTnInputFlattening(t *testing.T) {
	data := map[string]interface{}{
		"b": 2,
		"a": "x",
		"c": map[string]interface{}{"z": 0, "y": ""},
	}
	assert.Equal(t, "x200000", TnInput(data))
}

func TestTnInputValueKinds(t *testing.T) {
	data := map[string]interface{}{
		"a": int64(-480),
		"b": true,
		"c": nil,
		"d": 1.25,
		"e": "",
		"f": 0.0,
	}
	assert.Equal(t, "-4800000100001.25", TnInput(data))
}

func TestTnIsOrderInvariant(t *testing.T) {
	first := map[string]interface{}{}
	first["os"] = "web"
	first["protocol"] = 102
	first["nested"] = map[string]interface{}{"k": "v", "n": 3}

	second := map[string]interface{}{
		"nested":   map[string]interface{}{"n": 3, "k": "v"},
		"protocol": 102,
		"os":       "web",
	}

	assert.Equal(t, utils.Md5Hash(TnInput(first)), utils.Md5Hash(TnInput(second)))
	assert.Equal(t, utils.Md5Hash(TnInput(first)), utils.Md5Hash(TnInput(first)))
}

func TestSmidShape(t *testing.T) {
	b := testBuilder()
	smid := b.Smid()

	require.Len(t, smid, 63)
	assert.Equal(t, fixedNow.Local().Format(smidTimeLayout), smid[:14])
	assert.Equal(t, utils.Md5Hash("9b2f6c1e-3d4a-4b5c-8d6e-7f8091a2b3c4"), smid[14:46])
	assert.Equal(t, "00", smid[46:48])
	assert.Equal(t, utils.Md5Hash("smsk_web_" + smid[:48])[:14], smid[48:62])
	assert.Equal(t, "0", smid[62:])
}

func TestMappingComputesTnLast(t *testing.T) {
	m := testBuilder().Mapping()

	tn := m["tn"]
	delete(m, "tn")
	assert.Equal(t, utils.Md5Hash(TnInput(m)), tn)
	assert.Equal(t, fixedNow.UnixMilli(), m["svm"])
	assert.Equal(t, fixedNow.UnixMilli(), m["pmf"])
	assert.Equal(t, -480, m["timezone"])
	assert.Equal(t, 102, m["protocol"])
	assert.Contains(t, m, "smid")
}

func TestObfuscateFields(t *testing.T) {
	out, err := ObfuscateFields(map[string]interface{}{
		"box":      "",
		"protocol": 102,
		"os":       "web",
		"smid":     "raw-smid",
	})
	require.NoError(t, err)

	assert.Equal(t, "", out["jf"])
	assert.Equal(t, 102, out["protocol"])
	assert.Equal(t, "raw-smid", out["smid"])
	assert.NotContains(t, out, "os")

	raw, err := base64.StdEncoding.DecodeString(out["pj"].(string))
	require.NoError(t, err)
	assert.Len(t, raw, 8)

	plain, err := utils.DESDecryptECB([]byte("je6vk6t4"), raw)
	require.NoError(t, err)
	assert.Equal(t, "web", string(plain))
}

func TestBuildEnvelopeDecodesBack(t *testing.T) {
	fp, err := testBuilder().Build()
	require.NoError(t, err)

	assert.Equal(t, utils.Md5Hash("9b2f6c1e-3d4a-4b5c-8d6e-7f8091a2b3c4")[:16], fp.PriID)
	ep, err := base64.StdEncoding.DecodeString(fp.EP)
	require.NoError(t, err)
	assert.Len(t, ep, 128)

	revealed, err := DecodeEnvelope(fp.Data, fp.PriID)
	require.NoError(t, err)

	assert.Equal(t, fp.Mapping["tn"], revealed["tn"])
	assert.Equal(t, fp.Mapping["ua"], revealed["ua"])
	assert.Equal(t, fp.Mapping["smid"], revealed["smid"])
	assert.Equal(t, "-480", revealed["timezone"])
	assert.Equal(t, json.Number("102"), revealed["protocol"])
	assert.Equal(t, "3.0.0", revealed["version"])
	assert.Equal(t, "", revealed["referer"])
}

func TestDecodeEnvelopeWrongKey(t *testing.T) {
	fp, err := testBuilder().Build()
	require.NoError(t, err)

	_, err = DecodeEnvelope(fp.Data, "0000000000000000")
	var cerr *CryptoError
	assert.ErrorAs(t, err, &cerr)
}
