package cardano

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/layer-3/karat/core"
)

func TestDatumRoundTrip(t *testing.T) {
	cases := []struct {
		name  string
		datum PlutusData
	}{
		{"empty constructor", Constr{Tag: 0}},
		{"flat fields", Constr{Tag: 1, Fields: []PlutusData{Bytes("abc"), Int(42)}}},
		{"negative int", Constr{Tag: 0, Fields: []PlutusData{Int(-7)}}},
		{"nested", Constr{Tag: 2, Fields: []PlutusData{
			Constr{Tag: 0, Fields: []PlutusData{Bytes("inner")}},
			List{Int(1), Int(2), Int(3)},
		}}},
		{"extended constructor tag", Constr{Tag: 9, Fields: []PlutusData{Bytes("x")}}},
		{"general constructor tag", Constr{Tag: 500, Fields: []PlutusData{Int(1)}}},
		{"bare list", List{Bytes("a"), Bytes("b")}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			raw, err := EncodeDatum(tc.datum)
			require.NoError(t, err)

			decoded, err := DecodeDatum(raw)
			require.NoError(t, err)
			assert.Equal(t, normalize(tc.datum), normalize(decoded))
		})
	}
}

// normalize maps nil and empty field slices onto one form; CBOR cannot
// distinguish them.
func normalize(d PlutusData) PlutusData {
	switch d := d.(type) {
	case Constr:
		fields := make([]PlutusData, len(d.Fields))
		for i, f := range d.Fields {
			fields[i] = normalize(f)
		}
		if len(fields) == 0 {
			fields = nil
		}
		return Constr{Tag: d.Tag, Fields: fields}
	case List:
		items := make(List, len(d))
		for i, f := range d {
			items[i] = normalize(f)
		}
		return items
	default:
		return d
	}
}

func TestDatumEncodingIsDeterministic(t *testing.T) {
	d := Constr{Tag: 0, Fields: []PlutusData{Bytes("asset"), Int(99), List{Bytes("x")}}}

	a, err := EncodeDatum(d)
	require.NoError(t, err)
	b, err := EncodeDatum(d)
	require.NoError(t, err)

	assert.True(t, bytes.Equal(a, b))
}

func TestEncodeDatumRejectsOversizeBytes(t *testing.T) {
	oversize := Bytes(strings.Repeat("a", MaxFieldBytes+1))

	_, err := EncodeDatum(Constr{Tag: 0, Fields: []PlutusData{oversize}})
	assert.ErrorIs(t, err, core.ErrDatumInvalid)

	// Exactly at the limit is fine.
	atLimit := Bytes(strings.Repeat("a", MaxFieldBytes))
	_, err = EncodeDatum(Constr{Tag: 0, Fields: []PlutusData{atLimit}})
	assert.NoError(t, err)
}

func TestEncodeDatumRejectsRunawayNesting(t *testing.T) {
	d := PlutusData(Int(1))
	for i := 0; i < maxDatumDepth+2; i++ {
		d = Constr{Tag: 0, Fields: []PlutusData{d}}
	}

	_, err := EncodeDatum(d)
	assert.ErrorIs(t, err, core.ErrDatumInvalid)
}

func TestDecodeDatumRejectsOutOfRangeInteger(t *testing.T) {
	// 18446744073709551615 does not fit an int64; converting would wrap
	// negative.
	raw := []byte{0x1b, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}

	_, err := DecodeDatum(raw)
	assert.ErrorIs(t, err, core.ErrDatumInvalid)
}

func TestDecodeDatumRejectsGarbage(t *testing.T) {
	_, err := DecodeDatum([]byte{0xff, 0x00, 0x01})
	assert.ErrorIs(t, err, core.ErrDatumInvalid)
}

func TestMetadataDatum(t *testing.T) {
	pub, _ := testKeyPair(t)
	keyHash := KeyHash(pub)

	meta := core.AssetMetadata{Name: "Cert #1", Image: "ipfs://abc", Description: "completion cert"}
	d, err := MetadataDatum("cert-001", meta, keyHash)
	require.NoError(t, err)

	constr, ok := d.(Constr)
	require.True(t, ok)
	assert.Equal(t, uint64(0), constr.Tag)
	require.Len(t, constr.Fields, 5)
	assert.Equal(t, Bytes("cert-001"), constr.Fields[0])
	assert.Equal(t, Bytes("Cert #1"), constr.Fields[1])
	assert.Equal(t, Bytes(keyHash), constr.Fields[4])

	raw, err := EncodeDatum(d)
	require.NoError(t, err)
	decoded, err := DecodeDatum(raw)
	require.NoError(t, err)
	assert.Equal(t, normalize(d), normalize(decoded))
}

func TestMetadataDatumValidation(t *testing.T) {
	pub, _ := testKeyPair(t)
	keyHash := KeyHash(pub)
	good := core.AssetMetadata{Name: "n"}

	_, err := MetadataDatum("", good, keyHash)
	assert.ErrorIs(t, err, core.ErrDatumInvalid)

	_, err = MetadataDatum("a", core.AssetMetadata{Name: strings.Repeat("x", MaxFieldBytes+1)}, keyHash)
	assert.ErrorIs(t, err, core.ErrDatumInvalid)

	_, err = MetadataDatum("a", core.AssetMetadata{Name: string([]byte{0xff, 0xfe})}, keyHash)
	assert.ErrorIs(t, err, core.ErrDatumInvalid)

	_, err = MetadataDatum("a", good, keyHash[:10])
	assert.ErrorIs(t, err, core.ErrDatumInvalid)
}
