package cardano

import (
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/fxamacker/cbor/v2"

	"github.com/layer-3/karat/core"
)

// Datum encoding follows the on-chain script's schema: a tagged product
// type (constructor + ordered field list) serialized as deterministic CBOR.
// Constructors 0-6 map to tags 121-127, constructors 7-127 to tags
// 1280-1400, anything above to the general constructor tag 102.

const (
	// MaxFieldBytes bounds every byte-string field of a datum. The chain
	// enforces the same bound on asset names; oversize fields are rejected
	// at encode time, never truncated.
	MaxFieldBytes = 64

	// maxDatumDepth bounds constructor/list nesting.
	maxDatumDepth = 16

	tagConstrBase     = 121
	tagConstrExtBase  = 1280
	tagConstrGeneral  = 102
	maxCompactConstr  = 7
	maxExtendedConstr = 128
)

// PlutusData is one node of a datum tree.
type PlutusData interface {
	plutusData()
}

// Constr is a tagged product: constructor index plus ordered fields.
type Constr struct {
	Tag    uint64
	Fields []PlutusData
}

// Bytes is a bounded byte-string field.
type Bytes []byte

// Int is an integer field.
type Int int64

// List is a homogeneous-or-not ordered collection.
type List []PlutusData

func (Constr) plutusData() {}
func (Bytes) plutusData()  {}
func (Int) plutusData()    {}
func (List) plutusData()   {}

var datumEncMode cbor.EncMode

func init() {
	var err error
	datumEncMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
}

// EncodeDatum serializes a datum to its canonical byte form. The encoding
// is deterministic: equal datums always produce identical bytes.
func EncodeDatum(d PlutusData) ([]byte, error) {
	v, err := toCBOR(d, 0)
	if err != nil {
		return nil, err
	}
	raw, err := datumEncMode.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal datum: %w", core.ErrDatumInvalid)
	}
	return raw, nil
}

// DecodeDatum parses canonical datum bytes back into a PlutusData tree.
// DecodeDatum(EncodeDatum(d)) == d for every datum EncodeDatum accepts.
func DecodeDatum(raw []byte) (PlutusData, error) {
	var v interface{}
	if err := cbor.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("unmarshal datum: %w", core.ErrDatumInvalid)
	}
	return fromCBOR(v, 0)
}

func toCBOR(d PlutusData, depth int) (interface{}, error) {
	if depth > maxDatumDepth {
		return nil, fmt.Errorf("datum nesting exceeds %d: %w", maxDatumDepth, core.ErrDatumInvalid)
	}

	switch d := d.(type) {
	case Bytes:
		if len(d) > MaxFieldBytes {
			return nil, fmt.Errorf("byte field is %d bytes, limit %d: %w", len(d), MaxFieldBytes, core.ErrDatumInvalid)
		}
		return []byte(d), nil

	case Int:
		return int64(d), nil

	case List:
		items := make([]interface{}, len(d))
		for i, item := range d {
			v, err := toCBOR(item, depth+1)
			if err != nil {
				return nil, err
			}
			items[i] = v
		}
		return items, nil

	case Constr:
		fields := make([]interface{}, len(d.Fields))
		for i, f := range d.Fields {
			v, err := toCBOR(f, depth+1)
			if err != nil {
				return nil, err
			}
			fields[i] = v
		}
		switch {
		case d.Tag < maxCompactConstr:
			return cbor.Tag{Number: tagConstrBase + d.Tag, Content: fields}, nil
		case d.Tag < maxExtendedConstr:
			return cbor.Tag{Number: tagConstrExtBase + d.Tag - maxCompactConstr, Content: fields}, nil
		default:
			return cbor.Tag{Number: tagConstrGeneral, Content: []interface{}{d.Tag, fields}}, nil
		}

	default:
		return nil, fmt.Errorf("unsupported datum node %T: %w", d, core.ErrDatumInvalid)
	}
}

func fromCBOR(v interface{}, depth int) (PlutusData, error) {
	if depth > maxDatumDepth {
		return nil, fmt.Errorf("datum nesting exceeds %d: %w", maxDatumDepth, core.ErrDatumInvalid)
	}

	switch v := v.(type) {
	case []byte:
		if len(v) > MaxFieldBytes {
			return nil, fmt.Errorf("byte field is %d bytes, limit %d: %w", len(v), MaxFieldBytes, core.ErrDatumInvalid)
		}
		return Bytes(v), nil

	case uint64:
		if v > math.MaxInt64 {
			return nil, fmt.Errorf("integer %d out of range: %w", v, core.ErrDatumInvalid)
		}
		return Int(v), nil

	case int64:
		return Int(v), nil

	case []interface{}:
		items := make(List, len(v))
		for i, item := range v {
			d, err := fromCBOR(item, depth+1)
			if err != nil {
				return nil, err
			}
			items[i] = d
		}
		return items, nil

	case cbor.Tag:
		var tag uint64
		content := v.Content
		switch {
		case v.Number >= tagConstrBase && v.Number < tagConstrBase+maxCompactConstr:
			tag = v.Number - tagConstrBase
		case v.Number >= tagConstrExtBase && v.Number < tagConstrExtBase+maxExtendedConstr-maxCompactConstr:
			tag = v.Number - tagConstrExtBase + maxCompactConstr
		case v.Number == tagConstrGeneral:
			pair, ok := v.Content.([]interface{})
			if !ok || len(pair) != 2 {
				return nil, fmt.Errorf("malformed general constructor: %w", core.ErrDatumInvalid)
			}
			n, ok := pair[0].(uint64)
			if !ok {
				return nil, fmt.Errorf("malformed general constructor tag: %w", core.ErrDatumInvalid)
			}
			tag = n
			content = pair[1]
		default:
			return nil, fmt.Errorf("unexpected datum tag %d: %w", v.Number, core.ErrDatumInvalid)
		}

		rawFields, ok := content.([]interface{})
		if !ok {
			return nil, fmt.Errorf("constructor fields must be an array: %w", core.ErrDatumInvalid)
		}
		fields := make([]PlutusData, len(rawFields))
		for i, f := range rawFields {
			d, err := fromCBOR(f, depth+1)
			if err != nil {
				return nil, err
			}
			fields[i] = d
		}
		return Constr{Tag: tag, Fields: fields}, nil

	default:
		return nil, fmt.Errorf("unsupported datum value %T: %w", v, core.ErrDatumInvalid)
	}
}

// MetadataDatum builds the certificate datum attached to a minted asset:
// constructor 0 over (asset name, display name, image, description, creator
// key hash), in that order. Text fields must be UTF-8 and within the field
// size bound.
func MetadataDatum(assetName string, meta core.AssetMetadata, creatorKeyHash []byte) (PlutusData, error) {
	if assetName == "" {
		return nil, fmt.Errorf("empty asset name: %w", core.ErrDatumInvalid)
	}
	for _, f := range []struct {
		name  string
		value string
	}{
		{"asset name", assetName},
		{"name", meta.Name},
		{"image", meta.Image},
		{"description", meta.Description},
	} {
		if !utf8.ValidString(f.value) {
			return nil, fmt.Errorf("%s is not valid UTF-8: %w", f.name, core.ErrDatumInvalid)
		}
		if len(f.value) > MaxFieldBytes {
			return nil, fmt.Errorf("%s is %d bytes, limit %d: %w", f.name, len(f.value), MaxFieldBytes, core.ErrDatumInvalid)
		}
	}
	if len(creatorKeyHash) != KeyHashSize {
		return nil, fmt.Errorf("creator key hash must be %d bytes: %w", KeyHashSize, core.ErrDatumInvalid)
	}

	return Constr{Tag: 0, Fields: []PlutusData{
		Bytes(assetName),
		Bytes(meta.Name),
		Bytes(meta.Image),
		Bytes(meta.Description),
		Bytes(creatorKeyHash),
	}}, nil
}
