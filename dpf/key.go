package dpf

import (
	"github.com/fxamacker/cbor/v2"

	"dpfgo/internal/dpferr"
	"dpfgo/prg"
	"dpfgo/valuetype"
)

// CorrectionWord bundles the seed and control-bit corrections applied
// when descending one tree level, plus an optional value correction
// for the hierarchy level that reads out at this tree level.
type CorrectionWord struct {
	Seed            prg.Block         `cbor:"1,keyasint"`
	ControlLeft     bool              `cbor:"2,keyasint"`
	ControlRight    bool              `cbor:"3,keyasint"`
	ValueCorrection []valuetype.Value `cbor:"4,keyasint,omitempty"`
}

// Key is one party's half of a DPF key pair: an initial seed, the
// correction words shared between both parties' keys (every tree
// level but the deepest), and the deepest level's distinguished value
// correction.
type Key struct {
	Party                    uint8             `cbor:"1,keyasint"`
	Seed                     prg.Block         `cbor:"2,keyasint"`
	CorrectionWords          []CorrectionWord  `cbor:"3,keyasint"`
	LastLevelValueCorrection []valuetype.Value `cbor:"4,keyasint"`
}

// Serialize encodes the key as CBOR, the project's wire format for
// keys and evaluation contexts.
func (k *Key) Serialize() ([]byte, error) {
	b, err := cbor.Marshal(k)
	if err != nil {
		return nil, dpferr.Internalf("serializing dpf key: %v", err)
	}
	return b, nil
}

// DeserializeKey decodes a Key previously produced by Serialize.
func DeserializeKey(data []byte) (*Key, error) {
	var k Key
	if err := cbor.Unmarshal(data, &k); err != nil {
		return nil, dpferr.InvalidArgumentf("deserializing dpf key: %v", err)
	}
	return &k, nil
}
