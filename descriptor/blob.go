package descriptor

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/Lint111/VBVS--VIXEN-sub013/driver"
)

// blobVersion tags the CacheBlob wire format. Entries written by a
// different version are discarded silently on decode.
const blobVersion uint32 = 1

// CacheBlob is one persistable cache entry: an opaque payload keyed by
// its SHA-256 content hash, with a format version tag. Persistence
// itself (where blobs are stored between runs) is the caller's
// concern; this package only seals and validates entries, and nothing
// here is required for correctness of an in-memory cache.
type CacheBlob struct {
	Hash    [32]byte
	Version uint32
	Payload []byte
}

// NewCacheBlob seals payload under its content hash and the current
// format version.
func NewCacheBlob(payload []byte) CacheBlob {
	return CacheBlob{
		Hash:    sha256.Sum256(payload),
		Version: blobVersion,
		Payload: payload,
	}
}

// Valid reports whether the blob's version matches the current format
// and its payload still hashes to Hash. Entries failing either check
// are to be discarded, not surfaced as errors.
func (b CacheBlob) Valid() bool {
	if b.Version != blobVersion {
		return false
	}
	return sha256.Sum256(b.Payload) == b.Hash
}

// bindingWireSize is the encoded size of one Binding: four little-
// endian int32 fields (Nr, Type, Stages, Len).
const bindingWireSize = 16

// EncodeLayout serializes a canonical Layout into a sealed CacheBlob.
func EncodeLayout(l Layout) CacheBlob {
	payload := make([]byte, len(l.Bindings)*bindingWireSize)
	for i, d := range l.Bindings {
		off := i * bindingWireSize
		binary.LittleEndian.PutUint32(payload[off+0:], uint32(int32(d.Nr)))
		binary.LittleEndian.PutUint32(payload[off+4:], uint32(int32(d.Type)))
		binary.LittleEndian.PutUint32(payload[off+8:], uint32(int32(d.Stages)))
		binary.LittleEndian.PutUint32(payload[off+12:], uint32(int32(d.Len)))
	}
	return NewCacheBlob(payload)
}

// DecodeLayout reconstructs a Layout from a blob. It returns ok=false
// — and the caller discards the entry silently — if the blob fails
// validation or its payload is malformed.
func DecodeLayout(b CacheBlob) (Layout, bool) {
	if !b.Valid() || len(b.Payload)%bindingWireSize != 0 {
		return Layout{}, false
	}
	n := len(b.Payload) / bindingWireSize
	bindings := make([]Binding, n)
	for i := range bindings {
		off := i * bindingWireSize
		bindings[i] = Binding{
			Nr:     int(int32(binary.LittleEndian.Uint32(b.Payload[off+0:]))),
			Type:   driver.DescType(int32(binary.LittleEndian.Uint32(b.Payload[off+4:]))),
			Stages: driver.Stage(int32(binary.LittleEndian.Uint32(b.Payload[off+8:]))),
			Len:    int(int32(binary.LittleEndian.Uint32(b.Payload[off+12:]))),
		}
	}
	return canonicalize(bindings), true
}
