package repositories

import (
	"encoding/binary"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ID is a normalized record key. Identifiers that decode as an ObjectID are
// stored natively; anything else is kept as a plain string key, which is how
// records imported from older stores are addressed. The two forms never
// collide.
type ID struct {
	oid    primitive.ObjectID
	raw    string
	native bool
}

// NormalizeID converts a caller-supplied identifier into a store key. It
// never fails: identifiers that are not ObjectIDs pass through unchanged.
func NormalizeID(s string) ID {
	if oid, err := primitive.ObjectIDFromHex(s); err == nil {
		return ID{oid: oid, native: true}
	}
	return ID{raw: s}
}

// NewID returns a fresh native identifier.
func NewID() ID {
	return ID{oid: primitive.NewObjectID(), native: true}
}

// IsNative reports whether the identifier decoded as an ObjectID.
func (id ID) IsNative() bool {
	return id.native
}

// String returns the canonical external form of the identifier.
func (id ID) String() string {
	if id.native {
		return id.oid.Hex()
	}
	return id.raw
}

// Equal reports whether two caller-supplied identifiers address the same record.
func Equal(a, b string) bool {
	return NormalizeID(a) == NormalizeID(b)
}

// encode returns a self-delimiting binary form: 'o' followed by the 12
// ObjectID bytes, or 's' followed by a uvarint length and the raw string.
func (id ID) encode() []byte {
	if id.native {
		buf := make([]byte, 0, 1+len(id.oid))
		buf = append(buf, 'o')
		return append(buf, id.oid[:]...)
	}
	buf := make([]byte, 0, 1+binary.MaxVarintLen64+len(id.raw))
	buf = append(buf, 's')
	buf = binary.AppendUvarint(buf, uint64(len(id.raw)))
	return append(buf, id.raw...)
}

func (id ID) key(prefix string) []byte {
	return append([]byte(prefix), id.encode()...)
}

func decodeID(b []byte) (ID, bool) {
	if len(b) == 0 {
		return ID{}, false
	}
	switch b[0] {
	case 'o':
		if len(b) != 13 {
			return ID{}, false
		}
		var oid primitive.ObjectID
		copy(oid[:], b[1:])
		return ID{oid: oid, native: true}, true
	case 's':
		n, size := binary.Uvarint(b[1:])
		if size <= 0 || uint64(len(b)-1-size) != n {
			return ID{}, false
		}
		return ID{raw: string(b[1+size:])}, true
	}
	return ID{}, false
}
