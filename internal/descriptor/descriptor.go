// Package descriptor decodes the binary type-descriptor stream the
// server sends for each query shape into a recursive type graph.
//
// The stream is a flat sequence of records, each carrying a 1-byte tag,
// a 16-byte type id and a tag-specific payload. Records are decoded in
// stream order into an append-only codec table; a record may reference
// earlier records by their zero-based table position (stream order is a
// topological order), and the last record is the top-level type of the
// query. All multi-byte integers are big-endian; strings are 4-byte
// length-prefixed UTF-8.
package descriptor

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/dbwire/internal/common"
)

// Structural tag bytes. Tags with the top bit set (0x80-0xff) carry
// annotations and produce no codec table entry.
const (
	tagSet        = 0x00
	tagShape      = 0x01
	tagBaseScalar = 0x02
	tagScalar     = 0x03
	tagTuple      = 0x04
	tagNamedTuple = 0x05
	tagArray      = 0x06
	tagEnum       = 0x07
	tagInputShape = 0x08
	tagRange      = 0x09
	tagAnnotation = 0x80
)

// Cardinality is the multiplicity contract of a query result or of a
// shape field. The values are the wire bytes.
type Cardinality byte

const (
	// CardinalityNoResult marks queries that return no data, such as
	// commands or multi-statement scripts.
	CardinalityNoResult Cardinality = 0x6e

	// CardinalityAtMostOne is 0 or 1.
	CardinalityAtMostOne Cardinality = 0x6f

	// CardinalityOne is exactly 1.
	CardinalityOne Cardinality = 0x41

	// CardinalityMany is >= 0.
	CardinalityMany Cardinality = 0x6d

	// CardinalityAtLeastOne is >= 1.
	CardinalityAtLeastOne Cardinality = 0x4d
)

// CardinalityFromByte validates a wire cardinality byte.
func CardinalityFromByte(b byte) (Cardinality, error) {
	switch c := Cardinality(b); c {
	case CardinalityNoResult, CardinalityAtMostOne, CardinalityOne,
		CardinalityMany, CardinalityAtLeastOne:
		return c, nil
	}
	return 0, fmt.Errorf("%w: unknown cardinality 0x%02x", common.ErrMalformedDescriptor, b)
}

// IsMulti reports whether the cardinality admits more than one value.
func (c Cardinality) IsMulti() bool {
	return c == CardinalityMany || c == CardinalityAtLeastOne
}

// Desc is a single decoded type descriptor. A descriptor's identity is
// its type id: two descriptors with equal type ids describe the same
// type. Descriptors are immutable once decoded.
type Desc interface {
	TypeID() uuid.UUID
}

// SetDesc describes a set of Subtype elements.
type SetDesc struct {
	TID     uuid.UUID
	Subtype Desc
}

// ShapeField is one field of a shape: its flag word, cardinality,
// name and element type.
type ShapeField struct {
	Flags       uint32
	Cardinality Cardinality
	Name        string
	Type        Desc
}

// ShapeDesc describes an object-like result with named, ordered fields.
type ShapeDesc struct {
	TID    uuid.UUID
	Fields []ShapeField
}

// InputShapeDesc describes an argument container. Field order is
// significant: input shapes may be addressed positionally.
type InputShapeDesc struct {
	TID    uuid.UUID
	Fields []ShapeField
}

// BaseScalarDesc describes a well-known primitive; the type id alone
// identifies it via BaseScalarNames.
type BaseScalarDesc struct {
	TID uuid.UUID
}

// ScalarDesc describes a user-defined scalar aliasing Subtype.
type ScalarDesc struct {
	TID     uuid.UUID
	Subtype Desc
}

// TupleDesc describes an unnamed tuple with positional fields.
type TupleDesc struct {
	TID    uuid.UUID
	Fields []Desc
}

// NamedTupleField is one element of a named tuple.
type NamedTupleField struct {
	Name string
	Type Desc
}

// NamedTupleDesc describes a tuple with named fields.
type NamedTupleDesc struct {
	TID    uuid.UUID
	Fields []NamedTupleField
}

// EnumDesc describes an enumeration of string members.
type EnumDesc struct {
	TID   uuid.UUID
	Names []string
}

// ArrayDesc describes a single-dimension array. DimLen is the declared
// dimension length, -1 meaning unbounded.
type ArrayDesc struct {
	TID     uuid.UUID
	Subtype Desc
	DimLen  int32
}

// RangeDesc describes a range over Inner.
type RangeDesc struct {
	TID   uuid.UUID
	Inner Desc
}

func (d *SetDesc) TypeID() uuid.UUID        { return d.TID }
func (d *ShapeDesc) TypeID() uuid.UUID      { return d.TID }
func (d *InputShapeDesc) TypeID() uuid.UUID { return d.TID }
func (d *BaseScalarDesc) TypeID() uuid.UUID { return d.TID }
func (d *ScalarDesc) TypeID() uuid.UUID     { return d.TID }
func (d *TupleDesc) TypeID() uuid.UUID      { return d.TID }
func (d *NamedTupleDesc) TypeID() uuid.UUID { return d.TID }
func (d *EnumDesc) TypeID() uuid.UUID       { return d.TID }
func (d *ArrayDesc) TypeID() uuid.UUID      { return d.TID }
func (d *RangeDesc) TypeID() uuid.UUID      { return d.TID }

// BaseScalarNames maps the well-known scalar type ids to the primitive
// type names used in generated schemas.
var BaseScalarNames = map[uuid.UUID]string{
	uuid.MustParse("00000000-0000-0000-0000-000000000100"): "std::uuid",
	uuid.MustParse("00000000-0000-0000-0000-000000000101"): "string", // std::str
	uuid.MustParse("00000000-0000-0000-0000-000000000102"): "std::bytes",
	uuid.MustParse("00000000-0000-0000-0000-000000000103"): "integer", // std::int16
	uuid.MustParse("00000000-0000-0000-0000-000000000104"): "integer", // std::int32
	uuid.MustParse("00000000-0000-0000-0000-000000000105"): "integer", // std::int64
	uuid.MustParse("00000000-0000-0000-0000-000000000106"): "number",  // std::float32
	uuid.MustParse("00000000-0000-0000-0000-000000000107"): "number",  // std::float64
	uuid.MustParse("00000000-0000-0000-0000-000000000108"): "std::decimal",
	uuid.MustParse("00000000-0000-0000-0000-000000000109"): "boolean", // std::bool
	uuid.MustParse("00000000-0000-0000-0000-00000000010a"): "std::datetime",
	uuid.MustParse("00000000-0000-0000-0000-00000000010b"): "cal::local_datetime",
	uuid.MustParse("00000000-0000-0000-0000-00000000010c"): "cal::local_date",
	uuid.MustParse("00000000-0000-0000-0000-00000000010d"): "cal::local_time",
	uuid.MustParse("00000000-0000-0000-0000-00000000010e"): "std::duration",
	uuid.MustParse("00000000-0000-0000-0000-00000000010f"): "string", // std::json
	uuid.MustParse("00000000-0000-0000-0000-000000000110"): "integer", // std::bigint
	uuid.MustParse("00000000-0000-0000-0000-000000000111"): "cal::relative_duration",
	uuid.MustParse("00000000-0000-0000-0000-000000000112"): "cal::date_duration",
	uuid.MustParse("00000000-0000-0000-0000-000000000130"): "cfg::memory",
}
