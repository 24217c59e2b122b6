package descriptor

import (
	"fmt"

	"github.com/dmitrijs2005/dbwire/internal/common"
)

// Decode decodes a complete descriptor stream and returns the top-level
// descriptor for the query, i.e. the last entry of the codec table.
func Decode(data []byte) (Desc, error) {
	table, err := DecodeTable(data)
	if err != nil {
		return nil, err
	}
	return table[len(table)-1], nil
}

// DecodeTable decodes a complete descriptor stream into the ordered
// codec table. Annotation records (tag 0x80-0xff) are consumed but not
// appended, so positions referenced by later records index only
// structural entries. The table may be cached by the caller, keyed by
// the top-level descriptor's type id.
func DecodeTable(data []byte) ([]Desc, error) {
	r := &reader{buf: data}
	var table []Desc
	for r.remaining() > 0 {
		desc, err := decodeRecord(r, table)
		if err != nil {
			return nil, err
		}
		if desc != nil {
			table = append(table, desc)
		}
	}
	if len(table) == 0 {
		return nil, fmt.Errorf("%w: empty descriptor stream", common.ErrMalformedDescriptor)
	}
	return table, nil
}

// resolve maps a wire position to an already-decoded table entry. The
// wire format only permits backward references; anything else means
// the stream is corrupt.
func resolve(table []Desc, pos uint16) (Desc, error) {
	if int(pos) >= len(table) {
		return nil, fmt.Errorf(
			"%w: reference to position %d before it is defined",
			common.ErrMalformedDescriptor, pos)
	}
	return table[pos], nil
}

func decodeRecord(r *reader, table []Desc) (Desc, error) {
	tag, err := r.uint8()
	if err != nil {
		return nil, err
	}
	tid, err := r.typeID()
	if err != nil {
		return nil, err
	}

	switch {
	case tag == tagSet:
		pos, err := r.uint16()
		if err != nil {
			return nil, err
		}
		subtype, err := resolve(table, pos)
		if err != nil {
			return nil, err
		}
		return &SetDesc{TID: tid, Subtype: subtype}, nil

	case tag == tagShape || tag == tagInputShape:
		count, err := r.uint16()
		if err != nil {
			return nil, err
		}
		fields := make([]ShapeField, 0, count)
		for i := 0; i < int(count); i++ {
			flags, err := r.uint32()
			if err != nil {
				return nil, err
			}
			cardByte, err := r.uint8()
			if err != nil {
				return nil, err
			}
			card, err := CardinalityFromByte(cardByte)
			if err != nil {
				return nil, err
			}
			name, err := r.str()
			if err != nil {
				return nil, err
			}
			pos, err := r.uint16()
			if err != nil {
				return nil, err
			}
			fieldType, err := resolve(table, pos)
			if err != nil {
				return nil, err
			}
			fields = append(fields, ShapeField{
				Flags:       flags,
				Cardinality: card,
				Name:        name,
				Type:        fieldType,
			})
		}
		if tag == tagShape {
			return &ShapeDesc{TID: tid, Fields: fields}, nil
		}
		return &InputShapeDesc{TID: tid, Fields: fields}, nil

	case tag == tagBaseScalar:
		return &BaseScalarDesc{TID: tid}, nil

	case tag == tagScalar:
		pos, err := r.uint16()
		if err != nil {
			return nil, err
		}
		subtype, err := resolve(table, pos)
		if err != nil {
			return nil, err
		}
		return &ScalarDesc{TID: tid, Subtype: subtype}, nil

	case tag == tagTuple:
		count, err := r.uint16()
		if err != nil {
			return nil, err
		}
		fields := make([]Desc, 0, count)
		for i := 0; i < int(count); i++ {
			pos, err := r.uint16()
			if err != nil {
				return nil, err
			}
			fieldType, err := resolve(table, pos)
			if err != nil {
				return nil, err
			}
			fields = append(fields, fieldType)
		}
		return &TupleDesc{TID: tid, Fields: fields}, nil

	case tag == tagNamedTuple:
		count, err := r.uint16()
		if err != nil {
			return nil, err
		}
		fields := make([]NamedTupleField, 0, count)
		for i := 0; i < int(count); i++ {
			name, err := r.str()
			if err != nil {
				return nil, err
			}
			pos, err := r.uint16()
			if err != nil {
				return nil, err
			}
			fieldType, err := resolve(table, pos)
			if err != nil {
				return nil, err
			}
			fields = append(fields, NamedTupleField{Name: name, Type: fieldType})
		}
		return &NamedTupleDesc{TID: tid, Fields: fields}, nil

	case tag == tagEnum:
		count, err := r.uint16()
		if err != nil {
			return nil, err
		}
		names := make([]string, 0, count)
		for i := 0; i < int(count); i++ {
			name, err := r.str()
			if err != nil {
				return nil, err
			}
			names = append(names, name)
		}
		return &EnumDesc{TID: tid, Names: names}, nil

	case tag == tagArray:
		pos, err := r.uint16()
		if err != nil {
			return nil, err
		}
		subtype, err := resolve(table, pos)
		if err != nil {
			return nil, err
		}
		dims, err := r.uint16()
		if err != nil {
			return nil, err
		}
		if dims != 1 {
			return nil, fmt.Errorf(
				"%w: cannot handle arrays with more than one dimension",
				common.ErrUnsupportedDescriptor)
		}
		dimLen, err := r.int32()
		if err != nil {
			return nil, err
		}
		return &ArrayDesc{TID: tid, Subtype: subtype, DimLen: dimLen}, nil

	case tag == tagRange:
		pos, err := r.uint16()
		if err != nil {
			return nil, err
		}
		inner, err := resolve(table, pos)
		if err != nil {
			return nil, err
		}
		return &RangeDesc{TID: tid, Inner: inner}, nil

	case tag >= tagAnnotation:
		// Annotations carry a single length-prefixed payload and do
		// not occupy a table position.
		if _, err := r.lenPrefixedBytes(); err != nil {
			return nil, err
		}
		return nil, nil

	default:
		return nil, fmt.Errorf(
			"%w: no codec for type descriptor tag 0x%02x",
			common.ErrUnsupportedDescriptor, tag)
	}
}
