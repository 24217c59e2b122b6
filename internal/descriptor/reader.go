package descriptor

import (
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/dbwire/internal/common"
)

// reader is a cursor over a descriptor buffer. All reads are bounds
// checked; running past the end is a malformed-descriptor condition.
type reader struct {
	buf []byte
	pos int
}

func (r *reader) remaining() int {
	return len(r.buf) - r.pos
}

func (r *reader) take(n int) ([]byte, error) {
	if n < 0 || r.remaining() < n {
		return nil, fmt.Errorf("%w: unexpected end of stream at offset %d", common.ErrMalformedDescriptor, r.pos)
	}
	p := r.buf[r.pos : r.pos+n]
	r.pos += n
	return p, nil
}

func (r *reader) uint8() (byte, error) {
	p, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return p[0], nil
}

func (r *reader) uint16() (uint16, error) {
	p, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(p), nil
}

func (r *reader) uint32() (uint32, error) {
	p, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(p), nil
}

func (r *reader) int32() (int32, error) {
	v, err := r.uint32()
	return int32(v), err
}

func (r *reader) typeID() (uuid.UUID, error) {
	p, err := r.take(16)
	if err != nil {
		return uuid.UUID{}, err
	}
	id, err := uuid.FromBytes(p)
	if err != nil {
		return uuid.UUID{}, fmt.Errorf("%w: %v", common.ErrMalformedDescriptor, err)
	}
	return id, nil
}

// lenPrefixedBytes reads a 4-byte big-endian length followed by that
// many bytes.
func (r *reader) lenPrefixedBytes() ([]byte, error) {
	n, err := r.uint32()
	if err != nil {
		return nil, err
	}
	return r.take(int(n))
}

func (r *reader) str() (string, error) {
	p, err := r.lenPrefixedBytes()
	return string(p), err
}
