package assembly

import (
	"encoding/binary"
	"errors"
	"fmt"
)

var errTruncated = errors.New("truncated metadata")

// reader is a little-endian cursor over a metadata byte slice. The first
// out-of-bounds read sets err; later reads return zero values.
type reader struct {
	b   []byte
	off int
	err error
}

func (r *reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || r.off+n > len(r.b) {
		r.err = errTruncated
		return nil
	}
	p := r.b[r.off : r.off+n]
	r.off += n
	return p
}

func (r *reader) skip(n int) { r.take(n) }

func (r *reader) u8() uint8 {
	if p := r.take(1); p != nil {
		return p[0]
	}
	return 0
}

func (r *reader) u16() uint16 {
	if p := r.take(2); p != nil {
		return binary.LittleEndian.Uint16(p)
	}
	return 0
}

func (r *reader) u32() uint32 {
	if p := r.take(4); p != nil {
		return binary.LittleEndian.Uint32(p)
	}
	return 0
}

func (r *reader) u64() uint64 {
	if p := r.take(8); p != nil {
		return binary.LittleEndian.Uint64(p)
	}
	return 0
}

// index reads a 2- or 4-byte heap or table index.
func (r *reader) index(size int) uint32 {
	if size == 4 {
		return r.u32()
	}
	return uint32(r.u16())
}

// cstring reads a NUL-terminated string and consumes the terminator.
func (r *reader) cstring() string {
	if r.err != nil {
		return ""
	}
	for i := r.off; i < len(r.b); i++ {
		if r.b[i] == 0 {
			s := string(r.b[r.off:i])
			r.off = i + 1
			return s
		}
	}
	r.err = errTruncated
	return ""
}

// align advances the cursor to the next multiple of n.
func (r *reader) align(n int) {
	if rem := r.off % n; rem != 0 {
		r.skip(n - rem)
	}
}

// decodeCompressed decodes an ECMA-335 II.23.2 compressed unsigned integer and
// returns it with the number of bytes consumed.
func decodeCompressed(b []byte) (uint32, int, error) {
	if len(b) == 0 {
		return 0, 0, errTruncated
	}
	switch {
	case b[0]&0x80 == 0:
		return uint32(b[0]), 1, nil
	case b[0]&0xC0 == 0x80:
		if len(b) < 2 {
			return 0, 0, errTruncated
		}
		return uint32(b[0]&0x3F)<<8 | uint32(b[1]), 2, nil
	case b[0]&0xE0 == 0xC0:
		if len(b) < 4 {
			return 0, 0, errTruncated
		}
		return uint32(b[0]&0x1F)<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3]), 4, nil
	default:
		return 0, 0, fmt.Errorf("invalid compressed integer lead byte %#x", b[0])
	}
}

// decodeFirstSerString reads the prolog of a CustomAttrib blob followed by a
// SerString fixed argument. A null SerString (0xFF) decodes to "".
func decodeFirstSerString(blob []byte) (string, error) {
	if len(blob) < 3 {
		return "", errTruncated
	}
	if blob[0] != 0x01 || blob[1] != 0x00 {
		return "", fmt.Errorf("bad custom attribute prolog % x", blob[:2])
	}
	rest := blob[2:]
	if rest[0] == 0xFF {
		return "", nil
	}
	size, n, err := decodeCompressed(rest)
	if err != nil {
		return "", err
	}
	if uint64(n)+uint64(size) > uint64(len(rest)) {
		return "", errTruncated
	}
	return string(rest[n : n+int(size)]), nil
}
