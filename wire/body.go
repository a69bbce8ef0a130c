package wire

import (
	"encoding/binary"
	"math"
)

// isOffsetAligned reports whether both cursors sit on a boundary that len
// bytes can be written/read at without violating the codec's 8/4/1-byte
// alignment rule: values align to their own size, word-sized values align
// to the full word.
func isOffsetAligned(offset1, offset2, length int) bool {
	var align int
	switch {
	case length%8 == 0:
		align = 8
	case length%4 == 0:
		align = 4
	default:
		align = 1
	}
	return offset1%align == 0 && offset2%align == 0
}

// get returns a length-byte slice at the current read cursor, advancing it.
// The bool return reports whether this read consumed the message's final
// declared word — the codec's END_OF_MESSAGE signal. It is not an error:
// callers that expect more fields after it should treat done==true as a
// protocol error themselves.
func (m *Message) get(length int) (data []byte, done bool, err *Error) {
	if m.words == 0 {
		panic("wire: get called before a header was received")
	}
	if !isOffsetAligned(m.offset1, m.offset2, length) {
		return nil, false, newErr(Parse, "misaligned read of %d bytes", length)
	}

	bodyCap := m.bodyLen()

	var src []byte
	var offset int
	if m.body2 != nil {
		src, offset = m.body2, m.offset2
	} else {
		src, offset = m.body1[:], m.offset1
	}

	if offset+length > bodyCap {
		return nil, false, newErr(Overflow, "read of %d bytes at offset %d overflows %d-byte body", length, offset, bodyCap)
	}

	data = src[offset : offset+length]
	newOffset := offset + length

	if m.body2 != nil {
		m.offset2 = newOffset
	} else {
		m.offset1 = newOffset
	}

	return data, newOffset/WordSize == int(m.words), nil
}

// GetUint8 reads a single byte from the body.
func (m *Message) GetUint8() (uint8, bool, *Error) {
	buf, done, err := m.get(1)
	if err != nil {
		return 0, false, err
	}
	return buf[0], done, nil
}

// GetUint32 reads a little-endian uint32 from the body.
func (m *Message) GetUint32() (uint32, bool, *Error) {
	buf, done, err := m.get(4)
	if err != nil {
		return 0, false, err
	}
	return binary.LittleEndian.Uint32(buf), done, nil
}

// GetUint64 reads a little-endian uint64 from the body.
func (m *Message) GetUint64() (uint64, bool, *Error) {
	buf, done, err := m.get(8)
	if err != nil {
		return 0, false, err
	}
	return binary.LittleEndian.Uint64(buf), done, nil
}

// GetInt64 reads a little-endian int64 from the body.
func (m *Message) GetInt64() (int64, bool, *Error) {
	v, done, err := m.GetUint64()
	return int64(v), done, err
}

// GetDouble reads a little-endian IEEE-754 double from the body.
func (m *Message) GetDouble() (float64, bool, *Error) {
	v, done, err := m.GetUint64()
	if err != nil {
		return 0, false, err
	}
	return math.Float64frombits(v), done, nil
}

// GetText reads a NUL-terminated, word-padded string from the body, the
// way message__body_get_text finds the terminator and rounds the read up
// to the next word boundary.
func (m *Message) GetText() (string, bool, *Error) {
	var src []byte
	var offset int
	if m.body2 != nil {
		src, offset = m.body2, m.offset2
	} else {
		src, offset = m.body1[:], m.offset1
	}

	remaining := src[offset:m.bodyLen()]
	nul := -1
	for i, b := range remaining {
		if b == 0 {
			nul = i
			break
		}
	}
	if nul == -1 {
		return "", false, newErr(Parse, "no NUL terminator found in remaining body")
	}

	length := nul + 1
	if length%WordSize != 0 {
		length += WordSize - (length % WordSize)
	}

	data, done, err := m.get(length)
	if err != nil {
		return "", false, err
	}
	return string(data[:nul]), done, nil
}

// put writes src at the current write cursor, spilling into (and growing)
// the dynamic buffer once the static one is exhausted, matching
// message__body_put's overallocation behavior.
func (m *Message) put(src []byte) *Error {
	length := len(src)
	if !isOffsetAligned(m.offset1, m.offset2, length) {
		return newErr(Proto, "misaligned write of %d bytes", length)
	}

	if m.body2 != nil || m.offset1+length > BufLen {
		needed := m.offset2 + length
		if needed > len(m.body2) {
			grown := make([]byte, needed+1024)
			copy(grown, m.body2)
			m.body2 = grown
		}
		copy(m.body2[m.offset2:], src)
		m.offset2 += length
		return nil
	}

	copy(m.body1[m.offset1:], src)
	m.offset1 += length
	return nil
}

// PutUint8 appends a single byte to the body.
func (m *Message) PutUint8(v uint8) *Error {
	return m.put([]byte{v})
}

// PutUint32 appends a little-endian uint32 to the body.
func (m *Message) PutUint32(v uint32) *Error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	return m.put(buf[:])
}

// PutUint64 appends a little-endian uint64 to the body.
func (m *Message) PutUint64(v uint64) *Error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	return m.put(buf[:])
}

// PutInt64 appends a little-endian int64 to the body.
func (m *Message) PutInt64(v int64) *Error {
	return m.PutUint64(uint64(v))
}

// PutDouble appends a little-endian IEEE-754 double to the body.
func (m *Message) PutDouble(v float64) *Error {
	return m.PutUint64(math.Float64bits(v))
}

// PutText appends a NUL-terminated string to the body, padded with zero
// bytes up to the next word boundary so the following field stays aligned.
func (m *Message) PutText(s string) *Error {
	length := len(s) + 1
	padded := length
	if padded%WordSize != 0 {
		padded += WordSize - (padded % WordSize)
	}
	buf := make([]byte, padded)
	copy(buf, s)
	return m.put(buf)
}
