package wire

import "encoding/binary"

// HeaderSize is the fixed size in bytes of every message header: a type
// byte, a flags byte, a 4-byte word count, and a 2-byte extra field.
const HeaderSize = 8

// MaxWords bounds how large a message body can declare itself to be. A
// message claiming more words than this is rejected before any buffer is
// allocated for it, the same defensive check dqlite's
// message__header_recv_done applies against MESSAGE__MAX_WORDS.
const MaxWords = 1 << 24

// header is the decoded form of a message's 8-byte wire header.
type header struct {
	Type  uint8
	Flags uint8
	Words uint32
	Extra uint16
}

func (h *header) marshal(buf []byte) {
	buf[0] = h.Type
	buf[1] = h.Flags
	binary.LittleEndian.PutUint32(buf[2:6], h.Words)
	binary.LittleEndian.PutUint16(buf[6:8], h.Extra)
}

func (h *header) unmarshal(buf []byte) {
	h.Type = buf[0]
	h.Flags = buf[1]
	h.Words = binary.LittleEndian.Uint32(buf[2:6])
	h.Extra = binary.LittleEndian.Uint16(buf[6:8])
}

// HeaderRecvStart returns the buffer a transport should read HeaderSize
// bytes of wire data into before calling HeaderRecvDone.
func (m *Message) HeaderRecvStart() []byte {
	return m.headerBuf[:]
}

// HeaderRecvDone decodes the bytes previously filled via HeaderRecvStart
// and validates the declared word count. The body can't be empty and
// can't exceed MaxWords, matching message__header_recv_done.
func (m *Message) HeaderRecvDone() *Error {
	m.hdr.unmarshal(m.headerBuf[:])
	if m.hdr.Words == 0 {
		return newErr(Proto, "empty message body")
	}
	if m.hdr.Words > MaxWords {
		return newErr(Proto, "message body too large: %d words", m.hdr.Words)
	}
	m.words = m.hdr.Words
	return nil
}

// HeaderPut records the message's type and flags ahead of a send. It does
// not write the word count: that is only known once the body has been
// fully written, and is filled in by SendStart.
func (m *Message) HeaderPut(typ, flags uint8) {
	m.hdr.Type = typ
	m.hdr.Flags = flags
}

// Type and Flags report the header fields set by HeaderPut or decoded by
// HeaderRecvDone.
func (m *Message) Type() uint8   { return m.hdr.Type }
func (m *Message) Flags() uint8  { return m.hdr.Flags }
func (m *Message) Extra() uint16 { return m.hdr.Extra }

// Words reports the body size in words: the value carried in the header's
// word-count field.
func (m *Message) Words() uint32 { return m.words }
