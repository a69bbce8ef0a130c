// Package wire implements the binary request/response message codec used
// to move typed values between nodes: an 8-byte header, a word-aligned
// body built from a small static buffer that spills into a growable
// dynamic one, and typed getters/putters that enforce the alignment and
// bounds rules the format depends on.
package wire

// WordSize is the codec's unit of sizing: a body must total a whole number
// of words when it is sent, and the header's word count is a count of
// these. Individual values align to their own size (see isOffsetAligned),
// so several small values can share one word.
const WordSize = 8

// BufWords is the capacity, in words, of a Message's inline static body
// buffer. Bodies that fit in BufWords words never allocate; larger bodies
// spill into a dynamic buffer sized to fit.
const BufWords = 128

// BufLen is BufWords expressed in bytes.
const BufLen = BufWords * WordSize

// Message holds the state of one in-flight request or response: its
// header fields, a fixed-size inline buffer for small bodies, and an
// optional dynamic buffer for bodies that outgrow it. Reading and writing
// are both offset-based and move strictly forward; a Message is reset
// between uses rather than reused mid-flight.
type Message struct {
	hdr       header
	headerBuf [HeaderSize]byte

	words uint32 // body size in words, valid once known (recv: after HeaderRecvDone; send: after SendStart)

	body1 [BufLen]byte // static buffer
	body2 []byte       // dynamic buffer; nil unless the body outgrew body1

	offset1 int // write/read cursor into body1, while body2 is nil
	offset2 int // write/read cursor into body2, once allocated
}

// NewMessage returns a Message ready for either a send or a receive cycle.
func NewMessage() *Message {
	return &Message{}
}

// reset clears all per-message state so the Message can be reused for the
// next send or receive.
func (m *Message) reset() {
	m.hdr = header{}
	m.words = 0
	m.body2 = nil
	m.offset1 = 0
	m.offset2 = 0
}

// SendReset discards any body content and clears the Message for reuse
// after a send completes.
func (m *Message) SendReset() {
	m.reset()
}

// RecvReset discards any body content and clears the Message for reuse
// after a receive completes. It must only be called once the header has
// actually been received.
func (m *Message) RecvReset() {
	if m.words == 0 {
		panic("wire: RecvReset called before a header was received")
	}
	m.reset()
}

// bodyLen returns the declared body length in bytes: words * WordSize.
func (m *Message) bodyLen() int {
	return int(m.words) * WordSize
}

// BodyRecvStart returns the buffer(s) a transport should read the
// message body into, allocating the dynamic buffer if the declared size
// exceeds the static one.
func (m *Message) BodyRecvStart() ([]byte, *Error) {
	if m.offset1 != 0 || m.offset2 != 0 {
		panic("wire: BodyRecvStart called with a dirty read offset")
	}
	need := m.bodyLen()
	if need > BufLen {
		m.body2 = make([]byte, need)
		return m.body2, nil
	}
	return m.body1[:need], nil
}

// SendStart finalizes the word count from however many bytes were
// written via the Put* methods and returns up to three buffers a
// transport should write out in order: the header, the static body
// portion, and (if non-empty) the dynamic body portion.
func (m *Message) SendStart() ([][]byte, *Error) {
	if m.words != 0 {
		panic("wire: SendStart called twice")
	}
	if m.offset1 == 0 && m.offset2 == 0 {
		panic("wire: SendStart called on an empty body")
	}
	if m.offset1%WordSize != 0 || m.offset2%WordSize != 0 {
		panic("wire: SendStart called with an unaligned offset")
	}

	totalWords := uint32((m.offset1 + m.offset2) / WordSize)
	m.hdr.Words = totalWords
	m.words = totalWords
	m.hdr.marshal(m.headerBuf[:])

	bufs := [][]byte{m.headerBuf[:], m.body1[:m.offset1]}
	if m.offset2 > 0 {
		bufs = append(bufs, m.body2[:m.offset2])
	}
	return bufs, nil
}

// HasBeenFullyConsumed reports whether every word declared in the header
// has been read back out via the Get* methods.
func (m *Message) HasBeenFullyConsumed() bool {
	offset := m.offset1
	if m.body2 != nil {
		offset = m.offset2
	}
	return offset/WordSize == int(m.words)
}

// IsLarge reports whether this message's body required the dynamic
// buffer, i.e. it didn't fit in BufLen bytes.
func (m *Message) IsLarge() bool {
	return m.body2 != nil
}
