package lineproto

// Decoder turns a byte stream into logical text lines.
//
// Bytes are accumulated one at a time. A CR always terminates the current
// line; an LF terminates it unless the immediately preceding byte was a CR,
// so a CR-LF pair counts as a single terminator. An ETX byte (0x03) is not
// part of any line and signals the end of the session. When the buffer
// reaches capacity the accumulated bytes are flushed as a line without a
// terminator having arrived; an overlong line is split, not rejected.
type Decoder struct {
	buf  []byte
	n    int
	last byte
}

// DefaultBufferSize is the line buffer capacity used by NewDecoder.
const DefaultBufferSize = 256

// Control byte values recognized by the decoder.
const (
	ETX = 0x03
	cr  = 0x0d
	lf  = 0x0a
)

// EventKind classifies the result of feeding one byte.
type EventKind int

const (
	// EventNone means the byte was consumed without completing anything.
	EventNone EventKind = iota
	// EventLine means a complete line is available.
	EventLine
	// EventEnd means the peer signaled end of session.
	EventEnd
)

// Event is the result of feeding one byte to a Decoder.
type Event struct {
	Kind EventKind
	Line string
}

// NewDecoder creates a Decoder with the default buffer capacity.
func NewDecoder() *Decoder {
	return NewDecoderSize(DefaultBufferSize)
}

// NewDecoderSize creates a Decoder with the given buffer capacity.
func NewDecoderSize(size int) *Decoder {
	return &Decoder{buf: make([]byte, size)}
}

// Feed consumes one byte.
func (d *Decoder) Feed(b byte) Event {
	if b == ETX {
		return Event{Kind: EventEnd}
	}
	eol := false
	switch b {
	case lf:
		// \r\n counts as a single terminator
		eol = d.last != cr
	case cr:
		eol = true
	default:
		d.buf[d.n] = b
		d.n++
		if d.n == len(d.buf) {
			// full buffer forces a flush, splitting the line
			eol = true
		}
	}
	d.last = b
	if !eol {
		return Event{}
	}
	line := string(d.buf[:d.n])
	d.n = 0
	return Event{Kind: EventLine, Line: line}
}

// Reset discards any accumulated bytes and terminator memory.
func (d *Decoder) Reset() {
	d.n, d.last = 0, 0
}
