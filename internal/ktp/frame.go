// Package ktp implements the wire protocol (component H): a
// length-delimited TLV frame codec over a full-duplex byte stream
// (spec.md §4.H, §6). No library in the retrieved corpus ships this
// exact framing, so the codec is hand-written against encoding/binary —
// see DESIGN.md.
package ktp

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
)

// Opcode identifies a frame's kind. Single characters so wire logs stay
// greppable (spec.md §4.H).
type Opcode byte

const (
	OpCommandReq      Opcode = 'c'
	OpCommandAck      Opcode = 'C'
	OpCompletionReq   Opcode = 'v'
	OpCompletionAck   Opcode = 'V'
	OpHelpReq         Opcode = 'h'
	OpHelpAck         Opcode = 'H'
	OpStdin           Opcode = 'i'
	OpStdout          Opcode = 'o'
	OpStderr          Opcode = 'e'
	OpNotification    Opcode = 'n'
	OpExit            Opcode = 'x'
	OpAuthReq         Opcode = 'a'
	OpAuthAck         Opcode = 'A'
	OpKeepalive       Opcode = 'k'
)

// Tag identifies one TLV's meaning within a frame's payload.
type Tag uint16

const (
	TagLine       Tag = iota + 1 // the raw command/completion/help line
	TagStatus                    // exit status as decimal text, in an ack
	TagData                      // raw bytes for i/o/e frames
	TagCancelFlag                // marker TLV for an "n" cancel notification
	TagUsername                  // auth request
	TagToken                     // auth request (credential/session token)
	TagPromptText                // H-ack: rendered help text
	TagCompletion                // V-ack: one completion candidate (repeated)
)

// TLV is one tag-length-value triple within a frame's payload.
type TLV struct {
	Tag   Tag
	Value []byte
}

// Frame is one on-wire message: {u8 opcode, u32 payload length, u16
// param count, repeated TLVs} (spec.md §4.H).
type Frame struct {
	Opcode Opcode
	TLVs   []TLV
}

// Get returns the first TLV's value matching tag, or nil.
func (f *Frame) Get(tag Tag) ([]byte, bool) {
	for _, t := range f.TLVs {
		if t.Tag == tag {
			return t.Value, true
		}
	}
	return nil, false
}

// WriteFrame encodes and writes one frame. Frame writes on a connection
// must be serialized by a single writer goroutine (spec.md §5 "single
// writer invariant").
func WriteFrame(w io.Writer, f Frame) error {
	payload := make([]byte, 0, 64)
	for _, t := range f.TLVs {
		var hdr [6]byte
		binary.BigEndian.PutUint16(hdr[0:2], uint16(t.Tag))
		binary.BigEndian.PutUint32(hdr[2:6], uint32(len(t.Value)))
		payload = append(payload, hdr[:]...)
		payload = append(payload, t.Value...)
	}

	var head [7]byte
	head[0] = byte(f.Opcode)
	binary.BigEndian.PutUint32(head[1:5], uint32(len(payload)))
	binary.BigEndian.PutUint16(head[5:7], uint16(len(f.TLVs)))

	bw := bufio.NewWriter(w)
	if _, err := bw.Write(head[:]); err != nil {
		return err
	}
	if _, err := bw.Write(payload); err != nil {
		return err
	}
	return bw.Flush()
}

// ReadFrame reads and decodes one frame from r.
func ReadFrame(r io.Reader) (Frame, error) {
	var head [7]byte
	if _, err := io.ReadFull(r, head[:]); err != nil {
		return Frame{}, err
	}
	opcode := Opcode(head[0])
	length := binary.BigEndian.Uint32(head[1:5])
	count := binary.BigEndian.Uint16(head[5:7])

	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return Frame{}, err
	}

	tlvs := make([]TLV, 0, count)
	pos := 0
	for i := uint16(0); i < count; i++ {
		if pos+6 > len(payload) {
			return Frame{}, fmt.Errorf("ktp: truncated TLV header in frame %q", opcode)
		}
		tag := Tag(binary.BigEndian.Uint16(payload[pos : pos+2]))
		l := binary.BigEndian.Uint32(payload[pos+2 : pos+6])
		pos += 6
		if pos+int(l) > len(payload) {
			return Frame{}, fmt.Errorf("ktp: truncated TLV value in frame %q", opcode)
		}
		tlvs = append(tlvs, TLV{Tag: tag, Value: payload[pos : pos+int(l)]})
		pos += int(l)
	}

	return Frame{Opcode: opcode, TLVs: tlvs}, nil
}
