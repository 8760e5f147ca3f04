// Package client implements the client-side state machine of the wire
// protocol (spec.md §4.H): DISCONNECTED → IDLE → WAIT_CMD/
// WAIT_COMPLETION/WAIT_HELP → IDLE → DISCONNECTED.
package client

import (
	"fmt"
	"io"
	"sync"

	"klish/internal/ktp"
)

// State is the client connection's protocol state.
type State int

const (
	Disconnected State = iota
	Idle
	WaitCmd
	WaitCompletion
	WaitHelp
)

// Client drives one daemon connection. Reads happen on the caller's
// goroutine (via Next*); a single mutex serializes writes so frames
// never interleave (spec.md §5 "single writer invariant").
type Client struct {
	rw    io.ReadWriter
	wmu   sync.Mutex
	state State
}

// New wraps rw (already connected to klishd) in DISCONNECTED state;
// callers must call Auth first, which moves the client to IDLE.
func New(rw io.ReadWriter) *Client {
	return &Client{rw: rw, state: Disconnected}
}

func (c *Client) write(f ktp.Frame) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	return ktp.WriteFrame(c.rw, f)
}

// Auth sends an auth request and waits for the ack, transitioning
// DISCONNECTED → IDLE.
func (c *Client) Auth(username, token string) error {
	if err := c.write(ktp.Frame{Opcode: ktp.OpAuthReq, TLVs: []ktp.TLV{
		{Tag: ktp.TagUsername, Value: []byte(username)},
		{Tag: ktp.TagToken, Value: []byte(token)},
	}}); err != nil {
		return err
	}
	f, err := ktp.ReadFrame(c.rw)
	if err != nil {
		return err
	}
	if f.Opcode != ktp.OpAuthAck {
		return fmt.Errorf("ktp/client: expected auth ack, got %q", f.Opcode)
	}
	c.state = Idle
	return nil
}

// State returns the client's current protocol state.
func (c *Client) State() State { return c.state }

// Command sends a command request and transitions IDLE → WAIT_CMD.
func (c *Client) Command(line string) error {
	if c.state != Idle {
		return fmt.Errorf("ktp/client: Command called outside IDLE state")
	}
	c.state = WaitCmd
	return c.write(ktp.Frame{Opcode: ktp.OpCommandReq, TLVs: []ktp.TLV{{Tag: ktp.TagLine, Value: []byte(line)}}})
}

// Completion sends a completion request and transitions IDLE →
// WAIT_COMPLETION.
func (c *Client) Completion(line string) error {
	if c.state != Idle {
		return fmt.Errorf("ktp/client: Completion called outside IDLE state")
	}
	c.state = WaitCompletion
	return c.write(ktp.Frame{Opcode: ktp.OpCompletionReq, TLVs: []ktp.TLV{{Tag: ktp.TagLine, Value: []byte(line)}}})
}

// Help sends a help request and transitions IDLE → WAIT_HELP.
func (c *Client) Help(line string) error {
	if c.state != Idle {
		return fmt.Errorf("ktp/client: Help called outside IDLE state")
	}
	c.state = WaitHelp
	return c.write(ktp.Frame{Opcode: ktp.OpHelpReq, TLVs: []ktp.TLV{{Tag: ktp.TagLine, Value: []byte(line)}}})
}

// Cancel sends an "n" notification with tag "cancel" while
// WAIT_FOR_PROCESS is in effect on the daemon side (spec.md §4.H).
func (c *Client) Cancel() error {
	return c.write(ktp.Frame{Opcode: ktp.OpNotification, TLVs: []ktp.TLV{{Tag: ktp.TagCancelFlag, Value: []byte("cancel")}}})
}

// SendStdin forwards a stdin chunk while WAIT_CMD is in effect.
func (c *Client) SendStdin(chunk []byte) error {
	return c.write(ktp.Frame{Opcode: ktp.OpStdin, TLVs: []ktp.TLV{{Tag: ktp.TagData, Value: chunk}}})
}

// Keepalive sends a keepalive frame, answerable in any daemon state.
func (c *Client) Keepalive() error {
	return c.write(ktp.Frame{Opcode: ktp.OpKeepalive})
}

// Next reads the next frame and, for an ack matching the current wait
// state, transitions back to IDLE. Stdout/stderr chunks and
// notifications are returned without changing state, so the caller can
// keep reading them while waiting for the ack (spec.md §4.H).
func (c *Client) Next() (ktp.Frame, error) {
	f, err := ktp.ReadFrame(c.rw)
	if err != nil {
		c.state = Disconnected
		return f, err
	}
	switch f.Opcode {
	case ktp.OpCommandAck:
		if c.state == WaitCmd {
			c.state = Idle
		}
	case ktp.OpCompletionAck:
		if c.state == WaitCompletion {
			c.state = Idle
		}
	case ktp.OpHelpAck:
		if c.state == WaitHelp {
			c.state = Idle
		}
	case ktp.OpExit:
		c.state = Disconnected
	}
	return f, nil
}
