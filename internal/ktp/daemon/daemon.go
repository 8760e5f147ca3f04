// Package daemon implements the daemon-side per-client state machine of
// the wire protocol (spec.md §4.H): DISCONNECTED → IDLE →
// WAIT_FOR_PROCESS → IDLE, one reader/writer/execution task set per
// client (spec.md §5 scheduling model).
package daemon

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"klish/internal/ksession"
	"klish/internal/ktp"
)

// State is the daemon's per-client protocol state.
type State int

const (
	Disconnected State = iota
	Idle
	WaitForProcess
)

// Conn drives one client connection against a Session. CancelGrace is
// the SIGTERM→SIGKILL window (spec.md §5, default 3s).
type Conn struct {
	rw          io.ReadWriteCloser
	session     *ksession.Session
	log         *logrus.Entry
	CancelGrace time.Duration

	wmu   sync.Mutex
	state State

	cancelCh chan struct{}
	stdinW   *os.File
}

// New wraps rw (an accepted client connection) bound to session.
func New(rw io.ReadWriteCloser, session *ksession.Session, log *logrus.Entry) *Conn {
	return &Conn{rw: rw, session: session, log: log, CancelGrace: 3 * time.Second}
}

func (c *Conn) write(f ktp.Frame) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	return ktp.WriteFrame(c.rw, f)
}

// Serve runs the connection's reader loop until the client disconnects
// or sends "x". It is the daemon's one reader task per client (spec.md
// §5).
func (c *Conn) Serve() {
	defer c.rw.Close()
	c.state = Disconnected

	for {
		f, err := ktp.ReadFrame(c.rw)
		if err != nil {
			if c.log != nil {
				c.log.WithError(err).Debug("client disconnected")
			}
			return
		}

		switch f.Opcode {
		case ktp.OpAuthReq:
			c.write(ktp.Frame{Opcode: ktp.OpAuthAck})
			c.state = Idle

		case ktp.OpKeepalive:
			c.write(ktp.Frame{Opcode: ktp.OpKeepalive})

		case ktp.OpCommandReq:
			if c.state != Idle {
				continue
			}
			line, _ := f.Get(ktp.TagLine)
			c.runCommand(string(line))

		case ktp.OpCompletionReq:
			if c.state != Idle {
				continue
			}
			line, _ := f.Get(ktp.TagLine)
			c.runCompletion(string(line))

		case ktp.OpHelpReq:
			if c.state != Idle {
				continue
			}
			line, _ := f.Get(ktp.TagLine)
			c.runHelp(string(line))

		case ktp.OpStdin:
			if v, ok := f.Get(ktp.TagData); ok && c.stdinW != nil {
				c.stdinW.Write(v)
			}

		case ktp.OpNotification:
			if v, ok := f.Get(ktp.TagCancelFlag); ok && string(v) == "cancel" && c.cancelCh != nil {
				close(c.cancelCh)
				c.cancelCh = nil
			}

		case ktp.OpExit:
			return
		}
	}
}

func (c *Conn) runCompletion(line string) {
	pv := c.session.ParseForCompletion(line)
	entries, prefix := pv.CompletionEntrySet()
	tlvs := []ktp.TLV{{Tag: ktp.TagLine, Value: []byte(prefix)}}
	for _, e := range entries {
		tlvs = append(tlvs, ktp.TLV{Tag: ktp.TagCompletion, Value: []byte(e.Name)})
	}
	c.write(ktp.Frame{Opcode: ktp.OpCompletionAck, TLVs: tlvs})
}

func (c *Conn) runHelp(line string) {
	pv := c.session.ParseForHelp(line)
	entries, prefix := pv.CompletionEntrySet()
	tlvs := []ktp.TLV{{Tag: ktp.TagLine, Value: []byte(prefix)}}
	for _, e := range entries {
		tlvs = append(tlvs, ktp.TLV{Tag: ktp.TagPromptText, Value: []byte(e.Name + "\t" + e.Help)})
	}
	c.write(ktp.Frame{Opcode: ktp.OpHelpAck, TLVs: tlvs})
}

// runCommand parses and runs one line as an executor plan, pumping
// stdout/stderr chunks and answering cancel notifications while
// WAIT_FOR_PROCESS is in effect (spec.md §4.H, §4.G stream wiring).
func (c *Conn) runCommand(line string) {
	plan, err := c.session.ParseForExec(line)
	if err != nil {
		c.write(ktp.Frame{Opcode: ktp.OpStderr, TLVs: []ktp.TLV{{Tag: ktp.TagData, Value: []byte(err.Error())}}})
		c.write(ackFrame(1))
		return
	}

	c.state = WaitForProcess
	c.cancelCh = make(chan struct{})
	defer func() { c.state = Idle; c.cancelCh = nil }()

	inR, inW, _ := os.Pipe()
	outR, outW, _ := os.Pipe()
	errR, errW, _ := os.Pipe()
	c.stdinW = inW
	defer func() { c.stdinW = nil; inW.Close() }()

	var wg sync.WaitGroup
	wg.Add(2)
	go c.pump(outR, ktp.OpStdout, &wg)
	go c.pump(errR, ktp.OpStderr, &wg)

	runDone := make(chan error, 1)
	go func() {
		runDone <- c.session.Execute(plan, inR, outW, errW, c.cancelCh, c.CancelGrace)
	}()

	select {
	case <-runDone:
	case <-c.cancelCh:
		// Cooperative cancellation: in-process symbols finish their
		// current call; an OS-process symbol sees the same channel as
		// ksym.Context.Done and kills its own child via kexec.Cancel.
		<-runDone
	}

	outW.Close()
	errW.Close()
	inR.Close()
	wg.Wait()

	c.write(ackFrame(plan.Retcode()))
}

func (c *Conn) pump(r *os.File, op ktp.Opcode, wg *sync.WaitGroup) {
	defer wg.Done()
	buf := make([]byte, 4096)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			c.write(ktp.Frame{Opcode: op, TLVs: []ktp.TLV{{Tag: ktp.TagData, Value: append([]byte(nil), buf[:n]...)}}})
		}
		if err != nil {
			return
		}
	}
}

func ackFrame(status int) ktp.Frame {
	return ktp.Frame{Opcode: ktp.OpCommandAck, TLVs: []ktp.TLV{{Tag: ktp.TagStatus, Value: []byte(fmt.Sprint(status))}}}
}
