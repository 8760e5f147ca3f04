package ktp

import (
	"bytes"
	"testing"
)

func TestFrame_RoundTrip(t *testing.T) {
	f := Frame{Opcode: OpCommandReq, TLVs: []TLV{
		{Tag: TagLine, Value: []byte("show version")},
		{Tag: TagStatus, Value: []byte("0")},
	}}

	var buf bytes.Buffer
	if err := WriteFrame(&buf, f); err != nil {
		t.Fatalf("unexpected WriteFrame error: %v", err)
	}

	got, err := ReadFrame(&buf)
	if err != nil {
		t.Fatalf("unexpected ReadFrame error: %v", err)
	}
	if got.Opcode != f.Opcode {
		t.Fatalf("expected opcode %q, got %q", f.Opcode, got.Opcode)
	}
	if len(got.TLVs) != len(f.TLVs) {
		t.Fatalf("expected %d TLVs, got %d", len(f.TLVs), len(got.TLVs))
	}
	for i, tlv := range f.TLVs {
		if got.TLVs[i].Tag != tlv.Tag || !bytes.Equal(got.TLVs[i].Value, tlv.Value) {
			t.Fatalf("TLV %d mismatch: got %+v, want %+v", i, got.TLVs[i], tlv)
		}
	}
}

func TestFrame_EmptyPayloadRoundTrips(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteFrame(&buf, Frame{Opcode: OpKeepalive}); err != nil {
		t.Fatalf("unexpected WriteFrame error: %v", err)
	}
	got, err := ReadFrame(&buf)
	if err != nil {
		t.Fatalf("unexpected ReadFrame error: %v", err)
	}
	if got.Opcode != OpKeepalive || len(got.TLVs) != 0 {
		t.Fatalf("expected an empty keepalive frame, got %+v", got)
	}
}

func TestFrame_Get(t *testing.T) {
	f := Frame{TLVs: []TLV{{Tag: TagLine, Value: []byte("a")}, {Tag: TagStatus, Value: []byte("1")}}}
	v, ok := f.Get(TagStatus)
	if !ok || string(v) != "1" {
		t.Fatalf("expected TagStatus=1, got %q ok=%v", v, ok)
	}
	if _, ok := f.Get(TagToken); ok {
		t.Fatal("expected no TagToken in this frame")
	}
}

func TestReadFrame_TruncatedHeaderErrors(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteFrame(&buf, Frame{Opcode: OpCommandReq, TLVs: []TLV{{Tag: TagLine, Value: []byte("x")}}}); err != nil {
		t.Fatalf("unexpected WriteFrame error: %v", err)
	}
	truncated := bytes.NewReader(buf.Bytes()[:8])
	if _, err := ReadFrame(truncated); err == nil {
		t.Fatal("expected an error reading a truncated frame")
	}
}

func TestReadFrame_ClaimedTLVCountBeyondPayloadErrors(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteFrame(&buf, Frame{Opcode: OpCommandReq, TLVs: []TLV{{Tag: TagLine, Value: []byte("x")}}}); err != nil {
		t.Fatalf("unexpected WriteFrame error: %v", err)
	}
	raw := buf.Bytes()
	// Bump the declared TLV count (last two header bytes) past what the
	// payload actually contains.
	raw[5], raw[6] = 0, 5
	if _, err := ReadFrame(bytes.NewReader(raw)); err == nil {
		t.Fatal("expected an error when the declared TLV count exceeds the payload")
	}
}
