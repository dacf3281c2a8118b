package envelope

import (
	"bytes"
	"testing"
)

func TestRoundTripInvocation(t *testing.T) {
	f := &Frame{
		Kind: KindInvocation,
		Invocation: &Invocation{
			CallID:        "call-1",
			RecipientUUID: "00000000-0000-0000-0000-000000000001",
			SenderPeer:    "alice@127.0.0.1:50051",
			Target:        "Member.Tell:1",
			Arguments:     []byte(`["hello"]`),
		},
	}
	data, err := Encode(f)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Kind != f.Kind || got.Invocation.CallID != f.Invocation.CallID ||
		got.Invocation.Target != f.Invocation.Target {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got.Invocation, f.Invocation)
	}
}

func TestRoundTripResponse(t *testing.T) {
	cases := []*Response{
		Void("c1"),
		Success("c2", []byte(`"ok"`)),
		Failure("c3", &RuntimeError{Kind: ErrorActorNotFound, UUID: "x"}),
	}
	for _, resp := range cases {
		f := &Frame{Kind: KindResponse, Response: resp}
		data, err := Encode(f)
		if err != nil {
			t.Fatalf("Encode: %v", err)
		}
		got, err := Decode(data)
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		if got.Response.CallID != resp.CallID || got.Response.Kind != resp.Kind {
			t.Fatalf("round trip mismatch: got %+v, want %+v", got.Response, resp)
		}
	}
}

func TestDecodeMalformed(t *testing.T) {
	cases := [][]byte{
		{},                          // too short for a kind byte
		{byte(KindInvocation), '{'}, // truncated JSON
		{0xFF},                      // unknown kind
	}
	for _, c := range cases {
		if _, err := Decode(c); err == nil {
			t.Fatalf("Decode(%v): expected error", c)
		}
	}
}

func TestWriteReadFrame(t *testing.T) {
	buf := new(bytes.Buffer)
	f := &Frame{Kind: KindResponse, Response: Void("c1")}
	if err := WriteFrame(buf, f); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	got, err := ReadFrame(buf)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if got.Response.CallID != "c1" {
		t.Fatalf("got call id %q, want c1", got.Response.CallID)
	}
}

func TestReadFrameOversized(t *testing.T) {
	buf := new(bytes.Buffer)
	if err := WriteLenPrefixed(buf, make([]byte, 0)); err != nil {
		t.Fatalf("WriteLenPrefixed: %v", err)
	}
	// corrupt the length prefix to claim an enormous payload
	corrupted := buf.Bytes()
	corrupted[0] = 0xFF
	if _, err := ReadFrame(bytes.NewReader(corrupted)); err == nil {
		t.Fatal("expected oversized frame to be rejected")
	}
}
