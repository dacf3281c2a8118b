package envelope

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"

	"github.com/bfix/mm/mmerr"
)

// maxFrameSize guards against a corrupt or hostile length prefix causing an
// unbounded allocation.
const maxFrameSize = 64 << 20 // 64 MiB

// Encode serializes a Frame to its wire form: one kind byte followed by the
// JSON encoding of the corresponding payload. It does not length-prefix the
// result; callers that write to a stream should use WriteFrame instead.
func Encode(f *Frame) ([]byte, error) {
	var body any
	switch f.Kind {
	case KindInvocation:
		body = f.Invocation
	case KindResponse:
		body = f.Response
	default:
		return nil, fmt.Errorf("envelope: unknown frame kind %d", f.Kind)
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 1+len(payload))
	out[0] = byte(f.Kind)
	copy(out[1:], payload)
	return out, nil
}

// Decode parses the wire form produced by Encode. It fails with
// mmerr.ErrMalformedFrame on a length/tag mismatch or malformed JSON body.
func Decode(data []byte) (*Frame, error) {
	if len(data) < 1 {
		return nil, mmerr.ErrMalformedFrame
	}
	kind := FrameKind(data[0])
	body := data[1:]
	f := &Frame{Kind: kind}
	switch kind {
	case KindInvocation:
		inv := new(Invocation)
		if err := json.Unmarshal(body, inv); err != nil {
			return nil, mmerr.ErrMalformedFrame
		}
		f.Invocation = inv
	case KindResponse:
		resp := new(Response)
		if err := json.Unmarshal(body, resp); err != nil {
			return nil, mmerr.ErrMalformedFrame
		}
		f.Response = resp
	default:
		return nil, mmerr.ErrMalformedFrame
	}
	return f, nil
}

// WriteFrame writes a Frame as a u32 big-endian length prefix followed by
// its Encode-d payload. A single write failure leaves the stream in an
// undefined state; callers must close the connection.
func WriteFrame(w io.Writer, f *Frame) error {
	payload, err := Encode(f)
	if err != nil {
		return err
	}
	return WriteLenPrefixed(w, payload)
}

// ReadFrame reads one length-prefixed Frame from r.
func ReadFrame(r io.Reader) (*Frame, error) {
	buf, err := ReadLenPrefixed(r)
	if err != nil {
		return nil, err
	}
	return Decode(buf)
}

// WriteLenPrefixed writes payload behind a u32 big-endian length prefix.
// It underlies WriteFrame and the connection handshake (transport package),
// which exchanges a bare PeerID string before any Frame traffic begins.
func WriteLenPrefixed(w io.Writer, payload []byte) error {
	var hdr [4]byte
	binary.BigEndian.PutUint32(hdr[:], uint32(len(payload)))
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

// ReadLenPrefixed reads one u32-big-endian-length-prefixed payload from r.
func ReadLenPrefixed(r io.Reader) ([]byte, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(hdr[:])
	if n > maxFrameSize {
		return nil, mmerr.ErrMalformedFrame
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}
