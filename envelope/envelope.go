// Package envelope defines the self-describing invocation and response
// messages exchanged between mesh peers, and the length-prefixed framing
// used to put them on the wire.
package envelope

import (
	"github.com/google/uuid"
)

// Invocation carries a single remote-call request.
type Invocation struct {
	CallID        string `json:"call_id"`
	RecipientUUID string `json:"recipient_uuid"`
	SenderPeer    string `json:"sender_peer"`
	Target        string `json:"target"`
	Arguments     []byte `json:"arguments"`
}

// NewInvocation mints an Invocation with a fresh call id.
func NewInvocation(recipientUUID, senderPeer, target string, args []byte) *Invocation {
	return &Invocation{
		CallID:        uuid.NewString(),
		RecipientUUID: recipientUUID,
		SenderPeer:    senderPeer,
		Target:        target,
		Arguments:     args,
	}
}

// ResultKind tags the variant carried by a Response.
type ResultKind int

const (
	ResultVoid ResultKind = iota
	ResultSuccess
	ResultFailure
)

// ErrorKind tags the variant carried by a RuntimeError.
type ErrorKind int

const (
	ErrorActorNotFound ErrorKind = iota
	ErrorExecutionFailed
	ErrorUnknown
)

// RuntimeError is the wire representation of a dispatch failure.
type RuntimeError struct {
	Kind    ErrorKind `json:"kind"`
	UUID    string    `json:"uuid,omitempty"`
	Target  string    `json:"target,omitempty"`
	Message string    `json:"message,omitempty"`
}

// Response carries the outcome of one Invocation, correlated by CallID.
type Response struct {
	CallID string        `json:"call_id"`
	Kind   ResultKind    `json:"kind"`
	Result []byte        `json:"result,omitempty"`
	Err    *RuntimeError `json:"error,omitempty"`
}

// Void builds a successful, valueless Response.
func Void(callID string) *Response {
	return &Response{CallID: callID, Kind: ResultVoid}
}

// Success builds a successful Response carrying an encoded value.
func Success(callID string, result []byte) *Response {
	return &Response{CallID: callID, Kind: ResultSuccess, Result: result}
}

// Failure builds a failed Response.
func Failure(callID string, rerr *RuntimeError) *Response {
	return &Response{CallID: callID, Kind: ResultFailure, Err: rerr}
}

// FrameKind tags which of Invocation/Response a Frame carries.
type FrameKind uint8

const (
	KindInvocation FrameKind = iota + 1
	KindResponse
)

// Frame is a single unit of exchange on a connection: either an Invocation
// or a Response.
type Frame struct {
	Kind       FrameKind
	Invocation *Invocation
	Response   *Response
}
