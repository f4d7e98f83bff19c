package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Wire message kinds from clients. Chat kinds are persisted before
// fan-out; rtc_* kinds are relayed as-is and never stored.
const (
	KindText         = "text"
	KindMedia        = "media"
	KindRTCOffer     = "rtc_offer"
	KindRTCAnswer    = "rtc_answer"
	KindRTCCandidate = "rtc_candidate"
)

// Server -> client control kind.
const KindError = "error"

// Error codes carried in error envelopes.
const (
	ErrCodeBadRequest    = "BAD_REQUEST"
	ErrCodeInternalError = "INTERNAL_ERROR"
	ErrCodeUnknownUser   = "UNKNOWN_USER"
)

var (
	// ErrMalformedPayload means the inbound bytes are not a valid JSON object.
	ErrMalformedPayload = errors.New("malformed payload")
	// ErrMissingType means the payload has no msg_type field.
	ErrMissingType = errors.New("missing msg_type field")
)

// Envelope is the unit exchanged over the relay socket. The chat fields
// are typed; every other key is kept verbatim in Extra so signaling
// payloads round-trip through the relay without interpretation.
type Envelope struct {
	MsgType   string
	Message   string
	Username  string
	MediaURL  string
	Timestamp string
	Extra     map[string]json.RawMessage
}

// Signal reports whether the envelope carries WebRTC signaling, which
// bypasses persistence.
func (e *Envelope) Signal() bool {
	return IsSignalKind(e.MsgType)
}

// IsSignalKind reports whether kind is a WebRTC signaling kind.
func IsSignalKind(kind string) bool {
	switch kind {
	case KindRTCOffer, KindRTCAnswer, KindRTCCandidate:
		return true
	}
	return false
}

// DecodeEnvelope parses inbound bytes. It fails with ErrMalformedPayload
// when the input is not a JSON object (or msg_type is not a string) and
// with ErrMissingType when msg_type is absent. For signaling kinds only
// the discriminator is interpreted; every other key stays opaque in
// Extra, even ones that collide with chat field names.
func DecodeEnvelope(data []byte) (*Envelope, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if fields == nil {
		return nil, ErrMalformedPayload
	}

	raw, ok := fields["msg_type"]
	if !ok {
		return nil, ErrMissingType
	}

	e := &Envelope{}
	if err := json.Unmarshal(raw, &e.MsgType); err != nil {
		return nil, fmt.Errorf("%w: field msg_type is not a string", ErrMalformedPayload)
	}
	delete(fields, "msg_type")

	if e.Signal() {
		if len(fields) > 0 {
			e.Extra = fields
		}
		return e, nil
	}

	for key, dst := range map[string]*string{
		"message":   &e.Message,
		"username":  &e.Username,
		"media_url": &e.MediaURL,
		"timestamp": &e.Timestamp,
	} {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, dst); err != nil {
			return nil, fmt.Errorf("%w: field %s is not a string", ErrMalformedPayload, key)
		}
		delete(fields, key)
	}

	if len(fields) > 0 {
		e.Extra = fields
	}
	return e, nil
}

// Encode serialises the envelope back to wire bytes. Extra keys are
// written out untouched; typed fields win on collision. Chat kinds
// always carry message, username and media_url so clients can render
// without probing for absent keys.
func (e *Envelope) Encode() ([]byte, error) {
	fields := make(map[string]json.RawMessage, len(e.Extra)+5)
	for k, v := range e.Extra {
		fields[k] = v
	}

	set := func(key, val string) {
		b, _ := json.Marshal(val)
		fields[key] = b
	}

	set("msg_type", e.MsgType)
	if !e.Signal() {
		set("message", e.Message)
		set("username", e.Username)
		set("media_url", e.MediaURL)
	} else {
		if e.Message != "" {
			set("message", e.Message)
		}
		if e.Username != "" {
			set("username", e.Username)
		}
		if e.MediaURL != "" {
			set("media_url", e.MediaURL)
		}
	}
	if e.Timestamp != "" {
		set("timestamp", e.Timestamp)
	}

	return json.Marshal(fields)
}

// ErrorEnvelope is sent back to the originating client only; errors are
// never broadcast to the room.
type ErrorEnvelope struct {
	MsgType string `json:"msg_type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewErrorEnvelope builds an error envelope.
func NewErrorEnvelope(code, message string) *ErrorEnvelope {
	return &ErrorEnvelope{
		MsgType: KindError,
		Code:    code,
		Message: message,
	}
}
