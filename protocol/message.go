// Copyright © 2025 Glycin-Go contributors
// SPDX-License-Identifier: LGPL-2.1-or-later
//
// File: protocol/message.go
// Summary: The envelope carried inside every frame's payload, and the
// interface/method names the bus dispatches on.
// Notes: Grounded on the wire envelope in other_examples' maboo protocol
// (opcode + correlation id + MessagePack body), generalized to also
// carry a D-Bus-style interface/object path pair per the spec's
// org.gnome.glycin.{Loader,Editor} split.

package protocol

import "github.com/vmihailenco/msgpack/v5"

// ObjectPath is the sole object every glycin worker exports.
const ObjectPath = "/org/gnome/glycin"

// Interface names a worker exposes at ObjectPath.
const (
	InterfaceLoader = "org.gnome.glycin.Loader"
	InterfaceEditor = "org.gnome.glycin.Editor"
)

// Envelope is the MessagePack-encoded payload of every frame. For MsgCall,
// Interface/Method/Body/NumFiles are set. For MsgReturn, Body and NumFiles
// are set. For MsgError, ErrorName/ErrorMessage are set and Body is empty.
type Envelope struct {
	Interface    string `msgpack:"interface,omitempty"`
	Method       string `msgpack:"method,omitempty"`
	Body         []byte `msgpack:"body,omitempty"`
	ErrorName    string `msgpack:"error_name,omitempty"`
	ErrorMessage string `msgpack:"error_message,omitempty"`
	NumFiles     int    `msgpack:"num_files,omitempty"`
}

// EncodeEnvelope serializes env for transport as a frame payload.
func EncodeEnvelope(env Envelope) ([]byte, error) {
	return msgpack.Marshal(env)
}

// DecodeEnvelope parses a frame payload back into an Envelope.
func DecodeEnvelope(payload []byte) (Envelope, error) {
	var env Envelope
	err := msgpack.Unmarshal(payload, &env)
	return env, err
}

// EncodeBody serializes an arbitrary typed dictionary (a wire.* struct) for
// embedding in an Envelope's Body field.
func EncodeBody(v interface{}) ([]byte, error) {
	return msgpack.Marshal(v)
}

// DecodeBody parses an Envelope's Body field into the given destination.
func DecodeBody(body []byte, dst interface{}) error {
	if len(body) == 0 {
		return nil
	}
	return msgpack.Unmarshal(body, dst)
}
