package secure

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
)

// Logical message layout inside the encrypted channel:
// UTF-8 JSON envelope, then an int32-LE attachment length, then the
// attachment bytes. The length is always present and is zero when there
// is no attachment.

// EncodeEnvelope serializes v and appends the attachment section.
func EncodeEnvelope(v any, attachment []byte) ([]byte, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("secure: marshal envelope: %w", err)
	}
	out := make([]byte, 0, len(body)+4+len(attachment))
	out = append(out, body...)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(attachment)))
	out = append(out, attachment...)
	return out, nil
}

// DecodeEnvelope splits a decrypted message back into its JSON envelope
// and attachment. A missing or short attachment section is an error.
func DecodeEnvelope(data []byte) (json.RawMessage, []byte, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	var envelope json.RawMessage
	if err := dec.Decode(&envelope); err != nil {
		return nil, nil, fmt.Errorf("secure: parse envelope: %w", err)
	}

	rest := data[dec.InputOffset():]
	if len(rest) < 4 {
		return nil, nil, fmt.Errorf("secure: envelope missing attachment length")
	}
	n := int(binary.LittleEndian.Uint32(rest[:4]))
	rest = rest[4:]
	if n < 0 || n > len(rest) {
		return nil, nil, fmt.Errorf("secure: attachment length %d exceeds message", n)
	}
	if n == 0 {
		return envelope, nil, nil
	}
	return envelope, rest[:n], nil
}
