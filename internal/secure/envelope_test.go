package secure

import (
	"bytes"
	"encoding/json"
	"testing"
)

type testEnvelope struct {
	Type string `json:"type"`
	Msg  string `json:"msg"`
}

func TestEnvelopeWithAttachment(t *testing.T) {
	attachment := bytes.Repeat([]byte{0xAB}, 1000)

	data, err := EncodeEnvelope(testEnvelope{Type: "file", Msg: "report"}, attachment)
	if err != nil {
		t.Fatalf("EncodeEnvelope: %v", err)
	}

	raw, got, err := DecodeEnvelope(data)
	if err != nil {
		t.Fatalf("DecodeEnvelope: %v", err)
	}

	var env testEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	if env.Type != "file" || env.Msg != "report" {
		t.Fatalf("envelope = %+v", env)
	}
	if !bytes.Equal(got, attachment) {
		t.Fatalf("attachment corrupted: %d bytes, want %d", len(got), len(attachment))
	}
}

func TestEnvelopeWithoutAttachment(t *testing.T) {
	data, err := EncodeEnvelope(testEnvelope{Type: "secmsg", Msg: "hi"}, nil)
	if err != nil {
		t.Fatalf("EncodeEnvelope: %v", err)
	}

	raw, attachment, err := DecodeEnvelope(data)
	if err != nil {
		t.Fatalf("DecodeEnvelope: %v", err)
	}
	if attachment != nil {
		t.Fatalf("attachment = %d bytes, want none", len(attachment))
	}

	var env testEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	if env.Msg != "hi" {
		t.Fatalf("envelope = %+v", env)
	}
}

func TestEnvelopeBinaryAttachmentWithBraces(t *testing.T) {
	// Attachment bytes that look like JSON must not confuse the split.
	attachment := []byte(`{"type":"fake"}{"more":"json"}`)

	data, err := EncodeEnvelope(testEnvelope{Type: "file"}, attachment)
	if err != nil {
		t.Fatalf("EncodeEnvelope: %v", err)
	}
	_, got, err := DecodeEnvelope(data)
	if err != nil {
		t.Fatalf("DecodeEnvelope: %v", err)
	}
	if !bytes.Equal(got, attachment) {
		t.Fatalf("attachment = %q", got)
	}
}

func TestDecodeEnvelopeMalformed(t *testing.T) {
	cases := map[string][]byte{
		"not json":               []byte("plain text"),
		"missing length":         []byte(`{"type":"secmsg"}`),
		"short length field":     append([]byte(`{"type":"secmsg"}`), 0x01),
		"length beyond message":  append([]byte(`{"type":"secmsg"}`), 0xFF, 0x00, 0x00, 0x00),
		"empty":                  nil,
	}
	for name, data := range cases {
		if _, _, err := DecodeEnvelope(data); err == nil {
			t.Fatalf("%s: decoded without error", name)
		}
	}
}

func TestEnvelopeThroughCipher(t *testing.T) {
	c := testCipher(t)

	attachment := make([]byte, 2048)
	data, err := EncodeEnvelope(testEnvelope{Type: "file", Msg: "blob"}, attachment)
	if err != nil {
		t.Fatalf("EncodeEnvelope: %v", err)
	}

	blob, err := c.Seal(data)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	opened, err := c.Open(blob)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	raw, got, err := DecodeEnvelope(opened)
	if err != nil {
		t.Fatalf("DecodeEnvelope: %v", err)
	}
	var env testEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if env.Msg != "blob" || len(got) != len(attachment) {
		t.Fatalf("round trip lost data: env=%+v attachment=%d", env, len(got))
	}
}
