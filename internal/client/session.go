package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/Lesoorub/SecureChat/internal/proto"
	"github.com/Lesoorub/SecureChat/internal/secure"
)

// conn is the transport a session runs over.
type conn interface {
	ReadMessage(ctx context.Context) ([]byte, error)
	WriteMessage(ctx context.Context, data []byte) error
	Close() error
}

// Incoming is one message delivered to the session. Exactly one of
// Service and Envelope is set: Service carries a plaintext control
// message, Envelope the decrypted JSON head of a relayed message with
// its attachment, if any.
type Incoming struct {
	Service    json.RawMessage
	Envelope   json.RawMessage
	Attachment []byte
}

// Session is one authenticated, encrypted membership in a room.
type Session struct {
	conn   conn
	cipher *secure.Cipher
	log    *zerolog.Logger

	// sendMu serializes writes on the shared socket.
	sendMu sync.Mutex

	// recvMu guards the reader and messages parked by MembersCount.
	recvMu  sync.Mutex
	pending []*Incoming
}

func newSession(c conn, cipher *secure.Cipher, logger *zerolog.Logger) *Session {
	return &Session{conn: c, cipher: cipher, log: logger}
}

// SendEnvelope encrypts env plus an optional attachment and sends it as
// one relay payload.
func (s *Session) SendEnvelope(ctx context.Context, env proto.ChatEnvelope, attachment []byte) error {
	plain, err := secure.EncodeEnvelope(env, attachment)
	if err != nil {
		return err
	}
	var sealed bytes.Buffer
	if err := s.cipher.EncryptStream(bytes.NewReader(plain), &sealed); err != nil {
		return err
	}
	return s.write(ctx, sealed.Bytes())
}

// SendText sends a chat message.
func (s *Session) SendText(ctx context.Context, userID, text string) error {
	return s.SendEnvelope(ctx, proto.ChatEnvelope{
		Type:   proto.TypeSecureMessage,
		UserID: userID,
		Msg:    text,
	}, nil)
}

// SendFile sends a named file as an attachment.
func (s *Session) SendFile(ctx context.Context, userID, name string, data []byte) error {
	return s.SendEnvelope(ctx, proto.ChatEnvelope{
		Type:   proto.TypeFileMessage,
		UserID: userID,
		Name:   name,
	}, data)
}

// SendService sends a plaintext control message. The marshaled envelope
// must stay within the service size bound or the relay would broadcast
// it as ciphertext.
func (s *Session) SendService(ctx context.Context, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal service message: %w", err)
	}
	if len(data) > proto.MaxServiceMessageBytes {
		return fmt.Errorf("service message is %d bytes, limit is %d", len(data), proto.MaxServiceMessageBytes)
	}
	return s.write(ctx, data)
}

// Receive returns the next message: first anything parked by a service
// round-trip, then the wire.
func (s *Session) Receive(ctx context.Context) (*Incoming, error) {
	s.recvMu.Lock()
	defer s.recvMu.Unlock()

	if len(s.pending) > 0 {
		in := s.pending[0]
		s.pending = s.pending[1:]
		return in, nil
	}
	return s.readOne(ctx)
}

// MembersCount asks the room for its member count and waits for the
// reply. Relay traffic arriving in between is parked for Receive.
func (s *Session) MembersCount(ctx context.Context) (int, error) {
	if err := s.SendService(ctx, proto.NewMembersCountRequest()); err != nil {
		return 0, err
	}

	s.recvMu.Lock()
	defer s.recvMu.Unlock()

	for {
		in, err := s.readOne(ctx)
		if err != nil {
			return 0, err
		}
		if in.Service != nil {
			var resp proto.MembersCountResponse
			if err := json.Unmarshal(in.Service, &resp); err == nil && resp.Action == proto.ActionMembersCount {
				return resp.Count, nil
			}
		}
		s.pending = append(s.pending, in)
	}
}

// readOne reads and classifies one wire message, mirroring the relay's
// own service heuristic so both sides agree on what is control traffic.
func (s *Session) readOne(ctx context.Context) (*Incoming, error) {
	data, err := s.conn.ReadMessage(ctx)
	if err != nil {
		return nil, err
	}

	if isServiceMessage(data) {
		return &Incoming{Service: json.RawMessage(bytes.Clone(data))}, nil
	}

	var plain bytes.Buffer
	if err := s.cipher.DecryptStream(bytes.NewReader(data), &plain); err != nil {
		return nil, err
	}
	envelope, attachment, err := secure.DecodeEnvelope(plain.Bytes())
	if err != nil {
		return nil, err
	}
	return &Incoming{Envelope: envelope, Attachment: attachment}, nil
}

func isServiceMessage(data []byte) bool {
	if len(data) == 0 || len(data) > proto.MaxServiceMessageBytes {
		return false
	}
	if data[0] != '{' || data[len(data)-1] != '}' {
		return false
	}
	var env proto.ServiceEnvelope
	return json.Unmarshal(data, &env) == nil && env.Action != ""
}

func (s *Session) write(ctx context.Context, data []byte) error {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	return s.conn.WriteMessage(ctx, data)
}

// Close tears the session down.
func (s *Session) Close() error {
	return s.conn.Close()
}
