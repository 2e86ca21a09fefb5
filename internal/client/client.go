// Package client is the Go client for the relay: room creation over
// HTTP, the join handshake, and the encrypted session on top of the
// websocket. All encryption happens here; the server only ever sees
// ciphertext.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/rs/zerolog"

	"github.com/Lesoorub/SecureChat/internal/handshake"
	"github.com/Lesoorub/SecureChat/internal/relay"
	"github.com/Lesoorub/SecureChat/internal/secure"
	"github.com/Lesoorub/SecureChat/internal/srp"
	"github.com/Lesoorub/SecureChat/internal/transport/ws"
)

// Client talks to one relay server.
type Client struct {
	baseURL string
	http    *http.Client
	log     *zerolog.Logger

	// HandshakeTimeout bounds the client side of the join handshake.
	HandshakeTimeout time.Duration
	// MaxMessageBytes caps one inbound message on joined sessions.
	MaxMessageBytes int64
}

// New builds a client for the server at baseURL (http:// or https://).
func New(baseURL string, logger *zerolog.Logger) *Client {
	return &Client{
		baseURL:          strings.TrimRight(baseURL, "/"),
		http:             &http.Client{},
		log:              logger,
		HandshakeTimeout: 5 * time.Second,
		MaxMessageBytes:  32 << 20,
	}
}

type createRoomRequest struct {
	Room     string `json:"room"`
	Salt     string `json:"salt"`
	Verifier string `json:"verifier"`
}

// CreateRoom registers a new room. The salt and verifier are derived
// locally; the password itself is never sent. A name collision surfaces
// as relay.ErrRoomNameTaken.
func (c *Client) CreateRoom(ctx context.Context, room, password string) error {
	salt, err := srp.GenerateSalt()
	if err != nil {
		return err
	}
	privateKey, err := srp.DerivePrivateKey(salt, room, password)
	if err != nil {
		return err
	}
	verifier, err := srp.DeriveVerifier(privateKey)
	if err != nil {
		return err
	}

	body, err := json.Marshal(createRoomRequest{Room: room, Salt: salt, Verifier: verifier})
	if err != nil {
		return fmt.Errorf("marshal create room request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/create", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build create room request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("create room: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusCreated, http.StatusOK:
		return nil
	case http.StatusConflict:
		return relay.ErrRoomNameTaken
	default:
		return fmt.Errorf("create room: unexpected status %d", resp.StatusCode)
	}
}

// JoinRoom dials the room's websocket, proves knowledge of the password
// via the handshake, derives the room key, and returns the encrypted
// session. The handshake failure reasons are deliberately coarse; do not
// expect to learn which step failed.
func (c *Client) JoinRoom(ctx context.Context, room, password string) (*Session, error) {
	wsURL := toWebsocketURL(c.baseURL) + "/chat/join?room=" + url.QueryEscape(room)

	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", wsURL, err)
	}
	wrapped := ws.Wrap(conn, c.MaxMessageBytes)

	hctx, cancel := context.WithTimeout(ctx, c.HandshakeTimeout)
	defer cancel()

	if _, err := handshake.Client(hctx, wrapped, room, password); err != nil {
		_ = wrapped.Close()
		return nil, err
	}

	// The session key is not the SRP key: every member derives the same
	// AEAD key from the password and room name, so members can read each
	// other while the server stays blind.
	cipher, err := secure.NewCipher(secure.DeriveRoomKey(password, room))
	if err != nil {
		_ = wrapped.Close()
		return nil, err
	}

	c.log.Debug().Str("room", room).Msg("joined room")
	return newSession(wrapped, cipher, c.log), nil
}

func toWebsocketURL(base string) string {
	return strings.Replace(base, "http", "ws", 1)
}
