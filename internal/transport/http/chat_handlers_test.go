package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	stdhttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Lesoorub/SecureChat/internal/client"
	"github.com/Lesoorub/SecureChat/internal/config"
	"github.com/Lesoorub/SecureChat/internal/handshake"
	"github.com/Lesoorub/SecureChat/internal/log"
	"github.com/Lesoorub/SecureChat/internal/proto"
	"github.com/Lesoorub/SecureChat/internal/relay"
)

func newTestServer(t *testing.T) (*httptest.Server, *relay.Registry) {
	t.Helper()

	registry := relay.NewRegistry(relay.Options{}, log.Nop())
	cfg := config.Default()
	srv := NewServer(registry, cfg, log.Nop())

	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(func() {
		registry.Close()
		ts.Close()
	})
	return ts, registry
}

func postJSON(t *testing.T, url string, body any) *stdhttp.Response {
	t.Helper()

	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp, err := stdhttp.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHealth(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := stdhttp.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != stdhttp.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "ok" {
		t.Fatalf("body = %q", body)
	}
}

func TestCreateRoom(t *testing.T) {
	ts, registry := newTestServer(t)

	resp := postJSON(t, ts.URL+"/chat/create", CreateRoomRequest{
		Room: "lobby", Salt: "aa", Verifier: "bb",
	})
	if resp.StatusCode != stdhttp.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
	if _, ok := registry.Room("lobby"); !ok {
		t.Fatal("room not in registry")
	}

	resp = postJSON(t, ts.URL+"/chat/create", CreateRoomRequest{
		Room: "lobby", Salt: "cc", Verifier: "dd",
	})
	if resp.StatusCode != stdhttp.StatusConflict {
		t.Fatalf("duplicate status = %d, want 409", resp.StatusCode)
	}
}

func TestCreateRoomValidation(t *testing.T) {
	ts, _ := newTestServer(t)

	for name, body := range map[string]any{
		"missing verifier": map[string]string{"room": "x", "salt": "aa"},
		"missing room":     map[string]string{"salt": "aa", "verifier": "bb"},
		"empty room":       map[string]string{"room": "", "salt": "aa", "verifier": "bb"},
	} {
		resp := postJSON(t, ts.URL+"/chat/create", body)
		if resp.StatusCode != stdhttp.StatusBadRequest {
			t.Fatalf("%s: status = %d, want 400", name, resp.StatusCode)
		}
	}
}

func TestJoinMissingRoomParam(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := stdhttp.Get(ts.URL + "/chat/join")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != stdhttp.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestEndToEndEncryptedRelay(t *testing.T) {
	if testing.Short() {
		t.Skip("joins pay the full room key derivation")
	}

	ts, _ := newTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cl := client.New(ts.URL, log.Nop())

	if err := cl.CreateRoom(ctx, "lobby", "hunter2"); err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}
	if err := cl.CreateRoom(ctx, "lobby", "hunter2"); !errors.Is(err, relay.ErrRoomNameTaken) {
		t.Fatalf("duplicate CreateRoom = %v, want ErrRoomNameTaken", err)
	}

	alice, err := cl.JoinRoom(ctx, "lobby", "hunter2")
	if err != nil {
		t.Fatalf("alice join: %v", err)
	}
	defer alice.Close()

	bob, err := cl.JoinRoom(ctx, "lobby", "hunter2")
	if err != nil {
		t.Fatalf("bob join: %v", err)
	}
	defer bob.Close()

	if err := alice.SendText(ctx, "alice", "hello bob"); err != nil {
		t.Fatalf("send: %v", err)
	}

	in, err := bob.Receive(ctx)
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	var env proto.ChatEnvelope
	if err := json.Unmarshal(in.Envelope, &env); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if env.Type != proto.TypeSecureMessage || env.UserID != "alice" || env.Msg != "hello bob" {
		t.Fatalf("envelope = %+v", env)
	}

	// Attachment path.
	payload := bytes.Repeat([]byte{0x42}, 100*1024)
	if err := alice.SendFile(ctx, "alice", "blob.bin", payload); err != nil {
		t.Fatalf("send file: %v", err)
	}
	in, err = bob.Receive(ctx)
	if err != nil {
		t.Fatalf("receive file: %v", err)
	}
	if err := json.Unmarshal(in.Envelope, &env); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if env.Type != proto.TypeFileMessage || env.Name != "blob.bin" || !bytes.Equal(in.Attachment, payload) {
		t.Fatalf("file envelope = %+v, attachment %d bytes", env, len(in.Attachment))
	}

	count, err := alice.MembersCount(ctx)
	if err != nil {
		t.Fatalf("MembersCount: %v", err)
	}
	if count != 2 {
		t.Fatalf("members = %d, want 2", count)
	}
}

func TestJoinWrongPassword(t *testing.T) {
	if testing.Short() {
		t.Skip("runs a live handshake")
	}

	ts, _ := newTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cl := client.New(ts.URL, log.Nop())
	if err := cl.CreateRoom(ctx, "vault", "right"); err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}

	_, err := cl.JoinRoom(ctx, "vault", "wrong")
	if !handshake.IsReason(err, handshake.ReasonWrongPassword) {
		t.Fatalf("join = %v, want wrong_password", err)
	}
}

func TestJoinUnknownRoomDropsConnection(t *testing.T) {
	ts, _ := newTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cl := client.New(ts.URL, log.Nop())
	cl.HandshakeTimeout = 2 * time.Second

	if _, err := cl.JoinRoom(ctx, "nowhere", "pw"); err == nil {
		t.Fatal("join to unknown room succeeded")
	}
}
