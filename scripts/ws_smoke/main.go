// Smoke test against a running relay: create a room, join it twice,
// push one encrypted message through and read it back.
//
//	go run ./scripts/ws_smoke -server http://localhost:5000
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/Lesoorub/SecureChat/internal/client"
	zl "github.com/Lesoorub/SecureChat/internal/log"
	"github.com/Lesoorub/SecureChat/internal/proto"
	"github.com/Lesoorub/SecureChat/internal/relay"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

func run() error {
	server := flag.String("server", "http://localhost:5000", "relay base URL")
	room := flag.String("room", "", "room name, random when empty")
	password := flag.String("password", "smoke-test-pw", "room password")
	text := flag.String("text", "hello from smoke test", "message text to send")
	timeout := flag.Duration("timeout", 30*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	roomName := *room
	if roomName == "" {
		roomName = "smoke-" + uuid.NewString()
	}

	cl := client.New(*server, zl.New("warn"))

	if err := cl.CreateRoom(ctx, roomName, *password); err != nil && !errors.Is(err, relay.ErrRoomNameTaken) {
		return fmt.Errorf("create room: %w", err)
	}
	fmt.Printf("room %q ready\n", roomName)

	sender, err := cl.JoinRoom(ctx, roomName, *password)
	if err != nil {
		return fmt.Errorf("sender join: %w", err)
	}
	defer sender.Close()

	receiver, err := cl.JoinRoom(ctx, roomName, *password)
	if err != nil {
		return fmt.Errorf("receiver join: %w", err)
	}
	defer receiver.Close()

	count, err := sender.MembersCount(ctx)
	if err != nil {
		return fmt.Errorf("members count: %w", err)
	}
	fmt.Printf("members in room: %d\n", count)

	if err := sender.SendText(ctx, "smoke-sender", *text); err != nil {
		return fmt.Errorf("send: %w", err)
	}

	in, err := receiver.Receive(ctx)
	if err != nil {
		return fmt.Errorf("receive: %w", err)
	}
	var env proto.ChatEnvelope
	if err := json.Unmarshal(in.Envelope, &env); err != nil {
		return fmt.Errorf("unmarshal envelope: %w", err)
	}
	if env.Msg != *text {
		return fmt.Errorf("got %q, sent %q", env.Msg, *text)
	}

	fmt.Printf("relayed ok: user=%s text=%q\n", env.UserID, env.Msg)
	return nil
}
