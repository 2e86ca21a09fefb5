package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Lesoorub/SecureChat/internal/client"
	"github.com/Lesoorub/SecureChat/internal/handshake"
	"github.com/Lesoorub/SecureChat/internal/log"
	"github.com/Lesoorub/SecureChat/internal/proto"
)

func newChatCmd() *cobra.Command {
	var (
		server   string
		room     string
		password string
		user     string
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Join a room and chat from the terminal",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cl := client.New(server, log.New("warn"))
			sess, err := cl.JoinRoom(ctx, room, password)
			if err != nil {
				var he *handshake.Error
				if errors.As(err, &he) {
					return fmt.Errorf("authentication or connection failed (%s)", he.Reason)
				}
				return err
			}
			defer sess.Close()

			fmt.Printf("Joined %s as %s. Type messages, /members for a head count, /quit to leave.\n", room, user)

			_ = sess.SendEnvelope(ctx, proto.ChatEnvelope{Type: proto.TypeUserConnected, UserID: user}, nil)
			defer func() {
				_ = sess.SendEnvelope(context.Background(), proto.ChatEnvelope{Type: proto.TypeUserDisconnected, UserID: user}, nil)
			}()

			ctx, cancel := context.WithCancel(ctx)
			defer cancel()
			go func() {
				defer cancel()
				printLoop(ctx, sess)
			}()

			inputLoop(ctx, sess, user)
			return nil
		},
	}

	cmd.Flags().StringVar(&server, "server", "http://localhost:5000", "relay base URL")
	cmd.Flags().StringVar(&room, "room", "", "room name")
	cmd.Flags().StringVar(&password, "password", "", "room password")
	cmd.Flags().StringVar(&user, "user", "cli-user", "display name")
	_ = cmd.MarkFlagRequired("room")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func printLoop(ctx context.Context, sess *client.Session) {
	for {
		in, err := sess.Receive(ctx)
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				fmt.Printf("connection lost: %v\n", err)
			}
			return
		}
		if in.Envelope == nil {
			continue
		}
		var env proto.ChatEnvelope
		if err := json.Unmarshal(in.Envelope, &env); err != nil {
			continue
		}
		switch env.Type {
		case proto.TypeSecureMessage:
			fmt.Printf("%s: %s\n", env.UserID, env.Msg)
		case proto.TypeFileMessage:
			fmt.Printf("%s sent file %s (%d bytes)\n", env.UserID, env.Name, len(in.Attachment))
		case proto.TypeUserConnected:
			fmt.Printf("* %s joined\n", env.UserID)
		case proto.TypeUserDisconnected:
			fmt.Printf("* %s left\n", env.UserID)
		}
	}
}

func inputLoop(ctx context.Context, sess *client.Session, user string) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == "/quit":
			return
		case line == "/members":
			count, err := sess.MembersCount(ctx)
			if err != nil {
				fmt.Printf("members query failed: %v\n", err)
				continue
			}
			fmt.Printf("* %d member(s) in the room\n", count)
		default:
			if err := sess.SendText(ctx, user, line); err != nil {
				fmt.Printf("send failed: %v\n", err)
				return
			}
		}
	}
}
