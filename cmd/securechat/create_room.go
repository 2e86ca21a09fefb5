package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Lesoorub/SecureChat/internal/client"
	"github.com/Lesoorub/SecureChat/internal/log"
	"github.com/Lesoorub/SecureChat/internal/relay"
)

func newCreateRoomCmd() *cobra.Command {
	var (
		server   string
		room     string
		password string
	)

	cmd := &cobra.Command{
		Use:   "create-room",
		Short: "Create a room on the relay",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cl := client.New(server, log.New("info"))
			err := cl.CreateRoom(cmd.Context(), room, password)
			if errors.Is(err, relay.ErrRoomNameTaken) {
				return fmt.Errorf("room %q already exists", room)
			}
			if err != nil {
				return err
			}
			fmt.Printf("room %q created\n", room)
			return nil
		},
	}

	cmd.Flags().StringVar(&server, "server", "http://localhost:5000", "relay base URL")
	cmd.Flags().StringVar(&room, "room", "", "room name")
	cmd.Flags().StringVar(&password, "password", "", "room password")
	_ = cmd.MarkFlagRequired("room")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
