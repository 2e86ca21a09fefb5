package relay

import "errors"

var (
	// ErrRoomNotFound means a join targeted a room name with no live room.
	// The connection is simply dropped; no error frame is sent.
	ErrRoomNotFound = errors.New("relay: room not found")
	// ErrRoomNameTaken means a create collided with an existing room.
	ErrRoomNameTaken = errors.New("relay: room name already taken")
	// ErrRoomDisposed means the room was shut down before or during a join.
	ErrRoomDisposed = errors.New("relay: room is disposed")
)
