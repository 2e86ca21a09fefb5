package relay

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Lesoorub/SecureChat/internal/proto"
)

// ServiceHandler answers one control action. Replies go directly to the
// sender; service messages are never broadcast.
type ServiceHandler func(ctx context.Context, room *Room, sender *Member, raw []byte) error

// Handle registers a handler for a control action. Built-in actions can
// be overridden. Handlers must keep their replies within
// proto.MaxServiceMessageBytes so peers can classify them cheaply.
func (r *Room) Handle(action string, h ServiceHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[action] = h
}

func (r *Room) registerBuiltinHandlers() {
	r.Handle(proto.ActionMembersCount, membersCount)
}

// dispatchService decides whether data is a service message and, if so,
// dispatches it. The classification is a size-and-shape heuristic: small,
// JSON-object-shaped, and carrying a known action string. Encrypted relay
// payloads start with a random nonce, so a ciphertext passing all three
// checks is astronomically unlikely; the heuristic buys an unframed
// control channel at that residual risk.
func (r *Room) dispatchService(ctx context.Context, sender *Member, data []byte) bool {
	if len(data) == 0 || len(data) > proto.MaxServiceMessageBytes {
		return false
	}
	if data[0] != '{' || data[len(data)-1] != '}' {
		return false
	}
	var env proto.ServiceEnvelope
	if err := json.Unmarshal(data, &env); err != nil || env.Action == "" {
		return false
	}

	r.mu.Lock()
	h, ok := r.handlers[env.Action]
	r.mu.Unlock()
	if !ok {
		// Unknown actions are relayed as opaque payloads.
		return false
	}

	if err := h(ctx, r, sender, data); err != nil {
		r.log.Warn().Err(err).Str("action", env.Action).Str("member_id", sender.ID).Msg("service handler failed")
	}
	return true
}

// membersCount answers the member-count query with the room's current
// size. Only the asking member sees the response.
func membersCount(ctx context.Context, room *Room, sender *Member, _ []byte) error {
	resp, err := json.Marshal(proto.MembersCountResponse{
		Action: proto.ActionMembersCount,
		Count:  room.MembersCount(),
	})
	if err != nil {
		return fmt.Errorf("marshal members_count response: %w", err)
	}
	sender.send(ctx, resp, room.log)
	return nil
}
