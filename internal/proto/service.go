// Package proto defines the wire-level message shapes shared by the
// relay server and clients: the small unencrypted service envelopes and
// the JSON envelopes carried inside the encrypted channel.
package proto

// MaxServiceMessageBytes bounds a service message on the wire. The bound
// is what lets an endpoint multiplex the cheap control channel with the
// encrypted channel on one socket: anything larger is relay traffic, no
// framing byte needed. New actions must fit their whole envelope under it.
const MaxServiceMessageBytes = 256

// ServiceEnvelope is the self-describing prefix every service message
// shares: {"action": "<name>", ...}.
type ServiceEnvelope struct {
	Action string `json:"action"`
}

// Known service actions. The set is open; the relay dispatches on the
// action string and forwards unknown actions as opaque payloads.
const (
	// ActionMembersCount asks the room how many members it currently has.
	ActionMembersCount = "members_count"
)

// MembersCountRequest queries the current member count of a room.
type MembersCountRequest struct {
	Action string `json:"action"`
}

// NewMembersCountRequest builds a well-formed member-count query.
func NewMembersCountRequest() MembersCountRequest {
	return MembersCountRequest{Action: ActionMembersCount}
}

// MembersCountResponse answers a MembersCountRequest. It goes only to the
// member that asked.
type MembersCountResponse struct {
	Action string `json:"action"`
	Count  int    `json:"count"`
}
