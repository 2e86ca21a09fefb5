package relay

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Lesoorub/SecureChat/internal/handshake"
)

// RoomConfig bounds the authentication phase of a room.
type RoomConfig struct {
	// HandshakeTimeout caps the whole 4-message exchange.
	HandshakeTimeout time.Duration
	// AuthDelay is applied uniformly on every handshake exit path so
	// response timing does not reveal which outcome occurred.
	AuthDelay time.Duration
}

func (c RoomConfig) withDefaults() RoomConfig {
	if c.HandshakeTimeout <= 0 {
		c.HandshakeTimeout = 5 * time.Second
	}
	if c.AuthDelay < 0 {
		c.AuthDelay = 0
	}
	return c
}

// Room owns the set of authenticated members for one room name, the
// room's long-term (salt, verifier) pair, and the relay loop. It forwards
// encrypted traffic verbatim and never holds key material that could
// decrypt it.
type Room struct {
	name     string
	salt     string
	verifier string
	cfg      RoomConfig
	log      *zerolog.Logger

	mu       sync.Mutex
	members  []*Member
	disposed bool
	handlers map[string]ServiceHandler
}

// NewRoom builds a room for a stored (salt, verifier) pair. The plaintext
// password never reaches the server. The built-in service actions are
// registered here.
func NewRoom(name, salt, verifier string, cfg RoomConfig, logger *zerolog.Logger) *Room {
	r := &Room{
		name:     name,
		salt:     salt,
		verifier: verifier,
		cfg:      cfg.withDefaults(),
		log:      logger,
		handlers: make(map[string]ServiceHandler),
	}
	r.registerBuiltinHandlers()
	return r
}

// Name returns the room's registry key.
func (r *Room) Name() string { return r.name }

// MembersCount returns the current number of authenticated members.
func (r *Room) MembersCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members)
}

// IsDisposed reports whether the room has been shut down.
func (r *Room) IsDisposed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.disposed
}

// Join authenticates the connection and, on success, runs its relay loop
// until the socket closes, a read fails, or the room is disposed. The
// call blocks for the lifetime of the membership.
func (r *Room) Join(ctx context.Context, conn Conn) error {
	if err := r.authenticate(ctx, conn); err != nil {
		r.log.Info().Err(err).Str("room", r.name).Msg("handshake rejected")
		return err
	}
	return r.attach(ctx, conn)
}

// authenticate runs the server side of the handshake under its own
// timeout. Every exit path, success included, pays the same artificial
// delay; without it a fast "wrong password" response would let an
// attacker distinguish failure modes by timing.
func (r *Room) authenticate(ctx context.Context, conn Conn) error {
	if r.cfg.AuthDelay > 0 {
		defer time.Sleep(r.cfg.AuthDelay)
	}

	hctx, cancel := context.WithTimeout(ctx, r.cfg.HandshakeTimeout)
	defer cancel()

	_, err := handshake.Server(hctx, conn, r.name, r.salt, r.verifier)
	return err
}

func (r *Room) attach(ctx context.Context, conn Conn) error {
	m := newMember(conn)

	r.mu.Lock()
	if r.disposed {
		r.mu.Unlock()
		return ErrRoomDisposed
	}
	memberCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	r.members = append(r.members, m)
	r.mu.Unlock()

	r.log.Info().Str("room", r.name).Str("member_id", m.ID).Msg("member joined")

	defer func() {
		r.mu.Lock()
		for i, other := range r.members {
			if other == m {
				r.members = append(r.members[:i], r.members[i+1:]...)
				break
			}
		}
		r.mu.Unlock()
		cancel()
		r.log.Info().Str("room", r.name).Str("member_id", m.ID).Msg("member left")
	}()

	r.readLoop(memberCtx, m)
	return nil
}

// readLoop reads complete messages from one member and either answers
// them as service messages or fans them out to everyone else. It exits on
// the first read failure, which covers socket close, protocol errors and
// room disposal alike.
func (r *Room) readLoop(ctx context.Context, m *Member) {
	for {
		data, err := m.conn.ReadMessage(ctx)
		if err != nil {
			r.log.Debug().Err(err).Str("member_id", m.ID).Msg("member read loop ended")
			return
		}
		if r.dispatchService(ctx, m, data) {
			continue
		}
		r.broadcast(ctx, data, m)
	}
}

// broadcast fans data out to every member except the sender. The member
// snapshot is taken under the lock; the sends happen outside it, so a
// slow socket cannot block membership changes. The sender's loop waits
// for all sends to finish before reading its next message, which keeps
// per-sender FIFO delivery.
func (r *Room) broadcast(ctx context.Context, data []byte, sender *Member) {
	r.mu.Lock()
	if r.disposed {
		r.mu.Unlock()
		return
	}
	targets := make([]*Member, 0, len(r.members))
	for _, m := range r.members {
		if m != sender {
			targets = append(targets, m)
		}
	}
	r.mu.Unlock()

	if len(targets) == 0 {
		return
	}

	var wg sync.WaitGroup
	for _, m := range targets {
		wg.Add(1)
		go func(m *Member) {
			defer wg.Done()
			m.send(ctx, data, r.log)
		}(m)
	}
	wg.Wait()
}

// Dispose shuts the room down: no new members are accepted, and every
// member's read loop unwinds at its next blocking call.
func (r *Room) Dispose() {
	r.mu.Lock()
	if r.disposed {
		r.mu.Unlock()
		return
	}
	r.disposed = true
	members := r.members
	r.members = nil
	r.mu.Unlock()

	for _, m := range members {
		m.close()
	}
}
