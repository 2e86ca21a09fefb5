// Package relay implements the server core: the process-wide room
// registry, per-room membership and broadcast, and the unencrypted
// service-message channel multiplexed onto the same socket.
package relay

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Options tunes registry and room behavior. Zero values fall back to the
// production defaults.
type Options struct {
	// SweepInterval is how often empty rooms are evicted.
	SweepInterval time.Duration
	// HandshakeTimeout caps a joining connection's whole handshake.
	HandshakeTimeout time.Duration
	// AuthDelay is the uniform post-handshake delay, see RoomConfig.
	AuthDelay time.Duration
}

func (o Options) withDefaults() Options {
	if o.SweepInterval <= 0 {
		o.SweepInterval = 5 * time.Minute
	}
	if o.HandshakeTimeout <= 0 {
		o.HandshakeTimeout = 5 * time.Second
	}
	return o
}

// Registry owns the mapping from room name to live room. It is the only
// process-wide room state; inject it into whatever accepts connections.
type Registry struct {
	opts Options
	log  *zerolog.Logger

	mu    sync.RWMutex
	rooms map[string]*Room
}

// NewRegistry builds an empty registry.
func NewRegistry(opts Options, logger *zerolog.Logger) *Registry {
	return &Registry{
		opts:  opts.withDefaults(),
		log:   logger,
		rooms: make(map[string]*Room),
	}
}

// CreateRoom inserts a new room under name. It reports false, leaving the
// existing room untouched, when the name is already taken.
func (g *Registry) CreateRoom(name, salt, verifier string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.rooms[name]; exists {
		return false
	}
	g.rooms[name] = NewRoom(name, salt, verifier, RoomConfig{
		HandshakeTimeout: g.opts.HandshakeTimeout,
		AuthDelay:        g.opts.AuthDelay,
	}, g.log)
	g.log.Info().Str("room", name).Msg("room created")
	return true
}

// JoinRoom hands the connection to the named room and blocks until the
// membership ends. An absent room closes the connection and returns
// ErrRoomNotFound; what, if anything, to tell the peer is the caller's
// decision.
func (g *Registry) JoinRoom(ctx context.Context, name string, conn Conn) error {
	g.mu.RLock()
	room, ok := g.rooms[name]
	g.mu.RUnlock()

	if !ok {
		_ = conn.Close()
		return ErrRoomNotFound
	}
	return room.Join(ctx, conn)
}

// Room looks up a live room by name.
func (g *Registry) Room(name string) (*Room, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	room, ok := g.rooms[name]
	return room, ok
}

// Len returns the number of live rooms.
func (g *Registry) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.rooms)
}

// Run evicts empty rooms every sweep interval until ctx is cancelled.
// A failing pass is logged and never kills the loop.
func (g *Registry) Run(ctx context.Context) {
	ticker := time.NewTicker(g.opts.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.sweep()
		}
	}
}

// sweep removes every room with zero members. Coarse by design: a full
// scan on a fixed interval is plenty at the scale of one process.
func (g *Registry) sweep() {
	defer func() {
		if rec := recover(); rec != nil {
			g.log.Error().Interface("panic", rec).Msg("room sweep failed")
		}
	}()

	g.mu.Lock()
	defer g.mu.Unlock()

	for name, room := range g.rooms {
		if room.MembersCount() == 0 {
			room.Dispose()
			delete(g.rooms, name)
			g.log.Debug().Str("room", name).Msg("evicted empty room")
		}
	}
}

// Close disposes every room and empties the registry.
func (g *Registry) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()

	for name, room := range g.rooms {
		room.Dispose()
		delete(g.rooms, name)
	}
}
