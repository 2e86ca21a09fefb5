package relay

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Conn is one message-framed bidirectional socket. ReadMessage returns a
// complete logical message with transport fragmentation already
// reassembled; Close unblocks any pending read.
type Conn interface {
	ReadMessage(ctx context.Context) ([]byte, error)
	WriteMessage(ctx context.Context, data []byte) error
	Close() error
}

// Member is one authenticated connection inside a room.
type Member struct {
	ID   string
	conn Conn

	// sendMu serializes writes so concurrent broadcasts never interleave
	// bytes on the same socket.
	sendMu sync.Mutex

	mu     sync.Mutex
	closed bool
	cancel context.CancelFunc
}

func newMember(conn Conn) *Member {
	return &Member{ID: uuid.NewString(), conn: conn}
}

// send writes one message to the member's socket. Sending to a closed
// member is a silent no-op, and a write failure is logged and swallowed:
// one stuck or dead socket must never abort delivery to the others.
func (m *Member) send(ctx context.Context, data []byte, log *zerolog.Logger) {
	m.sendMu.Lock()
	defer m.sendMu.Unlock()

	if m.isClosed() {
		return
	}
	if err := m.conn.WriteMessage(ctx, data); err != nil {
		log.Debug().Err(err).Str("member_id", m.ID).Msg("member send failed")
	}
}

func (m *Member) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// close tears the member down: further sends become no-ops, the read loop
// is cancelled, and the socket is closed.
func (m *Member) close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	cancel := m.cancel
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	_ = m.conn.Close()
}
