package relay

import (
	"context"
	"io"
	"sync"
	"time"
)

// pipeConn is an in-memory message conn; newConnPipe returns the two
// ends of one connection. Closing either end fails both sides, like a
// real socket.
type pipeConn struct {
	in     chan []byte
	out    chan []byte
	closed chan struct{}
	once   *sync.Once
}

func newConnPipe() (*pipeConn, *pipeConn) {
	aToB := make(chan []byte, 16)
	bToA := make(chan []byte, 16)
	closed := make(chan struct{})
	once := &sync.Once{}

	a := &pipeConn{in: bToA, out: aToB, closed: closed, once: once}
	b := &pipeConn{in: aToB, out: bToA, closed: closed, once: once}
	return a, b
}

func (c *pipeConn) ReadMessage(ctx context.Context) ([]byte, error) {
	select {
	case data := <-c.in:
		return data, nil
	case <-c.closed:
		return nil, io.EOF
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *pipeConn) WriteMessage(ctx context.Context, data []byte) error {
	select {
	case c.out <- data:
		return nil
	case <-c.closed:
		return io.ErrClosedPipe
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *pipeConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

// mustRead fails the test unless a message arrives within the deadline.
func mustRead(t testingT, c *pipeConn, timeout time.Duration) []byte {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	data, err := c.ReadMessage(ctx)
	if err != nil {
		t.Fatalf("expected message, got error: %v", err)
	}
	return data
}

// mustNotRead fails the test if any message arrives within the window.
func mustNotRead(t testingT, c *pipeConn, window time.Duration) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), window)
	defer cancel()

	if data, err := c.ReadMessage(ctx); err == nil {
		t.Fatalf("expected no message, got %d bytes", len(data))
	}
}

// waitForCount polls until the room reaches the wanted member count.
func waitForCount(t testingT, r *Room, want int) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if r.MembersCount() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("room never reached %d members, have %d", want, r.MembersCount())
}

type testingT interface {
	Helper()
	Fatalf(format string, args ...any)
}
