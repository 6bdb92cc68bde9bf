package pipe

import (
	"context"
	"sync"

	"sockethttp/transport"

	"github.com/benbjohnson/clock"
)

type pipeRequest struct {
	conn     transport.Conn
	accepted chan bool
}

// PipeTransport dials in-memory connections to listeners registered on the same transport.
type PipeTransport struct {
	listeners map[transport.Addr]*PipeListener
	clock     clock.Clock

	mu sync.Mutex
}

func NewPipeTransport(clock clock.Clock) *PipeTransport {
	return &PipeTransport{
		listeners: make(map[transport.Addr]*PipeListener),
		clock:     clock,
	}
}

var _ transport.ConnDialer = (*PipeTransport)(nil)

func (pt *PipeTransport) Dial(ctx context.Context, addr transport.Addr) (transport.Conn, error) {
	pt.mu.Lock()
	listener, ok := pt.listeners[addr]
	pt.mu.Unlock()

	if !ok {
		return nil, transport.ErrNetUnreachable
	}

	c1, c2 := Pair(pt.clock)

	req := pipeRequest{
		conn:     c2,
		accepted: make(chan bool, 1),
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-listener.closed:
		return nil, transport.ErrConnRefused
	case listener.requests <- req:
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case accepted := <-req.accepted:
		if !accepted {
			return nil, transport.ErrConnRefused
		}
	}

	return c1, nil
}

func (pt *PipeTransport) Listen(addr transport.Addr) (*PipeListener, error) {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	if _, ok := pt.listeners[addr]; ok {
		return nil, transport.ErrAddrAlreadyInUse
	}

	pl := &PipeListener{
		addr:      addr,
		transport: pt,
		requests:  make(chan pipeRequest),
		closed:    make(chan struct{}),
	}
	pt.listeners[addr] = pl

	return pl, nil
}

type PipeListener struct {
	addr      transport.Addr
	transport *PipeTransport

	requests chan pipeRequest
	closed   chan struct{}

	mu sync.Mutex
}

var _ transport.ConnListener = (*PipeListener)(nil)

func (pl *PipeListener) Addr() transport.Addr { return pl.addr }

func (pl *PipeListener) Accept(ctx context.Context) (transport.Conn, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-pl.closed:
		return nil, transport.ErrConnListenerClosed
	case request := <-pl.requests:
		request.accepted <- true
		return request.conn, nil
	}
}

func (pl *PipeListener) Close() error {
	pl.mu.Lock()
	defer pl.mu.Unlock()

	if isClosed(pl.closed) {
		return transport.ErrConnListenerClosed
	}
	close(pl.closed)

	pl.transport.mu.Lock()
	delete(pl.transport.listeners, pl.addr)
	pl.transport.mu.Unlock()

	return nil
}
