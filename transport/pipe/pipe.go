// Package pipe provides an in-memory transport whose connections behave like sockets:
// synchronous, unbuffered, with clock driven deadlines.
package pipe

import (
	"io"
	"sync"
	"time"

	"sockethttp/transport"

	"github.com/benbjohnson/clock"
)

type pipe struct {
	stream chan []byte // stream that this pipe reads from.
	nc     chan int    // counterpart's respond will be sent here.

	writeMu sync.Mutex

	closed chan struct{}
	once   sync.Once // making sure not to close closed channel.

	rdeadLine *chanDeadLine
	wdeadLine *chanDeadLine

	// the opposite pipe.
	counterpart *pipe
}

var _ transport.Conn = (*pipe)(nil)

// Pair creates a pair of connected pipes.
// Bytes written to one end are read from the other.
func Pair(clock clock.Clock) (c1, c2 transport.Conn) {
	p1, p2 := newPipe(clock), newPipe(clock)
	p1.counterpart, p2.counterpart = p2, p1
	return p1, p2
}

func newPipe(clock clock.Clock) *pipe {
	return &pipe{
		stream:    make(chan []byte),
		nc:        make(chan int),
		closed:    make(chan struct{}),
		rdeadLine: newChanDeadLine(clock),
		wdeadLine: newChanDeadLine(clock),
	}
}

func (p *pipe) Close() error {
	p.once.Do(func() { close(p.closed) })
	return nil
}

func (p *pipe) Read(b []byte) (n int, err error) {
	switch {
	case isClosed(p.closed):
		return 0, transport.ErrConnClosed
	case isClosed(p.counterpart.closed):
		return 0, io.EOF
	case isClosed(p.rdeadLine.wait()):
		return 0, transport.ErrDeadLineExceeded
	}

	select {
	case received := <-p.stream:
		n := copy(b, received)
		p.counterpart.nc <- n
		return n, nil
	case <-p.closed:
		return 0, transport.ErrConnClosed
	case <-p.counterpart.closed:
		return 0, io.EOF
	case <-p.rdeadLine.wait():
		return 0, transport.ErrDeadLineExceeded
	}
}

func (p *pipe) Write(b []byte) (n int, err error) {
	switch {
	case isClosed(p.closed), isClosed(p.counterpart.closed):
		return 0, transport.ErrConnClosed
	case isClosed(p.wdeadLine.wait()):
		return 0, transport.ErrDeadLineExceeded
	}

	if len(b) == 0 {
		return 0, nil
	}

	// Serialize write operations to prevent interleaving write.
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	nn := 0
	for len(b) > 0 {
		select {
		case p.counterpart.stream <- b:
			n := <-p.nc
			b = b[n:]
			nn += n
		case <-p.closed:
			return nn, transport.ErrConnClosed
		case <-p.counterpart.closed:
			return nn, transport.ErrConnClosed
		case <-p.wdeadLine.wait():
			return nn, transport.ErrDeadLineExceeded
		}
	}

	return nn, nil
}

func (p *pipe) SetReadDeadLine(t time.Time)  { p.rdeadLine.set(t) }
func (p *pipe) SetWriteDeadLine(t time.Time) { p.wdeadLine.set(t) }

// chanDeadLine is a channel closed once its deadline passes.
// Waiters keep the same channel across set calls until it fires.
type chanDeadLine struct {
	clock clock.Clock

	t   *clock.Timer
	gen uint64 // bumped on every set, so stale timers do nothing.
	m   sync.Mutex

	closed chan struct{}
}

func newChanDeadLine(clock clock.Clock) *chanDeadLine {
	return &chanDeadLine{
		clock:  clock,
		closed: make(chan struct{}),
	}
}

func (d *chanDeadLine) set(t time.Time) {
	d.m.Lock()
	defer d.m.Unlock()

	d.gen++
	if d.t != nil {
		d.t.Stop()
		d.t = nil
	}

	if isClosed(d.closed) {
		d.closed = make(chan struct{})
	}

	if t.IsZero() {
		// zero value means no limit.
		return
	}

	dur := d.clock.Until(t)
	if dur <= 0 {
		close(d.closed)
		return
	}

	gen, closed := d.gen, d.closed
	d.t = d.clock.AfterFunc(dur, func() {
		d.m.Lock()
		defer d.m.Unlock()
		if d.gen == gen && !isClosed(closed) {
			close(closed)
		}
	})
}

func (d *chanDeadLine) wait() <-chan struct{} {
	d.m.Lock()
	defer d.m.Unlock()
	return d.closed
}

func isClosed(c <-chan struct{}) bool {
	select {
	case <-c: // c will only fire at closed state.
		return true
	default:
		return false
	}
}
