package client

import (
	"bufio"
	"context"
	"io"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"sockethttp/application/http"
	"sockethttp/transport"
	"sockethttp/transport/pipe"

	"github.com/pkg/errors"
)

// receivedRequest is what the test server saw on the wire.
type receivedRequest struct {
	Method  string
	Target  string
	Version string
	Headers http.Fields
	Body    []byte

	Conn int // 1-based index of the connection it arrived on.
}

type reply struct {
	raw string

	// hangup closes the connection after raw is written.
	hangup bool
}

// testServer answers requests arriving over a pipe transport with scripted replies.
type testServer struct {
	lis    *pipe.PipeListener
	handle func(req receivedRequest) reply

	conns    atomic.Int32
	mu       sync.Mutex
	received []receivedRequest

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func startTestServer(pt *pipe.PipeTransport, addr transport.Addr, handle func(req receivedRequest) reply) (*testServer, error) {
	lis, err := pt.Listen(addr)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	srv := &testServer{lis: lis, handle: handle, cancel: cancel}

	srv.wg.Add(1)
	go func() {
		defer srv.wg.Done()
		for {
			con, err := lis.Accept(ctx)
			if err != nil {
				return
			}
			idx := int(srv.conns.Add(1))

			srv.wg.Add(1)
			go func() {
				defer srv.wg.Done()
				srv.serve(con, idx)
			}()
		}
	}()

	return srv, nil
}

func (srv *testServer) serve(con transport.Conn, idx int) {
	defer con.Close()

	br := bufio.NewReader(con)
	for {
		req, err := readTestRequest(br)
		if err != nil {
			return
		}
		req.Conn = idx

		srv.mu.Lock()
		srv.received = append(srv.received, req)
		srv.mu.Unlock()

		r := srv.handle(req)
		if r.raw != "" {
			if _, err := io.WriteString(con, r.raw); err != nil {
				return
			}
		}
		if r.hangup {
			return
		}
	}
}

func (srv *testServer) requests() []receivedRequest {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	return append([]receivedRequest(nil), srv.received...)
}

func (srv *testServer) dials() int { return int(srv.conns.Load()) }

// stop waits for open connections to be closed by the client.
func (srv *testServer) stop() {
	srv.cancel()
	srv.lis.Close()
	srv.wg.Wait()
}

func readTestRequest(br *bufio.Reader) (receivedRequest, error) {
	var req receivedRequest

	line, err := br.ReadString('\n')
	if err != nil {
		return req, err
	}
	parts := strings.SplitN(strings.TrimSuffix(line, "\r\n"), " ", 3)
	if len(parts) != 3 {
		return req, errors.Errorf("bad request line %q", line)
	}
	req.Method, req.Target, req.Version = parts[0], parts[1], parts[2]

	for {
		line, err := br.ReadString('\n')
		if err != nil {
			return req, err
		}
		line = strings.TrimSuffix(line, "\r\n")
		if line == "" {
			break
		}
		field, err := http.ParseField([]byte(line))
		if err != nil {
			return req, err
		}
		req.Headers = append(req.Headers, field)
	}

	if v, ok := req.Headers.Get("Content-Length"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return req, err
		}
		req.Body = make([]byte, n)
		if _, err := io.ReadFull(br, req.Body); err != nil {
			return req, err
		}
	}

	return req, nil
}

func okReply(body string) reply {
	return reply{raw: "HTTP/1.1 200 OK\r\nContent-Length: " + strconv.Itoa(len(body)) + "\r\n\r\n" + body}
}

func redirectReply(status int, location string) reply {
	return reply{raw: "HTTP/1.1 " + strconv.Itoa(status) + " Redirect\r\nLocation: " + location + "\r\nContent-Length: 0\r\n\r\n"}
}
