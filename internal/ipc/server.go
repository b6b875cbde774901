package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"
)

const (
	// maxRequestBytes bounds one request line.
	maxRequestBytes = 4 << 10
	// requestReadTimeout keeps a silent client from holding shutdown open.
	requestReadTimeout = 2 * time.Second
)

// Handler processes one IPC command request.
type Handler interface {
	Handle(context.Context, Request) Response
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(context.Context, Request) Response

func (f HandlerFunc) Handle(ctx context.Context, req Request) Response {
	return f(ctx, req)
}

// Serve accepts unix-socket clients until context cancellation or listener close.
// Each connection carries exactly one request line and one response line.
func Serve(ctx context.Context, listener net.Listener, handler Handler) error {
	var wg sync.WaitGroup

	go func() {
		<-ctx.Done()
		_ = listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				wg.Wait()
				return nil
			}
			return fmt.Errorf("accept IPC connection: %w", err)
		}

		wg.Add(1)
		go func(c net.Conn) {
			defer wg.Done()
			defer c.Close()
			serveConn(ctx, c, handler)
		}(conn)
	}
}

func serveConn(ctx context.Context, conn net.Conn, handler Handler) {
	_ = conn.SetReadDeadline(time.Now().Add(requestReadTimeout))

	enc := json.NewEncoder(conn)
	line, err := bufio.NewReader(io.LimitReader(conn, maxRequestBytes)).ReadBytes('\n')
	if err != nil {
		_ = enc.Encode(Response{OK: false, Error: fmt.Sprintf("read request: %v", err)})
		return
	}

	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		_ = enc.Encode(Response{OK: false, Error: fmt.Sprintf("decode request: %v", err)})
		return
	}

	resp := handler.Handle(ctx, req)
	resp.ID = req.ID
	_ = enc.Encode(resp)
}
