package bridge

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"

	gojson "github.com/goccy/go-json"
	"github.com/google/uuid"
)

type call struct {
	ctx   context.Context
	req   Request
	reply chan Response
}

// Loopback is an in-process Transport. A single worker executes calls in
// arrival order. Requests and responses are passed through the JSON wire
// encoding so values reach the handler exactly as they would from another
// process. Once a call has been handed to the worker it runs to completion
// even if the caller's context is cancelled.
type Loopback struct {
	handler *Handler
	calls   chan call
	done    chan struct{}
	closers []io.Closer
	wg      sync.WaitGroup
	once    sync.Once
}

var _ Transport = (*Loopback)(nil)

// NewLoopback starts the worker. closers are closed after the worker stops.
func NewLoopback(h *Handler, closers ...io.Closer) *Loopback {
	l := &Loopback{handler: h, calls: make(chan call), done: make(chan struct{}), closers: closers}
	l.wg.Add(1)
	go l.run()
	return l
}

func (l *Loopback) run() {
	defer l.wg.Done()
	for {
		select {
		case c := <-l.calls:
			resp := l.handler.Handle(c.ctx, c.req)
			c.reply <- roundTrip(resp)
		case <-l.done:
			return
		}
	}
}

func (l *Loopback) Call(ctx context.Context, req Request) (Response, error) {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	wireReq, err := decodeRequest(mustEncode(req))
	if err != nil {
		return Response{}, err
	}
	c := call{ctx: context.WithoutCancel(ctx), req: wireReq, reply: make(chan Response, 1)}
	select {
	case l.calls <- c:
	case <-l.done:
		return Response{}, ErrClosed
	case <-ctx.Done():
		return Response{}, ctx.Err()
	}
	select {
	case resp := <-c.reply:
		return resp, nil
	case <-ctx.Done():
		return Response{}, ctx.Err()
	}
}

// Close stops the worker and releases owned resources.
func (l *Loopback) Close() error {
	var errs []error
	l.once.Do(func() {
		close(l.done)
		l.wg.Wait()
		for _, c := range l.closers {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	})
	return errors.Join(errs...)
}

func mustEncode(v any) []byte {
	data, err := gojson.Marshal(v)
	if err != nil {
		return nil
	}
	return data
}

func decodeRequest(data []byte) (Request, error) {
	var req Request
	dec := gojson.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		return Request{}, err
	}
	return req, nil
}

func decodeResponse(r io.Reader) (Response, error) {
	var resp Response
	dec := gojson.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(&resp); err != nil {
		return Response{}, err
	}
	return resp, nil
}

func roundTrip(resp Response) Response {
	out, err := decodeResponse(bytes.NewReader(mustEncode(resp)))
	if err != nil {
		return Response{ID: resp.ID, OK: false, Error: "encode response: " + err.Error(), Code: CodeExecFailed}
	}
	return out
}
