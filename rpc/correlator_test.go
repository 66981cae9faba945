package rpc

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubServer answers every request it reads with handle's response,
// simulating a well-behaved tool server that processes one request at a time.
func stubServer(t *testing.T, reqR io.Reader, respW io.Writer, handle func(Request) Response) *sync.WaitGroup {
	t.Helper()
	reader := NewFrameReader(reqR)
	writer := NewFrameWriter(respW)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			var req Request
			if err := reader.Read(&req); err != nil {
				return
			}
			if req.Id == "" {
				continue // notification, no reply
			}
			resp := handle(req)
			if err := writer.Write(resp); err != nil {
				return
			}
		}
	}()
	return &wg
}

func newPipedCorrelator(t *testing.T, handle func(Request) Response) *Correlator {
	t.Helper()
	reqR, reqW := io.Pipe()
	respR, respW := io.Pipe()

	stubServer(t, reqR, respW, handle)

	c := NewCorrelator("stub", NewFrameWriter(reqW), NewFrameReader(respR))
	c.SetTimeout(2 * time.Second)
	return c
}

func TestCorrelatorCallSuccess(t *testing.T) {
	c := newPipedCorrelator(t, func(req Request) Response {
		return Response{JSONRPC: "2.0", Id: req.Id, Result: []byte(`{"ok":true}`)}
	})

	var result struct {
		Ok bool `json:"ok"`
	}
	err := c.Call(context.Background(), "ping", struct{}{}, &result)
	require.NoError(t, err)
	assert.True(t, result.Ok)
}

func TestCorrelatorCallRpcError(t *testing.T) {
	c := newPipedCorrelator(t, func(req Request) Response {
		return Response{JSONRPC: "2.0", Id: req.Id, Error: &Error{Code: -32603, Message: "boom"}}
	})

	err := c.Call(context.Background(), "ping", struct{}{}, nil)
	require.Error(t, err)
	var rpcErr *Error
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, -32603, rpcErr.Code)
}

func TestCorrelatorNoCrossTalk(t *testing.T) {
	// N concurrent calls against one server; each reply must return to
	// exactly the caller whose id matches, and request order on the wire
	// matches stdin-lock acquisition order.
	var seq int64
	c := newPipedCorrelator(t, func(req Request) Response {
		atomic.AddInt64(&seq, 1)
		return Response{JSONRPC: "2.0", Id: req.Id, Result: []byte(`{"seen":true}`)}
	})

	const n = 20
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var result struct {
				Seen bool `json:"seen"`
			}
			errs[i] = c.Call(context.Background(), "ping", struct{}{}, &result)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.EqualValues(t, n, atomic.LoadInt64(&seq))
}

func TestCorrelatorTimeout(t *testing.T) {
	c := newPipedCorrelator(t, func(req Request) Response {
		time.Sleep(500 * time.Millisecond)
		return Response{JSONRPC: "2.0", Id: req.Id, Result: []byte(`{}`)}
	})
	c.SetTimeout(50 * time.Millisecond)

	err := c.Call(context.Background(), "slow", struct{}{}, nil)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestCorrelatorServerClosed(t *testing.T) {
	reqR, reqW := io.Pipe()
	respR, respW := io.Pipe()
	go io.Copy(io.Discard, reqR) // the server accepts the request...
	respW.Close()                // ...then exits without replying

	c := NewCorrelator("stub", NewFrameWriter(reqW), NewFrameReader(respR))
	c.SetTimeout(time.Second)

	err := c.Call(context.Background(), "ping", struct{}{}, nil)
	assert.ErrorIs(t, err, ErrServerClosed)
}
