package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultTimeout is the per-request budget from spec.md §4.D.
const DefaultTimeout = 120 * time.Second

// Correlator serializes requests to one tool server subprocess over its
// stdin/stdout pipes. Each server gets its own Correlator. Because a tool
// server processes one request at a time, the correlator does not attempt
// an id-keyed demultiplexer (see spec.md §9 Open Questions): it acquires
// the stdin guard, writes the frame, releases it, acquires the stdout
// guard, reads exactly one reply frame, releases it.
type Correlator struct {
	name     string
	writer   *FrameWriter
	reader   *FrameReader
	stdinMu  sync.Mutex
	stdoutMu sync.Mutex
	timeout  time.Duration
}

func NewCorrelator(name string, writer *FrameWriter, reader *FrameReader) *Correlator {
	return &Correlator{name: name, writer: writer, reader: reader, timeout: DefaultTimeout}
}

// SetTimeout overrides DefaultTimeout, primarily for tests.
func (c *Correlator) SetTimeout(d time.Duration) {
	c.timeout = d
}

// Call sends a request expecting a reply and blocks until it arrives, the
// timeout elapses, or the server closes. result, if non-nil, receives the
// decoded "result" field.
func (c *Correlator) Call(ctx context.Context, method string, params, result any) error {
	id := uuid.NewString()
	req, err := NewRequest(id, method, params)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	type outcome struct {
		resp Response
		err  error
	}
	done := make(chan outcome, 1)

	go func() {
		c.stdinMu.Lock()
		writeErr := c.writer.Write(req)
		c.stdinMu.Unlock()
		if writeErr != nil {
			done <- outcome{err: writeErr}
			return
		}

		c.stdoutMu.Lock()
		var resp Response
		readErr := c.reader.Read(&resp)
		c.stdoutMu.Unlock()
		done <- outcome{resp: resp, err: readErr}
	}()

	select {
	case o := <-done:
		if o.err != nil {
			return o.err
		}
		if o.resp.Id != id {
			return fmt.Errorf("%w: sent %s, received %s", ErrIdMismatch, id, o.resp.Id)
		}
		if o.resp.Error != nil {
			return o.resp.Error
		}
		if result != nil && len(o.resp.Result) > 0 {
			if err := json.Unmarshal(o.resp.Result, result); err != nil {
				return fmt.Errorf("decode result of %s: %w", method, err)
			}
		}
		return nil
	case <-ctx.Done():
		return ErrTimeout
	}
}

// Notify sends a fire-and-forget request. It shares the stdin guard with
// Call but never reads stdout.
func (c *Correlator) Notify(method string, params any) error {
	req, err := NewNotification(method, params)
	if err != nil {
		return err
	}
	c.stdinMu.Lock()
	defer c.stdinMu.Unlock()
	return c.writer.Write(req)
}
