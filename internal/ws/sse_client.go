package ws

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// SSEClient streams notifications as Server-Sent Events. Every frame is
// written under a deadline so a stalled peer cannot hold up the hub.
type SSEClient struct {
	mu     sync.Mutex
	writer http.ResponseWriter
	rc     *http.ResponseController
	log    *slog.Logger
	closed bool
	done   chan struct{}
	now    func() time.Time
}

// NewSSEClient builds an SSE client instance over an open response.
func NewSSEClient(w http.ResponseWriter, logger *slog.Logger) *SSEClient {
	return &SSEClient{
		writer: w,
		rc:     http.NewResponseController(w),
		log:    logger,
		done:   make(chan struct{}),
		now:    time.Now,
	}
}

// Send emits a data event to the SSE stream.
func (c *SSEClient) Send(payload []byte) error {
	return c.write("sse send failed", "data: %s\n\n", payload)
}

// Heartbeat emits a comment frame to keep the connection alive.
func (c *SSEClient) Heartbeat() error {
	return c.write("sse heartbeat failed", ": ping\n\n")
}

func (c *SSEClient) write(failure, format string, args ...any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return io.EOF
	}
	if err := c.rc.SetWriteDeadline(c.now().Add(writeWait)); err != nil && !errors.Is(err, http.ErrNotSupported) {
		c.closeLocked()
		c.log.Warn(failure, "error", err)
		return err
	}
	if _, err := fmt.Fprintf(c.writer, format, args...); err != nil {
		c.closeLocked()
		c.log.Warn(failure, "error", err)
		return err
	}
	if err := c.rc.Flush(); err != nil {
		c.closeLocked()
		c.log.Warn(failure, "error", err)
		return err
	}
	return nil
}

// Close marks the stream as closed.
func (c *SSEClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
}

func (c *SSEClient) closeLocked() {
	if !c.closed {
		c.closed = true
		close(c.done)
	}
}

// Done is closed once the stream stops accepting writes.
func (c *SSEClient) Done() <-chan struct{} {
	return c.done
}
