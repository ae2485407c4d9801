package server

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"golang.org/x/net/websocket"
)

// Transport is one raw bidirectional text connection. One frame per call,
// no batching or backpressure; the transport either accepts a write
// synchronously or buffers internally.
type Transport interface {
	ReadText() (string, error)
	WriteText(text string) error
	Close() error
}

// wsTransport adapts a websocket connection to Transport.
type wsTransport struct {
	conn *websocket.Conn
}

func newWSTransport(conn *websocket.Conn) *wsTransport {
	return &wsTransport{conn: conn}
}

func (t *wsTransport) ReadText() (string, error) {
	var text string
	if err := websocket.Message.Receive(t.conn, &text); err != nil {
		return "", err
	}
	return text, nil
}

func (t *wsTransport) WriteText(text string) error {
	return websocket.Message.Send(t.conn, text)
}

func (t *wsTransport) Close() error {
	return t.conn.Close()
}

// ErrChannelDetached reports use of a channel after Detach released its
// transport.
var ErrChannelDetached = errors.New("channel is detached")

// DecodeError marks an inbound frame that read fine but failed to decode.
// It is terminal for that single frame, not for the channel.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode frame: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Channel wraps exactly one transport with one codec pair and exposes the
// session-typed message boundary. Inbound frames are pulled with Receive;
// transport close and error surface as Receive errors, a frame that fails to
// decode surfaces as a DecodeError. Every inbound and outbound message is
// logged for observability.
type Channel[In, Out any] struct {
	label     string
	transport Transport
	decode    func(string) (In, error)
	encode    func(Out) (string, error)

	writeMu sync.Mutex

	mu       sync.Mutex
	detached bool
}

// NewChannel wraps transport with the given codec pair. The label names the
// channel in message logs.
func NewChannel[In, Out any](transport Transport, label string, decode func(string) (In, error), encode func(Out) (string, error)) *Channel[In, Out] {
	return &Channel[In, Out]{
		label:     label,
		transport: transport,
		decode:    decode,
		encode:    encode,
	}
}

// Receive reads and decodes the next inbound frame. A transport close or
// error is terminal for the channel; a DecodeError is terminal only for the
// frame that produced it.
func (c *Channel[In, Out]) Receive() (In, error) {
	var zero In
	if c.isDetached() {
		return zero, ErrChannelDetached
	}
	text, err := c.transport.ReadText()
	if err != nil {
		return zero, err
	}
	log.Printf("story: %s < %s", c.label, text)
	msg, err := c.decode(text)
	if err != nil {
		return zero, &DecodeError{Err: err}
	}
	return msg, nil
}

// Send encodes one message and writes it as one text frame.
func (c *Channel[In, Out]) Send(msg Out) error {
	if c.isDetached() {
		return ErrChannelDetached
	}
	text, err := c.encode(msg)
	if err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	log.Printf("story: %s > %s", c.label, text)
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.transport.WriteText(text)
}

// Close closes the underlying transport.
func (c *Channel[In, Out]) Close() error {
	return c.transport.Close()
}

// Detach releases the transport without closing it, so the caller can wrap
// it in a different channel with a different codec. The detached channel is
// unusable afterward.
func (c *Channel[In, Out]) Detach() {
	c.mu.Lock()
	c.detached = true
	c.mu.Unlock()
}

func (c *Channel[In, Out]) isDetached() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.detached
}
