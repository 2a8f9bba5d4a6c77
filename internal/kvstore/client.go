package kvstore

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/Prakti/striptease"
	"github.com/Prakti/striptease/frame"
	"github.com/Prakti/striptease/message"
)

// Client talks to a Server over one connection. Requests are serialized; a
// Client may be shared between goroutines.
type Client struct {
	conn     net.Conn
	r        *frame.Reader
	w        *frame.Writer
	messages *message.Registry

	mu     sync.Mutex
	trans  uint8
	broken error
}

// Dial connects to a server at addr.
func Dial(ctx context.Context, network, addr string) (*Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}
	return NewClient(conn), nil
}

// NewClient wraps an established connection. Requests are sent uncompressed.
func NewClient(conn net.Conn) *Client {
	return &Client{
		conn:     conn,
		r:        frame.NewReader(conn),
		w:        frame.NewWriter(conn, frame.None),
		messages: Messages(),
	}
}

// SetCodec selects the compression of request frames.
func (c *Client) SetCodec(codec frame.Codec) {
	c.mu.Lock()
	c.w.Codec = codec
	c.mu.Unlock()
}

func (c *Client) Close() error { return c.conn.Close() }

// Store saves data under name. name is at most 255 bytes and data at most
// 65535.
func (c *Client) Store(ctx context.Context, name string, data []byte) error {
	resp, err := c.roundTrip(ctx, MsgStoreRequest, MsgStoreResponse, striptease.Values{
		"name": striptease.Text(name),
		"data": striptease.Bytes(data),
	})
	if err != nil {
		return err
	}
	if status, _ := resp.Values.Uint("status"); uint8(status) != StatusOK {
		return StatusError{Op: "store", Name: name, Status: uint8(status)}
	}
	return nil
}

// Fetch returns the data stored under name. A missing key yields an error
// matching ErrNotFound.
func (c *Client) Fetch(ctx context.Context, name string) ([]byte, error) {
	resp, err := c.roundTrip(ctx, MsgFetchRequest, MsgFetchResponse, striptease.Values{
		"name": striptease.Text(name),
	})
	if err != nil {
		return nil, err
	}
	if status, _ := resp.Values.Uint("status"); uint8(status) != StatusOK {
		return nil, StatusError{Op: "fetch", Name: name, Status: uint8(status)}
	}
	data, _ := resp.Values.Bytes("data")
	return data, nil
}

func (c *Client) roundTrip(ctx context.Context, reqID, respID uint8, values striptease.Values) (message.Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.broken != nil {
		return message.Message{}, c.broken
	}
	defer c.conn.SetDeadline(time.Time{})
	stop := context.AfterFunc(ctx, func() {
		// unblocks a pending read or write
		c.conn.SetDeadline(time.Unix(1, 0))
	})
	defer stop()

	c.trans++
	trans := c.trans
	values["trans"] = striptease.Uint(uint64(trans))

	req, err := c.messages.Encode(reqID, values)
	if err != nil {
		return message.Message{}, err
	}
	if err := c.w.WriteFrame(req); err != nil {
		return message.Message{}, c.abandon(ctx, err)
	}

	f, err := c.r.ReadFrame()
	if err != nil {
		return message.Message{}, c.abandon(ctx, err)
	}
	resp, err := c.messages.Decode(f.Payload)
	if err != nil {
		return message.Message{}, err
	}
	if resp.ID != respID {
		return message.Message{}, fmt.Errorf("%w: %s", ErrUnexpectedMessage, resp.Name)
	}
	if got, _ := resp.Values.Uint("trans"); uint8(got) != trans {
		return message.Message{}, fmt.Errorf("%w: sent %d, got %d", ErrTransactionMismatch, trans, got)
	}
	return resp, nil
}

// abandon closes the connection after a failed read or write. A partial
// request or an unread reply leaves the stream out of step, so later calls
// fail with ErrClientBroken instead of reading someone else's response.
func (c *Client) abandon(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		err = ctx.Err()
	}
	c.broken = fmt.Errorf("%w: %v", ErrClientBroken, err)
	c.conn.Close()
	return err
}
