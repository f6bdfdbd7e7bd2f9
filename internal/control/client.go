package control

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/scarab-term/scarab/internal/protocol"
)

// Client is a synchronous control-channel client: one request, one
// response, in order. Not safe for concurrent use.
type Client struct {
	conn net.Conn
	r    *bufio.Reader
	enc  *json.Encoder
}

// Dial connects to the daemon's control socket.
func Dial(socketPath string) (*Client, error) {
	conn, err := net.DialTimeout("unix", socketPath, 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("dial control socket: %w", err)
	}
	return &Client{
		conn: conn,
		r:    bufio.NewReaderSize(conn, protocol.MaxMessageSize),
		enc:  json.NewEncoder(conn),
	}, nil
}

// Do sends a request and waits for the matching response. A response of
// type error is returned as an error.
func (c *Client) Do(req *protocol.Request) (*protocol.Response, error) {
	if err := c.enc.Encode(req); err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	line, err := c.r.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	var resp protocol.Response
	if err := json.Unmarshal(line, &resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if resp.Type == protocol.RespError {
		return &resp, fmt.Errorf("daemon: %s", resp.Error)
	}
	return &resp, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}
