package ipc

import (
	"bufio"
	"crypto/rand"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"net"
	"time"
)

// Client is a single connection to the service socket. Callers send
// one request per Call and may reuse the connection for further
// calls; each call generates a fresh random id and checks it against
// the response's for_id.
type Client struct {
	conn   net.Conn
	reader *bufio.Reader
}

// Dial connects to the service socket at socketPath, failing with
// ErrConnectRefused (wrapped) if nothing is listening.
func Dial(socketPath string, timeout time.Duration) (*Client, error) {
	conn, err := net.DialTimeout("unix", socketPath, timeout)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectRefused, err)
	}
	return &Client{conn: conn, reader: bufio.NewReader(conn)}, nil
}

// Call sends a request of the given type and waits for its matching
// response.
func (c *Client) Call(reqType RequestType) (ResponseContent, error) {
	id, err := randomID()
	if err != nil {
		return ResponseContent{}, fmt.Errorf("generate request id: %w", err)
	}

	req := Request{ID: id, Content: RequestContent{Type: reqType}}
	raw, err := json.Marshal(req)
	if err != nil {
		return ResponseContent{}, fmt.Errorf("encode request: %w", err)
	}
	raw = append(raw, '\n')

	if _, err := c.conn.Write(raw); err != nil {
		return ResponseContent{}, fmt.Errorf("%w: %v", ErrIO, err)
	}

	line, err := c.reader.ReadString('\n')
	if err != nil {
		return ResponseContent{}, fmt.Errorf("%w: %v", ErrIO, err)
	}

	var resp Response
	if err := json.Unmarshal([]byte(line), &resp); err != nil {
		return ResponseContent{}, fmt.Errorf("%w: %v", ErrDecodeError, err)
	}
	if resp.ForID != id {
		return ResponseContent{}, fmt.Errorf("%w: response for_id %d does not match request id %d", ErrProtocolError, resp.ForID, id)
	}

	return resp.Result, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

func randomID() (uint64, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(buf[:]), nil
}
