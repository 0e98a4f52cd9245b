// Package client is the Go analogue of the original tecnicofs client
// API: a thin synchronous request/response wrapper around one UDP
// socket, mirroring how nodefs's loopback client wraps raw syscalls
// behind named methods (Create, Delete, Lookup, Move) instead of
// exposing the wire format to callers.
package client

import (
	"fmt"
	"net"
	"time"

	"github.com/tecnicofs/tecnicofs/engine"
	"github.com/tecnicofs/tecnicofs/wire"
)

// DefaultTimeout bounds how long a single request waits for its reply.
const DefaultTimeout = 5 * time.Second

// Client holds one open connection to a tecnicofs server.
type Client struct {
	conn    *net.UDPConn
	Timeout time.Duration

	// Logger receives a trace of every failed round trip. Defaults to a
	// no-op logger; set it to surface client-side failures somewhere
	// other than the returned error (e.g. a batch run that wants to keep
	// going after a logged failure).
	Logger engine.Logger
}

// Dial connects to a tecnicofs server listening at addr.
func Dial(addr string) (*Client, error) {
	raddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("client: resolve %s: %w", addr, err)
	}
	conn, err := net.DialUDP("udp", nil, raddr)
	if err != nil {
		return nil, fmt.Errorf("client: dial %s: %w", addr, err)
	}
	return &Client{conn: conn, Timeout: DefaultTimeout, Logger: engine.NewNopLogger()}, nil
}

// Close releases the underlying socket.
func (c *Client) Close() error { return c.conn.Close() }

func (c *Client) roundTrip(line string) (int32, error) {
	if c.Timeout > 0 {
		c.conn.SetDeadline(time.Now().Add(c.Timeout))
	}
	if _, err := c.conn.Write([]byte(line)); err != nil {
		err = fmt.Errorf("client: send %q: %w", line, err)
		c.Logger.Printf("%v", err)
		return 0, err
	}
	buf := make([]byte, 4)
	n, err := c.conn.Read(buf)
	if err != nil {
		err = fmt.Errorf("client: recv reply to %q: %w", line, err)
		c.Logger.Printf("%v", err)
		return 0, err
	}
	code, err := wire.DecodeResponse(buf[:n])
	if err != nil {
		c.Logger.Printf("%v", err)
	}
	return code, err
}

// Create asks the server to create path as a file (isDir=false) or
// directory (isDir=true).
func (c *Client) Create(path string, isDir bool) error {
	kind := wire.NodeFile
	if isDir {
		kind = wire.NodeDir
	}
	code, err := c.roundTrip(fmt.Sprintf("c %s %c", path, kind))
	if err != nil {
		return err
	}
	if code != 0 {
		return fmt.Errorf("client: create %s failed (code %d)", path, code)
	}
	return nil
}

// Delete asks the server to remove path.
func (c *Client) Delete(path string) error {
	code, err := c.roundTrip(fmt.Sprintf("d %s", path))
	if err != nil {
		return err
	}
	if code != 0 {
		return fmt.Errorf("client: delete %s failed (code %d)", path, code)
	}
	return nil
}

// Lookup resolves path to its inumber, or returns an error if it does
// not exist.
func (c *Client) Lookup(path string) (int32, error) {
	code, err := c.roundTrip(fmt.Sprintf("l %s", path))
	if err != nil {
		return 0, err
	}
	if code < 0 {
		return 0, fmt.Errorf("client: lookup %s: not found", path)
	}
	return code, nil
}

// Move asks the server to rename/relocate oldPath to newPath.
func (c *Client) Move(oldPath, newPath string) error {
	code, err := c.roundTrip(fmt.Sprintf("m %s %s", oldPath, newPath))
	if err != nil {
		return err
	}
	if code != 0 {
		return fmt.Errorf("client: move %s -> %s failed (code %d)", oldPath, newPath, code)
	}
	return nil
}

// Print asks the server to dump the tree to outPath on the server's
// filesystem.
func (c *Client) Print(outPath string) error {
	code, err := c.roundTrip(fmt.Sprintf("p %s", outPath))
	if err != nil {
		return err
	}
	if code != 0 {
		return fmt.Errorf("client: print to %s failed (code %d)", outPath, code)
	}
	return nil
}
