package engine

import (
	"bytes"
	"net"
	"time"
)

// fakeConn is a minimal net.Conn whose Write never blocks, capturing
// everything sent to it for assertions. Real connections block on a full
// socket buffer (spec §4.G allows this); tests don't need that behavior.
type fakeConn struct {
	buf    bytes.Buffer
	closed bool
}

func (c *fakeConn) Read(b []byte) (int, error)         { return 0, nil }
func (c *fakeConn) Write(b []byte) (int, error)        { return c.buf.Write(b) }
func (c *fakeConn) Close() error                       { c.closed = true; return nil }
func (c *fakeConn) LocalAddr() net.Addr                { return nil }
func (c *fakeConn) RemoteAddr() net.Addr               { return nil }
func (c *fakeConn) SetDeadline(t time.Time) error      { return nil }
func (c *fakeConn) SetReadDeadline(t time.Time) error  { return nil }
func (c *fakeConn) SetWriteDeadline(t time.Time) error { return nil }

func (c *fakeConn) sent() string {
	s := c.buf.String()
	c.buf.Reset()
	return s
}
