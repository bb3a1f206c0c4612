// internal/client/network/connection.go
package network

import (
	"net"
	"time"
)

const (
	DialTimeout     = 5 * time.Second
	KeepAlivePeriod = 30 * time.Second
)

type Connection struct {
	conn net.Conn
}

func NewConnection(address string) (*Connection, error) {
	dialer := net.Dialer{
		Timeout:   DialTimeout,
		KeepAlive: KeepAlivePeriod,
	}

	conn, err := dialer.Dial("tcp", address)
	if err != nil {
		return nil, err
	}

	// TCP configurations
	if tcpConn, ok := conn.(*net.TCPConn); ok {
		tcpConn.SetKeepAlive(true)
		tcpConn.SetKeepAlivePeriod(KeepAlivePeriod)
		tcpConn.SetNoDelay(true)
	}

	return &Connection{conn: conn}, nil
}

func (c *Connection) Close() error {
	return c.conn.Close()
}

func (c *Connection) GetUnderlyingConn() net.Conn {
	return c.conn
}

func (c *Connection) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}
