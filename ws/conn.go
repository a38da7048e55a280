package ws

import (
	"sync"

	"github.com/gorilla/websocket"
)

// WriteOnlyConn 只写连接，测试替身只需实现这半边
type WriteOnlyConn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// ReadWriteConn 完整连接能力，由 *websocket.Conn 满足
type ReadWriteConn interface {
	WriteOnlyConn
	ReadMessage() (int, []byte, error)
}

// client 一条已升级的连接
// writeMu 保证并发广播时对同一连接的写是串行的
type client struct {
	id      string
	conn    ReadWriteConn
	writeMu sync.Mutex
}

func (c *client) send(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}
