package host

import (
	"errors"
	"net"
	"sync"
	"time"

	"github.com/dep2p/go-seclink/pkg/interfaces"
)

// Direction 连接方向
type Direction int

const (
	// DirInbound 入站（本端为响应者）
	DirInbound Direction = iota
	// DirOutbound 出站（本端为发起者）
	DirOutbound
)

func (d Direction) String() string {
	switch d {
	case DirInbound:
		return "inbound"
	case DirOutbound:
		return "outbound"
	default:
		return "unknown"
	}
}

// Conn 主机跟踪的安全连接
//
// 本端关闭，或读写遇到非超时错误（如远端关闭）时，自动从主机的连接表中移除。
type Conn struct {
	interfaces.SecureConn

	host      *Host
	direction Direction
	opened    time.Time

	closeOnce sync.Once
	closeErr  error
}

var _ interfaces.SecureConn = (*Conn)(nil)

// Direction 返回连接方向
func (c *Conn) Direction() Direction {
	return c.direction
}

// Opened 返回握手完成时间
func (c *Conn) Opened() time.Time {
	return c.opened
}

// Read 读取数据，连接失效时关闭并移出连接表
func (c *Conn) Read(p []byte) (int, error) {
	n, err := c.SecureConn.Read(p)
	c.checkErr(err)
	return n, err
}

// Write 写入数据，连接失效时关闭并移出连接表
func (c *Conn) Write(p []byte) (int, error) {
	n, err := c.SecureConn.Write(p)
	c.checkErr(err)
	return n, err
}

// checkErr 非超时错误说明连接已不可用
func (c *Conn) checkErr(err error) {
	if err == nil {
		return
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return
	}
	_ = c.Close()
}

// Close 关闭连接
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.SecureConn.Close()
		c.host.removeConn(c)
	})
	return c.closeErr
}
