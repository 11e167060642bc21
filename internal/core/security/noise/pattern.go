package noise

import (
	"context"
	"fmt"
	"net"

	"github.com/dep2p/go-seclink/pkg/types"
)

// ============================================================================
// 握手模式
// ============================================================================

// Pattern Noise 握手模式
type Pattern int

const (
	// PatternXX 三轮握手，双方在握手中交换并证明静态公钥
	PatternXX Pattern = iota
	// PatternIK 发起者预先知道响应者静态公钥（尚未实现）
	PatternIK
)

// String 返回模式名称
func (p Pattern) String() string {
	switch p {
	case PatternXX:
		return "XX"
	case PatternIK:
		return "IK"
	default:
		return fmt.Sprintf("Pattern(%d)", int(p))
	}
}

// ParsePattern 解析模式名称
func ParsePattern(s string) (Pattern, error) {
	switch s {
	case "XX", "":
		return PatternXX, nil
	case "IK":
		return PatternIK, nil
	default:
		return 0, fmt.Errorf("noise: unknown pattern %q", s)
	}
}

// handshakePattern 一种握手模式的两个角色
//
// 实现在调用方 goroutine 中顺序执行握手，失败时不负责关闭连接。
type handshakePattern interface {
	// handshakeInbound 以响应者身份执行握手
	handshakeInbound(ctx context.Context, conn net.Conn) (*secureConn, error)

	// handshakeOutbound 以发起者身份执行握手，并校验远端身份等于 expected
	handshakeOutbound(ctx context.Context, conn net.Conn, expected types.PeerID) (*secureConn, error)
}

// selectPattern 按配置的模式选择实现
func selectPattern(t *Transport) (handshakePattern, error) {
	switch t.pattern {
	case PatternXX:
		return &xxPattern{t: t}, nil
	case PatternIK:
		return nil, unsupportedError("pattern IK")
	default:
		return nil, unsupportedError(t.pattern.String())
	}
}
