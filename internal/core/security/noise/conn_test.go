package noise

import (
	"bytes"
	"crypto/rand"
	"encoding/binary"
	"io"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// ============================================================================
// 加密读写
// ============================================================================

func TestSecureConn_ReadWrite(t *testing.T) {
	c, s := handshakePair(t, newTestTransport(t), newTestTransport(t))

	var g errgroup.Group
	g.Go(func() error {
		_, err := c.Write([]byte("hello from initiator"))
		return err
	})
	buf := make([]byte, 64)
	n, err := s.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "hello from initiator", string(buf[:n]))
	require.NoError(t, g.Wait())

	g.Go(func() error {
		_, err := s.Write([]byte("hello from responder"))
		return err
	})
	n, err = c.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "hello from responder", string(buf[:n]))
	require.NoError(t, g.Wait())
}

func TestSecureConn_LargeWriteIsChunked(t *testing.T) {
	client := newTestTransport(t)
	server := newTestTransport(t)

	s2c := &frameRecorder{}
	c2s := &frameRecorder{}
	clientConn, serverConn := relayPipe(c2s.hook, s2c.hook)
	res := runHandshake(t.Context(), client, server, clientConn, serverConn, server.LocalPeer())
	defer res.close()
	require.NoError(t, res.clientErr)
	require.NoError(t, res.serverErr)

	data := make([]byte, 3*maxPlaintextSize+100)
	_, err := rand.Read(data)
	require.NoError(t, err)

	var g errgroup.Group
	g.Go(func() error {
		n, err := res.client.Write(data)
		if n != len(data) {
			return io.ErrShortWrite
		}
		return err
	})

	got := make([]byte, len(data))
	_, err = io.ReadFull(res.server, got)
	require.NoError(t, err)
	require.NoError(t, g.Wait())
	assert.True(t, bytes.Equal(data, got))

	// 握手 2 帧 + 数据 4 帧，每帧不超过上限
	require.NotNil(t, c2s.frame(6))
	for n := 3; n <= 6; n++ {
		assert.LessOrEqual(t, len(c2s.frame(n)), maxFrameSize)
	}
	assert.Len(t, c2s.frame(3), maxFrameSize)
	assert.Len(t, c2s.frame(6), 100+macSize)
}

func TestSecureConn_SmallReadsBufferRemainder(t *testing.T) {
	c, s := handshakePair(t, newTestTransport(t), newTestTransport(t))

	msg := bytes.Repeat([]byte("0123456789"), 10)
	go func() { _, _ = c.Write(msg) }()

	var got []byte
	buf := make([]byte, 7)
	for len(got) < len(msg) {
		n, err := s.Read(buf)
		require.NoError(t, err)
		got = append(got, buf[:n]...)
	}
	assert.Equal(t, msg, got)
}

func TestSecureConn_EmptyWrite(t *testing.T) {
	c, s := handshakePair(t, newTestTransport(t), newTestTransport(t))

	// 空写入不产生帧，否则在 net.Pipe 上会阻塞
	n, err := c.Write(nil)
	assert.NoError(t, err)
	assert.Zero(t, n)

	n, err = s.Read(nil)
	assert.NoError(t, err)
	assert.Zero(t, n)
}

func TestSecureConn_TamperedFrame(t *testing.T) {
	client := newTestTransport(t)
	server := newTestTransport(t)

	// 第 3 帧是握手后的第一个数据帧
	clientConn, serverConn := relayPipe(flipByte(3, 0), nil)
	res := runHandshake(t.Context(), client, server, clientConn, serverConn, server.LocalPeer())
	defer res.close()
	require.NoError(t, res.clientErr)
	require.NoError(t, res.serverErr)

	go func() { _, _ = res.client.Write([]byte("secret")) }()
	_, err := res.server.Read(make([]byte, 16))
	assert.Error(t, err)
}

func TestSecureConn_ShortFrame(t *testing.T) {
	raw, peer := net.Pipe()
	defer peer.Close()
	sc := &secureConn{Conn: raw}

	go func() {
		var hdr [2]byte
		binary.BigEndian.PutUint16(hdr[:], macSize-1)
		_, _ = peer.Write(hdr[:])
	}()
	_, err := sc.Read(make([]byte, 8))
	assert.Error(t, err)
}

func TestSecureConn_PeerClose(t *testing.T) {
	c, s := handshakePair(t, newTestTransport(t), newTestTransport(t))

	require.NoError(t, s.Close())
	_, err := c.Read(make([]byte, 1))
	assert.ErrorIs(t, err, io.EOF)
}
