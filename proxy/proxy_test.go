package proxy_test

import (
	"bytes"
	"io"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"

	"github.com/vearne/tcptap/dump"
	"github.com/vearne/tcptap/plugin"
	"github.com/vearne/tcptap/protocol"
	"github.com/vearne/tcptap/proxy"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// startBackend runs a one-shot server that reads want bytes, writes reply
// and closes, which ends the proxied session.
func startBackend(t *testing.T, wantLen int, reply []byte, done chan<- []byte) net.Addr {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	assert.Nil(t, err)
	go func() {
		defer ln.Close()
		conn, err := ln.Accept()
		if err != nil {
			done <- nil
			return
		}
		defer conn.Close()
		buf := make([]byte, wantLen)
		if _, err := io.ReadFull(conn, buf); err != nil {
			done <- nil
			return
		}
		if len(reply) > 0 {
			conn.Write(reply)
		}
		done <- buf
	}()
	return ln.Addr()
}

func TestForwardSingleExchange(t *testing.T) {
	request := []byte("GET /\r\n")
	reply := []byte("HTTP/1.1 200 OK\r\n")

	received := make(chan []byte, 1)
	backend := startBackend(t, len(request), reply, received)

	f := &proxy.Forwarder{
		ListenAddr: "127.0.0.1:0",
		TargetAddr: backend.String(),
		Out:        io.Discard,
	}
	assert.Nil(t, f.Listen())

	runErr := make(chan error, 1)
	go func() { runErr <- f.Run() }()

	client, err := net.Dial("tcp", f.Addr().String())
	assert.Nil(t, err)
	defer client.Close()

	_, err = client.Write(request)
	assert.Nil(t, err)

	got := make([]byte, len(reply))
	_, err = io.ReadFull(client, got)
	assert.Nil(t, err)
	assert.Equal(t, reply, got)

	// backend closed after replying, which must end the session cleanly
	assert.Nil(t, <-runErr)
	assert.Equal(t, request, <-received)

	assert.Equal(t, uint64(1), f.ClientStats.PacketCount)
	assert.Equal(t, uint64(7), f.ClientStats.BytesTotal)
	assert.Equal(t, uint64(1), f.ServerStats.PacketCount)
	assert.Equal(t, uint64(17), f.ServerStats.BytesTotal)
}

func TestForwardRecordsCapture(t *testing.T) {
	request := []byte("ping")
	reply := []byte("pong!")

	received := make(chan []byte, 1)
	backend := startBackend(t, len(request), reply, received)

	path := filepath.Join(t.TempDir(), "session.cap")
	out, err := plugin.NewFileOutput(path, nil)
	assert.Nil(t, err)

	f := &proxy.Forwarder{
		ListenAddr: "127.0.0.1:0",
		TargetAddr: backend.String(),
		Out:        io.Discard,
		Session:    plugin.NewSession(out),
	}
	assert.Nil(t, f.Listen())

	runErr := make(chan error, 1)
	go func() { runErr <- f.Run() }()

	client, err := net.Dial("tcp", f.Addr().String())
	assert.Nil(t, err)
	defer client.Close()

	_, err = client.Write(request)
	assert.Nil(t, err)
	got := make([]byte, len(reply))
	_, err = io.ReadFull(client, got)
	assert.Nil(t, err)

	assert.Nil(t, <-runErr)
	<-received

	file, err := os.Open(path)
	assert.Nil(t, err)
	defer file.Close()

	dec := protocol.NewDecoder(file)
	rec, err := dec.Decode()
	assert.Nil(t, err)
	assert.Equal(t, protocol.KindVersion, rec.Kind)

	rec, err = dec.Decode()
	assert.Nil(t, err)
	assert.Equal(t, protocol.KindData, rec.Kind)
	assert.Equal(t, protocol.SideClient, rec.Side)
	assert.Equal(t, request, rec.Payload)
	assert.Equal(t, 0, rec.DelayMS)

	rec, err = dec.Decode()
	assert.Nil(t, err)
	assert.Equal(t, protocol.KindData, rec.Kind)
	assert.Equal(t, protocol.SideServer, rec.Side)
	assert.Equal(t, reply, rec.Payload)

	_, err = dec.Decode()
	assert.Equal(t, io.EOF, err)
}

func TestForwardTraceOutput(t *testing.T) {
	request := []byte("hi")

	received := make(chan []byte, 1)
	backend := startBackend(t, len(request), nil, received)

	var trace bytes.Buffer
	f := &proxy.Forwarder{
		ListenAddr:  "127.0.0.1:0",
		TargetAddr:  backend.String(),
		Width:       16,
		Mode:        dump.ModeAll,
		Trace:       true,
		ClientColor: dump.Color("cyan"),
		Out:         &trace,
	}
	assert.Nil(t, f.Listen())

	runErr := make(chan error, 1)
	go func() { runErr <- f.Run() }()

	client, err := net.Dial("tcp", f.Addr().String())
	assert.Nil(t, err)
	_, err = client.Write(request)
	assert.Nil(t, err)
	client.Close()

	assert.Nil(t, <-runErr)
	<-received

	out := trace.String()
	assert.Contains(t, out, "client: 2 bytes")
	assert.Contains(t, out, "68 69")
	assert.Contains(t, out, "|hi|")
	assert.Contains(t, out, dump.Color("cyan"))
	assert.Contains(t, out, dump.Reset)
}

func TestForwardDialFailure(t *testing.T) {
	// no listener on the target port
	target, err := net.Listen("tcp", "127.0.0.1:0")
	assert.Nil(t, err)
	addr := target.Addr().String()
	target.Close()

	f := &proxy.Forwarder{
		ListenAddr: "127.0.0.1:0",
		TargetAddr: addr,
		Out:        io.Discard,
	}
	assert.Nil(t, f.Listen())

	runErr := make(chan error, 1)
	go func() { runErr <- f.Run() }()

	client, err := net.Dial("tcp", f.Addr().String())
	assert.Nil(t, err)
	defer client.Close()

	err = <-runErr
	assert.NotNil(t, err)
	assert.Contains(t, err.Error(), "connect to target")
}
