// Package proxy implements the transparent forwarder: it accepts exactly
// one client connection, dials the target, and relays bytes in both
// directions until either peer closes, tracing and optionally recording
// every chunk on the way through.
package proxy

import (
	"fmt"
	"io"
	"net"
	"os"

	"github.com/pkg/errors"
	slog "github.com/vearne/simplelog"
	"golang.org/x/sys/unix"

	"github.com/vearne/tcptap/dump"
	"github.com/vearne/tcptap/model"
	"github.com/vearne/tcptap/plugin"
	"github.com/vearne/tcptap/protocol"
)

// ChunkSize bounds a single read from either socket.
const ChunkSize = 4096

// Forwarder relays one client connection to one target connection.
// Colors are ready-to-print escape sequences (empty disables coloring).
type Forwarder struct {
	ListenAddr string
	TargetAddr string

	Width       int
	Mode        dump.DisplayMode
	Trace       bool
	ClientColor string
	ServerColor string
	Out         io.Writer

	// Session may be nil when nothing is being recorded.
	Session *plugin.Session

	ClientStats model.ParticipantStats
	ServerStats model.ParticipantStats

	ln net.Listener
}

// one direction of the relay
type end struct {
	name  string
	side  protocol.Side
	color string
	file  *os.File
	peer  *os.File
	stats *model.ParticipantStats
}

// Listen binds the client-facing socket. It is split from Run so tests
// can bind port 0 and learn the chosen address before connecting.
func (f *Forwarder) Listen() error {
	ln, err := net.Listen("tcp", f.ListenAddr)
	if err != nil {
		return errors.Wrapf(err, "listen on %q", f.ListenAddr)
	}
	f.ln = ln
	return nil
}

func (f *Forwarder) Addr() net.Addr {
	if f.ln == nil {
		return nil
	}
	return f.ln.Addr()
}

// Run services exactly one proxied session: accept, dial, relay until a
// peer closes or a socket error occurs, then clean up and report per-side
// statistics. Socket errors are fatal; this is a debugging tool and does
// not retry.
func (f *Forwarder) Run() error {
	if f.Out == nil {
		f.Out = os.Stdout
	}
	if f.ln == nil {
		if err := f.Listen(); err != nil {
			return err
		}
	}
	defer f.ln.Close()
	if f.Session != nil {
		defer f.Session.Close()
	}

	slog.Info("listening on %v, forwarding to %v", f.ln.Addr(), f.TargetAddr)
	conn, err := f.ln.Accept()
	if err != nil {
		return errors.Wrap(err, "accept")
	}
	client := conn.(*net.TCPConn)
	defer client.Close()
	slog.Info("client connected from %v", client.RemoteAddr())

	sconn, err := net.Dial("tcp", f.TargetAddr)
	if err != nil {
		return errors.Wrapf(err, "connect to target %q", f.TargetAddr)
	}
	server := sconn.(*net.TCPConn)
	defer server.Close()
	slog.Info("connected to %v", server.RemoteAddr())

	err = f.relay(client, server)
	f.report()
	return err
}

// relay multiplexes the two sockets with a blocking poll so neither
// direction is statically prioritized; each readable socket is serviced
// once per readiness round. The session ends on the first zero-length
// read.
func (f *Forwarder) relay(client, server *net.TCPConn) error {
	cf, err := client.File()
	if err != nil {
		return errors.Wrap(err, "client fd")
	}
	defer cf.Close()
	sf, err := server.File()
	if err != nil {
		return errors.Wrap(err, "server fd")
	}
	defer sf.Close()

	ends := [2]end{
		{"client", protocol.SideClient, f.ClientColor, cf, sf, &f.ClientStats},
		{"server", protocol.SideServer, f.ServerColor, sf, cf, &f.ServerStats},
	}
	fds := []unix.PollFd{
		{Fd: int32(cf.Fd()), Events: unix.POLLIN},
		{Fd: int32(sf.Fd()), Events: unix.POLLIN},
	}

	buf := make([]byte, ChunkSize)
	for {
		if _, err := unix.Poll(fds, -1); err != nil {
			if err == unix.EINTR {
				continue
			}
			return errors.Wrap(err, "poll")
		}
		for i := range fds {
			if fds[i].Revents&(unix.POLLIN|unix.POLLHUP|unix.POLLERR) == 0 {
				continue
			}
			e := &ends[i]
			n, err := e.file.Read(buf)
			if err != nil && err != io.EOF {
				return errors.Wrapf(err, "read from %s", e.name)
			}
			if n == 0 {
				slog.Info("%s closed the connection", e.name)
				return nil
			}
			data := buf[:n]
			f.print(e, data)
			if f.Session != nil && f.Session.Active() {
				f.Session.RecordData(e.side, data)
			}
			e.stats.Observe(n)
			if _, err := e.peer.Write(data); err != nil {
				return errors.Wrapf(err, "forward %s data", e.name)
			}
		}
	}
}

func (f *Forwarder) print(e *end, data []byte) {
	if !f.Trace {
		return
	}
	reset := ""
	if e.color != "" {
		reset = dump.Reset
	}
	fmt.Fprintf(f.Out, "%s%s: %d bytes%s\n", e.color, e.name, len(data), reset)
	for _, line := range dump.Lines(f.Width, f.Mode, data) {
		fmt.Fprintf(f.Out, "%s%s%s\n", e.color, line, reset)
	}
}

func (f *Forwarder) report() {
	slog.Info("client: %s", f.ClientStats.String())
	slog.Info("server: %s", f.ServerStats.String())
}
