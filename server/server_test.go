package server

import (
	"context"
	"encoding/binary"
	"fmt"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tecnicofs/tecnicofs/engine"
	"github.com/tecnicofs/tecnicofs/transport"
)

// recordingLogger captures every message logged through it, so tests can
// assert on what a Debug-enabled Server actually traces.
type recordingLogger struct {
	mu   sync.Mutex
	logs []string
}

func (r *recordingLogger) Println(v ...interface{}) { r.Printf("%v", v) }
func (r *recordingLogger) Printf(format string, v ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs = append(r.logs, fmt.Sprintf(format, v...))
}

func (r *recordingLogger) contains(substr string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.logs {
		if strings.Contains(l, substr) {
			return true
		}
	}
	return false
}

func startTestServer(t *testing.T) (*Server, *transport.Socket, func()) {
	t.Helper()
	return startTestServerWith(t, nil)
}

func startTestServerWith(t *testing.T, logger engine.Logger) (*Server, *transport.Socket, func()) {
	t.Helper()
	sock, err := transport.Listen("127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	opt := engine.NewOptions()
	eng := engine.New(opt)
	srv := New(sock, eng, opt, 4)
	if logger != nil {
		srv.Logger = logger
		srv.Debug = true
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()

	return srv, sock, func() {
		cancel()
		<-done
	}
}

func roundTrip(t *testing.T, addr net.Addr, cmd string) int32 {
	t.Helper()
	cli, err := net.DialUDP("udp", nil, addr.(*net.UDPAddr))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer cli.Close()

	if _, err := cli.Write([]byte(cmd)); err != nil {
		t.Fatalf("write: %v", err)
	}
	cli.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 4)
	n, err := cli.Read(buf)
	if err != nil {
		t.Fatalf("read reply: %v", err)
	}
	if n != 4 {
		t.Fatalf("reply length = %d", n)
	}
	return int32(binary.NativeEndian.Uint32(buf))
}

func TestServerCreateLookupDeleteOverWire(t *testing.T) {
	srv, sock, stop := startTestServer(t)
	defer stop()
	addr := sock.LocalAddr()

	if code := roundTrip(t, addr, "c /a d"); code != 0 {
		t.Fatalf("create /a = %d, want 0", code)
	}
	if code := roundTrip(t, addr, "c /a/b f"); code != 0 {
		t.Fatalf("create /a/b = %d, want 0", code)
	}
	if code := roundTrip(t, addr, "l /a/b"); code < 0 {
		t.Fatalf("lookup /a/b = %d, want >= 0", code)
	}
	if code := roundTrip(t, addr, "d /a/b"); code != 0 {
		t.Fatalf("delete /a/b = %d, want 0", code)
	}
	if code := roundTrip(t, addr, "l /a/b"); code >= 0 {
		t.Fatalf("lookup /a/b after delete = %d, want < 0", code)
	}

	snap := srv.Counters().Snapshot()
	if snap.Created != 2 || snap.Deleted != 1 || snap.Looked != 1 || snap.LookupFailed != 1 {
		t.Fatalf("unexpected counters: %+v", snap)
	}
}

func TestServerMalformedRequestRepliesFailure(t *testing.T) {
	_, sock, stop := startTestServer(t)
	defer stop()

	if code := roundTrip(t, sock.LocalAddr(), "bogus"); code != -1 {
		t.Fatalf("malformed request reply = %d, want -1", code)
	}
}

func TestServerPrintOverWire(t *testing.T) {
	_, sock, stop := startTestServer(t)
	defer stop()
	addr := sock.LocalAddr()

	if code := roundTrip(t, addr, "c /a f"); code != 0 {
		t.Fatalf("create /a = %d", code)
	}

	dir := t.TempDir()
	out := dir + "/tree.txt"
	if code := roundTrip(t, addr, "p "+out); code != 0 {
		t.Fatalf("print = %d, want 0", code)
	}
}

// TestServerPrintLogsDescribeInDebugMode confirms printTo actually calls
// internal/sink.Describe on the request path (not just from its own
// package's tests) whenever Debug is enabled.
func TestServerPrintLogsDescribeInDebugMode(t *testing.T) {
	logger := &recordingLogger{}
	_, sock, stop := startTestServerWith(t, logger)
	defer stop()
	addr := sock.LocalAddr()

	if code := roundTrip(t, addr, "c /a f"); code != 0 {
		t.Fatalf("create /a = %d", code)
	}

	dir := t.TempDir()
	out := dir + "/tree.txt"
	if code := roundTrip(t, addr, "p "+out); code != 0 {
		t.Fatalf("print = %d, want 0", code)
	}

	if !logger.contains("print destination") {
		t.Fatalf("expected a print-destination trace line, got: %v", logger.logs)
	}
}
