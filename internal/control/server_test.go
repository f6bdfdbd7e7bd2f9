package control

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/scarab-term/scarab/internal/protocol"
	"github.com/scarab-term/scarab/internal/session"
)

func startServer(t *testing.T) (string, *session.Manager) {
	t.Helper()
	socketPath := filepath.Join(t.TempDir(), "scarabd.sock")
	manager := session.NewManager("/bin/sh", 80, 24, nil)
	t.Cleanup(manager.Shutdown)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	srv := NewServer(manager, socketPath)
	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Errorf("server did not stop")
		}
	})

	// Wait for the socket to appear.
	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, err := os.Stat(socketPath); err == nil {
			return socketPath, manager
		}
		if time.Now().After(deadline) {
			t.Fatalf("socket never appeared")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func testClient(t *testing.T, socketPath string) *Client {
	t.Helper()
	client, err := Dial(socketPath)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestPing(t *testing.T) {
	socketPath, _ := startServer(t)
	client := testClient(t, socketPath)

	resp, err := client.Do(&protocol.Request{Type: protocol.MsgPing})
	if err != nil {
		t.Fatalf("ping: %v", err)
	}
	if resp.Type != protocol.RespPong {
		t.Errorf("resp = %q, want pong", resp.Type)
	}
}

func TestSessionLifecycleOverSocket(t *testing.T) {
	socketPath, _ := startServer(t)
	client := testClient(t, socketPath)

	created, err := client.Do(&protocol.Request{Type: protocol.MsgCreate, Name: "work"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Type != protocol.RespCreated || created.ID == "" {
		t.Fatalf("create resp = %+v", created)
	}
	id := created.ID

	list, err := client.Do(&protocol.Request{Type: protocol.MsgList})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list.Sessions) != 1 || list.Sessions[0].Name != "work" {
		t.Errorf("list = %+v", list.Sessions)
	}

	if _, err := client.Do(&protocol.Request{Type: protocol.MsgAttach, ID: id}); err != nil {
		t.Fatalf("attach: %v", err)
	}
	if _, err := client.Do(&protocol.Request{Type: protocol.MsgRename, ID: id, NewName: "renamed"}); err != nil {
		t.Fatalf("rename: %v", err)
	}
	if _, err := client.Do(&protocol.Request{Type: protocol.MsgInput, ID: id, Data: []byte("true\n")}); err != nil {
		t.Fatalf("input: %v", err)
	}
	if _, err := client.Do(&protocol.Request{Type: protocol.MsgResize, ID: id, Cols: 100, Rows: 30}); err != nil {
		t.Fatalf("resize: %v", err)
	}
	if _, err := client.Do(&protocol.Request{Type: protocol.MsgDetach, ID: id}); err != nil {
		t.Fatalf("detach: %v", err)
	}

	deleted, err := client.Do(&protocol.Request{Type: protocol.MsgDelete, ID: id})
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if deleted.Type != protocol.RespDeleted {
		t.Errorf("delete resp = %+v", deleted)
	}

	list, err = client.Do(&protocol.Request{Type: protocol.MsgList})
	if err != nil {
		t.Fatalf("list after delete: %v", err)
	}
	if len(list.Sessions) != 0 {
		t.Errorf("sessions remain after delete: %+v", list.Sessions)
	}
}

func TestCreateWithSizeOverSocket(t *testing.T) {
	socketPath, _ := startServer(t)
	client := testClient(t, socketPath)

	created, err := client.Do(&protocol.Request{Type: protocol.MsgCreate, Name: "wide", Cols: 132, Rows: 50})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	list, err := client.Do(&protocol.Request{Type: protocol.MsgList})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list.Sessions) != 1 {
		t.Fatalf("list = %+v", list.Sessions)
	}
	if s := list.Sessions[0]; s.ID != created.ID || s.Cols != 132 || s.Rows != 50 {
		t.Errorf("session = %+v, want 132x50", s)
	}
}

func TestSessionErrorsComeBackAsErrorResponses(t *testing.T) {
	socketPath, _ := startServer(t)
	client := testClient(t, socketPath)

	resp, err := client.Do(&protocol.Request{Type: protocol.MsgAttach, ID: "missing"})
	if err == nil {
		t.Fatalf("attach to missing session should fail")
	}
	if resp == nil || resp.Type != protocol.RespError {
		t.Errorf("resp = %+v, want error response", resp)
	}
	if resp.Error == "" {
		t.Errorf("error response should carry a message")
	}

	// The connection stays usable after an error.
	if _, err := client.Do(&protocol.Request{Type: protocol.MsgPing}); err != nil {
		t.Errorf("ping after error: %v", err)
	}
}

func TestUnknownRequestType(t *testing.T) {
	socketPath, _ := startServer(t)
	client := testClient(t, socketPath)

	resp, err := client.Do(&protocol.Request{Type: "explode"})
	if err == nil {
		t.Fatalf("unknown type should fail")
	}
	if resp.Type != protocol.RespError {
		t.Errorf("resp = %+v", resp)
	}
}

func TestMalformedJSONGetsErrorResponse(t *testing.T) {
	socketPath, _ := startServer(t)

	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if _, err := conn.Write([]byte("this is not json\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	buf := make([]byte, 1024)
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, err := conn.Read(buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got := string(buf[:n]); !strings.Contains(got, protocol.RespError) {
		t.Errorf("response %q should be an error", got)
	}
}

func TestOversizedLineRejected(t *testing.T) {
	socketPath, _ := startServer(t)

	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	line := make([]byte, protocol.MaxMessageSize+100)
	for i := range line {
		line[i] = 'a'
	}
	line[len(line)-1] = '\n'
	if _, err := conn.Write(line); err != nil {
		t.Fatalf("write: %v", err)
	}
	buf := make([]byte, 1024)
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, err := conn.Read(buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got := string(buf[:n]); !strings.Contains(got, protocol.RespError) {
		t.Errorf("response %q should be an error", got)
	}
}

func TestDisconnectDetachesClient(t *testing.T) {
	socketPath, manager := startServer(t)
	client := testClient(t, socketPath)

	created, err := client.Do(&protocol.Request{Type: protocol.MsgCreate, Name: "s"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := client.Do(&protocol.Request{Type: protocol.MsgAttach, ID: created.ID}); err != nil {
		t.Fatalf("attach: %v", err)
	}
	sess, err := manager.Get(created.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if sess.Info().AttachedClients != 1 {
		t.Fatalf("attached = %d, want 1", sess.Info().AttachedClients)
	}

	client.Close()

	deadline := time.Now().Add(2 * time.Second)
	for sess.Info().AttachedClients != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("disconnect did not detach the client")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestLoadPluginForwardsPathVerbatim(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "scarabd.sock")
	manager := session.NewManager("/bin/sh", 80, 24, nil)
	defer manager.Shutdown()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := NewServer(manager, socketPath)
	var forwarded []string
	srv.SetPluginForwarder(func(path string) error {
		forwarded = append(forwarded, path)
		return nil
	})
	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, err := os.Stat(socketPath); err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("socket never appeared")
		}
		time.Sleep(5 * time.Millisecond)
	}
	client := testClient(t, socketPath)

	resp, err := client.Do(&protocol.Request{Type: protocol.MsgLoadPlugin, Path: "/opt/plugins/spell.wasm"})
	if err != nil {
		t.Fatalf("load_plugin: %v", err)
	}
	if resp.Type != protocol.RespOK {
		t.Errorf("resp = %+v", resp)
	}
	if len(forwarded) != 1 || forwarded[0] != "/opt/plugins/spell.wasm" {
		t.Errorf("forwarded = %v, want the path untouched", forwarded)
	}
}

func TestLoadPluginWithoutHostIsAnError(t *testing.T) {
	socketPath, _ := startServer(t)
	client := testClient(t, socketPath)

	resp, err := client.Do(&protocol.Request{Type: protocol.MsgLoadPlugin, Path: "x.wasm"})
	if err == nil {
		t.Fatalf("load_plugin without a host should fail")
	}
	if resp.Type != protocol.RespError {
		t.Errorf("resp = %+v", resp)
	}
}

func TestStaleSocketRemoved(t *testing.T) {
	dir := t.TempDir()
	socketPath := filepath.Join(dir, "scarabd.sock")

	// Leave a dead socket file behind, as a crashed daemon would.
	if err := syscall.Mknod(socketPath, syscall.S_IFSOCK|0o600, 0); err != nil {
		t.Fatalf("mknod stale socket: %v", err)
	}

	manager := session.NewManager("/bin/sh", 80, 24, nil)
	defer manager.Shutdown()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	srv := NewServer(manager, socketPath)
	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for {
		if client, err := Dial(socketPath); err == nil {
			if _, err := client.Do(&protocol.Request{Type: protocol.MsgPing}); err != nil {
				t.Errorf("ping: %v", err)
			}
			client.Close()
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("server never became reachable over reclaimed socket")
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-done
}
