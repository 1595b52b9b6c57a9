package clientconn

import (
	"io"
	"net"
	"testing"
	"time"
)

func TestSend_SmallWriteSucceeds(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	c := New("abc", client, 80, 24)

	done := make(chan []byte, 1)
	go func() {
		buf := make([]byte, 64)
		n, _ := server.Read(buf)
		done <- buf[:n]
	}()

	if err := c.Send([]byte("hello")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	select {
	case got := <-done:
		if string(got) != "hello" {
			t.Fatalf("expected 'hello', got %q", got)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for server read")
	}
}

func TestFlushPending_EmptyIsNoop(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	c := New("abc", client, 80, 24)
	if err := c.FlushPending(); err != nil {
		t.Fatalf("unexpected error on empty flush: %v", err)
	}
}

func TestSend_ClosedConnReportsError(t *testing.T) {
	server, client := net.Pipe()
	server.Close()
	client.Close()

	c := New("abc", client, 80, 24)
	err := c.Send([]byte("x"))
	if err == nil {
		t.Fatalf("expected error writing to closed conn")
	}
	if err == io.EOF {
		t.Fatalf("expected a concrete write error, not io.EOF")
	}
}

func TestPendingLen_StartsZero(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()
	c := New("abc", client, 80, 24)
	if c.PendingLen() != 0 {
		t.Fatalf("expected 0 pending bytes initially")
	}
}
