package portfolio

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/pkg/sftp"
)

// newMemClient returns an sftp client talking to an in-memory server over a pipe.
func newMemClient(t *testing.T) *sftp.Client {
	t.Helper()

	serverConn, clientConn := net.Pipe()

	server := sftp.NewRequestServer(serverConn, sftp.InMemHandler())
	go server.Serve()

	client, err := sftp.NewClientPipe(clientConn, clientConn)
	if err != nil {
		t.Fatalf("NewClientPipe failed: %v", err)
	}

	t.Cleanup(func() {
		client.Close()
		server.Close()
	})

	return client
}

func writeFile(t *testing.T, client *sftp.Client, name string, data []byte) {
	t.Helper()

	f, err := client.Create(name)
	if err != nil {
		t.Fatalf("create %s: %v", name, err)
	}
	if _, err := f.Write(data); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close %s: %v", name, err)
	}
}

func TestCollectFiltersImages(t *testing.T) {
	client := newMemClient(t)

	if err := client.Mkdir("/art"); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := client.Mkdir("/art/nested.png"); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeFile(t, client, "/art/b.jpg", []byte("jpeg-bytes"))
	writeFile(t, client, "/art/a.png", []byte("png-bytes"))
	writeFile(t, client, "/art/readme.txt", []byte("ignore me"))

	items, err := collect(context.Background(), client, "/art")
	if err != nil {
		t.Fatalf("collect failed: %v", err)
	}

	if len(items) != 2 {
		t.Fatalf("expected 2 images, got %d: %+v", len(items), items)
	}
	if items[0].FileName != "a.png" || items[0].MimeType != "image/png" || string(items[0].Data) != "png-bytes" {
		t.Errorf("first item = %+v", items[0])
	}
	if items[1].FileName != "b.jpg" || items[1].MimeType != "image/jpeg" {
		t.Errorf("second item = %+v", items[1])
	}
}

func TestCollectMissingDirectory(t *testing.T) {
	client := newMemClient(t)

	if _, err := collect(context.Background(), client, "/missing"); err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func TestSFTPSourceRequiresHost(t *testing.T) {
	src, err := NewSFTPSource("", 0)
	if err != nil {
		t.Fatalf("NewSFTPSource failed: %v", err)
	}

	if _, err := src.Fetch(context.Background(), Request{Directory: "/art"}); err == nil {
		t.Fatal("expected error without host")
	}
}

func TestSFTPSourceUnreachableHost(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().(*net.TCPAddr)
	ln.Close()

	src, err := NewSFTPSource("", 0)
	if err != nil {
		t.Fatalf("NewSFTPSource failed: %v", err)
	}

	_, err = src.Fetch(context.Background(), Request{Host: "127.0.0.1", Port: addr.Port, Username: "u", Password: "p"})
	if err == nil {
		t.Fatal("expected dial error for closed port")
	}
}

// silentListener accepts TCP connections and never speaks, like a host that stalls before the SSH banner.
func silentListener(t *testing.T) *net.TCPAddr {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	var mu sync.Mutex
	var accepted []net.Conn

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			mu.Lock()
			accepted = append(accepted, conn)
			mu.Unlock()
		}
	}()

	t.Cleanup(func() {
		ln.Close()
		mu.Lock()
		defer mu.Unlock()
		for _, conn := range accepted {
			conn.Close()
		}
	})

	return ln.Addr().(*net.TCPAddr)
}

func TestSFTPSourceStalledHandshakeHonoursContext(t *testing.T) {
	addr := silentListener(t)

	src, err := NewSFTPSource("", 0)
	if err != nil {
		t.Fatalf("NewSFTPSource failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		_, err := src.Fetch(ctx, Request{Host: "127.0.0.1", Port: addr.Port, Username: "u", Password: "p"})
		done <- err
	}()

	select {
	case err := <-done:
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("Fetch error = %v, want deadline exceeded", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Fetch still blocked in the handshake after the context expired")
	}
}

func TestServiceStalledSourceDegradesToEmpty(t *testing.T) {
	addr := silentListener(t)

	src, err := NewSFTPSource("", 0)
	if err != nil {
		t.Fatalf("NewSFTPSource failed: %v", err)
	}

	svc := NewService(200 * time.Millisecond)
	svc.Register(SourceSFTP, src)

	started := time.Now()
	items := svc.Fetch(context.Background(), Request{Host: "127.0.0.1", Port: addr.Port, Username: "u"})

	if items == nil || len(items) != 0 {
		t.Fatalf("items = %#v, want empty", items)
	}
	if elapsed := time.Since(started); elapsed > 3*time.Second {
		t.Fatalf("fetch took %s", elapsed)
	}
}
