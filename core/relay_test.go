package core

import (
	"bytes"
	"io"
	"net"
	"testing"
	"time"
)

// tcpPair dials a loopback listener and returns both ends of one TCP
// connection.
func tcpPair(t *testing.T) (client net.Conn, server net.Conn) {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen %s", err)
	}
	defer listener.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		conn, _ := listener.Accept()
		accepted <- conn
	}()

	client, err = net.Dial("tcp", listener.Addr().String())
	if err != nil {
		t.Fatalf("failed to dial %s", err)
	}

	server = <-accepted
	if server == nil {
		t.Fatalf("failed to accept")
	}

	return client, server
}

func TestRelayForwardsBothWays(t *testing.T) {
	leftClient, leftServer := tcpPair(t)
	rightClient, rightServer := tcpPair(t)
	defer leftClient.Close()
	defer rightServer.Close()

	relayDone := make(chan struct{})
	go func() {
		defer close(relayDone)
		Relay(leftServer, rightClient, 5*time.Second)
	}()

	leftClient.SetDeadline(time.Now().Add(2 * time.Second))
	rightServer.SetDeadline(time.Now().Add(2 * time.Second))

	if _, err := leftClient.Write([]byte("hello")); err != nil {
		t.Fatalf("failed to write %s", err)
	}
	buf := make([]byte, 16)
	n, err := io.ReadAtLeast(rightServer, buf, 5)
	if err != nil {
		t.Fatalf("failed to read %s", err)
	}
	if !bytes.Equal(buf[:n], []byte("hello")) {
		t.Fatalf("payload not match, expect hello, but got %q", buf[:n])
	}

	if _, err := rightServer.Write([]byte("world")); err != nil {
		t.Fatalf("failed to write %s", err)
	}
	n, err = io.ReadAtLeast(leftClient, buf, 5)
	if err != nil {
		t.Fatalf("failed to read %s", err)
	}
	if !bytes.Equal(buf[:n], []byte("world")) {
		t.Fatalf("payload not match, expect world, but got %q", buf[:n])
	}

	// EOF on both ends finishes the relay
	leftClient.Close()
	rightServer.Close()

	select {
	case <-relayDone:
	case <-time.After(3 * time.Second):
		t.Fatalf("relay did not finish after close")
	}
}

func TestRelayHalfClose(t *testing.T) {
	leftClient, leftServer := tcpPair(t)
	rightClient, rightServer := tcpPair(t)
	defer leftClient.Close()
	defer rightServer.Close()

	go Relay(leftServer, rightClient, 5*time.Second)

	leftClient.SetDeadline(time.Now().Add(2 * time.Second))
	rightServer.SetDeadline(time.Now().Add(2 * time.Second))

	if _, err := leftClient.Write([]byte("request")); err != nil {
		t.Fatalf("failed to write %s", err)
	}
	leftClient.(*net.TCPConn).CloseWrite()

	// the origin still sees the request, then EOF
	request, err := io.ReadAll(rightServer)
	if err != nil {
		t.Fatalf("failed to read request %s", err)
	}
	if !bytes.Equal(request, []byte("request")) {
		t.Fatalf("request not match, expect request, but got %q", request)
	}

	// and the draining direction still works
	if _, err := rightServer.Write([]byte("response")); err != nil {
		t.Fatalf("failed to write response %s", err)
	}
	rightServer.Close()

	response, err := io.ReadAll(leftClient)
	if err != nil {
		t.Fatalf("failed to read response %s", err)
	}
	if !bytes.Equal(response, []byte("response")) {
		t.Fatalf("response not match, expect response, but got %q", response)
	}
}

func TestRelayIdleTimeout(t *testing.T) {
	leftClient, leftServer := tcpPair(t)
	rightClient, rightServer := tcpPair(t)
	defer leftClient.Close()
	defer rightServer.Close()

	relayDone := make(chan struct{})
	go func() {
		defer close(relayDone)
		Relay(leftServer, rightClient, 200*time.Millisecond)
	}()

	select {
	case <-relayDone:
	case <-time.After(3 * time.Second):
		t.Fatalf("relay did not time out while idle")
	}

	// both sides observe the teardown
	leftClient.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, err := leftClient.Read(make([]byte, 1)); err == nil {
		t.Fatalf("expect closed connection after idle timeout")
	}
}
