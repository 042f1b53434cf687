package socks5

import (
	"bytes"
	"net"
	"testing"
	"time"

	"github.com/WaenMax/jumptiger/protocol"
)

// drive runs Negotiate against a piped client that plays the given request
// bytes and collects everything the negotiator replies.
func drive(t *testing.T, input []byte) (addr *protocol.Addr, replies []byte, err error) {
	t.Helper()

	server, client := net.Pipe()
	client.SetDeadline(time.Now().Add(2 * time.Second))

	go func() {
		client.Write(input)
	}()

	var out bytes.Buffer
	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		buf := make([]byte, 64)
		for {
			n, rerr := client.Read(buf)
			out.Write(buf[:n])
			if rerr != nil {
				return
			}
		}
	}()

	a, nerr := Negotiate(server, 2*time.Second)
	server.Close()
	<-readerDone
	client.Close()

	return a, out.Bytes(), nerr
}

func TestNegotiateIPv4(t *testing.T) {
	input := []byte{
		0x05, 0x01, 0x00, // greeting: one method, no-auth
		0x05, 0x01, 0x00, 0x01, // request: CONNECT, ipv4
		0x01, 0x02, 0x03, 0x04, // 1.2.3.4
		0x00, 0x50, // port 80
	}

	addr, replies, err := drive(t, input)
	if err != nil {
		t.Fatalf("failed to negotiate %s", err)
	}

	expected := append([]byte{0x05, 0x00}, replySuccess...)
	if !bytes.Equal(replies, expected) {
		t.Fatalf("replies not match, expect %v, but got %v", expected, replies)
	}

	if addr.String() != "1.2.3.4:80" {
		t.Fatalf("target not match, expect 1.2.3.4:80, but got %s", addr.String())
	}
}

func TestNegotiateHostname(t *testing.T) {
	input := []byte{0x05, 0x01, 0x00, 0x05, 0x01, 0x00, 0x03, 0x0B}
	input = append(input, []byte("example.com")...)
	input = append(input, 0x01, 0xBB)

	addr, _, err := drive(t, input)
	if err != nil {
		t.Fatalf("failed to negotiate %s", err)
	}

	if addr.String() != "example.com:443" {
		t.Fatalf("target not match, expect example.com:443, but got %s", addr.String())
	}
}

func TestNegotiateBindRejected(t *testing.T) {
	input := []byte{
		0x05, 0x01, 0x00,
		0x05, 0x02, 0x00, 0x01, // BIND
		0x01, 0x02, 0x03, 0x04, 0x00, 0x50,
	}

	_, replies, err := drive(t, input)
	if err != ErrUnsupportedCommand {
		t.Fatalf("error not match, expect %v, but got %v", ErrUnsupportedCommand, err)
	}

	expected := append([]byte{0x05, 0x00}, replyFailure(0x07)...)
	if !bytes.Equal(replies, expected) {
		t.Fatalf("replies not match, expect %v, but got %v", expected, replies)
	}
}

func TestNegotiateUnknownAddrType(t *testing.T) {
	input := []byte{
		0x05, 0x01, 0x00,
		0x05, 0x01, 0x00, 0x05, // atyp 5
		0x00, 0x50,
	}

	_, replies, err := drive(t, input)
	if err != ErrUnsupportedAddrType {
		t.Fatalf("error not match, expect %v, but got %v", ErrUnsupportedAddrType, err)
	}

	expected := append([]byte{0x05, 0x00}, replyFailure(0x08)...)
	if !bytes.Equal(replies, expected) {
		t.Fatalf("replies not match, expect %v, but got %v", expected, replies)
	}
}

func TestNegotiateZeroLengthHostname(t *testing.T) {
	input := []byte{
		0x05, 0x01, 0x00,
		0x05, 0x01, 0x00, 0x03,
		0x00,       // zero-length hostname
		0x00, 0x50, // port
	}

	_, _, err := drive(t, input)
	if err != ErrMalformedRequest {
		t.Fatalf("error not match, expect %v, but got %v", ErrMalformedRequest, err)
	}
}

func TestNegotiateWrongVersion(t *testing.T) {
	_, _, err := drive(t, []byte{0x04, 0x01, 0x00})
	if err != ErrUnsupportedVersion {
		t.Fatalf("error not match, expect %v, but got %v", ErrUnsupportedVersion, err)
	}
}
