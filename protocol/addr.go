package protocol

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"strconv"
)

const (
	ATypIPv4   = 0x01
	ATypDomain = 0x03
	ATypIPv6   = 0x04
)

// MaxHostLength is the longest hostname an ADDR HEADER can carry.
const MaxHostLength = 255

// ErrInvalidAddr is the decode-side rejection signal: an impossible ATYP or a
// zero-length host means the peer does not share our key.
var ErrInvalidAddr = fmt.Errorf("invalid addr header")

// Addr is the destination record sent from local to remote as the first
// plaintext bytes of a tunnel.
type Addr struct {
	Type uint8
	// Host is the dotted/colon form for ATypIPv4/ATypIPv6, the hostname for
	// ATypDomain.
	Host string
	Port uint16
}

// NewAddr builds an Addr for host, picking the ATYP from the host's form.
func NewAddr(host string, port uint16) *Addr {
	addr := &Addr{Type: ATypDomain, Host: host, Port: port}

	if ip := net.ParseIP(host); ip != nil {
		if ip.To4() != nil {
			addr.Type = ATypIPv4
		} else {
			addr.Type = ATypIPv6
		}
	}

	return addr
}

func (a *Addr) String() string {
	return net.JoinHostPort(a.Host, strconv.Itoa(int(a.Port)))
}

func (a *Addr) Encode() ([]byte, error) {
	buf := bytes.NewBuffer([]byte{})

	switch a.Type {
	case ATypIPv4:
		ip := net.ParseIP(a.Host)
		if ip == nil || ip.To4() == nil {
			return nil, fmt.Errorf("addr %q is not an ipv4 address", a.Host)
		}
		buf.WriteByte(ATypIPv4)
		buf.Write(ip.To4())
	case ATypDomain:
		if len(a.Host) == 0 || len(a.Host) > MaxHostLength {
			return nil, fmt.Errorf("hostname length(%d) out of range", len(a.Host))
		}
		buf.WriteByte(ATypDomain)
		buf.WriteByte(byte(len(a.Host)))
		buf.WriteString(a.Host)
	case ATypIPv6:
		ip := net.ParseIP(a.Host)
		if ip == nil || ip.To16() == nil {
			return nil, fmt.Errorf("addr %q is not an ipv6 address", a.Host)
		}
		buf.WriteByte(ATypIPv6)
		buf.Write(ip.To16())
	default:
		return nil, fmt.Errorf("unknown atyp: %d", a.Type)
	}

	port := make([]byte, 2)
	binary.BigEndian.PutUint16(port, a.Port)
	buf.Write(port)

	return buf.Bytes(), nil
}

// ReadAddr reads just enough bytes from r to decode one ADDR HEADER. On the
// remote side r is the decrypting stream, so garbage here is how a key
// mismatch surfaces.
func ReadAddr(r io.Reader) (*Addr, error) {
	buf := make([]byte, MaxHostLength)

	if _, err := io.ReadFull(r, buf[:1]); err != nil {
		return nil, fmt.Errorf("failed to read atyp: %v", err)
	}

	addr := &Addr{Type: buf[0]}

	switch addr.Type {
	case ATypIPv4:
		if _, err := io.ReadFull(r, buf[:net.IPv4len]); err != nil {
			return nil, fmt.Errorf("failed to read ipv4 addr: %v", err)
		}
		addr.Host = net.IP(buf[:net.IPv4len]).String()
	case ATypDomain:
		if _, err := io.ReadFull(r, buf[:1]); err != nil {
			return nil, fmt.Errorf("failed to read hostname length: %v", err)
		}
		length := int(buf[0])
		if length == 0 {
			return nil, ErrInvalidAddr
		}
		if _, err := io.ReadFull(r, buf[:length]); err != nil {
			return nil, fmt.Errorf("failed to read hostname: %v", err)
		}
		addr.Host = string(buf[:length])
	case ATypIPv6:
		if _, err := io.ReadFull(r, buf[:net.IPv6len]); err != nil {
			return nil, fmt.Errorf("failed to read ipv6 addr: %v", err)
		}
		addr.Host = net.IP(buf[:net.IPv6len]).String()
	default:
		return nil, ErrInvalidAddr
	}

	if _, err := io.ReadFull(r, buf[:2]); err != nil {
		return nil, fmt.Errorf("failed to read port: %v", err)
	}
	addr.Port = binary.BigEndian.Uint16(buf[:2])

	return addr, nil
}

// Decode decodes an ADDR HEADER from a byte slice.
func Decode(raw []byte) (*Addr, error) {
	return ReadAddr(bytes.NewReader(raw))
}
