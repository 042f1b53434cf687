// Package cipher implements the tunnel's symmetric stream ciphers: the
// aes-256-cfb stream format and the legacy password-seeded table permutation.
package cipher

import "fmt"

const (
	MethodAes256Cfb = "aes-256-cfb"
	MethodTable     = "table"
)

// Cipher is a keyed stream cipher pair. Each instance owns exactly one
// encrypt state and one decrypt state and MUST be driven in byte order; it is
// never shared between connections.
type Cipher interface {
	Encrypt(b []byte) []byte
	Decrypt(b []byte) []byte

	// IVToSend returns the local IV exactly once, then nil. The caller
	// prepends it, in clear, to the first outgoing write.
	IVToSend() []byte
	// NeedsPeerIV reports whether the peer IV has yet to be consumed.
	NeedsPeerIV() bool
	// SetPeerIV consumes the peer IV and initializes the decrypt state.
	SetPeerIV(iv []byte) error
	IVLen() int
}

// New creates a cipher for the given pre-shared password.
//
// The table method is an unsafe interop shim and is refused unless allowTable
// is set.
func New(password, method string, allowTable bool) (Cipher, error) {
	switch method {
	case MethodAes256Cfb:
		c, err := newAesCfb(password)
		if err != nil {
			return nil, err
		}
		return c, nil
	case MethodTable:
		if !allowTable {
			return nil, fmt.Errorf("method %q is insecure and disabled, set allow_table to enable it", method)
		}
		return newTable(password), nil
	default:
		return nil, fmt.Errorf("unknown cipher method: %q", method)
	}
}
