package cipher

import (
	"bytes"
	"testing"
)

func TestAesCfbRoundTrip(t *testing.T) {
	local, err := New("test_password", MethodAes256Cfb, false)
	if err != nil {
		t.Fatalf("failed to create local cipher %s", err)
	}
	remote, err := New("test_password", MethodAes256Cfb, false)
	if err != nil {
		t.Fatalf("failed to create remote cipher %s", err)
	}

	iv := local.IVToSend()
	if len(iv) != 16 {
		t.Fatalf("iv length not match, expect %d, but got %d", 16, len(iv))
	}
	if local.IVToSend() != nil {
		t.Fatalf("expect second IVToSend to be nil")
	}

	if !remote.NeedsPeerIV() {
		t.Fatalf("expect fresh cipher to need peer iv")
	}
	if err := remote.SetPeerIV(iv); err != nil {
		t.Fatalf("failed to set peer iv %s", err)
	}
	if remote.NeedsPeerIV() {
		t.Fatalf("expect peer iv to be consumed")
	}

	plain := []byte("the quick brown fox jumps over the lazy dog")
	chunks := [][]byte{plain[:7], plain[7:8], plain[8:]}

	var decrypted []byte
	for _, chunk := range chunks {
		enc := local.Encrypt(append([]byte{}, chunk...))
		decrypted = append(decrypted, remote.Decrypt(enc)...)
	}

	if !bytes.Equal(decrypted, plain) {
		t.Fatalf("plaintext not match, expect %q, but got %q", plain, decrypted)
	}
}

func TestAesCfbInvalidPeerIV(t *testing.T) {
	c, err := New("p", MethodAes256Cfb, false)
	if err != nil {
		t.Fatalf("failed to create cipher %s", err)
	}

	if err := c.SetPeerIV(make([]byte, 15)); err == nil {
		t.Fatalf("expect error for short iv, but got nil")
	}
}

func TestTableRoundTrip(t *testing.T) {
	local, err := New("test_password", MethodTable, true)
	if err != nil {
		t.Fatalf("failed to create local cipher %s", err)
	}
	remote, err := New("test_password", MethodTable, true)
	if err != nil {
		t.Fatalf("failed to create remote cipher %s", err)
	}

	if local.IVLen() != 0 {
		t.Fatalf("iv length not match, expect 0, but got %d", local.IVLen())
	}
	if local.NeedsPeerIV() {
		t.Fatalf("expect table cipher to never need a peer iv")
	}

	plain := make([]byte, 256)
	for i := range plain {
		plain[i] = byte(i)
	}

	enc := local.Encrypt(append([]byte{}, plain...))
	dec := remote.Decrypt(enc)

	if !bytes.Equal(dec, plain) {
		t.Fatalf("plaintext not match after table round trip")
	}
}

func TestTableIsPermutation(t *testing.T) {
	c := newTable("another password")

	seen := map[byte]bool{}
	for i := 0; i < 256; i++ {
		seen[c.encryptTable[i]] = true
	}
	if len(seen) != 256 {
		t.Fatalf("encrypt table is not a permutation, got %d distinct values", len(seen))
	}
}

func TestTableDisabledByDefault(t *testing.T) {
	if _, err := New("p", MethodTable, false); err == nil {
		t.Fatalf("expect table method to be refused without opt-in")
	}
}

func TestUnknownMethod(t *testing.T) {
	if _, err := New("p", "rc4", false); err == nil {
		t.Fatalf("expect error for unknown method, but got nil")
	}
}
