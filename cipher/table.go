package cipher

import (
	"encoding/binary"
	"encoding/hex"
	"sort"

	"github.com/go-zoox/crypto/md5"
)

// table is the legacy byte-permutation "cipher". It is not cryptography; it
// survives here only for interop with old peers and is disabled by default.
type table struct {
	encryptTable [256]byte
	decryptTable [256]byte
}

func newTable(password string) *table {
	digest, _ := hex.DecodeString(md5.Md5(password))
	a := binary.LittleEndian.Uint64(digest[:8])

	perm := make([]int, 256)
	for i := range perm {
		perm[i] = i
	}

	// the original schedule: 1023 stable passes keyed by a%(x+i) - a%i
	for i := uint64(1); i < 1024; i++ {
		sort.SliceStable(perm, func(p, q int) bool {
			kp := int64(a%(uint64(perm[p])+i)) - int64(a%i)
			kq := int64(a%(uint64(perm[q])+i)) - int64(a%i)
			return kp < kq
		})
	}

	t := &table{}
	for i, v := range perm {
		t.encryptTable[i] = byte(v)
		t.decryptTable[v] = byte(i)
	}

	return t
}

func (t *table) Encrypt(b []byte) []byte {
	for i, v := range b {
		b[i] = t.encryptTable[v]
	}
	return b
}

func (t *table) Decrypt(b []byte) []byte {
	for i, v := range b {
		b[i] = t.decryptTable[v]
	}
	return b
}

func (t *table) IVToSend() []byte {
	return nil
}

func (t *table) NeedsPeerIV() bool {
	return false
}

func (t *table) SetPeerIV(iv []byte) error {
	return nil
}

func (t *table) IVLen() int {
	return 0
}
