package cipher

import (
	"crypto/aes"
	stdcipher "crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"
)

const aesIVLen = 16

type aesCfb struct {
	key [sha256.Size]byte

	iv     []byte
	ivSent bool

	encrypter stdcipher.Stream
	decrypter stdcipher.Stream
}

func newAesCfb(password string) (*aesCfb, error) {
	c := &aesCfb{
		key: sha256.Sum256([]byte(password)),
		iv:  make([]byte, aesIVLen),
	}

	if _, err := io.ReadFull(rand.Reader, c.iv); err != nil {
		return nil, fmt.Errorf("failed to generate iv: %v", err)
	}

	block, err := aes.NewCipher(c.key[:])
	if err != nil {
		return nil, fmt.Errorf("failed to create aes cipher: %v", err)
	}
	c.encrypter = stdcipher.NewCFBEncrypter(block, c.iv)

	return c, nil
}

func (c *aesCfb) Encrypt(b []byte) []byte {
	c.encrypter.XORKeyStream(b, b)
	return b
}

func (c *aesCfb) Decrypt(b []byte) []byte {
	// decrypt state exists only after SetPeerIV; driving it earlier is a
	// programming error, not a runtime condition
	c.decrypter.XORKeyStream(b, b)
	return b
}

func (c *aesCfb) IVToSend() []byte {
	if c.ivSent {
		return nil
	}

	c.ivSent = true
	return c.iv
}

func (c *aesCfb) NeedsPeerIV() bool {
	return c.decrypter == nil
}

func (c *aesCfb) SetPeerIV(iv []byte) error {
	if len(iv) != aesIVLen {
		return fmt.Errorf("invalid iv length(%d), expect %d", len(iv), aesIVLen)
	}

	block, err := aes.NewCipher(c.key[:])
	if err != nil {
		return fmt.Errorf("failed to create aes cipher: %v", err)
	}
	c.decrypter = stdcipher.NewCFBDecrypter(block, iv)

	return nil
}

func (c *aesCfb) IVLen() int {
	return aesIVLen
}
