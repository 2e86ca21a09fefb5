// Package secure implements the endpoint-side framing of chat traffic:
// AES-GCM sealing of logical messages, the chunked streaming variant used
// for large attachments, and the Argon2id derivation of the room key. The
// relay server never imports this package; it forwards ciphertext as-is.
package secure

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	// NonceSize is the AES-GCM nonce length.
	NonceSize = 12
	// TagSize is the AES-GCM authentication tag length.
	TagSize = 16
	// Overhead is the minimum size of any sealed blob.
	Overhead = NonceSize + TagSize

	// chunkSize bounds how much plaintext a single stream block carries, so
	// attachments never have to be held in memory whole.
	chunkSize = 64 * 1024
)

// ErrIntegrity reports a blob that failed authentication: corrupted data,
// a wrong key, or tampering. No partial plaintext is ever returned.
var ErrIntegrity = errors.New("secure: message integrity check failed")

// Cipher seals and opens messages under one room session key.
type Cipher struct {
	aead cipher.AEAD
}

// NewCipher builds an AES-256-GCM cipher from a 32-byte session key.
func NewCipher(key []byte) (*Cipher, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("secure: init cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("secure: init gcm: %w", err)
	}
	return &Cipher{aead: aead}, nil
}

// Seal encrypts plaintext into the wire form nonce(12) | tag(16) | ciphertext.
// A fresh random nonce is drawn per call; nonce reuse under the same key
// breaks confidentiality.
func (c *Cipher) Seal(plaintext []byte) ([]byte, error) {
	out := make([]byte, Overhead+len(plaintext))
	nonce := out[:NonceSize]
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("secure: generate nonce: %w", err)
	}

	// cipher.AEAD produces ciphertext||tag; the wire format wants the tag
	// up front, right after the nonce.
	sealed := c.aead.Seal(nil, nonce, plaintext, nil)
	ct := sealed[:len(plaintext)]
	tag := sealed[len(plaintext):]
	copy(out[NonceSize:Overhead], tag)
	copy(out[Overhead:], ct)
	return out, nil
}

// Open decrypts a blob produced by Seal. Any failure is ErrIntegrity.
func (c *Cipher) Open(blob []byte) ([]byte, error) {
	if len(blob) < Overhead {
		return nil, ErrIntegrity
	}
	nonce := blob[:NonceSize]
	tag := blob[NonceSize:Overhead]
	ct := blob[Overhead:]

	sealed := make([]byte, 0, len(ct)+TagSize)
	sealed = append(sealed, ct...)
	sealed = append(sealed, tag...)

	plaintext, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, ErrIntegrity
	}
	return plaintext, nil
}

// EncryptStream reads plaintext from r and writes a sequence of
// independently sealed blocks to w:
//
//	[int32-LE chunk length][nonce 12][tag 16][ciphertext chunk] ...
//
// Each block gets its own nonce, so arbitrarily large inputs stream
// through a fixed-size buffer.
func (c *Cipher) EncryptStream(r io.Reader, w io.Writer) error {
	buf := make([]byte, chunkSize)
	var header [4]byte
	nonce := make([]byte, NonceSize)

	for {
		n, readErr := io.ReadFull(r, buf)
		if n > 0 {
			if _, err := rand.Read(nonce); err != nil {
				return fmt.Errorf("secure: generate nonce: %w", err)
			}
			sealed := c.aead.Seal(nil, nonce, buf[:n], nil)
			ct := sealed[:n]
			tag := sealed[n:]

			binary.LittleEndian.PutUint32(header[:], uint32(n))
			if _, err := w.Write(header[:]); err != nil {
				return fmt.Errorf("secure: write chunk header: %w", err)
			}
			if _, err := w.Write(nonce); err != nil {
				return fmt.Errorf("secure: write nonce: %w", err)
			}
			if _, err := w.Write(tag); err != nil {
				return fmt.Errorf("secure: write tag: %w", err)
			}
			if _, err := w.Write(ct); err != nil {
				return fmt.Errorf("secure: write chunk: %w", err)
			}
		}
		if readErr == io.EOF || readErr == io.ErrUnexpectedEOF {
			return nil
		}
		if readErr != nil {
			return fmt.Errorf("secure: read plaintext: %w", readErr)
		}
	}
}

// DecryptStream reverses EncryptStream. A truncated block, an oversized
// length prefix, or a failed tag check all surface as ErrIntegrity.
func (c *Cipher) DecryptStream(r io.Reader, w io.Writer) error {
	var header [4]byte
	nonce := make([]byte, NonceSize)
	tag := make([]byte, TagSize)
	buf := make([]byte, chunkSize+TagSize)

	for {
		if _, err := io.ReadFull(r, header[:]); err != nil {
			if err == io.EOF {
				return nil
			}
			return ErrIntegrity
		}
		n := int(binary.LittleEndian.Uint32(header[:]))
		if n <= 0 || n > chunkSize {
			return ErrIntegrity
		}
		if _, err := io.ReadFull(r, nonce); err != nil {
			return ErrIntegrity
		}
		if _, err := io.ReadFull(r, tag); err != nil {
			return ErrIntegrity
		}
		sealed := buf[:n+TagSize]
		if _, err := io.ReadFull(r, sealed[:n]); err != nil {
			return ErrIntegrity
		}
		copy(sealed[n:], tag)

		plaintext, err := c.aead.Open(nil, nonce, sealed, nil)
		if err != nil {
			return ErrIntegrity
		}
		if _, err := w.Write(plaintext); err != nil {
			return fmt.Errorf("secure: write plaintext: %w", err)
		}
	}
}
