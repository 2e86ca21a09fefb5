// Package srp implements the SRP-6a password-authenticated key exchange
// math used by the room handshake. All public values travel as hex
// strings; the network choreography lives in internal/handshake.
package srp

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"
)

var (
	// ErrBadEncoding reports a value that is not valid hex.
	ErrBadEncoding = errors.New("srp: value is not valid hex")
	// ErrInvalidPublicKey reports a public ephemeral that is zero modulo N.
	ErrInvalidPublicKey = errors.New("srp: public ephemeral is zero modulo N")
	// ErrProofMismatch reports a session proof that does not verify.
	ErrProofMismatch = errors.New("srp: session proof mismatch")
)

// Ephemeral is a one-shot keypair for a single handshake run.
type Ephemeral struct {
	Secret string
	Public string
}

// Session is the outcome of a session derivation: the shared key and the
// proof the deriving side sends to its peer.
type Session struct {
	Key   string
	Proof string
}

// GenerateSalt returns a fresh random salt as hex.
func GenerateSalt() (string, error) {
	buf := make([]byte, SaltBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("srp: generate salt: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// DerivePrivateKey computes x = H(s, H(I ":" P)). Only the client ever
// holds x; the server stores the verifier derived from it.
func DerivePrivateKey(salt, identity, password string) (string, error) {
	saltBytes, err := hex.DecodeString(salt)
	if err != nil {
		return "", ErrBadEncoding
	}
	inner := hashParts([]byte(identity + ":" + password))
	x := hashParts(saltBytes, inner)
	return hex.EncodeToString(x), nil
}

// DeriveVerifier computes v = g^x mod N from the private key.
func DeriveVerifier(privateKey string) (string, error) {
	x, err := parseHex(privateKey)
	if err != nil {
		return "", err
	}
	v := new(big.Int).Exp(generator, x, prime)
	return v.Text(16), nil
}

// GenerateEphemeral creates the client keypair: A = g^a mod N.
func GenerateEphemeral() (Ephemeral, error) {
	a, err := randomScalar()
	if err != nil {
		return Ephemeral{}, err
	}
	A := new(big.Int).Exp(generator, a, prime)
	return Ephemeral{Secret: a.Text(16), Public: A.Text(16)}, nil
}

// GenerateServerEphemeral creates the server keypair for the given
// verifier: B = (k*v + g^b) mod N.
func GenerateServerEphemeral(verifier string) (Ephemeral, error) {
	v, err := parseHex(verifier)
	if err != nil {
		return Ephemeral{}, err
	}
	b, err := randomScalar()
	if err != nil {
		return Ephemeral{}, err
	}
	B := new(big.Int).Exp(generator, b, prime)
	B.Add(B, new(big.Int).Mul(multiplier, v))
	B.Mod(B, prime)
	return Ephemeral{Secret: b.Text(16), Public: B.Text(16)}, nil
}

// IsValidPublic reports whether pub parses as hex and is nonzero modulo N.
// A zero value would force the shared secret to zero, so it is treated as
// hostile input by callers.
func IsValidPublic(pub string) bool {
	n, err := parseHex(pub)
	if err != nil {
		return false
	}
	return new(big.Int).Mod(n, prime).Sign() != 0
}

// DeriveClientSession computes the client side of the exchange:
// S = (B - k*g^x)^(a + u*x) mod N, K = H(S), M1 = H(H(N) xor H(g), H(I), s, A, B, K).
func DeriveClientSession(secret, serverPublic, salt, identity, privateKey string) (Session, error) {
	a, err := parseHex(secret)
	if err != nil {
		return Session{}, err
	}
	B, err := parseHex(serverPublic)
	if err != nil {
		return Session{}, err
	}
	if new(big.Int).Mod(B, prime).Sign() == 0 {
		return Session{}, ErrInvalidPublicKey
	}
	saltBytes, err := hex.DecodeString(salt)
	if err != nil {
		return Session{}, ErrBadEncoding
	}
	x, err := parseHex(privateKey)
	if err != nil {
		return Session{}, err
	}

	A := new(big.Int).Exp(generator, a, prime)
	u := computeU(A, B)
	if u.Sign() == 0 {
		return Session{}, ErrInvalidPublicKey
	}

	// S = (B - k*g^x)^(a + u*x) mod N
	base := new(big.Int).Exp(generator, x, prime)
	base.Mul(base, multiplier)
	base.Sub(B, base)
	base.Mod(base, prime)
	exp := new(big.Int).Mul(u, x)
	exp.Add(exp, a)
	S := new(big.Int).Exp(base, exp, prime)

	key := hashParts(pad(S))
	proof := clientProof(identity, saltBytes, A, B, key)
	return Session{Key: hex.EncodeToString(key), Proof: hex.EncodeToString(proof)}, nil
}

// DeriveServerSession computes the server side of the exchange from the
// stored verifier and checks the client's proof in constant time. On
// success it returns the shared key and the server proof M2.
func DeriveServerSession(secret, clientPublic, salt, identity, verifier, clientSessionProof string) (Session, error) {
	b, err := parseHex(secret)
	if err != nil {
		return Session{}, err
	}
	A, err := parseHex(clientPublic)
	if err != nil {
		return Session{}, err
	}
	if new(big.Int).Mod(A, prime).Sign() == 0 {
		return Session{}, ErrInvalidPublicKey
	}
	saltBytes, err := hex.DecodeString(salt)
	if err != nil {
		return Session{}, ErrBadEncoding
	}
	v, err := parseHex(verifier)
	if err != nil {
		return Session{}, err
	}
	theirProof, err := hex.DecodeString(strings.ToLower(clientSessionProof))
	if err != nil {
		return Session{}, ErrBadEncoding
	}

	B := new(big.Int).Exp(generator, b, prime)
	B.Add(B, new(big.Int).Mul(multiplier, v))
	B.Mod(B, prime)

	u := computeU(A, B)
	if u.Sign() == 0 {
		return Session{}, ErrInvalidPublicKey
	}

	// S = (A * v^u)^b mod N
	base := new(big.Int).Exp(v, u, prime)
	base.Mul(base, A)
	base.Mod(base, prime)
	S := new(big.Int).Exp(base, b, prime)

	key := hashParts(pad(S))
	expected := clientProof(identity, saltBytes, A, B, key)
	if subtle.ConstantTimeCompare(expected, theirProof) != 1 {
		return Session{}, ErrProofMismatch
	}

	proof := hashParts(pad(A), expected, key)
	return Session{Key: hex.EncodeToString(key), Proof: hex.EncodeToString(proof)}, nil
}

// VerifyServerProof checks M2 = H(A, M1, K) against the server's proof.
func VerifyServerProof(clientPublic string, session Session, serverProof string) bool {
	A, err := parseHex(clientPublic)
	if err != nil {
		return false
	}
	m1, err := hex.DecodeString(strings.ToLower(session.Proof))
	if err != nil {
		return false
	}
	key, err := hex.DecodeString(strings.ToLower(session.Key))
	if err != nil {
		return false
	}
	theirs, err := hex.DecodeString(strings.ToLower(serverProof))
	if err != nil {
		return false
	}
	expected := hashParts(pad(A), m1, key)
	return subtle.ConstantTimeCompare(expected, theirs) == 1
}

// computeU derives the scrambling parameter u = H(PAD(A), PAD(B)).
func computeU(A, B *big.Int) *big.Int {
	return intFromHash(hashParts(pad(A), pad(B)))
}

// clientProof computes M1 = H(H(N) xor H(g), H(I), s, PAD(A), PAD(B), K).
func clientProof(identity string, salt []byte, A, B *big.Int, key []byte) []byte {
	groupDigest := xorDigests(hashParts(pad(prime)), hashParts(pad(generator)))
	return hashParts(groupDigest, hashParts([]byte(identity)), salt, pad(A), pad(B), key)
}

func parseHex(s string) (*big.Int, error) {
	n, ok := new(big.Int).SetString(strings.TrimSpace(s), 16)
	if !ok {
		return nil, ErrBadEncoding
	}
	return n, nil
}

func randomScalar() (*big.Int, error) {
	for {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return nil, fmt.Errorf("srp: generate ephemeral: %w", err)
		}
		n := new(big.Int).SetBytes(buf)
		if n.Sign() != 0 {
			return n, nil
		}
	}
}
