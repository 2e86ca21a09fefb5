package srp

import (
	"crypto/sha256"
	"math/big"
)

// Group parameters: the 2048-bit group from RFC 5054 appendix A with
// SHA-256 as the hash function. These must match on both ends of the
// handshake; they are public values and carry no secrets.
const (
	primeHex = "AC6BDB41324A9A9BF166DE5E1389582FAF72B6651987EE07FC3192943DB56050" +
		"A37329CBB4A099ED8193E0757767A13DD52312AB4B03310DCD7F48A9DA04FD50" +
		"E8083969EDB767B0CF6095179A163AB3661A05FBD5FAAAE82918A9962F0B93B8" +
		"55F97993EC975EEAA80D740ADBF4FF747359D041D5C33EA71D281E446B14773B" +
		"CA97B43A23FB801676BD207A436C6481F1D2B9078717461A5B9D32E688F87748" +
		"544523B524B0D57D5EA77A2775D2ECFA032CFBDBF52FB3786160279004E57AE6" +
		"AF874E7303CE53299CCC041C7BC308D82A5698F3A8D0C38271AE35F8E9DBFBB6" +
		"94B5C803D89F7AE435DE236D525F54759B65E372FCD68EF20FA7111F9E4AFF73"

	// primeBytes is the byte length values are left-padded to before hashing.
	primeBytes = 256

	// SaltBytes is the length of a freshly generated salt.
	SaltBytes = 32
)

var (
	prime     = mustHexInt(primeHex)
	generator = big.NewInt(2)

	// multiplier is the SRP-6a k = H(PAD(N), PAD(g)) constant.
	multiplier = intFromHash(hashParts(pad(prime), pad(generator)))
)

func mustHexInt(s string) *big.Int {
	n, ok := new(big.Int).SetString(s, 16)
	if !ok {
		panic("srp: bad group constant")
	}
	return n
}

// pad left-pads the big-endian bytes of v to the prime length.
func pad(v *big.Int) []byte {
	return v.FillBytes(make([]byte, primeBytes))
}

// hashParts returns SHA-256 over the concatenation of parts.
func hashParts(parts ...[]byte) []byte {
	h := sha256.New()
	for _, p := range parts {
		h.Write(p)
	}
	return h.Sum(nil)
}

func intFromHash(digest []byte) *big.Int {
	return new(big.Int).SetBytes(digest)
}

func xorDigests(a, b []byte) []byte {
	out := make([]byte, len(a))
	for i := range a {
		out[i] = a[i] ^ b[i]
	}
	return out
}
