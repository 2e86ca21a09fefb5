package srp

import (
	"errors"
	"strings"
	"testing"
)

// runExchange executes a full SRP round between a client holding the
// password and a server holding only (salt, verifier).
func runExchange(t *testing.T, identity, registeredPassword, presentedPassword string) (client Session, server Session, err error) {
	t.Helper()

	salt, err := GenerateSalt()
	if err != nil {
		t.Fatalf("GenerateSalt: %v", err)
	}
	regKey, err := DerivePrivateKey(salt, identity, registeredPassword)
	if err != nil {
		t.Fatalf("DerivePrivateKey: %v", err)
	}
	verifier, err := DeriveVerifier(regKey)
	if err != nil {
		t.Fatalf("DeriveVerifier: %v", err)
	}

	clientEph, err := GenerateEphemeral()
	if err != nil {
		t.Fatalf("GenerateEphemeral: %v", err)
	}
	serverEph, err := GenerateServerEphemeral(verifier)
	if err != nil {
		t.Fatalf("GenerateServerEphemeral: %v", err)
	}

	presentedKey, err := DerivePrivateKey(salt, identity, presentedPassword)
	if err != nil {
		t.Fatalf("DerivePrivateKey: %v", err)
	}
	client, err = DeriveClientSession(clientEph.Secret, serverEph.Public, salt, identity, presentedKey)
	if err != nil {
		t.Fatalf("DeriveClientSession: %v", err)
	}

	server, err = DeriveServerSession(serverEph.Secret, clientEph.Public, salt, identity, verifier, client.Proof)
	return client, server, err
}

func TestExchangeRoundTrip(t *testing.T) {
	client, server, err := runExchange(t, "lobby", "correct horse", "correct horse")
	if err != nil {
		t.Fatalf("server rejected valid proof: %v", err)
	}
	if client.Key == "" || client.Key != server.Key {
		t.Fatalf("keys diverge: client=%q server=%q", client.Key, server.Key)
	}
}

func TestExchangeWrongPassword(t *testing.T) {
	_, _, err := runExchange(t, "lobby", "correct horse", "battery staple")
	if !errors.Is(err, ErrProofMismatch) {
		t.Fatalf("err = %v, want ErrProofMismatch", err)
	}
}

func TestServerProofVerifies(t *testing.T) {
	identity, password := "lobby", "pw"

	salt, _ := GenerateSalt()
	x, _ := DerivePrivateKey(salt, identity, password)
	verifier, _ := DeriveVerifier(x)

	clientEph, _ := GenerateEphemeral()
	serverEph, _ := GenerateServerEphemeral(verifier)

	client, err := DeriveClientSession(clientEph.Secret, serverEph.Public, salt, identity, x)
	if err != nil {
		t.Fatalf("DeriveClientSession: %v", err)
	}
	server, err := DeriveServerSession(serverEph.Secret, clientEph.Public, salt, identity, verifier, client.Proof)
	if err != nil {
		t.Fatalf("DeriveServerSession: %v", err)
	}

	if !VerifyServerProof(clientEph.Public, client, server.Proof) {
		t.Fatal("valid server proof rejected")
	}
	tampered := strings.Repeat("0", len(server.Proof))
	if VerifyServerProof(clientEph.Public, client, tampered) {
		t.Fatal("tampered server proof accepted")
	}
}

func TestVerifierIsDeterministic(t *testing.T) {
	salt, _ := GenerateSalt()

	x1, _ := DerivePrivateKey(salt, "room", "pw")
	x2, _ := DerivePrivateKey(salt, "room", "pw")
	if x1 != x2 {
		t.Fatal("private key not deterministic for fixed inputs")
	}

	v1, _ := DeriveVerifier(x1)
	v2, _ := DeriveVerifier(x2)
	if v1 != v2 {
		t.Fatal("verifier not deterministic for fixed inputs")
	}

	other, _ := DerivePrivateKey(salt, "room", "different")
	vOther, _ := DeriveVerifier(other)
	if vOther == v1 {
		t.Fatal("different passwords produced the same verifier")
	}
}

func TestEphemeralsAreFresh(t *testing.T) {
	e1, err := GenerateEphemeral()
	if err != nil {
		t.Fatalf("GenerateEphemeral: %v", err)
	}
	e2, err := GenerateEphemeral()
	if err != nil {
		t.Fatalf("GenerateEphemeral: %v", err)
	}
	if e1.Public == e2.Public || e1.Secret == e2.Secret {
		t.Fatal("two ephemerals collided")
	}
}

func TestIsValidPublic(t *testing.T) {
	eph, err := GenerateEphemeral()
	if err != nil {
		t.Fatalf("GenerateEphemeral: %v", err)
	}
	if !IsValidPublic(eph.Public) {
		t.Fatal("honest public key rejected")
	}
	if IsValidPublic("00") {
		t.Fatal("zero accepted")
	}
	if IsValidPublic(primeHex) {
		t.Fatal("N accepted; N mod N is zero")
	}
	if IsValidPublic("not hex at all") {
		t.Fatal("garbage accepted")
	}
}

func TestZeroClientPublicRejected(t *testing.T) {
	salt, _ := GenerateSalt()
	x, _ := DerivePrivateKey(salt, "room", "pw")
	verifier, _ := DeriveVerifier(x)
	serverEph, _ := GenerateServerEphemeral(verifier)

	_, err := DeriveServerSession(serverEph.Secret, "00", salt, "room", verifier, "aa")
	if !errors.Is(err, ErrInvalidPublicKey) {
		t.Fatalf("err = %v, want ErrInvalidPublicKey", err)
	}
}

func TestBadEncodingRejected(t *testing.T) {
	if _, err := DeriveVerifier("zzzz"); !errors.Is(err, ErrBadEncoding) {
		t.Fatalf("DeriveVerifier err = %v, want ErrBadEncoding", err)
	}
	if _, err := DerivePrivateKey("zzzz", "room", "pw"); !errors.Is(err, ErrBadEncoding) {
		t.Fatalf("DerivePrivateKey err = %v, want ErrBadEncoding", err)
	}
}
