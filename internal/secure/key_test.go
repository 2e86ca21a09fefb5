package secure

import (
	"bytes"
	"testing"
)

func TestDeriveRoomKey(t *testing.T) {
	if testing.Short() {
		t.Skip("argon2id derivation is deliberately slow")
	}

	k1 := DeriveRoomKey("password", "lobby")
	if len(k1) != keyLen {
		t.Fatalf("key length = %d, want %d", len(k1), keyLen)
	}

	if !bytes.Equal(k1, DeriveRoomKey("password", "lobby")) {
		t.Fatal("derivation not deterministic")
	}
	if bytes.Equal(k1, DeriveRoomKey("password", "other-room")) {
		t.Fatal("same key for different rooms")
	}
	if bytes.Equal(k1, DeriveRoomKey("other-password", "lobby")) {
		t.Fatal("same key for different passwords")
	}

	if _, err := NewCipher(k1); err != nil {
		t.Fatalf("derived key unusable for the cipher: %v", err)
	}
}
