// Package handshake runs the 4-message SRP-6a exchange over an
// already-established message connection, once per connection, before any
// relay traffic is accepted:
//
//	1. client -> server: A  (client public ephemeral)
//	2. server -> client: salt, B
//	3. client -> server: M1 (client session proof)
//	4. server -> client: M2 (server session proof)
//
// The server holds only (salt, verifier) and never learns the password.
package handshake

import (
	"context"
	"errors"

	"github.com/Lesoorub/SecureChat/internal/srp"
)

// Conn is the minimal message-framed transport the handshake needs. The
// implementation must return one complete logical message per read.
type Conn interface {
	ReadMessage(ctx context.Context) ([]byte, error)
	WriteMessage(ctx context.Context, data []byte) error
}

// Server authenticates one inbound connection against the room's stored
// (salt, verifier) pair. On success it returns the SRP session key; the
// key proves the exchange completed but is never used for relay traffic,
// since the server only forwards ciphertext.
//
// The caller bounds the whole exchange with a context deadline and is
// responsible for the uniform failure delay.
func Server(ctx context.Context, conn Conn, identity, salt, verifier string) (string, error) {
	clientPublic, err := readString(ctx, conn)
	if err != nil {
		return "", classify(ctx, err, "read client ephemeral")
	}
	if !srp.IsValidPublic(clientPublic) {
		// Zero (mod N) or unparsable A forces a degenerate shared secret.
		// Treated as an attack, not a bad password.
		return "", newError(ReasonProtocolViolation, "client public ephemeral rejected")
	}

	eph, err := srp.GenerateServerEphemeral(verifier)
	if err != nil {
		return "", wrapError(ReasonProtocolViolation, "stored verifier rejected", err)
	}

	if err := writeString(ctx, conn, salt); err != nil {
		return "", classify(ctx, err, "send salt")
	}
	if err := writeString(ctx, conn, eph.Public); err != nil {
		return "", classify(ctx, err, "send server ephemeral")
	}

	clientProof, err := readString(ctx, conn)
	if err != nil {
		return "", classify(ctx, err, "read client proof")
	}

	session, err := srp.DeriveServerSession(eph.Secret, clientPublic, salt, identity, verifier, clientProof)
	if err != nil {
		if errors.Is(err, srp.ErrProofMismatch) {
			// Wrong password: close without sending M2.
			return "", wrapError(ReasonWrongPassword, "client proof mismatch", err)
		}
		return "", wrapError(ReasonProtocolViolation, "derive server session", err)
	}

	if err := writeString(ctx, conn, session.Proof); err != nil {
		return "", classify(ctx, err, "send server proof")
	}
	return session.Key, nil
}

// Client authenticates to a room using the plaintext password and returns
// the SRP session key. A server proof that does not verify is fatal: the
// room must not be trusted.
func Client(ctx context.Context, conn Conn, identity, password string) (string, error) {
	eph, err := srp.GenerateEphemeral()
	if err != nil {
		return "", wrapError(ReasonConnectionError, "generate ephemeral", err)
	}

	if err := writeString(ctx, conn, eph.Public); err != nil {
		return "", classify(ctx, err, "send client ephemeral")
	}

	salt, err := readString(ctx, conn)
	if err != nil {
		return "", classify(ctx, err, "read salt")
	}
	serverPublic, err := readString(ctx, conn)
	if err != nil {
		return "", classify(ctx, err, "read server ephemeral")
	}

	privateKey, err := srp.DerivePrivateKey(salt, identity, password)
	if err != nil {
		return "", wrapError(ReasonProtocolViolation, "server salt rejected", err)
	}
	session, err := srp.DeriveClientSession(eph.Secret, serverPublic, salt, identity, privateKey)
	if err != nil {
		return "", wrapError(ReasonProtocolViolation, "server ephemeral rejected", err)
	}

	if err := writeString(ctx, conn, session.Proof); err != nil {
		return "", classify(ctx, err, "send client proof")
	}

	serverProof, err := readString(ctx, conn)
	if err != nil {
		// The server closes without M2 when the proof does not match, so a
		// dead connection here is indistinguishable from a rejection.
		if timedOut(ctx, err) {
			return "", wrapError(ReasonTimeout, "read server proof", err)
		}
		return "", wrapError(ReasonWrongPassword, "server rejected proof", err)
	}
	if !srp.VerifyServerProof(eph.Public, session, serverProof) {
		return "", newError(ReasonWrongPassword, "server proof mismatch")
	}
	return session.Key, nil
}

func readString(ctx context.Context, conn Conn) (string, error) {
	data, err := conn.ReadMessage(ctx)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func writeString(ctx context.Context, conn Conn, s string) error {
	return conn.WriteMessage(ctx, []byte(s))
}

func timedOut(ctx context.Context, err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded)
}

func classify(ctx context.Context, err error, msg string) *Error {
	if timedOut(ctx, err) {
		return wrapError(ReasonTimeout, msg, err)
	}
	return wrapError(ReasonConnectionError, msg, err)
}
