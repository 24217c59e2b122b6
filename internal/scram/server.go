package scram

import (
	"fmt"

	"github.com/dmitrijs2005/dbwire/internal/common"
)

type serverState int

const (
	serverStateInit serverState = iota
	serverStateSentFirst
	serverStateDone
	serverStateFailed
)

// ServerSession verifies one client handshake attempt against a stored
// verifier. The session holds only the verifier and the handshake
// transcript; it never sees the password.
type ServerSession struct {
	verifier *Verifier

	state           serverState
	clientNonce     string
	serverNonce     string
	clientFirstBare []byte
	serverFirst     string
}

// NewServerSession prepares a handshake attempt for a user whose
// persisted verifier is verifierText.
func NewServerSession(verifierText string) (*ServerSession, error) {
	v, err := ParseVerifier(verifierText)
	if err != nil {
		return nil, err
	}
	return &ServerSession{verifier: v}, nil
}

// ClientFirst consumes the client-first message and returns the
// server-first challenge.
func (s *ServerSession) ClientFirst(msg []byte) (string, error) {
	if s.state != serverStateInit {
		return "", common.ErrHandshakeState
	}

	parsed, err := ParseClientFirstMessage(msg)
	if err != nil {
		s.state = serverStateFailed
		return "", err
	}

	s.clientNonce = parsed.ClientNonce
	s.serverNonce = GenerateNonce()

	// The bare part of the transcript starts right after the gs2 header.
	bare := make([]byte, len(msg)-parsed.GS2HeaderLength)
	copy(bare, msg[parsed.GS2HeaderLength:])
	s.clientFirstBare = bare

	s.serverFirst = BuildServerFirstMessage(
		s.serverNonce, s.clientNonce, s.verifier.Salt, s.verifier.Iterations)
	s.state = serverStateSentFirst
	return s.serverFirst, nil
}

// ClientFinal consumes the client-final message, checks the proof
// against the stored key and returns the server-final message carrying
// the server signature.
func (s *ServerSession) ClientFinal(msg []byte) (string, error) {
	if s.state != serverStateSentFirst {
		return "", common.ErrHandshakeState
	}

	_, proof, proofLen, err := ParseClientFinalMessage(msg, s.clientNonce, s.serverNonce)
	if err != nil {
		s.state = serverStateFailed
		return "", err
	}

	withoutProof := msg[:len(msg)-proofLen]

	if !VerifyClientProof(
		s.clientFirstBare, []byte(s.serverFirst), withoutProof,
		s.verifier.StoredKey, proof) {
		s.state = serverStateFailed
		return "", fmt.Errorf("%w: client proof does not match", common.ErrAuthenticationFailed)
	}

	final := BuildServerFinalMessage(
		s.clientFirstBare, []byte(s.serverFirst), withoutProof, s.verifier.ServerKey)
	s.state = serverStateDone
	return final, nil
}

// Authenticated reports whether the client proof was verified.
func (s *ServerSession) Authenticated() bool {
	return s.state == serverStateDone
}
