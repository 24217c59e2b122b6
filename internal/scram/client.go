package scram

import (
	"crypto/subtle"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/dbwire/internal/common"
)

type clientState int

const (
	clientStateInit clientState = iota
	clientStateSentFirst
	clientStateAwaitServerFinal
	clientStateDone
	clientStateFailed
)

// ClientSession drives the client side of a single handshake attempt:
//
//	Init -> SentFirst -> AwaitServerFinal -> {Done | Failed}
//
// Each step consumes the message received from the server and produces
// the next message to send. Any failure (malformed message, nonce or
// signature mismatch) is terminal for the session; retrying a full
// handshake is the caller's responsibility.
type ClientSession struct {
	username string
	password string

	state          clientState
	clientNonce    string
	firstBare      string
	expectedSrvSig []byte
}

// NewClientSession prepares a handshake attempt for the given
// credentials. No messages are built until ClientFirst is called.
func NewClientSession(username, password string) *ClientSession {
	return &ClientSession{username: username, password: password}
}

// ClientFirst generates the client nonce and returns the client-first
// wire message.
func (c *ClientSession) ClientFirst() (string, error) {
	if c.state != clientStateInit {
		return "", common.ErrHandshakeState
	}

	c.clientNonce = GenerateNonce()
	wire, bare, err := BuildClientFirstMessage(c.clientNonce, c.username)
	if err != nil {
		c.state = clientStateFailed
		return "", err
	}

	c.firstBare = bare
	c.state = clientStateSentFirst
	return wire, nil
}

// ServerFirst consumes the server challenge and returns the
// client-final message carrying the proof.
func (c *ClientSession) ServerFirst(msg []byte) (string, error) {
	if c.state != clientStateSentFirst {
		return "", common.ErrHandshakeState
	}

	nonce, salt, iterations, err := ParseServerFirstMessage(msg)
	if err != nil {
		c.state = clientStateFailed
		return "", err
	}

	// The combined nonce must extend the one this session generated.
	if !strings.HasPrefix(nonce, c.clientNonce) {
		c.state = clientStateFailed
		return "", common.ErrNonceMismatch
	}

	final, serverSignature, err := BuildClientFinalMessage(
		c.password, salt, iterations, []byte(c.firstBare), msg, nonce)
	if err != nil {
		c.state = clientStateFailed
		return "", err
	}

	c.expectedSrvSig = serverSignature
	c.state = clientStateAwaitServerFinal
	return final, nil
}

// ServerFinal consumes the server-final message and verifies the server
// signature, completing mutual authentication.
func (c *ClientSession) ServerFinal(msg []byte) error {
	if c.state != clientStateAwaitServerFinal {
		return common.ErrHandshakeState
	}

	signature, err := ParseServerFinalMessage(msg)
	if err != nil {
		c.state = clientStateFailed
		return err
	}

	if subtle.ConstantTimeCompare(signature, c.expectedSrvSig) != 1 {
		c.state = clientStateFailed
		return fmt.Errorf("%w: server signature does not match", common.ErrAuthenticationFailed)
	}

	c.state = clientStateDone
	return nil
}

// Authenticated reports whether the handshake completed successfully.
func (c *ClientSession) Authenticated() bool {
	return c.state == clientStateDone
}
