package scram

import (
	"bytes"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strconv"

	"github.com/dmitrijs2005/dbwire/internal/common"
)

// Handshake wire messages, per the RFC 5802 subset the protocol speaks
// (comma-separated attributes, order-sensitive):
//
//	client-first  <gs2-flag>,[a=<authzid>],n=<user>,r=<nonce>
//	server-first  r=<nonce1><nonce2>,s=<base64 salt>,i=<iterations>
//	client-final  c=biws,r=<nonce1><nonce2>,p=<base64 proof>
//	server-final  v=<base64 signature>
//
// "biws" is the base64 encoding of the "n,," gs2 header.

// ClientFirstMessage is the parsed form of a client-first message.
type ClientFirstMessage struct {
	// GS2HeaderLength is the byte length of the gs2 header prefix,
	// i.e. the offset of the bare part within the wire message.
	GS2HeaderLength int

	// ChannelBinding reports whether the client supports channel
	// binding ("y" or "p=<name>"). CBName carries the binding name
	// following "p=", if any.
	ChannelBinding bool
	CBName         string

	Authzid     string
	Username    string
	ClientNonce string
}

// BuildClientFirstMessage produces the client-first wire message and
// its bare part (without the gs2 header), which is later needed to
// assemble the auth message. The username is SASLprep-normalized.
func BuildClientFirstMessage(clientNonce, username string) (wire, bare string, err error) {
	prepped, err := saslPrep(username)
	if err != nil {
		return "", "", err
	}
	bare = fmt.Sprintf("n=%s,r=%s", prepped, clientNonce)
	return "n,," + bare, bare, nil
}

// BuildServerFirstMessage produces the server challenge carrying the
// combined nonce, the user's salt and the iteration count.
func BuildServerFirstMessage(serverNonce, clientNonce string, salt []byte, iterations int) string {
	return fmt.Sprintf("r=%s%s,s=%s,i=%d", clientNonce, serverNonce, b64(salt), iterations)
}

// BuildAuthMessage assembles the signed payload common to the client
// and server signatures: the comma-joined client-first-bare,
// server-first and client-final-without-proof messages.
func BuildAuthMessage(clientFirstBare, serverFirst, clientFinal []byte) []byte {
	return bytes.Join([][]byte{clientFirstBare, serverFirst, clientFinal}, []byte(","))
}

// BuildClientFinalMessage computes the client proof and produces the
// client-final wire message. It also returns the server signature the
// client must expect in the server-final message.
func BuildClientFinalMessage(
	password string,
	salt []byte,
	iterations int,
	clientFirstBare []byte,
	serverFirst []byte,
	serverNonce string,
) (message string, serverSignature []byte, err error) {
	clientFinal := "c=biws,r=" + serverNonce

	authMessage := BuildAuthMessage(clientFirstBare, serverFirst, []byte(clientFinal))

	prepped, err := saslPrep(password)
	if err != nil {
		return "", nil, err
	}
	saltedPassword, err := SaltedPassword([]byte(prepped), salt, iterations)
	if err != nil {
		return "", nil, err
	}

	clientKey := ClientKey(saltedPassword)
	storedKey := H(clientKey)
	clientSignature := HMAC(storedKey, authMessage)
	clientProof, err := XOR(clientKey, clientSignature)
	if err != nil {
		return "", nil, err
	}

	serverSignature = HMAC(ServerKey(saltedPassword), authMessage)

	return fmt.Sprintf("%s,p=%s", clientFinal, b64(clientProof)), serverSignature, nil
}

// BuildServerFinalMessage computes the server signature over the
// handshake transcript and formats the server-final message.
func BuildServerFinalMessage(clientFirstBare, serverFirst, clientFinal, serverKey []byte) string {
	authMessage := BuildAuthMessage(clientFirstBare, serverFirst, clientFinal)
	return "v=" + b64(HMAC(serverKey, authMessage))
}

// ParseClientFirstMessage validates and splits a client-first message.
// Validation order follows the message grammar: the channel-binding
// flag must be one of "y", "n" or "p=<name>" (an empty name after "p="
// is an error); an optional authzid must start with "a="; the username
// attribute must start with "n=" (an "m=" prefix signals a mandatory
// extension and is rejected); the nonce attribute must start with "r="
// and decode to printable ASCII. Trailing extension attributes are
// ignored.
func ParseClientFirstMessage(msg []byte) (*ClientFirstMessage, error) {
	attrs := bytes.Split(msg, []byte(","))
	if len(attrs) < 4 {
		return nil, common.ErrMalformedMessage
	}

	out := &ClientFirstMessage{}

	cbAttr := attrs[0]
	switch {
	case bytes.Equal(cbAttr, []byte("y")):
		out.ChannelBinding = true
	case bytes.Equal(cbAttr, []byte("n")):
		out.ChannelBinding = false
	case len(cbAttr) > 0 && cbAttr[0] == 'p':
		name := attrValue(cbAttr)
		if len(name) == 0 {
			return nil, common.ErrMalformedMessage
		}
		out.ChannelBinding = true
		out.CBName = string(name)
	default:
		return nil, common.ErrMalformedMessage
	}

	authzidAttr := attrs[1]
	if len(authzidAttr) > 0 {
		if authzidAttr[0] != 'a' {
			return nil, common.ErrMalformedMessage
		}
		out.Authzid = string(attrValue(authzidAttr))
	}

	userAttr := attrs[2]
	if len(userAttr) > 0 && userAttr[0] == 'm' {
		return nil, common.ErrUnsupportedExtensions
	}
	if len(userAttr) == 0 || userAttr[0] != 'n' {
		return nil, common.ErrMalformedMessage
	}
	out.Username = string(attrValue(userAttr))

	nonceAttr := attrs[3]
	if len(nonceAttr) == 0 || nonceAttr[0] != 'r' {
		return nil, common.ErrMalformedMessage
	}
	nonce := attrValue(nonceAttr)
	if !isPrintableASCII(nonce) {
		return nil, fmt.Errorf("%w: invalid characters in client nonce", common.ErrMalformedMessage)
	}
	out.ClientNonce = string(nonce)

	// Any [","extensions] past the nonce are ignored.

	out.GS2HeaderLength = len(cbAttr) + 2

	return out, nil
}

// ParseClientFinalMessage validates a client-final message against the
// nonces of the ongoing handshake and extracts the channel-binding data
// and the client proof. proofLen is the byte length of the ",p=..."
// tail, so msg[:len(msg)-proofLen] is client-final-without-proof. A
// nonce that does not equal clientNonce+serverNonce is the distinct
// common.ErrNonceMismatch; a missing proof or any attribute after the
// proof is malformed.
func ParseClientFinalMessage(msg []byte, clientNonce, serverNonce string) (cbData, proof []byte, proofLen int, err error) {
	attrs := bytes.Split(msg, []byte(","))
	if len(attrs) < 2 {
		return nil, nil, 0, common.ErrMalformedMessage
	}

	cbAttr := attrs[0]
	if len(cbAttr) == 0 || cbAttr[0] != 'c' {
		return nil, nil, 0, common.ErrMalformedMessage
	}
	cbData = attrValue(cbAttr)

	nonceAttr := attrs[1]
	if len(nonceAttr) == 0 || nonceAttr[0] != 'r' {
		return nil, nil, 0, common.ErrMalformedMessage
	}
	if string(attrValue(nonceAttr)) != clientNonce+serverNonce {
		return nil, nil, 0, common.ErrNonceMismatch
	}

	proofAttrLen := 0
	for _, attr := range attrs[2:] {
		if len(attr) > 0 && attr[0] == 'p' {
			proofAttrLen = len(attr)
			proof, err = base64.StdEncoding.DecodeString(string(attrValue(attr)))
			if err != nil {
				return nil, nil, 0, common.ErrMalformedMessage
			}
		} else if proof != nil {
			// Nothing may follow the proof attribute.
			return nil, nil, 0, common.ErrMalformedMessage
		}
	}
	if proof == nil {
		return nil, nil, 0, common.ErrMalformedMessage
	}

	// +1 accounts for the comma preceding the proof attribute.
	return cbData, proof, proofAttrLen + 1, nil
}

// ParseServerFirstMessage validates a server challenge and extracts the
// combined nonce, the salt and the iteration count.
func ParseServerFirstMessage(msg []byte) (nonce string, salt []byte, iterations int, err error) {
	attrs := bytes.Split(msg, []byte(","))
	if len(attrs) < 3 {
		return "", nil, 0, common.ErrMalformedMessage
	}

	nonceAttr := attrs[0]
	if len(nonceAttr) == 0 || nonceAttr[0] != 'r' {
		return "", nil, 0, common.ErrMalformedMessage
	}
	nonceBin := attrValue(nonceAttr)
	if !isPrintableASCII(nonceBin) {
		return "", nil, 0, common.ErrMalformedMessage
	}
	nonce = string(nonceBin)

	saltAttr := attrs[1]
	if len(saltAttr) == 0 || saltAttr[0] != 's' {
		return "", nil, 0, common.ErrMalformedMessage
	}
	salt, err = base64.StdEncoding.DecodeString(string(attrValue(saltAttr)))
	if err != nil {
		return "", nil, 0, common.ErrMalformedMessage
	}

	iterAttr := attrs[2]
	if len(iterAttr) == 0 || iterAttr[0] != 'i' {
		return "", nil, 0, common.ErrMalformedMessage
	}
	iterations, err = strconv.Atoi(string(attrValue(iterAttr)))
	if err != nil {
		return "", nil, 0, common.ErrMalformedMessage
	}

	return nonce, salt, iterations, nil
}

// ParseServerFinalMessage validates a server-final message and extracts
// the server signature.
func ParseServerFinalMessage(msg []byte) ([]byte, error) {
	attrs := bytes.Split(msg, []byte(","))

	sigAttr := attrs[0]
	if len(sigAttr) == 0 || sigAttr[0] != 'v' {
		return nil, common.ErrMalformedMessage
	}

	signature, err := base64.StdEncoding.DecodeString(string(attrValue(sigAttr)))
	if err != nil {
		return nil, common.ErrMalformedMessage
	}

	return signature, nil
}

// VerifyClientProof recomputes the client signature over the handshake
// transcript, recovers the client key from the proof and checks that it
// hashes to the stored key.
func VerifyClientProof(clientFirstBare, serverFirst, clientFinal, storedKey, clientProof []byte) bool {
	authMessage := BuildAuthMessage(clientFirstBare, serverFirst, clientFinal)
	clientSignature := HMAC(storedKey, authMessage)

	clientKey, err := XOR(clientProof, clientSignature)
	if err != nil {
		return false
	}

	return subtle.ConstantTimeCompare(H(clientKey), storedKey) == 1
}

// attrValue returns the attribute value following the first '='. An
// attribute without '=' has an empty value, matching the partition
// semantics of the message grammar.
func attrValue(attr []byte) []byte {
	if i := bytes.IndexByte(attr, '='); i >= 0 {
		return attr[i+1:]
	}
	return nil
}

func isPrintableASCII(p []byte) bool {
	for _, b := range p {
		if b < 0x20 || b > 0x7e {
			return false
		}
	}
	return true
}
