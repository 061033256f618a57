package application

import (
	"crypto/sha256"
	"crypto/subtle"
	"errors"

	"voice-chat/internal/domain"
)

// Gate is a convenience password check in front of the chat page. It is not
// an authentication system.
type Gate struct {
	digest [sha256.Size]byte
}

func NewGate(secret string) (*Gate, error) {
	if secret == "" {
		return nil, errors.New("gate secret is empty: set password in the secrets file")
	}
	return &Gate{digest: sha256.Sum256([]byte(secret))}, nil
}

// Check evaluates credential for sess and records the result on it. An
// authorized session is never evaluated again, and an empty credential
// means nothing was submitted yet. The credential itself is not kept.
func (g *Gate) Check(sess *domain.Session, credential string) (bool, error) {
	if sess.Authorized {
		return true, nil
	}

	if credential == "" {
		return false, nil
	}

	if !g.matches(credential) {
		sess.Rejected = true
		return false, domain.ErrAuthMismatch
	}

	sess.Authorized = true
	sess.Rejected = false
	return true, nil
}

func (g *Gate) Authorized(sess *domain.Session) bool {
	return sess != nil && sess.Authorized
}

func (g *Gate) matches(credential string) bool {
	sum := sha256.Sum256([]byte(credential))
	return SecretsEqual(sum[:], g.digest[:])
}

// SecretsEqual compares two digests in time independent of their contents.
// Callers hash first so both inputs always have the same length.
func SecretsEqual(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}
