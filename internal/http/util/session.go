package util

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidSession = errors.New("invalid or expired session token")
	ErrMissingSecret  = errors.New("session secret is not configured")
)

// SessionSigner issues and verifies compact HMAC tokens that bind a merchant
// session to its store domain. Handlers trust the domain recovered from a
// valid token over anything the client declares in a payload.
type SessionSigner struct {
	secret []byte
	ttl    time.Duration
}

// NewSessionSigner returns a signer that issues store-domain session tokens.
func NewSessionSigner(secret []byte, ttl time.Duration) *SessionSigner {
	return &SessionSigner{
		secret: secret,
		ttl:    ttl,
	}
}

// Issue mints a token asserting a verified session for storeDomain.
func (s *SessionSigner) Issue(storeDomain string) (string, error) {
	if len(s.secret) == 0 {
		return "", ErrMissingSecret
	}
	if storeDomain == "" {
		return "", fmt.Errorf("session: empty store domain")
	}

	payload := make([]byte, 4+len(storeDomain))
	expires := uint32(time.Now().Add(s.ttl).Unix())
	binary.BigEndian.PutUint32(payload[:4], expires)
	copy(payload[4:], storeDomain)

	payloadEnc := base64.RawURLEncoding.EncodeToString(payload)
	signature := s.sign(payload)
	sigEnc := base64.RawURLEncoding.EncodeToString(signature[:16])
	return fmt.Sprintf("%s.%s", payloadEnc, sigEnc), nil
}

// Verify checks signature integrity and TTL, returning the store domain the
// token was issued for.
func (s *SessionSigner) Verify(token string) (string, error) {
	if len(s.secret) == 0 {
		return "", ErrMissingSecret
	}

	parts := strings.SplitN(token, ".", 2)
	if len(parts) != 2 {
		return "", ErrInvalidSession
	}

	payload, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return "", ErrInvalidSession
	}

	sigProvided, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return "", ErrInvalidSession
	}
	if len(sigProvided) != 16 {
		return "", ErrInvalidSession
	}

	expected := s.sign(payload)
	if !hmac.Equal(sigProvided, expected[:16]) {
		return "", ErrInvalidSession
	}

	if len(payload) <= 4 {
		return "", ErrInvalidSession
	}
	expires := binary.BigEndian.Uint32(payload[:4])
	if time.Now().Unix() > int64(expires) {
		return "", ErrInvalidSession
	}

	return string(payload[4:]), nil
}

func (s *SessionSigner) sign(payload []byte) []byte {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write(payload)
	return mac.Sum(nil)
}
