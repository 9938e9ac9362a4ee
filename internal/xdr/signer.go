package xdr

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"math/big"
	"strconv"
	"time"
)

const (
	nonceLength   = 64
	nonceAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// Clock returns the current time. Injected so tests can pin the timestamp.
type Clock func() time.Time

// Signer produces authentication headers for one request. The advanced
// scheme binds the signature to a single-use nonce and millisecond
// timestamp so a captured request cannot be replayed; randomness must come
// from a CSPRNG or that property is void.
type Signer struct {
	clock Clock
	rand  io.Reader
}

// SignerOption configures a Signer.
type SignerOption func(*Signer)

// WithClock overrides the time source.
func WithClock(c Clock) SignerOption {
	return func(s *Signer) { s.clock = c }
}

// WithRandom overrides the randomness source. Production code must not use
// this to substitute a non-cryptographic source.
func WithRandom(r io.Reader) SignerOption {
	return func(s *Signer) { s.rand = r }
}

// NewSigner creates a Signer backed by the system clock and crypto/rand.
func NewSigner(opts ...SignerOption) *Signer {
	s := &Signer{
		clock: time.Now,
		rand:  rand.Reader,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sign generates the authentication headers for a single request. Headers
// are regenerated per request; advanced-scheme nonces and timestamps are
// never reused.
func (s *Signer) Sign(keyID int, key string, keyType KeyType) (map[string]string, error) {
	if keyType != KeyTypeAdvanced {
		return map[string]string{
			"Authorization": key,
			"x-xdr-auth-id": strconv.Itoa(keyID),
		}, nil
	}

	nonce, err := s.nonce()
	if err != nil {
		return nil, fmt.Errorf("generating nonce: %w", err)
	}
	timestamp := s.clock().UTC().UnixMilli()

	authKey := key + nonce + strconv.FormatInt(timestamp, 10)
	sum := sha256.Sum256([]byte(authKey))

	return map[string]string{
		"x-xdr-timestamp": strconv.FormatInt(timestamp, 10),
		"x-xdr-nonce":     nonce,
		"x-xdr-auth-id":   strconv.Itoa(keyID),
		"Authorization":   hex.EncodeToString(sum[:]),
	}, nil
}

// nonce draws nonceLength symbols uniformly from the alphanumeric alphabet.
func (s *Signer) nonce() (string, error) {
	max := big.NewInt(int64(len(nonceAlphabet)))
	b := make([]byte, nonceLength)
	for i := range b {
		n, err := rand.Int(s.rand, max)
		if err != nil {
			return "", err
		}
		b[i] = nonceAlphabet[n.Int64()]
	}
	return string(b), nil
}
